package biz

import (
	"github.com/google/uuid"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
)

var (
	// ErrFileNotFound 文件不存在
	ErrFileNotFound = apperrors.New(apperrors.ErrFileNotFound)
)

// NotFound reports a missing file with its id in the public detail
func NotFound(id uuid.UUID) error {
	return apperrors.Newf(apperrors.ErrFileNotFound, "file `%s` is not found", id).WithCause(ErrFileNotFound)
}

// Incomplete reports a file whose bytes have not been uploaded yet
func Incomplete(id uuid.UUID) error {
	return apperrors.Newf(apperrors.ErrFileIncomplete, "file `%s` has no uploaded content", id)
}

// FilenameTooShort rejects an empty display name
func FilenameTooShort(name string) error {
	return apperrors.Newf(apperrors.ErrFilenameTooShort, "filename `%s` is too short", name)
}

// AlreadyUploaded rejects a write to a file whose content is already committed
func AlreadyUploaded(id uuid.UUID) error {
	return apperrors.Newf(apperrors.ErrFileAlreadyUploaded, "file `%s` already has uploaded content", id)
}
