package biz

import (
	"github.com/google/uuid"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
)

var (
	// ErrStagingNotFound 暂存记录不存在
	ErrStagingNotFound = apperrors.New(apperrors.ErrStagingNotFound)

	// ErrNoFieldFound 请求中没有任何字段
	ErrNoFieldFound = apperrors.New(apperrors.ErrNoFieldFound, "field was not found; a file field is required")

	// ErrMultipleFieldFound 请求中有多个字段
	ErrMultipleFieldFound = apperrors.New(apperrors.ErrMultipleFieldFound, "multiple fields were found; only one field is allowed")

	// ErrInvalidFileName 字段缺少文件名或文件名为空
	ErrInvalidFileName = apperrors.New(apperrors.ErrInvalidFileName, "invalid filename; it must be a valid filename")
)

// NotFound reports a missing staging with its id in the public detail
func NotFound(id uuid.UUID) error {
	return apperrors.Newf(apperrors.ErrStagingNotFound, "staging `%s` was not found", id).WithCause(ErrStagingNotFound)
}

// MultipartBroken wraps a framing error raised while reading the body
func MultipartBroken(err error) error {
	return apperrors.Wrap(err, apperrors.ErrMultipartBroken, err.Error())
}
