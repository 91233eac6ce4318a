package filestore

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
)

// Kind classifies a store failure
type Kind int

const (
	CreateFailed Kind = iota + 1
	MetadataReadFailed
	InvalidOffset
	StreamReadFailed
	WriteFailed
	HashFailed
	SniffFailed
	PromoteFailed
	OpenFailed
	RemoveFailed
)

func (k Kind) String() string {
	switch k {
	case CreateFailed:
		return "CreateFailed"
	case MetadataReadFailed:
		return "MetadataReadFailed"
	case InvalidOffset:
		return "InvalidOffset"
	case StreamReadFailed:
		return "StreamReadFailed"
	case WriteFailed:
		return "WriteFailed"
	case HashFailed:
		return "HashFailed"
	case SniffFailed:
		return "SniffFailed"
	case PromoteFailed:
		return "PromoteFailed"
	case OpenFailed:
		return "OpenFailed"
	case RemoveFailed:
		return "RemoveFailed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by every Driver operation.
// For StreamReadFailed, Err is the caller's reader error, left uninspected.
type Error struct {
	Kind      Kind
	Op        string
	Namespace Namespace
	ID        uuid.UUID

	// set for InvalidOffset
	Offset      uint64
	CurrentSize uint64

	Err error
}

func (e *Error) Error() string {
	if e.Kind == InvalidOffset {
		return fmt.Sprintf("filestore: %s %s/%s: invalid offset; offset is `%d`, but file size is `%d`",
			e.Op, e.Namespace, e.ID, e.Offset, e.CurrentSize)
	}
	if e.Err != nil {
		return fmt.Sprintf("filestore: %s %s/%s: %s: %v", e.Op, e.Namespace, e.ID, e.Kind, e.Err)
	}
	return fmt.Sprintf("filestore: %s %s/%s: %s", e.Op, e.Namespace, e.ID, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode maps the kind onto the central code table
func (e *Error) ErrorCode() int {
	switch e.Kind {
	case CreateFailed:
		return apperrors.ErrStorageCreateFailed
	case MetadataReadFailed:
		return apperrors.ErrStorageMetadataFailed
	case InvalidOffset:
		return apperrors.ErrStorageInvalidOffset
	case StreamReadFailed:
		return apperrors.ErrStorageStreamFailed
	case WriteFailed:
		return apperrors.ErrStorageWriteFailed
	case HashFailed:
		return apperrors.ErrStorageHashFailed
	case SniffFailed:
		return apperrors.ErrStorageSniffFailed
	case PromoteFailed:
		return apperrors.ErrStoragePromoteFailed
	case OpenFailed:
		return apperrors.ErrStorageOpenFailed
	case RemoveFailed:
		return apperrors.ErrStorageRemoveFailed
	}
	return apperrors.ErrInternalServer
}

// PublicDetail only reveals the offsets, which the client already knows
func (e *Error) PublicDetail() string {
	if e.Kind == InvalidOffset {
		return fmt.Sprintf("offset %d exceeds current size %d", e.Offset, e.CurrentSize)
	}
	return ""
}

// IsKind reports whether err is a store error of kind k
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
