package biz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lk2023060901/file-storage-backend/internal/archive"
	filebiz "github.com/lk2023060901/file-storage-backend/internal/file/biz"
	"github.com/lk2023060901/file-storage-backend/internal/filestore"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/search"
	"go.uber.org/zap"
)

// Staging is an upload slot. Its bytes live in the staging namespace of the
// store under the same id until they are promoted into a file.
type Staging struct {
	ID       uuid.UUID
	StagedAt time.Time
}

// Status is a staging together with the number of bytes received so far.
type Status struct {
	Staging
	StagedSize uint64
}

// StagingRepo defines the repository interface for stagings
type StagingRepo interface {
	Create(ctx context.Context, s *Staging) error
	Get(ctx context.Context, id uuid.UUID) (*Staging, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Staging, error)
	Delete(ctx context.Context, ids ...uuid.UUID) error
	// LockExpired locks up to limit stagings created before cutoff, skipping
	// rows another transaction holds.
	LockExpired(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

// StagingUseCase contains business logic for stagings
type StagingUseCase struct {
	tx     filebiz.Transactor
	repo   StagingRepo
	files  filebiz.FileRepo
	store  *filestore.Driver
	index  search.Index
	mirror archive.Mirror
	logger *logger.Logger
}

// NewStagingUseCase creates a new staging use case
func NewStagingUseCase(
	tx filebiz.Transactor,
	repo StagingRepo,
	files filebiz.FileRepo,
	store *filestore.Driver,
	index search.Index,
	mirror archive.Mirror,
	log *logger.Logger,
) *StagingUseCase {
	if mirror == nil {
		mirror = archive.Disabled{}
	}
	return &StagingUseCase{
		tx:     tx,
		repo:   repo,
		files:  files,
		store:  store,
		index:  index,
		mirror: mirror,
		logger: log.Named("staging"),
	}
}

// Create allocates a new upload slot
func (uc *StagingUseCase) Create(ctx context.Context) (*Staging, error) {
	s := &Staging{ID: uuid.New(), StagedAt: now()}
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, apperrors.Wrap(fmt.Errorf("create staging: %w", err), apperrors.ErrDatabase)
	}
	uc.logger.WithContext(ctx).Debug("staging created", zap.String("staging_id", s.ID.String()))
	return s, nil
}

// Get returns a staging and how many bytes it holds
func (uc *StagingUseCase) Get(ctx context.Context, id uuid.UUID) (*Status, error) {
	s, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase)
	}
	size, _, err := uc.store.SizeOf(filestore.Staging, id)
	if err != nil {
		return nil, err
	}
	return &Status{Staging: *s, StagedSize: size}, nil
}

// Upload streams the single part of body into staging id at offset and
// turns the staging into a complete file. Every part counts as a field: the
// body must hold exactly one, and it must carry a non-empty filename.
//
// Everything up to the promote runs under the staging row lock, and the
// promote is the last step inside the transaction, so any earlier failure
// leaves the staged bytes in place for a resume. When the commit itself fails
// after the promote, the object is moved back under the staging id. The
// search index is updated after the commit; an index failure is returned to
// the caller while the new file stays complete.
func (uc *StagingUseCase) Upload(ctx context.Context, id uuid.UUID, offset uint64, body *multipart.Reader) (*filebiz.File, error) {
	var (
		f        *filebiz.File
		promoted bool
	)
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := uc.repo.GetForUpdate(ctx, id); err != nil {
			return err
		}

		name, size, err := uc.writePart(ctx, id, offset, body)
		if err != nil {
			return err
		}
		md, err := uc.store.ReadMetadata(ctx, filestore.Staging, id, name)
		if err != nil {
			return err
		}

		at := now()
		f = &filebiz.File{ID: uuid.New(), Name: name, CreatedAt: at}
		f.SetContent(md.Mime, size, md.Hash, at)
		if err := uc.files.Create(ctx, f); err != nil {
			return apperrors.Wrap(fmt.Errorf("insert file: %w", err), apperrors.ErrDatabase)
		}
		if err := uc.repo.Delete(ctx, id); err != nil {
			return apperrors.Wrap(fmt.Errorf("delete staging %s: %w", id, err), apperrors.ErrDatabase)
		}
		if err := uc.store.Promote(id, f.ID); err != nil {
			return err
		}
		promoted = true
		return nil
	})
	if err != nil {
		if promoted {
			// commit 失败：把对象移回暂存区，保持与数据库一致
			if uerr := uc.store.Unpromote(f.ID, id); uerr != nil {
				uc.logger.WithContext(ctx).Error("failed to restore staged object after commit failure",
					zap.String("staging_id", id.String()),
					zap.String("file_id", f.ID.String()),
					zap.Error(uerr),
				)
			}
		}
		uc.logger.WithContext(ctx).Warn("staging upload failed",
			zap.String("staging_id", id.String()),
			zap.Uint64("offset", offset),
			zap.Error(err),
		)
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase)
	}

	uc.mirror.Mirror(ctx, filebiz.ArchiveObject(f, uc.store.Path(filestore.Committed, f.ID)))
	uc.logger.WithContext(ctx).Info("staging promoted",
		zap.String("staging_id", id.String()),
		zap.String("file_id", f.ID.String()),
		zap.Uint64("size", *f.Size),
	)
	if err := uc.index.Upsert(ctx, filebiz.Document(f)); err != nil {
		uc.logger.WithContext(ctx).Error("file committed but not indexed", zap.String("file_id", f.ID.String()), zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrSearchIndex)
	}
	return f, nil
}

// writePart enforces exactly one part carrying a filename and writes it. A
// second part fails after the first one was written; the transaction
// discards the row changes but not the bytes.
func (uc *StagingUseCase) writePart(ctx context.Context, id uuid.UUID, offset uint64, body *multipart.Reader) (string, uint64, error) {
	var (
		name  string
		size  uint64
		found bool
	)
	for {
		p, err := body.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", 0, MultipartBroken(err)
		}
		if found {
			return "", 0, ErrMultipleFieldFound
		}
		found = true

		filename, ok := FileName(p.Header.Get("Content-Disposition"))
		if !ok || utf8.RuneCountInString(filename) < 1 {
			return "", 0, ErrInvalidFileName
		}
		name = filename
		if size, err = uc.store.Write(ctx, filestore.Staging, id, offset, p); err != nil {
			return "", 0, err
		}
	}
	if !found {
		return "", 0, ErrNoFieldFound
	}
	return name, size, nil
}

// FileName extracts the filename parameter of a part's Content-Disposition.
// isFile is false when the parameter is absent; a present but empty
// parameter yields ("", true).
func FileName(disposition string) (name string, isFile bool) {
	if disposition == "" {
		return "", false
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return "", false
	}
	name, isFile = params["filename"]
	return name, isFile
}

// postgres keeps microseconds
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
