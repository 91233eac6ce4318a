package biz

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lk2023060901/file-storage-backend/internal/archive"
	"github.com/lk2023060901/file-storage-backend/internal/filestore"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/search"
	tagbiz "github.com/lk2023060901/file-storage-backend/internal/tagtemplate/biz"
	"go.uber.org/zap"
)

// PageSize is the fixed page size of file listings.
const PageSize = 40

// File is a stored file record. Mime, Size, Hash and UploadedAt stay nil
// until the bytes are committed; see Complete.
type File struct {
	ID         uuid.UUID
	Name       string
	Mime       *string
	Size       *uint64
	Hash       *uint32
	UploadedAt *time.Time
	CreatedAt  time.Time
	Tags       []Tag
}

// Complete reports whether every derived field is set.
func (f *File) Complete() bool {
	return f.Mime != nil && f.Size != nil && f.Hash != nil && f.UploadedAt != nil
}

// SetContent fills the derived fields in one step.
func (f *File) SetContent(mime string, size uint64, hash uint32, at time.Time) {
	f.Mime = &mime
	f.Size = &size
	f.Hash = &hash
	f.UploadedAt = &at
}

// Tag attaches a template, and optionally a value, to a file.
type Tag struct {
	TemplateID uuid.UUID
	Value      *tagbiz.Value
}

// Transactor runs fn inside one database transaction carried by ctx.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// FileRepo defines the repository interface for files
type FileRepo interface {
	// Create inserts the file row and its tags.
	Create(ctx context.Context, f *File) error
	// Get loads a file with its tags.
	Get(ctx context.Context, id uuid.UUID) (*File, error)
	// GetForUpdate loads a file without tags and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*File, error)
	// SetContent stores the derived fields of f in one statement.
	SetContent(ctx context.Context, f *File) error
	Search(ctx context.Context, q *SearchQuery) ([]*File, error)
}

// FileUseCase contains business logic for files
type FileUseCase struct {
	tx          Transactor
	repo        FileRepo
	templates   tagbiz.TagTemplateRepo
	store       *filestore.Driver
	index       search.Index
	mirror      archive.Mirror
	searchLimit int
	logger      *logger.Logger
}

// NewFileUseCase creates a new file use case
func NewFileUseCase(
	tx Transactor,
	repo FileRepo,
	templates tagbiz.TagTemplateRepo,
	store *filestore.Driver,
	index search.Index,
	mirror archive.Mirror,
	searchLimit int,
	log *logger.Logger,
) *FileUseCase {
	if searchLimit <= 0 {
		searchLimit = search.DefaultLimit
	}
	if mirror == nil {
		mirror = archive.Disabled{}
	}
	return &FileUseCase{
		tx:          tx,
		repo:        repo,
		templates:   templates,
		store:       store,
		index:       index,
		mirror:      mirror,
		searchLimit: searchLimit,
		logger:      log.Named("file"),
	}
}

// PrepareRequest is the input of Prepare
type PrepareRequest struct {
	Name string
	Tags []Tag
}

// Prepare validates the name and tags and creates an empty file record
// ready to receive bytes. Nothing is stored unless every tag is valid.
func (uc *FileUseCase) Prepare(ctx context.Context, req *PrepareRequest) (uuid.UUID, error) {
	if utf8.RuneCountInString(req.Name) < 1 {
		return uuid.Nil, FilenameTooShort(req.Name)
	}

	tags := append([]Tag(nil), req.Tags...)
	sort.Slice(tags, func(i, j int) bool {
		return bytes.Compare(tags[i].TemplateID[:], tags[j].TemplateID[:]) < 0
	})
	ids := make([]uuid.UUID, len(tags))
	for i, t := range tags {
		ids[i] = t.TemplateID
	}

	templates, err := tagbiz.ResolveTemplates(ctx, uc.templates, ids)
	if err != nil {
		return uuid.Nil, err
	}
	for i, t := range templates {
		if err := tagbiz.CheckValue(t.ID, t.ValueType, tags[i].Value); err != nil {
			return uuid.Nil, err
		}
	}

	f := &File{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: now(),
		Tags:      tags,
	}
	err = uc.tx.InTx(ctx, func(ctx context.Context) error {
		return uc.repo.Create(ctx, f)
	})
	if err != nil {
		return uuid.Nil, apperrors.Wrap(fmt.Errorf("create file: %w", err), apperrors.ErrDatabase)
	}

	uc.logger.WithContext(ctx).Info("file prepared", zap.String("file_id", f.ID.String()), zap.Int("tags", len(tags)))
	return f.ID, nil
}

// Upload writes body into the committed object of file id starting at
// offset, then records the derived metadata. The row lock taken first
// serializes concurrent uploads to the same file. A file whose content is
// already recorded is rejected before any byte is written.
//
// Bytes already written stay on disk when a later step fails; the client
// resumes or restarts from 0. The search index is updated after the commit:
// an index failure is returned to the caller, the file stays complete.
func (uc *FileUseCase) Upload(ctx context.Context, id uuid.UUID, offset uint64, body io.Reader) (*File, error) {
	var f *File
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		locked, err := uc.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if locked.Complete() {
			return AlreadyUploaded(id)
		}

		size, err := uc.store.Write(ctx, filestore.Committed, id, offset, body)
		if err != nil {
			return err
		}
		md, err := uc.store.ReadMetadata(ctx, filestore.Committed, id, locked.Name)
		if err != nil {
			return err
		}

		locked.SetContent(md.Mime, size, md.Hash, now())
		if err := uc.repo.SetContent(ctx, locked); err != nil {
			return apperrors.Wrap(fmt.Errorf("update file %s: %w", id, err), apperrors.ErrDatabase)
		}
		f = locked
		return nil
	})
	if err != nil {
		uc.logger.WithContext(ctx).Warn("file upload failed",
			zap.String("file_id", id.String()),
			zap.Uint64("offset", offset),
			zap.Error(err),
		)
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase)
	}

	uc.mirror.Mirror(ctx, ArchiveObject(f, uc.store.Path(filestore.Committed, f.ID)))
	uc.logger.WithContext(ctx).Info("file uploaded",
		zap.String("file_id", f.ID.String()),
		zap.Uint64("size", *f.Size),
		zap.String("mime", *f.Mime),
	)
	if err := uc.index.Upsert(ctx, Document(f)); err != nil {
		uc.logger.WithContext(ctx).Error("file committed but not indexed", zap.String("file_id", f.ID.String()), zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrSearchIndex)
	}
	return f, nil
}

// Get returns a file with its tags; derived fields may still be nil
func (uc *FileUseCase) Get(ctx context.Context, id uuid.UUID) (*File, error) {
	f, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase)
	}
	return f, nil
}

// OpenContent opens the committed bytes of a complete file. The caller
// closes the returned handle.
func (uc *FileUseCase) OpenContent(ctx context.Context, id uuid.UUID) (*File, *os.File, error) {
	f, err := uc.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !f.Complete() {
		return nil, nil, Incomplete(id)
	}
	r, err := uc.store.Open(filestore.Committed, id)
	if err != nil {
		return nil, nil, err
	}
	return f, r, nil
}

// Document is the search index view of a complete file.
func Document(f *File) search.Document {
	doc := search.Document{ID: f.ID, Name: f.Name}
	if f.Mime != nil {
		doc.Mime = *f.Mime
	}
	if f.Size != nil {
		doc.Size = *f.Size
	}
	if f.Hash != nil {
		doc.Hash = *f.Hash
	}
	if f.UploadedAt != nil {
		doc.UploadedAt = *f.UploadedAt
	}
	return doc
}

// ArchiveObject describes a committed file for the object storage mirror.
func ArchiveObject(f *File, path string) archive.Object {
	obj := archive.Object{ID: f.ID, Name: f.Name, Path: path}
	if f.Mime != nil {
		obj.Mime = *f.Mime
	}
	if f.Hash != nil {
		obj.Hash = *f.Hash
	}
	return obj
}

// postgres keeps microseconds
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
