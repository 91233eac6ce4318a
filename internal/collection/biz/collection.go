package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	filebiz "github.com/lk2023060901/file-storage-backend/internal/file/biz"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

var (
	// ErrCollectionNotFound 收藏夹不存在
	ErrCollectionNotFound = apperrors.New(apperrors.ErrCollectionNotFound)

	// ErrNameEmpty 收藏夹名称为空
	ErrNameEmpty = apperrors.New(apperrors.ErrCollectionNameEmpty, "collection name must not be empty")
)

// NotFound reports a missing collection with its uuid in the public detail
func NotFound(id uuid.UUID) error {
	return apperrors.Newf(apperrors.ErrCollectionNotFound, "collection `%s` was not found", id).WithCause(ErrCollectionNotFound)
}

// Collection is a named group of files. ID is the serial key used as the
// pagination cursor; UUID is the public identity.
type Collection struct {
	ID          int64
	UUID        uuid.UUID
	Name        string
	Description *string
	CreatedAt   time.Time
}

// Order is the direction of a collection listing
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ListQuery pages through collections by id. LastID continues after the last
// item of the current page; FirstID goes back to the page before the first
// item. At most one of them may be set.
type ListQuery struct {
	FirstID    *int64
	LastID     *int64
	Order      Order
	PageSize   int
	FilterName *string
}

// Keyset is the repository form of a listing: ids strictly after After and
// strictly before Before, ordered by id.
type Keyset struct {
	After     *int64
	Before    *int64
	Ascending bool
	Limit     int
	Name      *string
}

// Page is one listing page in display order
type Page struct {
	HasPrev bool
	HasNext bool
	Items   []*Collection
}

// CollectionRepo defines the repository interface for collections
type CollectionRepo interface {
	Create(ctx context.Context, c *Collection) error
	Get(ctx context.Context, id uuid.UUID) (*Collection, error)
	// Update stores name and description; a missing row is NotFound.
	Update(ctx context.Context, c *Collection) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, k *Keyset) ([]*Collection, error)
	Exists(ctx context.Context, k *Keyset) (bool, error)

	AddFile(ctx context.Context, collectionID int64, fileID uuid.UUID) error
	// RemoveFile reports whether the pair existed.
	RemoveFile(ctx context.Context, collectionID int64, fileID uuid.UUID) (bool, error)
	HasFile(ctx context.Context, collectionID int64, fileID uuid.UUID) (bool, error)
	// ListFiles returns complete member files ordered by uuid.
	ListFiles(ctx context.Context, collectionID int64, page, pageSize int) ([]*filebiz.File, error)
}

// CollectionUseCase contains business logic for collections
type CollectionUseCase struct {
	tx     filebiz.Transactor
	repo   CollectionRepo
	files  filebiz.FileRepo
	logger *logger.Logger
}

// NewCollectionUseCase creates a new collection use case
func NewCollectionUseCase(tx filebiz.Transactor, repo CollectionRepo, files filebiz.FileRepo, log *logger.Logger) *CollectionUseCase {
	return &CollectionUseCase{
		tx:     tx,
		repo:   repo,
		files:  files,
		logger: log.Named("collection"),
	}
}

// List returns one page of collections with flags telling whether more
// items exist on either side.
func (uc *CollectionUseCase) List(ctx context.Context, q *ListQuery) (*Page, error) {
	k, reverse, err := keyset(q)
	if err != nil {
		return nil, err
	}

	page := &Page{}
	err = uc.tx.InTx(ctx, func(ctx context.Context) error {
		items, err := uc.repo.List(ctx, k)
		if err != nil {
			return err
		}
		if reverse {
			for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
				items[i], items[j] = items[j], items[i]
			}
		}
		page.Items = items
		if len(items) == 0 {
			return nil
		}

		first, last := items[0].ID, items[len(items)-1].ID
		before := &Keyset{Limit: 1, Name: q.FilterName}
		after := &Keyset{Limit: 1, Name: q.FilterName}
		if q.Order == OrderAsc {
			before.Before = &first
			after.After = &last
		} else {
			before.After = &first
			after.Before = &last
		}

		if page.HasPrev, err = uc.repo.Exists(ctx, before); err != nil {
			return err
		}
		page.HasNext, err = uc.repo.Exists(ctx, after)
		return err
	})
	if err != nil {
		return nil, apperrors.Wrap(fmt.Errorf("list collections: %w", err), apperrors.ErrDatabase)
	}
	return page, nil
}

// keyset normalizes q in place and translates it. reverse is set when the
// rows come back opposite to display order, which is how the previous page
// is fetched.
func keyset(q *ListQuery) (*Keyset, bool, error) {
	switch q.Order {
	case "":
		q.Order = OrderDesc
	case OrderAsc, OrderDesc:
	default:
		return nil, false, apperrors.Newf(apperrors.ErrCollectionPagination, "order `%s` must be asc or desc", q.Order)
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return nil, false, apperrors.Newf(apperrors.ErrCollectionPagination, "pageSize `%d` must be between 1 and %d", q.PageSize, MaxPageSize)
	}
	if q.FirstID != nil && q.LastID != nil {
		return nil, false, apperrors.New(apperrors.ErrCollectionPagination, "firstId and lastId are mutually exclusive")
	}
	for _, id := range []*int64{q.FirstID, q.LastID} {
		if id != nil && *id < 1 {
			return nil, false, apperrors.Newf(apperrors.ErrCollectionPagination, "cursor `%d` must be >= 1", *id)
		}
	}

	asc := q.Order == OrderAsc
	k := &Keyset{Ascending: asc, Limit: q.PageSize, Name: q.FilterName}
	switch {
	case q.LastID != nil && asc:
		k.After = q.LastID
	case q.LastID != nil:
		k.Before = q.LastID
	case q.FirstID != nil && asc:
		k.Before = q.FirstID
		k.Ascending = false
		return k, true, nil
	case q.FirstID != nil:
		k.After = q.FirstID
		k.Ascending = true
		return k, true, nil
	}
	return k, false, nil
}

// Get returns one collection
func (uc *CollectionUseCase) Get(ctx context.Context, id uuid.UUID) (*Collection, error) {
	c, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase)
	}
	return c, nil
}

// Create stores a new collection
func (uc *CollectionUseCase) Create(ctx context.Context, name string, description *string) (*Collection, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameEmpty
	}
	c := &Collection{
		UUID:        uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, apperrors.Wrap(fmt.Errorf("create collection: %w", err), apperrors.ErrDatabase)
	}
	uc.logger.WithContext(ctx).Info("collection created", zap.String("collection_id", c.UUID.String()))
	return c, nil
}

// Update replaces name and description
func (uc *CollectionUseCase) Update(ctx context.Context, id uuid.UUID, name string, description *string) (*Collection, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameEmpty
	}

	var c *Collection
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if c, err = uc.repo.Get(ctx, id); err != nil {
			return err
		}
		c.Name = name
		c.Description = description
		return uc.repo.Update(ctx, c)
	})
	if err != nil {
		return nil, apperrors.Wrap(fmt.Errorf("update collection %s: %w", id, err), apperrors.ErrDatabase)
	}
	return c, nil
}

// Delete removes a collection and its memberships
func (uc *CollectionUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return apperrors.Wrap(fmt.Errorf("delete collection %s: %w", id, err), apperrors.ErrDatabase)
	}
	uc.logger.WithContext(ctx).Info("collection deleted", zap.String("collection_id", id.String()))
	return nil
}

// AddFile puts a file into a collection; adding it twice is a no-op
func (uc *CollectionUseCase) AddFile(ctx context.Context, id, fileID uuid.UUID) error {
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := uc.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if _, err := uc.files.Get(ctx, fileID); err != nil {
			return err
		}
		return uc.repo.AddFile(ctx, c.ID, fileID)
	})
	if err != nil {
		return apperrors.Wrap(fmt.Errorf("add file %s to collection %s: %w", fileID, id, err), apperrors.ErrDatabase)
	}
	return nil
}

// RemoveFile takes a file out of a collection
func (uc *CollectionUseCase) RemoveFile(ctx context.Context, id, fileID uuid.UUID) error {
	c, err := uc.Get(ctx, id)
	if err != nil {
		return err
	}
	removed, err := uc.repo.RemoveFile(ctx, c.ID, fileID)
	if err != nil {
		return apperrors.Wrap(fmt.Errorf("remove file %s from collection %s: %w", fileID, id, err), apperrors.ErrDatabase)
	}
	if !removed {
		return notMember(id, fileID)
	}
	return nil
}

// GetFile returns a member file
func (uc *CollectionUseCase) GetFile(ctx context.Context, id, fileID uuid.UUID) (*filebiz.File, error) {
	c, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := uc.repo.HasFile(ctx, c.ID, fileID)
	if err != nil {
		return nil, apperrors.Wrap(fmt.Errorf("check membership: %w", err), apperrors.ErrDatabase)
	}
	if !ok {
		return nil, notMember(id, fileID)
	}
	f, err := uc.files.Get(ctx, fileID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase)
	}
	return f, nil
}

// ListFiles pages through the complete files of a collection
func (uc *CollectionUseCase) ListFiles(ctx context.Context, id uuid.UUID, page int) ([]*filebiz.File, error) {
	if page < 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidSearchPage, "page `%d` must be >= 0", page)
	}
	c, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	files, err := uc.repo.ListFiles(ctx, c.ID, page, filebiz.PageSize)
	if err != nil {
		return nil, apperrors.Wrap(fmt.Errorf("list collection files: %w", err), apperrors.ErrDatabase)
	}
	return files, nil
}

func notMember(id, fileID uuid.UUID) error {
	return apperrors.Newf(apperrors.ErrFileNotFound, "file `%s` is not in collection `%s`", fileID, id).WithCause(filebiz.ErrFileNotFound)
}
