package biz

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
)

// PageSize is the fixed page size of template listings.
const PageSize = 40

// TagTemplate is a named, optionally typed field definition. Templates are
// immutable once created.
type TagTemplate struct {
	ID          uuid.UUID
	Name        string
	Description *string
	ValueType   *ValueType
	CreatedAt   time.Time
}

// Compact is the part of a template needed to validate tags.
type Compact struct {
	ID        uuid.UUID
	ValueType *ValueType
}

// TagTemplateRepo defines the repository interface for tag templates
type TagTemplateRepo interface {
	Create(ctx context.Context, t *TagTemplate) error
	Get(ctx context.Context, id uuid.UUID) (*TagTemplate, error)
	List(ctx context.Context, page int) ([]*TagTemplate, error)
	// FindCompact returns the templates that exist among ids, ordered by id.
	FindCompact(ctx context.Context, ids []uuid.UUID) ([]Compact, error)
}

// TagTemplateUseCase contains business logic for tag templates
type TagTemplateUseCase struct {
	repo TagTemplateRepo
}

// NewTagTemplateUseCase creates a new tag template use case
func NewTagTemplateUseCase(repo TagTemplateRepo) *TagTemplateUseCase {
	return &TagTemplateUseCase{repo: repo}
}

// CreateRequest is the input of Create
type CreateRequest struct {
	Name        string
	Description *string
	ValueType   *string
}

// Create validates and stores a new template
func (uc *TagTemplateUseCase) Create(ctx context.Context, req *CreateRequest) (*TagTemplate, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameEmpty
	}

	t := &TagTemplate{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if req.ValueType != nil {
		vt, err := ParseValueType(*req.ValueType)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrTagTemplateInvalidType, err.Error())
		}
		t.ValueType = &vt
	}

	if err := uc.repo.Create(ctx, t); err != nil {
		return nil, apperrors.Wrap(fmt.Errorf("create tag template: %w", err), apperrors.ErrDatabase)
	}
	return t, nil
}

// Get returns one template
func (uc *TagTemplateUseCase) Get(ctx context.Context, id uuid.UUID) (*TagTemplate, error) {
	t, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase)
	}
	return t, nil
}

// List returns page (zero-based) ordered by name, newest first within a name
func (uc *TagTemplateUseCase) List(ctx context.Context, page int) ([]*TagTemplate, error) {
	if page < 0 {
		return nil, apperrors.New(apperrors.ErrInvalidSearchPage, "page must be >= 0")
	}
	items, err := uc.repo.List(ctx, page)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase)
	}
	return items, nil
}

// ResolveTemplates sorts ids in place, rejects duplicates and fetches the
// templates. The result is index aligned with the sorted ids; a missing
// template fails with InvalidTagTemplate for the first unmatched id.
func ResolveTemplates(ctx context.Context, repo TagTemplateRepo, ids []uuid.UUID) ([]Compact, error) {
	SortIDs(ids)
	for i := 1; i < len(ids); i++ {
		if ids[i-1] == ids[i] {
			return nil, DuplicatedTemplate(ids[i])
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	templates, err := repo.FindCompact(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(fmt.Errorf("find tag templates: %w", err), apperrors.ErrDatabase)
	}
	for i, id := range ids {
		if i >= len(templates) || templates[i].ID != id {
			return nil, InvalidTemplate(id)
		}
	}
	return templates, nil
}

// SortIDs orders ids the way postgres orders uuid columns.
func SortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
