package biz

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
	tagbiz "github.com/lk2023060901/file-storage-backend/internal/tagtemplate/biz"
	"go.uber.org/zap"
)

// ValueFilter holds the comparisons a tag value must satisfy. Every set
// field must hold; an empty OneOf is ignored.
type ValueFilter struct {
	Equal              *tagbiz.Value
	NotEqual           *tagbiz.Value
	LessThan           *tagbiz.Value
	LessThanOrEqual    *tagbiz.Value
	GreaterThan        *tagbiz.Value
	GreaterThanOrEqual *tagbiz.Value
	Contains           *tagbiz.Value
	OneOf              []tagbiz.Value
}

// TagFilter requires a file to carry the template, and the value to match
// Value when it is set.
type TagFilter struct {
	TemplateID uuid.UUID
	Value      *ValueFilter
}

// SearchRequest is the input of Search
type SearchRequest struct {
	Query string
	Tags  []TagFilter
	Page  int
}

// Condition is one SQL comparison against a tag value column. Op is one of
// =, !=, <, <=, >, >=, LIKE or IN; IN takes every Arg, the others one.
type Condition struct {
	Op   string
	Args []any
}

// Clause matches the tag rows of one template.
type Clause struct {
	TemplateID uuid.UUID
	Column     string
	Conditions []Condition
}

// SearchQuery is a validated search ready for the repository.
type SearchQuery struct {
	Clauses []Clause
	// Candidates restricts the result to these ids when Restrict is set.
	Candidates []uuid.UUID
	Restrict   bool
	Page       int
	PageSize   int
}

// Search lists complete files matching the free-text query and every tag
// filter, ordered by id, one page at a time.
func (uc *FileUseCase) Search(ctx context.Context, req *SearchRequest) ([]*File, error) {
	if req.Page < 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidSearchPage, "page `%d` must be >= 0", req.Page)
	}

	clauses, err := uc.buildClauses(ctx, req.Tags)
	if err != nil {
		return nil, err
	}
	q := &SearchQuery{Clauses: clauses, Page: req.Page, PageSize: PageSize}

	if text := strings.TrimSpace(req.Query); text != "" {
		if uc.index.Enabled() {
			ids, err := uc.index.Search(ctx, text, uc.searchLimit)
			if err != nil {
				return nil, err
			}
			q.Candidates = ids
			q.Restrict = true
		} else {
			uc.logger.WithContext(ctx).Debug("search index disabled, ignoring free text", zap.String("query", text))
		}
	}
	if q.Restrict && len(q.Candidates) == 0 {
		return []*File{}, nil
	}

	files, err := uc.repo.Search(ctx, q)
	if err != nil {
		return nil, apperrors.Wrap(fmt.Errorf("search files: %w", err), apperrors.ErrDatabase)
	}
	return files, nil
}

func (uc *FileUseCase) buildClauses(ctx context.Context, filters []TagFilter) ([]Clause, error) {
	filters = append([]TagFilter(nil), filters...)
	sort.Slice(filters, func(i, j int) bool {
		return bytes.Compare(filters[i].TemplateID[:], filters[j].TemplateID[:]) < 0
	})
	ids := make([]uuid.UUID, len(filters))
	for i, f := range filters {
		ids[i] = f.TemplateID
	}

	templates, err := tagbiz.ResolveTemplates(ctx, uc.templates, ids)
	if err != nil {
		return nil, err
	}

	clauses := make([]Clause, len(filters))
	for i, t := range templates {
		clauses[i] = Clause{TemplateID: t.ID}
		vf := filters[i].Value
		if vf == nil {
			continue
		}
		if t.ValueType == nil {
			return nil, tagbiz.ExtraValueFilter(t.ID)
		}
		clauses[i].Column = t.ValueType.Column()
		if clauses[i].Conditions, err = conditions(t.ID, *t.ValueType, vf); err != nil {
			return nil, err
		}
	}
	return clauses, nil
}

func conditions(id uuid.UUID, declared tagbiz.ValueType, vf *ValueFilter) ([]Condition, error) {
	single := []struct {
		name string
		op   string
		v    *tagbiz.Value
	}{
		{"equal", "=", vf.Equal},
		{"notEqual", "!=", vf.NotEqual},
		{"lessThan", "<", vf.LessThan},
		{"lessThanOrEqual", "<=", vf.LessThanOrEqual},
		{"greaterThan", ">", vf.GreaterThan},
		{"greaterThanOrEqual", ">=", vf.GreaterThanOrEqual},
		{"contains", "LIKE", vf.Contains},
	}

	var out []Condition
	for _, s := range single {
		if s.v == nil {
			continue
		}
		if err := tagbiz.CheckFilterValue(id, &declared, *s.v); err != nil {
			return nil, err
		}
		if err := tagbiz.CheckFilterOp(id, declared, s.name); err != nil {
			return nil, err
		}
		arg := s.v.Any()
		if s.op == "LIKE" {
			arg = "%" + EscapeLike(s.v.String()) + "%"
		}
		out = append(out, Condition{Op: s.op, Args: []any{arg}})
	}

	if len(vf.OneOf) > 0 {
		args := make([]any, len(vf.OneOf))
		for i, v := range vf.OneOf {
			if err := tagbiz.CheckFilterValue(id, &declared, v); err != nil {
				return nil, err
			}
			args[i] = v.Any()
		}
		out = append(out, Condition{Op: "IN", Args: args})
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes s match literally inside a LIKE pattern.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
