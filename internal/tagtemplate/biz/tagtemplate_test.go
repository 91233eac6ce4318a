package biz

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	templates map[uuid.UUID]*TagTemplate
	created   []*TagTemplate
	findCalls int
	err       error
}

func newFakeRepo(ts ...*TagTemplate) *fakeRepo {
	r := &fakeRepo{templates: map[uuid.UUID]*TagTemplate{}}
	for _, t := range ts {
		r.templates[t.ID] = t
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, t *TagTemplate) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, t)
	r.templates[t.ID] = t
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (*TagTemplate, error) {
	t, ok := r.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return t, nil
}

func (r *fakeRepo) List(_ context.Context, page int) ([]*TagTemplate, error) {
	return nil, r.err
}

func (r *fakeRepo) FindCompact(_ context.Context, ids []uuid.UUID) ([]Compact, error) {
	r.findCalls++
	if r.err != nil {
		return nil, r.err
	}
	var out []Compact
	for _, id := range ids {
		if t, ok := r.templates[id]; ok {
			out = append(out, Compact{ID: t.ID, ValueType: t.ValueType})
		}
	}
	return out, nil
}

func typ(t ValueType) *ValueType { return &t }

func TestParseValueType(t *testing.T) {
	tests := []struct {
		in      string
		want    ValueType
		wantErr bool
	}{
		{"string", TypeString, false},
		{"integer", TypeInteger, false},
		{"int", TypeInteger, false},
		{"boolean", TypeBoolean, false},
		{" Bool ", TypeBoolean, false},
		{"float", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseValueType(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	assert.Equal(t, "value_integer", TypeInteger.Column())
	assert.Equal(t, "value_boolean", TypeBoolean.Column())
	assert.Equal(t, "value_string", TypeString.Column())
}

func TestValueJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want Value
	}{
		{`"abc"`, StringValue("abc")},
		{`42`, IntegerValue(42)},
		{`-7`, IntegerValue(-7)},
		{`true`, BooleanValue(true)},
		{`false`, BooleanValue(false)},
	}
	for _, tt := range tests {
		var v Value
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &v), tt.raw)
		assert.Equal(t, tt.want, v, tt.raw)

		out, err := json.Marshal(v)
		require.NoError(t, err)
		assert.JSONEq(t, tt.raw, string(out))
	}

	for _, bad := range []string{`1.5`, `{"a":1}`, `[1]`, `99999999999999999999`} {
		var v Value
		assert.Error(t, json.Unmarshal([]byte(bad), &v), bad)
	}

	var tag struct {
		Value *Value `json:"value"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"value":null}`), &tag))
	assert.Nil(t, tag.Value)
}

func TestCheckValue(t *testing.T) {
	id := uuid.New()
	s, i := StringValue("x"), IntegerValue(1)

	assert.NoError(t, CheckValue(id, nil, nil))
	assert.NoError(t, CheckValue(id, typ(TypeString), &s))

	err := CheckValue(id, typ(TypeInteger), nil)
	assert.Equal(t, apperrors.ErrMissingTagValue, apperrors.ExtractCode(err))
	assert.Contains(t, err.Error(), "requires a value of type `integer`")

	err = CheckValue(id, nil, &i)
	assert.Equal(t, apperrors.ErrExtraTagValue, apperrors.ExtractCode(err))
	assert.Contains(t, err.Error(), "a value of type `integer` was supplied")

	err = CheckValue(id, typ(TypeInteger), &s)
	var te *TagError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, apperrors.ErrInvalidTagValue, te.Code)
	assert.Equal(t, TypeInteger, te.Expected)
	assert.Equal(t, TypeString, te.Got)
	assert.Equal(t, te.PublicDetail(), apperrors.GetDetails(err))
}

func TestCheckFilterValue(t *testing.T) {
	id := uuid.New()
	assert.NoError(t, CheckFilterValue(id, typ(TypeBoolean), BooleanValue(true)))
	assert.Equal(t, apperrors.ErrExtraTagValueFilter,
		apperrors.ExtractCode(CheckFilterValue(id, nil, BooleanValue(true))))
	assert.Equal(t, apperrors.ErrInvalidTagValueFilter,
		apperrors.ExtractCode(CheckFilterValue(id, typ(TypeString), IntegerValue(3))))
}

func TestResolveTemplates(t *testing.T) {
	a := &TagTemplate{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000a"), ValueType: typ(TypeString)}
	b := &TagTemplate{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000b")}
	missing := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	ctx := context.Background()

	t.Run("sorted and aligned", func(t *testing.T) {
		repo := newFakeRepo(a, b)
		ids := []uuid.UUID{b.ID, a.ID}
		got, err := ResolveTemplates(ctx, repo, ids)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID, b.ID}, ids)
		require.Len(t, got, 2)
		assert.Equal(t, a.ID, got[0].ID)
		assert.Nil(t, got[1].ValueType)
	})

	t.Run("duplicate rejected before lookup", func(t *testing.T) {
		repo := newFakeRepo(a)
		_, err := ResolveTemplates(ctx, repo, []uuid.UUID{a.ID, b.ID, a.ID})
		assert.Equal(t, apperrors.ErrDuplicatedTagTemplate, apperrors.ExtractCode(err))
		assert.Zero(t, repo.findCalls)
	})

	t.Run("first missing id reported", func(t *testing.T) {
		repo := newFakeRepo(a, b)
		_, err := ResolveTemplates(ctx, repo, []uuid.UUID{b.ID, missing, a.ID})
		var te *TagError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, apperrors.ErrInvalidTagTemplate, te.Code)
		assert.Equal(t, missing, te.TemplateID)
	})

	t.Run("empty", func(t *testing.T) {
		got, err := ResolveTemplates(ctx, newFakeRepo(), nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := newFakeRepo()
		repo.err = errors.New("connection refused")
		_, err := ResolveTemplates(ctx, repo, []uuid.UUID{a.ID})
		assert.Equal(t, apperrors.ErrDatabase, apperrors.ExtractCode(err))
	})
}

func TestUseCaseCreate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	uc := NewTagTemplateUseCase(repo)

	vt := "int"
	desc := "page count"
	tmpl, err := uc.Create(ctx, &CreateRequest{Name: "pages", Description: &desc, ValueType: &vt})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, tmpl.ID)
	require.NotNil(t, tmpl.ValueType)
	assert.Equal(t, TypeInteger, *tmpl.ValueType)
	assert.Len(t, repo.created, 1)

	_, err = uc.Create(ctx, &CreateRequest{Name: "  "})
	assert.ErrorIs(t, err, ErrNameEmpty)

	bad := "float"
	_, err = uc.Create(ctx, &CreateRequest{Name: "x", ValueType: &bad})
	assert.Equal(t, apperrors.ErrTagTemplateInvalidType, apperrors.ExtractCode(err))
	assert.Len(t, repo.created, 1)

	got, err := uc.Get(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tmpl, got)

	_, err = uc.Get(ctx, uuid.New())
	assert.Equal(t, apperrors.ErrTagTemplateNotFound, apperrors.ExtractCode(err))

	_, err = uc.List(ctx, -1)
	assert.Equal(t, apperrors.ErrInvalidSearchPage, apperrors.ExtractCode(err))
}

func TestSortIDs(t *testing.T) {
	ids := []uuid.UUID{
		uuid.MustParse("ff000000-0000-0000-0000-000000000000"),
		uuid.MustParse("00000000-0000-0000-0000-000000000002"),
		uuid.MustParse("0a000000-0000-0000-0000-000000000000"),
	}
	SortIDs(ids)
	assert.Equal(t, "00000000-0000-0000-0000-000000000002", ids[0].String())
	assert.Equal(t, "ff000000-0000-0000-0000-000000000000", ids[2].String())
}

func TestCheckFilterOp(t *testing.T) {
	id := uuid.New()
	assert.NoError(t, CheckFilterOp(id, TypeString, "contains"))
	assert.NoError(t, CheckFilterOp(id, TypeInteger, "lessThan"))
	assert.NoError(t, CheckFilterOp(id, TypeString, "greaterThanOrEqual"))
	assert.NoError(t, CheckFilterOp(id, TypeBoolean, "equal"))

	err := CheckFilterOp(id, TypeInteger, "contains")
	assert.Equal(t, apperrors.ErrUnsupportedTagFilter, apperrors.ExtractCode(err))
	assert.Contains(t, err.Error(), "of type `integer` does not support the `contains` filter")

	err = CheckFilterOp(id, TypeBoolean, "greaterThan")
	assert.Equal(t, apperrors.ErrUnsupportedTagFilter, apperrors.ExtractCode(err))
}
