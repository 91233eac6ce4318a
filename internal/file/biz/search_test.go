package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
	tagbiz "github.com/lk2023060901/file-storage-backend/internal/tagtemplate/biz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchBuildsClauses(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.uc.Search(context.Background(), &SearchRequest{
		Page: 1,
		Tags: []TagFilter{
			{TemplateID: fx.bare},
			{TemplateID: fx.num, Value: &ValueFilter{
				GreaterThanOrEqual: val(tagbiz.IntegerValue(2000)),
				OneOf:              []tagbiz.Value{tagbiz.IntegerValue(2014), tagbiz.IntegerValue(2017)},
			}},
			{TemplateID: fx.str, Value: &ValueFilter{Contains: val(tagbiz.StringValue("50%_off"))}},
		},
	})
	require.NoError(t, err)
	require.Len(t, fx.repo.queries, 1)

	q := fx.repo.queries[0]
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, PageSize, q.PageSize)
	assert.False(t, q.Restrict)
	require.Len(t, q.Clauses, 3)

	assert.Equal(t, Clause{TemplateID: fx.str, Column: "value_string", Conditions: []Condition{
		{Op: "LIKE", Args: []any{`%50\%\_off%`}},
	}}, q.Clauses[0])
	assert.Equal(t, Clause{TemplateID: fx.num, Column: "value_integer", Conditions: []Condition{
		{Op: ">=", Args: []any{int64(2000)}},
		{Op: "IN", Args: []any{int64(2014), int64(2017)}},
	}}, q.Clauses[1])
	assert.Equal(t, Clause{TemplateID: fx.bare}, q.Clauses[2])
}

func TestSearchValidation(t *testing.T) {
	tests := []struct {
		name string
		req  func(fx *fixture) *SearchRequest
		code int
	}{
		{"negative page", func(fx *fixture) *SearchRequest {
			return &SearchRequest{Page: -1}
		}, apperrors.ErrInvalidSearchPage},
		{"duplicated template", func(fx *fixture) *SearchRequest {
			return &SearchRequest{Tags: []TagFilter{{TemplateID: fx.num}, {TemplateID: fx.num}}}
		}, apperrors.ErrDuplicatedTagTemplate},
		{"unknown template", func(fx *fixture) *SearchRequest {
			return &SearchRequest{Tags: []TagFilter{{TemplateID: uuid.New()}}}
		}, apperrors.ErrInvalidTagTemplate},
		{"value filter on typeless template", func(fx *fixture) *SearchRequest {
			return &SearchRequest{Tags: []TagFilter{{TemplateID: fx.bare, Value: &ValueFilter{}}}}
		}, apperrors.ErrExtraTagValueFilter},
		{"operand type mismatch", func(fx *fixture) *SearchRequest {
			return &SearchRequest{Tags: []TagFilter{{TemplateID: fx.num, Value: &ValueFilter{Equal: val(tagbiz.StringValue("x"))}}}}
		}, apperrors.ErrInvalidTagValueFilter},
		{"oneOf element mismatch", func(fx *fixture) *SearchRequest {
			return &SearchRequest{Tags: []TagFilter{{TemplateID: fx.str, Value: &ValueFilter{
				OneOf: []tagbiz.Value{tagbiz.StringValue("a"), tagbiz.BooleanValue(true)},
			}}}}
		}, apperrors.ErrInvalidTagValueFilter},
		{"contains on integer", func(fx *fixture) *SearchRequest {
			return &SearchRequest{Tags: []TagFilter{{TemplateID: fx.num, Value: &ValueFilter{Contains: val(tagbiz.IntegerValue(1))}}}}
		}, apperrors.ErrUnsupportedTagFilter},
		{"ordering on boolean", func(fx *fixture) *SearchRequest {
			return &SearchRequest{Tags: []TagFilter{{TemplateID: fx.flag, Value: &ValueFilter{LessThan: val(tagbiz.BooleanValue(true))}}}}
		}, apperrors.ErrUnsupportedTagFilter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			_, err := fx.uc.Search(context.Background(), tt.req(fx))
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.ExtractCode(err))
			assert.Empty(t, fx.repo.queries)
		})
	}
}

func TestSearchFreeText(t *testing.T) {
	ctx := context.Background()

	t.Run("restricts to index hits", func(t *testing.T) {
		fx := newFixture(t)
		hit := uuid.New()
		fx.index.hits = []uuid.UUID{hit}

		_, err := fx.uc.Search(ctx, &SearchRequest{Query: "  wick "})
		require.NoError(t, err)
		assert.Equal(t, []string{"wick"}, fx.index.queries)
		require.Len(t, fx.repo.queries, 1)
		assert.True(t, fx.repo.queries[0].Restrict)
		assert.Equal(t, []uuid.UUID{hit}, fx.repo.queries[0].Candidates)
	})

	t.Run("no hits skips the database", func(t *testing.T) {
		fx := newFixture(t)
		files, err := fx.uc.Search(ctx, &SearchRequest{Query: "nothing"})
		require.NoError(t, err)
		assert.Empty(t, files)
		assert.Empty(t, fx.repo.queries)
	})

	t.Run("blank query ignored", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.uc.Search(ctx, &SearchRequest{Query: "   "})
		require.NoError(t, err)
		assert.Empty(t, fx.index.queries)
		assert.False(t, fx.repo.queries[0].Restrict)
	})

	t.Run("disabled index ignores free text", func(t *testing.T) {
		fx := newFixture(t)
		fx.index.enabled = false
		_, err := fx.uc.Search(ctx, &SearchRequest{Query: "wick"})
		require.NoError(t, err)
		assert.Empty(t, fx.index.queries)
		assert.False(t, fx.repo.queries[0].Restrict)
	})

	t.Run("index error surfaces", func(t *testing.T) {
		fx := newFixture(t)
		fx.index.err = apperrors.Wrap(errors.New("timeout"), apperrors.ErrSearchIndex)
		_, err := fx.uc.Search(ctx, &SearchRequest{Query: "wick"})
		assert.Equal(t, apperrors.ErrSearchIndex, apperrors.ExtractCode(err))
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, EscapeLike(`a%b_c\d`))
	assert.Equal(t, "plain", EscapeLike("plain"))
}
