package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/tagtemplate/biz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	items []*biz.TagTemplate
	pages []int
}

func (r *memRepo) Create(_ context.Context, t *biz.TagTemplate) error {
	r.items = append(r.items, t)
	return nil
}

func (r *memRepo) Get(_ context.Context, id uuid.UUID) (*biz.TagTemplate, error) {
	for _, t := range r.items {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, biz.ErrTemplateNotFound
}

func (r *memRepo) List(_ context.Context, page int) ([]*biz.TagTemplate, error) {
	r.pages = append(r.pages, page)
	return r.items, nil
}

func (r *memRepo) FindCompact(context.Context, []uuid.UUID) ([]biz.Compact, error) {
	return nil, nil
}

func newRouter(repo biz.TagTemplateRepo) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	svc := NewTagTemplateService(biz.NewTagTemplateUseCase(repo), logger.NewNop())
	svc.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndGet(t *testing.T) {
	repo := &memRepo{}
	r := newRouter(repo)

	w := do(r, http.MethodPost, "/api/v1/tag-templates", `{"name":"pages","valueType":"int"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created TagTemplateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "pages", created.Name)
	require.NotNil(t, created.ValueType)
	assert.Equal(t, "integer", *created.ValueType)
	assert.Nil(t, created.Description)

	w = do(r, http.MethodGet, "/api/v1/tag-templates/"+created.UUID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"pages"`)
}

func TestCreateValidation(t *testing.T) {
	r := newRouter(&memRepo{})

	tests := []struct {
		name   string
		body   string
		status int
		code   int
	}{
		{"empty name", `{"name":""}`, http.StatusUnprocessableEntity, apperrors.ErrTagTemplateNameEmpty},
		{"unknown type", `{"name":"x","valueType":"float"}`, http.StatusUnprocessableEntity, apperrors.ErrTagTemplateInvalidType},
		{"malformed json", `{"name":`, http.StatusBadRequest, apperrors.ErrInvalidBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/tag-templates", tt.body)
			assert.Equal(t, tt.status, w.Code)

			var body struct {
				Error string `json:"error"`
				Code  int    `json:"code"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestGetErrors(t *testing.T) {
	r := newRouter(&memRepo{})

	w := do(r, http.MethodGet, "/api/v1/tag-templates/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/tag-templates/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestList(t *testing.T) {
	repo := &memRepo{}
	r := newRouter(repo)
	do(r, http.MethodPost, "/api/v1/tag-templates", `{"name":"a"}`)

	w := do(r, http.MethodGet, "/api/v1/tag-templates?page=3", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list ListTagTemplatesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Page)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, []int{3}, repo.pages)

	w = do(r, http.MethodGet, "/api/v1/tag-templates?page=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodGet, "/api/v1/tag-templates?page=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
