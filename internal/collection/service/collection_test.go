package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lk2023060901/file-storage-backend/internal/collection/biz"
	filebiz "github.com/lk2023060901/file-storage-backend/internal/file/biz"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo 只实现路由测试用到的行为，键集只支持 id 边界
type memRepo struct {
	items   []*biz.Collection
	members map[int64][]uuid.UUID
}

func (r *memRepo) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *memRepo) Create(_ context.Context, c *biz.Collection) error {
	c.ID = int64(len(r.items) + 1)
	cp := *c
	r.items = append(r.items, &cp)
	return nil
}

func (r *memRepo) Get(_ context.Context, id uuid.UUID) (*biz.Collection, error) {
	for _, c := range r.items {
		if c.UUID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, biz.NotFound(id)
}

func (r *memRepo) Update(_ context.Context, c *biz.Collection) error {
	for _, cur := range r.items {
		if cur.UUID == c.UUID {
			cur.Name, cur.Description = c.Name, c.Description
			return nil
		}
	}
	return biz.NotFound(c.UUID)
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, c := range r.items {
		if c.UUID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return biz.NotFound(id)
}

func (r *memRepo) List(_ context.Context, k *biz.Keyset) ([]*biz.Collection, error) {
	var out []*biz.Collection
	for i := len(r.items) - 1; i >= 0 && len(out) < k.Limit; i-- {
		c := r.items[i]
		if k.Before != nil && c.ID >= *k.Before {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *memRepo) Exists(ctx context.Context, k *biz.Keyset) (bool, error) {
	for _, c := range r.items {
		if (k.Before == nil || c.ID < *k.Before) && (k.After == nil || c.ID > *k.After) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) AddFile(_ context.Context, collectionID int64, fileID uuid.UUID) error {
	for _, id := range r.members[collectionID] {
		if id == fileID {
			return nil
		}
	}
	r.members[collectionID] = append(r.members[collectionID], fileID)
	return nil
}

func (r *memRepo) RemoveFile(_ context.Context, collectionID int64, fileID uuid.UUID) (bool, error) {
	ids := r.members[collectionID]
	for i, id := range ids {
		if id == fileID {
			r.members[collectionID] = append(ids[:i], ids[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) HasFile(_ context.Context, collectionID int64, fileID uuid.UUID) (bool, error) {
	for _, id := range r.members[collectionID] {
		if id == fileID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) ListFiles(_ context.Context, collectionID int64, _, _ int) ([]*filebiz.File, error) {
	var out []*filebiz.File
	for _, id := range r.members[collectionID] {
		out = append(out, completeFile(id))
	}
	return out, nil
}

type fileRepo struct {
	filebiz.FileRepo
	ids map[uuid.UUID]bool
}

func (r *fileRepo) Get(_ context.Context, id uuid.UUID) (*filebiz.File, error) {
	if !r.ids[id] {
		return nil, filebiz.NotFound(id)
	}
	return completeFile(id), nil
}

func completeFile(id uuid.UUID) *filebiz.File {
	mime, size, hash := "text/plain", uint64(5), uint32(0x3610a686)
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return &filebiz.File{ID: id, Name: "hello.txt", Mime: &mime, Size: &size, Hash: &hash, UploadedAt: &at, CreatedAt: at}
}

func newRouter(files *fileRepo) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	repo := &memRepo{members: map[int64][]uuid.UUID{}}
	uc := biz.NewCollectionUseCase(repo, repo, files, logger.NewNop())

	r := gin.New()
	NewCollectionService(uc, logger.NewNop()).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	return decode[struct {
		Code int `json:"code"`
	}](t, w).Code
}

func TestCollectionRoutes(t *testing.T) {
	r := newRouter(&fileRepo{})

	w := do(r, http.MethodPost, "/api/v1/collections", `{"name":"  "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperrors.ErrCollectionNameEmpty, errorCode(t, w))

	var created []CollectionResponse
	for _, name := range []string{"a", "b", "c"} {
		w = do(r, http.MethodPost, "/api/v1/collections", `{"name":"`+name+`","description":"about `+name+`"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		created = append(created, decode[CollectionResponse](t, w))
	}
	assert.Equal(t, int64(3), created[2].ID)

	w = do(r, http.MethodGet, "/api/v1/collections?pageSize=2", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode[ListCollectionsResponse](t, w)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "c", list.Items[0].Name)
	assert.Equal(t, "b", list.Items[1].Name)
	assert.False(t, list.Pagination.HasPrev)
	assert.True(t, list.Pagination.HasNext)

	w = do(r, http.MethodGet, "/api/v1/collections?pageSize=2&lastId=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[ListCollectionsResponse](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "a", list.Items[0].Name)
	assert.True(t, list.Pagination.HasPrev)
	assert.False(t, list.Pagination.HasNext)

	for _, q := range []string{"firstId=1&lastId=2", "pageSize=abc", "pageSize=500", "order=sideways"} {
		w = do(r, http.MethodGet, "/api/v1/collections?"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, apperrors.ErrCollectionPagination, errorCode(t, w), q)
	}

	path := "/api/v1/collections/" + created[0].UUID
	w = do(r, http.MethodPut, path, `{"name":"renamed"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[CollectionResponse](t, w)
	assert.Equal(t, "renamed", got.Name)
	assert.Nil(t, got.Description)

	w = do(r, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "renamed", decode[CollectionResponse](t, w).Name)

	w = do(r, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrCollectionNotFound, errorCode(t, w))

	w = do(r, http.MethodGet, "/api/v1/collections/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrInvalidUUID, errorCode(t, w))
}

func TestMembershipRoutes(t *testing.T) {
	fileID := uuid.New()
	r := newRouter(&fileRepo{ids: map[uuid.UUID]bool{fileID: true}})

	w := do(r, http.MethodPost, "/api/v1/collections", `{"name":"docs"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	base := "/api/v1/collections/" + decode[CollectionResponse](t, w).UUID + "/files"

	w = do(r, http.MethodPut, base+"/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrFileNotFound, errorCode(t, w))

	w = do(r, http.MethodPut, base+"/"+fileID.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	w = do(r, http.MethodPut, base+"/"+fileID.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	files := decode[ListFilesResponse](t, w)
	assert.Equal(t, 0, files.Page)
	require.Len(t, files.Items, 1)
	assert.Equal(t, fileID.String(), files.Items[0].UUID)
	assert.Equal(t, "text/plain", files.Items[0].Mime)

	w = do(r, http.MethodGet, base+"?page=-1", "")
	assert.Equal(t, apperrors.ErrInvalidSearchPage, errorCode(t, w))

	w = do(r, http.MethodGet, base+"/"+fileID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"hello.txt"`)

	w = do(r, http.MethodDelete, base+"/"+fileID.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, http.MethodDelete, base+"/"+fileID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(r, http.MethodGet, base+"/"+fileID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/v1/collections/"+uuid.NewString()+"/files", "")
	assert.Equal(t, apperrors.ErrCollectionNotFound, errorCode(t, w))
}
