package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/file-storage-backend/internal/conf"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/boom", func(*gin.Context) { panic("boom") })
}

func newServer(t *testing.T, checks map[string]HealthCheck) http.Handler {
	t.Helper()
	cfg := conf.Default()
	cfg.Server.Mode = gin.TestMode
	return NewHTTPServer(cfg, logger.NewNop(), metrics.New(), checks, pingRoutes{}).Handler()
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	h := newServer(t, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	w := get(h, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Dependencies["database"])

	h = newServer(t, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	w = get(h, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "connection refused", body.Dependencies["redis"])
}

func TestRoutesAndMiddleware(t *testing.T) {
	h := newServer(t, nil)

	w := get(h, "/api/v1/ping")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(logger.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set(logger.RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(logger.RequestIDHeader))

	w = get(h, "/api/v1/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())

	w = get(h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `file_storage_http_requests_total{method="GET",route="/api/v1/ping",status="200"} 2`)
}

func TestCORSPreflight(t *testing.T) {
	h := newServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}
