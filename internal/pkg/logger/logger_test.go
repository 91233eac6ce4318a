package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()
	rotating := func(path string) FileConfig {
		return FileConfig{Enabled: true, Path: path, MaxSizeMB: 10, MaxAgeDays: 7, MaxBackups: 3}
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "default config", config: DefaultConfig()},
		{name: "console format", config: &Config{Level: "debug", Format: "console", Stdout: true}},
		{name: "file only", config: &Config{Level: "info", Format: "json", File: rotating(filepath.Join(dir, "a", "test.log"))}},
		{name: "stdout and file", config: &Config{Level: "WARN", Format: "json", Stdout: true, File: rotating(filepath.Join(dir, "b.log")), Stacktrace: "warn"}},
		{name: "invalid level", config: &Config{Level: "loud", Format: "json", Stdout: true}, wantErr: true},
		{name: "invalid stacktrace level", config: &Config{Level: "info", Format: "json", Stdout: true, Stacktrace: "never"}, wantErr: true},
		{name: "invalid format", config: &Config{Level: "info", Format: "xml", Stdout: true}, wantErr: true},
		{name: "no sink", config: &Config{Level: "info", Format: "json"}, wantErr: true},
		{name: "file without path", config: &Config{Level: "info", Format: "json", File: FileConfig{Enabled: true, MaxSizeMB: 1, MaxAgeDays: 1}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			l.Named("test").Info("hello")
		})
	}

	assert.DirExists(t, filepath.Join(dir, "a"))
}

func TestWithContextAddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewFromZap(zap.New(core))

	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))

	l.WithContext(ctx).Info("scoped")
	l.WithContext(context.Background()).Info("unscoped")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	r := gin.New()
	r.Use(GinLogger(l, "/health"), GinRecovery(l))
	r.GET("/ok/:id", func(c *gin.Context) {
		assert.Equal(t, "fixed-id", GetRequestID(c.Request.Context()))
		c.Status(http.StatusOK)
	})
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ok/42", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	requests := logs.FilterMessage("http request").All()
	require.Len(t, requests, 3)
	assert.Equal(t, zapcore.InfoLevel, requests[0].Level)
	assert.Equal(t, "/ok/:id", requests[0].ContextMap()["route"])
	assert.Equal(t, zapcore.WarnLevel, requests[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, requests[2].Level)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestInitGlobalReplacesZapGlobals(t *testing.T) {
	l, err := InitGlobal(DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })
	assert.Same(t, l.Logger, zap.L())
}
