package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  mode: debug
database:
  host: db.local
  dbname: files
storage:
  root: /var/lib/fsb
search:
  limit: 50
sweeper:
  enabled: true
  ttl: 2h
  interval: 1m
  batch_size: 10
templates:
  cache_size: 16
`)
	t.Setenv("FSB_DATABASE_HOST", "db.internal")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "files", cfg.Database.DBName)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "/var/lib/fsb", cfg.Storage.Root)
	assert.Equal(t, 50, cfg.Search.Limit)
	assert.True(t, cfg.Search.Enabled)
	assert.True(t, cfg.Sweeper.Enabled)
	assert.Equal(t, 2*time.Hour, cfg.Sweeper.TTL)
	assert.Equal(t, 10, cfg.Sweeper.BatchSize)
	assert.Equal(t, 16, cfg.Templates.CacheSize)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
	assert.Equal(t, "data", cfg.Storage.Root)
	assert.False(t, cfg.Sweeper.Enabled)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tests := []struct {
		name string
		body string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"bad mode", "server:\n  mode: loud\n"},
		{"empty storage root", "storage:\n  root: \"\"\n"},
		{"archive without minio keys", "archive:\n  enabled: true\n"},
		{"sweeper without ttl", "sweeper:\n  enabled: true\n  ttl: 0s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestShippedConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
	assert.Equal(t, Default().Sweeper, cfg.Sweeper)
	assert.Equal(t, Default().Search, cfg.Search)
}
