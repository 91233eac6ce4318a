package data

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/lk2023060901/file-storage-backend/internal/data/migrations"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestEmbeddedMigrations(t *testing.T) {
	body, err := fs.ReadFile(migrations.FS, "00001_init.sql")
	require.NoError(t, err)

	sql := string(body)
	up := strings.Index(sql, "-- +goose Up")
	down := strings.Index(sql, "-- +goose Down")
	require.GreaterOrEqual(t, up, 0)
	require.Greater(t, down, up)

	for _, table := range []string{"stagings", "files", "tag_templates", "tags", "collections", "collection_file_pairs"} {
		assert.Contains(t, sql[up:down], "CREATE TABLE "+table+" (")
		assert.Contains(t, sql[down:], "DROP TABLE "+table+";")
	}
}

func TestNewMigratorListsSources(t *testing.T) {
	// pgx 连接池惰性建立，这里不会真正连接数据库
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=postgres dbname=file_storage sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	m, err := NewMigrator(sqlDB, logger.NewNop())
	require.NoError(t, err)

	sources := m.provider.ListSources()
	require.Len(t, sources, 1)
	assert.Equal(t, int64(1), sources[0].Version)
}

func TestGooseLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := gooseLogger{zap.New(core).Sugar()}

	l.Printf("OK   %s (%s)", "00001_init.sql", "12ms")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "OK   00001_init.sql (12ms)", logs.All()[0].Message)
}
