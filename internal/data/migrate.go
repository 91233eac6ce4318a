package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lk2023060901/file-storage-backend/internal/data/migrations"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrator 基于 goose Provider 执行内嵌的 SQL 迁移
type Migrator struct {
	provider *goose.Provider
	logger   *logger.Logger
}

// NewMigrator 创建迁移器
func NewMigrator(db *sql.DB, log *logger.Logger) (*Migrator, error) {
	log = log.Named("migrate")
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS,
		goose.WithLogger(gooseLogger{log.Sugar()}),
	)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return &Migrator{provider: provider, logger: log}, nil
}

// Up 应用全部未执行的迁移
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	for _, r := range results {
		m.logResult(r)
	}
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	if len(results) == 0 {
		m.logger.Info("schema is up to date")
	}
	return nil
}

// Down 回滚最近一次迁移
func (m *Migrator) Down(ctx context.Context) error {
	result, err := m.provider.Down(ctx)
	if result != nil {
		m.logResult(result)
	}
	if errors.Is(err, goose.ErrNoNextVersion) {
		m.logger.Info("no migration to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Status 列出每个迁移的状态
func (m *Migrator) Status(ctx context.Context) ([]*goose.MigrationStatus, error) {
	status, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate status: %w", err)
	}
	return status, nil
}

func (m *Migrator) logResult(r *goose.MigrationResult) {
	fields := []zap.Field{
		zap.String("direction", r.Direction),
		zap.Int64("version", r.Source.Version),
		zap.String("path", r.Source.Path),
		zap.Duration("duration", r.Duration),
	}
	if r.Error != nil {
		m.logger.Error("migration failed", append(fields, zap.Error(r.Error))...)
		return
	}
	m.logger.Info("migration applied", fields...)
}

// gooseLogger 把 goose 的输出转到 zap
type gooseLogger struct {
	*zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.Infof(format, v...)
}
