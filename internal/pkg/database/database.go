package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB is the shared gorm handle. Repositories reach it through
// GetDBFromContext so that they join a transaction opened by InTx.
type DB struct {
	*gorm.DB
	logger *logger.Logger
}

// New opens the pool and waits until PostgreSQL answers a ping
func New(cfg *Config, log *logger.Logger) (*DB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         newQueryLogger(log.Named("sql"), cfg.LogLevel, cfg.SlowThreshold),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpen)
	sqlDB.SetConnMaxLifetime(cfg.Pool.MaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.Pool.MaxIdleTime)

	if err := waitReady(sqlDB, cfg, log); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	log.Info("database ready",
		zap.String("host", cfg.Host),
		zap.String("dbname", cfg.DBName),
		zap.Int("max_open", cfg.Pool.MaxOpen),
	)
	return &DB{DB: gdb, logger: log}, nil
}

// waitReady pings up to ConnectAttempts times, doubling the pause after each failure
func waitReady(sqlDB *sql.DB, cfg *Config, log *logger.Logger) error {
	backoff := cfg.ConnectBackoff
	var err error
	for attempt := 1; attempt <= cfg.ConnectAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = sqlDB.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == cfg.ConnectAttempts {
			break
		}
		log.Warn("database not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		time.Sleep(backoff)
		backoff *= 2
	}
	return fmt.Errorf("database unreachable after %d attempts: %w", cfg.ConnectAttempts, err)
}

// NewFromGorm wraps an already opened gorm.DB, used by DryRun tests
func NewFromGorm(gdb *gorm.DB, log *logger.Logger) *DB {
	return &DB{DB: gdb, logger: log}
}

// SQL returns the database/sql pool behind gorm
func (db *DB) SQL() (*sql.DB, error) {
	return db.DB.DB()
}

func (db *DB) Close() error {
	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	db.logger.Info("closing database pool")
	return sqlDB.Close()
}

// Ping is the /health probe for PostgreSQL
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// IsNotFound reports whether a First/Take found no row
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
