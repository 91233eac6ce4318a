package data

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/file-storage-backend/internal/conf"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/database"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/minio"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/redis"
	"go.uber.org/zap"
)

// Data 持有外部连接。Redis 只在开启搜索索引时创建，MinIO 只在开启归档时创建
type Data struct {
	DB    *database.DB
	Redis *redis.Client
	MinIO *minio.Client
}

// NewData 建立全部连接，返回的 cleanup 按相反顺序关闭
func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	db, err := database.New(config.Database, log.Named("database"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	d := &Data{DB: db}
	cleanup := func() {
		log.Info("cleaning up data resources")
		if d.MinIO != nil {
			if err := d.MinIO.Close(); err != nil {
				log.Warn("failed to close minio client", zap.Error(err))
			}
		}
		if d.Redis != nil {
			if err := d.Redis.Close(); err != nil {
				log.Warn("failed to close redis client", zap.Error(err))
			}
		}
		if err := d.DB.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}

	if config.Database.Migrate {
		if err := migrateUp(d.DB, log); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	if config.Search.Enabled {
		if d.Redis, err = redis.New(config.Redis, log.Named("redis")); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to init redis: %w", err)
		}
	}

	if config.Archive.Enabled {
		if d.MinIO, err = minio.NewClient(config.MinIO, log.Named("minio")); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to init minio: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = d.MinIO.EnsureBucket(ctx, config.Archive.Bucket)
		cancel()
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to ensure archive bucket: %w", err)
		}
	}

	return d, cleanup, nil
}

func migrateUp(db *database.DB, log *logger.Logger) error {
	sqlDB, err := db.SQL()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	m, err := NewMigrator(sqlDB, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return m.Up(ctx)
}
