// Package archive mirrors committed objects into an S3-compatible bucket in
// the background. Mirroring is best effort: failures are logged and counted
// and never reach the request that committed the object.
package archive

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/metrics"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/minio"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/workerpool"
	"go.uber.org/zap"
)

// Config archive configuration
type Config struct {
	Enabled bool               `mapstructure:"enabled"`
	Bucket  string             `mapstructure:"bucket"`
	Timeout time.Duration      `mapstructure:"timeout"`
	Pool    *workerpool.Config `mapstructure:"pool"`
}

// DefaultConfig returns the default archive configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled: false,
		Bucket:  "file-storage-archive",
		Timeout: 5 * time.Minute,
		Pool:    workerpool.DefaultConfig(),
	}
}

// Validate validates the configuration of an enabled archiver
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := minio.ValidateBucketName(c.Bucket); err != nil {
		return err
	}
	if c.Pool == nil || c.Pool.Workers <= 0 {
		return errors.New("archive: pool.workers must be > 0")
	}
	return nil
}

// Object describes a committed object to mirror.
type Object struct {
	ID   uuid.UUID
	Name string
	Mime string
	Hash uint32
	Path string
}

// Uploader is the subset of the minio client the archiver needs.
type Uploader interface {
	FPutObject(ctx context.Context, bucket, object, path string, opts minio.PutOptions) (minio.UploadInfo, error)
}

// Mirror accepts committed objects for archiving.
type Mirror interface {
	Mirror(ctx context.Context, obj Object)
}

// Archiver uploads committed objects on a worker pool.
type Archiver struct {
	uploader Uploader
	pool     *workerpool.Pool
	bucket   string
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// New creates an archiver backed by its own worker pool
func New(cfg *Config, uploader Uploader, m *metrics.Metrics, log *logger.Logger) (*Archiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := workerpool.New(cfg.Pool, log.Named("archive"))
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	return &Archiver{
		uploader: uploader,
		pool:     pool,
		bucket:   cfg.Bucket,
		timeout:  timeout,
		metrics:  m,
		logger:   log.Named("archive"),
	}, nil
}

// Mirror queues obj for upload. The request context only contributes its
// request id; the upload runs on its own deadline.
func (a *Archiver) Mirror(ctx context.Context, obj Object) {
	log := a.logger.WithContext(ctx).With(zap.String("uuid", obj.ID.String()))
	requestID := logger.GetRequestID(ctx)

	err := a.pool.Submit(func() {
		jobCtx, cancel := context.WithTimeout(logger.WithRequestID(context.Background(), requestID), a.timeout)
		defer cancel()

		info, err := a.uploader.FPutObject(jobCtx, a.bucket, obj.ID.String(), obj.Path, minio.PutOptions{
			ContentType: obj.Mime,
			UserMetadata: map[string]string{
				"name":  obj.Name,
				"crc32": strconv.FormatUint(uint64(obj.Hash), 10),
			},
		})
		if err != nil {
			a.metrics.IncArchiveJob("failed")
			log.Error("archive upload failed", zap.Error(err))
			return
		}
		a.metrics.IncArchiveJob("uploaded")
		log.Debug("object archived", zap.String("bucket", a.bucket), zap.Int64("size", info.Size))
	})
	if err != nil {
		a.metrics.IncArchiveJob("rejected")
		log.Warn("archive job rejected", zap.Error(err))
	}
}

// Shutdown waits for queued uploads up to the pool's shutdown timeout
func (a *Archiver) Shutdown() error {
	return a.pool.Shutdown()
}

// Stats exposes worker pool counters
func (a *Archiver) Stats() workerpool.Statistics {
	return a.pool.Stats()
}

// Disabled is the archiver used when archiving is switched off.
type Disabled struct{}

func (Disabled) Mirror(context.Context, Object) {}
