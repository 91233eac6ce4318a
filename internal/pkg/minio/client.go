package minio

import (
	"context"
	"fmt"
	"sync"

	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/s3utils"
	"go.uber.org/zap"
)

// PutOptions 上传时附带的对象元数据
type PutOptions struct {
	ContentType  string
	UserMetadata map[string]string
}

// UploadInfo 上传结果
type UploadInfo struct {
	Bucket string
	Key    string
	ETag   string
	Size   int64
}

// Client minio-go 客户端封装。创建时不发请求，HealthInterval > 0 时后台探活
type Client struct {
	client *minio.Client
	region string
	logger *logger.Logger

	mu         sync.RWMutex
	closed     bool
	stopHealth context.CancelFunc
}

func NewClient(cfg *Config, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lookup := minio.BucketLookupAuto
	switch cfg.BucketLookup {
	case LookupDNS:
		lookup = minio.BucketLookupDNS
	case LookupPath:
		lookup = minio.BucketLookupPath
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}

	c := &Client{client: mc, region: cfg.Region, logger: log}
	if cfg.HealthInterval > 0 {
		if c.stopHealth, err = mc.HealthCheck(cfg.HealthInterval); err != nil {
			return nil, fmt.Errorf("minio: health check: %w", err)
		}
	}

	log.Info("minio client initialized",
		zap.String("endpoint", cfg.Endpoint),
		zap.Bool("use_ssl", cfg.UseSSL),
	)
	return c, nil
}

// ValidateBucketName 按 S3 严格规则校验桶名
func ValidateBucketName(bucket string) error {
	if err := s3utils.CheckValidBucketNameStrict(bucket); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidBucketName, bucket, err)
	}
	return nil
}

// Ping 读取后台探活结果，不发请求
func (c *Client) Ping(context.Context) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if c.client.IsOffline() {
		return ErrOffline
	}
	return nil
}

// EnsureBucket 桶不存在时创建，并发创建的竞争视为成功
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if err := ValidateBucketName(bucket); err != nil {
		return err
	}

	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return wrap("BucketExists", bucket, "", err)
	}
	if exists {
		return nil
	}

	if err := c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
		if code := Code(err); code == "BucketAlreadyExists" || code == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return wrap("MakeBucket", bucket, "", err)
	}
	c.logger.Info("bucket created", zap.String("bucket", bucket))
	return nil
}

// FPutObject 上传本地文件
func (c *Client) FPutObject(ctx context.Context, bucket, object, path string, opts PutOptions) (UploadInfo, error) {
	if err := c.checkClosed(); err != nil {
		return UploadInfo{}, err
	}
	if bucket == "" {
		return UploadInfo{}, wrap("FPutObject", bucket, object, ErrInvalidBucketName)
	}
	if err := s3utils.CheckValidObjectName(object); err != nil {
		return UploadInfo{}, wrap("FPutObject", bucket, object, fmt.Errorf("%w: %v", ErrInvalidObjectName, err))
	}

	info, err := c.client.FPutObject(ctx, bucket, object, path, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.UserMetadata,
	})
	if err != nil {
		return UploadInfo{}, wrap("FPutObject", bucket, object, err)
	}
	return UploadInfo{Bucket: info.Bucket, Key: info.Key, ETag: info.ETag, Size: info.Size}, nil
}

// Close 停止探活，之后的调用返回 ErrClientClosed
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.stopHealth != nil {
		c.stopHealth()
	}
	c.logger.Info("minio client closed")
	return nil
}

func (c *Client) checkClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}
