package minio

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate())

	cfg.AccessKeyID = "minioadmin"
	cfg.SecretAccessKey = "minioadmin"
	assert.NoError(t, cfg.Validate())

	cfg.BucketLookup = "virtual"
	assert.Error(t, cfg.Validate())

	cfg.BucketLookup = LookupPath
	cfg.HealthInterval = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateBucketName(t *testing.T) {
	for _, name := range []string{"file-archive", "abc", "my.bucket.01"} {
		assert.NoError(t, ValidateBucketName(name), name)
	}
	for _, name := range []string{"", "ab", "Upper", "-leading", "192.168.1.1", "a..b", "a.-b"} {
		assert.ErrorIs(t, ValidateBucketName(name), ErrInvalidBucketName, name)
	}
}

func TestErrorClassification(t *testing.T) {
	err := wrap("FPutObject", "b", "o", minio.ErrorResponse{Code: "NoSuchBucket"})
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "NoSuchBucket", Code(fmt.Errorf("archive: %w", err)))
	assert.Contains(t, err.Error(), "FPutObject b/o")

	assert.False(t, IsNotFound(errors.New("plain")))
	assert.Empty(t, Code(errors.New("plain")))
	assert.Nil(t, wrap("op", "", "", nil))
}

func TestClientArgumentChecks(t *testing.T) {
	c, err := NewClient(&Config{
		Endpoint:        "localhost:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
	}, logger.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, c.Ping(ctx), "no health probe configured")

	_, err = c.FPutObject(ctx, "", "obj", "/tmp/x", PutOptions{})
	assert.ErrorIs(t, err, ErrInvalidBucketName)
	_, err = c.FPutObject(ctx, "bucket", "", "/tmp/x", PutOptions{})
	assert.ErrorIs(t, err, ErrInvalidObjectName)
	assert.ErrorIs(t, c.EnsureBucket(ctx, "No_Such"), ErrInvalidBucketName)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	_, err = c.FPutObject(ctx, "bucket", "obj", "/tmp/x", PutOptions{})
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.ErrorIs(t, c.EnsureBucket(ctx, "bucket"), ErrClientClosed)
	assert.ErrorIs(t, c.Ping(ctx), ErrClientClosed)
}
