package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client Redis 客户端封装，三种部署模式统一为 UniversalClient
type Client struct {
	logger *logger.Logger
	rdb    redis.UniversalClient
}

// IsNil key 不存在
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// New 按部署模式创建客户端并做一次 Ping
func New(cfg *Config, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := cfg.universal()
	var rdb redis.UniversalClient
	switch cfg.Mode {
	case ModeSentinel:
		rdb = redis.NewFailoverClient(opts.Failover())
	case ModeCluster:
		rdb = redis.NewClusterClient(opts.Cluster())
	default:
		rdb = redis.NewClient(opts.Simple())
	}

	client := &Client{logger: log, rdb: rdb}

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info("redis client initialized",
		zap.String("mode", string(cfg.Mode)),
		zap.Strings("addrs", opts.Addrs),
	)
	return client, nil
}

// NewFromUniversal 包装已有的 go-redis 客户端（测试或自定义拓扑）
func NewFromUniversal(rdb redis.UniversalClient, log *logger.Logger) *Client {
	return &Client{logger: log, rdb: rdb}
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	if c.rdb == nil {
		return errors.New("redis: client not initialized")
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.logger.Error("redis ping failed", zap.Error(err))
		return err
	}
	return nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Close(); err != nil {
		c.logger.Error("close redis client failed", zap.Error(err))
		return err
	}
	c.logger.Info("redis client closed")
	return nil
}

// Universal 返回底层客户端（用于高级操作）
func (c *Client) Universal() redis.UniversalClient {
	return c.rdb
}

// TxPipeline 创建事务 Pipeline（MULTI/EXEC）
func (c *Client) TxPipeline() redis.Pipeliner {
	return c.rdb.TxPipeline()
}

// Pipeline 创建 Pipeline
func (c *Client) Pipeline() redis.Pipeliner {
	return c.rdb.Pipeline()
}

// SMembers 获取集合所有成员
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := c.rdb.SMembers(ctx, key).Result()
	if err != nil {
		c.logger.Error("redis smembers failed", zap.String("key", key), zap.Error(err))
	}
	return members, err
}

// HGetAll 获取哈希所有字段，key 不存在时返回空 map
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		c.logger.Error("redis hgetall failed", zap.String("key", key), zap.Error(err))
	}
	return fields, err
}
