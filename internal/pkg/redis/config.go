package redis

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeployMode Redis 部署模式
type DeployMode string

const (
	ModeSingle   DeployMode = "single"   // 单机模式
	ModeSentinel DeployMode = "sentinel" // 哨兵模式
	ModeCluster  DeployMode = "cluster"  // 集群模式
)

// Config Redis 配置
type Config struct {
	Mode DeployMode `mapstructure:"mode" yaml:"mode"`

	// 单机模式
	Addr string `mapstructure:"addr" yaml:"addr"` // host:port

	// 哨兵模式
	SentinelAddrs []string `mapstructure:"sentinel_addrs" yaml:"sentinel_addrs"`
	MasterName    string   `mapstructure:"master_name" yaml:"master_name"`

	// 集群模式
	ClusterAddrs []string `mapstructure:"cluster_addrs" yaml:"cluster_addrs"`

	// 认证
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"` // 集群模式下忽略

	// 连接池
	PoolSize     int `mapstructure:"pool_size" yaml:"pool_size"`
	MinIdleConns int `mapstructure:"min_idle_conns" yaml:"min_idle_conns"`

	// 超时
	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout" yaml:"pool_timeout"`

	// 重试
	MaxRetries      int           `mapstructure:"max_retries" yaml:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff" yaml:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff" yaml:"max_retry_backoff"`

	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" yaml:"conn_max_idle_time"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Mode:            ModeSingle,
		Addr:            "localhost:6379",
		PoolSize:        10,
		MinIdleConns:    2,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolTimeout:     4 * time.Second,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeSingle:
		if c.Addr == "" {
			return errors.New("redis: addr is required in single mode")
		}
	case ModeSentinel:
		if len(c.SentinelAddrs) == 0 {
			return errors.New("redis: sentinel_addrs is required in sentinel mode")
		}
		if c.MasterName == "" {
			return errors.New("redis: master_name is required in sentinel mode")
		}
	case ModeCluster:
		if len(c.ClusterAddrs) == 0 {
			return errors.New("redis: cluster_addrs is required in cluster mode")
		}
	default:
		return fmt.Errorf("redis: unknown mode %q", c.Mode)
	}

	if c.PoolSize < 0 || c.MinIdleConns < 0 {
		return errors.New("redis: pool sizes must not be negative")
	}
	if c.MinIdleConns > c.PoolSize && c.PoolSize > 0 {
		return errors.New("redis: min_idle_conns must not exceed pool_size")
	}
	return nil
}

// universal 把各模式的地址收敛到 UniversalOptions，再由 Simple/Failover/Cluster 展开
func (c *Config) universal() *redis.UniversalOptions {
	var addrs []string
	switch c.Mode {
	case ModeSentinel:
		addrs = c.SentinelAddrs
	case ModeCluster:
		addrs = c.ClusterAddrs
	default:
		addrs = []string{c.Addr}
	}
	return &redis.UniversalOptions{
		Addrs:           addrs,
		MasterName:      c.MasterName,
		Username:        c.Username,
		Password:        c.Password,
		DB:              c.DB,
		PoolSize:        c.PoolSize,
		MinIdleConns:    c.MinIdleConns,
		DialTimeout:     c.DialTimeout,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		PoolTimeout:     c.PoolTimeout,
		MaxRetries:      c.MaxRetries,
		MinRetryBackoff: c.MinRetryBackoff,
		MaxRetryBackoff: c.MaxRetryBackoff,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
	}
}
