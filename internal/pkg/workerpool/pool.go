package workerpool

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var (
	ErrPoolClosed   = errors.New("worker pool is closed")
	ErrPoolOverload = errors.New("worker pool queue is full")
)

// Config Worker Pool 配置
type Config struct {
	Workers         int           `mapstructure:"workers"`          // worker 数量上限
	QueueSize       int           `mapstructure:"queue_size"`       // 阻塞等待的任务上限，0 表示不限
	Nonblocking     bool          `mapstructure:"nonblocking"`      // 满载时直接拒绝而不是等待
	ExpiryDuration  time.Duration `mapstructure:"expiry_duration"`  // 空闲 worker 回收间隔
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // 关闭时等待运行中任务的时间
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Workers:         4,
		QueueSize:       256,
		ExpiryDuration:  time.Minute,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Statistics 任务统计
type Statistics struct {
	Submitted int64
	Completed int64
	Panicked  int64
	Rejected  int64
	Running   int
	Waiting   int
}

// Pool 基于 ants 的 goroutine 池
type Pool struct {
	pool   *ants.Pool
	config *Config
	logger *logger.Logger

	submitted atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
	rejected  atomic.Int64
}

// New 创建 Worker Pool
func New(config *Config, log *logger.Logger) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Workers <= 0 {
		return nil, fmt.Errorf("worker pool size must be > 0, got %d", config.Workers)
	}

	p := &Pool{config: config, logger: log}

	opts := []ants.Option{
		ants.WithPanicHandler(func(err any) {
			p.panicked.Add(1)
			log.Error("worker panic", zap.Any("error", err), zap.Stack("stacktrace"))
		}),
		ants.WithMaxBlockingTasks(config.QueueSize),
		ants.WithNonblocking(config.Nonblocking),
	}
	if config.ExpiryDuration > 0 {
		opts = append(opts, ants.WithExpiryDuration(config.ExpiryDuration))
	}

	antsPool, err := ants.NewPool(config.Workers, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}
	p.pool = antsPool
	return p, nil
}

// Submit 提交任务
func (p *Pool) Submit(task func()) error {
	p.submitted.Add(1)
	err := p.pool.Submit(func() {
		defer p.completed.Add(1)
		task()
	})
	if err == nil {
		return nil
	}
	p.rejected.Add(1)
	switch {
	case errors.Is(err, ants.ErrPoolClosed):
		return ErrPoolClosed
	case errors.Is(err, ants.ErrPoolOverload):
		return ErrPoolOverload
	}
	return err
}

// Stats 计数器快照，Running/Waiting 取自 ants
func (p *Pool) Stats() Statistics {
	return Statistics{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
		Rejected:  p.rejected.Load(),
		Running:   p.pool.Running(),
		Waiting:   p.pool.Waiting(),
	}
}

// Shutdown 关闭，等待运行中的任务直到超时
func (p *Pool) Shutdown() error {
	timeout := p.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if err := p.pool.ReleaseTimeout(timeout); err != nil {
		p.logger.Warn("worker pool shutdown timed out", zap.Int("running", p.pool.Running()))
		return err
	}
	return nil
}
