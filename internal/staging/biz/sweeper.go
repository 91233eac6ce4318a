package biz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/file-storage-backend/internal/filestore"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/metrics"
	"go.uber.org/zap"
)

// SweeperConfig 过期暂存清理配置
type SweeperConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	TTL       time.Duration `mapstructure:"ttl"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

// DefaultSweeperConfig 默认关闭
func DefaultSweeperConfig() *SweeperConfig {
	return &SweeperConfig{
		Enabled:   false,
		TTL:       24 * time.Hour,
		Interval:  10 * time.Minute,
		BatchSize: 100,
	}
}

// Validate 校验启用时的配置
func (c *SweeperConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.TTL <= 0 {
		return errors.New("sweeper: ttl must be > 0")
	}
	if c.Interval <= 0 {
		return errors.New("sweeper: interval must be > 0")
	}
	if c.BatchSize <= 0 {
		return errors.New("sweeper: batch_size must be > 0")
	}
	return nil
}

// Sweep deletes one batch of stagings older than ttl and removes their bytes.
// Rows locked by an in-flight upload are skipped. The objects are removed
// after the rows are gone; a failed removal is logged and left behind.
func (uc *StagingUseCase) Sweep(ctx context.Context, ttl time.Duration, limit int) (int, error) {
	var ids []uuid.UUID
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		ids, err = uc.repo.LockExpired(ctx, now().Add(-ttl), limit)
		if err != nil || len(ids) == 0 {
			return err
		}
		return uc.repo.Delete(ctx, ids...)
	})
	if err != nil {
		return 0, apperrors.Wrap(fmt.Errorf("sweep stagings: %w", err), apperrors.ErrDatabase)
	}

	for _, id := range ids {
		if err := uc.store.Remove(filestore.Staging, id); err != nil {
			uc.logger.WithContext(ctx).Warn("remove swept staging object failed",
				zap.String("staging_id", id.String()), zap.Error(err))
		}
	}
	return len(ids), nil
}

// Sweeper 定期清理过期暂存
type Sweeper struct {
	uc      *StagingUseCase
	cfg     *SweeperConfig
	metrics *metrics.Metrics
	logger  *logger.Logger
	wg      sync.WaitGroup
	stopCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewSweeper 创建清理器
func NewSweeper(uc *StagingUseCase, cfg *SweeperConfig, m *metrics.Metrics, log *logger.Logger) *Sweeper {
	if cfg == nil {
		cfg = DefaultSweeperConfig()
	}
	return &Sweeper{
		uc:      uc,
		cfg:     cfg,
		metrics: m,
		logger:  log.Named("sweeper"),
		stopCh:  make(chan struct{}),
	}
}

// Start 启动清理循环
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("sweeper already running")
	}
	s.running = true
	s.logger.Info("starting staging sweeper",
		zap.Duration("ttl", s.cfg.TTL),
		zap.Duration("interval", s.cfg.Interval),
	)

	s.wg.Add(1)
	go s.loop(ctx)
	return nil
}

// Stop 停止并等待当前批次结束
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.wg.Wait()
	s.running = false
	s.logger.Info("staging sweeper stopped")
}

func (s *Sweeper) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps batches until one comes back short
func (s *Sweeper) RunOnce(ctx context.Context) int {
	total := 0
	for {
		n, err := s.uc.Sweep(ctx, s.cfg.TTL, s.cfg.BatchSize)
		if err != nil {
			s.logger.Error("sweep stagings failed", zap.Error(err))
			break
		}
		total += n
		s.metrics.AddStagingsSwept(n)
		if n < s.cfg.BatchSize {
			break
		}
	}
	if total > 0 {
		s.logger.Info("expired stagings swept", zap.Int("count", total))
	}
	return total
}
