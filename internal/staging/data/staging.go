package data

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/database"
	"github.com/lk2023060901/file-storage-backend/internal/staging/biz"
	"gorm.io/gorm"
)

// StagingPO 暂存数据库模型
type StagingPO struct {
	UUID     uuid.UUID `gorm:"column:uuid;type:uuid;primaryKey"`
	StagedAt time.Time `gorm:"column:staged_at;not null"`
}

func (StagingPO) TableName() string {
	return "stagings"
}

// StagingRepo 暂存仓储实现
type StagingRepo struct {
	db *database.DB
}

// NewStagingRepo 创建暂存仓储
func NewStagingRepo(db *database.DB) *StagingRepo {
	return &StagingRepo{db: db}
}

func (r *StagingRepo) Create(ctx context.Context, s *biz.Staging) error {
	po := &StagingPO{UUID: s.ID, StagedAt: s.StagedAt}
	return r.db.GetDBFromContext(ctx).Create(po).Error
}

func (r *StagingRepo) Get(ctx context.Context, id uuid.UUID) (*biz.Staging, error) {
	return r.take(r.db.GetDBFromContext(ctx), id)
}

// GetForUpdate 加行锁读取，锁持续到事务结束
func (r *StagingRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*biz.Staging, error) {
	return r.take(r.db.GetDBFromContext(ctx).Scopes(database.ForUpdate()), id)
}

func (r *StagingRepo) take(db *gorm.DB, id uuid.UUID) (*biz.Staging, error) {
	var po StagingPO
	if err := db.Where("uuid = ?", id).Take(&po).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, biz.NotFound(id)
		}
		return nil, err
	}
	return &biz.Staging{ID: po.UUID, StagedAt: po.StagedAt}, nil
}

func (r *StagingRepo) Delete(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.GetDBFromContext(ctx).Where("uuid IN ?", ids).Delete(&StagingPO{}).Error
}

// LockExpired 锁定最早的过期暂存，跳过其他事务持有的行
func (r *StagingRepo) LockExpired(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.GetDBFromContext(ctx).
		Model(&StagingPO{}).
		Scopes(database.ForUpdateSkipLocked()).
		Where("staged_at < ?", cutoff).
		Order("staged_at ASC").
		Limit(limit).
		Pluck("uuid", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
