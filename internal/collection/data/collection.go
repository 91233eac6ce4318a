package data

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/file-storage-backend/internal/collection/biz"
	filebiz "github.com/lk2023060901/file-storage-backend/internal/file/biz"
	filedata "github.com/lk2023060901/file-storage-backend/internal/file/data"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollectionPO 收藏夹数据库模型
type CollectionPO struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UUID        uuid.UUID `gorm:"column:uuid;type:uuid;uniqueIndex"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (CollectionPO) TableName() string {
	return "collections"
}

// CollectionFilePairPO 收藏夹与文件的关联
type CollectionFilePairPO struct {
	CollectionID int64     `gorm:"column:collection_id;primaryKey"`
	FileUUID     uuid.UUID `gorm:"column:file_uuid;type:uuid;primaryKey"`
}

func (CollectionFilePairPO) TableName() string {
	return "collection_file_pairs"
}

// CollectionRepo 收藏夹仓储实现
type CollectionRepo struct {
	db *database.DB
}

// NewCollectionRepo 创建收藏夹仓储
func NewCollectionRepo(db *database.DB) *CollectionRepo {
	return &CollectionRepo{db: db}
}

func (r *CollectionRepo) Create(ctx context.Context, c *biz.Collection) error {
	po := &CollectionPO{
		UUID:        c.UUID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
	if err := r.db.GetDBFromContext(ctx).Create(po).Error; err != nil {
		return err
	}
	c.ID = po.ID
	return nil
}

func (r *CollectionRepo) Get(ctx context.Context, id uuid.UUID) (*biz.Collection, error) {
	var po CollectionPO
	if err := r.db.GetDBFromContext(ctx).Where("uuid = ?", id).Take(&po).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, biz.NotFound(id)
		}
		return nil, err
	}
	return toCollection(&po), nil
}

func (r *CollectionRepo) Update(ctx context.Context, c *biz.Collection) error {
	res := r.db.GetDBFromContext(ctx).
		Model(&CollectionPO{}).
		Where("uuid = ?", c.UUID).
		Updates(map[string]interface{}{
			"name":        c.Name,
			"description": c.Description,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return biz.NotFound(c.UUID)
	}
	return nil
}

// Delete 删除收藏夹，关联行由外键级联删除
func (r *CollectionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.GetDBFromContext(ctx).Where("uuid = ?", id).Delete(&CollectionPO{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return biz.NotFound(id)
	}
	return nil
}

func (r *CollectionRepo) List(ctx context.Context, k *biz.Keyset) ([]*biz.Collection, error) {
	order := "id DESC"
	if k.Ascending {
		order = "id ASC"
	}

	var pos []CollectionPO
	err := r.db.GetDBFromContext(ctx).
		Scopes(keysetScope(k)).
		Order(order).
		Limit(k.Limit).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}

	items := make([]*biz.Collection, len(pos))
	for i := range pos {
		items[i] = toCollection(&pos[i])
	}
	return items, nil
}

// Exists 判断键集范围内是否还有收藏夹
func (r *CollectionRepo) Exists(ctx context.Context, k *biz.Keyset) (bool, error) {
	var hits []int64
	err := r.db.GetDBFromContext(ctx).
		Model(&CollectionPO{}).
		Scopes(keysetScope(k)).
		Limit(1).
		Pluck("id", &hits).Error
	if err != nil {
		return false, err
	}
	return len(hits) > 0, nil
}

// keysetScope 拼接 id 边界和名称过滤
func keysetScope(k *biz.Keyset) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if k.After != nil {
			db = db.Where("id > ?", *k.After)
		}
		if k.Before != nil {
			db = db.Where("id < ?", *k.Before)
		}
		if k.Name != nil {
			db = db.Where("name = ?", *k.Name)
		}
		return db
	}
}

// AddFile 重复添加不报错
func (r *CollectionRepo) AddFile(ctx context.Context, collectionID int64, fileID uuid.UUID) error {
	return r.db.GetDBFromContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&CollectionFilePairPO{CollectionID: collectionID, FileUUID: fileID}).Error
}

func (r *CollectionRepo) RemoveFile(ctx context.Context, collectionID int64, fileID uuid.UUID) (bool, error) {
	res := r.db.GetDBFromContext(ctx).
		Where("collection_id = ? AND file_uuid = ?", collectionID, fileID).
		Delete(&CollectionFilePairPO{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *CollectionRepo) HasFile(ctx context.Context, collectionID int64, fileID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.GetDBFromContext(ctx).
		Model(&CollectionFilePairPO{}).
		Where("collection_id = ? AND file_uuid = ?", collectionID, fileID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFiles 分页获取收藏夹内的完整文件，按 uuid 升序
func (r *CollectionRepo) ListFiles(ctx context.Context, collectionID int64, page, pageSize int) ([]*filebiz.File, error) {
	var pos []filedata.FilePO
	err := r.db.GetDBFromContext(ctx).
		Model(&filedata.FilePO{}).
		Joins("JOIN collection_file_pairs ON collection_file_pairs.file_uuid = files.uuid").
		Where("collection_file_pairs.collection_id = ?", collectionID).
		Scopes(filedata.CompleteScope).
		Order("files.uuid ASC").
		Scopes(database.Page(page, pageSize)).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}

	files := make([]*filebiz.File, len(pos))
	for i := range pos {
		files[i] = filedata.ToFile(&pos[i])
	}
	return files, nil
}

func toCollection(po *CollectionPO) *biz.Collection {
	return &biz.Collection{
		ID:          po.ID,
		UUID:        po.UUID,
		Name:        po.Name,
		Description: po.Description,
		CreatedAt:   po.CreatedAt,
	}
}
