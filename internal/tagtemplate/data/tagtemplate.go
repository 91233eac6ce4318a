package data

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/database"
	"github.com/lk2023060901/file-storage-backend/internal/tagtemplate/biz"
)

// TagTemplatePO 标签模板数据库模型
type TagTemplatePO struct {
	UUID        uuid.UUID `gorm:"column:uuid;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	ValueType   *string   `gorm:"column:value_type"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (TagTemplatePO) TableName() string {
	return "tag_templates"
}

// TagTemplateRepo 标签模板仓储实现
type TagTemplateRepo struct {
	db *database.DB
}

// NewTagTemplateRepo 创建标签模板仓储
func NewTagTemplateRepo(db *database.DB) *TagTemplateRepo {
	return &TagTemplateRepo{db: db}
}

// Create 创建标签模板
func (r *TagTemplateRepo) Create(ctx context.Context, t *biz.TagTemplate) error {
	po := &TagTemplatePO{
		UUID:        t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
	if t.ValueType != nil {
		vt := string(*t.ValueType)
		po.ValueType = &vt
	}
	return r.db.GetDBFromContext(ctx).Create(po).Error
}

// Get 根据 UUID 获取标签模板
func (r *TagTemplateRepo) Get(ctx context.Context, id uuid.UUID) (*biz.TagTemplate, error) {
	var po TagTemplatePO
	err := r.db.GetDBFromContext(ctx).Where("uuid = ?", id).First(&po).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, biz.ErrTemplateNotFound
		}
		return nil, err
	}
	return toTagTemplate(&po), nil
}

// List 分页获取标签模板（按名称升序、创建时间降序）
func (r *TagTemplateRepo) List(ctx context.Context, page int) ([]*biz.TagTemplate, error) {
	var pos []TagTemplatePO
	err := r.db.GetDBFromContext(ctx).
		Order("name ASC, created_at DESC, uuid ASC").
		Scopes(database.Page(page, biz.PageSize)).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}

	items := make([]*biz.TagTemplate, len(pos))
	for i := range pos {
		items[i] = toTagTemplate(&pos[i])
	}
	return items, nil
}

// FindCompact 批量获取模板的值类型，按 UUID 排序
func (r *TagTemplateRepo) FindCompact(ctx context.Context, ids []uuid.UUID) ([]biz.Compact, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var pos []TagTemplatePO
	err := r.db.GetDBFromContext(ctx).
		Select("uuid", "value_type").
		Where("uuid IN ?", ids).
		Order("uuid ASC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}

	out := make([]biz.Compact, len(pos))
	for i := range pos {
		out[i] = biz.Compact{ID: pos[i].UUID, ValueType: toValueType(pos[i].ValueType)}
	}
	return out, nil
}

func toTagTemplate(po *TagTemplatePO) *biz.TagTemplate {
	return &biz.TagTemplate{
		ID:          po.UUID,
		Name:        po.Name,
		Description: po.Description,
		ValueType:   toValueType(po.ValueType),
		CreatedAt:   po.CreatedAt,
	}
}

func toValueType(s *string) *biz.ValueType {
	if s == nil {
		return nil
	}
	vt := biz.ValueType(*s)
	return &vt
}
