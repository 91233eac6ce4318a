package data

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/file-storage-backend/internal/file/biz"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/database"
	tagbiz "github.com/lk2023060901/file-storage-backend/internal/tagtemplate/biz"
	"gorm.io/gorm"
)

// FilePO 文件数据库模型，mime/size/hash/uploaded_at 在上传完成前为空
type FilePO struct {
	UUID       uuid.UUID  `gorm:"column:uuid;type:uuid;primaryKey"`
	Name       string     `gorm:"column:name;not null"`
	Mime       *string    `gorm:"column:mime"`
	Size       *int64     `gorm:"column:size"`
	Hash       *int64     `gorm:"column:hash"`
	UploadedAt *time.Time `gorm:"column:uploaded_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null"`
}

func (FilePO) TableName() string {
	return "files"
}

// TagPO 文件标签数据库模型，最多一个值列非空
type TagPO struct {
	TemplateUUID uuid.UUID `gorm:"column:template_uuid;type:uuid;primaryKey"`
	FileUUID     uuid.UUID `gorm:"column:file_uuid;type:uuid;primaryKey"`
	ValueString  *string   `gorm:"column:value_string"`
	ValueInteger *int64    `gorm:"column:value_integer"`
	ValueBoolean *bool     `gorm:"column:value_boolean"`
}

func (TagPO) TableName() string {
	return "tags"
}

// CompleteScope 只保留派生字段全部存在的文件
func CompleteScope(db *gorm.DB) *gorm.DB {
	return db.Where("files.mime IS NOT NULL AND files.size IS NOT NULL AND files.hash IS NOT NULL AND files.uploaded_at IS NOT NULL")
}

// FileRepo 文件仓储实现
type FileRepo struct {
	db *database.DB
}

// NewFileRepo 创建文件仓储
func NewFileRepo(db *database.DB) *FileRepo {
	return &FileRepo{db: db}
}

// Create 插入文件及其标签
func (r *FileRepo) Create(ctx context.Context, f *biz.File) error {
	db := r.db.GetDBFromContext(ctx)
	if err := db.Create(FromFile(f)).Error; err != nil {
		return err
	}
	if len(f.Tags) == 0 {
		return nil
	}

	tags := make([]TagPO, len(f.Tags))
	for i, t := range f.Tags {
		tags[i] = fromTag(f.ID, t)
	}
	return db.Create(&tags).Error
}

// Get 获取文件及其标签
func (r *FileRepo) Get(ctx context.Context, id uuid.UUID) (*biz.File, error) {
	db := r.db.GetDBFromContext(ctx)

	var po FilePO
	if err := db.Where("uuid = ?", id).Take(&po).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, biz.NotFound(id)
		}
		return nil, err
	}

	var tags []TagPO
	if err := db.Where("file_uuid = ?", id).Order("template_uuid ASC").Find(&tags).Error; err != nil {
		return nil, err
	}

	f := ToFile(&po)
	f.Tags = make([]biz.Tag, len(tags))
	for i := range tags {
		f.Tags[i] = toTag(&tags[i])
	}
	return f, nil
}

// GetForUpdate 加行锁读取文件
func (r *FileRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*biz.File, error) {
	var po FilePO
	err := r.db.GetDBFromContext(ctx).
		Scopes(database.ForUpdate()).
		Where("uuid = ?", id).
		Take(&po).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, biz.NotFound(id)
		}
		return nil, err
	}
	return ToFile(&po), nil
}

// SetContent 一条语句写入全部派生字段，调用方已持有行锁
func (r *FileRepo) SetContent(ctx context.Context, f *biz.File) error {
	po := FromFile(f)
	return r.db.GetDBFromContext(ctx).
		Model(&FilePO{}).
		Where("uuid = ?", f.ID).
		Updates(map[string]interface{}{
			"mime":        po.Mime,
			"size":        po.Size,
			"hash":        po.Hash,
			"uploaded_at": po.UploadedAt,
		}).Error
}

// Search 按标签条件、候选集合分页查询完整文件
func (r *FileRepo) Search(ctx context.Context, q *biz.SearchQuery) ([]*biz.File, error) {
	db := CompleteScope(r.db.GetDBFromContext(ctx))
	if len(q.Clauses) > 0 {
		sql, args := TagMatchSQL(q.Clauses)
		db = db.Where("files.uuid IN (?)", gorm.Expr(sql, args...))
	}
	if q.Restrict {
		db = db.Where("files.uuid IN ?", q.Candidates)
	}

	var pos []FilePO
	err := db.Order("files.uuid ASC").
		Scopes(database.Page(q.Page, q.PageSize)).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}

	files := make([]*biz.File, len(pos))
	for i := range pos {
		files[i] = ToFile(&pos[i])
	}
	return files, nil
}

// TagMatchSQL 生成选出满足全部标签条件的 file_uuid 的子查询。
// 每个模板一组 OR 条件，HAVING COUNT 要求全部命中；(template_uuid, file_uuid) 唯一
func TagMatchSQL(clauses []biz.Clause) (string, []interface{}) {
	var sb strings.Builder
	args := make([]interface{}, 0, len(clauses)*2+1)

	sb.WriteString("SELECT file_uuid FROM tags WHERE FALSE")
	for _, c := range clauses {
		sb.WriteString(" OR (template_uuid = ?")
		args = append(args, c.TemplateID)
		for _, cond := range c.Conditions {
			sb.WriteString(" AND ")
			sb.WriteString(c.Column)
			switch cond.Op {
			case "IN":
				sb.WriteString(" IN ?")
				args = append(args, cond.Args)
			case "LIKE":
				sb.WriteString(` LIKE ? ESCAPE '\'`)
				args = append(args, cond.Args[0])
			default:
				sb.WriteString(" " + cond.Op + " ?")
				args = append(args, cond.Args[0])
			}
		}
		sb.WriteString(")")
	}
	sb.WriteString(" GROUP BY file_uuid HAVING COUNT(file_uuid) = ?")
	args = append(args, len(clauses))

	return sb.String(), args
}

// FromFile 领域对象转数据库模型
func FromFile(f *biz.File) *FilePO {
	po := &FilePO{
		UUID:       f.ID,
		Name:       f.Name,
		Mime:       f.Mime,
		UploadedAt: f.UploadedAt,
		CreatedAt:  f.CreatedAt,
	}
	if f.Size != nil {
		size := int64(*f.Size)
		po.Size = &size
	}
	if f.Hash != nil {
		hash := int64(*f.Hash)
		po.Hash = &hash
	}
	return po
}

// ToFile 数据库模型转领域对象
func ToFile(po *FilePO) *biz.File {
	f := &biz.File{
		ID:         po.UUID,
		Name:       po.Name,
		Mime:       po.Mime,
		UploadedAt: po.UploadedAt,
		CreatedAt:  po.CreatedAt,
	}
	if po.Size != nil {
		size := uint64(*po.Size)
		f.Size = &size
	}
	if po.Hash != nil {
		hash := uint32(*po.Hash)
		f.Hash = &hash
	}
	return f
}

func fromTag(fileID uuid.UUID, t biz.Tag) TagPO {
	po := TagPO{TemplateUUID: t.TemplateID, FileUUID: fileID}
	if t.Value == nil {
		return po
	}
	switch t.Value.Type() {
	case tagbiz.TypeString:
		s := t.Value.String()
		po.ValueString = &s
	case tagbiz.TypeInteger:
		i := t.Value.Integer()
		po.ValueInteger = &i
	case tagbiz.TypeBoolean:
		b := t.Value.Boolean()
		po.ValueBoolean = &b
	}
	return po
}

func toTag(po *TagPO) biz.Tag {
	t := biz.Tag{TemplateID: po.TemplateUUID}
	var v tagbiz.Value
	switch {
	case po.ValueString != nil:
		v = tagbiz.StringValue(*po.ValueString)
	case po.ValueInteger != nil:
		v = tagbiz.IntegerValue(*po.ValueInteger)
	case po.ValueBoolean != nil:
		v = tagbiz.BooleanValue(*po.ValueBoolean)
	default:
		return t
	}
	t.Value = &v
	return t
}
