package service

import (
	"time"

	"github.com/lk2023060901/file-storage-backend/internal/tagtemplate/biz"
)

// CreateTagTemplateRequest 创建标签模板请求
type CreateTagTemplateRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ValueType   *string `json:"valueType"`
}

// TagTemplateResponse 标签模板响应
type TagTemplateResponse struct {
	UUID        string    `json:"uuid"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	ValueType   *string   `json:"valueType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListTagTemplatesResponse 标签模板列表响应
type ListTagTemplatesResponse struct {
	Page  int                    `json:"page"`
	Items []*TagTemplateResponse `json:"items"`
}

func toTagTemplateResponse(t *biz.TagTemplate) *TagTemplateResponse {
	resp := &TagTemplateResponse{
		UUID:        t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
	if t.ValueType != nil {
		vt := string(*t.ValueType)
		resp.ValueType = &vt
	}
	return resp
}
