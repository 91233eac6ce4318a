package service

import (
	"time"

	"github.com/lk2023060901/file-storage-backend/internal/collection/biz"
	fileservice "github.com/lk2023060901/file-storage-backend/internal/file/service"
)

// ListCollectionsQuery 收藏夹列表查询参数
type ListCollectionsQuery struct {
	FirstID    *int64  `form:"firstId"`
	LastID     *int64  `form:"lastId"`
	Order      string  `form:"order"`
	PageSize   int     `form:"pageSize"`
	FilterName *string `form:"filterName"`
}

// CollectionRequest 创建/更新收藏夹请求
type CollectionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// CollectionResponse 收藏夹响应
type CollectionResponse struct {
	ID          int64     `json:"id"`
	UUID        string    `json:"uuid"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Pagination 前后是否还有数据
type Pagination struct {
	HasPrev bool `json:"hasPrev"`
	HasNext bool `json:"hasNext"`
}

// ListCollectionsResponse 收藏夹列表响应
type ListCollectionsResponse struct {
	Pagination Pagination            `json:"pagination"`
	Items      []*CollectionResponse `json:"items"`
}

// ListFilesResponse 收藏夹文件列表响应
type ListFilesResponse struct {
	Page  int                                `json:"page"`
	Items []*fileservice.FileSummaryResponse `json:"items"`
}

func toListQuery(q *ListCollectionsQuery) *biz.ListQuery {
	return &biz.ListQuery{
		FirstID:    q.FirstID,
		LastID:     q.LastID,
		Order:      biz.Order(q.Order),
		PageSize:   q.PageSize,
		FilterName: q.FilterName,
	}
}

func toCollectionResponse(c *biz.Collection) *CollectionResponse {
	return &CollectionResponse{
		ID:          c.ID,
		UUID:        c.UUID.String(),
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func toListCollectionsResponse(p *biz.Page) *ListCollectionsResponse {
	resp := &ListCollectionsResponse{
		Pagination: Pagination{HasPrev: p.HasPrev, HasNext: p.HasNext},
		Items:      make([]*CollectionResponse, len(p.Items)),
	}
	for i, c := range p.Items {
		resp.Items[i] = toCollectionResponse(c)
	}
	return resp
}
