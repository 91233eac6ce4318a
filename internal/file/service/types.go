package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/file-storage-backend/internal/file/biz"
	tagbiz "github.com/lk2023060901/file-storage-backend/internal/tagtemplate/biz"
)

// TagRequest 文件标签
type TagRequest struct {
	TemplateUUID uuid.UUID     `json:"templateUuid"`
	Value        *tagbiz.Value `json:"value"`
}

// PrepareFileRequest 预创建文件请求
type PrepareFileRequest struct {
	Name string       `json:"name"`
	Tags []TagRequest `json:"tags"`
}

// IDResponse 只返回 uuid 的响应
type IDResponse struct {
	UUID string `json:"uuid"`
}

// ValueFilterRequest 标签值过滤条件，所有给出的条件同时成立
type ValueFilterRequest struct {
	Equal              *tagbiz.Value  `json:"equal"`
	NotEqual           *tagbiz.Value  `json:"notEqual"`
	LessThan           *tagbiz.Value  `json:"lessThan"`
	LessThanOrEqual    *tagbiz.Value  `json:"lessThanOrEqual"`
	GreaterThan        *tagbiz.Value  `json:"greaterThan"`
	GreaterThanOrEqual *tagbiz.Value  `json:"greaterThanOrEqual"`
	Contains           *tagbiz.Value  `json:"contains"`
	OneOf              []tagbiz.Value `json:"oneOf"`
}

// TagFilterRequest 单个标签过滤条件
type TagFilterRequest struct {
	TemplateUUID uuid.UUID           `json:"templateUuid"`
	Value        *ValueFilterRequest `json:"value"`
}

// SearchFilesRequest 搜索文件请求，body 可省略
type SearchFilesRequest struct {
	Query *string            `json:"query"`
	Tags  []TagFilterRequest `json:"tags"`
}

// FileSummaryResponse 上传完成的文件
type FileSummaryResponse struct {
	UUID       string    `json:"uuid"`
	Name       string    `json:"name"`
	Mime       string    `json:"mime"`
	Size       uint64    `json:"size"`
	Hash       uint32    `json:"hash"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// SearchFilesResponse 搜索结果
type SearchFilesResponse struct {
	Page  int                    `json:"page"`
	Items []*FileSummaryResponse `json:"items"`
}

// TagResponse 文件标签响应
type TagResponse struct {
	TemplateUUID string        `json:"templateUuid"`
	Value        *tagbiz.Value `json:"value"`
}

// FileResponse 文件详情，派生字段在上传前为 null
type FileResponse struct {
	UUID       string         `json:"uuid"`
	Name       string         `json:"name"`
	Mime       *string        `json:"mime"`
	Size       *uint64        `json:"size"`
	Hash       *uint32        `json:"hash"`
	UploadedAt *time.Time     `json:"uploadedAt"`
	CreatedAt  time.Time      `json:"createdAt"`
	Tags       []*TagResponse `json:"tags"`
}

func toPrepareRequest(req *PrepareFileRequest) *biz.PrepareRequest {
	out := &biz.PrepareRequest{Name: req.Name, Tags: make([]biz.Tag, len(req.Tags))}
	for i, t := range req.Tags {
		out.Tags[i] = biz.Tag{TemplateID: t.TemplateUUID, Value: t.Value}
	}
	return out
}

func toSearchRequest(req *SearchFilesRequest, page int) *biz.SearchRequest {
	out := &biz.SearchRequest{Page: page, Tags: make([]biz.TagFilter, len(req.Tags))}
	if req.Query != nil {
		out.Query = *req.Query
	}
	for i, t := range req.Tags {
		out.Tags[i] = biz.TagFilter{TemplateID: t.TemplateUUID}
		if v := t.Value; v != nil {
			out.Tags[i].Value = &biz.ValueFilter{
				Equal:              v.Equal,
				NotEqual:           v.NotEqual,
				LessThan:           v.LessThan,
				LessThanOrEqual:    v.LessThanOrEqual,
				GreaterThan:        v.GreaterThan,
				GreaterThanOrEqual: v.GreaterThanOrEqual,
				Contains:           v.Contains,
				OneOf:              v.OneOf,
			}
		}
	}
	return out
}

// ToFileSummaryResponse 仅用于完整文件
func ToFileSummaryResponse(f *biz.File) *FileSummaryResponse {
	resp := &FileSummaryResponse{UUID: f.ID.String(), Name: f.Name}
	if f.Complete() {
		resp.Mime = *f.Mime
		resp.Size = *f.Size
		resp.Hash = *f.Hash
		resp.UploadedAt = *f.UploadedAt
	}
	return resp
}

// ToFileResponse 派生字段在上传完成前为 null
func ToFileResponse(f *biz.File) *FileResponse {
	resp := &FileResponse{
		UUID:       f.ID.String(),
		Name:       f.Name,
		Mime:       f.Mime,
		Size:       f.Size,
		Hash:       f.Hash,
		UploadedAt: f.UploadedAt,
		CreatedAt:  f.CreatedAt,
		Tags:       make([]*TagResponse, len(f.Tags)),
	}
	for i, t := range f.Tags {
		resp.Tags[i] = &TagResponse{TemplateUUID: t.TemplateID.String(), Value: t.Value}
	}
	return resp
}
