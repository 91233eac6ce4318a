package service

import (
	"time"

	filebiz "github.com/lk2023060901/file-storage-backend/internal/file/biz"
	"github.com/lk2023060901/file-storage-backend/internal/staging/biz"
)

// CreateStagingResponse 创建暂存响应
type CreateStagingResponse struct {
	UUID string `json:"uuid"`
}

// StagingResponse 暂存状态
type StagingResponse struct {
	UUID       string    `json:"uuid"`
	StagedSize uint64    `json:"stagedSize"`
	StagedAt   time.Time `json:"stagedAt"`
}

// StagingPutResponse 上传完成后生成的文件
type StagingPutResponse struct {
	UUID       string    `json:"uuid"`
	Name       string    `json:"name"`
	Mime       string    `json:"mime"`
	Size       uint64    `json:"size"`
	Hash       uint32    `json:"hash"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func toStagingResponse(s *biz.Status) *StagingResponse {
	return &StagingResponse{
		UUID:       s.ID.String(),
		StagedSize: s.StagedSize,
		StagedAt:   s.StagedAt,
	}
}

func toStagingPutResponse(f *filebiz.File) *StagingPutResponse {
	return &StagingPutResponse{
		UUID:       f.ID.String(),
		Name:       f.Name,
		Mime:       *f.Mime,
		Size:       *f.Size,
		Hash:       *f.Hash,
		UploadedAt: *f.UploadedAt,
	}
}
