package service

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lk2023060901/file-storage-backend/internal/collection/biz"
	fileservice "github.com/lk2023060901/file-storage-backend/internal/file/service"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// CollectionService 收藏夹 HTTP 服务
type CollectionService struct {
	uc     *biz.CollectionUseCase
	logger *logger.Logger
}

// NewCollectionService 创建收藏夹服务
func NewCollectionService(uc *biz.CollectionUseCase, logger *logger.Logger) *CollectionService {
	return &CollectionService{
		uc:     uc,
		logger: logger,
	}
}

// ListCollections 键集分页列出收藏夹
func (s *CollectionService) ListCollections(c *gin.Context) {
	var q ListCollectionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrCollectionPagination, err.Error()))
		return
	}

	page, err := s.uc.List(c.Request.Context(), toListQuery(&q))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, toListCollectionsResponse(page))
}

// CreateCollection 创建收藏夹
func (s *CollectionService) CreateCollection(c *gin.Context) {
	var req CollectionRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.HandleError(c, err)
		return
	}

	col, err := s.uc.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		s.logger.WithContext(c.Request.Context()).Warn("create collection failed", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Created(c, toCollectionResponse(col))
}

// GetCollection 获取收藏夹
func (s *CollectionService) GetCollection(c *gin.Context) {
	id, err := response.UUIDParam(c, "uuid")
	if err != nil {
		response.HandleError(c, err)
		return
	}

	col, err := s.uc.Get(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, toCollectionResponse(col))
}

// UpdateCollection 更新名称和描述
func (s *CollectionService) UpdateCollection(c *gin.Context) {
	id, err := response.UUIDParam(c, "uuid")
	if err != nil {
		response.HandleError(c, err)
		return
	}

	var req CollectionRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.HandleError(c, err)
		return
	}

	col, err := s.uc.Update(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, toCollectionResponse(col))
}

// DeleteCollection 删除收藏夹
func (s *CollectionService) DeleteCollection(c *gin.Context) {
	id, err := response.UUIDParam(c, "uuid")
	if err != nil {
		response.HandleError(c, err)
		return
	}

	if err := s.uc.Delete(c.Request.Context(), id); err != nil {
		response.HandleError(c, err)
		return
	}

	response.NoContent(c)
}

// ListFiles 分页列出收藏夹内的文件
func (s *CollectionService) ListFiles(c *gin.Context) {
	id, err := response.UUIDParam(c, "uuid")
	if err != nil {
		response.HandleError(c, err)
		return
	}
	page, err := response.PageQuery(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	files, err := s.uc.ListFiles(c.Request.Context(), id, page)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	resp := &ListFilesResponse{Page: page, Items: make([]*fileservice.FileSummaryResponse, len(files))}
	for i, f := range files {
		resp.Items[i] = fileservice.ToFileSummaryResponse(f)
	}
	response.Success(c, resp)
}

// AddFile 把文件加入收藏夹
func (s *CollectionService) AddFile(c *gin.Context) {
	id, fileID, ok := s.memberParams(c)
	if !ok {
		return
	}

	if err := s.uc.AddFile(c.Request.Context(), id, fileID); err != nil {
		response.HandleError(c, err)
		return
	}

	response.NoContent(c)
}

// RemoveFile 把文件移出收藏夹
func (s *CollectionService) RemoveFile(c *gin.Context) {
	id, fileID, ok := s.memberParams(c)
	if !ok {
		return
	}

	if err := s.uc.RemoveFile(c.Request.Context(), id, fileID); err != nil {
		response.HandleError(c, err)
		return
	}

	response.NoContent(c)
}

// GetFile 获取收藏夹内的文件
func (s *CollectionService) GetFile(c *gin.Context) {
	id, fileID, ok := s.memberParams(c)
	if !ok {
		return
	}

	f, err := s.uc.GetFile(c.Request.Context(), id, fileID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, fileservice.ToFileResponse(f))
}

func (s *CollectionService) memberParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, err := response.UUIDParam(c, "uuid")
	if err != nil {
		response.HandleError(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	fileID, err := response.UUIDParam(c, "fileUuid")
	if err != nil {
		response.HandleError(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	return id, fileID, true
}

// RegisterRoutes 注册路由
func (s *CollectionService) RegisterRoutes(r *gin.RouterGroup) {
	collections := r.Group("/collections")
	{
		collections.GET("", s.ListCollections)
		collections.POST("", s.CreateCollection)
		collections.GET("/:uuid", s.GetCollection)
		collections.PUT("/:uuid", s.UpdateCollection)
		collections.DELETE("/:uuid", s.DeleteCollection)

		collections.GET("/:uuid/files", s.ListFiles)
		collections.GET("/:uuid/files/:fileUuid", s.GetFile)
		collections.PUT("/:uuid/files/:fileUuid", s.AddFile)
		collections.DELETE("/:uuid/files/:fileUuid", s.RemoveFile)
	}
}
