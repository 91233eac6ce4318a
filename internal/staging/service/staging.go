package service

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/response"
	"github.com/lk2023060901/file-storage-backend/internal/staging/biz"
	"go.uber.org/zap"
)

// StagingService 暂存上传 HTTP 服务
type StagingService struct {
	uc     *biz.StagingUseCase
	logger *logger.Logger
}

// NewStagingService 创建暂存服务
func NewStagingService(uc *biz.StagingUseCase, logger *logger.Logger) *StagingService {
	return &StagingService{
		uc:     uc,
		logger: logger,
	}
}

// CreateStaging 分配上传槽位
func (s *StagingService) CreateStaging(c *gin.Context) {
	st, err := s.uc.Create(c.Request.Context())
	if err != nil {
		s.logger.WithContext(c.Request.Context()).Error("create staging failed", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Created(c, &CreateStagingResponse{UUID: st.ID.String()})
}

// GetStaging 查询已接收的字节数
func (s *StagingService) GetStaging(c *gin.Context) {
	id, err := response.UUIDParam(c, "uuid")
	if err != nil {
		response.HandleError(c, err)
		return
	}

	st, err := s.uc.Get(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, toStagingResponse(st))
}

// PutStaging 以 multipart 上传或续传，完成后转为正式文件
func (s *StagingService) PutStaging(c *gin.Context) {
	id, err := response.UUIDParam(c, "uuid")
	if err != nil {
		response.HandleError(c, err)
		return
	}
	offset, err := response.OffsetParam(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	body, err := c.Request.MultipartReader()
	if err != nil {
		response.HandleError(c, biz.MultipartBroken(err))
		return
	}

	f, err := s.uc.Upload(c.Request.Context(), id, offset, body)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, toStagingPutResponse(f))
}

// RegisterRoutes 注册路由
func (s *StagingService) RegisterRoutes(r *gin.RouterGroup) {
	stagings := r.Group("/stagings")
	{
		stagings.POST("", s.CreateStaging)
		stagings.GET("/:uuid", s.GetStaging)
		stagings.PUT("/:uuid", s.PutStaging)
	}
}
