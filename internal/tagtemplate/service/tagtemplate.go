package service

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/response"
	"github.com/lk2023060901/file-storage-backend/internal/tagtemplate/biz"
	"go.uber.org/zap"
)

// TagTemplateService 标签模板 HTTP 服务
type TagTemplateService struct {
	uc     *biz.TagTemplateUseCase
	logger *logger.Logger
}

// NewTagTemplateService 创建标签模板服务
func NewTagTemplateService(uc *biz.TagTemplateUseCase, logger *logger.Logger) *TagTemplateService {
	return &TagTemplateService{
		uc:     uc,
		logger: logger,
	}
}

// CreateTagTemplate 创建标签模板
func (s *TagTemplateService) CreateTagTemplate(c *gin.Context) {
	var req CreateTagTemplateRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.HandleError(c, err)
		return
	}

	t, err := s.uc.Create(c.Request.Context(), &biz.CreateRequest{
		Name:        req.Name,
		Description: req.Description,
		ValueType:   req.ValueType,
	})
	if err != nil {
		s.logger.WithContext(c.Request.Context()).Warn("create tag template failed", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Created(c, toTagTemplateResponse(t))
}

// GetTagTemplate 获取标签模板
func (s *TagTemplateService) GetTagTemplate(c *gin.Context) {
	id, err := response.UUIDParam(c, "uuid")
	if err != nil {
		response.HandleError(c, err)
		return
	}

	t, err := s.uc.Get(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, toTagTemplateResponse(t))
}

// ListTagTemplates 分页列出标签模板
func (s *TagTemplateService) ListTagTemplates(c *gin.Context) {
	page, err := response.PageQuery(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	items, err := s.uc.List(c.Request.Context(), page)
	if err != nil {
		s.logger.WithContext(c.Request.Context()).Error("list tag templates failed", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	resp := &ListTagTemplatesResponse{Page: page, Items: make([]*TagTemplateResponse, len(items))}
	for i, t := range items {
		resp.Items[i] = toTagTemplateResponse(t)
	}
	response.Success(c, resp)
}

// RegisterRoutes 注册路由
func (s *TagTemplateService) RegisterRoutes(r *gin.RouterGroup) {
	templates := r.Group("/tag-templates")
	{
		templates.POST("", s.CreateTagTemplate)
		templates.GET("", s.ListTagTemplates)
		templates.GET("/:uuid", s.GetTagTemplate)
	}
}
