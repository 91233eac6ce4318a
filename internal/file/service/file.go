package service

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/file-storage-backend/internal/file/biz"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// FileService 文件 HTTP 服务
type FileService struct {
	uc     *biz.FileUseCase
	logger *logger.Logger
}

// NewFileService 创建文件服务
func NewFileService(uc *biz.FileUseCase, logger *logger.Logger) *FileService {
	return &FileService{
		uc:     uc,
		logger: logger,
	}
}

// PrepareFile 校验文件名与标签并创建空文件记录
func (s *FileService) PrepareFile(c *gin.Context) {
	var req PrepareFileRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.HandleError(c, err)
		return
	}

	id, err := s.uc.Prepare(c.Request.Context(), toPrepareRequest(&req))
	if err != nil {
		s.logger.WithContext(c.Request.Context()).Warn("prepare file failed", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Created(c, &IDResponse{UUID: id.String()})
}

// UploadFile 上传或续传文件内容，请求体即文件字节
func (s *FileService) UploadFile(c *gin.Context) {
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

	f, err := s.uc.Upload(c.Request.Context(), id, offset, c.Request.Body)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, ToFileSummaryResponse(f))
}

// GetFile 获取文件详情及标签
func (s *FileService) GetFile(c *gin.Context) {
	id, err := response.UUIDParam(c, "uuid")
	if err != nil {
		response.HandleError(c, err)
		return
	}

	f, err := s.uc.Get(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, ToFileResponse(f))
}

// GetFileContent 下载文件内容，支持 Range
func (s *FileService) GetFileContent(c *gin.Context) {
	id, err := response.UUIDParam(c, "uuid")
	if err != nil {
		response.HandleError(c, err)
		return
	}

	f, content, err := s.uc.OpenContent(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	defer content.Close()

	c.Header("Content-Type", *f.Mime)
	if disposition := mime.FormatMediaType("inline", map[string]string{"filename": f.Name}); disposition != "" {
		c.Header("Content-Disposition", disposition)
	}
	http.ServeContent(c.Writer, c.Request, f.Name, *f.UploadedAt, content)
}

// SearchFiles 按关键字与标签条件分页搜索完整文件
func (s *FileService) SearchFiles(c *gin.Context) {
	page, err := response.PageQuery(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	var req SearchFilesRequest
	if err := response.BindOptionalJSON(c, &req); err != nil {
		response.HandleError(c, err)
		return
	}

	files, err := s.uc.Search(c.Request.Context(), toSearchRequest(&req, page))
	if err != nil {
		s.logger.WithContext(c.Request.Context()).Warn("search files failed", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	resp := &SearchFilesResponse{Page: page, Items: make([]*FileSummaryResponse, len(files))}
	for i, f := range files {
		resp.Items[i] = ToFileSummaryResponse(f)
	}
	response.Success(c, resp)
}

// RegisterRoutes 注册路由
func (s *FileService) RegisterRoutes(r *gin.RouterGroup) {
	files := r.Group("/files")
	{
		files.POST("", s.PrepareFile)
		files.GET("", s.SearchFiles)
		files.GET("/search", s.SearchFiles)
		files.POST("/search", s.SearchFiles)
		files.GET("/:uuid", s.GetFile)
		files.PUT("/:uuid", s.UploadFile)
		files.GET("/:uuid/content", s.GetFileContent)
	}
}
