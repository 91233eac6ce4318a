package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
)

// ErrorBody 错误响应
type ErrorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

// Success 200
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, orEmpty(data))
}

// Created 201
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, orEmpty(data))
}

// NoContent 204
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func orEmpty(data any) any {
	if data == nil {
		return struct{}{}
	}
	return data
}

// HandleError 按错误码写响应。debug 模式返回完整错误链，release 只返回公开信息；
// 原始错误挂到 gin.Context 上由访问日志输出
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code := apperrors.ExtractCode(err)
	body := ErrorBody{Code: code, Error: apperrors.FormatError(code, apperrors.GetDetails(err))}
	if gin.IsDebugging() {
		body.Error = err.Error()
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(apperrors.GetHTTPStatus(code), body)
}
