package response

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/lk2023060901/file-storage-backend/internal/pkg/errors"
)

// UUIDParam 解析路径参数中的 UUID
func UUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Wrapf(err, apperrors.ErrInvalidUUID, "`%s` is not a valid uuid", raw)
	}
	return id, nil
}

// PageQuery 解析从 0 开始的 ?page= 参数，缺省为 0
func PageQuery(c *gin.Context) (int, error) {
	raw := c.Query("page")
	if raw == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 {
		return 0, apperrors.Newf(apperrors.ErrInvalidSearchPage, "page `%s` must be a non-negative integer", raw)
	}
	return page, nil
}

// BindJSON 绑定 JSON 请求体
func BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidBody, err.Error())
	}
	return nil
}

// BindOptionalJSON 同 BindJSON，但允许空请求体（GET 搜索请求通常不带 body）
func BindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.Wrap(err, apperrors.ErrInvalidBody, err.Error())
	}
	return nil
}

// OffsetParam 解析续传偏移量：优先 Content-Range: bytes N-M/T，其次 ?offset=N，缺省为 0。
// "bytes */T" 不携带起点，按缺省处理
func OffsetParam(c *gin.Context) (uint64, error) {
	if raw := c.GetHeader("Content-Range"); raw != "" {
		return parseContentRange(raw)
	}
	raw := c.Query("offset")
	if raw == "" {
		return 0, nil
	}
	offset, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperrors.Newf(apperrors.ErrInvalidRange, "offset `%s` must be a non-negative integer", raw)
	}
	return offset, nil
}

func parseContentRange(raw string) (uint64, error) {
	invalid := apperrors.Newf(apperrors.ErrInvalidRange, "content range `%s` is malformed", raw)

	unit, ok := strings.CutPrefix(strings.TrimSpace(raw), "bytes ")
	if !ok {
		return 0, invalid
	}
	rng, total, ok := strings.Cut(strings.TrimSpace(unit), "/")
	if !ok || total == "" {
		return 0, invalid
	}
	if total != "*" {
		if _, err := strconv.ParseUint(total, 10, 64); err != nil {
			return 0, invalid
		}
	}
	if rng == "*" {
		return 0, nil
	}

	first, last, ok := strings.Cut(rng, "-")
	if !ok {
		return 0, invalid
	}
	start, err := strconv.ParseUint(first, 10, 64)
	if err != nil {
		return 0, invalid
	}
	if last != "" && last != "*" {
		end, err := strconv.ParseUint(last, 10, 64)
		if err != nil || end < start {
			return 0, invalid
		}
	}
	return start, nil
}
