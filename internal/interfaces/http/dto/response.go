// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"github.com/gin-gonic/gin"

	apperrors "ai-search-api/pkg/errors"
)

// Response 统一响应结构
type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	ErrorCode string `json:"error_code,omitempty"`
	Details   string `json:"details,omitempty"`
}

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Error   *ErrorDetail `json:"error,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

// Success 返回成功响应
func Success[T any](c *gin.Context, data T) {
	c.JSON(200, Response[T]{
		Code:    200,
		Message: "success",
		Data:    data,
		TraceID: c.GetString("trace_id"),
	})
}

// Error 返回错误响应
func Error(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, ErrorResponse{
		Code:    httpCode,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

// ErrorWithDetail 返回带详情的错误响应
func ErrorWithDetail(c *gin.Context, httpCode int, message string, detail *ErrorDetail) {
	c.JSON(httpCode, ErrorResponse{
		Code:    httpCode,
		Message: message,
		Error:   detail,
		TraceID: c.GetString("trace_id"),
	})
}

// FromError 把应用错误映射为错误响应；非 AppError 一律按 500 处理
func FromError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	if appErr == nil {
		Error(c, 500, "internal server error")
		return
	}
	ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, &ErrorDetail{
		ErrorCode: string(appErr.Code),
		Details:   appErr.Detail,
	})
}

// BadRequest 返回 400 错误
func BadRequest(c *gin.Context, message string) {
	Error(c, 400, message)
}

// NotFound 返回 404 错误
func NotFound(c *gin.Context, message string) {
	Error(c, 404, message)
}

// InternalError 返回 500 错误
func InternalError(c *gin.Context, message string) {
	Error(c, 500, message)
}

// ServiceUnavailable 返回 503 错误
func ServiceUnavailable(c *gin.Context, message string) {
	Error(c, 503, message)
}
