// Package errors 提供统一的错误定义
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1002"
	CodeTooManyRequests    ErrorCode = "1003"
	CodeInternalError      ErrorCode = "1004"
	CodeServiceUnavailable ErrorCode = "1005"

	// 配置错误 (2xxx)：构建流水线时立即失败，不重试
	CodeConfigInvalid     ErrorCode = "2001"
	CodeProviderUnknown   ErrorCode = "2002"
	CodeAPIKeyMissing     ErrorCode = "2003"

	// 业务错误 (4xxx)
	CodeRetrievalFailed ErrorCode = "4001"
	CodeRerankFailed    ErrorCode = "4002"
	CodeDecomposeFailed ErrorCode = "4003"
	CodeSynthesisFailed ErrorCode = "4004"
	CodeLLMCallFailed   ErrorCode = "4005"

	// 外部服务错误 (5xxx)
	CodeSearchEngineError ErrorCode = "5001"
	CodeCacheError        ErrorCode = "5002"
	CodeLLMProviderError  ErrorCode = "5003"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 返回携带详细信息的副本。
// 接收者不被修改：预定义错误是包级共享的，就地写入会在并发请求间串详情。
func (e *AppError) WithDetail(detail string) *AppError {
	cloned := *e
	cloned.Detail = detail
	return &cloned
}

// WithError 返回携带底层错误的副本，接收者不被修改
func (e *AppError) WithError(err error) *AppError {
	cloned := *e
	cloned.Err = err
	return &cloned
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable, CodeSearchEngineError, CodeLLMProviderError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrProviderUnknown = New(CodeProviderUnknown, "unknown llm provider")
	ErrAPIKeyMissing   = New(CodeAPIKeyMissing, "llm api key not configured")

	ErrRetrievalFailed = New(CodeRetrievalFailed, "web retrieval failed")
	ErrSynthesisFailed = New(CodeSynthesisFailed, "answer synthesis failed")
	ErrLLMCallFailed   = New(CodeLLMCallFailed, "LLM call failed")
)

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
