package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 错误类别（写入 error.kind，供客户端分支处理）
const (
	KindValidation       = "validation"
	KindNotFound         = "not_found"
	KindAlreadyReported  = "already_reported"
	KindAlreadySubmitted = "already_submitted"
	KindNotReported      = "not_reported"
	KindMobileInUse      = "mobile_in_use"
	KindRateLimited      = "rate_limited"
	KindStoreFault       = "store_fault"
)

// Response 统一响应结构
// duty / exists / alreadySubmitted 为值班客户端约定的顶层字段
type Response struct {
	Code             int         `json:"code"`
	Message          string      `json:"message"`
	Data             interface{} `json:"data,omitempty"`
	Duty             interface{} `json:"duty,omitempty"`
	Exists           *bool       `json:"exists,omitempty"`
	AlreadySubmitted *bool       `json:"alreadySubmitted,omitempty"`
	Details          string      `json:"details,omitempty"`
	Error            *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody 失败时的错误载荷，不透出存储层内部信息
type ErrorBody struct {
	Kind string `json:"kind"`
}

// Bool 取地址辅助
func Bool(b bool) *bool { return &b }

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// OKDuty 200 成功，记录放在 duty 字段
func OKDuty(c *gin.Context, message string, duty interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: message,
		Duty:    duty,
	})
}

// JSON 自定义完整响应体
func JSON(c *gin.Context, httpStatus int, resp Response) {
	c.JSON(httpStatus, resp)
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, kind, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Error:   &ErrorBody{Kind: kind},
	})
}

// ErrorWithDetails 带详情的错误响应
func ErrorWithDetails(c *gin.Context, httpStatus int, code int, kind, message, details string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Details: details,
		Error:   &ErrorBody{Kind: kind},
	})
}

// ── 常见快捷方式 ──

// BadRequest 400 参数校验失败
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, KindValidation, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message, details string) {
	ErrorWithDetails(c, http.StatusNotFound, code, KindNotFound, message, details)
}

// InternalError 500，对外不透出存储错误
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Server error"
	}
	Error(c, http.StatusInternalServerError, 50000, KindStoreFault, message)
}
