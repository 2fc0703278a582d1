package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured 表示该 provider 缺少必需凭证。
// 读路径把它当作预期内的降级条件（记日志 + 返回哨兵），不是故障。
var ErrNotConfigured = errors.New("凭证未配置")

// HTTPStatusError 表示 provider 返回了非 2xx 的 HTTP 状态码。
//
// 注意：URL 只保留 scheme/host/path，query 中可能带 access_token，不能进日志。
type HTTPStatusError struct {
	Provider   string
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	p := strings.TrimSpace(e.Provider)
	if p == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d", p, e.StatusCode)
}

// StatusCode 从 error 中提取 HTTP 状态码；若不是 *HTTPStatusError 则返回 0。
func StatusCode(err error) int {
	var e *HTTPStatusError
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// MissingFieldError 表示调用方没有提供必填字段（例如搜索关键字、page id）。
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	if e == nil || strings.TrimSpace(e.Field) == "" {
		return "缺少必填字段"
	}
	return "缺少必填字段：" + e.Field
}

func IsMissingField(err error) bool {
	var e *MissingFieldError
	return errors.As(err, &e)
}
