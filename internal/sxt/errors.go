package sxt

import "fmt"

// BlockedError 上游返回了 HTML 拦截页（WAF 等），而非 JSON 应答。
// 状态码不可信：拦截页可能带着 2xx 返回。
type BlockedError struct {
	Status int
}

func (e *BlockedError) Error() string {
	return "请求被安全拦截，请稍后重试"
}

// UpstreamError 上游返回了结构化的错误应答，消息原样透传
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("上游接口返回错误（状态码 %d）", e.Status)
}
