package sxt

import (
	"bytes"
	"strings"
)

// 拦截页特征子串。安全网关的 HTML 可能带 200 或 405 状态码返回，
// 因此对成功和失败两条路径的响应体都要做探测。
var blockMarkers = []string{
	"<html",
	"<HTML",
	"安全拦截",
	"安全检测",
	"网站防火墙",
	"访问被拦截",
}

// looksLikeHTML 判断响应体是否为 HTML 错误页而非 JSON
func looksLikeHTML(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return false
	}

	// JSON 应答以 { 或 [ 开头，直接放行
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return false
	}

	lower := strings.ToLower(string(trimmed))
	if strings.HasPrefix(lower, "<!doctype") {
		return true
	}

	s := string(trimmed)
	for _, marker := range blockMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
