package sxt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeHTML(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"json对象", `{"success":true,"data":{}}`, false},
		{"json数组", `[1,2,3]`, false},
		{"前导空白的json", "\n\t {\"success\":false}", false},
		{"doctype", `<!DOCTYPE html><html><body>blocked</body></html>`, true},
		{"小写doctype", `<!doctype html>`, true},
		{"html标签", `<html><head></head></html>`, true},
		{"大写HTML标签", `<HTML><BODY>405 Not Allowed</BODY></HTML>`, true},
		{"安全拦截文案", `您的请求存在风险，已被安全拦截`, true},
		{"防火墙文案", `网站防火墙提示`, true},
		{"空响应", ``, false},
		{"纯文本", `ok`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, looksLikeHTML([]byte(tc.body)))
		})
	}
}
