package util

import (
	"strconv"
)

// ParseIntDefault 解析失败时返回缺省值
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
