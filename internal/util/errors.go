package util

import "errors"

var (
	ErrUserNotFound            = errors.New("用户不存在")
	ErrIncompleteSession       = errors.New("用户未登录或信息不完整")
	ErrInvalidCredentials      = errors.New("用户名或密码错误")
	ErrInvalidSnapshot         = errors.New("备份文件格式错误")
	ErrInvalidAnnouncementType = errors.New("无效的类型参数")
)
