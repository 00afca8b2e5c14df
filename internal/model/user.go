package model

import (
	"time"
)

// 账号类型，与上游登录接口的 accountType 字段一致
const (
	AccountTypePassword = 0 // 账号密码登录
	AccountTypeAuthCode = 8 // 手机验证码登录
)

type User struct {
	BaseModel
	Account     string `gorm:"size:64;uniqueIndex;not null" json:"account"`
	AccountType int    `gorm:"default:0" json:"accountType"`
	// 上游要求的 AES 加密密码；明文仅供管理后台查看
	Password      string `gorm:"size:255" json:"password,omitempty"`
	PlainPassword string `gorm:"size:255" json:"plainPassword,omitempty"`
	PhoneNumber   string `gorm:"size:32" json:"phoneNumber"`
	IDCard        string `gorm:"size:32" json:"idCard"`
	Name          string `gorm:"size:64" json:"name"`

	// 上游平台侧的学生标识与归属
	SxtUserID  string `gorm:"size:64;index" json:"userId"`
	SchoolID   string `gorm:"size:64;index" json:"schoolId"`
	SchoolName string `gorm:"size:128" json:"schoolName"`
	ClassID    string `gorm:"size:64;index" json:"classId"`
	ClassName  string `gorm:"size:128" json:"className"`

	// 上游会话
	Token                  string `gorm:"type:text" json:"token,omitempty"`
	RefreshToken           string `gorm:"type:text" json:"refreshToken,omitempty"`
	TokenExpiryDate        int64  `json:"tokenExpiryDate"`
	RefreshTokenExpiryDate int64  `json:"refreshTokenExpiryDate"`

	// 上游返回的完整用户信息，原样保存
	UserInfo JSON `json:"userInfo,omitempty"`

	// 软封禁：账号保留，登录与访问被拒绝
	IsBanned  bool   `gorm:"default:false;index" json:"isBanned"`
	BanReason string `gorm:"size:255" json:"banReason,omitempty"`

	LastLoginAt time.Time `json:"lastLoginAt"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}

func (User) TableName() string {
	return "users"
}

// HasSession 上游会话是否完整，门户接口需要三件套
func (u *User) HasSession() bool {
	return u.Token != "" && u.RefreshToken != "" && u.SxtUserID != ""
}
