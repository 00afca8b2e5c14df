package model

// 公示类型
const (
	AnnouncementAbout     = "about"     // 关于我们
	AnnouncementCopyright = "copyright" // 版权信息
	AnnouncementAgreement = "agreement" // 用户协议
)

// DefaultCopyright copyright 类型缺省内容
const DefaultCopyright = "2025©狐三岁"

// Announcement 每种类型仅一条，只做覆盖式更新
type Announcement struct {
	BaseModel
	Type    string `gorm:"size:32;uniqueIndex;not null" json:"type"`
	Content string `gorm:"type:text" json:"content"`
}

func (Announcement) TableName() string {
	return "announcements"
}

func ValidAnnouncementType(t string) bool {
	switch t {
	case AnnouncementAbout, AnnouncementCopyright, AnnouncementAgreement:
		return true
	}
	return false
}
