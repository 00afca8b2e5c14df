package model

import "time"

// ApiLog 上游调用流水，只追加；由管理后台按天数清理
type ApiLog struct {
	BaseModel
	RequestID      string `gorm:"size:36" json:"requestId"`
	Method         string `gorm:"size:16;not null" json:"method"`
	URL            string `gorm:"size:512;not null;index:idx_url_ts,priority:1" json:"url"`
	BaseURL        string `gorm:"size:128" json:"baseURL"`
	RequestHeaders JSON   `json:"requestHeaders,omitempty"`
	RequestData    JSON   `json:"requestData,omitempty"`
	ResponseStatus int    `json:"responseStatus"`
	ResponseData   JSON   `json:"responseData,omitempty"`
	Error          string `gorm:"size:512" json:"error,omitempty"`
	// 请求耗时（毫秒）
	Duration  int64     `json:"duration"`
	Timestamp time.Time `gorm:"index:idx_ts,sort:desc;index:idx_url_ts,priority:2" json:"timestamp"`
}

func (ApiLog) TableName() string {
	return "api_logs"
}
