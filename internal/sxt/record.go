package sxt

import "time"

// CallRecord 一次上游调用的流水，成功与失败都会生成
type CallRecord struct {
	ID             string
	Method         string
	URL            string
	BaseURL        string
	RequestHeaders map[string]string
	RequestBody    []byte
	ResponseStatus int
	ResponseBody   []byte
	Error          string
	Duration       time.Duration
	Timestamp      time.Time
}

// Recorder 接收调用流水。实现必须是非阻塞的：
// 记录失败或队列满都不能影响主请求。
type Recorder interface {
	Record(rec CallRecord)
}
