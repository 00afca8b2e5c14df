package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Jh18L/sxt/internal/model"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/internal/sxt"
	"github.com/Jh18L/sxt/pkg/logger"
	"github.com/Jh18L/sxt/pkg/monitoring"
	"go.uber.org/zap"
)

// ApiLogService 异步落库上游调用日志
// 队列满时直接丢弃记录，不阻塞请求链路
type ApiLogService struct {
	Repo  *repository.ApiLogRepository
	queue chan sxt.CallRecord
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

func NewApiLogService(repo *repository.ApiLogRepository, queueSize int) *ApiLogService {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &ApiLogService{
		Repo:  repo,
		queue: make(chan sxt.CallRecord, queueSize),
		quit:  make(chan struct{}),
	}
}

// Start 启动后台写入协程
func (s *ApiLogService) Start() {
	s.wg.Add(1)
	go s.drain()
}

// Stop 停止接收并把队列里剩余的记录写完
func (s *ApiLogService) Stop() {
	s.once.Do(func() {
		close(s.quit)
	})
	s.wg.Wait()
}

// Record 实现 sxt.Recorder，非阻塞
func (s *ApiLogService) Record(rec sxt.CallRecord) {
	select {
	case s.queue <- rec:
	default:
		monitoring.ApiLogDropped.Inc()
		logger.Log.Warn("接口日志队列已满，丢弃记录",
			zap.String("request_id", rec.ID),
			zap.String("url", rec.URL))
	}
}

func (s *ApiLogService) drain() {
	defer s.wg.Done()
	for {
		select {
		case rec := <-s.queue:
			s.write(rec)
		case <-s.quit:
			for {
				select {
				case rec := <-s.queue:
					s.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (s *ApiLogService) write(rec sxt.CallRecord) {
	headers, _ := json.Marshal(rec.RequestHeaders)
	entry := &model.ApiLog{
		RequestID:      rec.ID,
		Method:         rec.Method,
		URL:            rec.URL,
		BaseURL:        rec.BaseURL,
		RequestHeaders: headers,
		RequestData:    toJSONColumn(rec.RequestBody),
		ResponseStatus: rec.ResponseStatus,
		ResponseData:   toJSONColumn(rec.ResponseBody),
		Error:          rec.Error,
		Duration:       rec.Duration.Milliseconds(),
		Timestamp:      rec.Timestamp,
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if err := s.Repo.Create(entry); err != nil {
		logger.Log.Error("接口日志写入失败", zap.Error(err))
	}
}

// toJSONColumn 保证落库内容是合法 JSON，HTML 等原文按字符串存
func toJSONColumn(b []byte) model.JSON {
	if len(b) == 0 {
		return nil
	}
	if json.Valid(b) {
		return model.JSON(b)
	}
	quoted, _ := json.Marshal(string(b))
	return model.JSON(quoted)
}
