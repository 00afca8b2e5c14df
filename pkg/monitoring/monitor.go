package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 上游生学堂调用
	UpstreamCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sxt_upstream_requests_total",
			Help: "Total number of upstream Shengxuetang API calls",
		},
		[]string{"endpoint", "outcome"},
	)

	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sxt_upstream_request_duration_seconds",
			Help:    "Duration of upstream Shengxuetang API calls",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	// 缓存命中情况
	ReportCacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_report_cache_total",
			Help: "Exam report cache lookups by result",
		},
		[]string{"field", "result"},
	)

	// 调用日志队列溢出丢弃数
	ApiLogDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "api_log_dropped_total",
			Help: "Upstream call log records dropped due to a full queue",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(UpstreamCounter)
	prometheus.MustRegister(UpstreamDuration)
	prometheus.MustRegister(ReportCacheCounter)
	prometheus.MustRegister(ApiLogDropped)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
