// Package server Prometheus 指标导出
package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 包含所有 API Server 指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// 缓存指标
	CacheReadsTotal *prometheus.CounterVec

	// 任务去重指标
	EnqueueTotal *prometheus.CounterVec

	// 队列指标
	QueueDepth prometheus.Gauge

	// 上游抓取指标（降级直抓路径）
	FetchDuration *prometheus.HistogramVec
}

// NewMetrics 创建指标实例
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		CacheReadsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_reads_total",
				Help:      "Submission cache reads by result",
			},
			[]string{"result"},
		),
		EnqueueTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_enqueue_total",
				Help:      "Fetch enqueue attempts by dedup outcome",
			},
			[]string{"outcome"},
		),
		QueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fetch_queue_depth",
				Help:      "Pending messages in the fetch queue",
			},
		),
		FetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_fetch_duration_seconds",
				Help:      "Codeforces API fetch duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
	}
}

// RecordCacheRead 记录一次缓存读取结果（fresh/stale/miss）
func (m *Metrics) RecordCacheRead(result string) {
	m.CacheReadsTotal.WithLabelValues(result).Inc()
}

// RecordEnqueue 记录一次去重入队结果（claimed/joined）
func (m *Metrics) RecordEnqueue(outcome string) {
	m.EnqueueTotal.WithLabelValues(outcome).Inc()
}

// RecordFetch 记录一次上游抓取
func (m *Metrics) RecordFetch(outcome string, duration time.Duration) {
	m.FetchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// SetQueueDepth 设置队列深度
func (m *Metrics) SetQueueDepth(depth int64) {
	m.QueueDepth.Set(float64(depth))
}

// MetricsMiddleware 创建 HTTP 指标中间件
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		// 包装 ResponseWriter 以捕获状态码
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter 包装 http.ResponseWriter 以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath 规范化路径，将 handle / task id 替换为占位符
//
// 避免 Prometheus 标签出现高基数，
// 例如 /api/v1/tag-ratings/tourist -> /api/v1/tag-ratings/{handle}
func normalizePath(path string) string {
	prefixes := []struct {
		prefix      string
		placeholder string
	}{
		{"/api/v1/tag-ratings/", "{handle}"},
		{"/api/v1/difficulty-distribution/", "{handle}"},
		{"/api/v1/daily-activity/", "{handle}"},
		{"/api/v1/abandoned-problems/", "{handle}"},
		{"/api/v1/difficulty-progression/", "{handle}"},
		{"/api/v1/rating-distribution/", "{handle}"},
		{"/api/v1/tasks/", "{id}"},
	}
	for _, p := range prefixes {
		if strings.HasPrefix(path, p.prefix) && len(path) > len(p.prefix) {
			rest := path[len(p.prefix):]
			if i := strings.IndexByte(rest, '/'); i >= 0 {
				return p.prefix + p.placeholder + rest[i:]
			}
			return p.prefix + p.placeholder
		}
	}
	return path
}

// MetricsHandler 返回 Prometheus HTTP Handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
