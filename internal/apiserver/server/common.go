// Package server 提供 HTTP API 处理器
//
// 本包实现 Codeforces 用户指标服务的 RESTful API 入口，包括：
//   - 用户指标（Metrics）接口的路由挂载
//   - 任务轮询（Task）接口的路由挂载
//   - CORS 中间件
//   - Prometheus 指标
//
// 文件组织：
//   - common.go: 通用工具函数和 Handler 定义
//   - handler.go: 路由配置
//   - metrics.go: Prometheus 指标
//   - monitor.go: 队列深度监控
package server

import (
	"encoding/json"
	"net/http"

	"betterforces/internal/cache"
	"betterforces/internal/codeforces"
	"betterforces/internal/shared/queue"
	"betterforces/internal/taskqueue"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到对应的处理函数
//   - 持有缓存、任务协调器和上游客户端
//   - 维护 Prometheus 指标
type Handler struct {
	cache       *cache.SubmissionCache // 提交记录缓存
	coordinator *taskqueue.Coordinator // 抓取任务协调器
	queue       queue.FetchQueue       // 抓取队列（深度监控用）
	fetcher     codeforces.Fetcher     // 上游客户端（降级直抓用）

	origins []string // CORS 允许的来源

	metrics *Metrics // Prometheus 指标
}

// NewHandler 创建 Handler 实例
func NewHandler(c *cache.SubmissionCache, coord *taskqueue.Coordinator, q queue.FetchQueue, fetcher codeforces.Fetcher) *Handler {
	return &Handler{
		cache:       c,
		coordinator: coord,
		queue:       q,
		fetcher:     fetcher,
		origins:     []string{"*"},
		metrics:     NewMetrics("api"),
	}
}

// SetAllowedOrigins 设置 CORS 允许的来源
func (h *Handler) SetAllowedOrigins(origins []string) {
	if len(origins) > 0 {
		h.origins = origins
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
// 返回 {"status": "ok"} 表示服务正常运行。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
