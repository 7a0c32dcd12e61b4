// Package server 路由配置
//
// 本文件定义 HTTP API 路由，将请求分发到各领域独立包。
package server

import (
	"net/http"

	"betterforces/internal/apiserver/metrics"
	"betterforces/internal/apiserver/task"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health  - 服务健康检查
//   - GET /metrics - Prometheus 指标
//
// 用户指标 (Metrics):
//   - GET /api/v1/tag-ratings/{handle}              - 标签评级分析
//   - GET /api/v1/tag-ratings/{handle}/weak         - 弱项标签
//   - GET /api/v1/difficulty-distribution/{handle}  - 难度分布
//   - GET /api/v1/daily-activity/{handle}           - 活跃度分析
//   - GET /api/v1/abandoned-problems/{handle}       - 未解出题目
//   - GET /api/v1/difficulty-progression/{handle}   - 难度成长曲线
//   - GET /api/v1/rating-distribution/{handle}      - 评级分布
//
// 任务轮询 (Task):
//   - GET /api/v1/tasks/{id} - 抓取任务状态
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// 用户指标接口
	metricsHandler := metrics.NewHandler(h.cache, h.coordinator, h.fetcher, h.metrics)
	metricsHandler.RegisterRoutes(mux)

	// 任务轮询接口
	taskHandler := task.NewHandler(h.coordinator, h.cache)
	taskHandler.RegisterRoutes(mux)

	// 应用指标中间件
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用 CORS 中间件
	return corsMiddleware(h.origins)(apiHandler)
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
