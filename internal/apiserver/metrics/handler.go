// Package metrics 用户指标领域 - HTTP 处理
package metrics

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"betterforces/internal/analytics"
	"betterforces/internal/cache"
	"betterforces/internal/codeforces"
	"betterforces/internal/shared/model"
	"betterforces/internal/taskqueue"
)

// DefaultWeakTagThreshold 弱项标签的默认判定差值
const DefaultWeakTagThreshold = 200

// Handler 用户指标 HTTP 处理器
type Handler struct {
	orch *Orchestrator
}

// NewHandler 创建指标处理器，recorder 可为 nil
func NewHandler(c *cache.SubmissionCache, coord *taskqueue.Coordinator, fetcher codeforces.Fetcher, recorder Recorder) *Handler {
	return &Handler{orch: NewOrchestrator(c, coord, fetcher, recorder)}
}

// RegisterRoutes 注册指标相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/tag-ratings/{handle}", h.TagRatings)
	mux.HandleFunc("GET /api/v1/tag-ratings/{handle}/weak", h.WeakTags)
	mux.HandleFunc("GET /api/v1/difficulty-distribution/{handle}", h.DifficultyDistribution)
	mux.HandleFunc("GET /api/v1/daily-activity/{handle}", h.DailyActivity)
	mux.HandleFunc("GET /api/v1/abandoned-problems/{handle}", h.AbandonedProblems)
	mux.HandleFunc("GET /api/v1/difficulty-progression/{handle}", h.DifficultyProgression)
	mux.HandleFunc("GET /api/v1/rating-distribution/{handle}", h.RatingDistribution)
}

// AsyncTaskResponse 202 任务票据响应体
type AsyncTaskResponse struct {
	Status     string `json:"status"`
	TaskID     string `json:"task_id"`
	RetryAfter int    `json:"retry_after"`
}

// ============================================================================
// HTTP 处理函数
// ============================================================================

// TagRatings 标签评级分析
// GET /api/v1/tag-ratings/{handle}
func (h *Handler) TagRatings(w http.ResponseWriter, r *http.Request) {
	subs, ok := h.resolveSubmissions(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.AnalyzeTags(r.PathValue("handle"), subs))
}

// WeakTags 弱项标签
// GET /api/v1/tag-ratings/{handle}/weak?threshold=200
func (h *Handler) WeakTags(w http.ResponseWriter, r *http.Request) {
	threshold := DefaultWeakTagThreshold
	if s := r.URL.Query().Get("threshold"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "threshold must be a non-negative integer")
			return
		}
		threshold = n
	}

	subs, ok := h.resolveSubmissions(w, r)
	if !ok {
		return
	}

	handle := r.PathValue("handle")
	analysis := analytics.AnalyzeTags(handle, subs)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"handle":    handle,
		"threshold": threshold,
		"weak_tags": analysis.WeakTags(threshold),
	})
}

// DifficultyDistribution 难度分布
// GET /api/v1/difficulty-distribution/{handle}
func (h *Handler) DifficultyDistribution(w http.ResponseWriter, r *http.Request) {
	subs, ok := h.resolveSubmissions(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.AnalyzeDifficultyDistribution(r.PathValue("handle"), subs))
}

// DailyActivity 活跃度分析
// GET /api/v1/daily-activity/{handle}?period=week&prefer_fresh=true
func (h *Handler) DailyActivity(w http.ResponseWriter, r *http.Request) {
	period, err := model.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid period: %v", err))
		return
	}

	subs, ok := h.resolveSubmissions(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.AnalyzeActivity(r.PathValue("handle"), subs, period, time.Now()))
}

// AbandonedProblems 尝试过但从未解出的题目
// GET /api/v1/abandoned-problems/{handle}
func (h *Handler) AbandonedProblems(w http.ResponseWriter, r *http.Request) {
	subs, ok := h.resolveSubmissions(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.AnalyzeAbandonedProblems(r.PathValue("handle"), subs))
}

// DifficultyProgression 难度成长曲线
// GET /api/v1/difficulty-progression/{handle}
func (h *Handler) DifficultyProgression(w http.ResponseWriter, r *http.Request) {
	subs, ok := h.resolveSubmissions(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.AnalyzeDifficultyProgression(r.PathValue("handle"), subs, time.Now()))
}

// RatingDistribution 评级分布
// GET /api/v1/rating-distribution/{handle}
func (h *Handler) RatingDistribution(w http.ResponseWriter, r *http.Request) {
	subs, ok := h.resolveSubmissions(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.AnalyzeRatingDistribution(r.PathValue("handle"), subs))
}

// ============================================================================
// 公共解析流程
// ============================================================================

// resolveSubmissions 跑一遍编排器并完成所有非业务响应
//
// 返回 ok=false 表示响应已写出（202 票据、404、502、500），
// ok=true 时返回可直接分析的提交数据，缓存头已设置。
func (h *Handler) resolveSubmissions(w http.ResponseWriter, r *http.Request) ([]model.Submission, bool) {
	handle := r.PathValue("handle")
	if handle == "" {
		writeError(w, http.StatusBadRequest, "handle is required")
		return nil, false
	}

	preferFresh := parseBool(r.URL.Query().Get("prefer_fresh"))

	res, err := h.orch.Resolve(r.Context(), handle, preferFresh)
	if err != nil {
		switch {
		case errors.Is(err, codeforces.ErrUserNotFound):
			writeError(w, http.StatusNotFound, fmt.Sprintf("user %q not found on Codeforces", handle))
		case isAPIError(err):
			writeError(w, http.StatusBadGateway, "upstream fetch failed")
		default:
			log.Printf("[Metrics] Resolve error for %s: %v", handle, err)
			writeError(w, http.StatusInternalServerError, "failed to resolve submissions")
		}
		return nil, false
	}

	switch res.Disposition {
	case DispositionAccepted:
		writeJSON(w, http.StatusAccepted, AsyncTaskResponse{
			Status:     string(taskqueue.StatusProcessing),
			TaskID:     res.TaskID,
			RetryAfter: 2,
		})
		return nil, false

	case DispositionFresh:
		maxAge := int((h.orch.FreshFor() - res.Age).Seconds())
		if maxAge < 0 {
			maxAge = 0
		}
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))

	case DispositionStale:
		w.Header().Set("Cache-Control", "max-age=0")
		w.Header().Set("X-Data-Stale", "true")
		w.Header().Set("X-Data-Age", strconv.Itoa(int(res.Age.Seconds())))

	case DispositionDirect:
		w.Header().Set("Cache-Control", "no-store")
	}

	if len(res.Submissions) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no submissions found for %q", handle))
		return nil, false
	}

	return res.Submissions, true
}

func isAPIError(err error) bool {
	var apiErr *codeforces.APIError
	return errors.As(err, &apiErr)
}
