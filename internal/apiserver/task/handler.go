// Package task 抓取任务领域 - HTTP 轮询接口
package task

import (
	"encoding/json"
	"log"
	"net/http"

	"betterforces/internal/cache"
	"betterforces/internal/taskqueue"
)

// CompletedByRefresh 标记任务由另一次并发抓取间接满足
const CompletedByRefresh = "concurrent-refresh"

// Handler 任务轮询 HTTP 处理器
type Handler struct {
	coordinator *taskqueue.Coordinator
	cache       *cache.SubmissionCache
}

// NewHandler 创建任务处理器
func NewHandler(coord *taskqueue.Coordinator, c *cache.SubmissionCache) *Handler {
	return &Handler{coordinator: coord, cache: c}
}

// RegisterRoutes 注册任务相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/tasks/{id}", h.Get)
}

// Response 任务状态响应体
type Response struct {
	TaskID     string            `json:"task_id"`
	Status     string            `json:"status"`
	Result     *taskqueue.Result `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
	RetryAfter int               `json:"retry_after,omitempty"`
}

// Get 查询抓取任务状态
// GET /api/v1/tasks/{id}
//
// 状态映射：
//   - 记录不存在（或已过期）→ 404
//   - completed → 200 + 结果摘要
//   - failed    → 500 + 错误信息
//   - processing 且缓存已被并发抓取刷新到新鲜 → 就地晋升为 completed，200
//   - processing → 202 + Retry-After
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	report, err := h.coordinator.StatusReport(r.Context(), id)
	if err != nil {
		log.Printf("[Task] StatusReport error for %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to read task status")
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "task not found or expired")
		return
	}

	switch report.Status {
	case taskqueue.StatusCompleted:
		writeJSON(w, http.StatusOK, Response{
			TaskID: id,
			Status: string(report.Status),
			Result: report.Result,
		})

	case taskqueue.StatusFailed:
		writeJSON(w, http.StatusInternalServerError, Response{
			TaskID: id,
			Status: string(report.Status),
			Error:  report.Error,
		})

	default:
		if resp, ok := h.promoteIfRefreshed(r, id); ok {
			writeJSON(w, http.StatusOK, resp)
			return
		}
		w.Header().Set("Retry-After", "2")
		writeJSON(w, http.StatusAccepted, Response{
			TaskID:     id,
			Status:     string(taskqueue.StatusProcessing),
			RetryAfter: 2,
		})
	}
}

// promoteIfRefreshed 检查 processing 任务的数据是否已被并发抓取满足
//
// 同一 handle 的另一次抓取完成后会把缓存刷新到新鲜，但只会终结
// 自己的任务记录。这里检测到缓存新鲜就把本任务就地晋升为 completed，
// 轮询方不必等到记录过期。
func (h *Handler) promoteIfRefreshed(r *http.Request, taskID string) (Response, bool) {
	ctx := r.Context()

	info, err := h.coordinator.TaskInfo(ctx, taskID)
	if err != nil || info == nil || info.Handle == "" {
		return Response{}, false
	}

	entry, err := h.cache.Read(ctx, info.Handle)
	if err != nil || !entry.Fresh() {
		return Response{}, false
	}

	result := taskqueue.Result{
		Handle:          info.Handle,
		SubmissionCount: len(entry.Submissions),
		CompletedBy:     CompletedByRefresh,
	}
	if err := h.coordinator.Complete(ctx, taskID, result); err != nil {
		log.Printf("[Task] Promote error for %s: %v", taskID, err)
		return Response{}, false
	}

	return Response{
		TaskID: taskID,
		Status: string(taskqueue.StatusCompleted),
		Result: &result,
	}, true
}

// writeJSON 写入 JSON 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError 写入错误响应
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
