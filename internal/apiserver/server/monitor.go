// Package server 队列深度监控
package server

import (
	"context"
	"time"
)

// queueMonitorInterval 队列深度采样间隔
const queueMonitorInterval = 10 * time.Second

// StartQueueMonitor 周期性采样抓取队列深度并更新指标
//
// 在独立 goroutine 中运行，ctx 取消后退出。
// 队列不可达时跳过本轮采样，保留上一次的读数。
func (h *Handler) StartQueueMonitor(ctx context.Context) {
	ticker := time.NewTicker(queueMonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			depth, err := h.queue.Len(ctx)
			if err != nil {
				continue
			}
			h.metrics.SetQueueDepth(depth)
		}
	}
}
