// Package queue 抓取队列类型定义
package queue

import "time"

// FetchMessage 抓取任务消息
//
// 由 TaskCoordinator 入队、Worker 消费，每条消息只被一个 Worker 处理。
type FetchMessage struct {
	TaskID     string    `json:"task_id"`
	Handle     string    `json:"handle"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// KeyFetchQueue 抓取队列的 list 键名
const KeyFetchQueue = "fetch_queue"
