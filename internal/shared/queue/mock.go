// Package queue 队列 mock 实现（用于测试）
package queue

import (
	"context"
	"time"
)

// ============================================================================
// MemoryQueue - 基于 channel 的内存队列
// ============================================================================

// MemoryQueue 内存队列实现
type MemoryQueue struct {
	ch chan *FetchMessage
}

// NewMemoryQueue 创建内存队列，capacity 为缓冲大小
func NewMemoryQueue(capacity int) *MemoryQueue {
	return &MemoryQueue{ch: make(chan *FetchMessage, capacity)}
}

// Push 将消息追加到队尾
func (q *MemoryQueue) Push(ctx context.Context, msg *FetchMessage) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop 阻塞式取出一条消息，超时返回 (nil, nil)
func (q *MemoryQueue) Pop(ctx context.Context, timeout time.Duration) (*FetchMessage, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len 返回当前队列长度
func (q *MemoryQueue) Len(ctx context.Context) (int64, error) {
	return int64(len(q.ch)), nil
}

// Close 关闭队列
func (q *MemoryQueue) Close() error {
	return nil
}

// ============================================================================
// NoOpQueue - 空操作实现
// ============================================================================

// NoOpQueue 不做任何操作的队列实现
type NoOpQueue struct{}

// NewNoOpQueue 创建 NoOpQueue 实例
func NewNoOpQueue() *NoOpQueue {
	return &NoOpQueue{}
}

func (q *NoOpQueue) Push(ctx context.Context, msg *FetchMessage) error {
	return nil
}
func (q *NoOpQueue) Pop(ctx context.Context, timeout time.Duration) (*FetchMessage, error) {
	return nil, nil
}
func (q *NoOpQueue) Len(ctx context.Context) (int64, error) {
	return 0, nil
}
func (q *NoOpQueue) Close() error {
	return nil
}

// 确保 mock 实现了 FetchQueue 接口
var (
	_ FetchQueue = (*MemoryQueue)(nil)
	_ FetchQueue = (*NoOpQueue)(nil)
)
