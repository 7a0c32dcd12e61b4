// Package queue 抓取队列抽象接口
//
// 提供先进先出的任务分发能力，当前由 Redis list（RPUSH/BLPOP）实现。
package queue

import (
	"context"
	"time"
)

// FetchQueue 抓取队列接口
type FetchQueue interface {
	// Push 将消息追加到队尾
	Push(ctx context.Context, msg *FetchMessage) error

	// Pop 阻塞式从队头取出一条消息
	//
	// 在 timeout 内无消息时返回 (nil, nil)，Worker 据此检查停止信号后重试。
	Pop(ctx context.Context, timeout time.Duration) (*FetchMessage, error)

	// Len 返回当前队列长度
	Len(ctx context.Context) (int64, error)

	Close() error
}
