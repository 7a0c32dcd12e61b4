// Package infra 基础设施聚合层
//
// 提供统一的基础设施初始化和依赖注入，包括：
//   - KV：共享键值存储（Redis），承载缓存条目、任务记录和抢占锁
//   - Queue：抓取队列（Redis list）
package infra

import (
	"betterforces/internal/shared/kv"
	"betterforces/internal/shared/queue"
)

// Infrastructure 基础设施聚合结构
type Infrastructure struct {
	// KV 共享键值存储
	KV kv.Store

	// Queue 抓取队列
	Queue queue.FetchQueue

	// closeShared 非空表示 KV 和 Queue 共享同一底层连接，
	// 关闭时只调用它一次，避免对已关闭的连接重复 Close 报错
	closeShared func() error
}

// Close 关闭所有基础设施连接
func (i *Infrastructure) Close() error {
	if i.closeShared != nil {
		return i.closeShared()
	}

	var lastErr error

	if i.KV != nil {
		if err := i.KV.Close(); err != nil {
			lastErr = err
		}
	}

	if i.Queue != nil {
		if err := i.Queue.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// NewMemoryInfrastructure 创建内存实现的基础设施（用于测试）
func NewMemoryInfrastructure() *Infrastructure {
	return &Infrastructure{
		KV:    kv.NewMemoryStore(),
		Queue: queue.NewMemoryQueue(128),
	}
}
