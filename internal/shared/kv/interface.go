// Package kv 共享键值存储抽象接口
//
// 提供缓存条目、任务记录和抢占锁所需的最小能力集，当前由 Redis 实现。
// 去重协议只依赖一个原子原语：SetIfAbsent（SETNX 语义）。
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable 底层存储不可达
//
// 调用方据此区分"键不存在"和"存储故障"：前者走任务入队路径，
// 后者走同步降级路径。实现必须用 errors.Is 可识别的方式包装。
var ErrUnavailable = errors.New("kv: store unavailable")

// Store 键值存储接口
type Store interface {
	// Get 读取键值，第二个返回值表示键是否存在
	Get(ctx context.Context, key string) (string, bool, error)

	// SetEx 写入键值并设置过期时间
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error

	// SetIfAbsent 仅当键不存在时原子写入（SETNX + 过期时间）
	//
	// 返回 true 表示本次调用赢得写入。
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// TTL 查询键的剩余生存时间
	//
	// 键不存在或未设置过期时间时返回 ok=false，调用方必须按缓存未命中处理。
	TTL(ctx context.Context, key string) (time.Duration, bool, error)

	// Delete 删除键（键不存在不视为错误）
	Delete(ctx context.Context, key string) error

	Close() error
}
