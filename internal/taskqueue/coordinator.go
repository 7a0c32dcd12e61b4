// Package taskqueue 抓取任务协调器
//
// 实现 claim-or-join 去重协议：同一 handle 任一时刻最多存在一个在途抓取。
// 抢占锁（claim）是唯一的互斥原语，靠 SETNX + 过期时间实现，
// Worker 崩溃时锁自行过期，后续请求可以重新入队。
package taskqueue

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"betterforces/internal/shared/kv"
	"betterforces/internal/shared/queue"
)

// ============================================================================
// Key 前缀和 TTL 常量
// ============================================================================

const (
	// KeyClaim 抢占锁键前缀，值为持有锁的 task_id
	KeyClaim = "pending_task:"

	// 任务记录键模板：task:{id}:status / result / error / handle
	keyTaskStatus = "task:%s:status"
	keyTaskResult = "task:%s:result"
	keyTaskError  = "task:%s:error"
	keyTaskHandle = "task:%s:handle"
)

const (
	// DefaultClaimTTL 抢占锁生命周期 C（60 秒）
	DefaultClaimTTL = 60 * time.Second
	// DefaultTaskTTL 任务记录生命周期 T（5 分钟）
	DefaultTaskTTL = 5 * time.Minute
)

// ============================================================================
// 任务状态
// ============================================================================

// Status 任务状态
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Info 任务基本信息（状态 + 关联 handle）
type Info struct {
	TaskID string
	Status Status
	Handle string
}

// Config 协调器配置
type Config struct {
	// ClaimTTL 抢占锁生命周期
	ClaimTTL time.Duration
	// TaskTTL 任务记录生命周期
	TaskTTL time.Duration
}

// Coordinator 抓取任务协调器
type Coordinator struct {
	store    kv.Store
	queue    queue.FetchQueue
	claimTTL time.Duration
	taskTTL  time.Duration

	// now 时钟函数，测试可注入
	now func() time.Time
}

// New 创建协调器实例，零值配置使用默认常量
func New(store kv.Store, q queue.FetchQueue, cfg Config) *Coordinator {
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = DefaultClaimTTL
	}
	if cfg.TaskTTL <= 0 {
		cfg.TaskTTL = DefaultTaskTTL
	}
	return &Coordinator{
		store:    store,
		queue:    q,
		claimTTL: cfg.ClaimTTL,
		taskTTL:  cfg.TaskTTL,
		now:      time.Now,
	}
}

// generateTaskID 生成任务标识符
func generateTaskID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return "task-" + hex.EncodeToString(b)
}

// Enqueue 为 handle 申请一次抓取，返回可轮询的 task_id
//
// 协议（无论多少并发调用，恰好产生一条队列消息和一条 processing 记录）：
//  1. 查现有抢占锁，存在则直接加入该在途任务
//  2. 生成候选 task_id
//  3. SETNX 抢占锁
//  4. 抢到：写 processing 记录、反向 handle 键，消息入队
//  5. 没抢到：重读锁并返回赢家的 task_id，候选 id 作废（不入队不记录）
//
// claimed 为 true 表示本次调用赢得抢占并真正入队。
func (c *Coordinator) Enqueue(ctx context.Context, handle string) (taskID string, claimed bool, err error) {
	claimKey := KeyClaim + handle

	// 快速路径：已有在途任务
	existing, ok, err := c.store.Get(ctx, claimKey)
	if err != nil {
		return "", false, fmt.Errorf("check claim: %w", err)
	}
	if ok {
		return existing, false, nil
	}

	candidate := generateTaskID()

	won, err := c.store.SetIfAbsent(ctx, claimKey, candidate, c.claimTTL)
	if err != nil {
		return "", false, fmt.Errorf("acquire claim: %w", err)
	}

	if !won {
		// 第 1 步和第 3 步之间有人抢先；重读锁拿到赢家的 id。
		// 锁恰好在重读前过期时退回候选 id（不入队），调用方重试即可。
		existing, ok, err := c.store.Get(ctx, claimKey)
		if err != nil {
			return "", false, fmt.Errorf("re-read claim: %w", err)
		}
		if ok {
			return existing, false, nil
		}
		return candidate, false, nil
	}

	// 本次调用赢得抢占：先落任务记录再入队，
	// 这样 Worker 取到消息时记录一定已存在。
	if err := c.store.SetEx(ctx, fmt.Sprintf(keyTaskStatus, candidate), string(StatusProcessing), c.taskTTL); err != nil {
		return "", false, fmt.Errorf("init task status: %w", err)
	}
	if err := c.store.SetEx(ctx, fmt.Sprintf(keyTaskHandle, candidate), handle, c.taskTTL); err != nil {
		return "", false, fmt.Errorf("init task handle: %w", err)
	}

	msg := &queue.FetchMessage{
		TaskID:     candidate,
		Handle:     handle,
		EnqueuedAt: c.now().UTC(),
	}
	if err := c.queue.Push(ctx, msg); err != nil {
		return "", false, fmt.Errorf("enqueue fetch message: %w", err)
	}

	return candidate, true, nil
}

// TaskInfo 读取任务状态及其关联 handle
//
// 任务记录已过期或从未存在时返回 (nil, nil)，调用方必须将其与
// "仍在处理"区分开。
func (c *Coordinator) TaskInfo(ctx context.Context, taskID string) (*Info, error) {
	status, ok, err := c.store.Get(ctx, fmt.Sprintf(keyTaskStatus, taskID))
	if err != nil {
		return nil, fmt.Errorf("read task status: %w", err)
	}
	if !ok {
		return nil, nil
	}

	handle, _, err := c.store.Get(ctx, fmt.Sprintf(keyTaskHandle, taskID))
	if err != nil {
		return nil, fmt.Errorf("read task handle: %w", err)
	}

	return &Info{
		TaskID: taskID,
		Status: Status(status),
		Handle: handle,
	}, nil
}

// CurrentClaim 读取 handle 当前的抢占锁持有者
func (c *Coordinator) CurrentClaim(ctx context.Context, handle string) (string, bool, error) {
	return c.store.Get(ctx, KeyClaim+handle)
}

// ClearClaim 无条件删除 handle 的抢占锁
//
// 任何终态（成功或失败）都必须清锁，避免残留的租约阻塞后续重试。
func (c *Coordinator) ClearClaim(ctx context.Context, handle string) error {
	return c.store.Delete(ctx, KeyClaim+handle)
}
