// Package worker 抓取任务消费循环
//
// 从队列取消息、限速后调用上游、写缓存并落任务终态。
// 循环内部单线程，可多副本共享同一队列横向扩展：
// 所有跨副本状态都在共享存储里，互斥完全由抢占锁保证。
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"betterforces/internal/cache"
	"betterforces/internal/codeforces"
	"betterforces/internal/shared/queue"
	"betterforces/internal/taskqueue"
	"betterforces/pkg/logging"
)

// DefaultDequeueTimeout 阻塞出队超时：决定停止信号的响应延迟上限
const DefaultDequeueTimeout = 5 * time.Second

// Config Worker 配置
type Config struct {
	// DequeueTimeout 阻塞出队超时
	DequeueTimeout time.Duration
}

// Worker 抓取任务消费者
type Worker struct {
	queue       queue.FetchQueue
	cache       *cache.SubmissionCache
	coordinator *taskqueue.Coordinator
	fetcher     codeforces.Fetcher
	limiter     *RateLimiter
	log         *logging.Logger

	dequeueTimeout time.Duration
	running        atomic.Bool
}

// New 创建 Worker 实例
func New(q queue.FetchQueue, c *cache.SubmissionCache, coord *taskqueue.Coordinator,
	fetcher codeforces.Fetcher, limiter *RateLimiter, log *logging.Logger, cfg Config) *Worker {
	if cfg.DequeueTimeout <= 0 {
		cfg.DequeueTimeout = DefaultDequeueTimeout
	}
	w := &Worker{
		queue:          q,
		cache:          c,
		coordinator:    coord,
		fetcher:        fetcher,
		limiter:        limiter,
		log:            log,
		dequeueTimeout: cfg.DequeueTimeout,
	}
	w.running.Store(true)
	return w
}

// Stop 发出停止信号
//
// 循环在当前出队超时结束或在途任务完成后退出，处理中的消息不会丢弃。
func (w *Worker) Stop() {
	w.log.Info("stop signal received")
	w.running.Store(false)
}

// Run 主消费循环
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("worker started, waiting for tasks")

	for w.running.Load() {
		msg, err := w.queue.Pop(ctx, w.dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			w.log.WithError(err).Error("dequeue failed")
			// 存储故障时避免紧循环
			time.Sleep(time.Second)
			continue
		}
		if msg == nil {
			// 出队超时，回到循环顶部检查停止信号
			continue
		}
		w.processTask(ctx, msg)
	}

	w.log.Info("worker stopped")
}

// processTask 处理单条抓取消息
func (w *Worker) processTask(ctx context.Context, msg *queue.FetchMessage) {
	if msg.TaskID == "" || msg.Handle == "" {
		w.log.Error("invalid fetch message", "task_id", msg.TaskID, "handle", msg.Handle)
		return
	}

	log := w.log.WithTaskID(msg.TaskID).WithHandle(msg.Handle)
	log.Info("processing fetch task")

	if err := w.limiter.Acquire(ctx); err != nil {
		// 只有在关停取消时才会走到这里；锁留给过期自愈
		log.WithError(err).Warn("rate limiter interrupted")
		return
	}

	start := time.Now()
	subs, err := w.fetcher.UserSubmissions(ctx, msg.Handle)
	if err != nil {
		w.failTask(ctx, msg, err)
		return
	}
	log.WithDuration(time.Since(start)).Info("fetched submissions", "count", len(subs))

	if err := w.cache.Write(ctx, msg.Handle, subs); err != nil {
		w.failTask(ctx, msg, err)
		return
	}

	result := taskqueue.Result{Handle: msg.Handle, SubmissionCount: len(subs)}
	if err := w.coordinator.Complete(ctx, msg.TaskID, result); err != nil {
		log.WithError(err).Error("mark task completed failed")
	}

	// 二级去重：锁（60 秒）可能比一次快速抓取活得久，期间加入同一把锁的
	// 第二个调用方持有另一个 task_id，这里替它补完终态，否则它会卡在
	// processing 直到记录过期。
	w.resolveJoinedTask(ctx, msg, len(subs), log)

	if err := w.coordinator.ClearClaim(ctx, msg.Handle); err != nil {
		log.WithError(err).Error("clear claim failed")
	}

	log.Info("fetch task completed")
}

// resolveJoinedTask 补完搭上同一把锁的其他任务
func (w *Worker) resolveJoinedTask(ctx context.Context, msg *queue.FetchMessage, count int, log *logging.Logger) {
	current, ok, err := w.coordinator.CurrentClaim(ctx, msg.Handle)
	if err != nil {
		log.WithError(err).Error("read claim for secondary resolution failed")
		return
	}
	if !ok || current == msg.TaskID {
		return
	}

	joined := taskqueue.Result{
		Handle:          msg.Handle,
		SubmissionCount: count,
		CompletedBy:     msg.TaskID,
	}
	if err := w.coordinator.Complete(ctx, current, joined); err != nil {
		log.WithError(err).Error("resolve joined task failed", "joined_task_id", current)
		return
	}
	log.Info("resolved joined task", "joined_task_id", current)
}

// failTask 写失败终态并清锁
func (w *Worker) failTask(ctx context.Context, msg *queue.FetchMessage, cause error) {
	log := w.log.WithTaskID(msg.TaskID).WithHandle(msg.Handle)

	message := cause.Error()
	if errors.Is(cause, codeforces.ErrUserNotFound) {
		message = fmt.Sprintf("User %q not found on Codeforces", msg.Handle)
		log.Warn("user not found")
	} else {
		log.WithError(cause).Error("fetch task failed")
	}

	if err := w.coordinator.Fail(ctx, msg.TaskID, message); err != nil {
		log.WithError(err).Error("mark task failed failed")
	}
	if err := w.coordinator.ClearClaim(ctx, msg.Handle); err != nil {
		log.WithError(err).Error("clear claim failed")
	}
}
