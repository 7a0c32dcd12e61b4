// Package metrics 用户指标领域 - 请求编排
//
// Orchestrator 决定一次指标请求如何拿到提交数据：
//   - 缓存新鲜：直接返回
//   - 缓存陈旧：返回陈旧数据，后台排一次刷新
//   - 未命中（或调用方要求新鲜）：排队抓取，返回可轮询的任务票据
//   - 共享存储不可达：绕过缓存同步直抓（降级）
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"betterforces/internal/cache"
	"betterforces/internal/codeforces"
	"betterforces/internal/shared/kv"
	"betterforces/internal/shared/model"
	"betterforces/internal/taskqueue"
)

// Disposition 请求编排结论
type Disposition string

const (
	// DispositionFresh 缓存命中且新鲜，直接服务
	DispositionFresh Disposition = "fresh"
	// DispositionStale 缓存命中但陈旧，服务旧数据并已排后台刷新
	DispositionStale Disposition = "stale"
	// DispositionAccepted 无可用数据，已排队抓取，返回任务票据
	DispositionAccepted Disposition = "accepted"
	// DispositionDirect 存储不可达，已同步直抓上游（降级）
	DispositionDirect Disposition = "direct"
)

// Resolution 一次指标请求的数据解析结果
type Resolution struct {
	Disposition Disposition
	// Submissions 在 fresh/stale/direct 时有效
	Submissions []model.Submission
	// Age 缓存条目年龄，仅 fresh/stale 有意义
	Age time.Duration
	// TaskID 仅 accepted 时非空
	TaskID string
}

// Recorder 编排过程的指标回调（由 server 包的 Prometheus 指标实现）
type Recorder interface {
	RecordCacheRead(result string)
	RecordEnqueue(outcome string)
	RecordFetch(outcome string, duration time.Duration)
}

// nopRecorder 缺省空实现
type nopRecorder struct{}

func (nopRecorder) RecordCacheRead(string) {}

func (nopRecorder) RecordEnqueue(string) {}

func (nopRecorder) RecordFetch(string, time.Duration) {}

// Orchestrator 指标请求编排器
type Orchestrator struct {
	cache       *cache.SubmissionCache
	coordinator *taskqueue.Coordinator
	fetcher     codeforces.Fetcher
	recorder    Recorder
}

// NewOrchestrator 创建编排器，recorder 可为 nil
func NewOrchestrator(c *cache.SubmissionCache, coord *taskqueue.Coordinator, fetcher codeforces.Fetcher, recorder Recorder) *Orchestrator {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Orchestrator{
		cache:       c,
		coordinator: coord,
		fetcher:     fetcher,
		recorder:    recorder,
	}
}

// FreshFor 返回缓存的新鲜度阈值（Cache-Control 计算用）
func (o *Orchestrator) FreshFor() time.Duration {
	return o.cache.FreshFor()
}

// Resolve 为 handle 解析一次提交数据
//
// preferFresh 为 true 时陈旧数据不再直接服务，而是与未命中同样处理。
// 新鲜数据总是直接服务，preferFresh 不影响。
//
// 错误仅在降级直抓失败时返回：codeforces.ErrUserNotFound 或 *codeforces.APIError。
func (o *Orchestrator) Resolve(ctx context.Context, handle string, preferFresh bool) (*Resolution, error) {
	entry, err := o.cache.Read(ctx, handle)
	if err != nil {
		if errors.Is(err, kv.ErrUnavailable) {
			return o.direct(ctx, handle)
		}
		return nil, fmt.Errorf("resolve submissions: %w", err)
	}

	if entry.Fresh() {
		o.recorder.RecordCacheRead("fresh")
		return &Resolution{
			Disposition: DispositionFresh,
			Submissions: entry.Submissions,
			Age:         entry.Age,
		}, nil
	}

	if entry.Hit() && !preferFresh {
		o.recorder.RecordCacheRead("stale")
		// 后台刷新不阻塞本次响应：入队在独立 goroutine 里完成，
		// 请求取消也不中断入队，排队失败只是放弃这次刷新
		go func(ctx context.Context) {
			if _, claimed, err := o.coordinator.Enqueue(ctx, handle); err == nil {
				o.recordEnqueue(claimed)
			}
		}(context.WithoutCancel(ctx))
		return &Resolution{
			Disposition: DispositionStale,
			Submissions: entry.Submissions,
			Age:         entry.Age,
		}, nil
	}

	o.recorder.RecordCacheRead("miss")

	taskID, claimed, err := o.coordinator.Enqueue(ctx, handle)
	if err != nil {
		if errors.Is(err, kv.ErrUnavailable) {
			return o.direct(ctx, handle)
		}
		return nil, fmt.Errorf("enqueue fetch: %w", err)
	}
	o.recordEnqueue(claimed)

	return &Resolution{
		Disposition: DispositionAccepted,
		TaskID:      taskID,
	}, nil
}

// direct 降级路径：绕过缓存和队列同步直抓上游
func (o *Orchestrator) direct(ctx context.Context, handle string) (*Resolution, error) {
	start := time.Now()
	subs, err := o.fetcher.UserSubmissions(ctx, handle)
	if err != nil {
		o.recorder.RecordFetch("error", time.Since(start))
		return nil, err
	}
	o.recorder.RecordFetch("ok", time.Since(start))

	return &Resolution{
		Disposition: DispositionDirect,
		Submissions: subs,
	}, nil
}

func (o *Orchestrator) recordEnqueue(claimed bool) {
	if claimed {
		o.recorder.RecordEnqueue("claimed")
	} else {
		o.recorder.RecordEnqueue("joined")
	}
}
