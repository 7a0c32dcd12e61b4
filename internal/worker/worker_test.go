// Package worker 消费循环测试
package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterforces/internal/cache"
	"betterforces/internal/codeforces"
	"betterforces/internal/shared/kv"
	"betterforces/internal/shared/model"
	"betterforces/internal/shared/queue"
	"betterforces/internal/taskqueue"
	"betterforces/pkg/logging"
)

// stubFetcher 可编程的上游桩
type stubFetcher struct {
	subs  []model.Submission
	err   error
	calls int
}

func (f *stubFetcher) UserSubmissions(ctx context.Context, handle string) ([]model.Submission, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.subs, nil
}

type testRig struct {
	store   *kv.MemoryStore
	queue   *queue.MemoryQueue
	cache   *cache.SubmissionCache
	coord   *taskqueue.Coordinator
	fetcher *stubFetcher
	worker  *Worker
}

func newTestRig(t *testing.T, fetcher *stubFetcher) *testRig {
	t.Helper()
	store := kv.NewMemoryStore()
	q := queue.NewMemoryQueue(16)
	c := cache.New(store, cache.Config{})
	coord := taskqueue.New(store, q, taskqueue.Config{})
	w := New(q, c, coord, fetcher, NewRateLimiter(100, time.Second),
		logging.Default("worker-test"), Config{DequeueTimeout: 10 * time.Millisecond})
	return &testRig{store: store, queue: q, cache: c, coord: coord, fetcher: fetcher, worker: w}
}

func TestProcessTask_Success(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{subs: []model.Submission{
		{ID: 1, Problem: model.Problem{ContestID: 1, Index: "A"}, Verdict: model.VerdictOK},
		{ID: 2, Problem: model.Problem{ContestID: 1, Index: "B"}, Verdict: model.VerdictWrongAnswer},
	}}
	rig := newTestRig(t, fetcher)

	taskID, _, err := rig.coord.Enqueue(ctx, "alice")
	require.NoError(t, err)
	msg, err := rig.queue.Pop(ctx, time.Second)
	require.NoError(t, err)

	rig.worker.processTask(ctx, msg)

	// 缓存已写入
	entry, err := rig.cache.Read(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, entry.Fresh())
	assert.Len(t, entry.Submissions, 2)

	// 任务终态为 completed
	report, err := rig.coord.StatusReport(ctx, taskID)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, taskqueue.StatusCompleted, report.Status)
	require.NotNil(t, report.Result)
	assert.Equal(t, 2, report.Result.SubmissionCount)

	// 抢占锁已清除，后续请求可以重新入队
	_, ok, err := rig.coord.CurrentClaim(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestProcessTask_ResolvesJoinedTask 抓取期间锁被另一个 task_id 接管时
// （锁过期后新请求抢占），两个任务都要拿到终态。
func TestProcessTask_ResolvesJoinedTask(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{subs: []model.Submission{
		{ID: 1, Problem: model.Problem{ContestID: 1, Index: "A"}, Verdict: model.VerdictOK},
	}}
	rig := newTestRig(t, fetcher)

	taskID, _, err := rig.coord.Enqueue(ctx, "bob")
	require.NoError(t, err)
	msg, err := rig.queue.Pop(ctx, time.Second)
	require.NoError(t, err)

	// 模拟锁易主：另一个任务 id 现在持有 bob 的锁
	joinedID := "task-fedcba987654"
	require.NoError(t, rig.store.SetEx(ctx, taskqueue.KeyClaim+"bob", joinedID, time.Minute))
	require.NoError(t, rig.store.SetEx(ctx, "task:"+joinedID+":status", string(taskqueue.StatusProcessing), time.Minute))

	rig.worker.processTask(ctx, msg)

	// 自己的任务完成
	own, err := rig.coord.StatusReport(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, taskqueue.StatusCompleted, own.Status)

	// 搭锁的任务也被补完，并标记来源
	joined, err := rig.coord.StatusReport(ctx, joinedID)
	require.NoError(t, err)
	require.NotNil(t, joined)
	assert.Equal(t, taskqueue.StatusCompleted, joined.Status)
	require.NotNil(t, joined.Result)
	assert.Equal(t, taskID, joined.Result.CompletedBy)

	// 锁最终被清除
	_, ok, _ := rig.coord.CurrentClaim(ctx, "bob")
	assert.False(t, ok)
}

func TestProcessTask_UserNotFound(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{err: codeforces.ErrUserNotFound}
	rig := newTestRig(t, fetcher)

	taskID, _, err := rig.coord.Enqueue(ctx, "ghost")
	require.NoError(t, err)
	msg, err := rig.queue.Pop(ctx, time.Second)
	require.NoError(t, err)

	rig.worker.processTask(ctx, msg)

	report, err := rig.coord.StatusReport(ctx, taskID)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, taskqueue.StatusFailed, report.Status)
	assert.Contains(t, report.Error, `"ghost"`)
	assert.Contains(t, report.Error, "not found")

	// 缓存没有写入
	entry, err := rig.cache.Read(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, entry.Hit())

	// 失败同样清锁
	_, ok, _ := rig.coord.CurrentClaim(ctx, "ghost")
	assert.False(t, ok)
}

func TestProcessTask_TransientFailure(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{err: &codeforces.APIError{Message: "upstream 503", StatusCode: 503}}
	rig := newTestRig(t, fetcher)

	taskID, _, err := rig.coord.Enqueue(ctx, "alice")
	require.NoError(t, err)
	msg, err := rig.queue.Pop(ctx, time.Second)
	require.NoError(t, err)

	rig.worker.processTask(ctx, msg)

	report, err := rig.coord.StatusReport(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, taskqueue.StatusFailed, report.Status)
	assert.Contains(t, report.Error, "upstream 503")

	// 锁已清除，调用方可以立即重试
	_, ok, _ := rig.coord.CurrentClaim(ctx, "alice")
	assert.False(t, ok)
}

func TestProcessTask_InvalidMessage(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{}
	rig := newTestRig(t, fetcher)

	rig.worker.processTask(ctx, &queue.FetchMessage{TaskID: "", Handle: "alice"})
	rig.worker.processTask(ctx, &queue.FetchMessage{TaskID: "task-1", Handle: ""})

	assert.Zero(t, fetcher.calls, "非法消息不触发抓取")
}

// TestRun_StopDrainsGracefully Run 循环响应 Stop 信号退出，
// 在途消息处理完毕不丢弃。
func TestRun_StopDrainsGracefully(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{subs: []model.Submission{
		{ID: 1, Problem: model.Problem{ContestID: 1, Index: "A"}, Verdict: model.VerdictOK},
	}}
	rig := newTestRig(t, fetcher)

	taskID, _, err := rig.coord.Enqueue(ctx, "alice")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		rig.worker.Run(ctx)
		close(done)
	}()

	// 等消息被消费
	require.Eventually(t, func() bool {
		report, err := rig.coord.StatusReport(ctx, taskID)
		return err == nil && report != nil && report.Status == taskqueue.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	rig.worker.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop in time")
	}
}
