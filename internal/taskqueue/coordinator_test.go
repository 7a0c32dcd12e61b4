// Package taskqueue claim-or-join 去重协议测试
package taskqueue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterforces/internal/shared/kv"
	"betterforces/internal/shared/queue"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *kv.MemoryStore, *queue.MemoryQueue) {
	t.Helper()
	store := kv.NewMemoryStore()
	q := queue.NewMemoryQueue(64)
	return New(store, q, Config{}), store, q
}

func TestEnqueue_FirstCallClaims(t *testing.T) {
	ctx := context.Background()
	coord, _, q := newTestCoordinator(t)

	taskID, claimed, err := coord.Enqueue(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NotEmpty(t, taskID)

	// 恰好一条队列消息
	msg, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, taskID, msg.TaskID)
	assert.Equal(t, "alice", msg.Handle)
	assert.False(t, msg.EnqueuedAt.IsZero())

	// processing 记录已就位
	info, err := coord.TaskInfo(ctx, taskID)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, StatusProcessing, info.Status)
	assert.Equal(t, "alice", info.Handle)

	// 抢占锁指向该任务
	claim, ok, err := coord.CurrentClaim(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, taskID, claim)
}

func TestEnqueue_SecondCallJoins(t *testing.T) {
	ctx := context.Background()
	coord, _, q := newTestCoordinator(t)

	first, claimed, err := coord.Enqueue(ctx, "alice")
	require.NoError(t, err)
	require.True(t, claimed)

	second, claimed, err := coord.Enqueue(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, first, second, "后来者加入在途任务")

	// 仍然只有一条队列消息
	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestEnqueue_DifferentHandlesIndependent(t *testing.T) {
	ctx := context.Background()
	coord, _, q := newTestCoordinator(t)

	aliceTask, claimed, err := coord.Enqueue(ctx, "alice")
	require.NoError(t, err)
	require.True(t, claimed)

	bobTask, claimed, err := coord.Enqueue(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NotEqual(t, aliceTask, bobTask)

	n, _ := q.Len(ctx)
	assert.Equal(t, int64(2), n)
}

// TestEnqueue_ConcurrentCallsShareOneTask M 个并发调用拿到同一个
// task_id，队列里恰好一条消息。
func TestEnqueue_ConcurrentCallsShareOneTask(t *testing.T) {
	ctx := context.Background()
	coord, _, q := newTestCoordinator(t)

	const callers = 20
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, _, err := coord.Enqueue(ctx, "alice")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Equal(t, ids[0], ids[i])
	}

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// TestEnqueue_ClaimExpiredAllowsRetry 抢占锁过期后同一 handle 可以
// 重新入队，产生新的任务。
func TestEnqueue_ClaimExpiredAllowsRetry(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }
	q := queue.NewMemoryQueue(8)
	coord := New(store, q, Config{})

	first, claimed, err := coord.Enqueue(ctx, "alice")
	require.NoError(t, err)
	require.True(t, claimed)

	now = now.Add(DefaultClaimTTL + time.Second)

	second, claimed, err := coord.Enqueue(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NotEqual(t, first, second)
}

func TestEnqueue_StoreUnavailable(t *testing.T) {
	coord := New(kv.NewUnavailableStore(), queue.NewMemoryQueue(1), Config{})

	_, _, err := coord.Enqueue(context.Background(), "alice")
	assert.ErrorIs(t, err, kv.ErrUnavailable)
}

func TestTaskInfo_UnknownTask(t *testing.T) {
	coord, _, _ := newTestCoordinator(t)

	info, err := coord.TaskInfo(context.Background(), "task-nonexistent")
	require.NoError(t, err)
	assert.Nil(t, info)
}

// TestTaskInfo_ExpiredRecord 任务记录过期后与从未存在不可区分。
func TestTaskInfo_ExpiredRecord(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }
	coord := New(store, queue.NewMemoryQueue(8), Config{})

	taskID, _, err := coord.Enqueue(ctx, "alice")
	require.NoError(t, err)

	now = now.Add(DefaultTaskTTL + time.Second)

	info, err := coord.TaskInfo(ctx, taskID)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestClearClaim(t *testing.T) {
	ctx := context.Background()
	coord, _, _ := newTestCoordinator(t)

	_, _, err := coord.Enqueue(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, coord.ClearClaim(ctx, "alice"))

	_, ok, err := coord.CurrentClaim(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenerateTaskID(t *testing.T) {
	a := generateTaskID()
	b := generateTaskID()
	assert.Regexp(t, `^task-[0-9a-f]{12}$`, a)
	assert.NotEqual(t, a, b)
}
