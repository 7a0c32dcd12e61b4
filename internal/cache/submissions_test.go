// Package cache 陈旧度推导测试
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterforces/internal/shared/kv"
	"betterforces/internal/shared/model"
)

// newTestCache 返回缓存实例和可拨动的时钟
func newTestCache(t *testing.T) (*SubmissionCache, *kv.MemoryStore, *time.Time) {
	t.Helper()
	store := kv.NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &now
	store.Now = func() time.Time { return *clock }
	c := New(store, Config{Window: 24 * time.Hour, FreshFor: 4 * time.Hour})
	return c, store, clock
}

func someSubmissions() []model.Submission {
	return []model.Submission{
		{
			ID:                  1,
			ContestID:           1520,
			CreationTimeSeconds: 1700000000,
			Problem:             model.Problem{ContestID: 1520, Index: "A", Name: "Do Not Be Distracted!", Rating: 800},
			Verdict:             model.VerdictOK,
		},
	}
}

func TestRead_Miss(t *testing.T) {
	c, _, _ := newTestCache(t)

	entry, err := c.Read(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, entry.Hit())
	assert.False(t, entry.Fresh())
	assert.Zero(t, entry.Age)
}

func TestReadAfterWrite_Fresh(t *testing.T) {
	ctx := context.Background()
	c, _, clock := newTestCache(t)

	require.NoError(t, c.Write(ctx, "alice", someSubmissions()))

	*clock = clock.Add(time.Hour)
	entry, err := c.Read(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, entry.Hit())
	assert.True(t, entry.Fresh())
	assert.False(t, entry.Stale)
	assert.Equal(t, time.Hour, entry.Age)
	assert.Len(t, entry.Submissions, 1)
}

// TestFreshnessBoundary age 恰好等于阈值时仍算新鲜，多一秒即陈旧。
func TestFreshnessBoundary(t *testing.T) {
	ctx := context.Background()

	t.Run("age等于阈值为新鲜", func(t *testing.T) {
		c, _, clock := newTestCache(t)
		require.NoError(t, c.Write(ctx, "alice", someSubmissions()))

		*clock = clock.Add(4 * time.Hour)
		entry, err := c.Read(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, entry.Fresh())
		assert.Equal(t, 4*time.Hour, entry.Age)
	})

	t.Run("超过阈值一秒为陈旧", func(t *testing.T) {
		c, _, clock := newTestCache(t)
		require.NoError(t, c.Write(ctx, "alice", someSubmissions()))

		*clock = clock.Add(4*time.Hour + time.Second)
		entry, err := c.Read(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, entry.Hit())
		assert.True(t, entry.Stale)
		assert.False(t, entry.Fresh())
		assert.Equal(t, 4*time.Hour+time.Second, entry.Age)
	})
}

func TestRead_ExpiredIsMiss(t *testing.T) {
	ctx := context.Background()
	c, _, clock := newTestCache(t)

	require.NoError(t, c.Write(ctx, "alice", someSubmissions()))

	*clock = clock.Add(25 * time.Hour)
	entry, err := c.Read(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, entry.Hit())
}

// TestRead_NoTTLIsMiss 有键但无过期时间是异常条目，按未命中处理
// 而不是报告 age=0 的新鲜数据。
func TestRead_NoTTLIsMiss(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestCache(t)

	store.SetNoExpiry(KeySubmissions+"alice", `[{"id":1}]`)

	entry, err := c.Read(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, entry.Hit())
}

func TestRead_CorruptIsMiss(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestCache(t)

	require.NoError(t, store.SetEx(ctx, KeySubmissions+"alice", "{not json", 24*time.Hour))

	entry, err := c.Read(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, entry.Hit())
}

// TestRead_EmptyListIsHit 空提交列表是合法的缓存值（用户存在但无提交），
// 和未命中必须区分开。
func TestRead_EmptyListIsHit(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCache(t)

	require.NoError(t, c.Write(ctx, "alice", []model.Submission{}))

	entry, err := c.Read(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, entry.Hit())
	assert.Empty(t, entry.Submissions)
}

func TestRead_StoreUnavailable(t *testing.T) {
	c := New(kv.NewUnavailableStore(), Config{})

	_, err := c.Read(context.Background(), "alice")
	assert.ErrorIs(t, err, kv.ErrUnavailable)
}

func TestWrite_StoreUnavailable(t *testing.T) {
	c := New(kv.NewUnavailableStore(), Config{})

	err := c.Write(context.Background(), "alice", someSubmissions())
	assert.ErrorIs(t, err, kv.ErrUnavailable)
}

func TestConfigDefaults(t *testing.T) {
	c := New(kv.NewMemoryStore(), Config{})
	assert.Equal(t, DefaultWindow, c.Window())
	assert.Equal(t, DefaultFreshFor, c.FreshFor())
}
