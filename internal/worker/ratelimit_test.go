// Package worker 令牌桶限速器测试
package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_BurstWithinCapacity(t *testing.T) {
	limiter := NewRateLimiter(5, time.Second)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Acquire(ctx))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond, "桶满时突发不应阻塞")
}

// TestRateLimiter_SustainedRate 连续取 2N 枚令牌至少耗时一个周期：
// 前 N 枚是突发额度，后 N 枚要等补充。
func TestRateLimiter_SustainedRate(t *testing.T) {
	const capacity = 5
	period := 200 * time.Millisecond
	limiter := NewRateLimiter(capacity, period)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 2*capacity; i++ {
		require.NoError(t, limiter.Acquire(ctx))
	}
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, period, "第二批 %d 枚令牌要等满一个补充周期", capacity)
	assert.Less(t, elapsed, 3*period)
}

func TestRateLimiter_RefillAfterIdle(t *testing.T) {
	limiter := NewRateLimiter(2, 100*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))

	time.Sleep(120 * time.Millisecond)

	// 闲置一个周期后又有完整突发额度
	start := time.Now()
	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiter_ContextCancelled(t *testing.T) {
	limiter := NewRateLimiter(1, time.Hour)
	ctx := context.Background()

	require.NoError(t, limiter.Acquire(ctx))

	cancelCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	err := limiter.Acquire(cancelCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_OnWaitCallback(t *testing.T) {
	limiter := NewRateLimiter(1, 50*time.Millisecond)

	var waits []time.Duration
	limiter.OnWait = func(d time.Duration) { waits = append(waits, d) }

	ctx := context.Background()
	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))

	require.NotEmpty(t, waits)
	assert.Greater(t, waits[0], time.Duration(0))
	assert.LessOrEqual(t, waits[0], 50*time.Millisecond)
}

func TestRateLimiter_DefaultsOnZeroConfig(t *testing.T) {
	limiter := NewRateLimiter(0, 0)
	assert.Equal(t, float64(DefaultRateLimit), limiter.capacity)
	assert.Equal(t, DefaultRatePeriod, limiter.period)
}
