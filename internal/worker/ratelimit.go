// Package worker 令牌桶限速器
package worker

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultRateLimit 每个补充周期的令牌数（对上游的突发上限）
	DefaultRateLimit = 5
	// DefaultRatePeriod 令牌补充周期
	DefaultRatePeriod = time.Second
)

// RateLimiter 令牌桶限速器
//
// 每次获取按流逝时间重算令牌；没有令牌时精确计算到下一枚令牌的
// 等待时长后休眠重试，不忙等，突发不超过桶容量。
type RateLimiter struct {
	mu       sync.Mutex
	capacity float64
	period   time.Duration
	tokens   float64
	last     time.Time

	// now 时钟函数，测试可注入
	now func() time.Time

	// OnWait 等待回调（用于指标上报），可为 nil
	OnWait func(d time.Duration)
}

// NewRateLimiter 创建限速器，容量 capacity、补充周期 period
//
// 桶初始为满，允许恰好 capacity 次突发。
func NewRateLimiter(capacity int, period time.Duration) *RateLimiter {
	if capacity <= 0 {
		capacity = DefaultRateLimit
	}
	if period <= 0 {
		period = DefaultRatePeriod
	}
	return &RateLimiter{
		capacity: float64(capacity),
		period:   period,
		tokens:   float64(capacity),
		last:     time.Now(),
		now:      time.Now,
	}
}

// Acquire 取走一枚令牌，必要时阻塞等待
//
// ctx 取消时立即返回 ctx.Err()。
func (l *RateLimiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		elapsed := now.Sub(l.last)
		// 按流逝时间补充令牌，不超过桶容量
		l.tokens += elapsed.Seconds() * l.capacity / l.period.Seconds()
		if l.tokens > l.capacity {
			l.tokens = l.capacity
		}
		l.last = now

		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}

		// 等待到恰好能凑出一枚令牌的时刻
		wait := time.Duration((1 - l.tokens) * float64(l.period) / l.capacity)
		l.mu.Unlock()

		if l.OnWait != nil {
			l.OnWait(wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
