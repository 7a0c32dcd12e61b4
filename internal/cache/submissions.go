// Package cache 提交记录缓存（带陈旧度推导）
//
// 缓存条目不存储写入时间，年龄由剩余 TTL 反推：age = Window - ttl。
// 这样单个键同时承载数据和新鲜度，键过期即数据彻底淘汰。
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"betterforces/internal/shared/kv"
	"betterforces/internal/shared/model"
)

// KeySubmissions 提交缓存键前缀
const KeySubmissions = "submissions:"

const (
	// DefaultWindow 缓存总生命周期（24 小时）
	DefaultWindow = 24 * time.Hour
	// DefaultFreshFor 新鲜度阈值（4 小时）
	DefaultFreshFor = 4 * time.Hour
)

// Config 缓存配置
type Config struct {
	// Window 缓存条目总生命周期 W
	Window time.Duration
	// FreshFor 新鲜度阈值 F，age <= F 视为新鲜
	FreshFor time.Duration
}

// SubmissionCache 提交记录缓存
type SubmissionCache struct {
	store    kv.Store
	window   time.Duration
	freshFor time.Duration
}

// New 创建提交缓存实例，零值配置使用默认常量
func New(store kv.Store, cfg Config) *SubmissionCache {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.FreshFor <= 0 {
		cfg.FreshFor = DefaultFreshFor
	}
	return &SubmissionCache{
		store:    store,
		window:   cfg.Window,
		freshFor: cfg.FreshFor,
	}
}

// Window 返回缓存总生命周期
func (c *SubmissionCache) Window() time.Duration {
	return c.window
}

// FreshFor 返回新鲜度阈值
func (c *SubmissionCache) FreshFor() time.Duration {
	return c.freshFor
}

// Entry 一次缓存读取的结果
type Entry struct {
	// Submissions 缓存的提交记录，未命中时为 nil
	Submissions []model.Submission
	// Age 条目年龄（Window - 剩余 TTL），未命中时为 0
	Age time.Duration
	// Stale 条目是否陈旧（Age > FreshFor）
	Stale bool
}

// Hit 是否命中缓存
func (e Entry) Hit() bool {
	return e.Submissions != nil
}

// Fresh 命中且新鲜
func (e Entry) Fresh() bool {
	return e.Hit() && !e.Stale
}

// Read 读取指定 handle 的缓存条目
//
// 键不存在、无法取得剩余 TTL 或数据损坏时按未命中处理，绝不返回部分有效数据。
// 存储不可达时返回包装了 kv.ErrUnavailable 的错误，调用方据此走降级路径。
func (c *SubmissionCache) Read(ctx context.Context, handle string) (Entry, error) {
	key := KeySubmissions + handle

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return Entry{}, fmt.Errorf("read submission cache: %w", err)
	}
	if !ok {
		return Entry{}, nil
	}

	ttl, hasTTL, err := c.store.TTL(ctx, key)
	if err != nil {
		return Entry{}, fmt.Errorf("probe submission cache ttl: %w", err)
	}
	// 有键无 TTL 视为异常条目，按未命中处理而不是报告 age=0
	if !hasTTL {
		return Entry{}, nil
	}

	var subs []model.Submission
	if err := json.Unmarshal([]byte(raw), &subs); err != nil {
		return Entry{}, nil
	}
	if subs == nil {
		subs = []model.Submission{}
	}

	age := c.window - ttl
	if age < 0 {
		age = 0
	}

	return Entry{
		Submissions: subs,
		Age:         age,
		Stale:       age > c.freshFor,
	}, nil
}

// Write 写入提交记录，生命周期为 Window
func (c *SubmissionCache) Write(ctx context.Context, handle string, subs []model.Submission) error {
	data, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("marshal submissions: %w", err)
	}
	if err := c.store.SetEx(ctx, KeySubmissions+handle, string(data), c.window); err != nil {
		return fmt.Errorf("write submission cache: %w", err)
	}
	return nil
}
