// Package kv 内存 mock 实现（用于测试）
package kv

import (
	"context"
	"sync"
	"time"
)

// ============================================================================
// MemoryStore - 基于内存的 Store 实现
// ============================================================================

type memoryEntry struct {
	value     string
	expiresAt time.Time // 零值表示永不过期
}

// MemoryStore 内存键值存储
//
// 支持注入时钟以便测试 TTL 推导的年龄计算。
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	// Now 时钟函数，默认 time.Now
	Now func() time.Time
}

// NewMemoryStore 创建内存存储实例
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		Now:     time.Now,
	}
}

// get 返回未过期的条目，过期条目顺带清理
func (s *MemoryStore) get(key string) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !s.Now().Before(e.expiresAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.get(key)
	if !ok {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.get(key); ok {
		return false, nil
	}
	s.entries[key] = memoryEntry{value: value, expiresAt: s.Now().Add(ttl)}
	return true, nil
}

func (s *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.get(key)
	if !ok || e.expiresAt.IsZero() {
		return 0, false, nil
	}
	return e.expiresAt.Sub(s.Now()), true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// SetNoExpiry 写入无过期时间的键（测试"有键无 TTL 视为未命中"的场景）
func (s *MemoryStore) SetNoExpiry(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value}
}

// ============================================================================
// UnavailableStore - 总是返回 ErrUnavailable 的实现（测试降级路径）
// ============================================================================

// UnavailableStore 模拟存储不可达
type UnavailableStore struct{}

// NewUnavailableStore 创建 UnavailableStore 实例
func NewUnavailableStore() *UnavailableStore {
	return &UnavailableStore{}
}

func (s *UnavailableStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, ErrUnavailable
}
func (s *UnavailableStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	return ErrUnavailable
}
func (s *UnavailableStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return false, ErrUnavailable
}
func (s *UnavailableStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	return 0, false, ErrUnavailable
}
func (s *UnavailableStore) Delete(ctx context.Context, key string) error {
	return ErrUnavailable
}
func (s *UnavailableStore) Close() error {
	return nil
}

// 确保 mock 实现了 Store 接口
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*UnavailableStore)(nil)
)
