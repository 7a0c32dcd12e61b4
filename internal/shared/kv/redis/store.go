// Package redis 键值存储的 Redis 实现
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"betterforces/internal/shared/kv"
)

// Store Redis 键值存储
type Store struct {
	client *redis.Client
}

// NewStoreFromClient 复用已有 Redis 连接创建存储实例
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// wrapErr 将连接类错误标记为 kv.ErrUnavailable
func wrapErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", kv.ErrUnavailable, op, err)
}

// Get 读取键值
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapErr("GET "+key, err)
	}
	return val, true, nil
}

// SetEx 写入键值并设置过期时间
func (s *Store) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return wrapErr("SETEX "+key, err)
	}
	return nil
}

// SetIfAbsent 原子 SETNX + 过期时间
func (s *Store) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, wrapErr("SETNX "+key, err)
	}
	return ok, nil
}

// TTL 查询剩余生存时间
//
// Redis 对不存在的键返回 -2，对无过期时间的键返回 -1，
// 两者都映射为 ok=false（按缓存未命中处理）。
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, wrapErr("TTL "+key, err)
	}
	if d < 0 {
		return 0, false, nil
	}
	return d, true, nil
}

// Delete 删除键
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return wrapErr("DEL "+key, err)
	}
	return nil
}

// Close 关闭连接
func (s *Store) Close() error {
	return s.client.Close()
}

// 确保 Store 实现了 kv.Store 接口
var _ kv.Store = (*Store)(nil)
