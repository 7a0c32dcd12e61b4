// Package infra Redis 基础设施初始化
package infra

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	kvredis "betterforces/internal/shared/kv/redis"
	queueredis "betterforces/internal/shared/queue/redis"
)

// NewRedisInfra 从 URL 创建 Redis 基础设施
//
// KV 和队列共享同一个连接池，关闭时由聚合层关闭一次底层客户端。
func NewRedisInfra(redisURL string) (*Infrastructure, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis/Infra] Connected to %s", opts.Addr)

	return &Infrastructure{
		KV:          kvredis.NewStoreFromClient(client),
		Queue:       queueredis.NewQueueFromClient(client),
		closeShared: client.Close,
	}, nil
}
