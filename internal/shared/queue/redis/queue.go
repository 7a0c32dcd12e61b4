// Package redis 抓取队列的 Redis list 实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"betterforces/internal/shared/kv"
	"betterforces/internal/shared/queue"
)

// Queue Redis list 队列
type Queue struct {
	client *redis.Client
	key    string
}

// NewQueueFromClient 复用已有 Redis 连接创建队列实例
func NewQueueFromClient(client *redis.Client) *Queue {
	return &Queue{client: client, key: queue.KeyFetchQueue}
}

// Push 将消息 JSON 序列化后 RPUSH 到队尾
func (q *Queue) Push(ctx context.Context, msg *queue.FetchMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal fetch message: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("%w: RPUSH %s: %v", kv.ErrUnavailable, q.key, err)
	}
	return nil
}

// Pop 通过 BLPOP 阻塞式取出队头消息
//
// 超时无消息返回 (nil, nil)。损坏的消息记录为错误返回，
// 调用方跳过即可，不会阻塞队列。
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*queue.FetchMessage, error) {
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: BLPOP %s: %v", kv.ErrUnavailable, q.key, err)
	}
	// BLPOP 返回 [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BLPOP reply length: %d", len(res))
	}
	var msg queue.FetchMessage
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return nil, fmt.Errorf("unmarshal fetch message: %w", err)
	}
	return &msg, nil
}

// Len 返回队列长度
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: LLEN %s: %v", kv.ErrUnavailable, q.key, err)
	}
	return n, nil
}

// Close 关闭连接
func (q *Queue) Close() error {
	return q.client.Close()
}

// 确保 Queue 实现了 queue.FetchQueue 接口
var _ queue.FetchQueue = (*Queue)(nil)
