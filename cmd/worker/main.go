// Package main 抓取 Worker 入口
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"betterforces/internal/cache"
	"betterforces/internal/codeforces"
	"betterforces/internal/config"
	"betterforces/internal/shared/infra"
	"betterforces/internal/taskqueue"
	"betterforces/internal/worker"
	"betterforces/pkg/logging"
)

func main() {
	cfg := config.Load()

	log.Printf("Starting Fetch Worker... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 初始化 Redis（缓存、抢占锁、任务记录、抓取队列）
	redisInfra, err := infra.NewRedisInfra(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisInfra.Close()
	log.Println("Connected to Redis")

	cfClient := codeforces.NewClient(cfg.Codeforces.BaseURL)
	cfClient.SetTimeout(cfg.Codeforces.Timeout)

	submissionCache := cache.New(redisInfra.KV, cache.Config{
		Window:   cfg.Cache.Window,
		FreshFor: cfg.Cache.FreshFor,
	})
	coordinator := taskqueue.New(redisInfra.KV, redisInfra.Queue, taskqueue.Config{
		ClaimTTL: cfg.Task.ClaimTTL,
		TaskTTL:  cfg.Task.TaskTTL,
	})
	limiter := worker.NewRateLimiter(cfg.Worker.RateLimit, cfg.Worker.RatePeriod)

	w := worker.New(redisInfra.Queue, submissionCache, coordinator, cfClient, limiter,
		logging.Default("worker"), worker.Config{
			DequeueTimeout: cfg.Worker.DequeueTimeout,
		})

	// 优雅关闭：信号触发停止，当前在途任务跑完后退出
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down worker...")
		w.Stop()
	}()

	w.Run(ctx)

	log.Println("Worker stopped")
}
