// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"betterforces/internal/apiserver/server"
	"betterforces/internal/cache"
	"betterforces/internal/codeforces"
	"betterforces/internal/config"
	"betterforces/internal/shared/infra"
	"betterforces/internal/taskqueue"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换 Redis 和上游地址）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 初始化 Redis（缓存、抢占锁、任务记录、抓取队列）
	redisInfra, err := infra.NewRedisInfra(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisInfra.Close()
	log.Println("Connected to Redis")

	// 上游客户端（降级直抓路径用）
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

	// 初始化 Handler
	h := server.NewHandler(submissionCache, coordinator, redisInfra.Queue, cfClient)
	h.SetAllowedOrigins(cfg.Origins)

	// 启动队列深度监控
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.StartQueueMonitor(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
