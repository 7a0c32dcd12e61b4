// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（Redis 密码）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Redis      RedisConfig      `yaml:"redis"`
	Codeforces CodeforcesConfig `yaml:"codeforces"`
	Cache      CacheConfig      `yaml:"cache"`
	Worker     WorkerConfig     `yaml:"worker"`
	Task       TaskConfig       `yaml:"task"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // 完整 URL 优先
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"` // 仅从 .env 读取
}

type CodeforcesConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig 提交缓存配置
type CacheConfig struct {
	Window   time.Duration `yaml:"window"`    // 缓存条目的总生存期
	FreshFor time.Duration `yaml:"fresh_for"` // 新鲜窗口，超过后视为陈旧
}

// WorkerConfig 抓取 worker 配置
type WorkerConfig struct {
	RateLimit      int           `yaml:"rate_limit"`      // 每周期允许的上游请求数
	RatePeriod     time.Duration `yaml:"rate_period"`     // 限流周期
	DequeueTimeout time.Duration `yaml:"dequeue_timeout"` // BLPOP 阻塞超时
}

// TaskConfig 任务协调配置
type TaskConfig struct {
	ClaimTTL time.Duration `yaml:"claim_ttl"` // 去重声明的生存期
	TaskTTL  time.Duration `yaml:"task_ttl"`  // 任务记录的生存期
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env        Environment
	RedisURL   string
	APIPort    string
	Origins    []string
	Codeforces CodeforcesConfig
	Cache      CacheConfig
	Worker     WorkerConfig
	Task       TaskConfig
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 环境变量覆盖
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// 解析环境
	env := parseEnv(getEnv("APP_ENV", "dev"))

	// 加载 YAML 配置
	yamlCfg := loadYAMLConfig(env)

	// 从环境变量获取敏感信息
	yamlCfg.Redis.Password = getEnv("REDIS_PASSWORD", "")

	// 环境变量覆盖
	applyEnvOverrides(yamlCfg)

	cfg := &Config{
		Env:        env,
		RedisURL:   buildRedisURL(yamlCfg.Redis),
		APIPort:    yamlCfg.Server.Port,
		Origins:    yamlCfg.Server.AllowedOrigins,
		Codeforces: yamlCfg.Codeforces,
		Cache:      yamlCfg.Cache,
		Worker:     yamlCfg.Worker,
		Task:       yamlCfg.Task,
	}

	cfg.validate()

	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	// 1. 初始化默认值
	cfg := &YAMLConfig{
		Server: ServerConfig{Port: "8080", AllowedOrigins: []string{"*"}},
		Redis:  RedisConfig{Host: "localhost", Port: 6379, DB: 0},
		Codeforces: CodeforcesConfig{
			BaseURL: "https://codeforces.com/api",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Window:   24 * time.Hour,
			FreshFor: 4 * time.Hour,
		},
		Worker: WorkerConfig{
			RateLimit:      5,
			RatePeriod:     time.Second,
			DequeueTimeout: 5 * time.Second,
		},
		Task: TaskConfig{
			ClaimTTL: 60 * time.Second,
			TaskTTL:  5 * time.Minute,
		},
	}

	// 2. 加载 common.yaml（公共配置）
	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	// 3. 加载 {env}.yaml（环境特定配置，覆盖公共配置）
	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// applyEnvOverrides 环境变量覆盖 YAML 配置
func applyEnvOverrides(cfg *YAMLConfig) {
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("API_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("CODEFORCES_API_BASE"); v != "" {
		cfg.Codeforces.BaseURL = v
	}
	if v := os.Getenv("CACHE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.Window = d
		}
	}
	if v := os.Getenv("CACHE_FRESH_FOR"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.FreshFor = d
		}
	}
	if v := os.Getenv("WORKER_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Worker.RateLimit = n
		}
	}
}

// buildRedisURL 构建 Redis 连接字符串
func buildRedisURL(redis RedisConfig) string {
	if redis.URL != "" {
		return redis.URL
	}
	if redis.Password != "" {
		return fmt.Sprintf("redis://:%s@%s:%d/%d", redis.Password, redis.Host, redis.Port, redis.DB)
	}
	return fmt.Sprintf("redis://%s:%d/%d", redis.Host, redis.Port, redis.DB)
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Redis: %s, API: :%s, Window: %s, FreshFor: %s}",
		c.Env, maskPassword(c.RedisURL), c.APIPort, c.Cache.Window, c.Cache.FreshFor)
}

// maskPassword 隐藏密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:@]*:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}

// validate 验证并填充默认值
func (c *Config) validate() {
	if c.APIPort == "" {
		c.APIPort = "8080"
	}
	if c.Cache.Window <= 0 {
		c.Cache.Window = 24 * time.Hour
	}
	if c.Cache.FreshFor <= 0 {
		c.Cache.FreshFor = 4 * time.Hour
	}
	if c.Cache.FreshFor > c.Cache.Window {
		c.Cache.FreshFor = c.Cache.Window
	}
	if c.Worker.RateLimit <= 0 {
		c.Worker.RateLimit = 5
	}
	if c.Worker.RatePeriod <= 0 {
		c.Worker.RatePeriod = time.Second
	}
	if c.Worker.DequeueTimeout <= 0 {
		c.Worker.DequeueTimeout = 5 * time.Second
	}
	if c.Task.ClaimTTL <= 0 {
		c.Task.ClaimTTL = 60 * time.Second
	}
	if c.Task.TaskTTL <= 0 {
		c.Task.TaskTTL = 5 * time.Minute
	}
}
