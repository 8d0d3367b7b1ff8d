package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 缺少食譜或份量無效時的處理策略
const (
	PolicySkip = "skip"
	PolicyFail = "fail"
)

// 儲存層驅動
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Queue       QueueConfig      `mapstructure:"queue"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Store       StoreConfig      `mapstructure:"store"`
	Shopping    ShoppingConfig   `mapstructure:"shopping"`
	Catalog     CatalogConfig    `mapstructure:"catalog"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
	LogDir      string           `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CacheConfig AI 回應緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// QueueConfig AI 請求隊列配置
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// StoreConfig 食譜儲存層配置
type StoreConfig struct {
	Driver       string         `mapstructure:"driver"`
	FetchTimeout time.Duration  `mapstructure:"fetch_timeout"`
	Redis        RedisConfig    `mapstructure:"redis"`
	Postgres     PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// PostgresConfig PostgreSQL 連線設定
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// ShoppingConfig 購物清單設定
type ShoppingConfig struct {
	MissingRecipePolicy   string `mapstructure:"missing_recipe_policy"`
	InvalidServingsPolicy string `mapstructure:"invalid_servings_policy"`
	DefaultPriority       int    `mapstructure:"default_priority"`
	TodoVerb              string `mapstructure:"todo_verb"`
}

// CatalogConfig 食譜目錄設定
type CatalogConfig struct {
	NewCategoryPriority int `mapstructure:"new_category_priority"`
	SearchLimit         int `mapstructure:"search_limit"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（不存在時忽略）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	_ = v.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	_ = v.BindEnv("openrouter.model", "OPENROUTER_MODEL")
	_ = v.BindEnv("openrouter.enabled", "OPENROUTER_ENABLED")
	_ = v.BindEnv("store.driver", "STORE_DRIVER")
	_ = v.BindEnv("store.redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("store.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("store.postgres.dsn", "DATABASE_URL")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("dedup_window", "DEDUP_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.port", "PORT")

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Store.Driver = strings.ToLower(strings.TrimSpace(config.Store.Driver))
	config.Shopping.MissingRecipePolicy = strings.ToLower(strings.TrimSpace(config.Shopping.MissingRecipePolicy))
	config.Shopping.InvalidServingsPolicy = strings.ToLower(strings.TrimSpace(config.Shopping.InvalidServingsPolicy))

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskSecret 遮罩密鑰，只顯示前後各 4 個字符
func MaskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-book")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.max_body_bytes", 1<<20) // 1MB

	// OpenRouter 設定
	v.SetDefault("openrouter.enabled", false)
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "openai/gpt-4o")
	v.SetDefault("openrouter.max_tokens", 2000)
	v.SetDefault("openrouter.temperature", 0.3)
	v.SetDefault("openrouter.timeout", "60s")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 500)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// AI 隊列
	v.SetDefault("queue.workers", 2)
	v.SetDefault("queue.max_size", 20)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 儲存層設定
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.fetch_timeout", "5s")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "recipebook")
	v.SetDefault("store.postgres.max_conns", 10)
	v.SetDefault("store.postgres.min_conns", 2)
	v.SetDefault("store.postgres.max_conn_lifetime", "1h")

	// 購物清單設定
	v.SetDefault("shopping.missing_recipe_policy", PolicySkip)
	v.SetDefault("shopping.invalid_servings_policy", PolicyFail)
	v.SetDefault("shopping.default_priority", 99)
	v.SetDefault("shopping.todo_verb", "Osta")

	// 目錄設定
	v.SetDefault("catalog.new_category_priority", 9999)
	v.SetDefault("catalog.search_limit", 100)

	v.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	// 驗證儲存層設定
	switch config.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if config.Store.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required")
		}
	case DriverPostgres:
		if config.Store.Postgres.DSN == "" {
			return fmt.Errorf("postgres dsn is required")
		}
	default:
		return fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}

	// 驗證購物清單策略
	if !validPolicy(config.Shopping.MissingRecipePolicy) {
		return fmt.Errorf("invalid missing recipe policy %q", config.Shopping.MissingRecipePolicy)
	}
	if !validPolicy(config.Shopping.InvalidServingsPolicy) {
		return fmt.Errorf("invalid servings policy %q", config.Shopping.InvalidServingsPolicy)
	}
	if config.Shopping.DefaultPriority < 0 {
		return fmt.Errorf("shopping default priority must not be negative")
	}
	if config.Catalog.NewCategoryPriority < 0 {
		return fmt.Errorf("new category priority must not be negative")
	}

	if config.OpenRouter.Enabled && config.OpenRouter.APIKey == "" {
		return fmt.Errorf("openrouter api key is required when openrouter is enabled")
	}
	if config.OpenRouter.Enabled && config.Queue.Workers <= 0 {
		return fmt.Errorf("queue workers must be positive")
	}

	return nil
}

func validPolicy(p string) bool {
	return p == PolicySkip || p == PolicyFail
}
