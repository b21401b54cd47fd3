package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Slack    SlackConfig
	Fallback FallbackConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CacheConfig selects and tunes the cache store shared by the whole pipeline.
type CacheConfig struct {
	// Backend is "redis" or "memory".
	Backend string
	// TTL is the uniform freshness window for roster, URL and image entries.
	TTL time.Duration
	// NegativeTTL, when positive, caches "no image could be produced" for
	// that long instead of retrying the full pipeline on every request.
	NegativeTTL time.Duration
	// KeyPrefix namespaces entries in shared backends.
	KeyPrefix string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

type SlackConfig struct {
	Token string
}

// FallbackConfig points at the public avatar service used when no directory
// member matches a hash.
type FallbackConfig struct {
	BaseURL string
	// SizeParam is the fixed value of the fallback URL's "s" query parameter,
	// independent of the requested output size.
	SizeParam int
	// DownloadTimeout bounds a single image download.
	DownloadTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "3000"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Cache: CacheConfig{
			Backend:     getEnv("CACHE_BACKEND", "memory"),
			TTL:         getDurationEnv("CACHE_TTL", time.Hour),
			NegativeTTL: getDurationEnv("CACHE_NEGATIVE_TTL", 0),
			KeyPrefix:   getEnv("CACHE_KEY_PREFIX", "avatar"),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Slack: SlackConfig{
			Token: getEnvRequired("SLACK_TOKEN"),
		},
		Fallback: FallbackConfig{
			BaseURL:         getEnv("FALLBACK_BASE_URL", "https://www.gravatar.com/avatar"),
			SizeParam:       getIntEnv("FALLBACK_SIZE_PARAM", 512),
			DownloadTimeout: getDurationEnv("IMAGE_DOWNLOAD_TIMEOUT", 15*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Cache.Backend != "redis" && cfg.Cache.Backend != "memory" {
		return nil, fmt.Errorf("unsupported CACHE_BACKEND %q (want redis or memory)", cfg.Cache.Backend)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
