package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	CORS       CORSConfig
	Log        LogConfig
	GitHub     GitHubConfig
	LeetCode   LeetCodeConfig
	Metrics    MetricsConfig
	Validation ValidationConfig
	Refresh    RefreshConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// CacheConfig selects the cache driver and default lifetimes.
type CacheConfig struct {
	Enabled       bool
	Driver        string
	KeyPrefix     string
	ProviderTTL   time.Duration
	ClassStatsTTL time.Duration
	FlushOnStart  bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GitHubConfig configures the GitHub REST client.
type GitHubConfig struct {
	Token             string
	BaseURL           string
	RequestsPerHour   int
	CommitConcurrency int
	MaxRepoPages      int
	Timeout           time.Duration
}

// LeetCodeConfig configures the LeetCode profile API client.
type LeetCodeConfig struct {
	BaseURL           string
	RequestsPerMinute int
	Timeout           time.Duration
}

// MetricsConfig governs freshness of persisted snapshots and derived metrics.
type MetricsConfig struct {
	StaleAfter time.Duration
}

// ValidationConfig throttles batched identity validation against providers.
type ValidationConfig struct {
	BatchSize  int
	BatchDelay time.Duration
}

// RefreshConfig controls the background metrics refresh queue.
type RefreshConfig struct {
	Scheduled bool
	Interval  time.Duration
	Workers   int
	Retries   int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),
	}

	driver := strings.ToLower(v.GetString("CACHE_DRIVER"))
	if driver != CacheDriverRedis {
		driver = CacheDriverMemory
	}
	cfg.Cache = CacheConfig{
		Enabled:       v.GetBool("ENABLE_CACHE"),
		Driver:        driver,
		KeyPrefix:     v.GetString("CACHE_KEY_PREFIX"),
		ProviderTTL:   parseDuration(v.GetString("PROVIDER_CACHE_TTL"), 24*time.Hour),
		ClassStatsTTL: parseDuration(v.GetString("CLASS_CACHE_TTL"), 10*time.Minute),
		FlushOnStart:  v.GetBool("CACHE_FLUSH_ON_START"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.GitHub = GitHubConfig{
		Token:             v.GetString("GITHUB_TOKEN"),
		BaseURL:           v.GetString("GITHUB_BASE_URL"),
		RequestsPerHour:   positiveInt(v.GetInt("GITHUB_REQUESTS_PER_HOUR"), 5000),
		CommitConcurrency: positiveInt(v.GetInt("GITHUB_COMMIT_CONCURRENCY"), 10),
		MaxRepoPages:      positiveInt(v.GetInt("GITHUB_MAX_REPO_PAGES"), 10),
		Timeout:           parseDuration(v.GetString("PROVIDER_TIMEOUT"), 10*time.Second),
	}

	cfg.LeetCode = LeetCodeConfig{
		BaseURL:           v.GetString("LEETCODE_BASE_URL"),
		RequestsPerMinute: positiveInt(v.GetInt("LEETCODE_REQUESTS_PER_MINUTE"), 60),
		Timeout:           parseDuration(v.GetString("PROVIDER_TIMEOUT"), 10*time.Second),
	}

	cfg.Metrics = MetricsConfig{
		StaleAfter: parseDuration(v.GetString("METRICS_STALE_AFTER"), 24*time.Hour),
	}

	cfg.Validation = ValidationConfig{
		BatchSize:  positiveInt(v.GetInt("VALIDATION_BATCH_SIZE"), 5),
		BatchDelay: parseDuration(v.GetString("VALIDATION_BATCH_DELAY"), 2*time.Second),
	}

	cfg.Refresh = RefreshConfig{
		Scheduled: v.GetBool("ENABLE_SCHEDULED_REFRESH"),
		Interval:  parseDuration(v.GetString("REFRESH_INTERVAL"), 24*time.Hour),
		Workers:   positiveInt(v.GetInt("REFRESH_WORKERS"), 2),
		Retries:   positiveInt(v.GetInt("REFRESH_RETRIES"), 3),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "codepulse")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("CACHE_DRIVER", CacheDriverMemory)
	v.SetDefault("CACHE_KEY_PREFIX", "codepulse:")
	v.SetDefault("PROVIDER_CACHE_TTL", "24h")
	v.SetDefault("CLASS_CACHE_TTL", "10m")
	v.SetDefault("CACHE_FLUSH_ON_START", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GITHUB_TOKEN", "")
	v.SetDefault("GITHUB_BASE_URL", "https://api.github.com/")
	v.SetDefault("GITHUB_REQUESTS_PER_HOUR", 5000)
	v.SetDefault("GITHUB_COMMIT_CONCURRENCY", 10)
	v.SetDefault("GITHUB_MAX_REPO_PAGES", 10)
	v.SetDefault("PROVIDER_TIMEOUT", "10s")

	v.SetDefault("LEETCODE_BASE_URL", "https://leetcode-api-rk4o.onrender.com")
	v.SetDefault("LEETCODE_REQUESTS_PER_MINUTE", 60)

	v.SetDefault("METRICS_STALE_AFTER", "24h")

	v.SetDefault("VALIDATION_BATCH_SIZE", 5)
	v.SetDefault("VALIDATION_BATCH_DELAY", "2s")

	v.SetDefault("ENABLE_SCHEDULED_REFRESH", false)
	v.SetDefault("REFRESH_INTERVAL", "24h")
	v.SetDefault("REFRESH_WORKERS", 2)
	v.SetDefault("REFRESH_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positiveInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
