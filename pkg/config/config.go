package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port     string
	Env      string // development, staging, production
	Timezone string

	// Pipeline
	Pipeline PipelineConfig

	// Record store
	Records  RecordConfig
	Database DatabaseConfig

	// Redis (optional bar cache)
	Redis RedisConfig

	// External collaborators
	Provider ProviderConfig
	SMTP     SMTPConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// PipelineConfig holds the knobs of the two daily runs
type PipelineConfig struct {
	AnalysisTime   string // HH:MM, local time
	ValidationTime string // HH:MM, local time
	ForecastDays   int    // forecast horizon in trading days
	HistoryDays    int    // trailing calendar window per symbol
	Concurrency    int    // selector worker pool size
	MarketIndex    string // e.g. sh000001
}

// RecordConfig selects the prediction record store
type RecordConfig struct {
	Driver string // csv, postgres
	Path   string // csv file path
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	BarTTL   time.Duration
}

// ProviderConfig holds market data provider (East Money) configuration
type ProviderConfig struct {
	QuoteURL   string
	KlineURL   string
	Timeout    time.Duration
	RPS        float64
	Retries    int
	RetryDelay time.Duration
}

// SMTPConfig holds mail relay configuration
type SMTPConfig struct {
	Server     string
	Port       int
	User       string
	Password   string
	From       string
	To         string
	Retries    int
	RetryDelay time.Duration
}

// Enabled reports whether enough is configured to attempt delivery
func (s SMTPConfig) Enabled() bool {
	return strings.TrimSpace(s.Server) != "" &&
		strings.TrimSpace(s.From) != "" &&
		strings.TrimSpace(s.To) != ""
}

// Location resolves the configured timezone, falling back to local time
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port:     getEnv("PORT", "8089"),
		Env:      getEnv("ENV", "development"),
		Timezone: getEnv("TZ_NAME", "Asia/Shanghai"),

		Pipeline: PipelineConfig{
			AnalysisTime:   getEnv("ANALYSIS_TIME", "15:30"),
			ValidationTime: getEnv("VALIDATION_TIME", "18:00"),
			ForecastDays:   getEnvAsInt("FORECAST_DAYS", 5),
			HistoryDays:    getEnvAsInt("HISTORY_DAYS", 60),
			Concurrency:    getEnvAsInt("SELECTOR_CONCURRENCY", 8),
			MarketIndex:    getEnv("MARKET_INDEX", "sh000001"),
		},

		Records: RecordConfig{
			Driver: strings.ToLower(getEnv("RECORD_STORE", "csv")),
			Path:   getEnv("RECORD_PATH", "/tmp/best_stock.csv"),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 4),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			BarTTL:   getEnvAsDuration("BAR_CACHE_TTL", "12h"),
		},

		Provider: ProviderConfig{
			QuoteURL:   getEnv("EASTMONEY_QUOTE_URL", "https://82.push2.eastmoney.com/api/qt/clist/get"),
			KlineURL:   getEnv("EASTMONEY_KLINE_URL", "https://push2his.eastmoney.com/api/qt/stock/kline/get"),
			Timeout:    getEnvAsDuration("PROVIDER_TIMEOUT", "10s"),
			RPS:        getEnvAsFloat("PROVIDER_RPS", 5),
			Retries:    getEnvAsInt("PROVIDER_RETRIES", 3),
			RetryDelay: getEnvAsDuration("PROVIDER_RETRY_DELAY", "500ms"),
		},

		SMTP: SMTPConfig{
			Server:     getEnv("SMTP_SERVER", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			User:       getEnv("SMTP_USER", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			From:       getEnv("SMTP_FROM", ""),
			To:         getEnv("SMTP_TO", ""),
			Retries:    getEnvAsInt("SMTP_RETRIES", 3),
			RetryDelay: getEnvAsDuration("SMTP_RETRY_DELAY", "5s"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// 발신자 미지정 시 로그인 계정 사용
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}
	if cfg.SMTP.To == "" {
		cfg.SMTP.To = cfg.SMTP.User
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" && c.Env != "test" {
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.Pipeline.ForecastDays <= 0 {
		return fmt.Errorf("FORECAST_DAYS must be positive, got %d", c.Pipeline.ForecastDays)
	}
	if c.Pipeline.HistoryDays <= 0 {
		return fmt.Errorf("HISTORY_DAYS must be positive, got %d", c.Pipeline.HistoryDays)
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("SELECTOR_CONCURRENCY must be positive, got %d", c.Pipeline.Concurrency)
	}
	if _, _, err := ParseClock(c.Pipeline.AnalysisTime); err != nil {
		return fmt.Errorf("ANALYSIS_TIME: %w", err)
	}
	if _, _, err := ParseClock(c.Pipeline.ValidationTime); err != nil {
		return fmt.Errorf("VALIDATION_TIME: %w", err)
	}

	switch c.Records.Driver {
	case "csv":
		if c.Records.Path == "" {
			return fmt.Errorf("RECORD_PATH is required for csv record store")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres record store")
		}
	default:
		return fmt.Errorf("RECORD_STORE must be one of: csv, postgres")
	}

	return nil
}

// ParseClock parses an HH:MM wall clock time
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock %q, want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
