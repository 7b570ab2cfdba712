package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Data sources
	Eastmoney EastmoneyConfig
	Sina      SinaConfig
	Yahoo     YahooConfig

	// Screener
	Screener ScreenerConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
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

// EastmoneyConfig holds Eastmoney API endpoints
type EastmoneyConfig struct {
	QuoteURL      string
	DatacenterURL string
}

// SinaConfig holds Sina Finance endpoints
type SinaConfig struct {
	KlineURL string
	NewsURL  string
}

// YahooConfig holds Yahoo Finance endpoints
type YahooConfig struct {
	QuoteSummaryURL string
	ChartURL        string
	SearchURL       string
}

// ScreenerConfig holds screening pipeline configuration
type ScreenerConfig struct {
	Workers     int
	TaskTimeout time.Duration
}

// SchedulerConfig holds cron scheduler configuration
type SchedulerConfig struct {
	Enabled   bool
	CronSpec  string
	Strategy  string
	Watchlist string // path to a ticker file, one per line
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
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
		},

		// Data sources
		Eastmoney: EastmoneyConfig{
			QuoteURL:      getEnv("EASTMONEY_QUOTE_URL", ""),
			DatacenterURL: getEnv("EASTMONEY_DATACENTER_URL", ""),
		},

		Sina: SinaConfig{
			KlineURL: getEnv("SINA_KLINE_URL", ""),
			NewsURL:  getEnv("SINA_NEWS_URL", ""),
		},

		Yahoo: YahooConfig{
			QuoteSummaryURL: getEnv("YAHOO_QUOTE_SUMMARY_URL", ""),
			ChartURL:        getEnv("YAHOO_CHART_URL", ""),
			SearchURL:       getEnv("YAHOO_SEARCH_URL", ""),
		},

		// Screener
		Screener: ScreenerConfig{
			Workers:     getEnvAsInt("SCREENER_WORKERS", 5),
			TaskTimeout: getEnvAsDuration("SCREENER_TASK_TIMEOUT", "60s"),
		},

		// Scheduler
		Scheduler: SchedulerConfig{
			Enabled:   getEnvAsBool("SCHEDULER_ENABLED", false),
			CronSpec:  getEnv("SCHEDULER_CRON", "0 30 16 * * MON-FRI"),
			Strategy:  getEnv("SCHEDULER_STRATEGY", "value"),
			Watchlist: getEnv("SCHEDULER_WATCHLIST", ""),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are consistent
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Screener.Workers < 1 {
		return fmt.Errorf("SCREENER_WORKERS must be at least 1")
	}

	if c.Screener.TaskTimeout <= 0 {
		return fmt.Errorf("SCREENER_TASK_TIMEOUT must be positive")
	}

	return nil
}

// HasDatabase reports whether a Postgres connection is configured.
// Screening from the CLI works without one; persistence and the API
// run history need it.
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env", // Current directory
	}

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
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
