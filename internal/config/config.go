// Package config provides configuration management for the wallet tracker.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Provider ProviderConfig
	Sync     SyncConfig
	Tracker  TrackerConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
	MigrationsPath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// ProviderConfig holds blockchain data provider (Alchemy-style API) configuration
type ProviderConfig struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
}

// SyncConfig holds transaction sync configuration
type SyncConfig struct {
	Enabled         bool
	Interval        time.Duration // scheduler cycle interval
	PageDelay       time.Duration // pacing between provider pages within a sweep
	PairDelay       time.Duration // pacing between wallet-network pairs in a cycle
	MaxPages        int           // hard ceiling on pages per sweep
	MaxCountPerPage int           // transfers requested per page
	StaleRunTimeout time.Duration // in_progress runs older than this are reclaimable
}

// TrackerConfig holds balance refresh configuration
type TrackerConfig struct {
	Enabled     bool
	Interval    time.Duration
	WalletDelay time.Duration // pacing between wallets in a cycle
	ReportsDir  string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "wallet_tracker"),
				User:           getEnv("POSTGRES_USER", "tracker"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
				MigrationsPath: getEnv("POSTGRES_MIGRATIONS_PATH", "migrations"),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Provider: ProviderConfig{
			APIKey:         getEnv("PROVIDER_API_KEY", ""),
			BaseURL:        getEnv("PROVIDER_BASE_URL", "https://api.g.alchemy.com/data/v1"),
			RequestTimeout: getEnvAsDuration("PROVIDER_REQUEST_TIMEOUT", 30*time.Second),
		},
		Sync: SyncConfig{
			Enabled:         getEnvAsBool("SYNC_ENABLED", true),
			Interval:        getEnvAsDuration("SYNC_INTERVAL", 10*time.Minute),
			PageDelay:       getEnvAsDuration("SYNC_PAGE_DELAY", 100*time.Millisecond),
			PairDelay:       getEnvAsDuration("SYNC_PAIR_DELAY", 300*time.Millisecond),
			MaxPages:        getEnvAsInt("SYNC_MAX_PAGES", 200),
			MaxCountPerPage: getEnvAsInt("SYNC_MAX_COUNT_PER_PAGE", 1000),
			StaleRunTimeout: getEnvAsDuration("SYNC_STALE_RUN_TIMEOUT", 30*time.Minute),
		},
		Tracker: TrackerConfig{
			Enabled:     getEnvAsBool("TRACKER_ENABLED", true),
			Interval:    getEnvAsDuration("TRACKER_INTERVAL", 5*time.Minute),
			WalletDelay: getEnvAsDuration("TRACKER_WALLET_DELAY", time.Second),
			ReportsDir:  getEnv("TRACKER_REPORTS_DIR", "reports"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
