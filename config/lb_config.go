package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Database
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// Stats source
	StatsAPIURL string

	// Fetch fan-out
	FetchBatchSize  int
	FetchBatchPause time.Duration
	FetchMaxRetries int
	FetchRetryBase  time.Duration

	// Leaderboard cache
	BoardCacheTTL time.Duration

	// Background refresher
	RefreshInterval time.Duration
	RefreshWorkers  int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		MongoDBURL:  getEnv("MONGODB_URL", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGODB_DATABASE", "leetboard"),
		RedisURL:    getEnv("REDIS_URL", ""),

		StatsAPIURL: getEnv("STATS_API_URL", "https://leetcode-stats-api.herokuapp.com"),

		FetchBatchSize:  getEnvInt("FETCH_BATCH_SIZE", 3),
		FetchBatchPause: time.Duration(getEnvInt("FETCH_BATCH_PAUSE_MS", 750)) * time.Millisecond,
		FetchMaxRetries: getEnvInt("FETCH_MAX_RETRIES", 3),
		FetchRetryBase:  time.Duration(getEnvInt("FETCH_RETRY_BASE_MS", 500)) * time.Millisecond,

		BoardCacheTTL: time.Duration(getEnvInt("BOARD_CACHE_TTL_SEC", 60)) * time.Second,

		RefreshInterval: time.Duration(getEnvInt("REFRESH_INTERVAL_MIN", 10)) * time.Minute,
		RefreshWorkers:  getEnvInt("REFRESH_WORKERS", 2),

		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
