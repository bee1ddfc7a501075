package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// StorageConfig selects and configures the history store backend.
type StorageConfig struct {
	Type          string // "mongo", "postgres" or "memory"
	MongoURI      string
	MongoDatabase string
	PostgresDSN   string
}

type Config struct {
	// Telegram settings
	TelegramToken  string
	TelegramChatID string

	// History store
	Storage StorageConfig

	// Primary feed settings
	FeedsConfigPath string
	NewsMaxAge      time.Duration

	// Fallback headlines API settings (disabled when the key is empty)
	NewsAPIBaseURL string
	NewsAPIKey     string
	NewsAPIQuery   string

	// Selection policy
	TargetPerRun  int
	DomesticQuota int
	WorldQuota    int

	// Posting settings
	PaceInterval time.Duration

	// Scheduler settings
	EnableScheduler   bool
	CleanupHourUTC    int
	RetentionWindow   time.Duration
	HeartbeatInterval time.Duration
	DegradedAfter     int // consecutive failures before a job degrades health

	// HTTP control surface
	HTTPPort string

	// App settings
	LogLevel       string
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}

// Load reads configuration from the environment, with an optional .env file.
func Load() (*Config, error) {
	// .env is a convenience for local runs; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Storage: StorageConfig{
			Type:          getEnvOrDefault("STORAGE_TYPE", "mongo"),
			MongoURI:      os.Getenv("MONGO_URI"),
			MongoDatabase: getEnvOrDefault("MONGO_DATABASE", "cricket_news_bot"),
			PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		},

		FeedsConfigPath: getEnvOrDefault("FEEDS_CONFIG_PATH", "configs/feeds.yaml"),
		NewsMaxAge:      getEnvDurationOrDefault("NEWS_MAX_AGE", 24*time.Hour),

		NewsAPIBaseURL: getEnvOrDefault("NEWSAPI_BASE_URL", "https://newsapi.org/v2"),
		NewsAPIKey:     os.Getenv("NEWSAPI_KEY"),
		NewsAPIQuery:   getEnvOrDefault("NEWSAPI_QUERY", "cricket"),

		TargetPerRun:  getEnvIntOrDefault("TARGET_PER_RUN", 5),
		DomesticQuota: getEnvIntOrDefault("DOMESTIC_QUOTA", 3),
		WorldQuota:    getEnvIntOrDefault("WORLD_QUOTA", 2),

		PaceInterval: getEnvDurationOrDefault("PACE_INTERVAL", time.Second),

		EnableScheduler:   getEnvOrDefault("ENABLE_SCHEDULER", "true") == "true",
		CleanupHourUTC:    getEnvIntOrDefault("CLEANUP_HOUR_UTC", 3),
		RetentionWindow:   getEnvDurationOrDefault("RETENTION_WINDOW", 7*24*time.Hour),
		HeartbeatInterval: getEnvDurationOrDefault("HEARTBEAT_INTERVAL", 10*time.Minute),
		DegradedAfter:     getEnvIntOrDefault("DEGRADED_AFTER", 3),

		HTTPPort: getEnvOrDefault("HTTP_PORT", "8000"),

		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		RetryAttempts:  getEnvIntOrDefault("RETRY_ATTEMPTS", 3),
		RetryDelay:     getEnvDurationOrDefault("RETRY_DELAY", 2*time.Second),
	}

	cfg.TelegramToken = os.Getenv("BOT_TOKEN")
	cfg.TelegramChatID = os.Getenv("CHAT_ID")

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.TelegramChatID == "" {
		return fmt.Errorf("CHAT_ID is required")
	}

	switch c.Storage.Type {
	case "mongo":
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for mongo storage")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for postgres storage")
		}
	case "memory":
	default:
		return fmt.Errorf("STORAGE_TYPE must be 'mongo', 'postgres' or 'memory'")
	}

	if c.TargetPerRun <= 0 {
		return fmt.Errorf("TARGET_PER_RUN must be positive")
	}
	if c.DomesticQuota < 0 || c.WorldQuota < 0 {
		return fmt.Errorf("category quotas must not be negative")
	}
	if c.CleanupHourUTC < 0 || c.CleanupHourUTC > 23 {
		return fmt.Errorf("CLEANUP_HOUR_UTC must be within 0..23")
	}

	return nil
}
