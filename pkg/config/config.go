package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
		BaseURL string
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration
	}

	// JWT configuration for the operator job-trigger API
	JWT struct {
		Secret      string
		ExpiryHours time.Duration
	}

	// Webhook configuration
	Webhook struct {
		// Secret signs inbound gateway callbacks. Required in production.
		Secret string
	}

	// Scheduler configuration for the background jobs
	Scheduler struct {
		PollInterval     time.Duration
		RetryInterval    time.Duration
		PostInterval     time.Duration
		RetryBaseDelay   time.Duration
		RetryMaxAttempts int
		RetryBatchSize   int
		PostBatchSize    int
		JobTimeout       time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		TrustedProxies []string
		AdminKeyHash   string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Cache settings for the in-memory dedup fallback
	Cache struct {
		Enabled     bool
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8081")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
		instance.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+instance.Server.Port)

		// Database config
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "replypilot")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
		instance.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

		// JWT config
		instance.JWT.Secret = getEnvString("JWT_SECRET", "default-jwt-secret-do-not-use-in-production")
		instance.JWT.ExpiryHours = getEnvDuration("JWT_EXPIRY", 24*time.Hour)

		// Webhook config
		instance.Webhook.Secret = getEnvString("WEBHOOK_SECRET", "")

		// Scheduler config
		instance.Scheduler.PollInterval = getEnvDuration("POLL_INTERVAL", 15*time.Minute)
		instance.Scheduler.RetryInterval = getEnvDuration("RETRY_INTERVAL", 5*time.Minute)
		instance.Scheduler.PostInterval = getEnvDuration("POST_INTERVAL", 5*time.Minute)
		instance.Scheduler.RetryBaseDelay = getEnvDuration("RETRY_BASE_DELAY", 5*time.Minute)
		instance.Scheduler.RetryMaxAttempts = getEnvInt("RETRY_MAX_ATTEMPTS", 3)
		instance.Scheduler.RetryBatchSize = getEnvInt("RETRY_BATCH_SIZE", 50)
		instance.Scheduler.PostBatchSize = getEnvInt("POST_BATCH_SIZE", 25)
		instance.Scheduler.JobTimeout = getEnvDuration("JOB_TIMEOUT", 10*time.Minute)

		// Security config
		instance.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
		instance.Security.TrustedProxies = getEnvStringSlice("TRUSTED_PROXIES", []string{"127.0.0.1"})
		instance.Security.AdminKeyHash = getEnvString("ADMIN_KEY_HASH", "")

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")

		// Cache settings
		instance.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
		instance.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
		instance.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
		instance.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Validate enforces the settings the service refuses to run without.
// A production deploy with no webhook secret would accept forged gateway
// callbacks, so that is a startup failure, not a warning.
func (c *Config) Validate() error {
	if c.Server.Env == "production" {
		if c.Webhook.Secret == "" {
			return fmt.Errorf("WEBHOOK_SECRET is required in production")
		}
		if c.JWT.Secret == "" || strings.HasPrefix(c.JWT.Secret, "default-") {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
	}
	if c.Scheduler.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
