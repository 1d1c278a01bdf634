package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Database
	DBDriver     string
	SQLiteDBPath string
	DatabaseURL  string

	// AMQP
	AMQPURL        string
	AMQPExchange   string
	AMQPQueue      string
	WorkerPrefetch int

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool

	// Analysis
	CategoryRulesFile         string
	BudgetAlertThresholds     []float64
	BudgetAlertPolicy         string
	RecommendationFailureMode string

	// Per-user snapshot cache
	CacheTTL  time.Duration
	CacheSize int

	// Chat assistant
	GeminiAPIKey string
	GeminiModel  string

	// WhatsApp notifications
	WhatsAppAPIURL   string
	WhatsAppAPIToken string

	// CSV archive on Google Cloud Storage
	CSVArchiveBucket string

	// Google Sheets mirror
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Logging
	LogLevel  string
	LogFormat string
}

// DefaultSessionSecret is only suitable for local development.
const DefaultSessionSecret = "smartsave-dev-secret-change-me"

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DBDriver:     getEnv("DB_DRIVER", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/smartsave.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "smartsave"),
		AMQPQueue:      getEnv("AMQP_QUEUE", "smartsave_notifications"),
		WorkerPrefetch: getEnvInt("WORKER_PREFETCH", 10),

		SessionSecret: getEnv("SESSION_SECRET", DefaultSessionSecret),
		SessionTTL:    getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		SecureCookies: getEnv("SECURE_COOKIES", "false") == "true",

		CategoryRulesFile:         getEnv("CATEGORY_RULES_FILE", ""),
		BudgetAlertThresholds:     getEnvFloats("BUDGET_ALERT_THRESHOLDS", []float64{50, 80, 90, 100}),
		BudgetAlertPolicy:         getEnv("BUDGET_ALERT_POLICY", "lowest"),
		RecommendationFailureMode: getEnv("RECOMMENDATION_FAILURE_MODE", "advisory"),

		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheSize: getEnvInt("CACHE_SIZE", 100),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		WhatsAppAPIURL:   getEnv("WHATSAPP_API_URL", ""),
		WhatsAppAPIToken: getEnv("WHATSAPP_API_TOKEN", ""),

		CSVArchiveBucket: getEnv("CSV_ARCHIVE_BUCKET", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Validate database driver
	switch c.DBDriver {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite driver")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres driver")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid DATABASE_URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid DATABASE_URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of [sqlite postgres]", c.DBDriver))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}
	if c.WorkerPrefetch < 1 || c.WorkerPrefetch > 1000 {
		errors = append(errors, fmt.Sprintf("invalid worker prefetch %d: must be between 1 and 1000", c.WorkerPrefetch))
	}

	// Validate sessions
	if len(c.SessionSecret) < 16 {
		errors = append(errors, "session secret must be at least 16 characters")
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	// Validate analysis settings
	if len(c.BudgetAlertThresholds) == 0 {
		errors = append(errors, "budget alert thresholds cannot be empty")
	}
	for _, th := range c.BudgetAlertThresholds {
		if th <= 0 {
			errors = append(errors, fmt.Sprintf("invalid budget alert threshold %v: must be positive", th))
		}
	}
	if c.BudgetAlertPolicy != "lowest" && c.BudgetAlertPolicy != "highest" {
		errors = append(errors, fmt.Sprintf("invalid budget alert policy '%s': must be 'lowest' or 'highest'", c.BudgetAlertPolicy))
	}
	if c.RecommendationFailureMode != "advisory" && c.RecommendationFailureMode != "empty" {
		errors = append(errors, fmt.Sprintf("invalid recommendation failure mode '%s': must be 'advisory' or 'empty'", c.RecommendationFailureMode))
	}
	if c.CategoryRulesFile != "" {
		if _, err := os.Stat(c.CategoryRulesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("category rules file does not exist: %s", c.CategoryRulesFile))
		}
	}

	// Validate cache
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	// Validate WhatsApp gateway if provided
	if c.WhatsAppAPIURL != "" {
		if u, err := url.Parse(c.WhatsAppAPIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid WhatsApp API URL '%s': must be an http(s) URL", c.WhatsAppAPIURL))
		}
	}

	// Validate logging
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// SheetsEnabled reports whether the Google Sheets mirror is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvFloats parses a comma separated list such as "50,80,90,100".
func getEnvFloats(key string, defaultValue []float64) []float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []float64
	for _, part := range strings.Split(value, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return defaultValue
		}
		out = append(out, f)
	}
	return out
}
