package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL    string
	MigrationsPath string
	AccountKey     string
	LogLevel       string
	LogFormat      string
	Port           string
	PrometheusPort string
	TelegramToken  string
	TelegramChatID int64
	CategoriesFile string
	Feed           FeedConfig
	Sync           SyncConfig
}

// FeedConfig describes where remote events are pulled from
type FeedConfig struct {
	EventsICSURL    string
	RecurringICSURL string
	GraphURL        string
	AccessToken     string
	PageLimit       int
	RatePerSecond   float64
	IncludeLinks    bool
}

// SyncConfig holds pass scheduling and throttling settings
type SyncConfig struct {
	Schedule         string
	MinPassInterval  time.Duration
	MaxPassesPerHour int
	BatchSize        int
	Debug            bool
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var result *multierror.Error

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		AccountKey:     os.Getenv("ACCOUNT_KEY"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
		Port:           getEnvOrDefault("PORT", "8080"),
		PrometheusPort: getEnvOrDefault("PROMETHEUS_PORT", "9090"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		CategoriesFile: getEnvOrDefault("CATEGORIES_FILE", "categories.yaml"),
		Feed: FeedConfig{
			EventsICSURL:    os.Getenv("FEED_EVENTS_ICS_URL"),
			RecurringICSURL: os.Getenv("FEED_RECURRING_ICS_URL"),
			GraphURL:        os.Getenv("FEED_GRAPH_URL"),
			AccessToken:     os.Getenv("FEED_ACCESS_TOKEN"),
		},
		Sync: SyncConfig{
			Schedule: getEnvOrDefault("SYNC_SCHEDULE", "*/30 * * * *"),
		},
	}

	var err error
	if cfg.TelegramChatID, err = parseInt64("TELEGRAM_CHAT_ID", 0); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.Feed.PageLimit, err = parseInt("FEED_PAGE_LIMIT", 100); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.Feed.RatePerSecond, err = parseFloat("FEED_RATE_PER_SEC", 2); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.Feed.IncludeLinks, err = parseBool("FEED_INCLUDE_LINKS", true); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.Sync.MinPassInterval, err = parseDuration("MIN_PASS_INTERVAL", time.Minute); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.Sync.MaxPassesPerHour, err = parseInt("MAX_PASSES_PER_HOUR", 5); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.Sync.BatchSize, err = parseInt("BATCH_SIZE", 50); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.Sync.Debug, err = parseBool("DEBUG", false); err != nil {
		result = multierror.Append(result, err)
	}

	if err := cfg.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.DatabaseURL == "" {
		result = multierror.Append(result, fmt.Errorf("DATABASE_URL environment variable is required"))
	}
	if c.AccountKey == "" {
		result = multierror.Append(result, fmt.Errorf("ACCOUNT_KEY environment variable is required"))
	}
	if strings.ContainsAny(c.AccountKey, ", ") {
		result = multierror.Append(result, fmt.Errorf("ACCOUNT_KEY must name a single account; run one process per account"))
	}
	if c.Feed.EventsICSURL == "" && c.Feed.RecurringICSURL == "" && c.Feed.GraphURL == "" {
		result = multierror.Append(result, fmt.Errorf("at least one of FEED_EVENTS_ICS_URL, FEED_RECURRING_ICS_URL or FEED_GRAPH_URL is required"))
	}
	if c.Feed.GraphURL != "" && c.Feed.AccessToken == "" {
		result = multierror.Append(result, fmt.Errorf("FEED_ACCESS_TOKEN is required with FEED_GRAPH_URL"))
	}
	if c.Sync.Schedule != "" {
		if _, err := cron.ParseStandard(c.Sync.Schedule); err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid SYNC_SCHEDULE %q: %w", c.Sync.Schedule, err))
		}
	}
	if c.Sync.MinPassInterval < 0 {
		result = multierror.Append(result, fmt.Errorf("MIN_PASS_INTERVAL must not be negative"))
	}
	if c.Sync.MaxPassesPerHour <= 0 {
		result = multierror.Append(result, fmt.Errorf("MAX_PASSES_PER_HOUR must be positive"))
	}
	if c.Sync.BatchSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("BATCH_SIZE must be positive"))
	}
	if c.Feed.PageLimit <= 0 {
		result = multierror.Append(result, fmt.Errorf("FEED_PAGE_LIMIT must be positive"))
	}
	if c.TelegramChatID != 0 && c.TelegramToken == "" {
		result = multierror.Append(result, fmt.Errorf("TELEGRAM_CHAT_ID is set but TELEGRAM_TOKEN is not"))
	}

	return result.ErrorOrNil()
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func parseInt64(key string, defaultValue int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func parseFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func parseBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func parseDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
