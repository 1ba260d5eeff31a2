// Package config loads and validates application configuration from the
// config file, environment variables and defaults via viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/pricewatch/internal/domain"
)

// Config is the root configuration for the application.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logger     LogConfig        `mapstructure:"logger"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Stores     []StoreConfig    `mapstructure:"stores"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	// Name is the name of the application
	Name string `mapstructure:"name"`
	// Version is the version of the application
	Version string `mapstructure:"version"`
	// Environment is the application environment (development, staging, production)
	Environment string `mapstructure:"environment"`
	// Debug indicates whether debug mode is enabled
	Debug bool `mapstructure:"debug"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// FetcherConfig holds per-agent fetch client settings.
type FetcherConfig struct {
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	MaxRetries        int           `mapstructure:"max_retries"`
	MinDelay          time.Duration `mapstructure:"min_delay"`
	MaxDelay          time.Duration `mapstructure:"max_delay"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// MatchingConfig holds matching engine thresholds.
type MatchingConfig struct {
	// ConfidenceThreshold is the auto-match score floor.
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	// ReviewThreshold is the needs-review score floor.
	ReviewThreshold float64 `mapstructure:"review_threshold"`
	// CandidateLimit bounds candidate retrieval per listing.
	CandidateLimit int `mapstructure:"candidate_limit"`
}

// MonitoringConfig holds metric buffering and alerting settings.
type MonitoringConfig struct {
	FlushInterval time.Duration        `mapstructure:"flush_interval"`
	BufferLimit   int                  `mapstructure:"buffer_limit"`
	Alerts        []domain.AlertConfig `mapstructure:"alerts"`
}

// SchedulerConfig holds periodic scrape settings.
type SchedulerConfig struct {
	// Cron is the cron spec for periodic full scrapes.
	Cron string `mapstructure:"cron"`
}

// WaitConfig defaults for coordinator wait/poll semantics.
const (
	DefaultWaitTimeout  = 10 * time.Minute
	DefaultPollInterval = 5 * time.Second
)

// Load builds the Config from viper's current state.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("app environment must be specified")
	}

	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %s", c.App.Environment)
	}

	if c.Matching.ConfidenceThreshold < c.Matching.ReviewThreshold {
		return errors.New("confidence_threshold must be >= review_threshold")
	}

	seen := make(map[string]struct{}, len(c.Stores))
	for i := range c.Stores {
		if err := c.Stores[i].Validate(); err != nil {
			return fmt.Errorf("store %q: %w", c.Stores[i].ID, err)
		}
		if _, dup := seen[c.Stores[i].ID]; dup {
			return fmt.Errorf("duplicate store id: %s", c.Stores[i].ID)
		}
		seen[c.Stores[i].ID] = struct{}{}
	}

	return nil
}

// SetDefaults registers default configuration values with viper.
func SetDefaults() {
	viper.SetDefault("app.name", "pricewatch")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("logger.development", true)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "pricewatch")
	viper.SetDefault("database.dbname", "pricewatch")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("fetcher.requests_per_minute", 20)
	viper.SetDefault("fetcher.max_retries", 3)
	viper.SetDefault("fetcher.min_delay", "1s")
	viper.SetDefault("fetcher.max_delay", "5s")
	viper.SetDefault("fetcher.request_timeout", "30s")

	viper.SetDefault("matching.confidence_threshold", 0.8)
	viper.SetDefault("matching.review_threshold", 0.6)
	viper.SetDefault("matching.candidate_limit", 25)

	viper.SetDefault("monitoring.flush_interval", "60s")
	viper.SetDefault("monitoring.buffer_limit", 100)

	viper.SetDefault("scheduler.cron", "0 */6 * * *")
}
