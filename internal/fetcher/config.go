// Package fetcher provides the rate-limited HTTP fetch client used by all
// scraper agents.
package fetcher

import (
	"time"
)

// Defaults for the fetch client.
const (
	// DefaultRequestsPerMinute is the per-agent request budget.
	DefaultRequestsPerMinute = 20
	// DefaultMaxRetries bounds retry attempts for a single URL.
	DefaultMaxRetries = 3
	// DefaultMinDelay is the lower bound of the inter-request jitter.
	DefaultMinDelay = 1 * time.Second
	// DefaultMaxDelay is the upper bound of the inter-request jitter.
	DefaultMaxDelay = 5 * time.Second
	// DefaultRequestTimeout is the per-request HTTP timeout.
	DefaultRequestTimeout = 30 * time.Second
	// DefaultWindow is the rate-limit accounting window.
	DefaultWindow = time.Minute
)

// backoffBase is the unit multiplied by 2^attempt between retries.
const backoffBase = time.Second

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// Config configures a Fetcher.
type Config struct {
	// RequestsPerMinute is the request budget per accounting window.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	// MaxRetries is the retry cap per URL.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
	// MinDelay and MaxDelay bound the randomized jitter between requests.
	MinDelay time.Duration `yaml:"min_delay" mapstructure:"min_delay"`
	MaxDelay time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
	// RequestTimeout is the per-request HTTP timeout.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	// Window is the rate-limit accounting window. Exposed for tests;
	// production callers should leave it at the default.
	Window time.Duration `yaml:"-" mapstructure:"-"`
}

// withDefaults fills zero values with package defaults.
func (c Config) withDefaults() Config {
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MinDelay <= 0 && c.MaxDelay <= 0 {
		c.MinDelay = DefaultMinDelay
		c.MaxDelay = DefaultMaxDelay
	}
	if c.MaxDelay < c.MinDelay {
		c.MaxDelay = c.MinDelay
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}
