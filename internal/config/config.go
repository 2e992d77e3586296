// Package config defines service configuration structures and loading hooks.
//
// Values are layered by Load: defaults from New, an optional YAML file, then
// CYCLINGDB_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// DefaultSourceURL is the public rider export of the game database.
const DefaultSourceURL = "https://web.cyanide-studio.com/games/cycling/2025/pcm/riders/?export=csv"

// Specialization resolution modes.
const (
	SpecializationAuto    = "auto"
	SpecializationColumn  = "column"
	SpecializationDerived = "derived"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// SourceURL is fetched when the cache is absent or unusable.
	SourceURL string `koanf:"source_url"`

	// CachePath holds the last successfully parsed remote bytes.
	CachePath string `koanf:"cache_path"`

	// FetchTimeoutMS bounds a single fetch attempt.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// FetchRetries is the number of retries after the first attempt.
	FetchRetries int `koanf:"fetch_retries"`

	// FetchRetryDelayMS is the initial backoff; it doubles per retry.
	FetchRetryDelayMS int `koanf:"fetch_retry_delay_ms"`

	// MaxBodyBytes caps the size of the remote response.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// MaxResultLimit caps GET /riders?limit.
	MaxResultLimit int `koanf:"max_result_limit"`

	// DefaultResultLimit applies when no limit is given.
	DefaultResultLimit int `koanf:"default_result_limit"`

	// SpecializationMode is auto, column or derived.
	SpecializationMode string `koanf:"specialization_mode"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		SourceURL:          DefaultSourceURL,
		CachePath:          "data/riders.csv",
		FetchTimeoutMS:     30_000,
		FetchRetries:       2,
		FetchRetryDelayMS:  500,
		MaxBodyBytes:       16 << 20,
		MaxResultLimit:     1000,
		DefaultResultLimit: 100,
		SpecializationMode: SpecializationAuto,
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// FetchRetryDelay returns FetchRetryDelayMS as a duration.
func (c *Config) FetchRetryDelay() time.Duration {
	return time.Duration(c.FetchRetryDelayMS) * time.Millisecond
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.SourceURL != "" {
		u, err := url.Parse(c.SourceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: source_url %q must be an absolute http(s) URL", ErrInvalidConfig, c.SourceURL)
		}
	}
	if c.SourceURL == "" && c.CachePath == "" {
		return fmt.Errorf("%w: one of source_url or cache_path is required", ErrInvalidConfig)
	}
	if c.FetchTimeoutMS <= 0 {
		return fmt.Errorf("%w: fetch_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.FetchRetries < 0 || c.FetchRetryDelayMS < 0 {
		return fmt.Errorf("%w: fetch_retries and fetch_retry_delay_ms must not be negative", ErrInvalidConfig)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}
	if c.MaxResultLimit <= 0 {
		return fmt.Errorf("%w: max_result_limit must be positive", ErrInvalidConfig)
	}
	if c.DefaultResultLimit <= 0 || c.DefaultResultLimit > c.MaxResultLimit {
		return fmt.Errorf("%w: default_result_limit must be in [1, max_result_limit]", ErrInvalidConfig)
	}
	mode := strings.ToLower(c.SpecializationMode)
	if !slices.Contains([]string{SpecializationAuto, SpecializationColumn, SpecializationDerived}, mode) {
		return fmt.Errorf("%w: unknown specialization_mode %q", ErrInvalidConfig, c.SpecializationMode)
	}
	c.SpecializationMode = mode
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
