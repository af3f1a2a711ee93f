// Package common provides shared utilities for brvmwatch
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for brvmwatch
type Config struct {
	Environment string          `toml:"environment"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Alerts      AlertsConfig    `toml:"alerts"`
	Analytics   AnalyticsConfig `toml:"analytics"`
	Logging     LoggingConfig   `toml:"logging"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Path string `toml:"path"` // BadgerHold database directory
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	BRVM   BRVMConfig   `toml:"brvm"`
	Gemini GeminiConfig `toml:"gemini"`
}

// BRVMConfig holds BRVM price provider configuration
type BRVMConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"` // requests per second
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *BRVMConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration for report narratives
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// AlertsConfig holds alert evaluation configuration
type AlertsConfig struct {
	Interval              string  `toml:"interval"`                // evaluation pass cadence
	Concurrency           int     `toml:"concurrency"`             // max concurrent rule evaluations per pass
	PriceTimeout          string  `toml:"price_timeout"`           // per-rule price fetch timeout
	EscalateAfterFailures int     `toml:"escalate_after_failures"` // warn after N consecutive DataUnavailable passes, 0 disables
	WatchlistMovePct      float64 `toml:"watchlist_move_pct"`      // daily move that makes a watchlist ticker notable
	PortfolioInterval     string  `toml:"portfolio_interval"`      // whole-portfolio check cadence
	PortfolioLossPct      float64 `toml:"portfolio_loss_pct"`      // total-return loss that notifies, 0 disables
	PortfolioGainPct      float64 `toml:"portfolio_gain_pct"`      // total-return gain that notifies, 0 disables
}

// GetInterval parses and returns the evaluation interval
func (c *AlertsConfig) GetInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// GetPriceTimeout parses and returns the per-rule price fetch timeout
func (c *AlertsConfig) GetPriceTimeout() time.Duration {
	d, err := time.ParseDuration(c.PriceTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetConcurrency returns the worker pool size, always at least 1
func (c *AlertsConfig) GetConcurrency() int {
	if c.Concurrency < 1 {
		return 4
	}
	return c.Concurrency
}

// GetPortfolioInterval parses and returns the whole-portfolio check cadence
func (c *AlertsConfig) GetPortfolioInterval() time.Duration {
	d, err := time.ParseDuration(c.PortfolioInterval)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// AnalyticsConfig holds analytics inputs that are not derivable from prices
type AnalyticsConfig struct {
	// EPS maps tickers to their published earnings per share. The P/E ratio
	// is only computed for tickers listed here; it is never estimated.
	EPS map[string]float64 `toml:"eps"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Path: "data/brvmwatch",
		},
		Clients: ClientsConfig{
			BRVM: BRVMConfig{
				BaseURL:   "https://www.richbourse.com/api",
				RateLimit: 5,
				Timeout:   "30s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Alerts: AlertsConfig{
			Interval:              "15m",
			Concurrency:           4,
			PriceTimeout:          "10s",
			EscalateAfterFailures: 3,
			WatchlistMovePct:      5.0,
			PortfolioInterval:     "24h",
			PortfolioLossPct:      5.0,
			PortfolioGainPct:      10.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("BRVMWATCH_ENV"); env != "" {
		config.Environment = env
	}

	if path := os.Getenv("BRVMWATCH_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if level := os.Getenv("BRVMWATCH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if url := os.Getenv("BRVMWATCH_BRVM_BASE_URL"); url != "" {
		config.Clients.BRVM.BaseURL = url
	}

	if key := os.Getenv("BRVMWATCH_GEMINI_API_KEY"); key != "" {
		config.Clients.Gemini.APIKey = key
	}

	if interval := os.Getenv("BRVMWATCH_ALERT_INTERVAL"); interval != "" {
		config.Alerts.Interval = interval
	}

	if conc := os.Getenv("BRVMWATCH_ALERT_CONCURRENCY"); conc != "" {
		if n, err := strconv.Atoi(conc); err == nil {
			config.Alerts.Concurrency = n
		}
	}
}
