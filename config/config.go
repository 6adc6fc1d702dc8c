// Package config loads and validates the papertrade configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Trading    TradingConfig    `json:"trading" yaml:"trading"`
	MarketData MarketDataConfig `json:"market_data" yaml:"market_data"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
}

// AccountConfig controls account provisioning.
type AccountConfig struct {
	DefaultBalance float64 `json:"default_balance" yaml:"default_balance"`
	Currency       string  `json:"currency" yaml:"currency"`
}

// TradingConfig holds per-class transaction fees and the settlement
// retry budget for lost optimistic-lock races.
type TradingConfig struct {
	StockFee        float64 `json:"stock_fee" yaml:"stock_fee"`
	CryptoFee       float64 `json:"crypto_fee" yaml:"crypto_fee"`
	ForexFee        float64 `json:"forex_fee" yaml:"forex_fee"`
	ConflictRetries int     `json:"conflict_retries" yaml:"conflict_retries"`
}

// MarketDataConfig controls the provider client and cache policy.
type MarketDataConfig struct {
	APIKey            string `json:"api_key" yaml:"api_key"`
	BaseURL           string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	PriceTTL          string `json:"price_ttl" yaml:"price_ttl"`
	RequestsPerMinute int    `json:"requests_per_minute" yaml:"requests_per_minute"`
	WaitTimeout       string `json:"wait_timeout" yaml:"wait_timeout"`
	AllowStale        *bool  `json:"allow_stale,omitempty" yaml:"allow_stale,omitempty"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// PriceTTLDuration parses the configured price cache TTL.
func (m MarketDataConfig) PriceTTLDuration() (time.Duration, error) {
	return time.ParseDuration(m.PriceTTL)
}

// WaitTimeoutDuration parses the configured limiter wait timeout.
func (m MarketDataConfig) WaitTimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(m.WaitTimeout)
}

// StaleFallback reports whether stale cache entries may answer for a
// failed upstream. Defaults to true when unset.
func (m MarketDataConfig) StaleFallback() bool {
	if m.AllowStale == nil {
		return true
	}
	return *m.AllowStale
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, YAML for .yaml/.yml paths and
// JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Account.DefaultBalance <= 0 {
		return fmt.Errorf("account.default_balance must be positive")
	}
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Trading.StockFee < 0 || c.Trading.CryptoFee < 0 || c.Trading.ForexFee < 0 {
		return fmt.Errorf("trading fees must not be negative")
	}
	if c.Trading.ConflictRetries < 1 {
		return fmt.Errorf("trading.conflict_retries must be at least 1")
	}
	if c.MarketData.RequestsPerMinute < 1 {
		return fmt.Errorf("market_data.requests_per_minute must be at least 1")
	}
	if d, err := c.MarketData.PriceTTLDuration(); err != nil || d <= 0 {
		return fmt.Errorf("market_data.price_ttl must be a positive duration")
	}
	if d, err := c.MarketData.WaitTimeoutDuration(); err != nil || d <= 0 {
		return fmt.Errorf("market_data.wait_timeout must be a positive duration")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	return nil
}

// Default returns a configuration with the reference deployment values.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			DefaultBalance: 100000.00,
			Currency:       "USD",
		},
		Trading: TradingConfig{
			StockFee:        0.0,
			CryptoFee:       0.0,
			ForexFee:        0.0,
			ConflictRetries: 3,
		},
		MarketData: MarketDataConfig{
			PriceTTL:          "60s",
			RequestsPerMinute: 5,
			WaitTimeout:       "5s",
		},
		Storage: StorageConfig{
			DBPath: "./papertrade.sqlite",
		},
	}
}
