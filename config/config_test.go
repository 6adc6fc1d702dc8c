package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 100000.00, cfg.Account.DefaultBalance)
	assert.Equal(t, 5, cfg.MarketData.RequestsPerMinute)
	assert.True(t, cfg.MarketData.StaleFallback())

	ttl, err := cfg.MarketData.PriceTTLDuration()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)
}

func TestLoadFromFileYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
account:
  default_balance: 50000
  currency: USD
trading:
  stock_fee: 1.5
  conflict_retries: 5
market_data:
  api_key: test-key
  price_ttl: 30s
  requests_per_minute: 10
  wait_timeout: 2s
  allow_stale: false
storage:
  db_path: /tmp/test.sqlite
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 50000.0, cfg.Account.DefaultBalance)
	assert.Equal(t, 1.5, cfg.Trading.StockFee)
	assert.Equal(t, 5, cfg.Trading.ConflictRetries)
	assert.Equal(t, "test-key", cfg.MarketData.APIKey)
	assert.False(t, cfg.MarketData.StaleFallback())
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero_balance", func(c *Config) { c.Account.DefaultBalance = 0 }},
		{"no_currency", func(c *Config) { c.Account.Currency = "" }},
		{"negative_fee", func(c *Config) { c.Trading.CryptoFee = -1 }},
		{"zero_retries", func(c *Config) { c.Trading.ConflictRetries = 0 }},
		{"zero_budget", func(c *Config) { c.MarketData.RequestsPerMinute = 0 }},
		{"bad_ttl", func(c *Config) { c.MarketData.PriceTTL = "soon" }},
		{"no_db_path", func(c *Config) { c.Storage.DBPath = "" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
