package market

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		symbol string
		want   Class
	}{
		{"BTC", Crypto},
		{"ETH", Crypto},
		{"DOGE", Crypto},
		{"btc", Crypto}, // case-insensitive
		{"  sol ", Crypto},
		{"EURUSD", Forex},
		{"USDJPY", Forex},
		{"GBPCHF", Forex},
		{"AUDNZD", Forex},
		{"eurusd", Forex},
		{"AAPL", Stock},
		{"MSFT", Stock},
		{"TSLA", Stock},
		{"BRK", Stock},    // 3 letters, not a crypto ticker
		{"EURXXX", Stock}, // second half not a currency code
		{"XXXUSD", Stock}, // first half not a currency code
		{"EUR USD", Stock},
		{"EURUS1", Stock}, // non-alphabetic
		{"GOOGL", Stock},
		{"", Stock},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.symbol))
		})
	}
}

func TestValidQuantity(t *testing.T) {
	t.Parallel()

	d := decimal.RequireFromString

	tests := []struct {
		name  string
		class Class
		qty   string
		want  bool
	}{
		{"stock_whole", Stock, "10", true},
		{"stock_fractional", Stock, "1.5", false},
		{"stock_zero", Stock, "0", false},
		{"stock_negative", Stock, "-3", false},
		{"crypto_small", Crypto, "0.00000001", true},
		{"crypto_below_step", Crypto, "0.000000001", false},
		{"crypto_typical", Crypto, "0.25", true},
		{"forex_step", Forex, "0.0001", true},
		{"forex_below_step", Forex, "0.00001", false},
		{"forex_zero", Forex, "0", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.class.ValidQuantity(d(tt.qty)))
		})
	}
}
