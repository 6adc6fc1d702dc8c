package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bucket of historical data.
type Candle struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Quote is a point-in-time price for a symbol.
type Quote struct {
	Symbol    string
	Class     Class
	Price     decimal.Decimal
	Source    string
	UpdatedAt time.Time
	// Stale marks a quote served from an expired cache entry because
	// the upstream provider could not be reached.
	Stale bool
}
