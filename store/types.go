// Package store persists accounts, holdings, trades and cached market
// data in SQLite. Settlements run in a single transaction guarded by a
// per-account version counter, so concurrent trades on one account
// cannot both commit against the same prior balance.
package store

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrade/market"
)

var (
	// ErrAccountNotFound indicates an unknown account id.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAuthFailure indicates an unknown API key.
	ErrAuthFailure = errors.New("authentication failed")
	// ErrVersionConflict indicates a settlement lost the optimistic
	// version check to a concurrent writer.
	ErrVersionConflict = errors.New("account version conflict")
)

// Side is the direction of a trade.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Account is a trading account: cash balance plus the realized-P&L
// accumulator. Version increments on every settlement and backs the
// optimistic concurrency check.
type Account struct {
	ID         string
	APIKey     string
	Currency   string
	Balance    decimal.Decimal
	RealizedPL decimal.Decimal
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Holding is an open position: quantity held and its weighted-average
// cost basis. One row per (account, symbol); the row is removed when
// quantity returns to zero.
type Holding struct {
	AccountID    string
	Symbol       string
	Class        market.Class
	Quantity     decimal.Decimal
	AveragePrice decimal.Decimal
	UpdatedAt    time.Time
}

// Trade is one immutable settlement record. BalanceAfter snapshots the
// account balance immediately after this trade committed, so the trade
// list replays to the current balance exactly.
type Trade struct {
	ID           string
	AccountID    string
	Symbol       string
	Class        market.Class
	Side         Side
	Quantity     decimal.Decimal
	Price        decimal.Decimal
	Fee          decimal.Decimal
	Total        decimal.Decimal
	BalanceAfter decimal.Decimal
	ExecutedAt   time.Time
}

// CachedPrice is the single cached quote row for a symbol.
type CachedPrice struct {
	Symbol      string
	Class       market.Class
	Price       decimal.Decimal
	Source      string
	RetrievedAt time.Time
}
