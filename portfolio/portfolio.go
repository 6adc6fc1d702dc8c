// Package portfolio values accounts against live prices. It is
// strictly read-only: nothing here writes account state.
package portfolio

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/store"
)

// Storage is the read side of the account store.
type Storage interface {
	GetAccount(ctx context.Context, id string) (store.Account, error)
	ListHoldings(ctx context.Context, accountID string) ([]store.Holding, error)
}

// MarketData supplies valuation prices.
type MarketData interface {
	Price(ctx context.Context, symbol string) (market.Quote, error)
}

// Position is one valued holding.
type Position struct {
	Symbol          string          `json:"symbol"`
	Class           market.Class    `json:"class"`
	Quantity        decimal.Decimal `json:"quantity"`
	AveragePrice    decimal.Decimal `json:"averagePrice"`
	CurrentPrice    decimal.Decimal `json:"currentPrice"`
	MarketValue     decimal.Decimal `json:"marketValue"`
	UnrealizedPL    decimal.Decimal `json:"unrealizedPL"`
	UnrealizedPLPct decimal.Decimal `json:"unrealizedPLPct"`
	Stale           bool            `json:"stale,omitempty"`
	Priced          bool            `json:"priced"`
}

// Snapshot is a point-in-time valuation of an account.
type Snapshot struct {
	AccountID     string          `json:"accountId"`
	Currency      string          `json:"currency"`
	CashBalance   decimal.Decimal `json:"cashBalance"`
	HoldingsValue decimal.Decimal `json:"holdingsValue"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	RealizedPL    decimal.Decimal `json:"realizedPL"`
	UnrealizedPL  decimal.Decimal `json:"unrealizedPL"`
	Positions     []Position      `json:"positions"`
	GeneratedAt   time.Time       `json:"generatedAt"`
}

// Service produces portfolio snapshots.
type Service struct {
	storage Storage
	prices  MarketData
	log     *zap.Logger
	now     func() time.Time
}

// New creates a portfolio service.
func New(storage Storage, prices MarketData, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		storage: storage,
		prices:  prices,
		log:     logger,
		now:     time.Now,
	}
}

// priceWorkers caps concurrent quote lookups per snapshot.
const priceWorkers = 4

// Snapshot values every holding of the account at current prices.
// Holdings whose price cannot be resolved are still listed, flagged
// unpriced and valued at zero, so a flaky upstream degrades the
// snapshot instead of failing it.
func (s *Service) Snapshot(ctx context.Context, accountID string) (Snapshot, error) {
	acct, err := s.storage.GetAccount(ctx, accountID)
	if err != nil {
		return Snapshot{}, err
	}
	holdings, err := s.storage.ListHoldings(ctx, accountID)
	if err != nil {
		return Snapshot{}, err
	}

	positions := make([]Position, len(holdings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(priceWorkers)
	for i, h := range holdings {
		i, h := i, h
		g.Go(func() error {
			positions[i] = s.value(gctx, h)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})

	snap := Snapshot{
		AccountID:     accountID,
		Currency:      acct.Currency,
		CashBalance:   acct.Balance,
		RealizedPL:    acct.RealizedPL,
		HoldingsValue: decimal.Zero,
		UnrealizedPL:  decimal.Zero,
		Positions:     positions,
		GeneratedAt:   s.now().UTC(),
	}
	for _, p := range positions {
		snap.HoldingsValue = snap.HoldingsValue.Add(p.MarketValue)
		snap.UnrealizedPL = snap.UnrealizedPL.Add(p.UnrealizedPL)
	}
	snap.TotalValue = snap.CashBalance.Add(snap.HoldingsValue)
	return snap, nil
}

func (s *Service) value(ctx context.Context, h store.Holding) Position {
	pos := Position{
		Symbol:          h.Symbol,
		Class:           h.Class,
		Quantity:        h.Quantity,
		AveragePrice:    h.AveragePrice,
		CurrentPrice:    decimal.Zero,
		MarketValue:     decimal.Zero,
		UnrealizedPL:    decimal.Zero,
		UnrealizedPLPct: decimal.Zero,
	}

	quote, err := s.prices.Price(ctx, h.Symbol)
	if err != nil {
		s.log.Warn("holding left unpriced",
			zap.String("symbol", h.Symbol),
			zap.Error(err))
		return pos
	}

	pos.Priced = true
	pos.Stale = quote.Stale
	pos.CurrentPrice = quote.Price
	pos.MarketValue = quote.Price.Mul(h.Quantity)
	pos.UnrealizedPL = quote.Price.Sub(h.AveragePrice).Mul(h.Quantity)
	if !h.AveragePrice.IsZero() {
		pos.UnrealizedPLPct = quote.Price.Sub(h.AveragePrice).
			Div(h.AveragePrice).
			Mul(decimal.NewFromInt(100))
	}
	return pos
}
