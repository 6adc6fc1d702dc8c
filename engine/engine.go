// Package engine validates and settles orders against account state.
// It is the only writer of balances, holdings and trade records.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/pkg/id"
	"github.com/rustyeddy/papertrade/pkg/retry"
	"github.com/rustyeddy/papertrade/store"
)

// MarketData supplies execution prices.
type MarketData interface {
	Price(ctx context.Context, symbol string) (market.Quote, error)
}

// Storage is the persistence the engine settles against.
type Storage interface {
	CreateAccount(ctx context.Context, currency string, balance decimal.Decimal) (store.Account, error)
	GetAccount(ctx context.Context, id string) (store.Account, error)
	ResetAccount(ctx context.Context, id string, balance decimal.Decimal) error
	GetHolding(ctx context.Context, accountID, symbol string) (store.Holding, bool, error)
	ApplySettlement(ctx context.Context, st store.Settlement) error
}

// Fees are the per-class transaction fees charged on every trade.
type Fees struct {
	Stock  decimal.Decimal
	Crypto decimal.Decimal
	Forex  decimal.Decimal
}

// For returns the fee for an asset class.
func (f Fees) For(class market.Class) decimal.Decimal {
	switch class {
	case market.Crypto:
		return f.Crypto
	case market.Forex:
		return f.Forex
	default:
		return f.Stock
	}
}

// Options configures the engine.
type Options struct {
	Fees            Fees
	DefaultBalance  decimal.Decimal
	Currency        string
	ConflictRetries int // settlement attempts before surfacing a conflict
	Logger          *zap.Logger
}

// Engine executes trades and provisions accounts.
type Engine struct {
	storage Storage
	prices  MarketData
	fees    Fees
	balance decimal.Decimal
	curr    string
	retry   retry.Policy
	log     *zap.Logger
	now     func() time.Time
}

// New creates an engine.
func New(storage Storage, prices MarketData, opts Options) *Engine {
	if opts.DefaultBalance.IsZero() {
		opts.DefaultBalance = decimal.NewFromInt(100000)
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if opts.ConflictRetries < 1 {
		opts.ConflictRetries = 3
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Engine{
		storage: storage,
		prices:  prices,
		fees:    opts.Fees,
		balance: opts.DefaultBalance,
		curr:    opts.Currency,
		retry: retry.Policy{
			Attempts: opts.ConflictRetries,
			Initial:  25 * time.Millisecond,
			Max:      250 * time.Millisecond,
			Jitter:   0.2,
		},
		log: opts.Logger,
		now: time.Now,
	}
}

// CreateAccount provisions a new account with the default balance.
func (e *Engine) CreateAccount(ctx context.Context) (store.Account, error) {
	return e.storage.CreateAccount(ctx, e.curr, e.balance)
}

// ResetAccount restores an account to the default balance and clears
// its positions and trade history.
func (e *Engine) ResetAccount(ctx context.Context, accountID string) error {
	return e.storage.ResetAccount(ctx, accountID, e.balance)
}

// TradeResult is the outcome of a settled order.
type TradeResult struct {
	Trade   store.Trade
	Holding *store.Holding // position after the trade; nil when closed out
}

// Execute validates and settles one order. Validation runs in a fixed
// sequence with no partial effects: classification, quantity shape,
// market hours, execution price, funds/holdings. The settlement itself
// is atomic; a lost race against a concurrent trade on the same
// account re-validates from fresh state a bounded number of times
// before surfacing ErrConcurrencyConflict.
func (e *Engine) Execute(ctx context.Context, accountID, symbol string, side store.Side, quantity decimal.Decimal) (TradeResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	class := market.Classify(symbol)

	if !class.ValidQuantity(quantity) {
		return TradeResult{}, fmt.Errorf("%w: %s %s of %s", ErrInvalidQuantity, quantity, class, symbol)
	}
	if !class.IsOpen(e.now()) {
		return TradeResult{}, fmt.Errorf("%w: %s market", ErrMarketClosed, class)
	}

	quote, err := e.prices.Price(ctx, symbol)
	if err != nil {
		return TradeResult{}, err
	}

	var result TradeResult
	err = e.retry.Do(ctx,
		func(err error) bool { return errors.Is(err, store.ErrVersionConflict) },
		func(ctx context.Context) error {
			r, err := e.settle(ctx, accountID, symbol, class, side, quantity, quote.Price)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
	if errors.Is(err, store.ErrVersionConflict) {
		return TradeResult{}, fmt.Errorf("%w: account %s", ErrConcurrencyConflict, accountID)
	}
	if err != nil {
		return TradeResult{}, err
	}

	e.log.Info("trade settled",
		zap.String("trade_id", result.Trade.ID),
		zap.String("account_id", accountID),
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.String("quantity", quantity.String()),
		zap.String("price", quote.Price.String()),
		zap.String("balance", result.Trade.BalanceAfter.String()))
	return result, nil
}

// settle runs the funds check and settlement once against the current
// account version.
func (e *Engine) settle(ctx context.Context, accountID, symbol string, class market.Class, side store.Side, quantity, price decimal.Decimal) (TradeResult, error) {
	acct, err := e.storage.GetAccount(ctx, accountID)
	if err != nil {
		return TradeResult{}, err
	}
	holding, haveHolding, err := e.storage.GetHolding(ctx, accountID, symbol)
	if err != nil {
		return TradeResult{}, err
	}

	fee := e.fees.For(class)
	notional := price.Mul(quantity)
	total := notional.Add(fee)

	var newHolding *store.Holding

	switch side {
	case store.Buy:
		if acct.Balance.LessThan(total) {
			return TradeResult{}, fmt.Errorf("%w: required %s, available %s",
				ErrInsufficientBalance, total, acct.Balance)
		}
		acct.Balance = acct.Balance.Sub(total)

		if haveHolding {
			// Weighted-average blend of the prior lot and this one.
			newQty := holding.Quantity.Add(quantity)
			holding.AveragePrice = holding.Quantity.Mul(holding.AveragePrice).
				Add(quantity.Mul(price)).
				Div(newQty)
			holding.Quantity = newQty
		} else {
			holding = store.Holding{
				AccountID:    accountID,
				Symbol:       symbol,
				Class:        class,
				Quantity:     quantity,
				AveragePrice: price,
			}
		}
		newHolding = &holding

	case store.Sell:
		available := decimal.Zero
		if haveHolding {
			available = holding.Quantity
		}
		if available.LessThan(quantity) {
			return TradeResult{}, fmt.Errorf("%w: required %s, available %s",
				ErrInsufficientHoldings, quantity, available)
		}

		acct.Balance = acct.Balance.Add(notional.Sub(fee))
		acct.RealizedPL = acct.RealizedPL.Add(price.Sub(holding.AveragePrice).Mul(quantity))

		holding.Quantity = holding.Quantity.Sub(quantity)
		if holding.Quantity.IsZero() {
			// Position closed; the cost basis goes with it.
			newHolding = nil
		} else {
			newHolding = &holding
		}

	default:
		return TradeResult{}, fmt.Errorf("unknown trade side %q", side)
	}

	trade := store.Trade{
		ID:           id.New(),
		AccountID:    accountID,
		Symbol:       symbol,
		Class:        class,
		Side:         side,
		Quantity:     quantity,
		Price:        price,
		Fee:          fee,
		Total:        total,
		BalanceAfter: acct.Balance,
		ExecutedAt:   e.now().UTC(),
	}

	err = e.storage.ApplySettlement(ctx, store.Settlement{
		AccountID:       accountID,
		ExpectedVersion: acct.Version,
		Account:         acct,
		Holding:         newHolding,
		Trade:           trade,
	})
	if err != nil {
		return TradeResult{}, err
	}
	return TradeResult{Trade: trade, Holding: newHolding}, nil
}
