package portfolio

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/pkg/id"
	"github.com/rustyeddy/papertrade/store"
)

type fakePrices struct {
	mu     sync.Mutex
	prices map[string]string
	stale  map[string]bool
	calls  int
}

func (f *fakePrices) Price(_ context.Context, symbol string) (market.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	p, ok := f.prices[symbol]
	if !ok {
		return market.Quote{}, fmt.Errorf("no quote for %s", symbol)
	}
	return market.Quote{
		Symbol: symbol,
		Class:  market.Classify(symbol),
		Price:  decimal.RequireFromString(p),
		Stale:  f.stale[symbol],
	}, nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedAccount(t *testing.T, st *store.Store, balance string, holdings map[string][2]string) store.Account {
	t.Helper()
	acct, err := st.CreateAccount(context.Background(), "USD", d(balance))
	require.NoError(t, err)

	for symbol, qp := range holdings {
		fresh, err := st.GetAccount(context.Background(), acct.ID)
		require.NoError(t, err)
		err = st.ApplySettlement(context.Background(), store.Settlement{
			AccountID:       acct.ID,
			ExpectedVersion: fresh.Version,
			Account:         fresh,
			Holding: &store.Holding{
				AccountID:    acct.ID,
				Symbol:       symbol,
				Class:        market.Classify(symbol),
				Quantity:     d(qp[0]),
				AveragePrice: d(qp[1]),
			},
			Trade: store.Trade{
				ID: id.New(), AccountID: acct.ID, Symbol: symbol,
				Class: market.Classify(symbol), Side: store.Buy,
				Quantity: d(qp[0]), Price: d(qp[1]), Fee: d("0"),
				Total:        d(qp[0]).Mul(d(qp[1])),
				BalanceAfter: fresh.Balance,
				ExecutedAt:   time.Now().UTC(),
			},
		})
		require.NoError(t, err)
	}

	got, err := st.GetAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	return got
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "portfolio.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSnapshotValuesHoldings(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	acct := seedAccount(t, st, "10000", map[string][2]string{
		"AAPL": {"10", "100"},
		"BTC":  {"0.5", "40000"},
	})

	prices := &fakePrices{prices: map[string]string{"AAPL": "120", "BTC": "50000"}}
	svc := New(st, prices, nil)

	snap, err := svc.Snapshot(context.Background(), acct.ID)
	require.NoError(t, err)

	require.Len(t, snap.Positions, 2)
	assert.Equal(t, "AAPL", snap.Positions[0].Symbol, "positions sorted by symbol")

	aapl := snap.Positions[0]
	assert.True(t, aapl.Priced)
	assert.True(t, aapl.MarketValue.Equal(d("1200")))
	assert.True(t, aapl.UnrealizedPL.Equal(d("200")))
	assert.True(t, aapl.UnrealizedPLPct.Equal(d("20")))

	btc := snap.Positions[1]
	assert.True(t, btc.MarketValue.Equal(d("25000")))
	assert.True(t, btc.UnrealizedPL.Equal(d("5000")))

	assert.True(t, snap.HoldingsValue.Equal(d("26200")))
	assert.True(t, snap.TotalValue.Equal(d("36200")))
	assert.True(t, snap.UnrealizedPL.Equal(d("5200")))
}

func TestSnapshotDegradesOnPriceFailure(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	acct := seedAccount(t, st, "1000", map[string][2]string{
		"AAPL": {"10", "100"},
		"MSFT": {"5", "300"},
	})

	// Only AAPL resolves.
	prices := &fakePrices{prices: map[string]string{"AAPL": "110"}}
	svc := New(st, prices, nil)

	snap, err := svc.Snapshot(context.Background(), acct.ID)
	require.NoError(t, err)
	require.Len(t, snap.Positions, 2)

	msft := snap.Positions[1]
	assert.Equal(t, "MSFT", msft.Symbol)
	assert.False(t, msft.Priced)
	assert.True(t, msft.MarketValue.IsZero())

	// Totals cover only what could be priced.
	assert.True(t, snap.HoldingsValue.Equal(d("1100")))
	assert.True(t, snap.TotalValue.Equal(d("2100")))
}

func TestSnapshotEmptyAccount(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	acct := seedAccount(t, st, "100000", nil)

	prices := &fakePrices{prices: map[string]string{}}
	svc := New(st, prices, nil)

	snap, err := svc.Snapshot(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Empty(t, snap.Positions)
	assert.True(t, snap.CashBalance.Equal(d("100000")))
	assert.True(t, snap.TotalValue.Equal(d("100000")))
	assert.Zero(t, prices.calls)
}

func TestSnapshotUnknownAccount(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := New(st, &fakePrices{}, nil)

	_, err := svc.Snapshot(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
}

func TestSnapshotMarksStalePrices(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	acct := seedAccount(t, st, "1000", map[string][2]string{
		"AAPL": {"10", "100"},
	})

	prices := &fakePrices{
		prices: map[string]string{"AAPL": "105"},
		stale:  map[string]bool{"AAPL": true},
	}
	svc := New(st, prices, nil)

	snap, err := svc.Snapshot(context.Background(), acct.ID)
	require.NoError(t, err)
	require.Len(t, snap.Positions, 1)
	assert.True(t, snap.Positions[0].Stale)
	assert.True(t, snap.Positions[0].MarketValue.Equal(d("1050")))
}
