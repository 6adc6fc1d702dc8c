package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrade/market"
)

func TestPriceCacheOverwrites(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	first := CachedPrice{
		Symbol: "AAPL", Class: market.Stock, Price: d("185.20"),
		Source: "alpha_vantage", RetrievedAt: time.Now().UTC().Add(-2 * time.Minute),
	}
	require.NoError(t, s.PutCachedPrice(ctx, first))

	second := first
	second.Price = d("186.05")
	second.RetrievedAt = time.Now().UTC()
	require.NoError(t, s.PutCachedPrice(ctx, second))

	got, ok, err := s.GetCachedPrice(ctx, "AAPL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Price.Equal(d("186.05")))

	_, ok, err = s.GetCachedPrice(ctx, "MSFT")
	require.NoError(t, err)
	assert.False(t, ok)
}

func candleAt(ts time.Time, closePx string) market.Candle {
	return market.Candle{
		Time:   ts,
		Open:   d("1"),
		High:   d("2"),
		Low:    d("0.5"),
		Close:  d(closePx),
		Volume: d("100"),
	}
}

func TestUpsertCandlesIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	batch := []market.Candle{
		candleAt(base, "10"),
		candleAt(base.Add(24*time.Hour), "11"),
	}
	require.NoError(t, s.UpsertCandles(ctx, "AAPL", market.Day, batch, "alpha_vantage"))
	require.NoError(t, s.UpsertCandles(ctx, "AAPL", market.Day, batch, "alpha_vantage"))

	got, err := s.GetCandles(ctx, "AAPL", market.Day, nil, nil, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Re-upserting a bucket with new values refreshes it in place.
	require.NoError(t, s.UpsertCandles(ctx, "AAPL", market.Day,
		[]market.Candle{candleAt(base.Add(24*time.Hour), "12")}, "alpha_vantage"))

	got, err = s.GetCandles(ctx, "AAPL", market.Day, nil, nil, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[1].Close.Equal(d("12")))
}

func TestGetCandlesRangeAndLimit(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var batch []market.Candle
	for i := 0; i < 10; i++ {
		batch = append(batch, candleAt(base.Add(time.Duration(i)*24*time.Hour), "10"))
	}
	require.NoError(t, s.UpsertCandles(ctx, "AAPL", market.Day, batch, "alpha_vantage"))

	// Candles for another resolution must not leak in.
	require.NoError(t, s.UpsertCandles(ctx, "AAPL", market.Min60,
		[]market.Candle{candleAt(base, "99")}, "alpha_vantage"))

	// Limit takes the most recent candles, returned ascending.
	got, err := s.GetCandles(ctx, "AAPL", market.Day, nil, nil, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, base.Add(7*24*time.Hour), got[0].Time)
	assert.Equal(t, base.Add(9*24*time.Hour), got[2].Time)

	// Explicit range, end exclusive.
	start := base.Add(2 * 24 * time.Hour)
	end := base.Add(5 * 24 * time.Hour)
	got, err = s.GetCandles(ctx, "AAPL", market.Day, &start, &end, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, start, got[0].Time)
	assert.Equal(t, base.Add(4*24*time.Hour), got[2].Time)
}
