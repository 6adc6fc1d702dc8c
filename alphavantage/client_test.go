package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrade/market"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	client := NewClient("test-key", "")
	assert.Equal(t, DefaultURL, client.baseURL)
	assert.Equal(t, "test-key", client.apiKey)
	assert.NotNil(t, client.httpClient)
}

func TestQuoteStock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "187.4400"}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	quote, err := client.Quote(context.Background(), "AAPL", market.Stock)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, market.Stock, quote.Class)
	assert.Equal(t, "187.44", quote.Price.String())
	assert.Equal(t, Source, quote.Source)
	assert.False(t, quote.Stale)
}

func TestQuoteCryptoAndForex(t *testing.T) {
	var gotFrom, gotTo string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "CURRENCY_EXCHANGE_RATE", r.URL.Query().Get("function"))
		gotFrom = r.URL.Query().Get("from_currency")
		gotTo = r.URL.Query().Get("to_currency")

		w.Write([]byte(`{"Realtime Currency Exchange Rate": {"5. Exchange Rate": "64123.50000000"}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)

	quote, err := client.Quote(context.Background(), "BTC", market.Crypto)
	require.NoError(t, err)
	assert.Equal(t, "BTC", gotFrom)
	assert.Equal(t, "USD", gotTo)
	assert.True(t, quote.Price.Equal(decimalFromString(t, "64123.5")))

	_, err = client.Quote(context.Background(), "EURUSD", market.Forex)
	require.NoError(t, err)
	assert.Equal(t, "EUR", gotFrom)
	assert.Equal(t, "USD", gotTo)
}

func TestQuoteEmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	_, err := client.Quote(context.Background(), "AAPL", market.Stock)
	assert.ErrorContains(t, err, "no quote data")
}

func TestQuoteHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	_, err := client.Quote(context.Background(), "AAPL", market.Stock)
	assert.ErrorContains(t, err, "status 429")
}

func TestCandlesDailyStock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		assert.Equal(t, "full", r.URL.Query().Get("outputsize"))

		w.Write([]byte(`{
			"Time Series (Daily)": {
				"2024-01-03": {"1. open": "184.22", "2. high": "185.88", "3. low": "183.43", "4. close": "184.25", "5. volume": "58414460"},
				"2024-01-02": {"1. open": "187.15", "2. high": "188.44", "3. low": "183.89", "4. close": "185.64", "5. volume": "82488700"}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	candles, err := client.Candles(context.Background(), "AAPL", market.Stock, market.Day)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	// Ascending by time regardless of response order.
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), candles[0].Time)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), candles[1].Time)
	assert.Equal(t, "185.64", candles[0].Close.String())
	assert.Equal(t, "82488700", candles[0].Volume.String())
}

func TestCandlesIntradayForexHasNoVolume(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "FX_INTRADAY", r.URL.Query().Get("function"))
		assert.Equal(t, "60min", r.URL.Query().Get("interval"))
		assert.Equal(t, "EUR", r.URL.Query().Get("from_symbol"))
		assert.Equal(t, "USD", r.URL.Query().Get("to_symbol"))

		w.Write([]byte(`{
			"Time Series FX (Intraday)": {
				"2024-01-02 15:00:00": {"1. open": "1.0940", "2. high": "1.0955", "3. low": "1.0931", "4. close": "1.0948"}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	candles, err := client.Candles(context.Background(), "EURUSD", market.Forex, market.Min60)
	require.NoError(t, err)
	require.Len(t, candles, 1)

	assert.True(t, candles[0].Volume.IsZero())
	assert.Equal(t, "1.0948", candles[0].Close.String())
}

func TestCandlesCryptoDailyOnly(t *testing.T) {
	t.Parallel()

	client := NewClient("test-key", "")
	_, err := client.Candles(context.Background(), "BTC", market.Crypto, market.Min60)
	assert.ErrorContains(t, err, "unsupported crypto resolution")
}

func TestCandlesMissingSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "API call frequency exceeded"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	_, err := client.Candles(context.Background(), "AAPL", market.Stock, market.Day)
	assert.ErrorContains(t, err, "no historical data")
}
