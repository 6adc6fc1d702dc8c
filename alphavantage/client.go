// Package alphavantage implements the market-data provider client.
//
// Alpha Vantage serves stocks, crypto and forex through one query
// endpoint with per-class functions. The free tier is strictly rate
// limited, so callers are expected to go through the marketdata cache
// rather than hitting this client directly.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrade/market"
)

// DefaultURL is the Alpha Vantage query endpoint.
const DefaultURL = "https://www.alphavantage.co/query"

// Source tags quotes and candles produced by this client.
const Source = "alpha_vantage"

// Client is an Alpha Vantage API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the given API key. An empty baseURL
// selects the production endpoint.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Quote fetches the current price for a symbol of the given class.
func (c *Client) Quote(ctx context.Context, symbol string, class market.Class) (market.Quote, error) {
	params := url.Values{}
	switch class {
	case market.Crypto:
		params.Set("function", "CURRENCY_EXCHANGE_RATE")
		params.Set("from_currency", symbol)
		params.Set("to_currency", "USD")
	case market.Forex:
		params.Set("function", "CURRENCY_EXCHANGE_RATE")
		params.Set("from_currency", symbol[:3])
		params.Set("to_currency", symbol[3:6])
	default:
		params.Set("function", "GLOBAL_QUOTE")
		params.Set("symbol", symbol)
	}

	var resp struct {
		GlobalQuote  map[string]string `json:"Global Quote"`
		ExchangeRate map[string]string `json:"Realtime Currency Exchange Rate"`
	}
	if err := c.get(ctx, params, &resp); err != nil {
		return market.Quote{}, err
	}

	var raw string
	if class == market.Stock {
		raw = resp.GlobalQuote["05. price"]
	} else {
		raw = resp.ExchangeRate["5. Exchange Rate"]
	}
	if raw == "" {
		return market.Quote{}, fmt.Errorf("no quote data for %s", symbol)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return market.Quote{}, fmt.Errorf("parse price %q: %w", raw, err)
	}

	return market.Quote{
		Symbol:    symbol,
		Class:     class,
		Price:     price,
		Source:    Source,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Candles fetches historical OHLCV data. The resolution must already
// be canonical. Alpha Vantage serves whole series per call; the caller
// trims to the window it needs.
func (c *Client) Candles(ctx context.Context, symbol string, class market.Class, res market.Resolution) ([]market.Candle, error) {
	params, seriesKey, err := candleParams(symbol, class, res)
	if err != nil {
		return nil, err
	}

	var resp map[string]json.RawMessage
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}

	raw, ok := resp[seriesKey]
	if !ok {
		return nil, fmt.Errorf("no historical data for %s", symbol)
	}

	var series map[string]map[string]string
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, fmt.Errorf("decode time series: %w", err)
	}

	candles := make([]market.Candle, 0, len(series))
	for stamp, values := range series {
		candle, err := parseCandle(stamp, values, class)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return candles, nil
}

// candleParams selects the API function and response key for a
// class/resolution pair. Intraday data exists for stocks and forex up
// to 60 minutes; crypto history is daily only.
func candleParams(symbol string, class market.Class, res market.Resolution) (url.Values, string, error) {
	params := url.Values{}
	intraday := res == market.Min1 || res == market.Min5 || res == market.Min15 ||
		res == market.Min30 || res == market.Min60

	switch class {
	case market.Crypto:
		if res != market.Day {
			return nil, "", fmt.Errorf("unsupported crypto resolution %s", res)
		}
		params.Set("function", "DIGITAL_CURRENCY_DAILY")
		params.Set("symbol", symbol)
		params.Set("market", "USD")
		return params, "Time Series (Digital Currency Daily)", nil

	case market.Forex:
		params.Set("from_symbol", symbol[:3])
		params.Set("to_symbol", symbol[3:6])
		if intraday {
			params.Set("function", "FX_INTRADAY")
			params.Set("interval", string(res)+"min")
			params.Set("outputsize", "full")
			return params, "Time Series FX (Intraday)", nil
		}
		if res == market.Day {
			params.Set("function", "FX_DAILY")
			params.Set("outputsize", "full")
			return params, "Time Series FX (Daily)", nil
		}
		return nil, "", fmt.Errorf("unsupported forex resolution %s", res)

	default:
		params.Set("symbol", symbol)
		switch {
		case intraday:
			interval := string(res) + "min"
			params.Set("function", "TIME_SERIES_INTRADAY")
			params.Set("interval", interval)
			params.Set("outputsize", "full")
			return params, fmt.Sprintf("Time Series (%s)", interval), nil
		case res == market.Day:
			params.Set("function", "TIME_SERIES_DAILY")
			params.Set("outputsize", "full")
			return params, "Time Series (Daily)", nil
		case res == market.Week:
			params.Set("function", "TIME_SERIES_WEEKLY")
			return params, "Weekly Time Series", nil
		case res == market.Month:
			params.Set("function", "TIME_SERIES_MONTHLY")
			return params, "Monthly Time Series", nil
		}
		return nil, "", fmt.Errorf("unsupported stock resolution %s", res)
	}
}

// fieldKeys maps the per-class JSON field names within one candle.
var fieldKeys = map[market.Class][5]string{
	market.Stock:  {"1. open", "2. high", "3. low", "4. close", "5. volume"},
	market.Forex:  {"1. open", "2. high", "3. low", "4. close", ""},
	market.Crypto: {"1a. open (USD)", "2a. high (USD)", "3a. low (USD)", "4a. close (USD)", "5. volume"},
}

func parseCandle(stamp string, values map[string]string, class market.Class) (market.Candle, error) {
	t, err := parseStamp(stamp)
	if err != nil {
		return market.Candle{}, err
	}

	keys := fieldKeys[class]
	candle := market.Candle{Time: t, Volume: decimal.Zero}

	dst := []*decimal.Decimal{&candle.Open, &candle.High, &candle.Low, &candle.Close}
	for i, key := range keys[:4] {
		v, err := decimal.NewFromString(values[key])
		if err != nil {
			return market.Candle{}, fmt.Errorf("parse %s at %s: %w", key, stamp, err)
		}
		*dst[i] = v
	}

	// Forex series carry no volume.
	if keys[4] != "" {
		v, err := decimal.NewFromString(values[keys[4]])
		if err != nil {
			return market.Candle{}, fmt.Errorf("parse volume at %s: %w", stamp, err)
		}
		candle.Volume = v
	}
	return candle, nil
}

func parseStamp(stamp string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, stamp, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", stamp)
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
