// Package marketdata serves prices and historical candles from cache,
// shielding the rest of the system from the provider's rate limits.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/pkg/retry"
	"github.com/rustyeddy/papertrade/store"
)

var (
	// ErrMarketDataUnavailable indicates the upstream failed and no
	// cached data could answer instead.
	ErrMarketDataUnavailable = errors.New("market data unavailable")
	// ErrInvalidRange indicates a history request with start after end.
	ErrInvalidRange = errors.New("invalid time range")
)

// Provider fetches raw market data. It is treated as unreliable and
// rate-limited; its errors never reach callers directly.
type Provider interface {
	Quote(ctx context.Context, symbol string, class market.Class) (market.Quote, error)
	Candles(ctx context.Context, symbol string, class market.Class, res market.Resolution) ([]market.Candle, error)
}

// Storage is the persistence the cache relies on.
type Storage interface {
	GetCachedPrice(ctx context.Context, symbol string) (store.CachedPrice, bool, error)
	PutCachedPrice(ctx context.Context, cp store.CachedPrice) error
	GetCandles(ctx context.Context, symbol string, res market.Resolution, start, end *time.Time, limit int) ([]market.Candle, error)
	UpsertCandles(ctx context.Context, symbol string, res market.Resolution, candles []market.Candle, source string) error
}

// Options configures the cache policy.
type Options struct {
	PriceTTL          time.Duration // quote freshness window
	RequestsPerMinute int           // upstream budget per rolling minute
	WaitTimeout       time.Duration // longest a caller waits on the limiter
	AllowStale        bool          // serve expired cache when upstream fails
	Source            string        // provenance tag for stored candles
	Logger            *zap.Logger
}

// DefaultHistoryLimit is used when a history request passes limit <= 0.
const DefaultHistoryLimit = 500

// MaxHistoryLimit caps a single history response.
const MaxHistoryLimit = 5000

// Service is the market data cache.
type Service struct {
	storage    Storage
	provider   Provider
	limiter    *Limiter
	flight     singleflight.Group
	ttl        time.Duration
	wait       time.Duration
	allowStale bool
	source     string
	retry      retry.Policy
	log        *zap.Logger
	now        func() time.Time
}

// New creates the cache service.
func New(storage Storage, provider Provider, opts Options) *Service {
	if opts.PriceTTL <= 0 {
		opts.PriceTTL = time.Minute
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 5
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 5 * time.Second
	}
	if opts.Source == "" {
		opts.Source = "alpha_vantage"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Service{
		storage:    storage,
		provider:   provider,
		limiter:    NewLimiter(opts.RequestsPerMinute, time.Minute),
		ttl:        opts.PriceTTL,
		wait:       opts.WaitTimeout,
		allowStale: opts.AllowStale,
		source:     opts.Source,
		retry: retry.Policy{
			Attempts: 2,
			Initial:  200 * time.Millisecond,
			Max:      time.Second,
			Jitter:   0.2,
		},
		log: opts.Logger,
		now: time.Now,
	}
}

// Price returns the current price for a symbol. A cache entry younger
// than the TTL answers directly; otherwise one upstream fetch is made
// (concurrent callers for the same symbol share it). If the upstream
// fails, an expired entry answers marked stale; with no entry at all
// the request fails with ErrMarketDataUnavailable.
func (s *Service) Price(ctx context.Context, symbol string) (market.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	class := market.Classify(symbol)

	cached, haveCached, err := s.storage.GetCachedPrice(ctx, symbol)
	if err != nil {
		return market.Quote{}, err
	}
	if haveCached && s.now().Sub(cached.RetrievedAt) < s.ttl {
		return cachedQuote(cached, false), nil
	}

	v, err, _ := s.flight.Do("price:"+symbol, func() (any, error) {
		return s.fetchQuote(ctx, symbol, class)
	})
	if err == nil {
		return v.(market.Quote), nil
	}

	if haveCached && s.allowStale {
		s.log.Warn("serving stale price after upstream failure",
			zap.String("symbol", symbol),
			zap.Time("retrieved_at", cached.RetrievedAt),
			zap.Error(err))
		return cachedQuote(cached, true), nil
	}
	return market.Quote{}, fmt.Errorf("%w: %s: %v", ErrMarketDataUnavailable, symbol, err)
}

func (s *Service) fetchQuote(ctx context.Context, symbol string, class market.Class) (market.Quote, error) {
	var quote market.Quote
	err := s.retry.Do(ctx, nil, func(ctx context.Context) error {
		waitCtx, cancel := context.WithTimeout(ctx, s.wait)
		defer cancel()
		if err := s.limiter.Acquire(waitCtx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		q, err := s.provider.Quote(ctx, symbol, class)
		if err != nil {
			return err
		}
		quote = q
		return nil
	})
	if err != nil {
		return market.Quote{}, err
	}

	quote.UpdatedAt = s.now().UTC()
	err = s.storage.PutCachedPrice(ctx, store.CachedPrice{
		Symbol:      symbol,
		Class:       class,
		Price:       quote.Price,
		Source:      quote.Source,
		RetrievedAt: quote.UpdatedAt,
	})
	if err != nil {
		return market.Quote{}, err
	}
	return quote, nil
}

func cachedQuote(cp store.CachedPrice, stale bool) market.Quote {
	return market.Quote{
		Symbol:    cp.Symbol,
		Class:     cp.Class,
		Price:     cp.Price,
		Source:    cp.Source,
		UpdatedAt: cp.RetrievedAt,
		Stale:     stale,
	}
}

// History returns candles for a symbol, ascending by time, at most
// limit entries (the most recent ones when no range is given). The
// resolution token is canonicalized first so every spelling shares one
// cache key. Cached candles answer when they cover the request; the
// still-open bucket is never trusted from cache.
func (s *Service) History(ctx context.Context, symbol, resolution string, limit int, start, end *time.Time) ([]market.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	class := market.Classify(symbol)

	res, err := market.NormalizeResolution(resolution)
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, fmt.Errorf("%w: start %s after end %s", ErrInvalidRange,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	cached, err := s.storage.GetCandles(ctx, symbol, res, start, end, limit)
	if err != nil {
		return nil, err
	}

	if s.covered(cached, res, limit, start, end) {
		return cached, nil
	}

	_, fetchErr, _ := s.flight.Do(fmt.Sprintf("hist:%s:%s", symbol, res), func() (any, error) {
		return nil, s.fetchCandles(ctx, symbol, class, res)
	})
	if fetchErr != nil {
		if len(cached) > 0 {
			s.log.Warn("serving cached history after upstream failure",
				zap.String("symbol", symbol),
				zap.String("resolution", res.String()),
				zap.Error(fetchErr))
			return cached, nil
		}
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrMarketDataUnavailable, symbol, res, fetchErr)
	}

	return s.storage.GetCandles(ctx, symbol, res, start, end, limit)
}

// covered reports whether the cached candles can answer the request
// without an upstream call.
func (s *Service) covered(cached []market.Candle, res market.Resolution, limit int, start, end *time.Time) bool {
	if len(cached) == 0 {
		return false
	}

	want := limit
	if start != nil && end != nil {
		if expected := expectedBuckets(res, *start, *end); expected < want {
			want = expected
		}
	}
	if len(cached) < want {
		return false
	}

	// The newest cached candle may be the bucket still in progress;
	// refresh it rather than serving a half-built bar.
	newest := cached[len(cached)-1].Time
	if newest.Add(res.Duration()).After(s.now()) {
		return false
	}
	return true
}

// expectedBuckets is the bucket count a fully dense series would have
// over [start, end). Sessions and weekends make real series sparser,
// which errs toward refetching; the upsert is idempotent so that only
// costs a request, never correctness.
func expectedBuckets(res market.Resolution, start, end time.Time) int {
	d := res.Duration()
	if d <= 0 || !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / d)
}

func (s *Service) fetchCandles(ctx context.Context, symbol string, class market.Class, res market.Resolution) error {
	return s.retry.Do(ctx, nil, func(ctx context.Context) error {
		waitCtx, cancel := context.WithTimeout(ctx, s.wait)
		defer cancel()
		if err := s.limiter.Acquire(waitCtx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		candles, err := s.provider.Candles(ctx, symbol, class, res)
		if err != nil {
			return err
		}
		return s.storage.UpsertCandles(ctx, symbol, res, candles, s.source)
	})
}
