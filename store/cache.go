package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/rustyeddy/papertrade/market"
)

// GetCachedPrice returns the cached quote row for a symbol, however
// old it is. Freshness policy belongs to the marketdata layer.
func (s *Store) GetCachedPrice(ctx context.Context, symbol string) (CachedPrice, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT symbol, class, price, source, retrieved_at
		FROM price_cache WHERE symbol = ?`, symbol)

	var cp CachedPrice
	var class, price string
	err := row.Scan(&cp.Symbol, &class, &price, &cp.Source, &cp.RetrievedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CachedPrice{}, false, nil
	}
	if err != nil {
		return CachedPrice{}, false, errors.Wrap(err, "get cached price")
	}

	cp.Class = market.Class(class)
	if cp.Price, err = scanDecimal(price); err != nil {
		return CachedPrice{}, false, err
	}
	return cp, true, nil
}

// PutCachedPrice overwrites the single cache row for a symbol.
func (s *Store) PutCachedPrice(ctx context.Context, cp CachedPrice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO price_cache (symbol, class, price, source, retrieved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			class = excluded.class,
			price = excluded.price,
			source = excluded.source,
			retrieved_at = excluded.retrieved_at`,
		cp.Symbol, string(cp.Class), cp.Price.String(), cp.Source, cp.RetrievedAt.UTC())
	return errors.Wrap(err, "put cached price")
}

// UpsertCandles stores candles idempotently on (symbol, resolution,
// ts). Re-upserting a bucket overwrites it, which is how the still-open
// bucket gets refreshed; closed buckets refetch to identical values.
func (s *Store) UpsertCandles(ctx context.Context, symbol string, res market.Resolution, candles []market.Candle, source string) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin candle upsert")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (symbol, resolution, ts, open, high, low, close, volume, source, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, resolution, ts) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume,
			source = excluded.source,
			cached_at = excluded.cached_at`)
	if err != nil {
		return errors.Wrap(err, "prepare candle upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, c := range candles {
		_, err := stmt.ExecContext(ctx, symbol, string(res), c.Time.Unix(),
			c.Open.String(), c.High.String(), c.Low.String(), c.Close.String(),
			c.Volume.String(), source, now)
		if err != nil {
			return errors.Wrap(err, "upsert candle")
		}
	}

	return errors.Wrap(tx.Commit(), "commit candle upsert")
}

// GetCandles returns cached candles for (symbol, resolution) in
// ascending time order. A nil start/end leaves that side of the range
// open; end is exclusive. When limit > 0 the most recent limit candles
// within the range are returned.
func (s *Store) GetCandles(ctx context.Context, symbol string, res market.Resolution, start, end *time.Time, limit int) ([]market.Candle, error) {
	q := `SELECT ts, open, high, low, close, volume FROM candles
		WHERE symbol = ? AND resolution = ?`
	args := []any{symbol, string(res)}

	if start != nil {
		q += ` AND ts >= ?`
		args = append(args, start.Unix())
	}
	if end != nil {
		q += ` AND ts < ?`
		args = append(args, end.Unix())
	}

	// Take the newest rows, then flip to ascending.
	q += ` ORDER BY ts DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "get candles")
	}
	defer rows.Close()

	var out []market.Candle
	for rows.Next() {
		var c market.Candle
		var ts int64
		var open, high, low, closePx, volume string

		if err := rows.Scan(&ts, &open, &high, &low, &closePx, &volume); err != nil {
			return nil, errors.Wrap(err, "scan candle")
		}

		c.Time = time.Unix(ts, 0).UTC()
		if c.Open, err = scanDecimal(open); err != nil {
			return nil, err
		}
		if c.High, err = scanDecimal(high); err != nil {
			return nil, err
		}
		if c.Low, err = scanDecimal(low); err != nil {
			return nil, err
		}
		if c.Close, err = scanDecimal(closePx); err != nil {
			return nil, err
		}
		if c.Volume, err = scanDecimal(volume); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "get candles")
	}

	// Reverse into ascending order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
