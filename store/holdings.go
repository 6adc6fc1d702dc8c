package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/rustyeddy/papertrade/market"
)

// GetHolding returns the holding for (account, symbol). The bool is
// false when no position exists.
func (s *Store) GetHolding(ctx context.Context, accountID, symbol string) (Holding, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT account_id, symbol, class, quantity, average_price, updated_at
		FROM holdings WHERE account_id = ? AND symbol = ?`, accountID, symbol)

	h, err := scanHolding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Holding{}, false, nil
	}
	if err != nil {
		return Holding{}, false, err
	}
	return h, true, nil
}

// ListHoldings returns all holdings of an account, ordered by symbol.
func (s *Store) ListHoldings(ctx context.Context, accountID string) ([]Holding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, symbol, class, quantity, average_price, updated_at
		FROM holdings WHERE account_id = ?
		ORDER BY symbol ASC`, accountID)
	if err != nil {
		return nil, errors.Wrap(err, "list holdings")
	}
	defer rows.Close()

	var out []Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, errors.Wrap(rows.Err(), "list holdings")
}

func scanHolding(row rowScanner) (Holding, error) {
	var h Holding
	var class, quantity, avg string

	err := row.Scan(&h.AccountID, &h.Symbol, &class, &quantity, &avg, &h.UpdatedAt)
	if err != nil {
		return Holding{}, err
	}

	h.Class = market.Class(class)
	if h.Quantity, err = scanDecimal(quantity); err != nil {
		return Holding{}, err
	}
	if h.AveragePrice, err = scanDecimal(avg); err != nil {
		return Holding{}, err
	}
	return h, nil
}
