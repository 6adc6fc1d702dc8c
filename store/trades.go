package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/rustyeddy/papertrade/market"
)

// ListTrades returns an account's trades in commit order (trade IDs
// are ULIDs, so the primary key sorts by creation time). limit <= 0
// returns all.
func (s *Store) ListTrades(ctx context.Context, accountID string, limit int) ([]Trade, error) {
	q := `
		SELECT trade_id, account_id, symbol, class, side, quantity, price, fee, total, balance_after, executed_at
		FROM trades WHERE account_id = ?
		ORDER BY trade_id ASC`
	args := []any{accountID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list trades")
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var t Trade
		var class, side, quantity, price, fee, total, after string

		if err := rows.Scan(&t.ID, &t.AccountID, &t.Symbol, &class, &side,
			&quantity, &price, &fee, &total, &after, &t.ExecutedAt); err != nil {
			return nil, errors.Wrap(err, "scan trade")
		}

		t.Class = market.Class(class)
		t.Side = Side(side)
		if t.Quantity, err = scanDecimal(quantity); err != nil {
			return nil, err
		}
		if t.Price, err = scanDecimal(price); err != nil {
			return nil, err
		}
		if t.Fee, err = scanDecimal(fee); err != nil {
			return nil, err
		}
		if t.Total, err = scanDecimal(total); err != nil {
			return nil, err
		}
		if t.BalanceAfter, err = scanDecimal(after); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, errors.Wrap(rows.Err(), "list trades")
}
