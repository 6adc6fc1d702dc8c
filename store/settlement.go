package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Settlement is the complete effect of one trade: the account's new
// balance and realized P&L, the resulting holding state, and the
// immutable trade record. ExpectedVersion is the account version the
// settlement was computed against.
type Settlement struct {
	AccountID       string
	ExpectedVersion int64
	Account         Account  // carries the post-trade Balance and RealizedPL
	Holding         *Holding // post-trade holding; nil when the position closed to zero
	Trade           Trade
}

// ApplySettlement commits a settlement atomically. The account update
// carries a WHERE on the expected version; losing that check means a
// concurrent settlement committed first, and the whole transaction
// rolls back with ErrVersionConflict so the caller can re-validate
// against fresh state.
func (s *Store) ApplySettlement(ctx context.Context, st Settlement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin settlement")
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = ?, realized_pl = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		st.Account.Balance.String(), st.Account.RealizedPL.String(), now,
		st.AccountID, st.ExpectedVersion)
	if err != nil {
		return errors.Wrap(err, "update account")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrVersionConflict, "account %s version %d", st.AccountID, st.ExpectedVersion)
	}

	if st.Holding != nil {
		h := st.Holding
		_, err = tx.ExecContext(ctx, `
			INSERT INTO holdings (account_id, symbol, class, quantity, average_price, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(account_id, symbol) DO UPDATE SET
				quantity = excluded.quantity,
				average_price = excluded.average_price,
				updated_at = excluded.updated_at`,
			h.AccountID, h.Symbol, string(h.Class),
			h.Quantity.String(), h.AveragePrice.String(), now)
		if err != nil {
			return errors.Wrap(err, "upsert holding")
		}
	} else {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM holdings WHERE account_id = ? AND symbol = ?`,
			st.AccountID, st.Trade.Symbol)
		if err != nil {
			return errors.Wrap(err, "delete holding")
		}
	}

	t := st.Trade
	_, err = tx.ExecContext(ctx, `
		INSERT INTO trades (trade_id, account_id, symbol, class, side, quantity, price, fee, total, balance_after, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.Symbol, string(t.Class), string(t.Side),
		t.Quantity.String(), t.Price.String(), t.Fee.String(),
		t.Total.String(), t.BalanceAfter.String(), t.ExecutedAt)
	if err != nil {
		return errors.Wrap(err, "insert trade")
	}

	return errors.Wrap(tx.Commit(), "commit settlement")
}
