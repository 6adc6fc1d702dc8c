package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// CreateAccount provisions a new account with a generated API key and
// the given starting balance.
func (s *Store) CreateAccount(ctx context.Context, currency string, balance decimal.Decimal) (Account, error) {
	now := time.Now().UTC()
	acct := Account{
		ID:         uuid.NewString(),
		APIKey:     uuid.NewString(),
		Currency:   currency,
		Balance:    balance,
		RealizedPL: decimal.Zero,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, api_key, currency, balance, realized_pl, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		acct.ID, acct.APIKey, acct.Currency, acct.Balance.String(),
		acct.RealizedPL.String(), acct.Version, acct.CreatedAt, acct.UpdatedAt,
	)
	if err != nil {
		return Account{}, errors.Wrap(err, "insert account")
	}
	return acct, nil
}

// GetAccount loads an account by id.
func (s *Store) GetAccount(ctx context.Context, id string) (Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, api_key, currency, balance, realized_pl, version, created_at, updated_at
		FROM accounts WHERE id = ?`, id)

	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, errors.Wrapf(ErrAccountNotFound, "id %s", id)
	}
	return acct, err
}

// Authenticate resolves an API key to its account id.
func (s *Store) Authenticate(ctx context.Context, apiKey string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE api_key = ?`, apiKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrAuthFailure
	}
	if err != nil {
		return "", errors.Wrap(err, "authenticate")
	}
	return id, nil
}

// ResetAccount restores an account to its provisioned state: balance
// reset, realized P&L zeroed, all trades and holdings removed. The
// account itself (and its API key) survives.
func (s *Store) ResetAccount(ctx context.Context, id string, balance decimal.Decimal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin reset")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = ?, realized_pl = ?, version = version + 1, updated_at = ?
		WHERE id = ?`,
		balance.String(), decimal.Zero.String(), time.Now().UTC(), id)
	if err != nil {
		return errors.Wrap(err, "reset account")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrAccountNotFound, "id %s", id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM trades WHERE account_id = ?`, id); err != nil {
		return errors.Wrap(err, "clear trades")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM holdings WHERE account_id = ?`, id); err != nil {
		return errors.Wrap(err, "clear holdings")
	}

	return errors.Wrap(tx.Commit(), "commit reset")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var acct Account
	var balance, realized string

	err := row.Scan(&acct.ID, &acct.APIKey, &acct.Currency, &balance,
		&realized, &acct.Version, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return Account{}, err
	}

	if acct.Balance, err = scanDecimal(balance); err != nil {
		return Account{}, err
	}
	if acct.RealizedPL, err = scanDecimal(realized); err != nil {
		return Account{}, err
	}
	return acct, nil
}
