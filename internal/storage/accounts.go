package storage

import (
	"context"
	"fmt"

	"finbook/internal/core"
	"finbook/internal/log"
)

const accountColumns = `a.id, a.user_id, a.name, a.type, a.currency_id, a.balance_cents, a.created_at,
	c.code, c.symbol`

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var a core.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.CurrencyID, &a.Balance.Cents, &a.CreatedAt,
		&a.CurrencyCode, &a.CurrencySymbol)
	return a, err
}

// ListAccounts returns all accounts owned by userID, newest first.
func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a
		JOIN currencies c ON c.id = a.currency_id
		WHERE a.user_id = ?
		ORDER BY a.created_at DESC, a.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetAccount loads one account owned by userID. A row owned by another
// user is indistinguishable from a missing one.
func (r *SQLiteRepository) GetAccount(ctx context.Context, userID, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a
		JOIN currencies c ON c.id = a.currency_id
		WHERE a.id = ? AND a.user_id = ?`, id, userID)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, notFound(err)
	}
	return a, nil
}

// CreateAccount inserts an account for its UserID and returns the new ID.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, name, type, currency_id, balance_cents)
		VALUES (?, ?, ?, ?, ?)`,
		a.UserID, a.Name, a.Type, a.CurrencyID, a.Balance.Cents)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create account id: %w", err)
	}

	r.logger.InfoContext(ctx, "Account created", log.FieldAccountID, id, log.FieldUserID, a.UserID, "type", a.Type)
	return id, nil
}

// UpdateAccount updates name, type and currency; balance is managed by
// transaction writes, not edited directly.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, type = ?, currency_id = ?
		WHERE id = ? AND user_id = ?`,
		a.Name, a.Type, a.CurrencyID, a.ID, a.UserID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteAccount removes an account owned by userID; its transactions go
// with it through the FK cascade.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Account deleted", log.FieldAccountID, id, log.FieldUserID, userID)
	return nil
}

// ListCurrencies returns all currencies ordered by code.
func (r *SQLiteRepository) ListCurrencies(ctx context.Context) ([]core.Currency, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code, name, symbol FROM currencies ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()

	var currencies []core.Currency
	for rows.Next() {
		var c core.Currency
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Symbol); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		currencies = append(currencies, c)
	}
	return currencies, rows.Err()
}

// DeleteCurrency removes a currency. The RESTRICT foreign key refuses
// the delete while any account references it.
func (r *SQLiteRepository) DeleteCurrency(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM currencies WHERE id = ?`, id)
	if err != nil {
		if isConstraintErr(err) {
			return core.ErrCurrencyInUse
		}
		return fmt.Errorf("delete currency: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
