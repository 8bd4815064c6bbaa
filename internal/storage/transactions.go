package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"finbook/internal/core"
	"finbook/internal/log"
)

const txColumns = `t.id, t.account_id, t.category_id, t.type, t.amount_cents, t.tx_date, t.description, t.created_at,
	a.name, COALESCE(cat.name, ''), cur.symbol`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t          core.Transaction
		categoryID sql.NullInt64
		txDate     string
	)
	err := row.Scan(&t.ID, &t.AccountID, &categoryID, &t.Type, &t.Amount.Cents, &txDate, &t.Description, &t.CreatedAt,
		&t.AccountName, &t.CategoryName, &t.CurrencySymbol)
	if err != nil {
		return core.Transaction{}, err
	}
	t.CategoryID = categoryID.Int64
	t.Date = parseDate(txDate)
	return t, nil
}

// ListTransactions returns all of the user's transactions, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+txColumns+`
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		JOIN currencies cur ON cur.id = a.currency_id
		LEFT JOIN categories cat ON cat.id = t.category_id
		WHERE a.user_id = ?
		ORDER BY t.tx_date DESC, t.id DESC`, userID)
}

// RecentTransactions returns the user's most recent transactions.
func (r *SQLiteRepository) RecentTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+txColumns+`
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		JOIN currencies cur ON cur.id = a.currency_id
		LEFT JOIN categories cat ON cat.id = t.category_id
		WHERE a.user_id = ?
		ORDER BY t.tx_date DESC, t.id DESC
		LIMIT ?`, userID, limit)
}

// SearchTransactions matches the query case-insensitively against the
// transaction description, the category name and the account name,
// scoped to the user. An empty query returns nothing.
func (r *SQLiteRepository) SearchTransactions(ctx context.Context, userID int64, query string, limit int) ([]core.Transaction, error) {
	if query == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(query) + "%"
	return r.queryTransactions(ctx, `
		SELECT `+txColumns+`
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		JOIN currencies cur ON cur.id = a.currency_id
		LEFT JOIN categories cat ON cat.id = t.category_id
		WHERE a.user_id = ?
		  AND (t.description LIKE ? ESCAPE '\'
		    OR cat.name LIKE ? ESCAPE '\'
		    OR a.name LIKE ? ESCAPE '\')
		ORDER BY t.tx_date DESC, t.id DESC
		LIMIT ?`, userID, pattern, pattern, pattern, limit)
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, q string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// GetTransaction loads one transaction owned (through its account) by userID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+txColumns+`
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		JOIN currencies cur ON cur.id = a.currency_id
		LEFT JOIN categories cat ON cat.id = t.category_id
		WHERE t.id = ? AND a.user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	return t, nil
}

// GetTransactionByID loads a transaction without an ownership filter.
// Only the export worker uses this; request handlers go through
// GetTransaction.
func (r *SQLiteRepository) GetTransactionByID(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+txColumns+`
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		JOIN currencies cur ON cur.id = a.currency_id
		LEFT JOIN categories cat ON cat.id = t.category_id
		WHERE t.id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	return t, nil
}

// CreateTransaction inserts the row and applies its balance effect to
// the owning account in one SQL transaction. The account must belong to
// userID.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID int64, t core.Transaction) (int64, error) {
	var id int64
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := lockAccount(ctx, tx, userID, t.AccountID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (account_id, category_id, type, amount_cents, tx_date, description)
			VALUES (?, ?, ?, ?, ?, ?)`,
			t.AccountID, nullID(t.CategoryID), t.Type, t.Amount.Cents, t.Date.String(), t.Description)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("transaction id: %w", err)
		}
		return applyBalance(ctx, tx, t.AccountID, t.BalanceEffect())
	})
	if err != nil {
		return 0, err
	}

	r.logger.InfoContext(ctx, "Transaction created",
		log.FieldTxID, id, log.FieldAccountID, t.AccountID, log.FieldUserID, userID,
		"type", t.Type, log.FieldAmount, t.Amount.Cents)
	return id, nil
}

// UpdateTransaction rewrites the row and atomically reverses the old
// balance effect before applying the new one. Moving a transaction to a
// different account of the same user adjusts both balances.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID int64, t core.Transaction) error {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var (
			oldAccount int64
			oldType    core.TransactionType
			oldCents   int64
		)
		err := tx.QueryRowContext(ctx, `
			SELECT t.account_id, t.type, t.amount_cents
			FROM transactions t
			JOIN accounts a ON a.id = t.account_id
			WHERE t.id = ? AND a.user_id = ?`, t.ID, userID).
			Scan(&oldAccount, &oldType, &oldCents)
		if err != nil {
			return notFound(err)
		}
		if err := lockAccount(ctx, tx, userID, t.AccountID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE transactions
			SET account_id = ?, category_id = ?, type = ?, amount_cents = ?, tx_date = ?, description = ?,
			    exported_at = NULL, export_error = 0
			WHERE id = ?`,
			t.AccountID, nullID(t.CategoryID), t.Type, t.Amount.Cents, t.Date.String(), t.Description, t.ID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		old := core.Transaction{Type: oldType, Amount: core.Money{Cents: oldCents}}
		if err := applyBalance(ctx, tx, oldAccount, -old.BalanceEffect()); err != nil {
			return err
		}
		return applyBalance(ctx, tx, t.AccountID, t.BalanceEffect())
	})
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Transaction updated", log.FieldTxID, t.ID, log.FieldUserID, userID)
	return nil
}

// DeleteTransaction removes the row and reverses its balance effect.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var (
			accountID int64
			txType    core.TransactionType
			cents     int64
		)
		err := tx.QueryRowContext(ctx, `
			SELECT t.account_id, t.type, t.amount_cents
			FROM transactions t
			JOIN accounts a ON a.id = t.account_id
			WHERE t.id = ? AND a.user_id = ?`, id, userID).
			Scan(&accountID, &txType, &cents)
		if err != nil {
			return notFound(err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}

		old := core.Transaction{Type: txType, Amount: core.Money{Cents: cents}}
		return applyBalance(ctx, tx, accountID, -old.BalanceEffect())
	})
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Transaction deleted", log.FieldTxID, id, log.FieldUserID, userID)
	return nil
}

// PeriodStats sums income and expense over the last N days, defaulting
// to zero when nothing matches.
func (r *SQLiteRepository) PeriodStats(ctx context.Context, userID int64, days int) (core.PeriodStats, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	stats := core.PeriodStats{Days: days}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN t.type = 'income' THEN t.amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.type = 'expense' THEN t.amount_cents ELSE 0 END), 0),
			COUNT(*)
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.user_id = ? AND t.tx_date >= ?`, userID, since).
		Scan(&stats.Income.Cents, &stats.Expense.Cents, &stats.Count)
	if err != nil {
		return core.PeriodStats{}, fmt.Errorf("period stats: %w", err)
	}
	return stats, nil
}

// UnexportedTransactions returns IDs of rows not yet pushed to the
// backup spreadsheet, oldest first. Rows with repeated export failures
// are skipped until the counter is reset by an update.
func (r *SQLiteRepository) UnexportedTransactions(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM transactions
		WHERE exported_at IS NULL AND export_error < 5
		ORDER BY id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("unexported transactions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkExported records a successful backup append.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET exported_at = ?, export_error = 0 WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

// MarkExportError bumps the failure counter for a row.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_error = export_error + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	return nil
}

// lockAccount verifies the account exists and is owned by userID before
// a balance-affecting write.
func lockAccount(ctx context.Context, tx *sql.Tx, userID, accountID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE id = ? AND user_id = ?`, accountID, userID).Scan(&id)
	if err != nil {
		return notFound(err)
	}
	return nil
}

func applyBalance(ctx context.Context, tx *sql.Tx, accountID, deltaCents int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`,
		deltaCents, accountID)
	if err != nil {
		return fmt.Errorf("apply balance: %w", err)
	}
	return nil
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
