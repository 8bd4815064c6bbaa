package storage

import (
	"context"
	"fmt"

	"finbook/internal/core"
)

// DashboardSummary assembles every widget on the landing page for one
// user. Aggregates over empty sets come back as zero, not NULL.
func (r *SQLiteRepository) DashboardSummary(ctx context.Context, userID int64) (core.DashboardSummary, error) {
	var s core.DashboardSummary

	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(balance_cents), 0), COUNT(*)
		FROM accounts WHERE user_id = ?`, userID).
		Scan(&s.TotalBalance.Cents, &s.AccountCount)
	if err != nil {
		return s, fmt.Errorf("balance summary: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.user_id = ?`, userID).
		Scan(&s.TransactionCount)
	if err != nil {
		return s, fmt.Errorf("transaction count: %w", err)
	}

	s.TopExpenseCategories, err = r.topExpenseCategories(ctx, userID, 5)
	if err != nil {
		return s, err
	}

	s.RecentTransactions, err = r.RecentTransactions(ctx, userID, 10)
	if err != nil {
		return s, err
	}

	s.TopAccounts, err = r.topAccountsByBalance(ctx, userID, 5)
	if err != nil {
		return s, err
	}

	s.ActiveBudgets, err = r.ActiveBudgets(ctx, userID, core.Today(), 5)
	if err != nil {
		return s, err
	}

	stats, err := r.PeriodStats(ctx, userID, 30)
	if err != nil {
		return s, err
	}
	s.MonthIncome = stats.Income
	s.MonthExpense = stats.Expense

	return s, nil
}

func (r *SQLiteRepository) topExpenseCategories(ctx context.Context, userID int64, limit int) ([]core.CategoryCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, c.icon, COUNT(t.id) AS used
		FROM categories c
		JOIN transactions t ON t.category_id = c.id
		JOIN accounts a ON a.id = t.account_id
		WHERE c.type = 'expense' AND a.user_id = ?
		GROUP BY c.id
		ORDER BY used DESC, c.name
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("top expense categories: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryCount
	for rows.Next() {
		var cc core.CategoryCount
		if err := rows.Scan(&cc.Name, &cc.Icon, &cc.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) topAccountsByBalance(ctx context.Context, userID int64, limit int) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts a
		JOIN currencies c ON c.id = a.currency_id
		WHERE a.user_id = ?
		ORDER BY a.balance_cents DESC, a.id
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("top accounts: %w", err)
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

// CategoryTotals sums the user's transactions per category of the given
// type, largest first. Categories the user never touched are omitted.
func (r *SQLiteRepository) CategoryTotals(ctx context.Context, userID int64, t core.CategoryType) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, c.icon, COALESCE(SUM(t.amount_cents), 0) AS total, COUNT(t.id)
		FROM categories c
		JOIN transactions t ON t.category_id = c.id
		JOIN accounts a ON a.id = t.account_id
		WHERE c.type = ? AND a.user_id = ?
		GROUP BY c.id
		ORDER BY total DESC, c.name`, t, userID)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Name, &ct.Icon, &ct.Total.Cents, &ct.Count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}
