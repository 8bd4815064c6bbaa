package storage

import (
	"context"
	"database/sql"
	"fmt"

	"finbook/internal/core"
	"finbook/internal/log"
)

// ListCategories returns all categories, income first, then by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	return r.queryCategories(ctx, `
		SELECT id, name, type, icon FROM categories
		ORDER BY type DESC, name`)
}

// ListCategoriesByType returns categories of one type ordered by name.
func (r *SQLiteRepository) ListCategoriesByType(ctx context.Context, t core.CategoryType) ([]core.Category, error) {
	return r.queryCategories(ctx, `
		SELECT id, name, type, icon FROM categories
		WHERE type = ?
		ORDER BY name`, t)
}

func (r *SQLiteRepository) queryCategories(ctx context.Context, q string, args ...any) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// GetCategory loads a category by ID. Categories are global rows, so
// there is no ownership filter.
func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, type, icon FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Type, &c.Icon)
	if err != nil {
		return core.Category{}, notFound(err)
	}
	return c, nil
}

// CreateCategory inserts a category; duplicates of the same name and
// type are rejected.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, type, icon) VALUES (?, ?, ?)`,
		c.Name, c.Type, c.Icon)
	if err != nil {
		if isConstraintErr(err) {
			return 0, fmt.Errorf("category already exists")
		}
		return 0, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create category id: %w", err)
	}
	return id, nil
}

const budgetColumns = `b.id, b.user_id, b.category_id, b.name, b.amount_cents, b.start_date, b.end_date, c.name`

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b     core.Budget
		start string
		end   sql.NullString
	)
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Name, &b.Amount.Cents, &start, &end, &b.CategoryName)
	if err != nil {
		return core.Budget{}, err
	}
	b.StartDate = parseDate(start)
	if end.Valid {
		b.EndDate = parseDate(end.String)
	}
	return b, nil
}

// ListBudgets returns the user's budgets, most recent start first.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	return r.queryBudgets(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets b
		JOIN categories c ON c.id = b.category_id
		WHERE b.user_id = ?
		ORDER BY b.start_date DESC, b.id DESC`, userID)
}

// ActiveBudgets returns budgets covering the given date: started on or
// before it, and either unbounded or not yet ended.
func (r *SQLiteRepository) ActiveBudgets(ctx context.Context, userID int64, on core.Date, limit int) ([]core.Budget, error) {
	day := on.String()
	return r.queryBudgets(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets b
		JOIN categories c ON c.id = b.category_id
		WHERE b.user_id = ?
		  AND b.start_date <= ?
		  AND (b.end_date IS NULL OR b.end_date >= ?)
		ORDER BY b.start_date DESC, b.id DESC
		LIMIT ?`, userID, day, day, limit)
}

func (r *SQLiteRepository) queryBudgets(ctx context.Context, q string, args ...any) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// GetBudget loads one budget owned by userID.
func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets b
		JOIN categories c ON c.id = b.category_id
		WHERE b.id = ? AND b.user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, notFound(err)
	}
	return b, nil
}

// CreateBudget inserts a budget for its UserID.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, category_id, name, amount_cents, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.UserID, b.CategoryID, b.Name, b.Amount.Cents, b.StartDate.String(), nullDate(b.EndDate))
	if err != nil {
		return 0, fmt.Errorf("create budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create budget id: %w", err)
	}

	r.logger.InfoContext(ctx, "Budget created", "budget_id", id, log.FieldUserID, b.UserID)
	return id, nil
}

// UpdateBudget rewrites a budget owned by its UserID.
func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets SET category_id = ?, name = ?, amount_cents = ?, start_date = ?, end_date = ?
		WHERE id = ? AND user_id = ?`,
		b.CategoryID, b.Name, b.Amount.Cents, b.StartDate.String(), nullDate(b.EndDate), b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteBudget removes a budget owned by userID.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
