package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// BudgetRepo handles monthly budget overrides, keyed (category_id, month).
type BudgetRepo struct {
	db *sql.DB
}

func NewBudgetRepo(db *sql.DB) *BudgetRepo { return &BudgetRepo{db: db} }

// Upsert is last-write-wins on the composite key, so at most one override
// exists per (category, month).
func (r *BudgetRepo) Upsert(ctx context.Context, o BudgetOverride) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO budget_overrides(category_id, month, limit_amount)
	VALUES (?, ?, ?)
	ON CONFLICT(category_id, month) DO UPDATE SET limit_amount = excluded.limit_amount;
	`, o.CategoryID, o.Month, o.Limit)
	return err
}

func (r *BudgetRepo) Get(ctx context.Context, categoryID int64, month string) (BudgetOverride, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT category_id, month, limit_amount FROM budget_overrides
	WHERE category_id = ? AND month = ?
	`, categoryID, month)
	var o BudgetOverride
	if err := row.Scan(&o.CategoryID, &o.Month, &o.Limit); err != nil {
		if err == sql.ErrNoRows {
			return BudgetOverride{}, ErrNotFound
		}
		return BudgetOverride{}, err
	}
	return o, nil
}

func (r *BudgetRepo) ListMonth(ctx context.Context, month string) ([]BudgetOverride, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT category_id, month, limit_amount FROM budget_overrides
	WHERE month = ? ORDER BY category_id
	`, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BudgetOverride
	for rows.Next() {
		var o BudgetOverride
		if err := rows.Scan(&o.CategoryID, &o.Month, &o.Limit); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Delete resets the month back to the category default.
func (r *BudgetRepo) Delete(ctx context.Context, categoryID int64, month string) error {
	_, err := r.db.ExecContext(ctx, `
	DELETE FROM budget_overrides WHERE category_id = ? AND month = ?
	`, categoryID, month)
	return err
}

// CopyMonth duplicates every override of source into target, ciphertext
// verbatim. Existing target rows for the same category are overwritten.
// Returns the number of overrides copied.
func (r *BudgetRepo) CopyMonth(ctx context.Context, source, target string) (int, error) {
	if source == target {
		return 0, fmt.Errorf("copy month: source and target are both %q", source)
	}
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO budget_overrides(category_id, month, limit_amount)
	SELECT category_id, ?, limit_amount FROM budget_overrides WHERE month = ?
	ON CONFLICT(category_id, month) DO UPDATE SET limit_amount = excluded.limit_amount;
	`, target, source)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
