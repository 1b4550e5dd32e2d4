package repository

import (
	"context"
	"database/sql"
)

// CategoryRepo handles categories.
type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// Insert creates a category and returns its assigned id.
func (r *CategoryRepo) Insert(ctx context.Context, c Category) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO categories(name, type, default_limit) VALUES(?, ?, ?)
	`, c.Name, string(c.Type), c.DefaultLimit)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update rewrites name and default limit. The type column is immutable
// after creation and deliberately not part of the statement.
func (r *CategoryRepo) Update(ctx context.Context, c Category) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE categories SET name = ?, default_limit = ? WHERE id = ?
	`, c.Name, c.DefaultLimit, c.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CategoryRepo) Get(ctx context.Context, id int64) (Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, type, default_limit FROM categories WHERE id = ?`, id)
	var c Category
	var typ string
	if err := row.Scan(&c.ID, &c.Name, &typ, &c.DefaultLimit); err != nil {
		if err == sql.ErrNoRows {
			return Category{}, ErrNotFound
		}
		return Category{}, err
	}
	c.Type = CategoryType(typ)
	return c, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, type, default_limit FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		var typ string
		if err := rows.Scan(&c.ID, &c.Name, &typ, &c.DefaultLimit); err != nil {
			return nil, err
		}
		c.Type = CategoryType(typ)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a category. It refuses with ErrCategoryInUse while any
// transaction still references the id.
func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	var n int
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id)
	if err := row.Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryInUse
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
