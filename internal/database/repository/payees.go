package repository

import (
	"context"
	"database/sql"
)

// PayeeRepo handles payees.
type PayeeRepo struct {
	db *sql.DB
}

func NewPayeeRepo(db *sql.DB) *PayeeRepo { return &PayeeRepo{db: db} }

// Insert creates a payee and returns its assigned id.
func (r *PayeeRepo) Insert(ctx context.Context, p Payee) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO payees(name) VALUES(?)`, p.Name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *PayeeRepo) Update(ctx context.Context, p Payee) error {
	res, err := r.db.ExecContext(ctx, `UPDATE payees SET name = ? WHERE id = ?`, p.Name, p.ID)
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

func (r *PayeeRepo) Get(ctx context.Context, id int64) (Payee, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name FROM payees WHERE id = ?`, id)
	var p Payee
	if err := row.Scan(&p.ID, &p.Name); err != nil {
		if err == sql.ErrNoRows {
			return Payee{}, ErrNotFound
		}
		return Payee{}, err
	}
	return p, nil
}

func (r *PayeeRepo) List(ctx context.Context) ([]Payee, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM payees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payee
	for rows.Next() {
		var p Payee
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PayeeRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM payees WHERE id = ?`, id)
	return err
}
