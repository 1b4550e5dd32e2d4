package repository

import (
	"context"
	"database/sql"
)

// TransactionRepo handles transactions.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

func (r *TransactionRepo) Insert(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, date, amount, description, account, note, category_kind, category_id,
	 linked_transaction_id, payee_id, auto_payee, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		t.ID, t.Date, t.Amount, t.Description, t.Account, t.Note, string(t.CategoryKind),
		t.CategoryID, t.LinkedID, t.PayeeID, t.AutoPayee)
	return err
}

// Update is last-write-wins on the primary key.
func (r *TransactionRepo) Update(ctx context.Context, t Transaction) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE transactions SET
	 date = ?, amount = ?, description = ?, account = ?, note = ?,
	 category_kind = ?, category_id = ?, linked_transaction_id = ?,
	 payee_id = ?, auto_payee = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?;
	`,
		t.Date, t.Amount, t.Description, t.Account, t.Note,
		string(t.CategoryKind), t.CategoryID, t.LinkedID, t.PayeeID, t.AutoPayee, t.ID)
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

func (r *TransactionRepo) Get(ctx context.Context, id string) (Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectTransaction+` WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	return t, nil
}

func (r *TransactionRepo) List(ctx context.Context) ([]Transaction, error) {
	return r.list(ctx, selectTransaction+` ORDER BY created_at, id`)
}

// ListByCategory is the filtered scan the category-in-use check and the
// per-category views rely on.
func (r *TransactionRepo) ListByCategory(ctx context.Context, categoryID int64) ([]Transaction, error) {
	return r.list(ctx, selectTransaction+` WHERE category_id = ? ORDER BY created_at, id`, categoryID)
}

func (r *TransactionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

func (r *TransactionRepo) list(ctx context.Context, query string, args ...interface{}) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const selectTransaction = `SELECT id, date, amount, description, account, note, category_kind, category_id, linked_transaction_id, payee_id, auto_payee, created_at, updated_at FROM transactions`

// scanTransaction handles nullable fields for both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var note, linked sql.NullString
	var category, payee sql.NullInt64
	var kind string
	if err := row.Scan(&t.ID, &t.Date, &t.Amount, &t.Description, &t.Account, &note,
		&kind, &category, &linked, &payee, &t.AutoPayee, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	t.CategoryKind = CategoryKind(kind)
	if note.Valid {
		t.Note = &note.String
	}
	if category.Valid {
		t.CategoryID = &category.Int64
	}
	if linked.Valid {
		t.LinkedID = &linked.String
	}
	if payee.Valid {
		t.PayeeID = &payee.Int64
	}
	return t, nil
}
