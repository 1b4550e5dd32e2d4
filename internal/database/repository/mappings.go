package repository

import (
	"context"
	"database/sql"
)

// MappingRepo stores the description-keyed categorization rules and the
// cosmetic account display names. Keys are free text; nothing checks that a
// mapped category name still exists.
type MappingRepo struct {
	db *sql.DB
}

func NewMappingRepo(db *sql.DB) *MappingRepo { return &MappingRepo{db: db} }

func (r *MappingRepo) UpsertDescription(ctx context.Context, m DescriptionMapping) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO description_mappings(description, category_name, payee_name)
	VALUES (?, ?, ?)
	ON CONFLICT(description) DO UPDATE SET
	 category_name = excluded.category_name,
	 payee_name = excluded.payee_name;
	`, m.Description, m.CategoryName, m.PayeeName)
	return err
}

// GetDescription looks a rule up by exact, case-sensitive key.
func (r *MappingRepo) GetDescription(ctx context.Context, description string) (DescriptionMapping, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT description, category_name, payee_name FROM description_mappings WHERE description = ?
	`, description)
	var m DescriptionMapping
	var payee sql.NullString
	if err := row.Scan(&m.Description, &m.CategoryName, &payee); err != nil {
		if err == sql.ErrNoRows {
			return DescriptionMapping{}, ErrNotFound
		}
		return DescriptionMapping{}, err
	}
	if payee.Valid {
		m.PayeeName = &payee.String
	}
	return m, nil
}

func (r *MappingRepo) ListDescriptions(ctx context.Context) ([]DescriptionMapping, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT description, category_name, payee_name FROM description_mappings ORDER BY description
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DescriptionMapping
	for rows.Next() {
		var m DescriptionMapping
		var payee sql.NullString
		if err := rows.Scan(&m.Description, &m.CategoryName, &payee); err != nil {
			return nil, err
		}
		if payee.Valid {
			m.PayeeName = &payee.String
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MappingRepo) DeleteDescription(ctx context.Context, description string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM description_mappings WHERE description = ?`, description)
	return err
}

func (r *MappingRepo) UpsertAccount(ctx context.Context, m AccountMapping) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO account_mappings(account, display_name)
	VALUES (?, ?)
	ON CONFLICT(account) DO UPDATE SET display_name = excluded.display_name;
	`, m.Account, m.DisplayName)
	return err
}

func (r *MappingRepo) GetAccount(ctx context.Context, account string) (AccountMapping, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT account, display_name FROM account_mappings WHERE account = ?
	`, account)
	var m AccountMapping
	if err := row.Scan(&m.Account, &m.DisplayName); err != nil {
		if err == sql.ErrNoRows {
			return AccountMapping{}, ErrNotFound
		}
		return AccountMapping{}, err
	}
	return m, nil
}

func (r *MappingRepo) ListAccounts(ctx context.Context) ([]AccountMapping, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT account, display_name FROM account_mappings ORDER BY account`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountMapping
	for rows.Next() {
		var m AccountMapping
		if err := rows.Scan(&m.Account, &m.DisplayName); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
