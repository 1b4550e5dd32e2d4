package repository

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
)

// VaultMetaRepo stores the single-row unlock material: the password
// verification hash and the KDF salt. The derived key itself is never
// persisted.
type VaultMetaRepo struct {
	db *sql.DB
}

func NewVaultMetaRepo(db *sql.DB) *VaultMetaRepo { return &VaultMetaRepo{db: db} }

func (r *VaultMetaRepo) Set(ctx context.Context, m VaultMeta) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO vault_meta(id, password_hash, kdf_salt)
	VALUES (1, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 password_hash = excluded.password_hash,
	 kdf_salt = excluded.kdf_salt;
	`, m.PasswordHash, base64.StdEncoding.EncodeToString(m.KDFSalt))
	return err
}

func (r *VaultMetaRepo) Get(ctx context.Context) (VaultMeta, error) {
	row := r.db.QueryRowContext(ctx, `SELECT password_hash, kdf_salt FROM vault_meta WHERE id = 1`)
	var m VaultMeta
	var salt string
	if err := row.Scan(&m.PasswordHash, &salt); err != nil {
		if err == sql.ErrNoRows {
			return VaultMeta{}, ErrNotFound
		}
		return VaultMeta{}, err
	}
	raw, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return VaultMeta{}, fmt.Errorf("vault meta: corrupt salt: %w", err)
	}
	m.KDFSalt = raw
	return m, nil
}
