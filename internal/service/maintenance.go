package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/ledgerlock/internal/database"
)

// MaintenanceService houses destructive ops actions.
type MaintenanceService struct {
	DB *sql.DB
}

// Reset wipes all ledger data including the unlock material. The schema
// stays intact so the app can run first-time setup again.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		tables := []string{
			"budget_overrides",
			"transactions",
			"description_mappings",
			"account_mappings",
			"payees",
			"categories",
			"vault_meta",
		}
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}
