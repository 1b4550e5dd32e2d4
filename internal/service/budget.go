package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/ledgerlock/internal/database/repository"
	"github.com/jask/ledgerlock/internal/vault"
)

// BudgetService computes effective monthly limits from overrides.
// FallbackToDefault is the explicit policy for months with no override:
// true falls back to the category's default limit, false means zero.
type BudgetService struct {
	Vault             *vault.Vault
	Budgets           *repository.BudgetRepo
	Categories        *repository.CategoryRepo
	FallbackToDefault bool
}

// LimitFor returns the effective limit for a category in a month
// ("YYYY-MM").
func (s *BudgetService) LimitFor(ctx context.Context, categoryID int64, month string) (decimal.Decimal, error) {
	if err := validMonth(month); err != nil {
		return decimal.Zero, err
	}
	o, err := s.Budgets.Get(ctx, categoryID, month)
	if err == nil {
		return s.decryptAmount(o.Limit)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return decimal.Zero, err
	}
	if !s.FallbackToDefault {
		return decimal.Zero, nil
	}
	cat, err := s.Categories.Get(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	if cat.DefaultLimit == "" {
		return decimal.Zero, nil
	}
	return s.decryptAmount(cat.DefaultLimit)
}

// SetLimit writes the override for (category, month), superseding the
// default.
func (s *BudgetService) SetLimit(ctx context.Context, categoryID int64, month string, limit decimal.Decimal) error {
	if err := validMonth(month); err != nil {
		return err
	}
	ct, err := s.Vault.Encrypt(limit.StringFixed(2))
	if err != nil {
		return err
	}
	return s.Budgets.Upsert(ctx, repository.BudgetOverride{CategoryID: categoryID, Month: month, Limit: ct})
}

// ClearLimit resets the month back to the default.
func (s *BudgetService) ClearLimit(ctx context.Context, categoryID int64, month string) error {
	if err := validMonth(month); err != nil {
		return err
	}
	return s.Budgets.Delete(ctx, categoryID, month)
}

// CopyMonth duplicates every override of source into target. The rows are
// copied as stored ciphertext, no re-encryption: the key has not changed.
// Copying a month onto itself is refused; an empty source copies nothing
// and is not an error.
func (s *BudgetService) CopyMonth(ctx context.Context, source, target string) (int, error) {
	if err := validMonth(source); err != nil {
		return 0, err
	}
	if err := validMonth(target); err != nil {
		return 0, err
	}
	return s.Budgets.CopyMonth(ctx, source, target)
}

func (s *BudgetService) decryptAmount(ct string) (decimal.Decimal, error) {
	plain, err := s.Vault.Decrypt(ct)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(plain)
	if err != nil {
		return decimal.Zero, fmt.Errorf("budget: bad amount %q: %w", plain, err)
	}
	return d, nil
}

func validMonth(month string) error {
	if _, err := time.Parse("2006-01", month); err != nil {
		return fmt.Errorf("budget: bad month %q: %w", month, err)
	}
	return nil
}
