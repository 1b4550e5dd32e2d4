package service

import (
	"context"
	"errors"
	"log"

	"github.com/shopspring/decimal"

	"github.com/jask/ledgerlock/internal/database/repository"
	"github.com/jask/ledgerlock/internal/vault"
)

// ErrReservedName blocks creating a real category named like the Transfer
// sentinel, which would make rules ambiguous.
var ErrReservedName = errors.New("category: name is reserved")

// CategoryService wraps category lifecycle around the store. Rules
// reference categories by name, so Rename keeps the rule table in step:
// every rule that named the old category is rewritten to the new name.
// Delete stays a plain store delete; rules pointing at a deleted category
// simply dangle and resolve to nothing.
type CategoryService struct {
	Vault      *vault.Vault
	Categories *repository.CategoryRepo
	Mappings   *repository.MappingRepo
}

func (s *CategoryService) Create(ctx context.Context, name string, typ repository.CategoryType) (int64, error) {
	if name == TransferSentinel {
		return 0, ErrReservedName
	}
	ct, err := s.Vault.Encrypt(name)
	if err != nil {
		return 0, err
	}
	return s.Categories.Insert(ctx, repository.Category{Name: ct, Type: typ})
}

// Rename changes the category's name and rewrites every description rule
// that pointed at the old name, so auto transactions keep resolving to the
// same category.
func (s *CategoryService) Rename(ctx context.Context, id int64, newName string) error {
	if newName == TransferSentinel {
		return ErrReservedName
	}
	cat, err := s.Categories.Get(ctx, id)
	if err != nil {
		return err
	}
	oldName, err := s.Vault.Decrypt(cat.Name)
	if err != nil {
		return err
	}

	nameCT, err := s.Vault.Encrypt(newName)
	if err != nil {
		return err
	}
	cat.Name = nameCT
	if err := s.Categories.Update(ctx, cat); err != nil {
		return err
	}

	mappings, err := s.Mappings.ListDescriptions(ctx)
	if err != nil {
		return err
	}
	for _, m := range mappings {
		plain, err := s.Vault.Decrypt(m.CategoryName)
		if err != nil {
			if errors.Is(err, vault.ErrLocked) {
				return err
			}
			log.Printf("warn: skipping rule %q: %v", m.Description, err)
			continue
		}
		if plain != oldName {
			continue
		}
		ruleCT, err := s.Vault.Encrypt(newName)
		if err != nil {
			return err
		}
		m.CategoryName = ruleCT
		if err := s.Mappings.UpsertDescription(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// SetDefaultLimit stores the legacy default amount used when the budget
// fallback policy is on.
func (s *CategoryService) SetDefaultLimit(ctx context.Context, id int64, limit decimal.Decimal) error {
	cat, err := s.Categories.Get(ctx, id)
	if err != nil {
		return err
	}
	ct, err := s.Vault.Encrypt(limit.StringFixed(2))
	if err != nil {
		return err
	}
	cat.DefaultLimit = ct
	return s.Categories.Update(ctx, cat)
}

// Delete removes a category; the store refuses while transactions still
// reference it. Rules naming it are left alone and dangle.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	return s.Categories.Delete(ctx, id)
}
