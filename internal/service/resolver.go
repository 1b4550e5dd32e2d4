// Package service implements the import pipeline, category/payee
// resolution and budget lookups on top of the vault and the record store.
package service

import (
	"context"
	"errors"
	"log"

	"github.com/jask/ledgerlock/internal/database/repository"
	"github.com/jask/ledgerlock/internal/vault"
)

// TransferSentinel is the literal category name that marks a rule or row as
// a between-accounts transfer rather than a real category.
const TransferSentinel = "Transfer"

// EffectiveType is what callers render for a transaction's category axis.
// It extends the stored category types with the two no-category states.
type EffectiveType string

const (
	EffectiveIncome        EffectiveType = "income"
	EffectiveExpense       EffectiveType = "expense"
	EffectiveSaving        EffectiveType = "saving"
	EffectiveTransfer      EffectiveType = "transfer"
	EffectiveUncategorized EffectiveType = "uncategorized"
)

// Resolution is the display view of a transaction's category and payee.
// It is transient and recomputable; never persisted.
type Resolution struct {
	CategoryID   *int64
	CategoryName string
	CategoryType EffectiveType
	PayeeID      *int64
	PayeeName    string
}

// Resolver computes effective categories and payees. For auto rows it
// re-reads the live mapping table on every call, so renaming a category
// changes what every auto transaction resolves to.
type Resolver struct {
	Vault      *vault.Vault
	Categories *repository.CategoryRepo
	Payees     *repository.PayeeRepo
	Mappings   *repository.MappingRepo
}

// Resolve computes the effective category and payee for one transaction.
func (r *Resolver) Resolve(ctx context.Context, tx repository.Transaction) (Resolution, error) {
	res := Resolution{CategoryType: EffectiveUncategorized}

	var description string
	if tx.CategoryKind == repository.KindAuto || tx.AutoPayee {
		var err error
		description, err = r.Vault.Decrypt(tx.Description)
		if err != nil {
			return Resolution{}, err
		}
	}

	switch tx.CategoryKind {
	case repository.KindExplicit:
		res.CategoryID = tx.CategoryID
		if tx.CategoryID != nil {
			cat, err := r.Categories.Get(ctx, *tx.CategoryID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				// id points at a deleted category
				res.CategoryType = EffectiveExpense
			case err != nil:
				return Resolution{}, err
			default:
				name, err := r.Vault.Decrypt(cat.Name)
				if err != nil {
					return Resolution{}, err
				}
				res.CategoryName = name
				res.CategoryType = EffectiveType(cat.Type)
			}
		}

	case repository.KindTransfer:
		// linked id may be nil; the kind alone makes it a transfer
		res.CategoryType = EffectiveTransfer

	case repository.KindAuto:
		if err := r.resolveAutoCategory(ctx, description, &res); err != nil {
			return Resolution{}, err
		}

	case repository.KindUncategorized:
		// nothing to do
	}

	if err := r.resolvePayee(ctx, tx, description, &res); err != nil {
		return Resolution{}, err
	}
	return res, nil
}

func (r *Resolver) resolveAutoCategory(ctx context.Context, description string, res *Resolution) error {
	m, err := r.Mappings.GetDescription(ctx, description)
	if errors.Is(err, repository.ErrNotFound) {
		return nil // no rule: stays uncategorized
	}
	if err != nil {
		return err
	}
	name, err := r.Vault.Decrypt(m.CategoryName)
	if err != nil {
		return err
	}
	if name == TransferSentinel {
		res.CategoryType = EffectiveTransfer
		return nil
	}
	cat, err := r.FindCategoryByName(ctx, name)
	if err != nil {
		return err
	}
	if cat == nil {
		return nil // dangling rule: resolves to nothing, not an error
	}
	res.CategoryID = &cat.ID
	res.CategoryName = name
	res.CategoryType = EffectiveType(cat.Type)
	return nil
}

func (r *Resolver) resolvePayee(ctx context.Context, tx repository.Transaction, description string, res *Resolution) error {
	if !tx.AutoPayee {
		res.PayeeID = tx.PayeeID
		if tx.PayeeID != nil {
			p, err := r.Payees.Get(ctx, *tx.PayeeID)
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			name, err := r.Vault.Decrypt(p.Name)
			if err != nil {
				return err
			}
			res.PayeeName = name
		}
		return nil
	}

	m, err := r.Mappings.GetDescription(ctx, description)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if m.PayeeName == nil {
		return nil
	}
	name, err := r.Vault.Decrypt(*m.PayeeName)
	if err != nil {
		return err
	}
	p, err := r.FindPayeeByName(ctx, name)
	if err != nil {
		return err
	}
	if p == nil {
		res.PayeeName = name // named but not created yet
		return nil
	}
	res.PayeeID = &p.ID
	res.PayeeName = name
	return nil
}

// FindCategoryByName decrypts every category name looking for an exact
// match. Linear, fine at tens of categories. A record that fails to decrypt
// is logged and skipped so one corrupt row cannot hide the rest.
func (r *Resolver) FindCategoryByName(ctx context.Context, name string) (*repository.Category, error) {
	cats, err := r.Categories.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cats {
		plain, err := r.Vault.Decrypt(cats[i].Name)
		if err != nil {
			if errors.Is(err, vault.ErrLocked) {
				return nil, err
			}
			log.Printf("warn: skipping category %d: %v", cats[i].ID, err)
			continue
		}
		if plain == name {
			return &cats[i], nil
		}
	}
	return nil, nil
}

// FindPayeeByName mirrors FindCategoryByName for payees.
func (r *Resolver) FindPayeeByName(ctx context.Context, name string) (*repository.Payee, error) {
	payees, err := r.Payees.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range payees {
		plain, err := r.Vault.Decrypt(payees[i].Name)
		if err != nil {
			if errors.Is(err, vault.ErrLocked) {
				return nil, err
			}
			log.Printf("warn: skipping payee %d: %v", payees[i].ID, err)
			continue
		}
		if plain == name {
			return &payees[i], nil
		}
	}
	return nil, nil
}
