package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/ledgerlock/internal/database/repository"
	"github.com/jask/ledgerlock/internal/vault"
)

func TestResolveExplicit(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	rent := env.addCategory(t, ctx, "Rent", repository.TypeExpense)
	tx := repository.Transaction{CategoryKind: repository.KindExplicit, CategoryID: &rent}
	id := env.addTransaction(t, ctx, tx, "2024-03-01", "-900.00", "REALTY CO", "1")

	stored, err := env.transactions.Get(ctx, id)
	require.NoError(t, err)
	res, err := env.resolver.Resolve(ctx, stored)
	require.NoError(t, err)
	require.Equal(t, "Rent", res.CategoryName)
	require.Equal(t, EffectiveExpense, res.CategoryType)
	require.Equal(t, rent, *res.CategoryID)
}

func TestResolveExplicitDeletedCategory(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	gone := int64(999)
	tx := repository.Transaction{CategoryKind: repository.KindExplicit, CategoryID: &gone}
	id := env.addTransaction(t, ctx, tx, "2024-03-01", "-5.00", "SOMETHING", "1")

	stored, err := env.transactions.Get(ctx, id)
	require.NoError(t, err)
	res, err := env.resolver.Resolve(ctx, stored)
	require.NoError(t, err)
	require.Empty(t, res.CategoryName)
	require.Equal(t, EffectiveExpense, res.CategoryType)
}

func TestResolveTransferVersusUncategorized(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	transferID := env.addTransaction(t, ctx,
		repository.Transaction{CategoryKind: repository.KindTransfer},
		"2024-03-01", "-500.00", "TO SAVINGS", "1")
	plainID := env.addTransaction(t, ctx,
		repository.Transaction{CategoryKind: repository.KindUncategorized},
		"2024-03-02", "-5.00", "SOMETHING", "1")

	stored, err := env.transactions.Get(ctx, transferID)
	require.NoError(t, err)
	res, err := env.resolver.Resolve(ctx, stored)
	require.NoError(t, err)
	require.Equal(t, EffectiveTransfer, res.CategoryType)
	require.Nil(t, res.CategoryID)

	stored, err = env.transactions.Get(ctx, plainID)
	require.NoError(t, err)
	res, err = env.resolver.Resolve(ctx, stored)
	require.NoError(t, err)
	require.Equal(t, EffectiveUncategorized, res.CategoryType)
	require.Nil(t, res.CategoryID)
}

func TestResolveAutoThroughMapping(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	coffee := env.addCategory(t, ctx, "Coffee", repository.TypeExpense)
	env.addMapping(t, ctx, "STARBUCKS #1234", "Coffee", "")

	id := env.addTransaction(t, ctx,
		repository.Transaction{CategoryKind: repository.KindAuto},
		"2024-03-01", "-4.50", "STARBUCKS #1234", "1")

	stored, err := env.transactions.Get(ctx, id)
	require.NoError(t, err)
	res, err := env.resolver.Resolve(ctx, stored)
	require.NoError(t, err)
	require.Equal(t, coffee, *res.CategoryID)
	require.Equal(t, "Coffee", res.CategoryName)
}

func TestResolveAutoFollowsRename(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	coffee := env.addCategory(t, ctx, "Coffee", repository.TypeExpense)
	env.addMapping(t, ctx, "STARBUCKS #1234", "Coffee", "")

	id := env.addTransaction(t, ctx,
		repository.Transaction{CategoryKind: repository.KindAuto},
		"2024-03-01", "-4.50", "STARBUCKS #1234", "1")

	require.NoError(t, env.categorySvc.Rename(ctx, coffee, "Dining"))

	stored, err := env.transactions.Get(ctx, id)
	require.NoError(t, err)
	res, err := env.resolver.Resolve(ctx, stored)
	require.NoError(t, err)
	require.Equal(t, coffee, *res.CategoryID)
	require.Equal(t, "Dining", res.CategoryName)
}

func TestResolveAutoDanglingRule(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	env.addMapping(t, ctx, "MYSTERY SHOP", "Vacation", "")
	id := env.addTransaction(t, ctx,
		repository.Transaction{CategoryKind: repository.KindAuto},
		"2024-03-01", "-20.00", "MYSTERY SHOP", "1")

	stored, err := env.transactions.Get(ctx, id)
	require.NoError(t, err)
	res, err := env.resolver.Resolve(ctx, stored)
	require.NoError(t, err)
	require.Nil(t, res.CategoryID)
	require.Equal(t, EffectiveUncategorized, res.CategoryType)
}

func TestResolveAutoTransferSentinel(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	env.addMapping(t, ctx, "TO SAVINGS", TransferSentinel, "")
	id := env.addTransaction(t, ctx,
		repository.Transaction{CategoryKind: repository.KindAuto},
		"2024-03-01", "-500.00", "TO SAVINGS", "1")

	stored, err := env.transactions.Get(ctx, id)
	require.NoError(t, err)
	res, err := env.resolver.Resolve(ctx, stored)
	require.NoError(t, err)
	require.Equal(t, EffectiveTransfer, res.CategoryType)
	require.Nil(t, res.CategoryID)
}

func TestResolveAutoPayee(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	env.addCategory(t, ctx, "Coffee", repository.TypeExpense)
	sbux := env.addPayee(t, ctx, "Starbucks")
	env.addMapping(t, ctx, "STARBUCKS #1234", "Coffee", "Starbucks")

	id := env.addTransaction(t, ctx,
		repository.Transaction{CategoryKind: repository.KindAuto, AutoPayee: true},
		"2024-03-01", "-4.50", "STARBUCKS #1234", "1")

	stored, err := env.transactions.Get(ctx, id)
	require.NoError(t, err)
	res, err := env.resolver.Resolve(ctx, stored)
	require.NoError(t, err)
	require.Equal(t, "Starbucks", res.PayeeName)
	require.Equal(t, sbux, *res.PayeeID)
}

func TestResolveLockedVault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.addTransaction(t, ctx,
		repository.Transaction{CategoryKind: repository.KindAuto},
		"2024-03-01", "-4.50", "STARBUCKS #1234", "1")
	stored, err := env.transactions.Get(ctx, id)
	require.NoError(t, err)

	env.vault.Lock()
	_, err = env.resolver.Resolve(ctx, stored)
	require.ErrorIs(t, err, vault.ErrLocked)
}

func TestCategoryRenameReservedName(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.categorySvc.Create(ctx, TransferSentinel, repository.TypeExpense)
	require.ErrorIs(t, err, ErrReservedName)

	id := env.addCategory(t, ctx, "Coffee", repository.TypeExpense)
	require.ErrorIs(t, env.categorySvc.Rename(ctx, id, TransferSentinel), ErrReservedName)
}

func TestCategoryDeleteInUse(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	coffee := env.addCategory(t, ctx, "Coffee", repository.TypeExpense)
	env.addTransaction(t, ctx,
		repository.Transaction{CategoryKind: repository.KindExplicit, CategoryID: &coffee},
		"2024-03-01", "-4.50", "STARBUCKS #1234", "1")

	require.ErrorIs(t, env.categorySvc.Delete(ctx, coffee), repository.ErrCategoryInUse)
}
