package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/ledgerlock/internal/database/repository"
)

func TestImportMappings(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	env.addCategory(t, ctx, "Coffee", repository.TypeExpense)
	env.addCategory(t, ctx, "Rent", repository.TypeExpense)

	csv := `Description,Category,Payee
STARBUCKS #1234,Coffee,Starbucks
REALTY CO,Rent,
TO SAVINGS,Transfer,
`
	res, err := env.importer.ImportMappings(ctx, strings.NewReader(csv), nil)
	require.NoError(t, err)
	require.Equal(t, 3, res.Imported)
	require.Zero(t, res.Skipped)
	require.Empty(t, res.Errors)

	m, err := env.mappings.GetDescription(ctx, "STARBUCKS #1234")
	require.NoError(t, err)
	name, err := env.vault.Decrypt(m.CategoryName)
	require.NoError(t, err)
	require.Equal(t, "Coffee", name)
	require.NotNil(t, m.PayeeName)
	payee, err := env.vault.Decrypt(*m.PayeeName)
	require.NoError(t, err)
	require.Equal(t, "Starbucks", payee)
}

func TestImportMappingsDedupeCaseInsensitive(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	env.addCategory(t, ctx, "Coffee", repository.TypeExpense)
	env.addMapping(t, ctx, "STARBUCKS #1234", "Coffee", "")

	csv := `Description,Category
Starbucks #1234,Coffee
NEW PLACE,Coffee
new place,Coffee
`
	res, err := env.importer.ImportMappings(ctx, strings.NewReader(csv), nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)
	require.Equal(t, 2, res.Skipped)
}

func TestImportMappingsCreatesMissingCategory(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	decider := DeciderFunc(func(name string) (CategoryDecision, bool) {
		return CategoryDecision{CreateNew: true, Type: repository.TypeSaving}, true
	})

	csv := "Description,Category\nBROKER XFER,Investments\n"
	res, err := env.importer.ImportMappings(ctx, strings.NewReader(csv), decider)
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	cat, err := env.resolver.FindCategoryByName(ctx, "Investments")
	require.NoError(t, err)
	require.NotNil(t, cat)
	require.Equal(t, repository.TypeSaving, cat.Type)
}

func TestImportMappingsCancelWritesNothing(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	env.addCategory(t, ctx, "Coffee", repository.TypeExpense)

	csv := `Description,Category
STARBUCKS #1234,Coffee
BROKER XFER,Investments
`
	_, err := env.importer.ImportMappings(ctx, strings.NewReader(csv), nil)
	require.ErrorIs(t, err, ErrImportCancelled)

	stored, err := env.mappings.ListDescriptions(ctx)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestImportMappingsSkipsIncompleteRows(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	env.addCategory(t, ctx, "Coffee", repository.TypeExpense)

	csv := `Description,Category
,Coffee
STARBUCKS #1234,
GOOD ROW,Coffee
`
	res, err := env.importer.ImportMappings(ctx, strings.NewReader(csv), nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)
}
