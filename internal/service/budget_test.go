package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/ledgerlock/internal/database/repository"
)

func TestLimitForOverride(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	coffee := env.addCategory(t, ctx, "Coffee", repository.TypeExpense)
	require.NoError(t, env.budget.SetLimit(ctx, coffee, "2024-01", decimal.RequireFromString("150")))

	got, err := env.budget.LimitFor(ctx, coffee, "2024-01")
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.RequireFromString("150.00")), "got %s", got)

	// a month with no override is zero under the default policy
	got, err = env.budget.LimitFor(ctx, coffee, "2024-02")
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestLimitForFallbackPolicy(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	coffee := env.addCategory(t, ctx, "Coffee", repository.TypeExpense)
	require.NoError(t, env.categorySvc.SetDefaultLimit(ctx, coffee, decimal.RequireFromString("80")))

	env.budget.FallbackToDefault = true
	got, err := env.budget.LimitFor(ctx, coffee, "2024-02")
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.RequireFromString("80.00")), "got %s", got)

	// an override still wins over the default
	require.NoError(t, env.budget.SetLimit(ctx, coffee, "2024-02", decimal.RequireFromString("40")))
	got, err = env.budget.LimitFor(ctx, coffee, "2024-02")
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.RequireFromString("40.00")), "got %s", got)
}

func TestClearLimitRestoresDefaultPolicy(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	coffee := env.addCategory(t, ctx, "Coffee", repository.TypeExpense)
	require.NoError(t, env.budget.SetLimit(ctx, coffee, "2024-01", decimal.RequireFromString("150")))
	require.NoError(t, env.budget.ClearLimit(ctx, coffee, "2024-01"))

	got, err := env.budget.LimitFor(ctx, coffee, "2024-01")
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestLimitForBadMonth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.budget.LimitFor(context.Background(), 1, "2024-13")
	require.Error(t, err)
	_, err = env.budget.LimitFor(context.Background(), 1, "Jan 2024")
	require.Error(t, err)
}

func TestCopyMonth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	coffee := env.addCategory(t, ctx, "Coffee", repository.TypeExpense)
	rent := env.addCategory(t, ctx, "Rent", repository.TypeExpense)
	require.NoError(t, env.budget.SetLimit(ctx, coffee, "2024-01", decimal.RequireFromString("100")))
	require.NoError(t, env.budget.SetLimit(ctx, rent, "2024-01", decimal.RequireFromString("900")))
	// target already has one override that the copy overwrites
	require.NoError(t, env.budget.SetLimit(ctx, coffee, "2024-02", decimal.RequireFromString("50")))

	n, err := env.budget.CopyMonth(ctx, "2024-01", "2024-02")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got, err := env.budget.LimitFor(ctx, coffee, "2024-02")
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.RequireFromString("100.00")), "got %s", got)
	got, err = env.budget.LimitFor(ctx, rent, "2024-02")
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.RequireFromString("900.00")), "got %s", got)

	// the source month is untouched
	got, err = env.budget.LimitFor(ctx, coffee, "2024-01")
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.RequireFromString("100.00")), "got %s", got)
}

func TestCopyMonthEdgeCases(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.budget.CopyMonth(ctx, "2024-01", "2024-01")
	require.Error(t, err)

	n, err := env.budget.CopyMonth(ctx, "2023-12", "2024-01")
	require.NoError(t, err)
	require.Zero(t, n)
}
