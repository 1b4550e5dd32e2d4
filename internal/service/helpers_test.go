package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/ledgerlock/internal/database"
	"github.com/jask/ledgerlock/internal/database/repository"
	"github.com/jask/ledgerlock/internal/format"
	"github.com/jask/ledgerlock/internal/vault"
)

// testEnv wires a real sqlite file, an unlocked vault and every service
// under test.
type testEnv struct {
	db           *sql.DB
	vault        *vault.Vault
	transactions *repository.TransactionRepo
	categories   *repository.CategoryRepo
	payees       *repository.PayeeRepo
	mappings     *repository.MappingRepo
	budgets      *repository.BudgetRepo
	meta         *repository.VaultMetaRepo

	resolver    *Resolver
	importer    *ImportService
	budget      *BudgetService
	categorySvc *CategoryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	salt, err := vault.NewSalt()
	require.NoError(t, err)
	v, err := vault.Open("test password", salt, vault.Params{Iterations: 1000})
	require.NoError(t, err)

	env := &testEnv{
		db:           db,
		vault:        v,
		transactions: repository.NewTransactionRepo(db),
		categories:   repository.NewCategoryRepo(db),
		payees:       repository.NewPayeeRepo(db),
		mappings:     repository.NewMappingRepo(db),
		budgets:      repository.NewBudgetRepo(db),
		meta:         repository.NewVaultMetaRepo(db),
	}
	env.resolver = &Resolver{
		Vault:      v,
		Categories: env.categories,
		Payees:     env.payees,
		Mappings:   env.mappings,
	}
	env.importer = &ImportService{
		Vault:        v,
		Transactions: env.transactions,
		Categories:   env.categories,
		Payees:       env.payees,
		Mappings:     env.mappings,
		Formats:      format.Default(),
		Resolver:     env.resolver,
	}
	env.budget = &BudgetService{
		Vault:      v,
		Budgets:    env.budgets,
		Categories: env.categories,
	}
	env.categorySvc = &CategoryService{
		Vault:      v,
		Categories: env.categories,
		Mappings:   env.mappings,
	}
	return env
}

func (e *testEnv) encrypt(t *testing.T, plaintext string) string {
	t.Helper()
	ct, err := e.vault.Encrypt(plaintext)
	require.NoError(t, err)
	return ct
}

func (e *testEnv) addCategory(t *testing.T, ctx context.Context, name string, typ repository.CategoryType) int64 {
	t.Helper()
	id, err := e.categorySvc.Create(ctx, name, typ)
	require.NoError(t, err)
	return id
}

func (e *testEnv) addPayee(t *testing.T, ctx context.Context, name string) int64 {
	t.Helper()
	id, err := e.payees.Insert(ctx, repository.Payee{Name: e.encrypt(t, name)})
	require.NoError(t, err)
	return id
}

func (e *testEnv) addMapping(t *testing.T, ctx context.Context, description, categoryName, payeeName string) {
	t.Helper()
	m := repository.DescriptionMapping{
		Description:  description,
		CategoryName: e.encrypt(t, categoryName),
	}
	if payeeName != "" {
		ct := e.encrypt(t, payeeName)
		m.PayeeName = &ct
	}
	require.NoError(t, e.mappings.UpsertDescription(ctx, m))
}

// addTransaction stores an encrypted transaction and returns its id.
func (e *testEnv) addTransaction(t *testing.T, ctx context.Context, tx repository.Transaction, date, amount, description, account string) string {
	t.Helper()
	if tx.ID == "" {
		tx.ID = "tx-" + description
	}
	if tx.CategoryKind == "" {
		tx.CategoryKind = repository.KindUncategorized
	}
	tx.Date = e.encrypt(t, date)
	tx.Amount = e.encrypt(t, amount)
	tx.Description = e.encrypt(t, description)
	tx.Account = e.encrypt(t, account)
	require.NoError(t, e.transactions.Insert(ctx, tx))
	return tx.ID
}
