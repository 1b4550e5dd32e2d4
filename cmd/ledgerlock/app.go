package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jask/ledgerlock/internal/config"
	"github.com/jask/ledgerlock/internal/database"
	"github.com/jask/ledgerlock/internal/database/repository"
	"github.com/jask/ledgerlock/internal/format"
	"github.com/jask/ledgerlock/internal/service"
	"github.com/jask/ledgerlock/internal/vault"
)

// passwordEnv lets scripts unlock without a prompt.
const passwordEnv = "LEDGERLOCK_PASSWORD"

// app bundles the config, store and services every command needs. The
// vault is nil until unlock() runs.
type app struct {
	cfg config.Config
	db  *sql.DB

	vault *vault.Vault

	transactions *repository.TransactionRepo
	categories   *repository.CategoryRepo
	payees       *repository.PayeeRepo
	mappings     *repository.MappingRepo
	budgets      *repository.BudgetRepo
	meta         *repository.VaultMetaRepo

	unlockSvc   *service.UnlockService
	resolver    *service.Resolver
	importer    *service.ImportService
	budget      *service.BudgetService
	categorySvc *service.CategoryService
	maintenance *service.MaintenanceService
}

// openApp loads config, opens the database and wires repositories. It does
// not unlock the vault.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a := &app{
		cfg:          cfg,
		db:           db,
		transactions: repository.NewTransactionRepo(db),
		categories:   repository.NewCategoryRepo(db),
		payees:       repository.NewPayeeRepo(db),
		mappings:     repository.NewMappingRepo(db),
		budgets:      repository.NewBudgetRepo(db),
		meta:         repository.NewVaultMetaRepo(db),
	}
	a.unlockSvc = &service.UnlockService{
		Meta: a.meta,
		KDF:  vault.Params{Iterations: cfg.Vault.KDFIterations},
	}
	a.maintenance = &service.MaintenanceService{DB: db}
	return a, nil
}

func (a *app) close() { _ = a.db.Close() }

// unlock prompts for (or reads) the password and wires the remaining
// services around the derived key.
func (a *app) unlock(ctx context.Context) error {
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	v, err := a.unlockSvc.Unlock(ctx, password)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("vault not set up, run 'init' first")
		}
		return err
	}
	a.wireVault(v)
	return nil
}

func (a *app) wireVault(v *vault.Vault) {
	a.vault = v
	a.resolver = &service.Resolver{
		Vault:      v,
		Categories: a.categories,
		Payees:     a.payees,
		Mappings:   a.mappings,
	}
	a.importer = &service.ImportService{
		Vault:        v,
		Transactions: a.transactions,
		Categories:   a.categories,
		Payees:       a.payees,
		Mappings:     a.mappings,
		Formats:      format.Default(),
		Resolver:     a.resolver,
	}
	a.budget = &service.BudgetService{
		Vault:             v,
		Budgets:           a.budgets,
		Categories:        a.categories,
		FallbackToDefault: a.cfg.Budget.FallbackToDefault,
	}
	a.categorySvc = &service.CategoryService{
		Vault:      v,
		Categories: a.categories,
		Mappings:   a.mappings,
	}
}

// readPassword checks the environment first so scripts can run headless,
// then falls back to a stdin prompt.
func readPassword(prompt string) (string, error) {
	if v := os.Getenv(passwordEnv); v != "" {
		return v, nil
	}
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
