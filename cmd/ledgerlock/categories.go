package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/jask/ledgerlock/internal/database/repository"
)

type categoryAddCmd struct {
	name string
	typ  string
}

func (*categoryAddCmd) Name() string     { return "category-add" }
func (*categoryAddCmd) Synopsis() string { return "create a category" }
func (*categoryAddCmd) Usage() string {
	return `category-add -name <name> [-type income|expense|saving|transfer]

  Creates a category. The name "Transfer" is reserved.
`
}

func (c *categoryAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Category name (required)")
	f.StringVar(&c.typ, "type", "expense", "Category type")
}

func (c *categoryAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -name is required")
		return subcommands.ExitUsageError
	}
	typ := repository.CategoryType(c.typ)
	switch typ {
	case repository.TypeIncome, repository.TypeExpense, repository.TypeSaving, repository.TypeTransfer:
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown type %q\n", c.typ)
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()
	if err := a.unlock(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	id, err := a.categorySvc.Create(ctx, c.name, typ)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Created category %d (%s)\n", id, c.name)
	return subcommands.ExitSuccess
}

type categoryRenameCmd struct {
	id   int64
	name string
}

func (*categoryRenameCmd) Name() string { return "category-rename" }
func (*categoryRenameCmd) Synopsis() string {
	return "rename a category and rewrite its rules"
}
func (*categoryRenameCmd) Usage() string {
	return `category-rename -id <id> -name <new name>

  Renames the category. Description rules pointing at the old name are
  rewritten so auto-categorized transactions keep resolving to it.
`
}

func (c *categoryRenameCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "Category id (required)")
	f.StringVar(&c.name, "name", "", "New name (required)")
}

func (c *categoryRenameCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == 0 || c.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -id and -name are required")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()
	if err := a.unlock(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := a.categorySvc.Rename(ctx, c.id, c.name); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Renamed category %d to %s\n", c.id, c.name)
	return subcommands.ExitSuccess
}

type categoryLimitCmd struct {
	id    int64
	limit string
}

func (*categoryLimitCmd) Name() string     { return "category-limit" }
func (*categoryLimitCmd) Synopsis() string { return "set a category's default monthly limit" }
func (*categoryLimitCmd) Usage() string {
	return `category-limit -id <id> -limit <amount>

  Sets the default limit used for months without an override when
  budget.fallback_to_default is on.
`
}

func (c *categoryLimitCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "Category id (required)")
	f.StringVar(&c.limit, "limit", "", "Default monthly limit (required)")
}

func (c *categoryLimitCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == 0 || c.limit == "" {
		fmt.Fprintln(os.Stderr, "Error: -id and -limit are required")
		return subcommands.ExitUsageError
	}
	limit, err := decimal.NewFromString(c.limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad amount %q\n", c.limit)
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()
	if err := a.unlock(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := a.categorySvc.SetDefaultLimit(ctx, c.id, limit); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Default limit for category %d set to %s\n", c.id, limit.StringFixed(2))
	return subcommands.ExitSuccess
}

type categoryDeleteCmd struct {
	id int64
}

func (*categoryDeleteCmd) Name() string     { return "category-delete" }
func (*categoryDeleteCmd) Synopsis() string { return "delete an unused category" }
func (*categoryDeleteCmd) Usage() string {
	return `category-delete -id <id>

  Deletes the category. Refused while transactions still reference it.
`
}

func (c *categoryDeleteCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "Category id (required)")
}

func (c *categoryDeleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == 0 {
		fmt.Fprintln(os.Stderr, "Error: -id is required")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()
	if err := a.unlock(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := a.categorySvc.Delete(ctx, c.id); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Deleted category %d\n", c.id)
	return subcommands.ExitSuccess
}

type categoryListCmd struct{}

func (*categoryListCmd) Name() string     { return "categories" }
func (*categoryListCmd) Synopsis() string { return "list categories" }
func (*categoryListCmd) Usage() string {
	return `categories

  Lists every category with its type and default limit.
`
}
func (*categoryListCmd) SetFlags(*flag.FlagSet) {}

func (c *categoryListCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()
	if err := a.unlock(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	cats, err := a.categories.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tDEFAULT LIMIT")
	for _, cat := range cats {
		name, err := a.vault.Decrypt(cat.Name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: skipping category %d: %v\n", cat.ID, err)
			continue
		}
		limit := "-"
		if cat.DefaultLimit != "" {
			if plain, err := a.vault.Decrypt(cat.DefaultLimit); err == nil {
				limit = plain
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", cat.ID, name, cat.Type, limit)
	}
	w.Flush()
	return subcommands.ExitSuccess
}
