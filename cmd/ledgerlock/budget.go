package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type budgetSetCmd struct {
	category int64
	month    string
	limit    string
}

func (*budgetSetCmd) Name() string     { return "budget-set" }
func (*budgetSetCmd) Synopsis() string { return "set a category's limit for one month" }
func (*budgetSetCmd) Usage() string {
	return `budget-set -category <id> -month <YYYY-MM> -limit <amount>

  Writes a per-month override. Only that month is affected.
`
}

func (c *budgetSetCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.category, "category", 0, "Category id (required)")
	f.StringVar(&c.month, "month", "", "Month, YYYY-MM (required)")
	f.StringVar(&c.limit, "limit", "", "Limit amount (required)")
}

func (c *budgetSetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.category == 0 || c.month == "" || c.limit == "" {
		fmt.Fprintln(os.Stderr, "Error: -category, -month and -limit are required")
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

	if err := a.budget.SetLimit(ctx, c.category, c.month, limit); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Limit for category %d in %s set to %s\n", c.category, c.month, limit.StringFixed(2))
	return subcommands.ExitSuccess
}

type budgetClearCmd struct {
	category int64
	month    string
}

func (*budgetClearCmd) Name() string     { return "budget-clear" }
func (*budgetClearCmd) Synopsis() string { return "remove a month's override" }
func (*budgetClearCmd) Usage() string {
	return `budget-clear -category <id> -month <YYYY-MM>

  Removes the override so the month falls back to the configured policy.
`
}

func (c *budgetClearCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.category, "category", 0, "Category id (required)")
	f.StringVar(&c.month, "month", "", "Month, YYYY-MM (required)")
}

func (c *budgetClearCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.category == 0 || c.month == "" {
		fmt.Fprintln(os.Stderr, "Error: -category and -month are required")
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

	if err := a.budget.ClearLimit(ctx, c.category, c.month); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Cleared override for category %d in %s\n", c.category, c.month)
	return subcommands.ExitSuccess
}

type budgetCopyCmd struct {
	from string
	to   string
}

func (*budgetCopyCmd) Name() string     { return "budget-copy" }
func (*budgetCopyCmd) Synopsis() string { return "copy one month's overrides to another" }
func (*budgetCopyCmd) Usage() string {
	return `budget-copy -from <YYYY-MM> -to <YYYY-MM>

  Copies every override from one month to another, replacing any the
  target already had. The source month is untouched.
`
}

func (c *budgetCopyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "Source month, YYYY-MM (required)")
	f.StringVar(&c.to, "to", "", "Target month, YYYY-MM (required)")
}

func (c *budgetCopyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.from == "" || c.to == "" {
		fmt.Fprintln(os.Stderr, "Error: -from and -to are required")
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

	n, err := a.budget.CopyMonth(ctx, c.from, c.to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Copied %d overrides from %s to %s\n", n, c.from, c.to)
	return subcommands.ExitSuccess
}

type budgetShowCmd struct {
	month string
}

func (*budgetShowCmd) Name() string     { return "budget" }
func (*budgetShowCmd) Synopsis() string { return "show effective limits for a month" }
func (*budgetShowCmd) Usage() string {
	return `budget [-month <YYYY-MM>]

  Shows every category's effective limit for the month, defaulting to the
  current one.
`
}

func (c *budgetShowCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Month, YYYY-MM; defaults to the current month")
}

func (c *budgetShowCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	month := c.month
	if month == "" {
		month = time.Now().Format("2006-01")
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

	cats, err := a.categories.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "CATEGORY\tLIMIT (%s)\n", month)
	for _, cat := range cats {
		name, err := a.vault.Decrypt(cat.Name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: skipping category %d: %v\n", cat.ID, err)
			continue
		}
		limit, err := a.budget.LimitFor(ctx, cat.ID, month)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: category %d: %v\n", cat.ID, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", name, limit.StringFixed(2))
	}
	w.Flush()
	return subcommands.ExitSuccess
}
