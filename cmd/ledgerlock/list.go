package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
)

type listCmd struct {
	month string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list transactions with their effective categories" }
func (*listCmd) Usage() string {
	return `list [-month <YYYY-MM>]

  Decrypts and prints stored transactions. Categories and payees are
  resolved live, so rule and rename changes show immediately.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Only transactions in this month, YYYY-MM")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	txs, err := a.transactions.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAMOUNT\tDESCRIPTION\tCATEGORY\tPAYEE")
	for _, tx := range txs {
		date, err := a.vault.Decrypt(tx.Date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: skipping %s: %v\n", tx.ID, err)
			continue
		}
		if c.month != "" && !strings.HasPrefix(date, c.month) {
			continue
		}
		amount, err := a.vault.Decrypt(tx.Amount)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: skipping %s: %v\n", tx.ID, err)
			continue
		}
		description, err := a.vault.Decrypt(tx.Description)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: skipping %s: %v\n", tx.ID, err)
			continue
		}

		res, err := a.resolver.Resolve(ctx, tx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: resolving %s: %v\n", tx.ID, err)
			continue
		}
		category := res.CategoryName
		if category == "" {
			category = string(res.CategoryType)
		}
		payee := res.PayeeName
		if payee == "" {
			payee = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", date, amount, description, category, payee)
	}
	w.Flush()
	return subcommands.ExitSuccess
}
