package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/jask/ledgerlock/internal/database/repository"
	"github.com/jask/ledgerlock/internal/service"
)

type importCmd struct {
	file    string
	format  string
	dryRun  bool
	all     bool
	mapping bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a bank CSV export" }
func (*importCmd) Usage() string {
	return `import -file <path> [-format <id>] [-dry-run] [-all] [-save-mappings]

  Parses the CSV, flags duplicates against stored transactions and commits
  the rest. Unknown category names found in description rules are created
  as expense categories.
  - dry-run: print the review table and stop.
  - all: also commit rows flagged as duplicates.
  - save-mappings: remember a description rule for every auto-suggested row.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "CSV file to import (required)")
	f.StringVar(&c.format, "format", "", "Bank format id; defaults to import.default_format")
	f.BoolVar(&c.dryRun, "dry-run", false, "Review only, commit nothing")
	f.BoolVar(&c.all, "all", false, "Import duplicate rows too")
	f.BoolVar(&c.mapping, "save-mappings", false, "Save a rule for every suggested row")
}

// autoCreateDecider makes bulk imports non-interactive: every unknown
// category name from a rule becomes a fresh expense category.
var autoCreateDecider = service.DeciderFunc(func(string) (service.CategoryDecision, bool) {
	return service.CategoryDecision{CreateNew: true, Type: repository.TypeExpense}, true
})

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
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

	formatID := c.format
	if formatID == "" {
		formatID = a.cfg.Import.DefaultFormat
	}

	f, err := os.Open(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer f.Close()

	rows, err := a.importer.Process(ctx, f, formatID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	for i := range rows {
		printReviewRow(&rows[i])
		if c.all {
			rows[i].Skip = false
		}
		if c.mapping {
			rows[i].SaveMapping = true
		}
	}
	if c.dryRun {
		fmt.Printf("%d rows parsed, nothing committed\n", len(rows))
		return subcommands.ExitSuccess
	}

	res, err := a.importer.Commit(ctx, rows, autoCreateDecider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "warn: %v\n", e)
	}
	fmt.Printf("Imported %d, skipped %d\n", len(res.ImportedIDs), res.Skipped)
	return subcommands.ExitSuccess
}

func printReviewRow(row *service.ReviewRow) {
	status := " "
	switch {
	case row.IsDuplicate:
		status = "D"
	case row.Similarity > 0:
		status = "~"
	}
	category := row.SuggestedCategoryName
	switch {
	case row.SuggestedTransfer:
		category = "Transfer"
	case row.NeedsCategory:
		category += " (new)"
	case category == "":
		category = "-"
	}
	fmt.Printf("%s %-10s %10s  %-30s %s\n", status, row.Date, row.Amount, row.Description, category)
}

type importMappingsCmd struct {
	file string
}

func (*importMappingsCmd) Name() string     { return "import-mappings" }
func (*importMappingsCmd) Synopsis() string { return "bulk-load description rules from a CSV" }
func (*importMappingsCmd) Usage() string {
	return `import-mappings -file <path>

  Loads description,category,payee rows as auto-categorization rules.
  Rules whose description already exists are skipped. Unknown category
  names are created as expense categories.
`
}

func (c *importMappingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "CSV file with description/category/payee columns (required)")
}

func (c *importMappingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
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

	f, err := os.Open(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer f.Close()

	res, err := a.importer.ImportMappings(ctx, f, autoCreateDecider)
	if err != nil {
		if errors.Is(err, service.ErrImportCancelled) {
			fmt.Fprintln(os.Stderr, "Error: import cancelled")
			return subcommands.ExitFailure
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "warn: %v\n", e)
	}
	fmt.Printf("Imported %d rules, skipped %d\n", res.Imported, res.Skipped)
	return subcommands.ExitSuccess
}
