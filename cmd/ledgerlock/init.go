package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/jask/ledgerlock/internal/service"
)

type initCmd struct{}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "first-time setup: choose a password, create the vault" }
func (*initCmd) Usage() string {
	return `init

  Creates the encrypted ledger. Prompts for a password unless
  LEDGERLOCK_PASSWORD is set. Refuses to run if a vault already exists.
`
}
func (*initCmd) SetFlags(*flag.FlagSet) {}

func (c *initCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	password, err := readPassword("New password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if os.Getenv(passwordEnv) == "" {
		confirm, err := readConfirm("Repeat password: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		if confirm != password {
			fmt.Fprintln(os.Stderr, "Error: passwords do not match")
			return subcommands.ExitUsageError
		}
	}

	if _, err := a.unlockSvc.Setup(ctx, password); err != nil {
		if errors.Is(err, service.ErrAlreadySetUp) {
			fmt.Fprintln(os.Stderr, "Error: vault already set up; use 'reset' to start over")
			return subcommands.ExitFailure
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Vault created at %s\n", a.cfg.Database.Path)
	return subcommands.ExitSuccess
}

// readConfirm always prompts, ignoring the environment.
func readConfirm(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
