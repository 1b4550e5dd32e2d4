package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&initCmd{}, "vault")
	commander.Register(&resetCmd{}, "vault")

	commander.Register(&importCmd{}, "import")
	commander.Register(&importMappingsCmd{}, "import")

	commander.Register(&categoryAddCmd{}, "categories")
	commander.Register(&categoryRenameCmd{}, "categories")
	commander.Register(&categoryLimitCmd{}, "categories")
	commander.Register(&categoryDeleteCmd{}, "categories")
	commander.Register(&categoryListCmd{}, "categories")

	commander.Register(&budgetSetCmd{}, "budget")
	commander.Register(&budgetClearCmd{}, "budget")
	commander.Register(&budgetCopyCmd{}, "budget")
	commander.Register(&budgetShowCmd{}, "budget")

	commander.Register(&listCmd{}, "transactions")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
