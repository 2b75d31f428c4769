package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&emitBytecodeCmd{}, "")

	flag.Parse()
	ctx := context.Background()

	switch subcommands.Execute(ctx) {
	case subcommands.ExitSuccess:
		os.Exit(0)
	case subcommands.ExitUsageError:
		// subcommands' own no-command/unrecognized-command dispatch path
		// (and any subcommand that returns ExitUsageError) maps to
		// spec.md §6's usage-error code, not the library's raw value.
		os.Exit(64)
	default:
		os.Exit(1)
	}
}
