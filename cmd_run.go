package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"nilan/interpret"
	"nilan/vm"
)

// runCmd compiles and runs a single source file through the bytecode
// pipeline (spec.md's core): scanner -> single-pass compiler -> VM.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Compile and run a Nilan source file" }
func (*runCmd) Usage() string {
	return `run <path>:
  Compile and execute a Nilan source file.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: nilan run [script]")
		os.Exit(64)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(64)
	}

	machine := vm.New(os.Stdout)
	result := interpret.Run(string(data), machine, os.Stderr)
	os.Exit(result.ExitCode())

	return subcommands.ExitSuccess
}
