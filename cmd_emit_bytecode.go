package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"nilan/compiler"
)

// emitBytecodeCmd compiles a source file and prints its disassembled
// bytecode, for inspecting what the single-pass compiler emits.
type emitBytecodeCmd struct{}

func (*emitBytecodeCmd) Name() string     { return "emit" }
func (*emitBytecodeCmd) Synopsis() string { return "Disassemble the bytecode compiled from a source file" }
func (*emitBytecodeCmd) Usage() string {
	return `emit <path>:
  Compile a Nilan source file and print its disassembled bytecode.
`
}
func (*emitBytecodeCmd) SetFlags(f *flag.FlagSet) {}

func (r *emitBytecodeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: nilan emit <path>")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	c, ok, errs := compiler.Compile(string(data))
	if !ok {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		os.Exit(65)
	}

	fmt.Print(c.Disassemble(args[0]))
	return subcommands.ExitSuccess
}
