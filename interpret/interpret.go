// Package interpret is the Driver (spec.md §4.6): it wires the scanner,
// compiler, and VM phases together and reports which phase a source
// string completed in.
package interpret

import (
	"fmt"
	"io"

	"nilan/compiler"
	"nilan/vm"
)

// Phase tags which stage produced the final Result.
type Phase int

const (
	Ok Phase = iota
	PhaseCompileError
	PhaseRuntimeError
)

// Result is the driver's phase-tagged outcome.
type Result struct {
	Phase         Phase
	CompileErrors []compiler.CompileError
	RuntimeErr    error
}

// ExitCode maps Result to the process exit code spec.md §6 specifies:
// 0 on success, 65 for a compile error, 70 for a runtime error.
func (r Result) ExitCode() int {
	switch r.Phase {
	case PhaseCompileError:
		return 65
	case PhaseRuntimeError:
		return 70
	default:
		return 0
	}
}

// Run compiles source and, on success, executes it on machine. Compile
// errors are written to errOut as "[line N] Error<location>: <message>";
// a runtime error is written as "Runtime error: <message>". machine is
// supplied by the caller so a REPL session can reuse one VM (and so its
// globals) across calls, while a single-shot run uses a fresh one.
func Run(source string, machine *vm.VM, errOut io.Writer) Result {
	c, ok, errs := compiler.Compile(source)
	if !ok {
		for _, e := range errs {
			fmt.Fprintln(errOut, e.Error())
		}
		return Result{Phase: PhaseCompileError, CompileErrors: errs}
	}

	if err := machine.Interpret(c); err != nil {
		fmt.Fprintln(errOut, err.Error())
		return Result{Phase: PhaseRuntimeError, RuntimeErr: err}
	}

	return Result{Phase: Ok}
}
