package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"nilan/interpret"
	"nilan/lexer"
	"nilan/token"
	"nilan/vm"
)

// replCmd is the interactive bytecode REPL: one long-lived VM for the
// process, so global bindings persist across lines until "exit" or EOF.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Nilan session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive read-eval-print loop.
`
}
func (r *replCmd) SetFlags(f *flag.FlagSet) {}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	machine := vm.New(os.Stdout)

	rl, err := readline.NewEx(&readline.Config{Prompt: "> "})
	if err != nil {
		runReplWithScanner(os.Stdin, os.Stdout, machine)
		return subcommands.ExitSuccess
	}
	defer rl.Close()
	runReplWithReadline(rl, machine)
	return subcommands.ExitSuccess
}

func runReplWithReadline(rl *readline.Instance, machine *vm.VM) {
	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt("> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return
		}
		if isExit(line, buffer) {
			return
		}

		buffer.WriteString(line)
		buffer.WriteString("\n")
		source := buffer.String()

		if !isInputReady(source) {
			continue
		}
		interpret.Run(source, machine, os.Stderr)
		buffer.Reset()
	}
}

func runReplWithScanner(in io.Reader, out io.Writer, machine *vm.VM) {
	scanner := bufio.NewScanner(in)
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			fmt.Fprint(out, "> ")
		} else {
			fmt.Fprint(out, "... ")
		}

		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if isExit(line, buffer) {
			return
		}

		buffer.WriteString(line)
		buffer.WriteString("\n")
		source := buffer.String()

		if !isInputReady(source) {
			continue
		}
		interpret.Run(source, machine, os.Stderr)
		buffer.Reset()
	}
}

func isExit(line string, buffer strings.Builder) bool {
	return buffer.Len() == 0 && strings.EqualFold(strings.TrimSpace(line), "exit")
}

// isInputReady reports whether source looks like a complete statement: no
// unbalanced braces, and the last significant token isn't one that
// obviously expects more input to follow.
func isInputReady(source string) bool {
	tokens := scanAll(source)

	braceBalance := 0
	for _, tok := range tokens {
		switch tok.Type {
		case token.LBRACE:
			braceBalance++
		case token.RBRACE:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.Type {
	case token.EQUAL, token.PLUS, token.MINUS, token.STAR, token.SLASH, token.BANG,
		token.EQUAL_EQUAL, token.BANG_EQUAL, token.LESS, token.LESS_EQUAL,
		token.GREATER, token.GREATER_EQUAL, token.COMMA, token.LPAREN, token.LBRACE,
		token.IF, token.ELSE, token.WHILE, token.FOR, token.FUN, token.RETURN,
		token.VAR, token.AND, token.OR, token.PRINT, token.CLASS:
		return false
	}
	return true
}

func scanAll(source string) []token.Token {
	lex := lexer.New(source)
	var tokens []token.Token
	for {
		tok := lex.ScanToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].Type != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}
