package vm

import (
	"bytes"
	"testing"

	"nilan/compiler"
)

func run(t *testing.T, source string) (string, error) {
	t.Helper()
	c, ok, errs := compiler.Compile(source)
	if !ok {
		t.Fatalf("compile failed: %v", errs)
	}
	var out bytes.Buffer
	machine := New(&out)
	err := machine.Interpret(c)
	return out.String(), err
}

func TestArithmeticPrecedence(t *testing.T) {
	out, err := run(t, "print 1 + 2 * 3;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "7\n" {
		t.Errorf("output = %q, want %q", out, "7\n")
	}
}

func TestGlobalsAndReassignment(t *testing.T) {
	out, err := run(t, "var a = 2; var b = 3; print a + b; a = a + 10; print a;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "5\n12\n" {
		t.Errorf("output = %q, want %q", out, "5\n12\n")
	}
}

func TestIfElse(t *testing.T) {
	out, err := run(t, `var x = 1; if (x == 1) print "yes"; else print "no";`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "yes\n" {
		t.Errorf("output = %q, want %q", out, "yes\n")
	}
}

func TestWhileLoop(t *testing.T) {
	out, err := run(t, `var i = 0; while (i < 3) { print i; i = i + 1; }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "0\n1\n2\n" {
		t.Errorf("output = %q, want %q", out, "0\n1\n2\n")
	}
}

func TestDivisionByZero(t *testing.T) {
	_, err := run(t, "print 1 / 0;")
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if err.Error() != "Runtime error: Division by zero." {
		t.Errorf("err = %q, want %q", err.Error(), "Runtime error: Division by zero.")
	}
}

func TestUndefinedVariable(t *testing.T) {
	_, err := run(t, "print undefined_var;")
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if err.Error() != "Runtime error: Undefined variable 'undefined_var'." {
		t.Errorf("err = %q, want %q", err.Error(), "Runtime error: Undefined variable 'undefined_var'.")
	}
}

func TestNegateAndDoubleNot(t *testing.T) {
	out, err := run(t, "print -(3 + 4); print !nil; print !!0;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "-7\ntrue\ntrue\n" {
		t.Errorf("output = %q, want %q", out, "-7\ntrue\ntrue\n")
	}
}

func TestDeepWhileIterationCount(t *testing.T) {
	out, err := run(t, `var i = 0; var n = 0; while (i < 1000) { n = n + 1; i = i + 1; } print n;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "1000\n" {
		t.Errorf("output = %q, want %q", out, "1000\n")
	}
}

func TestSetGlobalUndefinedIsRuntimeError(t *testing.T) {
	_, err := run(t, "undefined_target = 1;")
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if err.Error() != "Runtime error: Undefined variable 'undefined_target'." {
		t.Errorf("err = %q, want %q", err.Error(), "Runtime error: Undefined variable 'undefined_target'.")
	}
}

func TestOperandsMustBeNumbers(t *testing.T) {
	_, err := run(t, `print "a" + true;`)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if err.Error() != "Runtime error: Operands must be numbers." {
		t.Errorf("err = %q, want %q", err.Error(), "Runtime error: Operands must be numbers.")
	}
}

func TestStackBalancedAfterStatement(t *testing.T) {
	c, ok, errs := compiler.Compile("var a = 1; print a; a = 2;")
	if !ok {
		t.Fatalf("compile failed: %v", errs)
	}
	var out bytes.Buffer
	machine := New(&out)
	if err := machine.Interpret(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(machine.stack) != 0 {
		t.Errorf("stack not balanced after statements: %v", machine.stack)
	}
}
