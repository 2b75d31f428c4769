package compiler

import (
	"testing"

	"nilan/chunk"
)

func countOp(c *chunk.Chunk, op chunk.OpCode) int {
	count := 0
	for offset := 0; offset < c.Count(); {
		got := chunk.OpCode(c.Code[offset])
		if got == op {
			count++
		}
		_, offset = c.DisassembleInstruction(offset)
	}
	return count
}

func TestCompileArithmeticEndsInReturn(t *testing.T) {
	c, ok, errs := Compile("print 1 + 2 * 3;")
	if !ok {
		t.Fatalf("Compile failed: %v", errs)
	}
	if c.Count() == 0 {
		t.Fatal("expected emitted bytecode")
	}
	last := chunk.OpCode(c.Code[len(c.Code)-1])
	if last != chunk.OpReturn {
		t.Errorf("last opcode = %v, want OP_RETURN", last)
	}
}

func TestCompileVarDeclaration(t *testing.T) {
	c, ok, errs := Compile("var a = 1;")
	if !ok {
		t.Fatalf("Compile failed: %v", errs)
	}
	if countOp(c, chunk.OpDefineGlobal) != 1 {
		t.Error("expected exactly one OP_DEFINE_GLOBAL")
	}
}

func TestCompileIfElse(t *testing.T) {
	_, ok, errs := Compile(`var x = 1; if (x == 1) print "yes"; else print "no";`)
	if !ok {
		t.Fatalf("Compile failed: %v", errs)
	}
}

func TestCompileWhile(t *testing.T) {
	c, ok, errs := Compile(`var i = 0; while (i < 3) { print i; i = i + 1; }`)
	if !ok {
		t.Fatalf("Compile failed: %v", errs)
	}
	if countOp(c, chunk.OpLoop) != 1 {
		t.Error("expected exactly one OP_LOOP")
	}
}

func TestCompileNeAndLe(t *testing.T) {
	_, ok, errs := Compile("print 1 != 2; print 1 <= 2; print 1 >= 2;")
	if !ok {
		t.Fatalf("Compile failed: %v", errs)
	}
}

func TestAssignmentInAnyPrimaryPosition(t *testing.T) {
	// Known quirk, preserved verbatim: `a + b = c` compiles as `a + (b = c)`.
	_, ok, errs := Compile("var a = 1; var b = 2; var c = 3; print a + b = c;")
	if !ok {
		t.Fatalf("Compile failed, expected the ambiguous form to compile: %v", errs)
	}
}

func TestChainedAssignment(t *testing.T) {
	_, ok, errs := Compile("var a = 0; var b = 0; var c = 0; a = b = c = 5;")
	if !ok {
		t.Fatalf("Compile failed: %v", errs)
	}
}

func TestMissingSemicolonReportsError(t *testing.T) {
	_, ok, errs := Compile("print 1")
	if ok {
		t.Fatal("expected a compile error for missing ';'")
	}
	if len(errs) == 0 {
		t.Fatal("expected at least one reported error")
	}
	if errs[0].Location != " at end" {
		t.Errorf("Location = %q, want %q", errs[0].Location, " at end")
	}
}

func TestMissingSemicolonAtSpecificToken(t *testing.T) {
	_, ok, errs := Compile("print 1 print 2;")
	if ok {
		t.Fatal("expected a compile error")
	}
	if errs[0].Location != " at 'print'" {
		t.Errorf("Location = %q, want %q", errs[0].Location, " at 'print'")
	}
}

func TestPanicModeSuppressesCascade(t *testing.T) {
	// A single malformed declaration fails two consume() checks in a row
	// (missing identifier, then missing ';'); panic mode must suppress
	// the second so only one error is reported for the whole statement.
	_, ok, errs := Compile("var 1 2 3;")
	if ok {
		t.Fatal("expected a compile error")
	}
	if len(errs) != 1 {
		t.Errorf("got %d errors, want 1 (panic mode should suppress the rest): %v", len(errs), errs)
	}
}

func TestNestedBlocks(t *testing.T) {
	_, ok, errs := Compile(`{ { var a = 1; print a; } }`)
	if !ok {
		t.Fatalf("Compile failed: %v", errs)
	}
}
