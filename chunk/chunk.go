// Package chunk implements the compiled bytecode container: a growable
// instruction stream, a parallel per-instruction line map, and a constant
// pool of runtime values.
package chunk

import (
	"encoding/binary"
	"fmt"
	"nilan/value"
)

// OpCode is a single bytecode instruction tag.
type OpCode byte

const (
	OpConstant OpCode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpPrint
	OpJump
	OpJumpIfFalse
	OpLoop
	OpReturn
)

var opNames = map[OpCode]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpLoop:         "OP_LOOP",
	OpReturn:       "OP_RETURN",
}

func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_UNKNOWN(%d)", byte(op))
}

// operandWidths gives the number of operand bytes following each opcode
// that takes one; opcodes absent from this map take no operand.
var operandWidths = map[OpCode]int{
	OpConstant:     1,
	OpGetGlobal:    1,
	OpDefineGlobal: 1,
	OpSetGlobal:    1,
	OpJump:         2,
	OpJumpIfFalse:  2,
	OpLoop:         2,
}

// Chunk is a self-contained unit of compiled bytecode: the instruction
// stream, a line number for every byte in it, and the constant pool
// referenced by single-byte operand index.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

// New returns an empty Chunk.
func New() *Chunk {
	return &Chunk{}
}

// Write appends a single byte (an opcode or an operand byte) with the
// source line it was emitted for.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp appends an opcode.
func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Write(byte(op), line)
}

// Count returns the number of bytes emitted so far.
func (c *Chunk) Count() int {
	return len(c.Code)
}

// AddConstant appends v to the constant pool and returns its index. The
// compiler is responsible for ensuring the index fits in a byte (index
// ≤255, so at most 256 constants per chunk).
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Disassemble renders every instruction in the chunk for debugging,
// labeled with name.
func (c *Chunk) Disassemble(name string) string {
	out := fmt.Sprintf("== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		var line string
		line, offset = c.DisassembleInstruction(offset)
		out += line
	}
	return out
}

// DisassembleInstruction renders the instruction at offset and returns the
// offset of the next instruction.
func (c *Chunk) DisassembleInstruction(offset int) (string, int) {
	op := OpCode(c.Code[offset])
	lineField := fmt.Sprintf("%4d", c.Lines[offset])
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		lineField = "   |"
	}

	width, hasOperand := operandWidths[op]
	if !hasOperand {
		return fmt.Sprintf("%04d %s %s\n", offset, lineField, op), offset + 1
	}

	switch width {
	case 1:
		idx := int(c.Code[offset+1])
		extra := ""
		if isConstantOp(op) && idx < len(c.Constants) {
			extra = fmt.Sprintf(" %s", c.Constants[idx].String())
		}
		return fmt.Sprintf("%04d %s %-16s %4d%s\n", offset, lineField, op, idx, extra), offset + 2
	case 2:
		operand := binary.BigEndian.Uint16(c.Code[offset+1 : offset+3])
		target := jumpTarget(op, offset, operand)
		return fmt.Sprintf("%04d %s %-16s %4d -> %d\n", offset, lineField, op, operand, target), offset + 3
	default:
		return fmt.Sprintf("%04d %s %s (unknown operand width)\n", offset, lineField, op), offset + 1
	}
}

func isConstantOp(op OpCode) bool {
	return op == OpConstant || op == OpGetGlobal || op == OpDefineGlobal || op == OpSetGlobal
}

func jumpTarget(op OpCode, offset int, operand uint16) int {
	if op == OpLoop {
		return offset + 3 - int(operand)
	}
	return offset + 3 + int(operand)
}
