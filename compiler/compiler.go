// Package compiler implements a single-pass recursive-descent compiler: it
// pulls tokens lazily from a lexer and emits bytecode directly into a
// chunk.Chunk, with no intermediate AST. Jump patching realizes if/while
// control flow.
package compiler

import (
	"encoding/binary"
	"fmt"

	"nilan/chunk"
	"nilan/lexer"
	"nilan/token"
	"nilan/value"
)

const maxJump = 1<<16 - 1

// Compiler holds the single-pass parser/emitter state: the current and
// previous token, error flags, and the chunk being built.
type Compiler struct {
	lex *lexer.Lexer

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errors    []CompileError

	chunk *chunk.Chunk
}

// Compile scans and compiles source into a bytecode chunk. The returned
// bool is true iff no compile errors were reported; on failure, errs
// describes every reported diagnostic.
func Compile(source string) (c *chunk.Chunk, ok bool, errs []CompileError) {
	comp := &Compiler{lex: lexer.New(source), chunk: chunk.New()}
	comp.advance()

	for !comp.check(token.EOF) {
		comp.declaration()
	}

	comp.emitReturn()
	return comp.chunk, !comp.hadError, comp.errors
}

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.ScanToken()
		if c.current.Type != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(t token.TokenType) bool {
	return c.current.Type == t
}

func (c *Compiler) match(t token.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.TokenType, message string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) errorAtPrevious(message string) {
	c.errorAt(c.previous, message)
}

// errorAt records a diagnostic at tok's location. Panic mode suppresses
// every subsequent error until synchronize() clears it at a statement
// boundary, so at most one error is reported per malformed statement.
func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	location := ""
	switch tok.Type {
	case token.EOF:
		location = " at end"
	case token.ERROR:
		location = ""
	default:
		location = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
	c.errors = append(c.errors, CompileError{Line: tok.Line, Location: location, Message: message})
}

// synchronize skips tokens until a likely statement boundary, so a single
// malformed declaration does not cascade into spurious downstream errors.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.current.Type != token.EOF {
		if c.previous.Type == token.SEMICOLON {
			return
		}
		switch c.current.Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- emission ---

func (c *Compiler) emitByte(b byte) {
	c.chunk.Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op chunk.OpCode) {
	c.emitByte(byte(op))
}

func (c *Compiler) emitReturn() {
	c.emitOp(chunk.OpReturn)
}

// emitConstant adds v to the chunk's constant pool and emits OP_CONSTANT
// with its index, which must fit in a single byte.
func (c *Compiler) emitConstant(v value.Value) {
	idx := c.chunk.AddConstant(v)
	if idx > 255 {
		c.errorAtPrevious("Too many constants in one chunk.")
		return
	}
	c.emitOp(chunk.OpConstant)
	c.emitByte(byte(idx))
}

// emitJump emits op followed by a 2-byte placeholder operand, returning
// the offset of the placeholder for a later patchJump call.
func (c *Compiler) emitJump(op chunk.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return c.chunk.Count() - 2
}

// patchJump backfills the placeholder at offset with the distance from
// just past the operand to the current chunk position.
func (c *Compiler) patchJump(offset int) {
	jump := c.chunk.Count() - offset - 2
	if jump > maxJump {
		c.errorAtPrevious("Too much code to jump over.")
		return
	}
	binary.BigEndian.PutUint16(c.chunk.Code[offset:offset+2], uint16(jump))
}

// emitLoop emits OP_LOOP with a positive back-offset from just past its
// own operand to loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(chunk.OpLoop)
	offset := c.chunk.Count() + 2 - loopStart
	if offset > maxJump {
		c.errorAtPrevious("Loop body too large.")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

// --- declarations & statements ---

func (c *Compiler) declaration() {
	switch {
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.EQUAL) {
		c.expression()
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")

	c.emitOp(chunk.OpDefineGlobal)
	c.emitByte(global)
}

func (c *Compiler) parseVariable(message string) byte {
	c.consume(token.IDENTIFIER, message)
	return c.identifierConstant(c.previous)
}

func (c *Compiler) identifierConstant(name token.Token) byte {
	idx := c.chunk.AddConstant(value.NewString(name.Lexeme))
	if idx > 255 {
		c.errorAtPrevious("Too many constants in one chunk.")
	}
	return byte(idx)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.LBRACE):
		c.block()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(chunk.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(chunk.OpPop)
}

// block compiles "{" declaration* "}". The compiled core has no local
// scopes, so a block is simply a sequence of declarations — no scope
// enter/exit bytecode is emitted.
func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.declaration()

	elseJump := c.emitJump(chunk.OpJump)
	c.patchJump(thenJump)
	c.emitOp(chunk.OpPop)

	if c.match(token.ELSE) {
		c.declaration()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := c.chunk.Count()

	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.declaration()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(chunk.OpPop)
}

// --- expressions ---

var binaryOps = map[token.TokenType][]chunk.OpCode{
	token.STAR:          {chunk.OpMultiply},
	token.SLASH:         {chunk.OpDivide},
	token.PLUS:          {chunk.OpAdd},
	token.MINUS:         {chunk.OpSubtract},
	token.EQUAL_EQUAL:   {chunk.OpEqual},
	token.BANG_EQUAL:    {chunk.OpEqual, chunk.OpNot},
	token.LESS:          {chunk.OpLess},
	token.LESS_EQUAL:    {chunk.OpGreater, chunk.OpNot},
	token.GREATER:       {chunk.OpGreater},
	token.GREATER_EQUAL: {chunk.OpLess, chunk.OpNot},
}

// expression compiles the flat left-associative chain of binary operators
// over primary_with_unary that spec.md §4.4 prescribes: one level, not a
// precedence ladder.
func (c *Compiler) expression() {
	c.unaryOrPrimary()

	for {
		ops, ok := binaryOps[c.current.Type]
		if !ok {
			return
		}
		c.advance()
		c.unaryOrPrimary()
		for _, op := range ops {
			c.emitOp(op)
		}
	}
}

func (c *Compiler) unaryOrPrimary() {
	switch {
	case c.match(token.BANG):
		c.unaryOrPrimary()
		c.emitOp(chunk.OpNot)
	case c.match(token.MINUS):
		c.unaryOrPrimary()
		c.emitOp(chunk.OpNegate)
	case c.match(token.FALSE):
		c.emitOp(chunk.OpFalse)
	case c.match(token.TRUE):
		c.emitOp(chunk.OpTrue)
	case c.match(token.NIL):
		c.emitOp(chunk.OpNil)
	case c.match(token.NUMBER):
		c.number()
	case c.match(token.STRING):
		c.string()
	case c.match(token.LPAREN):
		c.expression()
		c.consume(token.RPAREN, "Expect ')' after expression.")
	case c.match(token.IDENTIFIER):
		c.variable()
	default:
		c.errorAtCurrent("Expect expression.")
	}
}

func (c *Compiler) number() {
	n, _ := c.previous.Literal.(float64)
	c.emitConstant(value.NewNumber(n))
}

func (c *Compiler) string() {
	s, _ := c.previous.Literal.(string)
	c.emitConstant(value.NewString(s))
}

// variable emits OP_GET_GLOBAL, or — if the identifier is immediately
// followed by '=' — parses an expression and emits OP_SET_GLOBAL. This
// check happens directly in primary position rather than at a dedicated
// assignment precedence level, which is why `a + b = c` compiles as
// `a + (b = c)`: preserved verbatim per spec.md §9.
func (c *Compiler) variable() {
	name := c.previous
	if c.match(token.EQUAL) {
		c.expression()
		idx := c.identifierConstant(name)
		c.emitOp(chunk.OpSetGlobal)
		c.emitByte(idx)
		return
	}
	idx := c.identifierConstant(name)
	c.emitOp(chunk.OpGetGlobal)
	c.emitByte(idx)
}
