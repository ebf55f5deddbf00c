package compiler

import (
	"fmt"
	goscanner "go/scanner"
	gotoken "go/token"

	lexer "github.com/gloxlang/glox/lang/scanner"
	"github.com/gloxlang/glox/lang/token"
)

// Compile lowers source to a top-level FunctionProto (FunctionKind Script)
// in a single pass: scanning, Pratt-parsing expressions, and emitting
// bytecode all happen interleaved, with no intermediate AST. filename is
// used only to label diagnostics.
//
// On a compile error, Compile still returns as complete a FunctionProto as
// it managed to build (callers should discard it) and a non-nil error that
// is always a goscanner.ErrorList, collecting every diagnostic raised
// during the (panic-mode-synchronized) parse, not just the first.
func Compile(source []byte, filename string) (*FunctionProto, error) {
	c := newCompiler(nil, KindScript, filename)
	c.parser.scanner.Init(source)
	c.parser.advance()

	for !c.parser.match(token.EOF) {
		c.declaration()
	}
	c.parser.consume(token.EOF, "Expect end of expression.")

	proto := c.endCompiler()
	if c.parser.errors.Err() != nil {
		return proto, c.parser.errors.Err()
	}
	return proto, nil
}

// parser holds the shared scanning/error state threaded through every
// function-scope compiler in the current compile.
type parser struct {
	filename  string
	scanner   lexer.Scanner
	current   lexer.Token
	previous  lexer.Token
	errors    goscanner.ErrorList
	panicMode bool
}

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scanner.Scan()
		if p.current.Kind != token.ILLEGAL {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *parser) consume(kind token.Token, msg string) {
	if p.current.Kind == kind {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *parser) check(kind token.Token) bool { return p.current.Kind == kind }

func (p *parser) match(kind token.Token) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.current, msg) }
func (p *parser) error(msg string)          { p.errorAt(p.previous, msg) }

func (p *parser) errorAt(tok lexer.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true

	pos := gotoken.Position{Filename: p.filename, Line: tok.Line}
	switch tok.Kind {
	case token.EOF:
		msg = "at end: " + msg
	case token.ILLEGAL:
		// the lexeme already carries the diagnostic, used verbatim.
	default:
		msg = fmt.Sprintf("at '%s': %s", tok.Lexeme, msg)
	}
	p.errors.Add(pos, msg)
}

// synchronize discards tokens until a likely statement boundary, so a
// single syntax error doesn't cascade into a wall of spurious ones.
func (p *parser) synchronize() {
	p.panicMode = false
	for p.current.Kind != token.EOF {
		if p.previous.Kind == token.SEMI {
			return
		}
		switch p.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// local describes one slot of a function's local-variable array: its
// declaring token's lexeme, its scope depth (-1 while being initialized, a
// "cannot read local in its own initializer" trap), and whether it has been
// captured by a nested closure (which forces OP_CLOSE_UPVALUE on scope
// exit instead of OP_POP).
type local struct {
	name       string
	depth      int
	isCaptured bool
}

type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// compiler is one per function being compiled (top-level script, nested
// function, method or initializer), forming a stack via enclosing that
// mirrors the nesting of fun/method declarations in the source.
type compiler struct {
	parser    *parser
	enclosing *compiler
	class     *classCompiler // nearest enclosing class, shared across the chain

	proto      *FunctionProto
	locals     []local
	upvalues   []UpvalueDesc
	scopeDepth int
}

func newCompiler(enclosing *compiler, kind FunctionKind, filenameIfRoot string) *compiler {
	c := &compiler{
		enclosing: enclosing,
		proto:     &FunctionProto{Kind: kind},
	}
	if enclosing != nil {
		c.parser = enclosing.parser
		c.class = enclosing.class
	} else {
		c.parser = &parser{filename: filenameIfRoot}
	}

	// Slot 0 is reserved: `this` for methods/initializers, anonymous (holds
	// the called closure) for plain functions and the top-level script.
	name := ""
	if kind != KindFunction && kind != KindScript {
		name = "this"
	}
	c.locals = append(c.locals, local{name: name, depth: 0})
	return c
}

func (c *compiler) chunk() *Chunk { return &c.proto.Chunk }

func (c *compiler) emitByte(b byte) { c.chunk().WriteByte(b, c.parser.previous.Line) }
func (c *compiler) emitOp(op Opcode) { c.chunk().WriteOp(op, c.parser.previous.Line) }
func (c *compiler) emitOps(op1, op2 Opcode) {
	c.emitOp(op1)
	c.emitOp(op2)
}
func (c *compiler) emitOpUint16(op Opcode, v uint16) {
	c.emitOp(op)
	c.chunk().WriteUint16(v, c.parser.previous.Line)
}

func (c *compiler) emitConstant(v Constant) {
	c.emitOpUint16(OpConstant, c.chunk().AddConstant(v))
}

// emitJump emits a jump opcode with a placeholder 16-bit distance and
// returns the offset of that placeholder, to be fixed up by patchJump.
func (c *compiler) emitJump(op Opcode) int {
	c.emitOpUint16(op, 0xffff)
	return len(c.chunk().Code) - 2
}

func (c *compiler) patchJump(offset int) {
	dist := len(c.chunk().Code) - (offset + 2)
	if dist > 1<<16-1 {
		c.parser.error("Too much code to jump over.")
	}
	c.chunk().Code[offset] = byte(uint16(dist) >> 8)
	c.chunk().Code[offset+1] = byte(uint16(dist))
}

func (c *compiler) emitLoop(loopStart int) {
	c.emitOp(OpLoop)
	dist := len(c.chunk().Code) - loopStart + 2
	if dist > 1<<16-1 {
		c.parser.error("Loop body too large.")
	}
	c.chunk().WriteUint16(uint16(dist), c.parser.previous.Line)
}

func (c *compiler) emitReturn() {
	if c.proto.Kind == KindInitializer {
		c.emitOp(OpGetLocal)
		c.emitByte(0)
	} else {
		c.emitOp(OpNil)
	}
	c.emitOp(OpReturn)
}

// endCompiler finishes the current function, emitting the implicit final
// return, and returns its FunctionProto. The caller is expected to have
// already restored c.enclosing as the active compiler.
func (c *compiler) endCompiler() *FunctionProto {
	c.emitReturn()
	return c.proto
}

func (c *compiler) beginScope() { c.scopeDepth++ }

func (c *compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		if c.locals[len(c.locals)-1].isCaptured {
			c.emitOp(OpCloseUpvalue)
		} else {
			c.emitOp(OpPop)
		}
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// ---- declarations and statements ----

func (c *compiler) declaration() {
	switch {
	case c.parser.match(token.CLASS):
		c.classDeclaration()
	case c.parser.match(token.FUN):
		c.funDeclaration()
	case c.parser.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.parser.panicMode {
		c.parser.synchronize()
	}
}

func (c *compiler) statement() {
	switch {
	case c.parser.match(token.PRINT):
		c.printStatement()
	case c.parser.match(token.FOR):
		c.forStatement()
	case c.parser.match(token.IF):
		c.ifStatement()
	case c.parser.match(token.RETURN):
		c.returnStatement()
	case c.parser.match(token.WHILE):
		c.whileStatement()
	case c.parser.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *compiler) block() {
	for !c.parser.check(token.RBRACE) && !c.parser.check(token.EOF) {
		c.declaration()
	}
	c.parser.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *compiler) printStatement() {
	c.expression()
	c.parser.consume(token.SEMI, "Expect ';' after value.")
	c.emitOp(OpPrint)
}

func (c *compiler) expressionStatement() {
	c.expression()
	c.parser.consume(token.SEMI, "Expect ';' after expression.")
	c.emitOp(OpPop)
}

func (c *compiler) ifStatement() {
	c.parser.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.parser.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()

	elseJump := c.emitJump(OpJump)
	c.patchJump(thenJump)
	c.emitOp(OpPop)

	if c.parser.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.parser.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.parser.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(OpPop)
}

func (c *compiler) forStatement() {
	c.beginScope()
	c.parser.consume(token.LPAREN, "Expect '(' after 'for'.")
	switch {
	case c.parser.match(token.SEMI):
		// no initializer
	case c.parser.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.parser.match(token.SEMI) {
		c.expression()
		c.parser.consume(token.SEMI, "Expect ';' after loop condition.")
		exitJump = c.emitJump(OpJumpIfFalse)
		c.emitOp(OpPop)
	}

	if !c.parser.match(token.RPAREN) {
		bodyJump := c.emitJump(OpJump)
		incrStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(OpPop)
		c.parser.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(OpPop)
	}
	c.endScope()
}

func (c *compiler) returnStatement() {
	if c.proto.Kind == KindScript {
		c.parser.error("Can't return from top-level code.")
	}
	if c.parser.match(token.SEMI) {
		c.emitReturn()
		return
	}
	if c.proto.Kind == KindInitializer {
		c.parser.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.parser.consume(token.SEMI, "Expect ';' after return value.")
	c.emitOp(OpReturn)
}

func (c *compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.parser.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(OpNil)
	}
	c.parser.consume(token.SEMI, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(KindFunction)
	c.defineVariable(global)
}

func (c *compiler) classDeclaration() {
	c.parser.consume(token.IDENT, "Expect class name.")
	className := c.parser.previous
	nameConst := c.identifierConstant(className.Lexeme)
	c.declareVariable(className.Lexeme)

	c.emitOpUint16(OpClass, nameConst)
	c.defineVariable(nameConst)

	cc := &classCompiler{enclosing: c.class}
	c.class = cc
	defer func() { c.class = cc.enclosing }()

	if c.parser.match(token.LT) {
		c.parser.consume(token.IDENT, "Expect superclass name.")
		c.variable(false)
		if className.Lexeme == c.parser.previous.Lexeme {
			c.parser.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal("super")
		c.markInitialized()

		c.namedVariable(className, false)
		c.emitOp(OpInherit)
		cc.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.parser.consume(token.LBRACE, "Expect '{' before class body.")
	for !c.parser.check(token.RBRACE) && !c.parser.check(token.EOF) {
		c.method()
	}
	c.parser.consume(token.RBRACE, "Expect '}' after class body.")
	c.emitOp(OpPop)

	if cc.hasSuperclass {
		c.endScope()
	}
}

func (c *compiler) method() {
	c.parser.consume(token.IDENT, "Expect method name.")
	name := c.parser.previous.Lexeme
	nameConst := c.identifierConstant(name)

	kind := KindMethod
	if name == "init" {
		kind = KindInitializer
	}
	c.function(kind)
	c.emitOpUint16(OpMethod, nameConst)
}

// function compiles a nested function body (for fun declarations, method
// bodies and the implicit `this`-bearing slot 0) into its own Chunk, then
// emits OP_CLOSURE into the *enclosing* chunk referencing it as a constant.
func (c *compiler) function(kind FunctionKind) {
	inner := newCompiler(c, kind, "")
	inner.proto.Name = c.parser.previous.Lexeme
	inner.beginScope()

	inner.parser.consume(token.LPAREN, "Expect '(' after function name.")
	if !inner.parser.check(token.RPAREN) {
		for {
			inner.proto.Arity++
			if inner.proto.Arity > 255 {
				inner.parser.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constIdx := inner.parseVariable("Expect parameter name.")
			inner.defineVariable(constIdx)
			if !inner.parser.match(token.COMMA) {
				break
			}
		}
	}
	inner.parser.consume(token.RPAREN, "Expect ')' after parameters.")
	inner.parser.consume(token.LBRACE, "Expect '{' before function body.")
	inner.block()

	proto := inner.endCompiler()
	proto.UpvalueCount = len(inner.upvalues)
	proto.Upvalues = inner.upvalues

	idx := c.chunk().AddConstant(proto)
	c.emitOpUint16(OpClosure, idx)
	for _, uv := range inner.upvalues {
		isLocal := byte(0)
		if uv.IsLocal {
			isLocal = 1
		}
		c.emitByte(isLocal)
		c.emitByte(uv.Index)
	}
}
