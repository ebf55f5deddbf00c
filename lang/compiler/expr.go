package compiler

import (
	"strconv"

	lexer "github.com/gloxlang/glox/lang/scanner"
	"github.com/gloxlang/glox/lang/token"
)

// precedence orders binding strength from loosest to tightest.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type (
	prefixFn func(c *compiler, canAssign bool)
	infixFn  func(c *compiler, canAssign bool)
)

type parseRule struct {
	prefix     prefixFn
	infix      infixFn
	precedence precedence
}

var rules map[token.Token]parseRule

func init() {
	rules = map[token.Token]parseRule{
		token.LPAREN:  {(*compiler).grouping, (*compiler).call, precCall},
		token.DOT:     {nil, (*compiler).dot, precCall},
		token.MINUS:   {(*compiler).unary, (*compiler).binary, precTerm},
		token.PLUS:    {nil, (*compiler).binary, precTerm},
		token.SLASH:   {nil, (*compiler).binary, precFactor},
		token.STAR:    {nil, (*compiler).binary, precFactor},
		token.BANG:    {(*compiler).unary, nil, precNone},
		token.BANG_EQ: {nil, (*compiler).binary, precEquality},
		token.EQ_EQ:   {nil, (*compiler).binary, precEquality},
		token.GT:      {nil, (*compiler).binary, precComparison},
		token.GT_EQ:   {nil, (*compiler).binary, precComparison},
		token.LT:      {nil, (*compiler).binary, precComparison},
		token.LT_EQ:   {nil, (*compiler).binary, precComparison},
		token.IDENT:   {(*compiler).variableExpr, nil, precNone},
		token.STRING:  {(*compiler).string, nil, precNone},
		token.NUMBER:  {(*compiler).number, nil, precNone},
		token.AND:     {nil, (*compiler).and, precAnd},
		token.OR:      {nil, (*compiler).or, precOr},
		token.FALSE:   {(*compiler).literal, nil, precNone},
		token.NIL:     {(*compiler).literal, nil, precNone},
		token.TRUE:    {(*compiler).literal, nil, precNone},
		token.SUPER:   {(*compiler).super, nil, precNone},
		token.THIS:    {(*compiler).this, nil, precNone},
	}
}

func getRule(kind token.Token) parseRule { return rules[kind] }

func (c *compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *compiler) parsePrecedence(prec precedence) {
	c.parser.advance()
	rule := getRule(c.parser.previous.Kind)
	if rule.prefix == nil {
		c.parser.error("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	rule.prefix(c, canAssign)

	for prec <= getRule(c.parser.current.Kind).precedence {
		c.parser.advance()
		infix := getRule(c.parser.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.parser.match(token.EQ) {
		c.parser.error("Invalid assignment target.")
	}
}

func (c *compiler) number(_ bool) {
	v, err := strconv.ParseFloat(c.parser.previous.Lexeme, 64)
	if err != nil {
		c.parser.error("Invalid number literal.")
		return
	}
	c.emitConstant(Number(v))
}

func (c *compiler) string(_ bool) {
	lit := c.parser.previous.Lexeme
	// strip the surrounding quotes; the language defines no escapes.
	c.emitConstant(String(lit[1 : len(lit)-1]))
}

func (c *compiler) literal(_ bool) {
	switch c.parser.previous.Kind {
	case token.FALSE:
		c.emitOp(OpFalse)
	case token.NIL:
		c.emitOp(OpNil)
	case token.TRUE:
		c.emitOp(OpTrue)
	}
}

func (c *compiler) grouping(_ bool) {
	c.expression()
	c.parser.consume(token.RPAREN, "Expect ')' after expression.")
}

func (c *compiler) unary(_ bool) {
	opKind := c.parser.previous.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.MINUS:
		c.emitOp(OpNegate)
	case token.BANG:
		c.emitOp(OpNot)
	}
}

func (c *compiler) binary(_ bool) {
	opKind := c.parser.previous.Kind
	rule := getRule(opKind)
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.BANG_EQ:
		c.emitOps(OpEqual, OpNot)
	case token.EQ_EQ:
		c.emitOp(OpEqual)
	case token.GT:
		c.emitOp(OpGreater)
	case token.GT_EQ:
		c.emitOps(OpLess, OpNot)
	case token.LT:
		c.emitOp(OpLess)
	case token.LT_EQ:
		c.emitOps(OpGreater, OpNot)
	case token.PLUS:
		c.emitOp(OpAdd)
	case token.MINUS:
		c.emitOp(OpSubtract)
	case token.STAR:
		c.emitOp(OpMultiply)
	case token.SLASH:
		c.emitOp(OpDivide)
	}
}

func (c *compiler) and(_ bool) {
	endJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *compiler) or(_ bool) {
	elseJump := c.emitJump(OpJumpIfFalse)
	endJump := c.emitJump(OpJump)
	c.patchJump(elseJump)
	c.emitOp(OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *compiler) call(_ bool) {
	argc := c.argumentList()
	c.emitOp(OpCall)
	c.emitByte(argc)
}

func (c *compiler) argumentList() byte {
	var argc int
	if !c.parser.check(token.RPAREN) {
		for {
			c.expression()
			if argc == 255 {
				c.parser.error("Can't have more than 255 arguments.")
			}
			argc++
			if !c.parser.match(token.COMMA) {
				break
			}
		}
	}
	c.parser.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(argc)
}

func (c *compiler) dot(canAssign bool) {
	c.parser.consume(token.IDENT, "Expect property name after '.'.")
	name := c.identifierConstant(c.parser.previous.Lexeme)

	switch {
	case canAssign && c.parser.match(token.EQ):
		c.expression()
		c.emitOpUint16(OpSetProperty, name)
	case c.parser.match(token.LPAREN):
		argc := c.argumentList()
		c.emitOpUint16(OpInvoke, name)
		c.emitByte(argc)
	default:
		c.emitOpUint16(OpGetProperty, name)
	}
}

func (c *compiler) variableExpr(canAssign bool) {
	c.namedVariable(c.parser.previous, canAssign)
}

// variable resolves and emits a read of name without consulting canAssign
// (used where the grammar already guarantees a read, e.g. the superclass
// name in a class header).
func (c *compiler) variable(_ bool) {
	c.namedVariable(c.parser.previous, false)
}

func (c *compiler) namedVariable(name lexer.Token, canAssign bool) {
	var getOp, setOp Opcode
	var arg int
	if local := c.resolveLocal(name.Lexeme); local != -1 {
		getOp, setOp, arg = OpGetLocal, OpSetLocal, local
	} else if up := c.resolveUpvalue(name.Lexeme); up != -1 {
		getOp, setOp, arg = OpGetUpvalue, OpSetUpvalue, up
	} else {
		nameConst := c.identifierConstant(name.Lexeme)
		if canAssign && c.parser.match(token.EQ) {
			c.expression()
			c.emitOpUint16(OpSetGlobal, nameConst)
			return
		}
		c.emitOpUint16(OpGetGlobal, nameConst)
		return
	}

	if canAssign && c.parser.match(token.EQ) {
		c.expression()
		c.emitOp(setOp)
		c.emitByte(byte(arg))
		return
	}
	c.emitOp(getOp)
	c.emitByte(byte(arg))
}

func (c *compiler) this(_ bool) {
	if c.class == nil {
		c.parser.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

func (c *compiler) super(_ bool) {
	switch {
	case c.class == nil:
		c.parser.error("Can't use 'super' outside of a class.")
	case !c.class.hasSuperclass:
		c.parser.error("Can't use 'super' in a class with no superclass.")
	}

	c.parser.consume(token.DOT, "Expect '.' after 'super'.")
	c.parser.consume(token.IDENT, "Expect superclass method name.")
	name := c.identifierConstant(c.parser.previous.Lexeme)

	c.namedVariable(lexer.Token{Kind: token.IDENT, Lexeme: "this"}, false)
	if c.parser.match(token.LPAREN) {
		argc := c.argumentList()
		c.namedVariable(lexer.Token{Kind: token.IDENT, Lexeme: "super"}, false)
		c.emitOpUint16(OpSuperInvoke, name)
		c.emitByte(argc)
		return
	}
	c.namedVariable(lexer.Token{Kind: token.IDENT, Lexeme: "super"}, false)
	c.emitOpUint16(OpGetSuper, name)
}
