package compiler

import "github.com/gloxlang/glox/lang/token"

// identifierConstant interns name as a String constant (used for
// global-variable names, property names, method names and super lookups).
func (c *compiler) identifierConstant(name string) uint16 {
	return c.chunk().AddConstant(String(name))
}

// parseVariable consumes an identifier token and, for a top-level
// declaration, returns the constant-pool index of its name (to be used by
// OP_DEFINE_GLOBAL); for a local declaration it returns 0 (unused) and the
// variable is declared directly.
func (c *compiler) parseVariable(errMsg string) uint16 {
	c.parser.consume(token.IDENT, errMsg)
	name := c.parser.previous.Lexeme

	c.declareVariable(name)
	if c.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

// declareVariable adds name as a local in the current scope, unless we are
// at global scope (depth 0), where variables live in the globals table
// instead of a local slot. Declaring the same name twice in the same scope
// is an error.
func (c *compiler) declareVariable(name string) {
	if c.scopeDepth == 0 {
		return
	}
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if l.name == name {
			c.parser.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *compiler) addLocal(name string) {
	if len(c.locals) >= 256 {
		c.parser.error("Too many local variables in function.")
		return
	}
	c.locals = append(c.locals, local{name: name, depth: -1})
}

// markInitialized marks the most recently declared local as usable by
// giving it a real depth; for a global-scope declaration it is a no-op
// (recursion for top-level `fun` works through OP_DEFINE_GLOBAL instead).
func (c *compiler) markInitialized() {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

func (c *compiler) defineVariable(global uint16) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpUint16(OpDefineGlobal, global)
}

// resolveLocal scans locals from the top down by lexeme equality. A local
// whose depth is still -1 means it is being resolved within its own
// initializer, which is an error ("var a = a;").
func (c *compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			if c.locals[i].depth == -1 {
				c.parser.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue recursively searches enclosing compilers for name. If it
// resolves to a local of the immediately enclosing function, that local is
// marked captured (so endScope emits OP_CLOSE_UPVALUE for it). If it
// resolves (possibly transitively) to an upvalue of the enclosing function,
// this function's own upvalue list gains a non-local entry pointing at it.
func (c *compiler) resolveUpvalue(name string) int {
	if c.enclosing == nil {
		return -1
	}
	if local := c.enclosing.resolveLocal(name); local != -1 {
		c.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(uint8(local), true)
	}
	if up := c.enclosing.resolveUpvalue(name); up != -1 {
		return c.addUpvalue(uint8(up), false)
	}
	return -1
}

// addUpvalue deduplicates by (index, isLocal); the 256-entry limit matches
// the 1-byte upvalue-pair encoding used by OP_CLOSURE.
func (c *compiler) addUpvalue(index uint8, isLocal bool) int {
	for i, uv := range c.upvalues {
		if uv.Index == index && uv.IsLocal == isLocal {
			return i
		}
	}
	if len(c.upvalues) >= 256 {
		c.parser.error("Too many closure variables in function.")
		return 0
	}
	c.upvalues = append(c.upvalues, UpvalueDesc{Index: index, IsLocal: isLocal})
	return len(c.upvalues) - 1
}
