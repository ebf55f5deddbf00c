// Package compiler implements the single-pass Pratt-parsing bytecode
// compiler: it lowers source text directly to Chunks of bytecode, resolving
// lexical scopes, upvalue capture and class/super semantics as it goes. It
// also defines the bytecode format (Opcode) and the debug-only disassembler.
package compiler

import "fmt"

// Opcode identifies a single bytecode instruction.
type Opcode uint8

//nolint:revive
const (
	OpConstant     Opcode = iota // CONSTANT<idx16>        -> value
	OpNil                        // NIL                    -> nil
	OpTrue                       // TRUE                   -> true
	OpFalse                      // FALSE                  -> false
	OpPop                        // POP  value ->
	OpGetLocal                   // GET_LOCAL<slot8>       -> value
	OpSetLocal                   // SET_LOCAL<slot8>  value -> value
	OpGetGlobal                  // GET_GLOBAL<name16>     -> value
	OpDefineGlobal               // DEFINE_GLOBAL<name16>  value ->
	OpSetGlobal                  // SET_GLOBAL<name16> value -> value
	OpGetUpvalue                 // GET_UPVALUE<slot8>     -> value
	OpSetUpvalue                 // SET_UPVALUE<slot8> value -> value
	OpGetProperty                // GET_PROPERTY<name16>  instance -> value
	OpSetProperty                // SET_PROPERTY<name16>  instance value -> value
	OpGetSuper                   // GET_SUPER<name16>  instance super -> boundmethod
	OpEqual                      // EQUAL    a b -> bool
	OpGreater                    // GREATER  a b -> bool
	OpLess                       // LESS     a b -> bool
	OpAdd                        // ADD      a b -> a+b
	OpSubtract                   // SUBTRACT a b -> a-b
	OpMultiply                   // MULTIPLY a b -> a*b
	OpDivide                     // DIVIDE   a b -> a/b
	OpNot                        // NOT      a -> !a
	OpNegate                     // NEGATE   a -> -a
	OpPrint                      // PRINT    value ->
	OpJump                       // JUMP<dist16>           ->
	OpJumpIfFalse                // JUMP_IF_FALSE<dist16>  cond -> cond
	OpLoop                       // LOOP<dist16>           ->
	OpCall                       // CALL<argc8>  fn arg0..argn-1 -> result
	OpInvoke                     // INVOKE<name16><argc8>  recv arg0..argn-1 -> result
	OpSuperInvoke                // SUPER_INVOKE<name16><argc8>  recv arg0..argn-1 super -> result
	OpClosure                    // CLOSURE<fnidx16> <upvalue pairs...>  -> closure
	OpCloseUpvalue               // CLOSE_UPVALUE  value ->
	OpReturn                     // RETURN  value -> (caller)
	OpClass                      // CLASS<name16>          -> class
	OpInherit                    // INHERIT  superclass subclass -> superclass (subclass is discarded after copying methods)
	OpMethod                     // METHOD<name16>  class closure -> class

	opcodeMax = OpMethod
)

var opcodeNames = [...]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetUpvalue:   "OP_GET_UPVALUE",
	OpSetUpvalue:   "OP_SET_UPVALUE",
	OpGetProperty:  "OP_GET_PROPERTY",
	OpSetProperty:  "OP_SET_PROPERTY",
	OpGetSuper:     "OP_GET_SUPER",
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
	OpCall:         "OP_CALL",
	OpInvoke:       "OP_INVOKE",
	OpSuperInvoke:  "OP_SUPER_INVOKE",
	OpClosure:      "OP_CLOSURE",
	OpCloseUpvalue: "OP_CLOSE_UPVALUE",
	OpReturn:       "OP_RETURN",
	OpClass:        "OP_CLASS",
	OpInherit:      "OP_INHERIT",
	OpMethod:       "OP_METHOD",
}

func (op Opcode) String() string {
	if op <= opcodeMax {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal opcode (%d)", op)
}
