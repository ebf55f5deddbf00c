package machine

import (
	"fmt"

	"github.com/gloxlang/glox/lang/compiler"
)

// objKind tags the eight heap object kinds named in the data model: Object =
// String | Function | Native | Closure | Upvalue | Class | Instance |
// BoundMethod.
type objKind uint8

const (
	objString objKind = iota
	objFunction
	objNative
	objClosure
	objUpvalue
	objClass
	objInstance
	objBoundMethod
)

// objHeader is the common header embedded by every heap object: the kind
// tag, the tri-color mark bit (collapsed to a bool since our tracer is a
// simple gray-worklist, not a true three-state tag) and next, the intrusive
// link in the heap's allocation list, walked by the sweep phase.
type objHeader struct {
	kind   objKind
	marked bool
	next   Object
}

// Object is implemented by every heap-allocated value. Embedding objHeader
// gives every concrete type the header accessor via method promotion.
type Object interface {
	Value
	header() *objHeader
}

func (h *objHeader) header() *objHeader { return h }

// ObjString is an interned, immutable byte sequence. Two ObjStrings with
// equal contents are always the same pointer (see intern.go), so every
// consumer but the intern set itself may compare ObjString keys by identity.
type ObjString struct {
	objHeader
	Chars string
	Hash  uint32
}

func (s *ObjString) String() string { return s.Chars }

// ObjFunction is the runtime counterpart of a compiler.FunctionProto: a
// named, fixed chunk of bytecode plus its arity and upvalue count. Several
// Closures may wrap the same ObjFunction (the common case: the same
// function value recompiled as a constant exactly once, closed over
// differently on each OP_CLOSURE execution).
type ObjFunction struct {
	objHeader
	Name         *ObjString
	Arity        int
	UpvalueCount int
	Kind         compiler.FunctionKind
	Chunk        *compiler.Chunk
}

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// NativeFn is the signature of a host-exposed native function: it receives
// the interpreting thread (for I/O and cancellation) and the argument
// slice (a view into the live VM stack — the VM keeps it rooted for the
// duration of the call) and returns a single result value.
type NativeFn func(th *Thread, args []Value) (Value, error)

// ObjNative wraps a host NativeFn as a callable machine Value.
type ObjNative struct {
	objHeader
	Name string
	Fn   NativeFn
}

func (n *ObjNative) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }

// ObjUpvalue is an indirection to a captured variable: open (slot >= 0)
// while it reads/writes through vm.stack[slot], closed (slot == -1) after
// the enclosing scope exits, at which point the value lives in Closed
// instead. next links together the VM's open-upvalue list, kept sorted by
// descending stack slot so capture/close can walk it in order; ordering by
// slot index rather than by the *Value pointer Go can't compare avoids
// needing unsafe pointer arithmetic.
type ObjUpvalue struct {
	objHeader
	vm     *VM
	slot   int
	Closed Value
	next   *ObjUpvalue
}

func (u *ObjUpvalue) String() string { return "upvalue" }

func (u *ObjUpvalue) get() Value {
	if u.slot < 0 {
		return u.Closed
	}
	return u.vm.stack[u.slot]
}

func (u *ObjUpvalue) set(v Value) {
	if u.slot < 0 {
		u.Closed = v
	} else {
		u.vm.stack[u.slot] = v
	}
}

// ObjClosure pairs an ObjFunction with the upvalues it captured at creation
// time. Closures, not functions, are the callable value bound to a name.
type ObjClosure struct {
	objHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) String() string { return c.Function.String() }

// ObjClass is a class: a name and a method table mapping interned method
// names to Closures. Inheritance is implemented by copying the
// superclass's method table into the subclass's at OP_INHERIT time, so
// method lookup never walks a superclass chain at call time.
type ObjClass struct {
	objHeader
	Name    *ObjString
	Methods *Table
}

func (c *ObjClass) String() string { return c.Name.Chars }

// ObjInstance is an instance of a class: the class pointer plus a field
// table. Field lookups never consult the class; OP_GET_PROPERTY checks
// fields first and falls back to binding a method only on a field miss.
type ObjInstance struct {
	objHeader
	Class  *ObjClass
	Fields *Table
}

func (i *ObjInstance) String() string { return fmt.Sprintf("<%s instance>", i.Class.Name.Chars) }

// ObjBoundMethod pairs a method Closure with the receiver it was looked up
// on, produced by OP_GET_PROPERTY / GET_SUPER on a method hit and unwrapped
// back into a receiver+closure call by call_value.
type ObjBoundMethod struct {
	objHeader
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) String() string { return b.Method.String() }
