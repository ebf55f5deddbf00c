package machine

import (
	"fmt"

	"github.com/gloxlang/glox/lang/compiler"
)

// VM is the bytecode interpreter: a value stack, a call-frame stack, the
// global-variable table, the open-upvalue list and the heap they all share.
// A VM is single-use — built fresh for each Thread.Run — so independent
// interpretation sessions never share mutable state.
type VM struct {
	heap *Heap

	stack    []Value
	stackTop int

	frames     []CallFrame
	frameCount int

	globals      *Table
	initString   *ObjString
	openUpvalues *ObjUpvalue

	functionCache map[*compiler.FunctionProto]*ObjFunction

	thread *Thread
}

// RuntimeError is returned by VM execution once a recognized runtime error
// (arity mismatch, undefined variable, type error, stack overflow, ...) has
// unwound the call stack. Traceback holds one "[line N] in name()" entry
// per frame that was active when the error was raised, innermost first.
type RuntimeError struct {
	Message   string
	Traceback []string
}

func (e *RuntimeError) Error() string { return e.Message }

func newVM(th *Thread, maxStack, maxFrames int) *VM {
	vm := &VM{
		heap:          NewHeap(th.HeapGrowFactor, th.StressGC),
		stack:         make([]Value, maxStack),
		frames:        make([]CallFrame, maxFrames),
		globals:       NewTable(),
		functionCache: make(map[*compiler.FunctionProto]*ObjFunction),
		thread:        th,
	}
	vm.heap.vm = vm
	vm.initString = vm.heap.internString("init")
	return vm
}

func (vm *VM) push(v Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// markRoots enumerates every GC root: the value stack, every call frame's
// closure, every open upvalue, and both keys and values of the globals
// table and the init-string cache. The compiler's own chain of in-progress
// Function values is not a root here: the compiler package never holds a
// machine.Value during parsing (see DESIGN.md), so there is nothing of
// ours for it to root.
func (vm *VM) markRoots(gc *collector) {
	for i := 0; i < vm.stackTop; i++ {
		gc.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		gc.markObject(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.next {
		gc.markObject(uv)
	}
	vm.globals.mark(gc)
	if vm.initString != nil {
		gc.markObject(vm.initString)
	}
}

// materializeFunction lazily wraps a compile-time FunctionProto constant as
// a heap ObjFunction, caching by proto pointer so repeated executions of the
// same OP_CLOSURE (e.g. inside a loop) share one underlying function value,
// matching the book VM's function objects being created once, at compile
// time, as constants.
func (vm *VM) materializeFunction(proto *compiler.FunctionProto) *ObjFunction {
	if fn, ok := vm.functionCache[proto]; ok {
		return fn
	}
	var name *ObjString
	if proto.Name != "" {
		// rooted on the stack until fn holds it, since allocateFunction can
		// itself trigger a collection that would otherwise evict name from
		// the intern table before anything points back to it.
		name = vm.heap.internString(proto.Name)
		vm.push(name)
	}
	fn := &ObjFunction{
		Name:         name,
		Arity:        proto.Arity,
		UpvalueCount: proto.UpvalueCount,
		Kind:         proto.Kind,
		Chunk:        &proto.Chunk,
	}
	vm.heap.allocateFunction(fn)
	if name != nil {
		vm.pop()
	}
	vm.functionCache[proto] = fn
	return fn
}

func (vm *VM) constantValue(chunk *compiler.Chunk, idx uint16) Value {
	switch c := chunk.Constants[idx].(type) {
	case compiler.Number:
		return Number(c)
	case compiler.String:
		return vm.heap.internString(string(c))
	default:
		panic(fmt.Sprintf("constant at %d is not directly loadable: %T", idx, c))
	}
}

func (vm *VM) constantName(chunk *compiler.Chunk, idx uint16) *ObjString {
	s := chunk.Constants[idx].(compiler.String)
	return vm.heap.internString(string(s))
}

// runtimeError builds a RuntimeError carrying a traceback of every frame
// active at the point of failure, then resets the VM to a clean stack.
func (vm *VM) runtimeError(format string, args ...interface{}) *RuntimeError {
	err := &RuntimeError{Message: fmt.Sprintf(format, args...)}
	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.closure.Function
		line := fn.Chunk.Lines[frame.ip-1]
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars + "()"
		}
		err.Traceback = append(err.Traceback, fmt.Sprintf("[line %d] in %s", line, name))
	}
	vm.resetStack()
	return err
}
