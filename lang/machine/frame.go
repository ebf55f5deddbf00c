package machine

// CallFrame is one activation record: the Closure being executed, the
// program counter (an index into that closure's function's chunk code) and
// slots, the index into the VM's value stack at which this frame's locals
// begin (slot 0 is the callee itself, or the receiver for a bound method
// call, matching the compiler's reserved local slot 0).
type CallFrame struct {
	closure *ObjClosure
	ip      int
	slots   int
}
