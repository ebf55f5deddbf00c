package machine

// Heap owns every allocated Object, the interned-string set, and the
// allocation accounting that drives the garbage collector: bytesAllocated
// tracks the fixed per-object sizes charged at registration (string bytes,
// closure upvalue slots), nextGC is the threshold that triggers a
// collection. The backing arrays of Tables are not charged, so resizing a
// Table never moves bytesAllocated.
//
// Go's own runtime already manages the memory backing these objects; Heap's
// mark-and-sweep is a faithful simulation of the reference algorithm layered
// on top, kept precise enough that stress-GC and normal runs are
// observably identical (the sweep phase unlinks unreached objects from
// objects and prunes unmarked keys from strings, which is exactly the
// behavior the string-interning and GC-safety testable properties exercise)
// even though the Go garbage collector, not this one, ultimately reclaims
// the underlying memory.
type Heap struct {
	vm *VM

	objects        Object
	bytesAllocated int64
	nextGC         int64
	growFactor     int64
	stressGC       bool

	strings *Table
}

const initialNextGC = 1024 * 1024

// NewHeap returns a Heap configured with growFactor (GROW_FACTOR in the
// collection heuristic) and stressGC (collect on every allocation, used by
// the stress-GC testable property).
func NewHeap(growFactor int, stressGC bool) *Heap {
	if growFactor <= 0 {
		growFactor = 2
	}
	return &Heap{
		growFactor: int64(growFactor),
		stressGC:   stressGC,
		nextGC:     initialNextGC,
		strings:    NewTable(),
	}
}

// registerObject links obj at the head of the allocation list, charges its
// size against bytesAllocated, and runs a collection first if the stress
// flag is set or the byte budget is already exceeded — mirroring the
// reference allocator's check-before-grow ordering, which never finds a
// partially-built obj reachable mid-collection because obj does not exist
// yet at the point the collection runs.
func (h *Heap) registerObject(obj Object, kind objKind, size int) {
	if h.stressGC || h.bytesAllocated+int64(size) > h.nextGC {
		h.collectGarbage()
	}
	hdr := obj.header()
	hdr.kind = kind
	hdr.next = h.objects
	h.objects = obj
	h.bytesAllocated += int64(size)
}

func (h *Heap) allocateFunction(proto *ObjFunction) *ObjFunction {
	h.registerObject(proto, objFunction, 64)
	return proto
}

func (h *Heap) allocateNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	h.registerObject(n, objNative, 32)
	return n
}

func (h *Heap) allocateClosure(fn *ObjFunction, upvalues []*ObjUpvalue) *ObjClosure {
	c := &ObjClosure{Function: fn, Upvalues: upvalues}
	h.registerObject(c, objClosure, 24+8*len(upvalues))
	return c
}

func (h *Heap) allocateUpvalue(vm *VM, slot int) *ObjUpvalue {
	u := &ObjUpvalue{vm: vm, slot: slot}
	h.registerObject(u, objUpvalue, 32)
	return u
}

func (h *Heap) allocateClass(name *ObjString) *ObjClass {
	c := &ObjClass{Name: name, Methods: NewTable()}
	h.registerObject(c, objClass, 48)
	return c
}

func (h *Heap) allocateInstance(class *ObjClass) *ObjInstance {
	i := &ObjInstance{Class: class, Fields: NewTable()}
	h.registerObject(i, objInstance, 48)
	return i
}

func (h *Heap) allocateBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	b := &ObjBoundMethod{Receiver: receiver, Method: method}
	h.registerObject(b, objBoundMethod, 24)
	return b
}
