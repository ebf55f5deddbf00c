package machine

// collector carries the gray worklist for a single mark-and-sweep
// collection. Marking an object sets its mark bit and pushes it here only if
// the bit was previously clear; tracing repeatedly pops and blackens until
// the worklist is empty.
type collector struct {
	gray []Object
}

func (gc *collector) markValue(v Value) {
	if obj, ok := v.(Object); ok {
		gc.markObject(obj)
	}
}

func (gc *collector) markObject(obj Object) {
	if obj == nil {
		return
	}
	hdr := obj.header()
	if hdr.marked {
		return
	}
	hdr.marked = true
	gc.gray = append(gc.gray, obj)
}

// trace pops and blackens every gray object, walking its kind-specific
// references, until the worklist is empty.
func (gc *collector) trace() {
	for len(gc.gray) > 0 {
		obj := gc.gray[len(gc.gray)-1]
		gc.gray = gc.gray[:len(gc.gray)-1]
		gc.blacken(obj)
	}
}

func (gc *collector) blacken(obj Object) {
	switch o := obj.(type) {
	case *ObjString, *ObjNative:
		// leaf objects: no outgoing references.
	case *ObjFunction:
		if o.Name != nil {
			gc.markObject(o.Name)
		}
	case *ObjClosure:
		gc.markObject(o.Function)
		for _, uv := range o.Upvalues {
			gc.markObject(uv)
		}
	case *ObjUpvalue:
		gc.markValue(o.Closed)
	case *ObjClass:
		gc.markObject(o.Name)
		o.Methods.mark(gc)
	case *ObjInstance:
		gc.markObject(o.Class)
		o.Fields.mark(gc)
	case *ObjBoundMethod:
		gc.markValue(o.Receiver)
		gc.markObject(o.Method)
	}
}

// collectGarbage runs one full mark-sweep cycle: mark every root, trace to
// a fixed point, drop now-unreachable entries from the intern set, sweep
// the allocation list, then grow the next threshold proportionally to the
// bytes that survived.
func (h *Heap) collectGarbage() {
	if h.vm == nil {
		return
	}
	gc := &collector{}
	h.vm.markRoots(gc)
	gc.trace()
	h.strings.removeWhite()
	h.sweep()
	h.nextGC = h.bytesAllocated * h.growFactor
	if h.nextGC < initialNextGC {
		h.nextGC = initialNextGC
	}
}

// sweep walks the intrusive allocation list, unlinking and discarding every
// unmarked object (charging its size back out of bytesAllocated) and
// clearing the mark bit on every survivor so the next collection starts
// from a clean slate.
func (h *Heap) sweep() {
	var prev Object
	obj := h.objects
	for obj != nil {
		hdr := obj.header()
		if hdr.marked {
			hdr.marked = false
			prev = obj
			obj = hdr.next
			continue
		}
		unreached := obj
		obj = hdr.next
		if prev != nil {
			prev.header().next = obj
		} else {
			h.objects = obj
		}
		h.bytesAllocated -= sizeOf(unreached)
	}
}

func sizeOf(obj Object) int64 {
	switch o := obj.(type) {
	case *ObjString:
		return int64(len(o.Chars))
	case *ObjClosure:
		return int64(24 + 8*len(o.Upvalues))
	case *ObjFunction:
		return 64
	case *ObjClass, *ObjInstance:
		return 48
	case *ObjBoundMethod:
		return 24
	default:
		return 32
	}
}
