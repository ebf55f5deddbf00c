package machine

// callValue dispatches OP_CALL's callee by object kind, per the calling
// convention: the stack already holds […, callee, arg0, …, arg{argc-1}].
func (vm *VM) callValue(callee Value, argc int) *RuntimeError {
	switch c := callee.(type) {
	case *ObjClosure:
		return vm.call(c, argc)
	case *ObjClass:
		instance := vm.heap.allocateInstance(c)
		vm.stack[vm.stackTop-argc-1] = instance
		if initializer, ok := c.Methods.Get(vm.initString); ok {
			return vm.call(initializer.(*ObjClosure), argc)
		}
		if argc != 0 {
			return vm.runtimeError("Expected 0 arguments but got %d.", argc)
		}
		return nil
	case *ObjBoundMethod:
		vm.stack[vm.stackTop-argc-1] = c.Receiver
		return vm.call(c.Method, argc)
	case *ObjNative:
		args := vm.stack[vm.stackTop-argc : vm.stackTop]
		result, err := c.Fn(vm.thread, args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stackTop -= argc + 1
		vm.push(result)
		return nil
	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

func (vm *VM) call(closure *ObjClosure, argc int) *RuntimeError {
	if argc != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argc)
	}
	if vm.frameCount == len(vm.frames) {
		return vm.runtimeError("Stack overflow.")
	}
	vm.frames[vm.frameCount] = CallFrame{
		closure: closure,
		ip:      0,
		slots:   vm.stackTop - argc - 1,
	}
	vm.frameCount++
	return nil
}

// invoke fuses a GET_PROPERTY + CALL into one step: a field hit is called as
// a value (the fused fast path still has to fall back to a generic call,
// since the field might itself hold a closure), otherwise the method is
// looked up and invoked directly on the class's method table without
// materializing a BoundMethod.
func (vm *VM) invoke(name *ObjString, argc int) *RuntimeError {
	receiver, ok := vm.peek(argc).(*ObjInstance)
	if !ok {
		return vm.runtimeError("Only instances have methods.")
	}
	if field, ok := receiver.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argc-1] = field
		return vm.callValue(field, argc)
	}
	return vm.invokeFromClass(receiver.Class, name, argc)
}

func (vm *VM) invokeFromClass(class *ObjClass, name *ObjString, argc int) *RuntimeError {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(method.(*ObjClosure), argc)
}

// bindMethod looks up name in class's method table and wraps it with
// receiver (currently on top of the stack) as a BoundMethod, replacing the
// receiver on the stack with the bound method.
func (vm *VM) bindMethod(class *ObjClass, name *ObjString) *RuntimeError {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	bound := vm.heap.allocateBoundMethod(vm.peek(0), method.(*ObjClosure))
	vm.pop()
	vm.push(bound)
	return nil
}

func (vm *VM) defineMethod(name *ObjString) {
	method := vm.peek(0)
	class := vm.peek(1).(*ObjClass)
	class.Methods.Set(name, method)
	vm.pop()
}

// captureUpvalue walks the descending-sorted open-upvalue list for slot,
// reusing an existing upvalue or inserting a new one in order.
func (vm *VM) captureUpvalue(slot int) *ObjUpvalue {
	var prev *ObjUpvalue
	uv := vm.openUpvalues
	for uv != nil && uv.slot > slot {
		prev = uv
		uv = uv.next
	}
	if uv != nil && uv.slot == slot {
		return uv
	}

	created := vm.heap.allocateUpvalue(vm, slot)
	created.next = uv
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above stack slot last,
// copying the slot's current value into the upvalue's own storage and
// marking it closed.
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.slot >= last {
		uv := vm.openUpvalues
		uv.Closed = vm.stack[uv.slot]
		uv.slot = -1
		vm.openUpvalues = uv.next
	}
}
