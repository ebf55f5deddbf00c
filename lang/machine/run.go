package machine

import (
	"fmt"

	"github.com/gloxlang/glox/lang/compiler"
)

func readByte(frame *CallFrame) byte {
	b := frame.closure.Function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func readUint16(frame *CallFrame) uint16 {
	v := frame.closure.Function.Chunk.ReadUint16(frame.ip)
	frame.ip += 2
	return v
}

// run is the bytecode dispatch loop: read one opcode byte from the current
// frame, advance, switch on it. It returns nil on a clean halt (the
// outermost OP_RETURN) or a *RuntimeError once one has been raised and the
// stack unwound.
func (vm *VM) run() *RuntimeError {
	frame := &vm.frames[vm.frameCount-1]

	for {
		if vm.thread.stepLimitExceeded() {
			return vm.runtimeError("step limit exceeded")
		}

		op := compiler.Opcode(readByte(frame))
		switch op {
		case compiler.OpConstant:
			idx := readUint16(frame)
			vm.push(vm.constantValue(frame.closure.Function.Chunk, idx))

		case compiler.OpNil:
			vm.push(Nil{})
		case compiler.OpTrue:
			vm.push(Bool(true))
		case compiler.OpFalse:
			vm.push(Bool(false))
		case compiler.OpPop:
			vm.pop()

		case compiler.OpGetLocal:
			slot := int(readByte(frame))
			vm.push(vm.stack[frame.slots+slot])
		case compiler.OpSetLocal:
			slot := int(readByte(frame))
			vm.stack[frame.slots+slot] = vm.peek(0)

		case compiler.OpGetGlobal:
			name := vm.constantName(frame.closure.Function.Chunk, readUint16(frame))
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case compiler.OpDefineGlobal:
			name := vm.constantName(frame.closure.Function.Chunk, readUint16(frame))
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case compiler.OpSetGlobal:
			name := vm.constantName(frame.closure.Function.Chunk, readUint16(frame))
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case compiler.OpGetUpvalue:
			slot := int(readByte(frame))
			vm.push(frame.closure.Upvalues[slot].get())
		case compiler.OpSetUpvalue:
			slot := int(readByte(frame))
			frame.closure.Upvalues[slot].set(vm.peek(0))

		case compiler.OpGetProperty:
			name := vm.constantName(frame.closure.Function.Chunk, readUint16(frame))
			instance, ok := vm.peek(0).(*ObjInstance)
			if !ok {
				return vm.runtimeError("Only instances have properties.")
			}
			if v, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(v)
				break
			}
			if rerr := vm.bindMethod(instance.Class, name); rerr != nil {
				return rerr
			}
		case compiler.OpSetProperty:
			name := vm.constantName(frame.closure.Function.Chunk, readUint16(frame))
			instance, ok := vm.peek(1).(*ObjInstance)
			if !ok {
				return vm.runtimeError("Only instances have fields.")
			}
			instance.Fields.Set(name, vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)
		case compiler.OpGetSuper:
			name := vm.constantName(frame.closure.Function.Chunk, readUint16(frame))
			superclass := vm.pop().(*ObjClass)
			if rerr := vm.bindMethod(superclass, name); rerr != nil {
				return rerr
			}

		case compiler.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(Bool(ValuesEqual(a, b)))
		case compiler.OpGreater:
			if rerr := vm.binaryNumberOp(op); rerr != nil {
				return rerr
			}
		case compiler.OpLess:
			if rerr := vm.binaryNumberOp(op); rerr != nil {
				return rerr
			}

		case compiler.OpAdd:
			if rerr := vm.add(); rerr != nil {
				return rerr
			}
		case compiler.OpSubtract, compiler.OpMultiply, compiler.OpDivide:
			if rerr := vm.binaryNumberOp(op); rerr != nil {
				return rerr
			}

		case compiler.OpNot:
			vm.push(Bool(IsFalsey(vm.pop())))
		case compiler.OpNegate:
			n, ok := vm.peek(0).(Number)
			if !ok {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.pop()
			vm.push(-n)

		case compiler.OpPrint:
			fmt.Fprintln(vm.thread.stdout(), vm.pop().String())

		case compiler.OpJump:
			dist := readUint16(frame)
			frame.ip += int(dist)
		case compiler.OpJumpIfFalse:
			dist := readUint16(frame)
			if IsFalsey(vm.peek(0)) {
				frame.ip += int(dist)
			}
		case compiler.OpLoop:
			dist := readUint16(frame)
			frame.ip -= int(dist)

		case compiler.OpCall:
			argc := int(readByte(frame))
			if rerr := vm.callValue(vm.peek(argc), argc); rerr != nil {
				return rerr
			}
			frame = &vm.frames[vm.frameCount-1]

		case compiler.OpInvoke:
			name := vm.constantName(frame.closure.Function.Chunk, readUint16(frame))
			argc := int(readByte(frame))
			if rerr := vm.invoke(name, argc); rerr != nil {
				return rerr
			}
			frame = &vm.frames[vm.frameCount-1]

		case compiler.OpSuperInvoke:
			name := vm.constantName(frame.closure.Function.Chunk, readUint16(frame))
			argc := int(readByte(frame))
			superclass := vm.pop().(*ObjClass)
			if rerr := vm.invokeFromClass(superclass, name, argc); rerr != nil {
				return rerr
			}
			frame = &vm.frames[vm.frameCount-1]

		case compiler.OpClosure:
			idx := readUint16(frame)
			proto := frame.closure.Function.Chunk.Constants[idx].(*compiler.FunctionProto)
			fn := vm.materializeFunction(proto)
			upvalues := make([]*ObjUpvalue, fn.UpvalueCount)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := readByte(frame)
				index := int(readByte(frame))
				if isLocal != 0 {
					upvalues[i] = vm.captureUpvalue(frame.slots + index)
				} else {
					upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.push(vm.heap.allocateClosure(fn, upvalues))

		case compiler.OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case compiler.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.slots
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case compiler.OpClass:
			// name must be rooted before allocateClass runs, since that call
			// can trigger a collection that would evict an unrooted name from
			// the intern table first.
			name := vm.constantName(frame.closure.Function.Chunk, readUint16(frame))
			vm.push(name)
			class := vm.heap.allocateClass(name)
			vm.pop()
			vm.push(class)

		case compiler.OpInherit:
			superclass, ok := vm.peek(1).(*ObjClass)
			if !ok {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).(*ObjClass)
			subclass.Methods.AddAll(superclass.Methods)
			vm.pop()

		case compiler.OpMethod:
			name := vm.constantName(frame.closure.Function.Chunk, readUint16(frame))
			vm.defineMethod(name)

		default:
			return vm.runtimeError("illegal opcode %v", op)
		}
	}
}

func (vm *VM) binaryNumberOp(op compiler.Opcode) *RuntimeError {
	b, bok := vm.peek(0).(Number)
	a, aok := vm.peek(1).(Number)
	if !aok || !bok {
		return vm.runtimeError("Operands must be numbers.")
	}
	vm.pop()
	vm.pop()
	switch op {
	case compiler.OpGreater:
		vm.push(Bool(a > b))
	case compiler.OpLess:
		vm.push(Bool(a < b))
	case compiler.OpSubtract:
		vm.push(a - b)
	case compiler.OpMultiply:
		vm.push(a * b)
	case compiler.OpDivide:
		vm.push(a / b)
	}
	return nil
}

func (vm *VM) add() *RuntimeError {
	bStr, bIsStr := vm.peek(0).(*ObjString)
	aStr, aIsStr := vm.peek(1).(*ObjString)
	if aIsStr && bIsStr {
		vm.pop()
		vm.pop()
		vm.push(vm.heap.internString(aStr.Chars + bStr.Chars))
		return nil
	}

	bNum, bIsNum := vm.peek(0).(Number)
	aNum, aIsNum := vm.peek(1).(Number)
	if aIsNum && bIsNum {
		vm.pop()
		vm.pop()
		vm.push(aNum + bNum)
		return nil
	}

	return vm.runtimeError("Operands must be two numbers or two strings.")
}
