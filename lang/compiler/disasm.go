package compiler

import (
	"fmt"
	"strings"
)

// DisassembleChunk renders every instruction in chunk in human-readable
// form, labeled with name (typically the enclosing function's name).
// Debug-only: never called from the compiler or the VM's hot path.
func DisassembleChunk(chunk *Chunk, name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		var line string
		line, offset = DisassembleInstruction(chunk, offset)
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DisassembleInstruction renders the single instruction at offset and
// returns its text along with the offset of the next instruction.
func DisassembleInstruction(chunk *Chunk, offset int) (string, int) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%04d ", offset)
	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(&sb, "%4d ", chunk.Lines[offset])
	}

	op := Opcode(chunk.Code[offset])
	switch op {
	case OpGetLocal, OpSetLocal, OpCall:
		return byteInstruction(&sb, op, chunk, offset)
	case OpGetUpvalue, OpSetUpvalue:
		return byteInstruction(&sb, op, chunk, offset)
	case OpJump, OpJumpIfFalse, OpLoop:
		return jumpInstruction(&sb, op, chunk, offset)
	case OpConstant, OpGetGlobal, OpDefineGlobal, OpSetGlobal,
		OpGetProperty, OpSetProperty, OpGetSuper, OpClass, OpMethod:
		return constantInstruction(&sb, op, chunk, offset)
	case OpInvoke, OpSuperInvoke:
		return invokeInstruction(&sb, op, chunk, offset)
	case OpClosure:
		return closureInstruction(&sb, chunk, offset)
	default:
		sb.WriteString(op.String())
		return sb.String(), offset + 1
	}
}

func byteInstruction(sb *strings.Builder, op Opcode, chunk *Chunk, offset int) (string, int) {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(sb, "%-16s %4d", op, slot)
	return sb.String(), offset + 2
}

func jumpInstruction(sb *strings.Builder, op Opcode, chunk *Chunk, offset int) (string, int) {
	dist := int(chunk.ReadUint16(offset + 1))
	target := offset + 3
	if op == OpLoop {
		target -= dist
	} else {
		target += dist
	}
	fmt.Fprintf(sb, "%-16s %4d -> %d", op, offset, target)
	return sb.String(), offset + 3
}

func constantInstruction(sb *strings.Builder, op Opcode, chunk *Chunk, offset int) (string, int) {
	idx := chunk.ReadUint16(offset + 1)
	fmt.Fprintf(sb, "%-16s %4d '%v'", op, idx, chunk.Constants[idx])
	return sb.String(), offset + 3
}

func invokeInstruction(sb *strings.Builder, op Opcode, chunk *Chunk, offset int) (string, int) {
	idx := chunk.ReadUint16(offset + 1)
	argc := chunk.Code[offset+3]
	fmt.Fprintf(sb, "%-16s (%d args) %4d '%v'", op, argc, idx, chunk.Constants[idx])
	return sb.String(), offset + 4
}

func closureInstruction(sb *strings.Builder, chunk *Chunk, offset int) (string, int) {
	idx := chunk.ReadUint16(offset + 1)
	offset += 3
	fmt.Fprintf(sb, "%-16s %4d '%v'", OpClosure, idx, chunk.Constants[idx])

	if proto, ok := chunk.Constants[idx].(*FunctionProto); ok {
		for i := 0; i < proto.UpvalueCount; i++ {
			isLocal := chunk.Code[offset]
			index := chunk.Code[offset+1]
			offset += 2
			kind := "upvalue"
			if isLocal != 0 {
				kind = "local"
			}
			fmt.Fprintf(sb, "\n%04d      |                     %s %d", offset-2, kind, index)
		}
	}
	return sb.String(), offset
}
