package compiler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gloxlang/glox/lang/compiler"
)

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		desc string
		src  string
		err  string
	}{
		{"unterminated string", `print "abc;`, "Unterminated string"},
		{"missing semicolon", `print 1`, "Expect ';'"},
		{"bad this outside class", `print this;`, "Can't use 'this' outside of a class"},
		{"bad return from init", `class C { init(){ return 1; } }`, "Can't return a value from an initializer"},
		{"bad super outside class", `print super.m;`, "Can't use 'super' outside of a class"},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			_, err := compiler.Compile([]byte(c.src), "test")
			require.Error(t, err)
			require.Contains(t, err.Error(), c.err)
		})
	}
}

func TestCompileArithmeticShape(t *testing.T) {
	proto, err := compiler.Compile([]byte(`print -((1.2 + 3.4) / 5.6);`), "test")
	require.NoError(t, err)

	dump := compiler.DisassembleChunk(&proto.Chunk, "script")
	for _, op := range []string{"OP_CONSTANT", "OP_ADD", "OP_DIVIDE", "OP_NEGATE", "OP_PRINT", "OP_NIL", "OP_RETURN"} {
		require.Truef(t, strings.Contains(dump, op), "disassembly missing %s:\n%s", op, dump)
	}
}

func TestCompileFunctionNesting(t *testing.T) {
	src := `
fun makeCounter() {
  var c = 0;
  fun incr() {
    c = c + 1;
    return c;
  }
  return incr;
}
`
	proto, err := compiler.Compile([]byte(src), "test")
	require.NoError(t, err)
	require.Len(t, proto.Chunk.Constants, 2)

	outer, ok := proto.Chunk.Constants[1].(*compiler.FunctionProto)
	require.True(t, ok)
	require.Equal(t, "makeCounter", outer.Name)

	var inner *compiler.FunctionProto
	for _, c := range outer.Chunk.Constants {
		if fp, ok := c.(*compiler.FunctionProto); ok {
			inner = fp
		}
	}
	require.NotNil(t, inner)
	require.Equal(t, "incr", inner.Name)
	require.Len(t, inner.Upvalues, 1)
	require.True(t, inner.Upvalues[0].IsLocal)
}

func TestCompileClassInheritance(t *testing.T) {
	src := `
class A { speak(){ print "A"; } }
class B < A { speak(){ super.speak(); print "B"; } }
`
	proto, err := compiler.Compile([]byte(src), "test")
	require.NoError(t, err)

	dump := compiler.DisassembleChunk(&proto.Chunk, "script")
	require.Contains(t, dump, "OP_CLASS")
	require.Contains(t, dump, "OP_INHERIT")
	require.Contains(t, dump, "OP_METHOD")
}
