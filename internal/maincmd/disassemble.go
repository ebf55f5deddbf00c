package maincmd

import (
	"context"
	"fmt"
	goscanner "go/scanner"
	"os"

	"github.com/mna/mainer"

	"github.com/gloxlang/glox/lang/compiler"
)

// Disassemble compiles the script at args[0] and prints its bytecode,
// without running it. Nested function bodies are dumped recursively so one
// invocation shows the whole program.
func (c *Cmd) Disassemble(_ context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		c.exitCode = exitIOError
		return err
	}

	proto, cerr := compiler.Compile(source, path)
	if cerr != nil {
		goscanner.PrintError(stdio.Stderr, cerr)
		c.exitCode = exitCompileError
		return cerr
	}

	dumpProto(stdio, proto, "<script>")
	return nil
}

func dumpProto(stdio mainer.Stdio, proto *compiler.FunctionProto, name string) {
	fmt.Fprint(stdio.Stdout, compiler.DisassembleChunk(&proto.Chunk, name))
	for _, c := range proto.Chunk.Constants {
		if nested, ok := c.(*compiler.FunctionProto); ok {
			dumpProto(stdio, nested, nested.Name)
		}
	}
}
