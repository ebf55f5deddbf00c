package maincmd

import (
	"context"
	goscanner "go/scanner"
	"os"

	"github.com/mna/mainer"

	"github.com/gloxlang/glox/lang/machine"
	"github.com/gloxlang/glox/lang/natives"
)

// Run compiles and executes the script at args[0], the file-mode invocation
// described in the CLI's exit-code contract. Anything in args[1:] is
// exposed to the script via the argc/argv natives.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		c.exitCode = exitIOError
		return err
	}
	return c.interpret(ctx, stdio, source, path, args[1:])
}

// interpret builds a Thread around source, runs it, and maps the failure
// (if any) to the sysexits code the CLI contract promises: 65 for a compile
// error, 70 for a runtime error.
func (c *Cmd) interpret(ctx context.Context, stdio mainer.Stdio, source []byte, name string, scriptArgs []string) error {
	cfg, err := loadConfig()
	if err != nil {
		c.exitCode = exitIOError
		return err
	}

	files := newOSFileTable(stdio.Stdin, stdio.Stdout, stdio.Stderr)
	registry := natives.NewRegistry(scriptArgs, files)

	th := &machine.Thread{
		Name:           name,
		Stdout:         stdio.Stdout,
		Stderr:         stdio.Stderr,
		Stdin:          stdio.Stdin,
		MaxSteps:       cfg.MaxSteps,
		MaxStack:       cfg.MaxStack,
		MaxFrames:      cfg.MaxFrames,
		StressGC:       cfg.StressGC,
		HeapGrowFactor: cfg.HeapGrowFactor,
		Args:           scriptArgs,
		Files:          files,
		Natives:        registry.Export(),
	}

	if err := th.Run(ctx, source, name); err != nil {
		switch err.(type) {
		case goscanner.ErrorList:
			goscanner.PrintError(stdio.Stderr, err)
			c.exitCode = exitCompileError
		case *machine.RuntimeError:
			// th.Run already wrote the message and traceback to Stderr.
			c.exitCode = exitRuntimeError
		default:
			c.exitCode = exitIOError
		}
		return err
	}
	return nil
}
