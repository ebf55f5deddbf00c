package machine

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/gloxlang/glox/lang/compiler"
)

const (
	defaultMaxStack  = 16384
	defaultMaxFrames = 64
)

// Thread is the public entry point for running a source program: it owns
// the I/O abstractions, the resource limits and the GC configuration for a
// single interpretation session. A Thread is single-use, like the VM it
// builds internally — running a second program on the same Thread is an
// error, so that independent test cases never leak state into each other.
type Thread struct {
	// Name optionally labels the thread, for diagnostics only.
	Name string

	// Stdout, Stderr and Stdin are the standard I/O abstractions visible to
	// `print` and to the native I/O intrinsics. os.Stdout/Stderr/Stdin are
	// used if left nil.
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	// MaxSteps bounds the number of dispatched instructions before the
	// thread cancels itself; <= 0 means no limit.
	MaxSteps int

	// MaxStack is the value stack's fixed capacity; <= 0 uses the spec
	// minimum of 16384.
	MaxStack int

	// MaxFrames is the call-frame stack's fixed capacity; <= 0 uses the
	// spec minimum of 64.
	MaxFrames int

	// StressGC runs a full collection on every allocation, used to verify
	// the GC-safety testable property (stress and normal runs must produce
	// identical output).
	StressGC bool

	// HeapGrowFactor is GROW_FACTOR in the heap-growth heuristic; <= 0
	// defaults to 2.
	HeapGrowFactor int

	// Args is exposed to scripts via the argc/argv natives.
	Args []string

	// Files records the file-handle table the host uses for the
	// read/write/close/get/put natives. The machine itself never reads it:
	// the natives receive their FileTable when they are built (see
	// lang/natives' NewRegistry), and a nil Files installs no default.
	Files FileTable

	// Natives is installed into the globals table before the program runs,
	// letting callers (lang/natives' Registry) supply the host-exposed
	// native-function set without this package depending on lang/natives.
	Natives map[string]NativeFn

	ctx       context.Context
	cancelled atomic.Bool

	vm    *VM
	steps uint64

	stdoutW io.Writer
	stderrW io.Writer
	stdinR  io.Reader
}

// FileTable is the native ABI's handle table: user-opened files occupy
// handles 3..7, alongside the fixed stdin/stdout/stderr handles 0/1/2.
type FileTable interface {
	Open(path string) (handle int, err error)
	Close(handle int) error
	ReadByte(handle int) (b byte, ok bool, err error)
	WriteByte(handle int, b byte) error
}

func (th *Thread) init(ctx context.Context) {
	if th.Stdout != nil {
		th.stdoutW = th.Stdout
	} else {
		th.stdoutW = os.Stdout
	}
	if th.Stderr != nil {
		th.stderrW = th.Stderr
	} else {
		th.stderrW = os.Stderr
	}
	if th.Stdin != nil {
		th.stdinR = th.Stdin
	} else {
		th.stdinR = os.Stdin
	}
	th.ctx = ctx
	go func() {
		<-th.ctx.Done()
		th.cancelled.Store(true)
	}()
}

// InternString interns s against this thread's VM, returning its canonical
// Value. Valid only while a native function is executing (i.e. only ever
// called from within a NativeFn), since th.vm exists only once Run has
// built it.
func (th *Thread) InternString(s string) Value { return th.vm.heap.internString(s) }

func (th *Thread) stdout() io.Writer { return th.stdoutW }
func (th *Thread) stderr() io.Writer { return th.stderrW }

func (th *Thread) stepLimitExceeded() bool {
	if th.cancelled.Load() {
		return true
	}
	if th.MaxSteps <= 0 {
		return false
	}
	th.steps++
	return th.steps > uint64(th.MaxSteps)
}

// Run compiles and executes source under filename (used only to label
// diagnostics). A compile error is returned as the go/scanner.ErrorList
// compiler.Compile produced; a runtime error is returned as *RuntimeError,
// with its message and traceback already written to Stderr.
func (th *Thread) Run(ctx context.Context, source []byte, filename string) error {
	if th.vm != nil {
		return fmt.Errorf("thread %s has already run a program", th.Name)
	}
	th.init(ctx)

	maxStack := th.MaxStack
	if maxStack <= 0 {
		maxStack = defaultMaxStack
	}
	maxFrames := th.MaxFrames
	if maxFrames <= 0 {
		maxFrames = defaultMaxFrames
	}

	proto, err := compiler.Compile(source, filename)
	if err != nil {
		return err
	}

	vm := newVM(th, maxStack, maxFrames)
	th.vm = vm

	for name, fn := range th.Natives {
		// interned isn't reachable from any root yet, so it must sit on the
		// stack while allocateNative runs, or a collection in between could
		// evict it from the intern table before globals.Set roots it.
		interned := vm.heap.internString(name)
		vm.push(interned)
		native := vm.heap.allocateNative(name, fn)
		vm.push(native)
		vm.globals.Set(interned, native)
		vm.pop()
		vm.pop()
	}

	topFn := vm.materializeFunction(proto)
	topClosure := vm.heap.allocateClosure(topFn, nil)
	vm.push(topClosure)
	if rerr := vm.call(topClosure, 0); rerr != nil {
		return rerr
	}

	if rerr := vm.run(); rerr != nil {
		fmt.Fprintln(th.stderr(), rerr.Message)
		for _, line := range rerr.Traceback {
			fmt.Fprintln(th.stderr(), line)
		}
		return rerr
	}
	return nil
}
