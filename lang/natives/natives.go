// Package natives registers the host-exposed native functions: the
// mandatory clock intrinsic plus the extension set supplemented from the
// book VM's extension.c/intrinsic.c (argv access, byte I/O over numeric
// handles, string intrinsics, trunc). Names are un-prefixed, per the
// Native ABI naming decision.
package natives

import (
	"time"

	"github.com/dolthub/swiss"

	"github.com/gloxlang/glox/lang/machine"
)

// Registry stages every native registration in a swiss-table-backed
// catalog before Export copies them, one by one, into the map a Thread
// installs into its globals table at startup. Built fresh per Thread so
// independent interpretation sessions never share native state (in
// particular, each gets its own Args and Files).
type Registry struct {
	catalog *swiss.Map[string, machine.NativeFn]
	start   time.Time
}

// NewRegistry builds the standard native set, closing over args (exposed
// via argc/argv) and files (the read/write/close/get/put handle table).
func NewRegistry(args []string, files machine.FileTable) *Registry {
	r := &Registry{
		catalog: swiss.NewMap[string, machine.NativeFn](16),
		start:   time.Now(),
	}

	r.register("clock", r.clockNative)
	r.register("argc", argcNative(args))
	r.register("argv", argvNative(args))
	r.register("length", lengthNative)
	r.register("substring", substringNative)
	r.register("chr", chrNative)
	r.register("ord", ordNative)
	r.register("trunc", truncNative)
	if files != nil {
		r.register("read", readNative(files))
		r.register("write", writeNative(files))
		r.register("close", closeNative(files))
		r.register("get", getNative(files))
		r.register("put", putNative(files))
	}
	return r
}

func (r *Registry) register(name string, fn machine.NativeFn) {
	r.catalog.Put(name, fn)
}

// Export copies the staged catalog into a plain map, the form
// machine.Thread.Natives expects.
func (r *Registry) Export() map[string]machine.NativeFn {
	out := make(map[string]machine.NativeFn, r.catalog.Count())
	r.catalog.Iter(func(name string, fn machine.NativeFn) bool {
		out[name] = fn
		return false
	})
	return out
}

func (r *Registry) clockNative(_ *machine.Thread, _ []machine.Value) (machine.Value, error) {
	return machine.Number(time.Since(r.start).Seconds()), nil
}
