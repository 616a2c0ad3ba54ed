// Package vm implements the frame/stack machine, the opcode
// dispatcher, the call and binding protocol, and the VM host API
// embedders drive.
package vm

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/loader"
	"github.com/wudi/pyvm/pool"
	"github.com/wudi/pyvm/values"
)

// VM is the embeddable interpreter instance: one object pool, one
// module table, one builtins namespace. Every exported method is the
// host-facing API surface.
type VM struct {
	pool     *pool.Pool
	modules  map[string]*values.Value // name -> Module
	builtins *values.Value            // StrDict
	stdout   io.Writer

	importCallback func(name string) (*loader.ImportResult, error)
	primitiveAttr  PrimitiveAttr

	exceptionClasses map[string]*values.Value // errors.Kind name -> builtin exception Class

	hotspots map[string]int64 // opcode name -> invocation count, for PerformanceReport
	started  time.Time

	lastImported string // MainModule's answer when no "__main__" exists
}

// NewVM constructs an empty VM with an empty builtins namespace; the
// host fills it by calling builtins.Install after construction (the
// vm package itself does not import builtins to avoid a cycle).
func NewVM() *VM {
	return &VM{
		pool:     pool.New(),
		modules:  make(map[string]*values.Value),
		builtins: values.StrDict(),
		stdout:   os.Stdout,
		hotspots: make(map[string]int64),
		started:  time.Time{},
	}
}

// Destroy tears the VM down between top-level calls: the module table
// and builtins namespace are dropped and the pool is emptied. The VM
// must not be used afterwards.
func (vm *VM) Destroy() {
	vm.modules = make(map[string]*values.Value)
	vm.builtins = values.StrDict()
	vm.lastImported = ""
	vm.pool.Clear()
}

// SetStdout redirects PRINT_ITEM/PRINT_NEWLINE output; the host owns
// real logging and formatting.
func (vm *VM) SetStdout(w io.Writer) { vm.stdout = w }

// SetImportCallback installs the hook IMPORT_NAME consults for names
// not already in the module table.
func (vm *VM) SetImportCallback(cb func(name string) (*loader.ImportResult, error)) {
	vm.importCallback = cb
}

// AddBuiltin registers a name into the builtins namespace every
// module's LOAD_GLOBAL falls back to.
func (vm *VM) AddBuiltin(name string, v *values.Value) {
	vm.builtins.Data.(*values.StrDictData).Set(name, v)
}

// Pool exposes the object pool for diagnostics and for registry/
// builtins code that needs to track native instances.
func (vm *VM) Pool() *pool.Pool { return vm.pool }

// ImportPycFile loads a .pyc file from disk, runs its module-level
// code, and registers the result under its basename.
func (vm *VM) ImportPycFile(path string) (*values.Value, error) {
	res, err := loader.ImportPycFile(path)
	if err != nil {
		return nil, err
	}
	return vm.loadModule(res)
}

// ImportPycBuffer loads a .pyc image already in memory. hasHeader is
// false for raw marshal dumps produced without the 8-byte preamble.
func (vm *VM) ImportPycBuffer(name string, buf []byte, hasHeader bool) (*values.Value, error) {
	res, err := loader.ImportPycBuffer(name, buf, hasHeader)
	if err != nil {
		return nil, err
	}
	return vm.loadModule(res)
}

// ImportPycStream loads a .pyc image from any reader.
func (vm *VM) ImportPycStream(name, filename string, r io.Reader, hasHeader bool) (*values.Value, error) {
	res, err := loader.ImportPycStream(name, filename, r, hasHeader)
	if err != nil {
		return nil, err
	}
	return vm.loadModule(res)
}

func (vm *VM) loadModule(res *loader.ImportResult) (*values.Value, error) {
	globals := values.StrDict()
	mod := values.ModuleValue(&values.Module{
		Name:     res.Name,
		Filename: res.Filename,
		Globals:  globals,
	})
	vm.modules[res.Name] = mod
	vm.lastImported = res.Name
	if vm.started.IsZero() {
		vm.started = time.Now()
	}

	// No StateClearer here: module-level execution creates globally
	// referenced values (the module's functions and classes), which a
	// sweep would gut. Sweeps bracket top-level calls only.
	frame := vm.newFrame(res.Code, globals, nil, nil)
	_, err := vm.runFrame(frame)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", res.Name, err)
	}
	return mod, nil
}

// AddEmptyModule registers name as a module with an empty globals
// table, for hosts that want to expose native-only namespaces without
// a backing .pyc file.
func (vm *VM) AddEmptyModule(name string) *values.Value {
	mod := values.ModuleValue(&values.Module{Name: name, Globals: values.StrDict()})
	vm.modules[name] = mod
	return mod
}

// GetModule returns a previously imported module by name.
func (vm *VM) GetModule(name string) (*values.Value, bool) {
	m, ok := vm.modules[name]
	return m, ok
}

// MainModule returns the module registered as "__main__" if there is
// one, else the most recently imported module, the common case for a
// CLI that runs a single script.
func (vm *VM) MainModule() (*values.Value, bool) {
	m, ok := vm.modules["__main__"]
	if ok {
		return m, true
	}
	if m, ok := vm.modules[vm.lastImported]; ok {
		return m, true
	}
	return nil, false
}

// Call invokes any callable Value (Function, CFunc, Method, Class,
// PrimitiveAdapter, Generator) with positional args and optional
// keyword args, implementing values.CallContext for native functions
// that need to call back into script code.
func (vm *VM) Call(callable *values.Value, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	return vm.call(callable, args, kwargs)
}

// CallName resolves a dotted path ("module.func", "module.Class.attr",
// or a bare name resolved as a module, a global of the main module, or
// a builtin, in that order) and calls
// the resulting value. Each top-level CallName is bracketed by a
// StateClearer so reference cycles a script call creates are broken
// when the call returns.
func (vm *VM) CallName(dotted string, args ...*values.Value) (*values.Value, error) {
	callable, err := vm.Lookup(dotted)
	if err != nil {
		return nil, err
	}
	sc := pool.NewStateClearer(vm.pool)
	defer sc.Close()
	res, err := vm.call(callable, args, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", dotted, err)
	}
	vm.escape(sc, res)
	return res, nil
}

// Callv is CallName's vector form for hosts that build the argument
// list dynamically, accepting the callable value directly.
func (vm *VM) Callv(callable *values.Value, args []*values.Value) (*values.Value, error) {
	sc := pool.NewStateClearer(vm.pool)
	defer sc.Close()
	res, err := vm.call(callable, args, nil)
	if err != nil {
		return nil, err
	}
	vm.escape(sc, res)
	return res, nil
}

// Lookup resolves a dotted name against the module table: the first
// segment names a module (or, if no module matches, a global of the
// main module / a builtin), remaining segments are attribute accesses.
func (vm *VM) Lookup(dotted string) (*values.Value, error) {
	segs := strings.Split(dotted, ".")
	if len(segs) == 1 {
		name := segs[0]
		if mod, ok := vm.modules[name]; ok {
			return mod, nil
		}
		if main, ok := vm.MainModule(); ok {
			if v, err := vm.getAttr(main, name); err == nil {
				return v, nil
			}
		}
		if v, ok := vm.Builtin(name); ok {
			return v, nil
		}
		return nil, perr.Name("name %q is not defined", name)
	}

	var cur *values.Value
	rest := segs
	if mod, ok := vm.modules[segs[0]]; ok {
		cur = mod
		rest = segs[1:]
	} else if main, ok := vm.MainModule(); ok {
		cur = main
	} else {
		return nil, perr.Name("name %q is not defined", dotted)
	}
	for _, seg := range rest {
		v, err := vm.getAttr(cur, seg)
		if err != nil {
			return nil, err
		}
		cur = v
	}
	return cur, nil
}

// Builtin returns a value from the builtins namespace.
func (vm *VM) Builtin(name string) (*values.Value, bool) {
	return vm.builtins.Data.(*values.StrDictData).Get(name)
}

// Raise implements values.CallContext: native functions use this to
// signal a script-visible exception rather than returning a Go error
// the host would otherwise see as an internal fault.
func (vm *VM) Raise(class *values.Value, message string) error {
	if message == "" && class != nil && class.Type == values.TypeClass {
		message = class.Data.(*values.Class).Name
	}
	return perr.NewRaised(nil, class, message)
}

// PerformanceReport renders opcode-dispatch hotspot counts and pool
// occupancy for host diagnostics: returned as a string, never printed
// directly, since the host owns real logging.
func (vm *VM) PerformanceReport() string {
	allocs, frees, live := vm.pool.Stats()
	s := fmt.Sprintf("pool: %s live, %s allocs, %s frees\n",
		humanize.Comma(int64(live)), humanize.Comma(int64(allocs)), humanize.Comma(int64(frees)))
	if !vm.started.IsZero() {
		s += fmt.Sprintf("uptime: %s\n", humanize.RelTime(vm.started, time.Now(), "", ""))
	}
	for op, n := range vm.hotspots {
		s += fmt.Sprintf("  %-24s %s\n", op, humanize.Comma(n))
	}
	return s
}
