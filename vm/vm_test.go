package vm_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/pyvm/builtins"
	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/opcodes"
	"github.com/wudi/pyvm/registry"
	"github.com/wudi/pyvm/values"
	"github.com/wudi/pyvm/vm"
)

// asm assembles CPython 2.7 bytecode for the tests: opcodes with
// little-endian 2-byte arguments and label-based jump fixups, so the
// test bodies read like dis.dis output instead of raw offsets.
type asm struct {
	b     []byte
	marks map[string]int
	fix   []fixup
}

type fixup struct {
	pos   int // index of the argument's low byte
	label string
	rel   bool
	base  int // offset just past the instruction, for relative jumps
}

func newAsm() *asm { return &asm{marks: map[string]int{}} }

func (a *asm) op(o opcodes.Opcode) { a.b = append(a.b, byte(o)) }

func (a *asm) arg(o opcodes.Opcode, n int) {
	a.b = append(a.b, byte(o), byte(n), byte(n>>8))
}

func (a *asm) jmp(o opcodes.Opcode, label string, rel bool) {
	pos := len(a.b) + 1
	a.b = append(a.b, byte(o), 0, 0)
	a.fix = append(a.fix, fixup{pos: pos, label: label, rel: rel, base: len(a.b)})
}

func (a *asm) label(name string) { a.marks[name] = len(a.b) }

func (a *asm) code(t *testing.T) []byte {
	t.Helper()
	for _, f := range a.fix {
		target, ok := a.marks[f.label]
		require.True(t, ok, "undefined label %q", f.label)
		if f.rel {
			target -= f.base
		}
		a.b[f.pos] = byte(target)
		a.b[f.pos+1] = byte(target >> 8)
	}
	return a.b
}

func newTestVM(t *testing.T) (*vm.VM, *values.Value) {
	t.Helper()
	machine := vm.NewVM()
	builtins.Install(machine)
	mod := machine.AddEmptyModule("m")
	return machine, mod
}

// defFn registers a hand-assembled function into mod's globals, bound
// to mod's globals for LOAD_GLOBAL, the way MAKE_FUNCTION would.
func defFn(t *testing.T, machine *vm.VM, mod *values.Value, name string, code *values.Code) {
	t.Helper()
	if code.NLocals == 0 {
		code.NLocals = len(code.VarNames)
	}
	fn := values.FunctionValue(&values.Function{
		Name:    name,
		Code:    values.CodeValue(code),
		Globals: mod.Data.(*values.Module).Globals,
	})
	require.NoError(t, machine.SetAttr(mod, name, fn))
}

// def add(a, b): return a + b
func defAdd(t *testing.T, machine *vm.VM, mod *values.Value) {
	a := newAsm()
	a.arg(opcodes.LoadFast, 0)
	a.arg(opcodes.LoadFast, 1)
	a.op(opcodes.BinaryAdd)
	a.op(opcodes.ReturnValue)
	defFn(t, machine, mod, "add", &values.Code{
		Name:     "add",
		ArgCount: 2,
		VarNames: []string{"a", "b"},
		Bytecode: a.code(t),
		Consts:   []*values.Value{values.None},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	})
}

func TestCallAdd(t *testing.T) {
	machine, mod := newTestVM(t)
	defAdd(t, machine, mod)

	res, err := machine.CallName("m.add", values.Int(3), values.Int(4))
	require.NoError(t, err)
	require.Equal(t, int64(7), res.ToInt())
}

func TestCallAddStrings(t *testing.T) {
	machine, mod := newTestVM(t)
	defAdd(t, machine, mod)

	res, err := machine.CallName("m.add", values.Str("py"), values.Str("vm"))
	require.NoError(t, err)
	require.Equal(t, "pyvm", res.ToStr())
}

// def fib(n):
//     if n < 2: return n
//     return fib(n-1) + fib(n-2)
func TestCallFib(t *testing.T) {
	machine, mod := newTestVM(t)

	a := newAsm()
	a.arg(opcodes.LoadFast, 0)
	a.arg(opcodes.LoadConst, 1)
	a.arg(opcodes.CompareOp, int(opcodes.CmpLt))
	a.jmp(opcodes.PopJumpIfFalse, "recurse", false)
	a.arg(opcodes.LoadFast, 0)
	a.op(opcodes.ReturnValue)
	a.label("recurse")
	a.arg(opcodes.LoadGlobal, 0)
	a.arg(opcodes.LoadFast, 0)
	a.arg(opcodes.LoadConst, 2)
	a.op(opcodes.BinarySubtract)
	a.arg(opcodes.CallFunction, 1)
	a.arg(opcodes.LoadGlobal, 0)
	a.arg(opcodes.LoadFast, 0)
	a.arg(opcodes.LoadConst, 1)
	a.op(opcodes.BinarySubtract)
	a.arg(opcodes.CallFunction, 1)
	a.op(opcodes.BinaryAdd)
	a.op(opcodes.ReturnValue)

	defFn(t, machine, mod, "fib", &values.Code{
		Name:     "fib",
		ArgCount: 1,
		VarNames: []string{"n"},
		Names:    []string{"fib"},
		Bytecode: a.code(t),
		Consts:   []*values.Value{values.None, values.Int(2), values.Int(1)},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	res, err := machine.CallName("m.fib", values.Int(10))
	require.NoError(t, err)
	require.Equal(t, int64(55), res.ToInt())
}

// def gen(): yield 1; yield 2; yield 3
func TestGeneratorYieldsThenEnds(t *testing.T) {
	machine, mod := newTestVM(t)

	a := newAsm()
	for i := 1; i <= 3; i++ {
		a.arg(opcodes.LoadConst, i)
		a.op(opcodes.YieldValue)
		a.op(opcodes.PopTop)
	}
	a.arg(opcodes.LoadConst, 0)
	a.op(opcodes.ReturnValue)

	defFn(t, machine, mod, "gen", &values.Code{
		Name:     "gen",
		Bytecode: a.code(t),
		Consts:   []*values.Value{values.None, values.Int(1), values.Int(2), values.Int(3)},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals | values.CoFlagGenerator,
	})

	gen, err := machine.CallName("m.gen")
	require.NoError(t, err)
	require.Equal(t, values.TypeGenerator, gen.Type)

	var got []int64
	for {
		v, ok, err := machine.Advance(gen)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, v.ToInt())
	}
	require.Equal(t, []int64{1, 2, 3}, got)

	// exhausted generators stay exhausted
	_, ok, err := machine.Advance(gen)
	require.NoError(t, err)
	require.False(t, ok)
}

// class Counter:
//     def __init__(self): self.n = 0
//     def inc(self): self.n += 1; return self.n
// built exactly the way a real .pyc does: the class body is its own
// newlocals code object whose STORE_NAMEs populate a fresh scope and
// whose LOAD_LOCALS hands that scope to BUILD_CLASS.
func defCounter(t *testing.T, machine *vm.VM, mod *values.Value) {
	ini := newAsm()
	ini.arg(opcodes.LoadConst, 1)
	ini.arg(opcodes.LoadFast, 0)
	ini.arg(opcodes.StoreAttr, 0)
	ini.arg(opcodes.LoadConst, 0)
	ini.op(opcodes.ReturnValue)
	initCode := values.CodeValue(&values.Code{
		Name:     "__init__",
		ArgCount: 1,
		NLocals:  1,
		VarNames: []string{"self"},
		Names:    []string{"n"},
		Bytecode: ini.code(t),
		Consts:   []*values.Value{values.None, values.Int(0)},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	inc := newAsm()
	inc.arg(opcodes.LoadFast, 0)
	inc.op(opcodes.DupTop)
	inc.arg(opcodes.LoadAttr, 0)
	inc.arg(opcodes.LoadConst, 1)
	inc.op(opcodes.InplaceAdd)
	inc.op(opcodes.RotTwo)
	inc.arg(opcodes.StoreAttr, 0)
	inc.arg(opcodes.LoadFast, 0)
	inc.arg(opcodes.LoadAttr, 0)
	inc.op(opcodes.ReturnValue)
	incCode := values.CodeValue(&values.Code{
		Name:     "inc",
		ArgCount: 1,
		NLocals:  1,
		VarNames: []string{"self"},
		Names:    []string{"n"},
		Bytecode: inc.code(t),
		Consts:   []*values.Value{values.None, values.Int(1)},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	// the class body: define both methods into a fresh name scope,
	// then return that scope
	body := newAsm()
	body.arg(opcodes.LoadConst, 0)
	body.arg(opcodes.MakeFunction, 0)
	body.arg(opcodes.StoreName, 0)
	body.arg(opcodes.LoadConst, 1)
	body.arg(opcodes.MakeFunction, 0)
	body.arg(opcodes.StoreName, 1)
	body.op(opcodes.LoadLocals)
	body.op(opcodes.ReturnValue)
	bodyCode := values.CodeValue(&values.Code{
		Name:     "Counter",
		Names:    []string{"__init__", "inc"},
		Bytecode: body.code(t),
		Consts:   []*values.Value{initCode, incCode},
		Flags:    values.CoFlagNewLocals,
	})

	// module-level: Counter = <BUILD_CLASS "Counter", (), classbody()>
	top := newAsm()
	top.arg(opcodes.LoadConst, 1)
	top.arg(opcodes.LoadConst, 2)
	top.arg(opcodes.LoadConst, 3)
	top.arg(opcodes.MakeFunction, 0)
	top.arg(opcodes.CallFunction, 0)
	top.op(opcodes.BuildClass)
	top.arg(opcodes.StoreName, 0)
	top.arg(opcodes.LoadConst, 0)
	top.op(opcodes.ReturnValue)
	defFn(t, machine, mod, "__top__", &values.Code{
		Name:     "__top__",
		Bytecode: top.code(t),
		Names:    []string{"Counter"},
		Consts: []*values.Value{
			values.None,
			values.Str("Counter"),
			values.Tuple(nil),
			bodyCode,
		},
	})
	// Run the module-level code through the non-sweeping Call path:
	// it creates a globally referenced value (the class), which must
	// not live inside a StateClearer scope.
	topFn, err := machine.Lookup("m.__top__")
	require.NoError(t, err)
	_, err = machine.Call(topFn, nil, nil)
	require.NoError(t, err)
}

func TestCounterInstance(t *testing.T) {
	machine, mod := newTestVM(t)
	defCounter(t, machine, mod)

	// the class body's names stay in its own scope
	_, err := machine.GetAttr(mod, "__init__")
	require.Error(t, err, "class-body STORE_NAME must not leak into module globals")

	c, err := machine.CallName("m.Counter")
	require.NoError(t, err)
	require.Equal(t, values.TypeInstance, c.Type)

	inc, err := machine.GetAttr(c, "inc")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := machine.Callv(inc, nil)
		require.NoError(t, err)
	}

	n, err := machine.GetAttr(c, "n")
	require.NoError(t, err)
	require.Equal(t, int64(3), n.ToInt())
}

// Register a native addN(int, int) -> int, then run script code that
// calls it: x = addN(2, 3); return x.
func TestNativeBridgeRoundTrip(t *testing.T) {
	machine, mod := newTestVM(t)

	registry.Def(mod, "addN", func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
		if len(args) != 2 {
			return nil, perr.Type("addN() takes 2 arguments (%d given)", len(args))
		}
		x, err := registry.Extract[int64](args[0])
		if err != nil {
			return nil, err
		}
		y, err := registry.Extract[int64](args[1])
		if err != nil {
			return nil, err
		}
		return registry.Return(x + y), nil
	})

	a := newAsm()
	a.arg(opcodes.LoadGlobal, 0)
	a.arg(opcodes.LoadConst, 1)
	a.arg(opcodes.LoadConst, 2)
	a.arg(opcodes.CallFunction, 2)
	a.op(opcodes.ReturnValue)
	defFn(t, machine, mod, "run", &values.Code{
		Name:     "run",
		Names:    []string{"addN"},
		Bytecode: a.code(t),
		Consts:   []*values.Value{values.None, values.Int(2), values.Int(3)},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	res, err := machine.CallName("m.run")
	require.NoError(t, err)
	require.Equal(t, int64(5), res.ToInt())
}

// Running 1/0 must surface a RaisedException whose traceback names the
// script file and the offending line.
func TestDivisionByZeroTraceback(t *testing.T) {
	machine, mod := newTestVM(t)

	a := newAsm()
	a.arg(opcodes.LoadConst, 1)
	a.arg(opcodes.LoadConst, 2)
	a.op(opcodes.BinaryDivide)
	a.op(opcodes.ReturnValue)
	defFn(t, machine, mod, "boom", &values.Code{
		Name:      "boom",
		Bytecode:  a.code(t),
		Consts:    []*values.Value{values.None, values.Int(1), values.Int(0)},
		Filename:  "script.py",
		FirstLine: 3,
		Flags:     values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	_, err := machine.CallName("m.boom")
	require.Error(t, err)

	var re *perr.RaisedException
	require.True(t, stderrors.As(err, &re))
	require.Contains(t, re.Error(), "division")
	require.NotEmpty(t, re.Traceback)
	require.Equal(t, "script.py", re.Traceback[0].Filename)
	require.Equal(t, 3, re.Traceback[0].Line)
	require.Equal(t, "boom", re.Traceback[0].Name)
}

// def total(n):
//     t = 0
//     for i in xrange(n): t = t + i
//     return t
func TestForLoopOverXrange(t *testing.T) {
	machine, mod := newTestVM(t)

	a := newAsm()
	a.arg(opcodes.LoadConst, 1)
	a.arg(opcodes.StoreFast, 1)
	a.jmp(opcodes.SetupLoop, "end", true)
	a.arg(opcodes.LoadGlobal, 0)
	a.arg(opcodes.LoadFast, 0)
	a.arg(opcodes.CallFunction, 1)
	a.op(opcodes.GetIter)
	a.label("loop")
	a.jmp(opcodes.ForIter, "cleanup", true)
	a.arg(opcodes.StoreFast, 2)
	a.arg(opcodes.LoadFast, 1)
	a.arg(opcodes.LoadFast, 2)
	a.op(opcodes.BinaryAdd)
	a.arg(opcodes.StoreFast, 1)
	a.jmp(opcodes.JumpAbsolute, "loop", false)
	a.label("cleanup")
	a.op(opcodes.PopBlock)
	a.label("end")
	a.arg(opcodes.LoadFast, 1)
	a.op(opcodes.ReturnValue)

	defFn(t, machine, mod, "total", &values.Code{
		Name:     "total",
		ArgCount: 1,
		VarNames: []string{"n", "t", "i"},
		Names:    []string{"xrange"},
		Bytecode: a.code(t),
		Consts:   []*values.Value{values.None, values.Int(0)},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	res, err := machine.CallName("m.total", values.Int(10))
	require.NoError(t, err)
	require.Equal(t, int64(45), res.ToInt())
}

// def safediv(a, b):
//     try: return a / b
//     except ValueError: return -1
func TestTryExceptCatchesDivisionFault(t *testing.T) {
	machine, mod := newTestVM(t)

	a := newAsm()
	a.jmp(opcodes.SetupExcept, "handler", true)
	a.arg(opcodes.LoadFast, 0)
	a.arg(opcodes.LoadFast, 1)
	a.op(opcodes.BinaryDivide)
	a.op(opcodes.ReturnValue)
	a.label("handler")
	a.op(opcodes.DupTop)
	a.arg(opcodes.LoadGlobal, 0)
	a.arg(opcodes.CompareOp, int(opcodes.CmpException))
	a.jmp(opcodes.PopJumpIfFalse, "nomatch", false)
	a.op(opcodes.PopTop)
	a.op(opcodes.PopTop)
	a.op(opcodes.PopTop)
	a.arg(opcodes.LoadConst, 1)
	a.op(opcodes.ReturnValue)
	a.label("nomatch")
	a.op(opcodes.EndFinally)

	defFn(t, machine, mod, "safediv", &values.Code{
		Name:     "safediv",
		ArgCount: 2,
		VarNames: []string{"a", "b"},
		Names:    []string{"ValueError"},
		Bytecode: a.code(t),
		Consts:   []*values.Value{values.None, values.Int(-1)},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	res, err := machine.CallName("m.safediv", values.Int(10), values.Int(2))
	require.NoError(t, err)
	require.Equal(t, int64(5), res.ToInt())

	res, err = machine.CallName("m.safediv", values.Int(1), values.Int(0))
	require.NoError(t, err)
	require.Equal(t, int64(-1), res.ToInt())
}

// def rev(s): return s[::-1]
func TestSliceReverse(t *testing.T) {
	machine, mod := newTestVM(t)

	a := newAsm()
	a.arg(opcodes.LoadFast, 0)
	a.arg(opcodes.LoadConst, 0)
	a.arg(opcodes.LoadConst, 0)
	a.arg(opcodes.LoadConst, 1)
	a.arg(opcodes.BuildSlice, 3)
	a.op(opcodes.BinarySubscr)
	a.op(opcodes.ReturnValue)
	defFn(t, machine, mod, "rev", &values.Code{
		Name:     "rev",
		ArgCount: 1,
		VarNames: []string{"s"},
		Bytecode: a.code(t),
		Consts:   []*values.Value{values.None, values.Int(-1)},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	res, err := machine.CallName("m.rev", values.Str("abcdef"))
	require.NoError(t, err)
	require.Equal(t, "fedcba", res.ToStr())
}

// def head(s): return s[:3]  — the SLICE+2 opcode path
func TestSliceOpcodeFamily(t *testing.T) {
	machine, mod := newTestVM(t)

	a := newAsm()
	a.arg(opcodes.LoadFast, 0)
	a.arg(opcodes.LoadConst, 1)
	a.op(opcodes.Slice2)
	a.op(opcodes.ReturnValue)
	defFn(t, machine, mod, "head", &values.Code{
		Name:     "head",
		ArgCount: 1,
		VarNames: []string{"s"},
		Bytecode: a.code(t),
		Consts:   []*values.Value{values.None, values.Int(3)},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	res, err := machine.CallName("m.head", values.Str("abcdef"))
	require.NoError(t, err)
	require.Equal(t, "abc", res.ToStr())
}

// def pick(): return {'a': 1, 'b': 2}['b']  — BUILD_MAP + STORE_MAP
func TestBuildMapStoreMapSubscript(t *testing.T) {
	machine, mod := newTestVM(t)

	a := newAsm()
	a.arg(opcodes.BuildMap, 2)
	a.arg(opcodes.LoadConst, 1)
	a.arg(opcodes.LoadConst, 2)
	a.op(opcodes.StoreMap)
	a.arg(opcodes.LoadConst, 3)
	a.arg(opcodes.LoadConst, 4)
	a.op(opcodes.StoreMap)
	a.arg(opcodes.LoadConst, 4)
	a.op(opcodes.BinarySubscr)
	a.op(opcodes.ReturnValue)
	defFn(t, machine, mod, "pick", &values.Code{
		Name:     "pick",
		Bytecode: a.code(t),
		Consts: []*values.Value{
			values.None,
			values.Int(1), values.Str("a"),
			values.Int(2), values.Str("b"),
		},
		Flags: values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	res, err := machine.CallName("m.pick")
	require.NoError(t, err)
	require.Equal(t, int64(2), res.ToInt())
}

// Unpacking a 3-tuple into 2 names must fail with a ValueError-style
// message.
func TestUnpackLengthMismatch(t *testing.T) {
	machine, mod := newTestVM(t)

	a := newAsm()
	a.arg(opcodes.LoadConst, 1)
	a.arg(opcodes.UnpackSequence, 2)
	a.arg(opcodes.StoreFast, 0)
	a.arg(opcodes.StoreFast, 1)
	a.arg(opcodes.LoadConst, 0)
	a.op(opcodes.ReturnValue)
	defFn(t, machine, mod, "unpack", &values.Code{
		Name:     "unpack",
		VarNames: []string{"x", "y"},
		Bytecode: a.code(t),
		Consts: []*values.Value{
			values.None,
			values.Tuple([]*values.Value{values.Int(1), values.Int(2), values.Int(3)}),
		},
		Flags: values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	_, err := machine.CallName("m.unpack")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unpack")
}

// Missing trailing formals consult the
// defaults tuple.
func TestDefaultArguments(t *testing.T) {
	machine, mod := newTestVM(t)

	a := newAsm()
	a.arg(opcodes.LoadFast, 0)
	a.arg(opcodes.LoadFast, 1)
	a.op(opcodes.BinaryAdd)
	a.op(opcodes.ReturnValue)
	code := &values.Code{
		Name:     "addd",
		ArgCount: 2,
		NLocals:  2,
		VarNames: []string{"a", "b"},
		Bytecode: a.code(t),
		Consts:   []*values.Value{values.None},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	}
	fn := values.FunctionValue(&values.Function{
		Name:     "addd",
		Code:     values.CodeValue(code),
		Defaults: []*values.Value{values.Int(10)},
		Globals:  mod.Data.(*values.Module).Globals,
	})
	require.NoError(t, machine.SetAttr(mod, "addd", fn))

	res, err := machine.CallName("m.addd", values.Int(5))
	require.NoError(t, err)
	require.Equal(t, int64(15), res.ToInt())

	_, err = machine.CallName("m.addd")
	require.Error(t, err, "first formal has no default")
}

// The None/True/False singletons must be identity-stable across frames
// and the `is` comparison.
func TestSingletonIdentity(t *testing.T) {
	machine, mod := newTestVM(t)

	a := newAsm()
	a.arg(opcodes.LoadFast, 0)
	a.arg(opcodes.LoadConst, 0)
	a.arg(opcodes.CompareOp, int(opcodes.CmpIs))
	a.op(opcodes.ReturnValue)
	defFn(t, machine, mod, "isnone", &values.Code{
		Name:     "isnone",
		ArgCount: 1,
		VarNames: []string{"x"},
		Bytecode: a.code(t),
		Consts:   []*values.Value{values.None},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	res, err := machine.CallName("m.isnone", values.None)
	require.NoError(t, err)
	require.True(t, res.ToBool())

	res, err = machine.CallName("m.isnone", values.Int(0))
	require.NoError(t, err)
	require.False(t, res.ToBool())
}

// A no-op call must leave the pool where it started: everything the
// call allocates is swept by the bracketing StateClearer.
func TestPoolSizeStableAcrossCalls(t *testing.T) {
	machine, mod := newTestVM(t)

	a := newAsm()
	a.arg(opcodes.BuildList, 0)
	a.op(opcodes.PopTop)
	a.arg(opcodes.LoadConst, 0)
	a.op(opcodes.ReturnValue)
	defFn(t, machine, mod, "noop", &values.Code{
		Name:     "noop",
		Bytecode: a.code(t),
		Consts:   []*values.Value{values.None},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	before := machine.Pool().Size()
	for i := 0; i < 5; i++ {
		_, err := machine.CallName("m.noop")
		require.NoError(t, err)
	}
	require.Equal(t, before, machine.Pool().Size())
}

// A list returned to the host escapes the call's sweep intact.
func TestReturnedContainerEscapesSweep(t *testing.T) {
	machine, mod := newTestVM(t)

	a := newAsm()
	a.arg(opcodes.LoadConst, 1)
	a.arg(opcodes.LoadConst, 2)
	a.arg(opcodes.BuildList, 2)
	a.op(opcodes.ReturnValue)
	defFn(t, machine, mod, "mklist", &values.Code{
		Name:     "mklist",
		Bytecode: a.code(t),
		Consts:   []*values.Value{values.None, values.Int(1), values.Int(2)},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	res, err := machine.CallName("m.mklist")
	require.NoError(t, err)
	items := res.Data.(*values.ListData).Items
	require.Len(t, items, 2)
	require.Equal(t, int64(1), items[0].ToInt())
	require.Equal(t, int64(2), items[1].ToInt())
}

// MAKE_FUNCTION + closures: an inner function reads the enclosing
// frame's cell through LOAD_DEREF.
func TestClosureCellBinding(t *testing.T) {
	machine, mod := newTestVM(t)
	globals := mod.Data.(*values.Module).Globals

	// def outer(x):
	//     def inner(): return x
	//     return inner()
	inner := newAsm()
	inner.arg(opcodes.LoadDeref, 0)
	inner.op(opcodes.ReturnValue)
	innerCode := values.CodeValue(&values.Code{
		Name:     "inner",
		FreeVars: []string{"x"},
		Bytecode: inner.code(t),
		Consts:   []*values.Value{values.None},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	})

	outer := newAsm()
	outer.arg(opcodes.LoadClosure, 0)
	outer.arg(opcodes.BuildTuple, 1)
	outer.arg(opcodes.LoadConst, 1)
	outer.arg(opcodes.MakeClosure, 0)
	outer.arg(opcodes.CallFunction, 0)
	outer.op(opcodes.ReturnValue)
	outerCode := &values.Code{
		Name:     "outer",
		ArgCount: 1,
		NLocals:  1,
		VarNames: []string{"x"},
		CellVars: []string{"x"},
		Bytecode: outer.code(t),
		Consts:   []*values.Value{values.None, innerCode},
		Flags:    values.CoFlagOptimized | values.CoFlagNewLocals,
	}
	fn := values.FunctionValue(&values.Function{
		Name:    "outer",
		Code:    values.CodeValue(outerCode),
		Globals: globals,
	})
	require.NoError(t, machine.SetAttr(mod, "outer", fn))

	res, err := machine.CallName("m.outer", values.Int(42))
	require.NoError(t, err)
	require.Equal(t, int64(42), res.ToInt())
}
