package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/pyvm/builtins"
	"github.com/wudi/pyvm/values"
	"github.com/wudi/pyvm/vm"
)

func installed(t *testing.T) *vm.VM {
	t.Helper()
	machine := vm.NewVM()
	builtins.Install(machine)
	return machine
}

// callBuiltin drives a builtin through the same CFunc path LOAD_GLOBAL
// + CALL_FUNCTION would take.
func callBuiltin(t *testing.T, machine *vm.VM, name string, args ...*values.Value) *values.Value {
	t.Helper()
	fn, ok := machine.Builtin(name)
	require.True(t, ok, "builtin %q not installed", name)
	res, err := machine.Call(fn, args, nil)
	require.NoError(t, err)
	return res
}

func TestLen(t *testing.T) {
	machine := installed(t)
	require.Equal(t, int64(3), callBuiltin(t, machine, "len", values.Str("abc")).ToInt())
	require.Equal(t, int64(2), callBuiltin(t, machine, "len",
		values.List([]*values.Value{values.Int(1), values.Int(2)})).ToInt())
}

func TestIntParsesStrings(t *testing.T) {
	machine := installed(t)
	require.Equal(t, int64(42), callBuiltin(t, machine, "int", values.Str("42")).ToInt())
	require.Equal(t, int64(3), callBuiltin(t, machine, "int", values.Float(3.9)).ToInt())

	fn, _ := machine.Builtin("int")
	_, err := machine.Call(fn, []*values.Value{values.Str("not a number")}, nil)
	require.Error(t, err)
}

func TestRangeMaterializesAndXrangeIsLazy(t *testing.T) {
	machine := installed(t)

	r := callBuiltin(t, machine, "range", values.Int(4))
	require.Equal(t, values.TypeList, r.Type)
	require.Len(t, r.Data.(*values.ListData).Items, 4)

	xr := callBuiltin(t, machine, "xrange", values.Int(2), values.Int(10), values.Int(3))
	require.Equal(t, values.TypeXRange, xr.Type)
	require.Equal(t, int64(3), xr.Data.(*values.XRange).Len())
}

func TestSortedAndReversed(t *testing.T) {
	machine := installed(t)
	in := values.List([]*values.Value{values.Int(3), values.Int(1), values.Int(2)})

	sorted := callBuiltin(t, machine, "sorted", in)
	var got []int64
	for _, v := range sorted.Data.(*values.ListData).Items {
		got = append(got, v.ToInt())
	}
	require.Equal(t, []int64{1, 2, 3}, got)

	// input unchanged
	require.Equal(t, int64(3), in.Data.(*values.ListData).Items[0].ToInt())

	rev := callBuiltin(t, machine, "reversed", in)
	first, ok, err := machine.Advance(rev)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(2), first.ToInt())
}

func TestMinMaxSum(t *testing.T) {
	machine := installed(t)
	in := values.List([]*values.Value{values.Int(3), values.Int(1), values.Int(2)})
	require.Equal(t, int64(1), callBuiltin(t, machine, "min", in).ToInt())
	require.Equal(t, int64(3), callBuiltin(t, machine, "max", in).ToInt())
	require.Equal(t, int64(6), callBuiltin(t, machine, "sum", in).ToInt())
}

func TestChrOrd(t *testing.T) {
	machine := installed(t)
	require.Equal(t, "A", callBuiltin(t, machine, "chr", values.Int(65)).ToStr())
	require.Equal(t, int64(65), callBuiltin(t, machine, "ord", values.Str("A")).ToInt())
}

func TestStrMethodsBindThroughLoadAttr(t *testing.T) {
	machine := installed(t)

	upper, err := machine.GetAttr(values.Str("hello"), "upper")
	require.NoError(t, err)
	require.Equal(t, values.TypePrimitiveAdapter, upper.Type)

	res, err := machine.Call(upper, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "HELLO", res.ToStr())
}

func TestStrSplitJoin(t *testing.T) {
	machine := installed(t)

	split, err := machine.GetAttr(values.Str("a,b,c"), "split")
	require.NoError(t, err)
	parts, err := machine.Call(split, []*values.Value{values.Str(",")}, nil)
	require.NoError(t, err)
	require.Len(t, parts.Data.(*values.ListData).Items, 3)

	join, err := machine.GetAttr(values.Str("-"), "join")
	require.NoError(t, err)
	joined, err := machine.Call(join, []*values.Value{parts}, nil)
	require.NoError(t, err)
	require.Equal(t, "a-b-c", joined.ToStr())
}

func TestListAppendPopMutateReceiver(t *testing.T) {
	machine := installed(t)
	lst := values.List(nil)

	app, err := machine.GetAttr(lst, "append")
	require.NoError(t, err)
	_, err = machine.Call(app, []*values.Value{values.Int(9)}, nil)
	require.NoError(t, err)
	require.Len(t, lst.Data.(*values.ListData).Items, 1)

	pop, err := machine.GetAttr(lst, "pop")
	require.NoError(t, err)
	v, err := machine.Call(pop, nil, nil)
	require.NoError(t, err)
	require.Equal(t, int64(9), v.ToInt())
	require.Empty(t, lst.Data.(*values.ListData).Items)
}

func TestDictGetAndHasKey(t *testing.T) {
	machine := installed(t)
	d := values.Dict()
	require.NoError(t, d.Data.(*values.DictData).Set(values.Str("k"), values.Int(1)))

	get, err := machine.GetAttr(d, "get")
	require.NoError(t, err)
	v, err := machine.Call(get, []*values.Value{values.Str("k")}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), v.ToInt())

	v, err = machine.Call(get, []*values.Value{values.Str("missing"), values.Int(-1)}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(-1), v.ToInt())

	hk, err := machine.GetAttr(d, "has_key")
	require.NoError(t, err)
	v, err = machine.Call(hk, []*values.Value{values.Str("k")}, nil)
	require.NoError(t, err)
	require.True(t, v.ToBool())
}

func TestIsinstanceAgainstBuiltinExceptionClasses(t *testing.T) {
	machine := installed(t)

	ve, ok := machine.Builtin("ValueError")
	require.True(t, ok)
	root, ok := machine.Builtin("Exception")
	require.True(t, ok)

	inst, err := machine.Call(ve, []*values.Value{values.Str("boom")}, nil)
	require.NoError(t, err)

	res := callBuiltin(t, machine, "isinstance", inst, ve)
	require.True(t, res.ToBool())
	res = callBuiltin(t, machine, "isinstance", inst, root)
	require.True(t, res.ToBool(), "exception classes chain to the Exception root")
}

func TestNextRaisesStopIterationOnExhaustion(t *testing.T) {
	machine := installed(t)

	it := callBuiltin(t, machine, "iter", values.List([]*values.Value{values.Int(1)}))
	require.Equal(t, int64(1), callBuiltin(t, machine, "next", it).ToInt())

	fn, _ := machine.Builtin("next")
	_, err := machine.Call(fn, []*values.Value{it}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "StopIteration")
}
