package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/pyvm/values"
)

func TestExtractAndReturnNumeric(t *testing.T) {
	n, err := Extract[int](values.Int(42))
	require.NoError(t, err)
	require.Equal(t, 42, n)

	f, err := Extract[float64](values.Int(3))
	require.NoError(t, err)
	require.Equal(t, 3.0, f)

	require.Equal(t, values.TypeInt, Return(7).Type)
	require.Equal(t, values.TypeFloat, Return(7.5).Type)
}

func TestExtractRejectsNonNumeric(t *testing.T) {
	_, err := Extract[int](values.Str("x"))
	require.Error(t, err)
}

func TestExtractUint64RoundTrips(t *testing.T) {
	v := ReturnUint64(1 << 63)
	u, err := ExtractUint64(v)
	require.NoError(t, err)
	require.Equal(t, uint64(1<<63), u)
}

func TestCtorChecksArity(t *testing.T) {
	c := Ctor("Point", 2, func(ctx values.CallContext, args []*values.Value) (*values.CInst, error) {
		return &values.CInst{ClassName: "Point", Payload: [2]int64{args[0].ToInt(), args[1].ToInt()}}, nil
	})
	_, err := c.New(nil, []*values.Value{values.Int(1)}, nil)
	require.Error(t, err)

	inst, err := c.New(nil, []*values.Value{values.Int(1), values.Int(2)}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, inst.ID)
}

func TestDefRegistersIntoModuleGlobals(t *testing.T) {
	mod := values.ModuleValue(&values.Module{Name: "host", Globals: values.StrDict()})
	Def(mod, "ping", func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
		return values.Str("pong"), nil
	})
	fn, ok := mod.Data.(*values.Module).Globals.Data.(*values.StrDictData).Get("ping")
	require.True(t, ok)
	require.Equal(t, values.TypeCFunc, fn.Type)
}

func TestInstanceWrappersCarryOwnership(t *testing.T) {
	cls := NewNativeClass("Point", nil, nil)
	type point struct{ X, Y int }
	target := &point{X: 1, Y: 2}

	for _, tc := range []struct {
		inst *values.Value
		own  values.InstanceOwnership
	}{
		{InstancePtr(cls, target), values.OwnBorrowed},
		{InstanceShared(cls, target), values.OwnShared},
		{InstanceByValue(cls, *target), values.OwnValue},
	} {
		require.Equal(t, tc.own, tc.inst.Data.(*values.Instance).Native.Ownership)
		require.NotEmpty(t, tc.inst.Data.(*values.Instance).Native.ID)
		_, err := Payload(tc.inst)
		require.NoError(t, err)
	}

	p, err := Payload(InstancePtr(cls, target))
	require.NoError(t, err)
	require.Same(t, target, p.(*point))

	_, err = Payload(values.Str("not an instance"))
	require.Error(t, err)
}

func TestPrimitiveMethodsBind(t *testing.T) {
	table := PrimitiveMethods{
		"upper": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			return values.Str("X"), nil
		},
	}
	receiver := values.Str("x")
	bound, ok := table.Bind(receiver, "upper")
	require.True(t, ok)
	require.Equal(t, values.TypePrimitiveAdapter, bound.Type)

	_, ok = table.Bind(receiver, "missing")
	require.False(t, ok)
}
