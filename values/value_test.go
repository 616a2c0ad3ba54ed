package values

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToBool(t *testing.T) {
	require.False(t, None.ToBool())
	require.False(t, False.ToBool())
	require.True(t, True.ToBool())
	require.False(t, Int(0).ToBool())
	require.True(t, Int(-1).ToBool())
	require.False(t, Str("").ToBool())
	require.True(t, Str("x").ToBool())
	require.False(t, List(nil).ToBool())
	require.True(t, List([]*Value{Int(1)}).ToBool())
}

func TestArithmeticPromotion(t *testing.T) {
	v, err := Add(Int(2), Int(3))
	require.NoError(t, err)
	require.Equal(t, int64(5), v.Data.(int64))

	v, err = Add(Int(2), Float(0.5))
	require.NoError(t, err)
	require.Equal(t, TypeFloat, v.Type)
	require.InDelta(t, 2.5, v.Data.(float64), 1e-9)
}

func TestDivIsFloorDivision(t *testing.T) {
	v, err := Div(Int(-7), Int(2))
	require.NoError(t, err)
	require.Equal(t, int64(-4), v.Data.(int64))

	v, err = Mod(Int(-7), Int(2))
	require.NoError(t, err)
	require.Equal(t, int64(1), v.Data.(int64))
}

func TestDivByZero(t *testing.T) {
	_, err := Div(Int(1), Int(0))
	require.Error(t, err)
}

func TestStringConcatAndRepeat(t *testing.T) {
	v, err := Add(Str("ab"), Str("cd"))
	require.NoError(t, err)
	require.Equal(t, "abcd", v.ToStr())

	v, err = Mul(Str("ab"), Int(3))
	require.NoError(t, err)
	require.Equal(t, "ababab", v.ToStr())
}

func TestPercentFormatting(t *testing.T) {
	v, err := Mod(Str("%s is %d"), Tuple([]*Value{Str("x"), Int(7)}))
	require.NoError(t, err)
	require.Equal(t, "x is 7", v.ToStr())
}

func TestListEquality(t *testing.T) {
	a := List([]*Value{Int(1), Str("x")})
	b := List([]*Value{Int(1), Str("x")})
	require.True(t, Equal(a, b))
	require.False(t, Identical(a, b))
	require.True(t, Identical(a, a))
}

func TestDictNumericKeyEquivalence(t *testing.T) {
	d := Dict()
	data := d.Data.(*DictData)
	require.NoError(t, data.Set(Int(1), Str("one")))

	v, ok := data.Get(Float(1.0))
	require.True(t, ok)
	require.Equal(t, "one", v.ToStr())

	v, ok = data.Get(True)
	require.True(t, ok)
	require.Equal(t, "one", v.ToStr())
}

func TestStrDictSetGetLen(t *testing.T) {
	d := StrDict().Data.(*StrDictData)
	d.Set("a", Int(1))
	d.Set("b", Int(2))
	require.Equal(t, 2, d.Len())
	got, ok := d.Get("a")
	require.True(t, ok)
	require.Equal(t, int64(1), got.Data.(int64))
}

func TestSliceResolvePositiveStep(t *testing.T) {
	s := &SliceData{HasStart: true, Start: 1, HasStop: true, Stop: 4}
	start, stop, step, err := s.Resolve(5)
	require.NoError(t, err)
	require.Equal(t, int64(1), start)
	require.Equal(t, int64(4), stop)
	require.Equal(t, int64(1), step)
	require.Equal(t, int64(3), SliceLen(start, stop, step))
}

func TestSliceResolveNegativeStepDefaults(t *testing.T) {
	s := &SliceData{HasStep: true, Step: -1}
	start, stop, step, err := s.Resolve(5)
	require.NoError(t, err)
	require.Equal(t, int64(4), start)
	require.Equal(t, int64(-1), stop)
	require.Equal(t, int64(-1), step)
	require.Equal(t, int64(5), SliceLen(start, stop, step))
}

func TestSliceZeroStepIsAnError(t *testing.T) {
	s := &SliceData{HasStep: true, Step: 0}
	_, _, _, err := s.Resolve(5)
	require.Error(t, err)
}

func TestClassLookupWalksBase(t *testing.T) {
	base := ClassValue(&Class{Name: "Base", Dict: StrDict()})
	base.Data.(*Class).Dict.Data.(*StrDictData).Set("greet", Str("hi"))

	derived := ClassValue(&Class{Name: "Derived", Base: base, Dict: StrDict()})

	v, owner, ok := derived.Data.(*Class).Lookup("greet")
	require.True(t, ok)
	require.Equal(t, "hi", v.ToStr())
	require.Equal(t, "Base", owner.Name)
}

func TestValueClearBreaksCycles(t *testing.T) {
	a := List(nil)
	b := List([]*Value{a})
	a.Data.(*ListData).Items = []*Value{b}

	a.Clear()
	require.Nil(t, a.Data.(*ListData).Items)
}

func TestXRangeLenAndAt(t *testing.T) {
	xr := &XRange{Start: 2, Stop: 10, Step: 3}
	require.Equal(t, int64(3), xr.Len())
	require.Equal(t, int64(2), xr.At(0))
	require.Equal(t, int64(8), xr.At(2))
}
