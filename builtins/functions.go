package builtins

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unsafe"

	"github.com/wudi/pyvm/values"
)

func arg(args []*values.Value, i int) *values.Value {
	if i < len(args) {
		return args[i]
	}
	return values.None
}

func (b *env) lenFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	v := arg(args, 0)
	switch v.Type {
	case values.TypeStr:
		return values.Int(int64(len(v.Data.(*values.StrData).Bytes))), nil
	case values.TypeUStr:
		return values.Int(int64(len(v.Data.(*values.UStrData).Runes))), nil
	case values.TypeList, values.TypeTuple:
		return values.Int(int64(len(v.Data.(*values.ListData).Items))), nil
	case values.TypeDict:
		return values.Int(int64(v.Data.(*values.DictData).Len())), nil
	case values.TypeStrDict:
		return values.Int(int64(v.Data.(*values.StrDictData).Len())), nil
	case values.TypeXRange:
		return values.Int(v.Data.(*values.XRange).Len()), nil
	}
	return nil, b.raise(ctx, "TypeError", "object of type %q has no len()", v.TypeName())
}

func (b *env) strFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	if len(args) == 0 {
		return values.Str(""), nil
	}
	return values.Str(args[0].ToStr()), nil
}

func (b *env) reprFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	v := arg(args, 0)
	switch v.Type {
	case values.TypeStr:
		return values.Str(fmt.Sprintf("%q", string(v.Data.(*values.StrData).Bytes))), nil
	case values.TypeUStr:
		return values.Str("u" + fmt.Sprintf("%q", string(v.Data.(*values.UStrData).Runes))), nil
	default:
		return values.Str(v.ToStr()), nil
	}
}

func (b *env) intFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	if len(args) == 0 {
		return values.Int(0), nil
	}
	v := args[0]
	switch v.Type {
	case values.TypeBool, values.TypeInt, values.TypeFloat:
		return values.Int(v.ToInt()), nil
	case values.TypeStr, values.TypeUStr:
		s := strings.TrimSpace(v.ToStr())
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, b.raise(ctx, "ValueError", "invalid literal for int() with base 10: %q", v.ToStr())
		}
		return values.Int(n), nil
	}
	return nil, b.raise(ctx, "TypeError", "int() argument must be a string or a number, not %q", v.TypeName())
}

func (b *env) floatFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	if len(args) == 0 {
		return values.Float(0), nil
	}
	v := args[0]
	switch v.Type {
	case values.TypeBool, values.TypeInt, values.TypeFloat:
		return values.Float(v.ToFloat()), nil
	case values.TypeStr, values.TypeUStr:
		s := strings.TrimSpace(v.ToStr())
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, b.raise(ctx, "ValueError", "could not convert string to float: %q", v.ToStr())
		}
		return values.Float(f), nil
	}
	return nil, b.raise(ctx, "TypeError", "float() argument must be a string or a number, not %q", v.TypeName())
}

func (b *env) boolFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	if len(args) == 0 {
		return values.False, nil
	}
	return values.Bool(args[0].ToBool()), nil
}

func (b *env) listFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	if len(args) == 0 {
		return values.List(nil), nil
	}
	items, err := b.materialize(args[0])
	if err != nil {
		return nil, err
	}
	return values.List(items), nil
}

func (b *env) tupleFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	if len(args) == 0 {
		return values.Tuple(nil), nil
	}
	items, err := b.materialize(args[0])
	if err != nil {
		return nil, err
	}
	return values.Tuple(items), nil
}

func (b *env) dictFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	d := values.Dict()
	dd := d.Data.(*values.DictData)
	if len(args) > 0 {
		pairs, err := b.materialize(args[0])
		if err != nil {
			return nil, err
		}
		for _, p := range pairs {
			if p.Type != values.TypeList && p.Type != values.TypeTuple {
				return nil, b.raise(ctx, "ValueError", "dictionary update sequence element is not a 2-item sequence")
			}
			items := p.Data.(*values.ListData).Items
			if len(items) != 2 {
				return nil, b.raise(ctx, "ValueError", "dictionary update sequence element has length %d; 2 is required", len(items))
			}
			if err := dd.Set(items[0], items[1]); err != nil {
				return nil, b.raise(ctx, "TypeError", "%v", err)
			}
		}
	}
	for name, v := range kwargs {
		dd.Set(values.Str(name), v)
	}
	return d, nil
}

func rangeTriple(args []*values.Value) (start, stop, step int64) {
	step = 1
	switch len(args) {
	case 1:
		stop = args[0].ToInt()
	case 2:
		start, stop = args[0].ToInt(), args[1].ToInt()
	default:
		start, stop, step = args[0].ToInt(), args[1].ToInt(), args[2].ToInt()
	}
	return
}

func (b *env) rangeFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	if len(args) == 0 || len(args) > 3 {
		return nil, b.raise(ctx, "TypeError", "range() requires 1 to 3 arguments")
	}
	start, stop, step := rangeTriple(args)
	if step == 0 {
		return nil, b.raise(ctx, "ValueError", "range() step argument must not be zero")
	}
	n := values.SliceLen(start, stop, step)
	items := make([]*values.Value, n)
	for i := int64(0); i < n; i++ {
		items[i] = values.Int(start + i*step)
	}
	return values.List(items), nil
}

func (b *env) xrangeFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	if len(args) == 0 || len(args) > 3 {
		return nil, b.raise(ctx, "TypeError", "xrange() requires 1 to 3 arguments")
	}
	start, stop, step := rangeTriple(args)
	if step == 0 {
		return nil, b.raise(ctx, "ValueError", "xrange() step argument must not be zero")
	}
	return values.XRangeValue(&values.XRange{Start: start, Stop: stop, Step: step}), nil
}

func (b *env) absFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	v := arg(args, 0)
	switch v.Type {
	case values.TypeInt, values.TypeBool:
		n := v.ToInt()
		if n < 0 {
			n = -n
		}
		return values.Int(n), nil
	case values.TypeFloat:
		f := v.ToFloat()
		if f < 0 {
			f = -f
		}
		return values.Float(f), nil
	}
	return nil, b.raise(ctx, "TypeError", "bad operand type for abs(): %q", v.TypeName())
}

// keyed pairs each candidate with the value a "key" kwarg callable (or
// the candidate itself, absent one) sorts/compares by.
type keyed struct {
	val *values.Value
	key *values.Value
}

func (b *env) keyOf(ctx values.CallContext, kwargs map[string]*values.Value, v *values.Value) (*values.Value, error) {
	fn, ok := kwargs["key"]
	if !ok || fn == nil || fn.IsNone() {
		return v, nil
	}
	return ctx.Call(fn, []*values.Value{v}, nil)
}

func (b *env) candidates(ctx values.CallContext, args []*values.Value) ([]*values.Value, error) {
	if len(args) == 1 {
		return b.materialize(args[0])
	}
	return args, nil
}

func (b *env) minmax(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value, wantMax bool) (*values.Value, error) {
	items, err := b.candidates(ctx, args)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, b.raise(ctx, "ValueError", "min()/max() arg is an empty sequence")
	}
	best := items[0]
	bestKey, err := b.keyOf(ctx, kwargs, best)
	if err != nil {
		return nil, err
	}
	for _, it := range items[1:] {
		k, err := b.keyOf(ctx, kwargs, it)
		if err != nil {
			return nil, err
		}
		c, err := values.Compare(k, bestKey)
		if err != nil {
			return nil, err
		}
		if (wantMax && c > 0) || (!wantMax && c < 0) {
			best, bestKey = it, k
		}
	}
	return best, nil
}

func (b *env) minFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	return b.minmax(ctx, args, kwargs, false)
}

func (b *env) maxFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	return b.minmax(ctx, args, kwargs, true)
}

func (b *env) sumFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	items, err := b.materialize(arg(args, 0))
	if err != nil {
		return nil, err
	}
	var isFloat bool
	var fsum float64
	var isum int64
	if len(args) > 1 {
		start := args[1]
		if start.Type == values.TypeFloat {
			isFloat, fsum = true, start.ToFloat()
		} else {
			isum = start.ToInt()
		}
	}
	for _, it := range items {
		if !it.IsNumeric() {
			return nil, b.raise(ctx, "TypeError", "unsupported operand type(s) for +: %q", it.TypeName())
		}
		if it.Type == values.TypeFloat && !isFloat {
			isFloat, fsum = true, float64(isum)
		}
		if isFloat {
			fsum += it.ToFloat()
		} else {
			isum += it.ToInt()
		}
	}
	if isFloat {
		return values.Float(fsum), nil
	}
	return values.Int(isum), nil
}

func (b *env) sortedFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	items, err := b.materialize(arg(args, 0))
	if err != nil {
		return nil, err
	}
	pairs := make([]keyed, len(items))
	for i, it := range items {
		k, err := b.keyOf(ctx, kwargs, it)
		if err != nil {
			return nil, err
		}
		pairs[i] = keyed{val: it, key: k}
	}
	reverse := false
	if r, ok := kwargs["reverse"]; ok {
		reverse = r.ToBool()
	}
	var sortErr error
	sort.SliceStable(pairs, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		c, err := values.Compare(pairs[i].key, pairs[j].key)
		if err != nil {
			sortErr = err
			return false
		}
		if reverse {
			return c > 0
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	for i, p := range pairs {
		items[i] = p.val
	}
	return values.List(items), nil
}

func (b *env) reversedFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	items, err := b.materialize(arg(args, 0))
	if err != nil {
		return nil, err
	}
	return values.IteratorValue(&sliceIter{items: reverseOf(items)}), nil
}

func (b *env) chrFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	n := arg(args, 0).ToInt()
	if n < 0 || n > 255 {
		return nil, b.raise(ctx, "ValueError", "chr() arg not in range(256)")
	}
	return values.StrBytes([]byte{byte(n)}), nil
}

func (b *env) ordFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	v := arg(args, 0)
	switch v.Type {
	case values.TypeStr:
		bs := v.Data.(*values.StrData).Bytes
		if len(bs) != 1 {
			return nil, b.raise(ctx, "TypeError", "ord() expected a character, but string of length %d found", len(bs))
		}
		return values.Int(int64(bs[0])), nil
	case values.TypeUStr:
		rs := v.Data.(*values.UStrData).Runes
		if len(rs) != 1 {
			return nil, b.raise(ctx, "TypeError", "ord() expected a character, but string of length %d found", len(rs))
		}
		return values.Int(int64(rs[0])), nil
	}
	return nil, b.raise(ctx, "TypeError", "ord() expected string of length 1, got %q", v.TypeName())
}

func (b *env) hexFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	n := arg(args, 0).ToInt()
	if n < 0 {
		return values.Str(fmt.Sprintf("-0x%x", -n)), nil
	}
	return values.Str(fmt.Sprintf("0x%x", n)), nil
}

func (b *env) octFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	n := arg(args, 0).ToInt()
	if n < 0 {
		return values.Str(fmt.Sprintf("-0%o", -n)), nil
	}
	return values.Str(fmt.Sprintf("0%o", n)), nil
}

func (b *env) isinstanceFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	v, clause := arg(args, 0), arg(args, 1)
	return values.Bool(b.isinstance(v, clause)), nil
}

func (b *env) isinstance(v, clause *values.Value) bool {
	if clause.Type == values.TypeTuple {
		for _, c := range clause.Data.(*values.ListData).Items {
			if b.isinstance(v, c) {
				return true
			}
		}
		return false
	}
	return classChainHas(classFor(v), clause)
}

func (b *env) typeFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	return classFor(arg(args, 0)), nil
}

func (b *env) hasattrFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	name, err := nameArg(args, 1)
	if err != nil {
		return nil, err
	}
	_, err = b.vm.GetAttr(arg(args, 0), name)
	return values.Bool(err == nil), nil
}

func (b *env) getattrFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	name, err := nameArg(args, 1)
	if err != nil {
		return nil, err
	}
	v, err := b.vm.GetAttr(arg(args, 0), name)
	if err != nil {
		if len(args) >= 3 {
			return args[2], nil
		}
		return nil, err
	}
	return v, nil
}

func (b *env) setattrFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	name, err := nameArg(args, 1)
	if err != nil {
		return nil, err
	}
	if err := b.vm.SetAttr(arg(args, 0), name, arg(args, 2)); err != nil {
		return nil, err
	}
	return values.None, nil
}

func nameArg(args []*values.Value, i int) (string, error) {
	v := arg(args, i)
	if v.Type != values.TypeStr && v.Type != values.TypeUStr {
		return "", fmt.Errorf("attribute name must be string, not %q", v.TypeName())
	}
	return v.ToStr(), nil
}

func (b *env) iterFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	return b.vm.Iterate(arg(args, 0))
}

func (b *env) nextFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	val, ok, err := b.vm.Advance(arg(args, 0))
	if err != nil {
		return nil, err
	}
	if !ok {
		if len(args) >= 2 {
			return args[1], nil
		}
		return nil, ctx.Raise(b.exceptions["StopIteration"], "")
	}
	return val, nil
}

func (b *env) callableFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	v := arg(args, 0)
	switch v.Type {
	case values.TypeFunction, values.TypeMethod, values.TypeClass, values.TypeCFunc, values.TypePrimitiveAdapter, values.TypeCCtor:
		return values.True, nil
	case values.TypeInstance:
		cls := v.Data.(*values.Instance).Class.Data.(*values.Class)
		_, _, ok := cls.Lookup("__call__")
		return values.Bool(ok), nil
	}
	return values.False, nil
}

func (b *env) idFn(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	v := arg(args, 0)
	return values.Uint64(uint64(uintptr(unsafe.Pointer(v)))), nil
}
