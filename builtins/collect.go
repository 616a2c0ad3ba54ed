package builtins

import "github.com/wudi/pyvm/values"

// materialize drains any value with a Sequence/Mapping/Iterator
// capability into a plain Go slice, the common first step for list(),
// tuple(), dict(), sorted(), sum(), min(), max() and friends. Direct
// variants are copied without going through the Iterator protocol;
// anything else (Generator, a script-defined Iterable) is drained via
// vm.Iterate/vm.Advance.
func (b *env) materialize(v *values.Value) ([]*values.Value, error) {
	switch v.Type {
	case values.TypeList, values.TypeTuple:
		items := v.Data.(*values.ListData).Items
		cp := make([]*values.Value, len(items))
		copy(cp, items)
		return cp, nil
	case values.TypeStr:
		bs := v.Data.(*values.StrData).Bytes
		out := make([]*values.Value, len(bs))
		for i, c := range bs {
			out[i] = values.StrBytes([]byte{c})
		}
		return out, nil
	case values.TypeUStr:
		rs := v.Data.(*values.UStrData).Runes
		out := make([]*values.Value, len(rs))
		for i, r := range rs {
			out[i] = values.UStrRunes([]rune{r})
		}
		return out, nil
	case values.TypeXRange:
		xr := v.Data.(*values.XRange)
		n := xr.Len()
		out := make([]*values.Value, n)
		for i := int64(0); i < n; i++ {
			out[i] = values.Int(xr.At(i))
		}
		return out, nil
	case values.TypeDict:
		var out []*values.Value
		v.Data.(*values.DictData).Each(func(k, _ *values.Value) bool {
			out = append(out, k)
			return true
		})
		return out, nil
	case values.TypeStrDict:
		var out []*values.Value
		v.Data.(*values.StrDictData).Each(func(k string, _ *values.Value) bool {
			out = append(out, values.Str(k))
			return true
		})
		return out, nil
	default:
		it, err := b.vm.Iterate(v)
		if err != nil {
			return nil, err
		}
		var out []*values.Value
		for {
			val, ok, err := b.vm.Advance(it)
			if err != nil {
				return nil, err
			}
			if !ok {
				return out, nil
			}
			out = append(out, val)
		}
	}
}
