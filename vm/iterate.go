package vm

import (
	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/values"
)

// sliceIter walks a []*values.Value once; it backs GET_ITER on List,
// Tuple and the materialized half of Dict/StrDict iteration.
type sliceIter struct {
	items []*values.Value
	pos   int
}

func (it *sliceIter) Next() (*values.Value, bool) {
	if it.pos >= len(it.items) {
		return nil, false
	}
	v := it.items[it.pos]
	it.pos++
	return v, true
}

// xrangeIter walks an XRange lazily, without materializing it.
type xrangeIter struct {
	xr  *values.XRange
	pos int64
}

func (it *xrangeIter) Next() (*values.Value, bool) {
	if it.pos >= it.xr.Len() {
		return nil, false
	}
	v := values.Int(it.xr.At(it.pos))
	it.pos++
	return v, true
}

// strIter walks a byte-string one byte at a time, matching CPython
// 2.7's str iteration (each element is itself a length-1 str).
type strIter struct {
	b   []byte
	pos int
}

func (it *strIter) Next() (*values.Value, bool) {
	if it.pos >= len(it.b) {
		return nil, false
	}
	v := values.StrBytes([]byte{it.b[it.pos]})
	it.pos++
	return v, true
}

// ustrIter walks a wide-character string one rune at a time.
type ustrIter struct {
	r   []rune
	pos int
}

func (it *ustrIter) Next() (*values.Value, bool) {
	if it.pos >= len(it.r) {
		return nil, false
	}
	v := values.UStrRunes([]rune{it.r[it.pos]})
	it.pos++
	return v, true
}

// getIter implements GET_ITER: replace a receiver with its Iterator
// capability. A Generator is already its own iterator
// (it implements values.Iterator directly), so it passes through.
func (vm *VM) getIter(v *values.Value) (*values.Value, error) {
	switch v.Type {
	case values.TypeList, values.TypeTuple:
		items := v.Data.(*values.ListData).Items
		cp := make([]*values.Value, len(items))
		copy(cp, items)
		return values.IteratorValue(&sliceIter{items: cp}), nil
	case values.TypeXRange:
		return values.IteratorValue(&xrangeIter{xr: v.Data.(*values.XRange)}), nil
	case values.TypeStr:
		return values.IteratorValue(&strIter{b: v.Data.(*values.StrData).Bytes}), nil
	case values.TypeUStr:
		return values.IteratorValue(&ustrIter{r: v.Data.(*values.UStrData).Runes}), nil
	case values.TypeDict:
		var keys []*values.Value
		v.Data.(*values.DictData).Each(func(k, _ *values.Value) bool {
			keys = append(keys, k)
			return true
		})
		return values.IteratorValue(&sliceIter{items: keys}), nil
	case values.TypeStrDict:
		var keys []*values.Value
		v.Data.(*values.StrDictData).Each(func(k string, _ *values.Value) bool {
			keys = append(keys, values.Str(k))
			return true
		})
		return values.IteratorValue(&sliceIter{items: keys}), nil
	case values.TypeIterator:
		return v, nil
	case values.TypeGenerator:
		return v, nil
	default:
		return nil, perr.Type("%q object is not iterable", v.TypeName())
	}
}

// Iterate is the exported form of getIter, for host code and the
// builtins package's iter()/list()/sorted()-style adapters that need a
// value's Iterator capability without reaching into vm package
// internals.
func (vm *VM) Iterate(v *values.Value) (*values.Value, error) { return vm.getIter(v) }

// Advance is the exported form of nextFrom: one step of any Iterator or
// Generator value.
func (vm *VM) Advance(v *values.Value) (*values.Value, bool, error) { return vm.nextFrom(v) }

// nextFrom advances any Iterable/Iterator-capable value by one step,
// used by both GET_ITER+FOR_ITER and the builtins package's iter()/
// next()/list() adapters.
func (vm *VM) nextFrom(v *values.Value) (*values.Value, bool, error) {
	switch v.Type {
	case values.TypeIterator:
		it, _ := v.AsIterator()
		val, ok := it.Next()
		return val, ok, nil
	case values.TypeGenerator:
		return vm.generatorNext(v)
	default:
		return nil, false, perr.Type("%q object is not an iterator", v.TypeName())
	}
}
