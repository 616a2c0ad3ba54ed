package vm

import (
	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/values"
)

func (vm *VM) buildSlice(f *Frame, argc int) error {
	var step *values.Value
	if argc == 3 {
		step = f.pop()
	}
	stop := f.pop()
	start := f.pop()

	hasStart, startN := !start.IsNone(), int64(0)
	if hasStart {
		startN = start.ToInt()
	}
	hasStop, stopN := !stop.IsNone(), int64(0)
	if hasStop {
		stopN = stop.ToInt()
	}
	hasStep, stepN := false, int64(1)
	if step != nil && !step.IsNone() {
		hasStep, stepN = true, step.ToInt()
	}
	f.push(values.Slice(hasStart, startN, hasStop, stopN, hasStep, stepN))
	return nil
}

// sliceFromBounds builds the Slice value the SLICE+0..3 opcode family
// implies: step is always 1, and a missing or None bound stays open.
func sliceFromBounds(start, stop *values.Value) *values.Value {
	hasStart, startN := false, int64(0)
	if start != nil && !start.IsNone() {
		hasStart, startN = true, start.ToInt()
	}
	hasStop, stopN := false, int64(0)
	if stop != nil && !stop.IsNone() {
		hasStop, stopN = true, stop.ToInt()
	}
	return values.Slice(hasStart, startN, hasStop, stopN, false, 1)
}

// popBounds pops the stop/start operands SLICE+n's low two bits say are
// present (bit 0: start, bit 1: stop; stop is pushed last).
func (f *Frame) popBounds(n int) (start, stop *values.Value) {
	if n&2 != 0 {
		stop = f.pop()
	}
	if n&1 != 0 {
		start = f.pop()
	}
	return start, stop
}

func (vm *VM) sliceOp(f *Frame, n int) error {
	start, stop := f.popBounds(n)
	obj := f.pop()
	v, err := vm.subscript(obj, sliceFromBounds(start, stop))
	if err != nil {
		return err
	}
	f.push(v)
	return nil
}

func (vm *VM) storeSliceOp(f *Frame, n int) error {
	start, stop := f.popBounds(n)
	obj := f.pop()
	val := f.pop()
	return vm.assignSlice(obj, sliceFromBounds(start, stop), val)
}

func (vm *VM) deleteSliceOp(f *Frame, n int) error {
	start, stop := f.popBounds(n)
	obj := f.pop()
	return vm.assignSlice(obj, sliceFromBounds(start, stop), nil)
}

// assignSlice replaces (val non-nil) or removes (val nil) the elements
// a step-1 slice selects from a list. Extended-step slice assignment is
// not supported, matching the SLICE opcode family's own reach.
func (vm *VM) assignSlice(obj, sl *values.Value, val *values.Value) error {
	if obj.Type != values.TypeList {
		return perr.Type("%q object does not support slice assignment", obj.TypeName())
	}
	ld := obj.Data.(*values.ListData)
	start, stop, _, err := sl.Data.(*values.SliceData).Resolve(int64(len(ld.Items)))
	if err != nil {
		return perr.Value("%v", err)
	}
	if stop < start {
		stop = start
	}
	var repl []*values.Value
	if val != nil {
		switch val.Type {
		case values.TypeList, values.TypeTuple:
			repl = val.Data.(*values.ListData).Items
		default:
			return perr.Type("can only assign a sequence to a slice, not %q", val.TypeName())
		}
	}
	out := make([]*values.Value, 0, int64(len(ld.Items))-(stop-start)+int64(len(repl)))
	out = append(out, ld.Items[:start]...)
	out = append(out, repl...)
	out = append(out, ld.Items[stop:]...)
	ld.Items = out
	return nil
}

// storeMapEntry implements STORE_MAP's write into the dict BUILD_MAP
// left on the stack, without popping it.
func (vm *VM) storeMapEntry(dict, key, val *values.Value) error {
	switch dict.Type {
	case values.TypeDict:
		return dict.Data.(*values.DictData).Set(key, val)
	case values.TypeStrDict:
		k, err := asStringKey(key)
		if err != nil {
			return err
		}
		dict.Data.(*values.StrDictData).Set(k, val)
		return nil
	}
	return perr.Type("STORE_MAP on %q", dict.TypeName())
}

func (vm *VM) binarySubscr(f *Frame) error {
	index := f.pop()
	container := f.pop()
	v, err := vm.subscript(container, index)
	if err != nil {
		return err
	}
	f.push(v)
	return nil
}

func (vm *VM) subscript(container, index *values.Value) (*values.Value, error) {
	switch container.Type {
	case values.TypeList, values.TypeTuple:
		items := container.Data.(*values.ListData).Items
		if index.Type == values.TypeSlice {
			start, stop, step, err := index.Data.(*values.SliceData).Resolve(int64(len(items)))
			if err != nil {
				return nil, perr.Value("%v", err)
			}
			out := sliceItems(items, start, stop, step)
			if container.Type == values.TypeTuple {
				return values.Tuple(out), nil
			}
			return values.List(out), nil
		}
		i, err := resolveIndex(index, int64(len(items)))
		if err != nil {
			return nil, err
		}
		return items[i], nil
	case values.TypeStr:
		b := container.Data.(*values.StrData).Bytes
		if index.Type == values.TypeSlice {
			start, stop, step, err := index.Data.(*values.SliceData).Resolve(int64(len(b)))
			if err != nil {
				return nil, perr.Value("%v", err)
			}
			return values.StrBytes(sliceBytes(b, start, stop, step)), nil
		}
		i, err := resolveIndex(index, int64(len(b)))
		if err != nil {
			return nil, err
		}
		return values.StrBytes([]byte{b[i]}), nil
	case values.TypeDict:
		v, ok := container.Data.(*values.DictData).Get(index)
		if !ok {
			return nil, perr.Key("%s", index.ToStr())
		}
		return v, nil
	case values.TypeStrDict:
		key, err := asStringKey(index)
		if err != nil {
			return nil, err
		}
		v, ok := container.Data.(*values.StrDictData).Get(key)
		if !ok {
			return nil, perr.Key("%s", key)
		}
		return v, nil
	case values.TypeXRange:
		xr := container.Data.(*values.XRange)
		i, err := resolveIndex(index, xr.Len())
		if err != nil {
			return nil, err
		}
		return values.Int(xr.At(i)), nil
	default:
		return nil, perr.Type("%q object is not subscriptable", container.TypeName())
	}
}

func resolveIndex(index *values.Value, length int64) (int64, error) {
	if !index.IsInt() && index.Type != values.TypeBool {
		return 0, perr.Type("indices must be integers, not %q", index.TypeName())
	}
	i := index.ToInt()
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, perr.Index("index out of range")
	}
	return i, nil
}

func sliceItems(items []*values.Value, start, stop, step int64) []*values.Value {
	var out []*values.Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, items[i])
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, items[i])
		}
	}
	return out
}

func sliceBytes(b []byte, start, stop, step int64) []byte {
	var out []byte
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, b[i])
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, b[i])
		}
	}
	return out
}

func (vm *VM) storeSubscr(f *Frame) error {
	index := f.pop()
	container := f.pop()
	val := f.pop()
	switch container.Type {
	case values.TypeList:
		items := container.Data.(*values.ListData)
		i, err := resolveIndex(index, int64(len(items.Items)))
		if err != nil {
			return err
		}
		items.Items[i] = val
		return nil
	case values.TypeDict:
		return container.Data.(*values.DictData).Set(index, val)
	case values.TypeStrDict:
		key, err := asStringKey(index)
		if err != nil {
			return err
		}
		container.Data.(*values.StrDictData).Set(key, val)
		return nil
	}
	return perr.Type("%q object does not support item assignment", container.TypeName())
}

func (vm *VM) deleteSubscr(f *Frame) error {
	index := f.pop()
	container := f.pop()
	switch container.Type {
	case values.TypeDict:
		if !container.Data.(*values.DictData).Delete(index) {
			return perr.Key("%s", index.ToStr())
		}
		return nil
	case values.TypeStrDict:
		key, err := asStringKey(index)
		if err != nil {
			return err
		}
		if !container.Data.(*values.StrDictData).Delete(key) {
			return perr.Key("%s", key)
		}
		return nil
	case values.TypeList:
		items := container.Data.(*values.ListData)
		i, err := resolveIndex(index, int64(len(items.Items)))
		if err != nil {
			return err
		}
		items.Items = append(items.Items[:i], items.Items[i+1:]...)
		return nil
	}
	return perr.Type("%q object does not support item deletion", container.TypeName())
}

func (vm *VM) unpackSequence(f *Frame, n int) error {
	v := f.pop()
	var items []*values.Value
	switch v.Type {
	case values.TypeList, values.TypeTuple:
		items = v.Data.(*values.ListData).Items
	case values.TypeXRange:
		xr := v.Data.(*values.XRange)
		for i := int64(0); i < xr.Len(); i++ {
			items = append(items, values.Int(xr.At(i)))
		}
	default:
		return perr.Type("cannot unpack non-sequence %q", v.TypeName())
	}
	if len(items) != n {
		return perr.Value("need %d values to unpack, got %d", n, len(items))
	}
	for i := n - 1; i >= 0; i-- {
		f.push(items[i])
	}
	return nil
}
