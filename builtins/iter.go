package builtins

import "github.com/wudi/pyvm/values"

// sliceIter walks a fixed []*values.Value once; it backs reversed()
// over an already-materialized sequence.
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

func reverseOf(items []*values.Value) []*values.Value {
	out := make([]*values.Value, len(items))
	for i, v := range items {
		out[len(items)-1-i] = v
	}
	return out
}
