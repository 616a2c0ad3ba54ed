package builtins

import (
	"sort"

	"github.com/wudi/pyvm/registry"
	"github.com/wudi/pyvm/values"
)

func listIndexOf(items []*values.Value, needle *values.Value) int {
	for i, it := range items {
		if values.Equal(it, needle) {
			return i
		}
	}
	return -1
}

// buildListMethods covers the mutating sequence protocol: append,
// extend, insert, remove, pop, sort, reverse mutate the receiver's
// backing ListData in place, same as a List and Tuple share one
// ListData struct today but a Tuple's methods table (buildTupleMethods)
// only reuses the read-only members (index, count) of this one.
func (b *env) buildListMethods() registry.PrimitiveMethods {
	return registry.PrimitiveMethods{
		"append": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			ld := args[0].Data.(*values.ListData)
			ld.Items = append(ld.Items, args[1])
			return values.None, nil
		},
		"extend": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			items, err := b.materialize(args[1])
			if err != nil {
				return nil, err
			}
			ld := args[0].Data.(*values.ListData)
			ld.Items = append(ld.Items, items...)
			return values.None, nil
		},
		"insert": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			ld := args[0].Data.(*values.ListData)
			i := int(args[1].ToInt())
			if i < 0 {
				i += len(ld.Items)
			}
			if i < 0 {
				i = 0
			}
			if i > len(ld.Items) {
				i = len(ld.Items)
			}
			ld.Items = append(ld.Items, nil)
			copy(ld.Items[i+1:], ld.Items[i:])
			ld.Items[i] = args[2]
			return values.None, nil
		},
		"remove": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			ld := args[0].Data.(*values.ListData)
			i := listIndexOf(ld.Items, args[1])
			if i < 0 {
				return nil, b.raise(ctx, "ValueError", "list.remove(x): x not in list")
			}
			ld.Items = append(ld.Items[:i], ld.Items[i+1:]...)
			return values.None, nil
		},
		"pop": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			ld := args[0].Data.(*values.ListData)
			if len(ld.Items) == 0 {
				return nil, b.raise(ctx, "IndexError", "pop from empty list")
			}
			i := len(ld.Items) - 1
			if len(args) > 1 {
				i = int(args[1].ToInt())
				if i < 0 {
					i += len(ld.Items)
				}
			}
			if i < 0 || i >= len(ld.Items) {
				return nil, b.raise(ctx, "IndexError", "pop index out of range")
			}
			v := ld.Items[i]
			ld.Items = append(ld.Items[:i], ld.Items[i+1:]...)
			return v, nil
		},
		"sort": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			ld := args[0].Data.(*values.ListData)
			reverse := false
			if r, ok := kwargs["reverse"]; ok {
				reverse = r.ToBool()
			}
			var sortErr error
			sort.SliceStable(ld.Items, func(i, j int) bool {
				if sortErr != nil {
					return false
				}
				ki, kerr := b.keyOf(ctx, kwargs, ld.Items[i])
				if kerr != nil {
					sortErr = kerr
					return false
				}
				kj, kerr := b.keyOf(ctx, kwargs, ld.Items[j])
				if kerr != nil {
					sortErr = kerr
					return false
				}
				c, cerr := values.Compare(ki, kj)
				if cerr != nil {
					sortErr = cerr
					return false
				}
				if reverse {
					return c > 0
				}
				return c < 0
			})
			return values.None, sortErr
		},
		"reverse": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			ld := args[0].Data.(*values.ListData)
			for i, j := 0, len(ld.Items)-1; i < j; i, j = i+1, j-1 {
				ld.Items[i], ld.Items[j] = ld.Items[j], ld.Items[i]
			}
			return values.None, nil
		},
		"index": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			ld := args[0].Data.(*values.ListData)
			i := listIndexOf(ld.Items, args[1])
			if i < 0 {
				return nil, b.raise(ctx, "ValueError", "%s is not in list", args[1].ToStr())
			}
			return values.Int(int64(i)), nil
		},
		"count": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			ld := args[0].Data.(*values.ListData)
			n := int64(0)
			for _, it := range ld.Items {
				if values.Equal(it, args[1]) {
					n++
				}
			}
			return values.Int(n), nil
		},
	}
}

// buildTupleMethods exposes a Tuple's two read-only sequence methods —
// index and count behave identically whether the backing ListData is
// owned by a List or a Tuple, so they are shared verbatim rather than
// reimplemented; a Tuple has no append/sort/etc. to expose.
func (b *env) buildTupleMethods() registry.PrimitiveMethods {
	lm := b.buildListMethods()
	return registry.PrimitiveMethods{
		"index": lm["index"],
		"count": lm["count"],
	}
}
