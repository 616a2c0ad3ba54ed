package vm

import (
	"github.com/wudi/pyvm/pool"
	"github.com/wudi/pyvm/values"
)

// track links a value allocated during bytecode execution into the
// object pool so the StateClearer bracketing the current top-level call
// can break any cycle it joins. Only cycle-capable variants go through
// here; scalar intermediates cannot participate in a cycle and are left
// to Go's collector.
func (vm *VM) track(v *values.Value) *values.Value {
	vm.pool.Add(v)
	return v
}

// escape pins v and everything reachable from it so the StateClearer
// about to close does not clear a result that outlives the call — the
// "handle escapes the scope" case.
func (vm *VM) escape(sc *pool.StateClearer, v *values.Value) {
	if v == nil {
		return
	}
	keep := make(map[*values.Value]bool)
	collectReachable(v, keep)
	sc.Escape(func(c pool.Clearer) bool {
		val, ok := c.(*values.Value)
		return ok && keep[val]
	})
}

func collectReachable(v *values.Value, seen map[*values.Value]bool) {
	if v == nil || seen[v] {
		return
	}
	seen[v] = true
	switch v.Type {
	case values.TypeList, values.TypeTuple:
		for _, it := range v.Data.(*values.ListData).Items {
			collectReachable(it, seen)
		}
	case values.TypeDict:
		v.Data.(*values.DictData).Each(func(k, val *values.Value) bool {
			collectReachable(k, seen)
			collectReachable(val, seen)
			return true
		})
	case values.TypeStrDict:
		v.Data.(*values.StrDictData).Each(func(_ string, val *values.Value) bool {
			collectReachable(val, seen)
			return true
		})
	case values.TypeInstance:
		inst := v.Data.(*values.Instance)
		collectReachable(inst.Dict, seen)
		collectReachable(inst.Class, seen)
	case values.TypeClass:
		c := v.Data.(*values.Class)
		collectReachable(c.Dict, seen)
		collectReachable(c.Base, seen)
	case values.TypeMethod:
		m := v.Data.(*values.Method)
		collectReachable(m.Func, seen)
		collectReachable(m.Receiver, seen)
	case values.TypeFunction:
		fn := v.Data.(*values.Function)
		for _, d := range fn.Defaults {
			collectReachable(d, seen)
		}
		for _, cell := range fn.Closure {
			if cell != nil {
				collectReachable(cell.Value, seen)
			}
		}
	case values.TypeGenerator:
		g := v.Data.(*Generator)
		if g.frame != nil {
			collectReachable(g.frame.LocalsDict, seen)
			for _, l := range g.frame.Locals {
				collectReachable(l, seen)
			}
			for _, s := range g.frame.stack {
				collectReachable(s, seen)
			}
			for _, cell := range g.frame.Cells {
				if cell != nil {
					collectReachable(cell.Value, seen)
				}
			}
		}
	}
}
