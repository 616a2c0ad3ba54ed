package builtins

import (
	"github.com/wudi/pyvm/registry"
	"github.com/wudi/pyvm/values"
)

// dictLike abstracts over Dict (arbitrary hashable keys) and StrDict
// (string keys only, backing module/instance/class attribute tables)
// so one method table serves both TypeDict and TypeStrDict receivers.
type dictLike interface {
	get(key *values.Value) (*values.Value, bool)
	set(key, value *values.Value) error
	delete(key *values.Value) bool
	len() int
	each(visit func(key, value *values.Value) bool)
}

type genericDict struct{ d *values.DictData }

func (g genericDict) get(key *values.Value) (*values.Value, bool) { return g.d.Get(key) }
func (g genericDict) set(key, value *values.Value) error          { return g.d.Set(key, value) }
func (g genericDict) delete(key *values.Value) bool               { return g.d.Delete(key) }
func (g genericDict) len() int                                    { return g.d.Len() }
func (g genericDict) each(visit func(key, value *values.Value) bool) { g.d.Each(visit) }

type strDict struct{ d *values.StrDictData }

func (s strDict) get(key *values.Value) (*values.Value, bool) { return s.d.Get(key.ToStr()) }
func (s strDict) set(key, value *values.Value) error          { s.d.Set(key.ToStr(), value); return nil }
func (s strDict) delete(key *values.Value) bool               { return s.d.Delete(key.ToStr()) }
func (s strDict) len() int                                    { return s.d.Len() }
func (s strDict) each(visit func(key, value *values.Value) bool) {
	s.d.Each(func(k string, v *values.Value) bool { return visit(values.Str(k), v) })
}

func dictLikeOf(v *values.Value) dictLike {
	if v.Type == values.TypeStrDict {
		return strDict{v.Data.(*values.StrDictData)}
	}
	return genericDict{v.Data.(*values.DictData)}
}

func (b *env) buildDictMethods() registry.PrimitiveMethods {
	return registry.PrimitiveMethods{
		"get": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			d := dictLikeOf(args[0])
			if v, ok := d.get(args[1]); ok {
				return v, nil
			}
			if len(args) > 2 {
				return args[2], nil
			}
			return values.None, nil
		},
		"keys": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			d := dictLikeOf(args[0])
			var keys []*values.Value
			d.each(func(k, _ *values.Value) bool { keys = append(keys, k); return true })
			return values.List(keys), nil
		},
		"values": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			d := dictLikeOf(args[0])
			var vals []*values.Value
			d.each(func(_, v *values.Value) bool { vals = append(vals, v); return true })
			return values.List(vals), nil
		},
		"items": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			d := dictLikeOf(args[0])
			var items []*values.Value
			d.each(func(k, v *values.Value) bool {
				items = append(items, values.Tuple([]*values.Value{k, v}))
				return true
			})
			return values.List(items), nil
		},
		"pop": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			d := dictLikeOf(args[0])
			if v, ok := d.get(args[1]); ok {
				d.delete(args[1])
				return v, nil
			}
			if len(args) > 2 {
				return args[2], nil
			}
			return nil, b.raise(ctx, "KeyError", "%s", args[1].ToStr())
		},
		"setdefault": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			d := dictLikeOf(args[0])
			if v, ok := d.get(args[1]); ok {
				return v, nil
			}
			def := values.None
			if len(args) > 2 {
				def = args[2]
			}
			if err := d.set(args[1], def); err != nil {
				return nil, b.raise(ctx, "TypeError", "%v", err)
			}
			return def, nil
		},
		"update": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			d := dictLikeOf(args[0])
			if len(args) > 1 {
				src := dictLikeOf(args[1])
				var setErr error
				src.each(func(k, v *values.Value) bool {
					if err := d.set(k, v); err != nil {
						setErr = err
						return false
					}
					return true
				})
				if setErr != nil {
					return nil, b.raise(ctx, "TypeError", "%v", setErr)
				}
			}
			for name, v := range kwargs {
				d.set(values.Str(name), v)
			}
			return values.None, nil
		},
		"has_key": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			_, ok := dictLikeOf(args[0]).get(args[1])
			return values.Bool(ok), nil
		},
		"clear": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			d := dictLikeOf(args[0])
			var keys []*values.Value
			d.each(func(k, _ *values.Value) bool { keys = append(keys, k); return true })
			for _, k := range keys {
				d.delete(k)
			}
			return values.None, nil
		},
		"copy": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			src := dictLikeOf(args[0])
			out := values.Dict()
			dst := genericDict{out.Data.(*values.DictData)}
			src.each(func(k, v *values.Value) bool { dst.set(k, v); return true })
			return out, nil
		},
	}
}
