package builtins

import (
	"strings"

	"github.com/wudi/pyvm/registry"
	"github.com/wudi/pyvm/values"
)

// wrapLike renders s back as whichever of Str/UStr recv was, so a
// method on a unicode receiver returns unicode and a method on a byte
// string returns a byte string, matching CPython 2.7's per-type method
// tables without duplicating every implementation.
func wrapLike(recv *values.Value, s string) *values.Value {
	if recv.Type == values.TypeUStr {
		return values.UStr(s)
	}
	return values.Str(s)
}

func wrapListLike(recv *values.Value, parts []string) *values.Value {
	out := make([]*values.Value, len(parts))
	for i, p := range parts {
		out[i] = wrapLike(recv, p)
	}
	return values.List(out)
}

func (b *env) buildStrMethods() registry.PrimitiveMethods {
	return registry.PrimitiveMethods{
		"upper": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			recv := args[0]
			return wrapLike(recv, strings.ToUpper(recv.ToStr())), nil
		},
		"lower": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			recv := args[0]
			return wrapLike(recv, strings.ToLower(recv.ToStr())), nil
		},
		"capitalize": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			recv := args[0]
			s := recv.ToStr()
			if s == "" {
				return wrapLike(recv, s), nil
			}
			return wrapLike(recv, strings.ToUpper(s[:1])+strings.ToLower(s[1:])), nil
		},
		"strip": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			recv := args[0]
			if len(args) > 1 && !args[1].IsNone() {
				return wrapLike(recv, strings.Trim(recv.ToStr(), args[1].ToStr())), nil
			}
			return wrapLike(recv, strings.TrimSpace(recv.ToStr())), nil
		},
		"lstrip": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			recv := args[0]
			if len(args) > 1 && !args[1].IsNone() {
				return wrapLike(recv, strings.TrimLeft(recv.ToStr(), args[1].ToStr())), nil
			}
			return wrapLike(recv, strings.TrimLeft(recv.ToStr(), " \t\n\r\v\f")), nil
		},
		"rstrip": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			recv := args[0]
			if len(args) > 1 && !args[1].IsNone() {
				return wrapLike(recv, strings.TrimRight(recv.ToStr(), args[1].ToStr())), nil
			}
			return wrapLike(recv, strings.TrimRight(recv.ToStr(), " \t\n\r\v\f")), nil
		},
		"split": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			recv := args[0]
			s := recv.ToStr()
			if len(args) <= 1 || args[1].IsNone() {
				return wrapListLike(recv, strings.Fields(s)), nil
			}
			sep := args[1].ToStr()
			if len(args) > 2 {
				return wrapListLike(recv, strings.SplitN(s, sep, int(args[2].ToInt())+1)), nil
			}
			return wrapListLike(recv, strings.Split(s, sep)), nil
		},
		"join": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			recv := args[0]
			items, err := b.materialize(args[1])
			if err != nil {
				return nil, err
			}
			parts := make([]string, len(items))
			for i, it := range items {
				if it.Type != values.TypeStr && it.Type != values.TypeUStr {
					return nil, b.raise(ctx, "TypeError", "sequence item %d: expected string, %s found", i, it.TypeName())
				}
				parts[i] = it.ToStr()
			}
			return wrapLike(recv, strings.Join(parts, recv.ToStr())), nil
		},
		"replace": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			recv := args[0]
			n := -1
			if len(args) > 3 {
				n = int(args[3].ToInt())
			}
			return wrapLike(recv, strings.Replace(recv.ToStr(), args[1].ToStr(), args[2].ToStr(), n)), nil
		},
		"find": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			return values.Int(int64(strings.Index(args[0].ToStr(), args[1].ToStr()))), nil
		},
		"rfind": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			return values.Int(int64(strings.LastIndex(args[0].ToStr(), args[1].ToStr()))), nil
		},
		"index": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			i := strings.Index(args[0].ToStr(), args[1].ToStr())
			if i < 0 {
				return nil, b.raise(ctx, "ValueError", "substring not found")
			}
			return values.Int(int64(i)), nil
		},
		"count": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			return values.Int(int64(strings.Count(args[0].ToStr(), args[1].ToStr()))), nil
		},
		"startswith": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			return values.Bool(strings.HasPrefix(args[0].ToStr(), args[1].ToStr())), nil
		},
		"endswith": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			return values.Bool(strings.HasSuffix(args[0].ToStr(), args[1].ToStr())), nil
		},
		"isdigit": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			s := args[0].ToStr()
			if s == "" {
				return values.False, nil
			}
			for _, r := range s {
				if r < '0' || r > '9' {
					return values.False, nil
				}
			}
			return values.True, nil
		},
		"isalpha": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			s := args[0].ToStr()
			if s == "" {
				return values.False, nil
			}
			for _, r := range s {
				if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
					return values.False, nil
				}
			}
			return values.True, nil
		},
		"isspace": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			s := args[0].ToStr()
			if s == "" {
				return values.False, nil
			}
			return values.Bool(strings.TrimSpace(s) == ""), nil
		},
		"decode": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			recv := args[0]
			if recv.Type == values.TypeUStr {
				return recv, nil
			}
			enc := "utf-8"
			if len(args) > 1 {
				enc = strings.ToLower(args[1].ToStr())
			}
			sd := recv.Data.(*values.StrData)
			switch enc {
			case "utf-8", "utf8":
				v, err := sd.DecodeUTF8()
				if err != nil {
					return nil, b.raise(ctx, "ValueError", "%v", err)
				}
				return v, nil
			case "ascii", "latin-1", "latin1", "iso-8859-1":
				return values.UStrRunes(sd.Wide()), nil
			}
			return nil, b.raise(ctx, "ValueError", "unknown encoding: %s", enc)
		},
		"encode": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			return values.Str(args[0].ToStr()), nil
		},
		"title": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			recv := args[0]
			return wrapLike(recv, strings.Title(strings.ToLower(recv.ToStr()))), nil
		},
		"swapcase": func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
			recv := args[0]
			s := []rune(recv.ToStr())
			for i, r := range s {
				switch {
				case r >= 'a' && r <= 'z':
					s[i] = r - ('a' - 'A')
				case r >= 'A' && r <= 'Z':
					s[i] = r + ('a' - 'A')
				}
			}
			return wrapLike(recv, string(s)), nil
		},
	}
}
