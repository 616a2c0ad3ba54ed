package values

import (
	"bytes"

	perr "github.com/wudi/pyvm/errors"
)

// Identical implements `is`: plain pointer identity. None/True/False
// are shared singletons (see the package-level vars), so `x is None`
// behaves correctly without any special-casing here.
func Identical(a, b *Value) bool {
	return a == b
}

// Equal implements `==`, recursing into containers and cross-promoting
// numeric types the way CPython 2.7 does.
func Equal(a, b *Value) bool {
	if a.IsNumeric() && b.IsNumeric() {
		if a.Type == TypeFloat || b.Type == TypeFloat {
			return a.ToFloat() == b.ToFloat()
		}
		return a.ToInt() == b.ToInt()
	}
	if a.Type != b.Type {
		if (a.Type == TypeStr && b.Type == TypeUStr) || (a.Type == TypeUStr && b.Type == TypeStr) {
			return equalStrUStr(a, b)
		}
		return false
	}
	switch a.Type {
	case TypeNone:
		return true
	case TypeStr:
		return bytes.Equal(a.Data.(*StrData).Bytes, b.Data.(*StrData).Bytes)
	case TypeUStr:
		return string(a.Data.(*UStrData).Runes) == string(b.Data.(*UStrData).Runes)
	case TypeList, TypeTuple:
		x, y := a.Data.(*ListData).Items, b.Data.(*ListData).Items
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case TypeDict:
		x, y := a.Data.(*DictData), b.Data.(*DictData)
		if x.Len() != y.Len() {
			return false
		}
		eq := true
		x.Each(func(k, v *Value) bool {
			ov, ok := y.Get(k)
			if !ok || !Equal(v, ov) {
				eq = false
				return false
			}
			return true
		})
		return eq
	case TypeXRange:
		x, y := a.Data.(*XRange), b.Data.(*XRange)
		return *x == *y
	default:
		return a.Data == b.Data
	}
}

func equalStrUStr(a, b *Value) bool {
	var s *StrData
	var u *UStrData
	if a.Type == TypeStr {
		s, u = a.Data.(*StrData), b.Data.(*UStrData)
	} else {
		s, u = b.Data.(*StrData), a.Data.(*UStrData)
	}
	return string(s.Wide()) == string(u.Runes)
}

// Compare implements the ordering used by <, <=, >, >= : -1, 0, 1 for
// less/equal/greater, or an error if the two values have no ordering
// (CPython 2.7's catch-all type-name ordering is not modeled here;
// cross-type ordering is a TypeError for anything this interpreter
// doesn't define a numeric/string/sequence rule for).
func Compare(a, b *Value) (int, error) {
	switch {
	case a.IsNumeric() && b.IsNumeric():
		af, bf := a.ToFloat(), b.ToFloat()
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	case a.Type == TypeStr && b.Type == TypeStr:
		return bytes.Compare(a.Data.(*StrData).Bytes, b.Data.(*StrData).Bytes), nil
	case a.Type == TypeUStr && b.Type == TypeUStr:
		as, bs := string(a.Data.(*UStrData).Runes), string(b.Data.(*UStrData).Runes)
		switch {
		case as < bs:
			return -1, nil
		case as > bs:
			return 1, nil
		default:
			return 0, nil
		}
	case (a.Type == TypeList && b.Type == TypeList) || (a.Type == TypeTuple && b.Type == TypeTuple):
		x, y := a.Data.(*ListData).Items, b.Data.(*ListData).Items
		for i := 0; i < len(x) && i < len(y); i++ {
			c, err := Compare(x[i], y[i])
			if err != nil {
				return 0, err
			}
			if c != 0 {
				return c, nil
			}
		}
		switch {
		case len(x) < len(y):
			return -1, nil
		case len(x) > len(y):
			return 1, nil
		default:
			return 0, nil
		}
	}
	if Equal(a, b) {
		return 0, nil
	}
	return 0, perr.Type("unorderable types: %s and %s", a.TypeName(), b.TypeName())
}
