package values

import (
	"fmt"
	"math"

	perr "github.com/wudi/pyvm/errors"
)

// numericPromote reports whether either operand is a Float, in which
// case both sides are widened to float64 before the operator runs
// (int and bool both coerce to float cleanly; everything else is a
// TypeError for arithmetic operators).
func numericPromote(a, b *Value) bool {
	return a.Type == TypeFloat || b.Type == TypeFloat
}

func checkNumeric(op string, a, b *Value) error {
	if !a.IsNumeric() || !b.IsNumeric() {
		return perr.Type("unsupported operand type(s) for %s: %q and %q", op, a.TypeName(), b.TypeName())
	}
	return nil
}

// Add implements BINARY_ADD: numeric addition, or concatenation for
// Str/UStr/List/Tuple.
func Add(a, b *Value) (*Value, error) {
	switch {
	case a.Type == TypeStr && b.Type == TypeStr:
		return StrBytes(append(append([]byte{}, a.Data.(*StrData).Bytes...), b.Data.(*StrData).Bytes...)), nil
	case a.Type == TypeUStr && b.Type == TypeUStr:
		return UStrRunes(append(append([]rune{}, a.Data.(*UStrData).Runes...), b.Data.(*UStrData).Runes...)), nil
	case a.Type == TypeList && b.Type == TypeList:
		return List(append(append([]*Value{}, a.Data.(*ListData).Items...), b.Data.(*ListData).Items...)), nil
	case a.Type == TypeTuple && b.Type == TypeTuple:
		return Tuple(append(append([]*Value{}, a.Data.(*ListData).Items...), b.Data.(*ListData).Items...)), nil
	}
	if err := checkNumeric("+", a, b); err != nil {
		return nil, err
	}
	if numericPromote(a, b) {
		return Float(a.ToFloat() + b.ToFloat()), nil
	}
	return Int(a.ToInt() + b.ToInt()), nil
}

func Sub(a, b *Value) (*Value, error) {
	if err := checkNumeric("-", a, b); err != nil {
		return nil, err
	}
	if numericPromote(a, b) {
		return Float(a.ToFloat() - b.ToFloat()), nil
	}
	return Int(a.ToInt() - b.ToInt()), nil
}

func Mul(a, b *Value) (*Value, error) {
	switch {
	case a.Type == TypeStr && b.IsInt():
		return StrBytes(repeatBytes(a.Data.(*StrData).Bytes, b.ToInt())), nil
	case b.Type == TypeStr && a.IsInt():
		return StrBytes(repeatBytes(b.Data.(*StrData).Bytes, a.ToInt())), nil
	case a.Type == TypeList && b.IsInt():
		return List(repeatItems(a.Data.(*ListData).Items, b.ToInt())), nil
	case b.Type == TypeList && a.IsInt():
		return List(repeatItems(b.Data.(*ListData).Items, a.ToInt())), nil
	case a.Type == TypeTuple && b.IsInt():
		return Tuple(repeatItems(a.Data.(*ListData).Items, b.ToInt())), nil
	case b.Type == TypeTuple && a.IsInt():
		return Tuple(repeatItems(b.Data.(*ListData).Items, a.ToInt())), nil
	}
	if err := checkNumeric("*", a, b); err != nil {
		return nil, err
	}
	if numericPromote(a, b) {
		return Float(a.ToFloat() * b.ToFloat()), nil
	}
	return Int(a.ToInt() * b.ToInt()), nil
}

func repeatBytes(b []byte, n int64) []byte {
	if n <= 0 {
		return nil
	}
	out := make([]byte, 0, int64(len(b))*n)
	for i := int64(0); i < n; i++ {
		out = append(out, b...)
	}
	return out
}

func repeatItems(items []*Value, n int64) []*Value {
	if n <= 0 {
		return nil
	}
	out := make([]*Value, 0, int64(len(items))*n)
	for i := int64(0); i < n; i++ {
		out = append(out, items...)
	}
	return out
}

// Div implements BINARY_DIVIDE: classic (non-`__future__`) division.
// Two ints floor-divide; anything involving a Float produces a Float.
func Div(a, b *Value) (*Value, error) {
	if err := checkNumeric("/", a, b); err != nil {
		return nil, err
	}
	if numericPromote(a, b) {
		if b.ToFloat() == 0 {
			return nil, perr.Value("float division by zero")
		}
		return Float(a.ToFloat() / b.ToFloat()), nil
	}
	if b.ToInt() == 0 {
		return nil, perr.Value("integer division or modulo by zero")
	}
	return Int(pyFloorDiv(a.ToInt(), b.ToInt())), nil
}

func FloorDiv(a, b *Value) (*Value, error) {
	if err := checkNumeric("//", a, b); err != nil {
		return nil, err
	}
	if numericPromote(a, b) {
		if b.ToFloat() == 0 {
			return nil, perr.Value("float floor division by zero")
		}
		f := a.ToFloat() / b.ToFloat()
		return Float(float64(int64(f) - boolToInt64(f < 0 && float64(int64(f)) != f))), nil
	}
	if b.ToInt() == 0 {
		return nil, perr.Value("integer division or modulo by zero")
	}
	return Int(pyFloorDiv(a.ToInt(), b.ToInt())), nil
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Mod implements BINARY_MODULO: Python's floor-consistent modulo for
// numerics, and %-style formatting when the left operand is a Str.
func Mod(a, b *Value) (*Value, error) {
	if a.Type == TypeStr {
		return formatPercent(a.Data.(*StrData).Bytes, b)
	}
	if err := checkNumeric("%", a, b); err != nil {
		return nil, err
	}
	if numericPromote(a, b) {
		bf := b.ToFloat()
		if bf == 0 {
			return nil, perr.Value("float modulo")
		}
		af := a.ToFloat()
		m := af - bf*float64(int64(af/bf))
		if m != 0 && (m < 0) != (bf < 0) {
			m += bf
		}
		return Float(m), nil
	}
	if b.ToInt() == 0 {
		return nil, perr.Value("integer division or modulo by zero")
	}
	return Int(pymod(a.ToInt(), b.ToInt())), nil
}

func formatPercent(format []byte, arg *Value) (*Value, error) {
	var args []*Value
	if arg.Type == TypeTuple {
		args = arg.Data.(*ListData).Items
	} else {
		args = []*Value{arg}
	}
	out := make([]byte, 0, len(format))
	ai := 0
	next := func() (*Value, error) {
		if ai >= len(args) {
			return nil, perr.Value("not enough arguments for format string")
		}
		v := args[ai]
		ai++
		return v, nil
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i == len(format)-1 {
			out = append(out, c)
			continue
		}
		i++
		switch format[i] {
		case '%':
			out = append(out, '%')
		case 's':
			v, err := next()
			if err != nil {
				return nil, err
			}
			out = append(out, []byte(v.ToStr())...)
		case 'd', 'i':
			v, err := next()
			if err != nil {
				return nil, err
			}
			out = append(out, []byte(fmt.Sprintf("%d", v.ToInt()))...)
		case 'f':
			v, err := next()
			if err != nil {
				return nil, err
			}
			out = append(out, []byte(fmt.Sprintf("%f", v.ToFloat()))...)
		case 'r':
			v, err := next()
			if err != nil {
				return nil, err
			}
			out = append(out, []byte(reprOf(v))...)
		default:
			out = append(out, '%', format[i])
		}
	}
	return StrBytes(out), nil
}

func Pow(a, b *Value) (*Value, error) {
	if err := checkNumeric("**", a, b); err != nil {
		return nil, err
	}
	if numericPromote(a, b) || b.ToInt() < 0 {
		return Float(math.Pow(a.ToFloat(), b.ToFloat())), nil
	}
	var r int64 = 1
	base, exp := a.ToInt(), b.ToInt()
	for i := int64(0); i < exp; i++ {
		r *= base
	}
	return Int(r), nil
}

func bitwiseInts(op string, a, b *Value) (int64, int64, error) {
	if !a.IsInt() && a.Type != TypeBool {
		return 0, 0, perr.Type("unsupported operand type(s) for %s: %q and %q", op, a.TypeName(), b.TypeName())
	}
	if !b.IsInt() && b.Type != TypeBool {
		return 0, 0, perr.Type("unsupported operand type(s) for %s: %q and %q", op, a.TypeName(), b.TypeName())
	}
	return a.ToInt(), b.ToInt(), nil
}

func And(a, b *Value) (*Value, error) {
	x, y, err := bitwiseInts("&", a, b)
	if err != nil {
		return nil, err
	}
	return Int(x & y), nil
}

func Or(a, b *Value) (*Value, error) {
	x, y, err := bitwiseInts("|", a, b)
	if err != nil {
		return nil, err
	}
	return Int(x | y), nil
}

func Xor(a, b *Value) (*Value, error) {
	x, y, err := bitwiseInts("^", a, b)
	if err != nil {
		return nil, err
	}
	return Int(x ^ y), nil
}

func Lshift(a, b *Value) (*Value, error) {
	x, y, err := bitwiseInts("<<", a, b)
	if err != nil {
		return nil, err
	}
	if y < 0 {
		return nil, perr.Value("negative shift count")
	}
	return Int(x << uint(y)), nil
}

func Rshift(a, b *Value) (*Value, error) {
	x, y, err := bitwiseInts(">>", a, b)
	if err != nil {
		return nil, err
	}
	if y < 0 {
		return nil, perr.Value("negative shift count")
	}
	return Int(x >> uint(y)), nil
}

func Neg(a *Value) (*Value, error) {
	switch {
	case a.Type == TypeFloat:
		return Float(-a.Data.(float64)), nil
	case a.IsInt() || a.Type == TypeBool:
		return Int(-a.ToInt()), nil
	}
	return nil, perr.Type("bad operand type for unary -: %q", a.TypeName())
}

func Invert(a *Value) (*Value, error) {
	if !a.IsInt() && a.Type != TypeBool {
		return nil, perr.Type("bad operand type for unary ~: %q", a.TypeName())
	}
	return Int(^a.ToInt()), nil
}
