// Package registry is the native bridge: typed extractors and
// constructors that let host Go code register functions, constructors
// and wrapped instances as callable pyvm values without hand-rolling
// argument marshalling at every call site.
package registry

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/constraints"

	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/values"
)

// Extract converts a *values.Value argument into a Go numeric type T,
// following the same int/float/bool coercions values.Value.ToInt/
// ToFloat already apply, generalized once via constraints.Integer |
// constraints.Float so every native function signature shares one
// implementation instead of one per Go numeric type.
func Extract[T constraints.Integer | constraints.Float](v *values.Value) (T, error) {
	if !v.IsNumeric() {
		var zero T
		return zero, perr.Type("expected a number, got %q", v.TypeName())
	}
	switch any(T(0)).(type) {
	case float32, float64:
		return T(v.ToFloat()), nil
	default:
		return T(v.ToInt()), nil
	}
}

// Return wraps a Go numeric result back into a *values.Value.
func Return[T constraints.Integer | constraints.Float](n T) *values.Value {
	switch any(n).(type) {
	case float32, float64:
		return values.Float(float64(n))
	default:
		return values.Int(int64(n))
	}
}

// ExtractUint64 and ReturnUint64 exist alongside the generic pair above
// because unsigned 64-bit values are carried as a reinterpreted Int bit
// pattern (values.Uint64/AsUint64) rather than through the signed
// ToInt/Int path Extract/Return use — a plain Extract[uint64] would
// silently truncate/misread that bit pattern.
func ExtractUint64(v *values.Value) (uint64, error) {
	if v.Type != values.TypeInt {
		return 0, perr.Type("expected an int, got %q", v.TypeName())
	}
	return v.AsUint64(), nil
}

func ReturnUint64(u uint64) *values.Value { return values.Uint64(u) }

// ExtractString pulls a Go string out of a Str or UStr value.
func ExtractString(v *values.Value) (string, error) {
	switch v.Type {
	case values.TypeStr, values.TypeUStr:
		return v.ToStr(), nil
	default:
		return "", perr.Type("expected a string, got %q", v.TypeName())
	}
}

func ReturnString(s string) *values.Value { return values.Str(s) }

func ExtractBool(v *values.Value) (bool, error) {
	return v.ToBool(), nil
}

func ReturnBool(b bool) *values.Value { return values.Bool(b) }

// NewInstanceID mints a process-unique diagnostic identifier for a
// native instance, surfaced in pool dumps and error messages — it is
// never used as an equality/identity key (Go pointer identity already
// serves that for OwnBorrowed/OwnShared payloads).
func NewInstanceID() string {
	return uuid.NewString()
}

// Ctor builds a values.CCtor descriptor for a native constructor that
// takes exactly arity positional arguments. Arity is checked before the
// build callback runs, so the callback can index args without bounds
// checks; build receives the argument Values unconverted.
func Ctor(name string, arity int, build func(ctx values.CallContext, args []*values.Value) (*values.CInst, error)) *values.CCtor {
	return &values.CCtor{
		Name: name,
		New: func(ctx values.CallContext, args []*values.Value, kwargs map[string]*values.Value) (*values.CInst, error) {
			if len(args) != arity {
				return nil, perr.Type("%s() takes %d argument(s) (%d given)", name, arity, len(args))
			}
			inst, err := build(ctx, args)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			if inst.ID == "" {
				inst.ID = NewInstanceID()
			}
			return inst, nil
		},
	}
}

// Func wraps a native function body as a values.CFunc carrying name.
// The body's errors are returned as the body produced them.
func Func(name string, fn values.NativeFunc) *values.Value {
	return values.CFuncValue(name, fn)
}
