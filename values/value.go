// Package values implements the interpreter's object model: a single
// tagged Value type carrying one of a fixed set of runtime variants
// (None, Bool, Int, Float, Str, ...) plus the arithmetic, comparison
// and truthiness rules CPython 2.7 bytecode expects of them.
//
// Values are modeled as one struct with a type tag rather than a class
// hierarchy: capabilities (subscriptable, iterable, callable, ...) are
// dispatched by the vm package switching on Type, not by dynamic casts
// on Data.
package values

import (
	"fmt"
	"math"
)

// ValueType tags the variant held in a Value's Data field.
type ValueType byte

const (
	TypeNone ValueType = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeStr
	TypeUStr
	TypeList
	TypeTuple
	TypeDict
	TypeStrDict
	TypeSlice
	TypeIterator
	TypeCode
	TypeFunction
	TypeMethod
	TypeClass
	TypeInstance
	TypeModule
	TypeGenerator
	TypeXRange
	TypeCFunc
	TypeCInst
	TypeCCtor
	TypePrimitiveAdapter
)

func (t ValueType) String() string {
	switch t {
	case TypeNone:
		return "NoneType"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeStr:
		return "str"
	case TypeUStr:
		return "unicode"
	case TypeList:
		return "list"
	case TypeTuple:
		return "tuple"
	case TypeDict, TypeStrDict:
		return "dict"
	case TypeSlice:
		return "slice"
	case TypeIterator:
		return "iterator"
	case TypeCode:
		return "code"
	case TypeFunction:
		return "function"
	case TypeMethod:
		return "instancemethod"
	case TypeClass:
		return "classobj"
	case TypeInstance:
		return "instance"
	case TypeModule:
		return "module"
	case TypeGenerator:
		return "generator"
	case TypeXRange:
		return "xrange"
	case TypeCFunc:
		return "builtin_function_or_method"
	case TypeCInst:
		return "native_instance"
	case TypeCCtor:
		return "native_constructor"
	case TypePrimitiveAdapter:
		return "builtin_method"
	default:
		return "unknown"
	}
}

// Value is every runtime object the interpreter manipulates: locals,
// globals, stack slots and constants are all *Value. Data holds the
// variant-specific payload named by Type.
type Value struct {
	Type ValueType
	Data interface{}
}

// Singletons shared process-wide by every frame of one VM so that
// `is` comparisons on None/True/False behave as CPython guarantees.
var (
	None  = &Value{Type: TypeNone}
	True  = &Value{Type: TypeBool, Data: true}
	False = &Value{Type: TypeBool, Data: false}
)

func Bool(b bool) *Value {
	if b {
		return True
	}
	return False
}

func Int(i int64) *Value     { return &Value{Type: TypeInt, Data: i} }
func Float(f float64) *Value { return &Value{Type: TypeFloat, Data: f} }

// Uint64 stores u as a bit-pattern int64: the Int variant also carries
// unsigned 64-bit results from the native bridge. Use AsUint64 to read
// it back.
func Uint64(u uint64) *Value { return &Value{Type: TypeInt, Data: int64(u)} }

// AsUint64 reinterprets an Int's bit pattern as unsigned. Only valid on
// values the caller knows came from Uint64 or an extractor that
// documents the same contract.
func (v *Value) AsUint64() uint64 {
	return uint64(v.Data.(int64))
}

func (v *Value) IsNone() bool { return v.Type == TypeNone }
func (v *Value) IsBool() bool { return v.Type == TypeBool }
func (v *Value) IsInt() bool  { return v.Type == TypeInt }
func (v *Value) IsFloat() bool { return v.Type == TypeFloat }
func (v *Value) IsNumeric() bool {
	return v.Type == TypeInt || v.Type == TypeFloat || v.Type == TypeBool
}

// Clear implements pool.Clearer: it drops every strong reference this
// value holds that could participate in a reference cycle. Scalars
// have nothing to drop.
func (v *Value) Clear() {
	switch v.Type {
	case TypeList, TypeTuple:
		v.Data.(*ListData).Items = nil
	case TypeDict:
		v.Data.(*DictData).entries = nil
	case TypeStrDict:
		d := v.Data.(*StrDictData)
		d.m = nil
	case TypeClass:
		c := v.Data.(*Class)
		c.Base = nil
		c.Dict = nil
	case TypeInstance:
		i := v.Data.(*Instance)
		i.Dict = nil
		// Class is kept: an instance's class reference alone never
		// forms a user-visible cycle worth severing here.
	case TypeMethod:
		m := v.Data.(*Method)
		m.Receiver = nil
		m.Func = nil
	case TypeFunction:
		f := v.Data.(*Function)
		f.Closure = nil
		f.Defaults = nil
	case TypeModule:
		v.Data.(*Module).Globals = nil
	case TypeGenerator:
		if c, ok := v.Data.(interface{ Clear() }); ok {
			c.Clear()
		}
	}
}

// ToBool implements truthiness for every variant this interpreter
// supports.
func (v *Value) ToBool() bool {
	switch v.Type {
	case TypeNone:
		return false
	case TypeBool:
		return v.Data.(bool)
	case TypeInt:
		return v.Data.(int64) != 0
	case TypeFloat:
		f := v.Data.(float64)
		return f != 0 && !math.IsNaN(f)
	case TypeStr:
		return len(v.Data.(*StrData).Bytes) > 0
	case TypeUStr:
		return len(v.Data.(*UStrData).Runes) > 0
	case TypeList, TypeTuple:
		return len(v.Data.(*ListData).Items) > 0
	case TypeDict:
		return len(v.Data.(*DictData).entries) > 0
	case TypeStrDict:
		return len(v.Data.(*StrDictData).m) > 0
	case TypeXRange:
		return v.Data.(*XRange).Len() > 0
	default:
		return true // functions, classes, instances etc. are always truthy
	}
}

// pyFloorDiv implements CPython 2.7's classic `/` on two ints: floor
// division (rounds toward negative infinity), not truncation toward
// zero.
func pyFloorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func pymod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

// ToInt converts following CPython 2.7's int() coercion rules for the
// scalar types this interpreter supports.
func (v *Value) ToInt() int64 {
	switch v.Type {
	case TypeBool:
		if v.Data.(bool) {
			return 1
		}
		return 0
	case TypeInt:
		return v.Data.(int64)
	case TypeFloat:
		return int64(v.Data.(float64))
	default:
		return 0
	}
}

func (v *Value) ToFloat() float64 {
	switch v.Type {
	case TypeBool:
		if v.Data.(bool) {
			return 1
		}
		return 0
	case TypeInt:
		return float64(v.Data.(int64))
	case TypeFloat:
		return v.Data.(float64)
	default:
		return 0
	}
}

// ToStr renders the informal ("str()") representation.
func (v *Value) ToStr() string {
	switch v.Type {
	case TypeNone:
		return "None"
	case TypeBool:
		if v.Data.(bool) {
			return "True"
		}
		return "False"
	case TypeInt:
		return fmt.Sprintf("%d", v.Data.(int64))
	case TypeFloat:
		return formatFloat(v.Data.(float64))
	case TypeStr:
		return string(v.Data.(*StrData).Bytes)
	case TypeUStr:
		return string(v.Data.(*UStrData).Runes)
	case TypeList:
		return v.reprSequence("[", "]")
	case TypeTuple:
		return v.reprTuple()
	case TypeDict, TypeStrDict:
		return v.reprDict()
	case TypeXRange:
		xr := v.Data.(*XRange)
		return fmt.Sprintf("xrange(%d, %d, %d)", xr.Start, xr.Stop, xr.Step)
	case TypeFunction:
		return fmt.Sprintf("<function %s>", v.Data.(*Function).Name)
	case TypeClass:
		return fmt.Sprintf("<class %s>", v.Data.(*Class).Name)
	case TypeInstance:
		return fmt.Sprintf("<%s instance>", v.Data.(*Instance).Class.Data.(*Class).Name)
	case TypeModule:
		return fmt.Sprintf("<module %s>", v.Data.(*Module).Name)
	case TypeCFunc:
		return fmt.Sprintf("<built-in function %s>", v.Data.(*CFunc).Name)
	default:
		return fmt.Sprintf("<%s>", v.Type)
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	return fmt.Sprintf("%g", f)
}

// TypeName returns the CPython-style type name (e.g. "int", "str").
func (v *Value) TypeName() string { return v.Type.String() }
