package values

import "fmt"

// Cell boxes one free/cell variable so a nested function's closure and
// its enclosing frame's fast-locals slot can share the same storage
// across LOAD_DEREF/STORE_DEREF and MAKE_CLOSURE.
type Cell struct {
	Value *Value
}

// Function is the Function variant's payload: a user-defined function
// bound to a code object, its default argument values, and the cells it
// closes over.
type Function struct {
	Name     string
	Code     *Value // TypeCode
	Defaults []*Value
	Closure  []*Cell
	Globals  *Value // TypeStrDict: the defining module's globals
}

func FunctionValue(f *Function) *Value { return &Value{Type: TypeFunction, Data: f} }

// Method is the Method variant's payload: a Function bound to a
// receiver instance (an "instancemethod" in CPython 2.7 terms).
type Method struct {
	Func     *Value // TypeFunction or TypeCFunc
	Receiver *Value // nil for an unbound method
	Class    *Value // TypeClass the method was looked up on
}

func MethodValue(m *Method) *Value { return &Value{Type: TypeMethod, Data: m} }

// Class is the Class variant's payload: an old-style class object.
// Method Resolution is single-inheritance, Base is nil for a root
// class; multiple bases are rejected at class-build time.
type Class struct {
	Name string
	Base *Value // TypeClass or nil
	Dict *Value // TypeStrDict: methods and class attributes

	// NativeCtor, when non-nil, is consulted by instance creation
	// instead of allocating a plain Instance — set by the native
	// bridge when a class wraps a Go type.
	NativeCtor *CCtor
}

func ClassValue(c *Class) *Value { return &Value{Type: TypeClass, Data: c} }

// Lookup walks Base chain looking up name in each class's Dict.
func (c *Class) Lookup(name string) (*Value, *Class, bool) {
	for cur := c; cur != nil; {
		if v, ok := cur.Dict.Data.(*StrDictData).Get(name); ok {
			return v, cur, true
		}
		if cur.Base == nil {
			return nil, nil, false
		}
		cur = cur.Base.Data.(*Class)
	}
	return nil, nil, false
}

// Instance is the Instance variant's payload: an old-style class
// instance.
type Instance struct {
	Class *Value // TypeClass
	Dict  *Value // TypeStrDict: instance attributes

	// Native holds the wrapped Go value when Class.NativeCtor produced
	// this instance; nil for plain script-defined instances.
	Native *CInst
}

func InstanceValue(i *Instance) *Value { return &Value{Type: TypeInstance, Data: i} }

// Module is the Module variant's payload.
type Module struct {
	Name     string
	Filename string
	Globals  *Value // TypeStrDict
}

func ModuleValue(m *Module) *Value { return &Value{Type: TypeModule, Data: m} }

// XRange is the XRange variant's payload: a lazy arithmetic progression
// (CPython 2.7's xrange, as opposed to a materialized list).
type XRange struct {
	Start, Stop, Step int64
}

func XRangeValue(x *XRange) *Value { return &Value{Type: TypeXRange, Data: x} }

func (x *XRange) Len() int64 {
	if x.Step == 0 {
		return 0
	}
	return SliceLen(x.Start, x.Stop, x.Step)
}

func (x *XRange) At(i int64) int64 { return x.Start + i*x.Step }

// CallContext is the minimal surface a native function needs back from
// the interpreter: calling back into script code (a Class value is
// instantiated by calling it) and raising a script-visible exception of
// a given class. vm.VM implements it.
type CallContext interface {
	Call(callable *Value, args []*Value, kwargs map[string]*Value) (*Value, error)
	Raise(class *Value, message string) error
}

// NativeFunc is the signature every Go-implemented callable — builtin
// function, bound primitive method, native constructor body — is
// wrapped as before being stored in a CFunc/PrimitiveAdapter.
type NativeFunc func(ctx CallContext, args []*Value, kwargs map[string]*Value) (*Value, error)

// CFunc is the CFunc variant's payload: a builtin implemented in Go.
type CFunc struct {
	Name string
	Fn   NativeFunc
}

func CFuncValue(name string, fn NativeFunc) *Value {
	return &Value{Type: TypeCFunc, Data: &CFunc{Name: name, Fn: fn}}
}

// InstanceOwnership names how a CInst's Payload relates to the
// underlying Go value it wraps: a borrowed pointer the host still
// owns, a refcounted share, or a copy held by value.
type InstanceOwnership int

const (
	OwnBorrowed InstanceOwnership = iota
	OwnShared
	OwnValue
)

// CInst is the CInst variant's payload: a native instance created by a
// CCtor or handed in by an embedder. ID is a diagnostic identifier
// (assigned from google/uuid by the registry bridge), not an identity
// key — Go pointer identity already provides that for OwnBorrowed/
// OwnShared payloads.
type CInst struct {
	ClassName string
	Ownership InstanceOwnership
	Payload   interface{}
	ID        string
}

func CInstValue(c *CInst) *Value { return &Value{Type: TypeCInst, Data: c} }

// CCtor is the CCtor variant's payload: a native constructor descriptor
// bound to a Class via Class.NativeCtor.
type CCtor struct {
	Name string
	New  func(ctx CallContext, args []*Value, kwargs map[string]*Value) (*CInst, error)
}

func CCtorValue(c *CCtor) *Value { return &Value{Type: TypeCCtor, Data: c} }

// PrimitiveAdapter is the PrimitiveAdapter variant's payload: a
// transient bound-method value produced by LOAD_ATTR on a primitive
// receiver (e.g. "abc".upper), pairing the receiver with the Go
// function that implements the method.
type PrimitiveAdapter struct {
	Receiver *Value
	Name     string
	Fn       NativeFunc
}

func PrimitiveAdapterValue(p *PrimitiveAdapter) *Value {
	return &Value{Type: TypePrimitiveAdapter, Data: p}
}

// Iterator is implemented by any Go value stored in an Iterator variant
// or inside a Generator; Next reports (value, false) once exhausted.
type Iterator interface {
	Next() (*Value, bool)
}

func IteratorValue(it Iterator) *Value { return &Value{Type: TypeIterator, Data: it} }

func (v *Value) AsIterator() (Iterator, bool) {
	if v.Type != TypeIterator {
		return nil, false
	}
	it, ok := v.Data.(Iterator)
	return it, ok
}

// String implements fmt.Stringer so Values print sensibly in %v/%s.
func (v *Value) String() string { return v.ToStr() }

var _ fmt.Stringer = (*Value)(nil)
