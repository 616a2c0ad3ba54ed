package registry

import (
	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/values"
)

// NewNativeClass builds a Class value backed by a native constructor:
// calling it (CALL_FUNCTION on the class object) produces an Instance
// whose Native field is the CInst the constructor returned, instead of
// a plain script-defined instance.
func NewNativeClass(name string, ctor *values.CCtor, methods map[string]values.NativeFunc) *values.Value {
	dict := values.StrDict()
	sd := dict.Data.(*values.StrDictData)
	for mname, fn := range methods {
		sd.Set(mname, Func(name+"."+mname, fn))
	}
	return values.ClassValue(&values.Class{
		Name:       name,
		Dict:       dict,
		NativeCtor: ctor,
	})
}

// Def registers a native function into a module's globals so script
// code can call it as `modname.funcname(...)`.
func Def(mod *values.Value, name string, fn values.NativeFunc) {
	mod.Data.(*values.Module).Globals.Data.(*values.StrDictData).Set(name, Func(name, fn))
}

// AddClass registers a class value (native or script-built) into a
// module's globals.
func AddClass(mod *values.Value, class *values.Value) {
	name := class.Data.(*values.Class).Name
	mod.Data.(*values.Module).Globals.Data.(*values.StrDictData).Set(name, class)
}

// DefMethod adds a native method to an already-built class.
func DefMethod(class *values.Value, name string, fn values.NativeFunc) {
	c := class.Data.(*values.Class)
	c.Dict.Data.(*values.StrDictData).Set(name, Func(c.Name+"."+name, fn))
}

// wrapInstance builds an Instance of class around an existing native
// payload without running any constructor.
func wrapInstance(class *values.Value, ownership values.InstanceOwnership, payload interface{}) *values.Value {
	return values.InstanceValue(&values.Instance{
		Class: class,
		Dict:  values.StrDict(),
		Native: &values.CInst{
			ClassName: class.Data.(*values.Class).Name,
			Ownership: ownership,
			Payload:   payload,
			ID:        NewInstanceID(),
		},
	})
}

// InstancePtr exposes a host-owned value by borrowed pointer: the host
// keeps ownership and must outlive every script reference.
func InstancePtr(class *values.Value, ptr interface{}) *values.Value {
	return wrapInstance(class, values.OwnBorrowed, ptr)
}

// InstanceShared exposes a value under shared ownership: the wrapper
// keeps the payload alive as long as the Instance does.
func InstanceShared(class *values.Value, shared interface{}) *values.Value {
	return wrapInstance(class, values.OwnShared, shared)
}

// InstanceByValue exposes a copy owned by the wrapper itself.
func InstanceByValue(class *values.Value, v interface{}) *values.Value {
	return wrapInstance(class, values.OwnValue, v)
}

// Payload returns the native payload wrapped by an Instance produced by
// a native constructor or one of the Instance* helpers, uniformly
// across the three ownership modes.
func Payload(inst *values.Value) (interface{}, error) {
	if inst.Type != values.TypeInstance {
		return nil, perr.Type("expected a native instance, got %q", inst.TypeName())
	}
	ci := inst.Data.(*values.Instance).Native
	if ci == nil {
		return nil, perr.Type("instance carries no native payload")
	}
	return ci.Payload, nil
}

// PrimitiveMethods is a table of NativeFuncs bound as PrimitiveAdapter
// values when LOAD_ATTR is applied to a primitive (Str/List/Dict/...)
// receiver — the Go analogue of the ICInstWrap-style method tables
// wrapping non-instance receivers.
type PrimitiveMethods map[string]values.NativeFunc

// Bind looks up name in the table and, if present, returns a bound
// PrimitiveAdapter value closing over receiver.
func (m PrimitiveMethods) Bind(receiver *values.Value, name string) (*values.Value, bool) {
	fn, ok := m[name]
	if !ok {
		return nil, false
	}
	return values.PrimitiveAdapterValue(&values.PrimitiveAdapter{
		Receiver: receiver,
		Name:     name,
		Fn:       fn,
	}), true
}
