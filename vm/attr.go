package vm

import (
	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/values"
)

// PrimitiveAttr is a hook the builtins package installs (via
// SetPrimitiveAttr) so LOAD_ATTR on a Str/List/Dict/... receiver can
// resolve a bound method without vm importing builtins (which imports
// vm to register itself — the hook breaks that cycle).
type PrimitiveAttr func(receiver *values.Value, name string) (*values.Value, bool)

func (vm *VM) SetPrimitiveAttr(fn PrimitiveAttr) { vm.primitiveAttr = fn }

// GetAttr and SetAttr are the exported forms of getAttr/setAttr, used by
// the builtins package's hasattr/getattr/setattr adapters and by host
// code that wants LOAD_ATTR/STORE_ATTR semantics without going through
// bytecode.
func (vm *VM) GetAttr(recv *values.Value, name string) (*values.Value, error) {
	return vm.getAttr(recv, name)
}

func (vm *VM) SetAttr(recv *values.Value, name string, val *values.Value) error {
	return vm.setAttr(recv, name, val)
}

func (vm *VM) getAttr(recv *values.Value, name string) (*values.Value, error) {
	switch recv.Type {
	case values.TypeModule:
		mod := recv.Data.(*values.Module)
		if v, ok := mod.Globals.Data.(*values.StrDictData).Get(name); ok {
			return v, nil
		}
	case values.TypeInstance:
		inst := recv.Data.(*values.Instance)
		if v, ok := inst.Dict.Data.(*values.StrDictData).Get(name); ok {
			return v, nil
		}
		class := inst.Class.Data.(*values.Class)
		if v, owner, ok := class.Lookup(name); ok {
			if v.Type == values.TypeFunction || v.Type == values.TypeCFunc {
				return vm.track(values.MethodValue(&values.Method{Func: v, Receiver: recv, Class: values.ClassValue(owner)})), nil
			}
			return v, nil
		}
		if ga, _, ok := class.Lookup("__getattr__"); ok {
			return vm.call(ga, []*values.Value{recv, values.Str(name)}, nil)
		}
	case values.TypeClass:
		class := recv.Data.(*values.Class)
		if v, _, ok := class.Lookup(name); ok {
			return v, nil
		}
	default:
		if vm.primitiveAttr != nil {
			if v, ok := vm.primitiveAttr(recv, name); ok {
				return v, nil
			}
		}
	}
	return nil, perr.Type("%q object has no attribute %q", recv.TypeName(), name)
}

func (vm *VM) setAttr(recv *values.Value, name string, val *values.Value) error {
	switch recv.Type {
	case values.TypeModule:
		recv.Data.(*values.Module).Globals.Data.(*values.StrDictData).Set(name, val)
		return nil
	case values.TypeInstance:
		recv.Data.(*values.Instance).Dict.Data.(*values.StrDictData).Set(name, val)
		return nil
	case values.TypeClass:
		recv.Data.(*values.Class).Dict.Data.(*values.StrDictData).Set(name, val)
		return nil
	}
	return perr.Type("%q object attributes are read-only", recv.TypeName())
}

func (vm *VM) delAttr(recv *values.Value, name string) {
	switch recv.Type {
	case values.TypeModule:
		recv.Data.(*values.Module).Globals.Data.(*values.StrDictData).Delete(name)
	case values.TypeInstance:
		recv.Data.(*values.Instance).Dict.Data.(*values.StrDictData).Delete(name)
	case values.TypeClass:
		recv.Data.(*values.Class).Dict.Data.(*values.StrDictData).Delete(name)
	}
}
