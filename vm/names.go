package vm

import "github.com/wudi/pyvm/values"

// lookupName implements the LOAD_GLOBAL chain (and LOAD_NAME's
// fallback once the frame's own name scope misses): module globals,
// then the builtins namespace.
func (vm *VM) lookupName(f *Frame, name string) (*values.Value, bool) {
	if v, ok := f.Globals.Data.(*values.StrDictData).Get(name); ok {
		return v, true
	}
	if v, ok := vm.builtins.Data.(*values.StrDictData).Get(name); ok {
		return v, true
	}
	return nil, false
}
