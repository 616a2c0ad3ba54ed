package vm

import (
	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/values"
)

// callFunction implements CALL_FUNCTION and its _VAR/_KW/_VAR_KW
// siblings: argc packs posCount in its low byte and kwCount in the
// next, per CPython 2.7's encoding. hasVar/
// hasKw additionally pop a trailing *args tuple and/or **kwargs dict
// pushed by the compiler for starred call sites.
func (vm *VM) callFunction(f *Frame, argc int, hasVar, hasKw bool) error {
	var kwDict *values.Value
	if hasKw {
		kwDict = f.pop()
	}
	var varTuple *values.Value
	if hasVar {
		varTuple = f.pop()
	}

	posCount := argc & 0xFF
	kwCount := (argc >> 8) & 0xFF

	kwargs := make(map[string]*values.Value, kwCount)
	for i := 0; i < kwCount; i++ {
		val := f.pop()
		name := f.pop()
		kwargs[name.ToStr()] = val
	}
	pos := f.popN(posCount)

	if varTuple != nil {
		if varTuple.Type != values.TypeList && varTuple.Type != values.TypeTuple {
			return perr.Type("argument after * must be a sequence, not %q", varTuple.TypeName())
		}
		pos = append(pos, varTuple.Data.(*values.ListData).Items...)
	}
	if kwDict != nil {
		switch kwDict.Type {
		case values.TypeStrDict:
			kwDict.Data.(*values.StrDictData).Each(func(k string, v *values.Value) bool {
				kwargs[k] = v
				return true
			})
		case values.TypeDict:
			kwDict.Data.(*values.DictData).Each(func(k, v *values.Value) bool {
				kwargs[k.ToStr()] = v
				return true
			})
		default:
			return perr.Type("argument after ** must be a mapping, not %q", kwDict.TypeName())
		}
	}

	callee := f.pop()
	result, err := vm.call(callee, pos, kwargs)
	if err != nil {
		return err
	}
	f.push(result)
	return nil
}

// call is the call-dispatch entry point shared by CALL_FUNCTION and
// every native caller (registry-bridged functions calling back into
// script code, the host's VM.Call). The callable's variant decides how
// positional and keyword arguments are consumed.
func (vm *VM) call(callable *values.Value, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	switch callable.Type {
	case values.TypeFunction:
		return vm.callFunctionValue(callable, args, kwargs)

	case values.TypeMethod:
		m := callable.Data.(*values.Method)
		pos := args
		if m.Receiver != nil {
			pos = make([]*values.Value, 0, len(args)+1)
			pos = append(pos, m.Receiver)
			pos = append(pos, args...)
		}
		return vm.call(m.Func, pos, kwargs)

	case values.TypeClass:
		return vm.instantiate(callable, args, kwargs)

	case values.TypeCFunc:
		return callable.Data.(*values.CFunc).Fn(vm, args, kwargs)

	case values.TypePrimitiveAdapter:
		pa := callable.Data.(*values.PrimitiveAdapter)
		pos := make([]*values.Value, 0, len(args)+1)
		pos = append(pos, pa.Receiver)
		pos = append(pos, args...)
		return pa.Fn(vm, pos, kwargs)

	case values.TypeGenerator:
		// CPython hands back the same generator-iterator when a
		// generator object is "called" again; it is already running.
		return callable, nil

	default:
		return nil, perr.Type("%q object is not callable", callable.TypeName())
	}
}

// callFunctionValue binds a callee Frame and either runs it to
// completion or, for a generator-flagged code object, wraps the seeded
// Frame in a Generator without running the body.
func (vm *VM) callFunctionValue(fnVal *values.Value, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	fn := fnVal.Data.(*values.Function)
	code := fn.Code.Data.(*values.Code)

	frame := vm.newFrame(code, fn.Globals, nil, nil)
	// closure cells fill the free-var tail of the cell vector, after
	// this code's own cellvars
	for i, cell := range fn.Closure {
		if idx := len(code.CellVars) + i; idx < len(frame.Cells) && cell != nil {
			frame.Cells[idx] = cell
		}
	}
	if err := vm.bindArgs(frame, fn, code, args, kwargs); err != nil {
		return nil, err
	}
	bindCellShadows(frame, code)

	if code.Flags&values.CoFlagGenerator != 0 {
		return vm.track(newGenerator(frame)), nil
	}
	return vm.runFrame(frame)
}

// bindArgs fills the callee's fast locals: positionals first, then a
// *args tuple if the code takes one, then keywords by formal name (the
// rest going to **kwargs or failing), then defaults for whatever is
// still unbound.
func (vm *VM) bindArgs(f *Frame, fn *values.Function, code *values.Code, args []*values.Value, kwargs map[string]*values.Value) error {
	n := code.ArgCount
	set := make([]bool, n)

	for i := 0; i < n && i < len(args); i++ {
		f.Locals[i] = args[i]
		set[i] = true
	}

	nextIdx := n
	if code.Flags&values.CoFlagVarArgs != 0 {
		var extra []*values.Value
		if len(args) > n {
			extra = append(extra, args[n:]...)
		}
		f.Locals[nextIdx] = values.Tuple(extra)
		nextIdx++
	} else if len(args) > n {
		return perr.Type("%s() takes at most %d argument(s) (%d given)", fn.Name, n, len(args))
	}

	used := make(map[string]bool, len(kwargs))
	for k, v := range kwargs {
		matched := false
		for i := 0; i < n; i++ {
			if code.VarNames[i] == k {
				if set[i] {
					return perr.Type("%s() got multiple values for keyword argument %q", fn.Name, k)
				}
				f.Locals[i] = v
				set[i] = true
				matched = true
				break
			}
		}
		if matched {
			used[k] = true
		} else if code.Flags&values.CoFlagVarKwArgs == 0 {
			return perr.Type("%s() got an unexpected keyword argument %q", fn.Name, k)
		}
	}

	if code.Flags&values.CoFlagVarKwArgs != 0 {
		kwDict := values.StrDict()
		sd := kwDict.Data.(*values.StrDictData)
		for k, v := range kwargs {
			if !used[k] {
				sd.Set(k, v)
			}
		}
		f.Locals[nextIdx] = kwDict
		nextIdx++
	}

	missing := n - len(fn.Defaults)
	for i := 0; i < n; i++ {
		if set[i] {
			continue
		}
		defIdx := i - missing
		if defIdx < 0 || defIdx >= len(fn.Defaults) {
			return perr.Type("%s() takes at least %d argument(s) (%d given)", fn.Name, missing, len(args))
		}
		f.Locals[i] = fn.Defaults[defIdx]
	}
	return nil
}

// bindCellShadows copies a bound parameter's value into its matching
// cell slot when the same name is also a cellvar (the parameter is
// closed over by a nested function) — CPython's compiler emits no
// extra bytecode for this; the frame setup does it implicitly.
func bindCellShadows(f *Frame, code *values.Code) {
	for ci, name := range code.CellVars {
		for pi := 0; pi < code.ArgCount; pi++ {
			if code.VarNames[pi] == name {
				f.Cells[ci].Value = f.Locals[pi]
				break
			}
		}
	}
}

// instantiate allocates an Instance (or defers to a native
// constructor) and runs __init__.
func (vm *VM) instantiate(classVal *values.Value, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	class := classVal.Data.(*values.Class)

	if class.NativeCtor != nil {
		inst, err := class.NativeCtor.New(vm, args, kwargs)
		if err != nil {
			return nil, err
		}
		return vm.track(values.InstanceValue(&values.Instance{Class: classVal, Dict: values.StrDict(), Native: inst})), nil
	}

	instVal := vm.track(values.InstanceValue(&values.Instance{Class: classVal, Dict: values.StrDict()}))
	if initFn, _, ok := class.Lookup("__init__"); ok {
		bound := vm.track(values.MethodValue(&values.Method{Func: initFn, Receiver: instVal, Class: classVal}))
		if _, err := vm.call(bound, args, kwargs); err != nil {
			return nil, err
		}
	}
	return instVal, nil
}

// buildFunction implements MAKE_FUNCTION/MAKE_CLOSURE's common tail:
// wrap a code constant, its defaults and (for MAKE_CLOSURE) its closure
// cells into a Function value closing over the defining frame's
// globals.
func (vm *VM) buildFunction(codeVal *values.Value, defaults []*values.Value, closure []*values.Cell, globals *values.Value) *values.Value {
	code := codeVal.Data.(*values.Code)
	return vm.track(values.FunctionValue(&values.Function{
		Name:     code.Name,
		Code:     codeVal,
		Defaults: defaults,
		Closure:  closure,
		Globals:  globals,
	}))
}

// buildClass implements BUILD_CLASS: pop methods dict,
// bases tuple, name; honour __metaclass__ if present, else allocate a
// plain single-inheritance Class.
func (vm *VM) buildClass(f *Frame) error {
	methodsDict := f.pop()
	basesTuple := f.pop()
	nameVal := f.pop()
	name := nameVal.ToStr()

	if mc, ok := methodsDict.Data.(*values.StrDictData).Get("__metaclass__"); ok {
		result, err := vm.call(mc, []*values.Value{nameVal, basesTuple, methodsDict}, nil)
		if err != nil {
			return err
		}
		f.push(result)
		return nil
	}

	bases := basesTuple.Data.(*values.ListData).Items
	if len(bases) > 1 {
		return perr.Type("class %s: multiple base classes are not supported", name)
	}
	var base *values.Value
	if len(bases) == 1 {
		base = bases[0]
	}
	f.push(vm.track(values.ClassValue(&values.Class{Name: name, Base: base, Dict: methodsDict})))
	return nil
}

// raiseVarargs implements RAISE_VARARGS, argc in {0,1,2,3}.
func (vm *VM) raiseVarargs(f *Frame, argc int) error {
	switch argc {
	case 0:
		if f.currentExc != nil {
			return f.currentExc
		}
		return perr.Value("No active exception to re-raise")
	case 1:
		typ := f.pop()
		return vm.buildRaised(typ, nil)
	case 2:
		val := f.pop()
		typ := f.pop()
		return vm.buildRaised(typ, val)
	case 3:
		_ = f.pop() // traceback: accepted, not threaded through (no user-supplied traceback object model)
		val := f.pop()
		typ := f.pop()
		return vm.buildRaised(typ, val)
	default:
		return perr.Opcode("RAISE_VARARGS with invalid argc %d", argc)
	}
}

// buildRaised normalizes a (type, value) pair from `raise` into a
// *perr.RaisedException, instantiating typ if it is a bare class.
func (vm *VM) buildRaised(typ, val *values.Value) error {
	if typ == nil || typ.IsNone() {
		return perr.Value("exceptions must be classes, instances, or strings")
	}

	var instVal, classVal *values.Value
	switch typ.Type {
	case values.TypeInstance:
		instVal = typ
		classVal = typ.Data.(*values.Instance).Class
	case values.TypeClass:
		classVal = typ
		var args []*values.Value
		if val != nil && !val.IsNone() {
			args = []*values.Value{val}
		}
		iv, err := vm.instantiate(classVal, args, nil)
		if err != nil {
			return err
		}
		instVal = iv
	default:
		msg := typ.ToStr()
		if val != nil && !val.IsNone() {
			msg = val.ToStr()
		}
		return perr.NewRaised(nil, nil, msg)
	}

	msg := classVal.Data.(*values.Class).Name
	if val != nil && !val.IsNone() {
		msg = val.ToStr()
	} else if a, ok := instVal.Data.(*values.Instance).Dict.Data.(*values.StrDictData).Get("args"); ok {
		msg = a.ToStr()
	}
	return perr.NewRaised(instVal, classVal, msg)
}

// forIter implements FOR_ITER: peek the iterator (left on the stack so
// the next FOR_ITER sees it again), advance it, push the next value or
// report exhaustion so the dispatcher can pop the iterator and jump.
func (vm *VM) forIter(f *Frame) (bool, error) {
	v, ok, err := vm.nextFrom(f.top())
	if err != nil {
		return false, err
	}
	if !ok {
		f.pop()
		return false, nil
	}
	f.push(v)
	return true, nil
}

// importName implements IMPORT_NAME: consult the
// already-loaded module table, else the host's import callback.
func (vm *VM) importName(f *Frame, argi int) error {
	name := f.Code.Names[argi]
	f.pop() // fromlist: no package/submodule resolution to act on it with
	f.pop() // level: relative-import depth, unsupported

	if mod, ok := vm.modules[name]; ok {
		f.push(mod)
		return nil
	}
	if vm.importCallback == nil {
		return perr.Name("no module named %q", name)
	}
	res, err := vm.importCallback(name)
	if err != nil {
		return err
	}
	mod, err := vm.loadModule(res)
	if err != nil {
		return err
	}
	f.push(mod)
	return nil
}

func (vm *VM) importFrom(f *Frame, argi int) error {
	name := f.Code.Names[argi]
	mod := f.top()
	modData, ok := mod.Data.(*values.Module)
	if !ok {
		return perr.Type("cannot import %q from non-module %q", name, mod.TypeName())
	}
	v, ok := modData.Globals.Data.(*values.StrDictData).Get(name)
	if !ok {
		return perr.Name("cannot import name %q", name)
	}
	f.push(v)
	return nil
}

func (vm *VM) importStar(f *Frame) error {
	mod := f.pop()
	modData, ok := mod.Data.(*values.Module)
	if !ok {
		return perr.Type("import * from non-module %q", mod.TypeName())
	}
	sd := f.Globals.Data.(*values.StrDictData)
	modData.Globals.Data.(*values.StrDictData).Each(func(k string, v *values.Value) bool {
		sd.Set(k, v)
		return true
	})
	return nil
}
