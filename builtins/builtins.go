// Package builtins implements the global builtin functions CPython
// 2.7 scripts expect in scope without an import, the method tables
// LOAD_ATTR falls back to on primitive (Str/List/Dict/...) receivers,
// and the builtin exception class hierarchy `except` clauses match
// against. The vm package never imports builtins (it would cycle back
// through vm.SetPrimitiveAttr/SetExceptionClass), so a host wires this
// package in once, right after constructing a VM.
package builtins

import (
	"fmt"

	"github.com/wudi/pyvm/registry"
	"github.com/wudi/pyvm/values"
	"github.com/wudi/pyvm/vm"
)

// Install registers every builtin function and exception class into
// vmInst's builtins namespace and wires its primitive-attribute hook.
// Call once per VM, before running any script.
func Install(vmInst *vm.VM) {
	b := &env{vm: vmInst}
	b.installFunctions()
	b.installExceptions()
	b.strMeths = b.buildStrMethods()
	b.listMeths = b.buildListMethods()
	b.tupleMeths = b.buildTupleMethods()
	b.dictMeths = b.buildDictMethods()
	vmInst.SetPrimitiveAttr(b.primitiveAttr)
}

// env closes every builtin implementation over the VM it was installed
// into. Most builtins never need it (they operate purely on the
// *values.Value arguments handed to them), but the handful that drive a
// receiver's Iterator capability (sorted, list, sum, next, ...) need
// vm.Iterate/vm.Advance, and next() needs the StopIteration class this
// env's installExceptions registered.
type env struct {
	vm         *vm.VM
	exceptions map[string]*values.Value

	strMeths   registry.PrimitiveMethods
	listMeths  registry.PrimitiveMethods
	tupleMeths registry.PrimitiveMethods
	dictMeths  registry.PrimitiveMethods
}

// raise builds the RaisedException for one of the builtin exception
// classes registered by installExceptions, for native functions that
// need to report a script-visible fault with a specific class rather
// than returning a bare Go error.
func (b *env) raise(ctx values.CallContext, kindName, format string, args ...interface{}) error {
	return ctx.Raise(b.exceptions[kindName], fmt.Sprintf(format, args...))
}

func (b *env) installFunctions() {
	reg := func(name string, fn values.NativeFunc) { b.vm.AddBuiltin(name, registry.Func(name, fn)) }

	reg("len", b.lenFn)
	reg("str", b.strFn)
	reg("repr", b.reprFn)
	reg("int", b.intFn)
	reg("float", b.floatFn)
	reg("bool", b.boolFn)
	reg("list", b.listFn)
	reg("tuple", b.tupleFn)
	reg("dict", b.dictFn)
	reg("range", b.rangeFn)
	reg("xrange", b.xrangeFn)
	reg("abs", b.absFn)
	reg("min", b.minFn)
	reg("max", b.maxFn)
	reg("sum", b.sumFn)
	reg("sorted", b.sortedFn)
	reg("reversed", b.reversedFn)
	reg("chr", b.chrFn)
	reg("ord", b.ordFn)
	reg("hex", b.hexFn)
	reg("oct", b.octFn)
	reg("isinstance", b.isinstanceFn)
	reg("type", b.typeFn)
	reg("hasattr", b.hasattrFn)
	reg("getattr", b.getattrFn)
	reg("setattr", b.setattrFn)
	reg("iter", b.iterFn)
	reg("next", b.nextFn)
	reg("callable", b.callableFn)
	reg("id", b.idFn)
}

// primitiveAttr is the hook SetPrimitiveAttr installs: LOAD_ATTR on any
// receiver that isn't a Module/Instance/Class lands here, dispatching
// to the method table for its variant.
func (b *env) primitiveAttr(receiver *values.Value, name string) (*values.Value, bool) {
	switch receiver.Type {
	case values.TypeStr, values.TypeUStr:
		return b.strMeths.Bind(receiver, name)
	case values.TypeList:
		return b.listMeths.Bind(receiver, name)
	case values.TypeTuple:
		return b.tupleMeths.Bind(receiver, name)
	case values.TypeDict, values.TypeStrDict:
		return b.dictMeths.Bind(receiver, name)
	default:
		return nil, false
	}
}
