package vm

import (
	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/values"
)

// SetExceptionClass registers the Class a native fault of the given
// kind name (or a script-raised exception whose class the runtime
// cannot otherwise name) is reported as on the value stack. builtins.
// Install calls this for every sentinel kind in errors.Kind plus a
// root "Exception" class; vm itself never imports builtins (would
// cycle), so it falls back to a bare Str of the kind name when no
// table has been installed.
func (vm *VM) SetExceptionClass(name string, class *values.Value) {
	if vm.exceptionClasses == nil {
		vm.exceptionClasses = make(map[string]*values.Value)
	}
	vm.exceptionClasses[name] = class
}

func (vm *VM) exceptionClassFor(name string) *values.Value {
	if c, ok := vm.exceptionClasses[name]; ok {
		return c
	}
	if c, ok := vm.exceptionClasses["Exception"]; ok {
		return c
	}
	return values.Str(name)
}

// asRaised normalizes any error escaping an opcode into the
// script-visible *perr.RaisedException carrier,
// wrapping a bare native *perr.Error the first time it crosses a frame
// boundary.
func (vm *VM) asRaised(err error) *perr.RaisedException {
	if re, ok := err.(*perr.RaisedException); ok {
		return re
	}
	return perr.NewRaised(nil, nil, err.Error())
}

// exceptionValues renders the (type, value) pair COMPARE_OP exc_match
// and an except-clause's bound name expect to find on the stack after
// a TRY block catches err.
func (vm *VM) exceptionValues(err error) (typ, val *values.Value) {
	re := vm.asRaised(err)
	if inst, ok := re.Instance.(*values.Value); ok && inst != nil {
		val = inst
	} else {
		val = values.Str(re.Error())
	}
	if cls, ok := re.Class.(*values.Value); ok && cls != nil {
		typ = cls
		return
	}
	if pe, ok := err.(*perr.Error); ok {
		typ = vm.exceptionClassFor(pe.Kind.String())
		return
	}
	typ = vm.exceptionClassFor("Exception")
	return
}

// excMatches implements COMPARE_OP's exc_match kind: is excType
// (or any class in its single-inheritance chain) clause, or — for a
// tuple clause — any member of it.
func (vm *VM) excMatches(excType, clause *values.Value) bool {
	if clause.Type == values.TypeTuple {
		for _, c := range clause.Data.(*values.ListData).Items {
			if vm.excMatches(excType, c) {
				return true
			}
		}
		return false
	}
	if excType.Type != values.TypeClass || clause.Type != values.TypeClass {
		return values.Identical(excType, clause) || values.Equal(excType, clause)
	}
	target := clause.Data.(*values.Class)
	for cur := excType.Data.(*values.Class); cur != nil; {
		if cur == target {
			return true
		}
		if cur.Base == nil {
			break
		}
		cur = cur.Base.Data.(*values.Class)
	}
	return false
}

// catchException implements the exception-unwind rule: walk
// f's block stack from the top, discarding LOOP/WITH blocks (an
// exception propagates straight through them) until a TRY or FINALLY
// block is found, whose handler becomes the new ip after the stack is
// trimmed and (traceback, value, type) are pushed CPython-style —
// traceback first, type last, so COMPARE_OP exc_match's
// DUP_TOP+COMPARE_OP idiom sees the type on TOS. Reports ok=false when no block catches,
// meaning the fault unwinds out of the frame entirely.
func (vm *VM) catchException(f *Frame, err error) (handlerIdx int, ok bool) {
	for len(f.blocks) > 0 {
		b := f.blocks[len(f.blocks)-1]
		f.blocks = f.blocks[:len(f.blocks)-1]
		if b.Type == BlockWith {
			// SETUP_WITH left __exit__ at index b.StackLevel; run it for
			// cleanup on the exception path, ignoring any suppression
			// return value (no user-visible traceback object to hand it).
			if len(f.stack) > b.StackLevel {
				exitFn := f.stack[b.StackLevel]
				f.stack = f.stack[:b.StackLevel]
				typ, val := vm.exceptionValues(err)
				vm.call(exitFn, []*values.Value{typ, val, values.None}, nil)
			}
			continue
		}
		if b.Type != BlockExcept && b.Type != BlockFinally {
			continue
		}
		f.stack = f.stack[:b.StackLevel]
		typ, val := vm.exceptionValues(err)
		f.currentExc = vm.asRaised(err)
		f.push(values.None) // traceback: no user-visible traceback object model
		f.push(val)
		f.push(typ)
		return b.Handler, true
	}
	return 0, false
}
