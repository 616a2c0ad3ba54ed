package builtins

import (
	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/values"
)

// installExceptions builds the builtin exception class hierarchy: a
// root Exception every other class derives from, one subclass per
// errors.Kind (so a native fault's Kind.String() resolves straight to
// its script-visible class via vm.exceptionClassFor), plus
// StopIteration — raised by next() on exhaustion, never by the vm
// package itself, so it carries no errors.Kind of its own.
func (b *env) installExceptions() {
	b.exceptions = make(map[string]*values.Value)

	root := values.ClassValue(&values.Class{Name: "Exception", Dict: values.StrDict()})
	b.exceptions["Exception"] = root
	b.vm.AddBuiltin("Exception", root)
	b.vm.SetExceptionClass("Exception", root)

	kinds := []string{
		perr.NameError.String(),
		perr.TypeErrorKind.String(),
		perr.IndexErrorKind.String(),
		perr.KeyErrorKind.String(),
		perr.ValueErrorKind.String(),
		perr.DeserializeErrorKind.String(),
		perr.OpcodeErrorKind.String(),
	}
	for _, name := range kinds {
		cls := values.ClassValue(&values.Class{Name: name, Base: root, Dict: values.StrDict()})
		b.exceptions[name] = cls
		b.vm.AddBuiltin(name, cls)
		b.vm.SetExceptionClass(name, cls)
	}

	stop := values.ClassValue(&values.Class{Name: "StopIteration", Base: root, Dict: values.StrDict()})
	b.exceptions["StopIteration"] = stop
	b.vm.AddBuiltin("StopIteration", stop)

	// IndexError/KeyError are each modeled as a LookupError subclass in
	// CPython. LookupError has no errors.Kind of its own, so only the
	// script-visible class is added, rooted at Exception, and the two
	// kind classes are re-parented under it. No ArithmeticError class is
	// defined: division by zero surfaces as ValueError (see
	// errors.ValueErrorKind's doc comment).
	lookup := values.ClassValue(&values.Class{Name: "LookupError", Base: root, Dict: values.StrDict()})
	b.exceptions["LookupError"] = lookup
	b.vm.AddBuiltin("LookupError", lookup)
	if idx, ok := b.exceptions[perr.IndexErrorKind.String()]; ok {
		idx.Data.(*values.Class).Base = lookup
	}
	if key, ok := b.exceptions[perr.KeyErrorKind.String()]; ok {
		key.Data.(*values.Class).Base = lookup
	}
}
