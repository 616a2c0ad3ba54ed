// Package errors defines the typed error kinds the interpreter raises,
// mirroring the error taxonomy CPython itself exposes to embedders.
package errors

import "fmt"

// Kind enumerates the error categories a VM operation can fail with.
type Kind int

const (
	// NameError is an unresolved identifier.
	NameError Kind = iota
	// TypeErrorKind is a wrong variant supplied to an operator, capability,
	// or bridge extractor, or a wrong call arity.
	TypeErrorKind
	// IndexErrorKind is a sequence index out of range after negative-index
	// resolution.
	IndexErrorKind
	// KeyErrorKind is a missing mapping key on `[]` access.
	KeyErrorKind
	// ValueErrorKind is a semantic failure: unpack length mismatch, bad
	// int parse, a zero slice step, division or modulo by zero, and
	// similar.
	ValueErrorKind
	// DeserializeErrorKind is a malformed .pyc image.
	DeserializeErrorKind
	// OpcodeErrorKind is an unknown or malformed opcode.
	OpcodeErrorKind
)

func (k Kind) String() string {
	switch k {
	case NameError:
		return "NameError"
	case TypeErrorKind:
		return "TypeError"
	case IndexErrorKind:
		return "IndexError"
	case KeyErrorKind:
		return "KeyError"
	case ValueErrorKind:
		return "ValueError"
	case DeserializeErrorKind:
		return "DeserializeError"
	case OpcodeErrorKind:
		return "OpcodeError"
	default:
		return "Error"
	}
}

// Error is a native fault raised by the runtime (as opposed to a script
// `raise`, which is carried by RaisedException).
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Name(format string, args ...interface{}) *Error {
	return New(NameError, format, args...)
}

func Type(format string, args ...interface{}) *Error {
	return New(TypeErrorKind, format, args...)
}

func Index(format string, args ...interface{}) *Error {
	return New(IndexErrorKind, format, args...)
}

func Key(format string, args ...interface{}) *Error {
	return New(KeyErrorKind, format, args...)
}

func Value(format string, args ...interface{}) *Error {
	return New(ValueErrorKind, format, args...)
}

func Deserialize(format string, args ...interface{}) *Error {
	return New(DeserializeErrorKind, format, args...)
}

func Opcode(format string, args ...interface{}) *Error {
	return New(OpcodeErrorKind, format, args...)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// TracebackEntry names one frame in an unwound call chain: the code's
// filename and the source line active when the fault crossed it.
type TracebackEntry struct {
	Filename string
	Line     int
	Name     string
}

func (t TracebackEntry) String() string {
	return fmt.Sprintf("  File %q, line %d, in %s", t.Filename, t.Line, t.Name)
}

// RaisedException is the Go-level carrier for a script-level `raise`. It
// wraps the raised value (normally an Instance) together with the
// traceback accumulated as frames unwound.
type RaisedException struct {
	// Instance and Class hold interface{} rather than *values.Value to
	// keep this package independent of values (which itself reports
	// faults through *Error). Callers in vm/ type-assert back to
	// *values.Value.
	Instance  interface{}
	Class     interface{}
	Traceback []TracebackEntry
	msg       string
}

func NewRaised(instance, class interface{}, msg string) *RaisedException {
	return &RaisedException{Instance: instance, Class: class, msg: msg}
}

func (r *RaisedException) Error() string {
	return r.msg
}

func (r *RaisedException) AddTrack(entry TracebackEntry) {
	r.Traceback = append(r.Traceback, entry)
}

func (r *RaisedException) Format() string {
	s := "Traceback (most recent call last):\n"
	for _, t := range r.Traceback {
		s += t.String() + "\n"
	}
	return s + r.msg
}
