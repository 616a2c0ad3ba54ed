package vm

import (
	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/values"
)

// BlockType names the kind of block a SETUP_* opcode pushed onto a
// frame's block stack, consulted by POP_BLOCK/END_FINALLY/BREAK_LOOP to
// know how to unwind.
type BlockType int

const (
	BlockLoop BlockType = iota
	BlockExcept
	BlockFinally
	BlockWith
)

// Block is one entry on a frame's block stack.
type Block struct {
	Type       BlockType
	Handler    int // instruction index to jump to on break/exception/unwind
	StackLevel int // value-stack depth to restore to when unwound
}

// ReturnKind tags why resumeFrame stopped: a normal RETURN_VALUE, or a
// YIELD_VALUE suspension a Generator resumes later.
type ReturnKind int

const (
	ReturnNormal ReturnKind = iota
	ReturnYield
)

// Frame is one activation record: the value stack, block stack,
// fast-locals vector and cell bindings a single code object's
// execution needs.
type Frame struct {
	vm     *VM
	Code   *values.Code
	Locals []*values.Value // indexed by co_varnames position
	Cells  []*values.Cell  // indexed by (co_cellvars ++ co_freevars) position
	Globals *values.Value  // StrDict

	// LocalsDict is the frame's string-keyed name scope, targeted by
	// LOAD_NAME/STORE_NAME/DELETE_NAME and harvested by LOAD_LOCALS. At
	// module level it aliases Globals; a newlocals code object (a
	// function or class body) gets a fresh dict, which is how a class
	// body's STORE_NAMEs become the methods dict BUILD_CLASS consumes.
	LocalsDict *values.Value // StrDict
	stack  []*values.Value
	blocks []Block
	ip     int // index into the decoded instruction slice, not a byte offset

	Receiver *values.Value // non-nil when this frame is running a bound method

	// instruction index just past the YIELD_VALUE that suspended this
	// frame, where a generator resumes it.
	resumeAt int
	line     int

	// currentExc is the exception RAISE_VARARGS 0 re-raises: set when
	// this frame's dispatcher transfers control into a TRY/EXCEPT
	// handler (see catchException in exceptions.go).
	currentExc *perr.RaisedException
}

func (vm *VM) newFrame(code *values.Code, globals *values.Value, args []*values.Value, kwargs map[string]*values.Value) *Frame {
	f := &Frame{
		vm:      vm,
		Code:    code,
		Locals:  make([]*values.Value, code.NLocals),
		Globals: globals,
	}
	if code.Flags&values.CoFlagNewLocals != 0 {
		f.LocalsDict = values.StrDict()
	} else {
		f.LocalsDict = globals
	}
	for i := range f.Locals {
		f.Locals[i] = values.None
	}
	f.Cells = make([]*values.Cell, len(code.CellVars)+len(code.FreeVars))
	for i := range f.Cells {
		f.Cells[i] = &values.Cell{Value: values.None}
	}
	return f
}

// push/pop/top implement the value stack. PushAt inserts a value
// `fromTop` slots below the current top (0 means "push normally"); no
// opcode handler calls it.
func (f *Frame) push(v *values.Value) { f.stack = append(f.stack, v) }

func (f *Frame) pop() *values.Value {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack = f.stack[:n]
	return v
}

func (f *Frame) top() *values.Value { return f.stack[len(f.stack)-1] }

func (f *Frame) popN(n int) []*values.Value {
	out := make([]*values.Value, n)
	copy(out, f.stack[len(f.stack)-n:])
	f.stack = f.stack[:len(f.stack)-n]
	return out
}

// PushAt inserts v so that, after insertion, it sits fromTop slots
// below the new top of stack.
func (f *Frame) PushAt(fromTop int, v *values.Value) {
	if fromTop == 0 {
		f.push(v)
		return
	}
	idx := len(f.stack) - fromTop
	f.stack = append(f.stack, nil)
	copy(f.stack[idx+1:], f.stack[idx:])
	f.stack[idx] = v
}

func (f *Frame) peekAt(fromTop int) *values.Value {
	return f.stack[len(f.stack)-1-fromTop]
}

func (f *Frame) pushBlock(b Block) { f.blocks = append(f.blocks, b) }

func (f *Frame) popBlock() Block {
	n := len(f.blocks) - 1
	b := f.blocks[n]
	f.blocks = f.blocks[:n]
	return b
}
