package vm

import "github.com/wudi/pyvm/values"

// Generator is the Generator variant's payload: a callable that owns a
// suspended Frame. A generator is simultaneously callable (calling it
// again is a no-op that returns itself, CPython-style), iterable
// (GET_ITER is a no-op returning itself) and an iterator (next()
// resumes the owned Frame).
type Generator struct {
	frame    *Frame
	started  bool
	finished bool
}

func newGenerator(f *Frame) *values.Value {
	return &values.Value{Type: values.TypeGenerator, Data: &Generator{frame: f}}
}

// Clear implements pool.Clearer indirectly via values.Value.Clear's
// type-switch on TypeGenerator: dropping the frame breaks any cycle a
// generator closing over its own locals could otherwise form.
func (g *Generator) Clear() {
	g.frame = nil
	g.finished = true
}

// Next implements values.Iterator for Go code holding a *Generator; an
// error raised inside the resumed frame is dropped and reported as
// exhaustion. FOR_ITER and the builtins reach generators through
// nextFrom's TypeGenerator case instead.
func (g *Generator) Next() (*values.Value, bool) {
	v, ok, err := g.frame.vm.generatorNext(&values.Value{Type: values.TypeGenerator, Data: g})
	if err != nil {
		return nil, false
	}
	return v, ok
}

// generatorNext resumes g's frame until the next YIELD_VALUE or a
// normal return, reporting (value, false) on exhaustion exactly like
// any other Iterator.
func (vm *VM) generatorNext(gv *values.Value) (*values.Value, bool, error) {
	g := gv.Data.(*Generator)
	if g.finished {
		return nil, false, nil
	}
	startAt := 0
	if g.started {
		startAt = g.frame.resumeAt
		// The suspended YIELD_VALUE's result: the value sent back in,
		// always None here, which the compiled code's POP_TOP discards.
		g.frame.push(values.None)
	}
	g.started = true

	v, kind, err := vm.resumeFrame(g.frame, startAt)
	if err != nil {
		g.finished = true
		return nil, false, err
	}
	if kind == ReturnNormal {
		g.finished = true
		return nil, false, nil
	}
	return v, true, nil
}
