package values

import (
	"fmt"
	"strings"
)

// ListData backs both the List and Tuple variants: a tuple is simply a
// List value the interpreter never mutates in place after construction
// (STORE_SUBSCR/append-family opcodes refuse to run against one).
type ListData struct {
	Items []*Value
}

func List(items []*Value) *Value {
	return &Value{Type: TypeList, Data: &ListData{Items: items}}
}

func Tuple(items []*Value) *Value {
	return &Value{Type: TypeTuple, Data: &ListData{Items: items}}
}

func (v *Value) reprSequence(open, close string) string {
	l := v.Data.(*ListData)
	parts := make([]string, len(l.Items))
	for i, it := range l.Items {
		parts[i] = reprOf(it)
	}
	return open + strings.Join(parts, ", ") + close
}

func (v *Value) reprTuple() string {
	l := v.Data.(*ListData)
	if len(l.Items) == 1 {
		return "(" + reprOf(l.Items[0]) + ",)"
	}
	return v.reprSequence("(", ")")
}

// reprOf renders the `repr()` form used inside containers: strings get
// quoted, everything else matches ToStr.
func reprOf(v *Value) string {
	switch v.Type {
	case TypeStr:
		return fmt.Sprintf("%q", string(v.Data.(*StrData).Bytes))
	case TypeUStr:
		return "u" + fmt.Sprintf("%q", string(v.Data.(*UStrData).Runes))
	default:
		return v.ToStr()
	}
}

// SliceData is the Slice variant's payload: the three (possibly
// omitted) operands a `BUILD_SLICE` opcode assembles.
type SliceData struct {
	HasStart bool
	Start    int64
	HasStop  bool
	Stop     int64
	HasStep  bool
	Step     int64
}

func Slice(hasStart bool, start int64, hasStop bool, stop int64, hasStep bool, step int64) *Value {
	return &Value{Type: TypeSlice, Data: &SliceData{
		HasStart: hasStart, Start: start,
		HasStop: hasStop, Stop: stop,
		HasStep: hasStep, Step: step,
	}}
}

// Resolve turns a slice's (possibly omitted, possibly negative)
// operands into a concrete (start, stop, step) triple for a sequence of
// the given length, following the same defaulting rules as
// SliceObject::slice_step: a zero step is rejected, a negative step
// defaults start to len-1 and stop to -1 (so index 0 is included), and a
// positive step defaults start to 0 and stop to len.
func (s *SliceData) Resolve(length int64) (start, stop, step int64, err error) {
	step = 1
	if s.HasStep {
		step = s.Step
	}
	if step == 0 {
		return 0, 0, 0, fmt.Errorf("slice step cannot be zero")
	}

	if step > 0 {
		start, stop = 0, length
	} else {
		start, stop = length-1, -1
	}

	if s.HasStart {
		start = clampIndex(s.Start, length, step)
	}
	if s.HasStop {
		stop = clampIndex(s.Stop, length, step)
	}
	return start, stop, step, nil
}

// clampIndex resolves one (possibly negative) slice endpoint against a
// sequence of the given length for the given step's direction.
func clampIndex(i, length, step int64) int64 {
	if i < 0 {
		i += length
		if i < 0 {
			if step < 0 {
				return -1
			}
			return 0
		}
		return i
	}
	if i >= length {
		if step < 0 {
			return length - 1
		}
		return length
	}
	return i
}

// SliceLen returns how many elements a resolved (start, stop, step) triple
// visits.
func SliceLen(start, stop, step int64) int64 {
	if step > 0 {
		if stop <= start {
			return 0
		}
		return (stop-start+step-1)/step
	}
	if stop >= start {
		return 0
	}
	return (start-stop-step-1) / (-step)
}
