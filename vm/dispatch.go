package vm

import (
	"fmt"

	"github.com/wudi/pyvm/opcodes"
	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/values"
)

// decoded holds a code object's instruction decode plus an
// offset->index table for jump targets. resumeFrame rebuilds it on
// every entry into a frame; it is not cached across calls.
type decoded struct {
	instrs  []opcodes.Instruction
	byOff   map[int]int
}

func decode(code *values.Code) (*decoded, error) {
	instrs, err := opcodes.Decode(code.Bytecode)
	if err != nil {
		return nil, err
	}
	byOff := make(map[int]int, len(instrs))
	for i, ins := range instrs {
		byOff[ins.Offset] = i
	}
	return &decoded{instrs: instrs, byOff: byOff}, nil
}

// runFrame executes a frame to completion (a normal return) or until a
// YIELD_VALUE suspends it. A bare call (non-generator) never sees
// ReturnYield: the vm package only constructs Generators for code
// objects whose CoFlagGenerator bit is set.
func (vm *VM) runFrame(f *Frame) (*values.Value, error) {
	v, kind, err := vm.resumeFrame(f, 0)
	if err != nil {
		return nil, err
	}
	if kind == ReturnYield {
		return nil, fmt.Errorf("internal error: plain call yielded")
	}
	return v, nil
}

// resumeFrame runs f's instructions starting at instruction index
// startAt, returning either a normal return value or a yielded value
// (with f.resumeAt left pointing just past the YIELD_VALUE for the
// next resume).
func (vm *VM) resumeFrame(f *Frame, startAt int) (*values.Value, ReturnKind, error) {
	d, err := decode(f.Code)
	if err != nil {
		return nil, ReturnNormal, err
	}
	f.ip = startAt

	for f.ip < len(d.instrs) {
		ins := d.instrs[f.ip]
		f.line = f.Code.LineForOffset(ins.Offset)
		vm.hotspots[ins.Opcode.String()]++

		next, ret, kind, stop, err := vm.dispatchOne(f, d, ins)
		if err != nil {
			if handlerIdx, caught := vm.catchException(f, err); caught {
				f.ip = handlerIdx
				continue
			}
			re := vm.asRaised(err)
			re.AddTrack(perr.TracebackEntry{Filename: f.Code.Filename, Line: f.line, Name: f.Code.Name})
			return nil, ReturnNormal, re
		}
		if stop {
			return ret, kind, nil
		}
		f.ip = next
	}
	return values.None, ReturnNormal, nil
}

// dispatchOne executes a single decoded instruction. next is the
// instruction index to run after this one (ignored when stop is
// true); stop is set by RETURN_VALUE/YIELD_VALUE, at which point ret/
// kind carry the frame's outcome.
func (vm *VM) dispatchOne(f *Frame, d *decoded, ins opcodes.Instruction) (next int, ret *values.Value, kind ReturnKind, stop bool, err error) {
	next = f.ip + 1

	switch ins.Opcode {
		case opcodes.Nop:
			// no-op

		case opcodes.PopTop:
			f.pop()
		case opcodes.DupTop:
			f.push(f.top())
		case opcodes.RotTwo:
			a, b := f.pop(), f.pop()
			f.push(a)
			f.push(b)
		case opcodes.RotThree:
			a, b, c := f.pop(), f.pop(), f.pop()
			f.push(a)
			f.push(c)
			f.push(b)
		case opcodes.RotFour:
			a, b, c, e := f.pop(), f.pop(), f.pop(), f.pop()
			f.push(a)
			f.push(e)
			f.push(c)
			f.push(b)
		case opcodes.DupTopX:
			for i := 0; i < ins.Arg; i++ {
				f.push(f.peekAt(ins.Arg - 1))
			}

		case opcodes.LoadConst:
			f.push(f.Code.Consts[ins.Arg])

		case opcodes.LoadFast:
			f.push(f.Locals[ins.Arg])
		case opcodes.StoreFast:
			f.Locals[ins.Arg] = f.pop()
		case opcodes.DeleteFast:
			f.Locals[ins.Arg] = nil

		case opcodes.LoadName:
			name := f.Code.Names[ins.Arg]
			v, ok := f.LocalsDict.Data.(*values.StrDictData).Get(name)
			if !ok {
				v, ok = vm.lookupName(f, name)
			}
			if !ok {
				return 0, nil, ReturnNormal, false, perr.Name("name %q is not defined", name)
			}
			f.push(v)
		case opcodes.LoadGlobal:
			name := f.Code.Names[ins.Arg]
			v, ok := vm.lookupName(f, name)
			if !ok {
				return 0, nil, ReturnNormal, false, perr.Name("name %q is not defined", name)
			}
			f.push(v)
		case opcodes.StoreName:
			name := f.Code.Names[ins.Arg]
			f.LocalsDict.Data.(*values.StrDictData).Set(name, f.pop())
		case opcodes.StoreGlobal:
			name := f.Code.Names[ins.Arg]
			f.Globals.Data.(*values.StrDictData).Set(name, f.pop())
		case opcodes.DeleteName:
			name := f.Code.Names[ins.Arg]
			f.LocalsDict.Data.(*values.StrDictData).Delete(name)
		case opcodes.DeleteGlobal:
			name := f.Code.Names[ins.Arg]
			f.Globals.Data.(*values.StrDictData).Delete(name)

		case opcodes.LoadLocals:
			f.push(f.LocalsDict)

		case opcodes.LoadAttr:
			recv := f.pop()
			name := f.Code.Names[ins.Arg]
			v, err := vm.getAttr(recv, name)
			if err != nil {
				return 0, nil, ReturnNormal, false, err
			}
			f.push(v)
		case opcodes.StoreAttr:
			recv := f.pop()
			name := f.Code.Names[ins.Arg]
			val := f.pop()
			if err := vm.setAttr(recv, name, val); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.DeleteAttr:
			recv := f.pop()
			name := f.Code.Names[ins.Arg]
			vm.delAttr(recv, name)

		case opcodes.LoadDeref:
			f.push(f.Cells[ins.Arg].Value)
		case opcodes.StoreDeref:
			f.Cells[ins.Arg].Value = f.pop()
		case opcodes.LoadClosure:
			f.push(&values.Value{Type: values.TypeNone, Data: f.Cells[ins.Arg]})

		case opcodes.BinaryAdd:
			if err := vm.binOp(f, values.Add); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.BinarySubtract:
			if err := vm.binOp(f, values.Sub); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.BinaryMultiply:
			if err := vm.binOp(f, values.Mul); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.BinaryDivide, opcodes.InplaceDivide:
			if err := vm.binOp(f, values.Div); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.BinaryFloorDivide, opcodes.InplaceFloorDivide:
			if err := vm.binOp(f, values.FloorDiv); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.BinaryModulo:
			if err := vm.binOp(f, values.Mod); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.BinaryPower, opcodes.InplacePower:
			if err := vm.binOp(f, values.Pow); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.BinaryAnd:
			if err := vm.binOp(f, values.And); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.BinaryOr:
			if err := vm.binOp(f, values.Or); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.BinaryXor:
			if err := vm.binOp(f, values.Xor); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.BinaryLshift:
			if err := vm.binOp(f, values.Lshift); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.BinaryRshift:
			if err := vm.binOp(f, values.Rshift); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.InplaceAdd:
			if err := vm.binOp(f, values.Add); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.InplaceSubtract:
			if err := vm.binOp(f, values.Sub); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.InplaceMultiply:
			if err := vm.binOp(f, values.Mul); err != nil {
				return 0, nil, ReturnNormal, false, err
			}

		case opcodes.UnaryNegative:
			v, err := values.Neg(f.pop())
			if err != nil {
				return 0, nil, ReturnNormal, false, err
			}
			f.push(v)
		case opcodes.UnaryNot:
			f.push(values.Bool(!f.pop().ToBool()))
		case opcodes.UnaryInvert:
			v, err := values.Invert(f.pop())
			if err != nil {
				return 0, nil, ReturnNormal, false, err
			}
			f.push(v)
		case opcodes.UnaryPositive:
			// no-op on our numeric variants

		case opcodes.CompareOp:
			if err := vm.compareOp(f, opcodes.CompareOperator(ins.Arg)); err != nil {
				return 0, nil, ReturnNormal, false, err
			}

		case opcodes.BuildTuple:
			f.push(vm.track(values.Tuple(f.popN(ins.Arg))))
		case opcodes.BuildList:
			f.push(vm.track(values.List(f.popN(ins.Arg))))
		case opcodes.BuildMap:
			f.push(vm.track(values.Dict()))
		case opcodes.StoreMap:
			key := f.pop()
			val := f.pop()
			if err := vm.storeMapEntry(f.top(), key, val); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.ListAppend:
			item := f.pop()
			target := f.peekAt(ins.Arg - 1)
			if target.Type != values.TypeList {
				return 0, nil, ReturnNormal, false, perr.Type("LIST_APPEND on %q", target.TypeName())
			}
			ld := target.Data.(*values.ListData)
			ld.Items = append(ld.Items, item)
		case opcodes.BuildSlice:
			if err := vm.buildSlice(f, ins.Arg); err != nil {
				return 0, nil, ReturnNormal, false, err
			}

		case opcodes.BinarySubscr:
			if err := vm.binarySubscr(f); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.StoreSubscr:
			if err := vm.storeSubscr(f); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.DeleteSubscr:
			if err := vm.deleteSubscr(f); err != nil {
				return 0, nil, ReturnNormal, false, err
			}

		case opcodes.Slice0, opcodes.Slice1, opcodes.Slice2, opcodes.Slice3:
			if err := vm.sliceOp(f, int(ins.Opcode-opcodes.Slice0)); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.StoreSlice0, opcodes.StoreSlice1, opcodes.StoreSlice2, opcodes.StoreSlice3:
			if err := vm.storeSliceOp(f, int(ins.Opcode-opcodes.StoreSlice0)); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.DeleteSlice0, opcodes.DeleteSlice1, opcodes.DeleteSlice2, opcodes.DeleteSlice3:
			if err := vm.deleteSliceOp(f, int(ins.Opcode-opcodes.DeleteSlice0)); err != nil {
				return 0, nil, ReturnNormal, false, err
			}

		case opcodes.UnpackSequence:
			if err := vm.unpackSequence(f, ins.Arg); err != nil {
				return 0, nil, ReturnNormal, false, err
			}

		case opcodes.GetIter:
			it, err := vm.getIter(f.pop())
			if err != nil {
				return 0, nil, ReturnNormal, false, err
			}
			f.push(it)

		case opcodes.PrintItem:
			fmt.Fprint(vm.stdout, f.pop().ToStr())
		case opcodes.PrintNewline:
			fmt.Fprintln(vm.stdout)

		case opcodes.JumpForward:
			idx, ok := d.byOff[ins.Offset+3+ins.Arg]
			if !ok {
				return 0, nil, ReturnNormal, false, perr.Opcode("bad jump target %d", ins.Arg)
			}
			next = idx
		case opcodes.JumpAbsolute:
			idx, ok := d.byOff[ins.Arg]
			if !ok {
				return 0, nil, ReturnNormal, false, perr.Opcode("bad jump target %d", ins.Arg)
			}
			next = idx
		case opcodes.PopJumpIfFalse:
			if !f.pop().ToBool() {
				idx, ok := d.byOff[ins.Arg]
				if !ok {
					return 0, nil, ReturnNormal, false, perr.Opcode("bad jump target %d", ins.Arg)
				}
				next = idx
			}
		case opcodes.PopJumpIfTrue:
			if f.pop().ToBool() {
				idx, ok := d.byOff[ins.Arg]
				if !ok {
					return 0, nil, ReturnNormal, false, perr.Opcode("bad jump target %d", ins.Arg)
				}
				next = idx
			}
		case opcodes.JumpIfFalseOrPop:
			if !f.top().ToBool() {
				idx := d.byOff[ins.Arg]
				next = idx
			} else {
				f.pop()
			}
		case opcodes.JumpIfTrueOrPop:
			if f.top().ToBool() {
				idx := d.byOff[ins.Arg]
				next = idx
			} else {
				f.pop()
			}

		case opcodes.SetupWith:
			ctxMgr := f.top()
			enterFn, err := vm.getAttr(ctxMgr, "__enter__")
			if err != nil {
				return 0, nil, ReturnNormal, false, err
			}
			exitFn, err := vm.getAttr(ctxMgr, "__exit__")
			if err != nil {
				return 0, nil, ReturnNormal, false, err
			}
			f.pop()
			f.pushBlock(Block{Type: BlockWith, Handler: d.byOff[ins.Offset+3+ins.Arg], StackLevel: len(f.stack)})
			f.push(exitFn)
			enterResult, err := vm.call(enterFn, nil, nil)
			if err != nil {
				return 0, nil, ReturnNormal, false, err
			}
			f.push(enterResult)
		case opcodes.WithCleanup:
			// Simplified: supports the no-exception exit path (the
			// common case of `with ctx: body` running to completion).
			// A WITH block an exception unwinds through is handled by
			// catchException instead, which calls __exit__ itself.
			top := f.pop()
			exitFn := f.pop()
			if _, err := vm.call(exitFn, []*values.Value{values.None, values.None, values.None}, nil); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
			f.push(top)

		case opcodes.SetupLoop:
			f.pushBlock(Block{Type: BlockLoop, Handler: d.byOff[ins.Offset+3+ins.Arg], StackLevel: len(f.stack)})
		case opcodes.SetupExcept:
			f.pushBlock(Block{Type: BlockExcept, Handler: d.byOff[ins.Offset+3+ins.Arg], StackLevel: len(f.stack)})
		case opcodes.SetupFinally:
			f.pushBlock(Block{Type: BlockFinally, Handler: d.byOff[ins.Offset+3+ins.Arg], StackLevel: len(f.stack)})
		case opcodes.PopBlock:
			f.popBlock()
		case opcodes.BreakLoop:
			for len(f.blocks) > 0 {
				b := f.popBlock()
				if b.Type == BlockLoop {
					f.stack = f.stack[:b.StackLevel]
					next = b.Handler
					break
				}
			}
		case opcodes.ContinueLoop:
			idx, ok := d.byOff[ins.Arg]
			if !ok {
				return 0, nil, ReturnNormal, false, perr.Opcode("bad jump target %d", ins.Arg)
			}
			next = idx
		case opcodes.EndFinally:
			// TOS is None when the finally body was entered by falling
			// through normally, or the exception type when it was
			// entered by an unwind — in which case the fault resumes
			// propagating.
			status := f.pop()
			switch {
			case status.IsNone():
			case status.Type == values.TypeClass, status.Type == values.TypeStr:
				val := f.pop()
				f.pop() // traceback slot
				if f.currentExc != nil {
					return 0, nil, ReturnNormal, false, f.currentExc
				}
				return 0, nil, ReturnNormal, false, vm.buildRaised(status, val)
			default:
				return 0, nil, ReturnNormal, false, perr.Opcode("END_FINALLY with bad status %q", status.TypeName())
			}

		case opcodes.ForIter:
			ok, err := vm.forIter(f)
			if err != nil {
				return 0, nil, ReturnNormal, false, err
			}
			if !ok {
				idx, ok := d.byOff[ins.Offset+3+ins.Arg]
				if !ok {
					return 0, nil, ReturnNormal, false, perr.Opcode("bad jump target")
				}
				next = idx
			}

		case opcodes.RaiseVarargs:
			return 0, nil, ReturnNormal, false, vm.raiseVarargs(f, ins.Arg)

		case opcodes.BuildClass:
			if err := vm.buildClass(f); err != nil {
				return 0, nil, ReturnNormal, false, err
			}

		case opcodes.MakeFunction:
			code := f.pop()
			defaults := f.popN(ins.Arg)
			f.push(vm.buildFunction(code, defaults, nil, f.Globals))
		case opcodes.MakeClosure:
			code := f.pop()
			cellsTuple := f.pop()
			defaults := f.popN(ins.Arg)
			cellItems := cellsTuple.Data.(*values.ListData).Items
			cells := make([]*values.Cell, len(cellItems))
			for i, it := range cellItems {
				cells[i] = it.Data.(*values.Cell)
			}
			f.push(vm.buildFunction(code, defaults, cells, f.Globals))

		case opcodes.CallFunction:
			if err := vm.callFunction(f, ins.Arg, false, false); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.CallFunctionVar:
			if err := vm.callFunction(f, ins.Arg, true, false); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.CallFunctionKw:
			if err := vm.callFunction(f, ins.Arg, false, true); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.CallFunctionVarKw:
			if err := vm.callFunction(f, ins.Arg, true, true); err != nil {
				return 0, nil, ReturnNormal, false, err
			}

		case opcodes.ImportName:
			if err := vm.importName(f, ins.Arg); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.ImportFrom:
			if err := vm.importFrom(f, ins.Arg); err != nil {
				return 0, nil, ReturnNormal, false, err
			}
		case opcodes.ImportStar:
			if err := vm.importStar(f); err != nil {
				return 0, nil, ReturnNormal, false, err
			}

		case opcodes.ReturnValue:
			return 0, f.pop(), ReturnNormal, true, nil

		case opcodes.YieldValue:
			v := f.pop()
			f.resumeAt = next
			return 0, v, ReturnYield, true, nil

		case opcodes.ExtendedArg:
			// folded into the following instruction by opcodes.Decode

		default:
			return 0, nil, ReturnNormal, false, perr.Opcode("unimplemented opcode %s", ins.Opcode)
	}

	return next, nil, ReturnNormal, false, nil
}
