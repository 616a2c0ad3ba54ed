package opcodes

import perr "github.com/wudi/pyvm/errors"

// Instruction is one decoded bytecode op: its opcode, its argument (0
// if HasArg is false), and the byte offset it started at within
// co_code (the unit jump targets and the lnotab walk both address).
type Instruction struct {
	Offset int
	Opcode Opcode
	Arg    int
	HasArg bool
}

// Decode turns raw co_code bytes into a flat instruction list,
// resolving EXTENDED_ARG prefixes into the following instruction's Arg
// exactly as CPython's own ceval loop does (shift the prefix's 16 bits
// into the high half of the next argument).
func Decode(code []byte) ([]Instruction, error) {
	var out []Instruction
	extended := 0
	for i := 0; i < len(code); {
		offset := i
		op := Opcode(code[i])
		i++
		if !op.HasArg() {
			out = append(out, Instruction{Offset: offset, Opcode: op})
			continue
		}
		if i+1 >= len(code) {
			return nil, perr.Opcode("truncated argument for %s at offset %d", op, offset)
		}
		arg := int(code[i]) | int(code[i+1])<<8
		i += 2
		arg |= extended << 16
		extended = 0
		if op == ExtendedArg {
			extended = arg
			continue
		}
		out = append(out, Instruction{Offset: offset, Opcode: op, Arg: arg, HasArg: true})
	}
	return out, nil
}

// AtOffset finds the decoded instruction starting at the given co_code
// byte offset, used to resolve absolute/relative jump targets into an
// index a dispatcher can use directly.
func AtOffset(instrs []Instruction, offset int) (int, bool) {
	for i, ins := range instrs {
		if ins.Offset == offset {
			return i, true
		}
	}
	return 0, false
}
