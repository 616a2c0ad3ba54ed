package opcodes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeNoArgInstruction(t *testing.T) {
	code := []byte{byte(PopTop), byte(ReturnValue)}
	instrs, err := Decode(code)
	require.NoError(t, err)
	require.Len(t, instrs, 2)
	require.Equal(t, PopTop, instrs[0].Opcode)
	require.False(t, instrs[0].HasArg)
	require.Equal(t, ReturnValue, instrs[1].Opcode)
}

func TestDecodeArgInstruction(t *testing.T) {
	code := []byte{byte(LoadConst), 0x05, 0x00}
	instrs, err := Decode(code)
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	require.True(t, instrs[0].HasArg)
	require.Equal(t, 5, instrs[0].Arg)
}

func TestDecodeExtendedArg(t *testing.T) {
	code := []byte{
		byte(ExtendedArg), 0x01, 0x00, // high bits = 1<<16
		byte(LoadConst), 0x02, 0x00,
	}
	instrs, err := Decode(code)
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	require.Equal(t, (1<<16)|2, instrs[0].Arg)
	// EXTENDED_ARG's own offset is where the combined instruction's
	// bytes logically start, but Decode records the *trailing*
	// instruction's own offset for jump-target resolution.
	require.Equal(t, 3, instrs[0].Offset)
}

func TestDecodeTruncatedArgIsAnError(t *testing.T) {
	code := []byte{byte(LoadConst), 0x01}
	_, err := Decode(code)
	require.Error(t, err)
}

func TestAtOffsetFindsJumpTarget(t *testing.T) {
	code := []byte{byte(PopTop), byte(LoadConst), 0x00, 0x00, byte(ReturnValue)}
	instrs, err := Decode(code)
	require.NoError(t, err)
	idx, ok := AtOffset(instrs, 4)
	require.True(t, ok)
	require.Equal(t, ReturnValue, instrs[idx].Opcode)
}
