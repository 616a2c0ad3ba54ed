package loader

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/pyvm/values"
)

// buildPyc assembles a minimal .pyc image: the 8-byte header followed
// by a hand-marshaled trivial code object (`return None`), mirroring
// the byte layout ImportPycStream must decode.
func buildPyc(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer

	// header: magic (low 16 bits must equal Magic27) + mtime
	binary.Write(&buf, binary.LittleEndian, uint32(Magic27))
	binary.Write(&buf, binary.LittleEndian, uint32(0))

	w := func(b byte) { buf.WriteByte(b) }
	wInt32 := func(n int32) { binary.Write(&buf, binary.LittleEndian, n) }
	wString := func(tag byte, s string) {
		w(tag)
		wInt32(int32(len(s)))
		buf.WriteString(s)
	}

	w(tagCode)
	wInt32(0) // argcount
	wInt32(0) // nlocals
	wInt32(1) // stacksize
	wInt32(0) // flags
	wString(tagString, "\x64\x00\x00\x53")     // LOAD_CONST 0; RETURN_VALUE (illustrative bytes)
	w(tagTuple)
	wInt32(1)
	w(tagNone)
	w(tagTuple)
	wInt32(0) // names
	w(tagTuple)
	wInt32(0) // varnames
	w(tagTuple)
	wInt32(0) // freevars
	w(tagTuple)
	wInt32(0) // cellvars
	wString(tagString, "test.py") // filename
	wString(tagString, "<module>") // name
	wInt32(1)                      // firstlineno
	wString(tagString, "")         // lnotab

	return buf.Bytes()
}

func TestImportPycBufferDecodesHeaderAndCode(t *testing.T) {
	img := buildPyc(t)
	res, err := ImportPycBuffer("test", img, true)
	require.NoError(t, err)
	require.Equal(t, "test", res.Name)
	require.Equal(t, "<module>", res.Code.Name)
	require.Equal(t, "test.py", res.Code.Filename)
	require.Len(t, res.Code.Consts, 1)
	require.True(t, res.Code.Consts[0].IsNone())
}

func TestImportPycBufferWithoutHeader(t *testing.T) {
	img := buildPyc(t)
	res, err := ImportPycBuffer("raw", img[8:], false)
	require.NoError(t, err)
	require.Equal(t, "<module>", res.Code.Name)
	require.Zero(t, res.Header.Magic)
}

func TestParseHeaderRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(0xdeadbeef))
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	_, err := ParseHeader(&buf)
	require.Error(t, err)
}

func TestDictTerminatesOnNullKey(t *testing.T) {
	var buf bytes.Buffer
	w := func(b byte) { buf.WriteByte(b) }
	wInt32 := func(n int32) { binary.Write(&buf, binary.LittleEndian, n) }

	w('{')
	w(tagString)
	wInt32(1)
	buf.WriteString("a")
	w(tagInt)
	wInt32(7)
	w(tagNull) // terminator

	mr := newMarshalReader(&buf)
	v, err := mr.readValue()
	require.NoError(t, err)
	require.Equal(t, values.TypeDict, v.Type)
	got, ok := v.Data.(*values.DictData).Get(values.Str("a"))
	require.True(t, ok)
	require.Equal(t, int64(7), got.Data.(int64))
}
