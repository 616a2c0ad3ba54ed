package loader

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	perr "github.com/wudi/pyvm/errors"
	"github.com/wudi/pyvm/values"
)

// marshalReader decodes CPython 2.7's "marshal" wire format: a
// recursive byte-tag-prefixed encoding with a side table of interned
// strings addressable by back-reference.
type marshalReader struct {
	r       *bufio.Reader
	interns []*values.Value // TYPE_INTERNED strings, addressable via TYPE_STRINGREF
}

const (
	tagNull     = '0'
	tagNone     = 'N'
	tagTrue     = 'T'
	tagFalse    = 'F'
	tagInt      = 'i'
	tagInt64    = 'I'
	tagFloatBin = 'g'
	tagString   = 's'
	tagInterned = 't'
	tagUnicode  = 'u'
	tagStringRef = 'R'
	tagTuple    = '('
	tagList     = '['
	tagDict     = '{'
	tagCode     = 'c'
)

func newMarshalReader(r io.Reader) *marshalReader {
	return &marshalReader{r: bufio.NewReader(r)}
}

func (m *marshalReader) readByte() (byte, error) {
	return m.r.ReadByte()
}

func (m *marshalReader) readInt32() (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(m.r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

func (m *marshalReader) readInt64() (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(m.r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

func (m *marshalReader) readFloat64() (float64, error) {
	bits, err := m.readInt64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(bits)), nil
}

func (m *marshalReader) readBytes() ([]byte, error) {
	n, err := m.readInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, perr.Deserialize("negative string length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(m.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// readValue decodes one marshaled object, recursing for compound tags.
func (m *marshalReader) readValue() (*values.Value, error) {
	tag, err := m.readByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagNull:
		return nil, nil
	case tagNone:
		return values.None, nil
	case tagTrue:
		return values.True, nil
	case tagFalse:
		return values.False, nil
	case tagInt:
		n, err := m.readInt32()
		if err != nil {
			return nil, err
		}
		return values.Int(int64(n)), nil
	case tagInt64:
		n, err := m.readInt64()
		if err != nil {
			return nil, err
		}
		return values.Int(n), nil
	case tagFloatBin:
		f, err := m.readFloat64()
		if err != nil {
			return nil, err
		}
		return values.Float(f), nil
	case tagString:
		b, err := m.readBytes()
		if err != nil {
			return nil, err
		}
		return values.StrBytes(b), nil
	case tagInterned:
		b, err := m.readBytes()
		if err != nil {
			return nil, err
		}
		v := values.StrBytes(b)
		m.interns = append(m.interns, v)
		return v, nil
	case tagStringRef:
		idx, err := m.readInt32()
		if err != nil {
			return nil, err
		}
		if int(idx) < 0 || int(idx) >= len(m.interns) {
			return nil, perr.Deserialize("string-ref index %d out of range", idx)
		}
		return m.interns[idx], nil
	case tagUnicode:
		b, err := m.readBytes()
		if err != nil {
			return nil, err
		}
		return values.UStr(string(b)), nil
	case tagTuple:
		items, err := m.readValues()
		if err != nil {
			return nil, err
		}
		return values.Tuple(items), nil
	case tagList:
		items, err := m.readValues()
		if err != nil {
			return nil, err
		}
		return values.List(items), nil
	case tagDict:
		return m.readDict()
	case tagCode:
		return m.readCode()
	default:
		return nil, perr.Deserialize("unsupported marshal tag %q", tag)
	}
}

func (m *marshalReader) readValues() ([]*values.Value, error) {
	n, err := m.readInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, perr.Deserialize("negative element count %d", n)
	}
	out := make([]*values.Value, n)
	for i := range out {
		v, err := m.readValue()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// readDict reads key/value pairs until a TYPE_NULL key tag, the same
// termination convention CPython's marshal.c uses for dicts.
func (m *marshalReader) readDict() (*values.Value, error) {
	d := values.Dict()
	data := d.Data.(*values.DictData)
	for {
		key, err := m.readValue()
		if err != nil {
			return nil, err
		}
		if key == nil { // TYPE_NULL sentinel terminates the dict
			return d, nil
		}
		val, err := m.readValue()
		if err != nil {
			return nil, err
		}
		if err := data.Set(key, val); err != nil {
			return nil, err
		}
	}
}

// readCode decodes a TYPE_CODE object, field order matching CPython
// 2.7's marshal.c w_object: argcount, nlocals, stacksize, flags, code,
// consts, names, varnames, freevars, cellvars, filename, name,
// firstlineno, lnotab.
func (m *marshalReader) readCode() (*values.Value, error) {
	argcount, err := m.readInt32()
	if err != nil {
		return nil, err
	}
	nlocals, err := m.readInt32()
	if err != nil {
		return nil, err
	}
	stacksize, err := m.readInt32()
	if err != nil {
		return nil, err
	}
	flags, err := m.readInt32()
	if err != nil {
		return nil, err
	}
	codeBytes, err := m.readStringTagged()
	if err != nil {
		return nil, err
	}
	consts, err := m.readValue()
	if err != nil {
		return nil, err
	}
	names, err := m.readValue()
	if err != nil {
		return nil, err
	}
	varnames, err := m.readValue()
	if err != nil {
		return nil, err
	}
	freevars, err := m.readValue()
	if err != nil {
		return nil, err
	}
	cellvars, err := m.readValue()
	if err != nil {
		return nil, err
	}
	filename, err := m.readStringTagged()
	if err != nil {
		return nil, err
	}
	name, err := m.readStringTagged()
	if err != nil {
		return nil, err
	}
	firstline, err := m.readInt32()
	if err != nil {
		return nil, err
	}
	lnotab, err := m.readStringTagged()
	if err != nil {
		return nil, err
	}

	code := &values.Code{
		Name:      string(name),
		ArgCount:  int(argcount),
		NLocals:   int(nlocals),
		VarNames:  stringsOf(varnames),
		CellVars:  stringsOf(cellvars),
		FreeVars:  stringsOf(freevars),
		Bytecode:  codeBytes,
		Consts:    tupleItems(consts),
		Names:     stringsOf(names),
		Filename:  string(filename),
		FirstLine: int(firstline),
		LineTable: lnotab,
		StackSize: int(stacksize),
		Flags:     uint32(flags),
	}
	return values.CodeValue(code), nil
}

// readStringTagged reads one nested marshaled value and requires it to
// be string-shaped, for the code-object fields that are always plain
// strings (filename, name, co_code, lnotab).
func (m *marshalReader) readStringTagged() ([]byte, error) {
	v, err := m.readValue()
	if err != nil {
		return nil, err
	}
	if v == nil || (v.Type != values.TypeStr) {
		return nil, perr.Deserialize("expected a string-tagged field in code object")
	}
	return []byte(v.ToStr()), nil
}

func stringsOf(v *values.Value) []string {
	if v == nil {
		return nil
	}
	items := tupleItems(v)
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ToStr()
	}
	return out
}

func tupleItems(v *values.Value) []*values.Value {
	if v == nil {
		return nil
	}
	if v.Type == values.TypeTuple || v.Type == values.TypeList {
		return v.Data.(*values.ListData).Items
	}
	return nil
}
