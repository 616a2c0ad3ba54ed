package values

// Code is the Code variant's payload: a deserialized code object, the
// direct Go analogue of CPython's co_* fields (and CodeDefinition in
// the C++ implementation this format is compatible with).
type Code struct {
	Name        string
	ArgCount    int
	NLocals     int
	VarNames    []string // co_varnames: params first, then locals
	CellVars    []string
	FreeVars    []string
	Bytecode    []byte // co_code
	Consts      []*Value
	Names       []string // co_names: global/attribute/import names
	Filename    string
	FirstLine   int
	LineTable   []byte // co_lnotab
	StackSize   int
	Flags       uint32
}

const (
	CoFlagOptimized uint32 = 1 << 0
	CoFlagNewLocals uint32 = 1 << 1
	CoFlagVarArgs   uint32 = 1 << 2
	CoFlagVarKwArgs uint32 = 1 << 3
	CoFlagGenerator uint32 = 1 << 5
)

func CodeValue(c *Code) *Value {
	return &Value{Type: TypeCode, Data: c}
}

// LineForOffset walks co_lnotab (pairs of (byte delta, line delta), run
// length encoded) to find the source line active at bytecode offset ip,
// exactly as CPython's own lnotab walk does.
func (c *Code) LineForOffset(ip int) int {
	line := c.FirstLine
	addr := 0
	tbl := c.LineTable
	for i := 0; i+1 < len(tbl); i += 2 {
		addr += int(tbl[i])
		if addr > ip {
			break
		}
		line += int(tbl[i+1])
	}
	return line
}
