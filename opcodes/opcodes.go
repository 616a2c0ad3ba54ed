// Package opcodes holds the CPython 2.7 bytecode opcode table and the
// decoder that turns a code object's raw co_code bytes into a sequence
// of Instructions.
package opcodes

// Opcode is one CPython 2.7 bytecode instruction tag. Opcodes at or
// above HaveArgument carry a 2-byte little-endian argument; everything
// below takes none.
type Opcode byte

const HaveArgument Opcode = 90

const (
	PopTop             Opcode = 1
	RotTwo             Opcode = 2
	RotThree           Opcode = 3
	DupTop             Opcode = 4
	RotFour            Opcode = 5
	Nop                Opcode = 9
	UnaryPositive      Opcode = 10
	UnaryNegative      Opcode = 11
	UnaryNot           Opcode = 12
	UnaryInvert        Opcode = 15
	BinaryPower        Opcode = 19
	BinaryMultiply     Opcode = 20
	BinaryDivide       Opcode = 21
	BinaryModulo       Opcode = 22
	BinaryAdd          Opcode = 23
	BinarySubtract     Opcode = 24
	BinarySubscr       Opcode = 25
	BinaryFloorDivide  Opcode = 26
	InplaceFloorDivide Opcode = 28
	Slice0             Opcode = 30
	Slice1             Opcode = 31
	Slice2             Opcode = 32
	Slice3             Opcode = 33
	StoreSlice0        Opcode = 40
	StoreSlice1        Opcode = 41
	StoreSlice2        Opcode = 42
	StoreSlice3        Opcode = 43
	DeleteSlice0       Opcode = 50
	DeleteSlice1       Opcode = 51
	DeleteSlice2       Opcode = 52
	DeleteSlice3       Opcode = 53
	StoreMap           Opcode = 54
	InplaceAdd         Opcode = 55
	InplaceSubtract    Opcode = 56
	InplaceMultiply    Opcode = 57
	InplaceDivide      Opcode = 58
	StoreSubscr        Opcode = 60
	DeleteSubscr       Opcode = 61
	BinaryLshift       Opcode = 62
	BinaryRshift       Opcode = 63
	BinaryAnd          Opcode = 64
	BinaryXor          Opcode = 65
	BinaryOr           Opcode = 66
	InplacePower       Opcode = 67
	GetIter            Opcode = 68
	PrintItem          Opcode = 71
	PrintNewline       Opcode = 72
	BreakLoop          Opcode = 80
	WithCleanup        Opcode = 81
	LoadLocals         Opcode = 82
	ReturnValue        Opcode = 83
	ImportStar         Opcode = 84
	YieldValue         Opcode = 86
	PopBlock           Opcode = 87
	EndFinally         Opcode = 88
	BuildClass         Opcode = 89

	StoreName        Opcode = 90
	DeleteName       Opcode = 91
	UnpackSequence   Opcode = 92
	ForIter          Opcode = 93
	ListAppend       Opcode = 94
	StoreAttr        Opcode = 95
	DupTopX          Opcode = 99
	DeleteAttr       Opcode = 96
	StoreGlobal      Opcode = 97
	DeleteGlobal     Opcode = 98
	LoadConst        Opcode = 100
	LoadName         Opcode = 101
	BuildTuple       Opcode = 102
	BuildList        Opcode = 103
	BuildMap         Opcode = 104
	LoadAttr         Opcode = 105
	CompareOp        Opcode = 106
	ImportName       Opcode = 108
	ImportFrom       Opcode = 109
	JumpForward      Opcode = 110
	JumpIfFalseOrPop Opcode = 111
	JumpIfTrueOrPop  Opcode = 112
	JumpAbsolute     Opcode = 113
	PopJumpIfFalse   Opcode = 114
	PopJumpIfTrue    Opcode = 115
	LoadGlobal       Opcode = 116
	ContinueLoop     Opcode = 119
	SetupLoop        Opcode = 120
	SetupExcept      Opcode = 121
	SetupFinally     Opcode = 122
	LoadFast         Opcode = 124
	StoreFast        Opcode = 125
	DeleteFast       Opcode = 126
	RaiseVarargs     Opcode = 130
	CallFunction     Opcode = 131
	MakeFunction     Opcode = 132
	BuildSlice       Opcode = 133
	MakeClosure      Opcode = 134
	LoadClosure      Opcode = 135
	LoadDeref        Opcode = 136
	StoreDeref       Opcode = 137
	CallFunctionVar  Opcode = 140
	CallFunctionKw   Opcode = 141
	CallFunctionVarKw Opcode = 142
	SetupWith        Opcode = 143
	ExtendedArg      Opcode = 145
)

// CompareOperator is the COMPARE_OP argument space.
type CompareOperator int

const (
	CmpLt CompareOperator = iota
	CmpLe
	CmpEq
	CmpNe
	CmpGt
	CmpGe
	CmpIn
	CmpNotIn
	CmpIs
	CmpIsNot
	CmpException
)

// Names maps an opcode to its CPython mnemonic, used for diagnostics
// and disassembly.
var Names = map[Opcode]string{
	PopTop: "POP_TOP", RotTwo: "ROT_TWO", RotThree: "ROT_THREE",
	DupTop: "DUP_TOP", RotFour: "ROT_FOUR", Nop: "NOP",
	UnaryPositive: "UNARY_POSITIVE", UnaryNegative: "UNARY_NEGATIVE",
	UnaryNot: "UNARY_NOT", UnaryInvert: "UNARY_INVERT",
	BinaryPower: "BINARY_POWER", BinaryMultiply: "BINARY_MULTIPLY",
	BinaryDivide: "BINARY_DIVIDE", BinaryModulo: "BINARY_MODULO",
	BinaryAdd: "BINARY_ADD", BinarySubtract: "BINARY_SUBTRACT",
	BinarySubscr: "BINARY_SUBSCR", BinaryFloorDivide: "BINARY_FLOOR_DIVIDE",
	Slice0: "SLICE+0", Slice1: "SLICE+1", Slice2: "SLICE+2", Slice3: "SLICE+3",
	StoreSlice0: "STORE_SLICE+0", StoreSlice1: "STORE_SLICE+1",
	StoreSlice2: "STORE_SLICE+2", StoreSlice3: "STORE_SLICE+3",
	DeleteSlice0: "DELETE_SLICE+0", DeleteSlice1: "DELETE_SLICE+1",
	DeleteSlice2: "DELETE_SLICE+2", DeleteSlice3: "DELETE_SLICE+3",
	StoreMap: "STORE_MAP", ListAppend: "LIST_APPEND", DupTopX: "DUP_TOPX",
	InplaceFloorDivide: "INPLACE_FLOOR_DIVIDE", InplaceAdd: "INPLACE_ADD",
	InplaceSubtract: "INPLACE_SUBTRACT", InplaceMultiply: "INPLACE_MULTIPLY",
	InplaceDivide: "INPLACE_DIVIDE", StoreSubscr: "STORE_SUBSCR",
	DeleteSubscr: "DELETE_SUBSCR", BinaryLshift: "BINARY_LSHIFT",
	BinaryRshift: "BINARY_RSHIFT", BinaryAnd: "BINARY_AND",
	BinaryXor: "BINARY_XOR", BinaryOr: "BINARY_OR",
	InplacePower: "INPLACE_POWER", PrintItem: "PRINT_ITEM",
	PrintNewline: "PRINT_NEWLINE", BreakLoop: "BREAK_LOOP",
	WithCleanup: "WITH_CLEANUP", LoadLocals: "LOAD_LOCALS",
	ReturnValue: "RETURN_VALUE", ImportStar: "IMPORT_STAR",
	YieldValue: "YIELD_VALUE", PopBlock: "POP_BLOCK",
	EndFinally: "END_FINALLY", BuildClass: "BUILD_CLASS",
	StoreName: "STORE_NAME", DeleteName: "DELETE_NAME",
	UnpackSequence: "UNPACK_SEQUENCE", ForIter: "FOR_ITER",
	StoreAttr: "STORE_ATTR", DeleteAttr: "DELETE_ATTR",
	StoreGlobal: "STORE_GLOBAL", DeleteGlobal: "DELETE_GLOBAL",
	LoadConst: "LOAD_CONST", LoadName: "LOAD_NAME",
	BuildTuple: "BUILD_TUPLE", BuildList: "BUILD_LIST",
	BuildMap: "BUILD_MAP", LoadAttr: "LOAD_ATTR",
	CompareOp: "COMPARE_OP", ImportName: "IMPORT_NAME",
	ImportFrom: "IMPORT_FROM", JumpForward: "JUMP_FORWARD",
	JumpIfFalseOrPop: "JUMP_IF_FALSE_OR_POP", JumpIfTrueOrPop: "JUMP_IF_TRUE_OR_POP",
	JumpAbsolute: "JUMP_ABSOLUTE", PopJumpIfFalse: "POP_JUMP_IF_FALSE",
	PopJumpIfTrue: "POP_JUMP_IF_TRUE", LoadGlobal: "LOAD_GLOBAL",
	ContinueLoop: "CONTINUE_LOOP", SetupLoop: "SETUP_LOOP",
	SetupExcept: "SETUP_EXCEPT", SetupFinally: "SETUP_FINALLY",
	LoadFast: "LOAD_FAST", StoreFast: "STORE_FAST",
	DeleteFast: "DELETE_FAST", RaiseVarargs: "RAISE_VARARGS",
	CallFunction: "CALL_FUNCTION", MakeFunction: "MAKE_FUNCTION",
	BuildSlice: "BUILD_SLICE", MakeClosure: "MAKE_CLOSURE",
	LoadClosure: "LOAD_CLOSURE", LoadDeref: "LOAD_DEREF",
	StoreDeref: "STORE_DEREF", CallFunctionVar: "CALL_FUNCTION_VAR",
	CallFunctionKw: "CALL_FUNCTION_KW", CallFunctionVarKw: "CALL_FUNCTION_VAR_KW",
	SetupWith: "SETUP_WITH", ExtendedArg: "EXTENDED_ARG",
}

func (op Opcode) String() string {
	if n, ok := Names[op]; ok {
		return n
	}
	return "UNKNOWN_OPCODE"
}

// HasArg reports whether op carries a 2-byte argument.
func (op Opcode) HasArg() bool { return op >= HaveArgument }
