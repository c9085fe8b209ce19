package instruction

import (
	"strings"

	"ippvm/pkg/value"
)

type Opcode int

// List of IPPcode23 operations, including the STACK extension
const (
	// frames and calls
	OpMove Opcode = iota
	OpCreateFrame
	OpPushFrame
	OpPopFrame
	OpDefVar
	OpCall
	OpReturn

	// data stack
	OpPushs
	OpPops
	OpClears

	// arithmetic, relational, boolean and conversion
	OpAdd
	OpSub
	OpMul
	OpIDiv
	OpLt
	OpGt
	OpEq
	OpAnd
	OpOr
	OpNot
	OpInt2Char
	OpStri2Int

	// stack variants
	OpAdds
	OpSubs
	OpMuls
	OpIDivs
	OpLts
	OpGts
	OpEqs
	OpAnds
	OpOrs
	OpNots
	OpInt2Chars
	OpStri2Ints
	OpJumpIfEqs
	OpJumpIfNeqs

	// input/output
	OpRead
	OpWrite

	// strings
	OpConcat
	OpStrlen
	OpGetChar
	OpSetChar

	// types
	OpType

	// flow control
	OpLabel
	OpJump
	OpJumpIfEq
	OpJumpIfNeq
	OpExit

	// debugging
	OpDPrint
	OpBreak

	opcodeCount
)

// NumOpcodes is the size of the closed opcode set.
const NumOpcodes = int(opcodeCount)

var opcodeNames = [...]string{
	OpMove:        "MOVE",
	OpCreateFrame: "CREATEFRAME",
	OpPushFrame:   "PUSHFRAME",
	OpPopFrame:    "POPFRAME",
	OpDefVar:      "DEFVAR",
	OpCall:        "CALL",
	OpReturn:      "RETURN",
	OpPushs:       "PUSHS",
	OpPops:        "POPS",
	OpClears:      "CLEARS",
	OpAdd:         "ADD",
	OpSub:         "SUB",
	OpMul:         "MUL",
	OpIDiv:        "IDIV",
	OpLt:          "LT",
	OpGt:          "GT",
	OpEq:          "EQ",
	OpAnd:         "AND",
	OpOr:          "OR",
	OpNot:         "NOT",
	OpInt2Char:    "INT2CHAR",
	OpStri2Int:    "STRI2INT",
	OpAdds:        "ADDS",
	OpSubs:        "SUBS",
	OpMuls:        "MULS",
	OpIDivs:       "IDIVS",
	OpLts:         "LTS",
	OpGts:         "GTS",
	OpEqs:         "EQS",
	OpAnds:        "ANDS",
	OpOrs:         "ORS",
	OpNots:        "NOTS",
	OpInt2Chars:   "INT2CHARS",
	OpStri2Ints:   "STRI2INTS",
	OpJumpIfEqs:   "JUMPIFEQS",
	OpJumpIfNeqs:  "JUMPIFNEQS",
	OpRead:        "READ",
	OpWrite:       "WRITE",
	OpConcat:      "CONCAT",
	OpStrlen:      "STRLEN",
	OpGetChar:     "GETCHAR",
	OpSetChar:     "SETCHAR",
	OpType:        "TYPE",
	OpLabel:       "LABEL",
	OpJump:        "JUMP",
	OpJumpIfEq:    "JUMPIFEQ",
	OpJumpIfNeq:   "JUMPIFNEQ",
	OpExit:        "EXIT",
	OpDPrint:      "DPRINT",
	OpBreak:       "BREAK",
}

var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = Opcode(op)
	}
	return m
}()

func (op Opcode) String() string {
	if op >= 0 && op < opcodeCount {
		return opcodeNames[op]
	}
	return "UNKNOWN"
}

// ParseOpcode looks up an opcode by name, ignoring case.
func ParseOpcode(name string) (Opcode, bool) {
	op, ok := opcodeByName[strings.ToUpper(name)]
	return op, ok
}

// IsJump reports whether the opcode transfers control to a label.
func (op Opcode) IsJump() bool {
	switch op {
	case OpCall, OpJump, OpJumpIfEq, OpJumpIfNeq, OpJumpIfEqs, OpJumpIfNeqs:
		return true
	}
	return false
}

// slotKind is the syntactic class accepted at one operand position.
type slotKind int

const (
	slotVar   slotKind = iota // ⟨var⟩
	slotSymb                  // ⟨symb⟩: variable or literal
	slotLabel                 // ⟨label⟩
	slotType                  // ⟨type⟩
)

type slot struct {
	kind slotKind
	// literal kinds allowed for slotSymb; empty means any
	literals []value.Kind
}

var (
	varSlot   = slot{kind: slotVar}
	labelSlot = slot{kind: slotLabel}
	typeSlot  = slot{kind: slotType}
	anySymb   = slot{kind: slotSymb}
)

func symb(kinds ...value.Kind) slot {
	return slot{kind: slotSymb, literals: kinds}
}

var (
	intSymb     = symb(value.KindInt)
	boolSymb    = symb(value.KindBool)
	strSymb     = symb(value.KindString)
	orderedSymb = symb(value.KindInt, value.KindBool, value.KindString)
)

// signatures holds the fixed operand pattern of every opcode.
var signatures = [...][]slot{
	OpMove:        {varSlot, anySymb},
	OpCreateFrame: {},
	OpPushFrame:   {},
	OpPopFrame:    {},
	OpDefVar:      {varSlot},
	OpCall:        {labelSlot},
	OpReturn:      {},
	OpPushs:       {anySymb},
	OpPops:        {varSlot},
	OpClears:      {},
	OpAdd:         {varSlot, intSymb, intSymb},
	OpSub:         {varSlot, intSymb, intSymb},
	OpMul:         {varSlot, intSymb, intSymb},
	OpIDiv:        {varSlot, intSymb, intSymb},
	OpLt:          {varSlot, orderedSymb, orderedSymb},
	OpGt:          {varSlot, orderedSymb, orderedSymb},
	OpEq:          {varSlot, anySymb, anySymb},
	OpAnd:         {varSlot, boolSymb, boolSymb},
	OpOr:          {varSlot, boolSymb, boolSymb},
	OpNot:         {varSlot, boolSymb},
	OpInt2Char:    {varSlot, intSymb},
	OpStri2Int:    {varSlot, strSymb, intSymb},
	OpAdds:        {},
	OpSubs:        {},
	OpMuls:        {},
	OpIDivs:       {},
	OpLts:         {},
	OpGts:         {},
	OpEqs:         {},
	OpAnds:        {},
	OpOrs:         {},
	OpNots:        {},
	OpInt2Chars:   {},
	OpStri2Ints:   {},
	OpJumpIfEqs:   {labelSlot},
	OpJumpIfNeqs:  {labelSlot},
	OpRead:        {varSlot, typeSlot},
	OpWrite:       {anySymb},
	OpConcat:      {varSlot, strSymb, strSymb},
	OpStrlen:      {varSlot, strSymb},
	OpGetChar:     {varSlot, strSymb, intSymb},
	OpSetChar:     {varSlot, intSymb, strSymb},
	OpType:        {varSlot, anySymb},
	OpLabel:       {labelSlot},
	OpJump:        {labelSlot},
	OpJumpIfEq:    {labelSlot, anySymb, anySymb},
	OpJumpIfNeq:   {labelSlot, anySymb, anySymb},
	OpExit:        {intSymb},
	OpDPrint:      {anySymb},
	OpBreak:       {},
}

// Arity returns the number of operands the opcode takes.
func (op Opcode) Arity() int {
	if op < 0 || op >= opcodeCount {
		return 0
	}
	return len(signatures[op])
}
