package instruction

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"ippvm/pkg/diag"
	"ippvm/pkg/frame"
	"ippvm/pkg/value"
)

// Operand is one of VarRef, Literal, LabelRef or TypeTag.
type Operand interface {
	fmt.Stringer
	operand()
}

// VarRef names a variable in one of the frames; it is resolved at run time.
type VarRef struct {
	Frame frame.Kind
	Name  string
}

// Literal is a constant operand.
type Literal struct {
	Value value.Value
}

// LabelRef names a jump or call target.
type LabelRef struct {
	Name string
}

// TypeTag is the type operand of READ.
type TypeTag struct {
	Kind value.Kind
}

func (VarRef) operand()   {}
func (Literal) operand()  {}
func (LabelRef) operand() {}
func (TypeTag) operand()  {}

func (r VarRef) String() string   { return r.Frame.String() + "@" + r.Name }
func (l Literal) String() string  { return l.Value.Literal() }
func (l LabelRef) String() string { return l.Name }
func (t TypeTag) String() string  { return t.Kind.String() }

// RawArg is an undecoded operand, as produced by an external decoder: Type is
// one of var, label, type, int, bool, string or nil.
type RawArg struct {
	Type string
	Text string
}

// Raw is an instruction before validation.
type Raw struct {
	Order  int
	Opcode string
	Args   []RawArg
}

// Instruction is a validated, immutable instruction.
type Instruction struct {
	Order    int
	Op       Opcode
	Operands []Operand
}

// String returns a representation like "3: ADD GF@x GF@x int@1"
func (i *Instruction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d: %s", i.Order, i.Op)
	for _, o := range i.Operands {
		b.WriteByte(' ')
		b.WriteString(o.String())
	}
	return b.String()
}

// Arg returns the n-th operand.
func (i *Instruction) Arg(n int) Operand {
	return i.Operands[n]
}

// Label returns the label operand at position n.
func (i *Instruction) Label(n int) string {
	l, _ := i.Operands[n].(LabelRef)
	return l.Name
}

// Var returns the variable operand at position n.
func (i *Instruction) Var(n int) VarRef {
	r, _ := i.Operands[n].(VarRef)
	return r
}

var (
	identRe = regexp.MustCompile(`^[A-Za-z_\-$&%*!?][A-Za-z0-9_\-$&%*!?]*$`)
)

// New validates raw and builds an Instruction.
func New(raw Raw) (*Instruction, error) {
	if raw.Order <= 0 {
		return nil, diag.Newf(diag.MalformedInstruction, "order must be positive, got %d", raw.Order)
	}

	op, ok := ParseOpcode(raw.Opcode)
	if !ok {
		return nil, &diag.Error{Kind: diag.UnknownOpcode, Order: raw.Order, Opcode: raw.Opcode}
	}

	sig := signatures[op]
	if len(raw.Args) != op.Arity() {
		return nil, &diag.Error{
			Kind:   diag.MalformedInstruction,
			Order:  raw.Order,
			Opcode: op.String(),
			Msg:    fmt.Sprintf("expected %d operand(s), got %d", op.Arity(), len(raw.Args)),
		}
	}

	ins := &Instruction{Order: raw.Order, Op: op, Operands: make([]Operand, len(sig))}
	for n, arg := range raw.Args {
		o, err := decodeOperand(sig[n], arg)
		if err != nil {
			return nil, diag.At(err, raw.Order, op.String())
		}
		ins.Operands[n] = o
	}

	return ins, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(order int, opcode string, args ...RawArg) *Instruction {
	ins, err := New(Raw{Order: order, Opcode: opcode, Args: args})
	if err != nil {
		panic(err)
	}
	return ins
}

// Arg parses the short form "GF@x", "int@5", "label:loop" or "type:int" into a RawArg.
func Arg(s string) RawArg {
	if name, ok := strings.CutPrefix(s, "label:"); ok {
		return RawArg{Type: "label", Text: name}
	}
	if name, ok := strings.CutPrefix(s, "type:"); ok {
		return RawArg{Type: "type", Text: name}
	}
	prefix, text, _ := strings.Cut(s, "@")
	if _, ok := frame.ParseKind(prefix); ok {
		return RawArg{Type: "var", Text: s}
	}
	return RawArg{Type: prefix, Text: text}
}

func decodeOperand(sl slot, arg RawArg) (Operand, error) {
	switch sl.kind {
	case slotVar:
		if arg.Type != "var" {
			return nil, mismatch("variable", arg)
		}
		return parseVar(arg.Text)

	case slotLabel:
		if arg.Type != "label" {
			return nil, mismatch("label", arg)
		}
		if !identRe.MatchString(arg.Text) {
			return nil, diag.Newf(diag.MalformedInstruction, "invalid label name %q", arg.Text)
		}
		return LabelRef{Name: arg.Text}, nil

	case slotType:
		if arg.Type != "type" {
			return nil, mismatch("type", arg)
		}
		k, ok := value.ParseKind(arg.Text)
		if !ok || k == value.KindNil {
			return nil, diag.Newf(diag.MalformedInstruction, "invalid type %q", arg.Text)
		}
		return TypeTag{Kind: k}, nil

	default:
		if arg.Type == "var" {
			return parseVar(arg.Text)
		}
		k, ok := value.ParseKind(arg.Type)
		if !ok {
			return nil, mismatch("symbol", arg)
		}
		v, err := value.Parse(k, arg.Text)
		if err != nil {
			return nil, err
		}
		if len(sl.literals) > 0 && !slices.Contains(sl.literals, k) {
			return nil, diag.Newf(diag.TypeMismatch, "literal %s not allowed here", v.Literal())
		}
		return Literal{Value: v}, nil
	}
}

func parseVar(text string) (Operand, error) {
	prefix, name, found := strings.Cut(text, "@")
	fk, ok := frame.ParseKind(prefix)
	if !found || !ok || !identRe.MatchString(name) {
		return nil, diag.Newf(diag.MalformedInstruction, "invalid variable %q", text)
	}
	return VarRef{Frame: fk, Name: name}, nil
}

func mismatch(want string, arg RawArg) error {
	return diag.Newf(diag.MalformedInstruction, "expected %s operand, got %s %q", want, arg.Type, arg.Text)
}
