package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies every failure the engine can report.
type Kind int

const (
	KindUnknown Kind = iota
	MalformedInstruction
	UnknownOpcode
	DuplicateLabel
	UndefinedLabel
	Redeclaration
	VariableNotDeclared
	MissingValue
	FrameNotExists
	MissingLocalFrame
	MissingCallFrame
	StackUnderflow
	TypeMismatch
	DivisionByZero
	InvalidExitCode
	InvalidOperand
	Aborted
	Internal
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	MalformedInstruction: "malformed instruction",
	UnknownOpcode:        "unknown opcode",
	DuplicateLabel:       "duplicate label",
	UndefinedLabel:       "undefined label",
	Redeclaration:        "variable redeclaration",
	VariableNotDeclared:  "variable not declared",
	MissingValue:         "missing value",
	FrameNotExists:       "frame does not exist",
	MissingLocalFrame:    "no local frame",
	MissingCallFrame:     "empty call stack",
	StackUnderflow:       "stack underflow",
	TypeMismatch:         "operand type mismatch",
	DivisionByZero:       "division by zero",
	InvalidExitCode:      "invalid exit code",
	InvalidOperand:       "invalid operand value",
	Aborted:              "execution aborted",
	Internal:             "internal error",
}

// String returns a human readable name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ExitCode maps the kind to the process exit status used by the reference
// interpreter's error table.
func (k Kind) ExitCode() int {
	switch k {
	case MalformedInstruction, UnknownOpcode:
		return 32
	case DuplicateLabel, UndefinedLabel, Redeclaration:
		return 52
	case TypeMismatch:
		return 53
	case VariableNotDeclared:
		return 54
	case FrameNotExists, MissingLocalFrame:
		return 55
	case MissingValue, MissingCallFrame, StackUnderflow:
		return 56
	case DivisionByZero, InvalidExitCode:
		return 57
	case InvalidOperand:
		return 58
	case Aborted:
		return 124
	default:
		return 99
	}
}

// Error is the structured error produced by every engine package. Order,
// Opcode and Var are filled in as the error travels up through the core.
type Error struct {
	Kind   Kind
	Order  int    // instruction order number, 0 when not tied to an instruction
	Opcode string // opcode name of the failing instruction
	Var    string // variable involved, e.g. "GF@x"
	Msg    string
	Err    error // underlying cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Order > 0 {
		fmt.Fprintf(&b, "instruction %d", e.Order)
		if e.Opcode != "" {
			fmt.Fprintf(&b, " (%s)", e.Opcode)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Var != "" {
		fmt.Fprintf(&b, " `%s`", e.Var)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the original error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, diag.Sentinel(diag.StackUnderflow)) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Order == 0 && t.Msg == "" && t.Var == ""
}

// New creates an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Variable creates an error about a single variable.
func Variable(kind Kind, name string) *Error {
	return &Error{Kind: kind, Var: name}
}

// Wrap wraps cause into an error of the given kind.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Sentinel returns a bare error of the given kind for use with errors.Is.
func Sentinel(kind Kind) error {
	return &Error{Kind: kind}
}

// KindOf extracts the kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ExitCode returns the exit status for err; nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}

// At attaches instruction context to err. Errors that already carry an
// order are returned untouched; foreign errors are wrapped as Internal.
func At(err error, order int, opcode string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return &Error{Kind: Internal, Order: order, Opcode: opcode, Err: err}
	}
	if e.Order != 0 {
		return err
	}
	c := *e
	c.Order = order
	c.Opcode = opcode
	return &c
}
