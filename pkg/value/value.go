package value

import (
	"fmt"
	"strconv"
	"strings"

	"ippvm/pkg/diag"
)

type Kind int

const (
	KindNil Kind = iota
	KindInt
	KindBool
	KindString
)

// String returns the IPPcode23 type name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a type name such as "int" to its Kind.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "nil":
		return KindNil, true
	case "int":
		return KindInt, true
	case "bool":
		return KindBool, true
	case "string":
		return KindString, true
	}
	return KindNil, false
}

// Value represents an immutable runtime datum. The zero Value is nil.
type Value struct {
	kind Kind
	i64  int64
	b    bool
	str  string
}

// Int creates a new integer Value.
func Int(i int64) Value {
	return Value{kind: KindInt, i64: i}
}

// Bool creates a new boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Str creates a new string Value.
func Str(s string) Value {
	return Value{kind: KindString, str: s}
}

// Nil returns the nil Value.
func Nil() Value {
	return Value{}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool { return v.kind == KindNil }

// AsInt returns the integer payload or a TypeMismatch error.
func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, diag.Newf(diag.TypeMismatch, "expected int, got %s", v.kind)
	}
	return v.i64, nil
}

// AsBool returns the boolean payload or a TypeMismatch error.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, diag.Newf(diag.TypeMismatch, "expected bool, got %s", v.kind)
	}
	return v.b, nil
}

// AsString returns the string payload or a TypeMismatch error.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", diag.Newf(diag.TypeMismatch, "expected string, got %s", v.kind)
	}
	return v.str, nil
}

// String renders the value the way WRITE prints it.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i64, 10)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindString:
		return v.str
	default:
		return ""
	}
}

// Literal renders the value in its source form, e.g. int@5 or nil@nil.
func (v Value) Literal() string {
	if v.kind == KindNil {
		return "nil@nil"
	}
	return v.kind.String() + "@" + v.String()
}

// Equal compares two values. Values of different kinds are only comparable
// when one of them is nil.
func Equal(a, b Value) (bool, error) {
	if a.kind == KindNil || b.kind == KindNil {
		return a.kind == b.kind, nil
	}
	if a.kind != b.kind {
		return false, diag.Newf(diag.TypeMismatch, "cannot compare %s with %s", a.kind, b.kind)
	}
	return a == b, nil
}

// Less reports a < b for two values of the same non-nil kind.
func Less(a, b Value) (bool, error) {
	if a.kind != b.kind || a.kind == KindNil {
		return false, diag.Newf(diag.TypeMismatch, "cannot order %s and %s", a.kind, b.kind)
	}
	switch a.kind {
	case KindInt:
		return a.i64 < b.i64, nil
	case KindBool:
		return !a.b && b.b, nil
	default:
		return a.str < b.str, nil
	}
}

// parseInt accepts decimal, 0x hexadecimal and 0o octal, with an optional
// sign. Underscores, 0b and bare leading zeros are rejected.
func parseInt(text string) (int64, error) {
	digits := strings.TrimLeft(text, "+-")
	if len(text)-len(digits) > 1 || strings.ContainsRune(digits, '_') {
		return 0, strconv.ErrSyntax
	}
	if len(digits) > 1 && digits[0] == '0' {
		switch digits[1] {
		case 'x', 'X', 'o', 'O':
		default:
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.ParseInt(text, 0, 64)
}

// Parse decodes literal text of the given kind, e.g. ("int", "-0x1F").
func Parse(kind Kind, text string) (Value, error) {
	switch kind {
	case KindInt:
		i, err := parseInt(text)
		if err != nil {
			return Value{}, diag.Newf(diag.MalformedInstruction, "invalid int literal %q", text)
		}
		return Int(i), nil
	case KindBool:
		switch text {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return Value{}, diag.Newf(diag.MalformedInstruction, "invalid bool literal %q", text)
	case KindString:
		s, err := Unescape(text)
		if err != nil {
			return Value{}, err
		}
		return Str(s), nil
	default:
		if text != "nil" {
			return Value{}, diag.Newf(diag.MalformedInstruction, "invalid nil literal %q", text)
		}
		return Nil(), nil
	}
}

// Unescape decodes \ddd decimal escape sequences in string literal text.
func Unescape(text string) (string, error) {
	if !strings.ContainsRune(text, '\\') {
		return text, nil
	}

	var b strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' {
			b.WriteRune(runes[i])
			continue
		}
		if i+3 >= len(runes) {
			return "", diag.Newf(diag.MalformedInstruction, "truncated escape in %q", text)
		}
		code := 0
		for _, d := range runes[i+1 : i+4] {
			if d < '0' || d > '9' {
				return "", diag.Newf(diag.MalformedInstruction, "invalid escape in %q", text)
			}
			code = code*10 + int(d-'0')
		}
		b.WriteRune(rune(code))
		i += 3
	}
	return b.String(), nil
}
