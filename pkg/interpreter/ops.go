package interpreter

import (
	"unicode/utf8"

	"ippvm/pkg/diag"
	"ippvm/pkg/value"
)

func intPair(a, b value.Value) (int64, int64, error) {
	x, err := a.AsInt()
	if err != nil {
		return 0, 0, err
	}
	y, err := b.AsInt()
	return x, y, err
}

func addInts(a, b value.Value) (value.Value, error) {
	x, y, err := intPair(a, b)
	if err != nil {
		return value.Nil(), err
	}
	return value.Int(x + y), nil
}

func subInts(a, b value.Value) (value.Value, error) {
	x, y, err := intPair(a, b)
	if err != nil {
		return value.Nil(), err
	}
	return value.Int(x - y), nil
}

func mulInts(a, b value.Value) (value.Value, error) {
	x, y, err := intPair(a, b)
	if err != nil {
		return value.Nil(), err
	}
	return value.Int(x * y), nil
}

// divInts is floor division, rounding toward negative infinity.
func divInts(a, b value.Value) (value.Value, error) {
	x, y, err := intPair(a, b)
	if err != nil {
		return value.Nil(), err
	}
	if y == 0 {
		return value.Nil(), diag.New(diag.DivisionByZero, "")
	}
	q := x / y
	if (x%y != 0) && ((x < 0) != (y < 0)) {
		q--
	}
	return value.Int(q), nil
}

func less(a, b value.Value) (value.Value, error) {
	r, err := value.Less(a, b)
	return value.Bool(r), err
}

func greater(a, b value.Value) (value.Value, error) {
	r, err := value.Less(b, a)
	return value.Bool(r), err
}

func equal(a, b value.Value) (value.Value, error) {
	r, err := value.Equal(a, b)
	return value.Bool(r), err
}

func boolPair(a, b value.Value) (bool, bool, error) {
	x, err := a.AsBool()
	if err != nil {
		return false, false, err
	}
	y, err := b.AsBool()
	return x, y, err
}

func and(a, b value.Value) (value.Value, error) {
	x, y, err := boolPair(a, b)
	return value.Bool(x && y), err
}

func or(a, b value.Value) (value.Value, error) {
	x, y, err := boolPair(a, b)
	return value.Bool(x || y), err
}

func not(a value.Value) (value.Value, error) {
	x, err := a.AsBool()
	return value.Bool(!x), err
}

func int2char(a value.Value) (value.Value, error) {
	n, err := a.AsInt()
	if err != nil {
		return value.Nil(), err
	}
	if n < 0 || n > utf8.MaxRune || !utf8.ValidRune(rune(n)) {
		return value.Nil(), diag.Newf(diag.InvalidOperand, "%d is not a valid code point", n)
	}
	return value.Str(string(rune(n))), nil
}

// runeAt returns the code point of s at idx.
func runeAt(s, idx value.Value) (rune, error) {
	str, err := s.AsString()
	if err != nil {
		return 0, err
	}
	n, err := idx.AsInt()
	if err != nil {
		return 0, err
	}
	runes := []rune(str)
	if n < 0 || n >= int64(len(runes)) {
		return 0, diag.Newf(diag.InvalidOperand, "index %d out of range for string of length %d", n, len(runes))
	}
	return runes[n], nil
}

func stri2int(s, idx value.Value) (value.Value, error) {
	r, err := runeAt(s, idx)
	if err != nil {
		return value.Nil(), err
	}
	return value.Int(int64(r)), nil
}

func getchar(s, idx value.Value) (value.Value, error) {
	r, err := runeAt(s, idx)
	if err != nil {
		return value.Nil(), err
	}
	return value.Str(string(r)), nil
}

func concat(a, b value.Value) (value.Value, error) {
	x, err := a.AsString()
	if err != nil {
		return value.Nil(), err
	}
	y, err := b.AsString()
	if err != nil {
		return value.Nil(), err
	}
	return value.Str(x + y), nil
}

func strlen(a value.Value) (value.Value, error) {
	s, err := a.AsString()
	if err != nil {
		return value.Nil(), err
	}
	return value.Int(int64(utf8.RuneCountInString(s))), nil
}
