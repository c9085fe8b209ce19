package interpreter

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"ippvm/pkg/value"
)

// Input supplies values to READ. ReadValue returns io.EOF once the input is
// exhausted; a line that cannot be converted to kind yields nil.
type Input interface {
	ReadValue(kind value.Kind) (value.Value, error)
}

// LineInput reads one value per line.
type LineInput struct {
	sc *bufio.Scanner
}

// NewLineInput creates an Input reading lines from r
func NewLineInput(r io.Reader) *LineInput {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), math.MaxInt)
	return &LineInput{sc: sc}
}

func (l *LineInput) ReadValue(kind value.Kind) (value.Value, error) {
	if !l.sc.Scan() {
		if err := l.sc.Err(); err != nil {
			return value.Nil(), err
		}
		return value.Nil(), io.EOF
	}
	return convertLine(l.sc.Text(), kind), nil
}

func convertLine(line string, kind value.Kind) value.Value {
	switch kind {
	case value.KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil {
			return value.Nil()
		}
		return value.Int(n)
	case value.KindBool:
		return value.Bool(strings.EqualFold(strings.TrimSpace(line), "true"))
	case value.KindString:
		return value.Str(line)
	default:
		return value.Nil()
	}
}

// eofInput is the default Input; every read hits end of input.
type eofInput struct{}

func (eofInput) ReadValue(value.Kind) (value.Value, error) {
	return value.Nil(), io.EOF
}
