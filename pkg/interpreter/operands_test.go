package interpreter_test

import (
	"testing"

	"ippvm/pkg/diag"
	"ippvm/pkg/interpreter"
	"ippvm/pkg/value"
)

func TestOperandStackLIFO(t *testing.T) {
	s := interpreter.NewOperandStack()
	values := []value.Value{value.Int(1), value.Str("two"), value.Nil(), value.Bool(true)}
	for _, v := range values {
		s.Push(v)
		if top, err := s.Peek(); err != nil || top != v {
			t.Errorf("peek after push %s: got %s (%v)", v.Literal(), top.Literal(), err)
		}
	}

	for n := len(values) - 1; n >= 0; n-- {
		got, err := s.Pop()
		if err != nil {
			t.Fatalf("pop: %v", err)
		}
		if got != values[n] {
			t.Errorf("expected %s, got %s", values[n].Literal(), got.Literal())
		}
	}
}

func TestOperandStackUnderflow(t *testing.T) {
	s := interpreter.NewOperandStack()
	if _, err := s.Pop(); diag.KindOf(err) != diag.StackUnderflow {
		t.Errorf("expected %s on empty pop, got %v", diag.StackUnderflow, err)
	}
	if _, err := s.Peek(); diag.KindOf(err) != diag.StackUnderflow {
		t.Errorf("expected %s on empty peek, got %v", diag.StackUnderflow, err)
	}

	s.Push(value.Int(1))
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("expected empty stack after clear, got %d", s.Len())
	}
	if _, err := s.Pop(); diag.KindOf(err) != diag.StackUnderflow {
		t.Errorf("expected %s after clear, got %v", diag.StackUnderflow, err)
	}
}

func TestOperandStackValuesIsACopy(t *testing.T) {
	s := interpreter.NewOperandStack()
	s.Push(value.Int(1))
	s.Push(value.Int(2))

	vals := s.Values()
	vals[1] = value.Str("changed")

	top, err := s.Peek()
	if err != nil || top != value.Int(2) {
		t.Errorf("expected int@2 on top, got %s (%v)", top.Literal(), err)
	}
}
