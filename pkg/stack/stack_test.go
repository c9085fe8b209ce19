package stack_test

import (
	"ippvm/pkg/stack"
	"testing"
)

func TestPushPop(t *testing.T) {
	s := stack.New(1, 2)
	s.Push(3)

	for _, expected := range []int{3, 2, 1} {
		got, ok := s.Pop()
		if !ok {
			t.Fatalf("expected %d, stack was empty", expected)
		}
		if got != expected {
			t.Errorf("expected %d, got %d", expected, got)
		}
	}

	if _, ok := s.Pop(); ok {
		t.Errorf("expected pop on empty stack to fail")
	}
	if s.Size() != 0 {
		t.Errorf("expected size 0, got %d", s.Size())
	}
}

func TestPeekAndClear(t *testing.T) {
	s := stack.New[string]()
	if _, ok := s.Peek(); ok {
		t.Errorf("expected peek on empty stack to fail")
	}

	s.Push("a")
	s.Push("b")
	if top, _ := s.Peek(); top != "b" {
		t.Errorf("expected top b, got %q", top)
	}
	if s.Size() != 2 {
		t.Errorf("peek must not remove, size is %d", s.Size())
	}

	s.Clear()
	if s.Size() != 0 || len(s.Array()) != 0 {
		t.Errorf("expected empty stack after clear")
	}
	s.Push("c")
	if top, _ := s.Pop(); top != "c" {
		t.Errorf("expected c after clear and push, got %q", top)
	}
}

func TestArrayIsACopy(t *testing.T) {
	s := stack.New(1, 2, 3)
	arr := s.Array()
	arr[2] = 99

	if top, _ := s.Peek(); top != 3 {
		t.Errorf("expected top 3 after mutating the copy, got %d", top)
	}
}
