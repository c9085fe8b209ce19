package interpreter

import (
	"ippvm/pkg/diag"
	"ippvm/pkg/stack"
	"ippvm/pkg/value"
)

// OperandStack is the data stack used by PUSHS, POPS and the stack
// variants of the arithmetic instructions. It does not check types.
type OperandStack struct {
	s *stack.Stack[value.Value]
}

func NewOperandStack() *OperandStack {
	return &OperandStack{s: stack.New[value.Value]()}
}

func (o *OperandStack) Push(v value.Value) {
	o.s.Push(v)
}

// Pop removes the top value, failing with StackUnderflow when empty.
func (o *OperandStack) Pop() (value.Value, error) {
	v, ok := o.s.Pop()
	if !ok {
		return value.Nil(), diag.New(diag.StackUnderflow, "data stack is empty")
	}
	return v, nil
}

// Peek returns the top value without removing it.
func (o *OperandStack) Peek() (value.Value, error) {
	v, ok := o.s.Peek()
	if !ok {
		return value.Nil(), diag.New(diag.StackUnderflow, "data stack is empty")
	}
	return v, nil
}

func (o *OperandStack) Clear() {
	o.s.Clear()
}

func (o *OperandStack) Len() int {
	return o.s.Size()
}

// Values returns a copy of the stack contents, bottom first.
func (o *OperandStack) Values() []value.Value {
	return o.s.Array()
}
