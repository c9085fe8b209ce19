package flow

import (
	"sort"

	"ippvm/pkg/diag"
	"ippvm/pkg/instruction"
	"ippvm/pkg/stack"
)

// Controller owns the ordered program, its label table, the instruction
// pointer and the call-return stack.
type Controller struct {
	prog   []*instruction.Instruction // sorted by order, read-only after New
	labels map[string]int             // label name -> position in prog
	ip     int
	calls  *stack.Stack[int]

	transferred bool // set when the current instruction moved ip itself
	halted      bool
}

// New sorts instrs by order and indexes labels. Duplicate orders, duplicate
// labels and references to undefined labels are reported here, before any
// instruction runs.
func New(instrs []*instruction.Instruction) (*Controller, error) {
	prog := append([]*instruction.Instruction(nil), instrs...)
	sort.SliceStable(prog, func(a, b int) bool { return prog[a].Order < prog[b].Order })

	for i := 1; i < len(prog); i++ {
		if prog[i].Order == prog[i-1].Order {
			return nil, &diag.Error{
				Kind:  diag.MalformedInstruction,
				Order: prog[i].Order,
				Msg:   "duplicate instruction order",
			}
		}
	}

	c := &Controller{
		prog:  prog,
		calls: stack.New[int](),
	}
	if err := c.ResolveLabels(); err != nil {
		return nil, err
	}

	for _, ins := range prog {
		if !ins.Op.IsJump() {
			continue
		}
		if _, ok := c.labels[ins.Label(0)]; !ok {
			return nil, &diag.Error{
				Kind:   diag.UndefinedLabel,
				Order:  ins.Order,
				Opcode: ins.Op.String(),
				Msg:    ins.Label(0),
			}
		}
	}

	return c, nil
}

// ResolveLabels rebuilds the label table from LABEL instructions.
func (c *Controller) ResolveLabels() error {
	labels := make(map[string]int)
	for idx, ins := range c.prog {
		if ins.Op != instruction.OpLabel {
			continue
		}
		name := ins.Label(0)
		if _, ok := labels[name]; ok {
			return &diag.Error{
				Kind:   diag.DuplicateLabel,
				Order:  ins.Order,
				Opcode: ins.Op.String(),
				Msg:    name,
			}
		}
		labels[name] = idx
	}
	c.labels = labels
	return nil
}

// Fetch returns the instruction at ip, or false once execution ran off the
// end of the program or was halted.
func (c *Controller) Fetch() (*instruction.Instruction, bool) {
	c.transferred = false
	if c.halted || c.ip < 0 || c.ip >= len(c.prog) {
		return nil, false
	}
	return c.prog[c.ip], true
}

// Advance moves to the next instruction.
func (c *Controller) Advance() {
	c.ip++
}

// Jump sets ip to the label's position.
func (c *Controller) Jump(label string) error {
	pos, ok := c.labels[label]
	if !ok {
		return diag.New(diag.UndefinedLabel, label)
	}
	c.ip = pos
	c.transferred = true
	return nil
}

// ConditionalJump jumps only when cond holds; otherwise the instruction
// falls through to the next one.
func (c *Controller) ConditionalJump(label string, cond bool) error {
	if !cond {
		return nil
	}
	return c.Jump(label)
}

// Call pushes the position after the current instruction and jumps.
func (c *Controller) Call(label string) error {
	if _, ok := c.labels[label]; !ok {
		return diag.New(diag.UndefinedLabel, label)
	}
	c.calls.Push(c.ip + 1)
	return c.Jump(label)
}

// Return resumes at the most recently pushed return position.
func (c *Controller) Return() error {
	pos, ok := c.calls.Pop()
	if !ok {
		return diag.New(diag.MissingCallFrame, "return without call")
	}
	c.ip = pos
	c.transferred = true
	return nil
}

// Halt stops execution; subsequent fetches return nothing.
func (c *Controller) Halt() {
	c.halted = true
	c.transferred = true
}

// Transferred reports whether the current instruction moved ip itself.
func (c *Controller) Transferred() bool {
	return c.transferred
}

func (c *Controller) IP() int { return c.ip }

func (c *Controller) Len() int { return len(c.prog) }

func (c *Controller) Halted() bool { return c.halted }

// CallDepth returns the number of pending returns.
func (c *Controller) CallDepth() int {
	return c.calls.Size()
}

// Label returns the position of a label.
func (c *Controller) Label(name string) (int, bool) {
	pos, ok := c.labels[name]
	return pos, ok
}

// Program returns the ordered instruction sequence.
func (c *Controller) Program() []*instruction.Instruction {
	return c.prog
}
