package frame

import (
	"fmt"
	"io"
	"sort"

	"ippvm/pkg/diag"
	"ippvm/pkg/stack"
	"ippvm/pkg/value"
)

// Kind selects one of the three frame categories.
type Kind int

const (
	Global Kind = iota
	Local
	Temporary
)

// String returns the source prefix of the frame, e.g. "GF".
func (k Kind) String() string {
	switch k {
	case Global:
		return "GF"
	case Local:
		return "LF"
	case Temporary:
		return "TF"
	default:
		return fmt.Sprintf("frame(%d)", int(k))
	}
}

// ParseKind maps "GF", "LF" or "TF" to a Kind.
func ParseKind(prefix string) (Kind, bool) {
	switch prefix {
	case "GF":
		return Global, true
	case "LF":
		return Local, true
	case "TF":
		return Temporary, true
	}
	return Global, false
}

// slot holds a declared variable; set is false until the first write.
type slot struct {
	val value.Value
	set bool
}

// Frame maps variable names to their slots.
type Frame struct {
	vars map[string]slot
}

func newFrame() *Frame {
	return &Frame{vars: make(map[string]slot)}
}

// Len returns the number of declared variables.
func (f *Frame) Len() int {
	return len(f.vars)
}

// Store owns the global frame, the local frame stack and the temporary frame.
type Store struct {
	global *Frame
	locals *stack.Stack[*Frame]
	temp   *Frame // nil while no temporary frame exists
}

// NewStore creates a store with an empty global frame and no local or
// temporary frames.
func NewStore() *Store {
	return &Store{
		global: newFrame(),
		locals: stack.New[*Frame](),
	}
}

// frame resolves kind to the frame currently serving it.
func (s *Store) frame(kind Kind) (*Frame, error) {
	switch kind {
	case Global:
		return s.global, nil
	case Local:
		f, ok := s.locals.Peek()
		if !ok {
			return nil, diag.New(diag.FrameNotExists, "local frame stack is empty")
		}
		return f, nil
	case Temporary:
		if s.temp == nil {
			return nil, diag.New(diag.FrameNotExists, "temporary frame is not created")
		}
		return s.temp, nil
	default:
		return nil, diag.Newf(diag.Internal, "unknown frame kind %d", int(kind))
	}
}

func ref(kind Kind, name string) string {
	return kind.String() + "@" + name
}

func withVar(err error, kind Kind, name string) error {
	if e, ok := err.(*diag.Error); ok {
		e.Var = ref(kind, name)
	}
	return err
}

// Declare adds an uninitialized variable to the frame.
func (s *Store) Declare(kind Kind, name string) error {
	f, err := s.frame(kind)
	if err != nil {
		return withVar(err, kind, name)
	}
	if _, ok := f.vars[name]; ok {
		return diag.Variable(diag.Redeclaration, ref(kind, name))
	}
	f.vars[name] = slot{}
	return nil
}

// Lookup returns the variable's value and whether it was ever written.
// Unlike Read it does not fail on uninitialized variables.
func (s *Store) Lookup(kind Kind, name string) (value.Value, bool, error) {
	f, err := s.frame(kind)
	if err != nil {
		return value.Nil(), false, withVar(err, kind, name)
	}
	sl, ok := f.vars[name]
	if !ok {
		return value.Nil(), false, diag.Variable(diag.VariableNotDeclared, ref(kind, name))
	}
	return sl.val, sl.set, nil
}

// Read returns the variable's value.
func (s *Store) Read(kind Kind, name string) (value.Value, error) {
	v, set, err := s.Lookup(kind, name)
	if err != nil {
		return value.Nil(), err
	}
	if !set {
		return value.Nil(), diag.Variable(diag.MissingValue, ref(kind, name))
	}
	return v, nil
}

// Write stores v into a declared variable.
func (s *Store) Write(kind Kind, name string, v value.Value) error {
	f, err := s.frame(kind)
	if err != nil {
		return withVar(err, kind, name)
	}
	if _, ok := f.vars[name]; !ok {
		return diag.Variable(diag.VariableNotDeclared, ref(kind, name))
	}
	f.vars[name] = slot{val: v, set: true}
	return nil
}

// CreateTemporary replaces the temporary frame with a fresh empty one.
func (s *Store) CreateTemporary() {
	s.temp = newFrame()
}

// PushTemporary moves the temporary frame onto the local frame stack.
func (s *Store) PushTemporary() error {
	if s.temp == nil {
		return diag.New(diag.FrameNotExists, "temporary frame is not created")
	}
	s.locals.Push(s.temp)
	s.temp = nil
	return nil
}

// PopLocal moves the top local frame into the temporary slot, discarding
// any existing temporary frame.
func (s *Store) PopLocal() error {
	f, ok := s.locals.Pop()
	if !ok {
		return diag.New(diag.MissingLocalFrame, "local frame stack is empty")
	}
	s.temp = f
	return nil
}

// Depth returns the number of frames on the local frame stack.
func (s *Store) Depth() int {
	return s.locals.Size()
}

// HasTemporary reports whether a temporary frame exists.
func (s *Store) HasTemporary() bool {
	return s.temp != nil
}

// Dump writes a readable listing of every frame to w.
func (s *Store) Dump(w io.Writer) {
	dumpFrame(w, "GF", s.global)
	locals := s.locals.Array()
	for i := len(locals) - 1; i >= 0; i-- {
		dumpFrame(w, fmt.Sprintf("LF[%d]", len(locals)-1-i), locals[i])
	}
	if s.temp != nil {
		dumpFrame(w, "TF", s.temp)
	} else {
		fmt.Fprintln(w, "TF: <undefined>")
	}
}

func dumpFrame(w io.Writer, title string, f *Frame) {
	names := make([]string, 0, f.Len())
	for n := range f.vars {
		names = append(names, n)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "%s: %d variable(s)\n", title, f.Len())
	for _, n := range names {
		sl := f.vars[n]
		if !sl.set {
			fmt.Fprintf(w, "  %s = <uninitialized>\n", n)
			continue
		}
		fmt.Fprintf(w, "  %s = %s\n", n, sl.val.Literal())
	}
}
