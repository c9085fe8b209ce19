package frame_test

import (
	"bytes"
	"strings"
	"testing"

	"ippvm/pkg/diag"
	"ippvm/pkg/frame"
	"ippvm/pkg/value"
)

func expectKind(t *testing.T, err error, kind diag.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := diag.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

func TestReadBeforeWrite(t *testing.T) {
	s := frame.NewStore()
	if err := s.Declare(frame.Global, "x"); err != nil {
		t.Fatalf("declare: %v", err)
	}

	_, err := s.Read(frame.Global, "x")
	expectKind(t, err, diag.MissingValue)

	v, set, err := s.Lookup(frame.Global, "x")
	if err != nil || set || !v.IsNil() {
		t.Errorf("lookup of uninitialized variable: got %v, %v, %v", v, set, err)
	}
}

func TestWriteThenRead(t *testing.T) {
	s := frame.NewStore()
	if err := s.Declare(frame.Global, "x"); err != nil {
		t.Fatalf("declare: %v", err)
	}

	for _, v := range []value.Value{value.Int(5), value.Str("a"), value.Nil(), value.Bool(true)} {
		if err := s.Write(frame.Global, "x", v); err != nil {
			t.Fatalf("write %v: %v", v, err)
		}
		got, err := s.Read(frame.Global, "x")
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if got != v {
			t.Errorf("expected %s, got %s", v.Literal(), got.Literal())
		}
	}
}

func TestDeclareErrors(t *testing.T) {
	s := frame.NewStore()
	if err := s.Declare(frame.Global, "x"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	expectKind(t, s.Declare(frame.Global, "x"), diag.Redeclaration)
	expectKind(t, s.Write(frame.Global, "y", value.Int(1)), diag.VariableNotDeclared)
	_, err := s.Read(frame.Global, "y")
	expectKind(t, err, diag.VariableNotDeclared)
	expectKind(t, s.Declare(frame.Local, "x"), diag.FrameNotExists)
}

func TestTemporaryLifecycle(t *testing.T) {
	s := frame.NewStore()

	expectKind(t, s.Declare(frame.Temporary, "y"), diag.FrameNotExists)
	_, err := s.Read(frame.Temporary, "y")
	expectKind(t, err, diag.FrameNotExists)
	expectKind(t, s.PushTemporary(), diag.FrameNotExists)

	s.CreateTemporary()
	if err := s.Declare(frame.Temporary, "y"); err != nil {
		t.Fatalf("declare in TF: %v", err)
	}
	_, err = s.Read(frame.Temporary, "y")
	expectKind(t, err, diag.MissingValue)

	if err := s.PushTemporary(); err != nil {
		t.Fatalf("push: %v", err)
	}
	if s.HasTemporary() {
		t.Errorf("temporary frame must not exist after push")
	}
	_, err = s.Read(frame.Temporary, "y")
	expectKind(t, err, diag.FrameNotExists)

	// the pushed frame is now the local frame, declared but uninitialized
	_, err = s.Read(frame.Local, "y")
	expectKind(t, err, diag.MissingValue)
	if err := s.Write(frame.Local, "y", value.Int(7)); err != nil {
		t.Fatalf("write LF: %v", err)
	}

	if err := s.PopLocal(); err != nil {
		t.Fatalf("pop: %v", err)
	}
	got, err := s.Read(frame.Temporary, "y")
	if err != nil || got != value.Int(7) {
		t.Errorf("expected TF@y = int@7 after pop, got %v (%v)", got.Literal(), err)
	}
	expectKind(t, s.PopLocal(), diag.MissingLocalFrame)
}

// Local variables resolve against the top local frame only.
func TestLocalScopingIsTopOfStackOnly(t *testing.T) {
	s := frame.NewStore()

	s.CreateTemporary()
	_ = s.Declare(frame.Temporary, "outer")
	_ = s.PushTemporary()

	s.CreateTemporary()
	_ = s.PushTemporary()

	if s.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", s.Depth())
	}
	_, err := s.Read(frame.Local, "outer")
	expectKind(t, err, diag.VariableNotDeclared)
	if err := s.Declare(frame.Local, "outer"); err != nil {
		t.Errorf("shadowing a name of a lower frame must be allowed: %v", err)
	}
}

func TestErrorsCarryVariable(t *testing.T) {
	s := frame.NewStore()
	_, err := s.Read(frame.Temporary, "z")
	if err == nil || !strings.Contains(err.Error(), "TF@z") {
		t.Errorf("expected error mentioning TF@z, got %v", err)
	}
}

func TestDump(t *testing.T) {
	s := frame.NewStore()
	_ = s.Declare(frame.Global, "b")
	_ = s.Declare(frame.Global, "a")
	_ = s.Write(frame.Global, "a", value.Int(1))

	var buf bytes.Buffer
	s.Dump(&buf)
	out := buf.String()

	for _, want := range []string{"GF: 2 variable(s)", "a = int@1", "b = <uninitialized>", "TF: <undefined>"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "a = ") > strings.Index(out, "b = ") {
		t.Errorf("expected variables sorted by name:\n%s", out)
	}
}
