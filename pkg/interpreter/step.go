package interpreter

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"ippvm/pkg/diag"
	"ippvm/pkg/instruction"
	"ippvm/pkg/value"
)

// handler executes one instruction. It returns halted=true only for EXIT.
// Handlers that move ip go through the flow controller; the core advances
// past every other instruction.
type handler func(i *Interpreter, in *instruction.Instruction) (halted bool, err error)

type binaryFunc func(a, b value.Value) (value.Value, error)

type unaryFunc func(a value.Value) (value.Value, error)

// dispatch maps every opcode to its handler. Unknown opcodes are rejected
// when instructions are built, so the table is total.
var dispatch = [instruction.NumOpcodes]handler{
	instruction.OpMove:        execMove,
	instruction.OpCreateFrame: execCreateFrame,
	instruction.OpPushFrame:   execPushFrame,
	instruction.OpPopFrame:    execPopFrame,
	instruction.OpDefVar:      execDefVar,
	instruction.OpCall:        execCall,
	instruction.OpReturn:      execReturn,

	instruction.OpPushs:  execPushs,
	instruction.OpPops:   execPops,
	instruction.OpClears: execClears,

	instruction.OpAdd:      binary(addInts),
	instruction.OpSub:      binary(subInts),
	instruction.OpMul:      binary(mulInts),
	instruction.OpIDiv:     binary(divInts),
	instruction.OpLt:       binary(less),
	instruction.OpGt:       binary(greater),
	instruction.OpEq:       binary(equal),
	instruction.OpAnd:      binary(and),
	instruction.OpOr:       binary(or),
	instruction.OpNot:      unary(not),
	instruction.OpInt2Char: unary(int2char),
	instruction.OpStri2Int: binary(stri2int),

	instruction.OpAdds:       stackBinary(addInts),
	instruction.OpSubs:       stackBinary(subInts),
	instruction.OpMuls:       stackBinary(mulInts),
	instruction.OpIDivs:      stackBinary(divInts),
	instruction.OpLts:        stackBinary(less),
	instruction.OpGts:        stackBinary(greater),
	instruction.OpEqs:        stackBinary(equal),
	instruction.OpAnds:       stackBinary(and),
	instruction.OpOrs:        stackBinary(or),
	instruction.OpNots:       stackUnary(not),
	instruction.OpInt2Chars:  stackUnary(int2char),
	instruction.OpStri2Ints:  stackBinary(stri2int),
	instruction.OpJumpIfEqs:  stackJump(true),
	instruction.OpJumpIfNeqs: stackJump(false),

	instruction.OpRead:  execRead,
	instruction.OpWrite: execWrite,

	instruction.OpConcat:  binary(concat),
	instruction.OpStrlen:  unary(strlen),
	instruction.OpGetChar: binary(getchar),
	instruction.OpSetChar: execSetChar,

	instruction.OpType: execType,

	instruction.OpLabel:     execLabel,
	instruction.OpJump:      execJump,
	instruction.OpJumpIfEq:  conditionalJump(true),
	instruction.OpJumpIfNeq: conditionalJump(false),
	instruction.OpExit:      execExit,

	instruction.OpDPrint: execDPrint,
	instruction.OpBreak:  execBreak,
}

// eval resolves a ⟨symb⟩ operand to its value.
func (i *Interpreter) eval(op instruction.Operand) (value.Value, error) {
	switch o := op.(type) {
	case instruction.Literal:
		return o.Value, nil
	case instruction.VarRef:
		return i.store.Read(o.Frame, o.Name)
	default:
		return value.Nil(), diag.Newf(diag.Internal, "operand %s is not a symbol", op)
	}
}

// assign stores v into the ⟨var⟩ operand.
func (i *Interpreter) assign(ref instruction.VarRef, v value.Value) error {
	return i.store.Write(ref.Frame, ref.Name, v)
}

func (i *Interpreter) evalPair(in *instruction.Instruction, first int) (value.Value, value.Value, error) {
	a, err := i.eval(in.Arg(first))
	if err != nil {
		return a, a, err
	}
	b, err := i.eval(in.Arg(first + 1))
	return a, b, err
}

// popPair pops the second operand, then the first one.
func (i *Interpreter) popPair() (value.Value, value.Value, error) {
	b, err := i.data.Pop()
	if err != nil {
		return b, b, err
	}
	a, err := i.data.Pop()
	return a, b, err
}

func binary(fn binaryFunc) handler {
	return func(i *Interpreter, in *instruction.Instruction) (bool, error) {
		a, b, err := i.evalPair(in, 1)
		if err != nil {
			return false, err
		}
		r, err := fn(a, b)
		if err != nil {
			return false, err
		}
		return false, i.assign(in.Var(0), r)
	}
}

func unary(fn unaryFunc) handler {
	return func(i *Interpreter, in *instruction.Instruction) (bool, error) {
		a, err := i.eval(in.Arg(1))
		if err != nil {
			return false, err
		}
		r, err := fn(a)
		if err != nil {
			return false, err
		}
		return false, i.assign(in.Var(0), r)
	}
}

func stackBinary(fn binaryFunc) handler {
	return func(i *Interpreter, in *instruction.Instruction) (bool, error) {
		a, b, err := i.popPair()
		if err != nil {
			return false, err
		}
		r, err := fn(a, b)
		if err != nil {
			return false, err
		}
		i.data.Push(r)
		return false, nil
	}
}

func stackUnary(fn unaryFunc) handler {
	return func(i *Interpreter, in *instruction.Instruction) (bool, error) {
		a, err := i.data.Pop()
		if err != nil {
			return false, err
		}
		r, err := fn(a)
		if err != nil {
			return false, err
		}
		i.data.Push(r)
		return false, nil
	}
}

func conditionalJump(onEqual bool) handler {
	return func(i *Interpreter, in *instruction.Instruction) (bool, error) {
		a, b, err := i.evalPair(in, 1)
		if err != nil {
			return false, err
		}
		eq, err := value.Equal(a, b)
		if err != nil {
			return false, err
		}
		return false, i.flow.ConditionalJump(in.Label(0), eq == onEqual)
	}
}

func stackJump(onEqual bool) handler {
	return func(i *Interpreter, in *instruction.Instruction) (bool, error) {
		a, b, err := i.popPair()
		if err != nil {
			return false, err
		}
		eq, err := value.Equal(a, b)
		if err != nil {
			return false, err
		}
		return false, i.flow.ConditionalJump(in.Label(0), eq == onEqual)
	}
}

// frames and calls

func execMove(i *Interpreter, in *instruction.Instruction) (bool, error) {
	v, err := i.eval(in.Arg(1))
	if err != nil {
		return false, err
	}
	return false, i.assign(in.Var(0), v)
}

func execCreateFrame(i *Interpreter, _ *instruction.Instruction) (bool, error) {
	i.store.CreateTemporary()
	return false, nil
}

func execPushFrame(i *Interpreter, _ *instruction.Instruction) (bool, error) {
	return false, i.store.PushTemporary()
}

func execPopFrame(i *Interpreter, _ *instruction.Instruction) (bool, error) {
	return false, i.store.PopLocal()
}

func execDefVar(i *Interpreter, in *instruction.Instruction) (bool, error) {
	ref := in.Var(0)
	return false, i.store.Declare(ref.Frame, ref.Name)
}

func execCall(i *Interpreter, in *instruction.Instruction) (bool, error) {
	return false, i.flow.Call(in.Label(0))
}

func execReturn(i *Interpreter, _ *instruction.Instruction) (bool, error) {
	return false, i.flow.Return()
}

// data stack

func execPushs(i *Interpreter, in *instruction.Instruction) (bool, error) {
	v, err := i.eval(in.Arg(0))
	if err != nil {
		return false, err
	}
	i.data.Push(v)
	return false, nil
}

func execPops(i *Interpreter, in *instruction.Instruction) (bool, error) {
	ref := in.Var(0)
	// check the destination first so a failing POPS leaves the stack intact
	if _, _, err := i.store.Lookup(ref.Frame, ref.Name); err != nil {
		return false, err
	}
	v, err := i.data.Pop()
	if err != nil {
		return false, err
	}
	return false, i.assign(ref, v)
}

func execClears(i *Interpreter, _ *instruction.Instruction) (bool, error) {
	i.data.Clear()
	return false, nil
}

// input/output

func execRead(i *Interpreter, in *instruction.Instruction) (bool, error) {
	ref := in.Var(0)
	if _, _, err := i.store.Lookup(ref.Frame, ref.Name); err != nil {
		return false, err
	}
	tag, _ := in.Arg(1).(instruction.TypeTag)
	v, err := i.in.ReadValue(tag.Kind)
	if errors.Is(err, io.EOF) {
		v, err = value.Nil(), nil
	}
	if err != nil {
		return false, diag.Wrap(diag.Internal, err, "reading input")
	}
	return false, i.assign(ref, v)
}

func execWrite(i *Interpreter, in *instruction.Instruction) (bool, error) {
	v, err := i.eval(in.Arg(0))
	if err != nil {
		return false, err
	}
	if _, err := io.WriteString(i.out, v.String()); err != nil {
		return false, diag.Wrap(diag.Internal, err, "writing output")
	}
	return false, nil
}

// strings

func execSetChar(i *Interpreter, in *instruction.Instruction) (bool, error) {
	ref := in.Var(0)
	cur, err := i.store.Read(ref.Frame, ref.Name)
	if err != nil {
		return false, err
	}
	idx, repl, err := i.evalPair(in, 1)
	if err != nil {
		return false, err
	}

	s, err := cur.AsString()
	if err != nil {
		return false, err
	}
	n, err := idx.AsInt()
	if err != nil {
		return false, err
	}
	r, err := repl.AsString()
	if err != nil {
		return false, err
	}

	runes := []rune(s)
	if n < 0 || n >= int64(len(runes)) {
		return false, diag.Newf(diag.InvalidOperand, "index %d out of range for string of length %d", n, len(runes))
	}
	if r == "" {
		return false, diag.New(diag.InvalidOperand, "replacement string is empty")
	}
	first, _ := utf8.DecodeRuneInString(r)
	runes[n] = first
	return false, i.assign(ref, value.Str(string(runes)))
}

func execType(i *Interpreter, in *instruction.Instruction) (bool, error) {
	var v value.Value
	switch o := in.Arg(1).(type) {
	case instruction.VarRef:
		val, set, err := i.store.Lookup(o.Frame, o.Name)
		if err != nil {
			return false, err
		}
		if !set {
			return false, i.assign(in.Var(0), value.Str(""))
		}
		v = val
	case instruction.Literal:
		v = o.Value
	}
	return false, i.assign(in.Var(0), value.Str(v.Kind().String()))
}

// flow control

func execLabel(*Interpreter, *instruction.Instruction) (bool, error) {
	return false, nil
}

func execJump(i *Interpreter, in *instruction.Instruction) (bool, error) {
	return false, i.flow.Jump(in.Label(0))
}

func execExit(i *Interpreter, in *instruction.Instruction) (bool, error) {
	v, err := i.eval(in.Arg(0))
	if err != nil {
		return false, err
	}
	code, err := v.AsInt()
	if err != nil {
		return false, err
	}
	if code < 0 || code > MaxExitCode {
		return false, diag.Newf(diag.InvalidExitCode, "%d is outside 0-%d", code, MaxExitCode)
	}
	i.exitCode = int(code)
	return true, nil
}

// debugging

func execDPrint(i *Interpreter, in *instruction.Instruction) (bool, error) {
	v, err := i.eval(in.Arg(0))
	if err != nil {
		return false, err
	}
	_, _ = io.WriteString(i.debug, v.String())
	return false, nil
}

func execBreak(i *Interpreter, in *instruction.Instruction) (bool, error) {
	i.dumpState(in)
	return false, nil
}

// dumpState writes the interpreter state to the debug writer.
func (i *Interpreter) dumpState(in *instruction.Instruction) {
	w := i.debug
	fmt.Fprintf(w, "BREAK at %s (position %d of %d), %d step(s) executed\n",
		in, i.flow.IP(), i.flow.Len(), i.steps)
	fmt.Fprintf(w, "call stack depth: %d\n", i.flow.CallDepth())

	vals := i.data.Values()
	lits := make([]string, len(vals))
	for n, v := range vals {
		lits[n] = v.Literal()
	}
	fmt.Fprintf(w, "data stack: [%s]\n", strings.Join(lits, ", "))

	i.store.Dump(w)
}
