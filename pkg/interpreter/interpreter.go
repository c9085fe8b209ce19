package interpreter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"ippvm/pkg/diag"
	"ippvm/pkg/flow"
	"ippvm/pkg/frame"
	"ippvm/pkg/instruction"
)

// MaxExitCode is the largest status EXIT accepts.
const MaxExitCode = 49

// contextCheckInterval is how many steps run between cancellation checks.
const contextCheckInterval = 1000

// Interpreter executes a validated IPPcode23 program
type Interpreter struct {
	flow  *flow.Controller // program, labels, ip and call stack
	store *frame.Store     // GF, LF stack and TF
	data  *OperandStack    // operand stack of the stack instructions

	out   io.Writer // WRITE
	debug io.Writer // DPRINT and BREAK
	in    Input     // READ

	logger *log.Logger

	maxSteps int // maximum steps (0 = unlimited)
	steps    int // steps executed
	exitCode int
}

type Option func(*Interpreter)

// WithWriter sets the output writer for WRITE
func WithWriter(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithDebugWriter sets the writer DPRINT and BREAK report to
func WithDebugWriter(w io.Writer) Option {
	return func(i *Interpreter) { i.debug = w }
}

// WithInput sets the source READ takes values from
func WithInput(in Input) Option {
	return func(i *Interpreter) { i.in = in }
}

// WithMaxSteps sets a maximum number of interpreter steps before the run is aborted
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// WithLogger sets the logger used for step tracing
func WithLogger(l *log.Logger) Option {
	return func(i *Interpreter) { i.logger = l }
}

var (
	ErrMaxStepsExceeded = errors.New("maximum steps exceeded")
)

// New builds the flow controller and variable store for instrs. Load-time
// errors (duplicate orders, duplicate or undefined labels) are returned
// before anything executes.
func New(instrs []*instruction.Instruction, opts ...Option) (*Interpreter, error) {
	fc, err := flow.New(instrs)
	if err != nil {
		return nil, err
	}

	it := &Interpreter{
		flow:  fc,
		store: frame.NewStore(),
		data:  NewOperandStack(),
	}

	for _, o := range opts {
		o(it)
	}

	if it.out == nil {
		it.out = os.Stdout
	}
	if it.debug == nil {
		it.debug = io.Discard
	}
	if it.in == nil {
		it.in = eofInput{}
	}
	if it.logger == nil {
		it.logger = log.New(io.Discard)
	}

	return it, nil
}

// Run is a convenience wrapper building an Interpreter and running it.
func Run(ctx context.Context, instrs []*instruction.Instruction, opts ...Option) (int, error) {
	it, err := New(instrs, opts...)
	if err != nil {
		return diag.ExitCode(err), err
	}
	return it.Run(ctx)
}

// Run executes until the program ends, EXIT runs, an error occurs or ctx is
// done. It returns the program's exit code, or the error's exit code.
func (i *Interpreter) Run(ctx context.Context) (int, error) {
	i.logger.Debug("run started", "instructions", i.flow.Len())

	for n := 0; ; n++ {
		if n%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				abort := diag.Wrap(diag.Aborted, err, "run cancelled")
				return diag.ExitCode(abort), abort
			}
		}

		halted, err := i.Step()
		if err != nil {
			i.logger.Debug("run failed", "steps", i.steps, "error", err)
			return diag.ExitCode(err), err
		}

		if halted {
			i.logger.Debug("run finished", "steps", i.steps, "exit", i.exitCode)
			return i.exitCode, nil
		}
	}
}

// Step executes a single instruction, returning (halted, error)
func (i *Interpreter) Step() (bool, error) {
	in, ok := i.flow.Fetch()
	if !ok {
		return true, nil
	}

	if i.maxSteps > 0 && i.steps >= i.maxSteps {
		return false, diag.Wrap(diag.Aborted, ErrMaxStepsExceeded, fmt.Sprintf("limit %d", i.maxSteps))
	}

	i.logger.Debug("step", "ip", i.flow.IP(), "instruction", in)

	halted, err := dispatch[in.Op](i, in)
	i.steps++
	if err != nil {
		return false, diag.At(err, in.Order, in.Op.String())
	}

	if halted {
		i.flow.Halt()
		return true, nil
	}

	if !i.flow.Transferred() {
		i.flow.Advance()
	}

	return false, nil
}

// Store returns the variable store
func (i *Interpreter) Store() *frame.Store {
	return i.store
}

// Stack returns the operand stack
func (i *Interpreter) Stack() *OperandStack {
	return i.data
}

// PC returns the current instruction pointer
func (i *Interpreter) PC() int {
	return i.flow.IP()
}

// Steps returns the number of instructions executed so far
func (i *Interpreter) Steps() int {
	return i.steps
}

// ExitCode returns the status set by EXIT, 0 by default
func (i *Interpreter) ExitCode() int {
	return i.exitCode
}
