package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"ippvm/internal/config"
	"ippvm/internal/logger"
	"ippvm/pkg/color"
	"ippvm/pkg/diag"
	"ippvm/pkg/instruction"
	"ippvm/pkg/interpreter"
	"ippvm/pkg/program"
)

// Exit codes of the command line front end itself.
const (
	ExitUsage  = 10 // missing or conflicting parameters
	ExitInput  = 11 // cannot open an input file
	ExitFormat = 31 // malformed program listing
)

type Runner struct {
	Verbose    bool   // Enable debug logging
	NoColor    bool   // Disable colored output
	SourceFile string // Program listing, stdin when empty
	InputFile  string // Input for READ, stdin when empty
	ConfigFile string // Optional ippvm.toml
	MaxSteps   int    // Overrides the configured step limit when > 0

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run loads the configuration and the program, executes it and returns the
// process exit status. Diagnostics go to Stderr.
func (r *Runner) Run(ctx context.Context) int {
	r.defaults()

	if r.SourceFile == "" && r.InputFile == "" {
		return r.fail(ExitUsage, "at least one of the source and input files must be given")
	}

	cfg, err := r.loadConfig()
	if err != nil {
		return r.fail(ExitUsage, err.Error())
	}
	if err := r.initLogger(cfg); err != nil {
		return r.fail(ExitUsage, err.Error())
	}

	instrs, code, err := r.loadProgram()
	if err != nil {
		return r.report(code, err)
	}

	in, closeInput, err := r.openInput()
	if err != nil {
		return r.fail(ExitInput, err.Error())
	}
	defer closeInput()

	if timeout, _ := cfg.TimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	runLog := log.Default().With("run", uuid.NewString())
	runLog.Info("Running program", "source", r.sourceName(), "instructions", len(instrs))

	exit, err := interpreter.Run(ctx, instrs,
		interpreter.WithWriter(r.Stdout),
		interpreter.WithDebugWriter(r.Stderr),
		interpreter.WithInput(in),
		interpreter.WithMaxSteps(cfg.Limits.MaxSteps),
		interpreter.WithLogger(runLog),
	)
	if err != nil {
		return r.report(exit, err)
	}

	runLog.Info("Program finished", "exit", exit)
	return exit
}

func (r *Runner) defaults() {
	if r.Stdin == nil {
		r.Stdin = os.Stdin
	}
	if r.Stdout == nil {
		r.Stdout = os.Stdout
	}
	if r.Stderr == nil {
		r.Stderr = os.Stderr
	}
}

func (r *Runner) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if r.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(r.ConfigFile); err != nil {
			return nil, err
		}
	}
	if r.MaxSteps > 0 {
		cfg.Limits.MaxSteps = r.MaxSteps
	}
	return cfg, nil
}

func (r *Runner) initLogger(cfg *config.Config) error {
	level := log.DebugLevel
	if !r.Verbose {
		var err error
		if level, err = cfg.LogLevel(); err != nil {
			return err
		}
	}
	noColor := r.NoColor || cfg.Log.NoColor
	if noColor {
		color.EnableColor(false)
	}
	logger.InitWriter(r.Stderr, level, noColor)
	return nil
}

func (r *Runner) sourceName() string {
	if r.SourceFile == "" {
		return "<stdin>"
	}
	return r.SourceFile
}

// loadProgram returns the validated program, or the exit code matching the
// failure.
func (r *Runner) loadProgram() ([]*instruction.Instruction, int, error) {
	src := r.Stdin
	if r.SourceFile != "" {
		f, err := os.Open(r.SourceFile)
		if err != nil {
			return nil, ExitInput, fmt.Errorf("cannot open %s: %w", r.SourceFile, err)
		}
		defer f.Close()
		src = f
	}

	raws, err := program.Decode(src)
	if err != nil {
		return nil, ExitFormat, err
	}
	instrs, err := program.Build(raws)
	if err != nil {
		return nil, diag.ExitCode(err), err
	}
	return instrs, 0, nil
}

func (r *Runner) openInput() (interpreter.Input, func(), error) {
	if r.InputFile == "" {
		return interpreter.NewLineInput(r.Stdin), func() {}, nil
	}
	f, err := os.Open(r.InputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open %s: %w", r.InputFile, err)
	}
	return interpreter.NewLineInput(f), func() { f.Close() }, nil
}

func (r *Runner) fail(code int, msg string) int {
	fmt.Fprintln(r.Stderr, color.Error(code, msg))
	return code
}

// report renders err; engine errors get their instruction location.
func (r *Runner) report(code int, err error) int {
	var e *diag.Error
	if errors.As(err, &e) && e.Order > 0 {
		fmt.Fprintf(r.Stderr, "%s at %s\n", color.Error(code, e.Kind.String()), color.Location(e.Order, e.Opcode))
		detail := *e
		detail.Order, detail.Opcode = 0, ""
		fmt.Fprintln(r.Stderr, color.GrayText("  "+detail.Error()))
		return code
	}
	return r.fail(code, err.Error())
}
