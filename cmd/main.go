package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"ippvm/internal/logger"
	"ippvm/internal/runner"
)

const version = "0.3.0"

// Main entry point for the IPPcode23 interpreter.
func main() {
	options := runner.Runner{}
	var help, showVersion bool

	flag.BoolVar(&help, "h", false, "Show help")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.StringVar(&options.SourceFile, "source", "", "Program listing (stdin when omitted)")
	flag.StringVar(&options.InputFile, "input", "", "Input for READ (stdin when omitted)")
	flag.StringVar(&options.ConfigFile, "config", "", "Path to ippvm.toml")
	flag.IntVar(&options.MaxSteps, "max-steps", 0, "Abort after this many instructions (0 = unlimited)")

	flag.Parse()

	level := log.WarnLevel
	if options.Verbose {
		level = log.DebugLevel
	}
	logger.Init(level, options.NoColor)

	if help {
		fmt.Printf("Usage: %s [options]\n", os.Args[0])
		fmt.Println("At least one of -source and -input must name a file.")
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}
	if showVersion {
		fmt.Println("ippvm", version)
		return
	}
	if flag.NArg() > 0 {
		log.Error("Unexpected argument", "arg", flag.Arg(0), "help", fmt.Sprintf("%s -h", os.Args[0]))
		os.Exit(runner.ExitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := options.Run(ctx)
	stop()
	os.Exit(code)
}
