package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Init configures the default logger writing to stderr.
func Init(level log.Level, noColor bool) {
	InitWriter(os.Stderr, level, noColor)
}

// InitWriter configures the default logger writing to w.
func InitWriter(w io.Writer, level log.Level, noColor bool) {
	log.SetDefault(log.NewWithOptions(w,
		log.Options{
			ReportCaller:    level <= log.DebugLevel,
			ReportTimestamp: false,
			TimeFormat:      time.RFC3339,
			Prefix:          "IPPVM",
			Level:           level,
		}))

	log.SetColorProfile(termenv.ANSI256)
	if noColor {
		log.SetColorProfile(termenv.Ascii)
	}
}
