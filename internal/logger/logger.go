// Package logger builds charmbracelet/log loggers for wordsplit binaries.
//
// Everything goes to stderr: in server mode stdout carries msgpack frames.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Setup configures the package level logger used by the library code.
func Setup(debug bool) {
	log.SetDefault(NewWithConfig(os.Stderr, "", levelFor(debug), false, debug, log.TextFormatter))
}

// New creates a prefixed logger at the global level.
func New(prefix string) *log.Logger {
	return NewWithConfig(os.Stderr, prefix, log.GetLevel(), false, true, log.TextFormatter)
}

// NewWithConfig creates a logger writing to w.
func NewWithConfig(w io.Writer, prefix string, level log.Level, caller, showTimestamp bool, format log.Formatter) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportCaller:    caller,
		ReportTimestamp: showTimestamp,
		Formatter:       format,
	})
}

func levelFor(debug bool) log.Level {
	if debug {
		return log.DebugLevel
	}
	return log.InfoLevel
}
