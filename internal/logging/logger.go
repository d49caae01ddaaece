// Package logging builds the structured loggers shared by the CLI and server.
package logging

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w. Verbose lowers the level to debug.
func New(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
		Prefix:          "securo",
	})
}

// Discard returns a logger that drops everything, for tests and library callers
// that did not supply one.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// OrDiscard returns logger, or a discarding logger when it is nil
func OrDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}
