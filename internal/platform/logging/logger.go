// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	clog "github.com/charmbracelet/log"
)

// New returns a leveled logger writing to w (stderr when nil).
//
// level is one of debug, info, warn, error. format is text, json or logfmt.
func New(w io.Writer, level, format string) (*clog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := clog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var f clog.Formatter
	switch format {
	case "", "text":
		f = clog.TextFormatter
	case "json":
		f = clog.JSONFormatter
	case "logfmt":
		f = clog.LogfmtFormatter
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return clog.NewWithOptions(w, clog.Options{
		Level:           lvl,
		Formatter:       f,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	}), nil
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *clog.Logger {
	return clog.New(io.Discard)
}
