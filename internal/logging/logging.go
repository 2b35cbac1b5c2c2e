// SPDX-License-Identifier: MPL-2.0

// Package logging builds the charmbracelet/log logger used across watchbind.
//
// The TUI owns the terminal, so diagnostics are written to a file when one is
// configured and discarded otherwise.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures New.
type Options struct {
	// File is the log destination. "-" means stderr; empty discards output.
	File string
	// Level is the minimum level written.
	Level log.Level
	// Prefix is shown before every message.
	Prefix string
}

// New creates a logger. The returned closer releases the log file and must be
// called when the logger is no longer used.
func New(opts Options) (*log.Logger, func() error, error) {
	w, closer, err := openOutput(opts.File)
	if err != nil {
		return nil, nil, fmt.Errorf("open log output: %w", err)
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	return logger, closer, nil
}

// Discard returns a logger that writes nothing.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

func openOutput(path string) (io.Writer, func() error, error) {
	noop := func() error { return nil }

	switch path {
	case "":
		return io.Discard, noop, nil
	case "-":
		return os.Stderr, noop, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
