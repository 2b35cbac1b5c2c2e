// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSpawn is the sentinel error wrapped by SpawnError.
	ErrSpawn = errors.New("failed to start command")
	// ErrExecution is the sentinel error wrapped by ExecutionError.
	ErrExecution = errors.New("command failed")
	// ErrDecode is the sentinel error wrapped by DecodeError.
	ErrDecode = errors.New("command output is not valid UTF-8")
)

type (
	// SpawnError is returned when the child process (or interpreter run)
	// could not be created at all. It is never retried automatically.
	SpawnError struct {
		Command string
		Err     error
	}

	// ExecutionError is returned when a command exits with a non-zero status.
	// Its message is the text the command wrote to stderr.
	ExecutionError struct {
		Command  string
		ExitCode ExitCode
		Stderr   string
	}

	// DecodeError is returned when captured stdout is not valid UTF-8.
	DecodeError struct {
		Command string
		// Offset is the byte offset of the first invalid sequence.
		Offset int
	}
)

// Error implements the error interface for SpawnError.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %q: %v", e.Command, e.Err)
}

// Unwrap returns both ErrSpawn and the underlying cause.
func (e *SpawnError) Unwrap() []error { return []error{ErrSpawn, e.Err} }

// Error returns the command's stderr text, falling back to the exit status
// when the command wrote nothing to stderr.
func (e *ExecutionError) Error() string {
	if msg := strings.TrimRight(e.Stderr, "\r\n"); msg != "" {
		return msg
	}
	if e.ExitCode < 0 {
		return fmt.Sprintf("%q was terminated by a signal", e.Command)
	}
	return fmt.Sprintf("%q exited with status %s", e.Command, e.ExitCode)
}

// Unwrap returns ErrExecution for errors.Is() compatibility.
func (e *ExecutionError) Unwrap() error { return ErrExecution }

// Error implements the error interface for DecodeError.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("output of %q is not valid UTF-8 (first invalid byte at offset %d)", e.Command, e.Offset)
}

// Unwrap returns ErrDecode for errors.Is() compatibility.
func (e *DecodeError) Unwrap() error { return ErrDecode }
