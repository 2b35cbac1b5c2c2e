// SPDX-License-Identifier: MPL-2.0

package keybind

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/watchbind/watchbind/internal/runtime"
)

// ErrUnknownOperation is the sentinel error wrapped by UnknownOperationError.
var ErrUnknownOperation = errors.New("unknown operation")

// execSeparator separates the exec keyword from the shell command.
const execSeparator = "--"

// OpKind identifies an operation.
type OpKind string

const (
	OpExit            OpKind = "exit"
	OpReload          OpKind = "reload"
	OpDown            OpKind = "down"
	OpUp              OpKind = "up"
	OpFirst           OpKind = "first"
	OpLast            OpKind = "last"
	OpSelect          OpKind = "select"
	OpUnselect        OpKind = "unselect"
	OpToggleSelection OpKind = "toggle-selection"
	OpSelectAll       OpKind = "select-all"
	OpUnselectAll     OpKind = "unselect-all"
	OpHelpToggle      OpKind = "help-toggle"
	// OpExec runs a shell command with the selected lines in LINES.
	OpExec OpKind = "exec"
)

type (
	// Operation is a single parsed operation.
	Operation struct {
		Kind OpKind
		// Steps is the cursor distance for OpDown and OpUp.
		Steps int
		// Command is the action for OpExec.
		Command runtime.Command
	}

	// UnknownOperationError is returned when operation text cannot be parsed.
	UnknownOperationError struct {
		Input  string
		Reason string
	}
)

// Error implements the error interface for UnknownOperationError.
func (e *UnknownOperationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid operation %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("unknown operation %q", e.Input)
}

// Unwrap returns ErrUnknownOperation for errors.Is() compatibility.
func (e *UnknownOperationError) Unwrap() error { return ErrUnknownOperation }

// ParseOperation parses operation text such as "down 5" or
// "exec -- notify-send $LINES &".
func ParseOperation(s string) (Operation, error) {
	s = strings.TrimSpace(s)
	name, rest, _ := strings.Cut(s, " ")
	rest = strings.TrimSpace(rest)

	kind := OpKind(name)
	switch kind {
	case OpExit, OpReload, OpFirst, OpLast, OpSelect, OpUnselect,
		OpToggleSelection, OpSelectAll, OpUnselectAll, OpHelpToggle:
		if rest != "" {
			return Operation{}, &UnknownOperationError{Input: s, Reason: "takes no arguments"}
		}
		return Operation{Kind: kind}, nil

	case OpDown, OpUp:
		steps := 1
		if rest != "" {
			n, err := strconv.Atoi(rest)
			if err != nil || n < 1 {
				return Operation{}, &UnknownOperationError{Input: s, Reason: "step count must be a positive integer"}
			}
			steps = n
		}
		return Operation{Kind: kind, Steps: steps}, nil

	case OpExec:
		cmd, ok := strings.CutPrefix(rest, execSeparator)
		if !ok {
			return Operation{}, &UnknownOperationError{Input: s, Reason: `expected "exec -- COMMAND"`}
		}
		// "--" must stand alone; exactly one space follows it.
		if cmd != "" && !strings.HasPrefix(cmd, " ") {
			return Operation{}, &UnknownOperationError{Input: s, Reason: `expected "exec -- COMMAND"`}
		}
		cmd = strings.TrimPrefix(cmd, " ")
		if strings.TrimSpace(cmd) == "" {
			return Operation{}, &UnknownOperationError{Input: s, Reason: "missing command"}
		}
		return Operation{Kind: OpExec, Command: runtime.NewCommand(cmd)}, nil

	default:
		return Operation{}, &UnknownOperationError{Input: s}
	}
}

// String returns the operation in the form ParseOperation accepts.
func (o Operation) String() string {
	switch o.Kind {
	case OpDown, OpUp:
		if o.Steps > 1 {
			return fmt.Sprintf("%s %d", o.Kind, o.Steps)
		}
		return string(o.Kind)
	case OpExec:
		return fmt.Sprintf("%s %s %s", o.Kind, execSeparator, o.Command)
	default:
		return string(o.Kind)
	}
}
