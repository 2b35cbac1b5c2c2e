// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"fmt"
)

const (
	// RuntimeNative runs command text with the host shell.
	RuntimeNative = "native"
	// RuntimeVirtual runs command text with the embedded mvdan/sh interpreter.
	RuntimeVirtual = "virtual"
)

type (
	// Runtime starts processes for commands.
	Runtime interface {
		// Name returns the runtime identifier.
		Name() string
		// Available reports whether the runtime can start commands on this host.
		Available() bool
		// Start launches the command described by req. Blocking commands are
		// bound to ctx and have their stdout and stderr captured. Background
		// commands outlive ctx and have their output discarded.
		// A launch failure is returned as *SpawnError.
		Start(ctx context.Context, req Request) (Process, error)
	}

	// Process is a started command.
	Process interface {
		// Wait blocks until the command has exited and its output is complete.
		// It must be called exactly once.
		Wait() *Result
	}

	// Request describes a single command launch.
	Request struct {
		Command Command
		// Lines, when non-nil, is exported to the child as LINES.
		Lines *string
	}

	// Result holds the outcome of a finished process.
	Result struct {
		ExitCode ExitCode
		Stdout   []byte
		Stderr   []byte
		// Err reports a failure unrelated to the exit status, such as an
		// interpreter error or a failed wait.
		Err error
	}
)

// err converts the result into the error a caller should see.
func (r *Result) err(cmd Command) error {
	if r.Err != nil {
		return r.Err
	}
	if !r.ExitCode.IsSuccess() {
		return &ExecutionError{Command: cmd.Text, ExitCode: r.ExitCode, Stderr: string(r.Stderr)}
	}
	return nil
}

// Execute runs an action command. Blocking commands are run to completion and
// a non-zero exit becomes an *ExecutionError carrying stderr. Background
// commands are started and Execute returns immediately; the runtime reaps them
// without reporting their outcome.
func Execute(ctx context.Context, rt Runtime, cmd Command, lines *string) error {
	proc, err := rt.Start(ctx, Request{Command: cmd, Lines: lines})
	if err != nil {
		return err
	}

	if !cmd.Blocking {
		go proc.Wait()
		return nil
	}

	res := proc.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return res.err(cmd)
}

// New returns the runtime registered under name. env is added to the host
// environment of every command it starts.
func New(name, shell string, env []string) (Runtime, error) {
	switch name {
	case "", RuntimeNative:
		rt := NewNativeRuntime(shell)
		rt.Env = env
		return rt, nil
	case RuntimeVirtual:
		rt := NewVirtualRuntime()
		rt.Env = env
		return rt, nil
	default:
		return nil, fmt.Errorf("unknown runtime %q (expected %q or %q)", name, RuntimeNative, RuntimeVirtual)
	}
}

