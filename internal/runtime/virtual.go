// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// virtualKillTimeout is how long external programs started by the interpreter
// get between SIGINT and SIGKILL when the run is cancelled.
const virtualKillTimeout = 2 * time.Second

type (
	// VirtualRuntime executes commands with the embedded mvdan/sh interpreter.
	// It does not need a shell binary on the host.
	VirtualRuntime struct {
		// Dir is the working directory; the current directory when empty.
		Dir string
		// Env is added to the host environment.
		Env []string
	}

	virtualProcess struct {
		done   chan struct{}
		result *Result
	}
)

// NewVirtualRuntime creates a new virtual runtime.
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name.
func (r *VirtualRuntime) Name() string { return RuntimeVirtual }

// Available always returns true; the interpreter is built in.
func (r *VirtualRuntime) Available() bool { return true }

// Start parses the command text and runs it in a new interpreter.
func (r *VirtualRuntime) Start(ctx context.Context, req Request) (Process, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(req.Command.Text), "command")
	if err != nil {
		return nil, &SpawnError{Command: req.Command.Text, Err: fmt.Errorf("failed to parse command: %w", err)}
	}

	var stdout, stderr bytes.Buffer
	var out, errOut io.Writer = &stdout, &stderr
	runCtx := ctx
	if !req.Command.Blocking {
		out, errOut = io.Discard, io.Discard
		runCtx = context.WithoutCancel(ctx)
	}

	runner, err := interp.New(
		interp.Dir(r.Dir),
		interp.Env(expand.ListEnviron(buildEnv(r.Env, req.Lines)...)),
		interp.StdIO(nil, out, errOut),
		interp.ExecHandlers(func(interp.ExecHandlerFunc) interp.ExecHandlerFunc {
			return interp.DefaultExecHandler(virtualKillTimeout)
		}),
	)
	if err != nil {
		return nil, &SpawnError{Command: req.Command.Text, Err: fmt.Errorf("failed to create interpreter: %w", err)}
	}

	proc := &virtualProcess{done: make(chan struct{})}
	go func() {
		defer close(proc.done)
		res := &Result{}
		if runErr := runner.Run(runCtx, prog); runErr != nil {
			var exitStatus interp.ExitStatus
			switch {
			case errors.As(runErr, &exitStatus):
				res.ExitCode = ExitCode(exitStatus)
			case runCtx.Err() != nil:
				res.ExitCode = -1
			default:
				res.ExitCode = 1
				res.Err = fmt.Errorf("command execution failed: %w", runErr)
			}
		}
		if req.Command.Blocking {
			res.Stdout = stdout.Bytes()
			res.Stderr = stderr.Bytes()
		}
		proc.result = res
	}()
	return proc, nil
}

// Wait blocks until the interpreter run has finished.
func (p *virtualProcess) Wait() *Result {
	<-p.done
	return p.result
}
