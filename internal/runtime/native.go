// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"time"
)

// DefaultWaitDelay bounds how long a killed command may keep its output pipes
// open through orphaned grandchildren before Wait gives up on them.
const DefaultWaitDelay = 500 * time.Millisecond

type (
	// NativeRuntime executes commands using the host shell.
	NativeRuntime struct {
		// Shell is the interpreter binary; "sh" when empty.
		Shell string
		// ShellArgs precede the command text; {"-c"} when nil.
		ShellArgs []string
		// Dir is the working directory; the current directory when empty.
		Dir string
		// Env is added to the host environment.
		Env []string
		// WaitDelay overrides DefaultWaitDelay when positive.
		WaitDelay time.Duration
	}

	nativeProcess struct {
		cmd    *exec.Cmd
		stdout *bytes.Buffer
		stderr *bytes.Buffer
	}
)

// NewNativeRuntime creates a runtime that uses shell (default "sh").
func NewNativeRuntime(shell string) *NativeRuntime {
	return &NativeRuntime{Shell: shell}
}

// Name returns the runtime name.
func (r *NativeRuntime) Name() string { return RuntimeNative }

// Available reports whether the configured shell can be found on PATH.
func (r *NativeRuntime) Available() bool {
	_, err := exec.LookPath(r.shell())
	return err == nil
}

// Start launches the command with the host shell.
func (r *NativeRuntime) Start(ctx context.Context, req Request) (Process, error) {
	args := append(append([]string{}, r.shellArgs()...), req.Command.Text)

	var cmd *exec.Cmd
	proc := &nativeProcess{}
	if req.Command.Blocking {
		cmd = exec.CommandContext(ctx, r.shell(), args...)
		cmd.WaitDelay = r.waitDelay()
		proc.stdout = &bytes.Buffer{}
		proc.stderr = &bytes.Buffer{}
		cmd.Stdout = proc.stdout
		cmd.Stderr = proc.stderr
	} else {
		// Background commands are detached from ctx so that leaving the
		// capture loop never kills them.
		cmd = exec.Command(r.shell(), args...)
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
	}
	cmd.Dir = r.Dir
	cmd.Env = buildEnv(r.Env, req.Lines)

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Command: req.Command.Text, Err: err}
	}
	proc.cmd = cmd
	return proc, nil
}

func (r *NativeRuntime) shell() string {
	if r.Shell == "" {
		return "sh"
	}
	return r.Shell
}

func (r *NativeRuntime) shellArgs() []string {
	if r.ShellArgs == nil {
		return []string{"-c"}
	}
	return r.ShellArgs
}

func (r *NativeRuntime) waitDelay() time.Duration {
	if r.WaitDelay > 0 {
		return r.WaitDelay
	}
	return DefaultWaitDelay
}

// Wait reaps the process and collects its output.
func (p *nativeProcess) Wait() *Result {
	err := p.cmd.Wait()

	result := &Result{}
	if p.stdout != nil {
		result.Stdout = p.stdout.Bytes()
		result.Stderr = p.stderr.Bytes()
	}

	switch {
	case err == nil, errors.Is(err, exec.ErrWaitDelay):
		// ErrWaitDelay means the shell exited cleanly but a descendant kept
		// the pipes open; the output read so far is complete for our purposes.
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = ExitCode(exitErr.ExitCode())
			return result
		}
		result.ExitCode = 1
		result.Err = err
	}
	return result
}
