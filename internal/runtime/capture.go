// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

type (
	// Reloader delivers reload requests to a running capture.
	Reloader interface {
		// C returns the channel that receives one value per pending request.
		C() <-chan struct{}
		// Request queues a reload. Multiple requests coalesce.
		Request()
	}

	// Engine runs the watched command and captures its output.
	Engine struct {
		runtime Runtime
		logger  *log.Logger
	}
)

// NewEngine creates an Engine that starts processes with rt. A nil logger
// discards engine diagnostics.
func NewEngine(rt Runtime, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{runtime: rt, logger: logger}
}

// CaptureOutput runs cmd to completion and returns its stdout. The command is
// always waited on, even if it was configured as background.
//
// While the command runs, a reload request from reload kills the attempt,
// waits for it to be reaped and starts a fresh one; nothing from the killed
// attempt is returned. When the command finishes and a reload arrives at the
// same time, the finished output is returned and the reload is re-queued so
// the caller observes it on its next wait.
//
// Cancelling ctx kills the running attempt and returns ctx.Err().
func (e *Engine) CaptureOutput(ctx context.Context, cmd Command, reload Reloader) (string, error) {
	capture := Command{Text: cmd.Text, Blocking: true}

	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := context.WithCancel(ctx)
		proc, err := e.runtime.Start(attemptCtx, Request{Command: capture})
		if err != nil {
			cancel()
			return "", err
		}

		done := make(chan *Result, 1)
		go func() { done <- proc.Wait() }()

		var reloadC <-chan struct{}
		if reload != nil {
			reloadC = reload.C()
		}

		select {
		case res := <-done:
			cancel()
			return e.finish(capture, res)

		case <-reloadC:
			select {
			case res := <-done:
				// The attempt already finished; keep its output and let the
				// caller see the reload on its next wait.
				cancel()
				reload.Request()
				return e.finish(capture, res)
			default:
			}
			cancel()
			res := <-done
			if res.Err != nil {
				e.logger.Warn("error while stopping command for reload", "command", capture.Text, "err", res.Err)
			}
			e.logger.Debug("command restarted", "command", capture.Text, "attempt", attempt+1)

		case <-ctx.Done():
			cancel()
			<-done
			return "", ctx.Err()
		}
	}
}

func (e *Engine) finish(cmd Command, res *Result) (string, error) {
	if err := res.err(cmd); err != nil {
		var execErr *ExecutionError
		if !errors.As(err, &execErr) {
			e.logger.Error("command failed", "command", cmd.Text, "err", err)
		}
		return "", err
	}
	if !utf8.Valid(res.Stdout) {
		return "", &DecodeError{Command: cmd.Text, Offset: invalidUTF8Offset(res.Stdout)}
	}
	return string(res.Stdout), nil
}

func invalidUTF8Offset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}
