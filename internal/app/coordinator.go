// SPDX-License-Identifier: MPL-2.0

package app

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/watchbind/watchbind/internal/logging"
	"github.com/watchbind/watchbind/internal/reload"
	"github.com/watchbind/watchbind/internal/runtime"
)

// ErrAlreadyRunning is returned when Run is called on a Coordinator that is
// already running.
var ErrAlreadyRunning = errors.New("coordinator already running")

type (
	// Update is one message from the capture loop. Running means a capture
	// is in progress. Done means the update carries the outcome of capture
	// Seq in Lines or Err. An update can be both when an unread outcome was
	// followed by the start of the next capture.
	Update struct {
		Running bool
		Done    bool
		Lines   []string
		Err     error
		// Source says what started the capture. It is meaningless for Seq 1.
		Source reload.Source
		// Seq counts captures, starting at 1.
		Seq int
	}

	// Options configures a Coordinator.
	Options struct {
		// Command is the watched command. A trailing " &" is ignored: captures
		// always wait for the command.
		Command runtime.Command
		Runtime runtime.Runtime
		// Interval is the wait after each capture; zero waits for reloads only.
		Interval time.Duration
		// ID identifies the coordinator in logs; a random UUID when empty.
		ID     string
		Logger *log.Logger
	}

	// Coordinator owns the capture loop of one watched command.
	Coordinator struct {
		id       string
		command  runtime.Command
		runtime  runtime.Runtime
		engine   *runtime.Engine
		signal   *reload.Signal
		interval time.Duration
		logger   *log.Logger
		updates  chan Update
		started  chan struct{}
	}
)

// New creates a Coordinator. Nothing runs until Run is called.
func New(opts Options) *Coordinator {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("run", shortID(id))

	return &Coordinator{
		id:       id,
		command:  opts.Command,
		runtime:  opts.Runtime,
		engine:   runtime.NewEngine(opts.Runtime, logger.WithPrefix("engine")),
		signal:   reload.NewSignal(),
		interval: opts.Interval,
		logger:   logger,
		updates:  make(chan Update, 1),
		started:  make(chan struct{}, 1),
	}
}

// ID returns the coordinator identifier.
func (c *Coordinator) ID() string { return c.id }

// Command returns the watched command.
func (c *Coordinator) Command() runtime.Command { return c.command }

// Updates returns the channel the capture loop publishes on. At most one
// update is buffered; an unread outcome is only ever replaced by a newer
// outcome. The channel is closed when Run returns.
func (c *Coordinator) Updates() <-chan Update { return c.updates }

// Signal returns the reload signal, for wiring additional reload sources such
// as a file watcher.
func (c *Coordinator) Signal() *reload.Signal { return c.signal }

// Reload requests a fresh capture. A capture in progress is restarted.
func (c *Coordinator) Reload() {
	c.logger.Debug("reload requested")
	c.signal.Request()
}

// Run captures the command until ctx is cancelled, publishing a Running
// update before each capture and the outcome after it. Between captures it
// waits for the interval or a reload request. Cancellation is not an error.
func (c *Coordinator) Run(ctx context.Context) error {
	select {
	case c.started <- struct{}{}:
	default:
		return ErrAlreadyRunning
	}
	defer close(c.updates)

	c.logger.Info("watching command", "command", c.command.Text, "runtime", c.runtime.Name(), "interval", c.interval)

	source := reload.Source(0)
	for seq := 1; ; seq++ {
		// A reload requested while idle is consumed by Wait; one requested
		// during the capture restarts it. Either way the capture below is fresh.
		c.publish(Update{Running: true, Source: source, Seq: seq})

		out, err := c.engine.CaptureOutput(ctx, c.command, c.signal)
		if ctx.Err() != nil {
			return nil
		}

		u := Update{Done: true, Source: source, Seq: seq}
		if err != nil {
			c.logger.Warn("capture failed", "err", err)
			u.Err = err
		} else {
			u.Lines = runtime.SplitLines(out)
			c.logger.Debug("capture finished", "lines", len(u.Lines))
		}
		c.publish(u)

		source, err = reload.Wait(ctx, c.signal, c.interval)
		if err != nil {
			return nil
		}
		c.logger.Debug("reloading", "source", source)
	}
}

// Execute runs an action command with lines exported as LINES. Blocking
// commands finish before Execute returns; background ones are left running.
func (c *Coordinator) Execute(ctx context.Context, cmd runtime.Command, lines *string) error {
	c.logger.Info("executing", "command", cmd.String(), "with_lines", lines != nil)
	if err := runtime.Execute(ctx, c.runtime, cmd, lines); err != nil {
		c.logger.Warn("execution failed", "command", cmd.String(), "err", err)
		return err
	}
	return nil
}

// publish replaces the unread update, if any, with u. A Running update that
// would replace an unread outcome is folded into it instead. Run is the only
// sender.
func (c *Coordinator) publish(u Update) {
	for {
		select {
		case c.updates <- u:
			return
		default:
		}
		select {
		case old := <-c.updates:
			if old.Done && !u.Done {
				old.Running = true
				u = old
			}
		default:
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
