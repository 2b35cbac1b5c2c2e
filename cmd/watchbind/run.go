// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/watchbind/watchbind/internal/config"
	"github.com/watchbind/watchbind/internal/issue"
	"github.com/watchbind/watchbind/internal/logging"
	"github.com/watchbind/watchbind/internal/reload"
	"github.com/watchbind/watchbind/internal/tui"
	"github.com/watchbind/watchbind/internal/watch"
)

var errNotATerminal = errors.New("stdin and stdout must be a terminal")

// runWatch shows the interface for the watched command on the local
// terminal. The capture loop and the file watcher stop when the user exits.
func runWatch(cmd *cobra.Command, app *App, flags *rootFlagValues, args []string) error {
	cfg, err := loadConfig(cmd, app, flags, nil)
	if err != nil {
		return err
	}

	builder, err := newSessionBuilder(cfg, args, flags.bindings)
	if err != nil {
		return err
	}

	if !app.isTerminal() {
		return issue.NewErrorContext().
			WithOperation("start the interface").
			WithSuggestion("Run watchbind from an interactive terminal").
			WithSuggestion("Use 'watchbind serve' to reach it over SSH").
			WithIssue(issue.NotATerminalId).
			Wrap(errNotATerminal).
			BuildError()
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	coord, err := builder.newCoordinator(uuid.NewString(), logger)
	if err != nil {
		return err
	}

	watcher, err := newWatcher(cfg, coord.Signal(), logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var wg sync.WaitGroup
	wg.Go(func() {
		if err := coord.Run(ctx); err != nil {
			logger.Error("capture loop stopped", "err", err)
		}
	})
	if watcher != nil {
		wg.Go(func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("file watcher stopped", "err", err)
			}
		})
	}

	opts := builder.tuiOptions()
	opts.Controller = coord
	opts.Context = ctx
	logger.Info("starting", "command", builder.command.String(), "runtime", builder.sel.Mode())
	err = app.runTUI(ctx, tui.New(opts))

	cancel()
	wg.Wait()
	return err
}

func newLogger(cfg *config.Config) (*log.Logger, func() error, error) {
	logger, closer, err := logging.New(logging.Options{
		File:   cfg.Log.File,
		Level:  cfg.Log.Level.Level(),
		Prefix: config.AppName,
	})
	if err != nil {
		return nil, nil, issue.NewErrorContext().
			WithOperation("open log file").
			WithResource(cfg.Log.File).
			WithSuggestion("Check that the directory is writable or choose another --log-file").
			Wrap(err).
			BuildError()
	}
	return logger, closer, nil
}

// newWatcher returns nil when no watch patterns are configured.
func newWatcher(cfg *config.Config, sig *reload.Signal, logger *log.Logger) (*watch.Watcher, error) {
	if len(cfg.Watch.Patterns) == 0 {
		return nil, nil
	}
	w, err := watch.New(watch.Config{
		Patterns: cfg.Watch.Patterns,
		Ignore:   cfg.Watch.Ignore,
		Debounce: cfg.Watch.Debounce,
		BaseDir:  cfg.Watch.Dir,
		Reload:   sig,
		Logger:   logger,
	})
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("watch files").
			WithResource(watchRoot(cfg.Watch.Dir)).
			WithIssue(issue.WatchFailedId).
			Wrap(err).
			BuildError()
	}
	return w, nil
}

func watchRoot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
