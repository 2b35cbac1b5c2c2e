// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	wbapp "github.com/watchbind/watchbind/internal/app"
	"github.com/watchbind/watchbind/internal/app/execute"
	"github.com/watchbind/watchbind/internal/config"
	"github.com/watchbind/watchbind/internal/issue"
	"github.com/watchbind/watchbind/internal/keybind"
	"github.com/watchbind/watchbind/internal/runtime"
	"github.com/watchbind/watchbind/internal/sshserver"
	"github.com/watchbind/watchbind/internal/tui"
)

var errNoCommand = errors.New("no command to watch")

// sessionBuilder holds what every watchbind session shares: the command,
// the compiled keybindings and the runtime selection. The local terminal
// is one session; each SSH client is another.
type sessionBuilder struct {
	cfg     *config.Config
	command runtime.Command
	keys    keybind.Keybindings
	sel     execute.RuntimeSelection
	styles  tui.Styles
}

// newSessionBuilder validates cfg for running sessions. args, when present,
// replace the configured command. cliBindings take precedence over the
// config file, which takes precedence over the defaults.
func newSessionBuilder(cfg *config.Config, args, cliBindings []string) (*sessionBuilder, error) {
	text := cfg.Command
	if len(args) > 0 {
		text = strings.Join(args, " ")
	}
	if strings.TrimSpace(text) == "" {
		return nil, &ExitError{Code: 2, Err: issue.NewErrorContext().
			WithOperation("start watchbind").
			WithSuggestion("Pass the command after the flags, e.g. 'watchbind -- ls -l'").
			WithSuggestion(`Or set command: "..." in the config file`).
			Wrap(errNoCommand).
			BuildError()}
	}

	keys, err := compileKeybindings(cfg.Keybindings, cliBindings)
	if err != nil {
		return nil, err
	}

	sel, err := execute.ResolveRuntime(cfg)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("select runtime").
			WithResource(cfg.Runtime.String()).
			WithIssue(issue.InvalidRuntimeModeId).
			Wrap(err).
			BuildError()
	}

	b := &sessionBuilder{
		cfg:     cfg,
		command: runtime.NewCommand(text),
		keys:    keys,
		sel:     sel,
		styles:  tui.NewStyles(cfg.Style),
	}
	// Surface a missing shell or env file before anything is drawn.
	if _, err := b.buildRuntime(""); err != nil {
		return nil, err
	}
	return b, nil
}

// compileKeybindings merges the command-line bindings over the config file
// bindings and the defaults.
func compileKeybindings(fromFile map[string][]string, cliBindings []string) (keybind.Keybindings, error) {
	fromCLI, err := keybind.ParseBindings(cliBindings)
	if err != nil {
		return nil, invalidKeybinding(err)
	}
	keys, err := keybind.Compile(keybind.Merge(fromCLI, keybind.Raw(fromFile), keybind.Defaults()))
	if err != nil {
		return nil, invalidKeybinding(err)
	}
	return keys, nil
}

func invalidKeybinding(err error) error {
	return issue.NewErrorContext().
		WithOperation("parse keybindings").
		WithSuggestion(`Bindings look like 'd:exec -- rm $LINES+reload'`).
		WithSuggestion("Run 'watchbind keys' to list the effective bindings").
		WithIssue(issue.InvalidKeybindingId).
		Wrap(err).
		BuildError()
}

func (b *sessionBuilder) buildRuntime(runID string) (runtime.Runtime, error) {
	rt, err := execute.BuildRuntime(b.sel, execute.BuildOptions{
		RunID:   runID,
		EnvFile: b.cfg.EnvFile,
	})
	switch {
	case err == nil:
		return rt, nil
	case errors.Is(err, execute.ErrRuntimeUnavailable):
		return nil, issue.NewErrorContext().
			WithOperation("find shell").
			WithResource(b.sel.Shell()).
			WithSuggestion("Install the shell or choose another one with --shell").
			WithSuggestion("Use --runtime virtual to run commands without a shell binary").
			WithIssue(issue.ShellNotFoundId).
			Wrap(err).
			BuildError()
	case b.cfg.EnvFile != "":
		return nil, issue.NewErrorContext().
			WithOperation("load env file").
			WithResource(b.cfg.EnvFile).
			WithSuggestion("Check that the file exists and contains KEY=VALUE lines").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	default:
		return nil, err
	}
}

// newCoordinator creates the capture loop for one session. id is exported
// to commands as WATCHBIND_RUN_ID.
func (b *sessionBuilder) newCoordinator(id string, logger *log.Logger) (*wbapp.Coordinator, error) {
	rt, err := b.buildRuntime(id)
	if err != nil {
		return nil, err
	}
	return wbapp.New(wbapp.Options{
		Command:  b.command,
		Runtime:  rt,
		Interval: b.cfg.Interval,
		ID:       id,
		Logger:   logger,
	}), nil
}

// tuiOptions returns the interface options shared by all sessions. The
// caller sets Controller and Context.
func (b *sessionBuilder) tuiOptions() tui.Options {
	return tui.Options{
		Keybindings: b.keys,
		Header:      b.cfg.Header,
		Styles:      b.styles,
	}
}

// sessionFactory adapts the builder to the SSH server.
func (b *sessionBuilder) sessionFactory() sshserver.SessionFactory {
	return func(id string, logger *log.Logger) (*wbapp.Coordinator, tui.Options, error) {
		coord, err := b.newCoordinator(id, logger)
		if err != nil {
			return nil, tui.Options{}, err
		}
		return coord, b.tuiOptions(), nil
	}
}
