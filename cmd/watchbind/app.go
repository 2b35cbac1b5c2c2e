// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/watchbind/watchbind/internal/config"
	"github.com/watchbind/watchbind/internal/tui"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives the App and reaches
	// configuration, the terminal and the interface through it.
	App struct {
		Config     ConfigProvider
		stdout     io.Writer
		stderr     io.Writer
		isTerminal func() bool
		runTUI     func(ctx context.Context, m *tui.Model) error
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
		// IsTerminal reports whether the interface can be drawn.
		IsTerminal func() bool
		// RunTUI shows the interface until the user exits.
		RunTUI func(ctx context.Context, m *tui.Model) error
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.IsTerminal == nil {
		deps.IsTerminal = stdioIsTerminal
	}
	if deps.RunTUI == nil {
		deps.RunTUI = func(ctx context.Context, m *tui.Model) error {
			return tui.Run(ctx, m)
		}
	}

	return &App{
		Config:     deps.Config,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		isTerminal: deps.IsTerminal,
		runTUI:     deps.RunTUI,
	}, nil
}

func stdioIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
