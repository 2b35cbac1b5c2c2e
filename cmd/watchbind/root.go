// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the watchbind command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/watchbind/watchbind/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the watchbind command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd, _ := newRootCommand(app)
	return rootCmd
}

func newRootCommand(app *App) (*cobra.Command, *rootFlagValues) {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "watchbind [flags] [--] COMMAND...",
		Short: "Turn the output of a command into an interactive list",
		Long: TitleStyle.Render("watchbind") + SubtitleStyle.Render(" - bind keys to the output of a command") + `

watchbind runs COMMAND, shows each line of its output as a selectable
entry and re-runs it periodically, on file changes or on demand. Keys
are bound to operations; 'exec -- CMD' runs CMD with the selected lines
in $LINES.

` + SubtitleStyle.Render("Examples:") + `
  watchbind -- ls -l
  watchbind -i 2s -b 'd:exec -- rm $LINES+reload' ls
  watchbind -w '**/*.go' -- go test ./... -run XXX -list .
  watchbind keys            Show the effective keybindings
  watchbind serve -- ps     Share the list over SSH`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, app, flags, args)
		},
	}
	// Everything after the command name belongs to the command.
	rootCmd.Flags().SetInterspersed(false)

	flags.register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newConfigCommand(app, flags),
		newKeysCommand(app, flags),
		newServeCommand(app, flags),
	)
	return rootCmd, flags
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the command line and exits the process on failure.
// It is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}

	rootCmd, flags := newRootCommand(app)
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler(flags)),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// errorHandler prints actionable errors with their suggestions and leaves
// everything else to fang. Exit errors without a cause print nothing.
func errorHandler(flags *rootFlagValues) fang.ErrorHandler {
	return func(w io.Writer, styles fang.Styles, err error) {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Err == nil {
			return
		}
		var ae *issue.ActionableError
		if errors.As(err, &ae) {
			fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, flags.verbose))
			return
		}
		fang.DefaultErrorHandler(w, styles, err)
	}
}

// formatErrorForDisplay formats an error for user display.
// In verbose mode, shows the full error chain and the issue guidance.
func formatErrorForDisplay(err error, verboseMode bool) string {
	return issue.FormatError(err, verboseMode)
}
