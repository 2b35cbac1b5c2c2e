// SPDX-License-Identifier: MPL-2.0

package runtime

import "strings"

const (
	// LinesEnvVar is the environment variable that carries the selected
	// lines, joined by newlines, into action commands.
	LinesEnvVar = "LINES"

	// backgroundSuffix marks a command that is started but not waited on.
	// The match is exact: no whitespace is trimmed before checking.
	backgroundSuffix = " &"
)

// Command is an immutable shell command line.
type Command struct {
	// Text is passed verbatim to the shell.
	Text string
	// Blocking commands are waited on; background commands are fire-and-forget.
	Blocking bool
}

// NewCommand builds a Command from raw configuration text. A single trailing
// " &" marks the command as background and is stripped from Text.
func NewCommand(raw string) Command {
	text, background := strings.CutSuffix(raw, backgroundSuffix)
	return Command{Text: text, Blocking: !background}
}

// String returns the raw form of the command, including the background marker.
func (c Command) String() string {
	if c.Blocking {
		return c.Text
	}
	return c.Text + backgroundSuffix
}

// SplitLines splits captured output into display lines. A single trailing
// newline does not produce an empty last line, and empty output has no lines.
func SplitLines(output string) []string {
	output = strings.TrimSuffix(output, "\n")
	if output == "" {
		return []string{}
	}
	return strings.Split(output, "\n")
}
