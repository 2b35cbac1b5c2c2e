// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/watchbind/watchbind/internal/keybind"
)

// newKeysCommand creates `watchbind keys`, which lists the effective
// keybindings after merging flags, the config file and the defaults.
func newKeysCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var raw bool

	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Show the effective keybindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, app, rootFlags, nil)
			if err != nil {
				return err
			}
			keys, err := compileKeybindings(cfg.Keybindings, rootFlags.bindings)
			if err != nil {
				return err
			}
			return writeKeys(app.stdout, keys, raw)
		},
	}
	keysCmd.Flags().BoolVar(&raw, "raw", false, "print Markdown instead of rendering it")
	return keysCmd
}

func writeKeys(w io.Writer, keys keybind.Keybindings, raw bool) error {
	md := keysMarkdown(keys)
	if raw {
		_, err := io.WriteString(w, md)
		return err
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		return fmt.Errorf("failed to render keybindings: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// keysMarkdown renders the bindings as a Markdown table ordered by key.
func keysMarkdown(keys keybind.Keybindings) string {
	var sb strings.Builder
	sb.WriteString("# Keybindings\n\n")
	sb.WriteString("| Key | Operations |\n")
	sb.WriteString("| --- | --- |\n")
	for _, key := range keys.Keys() {
		fmt.Fprintf(&sb, "| `%s` | %s |\n", escapeCell(key), escapeCell(keys.Describe(key)))
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
