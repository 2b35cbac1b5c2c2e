// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/watchbind/watchbind/internal/config"
)

const (
	formatCUE  = "cue"
	formatTOML = "toml"
	formatYAML = "yaml"
)

// newConfigCommand creates the `watchbind config` command tree.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage watchbind configuration",
		Long: `Manage watchbind configuration.

Configuration is read from the first of:
  - the file named by --config
  - Linux: ~/.config/watchbind/config.cue
    macOS: ~/Library/Application Support/watchbind/config.cue
    Windows: %APPDATA%\watchbind\config.cue
  - ./watchbind.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the effective configuration: defaults, then the config file, then
command-line flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, app, rootFlags, nil)
			if err != nil {
				return err
			}
			return writeConfig(app.stdout, cfg, format)
		},
	}
	showCmd.Flags().StringVarP(&format, "format", "f", formatCUE, "output format: cue, toml or yaml")
	cfgCmd.AddCommand(showCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app.stdout)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app.stdout)
		},
	})

	return cfgCmd
}

func writeConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case formatCUE:
		_, err := io.WriteString(w, config.GenerateCUE(cfg))
		return err
	case formatTOML:
		out, err := config.EncodeTOML(cfg)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case formatYAML:
		out, err := config.EncodeYAML(cfg)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown format %q (expected %s, %s or %s)", format, formatCUE, formatTOML, formatYAML)
	}
}

func initConfig(w io.Writer) error {
	path, created, err := config.CreateDefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !created {
		fmt.Fprintf(w, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(w, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(w io.Writer) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	path, err := config.FilePath()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Config directory: %s\n", dir)
	fmt.Fprintf(w, "Config file: %s\n", path)
	return nil
}
