// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// watchbind configuration\n")
	sb.WriteString("// Flags given on the command line take precedence over this file.\n\n")

	if cfg.Command != "" {
		fmt.Fprintf(&sb, "command: %q\n", cfg.Command)
	}
	fmt.Fprintf(&sb, "interval: %q\n", cfg.Interval.String())
	fmt.Fprintf(&sb, "runtime: %q\n", cfg.Runtime)
	fmt.Fprintf(&sb, "shell: %q\n", cfg.Shell)
	if cfg.EnvFile != "" {
		fmt.Fprintf(&sb, "env_file: %q\n", cfg.EnvFile)
	}

	if len(cfg.Header) > 0 {
		sb.WriteString("header: [\n")
		for _, line := range cfg.Header {
			fmt.Fprintf(&sb, "\t%q,\n", line)
		}
		sb.WriteString("]\n")
	}

	if len(cfg.Keybindings) > 0 {
		sb.WriteString("\nkeybindings: {\n")
		for _, key := range slices.Sorted(maps.Keys(cfg.Keybindings)) {
			fmt.Fprintf(&sb, "\t%q: [%s]\n", key, quoteList(cfg.Keybindings[key]))
		}
		sb.WriteString("}\n")
	}

	sb.WriteString("\nstyle: {\n")
	writeOptionalString(&sb, "fg", cfg.Style.Fg)
	writeOptionalString(&sb, "bg", cfg.Style.Bg)
	writeOptionalString(&sb, "cursor_fg", cfg.Style.CursorFg)
	writeOptionalString(&sb, "cursor_bg", cfg.Style.CursorBg)
	writeOptionalString(&sb, "selected_bg", cfg.Style.SelectedBg)
	fmt.Fprintf(&sb, "\tbold_cursor: %v\n", cfg.Style.BoldCursor)
	sb.WriteString("}\n")

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tpatterns: [%s]\n", quoteList(cfg.Watch.Patterns))
	fmt.Fprintf(&sb, "\tignore: [%s]\n", quoteList(cfg.Watch.Ignore))
	fmt.Fprintf(&sb, "\tdebounce: %q\n", cfg.Watch.Debounce.String())
	writeOptionalString(&sb, "dir", cfg.Watch.Dir)
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	writeOptionalString(&sb, "file", cfg.Log.File)
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	sb.WriteString("}\n")

	sb.WriteString("\nssh: {\n")
	fmt.Fprintf(&sb, "\thost: %q\n", cfg.SSH.Host)
	fmt.Fprintf(&sb, "\tport: %d\n", cfg.SSH.Port)
	writeOptionalString(&sb, "host_key_path", cfg.SSH.HostKeyPath)
	writeOptionalString(&sb, "authorized_keys", cfg.SSH.AuthorizedKeys)
	sb.WriteString("}\n")

	return sb.String()
}

func writeOptionalString(sb *strings.Builder, field, value string) {
	if value != "" {
		fmt.Fprintf(sb, "\t%s: %q\n", field, value)
	}
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return strings.Join(quoted, ", ")
}

// EncodeTOML renders the configuration as TOML using the config file's field
// names. Durations are written as strings.
func EncodeTOML(cfg *Config) ([]byte, error) {
	out, err := toml.Marshal(fileMap(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to encode config as TOML: %w", err)
	}
	return out, nil
}

// EncodeYAML renders the configuration as YAML using the config file's field names.
func EncodeYAML(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(fileMap(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to encode config as YAML: %w", err)
	}
	return out, nil
}

// fileMap converts the configuration to the nested map shape of the config file.
func fileMap(cfg *Config) map[string]any {
	doc := map[string]any{
		"command":  cfg.Command,
		"interval": cfg.Interval.String(),
		"runtime":  string(cfg.Runtime),
		"shell":    cfg.Shell,
		"env_file": cfg.EnvFile,
		"header":   nonNil(cfg.Header),
		"style": map[string]any{
			"fg":          cfg.Style.Fg,
			"bg":          cfg.Style.Bg,
			"cursor_fg":   cfg.Style.CursorFg,
			"cursor_bg":   cfg.Style.CursorBg,
			"selected_bg": cfg.Style.SelectedBg,
			"bold_cursor": cfg.Style.BoldCursor,
		},
		"watch": map[string]any{
			"patterns": nonNil(cfg.Watch.Patterns),
			"ignore":   nonNil(cfg.Watch.Ignore),
			"debounce": cfg.Watch.Debounce.String(),
			"dir":      cfg.Watch.Dir,
		},
		"log": map[string]any{
			"file":  cfg.Log.File,
			"level": string(cfg.Log.Level),
		},
		"ssh": map[string]any{
			"host":            cfg.SSH.Host,
			"port":            cfg.SSH.Port,
			"host_key_path":   cfg.SSH.HostKeyPath,
			"authorized_keys": cfg.SSH.AuthorizedKeys,
		},
	}
	if len(cfg.Keybindings) > 0 {
		doc["keybindings"] = cfg.Keybindings
	}
	return doc
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
