// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/watchbind/watchbind/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "watchbind"
	// ConfigFileName is the name of the user config file (without extension).
	ConfigFileName = "config"
	// LocalConfigFileName is the name of the per-directory config file (without extension).
	LocalConfigFileName = "watchbind"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the watchbind configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FilePath returns the path of the user config file.
func FilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions resolves, validates and decodes the configuration. It
// returns the path of the file that was read, or "" when only defaults and
// overrides apply.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	path, err := resolvePath(opts)
	if err != nil {
		return nil, "", err
	}

	var keybindings map[string][]string
	if path != "" {
		keybindings, err = loadCUEIntoViper(v, path)
		if err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Compare it with the output of 'watchbind config show'").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("decode configuration").
			WithResource(path).
			WithSuggestion(`Durations are strings such as "5s" or "250ms"`).
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	cfg.Keybindings = keybindings

	if valid, errs := cfg.IsValid(); !valid {
		ec := issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errors.Join(errs...))
		if path != "" {
			ec.WithResource(path)
		}
		if errors.Is(errs[0], ErrInvalidRuntimeMode) {
			ec.WithIssue(issue.InvalidRuntimeModeId).WithSuggestion(`Use runtime "native" or "virtual"`)
		}
		return nil, "", ec.BuildError()
	}

	return &cfg, path, nil
}

// resolvePath picks the config file: an explicit path must exist; otherwise
// the user config file and then ./watchbind.cue are tried.
func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'watchbind config init' to create a default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		cfgDir = dir
	}

	candidates := []string{
		filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
		filepath.Join(opts.BaseDir, LocalConfigFileName+"."+ConfigFileExt),
	}
	for _, p := range candidates {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("command", d.Command)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("runtime", d.Runtime)
	v.SetDefault("shell", d.Shell)
	v.SetDefault("env_file", d.EnvFile)
	v.SetDefault("header", d.Header)
	v.SetDefault("style.fg", d.Style.Fg)
	v.SetDefault("style.bg", d.Style.Bg)
	v.SetDefault("style.cursor_fg", d.Style.CursorFg)
	v.SetDefault("style.cursor_bg", d.Style.CursorBg)
	v.SetDefault("style.selected_bg", d.Style.SelectedBg)
	v.SetDefault("style.bold_cursor", d.Style.BoldCursor)
	v.SetDefault("watch.patterns", d.Watch.Patterns)
	v.SetDefault("watch.ignore", d.Watch.Ignore)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("watch.dir", d.Watch.Dir)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("ssh.host", d.SSH.Host)
	v.SetDefault("ssh.port", d.SSH.Port)
	v.SetDefault("ssh.host_key_path", d.SSH.HostKeyPath)
	v.SetDefault("ssh.authorized_keys", d.SSH.AuthorizedKeys)
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper. Keybindings are returned separately
// because Viper folds map keys to lower case, which would merge "g" and "G".
func loadCUEIntoViper(v *viper.Viper, path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := checkFileSize(data, path); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return nil, formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, path)
	}

	var keybindings map[string][]string
	if kb := unified.LookupPath(cue.ParsePath("keybindings")); kb.Exists() {
		if err := kb.Decode(&keybindings); err != nil {
			return nil, formatCUEError(err, path)
		}
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return nil, formatCUEError(err, path)
	}
	delete(configMap, "keybindings")

	if err := v.MergeConfigMap(configMap); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	return keybindings, nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to the user config
// file. It reports false without touching the file when one already exists.
func CreateDefaultConfig() (string, bool, error) {
	cfgPath, err := FilePath()
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, true, nil
}
