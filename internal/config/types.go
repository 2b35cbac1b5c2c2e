// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// RuntimeNative runs commands in the host system shell.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs commands in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidRuntimeMode is returned when a RuntimeMode value is not recognized.
	ErrInvalidRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidDuration is returned when a duration field is negative.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidSSHConfig is the sentinel error wrapped by InvalidSSHConfigError.
	ErrInvalidSSHConfig = errors.New("invalid ssh config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RuntimeMode selects how command text is executed.
	RuntimeMode string

	// InvalidRuntimeModeError is returned when a RuntimeMode value is not recognized.
	// It wraps ErrInvalidRuntimeMode for errors.Is() compatibility.
	InvalidRuntimeModeError struct {
		Value RuntimeMode
	}

	// LogLevel is the minimum level written to the log file.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidDurationError is returned when a duration field is negative.
	InvalidDurationError struct {
		Field string
		Value time.Duration
	}

	// InvalidSSHConfigError is returned when an SSHConfig has invalid fields.
	InvalidSSHConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Command is the watched shell command. The command line wins over this.
		Command string `json:"command" mapstructure:"command"`
		// Interval is the wait after each completed run; zero disables it.
		Interval time.Duration `json:"interval" mapstructure:"interval"`
		// Runtime selects native or virtual execution.
		Runtime RuntimeMode `json:"runtime" mapstructure:"runtime"`
		// Shell is the binary the native runtime invokes with -c.
		Shell string `json:"shell" mapstructure:"shell"`
		// EnvFile is a dotenv file whose variables every command receives.
		EnvFile string `json:"env_file" mapstructure:"env_file"`
		// Header lines are shown above the output.
		Header []string `json:"header" mapstructure:"header"`
		// Keybindings maps key names to operation strings. Loaded outside
		// Viper because Viper lowercases map keys.
		Keybindings map[string][]string `json:"keybindings" mapstructure:"-"`
		Style       StyleConfig         `json:"style" mapstructure:"style"`
		Watch       WatchConfig         `json:"watch" mapstructure:"watch"`
		Log         LogConfig           `json:"log" mapstructure:"log"`
		SSH         SSHConfig           `json:"ssh" mapstructure:"ssh"`
	}

	// StyleConfig holds lipgloss colors (ANSI numbers or hex) for the list.
	StyleConfig struct {
		Fg         string `json:"fg" mapstructure:"fg"`
		Bg         string `json:"bg" mapstructure:"bg"`
		CursorFg   string `json:"cursor_fg" mapstructure:"cursor_fg"`
		CursorBg   string `json:"cursor_bg" mapstructure:"cursor_bg"`
		SelectedBg string `json:"selected_bg" mapstructure:"selected_bg"`
		BoldCursor bool   `json:"bold_cursor" mapstructure:"bold_cursor"`
	}

	// WatchConfig configures file-change reloads.
	WatchConfig struct {
		// Patterns are doublestar globs; no patterns disables watching.
		Patterns []string      `json:"patterns" mapstructure:"patterns"`
		Ignore   []string      `json:"ignore" mapstructure:"ignore"`
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
		// Dir is the watch root; the working directory when empty.
		Dir string `json:"dir" mapstructure:"dir"`
	}

	// LogConfig configures the diagnostic log. The TUI owns the terminal, so
	// logs are only written when File is set.
	LogConfig struct {
		File  string   `json:"file" mapstructure:"file"`
		Level LogLevel `json:"level" mapstructure:"level"`
	}

	// SSHConfig configures `watchbind serve`.
	SSHConfig struct {
		Host           string `json:"host" mapstructure:"host"`
		Port           int    `json:"port" mapstructure:"port"`
		HostKeyPath    string `json:"host_key_path" mapstructure:"host_key_path"`
		AuthorizedKeys string `json:"authorized_keys" mapstructure:"authorized_keys"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Interval: 5 * time.Second,
		Runtime:  RuntimeNative,
		Shell:    "sh",
		Style: StyleConfig{
			CursorBg:   "238",
			SelectedBg: "24",
			BoldCursor: true,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level: LogLevelInfo,
		},
		SSH: SSHConfig{
			Host: "localhost",
			Port: 23234,
		},
	}
}

// String returns the string representation of the RuntimeMode.
func (m RuntimeMode) String() string { return string(m) }

// IsValid returns whether the RuntimeMode is one of the defined runtime modes.
// The zero value ("") is valid and means "use the default".
func (m RuntimeMode) IsValid() (bool, []error) {
	switch m {
	case RuntimeNative, RuntimeVirtual, "":
		return true, nil
	default:
		return false, []error{&InvalidRuntimeModeError{Value: m}}
	}
}

// Error implements the error interface for InvalidRuntimeModeError.
func (e *InvalidRuntimeModeError) Error() string {
	return fmt.Sprintf("invalid runtime mode %q (valid: native, virtual)", e.Value)
}

// Unwrap returns ErrInvalidRuntimeMode for errors.Is() compatibility.
func (e *InvalidRuntimeModeError) Unwrap() error { return ErrInvalidRuntimeMode }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is known. The zero value means info.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, "":
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Level converts the LogLevel to a charmbracelet/log level.
func (l LogLevel) Level() log.Level {
	if l == "" {
		return log.InfoLevel
	}
	lvl, err := log.ParseLevel(string(l))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Error implements the error interface for InvalidDurationError.
func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid %s %s: must not be negative", e.Field, e.Value)
}

// Unwrap returns ErrInvalidDuration for errors.Is() compatibility.
func (e *InvalidDurationError) Unwrap() error { return ErrInvalidDuration }

// IsValid returns whether the SSHConfig has a usable port.
func (c SSHConfig) IsValid() (bool, []error) {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range 1-65535", c.Port))
	}
	if strings.TrimSpace(c.Host) != c.Host {
		errs = append(errs, fmt.Errorf("host %q has surrounding whitespace", c.Host))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidSSHConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidSSHConfigError.
func (e *InvalidSSHConfigError) Error() string {
	return fmt.Sprintf("invalid ssh config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidSSHConfig for errors.Is() compatibility.
func (e *InvalidSSHConfigError) Unwrap() error { return ErrInvalidSSHConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to Runtime.IsValid(), Log.Level.IsValid() and SSH.IsValid(),
// and checks that durations are not negative.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Runtime.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.SSH.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Interval < 0 {
		errs = append(errs, &InvalidDurationError{Field: "interval", Value: c.Interval})
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, &InvalidDurationError{Field: "watch.debounce", Value: c.Watch.Debounce})
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
