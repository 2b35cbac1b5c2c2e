// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"errors"
	"fmt"

	"github.com/watchbind/watchbind/internal/config"
	"github.com/watchbind/watchbind/internal/runtime"
)

const (
	// EnvVarRunID identifies the watchbind instance (or SSH session) that
	// started a command.
	EnvVarRunID = "WATCHBIND_RUN_ID"
	// EnvVarRuntime names the runtime mode a command runs under.
	EnvVarRuntime = "WATCHBIND_RUNTIME"
)

var (
	// ErrInvalidRuntimeSelection is the sentinel error wrapped by InvalidRuntimeSelectionError.
	ErrInvalidRuntimeSelection = errors.New("invalid runtime selection")
	// ErrRuntimeUnavailable is the sentinel error wrapped by RuntimeUnavailableError.
	ErrRuntimeUnavailable = errors.New("runtime unavailable")
)

type (
	// RuntimeSelection is the resolved runtime mode and shell pair.
	// Fields are unexported for immutability; use Mode() and Shell().
	RuntimeSelection struct {
		mode  config.RuntimeMode
		shell string
	}

	// InvalidRuntimeSelectionError is returned when a RuntimeSelection has invalid fields.
	InvalidRuntimeSelectionError struct {
		FieldErrors []error
	}

	// RuntimeUnavailableError is returned when the selected runtime cannot
	// start commands on this host, typically because the shell is missing.
	RuntimeUnavailableError struct {
		Mode  config.RuntimeMode
		Shell string
	}

	// BuildOptions configures BuildRuntime.
	BuildOptions struct {
		// RunID is exported as WATCHBIND_RUN_ID when non-empty.
		RunID string
		// EnvFile is a dotenv file loaded into every command's environment.
		EnvFile string
		// Dir is the working directory for commands.
		Dir string
	}
)

// NewRuntimeSelection creates a validated RuntimeSelection. An empty mode
// selects the native runtime and an empty shell selects "sh".
func NewRuntimeSelection(mode config.RuntimeMode, shell string) (RuntimeSelection, error) {
	if mode == "" {
		mode = config.RuntimeNative
	}
	if shell == "" {
		shell = "sh"
	}
	sel := RuntimeSelection{mode: mode, shell: shell}
	if ok, errs := sel.IsValid(); !ok {
		return RuntimeSelection{}, errs[0]
	}
	return sel, nil
}

// Mode returns the resolved runtime mode.
func (r RuntimeSelection) Mode() config.RuntimeMode { return r.mode }

// Shell returns the shell binary used by the native runtime.
func (r RuntimeSelection) Shell() string { return r.shell }

// IsValid returns whether the RuntimeSelection has valid fields.
func (r RuntimeSelection) IsValid() (bool, []error) {
	var errs []error
	if r.mode == "" {
		errs = append(errs, errors.New("runtime mode must not be empty"))
	} else if valid, fieldErrs := r.mode.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if r.mode == config.RuntimeNative && r.shell == "" {
		errs = append(errs, errors.New("native runtime requires a shell"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidRuntimeSelectionError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidRuntimeSelectionError.
func (e *InvalidRuntimeSelectionError) Error() string {
	return fmt.Sprintf("invalid runtime selection: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidRuntimeSelection and the field errors.
func (e *InvalidRuntimeSelectionError) Unwrap() []error {
	return append([]error{ErrInvalidRuntimeSelection}, e.FieldErrors...)
}

func (e *RuntimeUnavailableError) Error() string {
	if e.Mode == config.RuntimeNative {
		return fmt.Sprintf("native runtime unavailable: shell %q not found in PATH", e.Shell)
	}
	return fmt.Sprintf("%s runtime unavailable", e.Mode)
}

// Unwrap returns ErrRuntimeUnavailable for errors.Is() compatibility.
func (e *RuntimeUnavailableError) Unwrap() error { return ErrRuntimeUnavailable }

// ResolveRuntime selects the runtime from a loaded configuration. Command-line
// overrides have already been applied to cfg by the config provider, so the
// precedence is flag, then config file, then the native default.
func ResolveRuntime(cfg *config.Config) (RuntimeSelection, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	sel, err := NewRuntimeSelection(cfg.Runtime, cfg.Shell)
	if err != nil {
		return RuntimeSelection{}, fmt.Errorf("invalid runtime in config: %w", err)
	}
	return sel, nil
}

// BuildRuntime constructs the runtime for sel. Variables from the env file
// come first so that the metadata variables always win.
func BuildRuntime(sel RuntimeSelection, opts BuildOptions) (runtime.Runtime, error) {
	if ok, errs := sel.IsValid(); !ok {
		return nil, errs[0]
	}

	var env []string
	if opts.EnvFile != "" {
		fileEnv, err := runtime.LoadEnvFile(opts.EnvFile)
		if err != nil {
			return nil, err
		}
		env = append(env, fileEnv...)
	}
	env = append(env, projectEnv(sel, opts)...)

	rt, err := runtime.New(sel.mode.String(), sel.shell, env)
	if err != nil {
		return nil, err
	}
	setDir(rt, opts.Dir)

	if !rt.Available() {
		return nil, &RuntimeUnavailableError{Mode: sel.mode, Shell: sel.shell}
	}
	return rt, nil
}

func projectEnv(sel RuntimeSelection, opts BuildOptions) []string {
	env := []string{EnvVarRuntime + "=" + sel.mode.String()}
	if opts.RunID != "" {
		env = append(env, EnvVarRunID+"="+opts.RunID)
	}
	return env
}

func setDir(rt runtime.Runtime, dir string) {
	if dir == "" {
		return
	}
	switch r := rt.(type) {
	case *runtime.NativeRuntime:
		r.Dir = dir
	case *runtime.VirtualRuntime:
		r.Dir = dir
	}
}
