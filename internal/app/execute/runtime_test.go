// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/watchbind/watchbind/internal/config"
	"github.com/watchbind/watchbind/internal/runtime"
)

func TestResolveRuntime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       *config.Config
		wantMode  config.RuntimeMode
		wantShell string
		wantErr   error
	}{
		{name: "nil config uses defaults", cfg: nil, wantMode: config.RuntimeNative, wantShell: "sh"},
		{name: "virtual", cfg: &config.Config{Runtime: config.RuntimeVirtual}, wantMode: config.RuntimeVirtual, wantShell: "sh"},
		{name: "custom shell", cfg: &config.Config{Runtime: config.RuntimeNative, Shell: "bash"}, wantMode: config.RuntimeNative, wantShell: "bash"},
		{name: "empty runtime means native", cfg: &config.Config{}, wantMode: config.RuntimeNative, wantShell: "sh"},
		{name: "unknown runtime", cfg: &config.Config{Runtime: "container"}, wantErr: config.ErrInvalidRuntimeMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sel, err := ResolveRuntime(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveRuntime() error = %v, want %v", err, tt.wantErr)
				}
				if !errors.Is(err, ErrInvalidRuntimeSelection) {
					t.Errorf("ResolveRuntime() error should wrap ErrInvalidRuntimeSelection")
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveRuntime() error = %v", err)
			}
			if sel.Mode() != tt.wantMode || sel.Shell() != tt.wantShell {
				t.Errorf("ResolveRuntime() = (%s, %s), want (%s, %s)", sel.Mode(), sel.Shell(), tt.wantMode, tt.wantShell)
			}
		})
	}
}

func TestRuntimeSelection_ZeroValueInvalid(t *testing.T) {
	t.Parallel()

	if ok, errs := (RuntimeSelection{}).IsValid(); ok || len(errs) != 1 {
		t.Fatalf("zero RuntimeSelection IsValid() = %v, %v", ok, errs)
	}
	if _, err := BuildRuntime(RuntimeSelection{}, BuildOptions{}); !errors.Is(err, ErrInvalidRuntimeSelection) {
		t.Errorf("BuildRuntime(zero) error = %v, want ErrInvalidRuntimeSelection", err)
	}
}

func TestBuildRuntime_ShellNotFound(t *testing.T) {
	t.Parallel()

	sel, err := NewRuntimeSelection(config.RuntimeNative, "watchbind-no-such-shell")
	if err != nil {
		t.Fatal(err)
	}
	_, err = BuildRuntime(sel, BuildOptions{})

	var unavailable *RuntimeUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("BuildRuntime() error = %v, want *RuntimeUnavailableError", err)
	}
	if !errors.Is(err, ErrRuntimeUnavailable) {
		t.Error("error should wrap ErrRuntimeUnavailable")
	}
	if !strings.Contains(err.Error(), "watchbind-no-such-shell") {
		t.Errorf("error %q should name the shell", err)
	}
}

func TestBuildRuntime_MissingEnvFile(t *testing.T) {
	t.Parallel()

	sel, err := NewRuntimeSelection(config.RuntimeVirtual, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := BuildRuntime(sel, BuildOptions{EnvFile: filepath.Join(t.TempDir(), "missing.env")}); err == nil {
		t.Fatal("BuildRuntime() with a missing env file should fail")
	}
}

func TestBuildRuntime_Environment(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("GREETING=hello\nWATCHBIND_RUNTIME=spoofed\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	sel, err := NewRuntimeSelection(config.RuntimeVirtual, "")
	if err != nil {
		t.Fatal(err)
	}
	rt, err := BuildRuntime(sel, BuildOptions{RunID: "run-1", EnvFile: envFile, Dir: dir})
	if err != nil {
		t.Fatalf("BuildRuntime() error = %v", err)
	}
	if rt.Name() != runtime.RuntimeVirtual {
		t.Errorf("Name() = %q, want virtual", rt.Name())
	}

	out, err := runtime.NewEngine(rt, nil).CaptureOutput(context.Background(),
		runtime.NewCommand(`echo "$GREETING $WATCHBIND_RUNTIME $WATCHBIND_RUN_ID"; pwd`), nil)
	if err != nil {
		t.Fatalf("CaptureOutput() error = %v", err)
	}
	lines := runtime.SplitLines(out)
	if len(lines) != 2 {
		t.Fatalf("output lines = %q, want 2", lines)
	}
	if lines[0] != "hello virtual run-1" {
		t.Errorf("env line = %q, want %q", lines[0], "hello virtual run-1")
	}
	wantDir, _ := filepath.EvalSymlinks(dir)
	gotDir, _ := filepath.EvalSymlinks(lines[1])
	if gotDir != wantDir {
		t.Errorf("working directory = %q, want %q", gotDir, wantDir)
	}
}

func TestBuildRuntime_Native(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	sel, err := NewRuntimeSelection(config.RuntimeNative, "sh")
	if err != nil {
		t.Fatal(err)
	}
	rt, err := BuildRuntime(sel, BuildOptions{})
	if err != nil {
		t.Fatalf("BuildRuntime() error = %v", err)
	}
	if _, ok := rt.(*runtime.NativeRuntime); !ok {
		t.Errorf("BuildRuntime() = %T, want *runtime.NativeRuntime", rt)
	}
}
