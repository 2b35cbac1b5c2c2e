// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		wantName string
		wantErr  bool
	}{
		{name: "", wantName: RuntimeNative},
		{name: "native", wantName: RuntimeNative},
		{name: "virtual", wantName: RuntimeVirtual},
		{name: "container", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("runtime="+tt.name, func(t *testing.T) {
			t.Parallel()

			rt, err := New(tt.name, "", nil)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("New(%q) error = nil, want error", tt.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q) error = %v", tt.name, err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("New(%q).Name() = %q, want %q", tt.name, rt.Name(), tt.wantName)
			}
		})
	}
}

func TestExecute_ExportsLines(t *testing.T) {
	t.Parallel()

	for _, rt := range testRuntimes(t) {
		t.Run(rt.Name(), func(t *testing.T) {
			t.Parallel()

			out := filepath.Join(t.TempDir(), "lines")
			lines := "alpha\nbeta"
			cmd := NewCommand(fmt.Sprintf(`printf '%%s' "$LINES" > %q`, out))

			if err := Execute(context.Background(), rt, cmd, &lines); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			got, err := os.ReadFile(out)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if string(got) != lines {
				t.Errorf("LINES = %q, want %q", got, lines)
			}
		})
	}
}

func TestExecute_UnsetLinesWithoutSelection(t *testing.T) {
	t.Setenv(LinesEnvVar, "42")
	skipWithoutShell(t)

	out := filepath.Join(t.TempDir(), "lines")
	cmd := NewCommand(fmt.Sprintf(`printf '%%s' "${LINES-unset}" > %q`, out))
	if err := Execute(context.Background(), NewNativeRuntime(""), cmd, nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "unset" {
		t.Errorf("LINES = %q, want it unset", got)
	}
}

func TestExecute_BlockingFailure(t *testing.T) {
	t.Parallel()

	for _, rt := range testRuntimes(t) {
		t.Run(rt.Name(), func(t *testing.T) {
			t.Parallel()

			err := Execute(context.Background(), rt, NewCommand("echo denied >&2; exit 1"), nil)
			if !errors.Is(err, ErrExecution) {
				t.Fatalf("Execute() error = %v, want ErrExecution", err)
			}
			if err.Error() != "denied" {
				t.Errorf("Execute() error text = %q, want %q", err.Error(), "denied")
			}
		})
	}
}

func TestExecute_BackgroundReturnsImmediately(t *testing.T) {
	t.Parallel()

	for _, rt := range testRuntimes(t) {
		t.Run(rt.Name(), func(t *testing.T) {
			t.Parallel()

			marker := filepath.Join(t.TempDir(), "bg")
			cmd := NewCommand(fmt.Sprintf("sleep 1; exit 1; touch %q &", marker))
			if cmd.Blocking {
				t.Fatal("command ending in \" &\" should be background")
			}

			start := time.Now()
			if err := Execute(context.Background(), rt, cmd, nil); err != nil {
				t.Fatalf("Execute() error = %v, want background failures ignored", err)
			}
			if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
				t.Errorf("Execute() took %v, want immediate return", elapsed)
			}
		})
	}
}

func TestExecute_BackgroundSurvivesContextCancel(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	marker := filepath.Join(t.TempDir(), "bg")
	ctx, cancel := context.WithCancel(context.Background())
	if err := Execute(ctx, NewNativeRuntime(""), NewCommand(fmt.Sprintf("sleep 0.2; touch %q &", marker)), nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	cancel()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(marker); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("background command did not complete after the context was cancelled")
}

func TestVirtualRuntime_ParseErrorIsSpawnError(t *testing.T) {
	t.Parallel()

	_, err := NewVirtualRuntime().Start(context.Background(), Request{Command: NewCommand("if then fi (")})
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("Start() error = %v, want *SpawnError", err)
	}
}

func TestNativeRuntime_Available(t *testing.T) {
	t.Parallel()

	missing := &NativeRuntime{Shell: filepath.Join(t.TempDir(), "missing")}
	if missing.Available() {
		t.Error("Available() = true for a missing shell")
	}
	if !NewVirtualRuntime().Available() {
		t.Error("virtual runtime should always be available")
	}
}
