// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/watchbind/watchbind/internal/issue"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.cue")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// isolated returns options that never read the user's real config.
func isolated(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{ConfigDirPath: t.TempDir(), BaseDir: t.TempDir()}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Interval != 5*time.Second {
		t.Errorf("default interval = %v, want 5s", cfg.Interval)
	}
	if cfg.Runtime != RuntimeNative {
		t.Errorf("default runtime = %q, want native", cfg.Runtime)
	}
	if cfg.Shell != "sh" {
		t.Errorf("default shell = %q, want sh", cfg.Shell)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("DefaultConfig().IsValid() = false: %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	t.Cleanup(Reset)

	SetConfigDirOverride("/tmp/watchbind-test")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if dir != "/tmp/watchbind-test" {
		t.Errorf("ConfigDir() = %q, want the override", dir)
	}

	Reset()
	dir, err = ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if filepath.Base(dir) != AppName {
		t.Errorf("ConfigDir() = %q, want it to end in %q", dir, AppName)
	}
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Parallel()

	loaded, err := LoadWithPath(context.Background(), isolated(t))
	if err != nil {
		t.Fatalf("LoadWithPath() error = %v", err)
	}
	if loaded.Path != "" {
		t.Errorf("Path = %q, want empty", loaded.Path)
	}
	if loaded.Config.Interval != DefaultConfig().Interval {
		t.Errorf("Interval = %v, want default", loaded.Config.Interval)
	}
}

func TestLoad_CustomPath(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), `
command: "kubectl get pods"
interval: "2s"
runtime: "virtual"
header: ["pods"]
keybindings: {
	"g": ["first"]
	"G": ["last"]
	"d": ["exec -- kubectl delete pod $LINES", "reload"]
}
watch: {
	patterns: ["**/*.yaml"]
	debounce: "250ms"
}
ssh: port: 2222
`)
	opts := isolated(t)
	opts.ConfigFilePath = path

	loaded, err := LoadWithPath(context.Background(), opts)
	if err != nil {
		t.Fatalf("LoadWithPath() error = %v", err)
	}
	cfg := loaded.Config

	if loaded.Path != path {
		t.Errorf("Path = %q, want %q", loaded.Path, path)
	}
	if cfg.Command != "kubectl get pods" {
		t.Errorf("Command = %q", cfg.Command)
	}
	if cfg.Interval != 2*time.Second {
		t.Errorf("Interval = %v, want 2s", cfg.Interval)
	}
	if cfg.Runtime != RuntimeVirtual {
		t.Errorf("Runtime = %q, want virtual", cfg.Runtime)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("Watch.Debounce = %v, want 250ms", cfg.Watch.Debounce)
	}
	if !slices.Equal(cfg.Watch.Patterns, []string{"**/*.yaml"}) {
		t.Errorf("Watch.Patterns = %q", cfg.Watch.Patterns)
	}
	if cfg.SSH.Port != 2222 || cfg.SSH.Host != "localhost" {
		t.Errorf("SSH = %+v, want port 2222 with default host", cfg.SSH)
	}
	if cfg.Shell != "sh" {
		t.Errorf("Shell = %q, want the default to survive", cfg.Shell)
	}

	// Keys differing only in case must stay distinct.
	if !slices.Equal(cfg.Keybindings["g"], []string{"first"}) || !slices.Equal(cfg.Keybindings["G"], []string{"last"}) {
		t.Errorf("Keybindings = %v, want g and G kept apart", cfg.Keybindings)
	}
	if got := cfg.Keybindings["d"]; len(got) != 2 {
		t.Errorf(`Keybindings["d"] = %q`, got)
	}
}

func TestLoad_LocalFileFallback(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	local := filepath.Join(opts.BaseDir, "watchbind.cue")
	if err := os.WriteFile(local, []byte(`shell: "bash"`), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadWithPath(context.Background(), opts)
	if err != nil {
		t.Fatalf("LoadWithPath() error = %v", err)
	}
	if loaded.Path != local || loaded.Config.Shell != "bash" {
		t.Errorf("loaded %q with shell %q, want %q with bash", loaded.Path, loaded.Config.Shell, local)
	}

	// The user config directory wins over the local file.
	writeConfig(t, opts.ConfigDirPath, `shell: "zsh"`)
	loaded, err = LoadWithPath(context.Background(), opts)
	if err != nil {
		t.Fatalf("LoadWithPath() error = %v", err)
	}
	if loaded.Config.Shell != "zsh" {
		t.Errorf("Shell = %q, want zsh from the user config", loaded.Config.Shell)
	}
}

func TestLoad_OverridesWin(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.ConfigFilePath = writeConfig(t, t.TempDir(), `interval: "10s"
shell: "bash"`)
	opts.Overrides = map[string]any{
		"interval":       time.Second,
		"watch.patterns": []string{"*.go"},
	}

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Interval != time.Second {
		t.Errorf("Interval = %v, want the override", cfg.Interval)
	}
	if cfg.Shell != "bash" {
		t.Errorf("Shell = %q, want the file value", cfg.Shell)
	}
	if !slices.Equal(cfg.Watch.Patterns, []string{"*.go"}) {
		t.Errorf("Watch.Patterns = %q", cfg.Watch.Patterns)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		wantText string
	}{
		{name: "syntax", content: "interval: ", wantText: "config.cue"},
		{name: "unknown field", content: `colour: "red"`, wantText: "colour"},
		{name: "bad runtime", content: `runtime: "docker"`, wantText: "runtime"},
		{name: "bad duration", content: `interval: "soon"`, wantText: "interval"},
		{name: "empty binding", content: `keybindings: q: []`, wantText: "keybindings"},
		{name: "port range", content: `ssh: port: 70000`, wantText: "ssh.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := isolated(t)
			opts.ConfigFilePath = writeConfig(t, t.TempDir(), tt.content)

			_, err := NewProvider().Load(context.Background(), opts)
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("Load() error = %T, want *issue.ActionableError", err)
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("Load() error = %q, want it to mention %q", err, tt.wantText)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "nope.cue")
	_, err := NewProvider().Load(context.Background(), opts)

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("Load() error = %v, want *issue.ActionableError", err)
	}
	if ae.Resource != opts.ConfigFilePath || len(ae.Suggestions) == 0 {
		t.Errorf("ActionableError = %+v, want resource and suggestions", ae)
	}
}

func TestLoad_InvalidOverrideRuntime(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.Overrides = map[string]any{"runtime": "container"}
	_, err := NewProvider().Load(context.Background(), opts)
	if !errors.Is(err, ErrInvalidRuntimeMode) {
		t.Fatalf("Load() error = %v, want ErrInvalidRuntimeMode", err)
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != issue.InvalidRuntimeModeId {
		t.Errorf("Issue = %d, want InvalidRuntimeModeId", ae.Issue)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, isolated(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	want := DefaultConfig()
	want.Command = "ls -1"
	want.Header = []string{"files"}
	want.Keybindings = map[string][]string{"o": {"exec -- xdg-open $LINES &"}}
	want.Watch.Patterns = []string{"*.txt"}

	opts := isolated(t)
	opts.ConfigFilePath = writeConfig(t, t.TempDir(), GenerateCUE(want))

	got, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load(GenerateCUE()) error = %v", err)
	}
	if got.Command != want.Command || got.Interval != want.Interval || got.Style != want.Style || got.SSH != want.SSH {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
	if !slices.Equal(got.Keybindings["o"], want.Keybindings["o"]) {
		t.Errorf("Keybindings = %v", got.Keybindings)
	}
}

func TestEncodeTOML(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Keybindings = map[string][]string{"q": {"exit"}}

	out, err := EncodeTOML(cfg)
	if err != nil {
		t.Fatalf("EncodeTOML() error = %v", err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not valid TOML: %v\n%s", err, out)
	}
	if doc["interval"] != "5s" {
		t.Errorf("interval = %v, want \"5s\"", doc["interval"])
	}
	ssh, ok := doc["ssh"].(map[string]any)
	if !ok || ssh["port"] != int64(23234) {
		t.Errorf("ssh = %v", doc["ssh"])
	}
}

func TestEncodeYAML(t *testing.T) {
	t.Parallel()

	out, err := EncodeYAML(DefaultConfig())
	if err != nil {
		t.Fatalf("EncodeYAML() error = %v", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not valid YAML: %v\n%s", err, out)
	}
	if doc["shell"] != "sh" {
		t.Errorf("shell = %v, want sh", doc["shell"])
	}
	watch, ok := doc["watch"].(map[string]any)
	if !ok || watch["debounce"] != "500ms" {
		t.Errorf("watch = %v", doc["watch"])
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride(filepath.Join(t.TempDir(), "nested", AppName))

	path, created, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if !created {
		t.Fatal("CreateDefaultConfig() created = false on first call")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, created, err := CreateDefaultConfig(); err != nil || created {
		t.Errorf("second CreateDefaultConfig() = created %v, err %v; want existing file left alone", created, err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{path: nil, want: ""},
		{path: []string{"interval"}, want: "interval"},
		{path: []string{"watch", "patterns", "0"}, want: "watch.patterns[0]"},
		{path: []string{"keybindings", "q", "1"}, want: "keybindings.q[1]"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
