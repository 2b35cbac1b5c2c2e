// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestRuntimeModeIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value     RuntimeMode
		wantValid bool
	}{
		{RuntimeNative, true},
		{RuntimeVirtual, true},
		{"", true},
		{"container", false},
		{"NATIVE", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			t.Parallel()

			valid, errs := tt.value.IsValid()
			if valid != tt.wantValid {
				t.Errorf("RuntimeMode(%q).IsValid() = %v, want %v", tt.value, valid, tt.wantValid)
			}
			if !tt.wantValid && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidRuntimeMode)) {
				t.Errorf("errors = %v, want ErrInvalidRuntimeMode", errs)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value     LogLevel
		wantValid bool
		wantLevel log.Level
	}{
		{LogLevelDebug, true, log.DebugLevel},
		{LogLevelWarn, true, log.WarnLevel},
		{"", true, log.InfoLevel},
		{"trace", false, log.InfoLevel},
	}

	for _, tt := range tests {
		if valid, _ := tt.value.IsValid(); valid != tt.wantValid {
			t.Errorf("LogLevel(%q).IsValid() = %v, want %v", tt.value, valid, tt.wantValid)
		}
		if got := tt.value.Level(); got != tt.wantLevel {
			t.Errorf("LogLevel(%q).Level() = %v, want %v", tt.value, got, tt.wantLevel)
		}
	}
}

func TestConfigIsValid_CollectsFieldErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Runtime = "podman"
	cfg.Interval = -time.Second
	cfg.SSH.Port = 0

	valid, errs := cfg.IsValid()
	if valid {
		t.Fatal("IsValid() = true, want false")
	}
	var cfgErr *InvalidConfigError
	if !errors.As(errs[0], &cfgErr) {
		t.Fatalf("error = %T, want *InvalidConfigError", errs[0])
	}
	if len(cfgErr.FieldErrors) != 3 {
		t.Errorf("FieldErrors = %v, want 3 entries", cfgErr.FieldErrors)
	}
	for _, sentinel := range []error{ErrInvalidConfig, ErrInvalidRuntimeMode, ErrInvalidDuration, ErrInvalidSSHConfig} {
		if !errors.Is(errs[0], sentinel) {
			t.Errorf("errors.Is(err, %v) = false", sentinel)
		}
	}
}
