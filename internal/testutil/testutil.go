// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// pollInterval is how often WaitFor re-checks its condition.
const pollInterval = 20 * time.Millisecond

type (
	// Stopper is implemented by servers and other long-running components.
	Stopper interface {
		Stop() error
	}

	// SyncBuffer is a bytes.Buffer safe for one writer goroutine and
	// concurrent readers.
	SyncBuffer struct {
		mu  sync.Mutex
		buf bytes.Buffer
	}
)

// MustMkdirAll creates a directory along with any necessary parents.
func MustMkdirAll(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// MustStop stops s. Shutdown errors are logged, not fatal.
func MustStop(t testing.TB, s Stopper) {
	t.Helper()
	if err := s.Stop(); err != nil {
		t.Logf("warning: stop returned error: %v", err)
	}
}

// DeferStop returns a cleanup function that stops s, for t.Cleanup.
func DeferStop(t testing.TB, s Stopper) func() {
	t.Helper()
	return func() {
		t.Helper()
		MustStop(t, s)
	}
}

// WaitFor polls cond until it returns true and fails the test if that does
// not happen within timeout. what describes the condition in the failure.
func WaitFor(t testing.TB, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %s waiting for %s", timeout, what)
		}
		time.Sleep(pollInterval)
	}
}

// Write appends p to the buffer.
func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything written so far.
func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
