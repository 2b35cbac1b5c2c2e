// SPDX-License-Identifier: MPL-2.0

// Package reload provides the coalescing reload signal shared by the capture
// loop and everything that can ask for a fresh run of the watched command.
package reload

import (
	"context"
	"time"
)

// Source identifies what ended a Wait.
type Source int

const (
	// SourceRequest means a reload was requested through the Signal.
	SourceRequest Source = iota
	// SourceInterval means the interval elapsed.
	SourceInterval
)

// Signal is a coalescing reload request channel. Any number of Request calls
// made before the next receive collapse into a single pending reload.
// The zero value is not usable; call NewSignal.
type Signal struct {
	ch chan struct{}
}

// NewSignal creates a Signal with no pending request.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Request queues a reload without blocking.
func (s *Signal) Request() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// C returns the channel that yields one value per pending reload.
func (s *Signal) C() <-chan struct{} { return s.ch }

// String returns the source name used in log output.
func (s Source) String() string {
	switch s {
	case SourceRequest:
		return "request"
	case SourceInterval:
		return "interval"
	default:
		return "unknown"
	}
}

// Wait blocks until a reload is requested on sig or interval elapses. A
// non-positive interval disables the timer, so only requests end the wait.
// It returns ctx.Err() when ctx is cancelled first.
func Wait(ctx context.Context, sig *Signal, interval time.Duration) (Source, error) {
	var timeout <-chan time.Time
	if interval > 0 {
		timer := time.NewTimer(interval)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-sig.C():
		return SourceRequest, nil
	case <-timeout:
		return SourceInterval, nil
	case <-ctx.Done():
		return SourceRequest, ctx.Err()
	}
}
