// SPDX-License-Identifier: MPL-2.0

package reload

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSignalCoalesces(t *testing.T) {
	t.Parallel()

	sig := NewSignal()
	if len(sig.C()) != 0 {
		t.Fatal("new signal should have no pending reload")
	}

	for range 5 {
		sig.Request()
	}
	if len(sig.C()) != 1 {
		t.Fatal("no reload pending after Request()")
	}

	<-sig.C()
	if len(sig.C()) != 0 {
		t.Error("multiple requests should collapse into one pending reload")
	}
}

func TestWait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		interval time.Duration
		request  bool
		want     Source
	}{
		{name: "request before interval", interval: time.Hour, request: true, want: SourceRequest},
		{name: "interval elapses", interval: 10 * time.Millisecond, want: SourceInterval},
		{name: "request with timer disabled", interval: 0, request: true, want: SourceRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sig := NewSignal()
			if tt.request {
				sig.Request()
			}
			got, err := Wait(context.Background(), sig, tt.interval)
			if err != nil {
				t.Fatalf("Wait() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Wait() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaitContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Wait(ctx, NewSignal(), 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}
