// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that fail the test on error
// instead of returning it, plus a few concurrency utilities for tests that
// observe goroutines: SyncBuffer for collecting output and WaitFor for
// polling a condition.
package testutil
