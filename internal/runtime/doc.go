// SPDX-License-Identifier: MPL-2.0

// Package runtime runs watchbind's shell commands.
//
// Two runtime implementations are available:
//   - native: executes command text with the host shell (sh -c by default)
//   - virtual: executes command text with an embedded POSIX interpreter (mvdan/sh)
//
// Both implement the Runtime interface with Name(), Available() and Start().
// Execute runs an action command to completion (or detaches it when the
// command ends in " &"), and Engine.CaptureOutput runs the watched command
// while racing its exit against reload requests, restarting it whenever a
// reload arrives first.
//
// Failures are reported as *SpawnError, *ExecutionError or *DecodeError, each
// wrapping a sentinel (ErrSpawn, ErrExecution, ErrDecode) for errors.Is().
// A reload is never an error.
package runtime
