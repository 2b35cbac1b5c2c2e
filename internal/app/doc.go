// SPDX-License-Identifier: MPL-2.0

// Package app wires the capture engine to its consumers. A Coordinator runs
// the watched command in a loop and publishes each result; action commands
// bound to keys run through the same runtime with the selected lines.
package app
