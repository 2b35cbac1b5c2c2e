// SPDX-License-Identifier: MPL-2.0

// Package sshserver serves the watchbind interface over SSH using Wish.
//
// Every session gets its own app.Coordinator, so each client sees an
// independent run of the watched command with its own cursor and selection.
package sshserver
