// SPDX-License-Identifier: MPL-2.0

// Package tui implements the watchbind terminal interface as a Bubble Tea
// model.
//
// The model is the only owner of the selection list. Capture results arrive
// from an app.Coordinator through a tea.Cmd that waits on its update channel,
// and key presses are translated into keybind operations that move the
// cursor, change the selection, request reloads or run action commands.
package tui
