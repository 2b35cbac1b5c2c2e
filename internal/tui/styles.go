// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/watchbind/watchbind/internal/config"
)

const (
	gutterSelected   = "▌"
	gutterUnselected = " "
)

// Styles holds the rendered styles of every part of the view.
type Styles struct {
	Header   lipgloss.Style
	Line     lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Gutter   lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Spinner  lipgloss.Style
}

// NewStyles builds Styles from the configured colors. Empty colors leave the
// terminal default in place.
func NewStyles(cfg config.StyleConfig) Styles {
	line := lipgloss.NewStyle()
	if cfg.Fg != "" {
		line = line.Foreground(lipgloss.Color(cfg.Fg))
	}
	if cfg.Bg != "" {
		line = line.Background(lipgloss.Color(cfg.Bg))
	}

	cursor := line
	if cfg.CursorFg != "" {
		cursor = cursor.Foreground(lipgloss.Color(cfg.CursorFg))
	}
	if cfg.CursorBg != "" {
		cursor = cursor.Background(lipgloss.Color(cfg.CursorBg))
	}
	cursor = cursor.Bold(cfg.BoldCursor)

	selected, gutter := line, lipgloss.NewStyle()
	if cfg.SelectedBg != "" {
		selected = selected.Background(lipgloss.Color(cfg.SelectedBg))
		gutter = gutter.Foreground(lipgloss.Color(cfg.SelectedBg))
	}

	return Styles{
		Header:   lipgloss.NewStyle().Bold(true),
		Line:     line,
		Cursor:   cursor,
		Selected: selected,
		Gutter:   gutter,
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Spinner:  lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")),
	}
}
