// SPDX-License-Identifier: MPL-2.0

// Package selection holds the cursor and per-line selection state of the
// output list.
//
// A List is not safe for concurrent use. It is owned by a single goroutine
// (the TUI update loop); new output reaches it through SetLines.
package selection

import (
	"math"
	"strings"
)

// LineStyle is the display style of a line.
type LineStyle int

const (
	// StyleNormal is the style of every line not under the cursor.
	StyleNormal LineStyle = iota
	// StyleCursor is the style of the line under the cursor.
	StyleCursor
)

type (
	// Line is one displayed row of command output.
	Line struct {
		Text  string
		Style LineStyle
	}

	// List is the ordered set of output lines with a cursor and a selection
	// flag per line. The zero value is an empty list.
	//
	// Invariants: len(selected) == len(lines); the cursor is absent iff the
	// list is empty and is otherwise a valid index; exactly the line under the
	// cursor has StyleCursor.
	List struct {
		lines    []Line
		selected []bool
		cursor   Index
	}
)

// String returns the style name.
func (s LineStyle) String() string {
	if s == StyleCursor {
		return "cursor"
	}
	return "normal"
}

// New creates a list holding texts with the cursor on the first line.
func New(texts ...string) *List {
	l := &List{cursor: noCursor}
	l.SetLines(texts)
	return l
}

// SetLines replaces the displayed lines.
//
// Selection flags are kept by index: flags past the new end are dropped and
// new lines start unselected. An absent cursor moves to the first line; an
// existing cursor is clamped into the new range.
func (l *List) SetLines(texts []string) {
	l.lines = make([]Line, len(texts))
	for i, text := range texts {
		l.lines[i] = Line{Text: text, Style: StyleNormal}
	}

	if len(texts) <= len(l.selected) {
		l.selected = l.selected[:len(texts)]
	} else {
		l.selected = append(l.selected, make([]bool, len(texts)-len(l.selected))...)
	}

	switch {
	case len(l.lines) == 0:
		l.cursor = noCursor
	case l.cursor == noCursor:
		l.moveTo(0)
	default:
		l.moveTo(l.cursor)
	}
}

// Len returns the number of lines.
func (l *List) Len() int { return len(l.lines) }

// Lines returns the displayed lines. The slice must not be modified.
func (l *List) Lines() []Line { return l.lines }

// Cursor returns the cursor position, or false when the list is empty.
func (l *List) Cursor() (Index, bool) {
	if len(l.lines) == 0 {
		return 0, false
	}
	return l.cursor, true
}

// IsSelected reports whether line i is selected. Out-of-range indexes are
// never selected.
func (l *List) IsSelected(i Index) bool {
	if i.In(len(l.selected)) != nil {
		return false
	}
	return l.selected[i]
}

// SelectedCount returns the number of selected lines.
func (l *List) SelectedCount() int {
	n := 0
	for _, s := range l.selected {
		if s {
			n++
		}
	}
	return n
}

// MoveCursor moves the cursor by delta lines, clamping at both ends.
func (l *List) MoveCursor(delta int) {
	n := len(l.lines)
	if n == 0 {
		return
	}
	// A step longer than the list cannot overflow the sum.
	delta = max(-n, min(delta, n))
	l.moveTo(l.cursor + Index(delta))
}

// Down moves the cursor n lines down.
func (l *List) Down(n int) { l.MoveCursor(n) }

// Up moves the cursor n lines up.
func (l *List) Up(n int) {
	if n == math.MinInt {
		n++
	}
	l.MoveCursor(-n)
}

// First moves the cursor to the first line.
func (l *List) First() {
	if len(l.lines) > 0 {
		l.moveTo(0)
	}
}

// Last moves the cursor to the last line.
func (l *List) Last() {
	if len(l.lines) > 0 {
		l.moveTo(Index(len(l.lines) - 1))
	}
}

// Select marks the cursor line as selected.
func (l *List) Select() { l.setCursorSelected(func(bool) bool { return true }) }

// Unselect clears the selection of the cursor line.
func (l *List) Unselect() { l.setCursorSelected(func(bool) bool { return false }) }

// ToggleSelection flips the selection of the cursor line.
func (l *List) ToggleSelection() { l.setCursorSelected(func(s bool) bool { return !s }) }

// SelectAll selects every line.
func (l *List) SelectAll() { l.fill(true) }

// UnselectAll clears every selection.
func (l *List) UnselectAll() { l.fill(false) }

// SelectedLines returns the selected lines joined by newlines, in list order.
// With nothing selected it returns the cursor line. It returns false only for
// an empty list.
func (l *List) SelectedLines() (string, bool) {
	var picked []string
	for i, s := range l.selected {
		if s {
			picked = append(picked, l.lines[i].Text)
		}
	}
	if len(picked) > 0 {
		return strings.Join(picked, "\n"), true
	}
	if len(l.lines) == 0 {
		return "", false
	}
	return l.lines[l.cursor].Text, true
}

// moveTo clamps target, restyles the old and new cursor lines and moves the
// cursor. The list must not be empty.
func (l *List) moveTo(target Index) {
	target = target.clamp(len(l.lines))
	if l.cursor.In(len(l.lines)) == nil {
		l.lines[l.cursor].Style = StyleNormal
	}
	l.lines[target].Style = StyleCursor
	l.cursor = target
}

func (l *List) setCursorSelected(f func(bool) bool) {
	if len(l.lines) == 0 {
		return
	}
	l.selected[l.cursor] = f(l.selected[l.cursor])
}

func (l *List) fill(v bool) {
	for i := range l.selected {
		l.selected[i] = v
	}
}
