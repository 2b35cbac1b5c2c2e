// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/watchbind/watchbind/internal/app"
	"github.com/watchbind/watchbind/internal/keybind"
	"github.com/watchbind/watchbind/internal/runtime"
	"github.com/watchbind/watchbind/internal/selection"
)

type (
	// Controller is the part of app.Coordinator the model drives.
	Controller interface {
		Updates() <-chan app.Update
		Reload()
		Execute(ctx context.Context, cmd runtime.Command, lines *string) error
	}

	// Options configures a Model.
	Options struct {
		Controller  Controller
		Keybindings keybind.Keybindings
		Header      []string
		Styles      Styles
		// Context bounds action commands; context.Background() when nil.
		Context context.Context
	}

	// Model is the Bubble Tea model of the watchbind interface.
	Model struct {
		ctx     context.Context
		ctrl    Controller
		keys    keybind.Keybindings
		keyMap  keyMap
		help    help.Model
		spinner spinner.Model
		styles  Styles
		header  []string
		list    *selection.List

		offset int
		width  int
		height int

		running    bool
		busy       bool
		captureErr error
		actionErr  error
		showHelp   bool
		quitting   bool
	}

	updateMsg app.Update

	updatesClosedMsg struct{}

	// execDoneMsg reports a finished action; rest holds the operations
	// bound after it on the same key.
	execDoneMsg struct {
		op   keybind.Operation
		err  error
		rest []keybind.Operation
	}
)

// New creates a Model. Keybindings must be compiled; a nil map binds nothing.
func New(opts Options) *Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	sp.Style = opts.Styles.Spinner

	return &Model{
		ctx:     ctx,
		ctrl:    opts.Controller,
		keys:    opts.Keybindings,
		keyMap:  newKeyMap(opts.Keybindings),
		help:    help.New(),
		spinner: sp,
		styles:  opts.Styles,
		header:  opts.Header,
		list:    selection.New(),
		running: true,
	}
}

// List returns the selection list. It must only be used from the program's
// goroutine.
func (m *Model) List() *selection.List { return m.list }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForUpdate(), m.spinner.Tick)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ensureVisible()
		return m, nil

	case updateMsg:
		m.applyUpdate(app.Update(msg))
		return m, m.waitForUpdate()

	case updatesClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case execDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.actionErr = fmt.Errorf("%s: %w", msg.op.Command, msg.err)
			return m, nil
		}
		return m, m.runOps(msg.rest)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) applyUpdate(u app.Update) {
	m.running = u.Running
	if !u.Done {
		return
	}
	if u.Err != nil {
		m.captureErr = u.Err
		return
	}
	m.captureErr = nil
	m.list.SetLines(u.Lines)
	m.ensureVisible()
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	ops, ok := m.keys.Lookup(msg.String())
	if !ok {
		return nil
	}
	// While an action runs only exit is honored, so operations of different
	// keys never interleave.
	if m.busy && ops[0].Kind != keybind.OpExit {
		return nil
	}
	m.actionErr = nil
	return m.runOps(ops)
}

// runOps applies ops in order. An exec operation runs asynchronously and the
// remaining operations continue from its execDoneMsg.
func (m *Model) runOps(ops []keybind.Operation) tea.Cmd {
	defer m.ensureVisible()

	for i, op := range ops {
		switch op.Kind {
		case keybind.OpExit:
			m.quitting = true
			return tea.Quit
		case keybind.OpReload:
			m.ctrl.Reload()
		case keybind.OpDown:
			m.list.Down(max(op.Steps, 1))
		case keybind.OpUp:
			m.list.Up(max(op.Steps, 1))
		case keybind.OpFirst:
			m.list.First()
		case keybind.OpLast:
			m.list.Last()
		case keybind.OpSelect:
			m.list.Select()
		case keybind.OpUnselect:
			m.list.Unselect()
		case keybind.OpToggleSelection:
			m.list.ToggleSelection()
		case keybind.OpSelectAll:
			m.list.SelectAll()
		case keybind.OpUnselectAll:
			m.list.UnselectAll()
		case keybind.OpHelpToggle:
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
		case keybind.OpExec:
			m.busy = true
			return m.execute(op, ops[i+1:])
		}
	}
	return nil
}

func (m *Model) execute(op keybind.Operation, rest []keybind.Operation) tea.Cmd {
	var lines *string
	if text, ok := m.list.SelectedLines(); ok {
		lines = &text
	}
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		err := ctrl.Execute(ctx, op.Command, lines)
		return execDoneMsg{op: op, err: err, rest: rest}
	}
}

func (m *Model) waitForUpdate() tea.Cmd {
	updates := m.ctrl.Updates()
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return updateMsg(u)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	for _, h := range m.header {
		b.WriteString(m.styles.Header.Render(m.clip(h, m.width)))
		b.WriteByte('\n')
	}

	rows := m.listHeight()
	lines := m.list.Lines()
	end := min(m.offset+rows, len(lines))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderLine(selection.Index(i), lines[i]))
		b.WriteByte('\n')
	}
	if m.height > 0 {
		for i := end - m.offset; i < rows; i++ {
			b.WriteByte('\n')
		}
	}

	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keyMap))
	return b.String()
}

func (m *Model) renderLine(i selection.Index, line selection.Line) string {
	gutter := gutterUnselected
	style := m.styles.Line
	if m.list.IsSelected(i) {
		gutter = m.styles.Gutter.Render(gutterSelected)
		style = m.styles.Selected
	}
	if line.Style == selection.StyleCursor {
		style = m.styles.Cursor
	}

	textWidth := m.width - lipgloss.Width(gutterSelected)
	text := m.clip(line.Text, textWidth)
	if line.Style == selection.StyleCursor && textWidth > 0 {
		style = style.Width(textWidth)
	}
	return gutter + style.Render(text)
}

func (m *Model) statusLine() string {
	indicator := " "
	if m.running || m.busy {
		indicator = m.spinner.View()
	}

	var msg string
	switch {
	case m.actionErr != nil:
		msg = m.styles.Error.Render("action failed: " + firstLine(m.actionErr.Error()))
	case m.captureErr != nil:
		msg = m.styles.Error.Render(firstLine(m.captureErr.Error()))
	default:
		info := fmt.Sprintf("%d lines", m.list.Len())
		if n := m.list.SelectedCount(); n > 0 {
			info += fmt.Sprintf(" · %d selected", n)
		}
		if m.busy {
			info += " · running action"
		}
		msg = m.styles.Status.Render(info)
	}
	return m.clip(indicator+" "+msg, m.width)
}

// listHeight is the number of rows available for output lines. Without a
// known terminal height every line is shown.
func (m *Model) listHeight() int {
	if m.height <= 0 {
		return max(m.list.Len(), 0)
	}
	used := len(m.header) + 1 + lipgloss.Height(m.help.View(m.keyMap))
	return max(m.height-used, 1)
}

// ensureVisible scrolls so that the cursor line is on screen.
func (m *Model) ensureVisible() {
	rows := m.listHeight()
	cur, ok := m.list.Cursor()
	if !ok {
		m.offset = 0
		return
	}
	c := int(cur)
	if c < m.offset {
		m.offset = c
	}
	if c >= m.offset+rows {
		m.offset = c - rows + 1
	}
	m.offset = min(m.offset, max(m.list.Len()-rows, 0))
}

func (m *Model) clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	return truncate.String(s, uint(width))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
