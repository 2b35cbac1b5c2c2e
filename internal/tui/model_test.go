// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/watchbind/watchbind/internal/app"
	"github.com/watchbind/watchbind/internal/config"
	"github.com/watchbind/watchbind/internal/keybind"
	"github.com/watchbind/watchbind/internal/runtime"
	"github.com/watchbind/watchbind/internal/selection"
)

type execCall struct {
	command string
	lines   *string
}

type fakeController struct {
	updates chan app.Update

	mu      sync.Mutex
	reloads int
	calls   []execCall
	fail    map[string]error
}

func newFakeController() *fakeController {
	return &fakeController{updates: make(chan app.Update, 1), fail: map[string]error{}}
}

func (f *fakeController) Updates() <-chan app.Update { return f.updates }

func (f *fakeController) Reload() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
}

func (f *fakeController) Execute(_ context.Context, cmd runtime.Command, lines *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, execCall{command: cmd.String(), lines: lines})
	return f.fail[cmd.String()]
}

func newTestModel(t *testing.T, extra ...string) (*Model, *fakeController) {
	t.Helper()
	custom, err := keybind.ParseBindings(extra)
	if err != nil {
		t.Fatalf("ParseBindings() error = %v", err)
	}
	kb, err := keybind.Compile(keybind.Merge(custom, keybind.Defaults()))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	ctrl := newFakeController()
	m := New(Options{
		Controller:  ctrl,
		Keybindings: kb,
		Header:      []string{"watching: ls"},
		Styles:      NewStyles(config.DefaultConfig().Style),
	})
	return m, ctrl
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and drives any resulting commands to completion, except
// for quit, which is returned.
func press(t *testing.T, m *Model, msg tea.KeyMsg) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(msg)
	return drain(t, m, cmd)
}

// drain executes cmd and feeds action results back into the model.
func drain(t *testing.T, m *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		done, ok := msg.(execDoneMsg)
		if !ok {
			return cmd
		}
		_, cmd = m.Update(done)
	}
	return nil
}

func deliver(m *Model, lines ...string) {
	m.Update(updateMsg(app.Update{Done: true, Lines: lines, Seq: 1}))
}

func cursorOf(t *testing.T, m *Model) selection.Index {
	t.Helper()
	c, ok := m.List().Cursor()
	if !ok {
		t.Fatal("cursor absent")
	}
	return c
}

func TestModel_UpdateSetsLines(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	if !m.running {
		t.Error("model should start in the running state")
	}
	deliver(m, "a", "b", "c")

	if m.running {
		t.Error("running should be cleared by a result")
	}
	if m.List().Len() != 3 || cursorOf(t, m) != 0 {
		t.Errorf("list len=%d cursor=%d, want 3 and 0", m.List().Len(), cursorOf(t, m))
	}
}

func TestModel_CaptureErrorKeepsLines(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	deliver(m, "a", "b")
	m.Update(updateMsg(app.Update{Done: true, Err: errors.New("command failed\nwith details")}))

	if m.List().Len() != 2 {
		t.Errorf("lines replaced on error: len = %d", m.List().Len())
	}
	if status := m.statusLine(); !strings.Contains(status, "command failed") || strings.Contains(status, "details") {
		t.Errorf("status = %q, want first error line only", status)
	}

	deliver(m, "x")
	if m.captureErr != nil {
		t.Error("successful capture should clear the error")
	}
}

func TestModel_OutcomeWithNextCaptureRunning(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m.Update(updateMsg(app.Update{Running: true, Done: true, Lines: []string{"a", "b"}, Seq: 1}))

	if m.List().Len() != 2 {
		t.Errorf("list len = %d, want the delivered lines", m.List().Len())
	}
	if !m.running {
		t.Error("running should stay set while the next capture runs")
	}
}

func TestModel_Navigation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		keys []tea.KeyMsg
		want selection.Index
	}{
		{name: "j moves down", keys: []tea.KeyMsg{runeKey("j")}, want: 1},
		{name: "arrow down", keys: []tea.KeyMsg{{Type: tea.KeyDown}}, want: 1},
		{name: "down then up", keys: []tea.KeyMsg{runeKey("j"), runeKey("j"), runeKey("k")}, want: 1},
		{name: "G goes last", keys: []tea.KeyMsg{runeKey("G")}, want: 4},
		{name: "g goes first", keys: []tea.KeyMsg{runeKey("G"), runeKey("g")}, want: 0},
		{name: "up clamps", keys: []tea.KeyMsg{runeKey("k")}, want: 0},
		{name: "end key", keys: []tea.KeyMsg{{Type: tea.KeyEnd}}, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, _ := newTestModel(t)
			deliver(m, "0", "1", "2", "3", "4")
			for _, k := range tt.keys {
				press(t, m, k)
			}
			if got := cursorOf(t, m); got != tt.want {
				t.Errorf("cursor = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestModel_SpaceTogglesAndMovesDown(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	deliver(m, "a", "b", "c")
	press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	if !m.List().IsSelected(0) || cursorOf(t, m) != 1 {
		t.Errorf("selected(0)=%v cursor=%d, want true and 1", m.List().IsSelected(0), cursorOf(t, m))
	}

	press(t, m, runeKey("a"))
	if m.List().SelectedCount() != 3 {
		t.Errorf("select-all selected %d, want 3", m.List().SelectedCount())
	}
	press(t, m, runeKey("A"))
	if m.List().SelectedCount() != 0 {
		t.Errorf("unselect-all left %d selected", m.List().SelectedCount())
	}
}

func TestModel_ReloadAndExit(t *testing.T) {
	t.Parallel()

	m, ctrl := newTestModel(t)
	press(t, m, runeKey("r"))
	if ctrl.reloads != 1 {
		t.Errorf("reloads = %d, want 1", ctrl.reloads)
	}

	cmd := press(t, m, runeKey("q"))
	if cmd == nil {
		t.Fatal("exit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("exit did not quit")
	}
	if m.View() != "" {
		t.Error("view should be empty after exit")
	}
}

func TestModel_ExecPassesSelectedLines(t *testing.T) {
	t.Parallel()

	m, ctrl := newTestModel(t, "e:exec -- notify &")
	deliver(m, "a", "b", "c")

	// Nothing selected: the cursor line is passed.
	press(t, m, runeKey("e"))
	// Select a and c.
	press(t, m, runeKey("v"))
	press(t, m, runeKey("G"))
	press(t, m, runeKey("v"))
	press(t, m, runeKey("e"))

	if len(ctrl.calls) != 2 {
		t.Fatalf("exec calls = %d, want 2", len(ctrl.calls))
	}
	if c := ctrl.calls[0]; c.command != "notify &" || c.lines == nil || *c.lines != "a" {
		t.Errorf("first call = %+v, want cursor line a", c)
	}
	if c := ctrl.calls[1]; c.lines == nil || *c.lines != "a\nc" {
		t.Errorf("second call lines = %v, want a\\nc", c.lines)
	}
}

func TestModel_ExecWithoutLines(t *testing.T) {
	t.Parallel()

	m, ctrl := newTestModel(t, "e:exec -- true")
	press(t, m, runeKey("e"))

	if len(ctrl.calls) != 1 || ctrl.calls[0].lines != nil {
		t.Errorf("calls = %+v, want one call without LINES", ctrl.calls)
	}
}

func TestModel_ExecFailureAbortsRemainingOps(t *testing.T) {
	t.Parallel()

	m, ctrl := newTestModel(t, "x:exec -- fail+exec -- after+down", "y:exec -- ok+down")
	ctrl.fail["fail"] = &runtime.ExecutionError{Command: "fail", ExitCode: 1, Stderr: "boom"}
	deliver(m, "a", "b", "c")

	press(t, m, runeKey("x"))
	if len(ctrl.calls) != 1 {
		t.Errorf("calls after failure = %d, want 1", len(ctrl.calls))
	}
	if cursorOf(t, m) != 0 {
		t.Errorf("cursor moved after a failed action")
	}
	if m.actionErr == nil || !strings.Contains(m.statusLine(), "action failed") {
		t.Errorf("status = %q, want action failure", m.statusLine())
	}

	press(t, m, runeKey("y"))
	if cursorOf(t, m) != 1 {
		t.Errorf("cursor = %d after successful action, want 1", cursorOf(t, m))
	}
	if m.actionErr != nil {
		t.Error("a new key press should clear the action error")
	}
}

func TestModel_KeysIgnoredWhileBusy(t *testing.T) {
	t.Parallel()

	m, ctrl := newTestModel(t, "e:exec -- slow")
	deliver(m, "a", "b")

	_, cmd := m.Update(runeKey("e"))
	if cmd == nil || !m.busy {
		t.Fatal("exec should start an asynchronous action")
	}
	press(t, m, runeKey("j"))
	if cursorOf(t, m) != 0 {
		t.Error("navigation applied while an action was running")
	}

	drain(t, m, cmd)
	if m.busy || len(ctrl.calls) != 1 {
		t.Errorf("busy=%v calls=%d after completion", m.busy, len(ctrl.calls))
	}
}

func TestModel_HelpToggle(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	short := m.View()
	press(t, m, runeKey("?"))
	full := m.View()

	if !m.showHelp || !m.help.ShowAll {
		t.Fatal("help-toggle did not enable full help")
	}
	if !strings.Contains(full, "toggle-selection+down") {
		t.Errorf("full help missing space binding:\n%s", full)
	}
	if strings.Contains(short, "select-all") {
		t.Errorf("short help should not list every binding:\n%s", short)
	}
}

func TestModel_ViewScrollsToCursor(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 6})
	var lines []string
	for i := range 20 {
		lines = append(lines, "line-"+string(rune('a'+i)))
	}
	deliver(m, lines...)
	press(t, m, runeKey("G"))

	view := m.View()
	if !strings.Contains(view, "line-t") {
		t.Errorf("view does not show the cursor line:\n%s", view)
	}
	if strings.Contains(view, "line-a") {
		t.Errorf("view still shows the first line:\n%s", view)
	}
	if got := strings.Count(view, "\n") + 1; got > 6 {
		t.Errorf("view has %d rows, want at most 6", got)
	}
}

func TestModel_ViewTruncatesAndMarksSelection(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 10, Height: 10})
	deliver(m, strings.Repeat("x", 50), "short")
	press(t, m, runeKey("v"))

	view := m.View()
	if strings.Contains(view, strings.Repeat("x", 10)) {
		t.Errorf("long line not truncated:\n%s", view)
	}
	if !strings.Contains(view, gutterSelected) {
		t.Errorf("selected line has no gutter mark:\n%s", view)
	}
	if !strings.Contains(view, "watching") {
		t.Errorf("header missing:\n%s", view)
	}
}

func TestModel_UpdatesClosedQuits(t *testing.T) {
	t.Parallel()

	m, ctrl := newTestModel(t)
	close(ctrl.updates)

	msg := m.waitForUpdate()()
	if _, ok := msg.(updatesClosedMsg); !ok {
		t.Fatalf("waitForUpdate() = %T, want updatesClosedMsg", msg)
	}
	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("closed updates returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("closed updates did not quit")
	}
}

func TestModel_WaitForUpdateDeliversUpdates(t *testing.T) {
	t.Parallel()

	m, ctrl := newTestModel(t)
	ctrl.updates <- app.Update{Done: true, Lines: []string{"hello"}}

	_, cmd := m.Update(m.waitForUpdate()())
	if cmd == nil {
		t.Fatal("update should re-arm the wait")
	}
	if m.List().Len() != 1 {
		t.Errorf("list len = %d, want 1", m.List().Len())
	}
}
