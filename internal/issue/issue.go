// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

// Id identifies a catalog entry.
type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	InvalidKeybindingId
	ShellNotFoundId
	InvalidRuntimeModeId
	NotATerminalId
	WatchFailedId
	SSHServerFailedId
)

type (
	// MarkdownMsg is guidance text rendered with glamour.
	MarkdownMsg string

	// Issue is a catalog entry with Markdown guidance for a class of failure.
	Issue struct {
		id    Id
		mdMsg MarkdownMsg
	}
)

// Id returns the catalog identifier.
func (i *Issue) Id() Id { return i.id }

// MarkdownMsg returns the raw guidance text.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// Render renders the guidance for the terminal. An empty stylePath selects
// glamour's automatic dark/light style.
func (i *Issue) Render(stylePath string) (string, error) {
	if stylePath == "" {
		stylePath = "auto"
	}
	return render(string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# The configuration could not be loaded

watchbind reads ~/.config/watchbind/config.cue, then ./watchbind.cue, unless
--config names a file.

## Things you can try
- Print the effective configuration:
~~~
$ watchbind config show
~~~
- Write a fresh default file:
~~~
$ watchbind config init
~~~
- Check durations are quoted strings such as "5s" and that field names are
  spelled as in the generated file.`,
	}

	invalidKeybindingIssue = &Issue{
		id: InvalidKeybindingId,
		mdMsg: `
# Invalid keybinding

Bindings have the form KEY:OP[+OP]*, for example:
~~~
$ watchbind -b 'd:exec -- rm $LINES+reload' ls
~~~

## Operations
exit, reload, down [N], up [N], first, last, select, unselect,
toggle-selection, select-all, unselect-all, help-toggle, exec -- CMD

Run 'watchbind keys' to see the effective bindings.`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found

The native runtime runs commands with the configured shell (sh by default).

## Things you can try
- Point --shell at an installed POSIX shell
- Use the built-in interpreter instead:
~~~cue
runtime: "virtual"
~~~`,
	}

	invalidRuntimeModeIssue = &Issue{
		id: InvalidRuntimeModeId,
		mdMsg: `
# Invalid runtime

Valid runtimes are "native" (host shell) and "virtual" (embedded POSIX
interpreter).`,
	}

	notATerminalIssue = &Issue{
		id: NotATerminalId,
		mdMsg: `
# Not a terminal

watchbind draws an interactive list and needs stdin and stdout attached to a
terminal. To share it over the network use:
~~~
$ watchbind serve
~~~`,
	}

	watchFailedIssue = &Issue{
		id: WatchFailedId,
		mdMsg: `
# File watching failed

## Things you can try
- Check that --watch-dir exists and is readable
- Raise the inotify watch limit on Linux:
~~~
$ sudo sysctl fs.inotify.max_user_watches=524288
~~~`,
	}

	sshServerFailedIssue = &Issue{
		id: SSHServerFailedId,
		mdMsg: `
# The SSH server could not start

## Things you can try
- Choose another port with --port
- Check that the host key path is writable`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		invalidKeybindingIssue.Id():  invalidKeybindingIssue,
		shellNotFoundIssue.Id():      shellNotFoundIssue,
		invalidRuntimeModeIssue.Id(): invalidRuntimeModeIssue,
		notATerminalIssue.Id():       notATerminalIssue,
		watchFailedIssue.Id():        watchFailedIssue,
		sshServerFailedIssue.Id():    sshServerFailedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int { return int(a.id - b.id) })
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
