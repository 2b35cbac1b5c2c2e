// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/watchbind/watchbind/internal/keybind"
)

// fullHelpColumn is the number of bindings per column in the full help view.
const fullHelpColumn = 5

// shortHelpKinds are the operations listed in the one-line help.
var shortHelpKinds = []keybind.OpKind{
	keybind.OpReload,
	keybind.OpToggleSelection,
	keybind.OpHelpToggle,
	keybind.OpExit,
}

// keyMap adapts compiled keybindings to bubbles/help. Keys bound to the same
// operations share one entry.
type keyMap struct {
	bindings []key.Binding
	short    []key.Binding
}

func newKeyMap(kb keybind.Keybindings) keyMap {
	var (
		order  []string
		byDesc = map[string][]string{}
	)
	for _, k := range kb.Keys() {
		desc := kb.Describe(k)
		if _, seen := byDesc[desc]; !seen {
			order = append(order, desc)
		}
		byDesc[desc] = append(byDesc[desc], k)
	}

	km := keyMap{}
	for _, desc := range order {
		keys := byDesc[desc]
		km.bindings = append(km.bindings, key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(strings.Join(keys, "/"), desc),
		))
	}

	for _, kind := range shortHelpKinds {
		keys := kb.KeysFor(kind)
		if len(keys) == 0 {
			continue
		}
		km.short = append(km.short, key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(strings.Join(keys, "/"), string(kind)),
		))
	}
	return km
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding { return k.short }

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return slices.Collect(slices.Chunk(k.bindings, fullHelpColumn))
}
