// SPDX-License-Identifier: MPL-2.0

// Package keybind parses key bindings and the operations bound to them.
//
// Bindings are written KEY:OP[+OP]* on the command line and as
// key → [op, ...] maps in the config file. Keys use bubbletea key names
// ("ctrl+c", "down", "G", "space"). Raw bindings from several sources are
// combined with Merge before being compiled into Keybindings.
package keybind

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrInvalidBinding is the sentinel error wrapped by InvalidBindingError.
var ErrInvalidBinding = errors.New("invalid keybinding")

type (
	// Raw maps key names to unparsed operation strings.
	Raw map[string][]string

	// Keybindings maps normalized key names to their operations.
	Keybindings map[string][]Operation

	// InvalidBindingError is returned when a binding cannot be parsed.
	InvalidBindingError struct {
		Input string
		Err   error
	}
)

// Error implements the error interface for InvalidBindingError.
func (e *InvalidBindingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid keybinding %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf(`invalid format: expected "KEY:OP[+OP]*", found %q`, e.Input)
}

// Unwrap returns ErrInvalidBinding and the underlying cause.
func (e *InvalidBindingError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidBinding}
	}
	return []error{ErrInvalidBinding, e.Err}
}

// Defaults returns the built-in bindings.
func Defaults() Raw {
	return Raw{
		"ctrl+c": {"exit"},
		"q":      {"exit"},
		"r":      {"reload"},
		"j":      {"down"},
		"down":   {"down"},
		"k":      {"up"},
		"up":     {"up"},
		"g":      {"first"},
		"home":   {"first"},
		"G":      {"last"},
		"end":    {"last"},
		"space":  {"toggle-selection", "down"},
		"v":      {"select"},
		"esc":    {"unselect"},
		"a":      {"select-all"},
		"A":      {"unselect-all"},
		"?":      {"help-toggle"},
	}
}

// ParseBinding splits "KEY:OP[+OP]*" into its key and trimmed operations.
// The first colon separates the key, so ":" itself cannot be bound here.
func ParseBinding(s string) (string, []string, error) {
	key, ops, ok := strings.Cut(s, ":")
	if !ok || key == "" {
		return "", nil, &InvalidBindingError{Input: s}
	}
	parts := strings.Split(ops, "+")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return key, parts, nil
}

// ParseBindings parses a list of "KEY:OP[+OP]*" strings. Later bindings for
// the same key replace earlier ones.
func ParseBindings(specs []string) (Raw, error) {
	raw := make(Raw, len(specs))
	for _, s := range specs {
		key, ops, err := ParseBinding(s)
		if err != nil {
			return nil, err
		}
		raw[key] = ops
	}
	return raw, nil
}

// Merge combines raw bindings. Sources are given from highest to lowest
// precedence; a key from an earlier source replaces the same key from a later
// one. Keys are compared after normalization.
func Merge(sources ...Raw) Raw {
	merged := Raw{}
	for _, src := range slices.Backward(sources) {
		for key, ops := range src {
			merged[NormalizeKey(key)] = ops
		}
	}
	return merged
}

// Compile parses every operation in raw.
func Compile(raw Raw) (Keybindings, error) {
	kb := make(Keybindings, len(raw))
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		opTexts := raw[key]
		if len(opTexts) == 0 {
			return nil, &InvalidBindingError{Input: key, Err: errors.New("no operations")}
		}
		ops := make([]Operation, 0, len(opTexts))
		for _, text := range opTexts {
			op, err := ParseOperation(text)
			if err != nil {
				return nil, &InvalidBindingError{Input: key + ":" + strings.Join(opTexts, "+"), Err: err}
			}
			ops = append(ops, op)
		}
		kb[NormalizeKey(key)] = ops
	}
	return kb, nil
}

// Lookup returns the operations bound to a key as reported by bubbletea.
func (kb Keybindings) Lookup(key string) ([]Operation, bool) {
	ops, ok := kb[NormalizeKey(key)]
	return ops, ok
}

// Keys returns the bound keys in display order.
func (kb Keybindings) Keys() []string {
	return slices.Sorted(maps.Keys(kb))
}

// KeysFor returns the keys whose first operation is kind, sorted.
func (kb Keybindings) KeysFor(kind OpKind) []string {
	var keys []string
	for _, key := range kb.Keys() {
		if ops := kb[key]; ops[0].Kind == kind {
			keys = append(keys, key)
		}
	}
	return keys
}

// Describe joins the operations bound to key with "+".
func (kb Keybindings) Describe(key string) string {
	ops := kb[key]
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = op.String()
	}
	return strings.Join(parts, "+")
}

// Raw converts compiled bindings back into their textual form.
func (kb Keybindings) Raw() Raw {
	raw := make(Raw, len(kb))
	for key, ops := range kb {
		texts := make([]string, len(ops))
		for i, op := range ops {
			texts[i] = op.String()
		}
		raw[key] = texts
	}
	return raw
}

// NormalizeKey maps key aliases to the names used internally. bubbletea
// reports the space bar as " "; "space" is accepted for readability.
func NormalizeKey(key string) string {
	switch strings.ToLower(key) {
	case " ", "space":
		return "space"
	case "escape":
		return "esc"
	case "return":
		return "enter"
	}
	// Letters stay case-sensitive ("g" and "G" differ); modifiers do not.
	if prefix, rest, ok := cutModifier(key); ok {
		return strings.ToLower(prefix) + rest
	}
	return key
}

func cutModifier(key string) (string, string, bool) {
	for _, mod := range []string{"ctrl+", "alt+", "shift+"} {
		if len(key) > len(mod) && strings.EqualFold(key[:len(mod)], mod) {
			return mod, key[len(mod):], true
		}
	}
	return "", "", false
}
