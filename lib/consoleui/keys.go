// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
)

// KeyMap holds the bindings the console handles itself. Every other key
// is a menu key and goes to the controller.
type KeyMap struct {
	// Shutdown is handed to the controller, which tears the session
	// down before the program quits.
	Shutdown key.Binding

	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
}

// DefaultKeyMap avoids letters and digits, which select menu entries.
var DefaultKeyMap = KeyMap{
	Shutdown: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "shutdown"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "shift+up"),
		key.WithHelp("pgup", "scroll up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "shift+down"),
		key.WithHelp("pgdn", "scroll down"),
	),
	Top: key.NewBinding(
		key.WithKeys("home"),
		key.WithHelp("home", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("end"),
		key.WithHelp("end", "bottom"),
	),
}

// viewportKeys restricts the output viewport to paging; its default
// bindings include letters.
func (keys KeyMap) viewportKeys() viewport.KeyMap {
	return viewport.KeyMap{
		PageUp:   keys.PageUp,
		PageDown: keys.PageDown,
	}
}
