// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package ledgerui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the ledger viewer.
type KeyMap struct {
	// List navigation.
	Up   key.Binding
	Down key.Binding
	Home key.Binding
	End  key.Binding

	// Detail pane scrolling.
	DetailUp   key.Binding
	DetailDown key.Binding

	// Section tabs.
	TabActive  key.Binding
	TabWaiting key.Binding
	TabParked  key.Binding
	TabDone    key.Binding
	TabNext    key.Binding

	// Filter.
	FilterActivate key.Binding
	FilterClear    key.Binding

	Reload key.Binding
	Quit   key.Binding
}

// DefaultKeyMap is the built-in key binding set. Vim-style navigation
// (j/k) alongside standard arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	DetailUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "report up"),
	),
	DetailDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "report down"),
	),
	TabActive: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "active"),
	),
	TabWaiting: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "waiting"),
	),
	TabParked: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "parked"),
	),
	TabDone: key.NewBinding(
		key.WithKeys("4"),
		key.WithHelp("4", "done"),
	),
	TabNext: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "next section"),
	),
	FilterActivate: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	FilterClear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "clear filter"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
