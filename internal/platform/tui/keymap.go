package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings of the game screen.
// Only Flap reaches gameplay; everything else drives the UI controls.
type KeyMap struct {
	Flap      key.Binding
	Focus     key.Binding
	FocusPrev key.Binding
	Activate  key.Binding
	Close     key.Binding
	Quit      key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Flap, k.Focus, k.Activate, k.Close, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Flap},
		{k.Focus, k.FocusPrev, k.Activate, k.Close},
		{k.Quit},
	}
}

// DefaultKeyMap returns the bindings for the given primary key.
func DefaultKeyMap(primary string) KeyMap {
	if primary == "" || primary == "space" {
		primary = " "
	}
	keys := []string{primary}
	label := primary
	if primary == " " {
		keys = append(keys, "space")
		label = "space"
	}

	return KeyMap{
		Flap: key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(label, "flap"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "focus"),
		),
		FocusPrev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "focus back"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "press"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
