package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	playPause  key.Binding
	next       key.Binding
	previous   key.Binding
	volumeUp   key.Binding
	volumeDown key.Binding
	shuffle    key.Binding
	repeat     key.Binding
	devices    key.Binding
	refresh    key.Binding
	enter      key.Binding
	back       key.Binding
	help       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		playPause:  key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		next:       key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next")),
		previous:   key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "previous")),
		volumeUp:   key.NewBinding(key.WithKeys("+", "=", "up"), key.WithHelp("+/↑", "volume up")),
		volumeDown: key.NewBinding(key.WithKeys("-", "down"), key.WithHelp("-/↓", "volume down")),
		shuffle:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		repeat:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		devices:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "devices")),
		refresh:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "refresh")),
		enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.playPause, k.next, k.previous, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.playPause, k.next, k.previous},
		{k.volumeUp, k.volumeDown, k.shuffle, k.repeat},
		{k.devices, k.refresh, k.help, k.quit},
	}
}
