package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle key.Binding
	Pause  key.Binding
	Quit   key.Binding
}

func newKeyMap(hasToggle, hasSurface bool) keyMap {
	k := keyMap{
		Toggle: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle theme"),
		),
		Pause: key.NewBinding(
			key.WithKeys(" ", "space", "p"),
			key.WithHelp("space", "pause/resume"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
	k.Toggle.SetEnabled(hasToggle)
	k.Pause.SetEnabled(hasSurface)
	return k
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Pause, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
