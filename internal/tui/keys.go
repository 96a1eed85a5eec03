package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Visualize  key.Binding
	Clear      key.Binding
	LoadSample key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Visualize: key.NewBinding(
			key.WithKeys("ctrl+r", "f5"),
			key.WithHelp("ctrl+r", "visualize"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l", "f6"),
			key.WithHelp("ctrl+l", "clear"),
		),
		LoadSample: key.NewBinding(
			key.WithKeys("ctrl+o", "f7"),
			key.WithHelp("ctrl+o", "sample"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Visualize, k.Clear, k.LoadSample, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
