package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start key.Binding
	Pause key.Binding
	Skip  key.Binding
	Rest  key.Binding
	Reset key.Binding
	Save  key.Binding
	Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Skip, k.Rest, k.Reset, k.Save, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Pause, k.Skip, k.Rest},
		{k.Reset, k.Save, k.Quit},
	}
}

func defaultKeys() keyMap {
	return keyMap{
		Start: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Pause: key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause/resume")),
		Skip:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "skip/next")),
		Rest:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rest")),
		Reset: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset")),
		Save:  key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save & exit")),
		Quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
