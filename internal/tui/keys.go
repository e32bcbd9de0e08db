package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit        key.Binding
	NextSection key.Binding
	PrevSection key.Binding
	Submit      key.Binding
	Toggle      key.Binding
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Accept      key.Binding
	Decline     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		NextSection: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next section")),
		PrevSection: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous section")),
		Submit:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
		Toggle:      key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "collapse/expand")),
		Up:          key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous row")),
		Down:        key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next row")),
		Left:        key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "previous option")),
		Right:       key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next option")),
		PageUp:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Accept:      key.NewBinding(key.WithKeys("y", "Y", "enter"), key.WithHelp("y", "submit")),
		Decline:     key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "cancel")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextSection, k.Submit, k.Toggle, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextSection, k.PrevSection, k.Submit, k.Toggle},
		{k.Up, k.Down, k.Left, k.Right},
		{k.PageUp, k.PageDown, k.Quit},
	}
}
