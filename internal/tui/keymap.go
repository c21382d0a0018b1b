package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit       key.Binding
	reload     key.Binding
	toggleHelp key.Binding
	focusNext  key.Binding
	focusPrev  key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	record     key.Binding
	report     key.Binding
	yank       key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		focusNext:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
		focusPrev:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous pane")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "row up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "row down")),
		record:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "record task")),
		report:     key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "weekly report")),
		yank:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yank report")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.record, k.report, k.reload, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.record, k.report, k.yank, k.reload, k.toggleHelp, k.quit},
		{k.focusNext, k.focusPrev, k.moveUp, k.moveDown},
	}
}
