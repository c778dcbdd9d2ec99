package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds every binding the model reacts to
type keyMap struct {
	NextField   key.Binding
	PrevField   key.Binding
	Search      key.Binding
	Cancel      key.Binding
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Select      key.Binding
	SortNext    key.Binding
	SortReverse key.Binding
	Copy        key.Binding
	Export      key.Binding
	Pager       key.Binding
	Help        key.Binding
	Regex       key.Binding
	Recursive   key.Binding
	Zip         key.Binding
	Word        key.Binding
	Excel       key.Binding
	Legacy      key.Binding
	ClearFilter key.Binding
	Quit        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		NextField:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		PrevField:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
		Search:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		Cancel:      key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "cancel search")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Top:         key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("home/g", "top")),
		Bottom:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end/G", "bottom")),
		Select:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select row")),
		SortNext:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "sort column")),
		SortReverse: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reverse sort")),
		Copy:        key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy rows")),
		Export:      key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "export")),
		Pager:       key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "open in pager")),
		Help:        key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Regex:       key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2", "regex")),
		Recursive:   key.NewBinding(key.WithKeys("f3"), key.WithHelp("f3", "recursive")),
		Zip:         key.NewBinding(key.WithKeys("f4"), key.WithHelp("f4", "zip")),
		Word:        key.NewBinding(key.WithKeys("f5"), key.WithHelp("f5", "word")),
		Excel:       key.NewBinding(key.WithKeys("f6"), key.WithHelp("f6", "excel")),
		Legacy:      key.NewBinding(key.WithKeys("f7"), key.WithHelp("f7", "legacy")),
		ClearFilter: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.Search, k.Cancel, k.SortNext, k.Copy, k.Export, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextField, k.PrevField, k.Search, k.Cancel, k.ClearFilter},
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom, k.Select},
		{k.SortNext, k.SortReverse, k.Copy, k.Export, k.Pager},
		{k.Regex, k.Recursive, k.Zip, k.Word, k.Excel, k.Legacy},
		{k.Help, k.Quit},
	}
}
