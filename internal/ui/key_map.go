package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/desertthunder/ifcmat/internal/workflow"
)

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	choose   key.Binding
	confirm  key.Binding
	upload   key.Binding
	process  key.Binding
	download key.Binding
	reset    key.Binding
	open     key.Binding
	history  key.Binding
	back     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		choose:   key.NewBinding(key.WithKeys("f", "/"), key.WithHelp("f", "choose file")),
		confirm:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "upload")),
		upload:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
		process:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "extract")),
		download: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download csv")),
		reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open csv")),
		history:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "history")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// sync enables exactly the bindings whose actions the controller currently allows.
func (k *keyMap) sync(c workflow.Controls, s workflow.Session, hasHistory bool) {
	k.choose.SetEnabled(c.Submit)
	k.upload.SetEnabled(c.Submit && s.File != nil)
	k.process.SetEnabled(c.Process)
	k.download.SetEnabled(c.Download)
	k.reset.SetEnabled(c.Reset && (s.Stage != workflow.Idle || s.File != nil))
	k.open.SetEnabled(s.SavedPath != "" && !s.InFlight())
	k.history.SetEnabled(hasHistory && !s.InFlight())
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.choose, k.upload, k.process, k.download, k.open, k.reset, k.history, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.choose, k.confirm, k.upload},
		{k.process, k.download, k.open},
		{k.reset, k.history, k.back, k.quit},
	}
}
