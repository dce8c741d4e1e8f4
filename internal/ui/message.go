package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ifcmat/internal/models"
)

// MsgKind enumerates the TUI's own message types; workflow messages are handled separately.
type MsgKind int

// Msg represents the TUI-level messages (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgHistoryLoaded MsgKind = iota
	MsgFileOpened
)

// historyLoadedMsg is the constructor for [MsgHistoryLoaded]
func historyLoadedMsg(runs []*models.Run, err error) Msg {
	return Msg{
		kind: MsgHistoryLoaded,
		data: struct {
			runs []*models.Run
			err  error
		}{runs, err},
	}
}

// fileOpenedMsg is the constructor for [MsgFileOpened]
func fileOpenedMsg(path string, err error) Msg {
	return Msg{
		kind: MsgFileOpened,
		data: struct {
			path string
			err  error
		}{path, err},
	}
}
