// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program around a live desk
package ui

import (
	"github.com/Mixdesk-Audio/mixdesk-go/internal/mixer"
	tea "github.com/charmbracelet/bubbletea"
)

// NewModel creates a TUI model over desk.
func NewModel(desk *mixer.Desk) Model {
	return Model{desk: desk}
}

// Run builds the TUI program. The caller owns p.Run and can push
// StatusMsg updates with p.Send.
func Run(desk *mixer.Desk) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(desk), tea.WithAltScreen())
	return p, nil
}

// watchDesk blocks on the desk's coalesced change signal and converts
// it into a repaint message.
func watchDesk(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return DeskChangedMsg{}
	}
}
