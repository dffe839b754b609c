package kiosk

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg drives the periodic frame update: idle detection, module ticks,
// and notification expiry.
type TickMsg struct {
	Time time.Time
}

// TickCmd returns a bubbletea Cmd that sends a TickMsg after d.
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
