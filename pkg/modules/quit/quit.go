// Package quit hosts the exit screen: quit the kiosk, reboot, or power the
// device off, each behind an explicit confirmation step.
package quit

import (
	"encoding/json"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/berry-kiosk/pkg/hardware"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/kiosk"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/notify"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/render"
)

const (
	actionQuit     = "quit"
	actionRestart  = "restart"
	actionShutdown = "shutdown"
)

var actions = []struct {
	id    string
	label string
}{
	{actionQuit, "Exit kiosk"},
	{actionRestart, "Restart device"},
	{actionShutdown, "Power off"},
}

// Module implements the quit screen.
type Module struct {
	engine *hardware.Engine
	queue  *notify.Queue

	selected   int
	confirming bool
	lastAction string
}

type persisted struct {
	LastAction string `json:"last_action"`
}

// New wires the quit screen to the engine for restart and shutdown.
func New(engine *hardware.Engine, queue *notify.Queue) *Module {
	return &Module{engine: engine, queue: queue}
}

func (m *Module) ID() kiosk.ModuleID { return kiosk.ModuleQuit }

// OnEnter resets to the unconfirmed action list.
func (m *Module) OnEnter() {
	m.confirming = false
	m.selected = 0
}

func (m *Module) Tick(time.Time) {}

func (m *Module) HandleKey(msg tea.KeyMsg) kiosk.Action {
	if m.confirming {
		switch msg.Type {
		case tea.KeyEsc:
			m.confirming = false
		case tea.KeyEnter:
			return m.execute()
		case tea.KeyRunes:
			switch string(msg.Runes) {
			case "y":
				return m.execute()
			case "n":
				m.confirming = false
			}
		}
		return kiosk.ActionNone
	}

	switch msg.Type {
	case tea.KeyEsc:
		return kiosk.ActionBack
	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < len(actions)-1 {
			m.selected++
		}
	case tea.KeyEnter:
		m.confirming = true
	}
	return kiosk.ActionNone
}

// execute performs the confirmed action. Quit is signalled to the
// orchestrator; restart and shutdown go to the hardware engine, and a
// failure of either surfaces as an error notification instead of exiting.
func (m *Module) execute() kiosk.Action {
	m.confirming = false
	m.lastAction = actions[m.selected].id

	switch m.lastAction {
	case actionQuit:
		return kiosk.ActionQuit

	case actionRestart:
		if err := m.engine.Restart(); err != nil {
			m.queue.Push("Restart failed", err.Error(), notify.Error)
			return kiosk.ActionNone
		}
		return kiosk.ActionQuit

	case actionShutdown:
		if err := m.engine.Shutdown(); err != nil {
			m.queue.Push("Shutdown failed", err.Error(), notify.Error)
			return kiosk.ActionNone
		}
		return kiosk.ActionQuit
	}
	return kiosk.ActionNone
}

func (m *Module) View(width, height int) string {
	var b strings.Builder
	b.WriteString(render.Title.Render("Quit") + "\n\n")

	if m.confirming {
		b.WriteString(render.Text.Render(actions[m.selected].label+"?") + "\n\n")
		b.WriteString(render.Dim.Render("y/enter confirm  n/esc cancel"))
		return b.String()
	}

	for i, a := range actions {
		if i == m.selected {
			b.WriteString(render.Selected.Render("> "+a.label) + "\n")
		} else {
			b.WriteString(render.Text.Render("  "+a.label) + "\n")
		}
	}
	b.WriteString("\n" + render.Dim.Render("enter select  esc back"))
	return b.String()
}

func (m *Module) ExportState() any {
	return persisted{LastAction: m.lastAction}
}

func (m *Module) ImportState(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	m.lastAction = p.LastAction
}
