// Package worldclock hosts a small list of named time zones and renders
// their current local times side by side.
package worldclock

import (
	"encoding/json"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/berry-kiosk/pkg/kiosk"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/render"
)

const maxClocks = 3

// Clock is one tracked city.
type Clock struct {
	Name string `json:"name"`
	Zone string `json:"zone"` // IANA zone name
}

// catalog is the fixed set of cities offered by the add picker.
var catalog = []Clock{
	{Name: "Madrid", Zone: "Europe/Madrid"},
	{Name: "London", Zone: "Europe/London"},
	{Name: "New York", Zone: "America/New_York"},
	{Name: "Los Angeles", Zone: "America/Los_Angeles"},
	{Name: "Tokyo", Zone: "Asia/Tokyo"},
	{Name: "Sydney", Zone: "Australia/Sydney"},
	{Name: "Dubai", Zone: "Asia/Dubai"},
	{Name: "Sao Paulo", Zone: "America/Sao_Paulo"},
}

type mode int

const (
	modeView mode = iota
	modePick
)

// Module implements the world clock screen.
type Module struct {
	clocks   []Clock
	selected int
	mode     mode
	pick     int

	now time.Time
}

type persisted struct {
	Clocks   []Clock `json:"world_clocks"`
	Selected int     `json:"selected"`
}

// New returns the default three-city clock list.
func New() *Module {
	return &Module{
		clocks: []Clock{catalog[0], catalog[2], catalog[4]},
		now:    time.Now(),
	}
}

func (m *Module) ID() kiosk.ModuleID { return kiosk.ModuleWorldClock }

func (m *Module) OnEnter() {}

func (m *Module) Tick(now time.Time) { m.now = now }

func (m *Module) HandleKey(msg tea.KeyMsg) kiosk.Action {
	if m.mode == modePick {
		m.handlePickKey(msg)
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
		if m.selected < len(m.clocks)-1 {
			m.selected++
		}
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "a":
			if len(m.clocks) < maxClocks {
				m.mode = modePick
				m.pick = 0
			}
		case "d":
			// The last clock cannot be removed.
			if len(m.clocks) > 1 {
				m.clocks = append(m.clocks[:m.selected], m.clocks[m.selected+1:]...)
				if m.selected >= len(m.clocks) {
					m.selected = len(m.clocks) - 1
				}
			}
		}
	}
	return kiosk.ActionNone
}

func (m *Module) handlePickKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeView
	case tea.KeyUp:
		if m.pick > 0 {
			m.pick--
		}
	case tea.KeyDown:
		if m.pick < len(catalog)-1 {
			m.pick++
		}
	case tea.KeyEnter:
		m.add(catalog[m.pick])
		m.mode = modeView
	}
}

// add appends a city unless it is already tracked.
func (m *Module) add(c Clock) {
	for _, existing := range m.clocks {
		if existing.Name == c.Name {
			return
		}
	}
	if len(m.clocks) < maxClocks {
		m.clocks = append(m.clocks, c)
	}
}

// localTime resolves the zone each render; an unresolvable zone shows UTC.
func localTime(now time.Time, zone string) time.Time {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return now.UTC()
	}
	return now.In(loc)
}

func (m *Module) View(width, height int) string {
	var b strings.Builder
	b.WriteString(render.Title.Render("World Clock") + "\n\n")

	if m.mode == modePick {
		b.WriteString(render.Text.Render("Add city") + "\n")
		for i, c := range catalog {
			if i == m.pick {
				b.WriteString(render.Selected.Render("> "+c.Name) + "\n")
			} else {
				b.WriteString(render.Text.Render("  "+c.Name) + "\n")
			}
		}
		b.WriteString("\n" + render.Dim.Render("enter add  esc cancel"))
		return b.String()
	}

	for i, c := range m.clocks {
		local := localTime(m.now, c.Zone)
		line := render.TruncateOrPad(c.Name, 14) + local.Format("15:04:05  Mon Jan 2")
		if i == m.selected {
			b.WriteString(render.Selected.Render("> "+line) + "\n")
		} else {
			b.WriteString(render.Text.Render("  "+line) + "\n")
		}
	}

	b.WriteString("\n" + render.Dim.Render("a add  d delete  esc back"))
	return b.String()
}

func (m *Module) ExportState() any {
	return persisted{Clocks: m.clocks, Selected: m.selected}
}

func (m *Module) ImportState(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	if len(p.Clocks) > 0 {
		m.clocks = p.Clocks
		if len(m.clocks) > maxClocks {
			m.clocks = m.clocks[:maxClocks]
		}
	}
	if p.Selected >= 0 && p.Selected < len(m.clocks) {
		m.selected = p.Selected
	}
}
