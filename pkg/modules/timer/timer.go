// Package timer hosts a stopwatch and a countdown. The countdown's
// configured duration persists; a finished countdown raises a warning
// notification through the shared queue.
package timer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/berry-kiosk/pkg/kiosk"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/notify"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/render"
)

const (
	modeStopwatch = "stopwatch"
	modeCountdown = "countdown"
)

// Module implements the timer screen.
type Module struct {
	queue *notify.Queue

	mode    string
	running bool
	last    time.Time // previous tick while running

	elapsed time.Duration // stopwatch

	hours, minutes, seconds int           // countdown configuration
	remaining               time.Duration // live countdown
	field                   int           // 0=h 1=m 2=s
}

type persisted struct {
	Mode    string `json:"mode"`
	Hours   int    `json:"countdown_hours"`
	Minutes int    `json:"countdown_minutes"`
	Seconds int    `json:"countdown_seconds"`
}

// New returns a stopped timer with the default 5 minute countdown.
func New(queue *notify.Queue) *Module {
	return &Module{
		queue:   queue,
		mode:    modeStopwatch,
		minutes: 5,
	}
}

func (m *Module) ID() kiosk.ModuleID { return kiosk.ModuleTimer }

func (m *Module) OnEnter() {}

func (m *Module) configured() time.Duration {
	return time.Duration(m.hours)*time.Hour +
		time.Duration(m.minutes)*time.Minute +
		time.Duration(m.seconds)*time.Second
}

// Tick advances whichever clock is running. A countdown reaching zero stops
// and notifies once.
func (m *Module) Tick(now time.Time) {
	if !m.running || m.last.IsZero() {
		m.last = now
		return
	}
	delta := now.Sub(m.last)
	m.last = now
	if delta <= 0 {
		return
	}

	switch m.mode {
	case modeStopwatch:
		m.elapsed += delta
	case modeCountdown:
		m.remaining -= delta
		if m.remaining <= 0 {
			m.remaining = 0
			m.running = false
			if m.queue != nil {
				m.queue.Push("Timer", "Countdown finished", notify.Warning)
			}
		}
	}
}

func (m *Module) HandleKey(msg tea.KeyMsg) kiosk.Action {
	switch msg.Type {
	case tea.KeyEsc:
		return kiosk.ActionBack

	case tea.KeySpace:
		m.toggleRun()

	case tea.KeyTab:
		m.switchMode()

	case tea.KeyLeft:
		if m.mode == modeCountdown && !m.running && m.field > 0 {
			m.field--
		}
	case tea.KeyRight:
		if m.mode == modeCountdown && !m.running && m.field < 2 {
			m.field++
		}
	case tea.KeyUp:
		m.adjustField(1)
	case tea.KeyDown:
		m.adjustField(-1)

	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "t":
			m.switchMode()
		case "r":
			m.reset()
		case " ":
			m.toggleRun()
		}
	}
	return kiosk.ActionNone
}

func (m *Module) switchMode() {
	m.running = false
	if m.mode == modeStopwatch {
		m.mode = modeCountdown
		m.remaining = m.configured()
	} else {
		m.mode = modeStopwatch
	}
}

func (m *Module) toggleRun() {
	if m.mode == modeCountdown && !m.running {
		if m.remaining <= 0 {
			m.remaining = m.configured()
		}
		if m.remaining <= 0 {
			return // nothing configured
		}
	}
	m.running = !m.running
}

func (m *Module) reset() {
	m.running = false
	m.elapsed = 0
	m.remaining = m.configured()
}

// adjustField edits the countdown configuration; only while stopped.
func (m *Module) adjustField(delta int) {
	if m.mode != modeCountdown || m.running {
		return
	}
	switch m.field {
	case 0:
		m.hours = clamp(m.hours+delta, 0, 23)
	case 1:
		m.minutes = clamp(m.minutes+delta, 0, 59)
	case 2:
		m.seconds = clamp(m.seconds+delta, 0, 59)
	}
	m.remaining = m.configured()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func (m *Module) View(width, height int) string {
	var b strings.Builder
	b.WriteString(render.Title.Render("Timer") + render.Dim.Render("  ["+m.mode+"]") + "\n\n")

	switch m.mode {
	case modeStopwatch:
		b.WriteString(render.Box(render.Text.Render(formatClock(m.elapsed)), "", 14, m.running) + "\n")

	case modeCountdown:
		b.WriteString(render.Box(render.Text.Render(formatClock(m.remaining)), "", 14, m.running) + "\n")
		if !m.running {
			fields := []string{
				fmt.Sprintf("%02dh", m.hours),
				fmt.Sprintf("%02dm", m.minutes),
				fmt.Sprintf("%02ds", m.seconds),
			}
			for i, f := range fields {
				if i == m.field {
					fields[i] = render.Selected.Render(f)
				} else {
					fields[i] = render.Dim.Render(f)
				}
			}
			b.WriteString(strings.Join(fields, " ") + "\n")
		}
	}

	state := "stopped"
	if m.running {
		state = "running"
	}
	b.WriteString("\n" + render.Dim.Render(state) + "\n")
	b.WriteString(render.Dim.Render("space start/stop  r reset  tab mode  arrows set  esc back"))
	return b.String()
}

func (m *Module) ExportState() any {
	return persisted{Mode: m.mode, Hours: m.hours, Minutes: m.minutes, Seconds: m.seconds}
}

func (m *Module) ImportState(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	if p.Mode == modeStopwatch || p.Mode == modeCountdown {
		m.mode = p.Mode
	}
	m.hours = clamp(p.Hours, 0, 23)
	m.minutes = clamp(p.Minutes, 0, 59)
	m.seconds = clamp(p.Seconds, 0, 59)
	m.remaining = m.configured()
}
