// Package calendar hosts a month-grid calendar with per-day events. A
// background due check raises an event notification when an event's date
// and time match the current minute; it runs off the UI goroutine, so all
// event access is mutex-guarded.
package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/berry-kiosk/pkg/kiosk"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/notify"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/render"
)

const dayKeyLayout = "2006-01-02"

// Event is one calendar entry. Time is "HH:MM", 24 hour.
type Event struct {
	Title string `json:"title"`
	Time  string `json:"time"`
}

type mode int

const (
	modeMonth mode = iota
	modeAdd
)

// Module implements the calendar screen.
type Module struct {
	queue *notify.Queue

	mu     sync.Mutex
	events map[string][]Event

	view     time.Time // first of the displayed month
	selected time.Time // selected day

	mode       mode
	titleInput textinput.Model
	hour       int
	minute     int
	onTime     bool // add form focus: false = title, true = time
	timeField  int  // 0=hour 1=minute

	lastFired string // "YYYY-MM-DD HH:MM" of the last due notification

	nowFn func() time.Time
}

type persisted struct {
	Events   map[string][]Event `json:"events"`
	ViewDate string             `json:"view_date"`
}

// New returns a calendar opened on the current month.
func New(queue *notify.Queue) *Module {
	title := textinput.New()
	title.Placeholder = "Event title"
	title.CharLimit = 60

	m := &Module{
		queue:      queue,
		events:     make(map[string][]Event),
		titleInput: title,
		nowFn:      time.Now,
	}
	now := m.nowFn()
	m.selected = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	m.view = m.selected.AddDate(0, 0, 1-m.selected.Day())
	return m
}

func (m *Module) ID() kiosk.ModuleID { return kiosk.ModuleCalendar }

func (m *Module) OnEnter() {}

func (m *Module) Tick(time.Time) {}

func (m *Module) HandleKey(msg tea.KeyMsg) kiosk.Action {
	if m.mode == modeAdd {
		m.handleAddKey(msg)
		return kiosk.ActionNone
	}

	switch msg.Type {
	case tea.KeyEsc:
		return kiosk.ActionBack
	case tea.KeyLeft:
		m.moveDay(-1)
	case tea.KeyRight:
		m.moveDay(1)
	case tea.KeyUp:
		m.moveDay(-7)
	case tea.KeyDown:
		m.moveDay(7)
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "a":
			m.startAdd()
		case "[":
			m.shiftMonth(-1)
		case "]":
			m.shiftMonth(1)
		case "t":
			now := m.nowFn()
			m.selected = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
			m.view = m.selected.AddDate(0, 0, 1-m.selected.Day())
		}
	}
	return kiosk.ActionNone
}

// moveDay shifts the selection, following it across month boundaries.
func (m *Module) moveDay(days int) {
	m.selected = m.selected.AddDate(0, 0, days)
	m.view = time.Date(m.selected.Year(), m.selected.Month(), 1, 0, 0, 0, 0, time.Local)
}

// shiftMonth changes the displayed month and snaps selection to its first.
func (m *Module) shiftMonth(months int) {
	m.view = m.view.AddDate(0, months, 0)
	m.selected = m.view
}

func (m *Module) startAdd() {
	m.mode = modeAdd
	m.onTime = false
	m.timeField = 0
	m.hour = 12
	m.minute = 0
	m.titleInput.SetValue("")
	m.titleInput.Focus()
}

func (m *Module) handleAddKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeMonth
		return
	case tea.KeyTab:
		m.onTime = !m.onTime
		if m.onTime {
			m.titleInput.Blur()
		} else {
			m.titleInput.Focus()
		}
		return
	case tea.KeyEnter:
		if !m.onTime {
			m.onTime = true
			m.titleInput.Blur()
			return
		}
		m.saveEvent()
		return
	}

	if !m.onTime {
		m.titleInput, _ = m.titleInput.Update(msg)
		return
	}

	switch msg.Type {
	case tea.KeyLeft:
		m.timeField = 0
	case tea.KeyRight:
		m.timeField = 1
	case tea.KeyUp:
		m.adjustTime(1)
	case tea.KeyDown:
		m.adjustTime(-1)
	}
}

func (m *Module) adjustTime(delta int) {
	if m.timeField == 0 {
		m.hour = (m.hour + delta + 24) % 24
	} else {
		m.minute = (m.minute + delta + 60) % 60
	}
}

func (m *Module) saveEvent() {
	title := strings.TrimSpace(m.titleInput.Value())
	if title == "" {
		return
	}
	ev := Event{Title: title, Time: fmt.Sprintf("%02d:%02d", m.hour, m.minute)}
	key := m.selected.Format(dayKeyLayout)

	m.mu.Lock()
	m.events[key] = append(m.events[key], ev)
	m.mu.Unlock()

	m.mode = modeMonth
}

// CheckDue raises an event notification for any event on today's date whose
// time matches the current minute. Registered with the minute refresher, so
// it runs off the UI goroutine; firing is deduplicated per minute.
func (m *Module) CheckDue() {
	now := m.nowFn()
	day := now.Format(dayKeyLayout)
	hhmm := now.Format("15:04")
	stamp := day + " " + hhmm

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastFired == stamp {
		return
	}
	for _, ev := range m.events[day] {
		if ev.Time == hhmm {
			m.lastFired = stamp
			if m.queue != nil {
				m.queue.PushEvent(ev.Title, ev.Time)
			}
		}
	}
}

func (m *Module) View(width, height int) string {
	var b strings.Builder
	b.WriteString(render.Title.Render("Calendar") + "\n\n")

	if m.mode == modeAdd {
		b.WriteString(render.Text.Render("New event on "+m.selected.Format("Mon Jan 2")) + "\n")
		b.WriteString(m.titleInput.View() + "\n")

		hh := fmt.Sprintf("%02d", m.hour)
		mm := fmt.Sprintf("%02d", m.minute)
		if m.onTime && m.timeField == 0 {
			hh = render.Selected.Render(hh)
		}
		if m.onTime && m.timeField == 1 {
			mm = render.Selected.Render(mm)
		}
		b.WriteString(hh + ":" + mm + "\n\n")
		b.WriteString(render.Dim.Render("enter next/save  tab switch  arrows set time  esc cancel"))
		return b.String()
	}

	b.WriteString(render.Text.Render(m.view.Format("January 2006")) + "\n")
	b.WriteString(render.Dim.Render("Mo Tu We Th Fr Sa Su") + "\n")
	b.WriteString(m.renderGrid())

	key := m.selected.Format(dayKeyLayout)
	m.mu.Lock()
	todays := append([]Event(nil), m.events[key]...)
	m.mu.Unlock()

	b.WriteString("\n" + render.Text.Render(m.selected.Format("Mon Jan 2")) + "\n")
	if len(todays) == 0 {
		b.WriteString(render.Dim.Render("  no events") + "\n")
	}
	for _, ev := range todays {
		b.WriteString(render.Text.Render("  "+ev.Time+"  "+ev.Title) + "\n")
	}

	b.WriteString("\n" + render.Dim.Render("arrows day  [ ] month  a add  t today  esc back"))
	return b.String()
}

// renderGrid lays the month out Monday-first, marking days with events and
// the selected day.
func (m *Module) renderGrid() string {
	first := m.view
	daysInMonth := first.AddDate(0, 1, -1).Day()
	lead := (int(first.Weekday()) + 6) % 7 // Monday = 0

	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	b.WriteString(strings.Repeat("   ", lead))
	col := lead
	for day := 1; day <= daysInMonth; day++ {
		date := first.AddDate(0, 0, day-1)
		cell := fmt.Sprintf("%2d", day)

		switch {
		case date.Equal(m.selected):
			cell = render.Selected.Render(cell)
		case len(m.events[date.Format(dayKeyLayout)]) > 0:
			cell = render.Title.Render(cell)
		default:
			cell = render.Text.Render(cell)
		}
		b.WriteString(cell + " ")

		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Module) ExportState() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return persisted{Events: m.events, ViewDate: m.view.Format(dayKeyLayout)}
}

func (m *Module) ImportState(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}

	m.mu.Lock()
	if p.Events != nil {
		m.events = p.Events
	}
	m.mu.Unlock()

	if view, err := time.ParseInLocation(dayKeyLayout, p.ViewDate, time.Local); err == nil {
		m.view = time.Date(view.Year(), view.Month(), 1, 0, 0, 0, 0, time.Local)
		m.selected = m.view
	}
}
