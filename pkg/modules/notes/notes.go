// Package notes hosts a minimal note list: create with title and body,
// browse newest-first, delete. The whole list persists through the store on
// every exit, so deleting the last note durably records an empty list.
package notes

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/berry-kiosk/pkg/kiosk"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/render"
)

// Note is one stored note.
type Note struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type mode int

const (
	modeList mode = iota
	modeAdd
)

// Module implements the notes screen.
type Module struct {
	notes    []Note
	selected int
	mode     mode

	titleInput textinput.Model
	bodyInput  textinput.Model
	onBody     bool // add form focus: false = title, true = body

	nowFn func() time.Time
}

type persisted struct {
	Notes []Note `json:"notes"`
}

// New returns an empty notes module.
func New() *Module {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 60

	body := textinput.New()
	body.Placeholder = "Content"
	body.CharLimit = 200

	return &Module{
		notes:      []Note{},
		titleInput: title,
		bodyInput:  body,
		nowFn:      time.Now,
	}
}

func (m *Module) ID() kiosk.ModuleID { return kiosk.ModuleNotes }

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
	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < len(m.notes)-1 {
			m.selected++
		}
	case tea.KeyDelete, tea.KeyBackspace:
		m.deleteSelected()
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "n":
			m.startAdd()
		case "d":
			m.deleteSelected()
		}
	}
	return kiosk.ActionNone
}

func (m *Module) handleAddKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeList
		return
	case tea.KeyTab:
		m.onBody = !m.onBody
		m.syncFocus()
		return
	case tea.KeyEnter:
		if !m.onBody {
			m.onBody = true
			m.syncFocus()
			return
		}
		m.saveNew()
		return
	}

	if m.onBody {
		m.bodyInput, _ = m.bodyInput.Update(msg)
	} else {
		m.titleInput, _ = m.titleInput.Update(msg)
	}
}

func (m *Module) startAdd() {
	m.mode = modeAdd
	m.onBody = false
	m.titleInput.SetValue("")
	m.bodyInput.SetValue("")
	m.syncFocus()
}

func (m *Module) syncFocus() {
	if m.onBody {
		m.titleInput.Blur()
		m.bodyInput.Focus()
	} else {
		m.bodyInput.Blur()
		m.titleInput.Focus()
	}
}

// saveNew prepends the note so the list stays newest-first.
func (m *Module) saveNew() {
	title := strings.TrimSpace(m.titleInput.Value())
	if title == "" {
		return
	}
	note := Note{
		Title:     title,
		Content:   strings.TrimSpace(m.bodyInput.Value()),
		CreatedAt: m.nowFn(),
	}
	m.notes = append([]Note{note}, m.notes...)
	m.selected = 0
	m.mode = modeList
}

func (m *Module) deleteSelected() {
	if len(m.notes) == 0 {
		return
	}
	m.notes = append(m.notes[:m.selected], m.notes[m.selected+1:]...)
	if m.selected >= len(m.notes) && m.selected > 0 {
		m.selected--
	}
}

func (m *Module) View(width, height int) string {
	var b strings.Builder
	b.WriteString(render.Title.Render("Notes") + "\n\n")

	if m.mode == modeAdd {
		b.WriteString(render.Text.Render("New note") + "\n")
		b.WriteString(m.titleInput.View() + "\n")
		b.WriteString(m.bodyInput.View() + "\n\n")
		b.WriteString(render.Dim.Render("enter next/save  tab switch  esc cancel"))
		return b.String()
	}

	if len(m.notes) == 0 {
		b.WriteString(render.Dim.Render("No notes yet.") + "\n")
	}
	for i, n := range m.notes {
		line := render.TruncateOrPad(n.Title, max(width-4, 20))
		if i == m.selected {
			b.WriteString(render.Selected.Render("> "+line) + "\n")
			if n.Content != "" {
				b.WriteString(render.Dim.Render("  "+n.Content) + "\n")
			}
		} else {
			b.WriteString(render.Text.Render("  "+line) + "\n")
		}
	}

	b.WriteString("\n" + render.Dim.Render("n new  d delete  up/down select  esc back"))
	return b.String()
}

// ExportState always returns the full list; an emptied list exports an
// empty array rather than nothing.
func (m *Module) ExportState() any {
	return persisted{Notes: m.notes}
}

func (m *Module) ImportState(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	if p.Notes != nil {
		m.notes = p.Notes
	}
	m.selected = 0
}
