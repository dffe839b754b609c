package notes

import (
	"encoding/json"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func typeRunes(m *Module, s string) {
	for _, r := range s {
		m.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func addNote(m *Module, title, body string) {
	m.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	typeRunes(m, title)
	m.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	typeRunes(m, body)
	m.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestCreateNotesNewestFirst(t *testing.T) {
	m := New()
	m.nowFn = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }

	addNote(m, "first", "aaa")
	addNote(m, "second", "bbb")

	if len(m.notes) != 2 {
		t.Fatalf("notes len = %d", len(m.notes))
	}
	if m.notes[0].Title != "second" || m.notes[1].Title != "first" {
		t.Errorf("order = %q, %q; want newest first", m.notes[0].Title, m.notes[1].Title)
	}
	if m.notes[0].Content != "bbb" {
		t.Errorf("content = %q", m.notes[0].Content)
	}
}

func TestEmptyTitleNotSaved(t *testing.T) {
	m := New()
	m.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	m.HandleKey(tea.KeyMsg{Type: tea.KeyEnter}) // to body
	m.HandleKey(tea.KeyMsg{Type: tea.KeyEnter}) // save attempt

	if len(m.notes) != 0 {
		t.Errorf("saved a titleless note: %v", m.notes)
	}
	if m.mode != modeAdd {
		t.Errorf("left add mode without saving")
	}
}

func TestDeleteLastNoteExportsEmptyArray(t *testing.T) {
	m := New()
	m.ImportState(json.RawMessage(`{"notes": [{"title": "Buy milk", "content": "", "created_at": "2025-01-01T00:00:00Z"}]}`))
	if len(m.notes) != 1 {
		t.Fatalf("import: notes len = %d", len(m.notes))
	}

	m.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	if len(m.notes) != 0 {
		t.Fatalf("delete left %d notes", len(m.notes))
	}

	raw, err := json.Marshal(m.ExportState())
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"notes":[]}` {
		t.Errorf("export = %s, want empty array", raw)
	}
}

func TestDeleteClampsSelection(t *testing.T) {
	m := New()
	addNote(m, "a", "")
	addNote(m, "b", "")
	addNote(m, "c", "")

	m.HandleKey(tea.KeyMsg{Type: tea.KeyDown})
	m.HandleKey(tea.KeyMsg{Type: tea.KeyDown}) // select oldest
	m.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})

	if m.selected != 1 {
		t.Errorf("selected = %d after deleting last row, want 1", m.selected)
	}
	m.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	m.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	m.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}}) // empty list no-op
	if len(m.notes) != 0 || m.selected != 0 {
		t.Errorf("notes=%d selected=%d", len(m.notes), m.selected)
	}
}

func TestImportToleratesPartialData(t *testing.T) {
	m := New()
	m.ImportState(nil)
	m.ImportState(json.RawMessage(`{}`))
	m.ImportState(json.RawMessage(`not json`))
	if m.notes == nil || len(m.notes) != 0 {
		t.Errorf("notes = %v after tolerant imports", m.notes)
	}
}

func TestStateRoundTrip(t *testing.T) {
	m := New()
	addNote(m, "groceries", "milk and eggs")

	raw, err := json.Marshal(m.ExportState())
	if err != nil {
		t.Fatal(err)
	}

	fresh := New()
	fresh.ImportState(raw)
	if len(fresh.notes) != 1 || fresh.notes[0].Title != "groceries" {
		t.Errorf("round trip: %v", fresh.notes)
	}
}
