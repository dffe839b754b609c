package calculator

import (
	"encoding/json"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/berry-kiosk/pkg/kiosk"
)

func press(m *Module, keys string) {
	for _, r := range keys {
		m.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestBasicArithmetic(t *testing.T) {
	tests := []struct {
		keys string
		want string
	}{
		{"12+34=", "46"},
		{"9-4=", "5"},
		{"6*7=", "42"},
		{"8/2=", "4"},
		{"1.5+2.5=", "4"},
		{"2+3*", "5"}, // chained op evaluates the pending one
	}
	for _, tt := range tests {
		m := New()
		press(m, tt.keys)
		if m.display != tt.want {
			t.Errorf("%q: display = %q, want %q", tt.keys, m.display, tt.want)
		}
	}
}

func TestDivisionByZeroErrors(t *testing.T) {
	m := New()
	press(m, "5/0=")
	if m.display != "Error" || !m.errored {
		t.Fatalf("display = %q, errored = %v", m.display, m.errored)
	}

	// Next digit entry recovers.
	press(m, "7")
	if m.display != "7" || m.errored {
		t.Errorf("after recovery: display = %q, errored = %v", m.display, m.errored)
	}
}

func TestSingleDecimalPoint(t *testing.T) {
	m := New()
	press(m, "1.2.3")
	if m.display != "1.23" {
		t.Errorf("display = %q, want 1.23", m.display)
	}
}

func TestMemoryRegister(t *testing.T) {
	m := New()
	press(m, "42a") // M+
	press(m, "c")
	press(m, "r") // MR
	if m.display != "42" {
		t.Errorf("recall = %q, want 42", m.display)
	}
	press(m, "2z") // M-
	if m.memory != 40 {
		t.Errorf("memory = %v, want 40", m.memory)
	}
	press(m, "h")
	if m.memory != 0 {
		t.Errorf("memory after clear = %v", m.memory)
	}
}

func TestHistoryCapped(t *testing.T) {
	m := New()
	for i := 0; i < 15; i++ {
		press(m, "1+1=")
	}
	if len(m.history) != maxHistory {
		t.Errorf("history len = %d, want %d", len(m.history), maxHistory)
	}
}

func TestAdvancedFunctionsGated(t *testing.T) {
	m := New()
	press(m, "9q") // sqrt ignored in basic mode
	if m.display != "9" {
		t.Errorf("basic mode sqrt: display = %q", m.display)
	}

	press(m, "m") // advanced
	press(m, "q")
	if m.display != "3" {
		t.Errorf("sqrt(9) = %q", m.display)
	}
	press(m, "4s")
	if m.display != "16" {
		t.Errorf("4 squared = %q", m.display)
	}
}

func TestEscGoesBack(t *testing.T) {
	m := New()
	if act := m.HandleKey(tea.KeyMsg{Type: tea.KeyEsc}); act != kiosk.ActionBack {
		t.Errorf("esc action = %v, want back", act)
	}
}

func TestStateRoundTrip(t *testing.T) {
	m := New()
	press(m, "2+2=")
	press(m, "5a")
	press(m, "m")

	raw, err := json.Marshal(m.ExportState())
	if err != nil {
		t.Fatal(err)
	}

	fresh := New()
	fresh.ImportState(raw)
	if len(fresh.history) != 1 || fresh.memory != 5 || !fresh.advanced {
		t.Errorf("round trip: history=%v memory=%v advanced=%v",
			fresh.history, fresh.memory, fresh.advanced)
	}
}

func TestImportToleratesGarbage(t *testing.T) {
	m := New()
	m.ImportState(nil)
	m.ImportState(json.RawMessage(`{`))
	m.ImportState(json.RawMessage(`{"memory": "not a number"}`))
	if m.display != "0" {
		t.Errorf("display = %q after bad imports", m.display)
	}
}
