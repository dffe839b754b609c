// Package converter hosts a unit converter over fixed factor tables, plus
// the formula-based temperature case.
package converter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/berry-kiosk/pkg/kiosk"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/render"
)

// category is one unit family. Factors convert a unit into the family's
// base unit; temperature has no linear factors and is computed directly.
type category struct {
	name    string
	units   []string
	factors []float64 // nil for temperature
}

var categories = []category{
	{
		name:    "Length",
		units:   []string{"mm", "cm", "m", "km", "in", "ft", "yd", "mi"},
		factors: []float64{0.001, 0.01, 1, 1000, 0.0254, 0.3048, 0.9144, 1609.34},
	},
	{
		name:    "Weight",
		units:   []string{"mg", "g", "kg", "lb", "oz", "ton"},
		factors: []float64{0.000001, 0.001, 1, 0.453592, 0.0283495, 1000},
	},
	{
		name:  "Temperature",
		units: []string{"C", "F", "K"},
	},
	{
		name:    "Speed",
		units:   []string{"m/s", "km/h", "mph", "knot", "ft/s"},
		factors: []float64{1, 0.277778, 0.44704, 0.514444, 0.3048},
	},
}

// Module implements the converter screen.
type Module struct {
	cat   int
	from  int
	to    int
	field int // 0=value 1=from 2=to 3=category

	input string
}

type persisted struct {
	Category string `json:"current_category"`
	From     int    `json:"from_unit_index"`
	To       int    `json:"to_unit_index"`
}

// New returns a converter set to Length, mm to cm.
func New() *Module {
	return &Module{to: 1, input: "1"}
}

func (m *Module) ID() kiosk.ModuleID { return kiosk.ModuleConverter }

func (m *Module) OnEnter() {}

func (m *Module) Tick(time.Time) {}

func (m *Module) HandleKey(msg tea.KeyMsg) kiosk.Action {
	switch msg.Type {
	case tea.KeyEsc:
		return kiosk.ActionBack
	case tea.KeyTab:
		m.field = (m.field + 1) % 4
	case tea.KeyUp:
		m.cycle(1)
	case tea.KeyDown:
		m.cycle(-1)
	case tea.KeyBackspace:
		if m.field == 0 && len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyRunes:
		m.inputRune(msg.Runes[0])
	}
	return kiosk.ActionNone
}

func (m *Module) inputRune(r rune) {
	if m.field != 0 {
		return
	}
	switch {
	case r >= '0' && r <= '9':
		if len(m.input) < 12 {
			m.input += string(r)
		}
	case r == '.':
		if !strings.Contains(m.input, ".") {
			m.input += "."
		}
	case r == '-':
		if m.input == "" {
			m.input = "-"
		}
	}
}

// cycle steps whichever field is focused. Unit indices wrap within the
// category; switching category resets both units.
func (m *Module) cycle(delta int) {
	c := categories[m.cat]
	n := len(c.units)
	switch m.field {
	case 1:
		m.from = (m.from + delta + n) % n
	case 2:
		m.to = (m.to + delta + n) % n
	case 3:
		m.cat = (m.cat + delta + len(categories)) % len(categories)
		m.from = 0
		m.to = 1
	}
}

// Convert computes the current result, or false for unparseable input.
func (m *Module) Convert() (float64, bool) {
	v, err := strconv.ParseFloat(m.input, 64)
	if err != nil {
		return 0, false
	}
	return convert(categories[m.cat], v, m.from, m.to), true
}

func convert(c category, v float64, from, to int) float64 {
	if c.factors == nil {
		return convertTemperature(v, c.units[from], c.units[to])
	}
	base := v * c.factors[from]
	return base / c.factors[to]
}

func convertTemperature(v float64, from, to string) float64 {
	// Normalize through Celsius.
	var celsius float64
	switch from {
	case "F":
		celsius = (v - 32) * 5 / 9
	case "K":
		celsius = v - 273.15
	default:
		celsius = v
	}
	switch to {
	case "F":
		return celsius*9/5 + 32
	case "K":
		return celsius + 273.15
	default:
		return celsius
	}
}

func (m *Module) View(width, height int) string {
	c := categories[m.cat]
	var b strings.Builder
	b.WriteString(render.Title.Render("Converter") + "\n\n")

	style := func(idx int, s string) string {
		if m.field == idx {
			return render.Selected.Render(s)
		}
		return render.Text.Render(s)
	}

	b.WriteString(style(3, c.name) + "\n\n")
	b.WriteString(style(0, m.input) + " " + style(1, c.units[m.from]) +
		render.Dim.Render("  ->  ") + style(2, c.units[m.to]) + "\n\n")

	if result, ok := m.Convert(); ok {
		b.WriteString(render.Text.Render(fmt.Sprintf("= %s %s",
			strconv.FormatFloat(result, 'g', 8, 64), c.units[m.to])) + "\n")
	} else {
		b.WriteString(render.Dim.Render("= ?") + "\n")
	}

	b.WriteString("\n" + render.Dim.Render("tab field  up/down change  digits value  esc back"))
	return b.String()
}

func (m *Module) ExportState() any {
	return persisted{Category: categories[m.cat].name, From: m.from, To: m.to}
}

func (m *Module) ImportState(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	for i, c := range categories {
		if c.name == p.Category {
			m.cat = i
			break
		}
	}
	n := len(categories[m.cat].units)
	if p.From >= 0 && p.From < n {
		m.from = p.From
	}
	if p.To >= 0 && p.To < n {
		m.to = p.To
	}
}
