// Package calculator hosts the kiosk's calculator: accumulator-style entry
// with the four basic operations, a memory register, a capped result
// history, and an advanced mode adding roots and reciprocals.
package calculator

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/berry-kiosk/pkg/kiosk"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/render"
)

const (
	maxDisplayLen = 12
	maxHistory    = 10
)

// Module implements the calculator screen.
type Module struct {
	display  string
	previous float64
	op       string // "+", "-", "*", "/" or ""
	newInput bool
	hasDot   bool
	errored  bool

	history  []string
	memory   float64
	advanced bool
}

type persisted struct {
	History  []string `json:"history"`
	Memory   float64  `json:"memory"`
	Advanced bool     `json:"advanced"`
}

// New returns a cleared calculator.
func New() *Module {
	m := &Module{}
	m.clearAll()
	return m
}

func (m *Module) ID() kiosk.ModuleID { return kiosk.ModuleCalculator }

func (m *Module) OnEnter() {}

func (m *Module) Tick(time.Time) {}

func (m *Module) HandleKey(msg tea.KeyMsg) kiosk.Action {
	switch msg.Type {
	case tea.KeyEsc:
		return kiosk.ActionBack
	case tea.KeyEnter:
		m.calculate()
		return kiosk.ActionNone
	case tea.KeyBackspace:
		m.clearEntry()
		return kiosk.ActionNone
	}

	if msg.Type != tea.KeyRunes || len(msg.Runes) == 0 {
		return kiosk.ActionNone
	}

	switch r := msg.Runes[0]; r {
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		m.inputDigit(string(r))
	case '.':
		m.inputDot()
	case '+', '-':
		m.inputOp(string(r))
	case '*', 'x':
		m.inputOp("*")
	case '/':
		m.inputOp("/")
	case '=':
		m.calculate()
	case 'c':
		m.clearAll()
	case 'm':
		m.advanced = !m.advanced
	case 'q':
		if m.advanced {
			m.sqrt()
		}
	case 's':
		if m.advanced {
			m.apply(func(v float64) float64 { return v * v })
		}
	case 'i':
		if m.advanced {
			m.reciprocal()
		}
	case 'p':
		if m.advanced {
			m.display = formatValue(math.Pi)
			m.newInput = true
		}
	case 'a':
		m.memory += m.value()
	case 'z':
		m.memory -= m.value()
	case 'r':
		m.display = formatValue(m.memory)
		m.newInput = true
	case 'h':
		m.memory = 0
	}
	return kiosk.ActionNone
}

func (m *Module) value() float64 {
	v, err := strconv.ParseFloat(m.display, 64)
	if err != nil {
		return 0
	}
	return v
}

func (m *Module) inputDigit(d string) {
	if m.errored {
		m.clearAll()
	}
	if m.newInput {
		m.display = d
		m.newInput = false
		m.hasDot = false
		return
	}
	if len(m.display) < maxDisplayLen {
		m.display += d
	}
}

func (m *Module) inputDot() {
	if m.errored {
		m.clearAll()
	}
	if m.newInput {
		m.display = "0."
		m.newInput = false
		m.hasDot = true
		return
	}
	if !m.hasDot {
		m.display += "."
		m.hasDot = true
	}
}

func (m *Module) inputOp(op string) {
	if m.errored {
		m.clearAll()
	}
	if m.op != "" {
		m.calculate()
		if m.errored {
			return
		}
	}
	m.previous = m.value()
	m.op = op
	m.newInput = true
	m.hasDot = false
}

func (m *Module) calculate() {
	if m.op == "" {
		return
	}
	current := m.value()

	var result float64
	switch m.op {
	case "+":
		result = m.previous + current
	case "-":
		result = m.previous - current
	case "*":
		result = m.previous * current
	case "/":
		if current == 0 {
			m.fail()
			return
		}
		result = m.previous / current
	}

	m.pushHistory(fmt.Sprintf("%s %s %s = %s",
		formatValue(m.previous), m.op, formatValue(current), formatValue(result)))

	m.display = formatValue(result)
	m.op = ""
	m.newInput = true
	m.hasDot = false
}

func (m *Module) sqrt() {
	v := m.value()
	if v < 0 {
		m.fail()
		return
	}
	m.apply(math.Sqrt)
}

func (m *Module) reciprocal() {
	if m.value() == 0 {
		m.fail()
		return
	}
	m.apply(func(v float64) float64 { return 1 / v })
}

func (m *Module) apply(fn func(float64) float64) {
	m.display = formatValue(fn(m.value()))
	m.newInput = true
	m.hasDot = false
}

func (m *Module) pushHistory(entry string) {
	m.history = append(m.history, entry)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}

func (m *Module) fail() {
	m.display = "Error"
	m.errored = true
	m.op = ""
	m.newInput = true
}

func (m *Module) clearAll() {
	m.display = "0"
	m.previous = 0
	m.op = ""
	m.newInput = true
	m.hasDot = false
	m.errored = false
}

func (m *Module) clearEntry() {
	m.display = "0"
	m.newInput = true
	m.hasDot = false
	m.errored = false
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

func (m *Module) View(width, height int) string {
	var b strings.Builder

	mode := "basic"
	if m.advanced {
		mode = "advanced"
	}
	b.WriteString(render.Title.Render("Calculator") + render.Dim.Render("  ["+mode+"]") + "\n\n")

	line := m.display
	if m.op != "" {
		line = formatValue(m.previous) + " " + m.op + "  " + line
	}
	b.WriteString(render.Box(render.Text.Render(line), "", min(width, 32), true) + "\n")

	if m.memory != 0 {
		b.WriteString(render.Dim.Render("M = "+formatValue(m.memory)) + "\n")
	}

	if len(m.history) > 0 {
		b.WriteString("\n" + render.Dim.Render("History") + "\n")
		start := 0
		if len(m.history) > 4 {
			start = len(m.history) - 4
		}
		for _, h := range m.history[start:] {
			b.WriteString(render.Text.Render("  "+h) + "\n")
		}
	}

	b.WriteString("\n" + render.Dim.Render("0-9 . + - * /  enter =  bksp CE  c clear  m mode  esc back"))
	return b.String()
}

func (m *Module) ExportState() any {
	return persisted{History: m.history, Memory: m.memory, Advanced: m.advanced}
}

func (m *Module) ImportState(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	m.history = p.History
	m.memory = p.Memory
	m.advanced = p.Advanced
}
