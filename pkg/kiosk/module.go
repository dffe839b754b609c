// Package kiosk implements the screen/module orchestrator: a bubbletea model
// that routes input, ticks, and rendering between the main menu, the
// screensaver, and whichever hosted application module is active, and
// coordinates state persistence around transitions.
package kiosk

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ModuleID is the closed set of hosted application identifiers. Screen
// routing resolves these at registration time, so an unknown module is a
// startup error rather than a runtime miss.
type ModuleID int

const (
	ModuleCalculator ModuleID = iota
	ModuleCalendar
	ModuleNotes
	ModuleWorldClock
	ModuleTimer
	ModuleConverter
	ModuleSysInfo
	ModuleSettings
	ModuleQuit
)

// String returns the module's display title, which doubles as its key in
// the persistent store.
func (id ModuleID) String() string {
	switch id {
	case ModuleCalculator:
		return "Calculator"
	case ModuleCalendar:
		return "Calendar"
	case ModuleNotes:
		return "Notes"
	case ModuleWorldClock:
		return "World Clock"
	case ModuleTimer:
		return "Timer"
	case ModuleConverter:
		return "Converter"
	case ModuleSysInfo:
		return "System Info"
	case ModuleSettings:
		return "Settings"
	case ModuleQuit:
		return "Quit"
	default:
		return fmt.Sprintf("Module(%d)", int(id))
	}
}

// Action is the result of a module handling a key. Anything other than
// ActionBack and ActionQuit means "stay".
type Action int

const (
	// ActionNone keeps the current module active.
	ActionNone Action = iota
	// ActionBack requests return to the main menu; the orchestrator saves
	// the module's exported state on the way out.
	ActionBack
	// ActionQuit requests kiosk shutdown.
	ActionQuit
)

// Module is the contract every hosted application satisfies. The
// orchestrator never inspects a module beyond these operations. OnEnter is
// part of the contract rather than an optional hook; modules without
// enter-time work implement it as a no-op.
type Module interface {
	// ID returns the module's registered identity.
	ID() ModuleID

	// HandleKey processes one input event and reports whether the module
	// wants to stay active, go back, or shut the kiosk down.
	HandleKey(msg tea.KeyMsg) Action

	// Tick advances time-dependent state. Called once per frame while the
	// module is active.
	Tick(now time.Time)

	// View renders the module's screen at the given dimensions.
	View(width, height int) string

	// ExportState returns the module's serializable state, or nil if the
	// module persists nothing.
	ExportState() any

	// ImportState restores state from a previous export. It must tolerate
	// nil and partial data: missing fields take defaults, never panic.
	ImportState(raw json.RawMessage)

	// OnEnter runs exactly once per menu-to-module transition.
	OnEnter()
}

// Registry holds the fixed set of modules, ordered for menu display.
type Registry struct {
	order []ModuleID
	byID  map[ModuleID]Module
}

// NewRegistry builds a registry from modules in menu order. Duplicate IDs
// are a construction error.
func NewRegistry(mods ...Module) (*Registry, error) {
	r := &Registry{byID: make(map[ModuleID]Module, len(mods))}
	for _, m := range mods {
		id := m.ID()
		if _, exists := r.byID[id]; exists {
			return nil, fmt.Errorf("kiosk: module %q registered twice", id)
		}
		r.byID[id] = m
		r.order = append(r.order, id)
	}
	return r, nil
}

// Get returns the module for id.
func (r *Registry) Get(id ModuleID) (Module, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// Order returns menu-ordered module IDs.
func (r *Registry) Order() []ModuleID {
	out := make([]ModuleID, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.order)
}

// Names returns sorted module titles; used for diagnostics.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byID))
	for id := range r.byID {
		names = append(names, id.String())
	}
	sort.Strings(names)
	return names
}
