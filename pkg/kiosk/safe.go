package kiosk

import (
	"encoding/json"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/berry-kiosk/pkg/notify"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/render"
)

// A module that panics inside any contract method must not take the
// orchestrator down: the panic is recovered, surfaced as an error
// notification, and the kiosk falls back to the main menu. The module's
// in-memory state is left as-is; it is not saved on the failure path.

func (m *Model) recovered(mod Module, op string, r any) {
	m.logger.Error("module panic",
		"module", mod.ID().String(),
		"op", op,
		"panic", fmt.Sprint(r),
	)
	m.queue.Push(
		"Module error",
		fmt.Sprintf("%s failed during %s", mod.ID(), op),
		notify.Error,
	)
	m.screen = screenMenu
}

func (m *Model) safeKey(mod Module, msg tea.KeyMsg) (act Action) {
	defer func() {
		if r := recover(); r != nil {
			m.recovered(mod, "input", r)
			act = ActionNone
		}
	}()
	return mod.HandleKey(msg)
}

func (m *Model) safeTick(mod Module, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			m.recovered(mod, "tick", r)
		}
	}()
	mod.Tick(now)
}

func (m *Model) safeView(mod Module, width, height int) (view string) {
	defer func() {
		if r := recover(); r != nil {
			m.recovered(mod, "render", r)
			view = render.Dim.Render("Screen unavailable")
		}
	}()
	return mod.View(width, height)
}

func (m *Model) safeEnter(mod Module) {
	defer func() {
		if r := recover(); r != nil {
			m.recovered(mod, "enter", r)
		}
	}()
	mod.OnEnter()
}

func (m *Model) safeExport(mod Module) (state any) {
	defer func() {
		if r := recover(); r != nil {
			m.recovered(mod, "export", r)
			state = nil
		}
	}()
	return mod.ExportState()
}

func (m *Model) safeImport(mod Module, raw json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("module panic during import",
				"module", mod.ID().String(),
				"panic", fmt.Sprint(r),
			)
		}
	}()
	mod.ImportState(raw)
}
