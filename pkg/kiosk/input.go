package kiosk

import (
	tea "github.com/charmbracelet/bubbletea"
)

// dispatchKey routes one input event based on the current screen state.
func (m *Model) dispatchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastInput = m.now

	// The event that wakes the device does not also act on the revealed
	// screen.
	if m.screen == screenSaver {
		m.screen = m.prior
		m.active = m.priorActive
		return m, nil
	}

	if msg.Type == tea.KeyCtrlC {
		m.SaveAll()
		return m, tea.Quit
	}

	if m.screen == screenMenu {
		m.handleMenuKey(msg)
		return m, nil
	}

	mod, ok := m.reg.Get(m.active)
	if !ok {
		m.screen = screenMenu
		return m, nil
	}

	switch m.safeKey(mod, msg) {
	case ActionBack:
		m.exportAndSave(m.active)
		m.screen = screenMenu
	case ActionQuit:
		m.SaveAll()
		return m, tea.Quit
	}
	return m, nil
}

// handleMenuKey interprets navigation on the main menu. Selection clamps at
// the ends (no wrap); crossing a page boundary auto-advances the page;
// explicit page changes reset selection to that page's first item.
func (m *Model) handleMenuKey(msg tea.KeyMsg) {
	count := m.reg.Len()
	if count == 0 {
		return
	}
	per := m.cfg.ItemsPerPage
	pages := (count + per - 1) / per

	switch msg.Type {
	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
			if m.selected < m.page*per {
				m.page--
			}
		}

	case tea.KeyDown:
		if m.selected < count-1 {
			m.selected++
			if m.selected >= (m.page+1)*per {
				m.page++
			}
		}

	case tea.KeyLeft:
		if m.page > 0 {
			m.page--
			m.selected = m.page * per
		}

	case tea.KeyRight:
		if m.page < pages-1 {
			m.page++
			m.selected = m.page * per
		}

	case tea.KeyEnter:
		id := m.reg.Order()[m.selected]
		mod, ok := m.reg.Get(id)
		if !ok {
			return
		}
		m.screen = screenModule
		m.active = id
		m.safeEnter(mod)
	}
}
