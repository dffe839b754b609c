package kiosk

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/berry-kiosk/pkg/render"
)

// View renders the current screen and overlays pending notifications.
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	var base string
	switch m.screen {
	case screenSaver:
		base = m.viewScreensaver()
	case screenModule:
		if mod, ok := m.reg.Get(m.active); ok {
			base = m.safeView(mod, m.width, m.height)
		} else {
			base = m.viewMenu()
		}
	default:
		base = m.viewMenu()
	}

	return render.Overlay(base, m.viewNotifications())
}

// viewMenu draws the paginated main menu.
func (m *Model) viewMenu() string {
	var b strings.Builder

	header := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, render.Title.Render("BerryKiosk"))
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(render.Dim.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	order := m.reg.Order()
	per := m.cfg.ItemsPerPage
	start := m.page * per
	end := start + per
	if end > len(order) {
		end = len(order)
	}

	for i := start; i < end; i++ {
		line := "  " + order[i].String()
		if i == m.selected {
			line = "> " + order[i].String()
			b.WriteString(render.Selected.Render(render.TruncateOrPad(line, m.width)))
		} else {
			b.WriteString(render.Text.Render(render.TruncateOrPad(line, m.width)))
		}
		b.WriteString("\n")
	}

	pages := (len(order) + per - 1) / per
	if pages > 1 {
		b.WriteString("\n")
		pageLine := fmt.Sprintf("Page %d of %d", m.page+1, pages)
		b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, render.Dim.Render(pageLine)))
	}

	b.WriteString("\n")
	hints := "↑↓ navigate  ←→ page  ⏎ open"
	b.WriteString(render.Dim.Render(render.TruncateOrPad(hints, m.width)))

	return fitHeight(b.String(), m.height)
}

// viewScreensaver draws a centered clock plus the time the saver engaged.
// No animation state beyond the current tick time is kept.
func (m *Model) viewScreensaver() string {
	lines := []string{
		render.Title.Render("BerryKiosk"),
		"",
		render.Text.Render(m.now.Format("15:04:05")),
		render.Dim.Render(m.now.Format("Monday, January 2, 2006")),
		"",
		render.Dim.Render("Idle since " + m.saverSince.Format("15:04")),
	}
	return render.CenterLines(lines, m.width, m.height)
}

// viewNotifications renders pending notifications, oldest first, one line
// each, for splicing over the top of the current screen.
func (m *Model) viewNotifications() string {
	pending := m.queue.Pending()
	if len(pending) == 0 {
		return ""
	}

	var lines []string
	for _, n := range pending {
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color(render.CategoryColor(n.Category.String()))).
			Bold(true)
		if n.Opacity < 0.5 {
			style = style.Faint(true)
		}
		text := fmt.Sprintf(" %s: %s ", n.Title, n.Message)
		lines = append(lines, style.Render(render.TruncateOrPad(text, m.width)))
	}
	return strings.Join(lines, "\n")
}

// fitHeight pads or truncates s to exactly height lines.
func fitHeight(s string, height int) string {
	lines := strings.Split(s, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}
