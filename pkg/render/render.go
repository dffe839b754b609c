// Package render provides the small text-surface helpers shared by the menu,
// screensaver, notification overlay, and hosted modules: a consistent color
// palette, padded/truncated lines, and bordered boxes.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Palette colors for the kiosk UI.
const (
	ColorAccent    = "#38BDF8"
	ColorText      = "#E5E7EB"
	ColorDim       = "#6B7280"
	ColorSelected  = "#1E293B"
	ColorSuccess   = "#34D399"
	ColorWarning   = "#FBBF24"
	ColorError     = "#F87171"
	ColorEvent     = "#A78BFA"
)

var (
	// Title styles the screen header line.
	Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent))

	// Text is the default body style.
	Text = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorText))

	// Dim styles hints and secondary information.
	Dim = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDim))

	// Selected styles the highlighted row in a list.
	Selected = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorText)).
			Background(lipgloss.Color(ColorSelected)).
			Bold(true)
)

// TruncateOrPad fits s to exactly width display cells.
func TruncateOrPad(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := runewidth.StringWidth(s)
	if w > width {
		return runewidth.Truncate(s, width, "…")
	}
	return s + strings.Repeat(" ", width-w)
}

// CenterLines centers each line horizontally within width and the whole
// block vertically within height.
func CenterLines(lines []string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}

	top := (height - len(lines)) / 2
	if top < 0 {
		top = 0
	}

	var out []string
	for i := 0; i < top; i++ {
		out = append(out, "")
	}
	for _, line := range lines {
		out = append(out, lipgloss.PlaceHorizontal(width, lipgloss.Center, line))
	}
	for len(out) < height {
		out = append(out, "")
	}
	if len(out) > height {
		out = out[:height]
	}
	return strings.Join(out, "\n")
}

// Box wraps content in a rounded border with an optional title, using the
// accent color when focused.
func Box(content, title string, width int, focused bool) string {
	border := lipgloss.Color(ColorDim)
	if focused {
		border = lipgloss.Color(ColorAccent)
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(width - 2)

	if title != "" {
		content = Title.Render(title) + "\n" + content
	}
	return style.Render(content)
}

// CategoryColor maps a notification category name to its palette color.
func CategoryColor(category string) string {
	switch category {
	case "success":
		return ColorSuccess
	case "warning":
		return ColorWarning
	case "error":
		return ColorError
	case "event":
		return ColorEvent
	default:
		return ColorAccent
	}
}

// Overlay splices overlay lines over the top of base, preserving base's
// line count. Used to stack notifications over whatever screen is current.
func Overlay(base, overlay string) string {
	if overlay == "" {
		return base
	}
	baseLines := strings.Split(base, "\n")
	overLines := strings.Split(overlay, "\n")

	for i := 0; i < len(overLines) && i < len(baseLines); i++ {
		baseLines[i] = overLines[i]
	}
	return strings.Join(baseLines, "\n")
}
