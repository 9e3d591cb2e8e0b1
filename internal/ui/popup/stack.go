// Package popup renders the transient popup stack. All lifecycle state
// (what is queued, when it auto-dismisses) lives in the notify.Center;
// this component only draws the queue it is handed.
package popup

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/campus-companion/internal/model"
	"github.com/nhle/campus-companion/internal/theme"
	"github.com/nhle/campus-companion/internal/ui"
)

// cardWidth is the inner width of a popup card.
const cardWidth = 46

// stackIndent is how far each older card is shifted right; the offset
// is a pure function of the card's index in the queue.
const stackIndent = 2

// Model is the popup stack view.
type Model struct {
	popups []model.PopupNotification
	width  int
}

// New creates an empty popup stack sized to the given width.
func New(width int) Model {
	return Model{width: width}
}

// SetPopups replaces the rendered queue, newest first.
func (m *Model) SetPopups(popups []model.PopupNotification) {
	m.popups = popups
}

// SetWidth updates the available width.
func (m *Model) SetWidth(width int) {
	m.width = width
}

// Count returns the number of queued popups.
func (m Model) Count() int {
	return len(m.popups)
}

// Newest returns the popup at the head of the queue, if any. Keyboard
// actions (dismiss, mark read) apply to this card.
func (m Model) Newest() (model.PopupNotification, bool) {
	if len(m.popups) == 0 {
		return model.PopupNotification{}, false
	}
	return m.popups[0], true
}

// View draws the stacked cards, index 0 nearest the top.
func (m Model) View() string {
	if len(m.popups) == 0 {
		return ""
	}

	cards := make([]string, 0, len(m.popups))
	for i, p := range m.popups {
		cards = append(cards, lipgloss.NewStyle().
			MarginLeft(i*stackIndent).
			Render(m.card(p, i == 0)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

// card draws a single popup. The border takes the priority color, and
// only the newest card shows the action hints.
func (m Model) card(p model.PopupNotification, newest bool) string {
	w := cardWidth
	if m.width > 0 && m.width-4 < w {
		w = m.width - 4
	}
	if w < 20 {
		w = 20
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	title := truncate(p.Type.Icon()+" "+p.Title, w)

	message := lipgloss.NewStyle().
		Width(w).
		MaxHeight(2).
		Render(p.Message)

	meta := theme.PriorityStyle(string(p.Priority)).Render(string(p.Priority)) +
		theme.DimmedStyle.Render("  "+ui.RelativeTime(p.CreatedAt))

	lines := []string{titleStyle.Render(title), message, meta}
	if newest {
		lines = append(lines, theme.HelpStyle.Render("o read · x dismiss"))
	}

	return lipgloss.NewStyle().
		Width(w).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.PriorityColor(string(p.Priority))).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// truncate shortens s to at most max runes, ellipsizing the overflow.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
