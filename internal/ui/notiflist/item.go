package notiflist

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/campus-companion/internal/model"
	"github.com/nhle/campus-companion/internal/theme"
	"github.com/nhle/campus-companion/internal/ui"
)

// NotificationItem wraps a model.Notification for use in a bubbles/list.
type NotificationItem struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i NotificationItem) FilterValue() string { return i.Notification.Title }

// Title returns the notification title for the list.
func (i NotificationItem) Title() string { return i.Notification.Title }

// Description returns a short summary line for the list.
func (i NotificationItem) Description() string {
	return i.Notification.Message
}

// ItemDelegate implements list.ItemDelegate for rendering notifications.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification line: read marker, type icon,
// priority badge, title, and relative age. Read items are dimmed.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ni, ok := item.(NotificationItem)
	if !ok {
		return
	}

	n := ni.Notification
	isSelected := index == m.Index()

	marker := "●"
	if n.IsRead {
		marker = " "
	}

	priBadge := theme.PriorityStyle(string(n.Priority)).Render(priorityLabel(n.Priority))
	timeStr := theme.DimmedStyle.Render(ui.RelativeTime(n.CreatedAt))

	line := fmt.Sprintf(
		"%s %s %s %s  %s",
		marker, n.Type.Icon(), priBadge, n.Title, timeStr,
	)

	if n.IsRead {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// priorityLabel returns a short badge label for the given priority.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityUrgent:
		return "URG"
	case model.PriorityHigh:
		return "HI "
	case model.PriorityNormal:
		return "NOR"
	case model.PriorityLow:
		return "LOW"
	default:
		return "  ?"
	}
}
