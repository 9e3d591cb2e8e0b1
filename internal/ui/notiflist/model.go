package notiflist

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/campus-companion/internal/keys"
	"github.com/nhle/campus-companion/internal/model"
	"github.com/nhle/campus-companion/internal/notify"
	"github.com/nhle/campus-companion/internal/theme"
)

// listLimit caps how many notifications the list view loads.
const listLimit = 50

// NotificationsLoadedMsg is sent when notifications have been loaded.
type NotificationsLoadedMsg struct {
	Notifications []model.Notification
}

// Model is the notification list view.
type Model struct {
	list    list.Model
	fetcher *notify.Fetcher
	center  *notify.Center
	keys    *keys.KeyMap
	width   int
	height  int
}

// New creates a new notification list model.
func New(f *notify.Fetcher, c *notify.Center, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:    l,
		fetcher: f,
		center:  c,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Init returns a command that loads the initial notifications.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a command that fetches the user's recent notifications.
// The fetch is fail-silent: on backend errors the list simply shows
// nothing new.
func (m Model) Load() tea.Cmd {
	f := m.fetcher
	c := m.center
	return func() tea.Msg {
		userID := c.CurrentUser()
		if userID == "" {
			return NotificationsLoadedMsg{}
		}
		notifications := f.LoadNotifications(context.Background(), userID, listLimit)
		return NotificationsLoadedMsg{Notifications: notifications}
	}
}

// Update handles messages for the notification list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case NotificationsLoadedMsg:
		items := make([]list.Item, len(msg.Notifications))
		for i, n := range msg.Notifications {
			items[i] = NotificationItem{Notification: n}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Select):
			if item, ok := m.list.SelectedItem().(NotificationItem); ok {
				if !item.Notification.IsRead {
					return m, tea.Sequence(
						m.center.MarkReadAndDismissCmd(item.Notification.ID),
						m.Load(),
					)
				}
			}
			return m, nil

		case key.Matches(msg, m.keys.MarkAllRead):
			ids := m.unreadIDs()
			if len(ids) == 0 {
				return m, nil
			}
			return m, tea.Sequence(m.center.MarkAllReadCmd(ids), m.Load())

		case key.Matches(msg, m.keys.Refresh):
			m.center.Trigger()
			return m, m.Load()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the notification list.
func (m Model) View() string {
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// unreadIDs collects the ids of currently listed unread notifications.
func (m Model) unreadIDs() []string {
	var ids []string
	for _, item := range m.list.Items() {
		if ni, ok := item.(NotificationItem); ok && !ni.Notification.IsRead {
			ids = append(ids, ni.Notification.ID)
		}
	}
	return ids
}
