package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/campus-companion/internal/credential"
	"github.com/nhle/campus-companion/internal/keys"
	"github.com/nhle/campus-companion/internal/model"
	"github.com/nhle/campus-companion/internal/notify"
	"github.com/nhle/campus-companion/internal/theme"
	"github.com/nhle/campus-companion/internal/ui"
	helpview "github.com/nhle/campus-companion/internal/ui/help"
	"github.com/nhle/campus-companion/internal/ui/notiflist"
	"github.com/nhle/campus-companion/internal/ui/popup"
	"github.com/nhle/campus-companion/internal/ui/session"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewSession
	ViewHelp
)

// Model is the root Bubble Tea model that manages view routing, the
// header and status bar, and the popup overlay.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout

	cfg     *model.AppConfig
	cfgPath string
	center  *notify.Center
	keys    *keys.KeyMap
	log     *logrus.Entry

	notifList   notiflist.Model
	sessionView session.Model
	helpView    helpview.Model
	popupStack  popup.Model

	unreadCount int
	ready       bool
}

// New creates the root application model. The center must not be
// started yet; Init starts it.
func New(
	cfg *model.AppConfig,
	cfgPath string,
	f *notify.Fetcher,
	c *notify.Center,
	log *logrus.Logger,
) Model {
	k := keys.DefaultKeyMap()

	initialView := ViewSession
	if cfg.User.ID != "" {
		initialView = ViewList
	}

	return Model{
		currentView: initialView,
		cfg:         cfg,
		cfgPath:     cfgPath,
		center:      c,
		keys:        k,
		log:         log.WithField("component", "app"),
		notifList:   notiflist.New(f, c, k, 80, 24),
		sessionView: session.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
		popupStack:  popup.New(80),
	}
}

// Init starts the notification center and, when a user is already
// configured, signs them in and loads the list.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.center.Start()}

	if m.cfg.User.ID != "" {
		m.center.SignIn(m.cfg.User.ID)
		cmds = append(cmds, m.notifList.Init())
	} else {
		cmds = append(cmds, m.sessionView.Init())
	}

	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.notifList.SetSize(contentWidth, contentHeight)
		m.sessionView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.popupStack.SetWidth(contentWidth)
		return m.updateActiveView(msg)

	case notify.PopupsChangedMsg:
		m.popupStack.SetPopups(msg.Popups)
		return m, m.center.WaitForNext()

	case notify.UnreadCountMsg:
		m.unreadCount = msg.Count
		// New unread notifications also belong in the list view.
		return m, tea.Batch(m.center.WaitForNext(), m.notifList.Load())

	case session.SignedInMsg:
		return m.signIn(msg.UserID)

	case tea.KeyMsg:
		if handled, mdl, cmd := m.handleGlobalKeys(msg); handled {
			return mdl, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that apply regardless of the active
// view. The sign-in form owns the keyboard while it is up.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	if m.currentView == ViewSession {
		if key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c" {
			return true, m, tea.Quit
		}
		return false, m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return true, m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
		} else {
			m.previousView = m.currentView
			m.currentView = ViewHelp
		}
		return true, m, nil

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		return false, m, nil

	case key.Matches(msg, m.keys.SignOut):
		mdl, cmd := m.signOut()
		return true, mdl, cmd

	case key.Matches(msg, m.keys.DismissPopup):
		if p, ok := m.popupStack.Newest(); ok {
			m.center.Dismiss(p.ID)
			return true, m, nil
		}
		return false, m, nil

	case key.Matches(msg, m.keys.OpenPopup):
		if p, ok := m.popupStack.Newest(); ok {
			return true, m, tea.Sequence(
				m.center.MarkReadAndDismissCmd(p.ID),
				m.notifList.Load(),
			)
		}
		return false, m, nil
	}

	return false, m, nil
}

// signIn persists the user id, binds the center to it, and switches to
// the list view.
func (m Model) signIn(userID string) (tea.Model, tea.Cmd) {
	m.cfg.User.ID = userID
	if err := model.SaveConfig(m.cfgPath, m.cfg); err != nil {
		m.log.WithError(err).Warn("saving config after sign-in failed")
	}

	m.center.SignIn(userID)
	m.currentView = ViewList
	return m, m.notifList.Load()
}

// signOut clears session state everywhere: config, keyring, center, and
// the popup stack, then returns to the sign-in view.
func (m Model) signOut() (tea.Model, tea.Cmd) {
	if err := credential.Delete(credential.KeyBackendAccess); err != nil {
		m.log.WithError(err).Debug("removing stored access key failed")
	}

	m.cfg.User.ID = ""
	if err := model.SaveConfig(m.cfgPath, m.cfg); err != nil {
		m.log.WithError(err).Warn("saving config after sign-out failed")
	}

	m.center.SignOut()
	m.popupStack.SetPopups(nil)
	m.unreadCount = 0

	m.currentView = ViewSession
	m.sessionView = session.New(m.layout.ContentWidth(), m.layout.ContentHeight())
	return m, m.sessionView.Init()
}

// updateActiveView forwards a message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.notifList, cmd = m.notifList.Update(msg)
	case ViewSession:
		m.sessionView, cmd = m.sessionView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full application frame.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := m.layout.RenderHeader("Campus Companion", m.headerRight())

	var content string
	switch m.currentView {
	case ViewList:
		content = m.notifList.View()
		if m.popupStack.Count() > 0 {
			content = m.popupStack.View() + "\n" + content
		}
	case ViewSession:
		content = m.sessionView.View()
	case ViewHelp:
		content = m.helpView.View()
	}

	statusBar := m.layout.RenderStatusBar(m.statusHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// headerRight builds the right side of the header: the unread badge and
// the signed-in user.
func (m Model) headerRight() string {
	user := m.center.CurrentUser()
	if user == "" {
		return "signed out"
	}
	if m.unreadCount == 0 {
		return user
	}
	return theme.UnreadBadgeStyle.Render(fmt.Sprintf("%d unread", m.unreadCount)) + " " + user
}

// statusHints builds the status bar hint line for the active view.
func (m Model) statusHints() string {
	switch m.currentView {
	case ViewSession:
		return "enter submit · ctrl+c quit"
	case ViewHelp:
		return "esc back · q quit"
	default:
		hints := "j/k move · enter read · a all read · r refresh · ? help · q quit"
		if m.popupStack.Count() > 0 {
			hints = "o read popup · x dismiss · " + hints
		}
		return hints
	}
}
