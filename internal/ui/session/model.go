// Package session implements the sign-in view. Signing in resolves the
// student id the notification subsystem scopes everything to; the
// backend access key goes to the system keyring, never to the config
// file.
package session

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/campus-companion/internal/credential"
	"github.com/nhle/campus-companion/internal/theme"
)

// SignedInMsg signals a completed sign-in.
type SignedInMsg struct {
	UserID string
}

// Model is the Bubble Tea model for the sign-in form.
type Model struct {
	form *huh.Form

	// Form field values (huh binds to these)
	formStudentID string
	formAccessKey string

	statusMsg string

	width, height int
}

// New creates a new sign-in view model.
func New(width, height int) Model {
	m := Model{width: width, height: height}
	m.form = m.buildForm()
	return m
}

// buildForm constructs the sign-in form.
func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Student ID").
				Description("The id your campus notifications are addressed to").
				Placeholder("s1234567").
				Value(&m.formStudentID).
				Validate(validateRequired("Student ID")),
			huh.NewInput().
				Title("Backend access key").
				Description("Optional; stored in the system keyring").
				EchoMode(huh.EchoModePassword).
				Value(&m.formAccessKey),
		),
	).WithWidth(m.formWidth())
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the sign-in view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.complete()
	}
	if m.form.State == huh.StateAborted {
		// Rebuild so the form can be retried; there is nothing to go
		// back to while signed out.
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	return m, cmd
}

// complete stores the credential and announces the sign-in.
func (m Model) complete() (Model, tea.Cmd) {
	userID := strings.TrimSpace(m.formStudentID)

	if key := strings.TrimSpace(m.formAccessKey); key != "" {
		if err := credential.Set(credential.KeyBackendAccess, key); err != nil {
			m.statusMsg = fmt.Sprintf("could not store access key: %v", err)
			m.form = m.buildForm()
			return m, m.form.Init()
		}
	}

	return m, func() tea.Msg {
		return SignedInMsg{UserID: userID}
	}
}

// View renders the sign-in form.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{
		titleStyle.Render("Sign in to Campus Companion"),
		m.form.View(),
	}
	if m.statusMsg != "" {
		parts = append(parts, theme.HelpStyle.Render(m.statusMsg))
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the sign-in view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form = m.form.WithWidth(m.formWidth())
}

// formWidth returns the width available to the form.
func (m Model) formWidth() int {
	w := m.width - 8
	if w < 30 {
		w = 30
	}
	return w
}

// validateRequired rejects empty values for the named field.
func validateRequired(name string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
