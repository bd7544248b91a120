package widget

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gcopy-dev/gcopy/internal/cli/session"
)

type keyMap struct {
	Logout  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Logout, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Logout: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "logout"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// StateMsg carries a new session state into the program
type StateMsg session.State

type revalidatedMsg struct{ err error }

type loggedOutMsg struct{}

// Reloader refreshes the session the menu displays
type Reloader interface {
	Revalidate(ctx context.Context) error
	Focus(ctx context.Context) error
}

// Menu is an interactive bubbletea program around an Avatar. Run it with
// tea.WithReportFocus so regaining focus refreshes the session.
type Menu struct {
	ctx      context.Context
	avatar   *Avatar
	reloader Reloader
	help     help.Model
	err      error
	quitting bool
}

// NewMenu creates the menu. ctx bounds every request the menu makes.
func NewMenu(ctx context.Context, avatar *Avatar, reloader Reloader) Menu {
	return Menu{ctx: ctx, avatar: avatar, reloader: reloader, help: help.New()}
}

func (m Menu) Init() tea.Cmd {
	return m.revalidate
}

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			return m, m.revalidate
		case key.Matches(msg, keys.Logout):
			if m.avatar.Disabled() {
				return m, nil
			}
			return m, m.logout
		}
	case tea.FocusMsg:
		return m, m.focus
	case revalidatedMsg:
		m.err = msg.err
	case loggedOutMsg:
		m.quitting = true
		return m, tea.Quit
	case StateMsg:
		// the avatar reads the store directly; this only triggers a redraw
	}
	return m, nil
}

func (m Menu) View() string {
	if m.quitting {
		return ""
	}
	view := m.avatar.View()
	if m.err != nil {
		view = lipgloss.JoinVertical(lipgloss.Left, view, disabledStyle.Render(m.err.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, view, m.help.View(keys)) + "\n"
}

func (m Menu) revalidate() tea.Msg {
	return revalidatedMsg{err: m.reloader.Revalidate(m.ctx)}
}

// focus refetches only when the cached session has gone stale
func (m Menu) focus() tea.Msg {
	return revalidatedMsg{err: m.reloader.Focus(m.ctx)}
}

func (m Menu) logout() tea.Msg {
	m.avatar.Logout(m.ctx)
	return loggedOutMsg{}
}
