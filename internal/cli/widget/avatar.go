package widget

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/gcopy-dev/gcopy/internal/cli/client"
	"github.com/gcopy-dev/gcopy/internal/cli/i18n"
	"github.com/gcopy-dev/gcopy/internal/cli/nav"
	"github.com/gcopy-dev/gcopy/internal/cli/session"
	"github.com/rs/zerolog"
)

var (
	neutral = lipgloss.Color("#313244")
	text    = lipgloss.Color("#cdd6f4")
	muted   = lipgloss.Color("#a6adc8")
	accent  = lipgloss.Color("#74c7ec")

	badgeStyle = lipgloss.NewStyle().
			Background(neutral).
			Foreground(text).
			Bold(true).
			Padding(0, 1)

	menuStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(neutral).
			Padding(0, 1).
			Width(28)

	nameStyle     = lipgloss.NewStyle().Foreground(muted)
	actionStyle   = lipgloss.NewStyle().Foreground(accent)
	disabledStyle = lipgloss.NewStyle().Foreground(muted).Faint(true)
)

// Store is the session store surface the avatar reads and acts on
type Store interface {
	Snapshot() session.State
	Logout(ctx context.Context) error
}

// DisplayName is the share code for code logins and the email otherwise
func DisplayName(state session.State) string {
	if state.LoginType == client.LoginTypeCode {
		return state.ShareCode
	}
	return state.Email
}

// Initials returns the first two characters of name, uppercased
func Initials(name string) string {
	runes := []rune(name)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}

// Avatar shows who is logged in and offers a logout action
type Avatar struct {
	store Store
	nav   nav.Navigator
	tr    *i18n.Translator
	log   zerolog.Logger

	clicked atomic.Bool
}

// NewAvatar creates an avatar bound to store
func NewAvatar(store Store, n nav.Navigator, tr *i18n.Translator, log zerolog.Logger) *Avatar {
	return &Avatar{store: store, nav: n, tr: tr, log: log}
}

// View renders the badge and its menu. Nothing is rendered while the
// session is still loading.
func (a *Avatar) View() string {
	state := a.store.Snapshot()
	if state.IsLoading {
		return ""
	}

	name := DisplayName(state)

	logout := actionStyle.Render(a.tr.T(i18n.AvatorLogout))
	if a.Disabled() {
		logout = disabledStyle.Render(a.tr.T(i18n.AvatorLogout))
	}

	menu := menuStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		nameStyle.Render(truncate(name, 26)),
		logout,
	))

	return lipgloss.JoinVertical(lipgloss.Left, badgeStyle.Render(Initials(name)), menu)
}

// Disabled reports whether the logout action has already been used
func (a *Avatar) Disabled() bool {
	return a.clicked.Load()
}

// Logout ends the session and moves to the email login screen whether or
// not the server confirmed. It returns false if logout was already clicked.
func (a *Avatar) Logout(ctx context.Context) bool {
	if !a.clicked.CompareAndSwap(false, true) {
		return false
	}

	if err := a.store.Logout(ctx); err != nil {
		a.log.Debug().Err(err).Msg("Logout failed")
	}

	a.nav.Push(nav.EmailLogin(a.tr.Locale()))
	return true
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
