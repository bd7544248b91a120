package widget

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gcopy-dev/gcopy/internal/cli/client"
	"github.com/gcopy-dev/gcopy/internal/cli/i18n"
	"github.com/gcopy-dev/gcopy/internal/cli/nav"
	"github.com/gcopy-dev/gcopy/internal/cli/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	state     session.State
	logoutErr error
	logouts   int

	revalidates int
	focuses     int
}

func (s *fakeStore) Snapshot() session.State { return s.state }

func (s *fakeStore) Logout(ctx context.Context) error {
	s.logouts++
	if s.logoutErr != nil {
		return s.logoutErr
	}
	s.state = session.State{}
	return nil
}

func (s *fakeStore) Revalidate(ctx context.Context) error {
	s.revalidates++
	return nil
}

func (s *fakeStore) Focus(ctx context.Context) error {
	s.focuses++
	return nil
}

func emailState() session.State {
	return session.State{Session: client.Session{Email: "alice@example.com", LoggedIn: true, LoginType: client.LoginTypeEmail}}
}

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"alice@example.com": "AL",
		"team-42":           "TE",
		"x":                 "X",
		"":                  "",
		"张三丰":               "张三",
	}
	for in, want := range tests {
		assert.Equal(t, want, Initials(in), in)
	}
}

func TestDisplayName(t *testing.T) {
	code := session.State{Session: client.Session{Email: "a@example.com", ShareCode: "team-42", LoggedIn: true, LoginType: client.LoginTypeCode}}
	assert.Equal(t, "team-42", DisplayName(code))
	assert.Equal(t, "alice@example.com", DisplayName(emailState()))
	assert.Equal(t, "", DisplayName(session.State{}))
}

func TestAvatar_LoadingRendersNothing(t *testing.T) {
	store := &fakeStore{state: session.State{IsLoading: true}}
	a := NewAvatar(store, &nav.Recorder{}, i18n.New("en"), zerolog.Nop())

	assert.Equal(t, "", a.View())
}

func TestAvatar_View(t *testing.T) {
	store := &fakeStore{state: emailState()}
	a := NewAvatar(store, &nav.Recorder{}, i18n.New("en"), zerolog.Nop())

	view := a.View()
	assert.Contains(t, view, "AL")
	assert.Contains(t, view, "alice@example.com")
	assert.Contains(t, view, "Logout")

	zh := NewAvatar(store, &nav.Recorder{}, i18n.New("zh-CN"), zerolog.Nop())
	assert.Contains(t, zh.View(), "退出登录")
}

func TestAvatar_LogoutNavigatesToEmailLogin(t *testing.T) {
	store := &fakeStore{state: emailState()}
	rec := &nav.Recorder{}
	a := NewAvatar(store, rec, i18n.New("zh-CN"), zerolog.Nop())

	require.True(t, a.Logout(context.Background()))
	assert.True(t, a.Disabled())
	assert.Equal(t, []string{"/zh-CN/user/email-code"}, rec.Routes())

	// a second click is ignored
	require.False(t, a.Logout(context.Background()))
	assert.Equal(t, 1, store.logouts)
}

func TestAvatar_LogoutFailureStillNavigates(t *testing.T) {
	store := &fakeStore{state: emailState(), logoutErr: errors.New("boom")}
	rec := &nav.Recorder{}
	a := NewAvatar(store, rec, i18n.New("en"), zerolog.Nop())

	require.True(t, a.Logout(context.Background()))
	assert.Equal(t, "/en/user/email-code", rec.Last())
	assert.True(t, store.state.LoggedIn)
}

func TestMenu_Keys(t *testing.T) {
	store := &fakeStore{state: emailState()}
	rec := &nav.Recorder{}
	a := NewAvatar(store, rec, i18n.New("en"), zerolog.Nop())
	m := NewMenu(context.Background(), a, store)

	require.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "logout")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, loggedOutMsg{}, msg)
	assert.Equal(t, "/en/user/email-code", rec.Last())

	model, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.Equal(t, "", model.View())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	assert.Nil(t, cmd, "logout is disabled once clicked")
}

func TestMenu_Quit(t *testing.T) {
	store := &fakeStore{state: emailState()}
	m := NewMenu(context.Background(), NewAvatar(store, &nav.Recorder{}, i18n.New("en"), zerolog.Nop()), store)

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "", model.View())
}

func TestMenu_FocusRevalidates(t *testing.T) {
	store := &fakeStore{state: emailState()}
	m := NewMenu(context.Background(), NewAvatar(store, &nav.Recorder{}, i18n.New("en"), zerolog.Nop()), store)

	_, cmd := m.Update(tea.FocusMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, revalidatedMsg{}, cmd())
	assert.Equal(t, 1, store.focuses)
	assert.Zero(t, store.revalidates)

	_, cmd = m.Update(tea.BlurMsg{})
	assert.Nil(t, cmd)
}
