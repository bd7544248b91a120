package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gcopy-dev/gcopy/internal/cli/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCookieStore is a simple in-memory cookie store for testing
type mockCookieStore struct {
	mu      sync.Mutex
	cookies map[string]string
}

func newMockCookieStore() *mockCookieStore {
	return &mockCookieStore{cookies: make(map[string]string)}
}

func (m *mockCookieStore) SaveCookie(server, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cookies[server] = value
	return nil
}

func (m *mockCookieStore) LoadCookie(server string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cookies[server], nil
}

func (m *mockCookieStore) DeleteCookie(server string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cookies, server)
	return nil
}

// mockAPIServer is a backend whose session cookie is the share code or email itself
func mockAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "online", "service": "gcopy-api", "version": "test"}`))
	})
	mux.HandleFunc("/api/v1/user/share-code-login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		if req.Code == "locked" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "Unauthorized"}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "user_session", Value: "code:" + req.Code, Path: "/"})
		json.NewEncoder(w).Encode(map[string]any{"shareCode": req.Code, "loggedIn": true})
	})
	mux.HandleFunc("/api/v1/user/email-code", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "Success"}`))
	})
	mux.HandleFunc("/api/v1/user/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
			Code  string `json:"code"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Code != "123456" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "user_session", Value: req.Email, Path: "/"})
		json.NewEncoder(w).Encode(map[string]any{"email": req.Email, "loggedIn": true})
	})
	mux.HandleFunc("/api/v1/user", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("user_session")
		if err != nil || cookie.Value == "" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": "User not found"}`))
			return
		}
		if code, ok := strings.CutPrefix(cookie.Value, "code:"); ok {
			json.NewEncoder(w).Encode(map[string]any{"shareCode": code, "loggedIn": true, "loginType": "code"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"email": cookie.Value, "loggedIn": true, "loginType": "email"})
	})
	mux.HandleFunc("/api/v1/user/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "user_session", Value: "", Path: "/", MaxAge: -1})
		w.Write([]byte(`{"message": "Success"}`))
	})
	mux.HandleFunc("/api/v1/user/share-code/refresh", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("user_session")
		code, ok := "", false
		if err == nil {
			code, ok = strings.CutPrefix(cookie.Value, "code:")
		}
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "Unauthorized"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"shareCode": code, "expiresIn": 300})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// setupTestEnvironment points the config at a temp file and returns options
// wired to an in-memory cookie store
func setupTestEnvironment(t *testing.T, server string) *Options {
	t.Helper()

	t.Setenv("GCOPY_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("GCOPY_SERVER", "")
	t.Setenv("GCOPY_LOCALE", "")

	return &Options{
		Server:      server,
		Cookies:     newMockCookieStore(),
		Interactive: func() bool { return false },
	}
}

func run(t *testing.T, opts *Options, args ...string) (string, error) {
	t.Helper()

	root := &cobra.Command{Use: "gcopy", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(
		NewInitCmd(opts),
		NewLoginCmd(opts),
		NewLogoutCmd(opts),
		NewWhoamiCmd(opts),
		NewMenuCmd(opts),
		NewRefreshCmd(opts),
		NewSelectServerCmd(opts),
	)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	srv := mockAPIServer(t)
	opts := setupTestEnvironment(t, srv.URL)

	out, err := run(t, opts, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")

	out, err = run(t, opts, "login", "--code", "  team-42 ")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as team-42")

	// the cookie survives into the next invocation
	out, err = run(t, opts, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "TE")
	assert.Contains(t, out, "team-42")

	out, err = run(t, opts, "refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "Share code team-42 is joinable for another 300s")

	out, err = run(t, opts, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "gcopy login --email")

	out, err = run(t, opts, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}

func TestLogin_EmptyCode(t *testing.T) {
	srv := mockAPIServer(t)
	opts := setupTestEnvironment(t, srv.URL)

	_, err := run(t, opts, "login", "--code", "   ")
	require.EqualError(t, err, "Please enter a share code.")
}

func TestLogin_Rejected(t *testing.T) {
	srv := mockAPIServer(t)
	opts := setupTestEnvironment(t, srv.URL)

	_, err := run(t, opts, "login", "--code", "locked")
	require.EqualError(t, err, "Authentication failed, please try again.")

	opts.Locale = "zh-CN"
	_, err = run(t, opts, "login", "--code", "locked")
	require.EqualError(t, err, "认证失败，请重试。")
}

func TestLogin_Email(t *testing.T) {
	srv := mockAPIServer(t)
	opts := setupTestEnvironment(t, srv.URL)

	out, err := run(t, opts, "login", "--email", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "A verification code was sent to alice@example.com.")
	assert.Contains(t, out, "--verify-code")

	_, err = run(t, opts, "login", "--email", "alice@example.com", "--verify-code", "000000")
	require.EqualError(t, err, "Authentication failed, please try again.")

	out, err = run(t, opts, "login", "--email", "alice@example.com", "--verify-code", "123456")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as alice@example.com")

	_, err = run(t, opts, "refresh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in with a share code")
}

func TestWhoami_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	opts := setupTestEnvironment(t, url)
	_, err := run(t, opts, "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach")
}

func TestMenu_RequiresTerminal(t *testing.T) {
	opts := setupTestEnvironment(t, "http://127.0.0.1:1")
	_, err := run(t, opts, "menu")
	require.EqualError(t, err, "menu requires an interactive terminal")
}

func TestInitAndSelectServer(t *testing.T) {
	srv := mockAPIServer(t)
	opts := setupTestEnvironment(t, "")

	out, err := run(t, opts, "init", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Added server")
	assert.Contains(t, out, "gcopy-api test is online")

	out, err = run(t, opts, "init", srv.URL+"/")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	path, err := config.GetConfigPath()
	require.NoError(t, err)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Servers, 1)
	assert.Equal(t, srv.URL, cfg.Selected)

	// commands without --server use the selected server
	out, err = run(t, opts, "login", "--code", "team-42")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as team-42")

	out, err = run(t, opts, "select-server", "server-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Selected server: server-1")

	_, err = run(t, opts, "select-server", "missing")
	require.Error(t, err)
}

func TestInit_Unreachable(t *testing.T) {
	opts := setupTestEnvironment(t, "")
	_, err := run(t, opts, "init", "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not reachable")
}

// scriptedInput answers prompts in order and records their labels
type scriptedInput struct {
	answers []string
	labels  []string
}

func (s *scriptedInput) input(label string) (string, error) {
	s.labels = append(s.labels, label)
	if len(s.answers) == 0 {
		return "", errors.New("no more input")
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func interactiveOptions(t *testing.T, server string, choice int, answers ...string) (*Options, *scriptedInput, *[]string) {
	t.Helper()

	opts := setupTestEnvironment(t, server)
	script := &scriptedInput{answers: answers}
	var chooseLabels []string
	opts.Interactive = func() bool { return true }
	opts.Input = script.input
	opts.Choose = func(label string, items []string) (int, error) {
		chooseLabels = append(chooseLabels, label)
		chooseLabels = append(chooseLabels, items...)
		return choice, nil
	}
	return opts, script, &chooseLabels
}

func TestLogin_InteractiveShareCode(t *testing.T) {
	srv := mockAPIServer(t)
	opts, script, chooseLabels := interactiveOptions(t, srv.URL, 0, "  ", "locked", "team-42")

	out, err := run(t, opts, "login")
	require.NoError(t, err)

	assert.Equal(t, []string{"Login", "Share code login", "Email login"}, *chooseLabels)
	assert.Equal(t, []string{"Share code", "Share code", "Share code"}, script.labels)
	assert.Contains(t, out, "Please enter a share code.")
	assert.Contains(t, out, "Authentication failed, please try again.")
	assert.Contains(t, out, "Login with email instead")
	assert.Contains(t, out, "Logged in as team-42")
}

func TestLogin_InteractiveEmail(t *testing.T) {
	srv := mockAPIServer(t)
	opts, script, _ := interactiveOptions(t, srv.URL, 1, "alice@example.com", "000000", "123456")

	out, err := run(t, opts, "login")
	require.NoError(t, err)

	assert.Equal(t, []string{"Email", "Verification code", "Verification code"}, script.labels)
	assert.Contains(t, out, "A verification code was sent to alice@example.com.")
	assert.Contains(t, out, "Authentication failed, please try again.")
	assert.Contains(t, out, "Logged in as alice@example.com")
}

func TestMenu_LogoutHintPrintedAfterExit(t *testing.T) {
	srv := mockAPIServer(t)
	opts := setupTestEnvironment(t, srv.URL)

	_, err := run(t, opts, "login", "--code", "team-42")
	require.NoError(t, err)

	opts.Interactive = func() bool { return true }
	opts.ProgramOptions = []tea.ProgramOption{tea.WithInput(strings.NewReader("l"))}

	out, err := run(t, opts, "menu")
	require.NoError(t, err)

	hint := "Email login: gcopy login --email <address>"
	require.Contains(t, out, hint)
	assert.True(t, strings.HasSuffix(out, hint+"\n"), "hint must follow the menu output")

	opts.Interactive = func() bool { return false }
	out, err = run(t, opts, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}
