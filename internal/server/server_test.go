package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gcopy-dev/gcopy/internal/auth"
	"github.com/gcopy-dev/gcopy/internal/config"
	"github.com/gcopy-dev/gcopy/internal/tasks"
)

// fakeEnqueuer records tasks instead of sending them to Redis
type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func (f *fakeEnqueuer) last(t *testing.T) tasks.VerificationCodePayload {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.tasks)
	payload, err := tasks.ParseVerificationCodePayload(f.tasks[len(f.tasks)-1])
	require.NoError(t, err)
	return payload
}

type testEnv struct {
	srv      *Server
	server   *httptest.Server
	client   *http.Client
	enqueuer *fakeEnqueuer
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	cfg := &config.Config{
		HTTP:    config.HTTPConfig{AllowedOrigins: []string{"http://localhost:3375"}},
		Session: config.SessionConfig{Secret: "test-secret", MaxAge: time.Hour},
	}
	enqueuer := &fakeEnqueuer{}
	srv, err := newServer(cfg, zerolog.Nop(), "test", db, enqueuer)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		srv:      srv,
		server:   ts,
		client:   &http.Client{Jar: jar},
		enqueuer: enqueuer,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealthCheck(t *testing.T) {
	env := setupTestServer(t)

	resp, body := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "online", body["status"])
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
}

func TestGetUser_LoggedOut(t *testing.T) {
	env := setupTestServer(t)

	resp, body := env.do(t, http.MethodGet, "/api/v1/user", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", body["message"])
}

func TestShareCodeLogin_Flow(t *testing.T) {
	env := setupTestServer(t)

	resp, body := env.do(t, http.MethodPost, "/api/v1/user/share-code-login", map[string]string{"code": "team-42"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "team-42", body["shareCode"])
	assert.Equal(t, true, body["loggedIn"])

	resp, body = env.do(t, http.MethodGet, "/api/v1/user", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "team-42", body["shareCode"])
	assert.Equal(t, "code", body["loginType"])
	assert.NotContains(t, body, "email")

	resp, body = env.do(t, http.MethodPost, "/api/v1/user/share-code/refresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 300, body["expiresIn"])

	resp, _ = env.do(t, http.MethodGet, "/api/v1/user/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/user", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestShareCodeLogin_Validation(t *testing.T) {
	env := setupTestServer(t)

	for _, code := range []string{"", "has space", string(make([]byte, maxShareCodeLength+1))} {
		resp, _ := env.do(t, http.MethodPost, "/api/v1/user/share-code-login", map[string]string{"code": code})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "code %q", code)
	}
}

func TestRefreshShareCode_RequiresCodeSession(t *testing.T) {
	env := setupTestServer(t)

	resp, _ := env.do(t, http.MethodPost, "/api/v1/user/share-code/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireSession_SetsSubject(t *testing.T) {
	env := setupTestServer(t)

	token, err := env.srv.signer.Sign(auth.SessionData{
		LoggedIn:  true,
		LoginType: auth.LoginTypeCode,
		ShareCode: "team-42",
	}, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/user/share-code/refresh", nil)
	c.Request.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})

	env.srv.RequireSession()(c)
	require.False(t, c.IsAborted())
	assert.Equal(t, "code:team-42", GetSubject(c))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/user/share-code/refresh", nil)

	env.srv.RequireSession()(c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, GetSubject(c))
}

func TestEmailLogin_Flow(t *testing.T) {
	env := setupTestServer(t)

	resp, _ := env.do(t, http.MethodPost, "/api/v1/user/email-code", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := env.enqueuer.last(t)
	require.Equal(t, "alice@example.com", payload.Email)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/user/login", map[string]string{"email": "alice@example.com", "code": "000000"})
	if payload.Code != "000000" {
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, body := env.do(t, http.MethodPost, "/api/v1/user/login", map[string]string{"email": "alice@example.com", "code": payload.Code})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice@example.com", body["email"])

	resp, body = env.do(t, http.MethodGet, "/api/v1/user", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "email", body["loginType"])
	assert.Equal(t, "alice@example.com", body["email"])

	// code sessions only
	resp, _ = env.do(t, http.MethodPost, "/api/v1/user/share-code/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEmailCode_InvalidEmail(t *testing.T) {
	env := setupTestServer(t)

	resp, _ := env.do(t, http.MethodPost, "/api/v1/user/email-code", map[string]string{"email": "nope"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestEmailCode_EnqueueFailure(t *testing.T) {
	env := setupTestServer(t)
	env.enqueuer.err = assert.AnError

	resp, _ := env.do(t, http.MethodPost, "/api/v1/user/email-code", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestShareCodeLogin_ReplacesEmailSession(t *testing.T) {
	env := setupTestServer(t)

	env.do(t, http.MethodPost, "/api/v1/user/email-code", map[string]string{"email": "alice@example.com"})
	code := env.enqueuer.last(t).Code
	resp, _ := env.do(t, http.MethodPost, "/api/v1/user/login", map[string]string{"email": "alice@example.com", "code": code})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/user/share-code-login", map[string]string{"code": "abc"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body := env.do(t, http.MethodGet, "/api/v1/user", nil)
	assert.Equal(t, "code", body["loginType"])
	assert.NotContains(t, body, "email")
}

func TestValidShareCode(t *testing.T) {
	assert.True(t, validShareCode("team-42"))
	assert.True(t, validShareCode("分享码"))
	assert.False(t, validShareCode(""))
	assert.False(t, validShareCode("a\tb"))
	assert.False(t, validShareCode("a\x00"))
}
