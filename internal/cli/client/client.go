package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "gcopy/cli"

var (
	// ErrTransport wraps failures where no HTTP response was received
	ErrTransport = errors.New("request failed")
	// ErrDecode wraps responses whose body is not the expected JSON
	ErrDecode = errors.New("failed to decode response")
)

// StatusError is returned when the server answers with an unexpected status
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is a StatusError with code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Session is the client-visible summary of the current identity.
// When LoggedIn is false the other fields carry no meaning.
type Session struct {
	Email     string `json:"email,omitempty"`
	ShareCode string `json:"shareCode,omitempty"`
	LoggedIn  bool   `json:"loggedIn"`
	LoginType string `json:"loginType,omitempty"`
}

// Login types reported by the server
const (
	LoginTypeEmail = "email"
	LoginTypeCode  = "code"
)

// DefaultSession is the logged-out value
func DefaultSession() Session {
	return Session{}
}

// ShareCodeLease describes how long a share code stays joinable
type ShareCodeLease struct {
	ShareCode string `json:"shareCode"`
	ExpiresIn int    `json:"expiresIn"`
}

// Client represents an HTTP client for the gcopy API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client. jar carries the session cookie between calls.
func New(baseURL string, jar http.CookieJar) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

// BaseURL returns the server the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ShareCodeLogin logs in with a share code
func (c *Client) ShareCodeLogin(ctx context.Context, code string) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/user/share-code-login", map[string]string{"code": code}, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetUser returns the current session. A logged-out client gets a 404 StatusError.
func (c *Client) GetUser(ctx context.Context) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodGet, "/api/v1/user", nil, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Logout ends the current session
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/user/logout", nil, nil, nil)
}

// RequestEmailCode asks the server to mail a login code. language selects the mail language.
func (c *Client) RequestEmailCode(ctx context.Context, email, language string) error {
	headers := map[string]string{}
	if language != "" {
		headers["Accept-Language"] = language
	}
	return c.do(ctx, http.MethodPost, "/api/v1/user/email-code", map[string]string{"email": email}, headers, nil)
}

// EmailLogin completes an email login with the mailed code
func (c *Client) EmailLogin(ctx context.Context, email, code string) (*Session, error) {
	var session Session
	body := map[string]string{"email": email, "code": code}
	if err := c.do(ctx, http.MethodPost, "/api/v1/user/login", body, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// RefreshShareCode keeps the current share code joinable for another lease
func (c *Client) RefreshShareCode(ctx context.Context) (*ShareCodeLease, error) {
	var lease ShareCodeLease
	if err := c.do(ctx, http.MethodPost, "/api/v1/user/share-code/refresh", nil, nil, &lease); err != nil {
		return nil, err
	}
	return &lease, nil
}

// Health describes a reachable backend
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Health checks that the server is up
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// do sends a JSON request and decodes a 200 response into out when out is not nil
func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newStatusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func newStatusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		msg = payload.Message
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}
