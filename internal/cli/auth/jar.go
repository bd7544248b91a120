package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/rs/zerolog"
)

// SessionCookieName is the cookie the backend keeps its session in
const SessionCookieName = "user_session"

// Jar is a cookie jar that mirrors the session cookie of one server into a
// CookieStore, so a session survives between CLI invocations.
type Jar struct {
	inner  *cookiejar.Jar
	store  CookieStore
	server *url.URL
	log    zerolog.Logger
}

// NewJar creates a jar for serverURL and restores any saved session cookie
func NewJar(serverURL string, store CookieStore, log zerolog.Logger) (*Jar, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: scheme and host are required", serverURL)
	}

	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	j := &Jar{inner: inner, store: store, server: u, log: log}

	value, err := store.LoadCookie(u.Host)
	switch {
	case err == nil && value != "":
		inner.SetCookies(u, []*http.Cookie{{Name: SessionCookieName, Value: value, Path: "/"}})
	case err != nil && !errors.Is(err, ErrNoCookie):
		log.Warn().Err(err).Msg("Could not restore saved session")
	}

	return j, nil
}

// SetCookies implements http.CookieJar
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)
	if u.Host != j.server.Host {
		return
	}

	for _, c := range cookies {
		if c.Name != SessionCookieName {
			continue
		}
		var err error
		if c.MaxAge < 0 || c.Value == "" {
			err = j.store.DeleteCookie(u.Host)
		} else {
			err = j.store.SaveCookie(u.Host, c.Value)
		}
		if err != nil {
			j.log.Warn().Err(err).Msg("Could not persist session")
		}
	}
}

// Cookies implements http.CookieJar
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}
