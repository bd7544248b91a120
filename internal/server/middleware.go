package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gcopy-dev/gcopy/internal/auth"
)

const (
	sessionCookieName = "user_session"
	sessionKey        = "session"
	subjectKey        = "subject"
	requestIDKey      = "request_id"
	requestIDHeader   = "X-Request-ID"

	// share-code sessions outlive email sessions by default
	shareCodeSessionMaxAge = 8 * time.Hour
)

var ErrNoSession = errors.New("no session")

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// loadSession reads and verifies the session cookie
func (s *Server) loadSession(c *gin.Context) (*auth.SessionData, error) {
	token, err := c.Cookie(sessionCookieName)
	if err != nil || token == "" {
		return nil, ErrNoSession
	}
	data, err := s.signer.Verify(token)
	if err != nil {
		return nil, err
	}
	if !data.Valid() {
		return nil, ErrNoSession
	}
	return data, nil
}

// saveSession signs data into the session cookie
func (s *Server) saveSession(c *gin.Context, data auth.SessionData) error {
	ttl := s.config.Session.MaxAge
	if data.LoginType == auth.LoginTypeCode {
		ttl = shareCodeSessionMaxAge
	}

	token, err := s.signer.Sign(data, ttl)
	if err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, int(ttl.Seconds()), "/", "", s.config.Session.Secure, true)
	return nil
}

func (s *Server) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", s.config.Session.Secure, true)
}

// RequireSession rejects requests without a valid session and exposes the
// session and its subject to later handlers
func (s *Server) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := s.loadSession(c)
		if err != nil {
			s.logger.Debug().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("Rejected unauthenticated request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		c.Set(sessionKey, data)
		c.Set(subjectKey, data.Subject())
		c.Next()
	}
}

// GetSubject returns the subject set by RequireSession, "" if there is none
func GetSubject(c *gin.Context) string {
	return c.GetString(subjectKey)
}

// GetSessionData returns the session set by RequireSession
func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}
