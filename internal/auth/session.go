package auth

// Login types reported to clients
const (
	LoginTypeEmail = "email"
	LoginTypeCode  = "code"
)

// SessionData is the authenticated identity carried in the session cookie
type SessionData struct {
	LoggedIn  bool   `json:"logged_in"`
	LoginType string `json:"login_type,omitempty"`
	Email     string `json:"email,omitempty"`
	ShareCode string `json:"share_code,omitempty"`
}

// Subject identifies who owns the session. Share-code sessions are prefixed
// so they can never collide with an email address.
func (s *SessionData) Subject() string {
	if s.LoginType == LoginTypeCode {
		return "code:" + s.ShareCode
	}
	return s.Email
}

// Valid reports whether the session names a usable identity
func (s *SessionData) Valid() bool {
	if !s.LoggedIn {
		return false
	}
	if s.LoginType == LoginTypeCode {
		return s.ShareCode != ""
	}
	return s.Email != ""
}
