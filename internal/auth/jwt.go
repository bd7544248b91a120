package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a session token cannot be trusted
var ErrInvalidToken = errors.New("invalid token")

// SessionClaims are the JWT claims stored in the session cookie
type SessionClaims struct {
	SessionData
	jwt.RegisteredClaims
}

// Signer issues and verifies session tokens with an HMAC secret
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a Signer for secret
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret not initialized")
	}
	return &Signer{secret: []byte(secret), now: time.Now}, nil
}

// Sign creates a token for data that expires after ttl
func (s *Signer) Sign(data SessionData, ttl time.Duration) (string, error) {
	now := s.now()
	claims := SessionClaims{
		SessionData: data,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   data.Subject(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns the session it carries
func (s *Signer) Verify(tokenString string) (*SessionData, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return &claims.SessionData, nil
}
