package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "gcopy-cli"
)

// CookieStore persists the backend session cookie per server.
// This allows us to swap the OS keyring for a map in tests.
type CookieStore interface {
	SaveCookie(server, value string) error
	LoadCookie(server string) (string, error)
	DeleteCookie(server string) error
}

// ErrNoCookie is returned when no cookie has been saved for a server
var ErrNoCookie = errors.New("no saved session")

// keyringStore implements CookieStore using the OS keyring
type keyringStore struct{}

// Default stores cookies in the OS keychain/credential manager
var Default CookieStore = &keyringStore{}

// getKeyringKey returns a unique key for storing cookies per server
func getKeyringKey(server string) string {
	return fmt.Sprintf("session-%s", server)
}

func (keyringStore) SaveCookie(server, value string) error {
	if err := keyring.Set(service, getKeyringKey(server), value); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (keyringStore) LoadCookie(server string) (string, error) {
	value, err := keyring.Get(service, getKeyringKey(server))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoCookie
		}
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	return value, nil
}

func (keyringStore) DeleteCookie(server string) error {
	if err := keyring.Delete(service, getKeyringKey(server)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
