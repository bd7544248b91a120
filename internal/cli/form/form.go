package form

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gcopy-dev/gcopy/internal/cli/client"
	"github.com/gcopy-dev/gcopy/internal/cli/i18n"
	"github.com/gcopy-dev/gcopy/internal/cli/nav"
	"github.com/rs/zerolog"
)

var (
	// ErrSubmitInProgress is returned while an earlier submission has not finished
	ErrSubmitInProgress = errors.New("submission already in progress")
	// ErrInvalidInput is returned when input is rejected before any request is sent
	ErrInvalidInput = errors.New("invalid input")
)

// Result is the outcome of one submission. Message is the localized text to
// show the user, Route is set when the form navigated away, and Err keeps the
// underlying cause for logging.
type Result struct {
	Message string
	Route   string
	Err     error
}

// OK reports whether the submission succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

// base carries the submit guard and error line every form shares
type base struct {
	nav nav.Navigator
	tr  *i18n.Translator
	log zerolog.Logger

	busy atomic.Bool

	mu           sync.Mutex
	errorMessage string
}

// Disabled reports whether the submit control is disabled
func (b *base) Disabled() bool {
	return b.busy.Load()
}

// ErrorMessage returns the message currently shown under the form
func (b *base) ErrorMessage() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errorMessage
}

func (b *base) acquire() bool {
	return b.busy.CompareAndSwap(false, true)
}

// fail shows key and re-enables the form
func (b *base) fail(key string, err error) Result {
	msg := b.tr.T(key)
	b.setMessage(msg)
	b.busy.Store(false)
	return Result{Message: msg, Err: err}
}

// leave navigates home. The form stays disabled since it is no longer shown.
func (b *base) leave() Result {
	b.setMessage("")
	route := nav.Home(b.tr.Locale())
	b.nav.Push(route)
	return Result{Route: route}
}

func (b *base) setMessage(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errorMessage = msg
}

// logFailure records why a request failed. The user only ever sees one
// message for both cases.
func (b *base) logFailure(action string, err error) {
	var se *client.StatusError
	switch {
	case errors.As(err, &se):
		b.log.Debug().Str("action", action).Int("status", se.StatusCode).Str("reason", se.Message).Msg("Server rejected request")
	case errors.Is(err, client.ErrTransport):
		b.log.Debug().Str("action", action).Err(err).Msg("Server unreachable")
	default:
		b.log.Debug().Str("action", action).Err(err).Msg("Request failed")
	}
}
