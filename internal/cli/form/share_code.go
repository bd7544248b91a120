package form

import (
	"context"
	"strings"

	"github.com/gcopy-dev/gcopy/internal/cli/client"
	"github.com/gcopy-dev/gcopy/internal/cli/i18n"
	"github.com/gcopy-dev/gcopy/internal/cli/nav"
	"github.com/rs/zerolog"
)

// ShareCodeClient is the API call behind the share-code form
type ShareCodeClient interface {
	ShareCodeLogin(ctx context.Context, code string) (*client.Session, error)
}

// ShareCodeForm logs in with a share code
type ShareCodeForm struct {
	base
	client ShareCodeClient
}

// NewShareCodeForm creates an enabled, empty share-code form
func NewShareCodeForm(c ShareCodeClient, n nav.Navigator, tr *i18n.Translator, log zerolog.Logger) *ShareCodeForm {
	return &ShareCodeForm{
		base:   base{nav: n, tr: tr, log: log},
		client: c,
	}
}

// Submit trims rawCode and logs in with it. A blank code is rejected without
// contacting the server. On success the client navigates home; any failure
// shows the authentication-failed message and re-enables the form.
func (f *ShareCodeForm) Submit(ctx context.Context, rawCode string) Result {
	if !f.acquire() {
		return Result{Err: ErrSubmitInProgress}
	}

	code := strings.TrimSpace(rawCode)
	if code == "" {
		return f.fail(i18n.ShareCodeInvalidCode, ErrInvalidInput)
	}

	if _, err := f.client.ShareCodeLogin(ctx, code); err != nil {
		f.logFailure("share-code-login", err)
		return f.fail(i18n.ShareCodeAuthenticationFailed, err)
	}

	return f.leave()
}
