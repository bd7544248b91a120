package form

import (
	"context"
	"strings"

	"github.com/gcopy-dev/gcopy/internal/cli/client"
	"github.com/gcopy-dev/gcopy/internal/cli/i18n"
	"github.com/gcopy-dev/gcopy/internal/cli/nav"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// EmailClient is the API surface behind the email-code form
type EmailClient interface {
	RequestEmailCode(ctx context.Context, email, language string) error
	EmailLogin(ctx context.Context, email, code string) (*client.Session, error)
}

var validate = validator.New()

// EmailForm runs the two step email login: request a code, then verify it
type EmailForm struct {
	base
	client EmailClient
}

// NewEmailForm creates an enabled, empty email form
func NewEmailForm(c EmailClient, n nav.Navigator, tr *i18n.Translator, log zerolog.Logger) *EmailForm {
	return &EmailForm{
		base:   base{nav: n, tr: tr, log: log},
		client: c,
	}
}

// RequestCode asks the server to mail a code to email. The form stays on
// screen, so it is re-enabled whatever the outcome.
func (f *EmailForm) RequestCode(ctx context.Context, rawEmail string) Result {
	if !f.acquire() {
		return Result{Err: ErrSubmitInProgress}
	}

	email := strings.TrimSpace(rawEmail)
	if validate.Var(email, "required,email") != nil {
		return f.fail(i18n.EmailCodeInvalidEmail, ErrInvalidInput)
	}

	if err := f.client.RequestEmailCode(ctx, email, f.tr.Locale()); err != nil {
		f.logFailure("email-code", err)
		return f.fail(i18n.EmailCodeSendFailed, err)
	}

	msg := f.tr.T(i18n.EmailCodeCodeSent, email)
	f.setMessage("")
	f.busy.Store(false)
	return Result{Message: msg}
}

// Verify completes the login with the mailed code and navigates home
func (f *EmailForm) Verify(ctx context.Context, rawEmail, rawCode string) Result {
	if !f.acquire() {
		return Result{Err: ErrSubmitInProgress}
	}

	email := strings.TrimSpace(rawEmail)
	if validate.Var(email, "required,email") != nil {
		return f.fail(i18n.EmailCodeInvalidEmail, ErrInvalidInput)
	}
	code := strings.TrimSpace(rawCode)
	if validate.Var(code, "required,numeric,len=6") != nil {
		return f.fail(i18n.EmailCodeInvalidCode, ErrInvalidInput)
	}

	if _, err := f.client.EmailLogin(ctx, email, code); err != nil {
		f.logFailure("login", err)
		return f.fail(i18n.EmailCodeAuthenticationFailed, err)
	}

	return f.leave()
}
