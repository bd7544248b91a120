package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/gcopy-dev/gcopy/internal/cli/form"
	"github.com/gcopy-dev/gcopy/internal/cli/i18n"
	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login command
func NewLoginCmd(opts *Options) *cobra.Command {
	var code, email, verifyCode string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a share code or an emailed code",
		Long: `Log in to a gcopy server.

Devices that log in with the same share code see each other's clipboard.
Use --email to log in with a code sent to your mailbox instead.

Examples:
  $ gcopy login                                  # Choose a method and prompt
  $ gcopy login --code my-team                   # Share code login
  $ gcopy login --email me@example.com           # Mail a login code
  $ gcopy login --email me@example.com --verify-code 123456`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			useEmail := email != ""
			if code == "" && !useEmail && opts.interactive() {
				useEmail, email, err = chooseMethod(a, opts)
				if err != nil {
					return err
				}
			}
			if useEmail {
				return runEmailLogin(cmd.Context(), a, opts, email, verifyCode)
			}
			return runShareCodeLogin(cmd.Context(), a, opts, code)
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Share code (will prompt if not provided)")
	cmd.Flags().StringVar(&email, "email", "", "Log in by email instead of share code")
	cmd.Flags().StringVar(&verifyCode, "verify-code", "", "Code received by email (will prompt if not provided)")

	return cmd
}

func runShareCodeLogin(ctx context.Context, a *app, opts *Options, code string) error {
	f := form.NewShareCodeForm(a.client, a.router(ctx), a.tr, a.log)

	if code != "" || !opts.interactive() {
		return resultError(f.Submit(ctx, code))
	}

	fmt.Fprintf(a.out, "%s (%s)\n%s\n", a.tr.T(i18n.ShareCodeTitle), a.tr.T(i18n.ShareCodeSmallTitle), a.tr.T(i18n.ShareCodeSubTitle))
	fmt.Fprintln(a.out, a.tr.T(i18n.ShareCodeTip))

	for {
		input, err := opts.input(a.tr.T(i18n.ShareCodePlaceholder))
		if err != nil {
			return err
		}

		res := f.Submit(ctx, input)
		if res.OK() {
			return nil
		}
		fmt.Fprintln(a.out, res.Message)
		if errors.Is(res.Err, form.ErrInvalidInput) {
			continue
		}
		fmt.Fprintln(a.out, a.tr.T(i18n.ShareCodeOrUseEmail)+": gcopy login --email <address>")
	}
}

func runEmailLogin(ctx context.Context, a *app, opts *Options, email, verifyCode string) error {
	f := form.NewEmailForm(a.client, a.router(ctx), a.tr, a.log)

	if verifyCode == "" {
		res := f.RequestCode(ctx, email)
		if !res.OK() {
			return resultError(res)
		}
		fmt.Fprintln(a.out, res.Message)

		if !opts.interactive() {
			fmt.Fprintf(a.out, "Run 'gcopy login --email %s --verify-code <code>' to finish\n", email)
			return nil
		}
	}

	for {
		if verifyCode == "" {
			input, err := opts.input(a.tr.T(i18n.EmailCodeCodePlaceholder))
			if err != nil {
				return err
			}
			verifyCode = input
		}

		res := f.Verify(ctx, email, verifyCode)
		if res.OK() || !opts.interactive() {
			return resultError(res)
		}
		fmt.Fprintln(a.out, res.Message)
		verifyCode = ""
	}
}

// resultError turns a failed submission into the message the user sees
func resultError(res form.Result) error {
	if res.OK() {
		return nil
	}
	if res.Message == "" {
		return res.Err
	}
	return errors.New(res.Message)
}

// chooseMethod asks how to log in and, for email, which address to use
func chooseMethod(a *app, opts *Options) (bool, string, error) {
	methods := []string{a.tr.T(i18n.ShareCodeTitle), a.tr.T(i18n.EmailCodeTitle)}
	index, err := opts.choose(a.tr.T(i18n.ShareCodeButtonText), methods)
	if err != nil || index == 0 {
		return false, "", err
	}
	email, err := opts.input(a.tr.T(i18n.EmailCodeEmailPlaceholder))
	return true, email, err
}
