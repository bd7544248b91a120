package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gcopy-dev/gcopy/internal/cli/auth"
	"github.com/gcopy-dev/gcopy/internal/cli/client"
	"github.com/gcopy-dev/gcopy/internal/cli/config"
	"github.com/gcopy-dev/gcopy/internal/cli/i18n"
	"github.com/gcopy-dev/gcopy/internal/cli/nav"
	"github.com/gcopy-dev/gcopy/internal/cli/serverselect"
	"github.com/gcopy-dev/gcopy/internal/cli/session"
	"github.com/gcopy-dev/gcopy/internal/cli/widget"
	"github.com/gcopy-dev/gcopy/internal/logger"
	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Options holds the persistent flags and the seams tests replace
type Options struct {
	Server  string
	Locale  string
	Verbose bool

	// Cookies defaults to the OS keyring
	Cookies auth.CookieStore
	// Prompt defaults to an interactive server picker
	Prompt serverselect.Prompter
	// Interactive reports whether prompts may be shown; defaults to stdin being a terminal
	Interactive func() bool
	// Input reads one line; defaults to a promptui prompt
	Input func(label string) (string, error)
	// Choose picks one of items; defaults to a promptui select
	Choose func(label string, items []string) (int, error)
	// ProgramOptions are appended when the menu program is created
	ProgramOptions []tea.ProgramOption
}

func (o *Options) interactive() bool {
	if o.Interactive != nil {
		return o.Interactive()
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (o *Options) input(label string) (string, error) {
	if o.Input != nil {
		return o.Input(label)
	}
	p := promptui.Prompt{Label: label}
	line, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("input cancelled: %w", err)
	}
	return line, nil
}

func (o *Options) choose(label string, items []string) (int, error) {
	if o.Choose != nil {
		return o.Choose(label, items)
	}
	p := promptui.Select{Label: label, Items: items}
	index, _, err := p.Run()
	if err != nil {
		return 0, fmt.Errorf("selection cancelled: %w", err)
	}
	return index, nil
}

// app is everything a command needs to talk to one server
type app struct {
	out    io.Writer
	log    zerolog.Logger
	tr     *i18n.Translator
	client *client.Client
	store  *session.Store
}

// newApp loads the config, resolves the server and wires the client, the
// persisted cookie jar and the session store.
func newApp(cmd *cobra.Command, opts *Options) (*app, error) {
	log := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	selected := cfg.Selected
	server, err := serverselect.ResolveServer(cfg, opts.Server, opts.Prompt)
	if err != nil {
		return nil, err
	}
	if cfg.Selected != selected {
		if err := config.Save(cfgPath, cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to save selected server")
		}
	}

	cookies := opts.Cookies
	if cookies == nil {
		cookies = auth.Default
	}
	jar, err := auth.NewJar(server, cookies, log)
	if err != nil {
		return nil, err
	}

	c := client.New(server, jar)
	log.Debug().Str("server", server).Msg("Using server")

	return &app{
		out:    cmd.OutOrStdout(),
		log:    log,
		tr:     i18n.New(cfg.ResolveLocale(opts.Locale)),
		client: c,
		store:  session.NewStore(c, log),
	}, nil
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return logger.New(w, "console").Level(level)
}

func (a *app) avatar(ctx context.Context) *widget.Avatar {
	return widget.NewAvatar(a.store, a.router(ctx), a.tr, a.log)
}

// router turns navigation into terminal output. Arriving home refetches the
// session, the way the page would on mount.
func (a *app) router(ctx context.Context) nav.Navigator {
	locale := a.tr.Locale()
	return nav.NavigatorFunc(func(route string) {
		a.log.Debug().Str("route", route).Msg("Navigate")

		switch route {
		case nav.Home(locale):
			if err := a.store.Revalidate(ctx); err != nil {
				a.log.Warn().Err(err).Msg("Failed to load session")
			}
			a.printSession()
		case nav.EmailLogin(locale):
			fmt.Fprintf(a.out, "%s: gcopy login --email <address>\n", a.tr.T(i18n.EmailCodeTitle))
		case nav.ShareCodeLogin(locale):
			fmt.Fprintf(a.out, "%s: gcopy login --code <code>\n", a.tr.T(i18n.ShareCodeTitle))
		}
	})
}

func (a *app) printSession() {
	state := a.store.Snapshot()
	if !state.LoggedIn {
		fmt.Fprintln(a.out, a.tr.T(i18n.HomeLoggedOut))
		return
	}
	fmt.Fprintln(a.out, a.tr.T(i18n.HomeLoggedInAs, widget.DisplayName(state)))
}
