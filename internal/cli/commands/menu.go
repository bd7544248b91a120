package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gcopy-dev/gcopy/internal/cli/nav"
	"github.com/gcopy-dev/gcopy/internal/cli/session"
	"github.com/gcopy-dev/gcopy/internal/cli/widget"
	"github.com/spf13/cobra"
)

// NewMenuCmd creates the interactive account menu command
func NewMenuCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Open the interactive account menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.interactive() {
				return fmt.Errorf("menu requires an interactive terminal")
			}

			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}

			// Navigation is held until the program exits so hints are not
			// drawn over the menu.
			ctx := cmd.Context()
			rec := &nav.Recorder{}
			menu := widget.NewMenu(ctx, widget.NewAvatar(a.store, rec, a.tr, a.log), a.store)

			programOpts := append([]tea.ProgramOption{
				tea.WithContext(ctx),
				tea.WithOutput(a.out),
				tea.WithReportFocus(),
			}, opts.ProgramOptions...)
			p := tea.NewProgram(menu, programOpts...)

			unsubscribe := a.store.Subscribe(func(state session.State) {
				p.Send(widget.StateMsg(state))
			})
			defer unsubscribe()

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("menu failed: %w", err)
			}

			if route := rec.Last(); route != "" {
				a.router(ctx).Push(route)
			}
			return nil
		},
	}
}
