package commands

import (
	"fmt"

	"github.com/gcopy-dev/gcopy/internal/cli/i18n"
	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}

			if err := a.store.Revalidate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to reach %s: %w", a.client.BaseURL(), err)
			}

			if !a.store.Snapshot().LoggedIn {
				fmt.Fprintln(a.out, a.tr.T(i18n.HomeLoggedOut))
				return nil
			}

			fmt.Fprintln(a.out, a.avatar(cmd.Context()).View())
			return nil
		},
	}
}
