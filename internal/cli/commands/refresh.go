package commands

import (
	"fmt"
	"net/http"

	"github.com/gcopy-dev/gcopy/internal/cli/client"
	"github.com/spf13/cobra"
)

// NewRefreshCmd creates the refresh command
func NewRefreshCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Keep the current share code joinable",
		Long: `Keep the current share code joinable for other devices.

A share code stays joinable for 5 minutes after the last refresh. Only
sessions created with a share code can be refreshed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}

			lease, err := a.client.RefreshShareCode(cmd.Context())
			switch {
			case client.IsStatus(err, http.StatusUnauthorized):
				return fmt.Errorf("not logged in with a share code, run 'gcopy login --code <code>' first")
			case err != nil:
				return fmt.Errorf("failed to refresh share code: %w", err)
			}

			fmt.Fprintf(a.out, "✓ Share code %s is joinable for another %ds\n", lease.ShareCode, lease.ExpiresIn)
			return nil
		},
	}
}
