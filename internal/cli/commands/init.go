package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/gcopy-dev/gcopy/internal/cli/client"
	"github.com/gcopy-dev/gcopy/internal/cli/config"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command
func NewInitCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "init <server-url>",
		Short: "Add a gcopy server and select it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts, args[0])
		},
	}
}

func runInit(cmd *cobra.Command, opts *Options, rawURL string) error {
	out := cmd.OutOrStdout()

	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load existing config: %w", err)
	}

	serverURL := config.NormalizeURL(rawURL)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	health, err := client.New(serverURL, nil).Health(ctx)
	if err != nil {
		return fmt.Errorf("server %s is not reachable: %w", serverURL, err)
	}

	alias, added := cfg.AddServer(serverURL)
	cfg.Selected = serverURL
	if opts.Locale != "" {
		cfg.Locale = opts.Locale
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	if added {
		fmt.Fprintf(out, "✓ Added server %s (%s) to %s\n", serverURL, alias, cfgPath)
	} else {
		fmt.Fprintf(out, "Server %s (%s) already exists in %s\n", serverURL, alias, cfgPath)
	}
	fmt.Fprintf(out, "  %s %s is %s\n", health.Service, health.Version, health.Status)

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  Run 'gcopy login' to log in with a share code")

	return nil
}
