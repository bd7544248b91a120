package commands

import (
	"fmt"

	"github.com/gcopy-dev/gcopy/internal/cli/config"
	"github.com/gcopy-dev/gcopy/internal/cli/serverselect"
	"github.com/spf13/cobra"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [url-or-alias]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ gcopy select-server                        # Interactive selection
  $ gcopy select-server http://10.0.0.5:3376   # Select by URL
  $ gcopy select-server server-2               # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectServer(cmd, opts, urlOrAlias)
		},
	}

	return cmd
}

func runSelectServer(cmd *cobra.Command, opts *Options, urlOrAlias string) error {
	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	var server *config.Server
	if urlOrAlias != "" {
		server, err = cfg.GetServerByURLOrAlias(urlOrAlias)
	} else {
		prompt := opts.Prompt
		if prompt == nil {
			prompt = serverselect.PromptServerSelection
		}
		server, err = prompt(cfg.Servers)
	}
	if err != nil {
		return err
	}

	cfg.Selected = server.URL
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Selected server: %s (%s)\n", server.Alias, server.URL)
	return nil
}
