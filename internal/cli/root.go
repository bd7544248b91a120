package cli

import (
	"fmt"
	"os"

	"github.com/gcopy-dev/gcopy/internal/cli/commands"
	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the gcopy command tree around opts
func NewRootCmd(opts *commands.Options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gcopy",
		Short: "gcopy - clipboard sync between devices",
		Long: `gcopy CLI - Log in to a gcopy server and manage your session.

Devices that log in with the same share code, or the same email, share
one clipboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.Server, "server", "", "Server URL or alias (or set GCOPY_SERVER)")
	rootCmd.PersistentFlags().StringVar(&opts.Locale, "locale", "", "Message language, e.g. en or zh-CN (or set GCOPY_LOCALE)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gcopy version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd(opts))
	rootCmd.AddCommand(commands.NewLoginCmd(opts))
	rootCmd.AddCommand(commands.NewLogoutCmd(opts))
	rootCmd.AddCommand(commands.NewWhoamiCmd(opts))
	rootCmd.AddCommand(commands.NewMenuCmd(opts))
	rootCmd.AddCommand(commands.NewRefreshCmd(opts))
	rootCmd.AddCommand(commands.NewSelectServerCmd(opts))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd(&commands.Options{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
