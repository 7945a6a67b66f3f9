package cobra

import (
	"fmt"

	"claimbuddy/internal/apps/common"
	"claimbuddy/internal/buildinfo"

	"github.com/spf13/cobra"
)

func NewRootCommand(appCtx *common.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   appCtx.BinaryName,
		Short: "Batch claims orchestrator for the custody claims service",
		Long: `Processes a CSV of vault accounts against the claims service: checks each
account's eligibility and claim history, submits claims for accounts that have none,
and writes every outcome to a CSV that is rewritten after each batch.`,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           buildinfo.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return appCtx.Load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&appCtx.ConfigPath, "config", "", "YAML config file layered over the built-in defaults")
	rootCmd.PersistentFlags().StringVar(&appCtx.ServerURL, "server-url", "", "Claims service base URL, overriding the config")
	rootCmd.PersistentFlags().StringVar(&appCtx.LogLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Display the version of " + appCtx.BinaryName,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appCtx.BinaryName, buildinfo.String())
		},
	})

	return rootCmd
}
