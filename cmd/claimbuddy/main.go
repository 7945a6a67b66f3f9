package main

import (
	"os"

	claimbuddy "claimbuddy/internal/apps/claimbuddy/commands"
	"claimbuddy/internal/apps/common"
	cobraPkg "claimbuddy/internal/apps/common/cobra"
	"claimbuddy/internal/logging"
)

func main() {
	logger := logging.NewDefaultLogger("claimbuddy")

	appCtx := common.NewContext("claimbuddy")
	defer func() {
		if err := appCtx.Container.Close(); err != nil {
			logger.Warn("Failed to close checkpoint store: %v", err)
		}
	}()

	// Get the base command
	rootCmd := cobraPkg.NewRootCommand(appCtx)

	// Add claimbuddy specific commands to the root
	rootCmd.AddCommand(claimbuddy.GetCommands(appCtx)...)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed: %v", err)
		_ = appCtx.Container.Close()
		os.Exit(1)
	}
}
