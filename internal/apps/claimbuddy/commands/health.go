package claimbuddy

import (
	"context"

	"claimbuddy/internal/apps/common"
	"claimbuddy/internal/apps/common/commands"

	"github.com/spf13/cobra"
)

func NewHealthCmd(appCtx *common.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the claims service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := commands.NewBaseCommand(appCtx, "health")
			if err != nil {
				return err
			}
			return base.ExecuteWithContext(cmd.Context(), func(ctx context.Context) error {
				if err := base.Clients.Claims.Health(ctx); err != nil {
					return err
				}
				base.PrintSuccess("Claims service at %s is healthy", base.Clients.Config.ServerURL)
				return nil
			})
		},
	}
}
