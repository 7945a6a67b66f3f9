package claimbuddy

import (
	"context"

	"claimbuddy/internal/apps/common"
	"claimbuddy/internal/apps/common/commands"
	"claimbuddy/internal/claims/service"
	"claimbuddy/internal/ui"

	"github.com/spf13/cobra"
)

func NewPoolCmd(appCtx *common.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Inspect or clear the claims service SDK pool",
	}
	cmd.AddCommand(newPoolStatusCmd(appCtx), newPoolClearCmd(appCtx))
	return cmd
}

func newPoolStatusCmd(appCtx *common.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pool metrics and the clear threshold of each checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := commands.NewBaseCommand(appCtx, "pool")
			if err != nil {
				return err
			}
			return base.ExecuteWithContext(cmd.Context(), func(ctx context.Context) error {
				metrics, err := base.Clients.Claims.GetPoolMetrics(ctx)
				if err != nil {
					return err
				}
				cfg := base.Clients.Config
				ui.PrintPoolMetrics(base.Out(), *metrics, cfg.PoolMaxSize)

				opts := service.OptionsFrom(cfg)
				for _, cp := range []service.Checkpoint{opts.BeforeBatch, opts.AfterEligibility, opts.AfterHistory, opts.AfterBatch} {
					threshold := service.Threshold(cfg.PoolMaxSize, cp.Percent)
					state := "ok"
					if metrics.TotalInstances >= threshold {
						state = "would clear"
					}
					base.PrintInfo("%-18s clears at %d (%.0f%%): %s", cp.Name, threshold, cp.Percent, state)
				}
				return nil
			})
		},
	}
}

func newPoolClearCmd(appCtx *common.Context) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Ask the claims service to drop its idle SDK instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := commands.NewBaseCommand(appCtx, "pool")
			if err != nil {
				return err
			}
			return base.ExecuteWithContext(cmd.Context(), func(ctx context.Context) error {
				if err := confirmerFor(yes).Confirm("Clear the SDK pool at " + base.Clients.Config.ServerURL); err != nil {
					return err
				}
				message, err := base.Clients.Claims.ClearPool(ctx)
				if err != nil {
					return err
				}
				base.PrintSuccess("Pool cleared: %s", message)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Clear without asking for confirmation")
	return cmd
}
