package claimbuddy

import (
	"context"

	"claimbuddy/internal/apps/common"
	"claimbuddy/internal/apps/common/commands"
	"claimbuddy/internal/errors"
	"claimbuddy/internal/storage"
	"claimbuddy/internal/ui"

	"github.com/spf13/cobra"
)

func NewRunsCmd(appCtx *common.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs recorded in the checkpoint store",
	}
	cmd.AddCommand(newRunsListCmd(appCtx), newRunsShowCmd(appCtx))
	return cmd
}

func newRunsListCmd(appCtx *common.Context) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := commands.NewBaseCommand(appCtx, "runs")
			if err != nil {
				return err
			}
			return base.ExecuteWithContext(cmd.Context(), func(ctx context.Context) error {
				store, err := openStore(base)
				if err != nil {
					return err
				}
				runs, err := store.ListRuns(ctx, limit)
				if err != nil {
					return err
				}
				ui.PrintRuns(base.Out(), runs)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func newRunsShowCmd(appCtx *common.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the progress and counters of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := commands.NewBaseCommand(appCtx, "runs")
			if err != nil {
				return err
			}
			return base.ExecuteWithContext(cmd.Context(), func(ctx context.Context) error {
				store, err := openStore(base)
				if err != nil {
					return err
				}
				info, _, err := store.LoadRun(ctx, args[0])
				if err != nil {
					return err
				}
				ui.PrintRun(base.Out(), *info)
				return nil
			})
		},
	}
}

func openStore(base *commands.BaseCommand) (*storage.SQLiteStore, error) {
	store, err := base.AppCtx.Container.CheckpointStore()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.Configuration("checkpointing is disabled in the configuration")
	}
	return store, nil
}
