package claimbuddy

import (
	"context"

	"claimbuddy/internal/apps/common"
	"claimbuddy/internal/apps/common/commands"
	"claimbuddy/internal/claims/adapters"
	"claimbuddy/internal/claims/service"
	"claimbuddy/internal/config"
	"claimbuddy/internal/logging"

	"github.com/spf13/cobra"
)

// defaultAllocationsOutput is where allocation results go unless --output is given
const defaultAllocationsOutput = "accounts_with_allocations.csv"

func newAllocationsCmd(appCtx *common.Context) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "allocations",
		Short: "Refresh claimable amounts from the claims service without submitting",
		Long: `Queries eligibility for every account in the input CSV and writes the remote
claimable amount next to the original one. Accounts the service has no positive
allocation for keep their original amount and are marked "Failed/Using Original".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appCtx.Config
			commands.ApplyStringFlag(cmd, "input", &cfg.InputFile)
			commands.ApplyIntFlag(cmd, "max-rows", &cfg.MaxRows)

			base, err := commands.NewBaseCommand(appCtx, "allocations")
			if err != nil {
				return err
			}
			return base.ExecuteWithContext(cmd.Context(), func(ctx context.Context) error {
				return runAllocations(ctx, base, output)
			})
		},
	}

	cmd.Flags().String("input", "", "Input CSV of vault accounts")
	cmd.Flags().StringVar(&output, "output", defaultAllocationsOutput, "Output CSV")
	cmd.Flags().Int("max-rows", 0, "Check at most this many input rows (0 for all)")

	return cmd
}

func runAllocations(ctx context.Context, base *commands.BaseCommand, output string) error {
	cfg := base.Clients.Config

	records, err := adapters.NewCSVSource(cfg.InputFile, logging.NewDefaultLogger("csv")).ReadRecords(ctx)
	if err != nil {
		return err
	}
	records, err = service.SelectRecords(records, cfg.MaxRows, 0)
	if err != nil {
		return err
	}
	base.PrintInfo("Checking allocations for %d records from %s", len(records), cfg.InputFile)

	checker := service.NewAllocationChecker(
		base.Clients.Claims,
		adapters.NewCSVAllocationSink(output),
		service.FixedDelay{Delay: cfg.Throttle.Eligibility},
		cfg.InvalidRows == config.InvalidRowsEmit,
		logging.NewDefaultLogger("allocations"),
	)
	summary, err := checker.Run(ctx, records)
	if err != nil {
		return err
	}

	base.PrintSuccess("Allocations written to %s: %d updated, %d using original, %d skipped",
		output, summary.Success, summary.Fallback, summary.Skipped)
	return nil
}
