package claimbuddy

import (
	"context"
	stderrors "errors"
	"fmt"

	"claimbuddy/internal/apps/common"
	"claimbuddy/internal/apps/common/commands"
	"claimbuddy/internal/claims/adapters"
	"claimbuddy/internal/claims/domain"
	"claimbuddy/internal/claims/service"
	"claimbuddy/internal/config"
	"claimbuddy/internal/errors"
	"claimbuddy/internal/logging"
	"claimbuddy/internal/storage"
	"claimbuddy/internal/ui"

	"github.com/spf13/cobra"
)

// resumeLatest picks the newest unfinished run for the input file
const resumeLatest = "latest"

type claimsRunFlags struct {
	resume string
	yes    bool
	dryRun bool
}

func NewClaimsCmd(appCtx *common.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Check and submit claims for the accounts in a CSV",
	}
	cmd.AddCommand(newClaimsRunCmd(appCtx), newAllocationsCmd(appCtx))
	return cmd
}

func newClaimsRunCmd(appCtx *common.Context) *cobra.Command {
	var flags claimsRunFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the three-phase claims process in batches",
		Long: `Reads the input CSV and processes it in batches. For every batch it checks
eligibility, looks up claim history for eligible accounts, and submits a claim
for each eligible account with no prior claims. The output CSV is rewritten
with every result so far after each batch.

Pool pressure on the claims service is checked before each batch and after
each phase; the pool is cleared when it crosses the configured threshold.

Progress is recorded in the checkpoint store. An interrupted run continues
where it stopped with --resume latest or --resume <run-id>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appCtx.Config
			applyClaimsFlags(cmd, cfg)
			if err := cfg.ValidateForClaims(); err != nil {
				return errors.Wrap(err, errors.ErrorTypeConfiguration, "invalid configuration")
			}

			base, err := commands.NewBaseCommand(appCtx, "claims")
			if err != nil {
				return err
			}
			return base.ExecuteWithContext(cmd.Context(), func(ctx context.Context) error {
				return runClaims(ctx, base, flags, confirmerFor(flags.yes))
			})
		},
	}

	cmd.Flags().String("input", "", "Input CSV of vault accounts")
	cmd.Flags().String("output", "", "Output CSV, rewritten after every batch")
	cmd.Flags().String("destination-address", "", "Address every claim is sent to")
	cmd.Flags().Int("batch-size", 0, "Records per batch")
	cmd.Flags().Duration("batch-delay", 0, "Pause between batches")
	cmd.Flags().Int("max-rows", 0, "Process at most this many input rows (0 for all)")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file when the run ends")
	cmd.Flags().StringVar(&flags.resume, "resume", "", "Resume a run by id, or 'latest' for the newest unfinished run of the input")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Submit without asking for confirmation")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Check eligibility and history only; nothing is submitted or checkpointed")

	return cmd
}

func applyClaimsFlags(cmd *cobra.Command, cfg *config.Config) {
	commands.ApplyStringFlag(cmd, "input", &cfg.InputFile)
	commands.ApplyStringFlag(cmd, "output", &cfg.OutputFile)
	commands.ApplyStringFlag(cmd, "destination-address", &cfg.DestinationAddress)
	commands.ApplyIntFlag(cmd, "batch-size", &cfg.BatchSize)
	commands.ApplyDurationFlag(cmd, "batch-delay", &cfg.BatchDelay)
	commands.ApplyIntFlag(cmd, "max-rows", &cfg.MaxRows)
	commands.ApplyStringFlag(cmd, "metrics-file", &cfg.Metrics.File)
}

func confirmerFor(yes bool) ui.Confirmer {
	if yes {
		return ui.AutoConfirmer{}
	}
	return ui.PromptConfirmer{}
}

func runClaims(ctx context.Context, base *commands.BaseCommand, flags claimsRunFlags, confirmer ui.Confirmer) error {
	cfg := base.Clients.Config
	client := base.Clients.Claims
	recorder := base.Clients.Metrics

	records, err := adapters.NewCSVSource(cfg.InputFile, logging.NewDefaultLogger("csv")).ReadRecords(ctx)
	if err != nil {
		return err
	}
	base.PrintInfo("Loaded %d records from %s", len(records), cfg.InputFile)

	if err := client.Health(ctx); err != nil {
		base.Logger.Warn("Claims service health check failed, continuing: %v", err)
	}

	var store *storage.SQLiteStore
	if !flags.dryRun {
		store, err = base.AppCtx.Container.CheckpointStore()
		if err != nil {
			return err
		}
	}

	prior, err := resumeState(ctx, store, cfg, flags.resume)
	if err != nil {
		return err
	}
	if prior.RunID != "" {
		base.PrintInfo("Resuming run %s after %d consumed records (%d batches)", prior.RunID, prior.Consumed, prior.Batches)
	}

	if !flags.dryRun {
		label := fmt.Sprintf("Submit claims to %s for eligible accounts in %s", cfg.DestinationAddress, cfg.InputFile)
		if err := confirmer.Confirm(label); err != nil {
			if stderrors.Is(err, ui.ErrDeclined) {
				base.PrintInfo("Aborted, nothing was submitted")
				return nil
			}
			return err
		}
	}

	runID := prior.RunID
	if runID == "" && store != nil {
		runID = storage.NewRunID()
		err := store.StartRun(ctx, domain.RunInfo{
			ID:                 runID,
			InputFile:          cfg.InputFile,
			OutputFile:         cfg.OutputFile,
			DestinationAddress: cfg.DestinationAddress,
			BatchSize:          cfg.BatchSize,
		})
		if err != nil {
			return err
		}
	}

	opts := service.OptionsFrom(cfg)
	opts.RunID = runID
	opts.DryRun = flags.dryRun

	pipeline := service.NewPipeline(client, cfg.DestinationAddress,
		service.WithThrottles(service.FixedPhaseThrottles(cfg.Throttle.Eligibility, cfg.Throttle.History, cfg.Throttle.Submission)),
		service.WithDryRun(flags.dryRun),
		service.WithPipelineLogger(logging.NewDefaultLogger("pipeline")),
	)
	monitor := service.NewPressureMonitor(client, logging.NewDefaultLogger("pool"), recorder)

	stageLogger := logging.NewDefaultLogger("orchestrator")
	orchOpts := []service.OrchestratorOption{
		service.WithBatchObserver(recorder),
		service.WithStateObserver(func(stage service.Stage, batch int) {
			stageLogger.Debug("stage %s (batch %d)", stage, batch)
		}),
	}
	if store != nil {
		orchOpts = append(orchOpts, service.WithCheckpointStore(store))
	}

	orchestrator := service.NewOrchestrator(opts, pipeline, monitor, adapters.NewCSVSink(cfg.OutputFile), orchOpts...)
	summary, runErr := orchestrator.Resume(ctx, records, prior)

	status := runStatus(runErr)
	if store != nil && runID != "" {
		if err := store.FinishRun(context.WithoutCancel(ctx), runID, status); err != nil {
			base.Logger.Warn("Failed to record run status: %v", err)
		}
	}

	ui.PrintSummary(base.Out(), summary)

	if cfg.Metrics.File != "" {
		if err := recorder.WriteTextfile(cfg.Metrics.File); err != nil {
			base.Logger.Warn("Failed to write metrics file: %v", err)
		}
	}
	if reporter := base.Clients.Reporter; reporter != nil {
		if err := reporter.ReportSummary(context.WithoutCancel(ctx), summary); err != nil {
			base.Logger.Warn("Failed to report run summary: %v", err)
		}
	}

	if status == domain.RunStatusCancelled && runID != "" {
		base.PrintInfo("Interrupted. Continue with: %s claims run --resume %s", base.AppCtx.BinaryName, runID)
	}
	return runErr
}

// resumeState loads the state of the run named by resume, or an empty state for a new run
func resumeState(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config, resume string) (domain.RunState, error) {
	if resume == "" {
		return domain.RunState{}, nil
	}
	if store == nil {
		return domain.RunState{}, errors.Configuration("--resume needs the checkpoint store; it is disabled or this is a dry run")
	}

	runID := resume
	if resume == resumeLatest {
		id, err := store.LatestRun(ctx, cfg.InputFile)
		if err != nil {
			return domain.RunState{}, err
		}
		runID = id
	}

	info, state, err := store.LoadRun(ctx, runID)
	if err != nil {
		return domain.RunState{}, err
	}
	if info.Status == domain.RunStatusCompleted {
		return domain.RunState{}, errors.Configuration("run " + runID + " already completed")
	}
	if info.InputFile != cfg.InputFile {
		return domain.RunState{}, errors.Configuration("run " + runID + " read " + info.InputFile + ", not " + cfg.InputFile)
	}
	if info.DestinationAddress != cfg.DestinationAddress {
		return domain.RunState{}, errors.Configuration("run " + runID + " submitted to a different destination address")
	}
	return *state, nil
}

func runStatus(err error) domain.RunStatus {
	switch {
	case err == nil:
		return domain.RunStatusCompleted
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return domain.RunStatusCancelled
	default:
		return domain.RunStatusFailed
	}
}
