package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"claimbuddy/internal/claims/domain"
	"claimbuddy/internal/claims/ports"
	"claimbuddy/internal/config"
	"claimbuddy/internal/errors"
	"claimbuddy/internal/logging"
)

// Stage is where the orchestrator is in its batch cycle
type Stage string

const (
	StageIdle        Stage = "idle"
	StageLoading     Stage = "loading"
	StageThrottling1 Stage = "throttling_1"
	StagePhase1      Stage = "phase_1"
	StageThrottling2 Stage = "throttling_2"
	StagePhase2      Stage = "phase_2"
	StageThrottling3 Stage = "throttling_3"
	StagePhase3      Stage = "phase_3"
	StageFlushing    Stage = "flushing"
	StageDelaying    Stage = "delaying"
	StageCompleted   Stage = "completed"
	StageCancelled   Stage = "cancelled"
	StageFailed      Stage = "failed"
)

// StateObserver is called on every stage transition; batch is 0 outside a batch
type StateObserver func(stage Stage, batch int)

// Checkpoint is a named pool pressure check with the settle pause that follows it
type Checkpoint struct {
	Name    string
	Percent float64
	Settle  time.Duration
	// SettleOnlyAfterClear skips the pause unless the check cleared the pool
	SettleOnlyAfterClear bool
}

// Checkpoint names used in logs and metrics
const (
	CheckpointBeforeBatch      = "before_batch"
	CheckpointAfterEligibility = "after_eligibility"
	CheckpointAfterHistory     = "after_history"
	CheckpointAfterBatch       = "after_batch"
)

// Options configures one orchestrated run
type Options struct {
	// RunID names the run in the checkpoint store unless a resumed state carries its own
	RunID       string
	BatchSize   int
	BatchDelay  time.Duration
	MaxRows     int
	PoolMaxSize int
	EmitInvalid bool
	DryRun      bool
	OutputFile  string

	BeforeBatch      Checkpoint
	AfterEligibility Checkpoint
	AfterHistory     Checkpoint
	AfterBatch       Checkpoint
}

// OptionsFrom maps the application config onto orchestrator options
func OptionsFrom(cfg *config.Config) Options {
	checkpoint := func(name string, c config.PressureCheckpoint) Checkpoint {
		return Checkpoint{Name: name, Percent: c.Percent, Settle: c.Settle, SettleOnlyAfterClear: c.SettleOnlyAfterClear}
	}
	return Options{
		BatchSize:        cfg.BatchSize,
		BatchDelay:       cfg.BatchDelay,
		MaxRows:          cfg.MaxRows,
		PoolMaxSize:      cfg.PoolMaxSize,
		EmitInvalid:      cfg.InvalidRows == config.InvalidRowsEmit,
		OutputFile:       cfg.OutputFile,
		BeforeBatch:      checkpoint(CheckpointBeforeBatch, cfg.Pressure.BeforeBatch),
		AfterEligibility: checkpoint(CheckpointAfterEligibility, cfg.Pressure.AfterEligibility),
		AfterHistory:     checkpoint(CheckpointAfterHistory, cfg.Pressure.AfterHistory),
		AfterBatch:       checkpoint(CheckpointAfterBatch, cfg.Pressure.AfterBatch),
	}
}

// Orchestrator drives batches through the pipeline, relieving pool pressure between
// phases and flushing the full result set to the sink after every batch
type Orchestrator struct {
	opts     Options
	pipeline *Pipeline
	monitor  *PressureMonitor
	sink     ports.RecordSink
	store    ports.CheckpointStore
	batches  ports.BatchObserver
	observer StateObserver
	sleep    Sleeper
	now      func() time.Time
	logger   *logging.Logger
	stage    Stage
}

// OrchestratorOption customises an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithCheckpointStore records every flushed batch so the run can resume
func WithCheckpointStore(s ports.CheckpointStore) OrchestratorOption {
	return func(o *Orchestrator) { o.store = s }
}

// WithBatchObserver reports every flushed batch, typically to metrics
func WithBatchObserver(b ports.BatchObserver) OrchestratorOption {
	return func(o *Orchestrator) { o.batches = b }
}

// WithStateObserver reports stage transitions
func WithStateObserver(fn StateObserver) OrchestratorOption {
	return func(o *Orchestrator) { o.observer = fn }
}

// WithSleeper replaces the settle and inter-batch pause
func WithSleeper(s Sleeper) OrchestratorOption {
	return func(o *Orchestrator) { o.sleep = s }
}

// WithClock replaces time.Now for summary durations
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// WithOrchestratorLogger replaces the default logger
func WithOrchestratorLogger(l *logging.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator wires the run loop
func NewOrchestrator(opts Options, pipeline *Pipeline, monitor *PressureMonitor, sink ports.RecordSink, options ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		opts:     opts,
		pipeline: pipeline,
		monitor:  monitor,
		sink:     sink,
		sleep:    Sleep,
		now:      time.Now,
		logger:   logging.NewDefaultLogger("orchestrator"),
		stage:    StageIdle,
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Stage is the stage last entered; a new orchestrator is idle
func (o *Orchestrator) Stage() Stage {
	return o.stage
}

// Run processes records from the start
func (o *Orchestrator) Run(ctx context.Context, records []domain.Record) (domain.Summary, error) {
	return o.Resume(ctx, records, domain.RunState{})
}

// Resume continues after the prior state's consumed records. records is the full input;
// the sink is rewritten with prior rows followed by the rows of every new batch.
// On cancellation the partial batch is discarded and ctx.Err() is returned with the summary
// of the batches already flushed.
func (o *Orchestrator) Resume(ctx context.Context, records []domain.Record, prior domain.RunState) (domain.Summary, error) {
	started := o.now()
	state := prior
	if state.RunID == "" {
		state.RunID = o.opts.RunID
	}
	o.transition(StageLoading, 0)

	summary := func(completed bool) domain.Summary {
		return domain.Summary{
			RunID:      state.RunID,
			Completed:  completed,
			DryRun:     o.opts.DryRun,
			Batches:    state.Batches,
			BatchSize:  o.opts.BatchSize,
			Consumed:   state.Consumed,
			Total:      o.total(records),
			Counters:   state.Counters,
			OutputFile: o.opts.OutputFile,
			Duration:   o.now().Sub(started),
		}
	}

	remaining, err := SelectRecords(records, o.opts.MaxRows, prior.Consumed)
	if err != nil {
		o.transition(StageFailed, 0)
		return summary(false), err
	}
	batches, err := PlanBatches(remaining, o.opts.BatchSize)
	if err != nil {
		o.transition(StageFailed, 0)
		return summary(false), err
	}

	o.logger.Info("processing %d records in %d batches of up to %d (starting after %d already consumed)",
		len(remaining), len(batches), o.opts.BatchSize, prior.Consumed)

	if len(batches) == 0 {
		if err := o.sink.WriteAll(state.Rows); err != nil {
			o.transition(StageFailed, 0)
			return summary(false), errors.Storage(err, "failed to write output")
		}
		o.transition(StageCompleted, 0)
		return summary(true), nil
	}

	for i, batch := range batches {
		batch.Number = prior.Batches + batch.Number
		batch.Start = prior.Consumed + batch.Start

		next, err := o.runBatch(ctx, batch, state)
		state = next
		if err != nil {
			return o.stop(err, summary)
		}

		if i == len(batches)-1 {
			break
		}
		o.transition(StageDelaying, batch.Number)
		o.logger.Info("waiting %s before next batch", o.opts.BatchDelay)
		if err := o.sleep(ctx, o.opts.BatchDelay); err != nil {
			return o.stop(err, summary)
		}
	}

	o.transition(StageCompleted, 0)
	return summary(true), nil
}

func (o *Orchestrator) runBatch(ctx context.Context, batch domain.Batch, state domain.RunState) (domain.RunState, error) {
	o.logger.Info("batch %d: records %d-%d", batch.Number, batch.Start+1, batch.End()+1)
	bs := domain.NewBatchState(batch)

	o.transition(StageThrottling1, batch.Number)
	if err := o.pressureCheck(ctx, o.opts.BeforeBatch); err != nil {
		return state, err
	}

	o.transition(StagePhase1, batch.Number)
	if err := o.pipeline.RunEligibility(ctx, bs); err != nil {
		return state, err
	}
	o.logger.Info("batch %d: %d eligible of %d", batch.Number, bs.EligibleCount(), len(batch.Records))

	o.transition(StageThrottling2, batch.Number)
	if err := o.pressureCheck(ctx, o.opts.AfterEligibility); err != nil {
		return state, err
	}

	o.transition(StagePhase2, batch.Number)
	if err := o.pipeline.RunHistory(ctx, bs); err != nil {
		return state, err
	}

	o.transition(StageThrottling3, batch.Number)
	if err := o.pressureCheck(ctx, o.opts.AfterHistory); err != nil {
		return state, err
	}

	o.transition(StagePhase3, batch.Number)
	if err := o.pipeline.RunSubmission(ctx, bs); err != nil {
		return state, err
	}

	// flushing is not interruptible; a batch that reached here is always written
	o.transition(StageFlushing, batch.Number)
	result := domain.NewBatchResult(batch.Number, len(batch.Records), bs.Rows(o.opts.EmitInvalid))
	next := state.Apply(result)
	if err := o.sink.WriteAll(next.Rows); err != nil {
		return state, errors.Storage(err, fmt.Sprintf("failed to flush batch %d", batch.Number))
	}
	if o.store != nil && next.RunID != "" {
		if err := o.store.SaveBatch(context.WithoutCancel(ctx), next.RunID, result); err != nil {
			return next, err
		}
	}
	if o.batches != nil {
		o.batches.ObserveBatch(result)
	}
	o.logBatch(result)

	if err := o.pressureCheck(ctx, o.opts.AfterBatch); err != nil {
		return next, err
	}
	return next, nil
}

// pressureCheck runs one checkpoint and its settle pause; only cancellation is an error
func (o *Orchestrator) pressureCheck(ctx context.Context, cp Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cleared := o.monitor.Check(ctx, cp.Name, o.opts.PoolMaxSize, cp.Percent)
	if cp.Settle <= 0 || (cp.SettleOnlyAfterClear && !cleared) {
		return nil
	}
	return o.sleep(ctx, cp.Settle)
}

// stop turns a batch error into the run result. Cancellation keeps every flushed batch.
func (o *Orchestrator) stop(err error, summary func(bool) domain.Summary) (domain.Summary, error) {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		o.transition(StageCancelled, 0)
		o.logger.Warn("run cancelled; the interrupted batch was discarded")
		return summary(false), err
	}
	o.transition(StageFailed, 0)
	return summary(false), err
}

func (o *Orchestrator) logBatch(result domain.BatchResult) {
	c := result.Counters
	o.logger.WithFields(map[string]any{
		"batch":                 result.Number,
		"processed":             c.Processed,
		"eligible":              c.Eligible,
		"already_claimed":       c.AlreadyClaimed,
		"claimed":               c.Claimed,
		"error_checking_claims": c.ErrorCheckingClaims,
		"claim_failed":          c.ClaimFailed,
	}).Info("batch %d flushed", result.Number)
}

func (o *Orchestrator) total(records []domain.Record) int {
	if o.opts.MaxRows > 0 && len(records) > o.opts.MaxRows {
		return o.opts.MaxRows
	}
	return len(records)
}

func (o *Orchestrator) transition(stage Stage, batch int) {
	o.stage = stage
	o.logger.Debug("stage %s (batch %d)", stage, batch)
	if o.observer != nil {
		o.observer(stage, batch)
	}
}
