package service

import (
	"context"

	"claimbuddy/internal/claims/domain"
	"claimbuddy/internal/claims/ports"
	"claimbuddy/internal/errors"
	"claimbuddy/internal/logging"
)

// Decision is the phase 3 verdict for one record: either a terminal outcome or a submission
type Decision struct {
	Outcome domain.ClaimOutcome
	Submit  bool
}

// DecideOutcome applies the claim decision table. A record whose history lookup failed is
// never submitted, because unknown history cannot rule out an earlier claim.
func DecideOutcome(eligibility domain.EligibilityResult, history domain.ClaimsHistory) Decision {
	switch {
	case !eligibility.IsEligible():
		return Decision{Outcome: domain.ClaimOutcome{Status: domain.ClaimStatusSkipped}}
	case !history.Known:
		return Decision{Outcome: domain.ClaimOutcome{Status: domain.ClaimStatusErrorCheckingClaims}}
	case !history.IsEmpty():
		return Decision{Outcome: domain.ClaimOutcome{Status: domain.ClaimStatusAlreadyClaimed}}
	default:
		return Decision{Submit: true}
	}
}

// Pipeline runs the three per-record phases over a batch
type Pipeline struct {
	client      ports.RemoteClient
	destination string
	throttles   PhaseThrottles
	dryRun      bool
	logger      *logging.Logger
}

// PipelineOption customises a Pipeline
type PipelineOption func(*Pipeline)

// WithThrottles sets the per-phase pause between remote calls
func WithThrottles(t PhaseThrottles) PipelineOption {
	return func(p *Pipeline) { p.throttles = t }
}

// WithDryRun stops phase 3 before any submission; would-be claims stay Not Processed
func WithDryRun(dryRun bool) PipelineOption {
	return func(p *Pipeline) { p.dryRun = dryRun }
}

// WithPipelineLogger replaces the default logger
func WithPipelineLogger(l *logging.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a pipeline submitting claims to destination
func NewPipeline(client ports.RemoteClient, destination string, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		client:      client,
		destination: destination,
		logger:      logging.NewDefaultLogger("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.throttles = p.throttles.withDefaults()
	return p
}

// RunEligibility is phase 1: one eligibility lookup per valid record.
// Only cancellation stops the sweep; remote failures become Unclaimable.
func (p *Pipeline) RunEligibility(ctx context.Context, state *domain.BatchState) error {
	for _, record := range state.Batch.Records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !record.IsValid() {
			invalid := errors.DataQuality("row has no account id or chain").
				WithContext("account_id", record.AccountID).
				WithContext("chain", string(record.Chain))
			p.logger.WithFields(invalid.Context).Warn("skipping row: %v", invalid)
			continue
		}
		key := record.Key()
		if _, done := state.Eligibility[key]; done {
			continue
		}

		value, err := p.client.CheckEligibility(ctx, record.AccountID, record.Chain)
		if err != nil {
			value = nil
		}
		result := domain.NewEligibility(value)
		state.Eligibility[key] = result
		if result.IsEligible() {
			p.logger.Debug("%s eligible for %s", key, result.ClaimableAmount.Decimal)
		}

		if err := p.throttles.Eligibility.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RunHistory is phase 2: a history lookup for every eligible record
func (p *Pipeline) RunHistory(ctx context.Context, state *domain.BatchState) error {
	for _, record := range state.ValidRecords() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := record.Key()
		if !state.Eligibility[key].IsEligible() {
			continue
		}
		if _, done := state.History[key]; done {
			continue
		}

		entries, err := p.client.CheckClaimHistory(ctx, record.AccountID, record.Chain)
		if err != nil {
			state.History[key] = domain.UnknownHistory()
		} else {
			state.History[key] = domain.KnownHistory(entries)
		}

		if err := p.throttles.History.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RunSubmission is phase 3: decide every valid record and submit the ones with no prior claims
func (p *Pipeline) RunSubmission(ctx context.Context, state *domain.BatchState) error {
	for _, record := range state.ValidRecords() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := record.Key()
		if _, done := state.Outcomes[key]; done {
			continue
		}

		history, ok := state.History[key]
		if !ok {
			history = domain.UnknownHistory()
		}
		decision := DecideOutcome(state.Eligibility[key], history)
		if !decision.Submit {
			state.Outcomes[key] = decision.Outcome
			continue
		}
		if p.dryRun {
			p.logger.Info("[dry-run] would submit claim for %s", key)
			state.Outcomes[key] = domain.ClaimOutcome{Status: domain.ClaimStatusNotProcessed}
			continue
		}

		payload, err := p.client.SubmitClaim(ctx, record.AccountID, record.Chain, p.destination)
		if err != nil || len(payload) == 0 {
			state.Outcomes[key] = domain.ClaimOutcome{Status: domain.ClaimStatusClaimFailed}
		} else {
			p.logger.Info("claimed %s", key)
			state.Outcomes[key] = domain.ClaimOutcome{Status: domain.ClaimStatusClaimedSuccessfully, Payload: payload}
		}

		if err := p.throttles.Submission.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
