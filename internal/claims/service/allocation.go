package service

import (
	"context"

	"claimbuddy/internal/claims/domain"
	"claimbuddy/internal/claims/ports"
	"claimbuddy/internal/errors"
	"claimbuddy/internal/logging"
)

// AllocationChecker looks up the current claimable value of every record without claiming
type AllocationChecker struct {
	client   ports.RemoteClient
	sink     ports.AllocationSink
	throttle ports.Throttle
	logger   *logging.Logger
	// emitInvalid reports rows with no account id or chain instead of dropping them
	emitInvalid bool
}

// NewAllocationChecker creates a checker; a nil throttle means no pause between calls
func NewAllocationChecker(client ports.RemoteClient, sink ports.AllocationSink, throttle ports.Throttle, emitInvalid bool, logger *logging.Logger) *AllocationChecker {
	if throttle == nil {
		throttle = NoDelay{}
	}
	if logger == nil {
		logger = logging.NewDefaultLogger("allocations")
	}
	return &AllocationChecker{client: client, sink: sink, throttle: throttle, logger: logger, emitInvalid: emitInvalid}
}

// Run checks every record and writes the report once at the end. Invalid records get no
// remote call; they are dropped, or reported with their original amount when emitInvalid is set.
// On cancellation nothing is written.
func (a *AllocationChecker) Run(ctx context.Context, records []domain.Record) (domain.AllocationSummary, error) {
	summary := domain.AllocationSummary{Total: len(records)}
	rows := make([]domain.AllocationRow, 0, len(records))

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if !record.IsValid() {
			a.logger.Warn("row %d: missing account id or chain, skipping", i+1)
			summary.Skipped++
			if a.emitInvalid {
				rows = append(rows, domain.NewAllocationRow(record, nil))
			}
			continue
		}

		value, err := a.client.CheckEligibility(ctx, record.AccountID, record.Chain)
		if err != nil {
			value = nil
		}
		row := domain.NewAllocationRow(record, value)
		if row.OK() {
			summary.Success++
		} else {
			summary.Fallback++
		}
		rows = append(rows, row)

		if (i+1)%50 == 0 {
			a.logger.Info("checked %d/%d records", i+1, len(records))
		}
		if err := a.throttle.Wait(ctx); err != nil {
			return summary, err
		}
	}

	if err := a.sink.WriteAllocations(rows); err != nil {
		return summary, errors.Storage(err, "failed to write allocation report")
	}
	a.logger.Info("allocation check complete: %d success, %d using original, %d skipped",
		summary.Success, summary.Fallback, summary.Skipped)
	return summary, nil
}
