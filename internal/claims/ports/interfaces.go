package ports

import (
	"context"
	"encoding/json"

	"claimbuddy/internal/claims/domain"

	"github.com/shopspring/decimal"
)

// RemoteClient is the claims service. Every error it returns is classified by
// errors.ErrorType; callers reduce failures to negative results.
type RemoteClient interface {
	CheckEligibility(ctx context.Context, accountID string, chain domain.Chain) (*decimal.Decimal, error)
	// CheckClaimHistory returns a non-nil, possibly empty, slice on success
	CheckClaimHistory(ctx context.Context, accountID string, chain domain.Chain) ([]json.RawMessage, error)
	SubmitClaim(ctx context.Context, accountID string, chain domain.Chain, destination string) (json.RawMessage, error)
	GetPoolMetrics(ctx context.Context) (*domain.PoolMetrics, error)
	ClearPool(ctx context.Context) (string, error)
	Health(ctx context.Context) error
}

// RecordSource yields input records in file order
type RecordSource interface {
	ReadRecords(ctx context.Context) ([]domain.Record, error)
}

// RecordSink receives every result row produced so far and replaces its previous contents
type RecordSink interface {
	WriteAll(rows []domain.ResultRow) error
}

// Throttle is the pause applied after each remote call of a phase sweep
type Throttle interface {
	Wait(ctx context.Context) error
}

// CheckpointStore records flushed batches so an interrupted run can resume
type CheckpointStore interface {
	StartRun(ctx context.Context, run domain.RunInfo) error
	SaveBatch(ctx context.Context, runID string, batch domain.BatchResult) error
	LoadRun(ctx context.Context, runID string) (*domain.RunInfo, *domain.RunState, error)
	LatestRun(ctx context.Context, inputFile string) (string, error)
	FinishRun(ctx context.Context, runID string, status domain.RunStatus) error
	ListRuns(ctx context.Context, limit int) ([]domain.RunInfo, error)
}

// SummaryReporter publishes the final summary of a run
type SummaryReporter interface {
	ReportSummary(ctx context.Context, summary domain.Summary) error
}

// PoolObserver is told about every pressure check
type PoolObserver interface {
	ObservePoolCheck(checkpoint string, result string)
}

// BatchObserver is told about every flushed batch
type BatchObserver interface {
	ObserveBatch(batch domain.BatchResult)
}

// AllocationSink receives the full allocation report once a check finishes
type AllocationSink interface {
	WriteAllocations(rows []domain.AllocationRow) error
}
