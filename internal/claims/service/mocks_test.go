package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"claimbuddy/internal/claims/domain"
	"claimbuddy/internal/claims/ports"
	"claimbuddy/internal/errors"

	"github.com/shopspring/decimal"
)

// MockRemoteClient is a mock implementation of ports.RemoteClient that counts calls
type MockRemoteClient struct {
	CheckEligibilityFunc  func(ctx context.Context, accountID string, chain domain.Chain) (*decimal.Decimal, error)
	CheckClaimHistoryFunc func(ctx context.Context, accountID string, chain domain.Chain) ([]json.RawMessage, error)
	SubmitClaimFunc       func(ctx context.Context, accountID string, chain domain.Chain, destination string) (json.RawMessage, error)
	GetPoolMetricsFunc    func(ctx context.Context) (*domain.PoolMetrics, error)
	ClearPoolFunc         func(ctx context.Context) (string, error)
	HealthFunc            func(ctx context.Context) error

	mu    sync.Mutex
	Calls []string
}

var _ ports.RemoteClient = (*MockRemoteClient)(nil)

func (m *MockRemoteClient) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

// CallsTo returns the recorded calls that start with prefix
func (m *MockRemoteClient) CallsTo(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.Calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			out = append(out, c)
		}
	}
	return out
}

func (m *MockRemoteClient) CheckEligibility(ctx context.Context, accountID string, chain domain.Chain) (*decimal.Decimal, error) {
	m.record("eligibility:" + accountID + "/" + string(chain))
	if m.CheckEligibilityFunc != nil {
		return m.CheckEligibilityFunc(ctx, accountID, chain)
	}
	return nil, errors.Malformed("check_eligibility", nil)
}

func (m *MockRemoteClient) CheckClaimHistory(ctx context.Context, accountID string, chain domain.Chain) ([]json.RawMessage, error) {
	m.record("history:" + accountID + "/" + string(chain))
	if m.CheckClaimHistoryFunc != nil {
		return m.CheckClaimHistoryFunc(ctx, accountID, chain)
	}
	return []json.RawMessage{}, nil
}

func (m *MockRemoteClient) SubmitClaim(ctx context.Context, accountID string, chain domain.Chain, destination string) (json.RawMessage, error) {
	m.record("submit:" + accountID + "/" + string(chain))
	if m.SubmitClaimFunc != nil {
		return m.SubmitClaimFunc(ctx, accountID, chain, destination)
	}
	return json.RawMessage(`{"status":"ok"}`), nil
}

func (m *MockRemoteClient) GetPoolMetrics(ctx context.Context) (*domain.PoolMetrics, error) {
	m.record("metrics")
	if m.GetPoolMetricsFunc != nil {
		return m.GetPoolMetricsFunc(ctx)
	}
	return nil, errors.Transport("get_pool_metrics", context.DeadlineExceeded)
}

func (m *MockRemoteClient) ClearPool(ctx context.Context) (string, error) {
	m.record("clear")
	if m.ClearPoolFunc != nil {
		return m.ClearPoolFunc(ctx)
	}
	return "Success", nil
}

func (m *MockRemoteClient) Health(ctx context.Context) error {
	m.record("health")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// MockSink keeps every WriteAll call
type MockSink struct {
	WriteAllFunc func(rows []domain.ResultRow) error
	Writes       [][]domain.ResultRow
}

func (m *MockSink) WriteAll(rows []domain.ResultRow) error {
	if m.WriteAllFunc != nil {
		if err := m.WriteAllFunc(rows); err != nil {
			return err
		}
	}
	m.Writes = append(m.Writes, append([]domain.ResultRow(nil), rows...))
	return nil
}

// Last returns the most recent full write
func (m *MockSink) Last() []domain.ResultRow {
	if len(m.Writes) == 0 {
		return nil
	}
	return m.Writes[len(m.Writes)-1]
}

// MockAllocationSink keeps the allocation report
type MockAllocationSink struct {
	Rows  []domain.AllocationRow
	Calls int
	Err   error
}

func (m *MockAllocationSink) WriteAllocations(rows []domain.AllocationRow) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	m.Rows = rows
	return nil
}

// MockCheckpointStore records saved batches
type MockCheckpointStore struct {
	SaveBatchFunc func(ctx context.Context, runID string, batch domain.BatchResult) error
	Saved         []domain.BatchResult
}

func (m *MockCheckpointStore) StartRun(ctx context.Context, run domain.RunInfo) error { return nil }

func (m *MockCheckpointStore) SaveBatch(ctx context.Context, runID string, batch domain.BatchResult) error {
	if m.SaveBatchFunc != nil {
		if err := m.SaveBatchFunc(ctx, runID, batch); err != nil {
			return err
		}
	}
	m.Saved = append(m.Saved, batch)
	return nil
}

func (m *MockCheckpointStore) LoadRun(ctx context.Context, runID string) (*domain.RunInfo, *domain.RunState, error) {
	return nil, nil, nil
}

func (m *MockCheckpointStore) LatestRun(ctx context.Context, inputFile string) (string, error) {
	return "", nil
}

func (m *MockCheckpointStore) FinishRun(ctx context.Context, runID string, status domain.RunStatus) error {
	return nil
}

func (m *MockCheckpointStore) ListRuns(ctx context.Context, limit int) ([]domain.RunInfo, error) {
	return nil, nil
}

// recordingSleeper never sleeps; it records the requested pauses
type recordingSleeper struct {
	pauses []time.Duration
	onCall func(n int)
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.pauses = append(s.pauses, d)
	if s.onCall != nil {
		s.onCall(len(s.pauses))
	}
	return ctx.Err()
}

type poolCheck struct {
	checkpoint string
	result     string
}

type recordingPoolObserver struct {
	checks []poolCheck
}

func (o *recordingPoolObserver) ObservePoolCheck(checkpoint, result string) {
	o.checks = append(o.checks, poolCheck{checkpoint, result})
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func record(id string, chain domain.Chain) domain.Record {
	return domain.Record{AccountID: id, AccountName: "acct-" + id, Chain: chain, OriginalClaimableAmount: "1"}
}

func poolAt(total int) func(context.Context) (*domain.PoolMetrics, error) {
	return func(context.Context) (*domain.PoolMetrics, error) {
		return &domain.PoolMetrics{TotalInstances: total, Raw: map[string]any{"totalInstances": float64(total)}}, nil
	}
}
