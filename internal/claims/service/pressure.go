package service

import (
	"context"
	"math"

	"claimbuddy/internal/claims/ports"
	"claimbuddy/internal/logging"
)

// Pool check results reported to the PoolObserver
const (
	PoolResultUnavailable = "unavailable"
	PoolResultOK          = "ok"
	PoolResultCleared     = "cleared"
	PoolResultClearFailed = "clear_failed"
)

// PressureMonitor clears the claims service's pool when it is close to full.
// It never blocks beyond one metrics call and one clear call, and never retries.
type PressureMonitor struct {
	client   ports.RemoteClient
	logger   *logging.Logger
	observer ports.PoolObserver
}

// NewPressureMonitor creates a monitor; observer may be nil
func NewPressureMonitor(client ports.RemoteClient, logger *logging.Logger, observer ports.PoolObserver) *PressureMonitor {
	if logger == nil {
		logger = logging.NewDefaultLogger("pool")
	}
	return &PressureMonitor{client: client, logger: logger, observer: observer}
}

// Threshold is floor(poolMaxSize * thresholdPercent / 100)
func Threshold(poolMaxSize int, thresholdPercent float64) int {
	return int(math.Floor(float64(poolMaxSize) * thresholdPercent / 100.0))
}

// MaybeRelieve clears the pool when totalInstances has reached the threshold.
// It returns true only if a clear was performed successfully.
func (m *PressureMonitor) MaybeRelieve(ctx context.Context, poolMaxSize int, thresholdPercent float64) bool {
	return m.Check(ctx, "adhoc", poolMaxSize, thresholdPercent)
}

// Check is MaybeRelieve with a checkpoint name for logs and metrics
func (m *PressureMonitor) Check(ctx context.Context, checkpoint string, poolMaxSize int, thresholdPercent float64) bool {
	metrics, err := m.client.GetPoolMetrics(ctx)
	if err != nil || metrics == nil {
		m.logger.Debug("[%s] pool metrics unavailable, skipping check", checkpoint)
		m.report(checkpoint, PoolResultUnavailable)
		return false
	}

	threshold := Threshold(poolMaxSize, thresholdPercent)
	if metrics.TotalInstances < threshold {
		m.logger.Info("[%s] pool usage OK: %d/%d instances", checkpoint, metrics.TotalInstances, poolMaxSize)
		m.report(checkpoint, PoolResultOK)
		return false
	}

	m.logger.Warn("[%s] pool usage high: %d/%d instances (%.0f%% threshold)",
		checkpoint, metrics.TotalInstances, poolMaxSize, thresholdPercent)
	message, err := m.client.ClearPool(ctx)
	if err != nil {
		m.logger.Warn("[%s] failed to clear pool: %v", checkpoint, err)
		m.report(checkpoint, PoolResultClearFailed)
		return false
	}
	m.logger.Info("[%s] pool cleared: %s", checkpoint, message)
	m.report(checkpoint, PoolResultCleared)
	return true
}

func (m *PressureMonitor) report(checkpoint, result string) {
	if m.observer != nil {
		m.observer.ObservePoolCheck(checkpoint, result)
	}
}
