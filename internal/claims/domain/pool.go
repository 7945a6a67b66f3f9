package domain

import "time"

// PoolMetrics is the claims service's report on its SDK instance pool
type PoolMetrics struct {
	TotalInstances int
	// Raw keeps every field of the response, including ones this tool does not interpret
	Raw map[string]any
}

// Utilisation is TotalInstances as a percentage of maxSize
func (m PoolMetrics) Utilisation(maxSize int) float64 {
	if maxSize <= 0 {
		return 0
	}
	return float64(m.TotalInstances) * 100 / float64(maxSize)
}

// RunStatus tracks a run in the checkpoint store
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// RunInfo describes one recorded run
type RunInfo struct {
	ID                 string
	InputFile          string
	OutputFile         string
	DestinationAddress string
	BatchSize          int
	Status             RunStatus
	StartedAt          time.Time
	UpdatedAt          time.Time
	Batches            int
	Consumed           int
	Counters           Counters
}
