package metrics

import (
	"time"

	"claimbuddy/internal/claims/domain"
	"claimbuddy/internal/errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "claimbuddy"

// ResultOK labels a remote call that succeeded
const ResultOK = "ok"

// Recorder collects run metrics into its own registry. A nil *Recorder records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	remoteCalls   *prometheus.CounterVec
	remoteLatency *prometheus.HistogramVec
	poolChecks    *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	batches       prometheus.Counter
	lastFlush     prometheus.Gauge
}

// NewRecorder registers every collector on a fresh registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "Calls to the claims service by operation and result (ok or error kind).",
		}, []string{"operation", "result"}),
		remoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_duration_seconds",
			Help:      "Latency of calls to the claims service.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation"}),
		poolChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_checks_total",
			Help:      "Pool pressure checks by checkpoint and decision.",
		}, []string{"checkpoint", "result"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claim_outcomes_total",
			Help:      "Flushed result rows by claim status.",
		}, []string{"status"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_flushed_total",
			Help:      "Batches written to the output file.",
		}),
		lastFlush: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_flush_timestamp_seconds",
			Help:      "Unix time of the last successful flush.",
		}),
	}
	r.registry.MustRegister(r.remoteCalls, r.remoteLatency, r.poolChecks, r.outcomes, r.batches, r.lastFlush)
	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveRemoteCall counts a call under its error kind, or ok
func (r *Recorder) ObserveRemoteCall(operation string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = string(errors.TypeOf(err))
		if result == "" {
			result = string(errors.ErrorTypeUnexpected)
		}
	}
	r.remoteCalls.WithLabelValues(operation, result).Inc()
	r.remoteLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObservePoolCheck counts a pressure check decision
func (r *Recorder) ObservePoolCheck(checkpoint string, result string) {
	if r == nil {
		return
	}
	r.poolChecks.WithLabelValues(checkpoint, result).Inc()
}

// ObserveBatch counts the rows of a flushed batch by outcome
func (r *Recorder) ObserveBatch(batch domain.BatchResult) {
	if r == nil {
		return
	}
	for _, row := range batch.Rows {
		r.outcomes.WithLabelValues(string(row.Outcome.Status)).Inc()
	}
	r.batches.Inc()
	r.lastFlush.SetToCurrentTime()
}

// WriteTextfile dumps the registry in the node_exporter textfile format
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Storage(err, "failed to write metrics textfile")
	}
	return nil
}
