package claimsapi

import (
	"strings"
	"time"

	"claimbuddy/internal/config"
)

// Operation names used in logs and metrics labels
const (
	OpCheckEligibility  = "check_eligibility"
	OpCheckClaimHistory = "check_claim_history"
	OpSubmitClaim       = "submit_claim"
	OpGetPoolMetrics    = "get_pool_metrics"
	OpClearPool         = "clear_pool"
	OpHealth            = "health"
)

// Timeouts bounds each operation independently
type Timeouts struct {
	Eligibility time.Duration
	History     time.Duration
	Submission  time.Duration
	Metrics     time.Duration
	ClearPool   time.Duration
	Health      time.Duration
}

// RetryPolicy applies to idempotent GETs only
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Config holds everything the client needs to reach the claims service
type Config struct {
	BaseURL  string
	Timeouts Timeouts
	Retry    RetryPolicy
}

// DefaultTimeouts are the reference per-operation limits
var DefaultTimeouts = Timeouts{
	Eligibility: 30 * time.Second,
	History:     30 * time.Second,
	Submission:  60 * time.Second,
	Metrics:     10 * time.Second,
	ClearPool:   10 * time.Second,
	Health:      5 * time.Second,
}

// ConfigFrom extracts the client settings from the application config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		BaseURL: strings.TrimRight(cfg.ServerURL, "/"),
		Timeouts: Timeouts{
			Eligibility: cfg.Timeouts.Eligibility,
			History:     cfg.Timeouts.History,
			Submission:  cfg.Timeouts.Submission,
			Metrics:     cfg.Timeouts.Metrics,
			ClearPool:   cfg.Timeouts.ClearPool,
			Health:      cfg.Timeouts.Health,
		},
		Retry: RetryPolicy{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
		},
	}
}
