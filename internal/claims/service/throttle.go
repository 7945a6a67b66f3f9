package service

import (
	"context"
	"time"

	"claimbuddy/internal/claims/ports"
)

// Sleeper pauses for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper. It returns ctx.Err() if the context ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FixedDelay waits the same amount after every call
type FixedDelay struct {
	Delay time.Duration
	Sleep Sleeper
}

var _ ports.Throttle = FixedDelay{}

// Wait implements ports.Throttle
func (f FixedDelay) Wait(ctx context.Context) error {
	if f.Sleep != nil {
		return f.Sleep(ctx, f.Delay)
	}
	return Sleep(ctx, f.Delay)
}

// NoDelay never waits; it only reports cancellation
type NoDelay struct{}

// Wait implements ports.Throttle
func (NoDelay) Wait(ctx context.Context) error {
	return ctx.Err()
}

// PhaseThrottles holds the per-phase pause between remote calls
type PhaseThrottles struct {
	Eligibility ports.Throttle
	History     ports.Throttle
	Submission  ports.Throttle
}

// FixedPhaseThrottles builds FixedDelay throttles for the three phases
func FixedPhaseThrottles(eligibility, history, submission time.Duration) PhaseThrottles {
	return PhaseThrottles{
		Eligibility: FixedDelay{Delay: eligibility},
		History:     FixedDelay{Delay: history},
		Submission:  FixedDelay{Delay: submission},
	}
}

func (p PhaseThrottles) withDefaults() PhaseThrottles {
	if p.Eligibility == nil {
		p.Eligibility = NoDelay{}
	}
	if p.History == nil {
		p.History = NoDelay{}
	}
	if p.Submission == nil {
		p.Submission = NoDelay{}
	}
	return p
}
