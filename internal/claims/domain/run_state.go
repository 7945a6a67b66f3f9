package domain

import "time"

// Counters are the running totals reported in a run summary
type Counters struct {
	Processed           int `json:"processed"`
	Eligible            int `json:"eligible"`
	AlreadyClaimed      int `json:"already_claimed"`
	Claimed             int `json:"claimed"`
	Unclaimable         int `json:"unclaimable"`
	ErrorCheckingClaims int `json:"error_checking_claims"`
	ClaimFailed         int `json:"claim_failed"`
	NotProcessed        int `json:"not_processed"`
	Invalid             int `json:"invalid"`
}

// CountRows tallies a set of result rows. Invalid rows are not counted as processed.
func CountRows(rows []ResultRow) Counters {
	var c Counters
	for _, row := range rows {
		if row.Outcome.Status == ClaimStatusInvalid {
			c.Invalid++
			continue
		}
		c.Processed++
		if row.Eligibility.IsEligible() {
			c.Eligible++
		} else {
			c.Unclaimable++
		}
		switch row.Outcome.Status {
		case ClaimStatusAlreadyClaimed:
			c.AlreadyClaimed++
		case ClaimStatusClaimedSuccessfully:
			c.Claimed++
		case ClaimStatusErrorCheckingClaims:
			c.ErrorCheckingClaims++
		case ClaimStatusClaimFailed:
			c.ClaimFailed++
		case ClaimStatusNotProcessed:
			c.NotProcessed++
		}
	}
	return c
}

// Add returns the field-wise sum
func (c Counters) Add(o Counters) Counters {
	return Counters{
		Processed:           c.Processed + o.Processed,
		Eligible:            c.Eligible + o.Eligible,
		AlreadyClaimed:      c.AlreadyClaimed + o.AlreadyClaimed,
		Claimed:             c.Claimed + o.Claimed,
		Unclaimable:         c.Unclaimable + o.Unclaimable,
		ErrorCheckingClaims: c.ErrorCheckingClaims + o.ErrorCheckingClaims,
		ClaimFailed:         c.ClaimFailed + o.ClaimFailed,
		NotProcessed:        c.NotProcessed + o.NotProcessed,
		Invalid:             c.Invalid + o.Invalid,
	}
}

// BatchResult is what one completed batch contributes to the run
type BatchResult struct {
	Number int
	// Consumed counts every input record of the batch, including dropped invalid rows
	Consumed int
	Rows     []ResultRow
	Counters Counters
}

// NewBatchResult builds a BatchResult with counters derived from the rows
func NewBatchResult(number, consumed int, rows []ResultRow) BatchResult {
	return BatchResult{Number: number, Consumed: consumed, Rows: rows, Counters: CountRows(rows)}
}

// RunState accumulates every flushed batch of a run
type RunState struct {
	RunID    string
	Rows     []ResultRow
	Consumed int
	Batches  int
	Counters Counters
}

// Apply folds a completed batch into the state. The receiver is left untouched.
func (s RunState) Apply(b BatchResult) RunState {
	rows := make([]ResultRow, 0, len(s.Rows)+len(b.Rows))
	rows = append(rows, s.Rows...)
	rows = append(rows, b.Rows...)
	return RunState{
		RunID:    s.RunID,
		Rows:     rows,
		Consumed: s.Consumed + b.Consumed,
		Batches:  s.Batches + 1,
		Counters: s.Counters.Add(b.Counters),
	}
}

// Summary is reported when a run stops, whether it completed or was cancelled
type Summary struct {
	RunID      string        `json:"run_id"`
	Completed  bool          `json:"completed"`
	DryRun     bool          `json:"dry_run"`
	Batches    int           `json:"batches"`
	BatchSize  int           `json:"batch_size"`
	Consumed   int           `json:"consumed"`
	Total      int           `json:"total"`
	Counters   Counters      `json:"counters"`
	OutputFile string        `json:"output_file"`
	Duration   time.Duration `json:"duration"`
}
