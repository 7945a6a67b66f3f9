package domain

// Key identifies a record across the three phase maps of a batch.
// An account can hold balances on several chains, so the chain is part of the key.
func (r Record) Key() string {
	return r.AccountID + "/" + string(r.Chain)
}

// Batch is a contiguous slice of the input, numbered from 1
type Batch struct {
	Number  int
	Start   int
	Records []Record
}

// End is the input index of the last record in the batch
func (b Batch) End() int {
	return b.Start + len(b.Records) - 1
}

// BatchState holds the phase results of one batch, keyed by Record.Key
type BatchState struct {
	Batch       Batch
	Eligibility map[string]EligibilityResult
	History     map[string]ClaimsHistory
	Outcomes    map[string]ClaimOutcome
}

// NewBatchState starts an empty state for the batch
func NewBatchState(b Batch) *BatchState {
	return &BatchState{
		Batch:       b,
		Eligibility: make(map[string]EligibilityResult, len(b.Records)),
		History:     make(map[string]ClaimsHistory),
		Outcomes:    make(map[string]ClaimOutcome, len(b.Records)),
	}
}

// ValidRecords returns the records that carry an account id and chain, in input order
func (s *BatchState) ValidRecords() []Record {
	out := make([]Record, 0, len(s.Batch.Records))
	for _, r := range s.Batch.Records {
		if r.IsValid() {
			out = append(out, r)
		}
	}
	return out
}

// EligibleCount is the number of distinct records phase 1 marked Eligible
func (s *BatchState) EligibleCount() int {
	n := 0
	for _, e := range s.Eligibility {
		if e.IsEligible() {
			n++
		}
	}
	return n
}

// Rows assembles the batch output in input order. Records phase 3 never reached are
// NotProcessed; invalid records are dropped unless emitInvalid is set.
func (s *BatchState) Rows(emitInvalid bool) []ResultRow {
	rows := make([]ResultRow, 0, len(s.Batch.Records))
	for _, r := range s.Batch.Records {
		if !r.IsValid() {
			if emitInvalid {
				rows = append(rows, ResultRow{
					Record:      r,
					Eligibility: EligibilityResult{Status: EligibilityInvalid},
					Outcome:     ClaimOutcome{Status: ClaimStatusInvalid},
				})
			}
			continue
		}
		elig, ok := s.Eligibility[r.Key()]
		if !ok {
			elig = EligibilityResult{Status: EligibilityUnclaimable}
		}
		outcome, ok := s.Outcomes[r.Key()]
		if !ok {
			outcome = ClaimOutcome{Status: ClaimStatusNotProcessed}
		}
		rows = append(rows, ResultRow{Record: r, Eligibility: elig, Outcome: outcome})
	}
	return rows
}
