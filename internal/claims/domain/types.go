package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Chain is the blockchain a record's balance lives on
type Chain string

const (
	ChainAvalanche Chain = "avalanche"
	ChainBitcoin   Chain = "bitcoin"
	ChainBNB       Chain = "bnb"
	ChainCardano   Chain = "cardano"
	ChainEthereum  Chain = "ethereum"
	ChainSolana    Chain = "solana"
	ChainXRP       Chain = "xrp"
)

// SupportedChains lists every chain the claims service accepts
var SupportedChains = []Chain{
	ChainAvalanche, ChainBitcoin, ChainBNB, ChainCardano, ChainEthereum, ChainSolana, ChainXRP,
}

// IsSupported reports whether the claims service knows this chain
func (c Chain) IsSupported() bool {
	for _, s := range SupportedChains {
		if c == s {
			return true
		}
	}
	return false
}

// Record is one input row. It is never modified after it is read.
type Record struct {
	AccountID               string
	AccountName             string
	Chain                   Chain
	OriginalClaimableAmount string
}

// IsValid reports whether the record carries the fields every remote call needs
func (r Record) IsValid() bool {
	return strings.TrimSpace(r.AccountID) != "" && strings.TrimSpace(string(r.Chain)) != ""
}

// EligibilityStatus is the phase 1 verdict
type EligibilityStatus string

const (
	EligibilityEligible    EligibilityStatus = "Eligible"
	EligibilityUnclaimable EligibilityStatus = "Unclaimable"
	// EligibilityInvalid marks a row that never reached phase 1
	EligibilityInvalid EligibilityStatus = "Invalid"
)

// EligibilityResult is produced by phase 1. ClaimableAmount is set iff Status is Eligible.
type EligibilityResult struct {
	Status          EligibilityStatus
	ClaimableAmount decimal.NullDecimal
}

// NewEligibility maps a remote value onto a result: only a present, strictly positive value is Eligible
func NewEligibility(value *decimal.Decimal) EligibilityResult {
	if value == nil || !value.IsPositive() {
		return EligibilityResult{Status: EligibilityUnclaimable}
	}
	return EligibilityResult{
		Status:          EligibilityEligible,
		ClaimableAmount: decimal.NewNullDecimal(*value),
	}
}

// IsEligible is shorthand for Status == EligibilityEligible
func (e EligibilityResult) IsEligible() bool {
	return e.Status == EligibilityEligible
}

// ClaimsHistory is produced by phase 2 for eligible records.
// Known=false means the lookup failed and must never be read as "no claims".
type ClaimsHistory struct {
	Known   bool
	Entries []json.RawMessage
}

// UnknownHistory is the result of a failed history lookup
func UnknownHistory() ClaimsHistory {
	return ClaimsHistory{}
}

// KnownHistory wraps a successful lookup; nil entries are normalised to an empty list
func KnownHistory(entries []json.RawMessage) ClaimsHistory {
	if entries == nil {
		entries = []json.RawMessage{}
	}
	return ClaimsHistory{Known: true, Entries: entries}
}

// IsEmpty is true only for a successful lookup that found no prior claims
func (h ClaimsHistory) IsEmpty() bool {
	return h.Known && len(h.Entries) == 0
}

// ClaimStatus is the phase 3 verdict
type ClaimStatus string

const (
	ClaimStatusSkipped             ClaimStatus = "Skipped"
	ClaimStatusErrorCheckingClaims ClaimStatus = "Error Checking Claims"
	ClaimStatusAlreadyClaimed      ClaimStatus = "Already Claimed"
	ClaimStatusClaimedSuccessfully ClaimStatus = "Claimed Successfully"
	ClaimStatusClaimFailed         ClaimStatus = "Claim Failed"
	ClaimStatusNotProcessed        ClaimStatus = "Not Processed"
	ClaimStatusInvalid             ClaimStatus = "Invalid"
)

// ClaimOutcome is the final state of a record. Payload is set only for ClaimedSuccessfully.
type ClaimOutcome struct {
	Status  ClaimStatus
	Payload json.RawMessage
}

// Sink column values for the Claim Result column
const (
	ClaimResultNotApplicable = "N/A"
	ClaimResultFailed        = "Failed to process claim"
)

// ResultRow is the externally visible outcome of one record
type ResultRow struct {
	Record      Record
	Eligibility EligibilityResult
	Outcome     ClaimOutcome
}

// SinkHeader is the column order of the claims output file
var SinkHeader = []string{
	"Account Id",
	"Account Name",
	"Asset Id",
	"Claimable Amount",
	"Eligibility Status",
	"Claim Status",
	"Claim Result",
}

// ClaimableAmount is the remote value for eligible rows, otherwise the amount read from input
func (r ResultRow) ClaimableAmount() string {
	if r.Eligibility.IsEligible() && r.Eligibility.ClaimableAmount.Valid {
		return r.Eligibility.ClaimableAmount.Decimal.String()
	}
	return r.Record.OriginalClaimableAmount
}

// ClaimResult renders the Claim Result column
func (r ResultRow) ClaimResult() string {
	switch r.Outcome.Status {
	case ClaimStatusClaimedSuccessfully:
		return compactJSON(r.Outcome.Payload)
	case ClaimStatusClaimFailed:
		return ClaimResultFailed
	default:
		return ClaimResultNotApplicable
	}
}

// Columns renders the row in SinkHeader order
func (r ResultRow) Columns() []string {
	return []string{
		r.Record.AccountID,
		r.Record.AccountName,
		string(r.Record.Chain),
		r.ClaimableAmount(),
		string(r.Eligibility.Status),
		string(r.Outcome.Status),
		r.ClaimResult(),
	}
}

func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ClaimResultNotApplicable
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
