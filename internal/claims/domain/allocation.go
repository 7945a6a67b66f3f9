package domain

import "github.com/shopspring/decimal"

// Allocation check results
const (
	AllocationSuccess       = "Success"
	AllocationUsingOriginal = "Failed/Using Original"
)

// AllocationRow is one record with the claimable value the service reported for it
type AllocationRow struct {
	Record Record
	// Value is nil when the lookup failed or returned nothing positive
	Value *decimal.Decimal
}

// AllocationHeader is the column order of the allocation output file
var AllocationHeader = []string{
	"Account Id",
	"Account Name",
	"Asset Id",
	"Claimable Amount",
	"Original Claimable Amount",
	"Allocation Check Result",
}

// NewAllocationRow keeps value only when it is strictly positive
func NewAllocationRow(record Record, value *decimal.Decimal) AllocationRow {
	if value == nil || !value.IsPositive() {
		return AllocationRow{Record: record}
	}
	v := *value
	return AllocationRow{Record: record, Value: &v}
}

// OK reports whether the service returned a usable allocation
func (a AllocationRow) OK() bool {
	return a.Value != nil
}

// Columns renders the row in AllocationHeader order
func (a AllocationRow) Columns() []string {
	amount, result := a.Record.OriginalClaimableAmount, AllocationUsingOriginal
	if a.OK() {
		amount, result = a.Value.String(), AllocationSuccess
	}
	return []string{
		a.Record.AccountID,
		a.Record.AccountName,
		string(a.Record.Chain),
		amount,
		a.Record.OriginalClaimableAmount,
		result,
	}
}

// AllocationSummary counts the outcome of an allocation check
type AllocationSummary struct {
	Total    int `json:"total"`
	Success  int `json:"success"`
	Fallback int `json:"fallback"`
	Skipped  int `json:"skipped"`
}
