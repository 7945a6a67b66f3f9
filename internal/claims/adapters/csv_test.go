package adapters

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"claimbuddy/internal/claims/domain"
	"claimbuddy/internal/errors"
	"claimbuddy/internal/logging"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCSVSourceReadRecords(t *testing.T) {
	path := writeInput(t, "\ufeffAccount Id,Account Name,Asset Id,Claimable Amount,Extra\n"+
		" 1001 , Alice ,cardano,125.5,x\n"+
		"1002,\"Bob, Jr.\",ethereum,,y\n"+
		",Nobody,solana,1\n"+
		"1004,Dan,dogecoin,3\n")

	records, err := NewCSVSource(path, logging.Discard()).ReadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, domain.Record{AccountID: "1001", AccountName: "Alice", Chain: domain.ChainCardano, OriginalClaimableAmount: "125.5"}, records[0])
	assert.Equal(t, "Bob, Jr.", records[1].AccountName)
	assert.Equal(t, "0", records[1].OriginalClaimableAmount, "missing amount defaults to 0")
	assert.False(t, records[2].IsValid())
	assert.Equal(t, domain.Chain("dogecoin"), records[3].Chain)
}

func TestCSVSourceColumnOrderDoesNotMatter(t *testing.T) {
	path := writeInput(t, "Asset Id,Claimable Amount,Account Id\nxrp,9,77\n")

	records, err := NewCSVSource(path, logging.Discard()).ReadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "77", records[0].AccountID)
	assert.Equal(t, "", records[0].AccountName)
	assert.Equal(t, domain.ChainXRP, records[0].Chain)
}

func TestCSVSourceErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewCSVSource(filepath.Join(t.TempDir(), "absent.csv"), logging.Discard()).ReadRecords(context.Background())
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
	})

	t.Run("missing column", func(t *testing.T) {
		path := writeInput(t, "Account Id,Account Name\n1,a\n")
		_, err := NewCSVSource(path, logging.Discard()).ReadRecords(context.Background())
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
		assert.Contains(t, err.Error(), ColumnAssetID)
	})

	t.Run("empty file", func(t *testing.T) {
		records, err := NewCSVSource(writeInput(t, ""), logging.Discard()).ReadRecords(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func sampleRows() []domain.ResultRow {
	eligible := func(v string) domain.EligibilityResult { return domain.NewEligibility(amount(v)) }
	rec := func(id, name string, chain domain.Chain, original string) domain.Record {
		return domain.Record{AccountID: id, AccountName: name, Chain: chain, OriginalClaimableAmount: original}
	}
	return []domain.ResultRow{
		{
			Record:      rec("1001", "Alice", domain.ChainCardano, "100"),
			Eligibility: eligible("125.5"),
			Outcome: domain.ClaimOutcome{
				Status:  domain.ClaimStatusClaimedSuccessfully,
				Payload: json.RawMessage("{\n  \"claimId\": \"c-1\",\n  \"status\": \"queued\"\n}"),
			},
		},
		{Record: rec("1002", "Bob, Jr.", domain.ChainEthereum, "3.2"), Eligibility: eligible("3.2"), Outcome: domain.ClaimOutcome{Status: domain.ClaimStatusAlreadyClaimed}},
		{Record: rec("1003", "Carol", domain.ChainXRP, "0"), Eligibility: domain.NewEligibility(nil), Outcome: domain.ClaimOutcome{Status: domain.ClaimStatusSkipped}},
		{Record: rec("1004", "Dan", domain.ChainSolana, "7"), Eligibility: eligible("7"), Outcome: domain.ClaimOutcome{Status: domain.ClaimStatusClaimFailed}},
		{Record: rec("1005", "Eve", domain.ChainBitcoin, "1.5"), Eligibility: eligible("2"), Outcome: domain.ClaimOutcome{Status: domain.ClaimStatusErrorCheckingClaims}},
		{Record: rec("1006", "Frank", domain.ChainBNB, "4"), Eligibility: eligible("4"), Outcome: domain.ClaimOutcome{Status: domain.ClaimStatusNotProcessed}},
	}
}

func TestCSVSinkGolden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts_with_claims.csv")
	require.NoError(t, NewCSVSink(path).WriteAll(sampleRows()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "claims_output", data)
}

func TestCSVSinkRewritesWholeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	sink := NewCSVSink(path)
	rows := sampleRows()

	require.NoError(t, sink.WriteAll(rows))
	require.NoError(t, sink.WriteAll(rows[:2]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\n"), "header plus two rows")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestCSVSinkRewriteIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	sink := NewCSVSink(path)

	require.NoError(t, sink.WriteAll(sampleRows()))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, sink.WriteAll(sampleRows()))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCSVSinkFailureIsStorageError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "out.csv")
	err := NewCSVSink(path).WriteAll(sampleRows())
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))
}

func TestCSVAllocationSinkGolden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allocations.csv")
	rows := []domain.AllocationRow{
		domain.NewAllocationRow(domain.Record{AccountID: "1001", AccountName: "Alice", Chain: domain.ChainCardano, OriginalClaimableAmount: "125.5"}, amount("130.25")),
		domain.NewAllocationRow(domain.Record{AccountID: "1002", AccountName: "Bob, Jr.", Chain: domain.ChainEthereum, OriginalClaimableAmount: "3.2"}, amount("0")),
	}
	require.NoError(t, NewCSVAllocationSink(path).WriteAllocations(rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "allocation_output", data)
}
