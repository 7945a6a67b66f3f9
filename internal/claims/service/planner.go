package service

import (
	"fmt"

	"claimbuddy/internal/claims/domain"
	"claimbuddy/internal/errors"
)

// PlanBatches splits records into contiguous batches of batchSize, numbered from 1.
// The last batch may be shorter. Batches share the backing array of records.
func PlanBatches(records []domain.Record, batchSize int) ([]domain.Batch, error) {
	if batchSize <= 0 {
		return nil, errors.Configuration(fmt.Sprintf("batch size must be positive, got %d", batchSize))
	}

	batches := make([]domain.Batch, 0, (len(records)+batchSize-1)/batchSize)
	for start, number := 0, 1; start < len(records); start, number = start+batchSize, number+1 {
		end := min(start+batchSize, len(records))
		batches = append(batches, domain.Batch{
			Number:  number,
			Start:   start,
			Records: records[start:end:end],
		})
	}
	return batches, nil
}

// SelectRecords applies the maxRows cap (0 means all) and then drops the first offset
// records, which an earlier run already flushed.
func SelectRecords(records []domain.Record, maxRows, offset int) ([]domain.Record, error) {
	if maxRows > 0 && len(records) > maxRows {
		records = records[:maxRows]
	}
	if offset < 0 || offset > len(records) {
		return nil, errors.Configuration(fmt.Sprintf(
			"resume offset %d is outside the input (%d records)", offset, len(records)))
	}
	return records[offset:], nil
}
