package adapters

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"claimbuddy/internal/claims/domain"
	"claimbuddy/internal/claims/ports"
	"claimbuddy/internal/errors"
	"claimbuddy/internal/logging"
)

// Input column names
const (
	ColumnAccountID       = "Account Id"
	ColumnAccountName     = "Account Name"
	ColumnAssetID         = "Asset Id"
	ColumnClaimableAmount = "Claimable Amount"
)

// CSVSource reads records from a CSV file with a header row
type CSVSource struct {
	path   string
	logger *logging.Logger
}

var _ ports.RecordSource = (*CSVSource)(nil)

// NewCSVSource creates a source for path
func NewCSVSource(path string, logger *logging.Logger) *CSVSource {
	if logger == nil {
		logger = logging.NewDefaultLogger("csv")
	}
	return &CSVSource{path: path, logger: logger}
}

// ReadRecords loads every row in file order. An unreadable file or a header without
// the account and asset columns is a configuration error; blank fields are kept and
// left for the pipeline to treat as invalid.
func (s *CSVSource) ReadRecords(ctx context.Context) ([]domain.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfiguration, "cannot open input file "+s.path)
	}
	defer f.Close()

	records, err := s.read(ctx, f)
	if err != nil {
		return nil, err
	}
	s.logger.Info("loaded %d records from %s", len(records), s.path)
	return records, nil
}

func (s *CSVSource) read(ctx context.Context, r io.Reader) ([]domain.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []domain.Record{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfiguration, "cannot read input header")
	}
	index := headerIndex(header)
	for _, required := range []string{ColumnAccountID, ColumnAssetID} {
		if _, ok := index[required]; !ok {
			return nil, errors.Configuration(fmt.Sprintf("input file is missing the %q column", required))
		}
	}

	var records []domain.Record
	unsupported := make(map[domain.Chain]int)
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfiguration, fmt.Sprintf("malformed input at line %d", line))
		}

		record := domain.Record{
			AccountID:               field(row, index, ColumnAccountID),
			AccountName:             field(row, index, ColumnAccountName),
			Chain:                   domain.Chain(field(row, index, ColumnAssetID)),
			OriginalClaimableAmount: field(row, index, ColumnClaimableAmount),
		}
		if record.OriginalClaimableAmount == "" {
			record.OriginalClaimableAmount = "0"
		}
		if record.Chain != "" && !record.Chain.IsSupported() {
			unsupported[record.Chain]++
		}
		records = append(records, record)
	}

	for chain, n := range unsupported {
		s.logger.Warn("%d rows use unsupported chain %q; the claims service may reject them", n, chain)
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	return index
}

func field(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
