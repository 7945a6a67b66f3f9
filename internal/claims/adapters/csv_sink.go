package adapters

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"claimbuddy/internal/claims/domain"
	"claimbuddy/internal/claims/ports"
	"claimbuddy/internal/errors"
)

// CSVSink rewrites the whole claims output file on every flush
type CSVSink struct {
	path string
}

var _ ports.RecordSink = (*CSVSink)(nil)

// NewCSVSink creates a sink writing to path
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// WriteAll replaces the file with the header and rows. The new content is written to a
// temporary file first, so a failed flush leaves the previous content in place.
func (s *CSVSink) WriteAll(rows []domain.ResultRow) error {
	lines := make([][]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, row.Columns())
	}
	return writeCSVAtomic(s.path, domain.SinkHeader, lines)
}

// CSVAllocationSink writes the allocation check report
type CSVAllocationSink struct {
	path string
}

var _ ports.AllocationSink = (*CSVAllocationSink)(nil)

// NewCSVAllocationSink creates an allocation sink writing to path
func NewCSVAllocationSink(path string) *CSVAllocationSink {
	return &CSVAllocationSink{path: path}
}

// WriteAllocations replaces the file with the header and rows
func (s *CSVAllocationSink) WriteAllocations(rows []domain.AllocationRow) error {
	lines := make([][]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, row.Columns())
	}
	return writeCSVAtomic(s.path, domain.AllocationHeader, lines)
}

func writeCSVAtomic(path string, header []string, lines [][]string) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Storage(err, "cannot create temporary output file").WithContext("path", path)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(header); err != nil {
		return errors.Storage(err, "cannot write output header").WithContext("path", path)
	}
	if err = w.WriteAll(lines); err != nil {
		return errors.Storage(err, "cannot write output rows").WithContext("path", path)
	}
	if err = tmp.Sync(); err != nil {
		return errors.Storage(err, "cannot sync output file").WithContext("path", path)
	}
	if err = tmp.Close(); err != nil {
		return errors.Storage(err, "cannot close output file").WithContext("path", path)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Storage(err, "cannot set output file mode").WithContext("path", path)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Storage(err, "cannot replace output file").WithContext("path", path)
	}
	return nil
}
