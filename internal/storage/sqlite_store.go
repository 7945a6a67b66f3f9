package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"claimbuddy/internal/claims/domain"
	"claimbuddy/internal/claims/ports"
	"claimbuddy/internal/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrRunNotFound is returned when a run id or a resumable run does not exist
var ErrRunNotFound = stderrors.New("run not found")

// fixed width so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps run progress so an interrupted claims run can resume
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ ports.CheckpointStore = (*SQLiteStore)(nil)

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}

// Open opens (creating if needed) the store at path and applies the schema
func Open(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.Configuration("checkpoint path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Storage(err, "failed to create checkpoint directory")
		}
	}

	dsn := cleanPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Storage(err, "failed to open checkpoint database")
	}
	// a single writer keeps pragmas applied to the one connection in use
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Storage(err, "failed to open checkpoint database")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Storage(err, "failed to initialize checkpoint schema")
	}

	return &SQLiteStore{db: db, path: cleanPath, now: time.Now}, nil
}

// Path is the database file location
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StartRun registers a new run
func (s *SQLiteStore) StartRun(ctx context.Context, run domain.RunInfo) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.Validation("run id is required")
	}
	now := s.now().UTC()
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	if run.Status == "" {
		run.Status = domain.RunStatusRunning
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, input_file, output_file, destination_address, batch_size, status, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputFile, run.OutputFile, run.DestinationAddress, run.BatchSize,
		string(run.Status), run.StartedAt.UTC().Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return errors.Storage(err, "failed to record run start").WithContext("run_id", run.ID)
	}
	return nil
}

// SaveBatch stores one flushed batch and its rows atomically. Saving the same batch twice fails.
func (s *SQLiteStore) SaveBatch(ctx context.Context, runID string, batch domain.BatchResult) (err error) {
	counters, err := json.Marshal(batch.Counters)
	if err != nil {
		return errors.Storage(err, "failed to encode batch counters")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage(err, "failed to begin checkpoint transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := s.now().UTC().Format(timeLayout)
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO batches (run_id, number, consumed, counters, saved_at) VALUES (?, ?, ?, ?, ?)`,
		runID, batch.Number, batch.Consumed, string(counters), now,
	); err != nil {
		return errors.Storage(err, fmt.Sprintf("failed to checkpoint batch %d", batch.Number)).WithContext("run_id", runID)
	}

	var next int
	if err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq) + 1, 0) FROM results WHERE run_id = ?`, runID,
	).Scan(&next); err != nil {
		return errors.Storage(err, "failed to read result sequence")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, seq, batch, account_id, account_name, chain, original_amount,
			eligibility_status, claimable_amount, claim_status, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Storage(err, "failed to prepare result insert")
	}
	defer stmt.Close()

	for i, row := range batch.Rows {
		var amount, payload sql.NullString
		if row.Eligibility.ClaimableAmount.Valid {
			amount = sql.NullString{String: row.Eligibility.ClaimableAmount.Decimal.String(), Valid: true}
		}
		if len(row.Outcome.Payload) > 0 {
			payload = sql.NullString{String: string(row.Outcome.Payload), Valid: true}
		}
		if _, err = stmt.ExecContext(ctx,
			runID, next+i, batch.Number,
			row.Record.AccountID, row.Record.AccountName, string(row.Record.Chain), row.Record.OriginalClaimableAmount,
			string(row.Eligibility.Status), amount, string(row.Outcome.Status), payload,
		); err != nil {
			return errors.Storage(err, "failed to store result row").WithContext("account_id", row.Record.AccountID)
		}
	}

	if _, err = tx.ExecContext(ctx, `UPDATE runs SET updated_at = ? WHERE id = ?`, now, runID); err != nil {
		return errors.Storage(err, "failed to update run")
	}
	if err = tx.Commit(); err != nil {
		return errors.Storage(err, "failed to commit checkpoint")
	}
	return nil
}

// LoadRun rebuilds a run's info and accumulated state from its saved batches
func (s *SQLiteStore) LoadRun(ctx context.Context, runID string) (*domain.RunInfo, *domain.RunState, error) {
	info, err := s.getRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, account_name, chain, original_amount, eligibility_status,
			claimable_amount, claim_status, payload
		FROM results WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, nil, errors.Storage(err, "failed to load results")
	}
	defer rows.Close()

	state := &domain.RunState{
		RunID:    info.ID,
		Rows:     []domain.ResultRow{},
		Consumed: info.Consumed,
		Batches:  info.Batches,
		Counters: info.Counters,
	}
	for rows.Next() {
		row, err := scanResult(rows)
		if err != nil {
			return nil, nil, err
		}
		state.Rows = append(state.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Storage(err, "failed to load results")
	}
	return info, state, nil
}

// LatestRun returns the most recently started run for inputFile that did not complete
func (s *SQLiteStore) LatestRun(ctx context.Context, inputFile string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM runs
		WHERE input_file = ? AND status != ?
		ORDER BY started_at DESC LIMIT 1`,
		inputFile, string(domain.RunStatusCompleted),
	).Scan(&id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", errors.Wrap(ErrRunNotFound, errors.ErrorTypeConfiguration,
			fmt.Sprintf("no resumable run for %s", inputFile))
	}
	if err != nil {
		return "", errors.Storage(err, "failed to look up latest run")
	}
	return id, nil
}

// FinishRun records the final status of a run
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status domain.RunStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), s.now().UTC().Format(timeLayout), runID)
	if err != nil {
		return errors.Storage(err, "failed to update run status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrap(ErrRunNotFound, errors.ErrorTypeConfiguration, "unknown run "+runID)
	}
	return nil
}

// ListRuns returns the most recent runs first; limit <= 0 means all
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]domain.RunInfo, error) {
	query := `SELECT id FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Storage(err, "failed to list runs")
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, errors.Storage(err, "failed to list runs")
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Storage(err, "failed to list runs")
	}

	runs := make([]domain.RunInfo, 0, len(ids))
	for _, id := range ids {
		info, err := s.getRun(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *info)
	}
	return runs, nil
}

func (s *SQLiteStore) getRun(ctx context.Context, runID string) (*domain.RunInfo, error) {
	var (
		info             domain.RunInfo
		status           string
		started, updated string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, input_file, output_file, destination_address, batch_size, status, started_at, updated_at
		FROM runs WHERE id = ?`, runID,
	).Scan(&info.ID, &info.InputFile, &info.OutputFile, &info.DestinationAddress, &info.BatchSize,
		&status, &started, &updated)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(ErrRunNotFound, errors.ErrorTypeConfiguration, "unknown run "+runID)
	}
	if err != nil {
		return nil, errors.Storage(err, "failed to read run")
	}
	info.Status = domain.RunStatus(status)
	if info.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, errors.Storage(err, "corrupt run start time")
	}
	if info.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, errors.Storage(err, "corrupt run update time")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT consumed, counters FROM batches WHERE run_id = ? ORDER BY number`, runID)
	if err != nil {
		return nil, errors.Storage(err, "failed to read batches")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			consumed int
			raw      string
			counters domain.Counters
		)
		if err := rows.Scan(&consumed, &raw); err != nil {
			return nil, errors.Storage(err, "failed to read batches")
		}
		if err := json.Unmarshal([]byte(raw), &counters); err != nil {
			return nil, errors.Storage(err, "corrupt batch counters")
		}
		info.Batches++
		info.Consumed += consumed
		info.Counters = info.Counters.Add(counters)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage(err, "failed to read batches")
	}
	return &info, nil
}

func scanResult(rows *sql.Rows) (domain.ResultRow, error) {
	var (
		row                 domain.ResultRow
		chain, elig, status string
		amount, payload     sql.NullString
	)
	if err := rows.Scan(&row.Record.AccountID, &row.Record.AccountName, &chain, &row.Record.OriginalClaimableAmount,
		&elig, &amount, &status, &payload); err != nil {
		return row, errors.Storage(err, "failed to read result row")
	}
	row.Record.Chain = domain.Chain(chain)
	row.Eligibility.Status = domain.EligibilityStatus(elig)
	if amount.Valid {
		d, err := decimal.NewFromString(amount.String)
		if err != nil {
			return row, errors.Storage(err, "corrupt claimable amount")
		}
		row.Eligibility.ClaimableAmount = decimal.NewNullDecimal(d)
	}
	row.Outcome.Status = domain.ClaimStatus(status)
	if payload.Valid {
		row.Outcome.Payload = json.RawMessage(payload.String)
	}
	return row, nil
}
