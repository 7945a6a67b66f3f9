package storage

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                  TEXT PRIMARY KEY,
	input_file          TEXT NOT NULL,
	output_file         TEXT NOT NULL,
	destination_address TEXT NOT NULL,
	batch_size          INTEGER NOT NULL,
	status              TEXT NOT NULL,
	started_at          TEXT NOT NULL,
	updated_at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_input_file ON runs(input_file, started_at);

-- one row per flushed batch; counters is the JSON encoding of domain.Counters
CREATE TABLE IF NOT EXISTS batches (
	run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	number   INTEGER NOT NULL,
	consumed INTEGER NOT NULL,
	counters TEXT NOT NULL,
	saved_at TEXT NOT NULL,
	PRIMARY KEY (run_id, number)
);

CREATE TABLE IF NOT EXISTS results (
	run_id             TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq                INTEGER NOT NULL,
	batch              INTEGER NOT NULL,
	account_id         TEXT NOT NULL,
	account_name       TEXT NOT NULL,
	chain              TEXT NOT NULL,
	original_amount    TEXT NOT NULL,
	eligibility_status TEXT NOT NULL,
	claimable_amount   TEXT,
	claim_status       TEXT NOT NULL,
	payload            TEXT,
	PRIMARY KEY (run_id, seq)
);
`
