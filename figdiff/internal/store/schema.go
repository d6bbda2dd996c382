package store

// Schema creates the run history tables. Timestamps are unix milliseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    file_key    TEXT NOT NULL,
    file_name   TEXT NOT NULL DEFAULT '',
    version     TEXT NOT NULL DEFAULT '',
    dir         TEXT NOT NULL DEFAULT '',
    started_at  INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    pass        INTEGER NOT NULL DEFAULT 0,
    fail        INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_file ON runs(file_key, started_at DESC);

CREATE TABLE IF NOT EXISTS results (
    run_id           TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq              INTEGER NOT NULL,
    node_id          TEXT NOT NULL,
    name             TEXT NOT NULL DEFAULT '',
    equal            INTEGER NOT NULL,
    diff_ratio       REAL NOT NULL DEFAULT 0,
    ref_hash         TEXT NOT NULL DEFAULT '',
    baseline_changed INTEGER NOT NULL DEFAULT 0,
    reference        TEXT NOT NULL DEFAULT '',
    actual           TEXT NOT NULL DEFAULT '',
    diff             TEXT NOT NULL DEFAULT '',
    diagnostics      TEXT NOT NULL DEFAULT '[]',
    PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_results_node ON results(node_id);
`
