package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Run is one execution of the pipeline.
type Run struct {
	ID        string        `json:"id"`
	FileKey   string        `json:"file_key"`
	FileName  string        `json:"file_name"`
	Version   string        `json:"version,omitempty"`
	Dir       string        `json:"dir"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Pass      int           `json:"pass"`
	Fail      int           `json:"fail"`
	Results   []Result      `json:"results,omitempty"`
}

// Result is the stored outcome for one node.
type Result struct {
	NodeID          string   `json:"node_id"`
	Name            string   `json:"name"`
	Equal           bool     `json:"equal"`
	DiffRatio       float64  `json:"diff_ratio"`
	RefHash         string   `json:"ref_hash,omitempty"`
	BaselineChanged bool     `json:"baseline_changed"`
	Reference       string   `json:"reference,omitempty"`
	Actual          string   `json:"actual,omitempty"`
	Diff            string   `json:"diff,omitempty"`
	Diagnostics     []string `json:"diagnostics,omitempty"`
}

// Fingerprint returns the hex BLAKE2b-256 digest of a reference image.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SaveRun stores r and its results in one transaction. Pass and Fail are
// recomputed from the results. For every result carrying a RefHash,
// BaselineChanged is set on r when the previous stored run of the same
// file recorded a different hash for that node.
func (s *Store) SaveRun(ctx context.Context, r *Run) error {
	r.Pass, r.Fail = 0, 0
	for _, res := range r.Results {
		if res.Equal {
			r.Pass++
		} else {
			r.Fail++
		}
	}

	return s.runTx(ctx, func(tx *sql.Tx) error {
		for i := range r.Results {
			res := &r.Results[i]
			if res.RefHash == "" {
				continue
			}
			prev, err := previousHash(ctx, tx, r.FileKey, res.NodeID, r.ID)
			if err != nil {
				return err
			}
			res.BaselineChanged = prev != "" && prev != res.RefHash
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, file_key, file_name, version, dir, started_at, duration_ms, pass, fail)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.FileKey, r.FileName, r.Version, r.Dir,
			r.StartedAt.UnixMilli(), r.Duration.Milliseconds(), r.Pass, r.Fail,
		)
		if err != nil {
			return fmt.Errorf("store: insert run: %w", err)
		}

		for i, res := range r.Results {
			diags, err := json.Marshal(res.Diagnostics)
			if err != nil {
				return fmt.Errorf("store: marshal diagnostics: %w", err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO results (run_id, seq, node_id, name, equal, diff_ratio, ref_hash,
				baseline_changed, reference, actual, diff, diagnostics)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.ID, i, res.NodeID, res.Name, res.Equal, res.DiffRatio, res.RefHash,
				res.BaselineChanged, res.Reference, res.Actual, res.Diff, string(diags),
			)
			if err != nil {
				return fmt.Errorf("store: insert result %s: %w", res.NodeID, err)
			}
		}
		return nil
	})
}

func previousHash(ctx context.Context, tx *sql.Tx, fileKey, nodeID, runID string) (string, error) {
	var h string
	err := tx.QueryRowContext(ctx,
		`SELECT r.ref_hash FROM results r JOIN runs u ON u.id = r.run_id
		WHERE u.file_key = ? AND r.node_id = ? AND r.ref_hash <> '' AND u.id <> ?
		ORDER BY u.started_at DESC, u.rowid DESC LIMIT 1`,
		fileKey, nodeID, runID,
	).Scan(&h)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: previous hash %s: %w", nodeID, err)
	}
	return h, nil
}

const runColumns = `id, file_key, file_name, version, dir, started_at, duration_ms, pass, fail`

// ListRuns returns the most recent runs first, without results.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a run with its results in processing order.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	r, err := scanRun(s.DB.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadResults(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// LatestRun returns the most recent run, or ErrNotFound.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no runs", ErrNotFound)
	}
	return s.GetRun(ctx, runs[0].ID)
}

func (s *Store) loadResults(ctx context.Context, r *Run) error {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT node_id, name, equal, diff_ratio, ref_hash, baseline_changed,
		reference, actual, diff, diagnostics
		FROM results WHERE run_id = ? ORDER BY seq`, r.ID)
	if err != nil {
		return fmt.Errorf("store: results %s: %w", r.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var res Result
		var diags string
		if err := rows.Scan(&res.NodeID, &res.Name, &res.Equal, &res.DiffRatio, &res.RefHash,
			&res.BaselineChanged, &res.Reference, &res.Actual, &res.Diff, &diags); err != nil {
			return fmt.Errorf("store: scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(diags), &res.Diagnostics); err != nil {
			return fmt.Errorf("store: diagnostics %s: %w", res.NodeID, err)
		}
		r.Results = append(r.Results, res)
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	var started, dur int64
	err := sc.Scan(&r.ID, &r.FileKey, &r.FileName, &r.Version, &r.Dir,
		&started, &dur, &r.Pass, &r.Fail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan run: %w", err)
	}
	r.StartedAt = time.UnixMilli(started).UTC()
	r.Duration = time.Duration(dur) * time.Millisecond
	return &r, nil
}
