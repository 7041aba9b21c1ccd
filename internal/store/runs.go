package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/kiln/internal/ir"
	"github.com/roach88/kiln/internal/outdated"
)

// RunRecord is everything a successful compilation persists.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	RepCount   int
	Written    int
	Checksums  map[string]string
	Edges      []ir.DependencyEdge
	Compiled   []ir.RepKey
}

// RunSummary describes a recorded run without its detail rows.
type RunSummary struct {
	ID         string    `json:"id"`
	Seq        int64     `json:"seq"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	RepCount   int       `json:"rep_count"`
	Compiled   int       `json:"compiled"`
	Written    int       `json:"written"`
}

// SaveRun records run in a single transaction. Detail rows of earlier runs
// are dropped; their run rows remain as history.
func (s *Store) SaveRun(ctx context.Context, run RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("save run: empty run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return fmt.Errorf("save run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, started_at, finished_at, rep_count, compiled, written)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		seq,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.RepCount,
		len(run.Compiled),
		run.Written,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	for _, table := range []string{"checksums", "dependencies", "compiled_reps"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id <> ?`, run.ID); err != nil {
			return fmt.Errorf("save run: prune %s: %w", table, err)
		}
	}

	subjects := make([]string, 0, len(run.Checksums))
	for subject := range run.Checksums {
		subjects = append(subjects, subject)
	}
	slices.Sort(subjects)
	for _, subject := range subjects {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO checksums (run_id, subject, checksum) VALUES (?, ?, ?)
		`, run.ID, subject, run.Checksums[subject])
		if err != nil {
			return fmt.Errorf("save run: checksum %s: %w", subject, err)
		}
	}

	for _, e := range run.Edges {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dependencies (run_id, from_rep, to_rep, kind)
			VALUES (?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, run.ID, e.From.String(), e.To.String(), string(e.Kind))
		if err != nil {
			return fmt.Errorf("save run: dependency %s: %w", e, err)
		}
	}

	for _, rep := range run.Compiled {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO compiled_reps (run_id, rep) VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, run.ID, rep.String())
		if err != nil {
			return fmt.Errorf("save run: compiled rep %s: %w", rep, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run: commit: %w", err)
	}
	return nil
}

// LoadPrior returns the checksums and dependency edges of the most recent
// run, or nil when no run has been recorded.
func (s *Store) LoadPrior(ctx context.Context) (*outdated.Prior, error) {
	var runID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM runs ORDER BY seq DESC LIMIT 1
	`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load prior: latest run: %w", err)
	}

	prior := &outdated.Prior{
		RunID:     runID,
		Checksums: make(map[string]string),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT subject, checksum FROM checksums
		WHERE run_id = ?
		ORDER BY subject COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load prior: query checksums: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var subject, sum string
		if err := rows.Scan(&subject, &sum); err != nil {
			return nil, fmt.Errorf("load prior: scan checksum: %w", err)
		}
		prior.Checksums[subject] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load prior: iterate checksums: %w", err)
	}

	edges, err := s.dependencies(ctx, runID)
	if err != nil {
		return nil, err
	}
	prior.Edges = edges

	return prior, nil
}

// dependencies reads the edges recorded for runID.
func (s *Store) dependencies(ctx context.Context, runID string) ([]ir.DependencyEdge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_rep, to_rep, kind FROM dependencies
		WHERE run_id = ?
		ORDER BY from_rep COLLATE BINARY ASC, to_rep COLLATE BINARY ASC, kind ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()

	var edges []ir.DependencyEdge
	for rows.Next() {
		var from, to, kind string
		if err := rows.Scan(&from, &to, &kind); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		fromKey, err := ir.ParseRepKey(from)
		if err != nil {
			return nil, fmt.Errorf("dependency source: %w", err)
		}
		toKey, err := ir.ParseRepKey(to)
		if err != nil {
			return nil, fmt.Errorf("dependency target: %w", err)
		}
		edges = append(edges, ir.DependencyEdge{From: fromKey, To: toKey, Kind: ir.EdgeKind(kind)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dependencies: %w", err)
	}
	return edges, nil
}

// Runs returns every recorded run ordered by sequence.
func (s *Store) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, started_at, finished_at, rep_count, written, compiled
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var r RunSummary
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Seq, &started, &finished, &r.RepCount, &r.Written, &r.Compiled); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("run %s started_at: %w", r.ID, err)
		}
		if r.FinishedAt, err = parseTime(finished); err != nil {
			return nil, fmt.Errorf("run %s finished_at: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// CompiledReps returns the reps compiled during runID, sorted.
func (s *Store) CompiledReps(ctx context.Context, runID string) ([]ir.RepKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rep FROM compiled_reps
		WHERE run_id = ?
		ORDER BY rep COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query compiled reps: %w", err)
	}
	defer rows.Close()

	var reps []ir.RepKey
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan compiled rep: %w", err)
		}
		key, err := ir.ParseRepKey(raw)
		if err != nil {
			return nil, err
		}
		reps = append(reps, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compiled reps: %w", err)
	}
	return reps, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
