package duckdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunInfo describes one analysis invocation.
type RunInfo struct {
	Input     string // path of the query FASTA, "-" for stdin
	Reference FileFingerprint
}

// Run is a stored analysis invocation.
type Run struct {
	ID        uuid.UUID
	StartedAt time.Time
	RunInfo
	Sequences int64 // number of stored results
}

// BeginRun records a new run and returns its identifier.
func (s *Store) BeginRun(info RunInfo) (uuid.UUID, error) {
	id := uuid.New()
	modTime := sql.NullTime{
		Time:  info.Reference.ModTime.UTC(),
		Valid: !info.Reference.ModTime.IsZero(),
	}
	_, err := s.db.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), time.Now().UTC(), info.Input,
		info.Reference.Path, info.Reference.Size, modTime)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Runs lists stored runs, oldest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT
		r.run_id, r.started_at, r.input,
		r.reference_path, r.reference_size, r.reference_modtime,
		(SELECT count(*) FROM results WHERE results.run_id = r.run_id)
		FROM runs r
		ORDER BY r.started_at, r.run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run     Run
			id      string
			modTime sql.NullTime
		)
		if err := rows.Scan(&id, &run.StartedAt, &run.Input,
			&run.Reference.Path, &run.Reference.Size, &modTime,
			&run.Sequences); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}
		if modTime.Valid {
			run.Reference.ModTime = modTime.Time
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run and everything stored for it.
func (s *Store) DeleteRun(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"result_clades", "substitutions", "results", "runs"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE run_id = ?", id.String()); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return tx.Commit()
}
