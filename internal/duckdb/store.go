// Package duckdb stores analysis results in DuckDB (queryable, append-only).
// Each invocation of the analyzer is recorded as a run; results, their
// substitutions and matched clades are keyed by run and input index.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for analysis results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id VARCHAR PRIMARY KEY,
			started_at TIMESTAMP,
			input VARCHAR,
			reference_path VARCHAR,
			reference_size BIGINT,
			reference_modtime TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			run_id VARCHAR,
			seq_index BIGINT,
			seq_name VARCHAR,
			seq_hash VARCHAR,
			clades VARCHAR,
			qc_score DOUBLE,
			qc_status VARCHAR,
			total_substitutions BIGINT,
			total_deletions BIGINT,
			total_insertions BIGINT,
			total_missing BIGINT,
			result_json VARCHAR,
			PRIMARY KEY (run_id, seq_index)
		)`,
		`CREATE TABLE IF NOT EXISTS substitutions (
			run_id VARCHAR,
			seq_index BIGINT,
			pos BIGINT,
			ref_nuc VARCHAR,
			query_nuc VARCHAR,
			label VARCHAR,
			PRIMARY KEY (run_id, seq_index, pos)
		)`,
		`CREATE TABLE IF NOT EXISTS result_clades (
			run_id VARCHAR,
			seq_index BIGINT,
			clade VARCHAR,
			PRIMARY KEY (run_id, seq_index, clade)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
