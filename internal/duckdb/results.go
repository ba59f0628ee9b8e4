package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"
	"github.com/zeebo/xxh3"

	"github.com/inodb/vibe-clade/internal/analyze"
)

// Entry pairs an analysis result with the raw sequence it was computed from.
type Entry struct {
	Sequence string
	Result   *analyze.AnalysisResult
}

// StoredResult is an analysis result read back from the store.
// Result.Aligned is not stored and is always empty.
type StoredResult struct {
	RunID   uuid.UUID
	SeqHash string
	Result  *analyze.AnalysisResult
}

// SequenceHash returns the hex xxh3 hash identifying a raw sequence.
// Case is ignored.
func SequenceHash(seq string) string {
	return strconv.FormatUint(xxh3.HashString(strings.ToUpper(seq)), 16)
}

// WriteResults batch-inserts results of a run using the Appender API.
func (s *Store) WriteResults(runID uuid.UUID, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	id := runID.String()

	results := make([][]driver.Value, 0, len(entries))
	var subs, clades [][]driver.Value
	for _, e := range entries {
		r := e.Result
		blob, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode result %q: %w", r.SeqName, err)
		}
		names := r.CladeNames()
		results = append(results, []driver.Value{
			id, int64(r.Index), r.SeqName, SequenceHash(e.Sequence),
			strings.Join(names, ","), r.QC.OverallScore, string(r.QC.OverallStatus),
			int64(r.TotalSubstitutions), int64(r.TotalDeletions),
			int64(r.TotalInsertions), int64(r.TotalMissing),
			string(blob),
		})
		for _, sub := range r.Substitutions {
			subs = append(subs, []driver.Value{
				id, int64(r.Index), int64(sub.Pos),
				sub.RefNuc.String(), sub.QueryNuc.String(), sub.String(),
			})
		}
		for _, name := range names {
			clades = append(clades, []driver.Value{id, int64(r.Index), name})
		}
	}

	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	// All three tables are written in one transaction so a failed batch
	// leaves no results without their child rows.
	if _, err := conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for _, t := range []struct {
		table string
		rows  [][]driver.Value
	}{
		{"results", results},
		{"substitutions", subs},
		{"result_clades", clades},
	} {
		if err := appendRows(conn, t.table, t.rows); err != nil {
			conn.ExecContext(ctx, "ROLLBACK")
			return err
		}
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		conn.ExecContext(ctx, "ROLLBACK")
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

func appendRows(conn *sql.Conn, table string, rows [][]driver.Value) (err error) {
	if len(rows) == 0 {
		return nil
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create %s appender: %w", table, err)
	}
	defer func() {
		if cerr := appender.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s appender: %w", table, cerr)
		}
	}()

	for _, row := range rows {
		if err := appender.AppendRow(row...); err != nil {
			return fmt.Errorf("append to %s: %w", table, err)
		}
	}

	if err := appender.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", table, err)
	}
	return nil
}

const selectResults = `SELECT r.run_id, r.seq_hash, r.result_json
	FROM results r JOIN runs ON runs.run_id = r.run_id`

const orderResults = ` ORDER BY runs.started_at, r.run_id, r.seq_index`

// LookupSequence returns stored results computed from the same raw sequence.
func (s *Store) LookupSequence(seq string) ([]StoredResult, error) {
	return s.queryResults(selectResults+` WHERE r.seq_hash = ?`+orderResults, SequenceHash(seq))
}

// SearchBySeqName returns stored results for a sequence name.
func (s *Store) SearchBySeqName(name string) ([]StoredResult, error) {
	return s.queryResults(selectResults+` WHERE r.seq_name = ?`+orderResults, name)
}

// SearchByClade returns stored results that matched a clade.
func (s *Store) SearchByClade(clade string) ([]StoredResult, error) {
	return s.queryResults(selectResults+`
		WHERE EXISTS (SELECT 1 FROM result_clades c
			WHERE c.run_id = r.run_id AND c.seq_index = r.seq_index AND c.clade = ?)`+orderResults, clade)
}

// SearchBySubstitution returns stored results carrying a nucleotide
// substitution in its 1-based notation, e.g. "T4A".
func (s *Store) SearchBySubstitution(label string) ([]StoredResult, error) {
	return s.queryResults(selectResults+`
		WHERE EXISTS (SELECT 1 FROM substitutions x
			WHERE x.run_id = r.run_id AND x.seq_index = r.seq_index AND x.label = ?)`+orderResults,
		strings.ToUpper(label))
}

func (s *Store) queryResults(query string, args ...any) ([]StoredResult, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []StoredResult
	for rows.Next() {
		var id, hash, blob string
		if err := rows.Scan(&id, &hash, &blob); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		runID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}
		var r analyze.AnalysisResult
		if err := json.Unmarshal([]byte(blob), &r); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		results = append(results, StoredResult{RunID: runID, SeqHash: hash, Result: &r})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}
