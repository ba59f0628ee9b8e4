package duckdb

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-clade/internal/analyze"
	"github.com/inodb/vibe-clade/internal/dataset"
	"github.com/inodb/vibe-clade/internal/qc"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func result(index int, name string, clades []string, subs ...analyze.Substitution) *analyze.AnalysisResult {
	m := make(map[string][]dataset.CladeLocation, len(clades))
	for _, c := range clades {
		m[c] = []dataset.CladeLocation{{Pos: 3, Allele: "A"}}
	}
	return &analyze.AnalysisResult{
		Index:              index,
		SeqName:            name,
		AlignmentEnd:       8,
		Substitutions:      subs,
		TotalSubstitutions: len(subs),
		Clades:             m,
		QC:                 qc.Result{OverallScore: 1.25, OverallStatus: qc.StatusGood},
	}
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
}

func TestBeginRunAndList(t *testing.T) {
	s := openInMemory(t)

	mod := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := s.BeginRun(RunInfo{
		Input:     "queries.fasta",
		Reference: FileFingerprint{Path: "ref.fasta", Size: 29903, ModTime: mod},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	require.NoError(t, s.WriteResults(id, []Entry{
		{Sequence: "ACGA", Result: result(0, "a", nil)},
		{Sequence: "ACGT", Result: result(1, "b", nil)},
	}))

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "queries.fasta", runs[0].Input)
	assert.Equal(t, "ref.fasta", runs[0].Reference.Path)
	assert.Equal(t, int64(29903), runs[0].Reference.Size)
	assert.True(t, mod.Equal(runs[0].Reference.ModTime))
	assert.Equal(t, int64(2), runs[0].Sequences)
}

func TestWriteAndSearch(t *testing.T) {
	s := openInMemory(t)
	id, err := s.BeginRun(RunInfo{Input: "-"})
	require.NoError(t, err)

	t4a := analyze.Substitution{Pos: 3, RefNuc: 'T', QueryNuc: 'A'}
	g7c := analyze.Substitution{Pos: 6, RefNuc: 'G', QueryNuc: 'C'}
	require.NoError(t, s.WriteResults(id, []Entry{
		{Sequence: "ACGAACGT", Result: result(0, "first", []string{"A"}, t4a)},
		{Sequence: "ACGTACCT", Result: result(1, "second", []string{"B"}, g7c)},
		{Sequence: "ACGAACCT", Result: result(2, "third", []string{"A", "B"}, t4a, g7c)},
	}))

	found, err := s.SearchByClade("A")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "first", found[0].Result.SeqName)
	assert.Equal(t, "third", found[1].Result.SeqName)
	assert.Equal(t, id, found[0].RunID)

	found, err = s.SearchBySubstitution("g7c")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "second", found[0].Result.SeqName)
	require.Len(t, found[0].Result.Substitutions, 1)
	assert.Equal(t, g7c.QueryNuc, found[0].Result.Substitutions[0].QueryNuc)
	assert.Equal(t, 1.25, found[0].Result.QC.OverallScore)

	found, err = s.SearchBySeqName("third")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"A", "B"}, found[0].Result.CladeNames())

	found, err = s.SearchByClade("C")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestLookupSequence(t *testing.T) {
	s := openInMemory(t)
	id, err := s.BeginRun(RunInfo{Input: "-"})
	require.NoError(t, err)
	require.NoError(t, s.WriteResults(id, []Entry{
		{Sequence: "ACGTACGT", Result: result(0, "x", nil)},
	}))

	found, err := s.LookupSequence("acgtacgt")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, SequenceHash("ACGTACGT"), found[0].SeqHash)

	found, err = s.LookupSequence("ACGTACGA")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDeleteRun(t *testing.T) {
	s := openInMemory(t)
	keep, err := s.BeginRun(RunInfo{Input: "keep.fasta"})
	require.NoError(t, err)
	drop, err := s.BeginRun(RunInfo{Input: "drop.fasta"})
	require.NoError(t, err)

	t4a := analyze.Substitution{Pos: 3, RefNuc: 'T', QueryNuc: 'A'}
	require.NoError(t, s.WriteResults(keep, []Entry{{Sequence: "A", Result: result(0, "k", []string{"A"}, t4a)}}))
	require.NoError(t, s.WriteResults(drop, []Entry{{Sequence: "A", Result: result(0, "d", []string{"A"}, t4a)}}))

	require.NoError(t, s.DeleteRun(drop))

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, keep, runs[0].ID)

	found, err := s.SearchBySubstitution("T4A")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "k", found[0].Result.SeqName)
}

func TestWriteResultsEmpty(t *testing.T) {
	s := openInMemory(t)
	assert.NoError(t, s.WriteResults(uuid.New(), nil))
}

func TestWriteResultsRollsBackFailedBatch(t *testing.T) {
	s := openInMemory(t)
	id, err := s.BeginRun(RunInfo{Input: "q.fasta"})
	require.NoError(t, err)

	t4a := analyze.Substitution{Pos: 3, RefNuc: 'T', QueryNuc: 'A'}
	require.NoError(t, s.WriteResults(id, []Entry{{Sequence: "ACGA", Result: result(0, "kept", []string{"A"}, t4a)}}))

	// the repeated substitution violates the substitutions key after results were appended
	err = s.WriteResults(id, []Entry{{Sequence: "ACGG", Result: result(1, "broken", []string{"B"}, t4a, t4a)}})
	require.Error(t, err)

	found, err := s.SearchBySeqName("broken")
	require.NoError(t, err)
	assert.Empty(t, found)
	found, err = s.SearchByClade("B")
	require.NoError(t, err)
	assert.Empty(t, found)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(1), runs[0].Sequences)

	require.NoError(t, s.WriteResults(id, []Entry{{Sequence: "ACGG", Result: result(1, "fixed", nil, t4a)}}))
	found, err = s.SearchBySubstitution("T4A")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestSequenceHash(t *testing.T) {
	assert.Equal(t, SequenceHash("ACGT"), SequenceHash("acgt"))
	assert.NotEqual(t, SequenceHash("ACGT"), SequenceHash("ACGA"))
}

func TestStatFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/ref.fasta", []byte(">r\nACGT\n"), 0644))

	fp, err := StatFile(fs, "/data/ref.fasta")
	require.NoError(t, err)
	assert.Equal(t, "/data/ref.fasta", fp.Path)
	assert.Equal(t, int64(8), fp.Size)

	fp, err = StatFile(fs, "-")
	require.NoError(t, err)
	assert.Equal(t, FileFingerprint{Path: "-"}, fp)

	_, err = StatFile(fs, "/missing")
	assert.Error(t, err)
}
