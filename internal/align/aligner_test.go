package align

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAligner(ref string) *Aligner {
	return NewAligner(ref, DefaultOptions())
}

func randomSequence(seed int64, n int) string {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT"[r.Intn(4)]
	}
	return string(b)
}

func TestAlign_Identical(t *testing.T) {
	a := newTestAligner("ACGTACGT")
	res, err := a.Align("ACGTACGT")
	require.NoError(t, err)

	assert.Equal(t, "ACGTACGT", res.Aligned)
	assert.Empty(t, res.Insertions)
	assert.Equal(t, 0, res.AlnStart)
	assert.Equal(t, 8, res.AlnEnd)
	assert.Equal(t, 24, res.Score)
}

func TestAlign_Substitution(t *testing.T) {
	a := newTestAligner("ACGTACGT")
	res, err := a.Align("acgaacgt")
	require.NoError(t, err)

	assert.Equal(t, "ACGAACGT", res.Aligned)
	assert.Empty(t, res.Insertions)
	assert.Equal(t, 0, res.AlnStart)
	assert.Equal(t, 8, res.AlnEnd)
}

func TestAlign_Deletion(t *testing.T) {
	a := newTestAligner("ACGTACGT")

	for _, query := range []string{"ACGCGT", "ACG--CGT"} {
		t.Run(query, func(t *testing.T) {
			res, err := a.Align(query)
			require.NoError(t, err)
			assert.Equal(t, "ACG--CGT", res.Aligned)
			assert.Equal(t, 12, res.Score)
		})
	}
}

func TestAlign_DeletionPlacedLeftmost(t *testing.T) {
	a := newTestAligner("GACTTTTGCA")
	res, err := a.Align("GACTTTGCA")
	require.NoError(t, err)
	assert.Equal(t, "GAC-TTTGCA", res.Aligned)
}

func TestAlign_Insertion(t *testing.T) {
	a := newTestAligner("AAAACCCCGGGGTTTT")
	res, err := a.Align("AAAACCCCAGGGGTTTT")
	require.NoError(t, err)

	assert.Equal(t, "AAAACCCCGGGGTTTT", res.Aligned)
	assert.Equal(t, []Insertion{{Pos: 7, Seq: "A"}}, res.Insertions)
	assert.Equal(t, 16*3-6, res.Score)
}

func TestAlign_PartialCoverage(t *testing.T) {
	a := newTestAligner("ACGTACGTAA")
	res, err := a.Align("GTACGTAA")
	require.NoError(t, err)

	assert.Equal(t, "..GTACGTAA", res.Aligned)
	assert.Equal(t, 2, res.AlnStart)
	assert.Equal(t, 10, res.AlnEnd)
}

func TestAlign_AmbiguousBasesScoreAsMatches(t *testing.T) {
	a := newTestAligner("ACGTACGTAC")
	res, err := a.Align("NNNTACGTAC")
	require.NoError(t, err)

	assert.Equal(t, "NNNTACGTAC", res.Aligned)
	assert.Equal(t, 0, res.AlnStart)
	assert.Equal(t, 30, res.Score)
}

func TestAlign_Failures(t *testing.T) {
	a := newTestAligner("ACGTACGT")

	tests := []struct {
		name   string
		query  string
		reason string
	}{
		{"empty", "", "empty"},
		{"only gaps", "----", "empty"},
		{"only ambiguous", "NNNNRY", "no A, C, G or T"},
		{"invalid character", "ACGT!X", "invalid character '!' at position 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := a.Align(tt.query)
			assert.Nil(t, res)
			var af *AlignmentFailure
			require.True(t, errors.As(err, &af))
			assert.Contains(t, af.Reason, tt.reason)
		})
	}
}

func TestAlign_SeededBand(t *testing.T) {
	ref := randomSequence(1, 600)

	// substitution at 300, 3-base deletion at 400
	sub := byte('A')
	if ref[300] == 'A' {
		sub = 'C'
	}
	query := ref[:300] + string(sub) + ref[301:400] + ref[403:]

	opts := DefaultOptions()
	opts.MaxFullCells = 0
	a := NewAligner(ref, opts)

	res, err := a.Align(query)
	require.NoError(t, err)

	assert.Len(t, res.Aligned, len(ref))
	assert.Equal(t, query, strings.ReplaceAll(res.Aligned, "-", ""))
	assert.Equal(t, 3, strings.Count(res.Aligned, "-"))
	assert.Equal(t, sub, res.Aligned[300])
	assert.Equal(t, 0, res.AlnStart)
	assert.Equal(t, len(ref), res.AlnEnd)
	assert.Empty(t, res.Insertions)
	assert.Equal(t, (len(ref)-4)*3-1-6, res.Score)
}

func TestAlign_SeededPartialQuery(t *testing.T) {
	ref := randomSequence(2, 800)
	opts := DefaultOptions()
	opts.MaxFullCells = 0
	a := NewAligner(ref, opts)

	res, err := a.Align(ref[100:500])
	require.NoError(t, err)
	assert.Equal(t, 100, res.AlnStart)
	assert.Equal(t, 500, res.AlnEnd)
	assert.Equal(t, strings.Repeat(".", 100)+ref[100:500]+strings.Repeat(".", 300), res.Aligned)
}

func TestAlign_SeedFailure(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxFullCells = 0
	a := NewAligner(randomSequence(3, 300), opts)

	_, err := a.Align(strings.Repeat("A", 10))
	var af *AlignmentFailure
	require.True(t, errors.As(err, &af))
	assert.Contains(t, af.Reason, "too short to seed")

	_, err = a.Align(randomSequence(4, 200))
	require.True(t, errors.As(err, &af))
	assert.Contains(t, af.Reason, "no seed matches")
}

func TestAlign_SeededLargeDeletionFails(t *testing.T) {
	ref := randomSequence(7, 20000)
	a := newTestAligner(ref)

	_, err := a.Align(ref[:3000] + ref[3600:])
	var af *AlignmentFailure
	require.True(t, errors.As(err, &af))
	assert.Contains(t, af.Reason, "too many insertions or deletions")
}

func TestAlign_SeededDeletionWithinMaxIndel(t *testing.T) {
	ref := randomSequence(8, 20000)
	a := newTestAligner(ref)

	query := ref[:3000] + ref[3300:]
	res, err := a.Align(query)
	require.NoError(t, err)
	assert.Equal(t, 0, res.AlnStart)
	assert.Equal(t, len(ref), res.AlnEnd)
	assert.Equal(t, 300, strings.Count(res.Aligned, "-"))
	assert.Equal(t, query, strings.ReplaceAll(res.Aligned, "-", ""))
	assert.Empty(t, res.Insertions)
}

func TestAlign_LengthInvariantAndDeterminism(t *testing.T) {
	ref := randomSequence(5, 200)
	a := newTestAligner(ref)

	queries := []string{
		ref,
		ref[20:180],
		"NNNN" + ref[4:],
		ref[:50] + "TTTTTT" + ref[50:],
		ref[:90] + ref[110:],
		randomSequence(6, 150),
	}
	for i, q := range queries {
		first, err := a.Align(q)
		require.NoError(t, err, "query %d", i)
		second, err := a.Align(q)
		require.NoError(t, err, "query %d", i)

		assert.Len(t, first.Aligned, len(ref), "query %d", i)
		assert.Equal(t, first, second, "query %d", i)
		for j := 0; j < first.AlnStart; j++ {
			assert.Equal(t, byte(NoData), first.Aligned[j])
		}
		for j := first.AlnEnd; j < len(ref); j++ {
			assert.Equal(t, byte(NoData), first.Aligned[j])
		}
	}
}

func TestKmerIndex(t *testing.T) {
	idx := buildKmerIndex([]byte("ACGTNACGTACG"), 3)
	assert.Equal(t, []int32{0, 5, 9}, idx.pos[packKmer(t, "ACG")])
	assert.Equal(t, []int32{8}, idx.lookup([]byte("xxTAC"), 2))
	assert.Nil(t, idx.lookup([]byte("ANG"), 0))
	assert.Nil(t, idx.lookup([]byte("AC"), 0))
}

func packKmer(t *testing.T, s string) uint64 {
	t.Helper()
	var key uint64
	for i := 0; i < len(s); i++ {
		key = key<<2 | uint64(baseCode[s[i]])
	}
	return key
}
