// Package align aligns query nucleotide sequences to a reference sequence.
//
// Alignment is a banded affine-gap (Gotoh) dynamic program. Short inputs are
// aligned over the full matrix; longer inputs first locate the query on the
// reference with exact k-mer seeds and restrict the matrix to the diagonal band
// spanned by the seeds.
//
// Overhanging reference ends are free and reported as NoData, so a query covering
// only part of the reference is not penalized. Query bases outside the reference
// are reported as insertions.
//
// Ties between equally scoring alignments are broken deterministically: the
// alignment ending at the smallest reference position wins, and during traceback
// a match/mismatch step is preferred over a deletion, which is preferred over an
// insertion. Because traceback runs from the 3' end, this places gaps at their
// leftmost possible position.
package align

import (
	"fmt"

	"github.com/inodb/vibe-clade/internal/nuc"
)

// NoData marks aligned positions not covered by the query.
const NoData = '.'

// Insertion is a run of query bases with no counterpart in the reference.
type Insertion struct {
	Pos int    `json:"pos"` // reference position immediately before the insertion, -1 if before the first base
	Seq string `json:"seq"`
}

// Result is the alignment of one query to the reference.
type Result struct {
	// Aligned has the reference length. Positions outside [AlnStart, AlnEnd)
	// hold NoData, deleted positions hold '-'.
	Aligned    string
	Insertions []Insertion
	AlnStart   int
	AlnEnd     int
	Score      int
}

// AlignmentFailure reports a query that cannot be aligned to the reference.
type AlignmentFailure struct {
	Reason string
}

func (e *AlignmentFailure) Error() string {
	return "alignment failed: " + e.Reason
}

func failf(format string, args ...any) *AlignmentFailure {
	return &AlignmentFailure{Reason: fmt.Sprintf(format, args...)}
}

// Options configures scoring and the search space of the aligner.
type Options struct {
	Match     int // score of a matching (or IUPAC-compatible) base pair
	Mismatch  int
	GapOpen   int // score of the first base of a gap
	GapExtend int // score of every further base of a gap

	SeedLength  int // k-mer length used to place the query
	SeedSpacing int // distance between seed start positions on the query
	BandPadding int // extra diagonals on either side of the seeded band
	MaxIndel    int // widest seed diagonal spread accepted before failing

	// MaxFullCells is the largest matrix aligned without seeding.
	MaxFullCells int
}

// DefaultOptions returns the default scoring and band parameters.
func DefaultOptions() Options {
	return Options{
		Match:        3,
		Mismatch:     -1,
		GapOpen:      -6,
		GapExtend:    0,
		SeedLength:   21,
		SeedSpacing:  50,
		BandPadding:  64,
		MaxIndel:     400,
		MaxFullCells: 4 << 20,
	}
}

// Aligner aligns sequences against a fixed reference. It is safe for concurrent use.
type Aligner struct {
	ref   []byte
	opts  Options
	index kmerIndex
}

// NewAligner creates an aligner for an uppercase reference sequence.
func NewAligner(ref string, opts Options) *Aligner {
	return &Aligner{
		ref:   []byte(ref),
		opts:  opts,
		index: buildKmerIndex([]byte(ref), opts.SeedLength),
	}
}

// Reference returns the reference sequence.
func (a *Aligner) Reference() string {
	return string(a.ref)
}

// Align aligns a raw query sequence to the reference.
// Returns an *AlignmentFailure if the query cannot be aligned.
func (a *Aligner) Align(query string) (*Result, error) {
	q, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	if len(a.ref) == 0 {
		return nil, failf("reference sequence is empty")
	}

	m, n := len(q), len(a.ref)
	b := band{lo: -m, hi: n}
	if (m+1)*b.width() > a.opts.MaxFullCells {
		b, err = a.seedBand(q)
		if err != nil {
			return nil, err
		}
	}

	return a.alignBand(q, b)
}

// normalizeQuery uppercases the query, drops alignment gaps and U->T, and
// rejects characters outside the IUPAC nucleotide alphabet.
func normalizeQuery(query string) ([]byte, error) {
	q := make([]byte, 0, len(query))
	concrete := 0
	for i := 0; i < len(query); i++ {
		c := nuc.ToUpper(query[i])
		switch {
		case c == nuc.Gap:
			continue
		case c == 'U':
			c = 'T'
		case !nuc.IsValid(c):
			return nil, failf("invalid character %q at position %d", query[i], i)
		}
		if nuc.IsACGT(c) {
			concrete++
		}
		q = append(q, c)
	}
	if len(q) == 0 {
		return nil, failf("sequence is empty")
	}
	if concrete == 0 {
		return nil, failf("sequence contains no A, C, G or T bases")
	}
	return q, nil
}
