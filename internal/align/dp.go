package align

import (
	"math"

	"github.com/inodb/vibe-clade/internal/nuc"
)

const negInf = math.MinInt / 4

// Traceback bits stored per cell.
const (
	fromDiag  byte = 0
	fromDel   byte = 1 // H taken from E (gap in the query)
	fromIns   byte = 2 // H taken from F (gap in the reference)
	fromStart byte = 3

	hMask     byte = 0x3
	delExtend byte = 1 << 2 // E extends the deletion of the cell to the left
	insExtend byte = 1 << 3 // F extends the insertion of the cell above
)

type traceState int

const (
	inH traceState = iota
	inE
	inF
)

// alignBand runs the Gotoh recurrences over the diagonals of b.
//
// Rows are query positions i in [0, m] and columns reference positions j in
// [0, n]. Cell (i, j) is stored at column k = j - i - b.lo of row i, so the
// diagonal neighbour shares k, the left neighbour is k-1 and the cell above is
// k+1 of the previous row.
func (a *Aligner) alignBand(q []byte, b band) (*Result, error) {
	m, n := len(q), len(a.ref)
	w := b.width()
	o := a.opts

	tb := make([]byte, (m+1)*w)
	prevH, prevF := newRow(w+1), newRow(w+1)
	curH, curE, curF := newRow(w+1), newRow(w+1), newRow(w+1)

	// Row 0: leading reference overhang is free.
	for j := max(0, b.lo); j <= min(n, b.hi); j++ {
		k := j - b.lo
		prevH[k] = 0
		tb[k] = fromStart
	}

	for i := 1; i <= m; i++ {
		resetRow(curH)
		resetRow(curE)
		resetRow(curF)

		jLo, jHi := max(0, i+b.lo), min(n, i+b.hi)
		row := tb[i*w : (i+1)*w]
		qb := q[i-1]

		for j := jLo; j <= jHi; j++ {
			k := j - i - b.lo
			var ptr byte

			// F: insertion, from the cell above.
			f := negInf
			if up := prevH[k+1]; up > negInf {
				f = up + o.GapOpen
			}
			if ext := prevF[k+1]; ext > negInf && ext+o.GapExtend >= f {
				f = ext + o.GapExtend
				ptr |= insExtend
			}

			// E: deletion, from the cell to the left.
			e := negInf
			if j > jLo {
				if left := curH[k-1]; left > negInf {
					e = left + o.GapOpen
				}
				if ext := curE[k-1]; ext > negInf && ext+o.GapExtend >= e {
					e = ext + o.GapExtend
					ptr |= delExtend
				}
			}

			// Diagonal.
			d := negInf
			if j > 0 && prevH[k] > negInf {
				d = prevH[k] + a.pairScore(qb, a.ref[j-1])
			}

			h := d
			switch {
			case d > negInf && d >= e && d >= f:
				ptr |= fromDiag
			case e > negInf && e >= f:
				h = e
				ptr |= fromDel
			default:
				h = f
				ptr |= fromIns
			}

			curH[k], curE[k], curF[k] = h, e, f
			row[k] = ptr
		}

		prevH, curH = curH, prevH
		prevF, curF = curF, prevF
	}

	// Trailing reference overhang is free: take the best cell of the last row,
	// preferring the smallest reference end.
	bestJ, best := -1, negInf
	for j := max(0, m+b.lo); j <= min(n, m+b.hi); j++ {
		if h := prevH[j-m-b.lo]; h > best {
			best, bestJ = h, j
		}
	}
	if bestJ < 0 || best <= negInf {
		return nil, failf("no alignment within band")
	}

	return a.traceback(q, b, tb, bestJ, best)
}

func (a *Aligner) traceback(q []byte, b band, tb []byte, endJ, score int) (*Result, error) {
	m, n := len(q), len(a.ref)
	w := b.width()

	aligned := make([]byte, n)
	for j := range aligned {
		aligned[j] = NoData
	}

	// Insertions are collected 3'->5' with reversed sequences.
	var ins []Insertion
	var insSeq [][]byte

	i, j := m, endJ
	state := inH
	matched := 0
	for i > 0 {
		k := j - i - b.lo
		if k < 0 || k >= w {
			return nil, failf("traceback left the alignment band")
		}
		ptr := tb[i*w+k]

		switch state {
		case inH:
			switch ptr & hMask {
			case fromDiag:
				aligned[j-1] = q[i-1]
				matched++
				i--
				j--
			case fromDel:
				state = inE
			case fromIns:
				state = inF
			default:
				return nil, failf("traceback reached an unreachable cell")
			}
		case inE:
			aligned[j-1] = nuc.Gap
			if ptr&delExtend == 0 {
				state = inH
			}
			j--
		case inF:
			pos := j - 1
			if last := len(ins) - 1; last >= 0 && ins[last].Pos == pos {
				insSeq[last] = append(insSeq[last], q[i-1])
			} else {
				ins = append(ins, Insertion{Pos: pos})
				insSeq = append(insSeq, []byte{q[i-1]})
			}
			if ptr&insExtend == 0 {
				state = inH
			}
			i--
		}
	}

	if matched == 0 {
		return nil, failf("no query base aligned to the reference")
	}

	// Reverse into 5'->3' order.
	insertions := make([]Insertion, len(ins))
	for x := range ins {
		seq := insSeq[x]
		for l, r := 0, len(seq)-1; l < r; l, r = l+1, r-1 {
			seq[l], seq[r] = seq[r], seq[l]
		}
		insertions[len(ins)-1-x] = Insertion{Pos: ins[x].Pos, Seq: string(seq)}
	}

	// Alignments never start or end with a deletion, so the range is bounded by
	// the first and last aligned query bases.
	return &Result{
		Aligned:    string(aligned),
		Insertions: insertions,
		AlnStart:   j,
		AlnEnd:     endJ,
		Score:      score,
	}, nil
}

func (a *Aligner) pairScore(q, r byte) int {
	if nuc.Compatible(q, r) {
		return a.opts.Match
	}
	return a.opts.Mismatch
}

func newRow(n int) []int {
	r := make([]int, n)
	resetRow(r)
	return r
}

func resetRow(r []int) {
	for i := range r {
		r[i] = negInf
	}
}
