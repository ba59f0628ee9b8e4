package align

import "sort"

// kmerIndex maps 2-bit packed k-mers of the reference to their start positions.
type kmerIndex struct {
	k   int
	pos map[uint64][]int32
}

var baseCode = [256]int8{
	'A': 0, 'C': 1, 'G': 2, 'T': 3,
}

func isSeedBase(b byte) bool {
	return b == 'A' || b == 'C' || b == 'G' || b == 'T'
}

// buildKmerIndex indexes every ACGT-only k-mer of seq.
func buildKmerIndex(seq []byte, k int) kmerIndex {
	idx := kmerIndex{k: k, pos: make(map[uint64][]int32)}
	if k <= 0 || k > 32 || len(seq) < k {
		return idx
	}

	mask := uint64(1)<<(2*uint(k)) - 1
	var key uint64
	valid := 0 // number of consecutive ACGT bases ending at i
	for i, b := range seq {
		if !isSeedBase(b) {
			valid = 0
			key = 0
			continue
		}
		key = (key<<2 | uint64(baseCode[b])) & mask
		valid++
		if valid >= k {
			start := int32(i - k + 1)
			idx.pos[key] = append(idx.pos[key], start)
		}
	}
	return idx
}

// lookup returns the reference positions of the k-mer starting at q[at].
func (idx kmerIndex) lookup(q []byte, at int) []int32 {
	if idx.k <= 0 || idx.k > 32 || at+idx.k > len(q) {
		return nil
	}
	var key uint64
	for _, b := range q[at : at+idx.k] {
		if !isSeedBase(b) {
			return nil
		}
		key = key<<2 | uint64(baseCode[b])
	}
	return idx.pos[key]
}

// band is an inclusive range of diagonals d = refPos - queryPos.
type band struct {
	lo, hi int
}

func (b band) width() int {
	return b.hi - b.lo + 1
}

// seedBand places the query on the reference with k-mers sampled along the query.
// Only k-mers with a unique reference hit are used. Seeds spanning more than
// MaxIndel diagonals fail the alignment.
func (a *Aligner) seedBand(q []byte) (band, error) {
	k := a.index.k
	if len(q) < k {
		return band{}, failf("sequence of length %d is too short to seed (need %d)", len(q), k)
	}

	spacing := max(1, a.opts.SeedSpacing)
	var diagonals []int
	for at := 0; at+k <= len(q); at += spacing {
		hits := a.index.lookup(q, at)
		if len(hits) == 1 {
			diagonals = append(diagonals, int(hits[0])-at)
		}
	}
	// Always try the 3' end too so the band covers the whole query.
	if last := len(q) - k; last%spacing != 0 {
		if hits := a.index.lookup(q, last); len(hits) == 1 {
			diagonals = append(diagonals, int(hits[0])-last)
		}
	}
	if len(diagonals) == 0 {
		return band{}, failf("no seed matches found")
	}

	sort.Ints(diagonals)
	b := band{lo: diagonals[0], hi: diagonals[len(diagonals)-1]}
	if a.opts.MaxIndel > 0 && b.hi-b.lo > a.opts.MaxIndel {
		return band{}, failf("too many insertions or deletions: seeds span %d diagonals (max %d)",
			b.hi-b.lo, a.opts.MaxIndel)
	}

	b.lo = max(b.lo-a.opts.BandPadding, -len(q))
	b.hi = min(b.hi+a.opts.BandPadding, len(a.ref))
	return b, nil
}
