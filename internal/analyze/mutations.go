package analyze

import (
	"sort"
	"strings"

	"github.com/inodb/vibe-clade/internal/align"
	"github.com/inodb/vibe-clade/internal/dataset"
	"github.com/inodb/vibe-clade/internal/nuc"
)

// MutationCaller compares alignments with the reference and derives
// amino-acid effects from the gene map.
type MutationCaller struct {
	ds *dataset.Dataset
}

// NewMutationCaller creates a caller for a dataset.
func NewMutationCaller(ds *dataset.Dataset) *MutationCaller {
	return &MutationCaller{ds: ds}
}

// Call diffs the aligned query against the reference inside the alignment range.
//
// Concrete query bases (A, C, G, T) differing from the reference are
// substitutions; maximal runs of gaps are deletions. Ambiguous bases never
// produce substitutions; they are reported as missing (N) or non-ACGTN ranges.
// Returns an *InvariantError if the alignment does not fit the reference.
func (c *MutationCaller) Call(aln *align.Result) (*Calls, error) {
	ref := c.ds.Reference()
	if len(aln.Aligned) != len(ref) {
		return nil, invariantf("aligned sequence has length %d, reference has length %d", len(aln.Aligned), len(ref))
	}
	if aln.AlnStart < 0 || aln.AlnEnd > len(ref) || aln.AlnStart > aln.AlnEnd {
		return nil, invariantf("alignment range [%d, %d) outside reference of length %d", aln.AlnStart, aln.AlnEnd, len(ref))
	}

	calls, err := callNucleotides(ref, aln)
	if err != nil {
		return nil, err
	}
	c.callAminoAcids(ref, aln.Aligned, calls)
	return calls, nil
}

func callNucleotides(ref string, aln *align.Result) (*Calls, error) {
	calls := &Calls{
		AlnStart:    aln.AlnStart,
		AlnEnd:      aln.AlnEnd,
		Composition: make(map[string]int),
	}
	aligned := aln.Aligned

	delStart := -1
	for pos := aln.AlnStart; pos < aln.AlnEnd; pos++ {
		q := aligned[pos]
		calls.Composition[string(q)]++

		if q == nuc.Gap {
			if delStart < 0 {
				delStart = pos
			}
			continue
		}
		if delStart >= 0 {
			calls.Deletions = append(calls.Deletions, Deletion{Start: delStart, Length: pos - delStart})
			delStart = -1
		}

		switch {
		case q == align.NoData:
			return nil, invariantf("no-data marker at position %d inside alignment range [%d, %d)", pos, aln.AlnStart, aln.AlnEnd)
		case q == nuc.N:
			calls.Missing = extendRun(calls.Missing, pos, q)
		case nuc.IsAmbiguous(q):
			calls.NonACGTNs = extendRun(calls.NonACGTNs, pos, q)
		case !nuc.IsACGT(q):
			return nil, invariantf("unexpected character %q at position %d in aligned query", q, pos)
		case q != ref[pos]:
			calls.Substitutions = append(calls.Substitutions, Substitution{
				Pos:      pos,
				RefNuc:   Nuc(ref[pos]),
				QueryNuc: Nuc(q),
			})
		}
	}
	if delStart >= 0 {
		calls.Deletions = append(calls.Deletions, Deletion{Start: delStart, Length: aln.AlnEnd - delStart})
	}

	for _, ins := range aln.Insertions {
		calls.Insertions = append(calls.Insertions, Insertion{Pos: ins.Pos, Seq: ins.Seq})
	}
	return calls, nil
}

// extendRun grows the last range if it ends at pos with the same character,
// otherwise starts a new one.
func extendRun(runs []NucleotideRange, pos int, c byte) []NucleotideRange {
	if n := len(runs); n > 0 && runs[n-1].End == pos && runs[n-1].Char == Nuc(c) {
		runs[n-1].End++
		return runs
	}
	return append(runs, NucleotideRange{Start: pos, End: pos + 1, Char: Nuc(c)})
}

// callAminoAcids translates every codon touched by a substitution or deletion,
// in every gene covering it.
func (c *MutationCaller) callAminoAcids(ref, aligned string, calls *Calls) {
	genes := c.ds.Genes()
	if len(genes) == 0 {
		return
	}

	affected := make(map[int]map[int]bool) // gene index -> codon set
	mark := func(pos int) {
		for _, gi := range c.ds.GenesAt(pos) {
			codon := genes[gi].CodonAt(pos)
			if codon < 0 {
				continue
			}
			if affected[gi] == nil {
				affected[gi] = make(map[int]bool)
			}
			affected[gi][codon] = true
		}
	}
	for _, s := range calls.Substitutions {
		mark(s.Pos)
	}
	for _, d := range calls.Deletions {
		for pos := d.Start; pos < d.End(); pos++ {
			mark(pos)
		}
	}

	for gi := range genes {
		g := &genes[gi]
		codons := make([]int, 0, len(affected[gi]))
		for codon := range affected[gi] {
			codons = append(codons, codon)
		}
		sort.Ints(codons)

		for _, codon := range codons {
			begin, end := g.CodonRange(codon)
			// Only codons entirely inside the alignment range are translated.
			if begin < calls.AlnStart || end > calls.AlnEnd {
				continue
			}

			refCodon := geneOriented(g, ref[begin:end])
			qryCodon := geneOriented(g, aligned[begin:end])
			refAa := nuc.TranslateCodon(refCodon)
			refCtx, qryCtx := codonContext(g, codon, ref, aligned)

			switch {
			case qryCodon == "---":
				calls.AaDeletions = append(calls.AaDeletions, AaDeletion{
					Gene:         g.Name,
					Codon:        codon,
					RefAa:        Aa(refAa),
					CodonStart:   begin,
					CodonEnd:     end,
					RefContext:   refCtx,
					QueryContext: qryCtx,
				})
			case strings.IndexByte(qryCodon, nuc.Gap) >= 0:
				// Partially deleted codon: the frame is broken and left unresolved.
				continue
			default:
				qryAa := nuc.TranslateCodon(qryCodon)
				if qryAa == nuc.AaUnknown || qryAa == refAa {
					continue
				}
				calls.AaSubstitutions = append(calls.AaSubstitutions, AaSubstitution{
					Gene:         g.Name,
					Codon:        codon,
					RefAa:        Aa(refAa),
					QueryAa:      Aa(qryAa),
					CodonStart:   begin,
					CodonEnd:     end,
					RefContext:   refCtx,
					QueryContext: qryCtx,
				})
			}
		}
	}

	for i := range calls.Substitutions {
		s := &calls.Substitutions[i]
		for _, aa := range calls.AaSubstitutions {
			if s.Pos >= aa.CodonStart && s.Pos < aa.CodonEnd {
				s.AaSubstitutions = append(s.AaSubstitutions, aa)
			}
		}
	}
	for i := range calls.Deletions {
		d := &calls.Deletions[i]
		for _, aa := range calls.AaDeletions {
			if aa.CodonStart < d.End() && d.Start < aa.CodonEnd {
				d.AaDeletions = append(d.AaDeletions, aa)
			}
		}
	}
}

// geneOriented returns s as read along the gene's strand.
func geneOriented(g *dataset.Gene, s string) string {
	if g.IsReverseStrand() {
		return nuc.ReverseComplement(s)
	}
	return s
}

// codonContext returns the reference and query nucleotides of a codon and its
// neighbouring codons within the gene, in gene orientation.
func codonContext(g *dataset.Gene, codon int, ref, aligned string) (string, string) {
	first := max(0, codon-1)
	last := min(g.CodonCount()-1, codon+1)

	b1, e1 := g.CodonRange(first)
	b2, e2 := g.CodonRange(last)
	begin, end := min(b1, b2), max(e1, e2)

	return geneOriented(g, ref[begin:end]), geneOriented(g, aligned[begin:end])
}
