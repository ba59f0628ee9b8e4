// Package dataset provides the reference data an analysis runs against:
// the reference sequence, gene map, clade definitions and PCR primers.
package dataset

// Strand of a gene relative to the reference sequence.
type Strand string

// Gene strands.
const (
	StrandForward Strand = "+"
	StrandReverse Strand = "-"
)

// Gene represents a coding region of the reference sequence.
type Gene struct {
	Name   string `yaml:"name" json:"name"`
	Start  int    `yaml:"start" json:"start"` // 0-based, inclusive
	End    int    `yaml:"end" json:"end"`     // 0-based, exclusive
	Strand Strand `yaml:"strand" json:"strand"`
}

// IsForwardStrand returns true if the gene is on the forward strand.
func (g *Gene) IsForwardStrand() bool {
	return g.Strand != StrandReverse
}

// IsReverseStrand returns true if the gene is on the reverse strand.
func (g *Gene) IsReverseStrand() bool {
	return g.Strand == StrandReverse
}

// Contains returns true if the given position is within the gene boundaries.
func (g *Gene) Contains(pos int) bool {
	return pos >= g.Start && pos < g.End
}

// Len returns the gene length in nucleotides.
func (g *Gene) Len() int {
	return g.End - g.Start
}

// CodonCount returns the number of complete codons in the gene.
func (g *Gene) CodonCount() int {
	return g.Len() / 3
}

// CodonAt returns the 0-based codon index covering a reference position,
// counted from the 5' end of the gene on its own strand.
// Returns -1 if the position is outside the gene or in a trailing partial codon.
func (g *Gene) CodonAt(pos int) int {
	if !g.Contains(pos) {
		return -1
	}
	var codon int
	if g.IsReverseStrand() {
		codon = (g.End - 1 - pos) / 3
	} else {
		codon = (pos - g.Start) / 3
	}
	if codon >= g.CodonCount() {
		return -1
	}
	return codon
}

// CodonRange returns the half-open reference range [begin, end) of a codon.
func (g *Gene) CodonRange(codon int) (begin, end int) {
	if g.IsReverseStrand() {
		end = g.End - 3*codon
		return end - 3, end
	}
	begin = g.Start + 3*codon
	return begin, begin + 3
}
