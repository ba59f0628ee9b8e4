// Package analyze turns an alignment into called mutations, their amino-acid
// effects, PCR primer impact, QC and clade assignments, and runs that analysis
// over batches of sequences.
package analyze

import (
	"fmt"
	"sort"

	"github.com/inodb/vibe-clade/internal/dataset"
	"github.com/inodb/vibe-clade/internal/qc"
)

// Nuc is a single nucleotide character. It marshals as a one-character string.
type Nuc byte

func (n Nuc) String() string { return string(rune(n)) }

func (n Nuc) MarshalText() ([]byte, error) { return []byte{byte(n)}, nil }

func (n *Nuc) UnmarshalText(b []byte) error {
	if len(b) != 1 {
		return fmt.Errorf("nucleotide must be a single character, got %q", b)
	}
	*n = Nuc(b[0])
	return nil
}

// Aa is a single amino-acid character. It marshals as a one-character string.
type Aa byte

func (a Aa) String() string { return string(rune(a)) }

func (a Aa) MarshalText() ([]byte, error) { return []byte{byte(a)}, nil }

func (a *Aa) UnmarshalText(b []byte) error {
	if len(b) != 1 {
		return fmt.Errorf("amino acid must be a single character, got %q", b)
	}
	*a = Aa(b[0])
	return nil
}

// AaSubstitution is a changed amino acid in a gene.
type AaSubstitution struct {
	Gene         string `json:"gene"`
	Codon        int    `json:"codon"` // 0-based codon index within the gene
	RefAa        Aa     `json:"refAa"`
	QueryAa      Aa     `json:"queryAa"`
	CodonStart   int    `json:"codonStart"` // reference range of the codon
	CodonEnd     int    `json:"codonEnd"`
	RefContext   string `json:"refContext"` // codon with one neighbour codon each side, gene orientation
	QueryContext string `json:"queryContext"`
}

// String formats the change as GENE:RefCodonQuery with a 1-based codon, e.g. S:N501Y.
func (s AaSubstitution) String() string {
	return fmt.Sprintf("%s:%c%d%c", s.Gene, s.RefAa, s.Codon+1, s.QueryAa)
}

// AaDeletion is an amino acid whose codon is entirely deleted.
type AaDeletion struct {
	Gene         string `json:"gene"`
	Codon        int    `json:"codon"`
	RefAa        Aa     `json:"refAa"`
	CodonStart   int    `json:"codonStart"`
	CodonEnd     int    `json:"codonEnd"`
	RefContext   string `json:"refContext"`
	QueryContext string `json:"queryContext"`
}

// String formats the deletion as GENE:RefCodon-, e.g. S:H69-.
func (d AaDeletion) String() string {
	return fmt.Sprintf("%s:%c%d-", d.Gene, d.RefAa, d.Codon+1)
}

// Mutation is a called difference from the reference: a Substitution, a
// Deletion or an Insertion.
type Mutation interface {
	// Position is the first reference position the mutation refers to.
	Position() int
	mutation()
}

// Substitution is a concrete query base differing from the reference.
type Substitution struct {
	Pos      int `json:"pos"` // 0-based reference position
	RefNuc   Nuc `json:"refNuc"`
	QueryNuc Nuc `json:"queryNuc"`

	AaSubstitutions   []AaSubstitution    `json:"aaSubstitutions"`
	// AaDeletions lists fully deleted codons containing the base, so it is
	// empty for every substitution the caller reports.
	AaDeletions       []AaDeletion        `json:"aaDeletions"`
	PcrPrimersChanged []dataset.PcrPrimer `json:"pcrPrimersChanged"`
}

// Deletion is a maximal run of deleted reference positions.
type Deletion struct {
	Start       int          `json:"start"`
	Length      int          `json:"length"`
	AaDeletions []AaDeletion `json:"aaDeletions"`
}

// End returns the first position after the deletion.
func (d Deletion) End() int { return d.Start + d.Length }

// Insertion is a run of query bases between two reference positions.
type Insertion struct {
	Pos int    `json:"pos"` // reference position before the insertion, -1 if before the first base
	Seq string `json:"seq"`
}

func (s Substitution) Position() int { return s.Pos }
func (d Deletion) Position() int     { return d.Start }
func (i Insertion) Position() int    { return i.Pos }

func (Substitution) mutation() {}
func (Deletion) mutation()     {}
func (Insertion) mutation()    {}

// String formats the substitution with a 1-based position, e.g. T4A.
func (s Substitution) String() string {
	return fmt.Sprintf("%c%d%c", s.RefNuc, s.Pos+1, s.QueryNuc)
}

// String formats the deletion as a 1-based inclusive range, e.g. 4-5, or 4 for a single base.
func (d Deletion) String() string {
	if d.Length == 1 {
		return fmt.Sprintf("%d", d.Start+1)
	}
	return fmt.Sprintf("%d-%d", d.Start+1, d.Start+d.Length)
}

// String formats the insertion as 1-based position and bases, e.g. 22204:GAGCCAGAA.
func (i Insertion) String() string {
	return fmt.Sprintf("%d:%s", i.Pos+1, i.Seq)
}

// NucleotideRange is a run of identical characters in the aligned query.
type NucleotideRange struct {
	Start int `json:"start"`
	End   int `json:"end"` // exclusive
	Char  Nuc `json:"char"`
}

// Len returns the number of positions in the range.
func (r NucleotideRange) Len() int { return r.End - r.Start }

// String formats the range as 1-based inclusive positions, e.g. 1-54.
func (r NucleotideRange) String() string {
	if r.Len() == 1 {
		return fmt.Sprintf("%d", r.Start+1)
	}
	return fmt.Sprintf("%d-%d", r.Start+1, r.End)
}

// SiteStatus is the state of one reference position in an analyzed sequence.
type SiteStatus int

const (
	// Match means the query carries the expected allele.
	Match SiteStatus = iota
	// Mismatch means the query carries a different, concrete allele.
	Mismatch
	// NoData means the position is outside the alignment, deleted or ambiguous.
	NoData
)

func (s SiteStatus) String() string {
	switch s {
	case Match:
		return "match"
	case Mismatch:
		return "mismatch"
	case NoData:
		return "no_data"
	default:
		return fmt.Sprintf("SiteStatus(%d)", int(s))
	}
}

// Calls holds everything the mutation caller derives from one alignment.
type Calls struct {
	AlnStart int
	AlnEnd   int

	Substitutions   []Substitution
	Deletions       []Deletion
	Insertions      []Insertion
	AaSubstitutions []AaSubstitution
	AaDeletions     []AaDeletion

	Missing     []NucleotideRange // runs of N
	NonACGTNs   []NucleotideRange // runs of other ambiguity codes
	Composition map[string]int
}

// Mutations lists all substitutions, deletions and insertions ordered by
// position. At equal positions substitutions come first, then deletions,
// then insertions.
func (c *Calls) Mutations() []Mutation {
	muts := make([]Mutation, 0, len(c.Substitutions)+len(c.Deletions)+len(c.Insertions))
	for _, s := range c.Substitutions {
		muts = append(muts, s)
	}
	for _, d := range c.Deletions {
		muts = append(muts, d)
	}
	for _, i := range c.Insertions {
		muts = append(muts, i)
	}
	sort.SliceStable(muts, func(i, j int) bool {
		return muts[i].Position() < muts[j].Position()
	})
	return muts
}

// TotalMissing returns the number of N positions inside the alignment range.
func (c *Calls) TotalMissing() int {
	return totalLen(c.Missing)
}

// TotalNonACGTNs returns the number of ambiguous non-N positions.
func (c *Calls) TotalNonACGTNs() int {
	return totalLen(c.NonACGTNs)
}

func totalLen(ranges []NucleotideRange) int {
	n := 0
	for _, r := range ranges {
		n += r.Len()
	}
	return n
}

// PcrPrimerChange lists the mutations falling inside one primer footprint.
type PcrPrimerChange struct {
	Primer        dataset.PcrPrimer `json:"primer"`
	Substitutions []Substitution    `json:"substitutions"`
	Deletions     []Deletion        `json:"deletions,omitempty"`
	Insertions    []Insertion       `json:"insertions,omitempty"`
}

// AnalysisResult is the outcome of a successfully analyzed sequence.
type AnalysisResult struct {
	Index   int    `json:"index"` // position of the sequence in the input
	SeqName string `json:"seqName"`

	AlignmentStart int `json:"alignmentStart"`
	AlignmentEnd   int `json:"alignmentEnd"`
	AlignmentScore int `json:"alignmentScore"`

	Substitutions   []Substitution   `json:"substitutions"`
	Deletions       []Deletion       `json:"deletions"`
	Insertions      []Insertion      `json:"insertions"`
	AaSubstitutions []AaSubstitution `json:"aaSubstitutions"`
	AaDeletions     []AaDeletion     `json:"aaDeletions"`

	Missing               []NucleotideRange `json:"missing"`
	NonACGTNs             []NucleotideRange `json:"nonACGTNs"`
	NucleotideComposition map[string]int    `json:"nucleotideComposition"`
	PcrPrimerChanges      []PcrPrimerChange `json:"pcrPrimerChanges"`

	TotalSubstitutions    int `json:"totalSubstitutions"`
	TotalDeletions        int `json:"totalDeletions"`
	TotalInsertions       int `json:"totalInsertions"`
	TotalMissing          int `json:"totalMissing"`
	TotalNonACGTNs        int `json:"totalNonACGTNs"`
	TotalAminoacidChanges int `json:"totalAminoacidChanges"`

	Clades map[string][]dataset.CladeLocation `json:"clades"`
	QC     qc.Result                          `json:"qc"`

	// Aligned is the reference-length aligned query; not serialized.
	Aligned string `json:"-"`
}

// CladeNames returns the names of the matched clades in sorted order.
func (r *AnalysisResult) CladeNames() []string {
	names := make([]string, 0, len(r.Clades))
	for name := range r.Clades {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
