package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inodb/vibe-clade/internal/nuc"
)

// Range is a half-open interval [Start, End) of reference positions.
type Range struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

// Contains returns true if pos lies in the range.
func (r Range) Contains(pos int) bool {
	return pos >= r.Start && pos < r.End
}

// Overlaps returns true if the two ranges share at least one position.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

// PcrPrimer is a PCR primer footprint on the reference.
type PcrPrimer struct {
	Name            string `yaml:"name" json:"name"`
	Target          string `yaml:"target,omitempty" json:"target,omitempty"`
	Oligonucleotide string `yaml:"oligonucleotide,omitempty" json:"oligonucleotide,omitempty"`
	Sequence        string `yaml:"sequence,omitempty" json:"sequence,omitempty"` // as published, 5'->3'
	RootOriented    string `yaml:"-" json:"rootOriented,omitempty"`              // primer as it reads along the reference
	Range           Range  `yaml:"range" json:"range"`
}

// SiteAllele returns the primer base at a reference position, in reference
// orientation, or 0 if the primer sequence is unknown or pos is outside it.
func (p *PcrPrimer) SiteAllele(pos int) byte {
	if p.RootOriented == "" || !p.Range.Contains(pos) {
		return 0
	}
	i := pos - p.Range.Start
	if i >= len(p.RootOriented) {
		return 0
	}
	return p.RootOriented[i]
}

// ErrPrimerNotFound is returned when a primer matches nowhere on the reference.
var ErrPrimerNotFound = errors.New("primer not found in reference")

// ParsePrimersCSV parses primers from a comma-separated table with the columns
// "Country (Institute)", "Target", "Oligonucleotide" and "Sequence".
// Primers are returned unlocated; see LocatePrimers.
func ParsePrimersCSV(r io.Reader) ([]PcrPrimer, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read primers header: %w", err)
	}

	cols := map[string]int{"source": -1, "target": -1, "oligonucleotide": -1, "sequence": -1}
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(col))
		switch {
		case strings.HasPrefix(col, "country"):
			cols["source"] = i
		case col == "target", col == "oligonucleotide", col == "sequence":
			cols[col] = i
		}
	}
	if cols["oligonucleotide"] < 0 || cols["sequence"] < 0 {
		return nil, fmt.Errorf("primers table: missing 'Oligonucleotide' or 'Sequence' column")
	}

	field := func(row []string, name string) string {
		i := cols[name]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var primers []PcrPrimer
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read primers: %w", err)
		}
		oligo := field(row, "oligonucleotide")
		if oligo == "" {
			continue
		}
		name := oligo
		if src := field(row, "source"); src != "" {
			name = src + " " + oligo
		}
		primers = append(primers, PcrPrimer{
			Name:            name,
			Target:          field(row, "target"),
			Oligonucleotide: oligo,
			Sequence:        strings.ToUpper(strings.ReplaceAll(field(row, "sequence"), " ", "")),
		})
	}
	return primers, nil
}

type primerFile struct {
	Primers []PcrPrimer `yaml:"primers"`
}

// ParsePrimersYAML parses primers from YAML or JSON. A primer either carries an
// explicit 0-based half-open range or a sequence to be located on the reference.
func ParsePrimersYAML(r io.Reader) ([]PcrPrimer, error) {
	var f primerFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode primers: %w", err)
	}
	for i := range f.Primers {
		f.Primers[i].Sequence = strings.ToUpper(f.Primers[i].Sequence)
	}
	return f.Primers, nil
}

// LocatePrimers finds the footprint of every primer that has a sequence but no
// range. The primer is searched on the reference first as published, then as its
// reverse complement; the leftmost match wins. Ambiguity codes in the primer
// match any compatible reference base.
// Primers that cannot be located are returned separately with their errors.
func LocatePrimers(ref string, primers []PcrPrimer) ([]PcrPrimer, []error) {
	located := make([]PcrPrimer, 0, len(primers))
	var errs []error

	for _, p := range primers {
		if p.Range.End > p.Range.Start {
			if p.RootOriented == "" && len(p.Sequence) == p.Range.End-p.Range.Start {
				p.RootOriented = p.Sequence
			}
			located = append(located, p)
			continue
		}
		if p.Sequence == "" {
			errs = append(errs, fmt.Errorf("primer %q: no range and no sequence", p.Name))
			continue
		}

		found := false
		for _, candidate := range []string{p.Sequence, nuc.ReverseComplement(p.Sequence)} {
			if pos := findIUPAC(ref, candidate); pos >= 0 {
				p.RootOriented = candidate
				p.Range = Range{Start: pos, End: pos + len(candidate)}
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, fmt.Errorf("primer %q: %w", p.Name, ErrPrimerNotFound))
			continue
		}
		located = append(located, p)
	}

	return located, errs
}

// findIUPAC returns the leftmost position where pattern matches seq, or -1.
func findIUPAC(seq, pattern string) int {
	n := len(pattern)
	if n == 0 || n > len(seq) {
		return -1
	}
	for pos := 0; pos+n <= len(seq); pos++ {
		if nuc.MatchIUPAC(pattern, seq[pos:pos+n]) {
			return pos
		}
	}
	return -1
}
