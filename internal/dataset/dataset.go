package dataset

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/inodb/vibe-clade/internal/nuc"
)

// Dataset is the validated, immutable configuration shared by every analysis
// of a batch. It is safe for concurrent use.
type Dataset struct {
	reference string
	genes     []Gene
	clades    []Clade
	primers   []PcrPrimer

	geneTree  *IntervalTree
	geneIndex map[string]int
}

// New validates the configuration and builds a Dataset.
// The reference is uppercased; every problem found is reported in one *ConfigError.
func New(reference string, genes []Gene, clades []Clade, primers []PcrPrimer) (*Dataset, error) {
	ref := strings.ToUpper(reference)

	var errs error
	errs = multierr.Append(errs, validateReference(ref))
	if errs != nil {
		// Everything else is checked against the reference length.
		return nil, &ConfigError{Err: errs}
	}
	errs = multierr.Append(errs, validateGenes(len(ref), genes))
	errs = multierr.Append(errs, validateClades(len(ref), clades))
	errs = multierr.Append(errs, validatePrimers(len(ref), primers))
	if errs != nil {
		return nil, &ConfigError{Err: errs}
	}

	d := &Dataset{
		reference: ref,
		genes:     append([]Gene(nil), genes...),
		clades:    append([]Clade(nil), clades...),
		primers:   append([]PcrPrimer(nil), primers...),
		geneIndex: make(map[string]int, len(genes)),
	}
	for i, g := range d.genes {
		d.geneIndex[g.Name] = i
	}
	d.geneTree = BuildIntervalTree(d.genes)

	return d, nil
}

// Reference returns the reference sequence.
func (d *Dataset) Reference() string {
	return d.reference
}

// Genes returns the gene map in configuration order.
func (d *Dataset) Genes() []Gene {
	return d.genes
}

// Gene returns a gene by name, or nil if not found.
func (d *Dataset) Gene(name string) *Gene {
	i, ok := d.geneIndex[name]
	if !ok {
		return nil
	}
	return &d.genes[i]
}

// GenesAt returns the indices (into Genes) of every gene covering pos, in gene-map order.
func (d *Dataset) GenesAt(pos int) []int {
	return d.geneTree.FindOverlaps(pos)
}

// Clades returns the clade definitions in configuration order.
func (d *Dataset) Clades() []Clade {
	return d.clades
}

// Primers returns the located PCR primers.
func (d *Dataset) Primers() []PcrPrimer {
	return d.primers
}

func validateReference(ref string) error {
	if ref == "" {
		return fmt.Errorf("reference sequence is empty")
	}
	for i := 0; i < len(ref); i++ {
		if !nuc.IsValid(ref[i]) {
			return fmt.Errorf("reference sequence: invalid character %q at position %d", ref[i], i)
		}
	}
	return nil
}

func validateGenes(refLen int, genes []Gene) error {
	var errs error
	seen := make(map[string]bool, len(genes))
	byStrand := make(map[Strand][]Gene)

	for _, g := range genes {
		if g.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("gene at [%d, %d): empty name", g.Start, g.End))
			continue
		}
		if seen[g.Name] {
			errs = multierr.Append(errs, fmt.Errorf("gene %q: duplicate name", g.Name))
			continue
		}
		seen[g.Name] = true

		if g.Strand != StrandForward && g.Strand != StrandReverse {
			errs = multierr.Append(errs, fmt.Errorf("gene %q: invalid strand %q", g.Name, g.Strand))
			continue
		}
		if g.Start < 0 || g.End > refLen || g.Start >= g.End {
			errs = multierr.Append(errs, fmt.Errorf("gene %q: range [%d, %d) outside reference of length %d", g.Name, g.Start, g.End, refLen))
			continue
		}
		byStrand[g.Strand] = append(byStrand[g.Strand], g)
	}

	for _, strand := range []Strand{StrandForward, StrandReverse} {
		sg := byStrand[strand]
		sort.SliceStable(sg, func(i, j int) bool { return sg[i].Start < sg[j].Start })
		for i := 1; i < len(sg); i++ {
			if sg[i].Start < sg[i-1].End {
				errs = multierr.Append(errs, fmt.Errorf("genes %q and %q overlap on strand %s", sg[i-1].Name, sg[i].Name, strand))
			}
		}
	}
	return errs
}

func validateClades(refLen int, clades []Clade) error {
	var errs error
	seen := make(map[string]bool, len(clades))

	for _, c := range clades {
		if c.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("clade with empty name"))
			continue
		}
		if seen[c.Name] {
			errs = multierr.Append(errs, fmt.Errorf("clade %q: duplicate name", c.Name))
			continue
		}
		seen[c.Name] = true

		if len(c.Locations) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("clade %q: no diagnostic locations", c.Name))
		}
		for _, loc := range c.Locations {
			if loc.Pos < 0 || loc.Pos >= refLen {
				errs = multierr.Append(errs, fmt.Errorf("clade %q: position %d outside reference of length %d", c.Name, loc.Pos, refLen))
			}
			if len(loc.Allele) != 1 || !nuc.IsValid(loc.Allele[0]) {
				errs = multierr.Append(errs, fmt.Errorf("clade %q: invalid allele %q at position %d", c.Name, loc.Allele, loc.Pos))
			}
		}
	}
	return errs
}

func validatePrimers(refLen int, primers []PcrPrimer) error {
	var errs error
	for _, p := range primers {
		if p.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("primer at [%d, %d): empty name", p.Range.Start, p.Range.End))
			continue
		}
		if p.Range.Start < 0 || p.Range.End > refLen || p.Range.Start >= p.Range.End {
			errs = multierr.Append(errs, fmt.Errorf("primer %q: range [%d, %d) outside reference of length %d", p.Name, p.Range.Start, p.Range.End, refLen))
		}
	}
	return errs
}
