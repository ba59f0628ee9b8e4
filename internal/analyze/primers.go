package analyze

import (
	"github.com/inodb/vibe-clade/internal/dataset"
	"github.com/inodb/vibe-clade/internal/nuc"
)

// FindPrimerChanges reports the PCR primers affected by the called mutations.
//
// Every substitution inside a primer footprint gets the primer appended to its
// PcrPrimersChanged, unless the primer carries an ambiguity code at that site
// that still pairs with the query base. The returned list additionally counts
// deletions overlapping a footprint and insertions strictly inside one; it
// contains only primers with at least one change, in primer order.
func FindPrimerChanges(calls *Calls, primers []dataset.PcrPrimer) []PcrPrimerChange {
	for i := range calls.Substitutions {
		s := &calls.Substitutions[i]
		for _, p := range primers {
			if affectsPrimer(p, *s) {
				s.PcrPrimersChanged = append(s.PcrPrimersChanged, p)
			}
		}
	}

	var changes []PcrPrimerChange
	for _, p := range primers {
		change := PcrPrimerChange{Primer: p}
		for _, s := range calls.Substitutions {
			if affectsPrimer(p, s) {
				change.Substitutions = append(change.Substitutions, s)
			}
		}
		for _, d := range calls.Deletions {
			if p.Range.Overlaps(dataset.Range{Start: d.Start, End: d.End()}) {
				change.Deletions = append(change.Deletions, d)
			}
		}
		for _, ins := range calls.Insertions {
			// Inserted bases sit between Pos and Pos+1, both must be in the footprint.
			if ins.Pos >= p.Range.Start && ins.Pos+1 < p.Range.End {
				change.Insertions = append(change.Insertions, ins)
			}
		}
		if len(change.Substitutions) > 0 || len(change.Deletions) > 0 || len(change.Insertions) > 0 {
			changes = append(changes, change)
		}
	}
	return changes
}

func affectsPrimer(p dataset.PcrPrimer, s Substitution) bool {
	if !p.Range.Contains(s.Pos) {
		return false
	}
	site := p.SiteAllele(s.Pos)
	return site == 0 || !nuc.Compatible(site, byte(s.QueryNuc))
}
