package analyze

import (
	"fmt"
	"sort"

	"github.com/inodb/vibe-clade/internal/dataset"
)

// MatchClades returns every clade whose diagnostic locations all carry the
// required allele, keyed by clade name with the matched locations.
//
// The effective allele at a position is the substitution's query base if one
// was called there, otherwise the reference base. A location without data
// (outside the alignment range, deleted or ambiguous) never matches, so a
// clade with any such location is absent from the result.
func MatchClades(calls *Calls, reference string, clades []dataset.Clade) map[string][]dataset.CladeLocation {
	sites := newSiteView(calls, reference)

	matches := make(map[string][]dataset.CladeLocation)
	for _, clade := range clades {
		if len(clade.Locations) == 0 {
			continue
		}
		matched := true
		for _, loc := range clade.Locations {
			if sites.Status(loc.Pos, loc.Allele) != Match {
				matched = false
				break
			}
		}
		if matched {
			matches[clade.Name] = append([]dataset.CladeLocation(nil), clade.Locations...)
		}
	}
	return matches
}

// siteView resolves the per-position status of one analyzed sequence.
type siteView struct {
	ref        string
	start, end int
	alleles    map[int]byte
	noData     []dataset.Range // sorted, non-overlapping
}

func newSiteView(calls *Calls, ref string) *siteView {
	v := &siteView{
		ref:     ref,
		start:   calls.AlnStart,
		end:     calls.AlnEnd,
		alleles: make(map[int]byte),
	}

	for _, m := range calls.Mutations() {
		switch m := m.(type) {
		case Substitution:
			v.alleles[m.Pos] = byte(m.QueryNuc)
		case Deletion:
			v.noData = append(v.noData, dataset.Range{Start: m.Start, End: m.End()})
		case Insertion:
			// Inserted bases lie between reference positions; every reference
			// allele stays as called.
		default:
			panic(fmt.Sprintf("analyze: unhandled mutation type %T", m))
		}
	}
	for _, r := range calls.Missing {
		v.noData = append(v.noData, dataset.Range{Start: r.Start, End: r.End})
	}
	for _, r := range calls.NonACGTNs {
		v.noData = append(v.noData, dataset.Range{Start: r.Start, End: r.End})
	}
	sort.Slice(v.noData, func(i, j int) bool { return v.noData[i].Start < v.noData[j].Start })

	return v
}

// Status compares the effective allele at pos with the expected one.
func (v *siteView) Status(pos int, allele string) SiteStatus {
	if pos < v.start || pos >= v.end || pos >= len(v.ref) {
		return NoData
	}
	i := sort.Search(len(v.noData), func(i int) bool { return v.noData[i].End > pos })
	if i < len(v.noData) && v.noData[i].Start <= pos {
		return NoData
	}

	effective, ok := v.alleles[pos]
	if !ok {
		effective = v.ref[pos]
	}
	if len(allele) == 1 && allele[0] == effective {
		return Match
	}
	return Mismatch
}

// SiteStatus reports the state of a reference position in the analyzed
// sequence relative to an expected allele.
func (c *Calls) SiteStatus(reference string, pos int, allele string) SiteStatus {
	return newSiteView(c, reference).Status(pos, allele)
}
