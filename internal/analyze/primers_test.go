package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-clade/internal/dataset"
)

func TestFindPrimerChanges_Substitutions(t *testing.T) {
	const ref = "ACGTACGTACGT"
	calls := callsFor(t, ref, fullAlignment("ACGAACGTACGA"))

	primers := []dataset.PcrPrimer{
		{Name: "p1", Range: dataset.Range{Start: 2, End: 6}},
		{Name: "p2", Range: dataset.Range{Start: 0, End: 4}},
		{Name: "p3", Range: dataset.Range{Start: 5, End: 9}},
	}
	changes := FindPrimerChanges(calls, primers)

	require.Len(t, calls.Substitutions, 2)
	assert.Equal(t, []string{"p1", "p2"}, primerNames(calls.Substitutions[0].PcrPrimersChanged))
	assert.Empty(t, calls.Substitutions[1].PcrPrimersChanged)

	require.Len(t, changes, 2)
	assert.Equal(t, "p1", changes[0].Primer.Name)
	assert.Equal(t, "p2", changes[1].Primer.Name)
	require.Len(t, changes[0].Substitutions, 1)
	assert.Equal(t, 3, changes[0].Substitutions[0].Pos)
}

func TestFindPrimerChanges_CompatiblePrimerSite(t *testing.T) {
	const ref = "ACGTACGT"
	calls := callsFor(t, ref, fullAlignment("ACGCACGT"))

	primers := []dataset.PcrPrimer{
		// Y pairs with both C and T
		{Name: "degenerate", RootOriented: "GYA", Range: dataset.Range{Start: 2, End: 5}},
		{Name: "strict", RootOriented: "GTA", Range: dataset.Range{Start: 2, End: 5}},
	}
	changes := FindPrimerChanges(calls, primers)

	require.Len(t, changes, 1)
	assert.Equal(t, "strict", changes[0].Primer.Name)
	assert.Equal(t, []string{"strict"}, primerNames(calls.Substitutions[0].PcrPrimersChanged))
}

func TestFindPrimerChanges_DeletionsAndInsertions(t *testing.T) {
	calls := &Calls{
		Deletions:  []Deletion{{Start: 8, Length: 3}},
		Insertions: []Insertion{{Pos: 3, Seq: "A"}, {Pos: 5, Seq: "T"}, {Pos: 20, Seq: "G"}},
	}
	primers := []dataset.PcrPrimer{
		{Name: "a", Range: dataset.Range{Start: 2, End: 6}},
		{Name: "b", Range: dataset.Range{Start: 10, End: 14}},
		{Name: "c", Range: dataset.Range{Start: 30, End: 34}},
	}
	changes := FindPrimerChanges(calls, primers)

	require.Len(t, changes, 2)
	assert.Equal(t, "a", changes[0].Primer.Name)
	assert.Equal(t, []Insertion{{Pos: 3, Seq: "A"}}, changes[0].Insertions, "insertion after the last primer base is outside")
	assert.Empty(t, changes[0].Deletions)

	assert.Equal(t, "b", changes[1].Primer.Name)
	assert.Equal(t, []Deletion{{Start: 8, Length: 3}}, changes[1].Deletions)
}

func primerNames(primers []dataset.PcrPrimer) []string {
	names := make([]string, len(primers))
	for i, p := range primers {
		names[i] = p.Name
	}
	return names
}
