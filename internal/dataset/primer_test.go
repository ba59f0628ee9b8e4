package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrimersCSV(t *testing.T) {
	input := `Country (Institute),Target,Oligonucleotide,Sequence
China (CDC),ORF1ab,ORF1ab-F,CCCTGTGGGTTTTACACTTAA
USA (CDC),N1,2019-nCoV_N1-R, TCTGGTTACTGCCAGTTGAATCTG
,N2,N2-P,acaatttgc ccccagcgcttcag
,,,
`
	primers, err := ParsePrimersCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, primers, 3)

	assert.Equal(t, "China (CDC) ORF1ab-F", primers[0].Name)
	assert.Equal(t, "ORF1ab", primers[0].Target)
	assert.Equal(t, "CCCTGTGGGTTTTACACTTAA", primers[0].Sequence)
	assert.Equal(t, "TCTGGTTACTGCCAGTTGAATCTG", primers[1].Sequence)
	assert.Equal(t, "N2-P", primers[2].Name)
	assert.Equal(t, "ACAATTTGCCCCCAGCGCTTCAG", primers[2].Sequence)
}

func TestParsePrimersCSV_MissingColumns(t *testing.T) {
	_, err := ParsePrimersCSV(strings.NewReader("Name,Target\nx,y\n"))
	assert.Error(t, err)
}

func TestParsePrimersYAML(t *testing.T) {
	input := `primers:
  - {name: P1, range: {start: 2, end: 6}}
  - {name: P2, sequence: acgt}
`
	primers, err := ParsePrimersYAML(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, primers, 2)
	assert.Equal(t, Range{Start: 2, End: 6}, primers[0].Range)
	assert.Equal(t, "ACGT", primers[1].Sequence)
}

func TestLocatePrimers(t *testing.T) {
	//         0123456789012345
	ref := "AAAACCGTTGCAAAAA"

	primers := []PcrPrimer{
		{Name: "forward", Sequence: "CCGT"},
		{Name: "reverse", Sequence: "GCAACG"}, // reverse complement CGTTGC at 5
		{Name: "ambiguous", Sequence: "CYGTT"},
		{Name: "explicit", Range: Range{Start: 0, End: 3}},
		{Name: "absent", Sequence: "GGGGGG"},
		{Name: "empty"},
	}

	located, errs := LocatePrimers(ref, primers)
	require.Len(t, located, 4)
	require.Len(t, errs, 2)

	assert.Equal(t, Range{Start: 4, End: 8}, located[0].Range)
	assert.Equal(t, "CCGT", located[0].RootOriented)

	assert.Equal(t, Range{Start: 5, End: 11}, located[1].Range)
	assert.Equal(t, "CGTTGC", located[1].RootOriented)

	assert.Equal(t, Range{Start: 4, End: 9}, located[2].Range)
	assert.Equal(t, Range{Start: 0, End: 3}, located[3].Range)

	assert.True(t, errors.Is(errs[0], ErrPrimerNotFound))
	assert.Contains(t, errs[1].Error(), "no range and no sequence")
}

func TestPcrPrimer_SiteAllele(t *testing.T) {
	p := PcrPrimer{Name: "p", RootOriented: "CYGT", Range: Range{Start: 4, End: 8}}
	assert.Equal(t, byte('Y'), p.SiteAllele(5))
	assert.Equal(t, byte(0), p.SiteAllele(8))

	noSeq := PcrPrimer{Name: "q", Range: Range{Start: 0, End: 3}}
	assert.Equal(t, byte(0), noSeq.SiteAllele(1))
}

func TestRange(t *testing.T) {
	r := Range{Start: 2, End: 5}
	assert.True(t, r.Contains(2))
	assert.False(t, r.Contains(5))
	assert.True(t, r.Overlaps(Range{Start: 4, End: 10}))
	assert.False(t, r.Overlaps(Range{Start: 5, End: 10}))
}
