package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGene_CodonAt(t *testing.T) {
	fwd := Gene{Name: "F", Start: 10, End: 20, Strand: StrandForward} // 3 codons + 1 trailing base
	rev := Gene{Name: "R", Start: 10, End: 19, Strand: StrandReverse}

	tests := []struct {
		name string
		gene Gene
		pos  int
		want int
	}{
		{"forward first base", fwd, 10, 0},
		{"forward third base", fwd, 12, 0},
		{"forward second codon", fwd, 13, 1},
		{"forward trailing partial codon", fwd, 19, -1},
		{"forward outside", fwd, 20, -1},
		{"reverse last base is first codon", rev, 18, 0},
		{"reverse first base is last codon", rev, 10, 2},
		{"reverse middle", rev, 14, 1},
		{"reverse before", rev, 9, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.gene.CodonAt(tt.pos))
		})
	}
}

func TestGene_CodonRange(t *testing.T) {
	fwd := Gene{Start: 10, End: 19, Strand: StrandForward}
	begin, end := fwd.CodonRange(1)
	assert.Equal(t, 13, begin)
	assert.Equal(t, 16, end)

	rev := Gene{Start: 10, End: 19, Strand: StrandReverse}
	begin, end = rev.CodonRange(0)
	assert.Equal(t, 16, begin)
	assert.Equal(t, 19, end)
	begin, end = rev.CodonRange(2)
	assert.Equal(t, 10, begin)
	assert.Equal(t, 13, end)
}

func TestGene_Strand(t *testing.T) {
	g := Gene{Strand: StrandReverse}
	assert.True(t, g.IsReverseStrand())
	assert.False(t, g.IsForwardStrand())
	assert.Equal(t, 3, (&Gene{Start: 0, End: 10}).CodonCount())
}
