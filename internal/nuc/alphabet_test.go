package nuc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReverseComplement(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want string
	}{
		{"simple", "ATGC", "GCAT"},
		{"single base", "A", "T"},
		{"palindrome", "ATAT", "ATAT"},
		{"poly-A", "AAAA", "TTTT"},
		{"lowercase", "atgc", "gcat"},
		{"ambiguity codes", "RYKMN", "NKMRY"},
		{"gap", "A-C", "G-T"},
		{"empty", "", ""},
		{"longer than stack buffer", "ACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTAA",
			"TTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReverseComplement(tt.seq))
		})
	}
}

func TestAlphabetClasses(t *testing.T) {
	assert.True(t, IsACGT('A'))
	assert.False(t, IsACGT('N'))
	assert.False(t, IsACGT('a'))

	assert.True(t, IsAmbiguous('N'))
	assert.True(t, IsAmbiguous('R'))
	assert.False(t, IsAmbiguous('G'))
	assert.False(t, IsAmbiguous('-'))

	assert.True(t, IsValid('y'))
	assert.False(t, IsValid('Z'))
	assert.False(t, IsValid('-'))
}

func TestCompatible(t *testing.T) {
	assert.True(t, Compatible('R', 'A'))
	assert.True(t, Compatible('G', 'R'))
	assert.False(t, Compatible('R', 'C'))
	assert.True(t, Compatible('N', 'T'))
	assert.False(t, Compatible('-', 'A'))
}

func TestExpand(t *testing.T) {
	assert.Equal(t, []byte("AG"), Expand('R'))
	assert.Equal(t, []byte("ACGT"), Expand('N'))
	assert.Equal(t, []byte("T"), Expand('U'))
	assert.Empty(t, Expand('-'))
}

func TestMatchIUPAC(t *testing.T) {
	assert.True(t, MatchIUPAC("ACGYT", "ACGTT"))
	assert.True(t, MatchIUPAC("ACGYT", "ACGCT"))
	assert.False(t, MatchIUPAC("ACGYT", "ACGAT"))
	assert.False(t, MatchIUPAC("ACG", "ACGT"))
}
