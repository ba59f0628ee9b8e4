package nuc

// Amino acid codes with special meaning.
const (
	AaStop    = '*'
	AaUnknown = 'X'
	AaGap     = '-'
)

// Standard genetic code: DNA codon to amino acid (single letter).
var codonTable = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',

	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',

	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',

	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

// TranslateCodon translates a codon to its amino acid.
//
// A fully gapped codon translates to '-'. Codons with ambiguity codes resolve to an
// amino acid only when every expansion encodes the same one (e.g. "CTN" is 'L');
// otherwise, and for partial gaps or invalid characters, the result is 'X'.
func TranslateCodon(codon string) byte {
	if len(codon) != 3 {
		return AaUnknown
	}
	if codon == "---" {
		return AaGap
	}
	if aa, ok := codonTable[codon]; ok {
		return aa
	}

	var aa byte
	var buf [3]byte
	for _, b0 := range Expand(codon[0]) {
		for _, b1 := range Expand(codon[1]) {
			for _, b2 := range Expand(codon[2]) {
				buf[0], buf[1], buf[2] = b0, b1, b2
				got := codonTable[string(buf[:])]
				if aa != 0 && got != aa {
					return AaUnknown
				}
				aa = got
			}
		}
	}
	if aa == 0 {
		return AaUnknown
	}
	return aa
}
