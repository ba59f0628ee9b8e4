// Package nuc provides the nucleotide alphabet, complementing and codon translation.
package nuc

// Special characters used in aligned sequences.
const (
	Gap = '-'
	N   = 'N'
)

// 4-bit mask per IUPAC code: A=1, C=2, G=4, T=8.
var masks = [256]uint8{
	'A': 1, 'C': 2, 'G': 4, 'T': 8, 'U': 8,
	'R': 1 | 4, 'Y': 2 | 8, 'S': 2 | 4, 'W': 1 | 8,
	'K': 4 | 8, 'M': 1 | 2,
	'B': 2 | 4 | 8, 'D': 1 | 4 | 8, 'H': 1 | 2 | 8, 'V': 1 | 2 | 4,
	'N': 15,

	'a': 1, 'c': 2, 'g': 4, 't': 8, 'u': 8,
	'r': 1 | 4, 'y': 2 | 8, 's': 2 | 4, 'w': 1 | 8,
	'k': 4 | 8, 'm': 1 | 2,
	'b': 2 | 4 | 8, 'd': 1 | 4 | 8, 'h': 1 | 2 | 8, 'v': 1 | 2 | 4,
	'n': 15,
}

var concrete = [4]byte{'A', 'C', 'G', 'T'}

// IsValid reports whether b is an IUPAC nucleotide code (either case).
func IsValid(b byte) bool {
	return masks[b] != 0
}

// IsACGT reports whether b is one of the four concrete bases (uppercase).
func IsACGT(b byte) bool {
	return b == 'A' || b == 'C' || b == 'G' || b == 'T'
}

// IsAmbiguous reports whether b is a valid code that is not a concrete base.
func IsAmbiguous(b byte) bool {
	m := masks[b]
	return m != 0 && m&(m-1) != 0
}

// Compatible reports whether two codes can denote the same base, e.g. 'R' and 'A'.
func Compatible(a, b byte) bool {
	return masks[a]&masks[b] != 0
}

// Expand lists the concrete bases a code stands for, in ACGT order.
func Expand(b byte) []byte {
	m := masks[b]
	out := make([]byte, 0, 4)
	for i, c := range concrete {
		if m&(1<<i) != 0 {
			out = append(out, c)
		}
	}
	return out
}

// ToUpper uppercases an ASCII letter.
func ToUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// Complement returns the complement of a single base, preserving case.
// Ambiguity codes map to their complementary code; anything else maps to itself.
func Complement(base byte) byte {
	switch base {
	case 'A':
		return 'T'
	case 'T', 'U':
		return 'A'
	case 'G':
		return 'C'
	case 'C':
		return 'G'
	case 'R':
		return 'Y'
	case 'Y':
		return 'R'
	case 'K':
		return 'M'
	case 'M':
		return 'K'
	case 'B':
		return 'V'
	case 'V':
		return 'B'
	case 'D':
		return 'H'
	case 'H':
		return 'D'
	case 'a':
		return 't'
	case 't', 'u':
		return 'a'
	case 'g':
		return 'c'
	case 'c':
		return 'g'
	default:
		// S, W, N, gaps and sentinels are their own complement.
		return base
	}
}

// ReverseComplement returns the reverse complement of a sequence.
func ReverseComplement(seq string) string {
	n := len(seq)
	// Stack-allocate for codons and primers.
	var buf [64]byte
	var result []byte
	if n <= len(buf) {
		result = buf[:n]
	} else {
		result = make([]byte, n)
	}
	for i := 0; i < n; i++ {
		result[i] = Complement(seq[n-1-i])
	}
	return string(result)
}

// MatchIUPAC reports whether window matches pattern position by position,
// treating ambiguity codes on either side as sets of bases.
func MatchIUPAC(pattern, window string) bool {
	if len(pattern) != len(window) {
		return false
	}
	for i := 0; i < len(pattern); i++ {
		if !Compatible(pattern[i], window[i]) {
			return false
		}
	}
	return true
}
