package output

import (
	"io"

	"github.com/inodb/vibe-clade/internal/align"
	"github.com/inodb/vibe-clade/internal/analyze"
	"github.com/inodb/vibe-clade/internal/fasta"
)

// AlignedWriter writes reference-length aligned sequences as FASTA.
type AlignedWriter struct {
	fw *fasta.Writer
}

// NewAlignedWriter creates an aligned FASTA writer. Sequences are written on a
// single line each.
func NewAlignedWriter(w io.Writer) *AlignedWriter {
	return &AlignedWriter{fw: fasta.NewWriter(w, 0)}
}

// Write writes the aligned sequence of a result. Reference positions not
// covered by the alignment are written as '-'.
func (aw *AlignedWriter) Write(r *analyze.AnalysisResult) error {
	b := []byte(r.Aligned)
	for i := range b {
		if b[i] == align.NoData {
			b[i] = '-'
		}
	}
	return aw.fw.Write(r.SeqName, string(b))
}

// Flush flushes any buffered data to the underlying writer.
func (aw *AlignedWriter) Flush() error {
	return aw.fw.Flush()
}
