package dataset

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/inodb/vibe-clade/internal/fasta"
)

// LoadReference reads the reference sequence from the first record of a FASTA
// file. Plain and gzip-compressed files are accepted.
func LoadReference(fs afero.Fs, path string) (name, seq string, err error) {
	rc, err := fasta.Open(fs, path)
	if err != nil {
		return "", "", fmt.Errorf("open reference: %w", err)
	}
	defer rc.Close()

	rec, err := fasta.NewParser(rc).Next()
	if err != nil {
		return "", "", fmt.Errorf("read reference: %w", err)
	}
	if rec == nil {
		return "", "", configErrorf("reference file %s contains no sequence records", path)
	}
	return rec.Name, strings.ToUpper(rec.Sequence), nil
}
