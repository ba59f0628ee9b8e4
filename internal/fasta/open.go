package fasta

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
)

// Open opens a FASTA file for reading, transparently decompressing gzip input.
// A path of "-" reads from stdin.
func Open(fs afero.Fs, path string) (io.ReadCloser, error) {
	if path == "-" {
		return maybeGzip(io.NopCloser(os.Stdin))
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fasta file: %w", err)
	}
	return maybeGzip(f)
}

// maybeGzip wraps rc in a gzip reader if the stream starts with the gzip magic number.
func maybeGzip(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		rc.Close()
		return nil, fmt.Errorf("read fasta header: %w", err)
	}

	// Check for gzip magic number (0x1f, 0x8b)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &readCloser{Reader: gz, closers: []io.Closer{gz, rc}}, nil
	}

	return &readCloser{Reader: br, closers: []io.Closer{rc}}, nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ReadFile reads every record of a FASTA file, see ReadAll.
func ReadFile(fs afero.Fs, path string) ([]Record, []*ParseError, error) {
	rc, err := Open(fs, path)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()
	return ReadAll(rc)
}
