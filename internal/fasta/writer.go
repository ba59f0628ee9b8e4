package fasta

import (
	"bufio"
	"io"
)

// Writer writes FASTA records with fixed-width sequence lines.
type Writer struct {
	w     *bufio.Writer
	width int
}

// NewWriter creates a writer wrapping sequence lines at width characters.
// A width of 0 writes each sequence on a single line.
func NewWriter(w io.Writer, width int) *Writer {
	return &Writer{w: bufio.NewWriter(w), width: width}
}

// Write writes a single record.
func (fw *Writer) Write(name, seq string) error {
	if _, err := fw.w.WriteString(">" + name + "\n"); err != nil {
		return err
	}
	if fw.width <= 0 {
		_, err := fw.w.WriteString(seq + "\n")
		return err
	}
	for start := 0; start < len(seq); start += fw.width {
		end := min(start+fw.width, len(seq))
		if _, err := fw.w.WriteString(seq[start:end] + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (fw *Writer) Flush() error {
	return fw.w.Flush()
}
