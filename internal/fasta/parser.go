// Package fasta provides FASTA sequence parsing and writing.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Record is a named raw sequence read from FASTA input.
type Record struct {
	Index    int    // Position of the record in the deduplicated input order
	Name     string // Trimmed header text after '>'
	Sequence string // Concatenated sequence lines with all whitespace removed
}

// Parser reads records from FASTA-formatted input.
//
// Header lines start with '>' and the remainder of the line (trimmed) is the
// record name. Lines starting with ';' are comments. Sequence lines are
// concatenated with all whitespace removed until the next header.
type Parser struct {
	scanner    *bufio.Scanner
	lineNumber int

	// pending header read while finishing the previous record
	pendingName string
	pendingLine int
	hasPending  bool

	errs []*ParseError
}

// NewParser creates a parser reading from r.
func NewParser(r io.Reader) *Parser {
	scanner := bufio.NewScanner(r)
	// Genome sequences are often written on a single line.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)
	return &Parser{scanner: scanner}
}

// Next reads the next record.
// Returns nil, nil when there are no more records. Malformed records are skipped
// and recorded as parse errors, see Errors.
func (p *Parser) Next() (*Record, error) {
	for {
		name, headerLine, ok, err := p.nextHeader()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}

		var seq strings.Builder
		for p.scanner.Scan() {
			p.lineNumber++
			line := p.scanner.Text()
			if strings.HasPrefix(line, ">") {
				p.pendingName = line[1:]
				p.pendingLine = p.lineNumber
				p.hasPending = true
				break
			}
			if strings.HasPrefix(line, ";") {
				continue
			}
			appendStripped(&seq, line)
		}
		if err := p.scanner.Err(); err != nil {
			return nil, fmt.Errorf("scan fasta: %w", err)
		}

		name = strings.TrimSpace(name)
		if name == "" {
			p.errs = append(p.errs, &ParseError{
				Line:    headerLine,
				Message: "empty record name, record dropped",
			})
			continue
		}

		return &Record{Name: name, Sequence: seq.String()}, nil
	}
}

// nextHeader advances to the next header line, reporting sequence data found
// outside of any record.
func (p *Parser) nextHeader() (name string, line int, ok bool, err error) {
	if p.hasPending {
		p.hasPending = false
		return p.pendingName, p.pendingLine, true, nil
	}

	orphan := 0
	for p.scanner.Scan() {
		p.lineNumber++
		text := p.scanner.Text()
		if strings.HasPrefix(text, ">") {
			if orphan > 0 {
				p.errs = append(p.errs, &ParseError{
					Line:    orphan,
					Message: "sequence data before first record header, data dropped",
				})
			}
			return text[1:], p.lineNumber, true, nil
		}
		if orphan == 0 && !strings.HasPrefix(text, ";") && strings.TrimSpace(text) != "" {
			orphan = p.lineNumber
		}
	}
	if err := p.scanner.Err(); err != nil {
		return "", 0, false, fmt.Errorf("scan fasta: %w", err)
	}
	if orphan > 0 {
		p.errs = append(p.errs, &ParseError{
			Line:    orphan,
			Message: "sequence data without record header, data dropped",
		})
	}
	return "", 0, false, nil
}

// Errors returns the recoverable parse errors seen so far.
func (p *Parser) Errors() []*ParseError {
	return p.errs
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// ReadAll reads every record and resolves duplicate names.
//
// Duplicate names are last-wins: the later sequence replaces the earlier one,
// and the record keeps the position of the first occurrence. Empty input yields
// no records and no error.
func ReadAll(r io.Reader) ([]Record, []*ParseError, error) {
	p := NewParser(r)
	var records []Record
	byName := make(map[string]int)

	for {
		rec, err := p.Next()
		if err != nil {
			return nil, p.Errors(), err
		}
		if rec == nil {
			break
		}
		if idx, ok := byName[rec.Name]; ok {
			records[idx].Sequence = rec.Sequence
			continue
		}
		rec.Index = len(records)
		byName[rec.Name] = rec.Index
		records = append(records, *rec)
	}

	return records, p.Errors(), nil
}

// ParseSequences splits raw multi-record text into a name -> sequence mapping.
// Dropped records are reported as parse errors; they never abort parsing.
func ParseSequences(text string) (map[string]string, []*ParseError) {
	// Reading from a strings.Reader cannot fail except on lines longer than
	// the scanner limit, which is reported as a parse error too.
	records, errs, err := ReadAll(strings.NewReader(text))
	if err != nil {
		errs = append(errs, &ParseError{Message: err.Error()})
	}

	seqs := make(map[string]string, len(records))
	for _, r := range records {
		seqs[r.Name] = r.Sequence
	}
	return seqs, errs
}

func appendStripped(b *strings.Builder, line string) {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ', '\t', '\r', '\n', '\v', '\f':
		default:
			b.WriteByte(line[i])
		}
	}
}

// ParseError represents a recoverable error in FASTA input with line context.
// The offending record is dropped and parsing continues.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("fasta parse error: %s", e.Message)
	}
	return fmt.Sprintf("fasta parse error at line %d: %s", e.Line, e.Message)
}
