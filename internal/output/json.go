package output

import (
	"bufio"
	"io"

	"github.com/goccy/go-json"

	"github.com/inodb/vibe-clade/internal/analyze"
)

// SchemaVersion is written at the top of every JSON document.
const SchemaVersion = "1.0.0"

// JSONError is the serialized form of a sequence that failed analysis.
type JSONError struct {
	Index   int    `json:"index"`
	SeqName string `json:"seqName"`
	Stage   string `json:"stage"`
	Error   string `json:"error"`
}

// JSONWriter streams analysis results as a single JSON document:
//
//	{"schemaVersion": "...", "results": [...], "errors": [...]}
//
// Results are written as they arrive; errors are buffered until Close.
type JSONWriter struct {
	w      *bufio.Writer
	n      int
	errs   []JSONError
	closed bool
}

// NewJSONWriter creates a JSON writer. Nothing is written until the first call.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: bufio.NewWriter(w)}
}

func (jw *JSONWriter) writeSeparator() error {
	if jw.n > 0 {
		_, err := jw.w.WriteString(",")
		return err
	}
	return jw.writeHeader()
}

func (jw *JSONWriter) writeHeader() error {
	_, err := jw.w.WriteString(`{"schemaVersion":"` + SchemaVersion + `","results":[`)
	return err
}

// Write appends a result to the results array.
func (jw *JSONWriter) Write(r *analyze.AnalysisResult) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := jw.writeSeparator(); err != nil {
		return err
	}
	jw.n++
	_, err = jw.w.Write(b)
	return err
}

// WriteError records a failed sequence for the errors array.
func (jw *JSONWriter) WriteError(e *analyze.AnalysisError) error {
	jw.errs = append(jw.errs, JSONError{
		Index:   e.Index,
		SeqName: e.SeqName,
		Stage:   e.Stage.String(),
		Error:   e.Err.Error(),
	})
	return nil
}

// Close terminates the document and flushes it. It does not close the
// underlying writer.
func (jw *JSONWriter) Close() error {
	if jw.closed {
		return nil
	}
	jw.closed = true

	if jw.n == 0 {
		if err := jw.writeHeader(); err != nil {
			return err
		}
	}
	errs := jw.errs
	if errs == nil {
		errs = []JSONError{}
	}
	b, err := json.Marshal(errs)
	if err != nil {
		return err
	}
	if _, err := jw.w.WriteString(`],"errors":`); err != nil {
		return err
	}
	if _, err := jw.w.Write(b); err != nil {
		return err
	}
	if _, err := jw.w.WriteString("}\n"); err != nil {
		return err
	}
	return jw.w.Flush()
}
