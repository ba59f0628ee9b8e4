// Package output provides analysis result formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-clade/internal/analyze"
)

// TabWriter writes analysis results in tab-delimited format, one row per sequence.
// Positions are 1-based; list columns are comma-separated.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"index",
			"seqName",
			"clade",
			"qc.overallScore",
			"qc.overallStatus",
			"totalSubstitutions",
			"totalDeletions",
			"totalInsertions",
			"totalMissing",
			"totalNonACGTNs",
			"totalAminoacidChanges",
			"substitutions",
			"deletions",
			"insertions",
			"aaSubstitutions",
			"aaDeletions",
			"missing",
			"nonACGTNs",
			"pcrPrimerChanges",
			"alignmentStart",
			"alignmentEnd",
			"alignmentScore",
			"qc.missingData.status",
			"qc.mixedSites.status",
			"qc.snpClusters.status",
			"errors",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single analysis result.
func (tw *TabWriter) Write(r *analyze.AnalysisResult) error {
	q := r.QC

	values := []string{
		strconv.Itoa(r.Index),
		r.SeqName,
		orDash(strings.Join(r.CladeNames(), ",")),
		strconv.FormatFloat(q.OverallScore, 'f', -1, 64),
		string(q.OverallStatus),
		strconv.Itoa(r.TotalSubstitutions),
		strconv.Itoa(r.TotalDeletions),
		strconv.Itoa(r.TotalInsertions),
		strconv.Itoa(r.TotalMissing),
		strconv.Itoa(r.TotalNonACGTNs),
		strconv.Itoa(r.TotalAminoacidChanges),
		joinStrings(r.Substitutions),
		joinStrings(r.Deletions),
		joinStrings(r.Insertions),
		joinStrings(r.AaSubstitutions),
		joinStrings(r.AaDeletions),
		joinStrings(r.Missing),
		joinStrings(r.NonACGTNs),
		formatPrimerChanges(r.PcrPrimerChanges),
		// Alignment range as 1-based inclusive positions
		strconv.Itoa(r.AlignmentStart + 1),
		strconv.Itoa(r.AlignmentEnd),
		strconv.Itoa(r.AlignmentScore),
		"-",
		"-",
		"-",
		"",
	}
	if q.MissingData != nil {
		values[22] = string(q.MissingData.Status)
	}
	if q.MixedSites != nil {
		values[23] = string(q.MixedSites.Status)
	}
	if q.SnpClusters != nil {
		values[24] = string(q.SnpClusters.Status)
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteError writes a row for a sequence that could not be analyzed.
// Every result column is empty; the errors column holds the cause.
func (tw *TabWriter) WriteError(e *analyze.AnalysisError) error {
	values := make([]string, len(tw.columns))
	values[0] = strconv.Itoa(e.Index)
	values[1] = e.SeqName
	values[len(values)-1] = sanitize(e.Error())

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func joinStrings[T fmt.Stringer](items []T) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, ",")
}

// formatPrimerChanges renders changes as "name:T4A;G7C".
func formatPrimerChanges(changes []analyze.PcrPrimerChange) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		muts := make([]string, 0, len(c.Substitutions)+len(c.Deletions)+len(c.Insertions))
		for _, s := range c.Substitutions {
			muts = append(muts, s.String())
		}
		for _, d := range c.Deletions {
			muts = append(muts, "del"+d.String())
		}
		for _, ins := range c.Insertions {
			muts = append(muts, "ins"+ins.String())
		}
		parts = append(parts, c.Primer.Name+":"+strings.Join(muts, ";"))
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sanitize(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ").Replace(s)
}
