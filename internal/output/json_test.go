package output

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-clade/internal/align"
	"github.com/inodb/vibe-clade/internal/analyze"
)

type jsonDoc struct {
	SchemaVersion string           `json:"schemaVersion"`
	Results       []map[string]any `json:"results"`
	Errors        []JSONError      `json:"errors"`
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf)

	first := sampleResult()
	second := sampleResult()
	second.Index = 3
	second.SeqName = "sample/2"

	require.NoError(t, w.Write(first))
	require.NoError(t, w.WriteError(&analyze.AnalysisError{
		Index: 1, SeqName: "bad", Stage: analyze.StageAligning,
		Err: &align.AlignmentFailure{Reason: "sequence is empty"},
	}))
	require.NoError(t, w.Write(second))
	require.NoError(t, w.Close())

	var doc jsonDoc
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, SchemaVersion, doc.SchemaVersion)
	require.Len(t, doc.Results, 2)
	assert.Equal(t, "sample/1", doc.Results[0]["seqName"])
	assert.Equal(t, "sample/2", doc.Results[1]["seqName"])
	assert.NotContains(t, doc.Results[0], "aligned")

	subs := doc.Results[0]["substitutions"].([]any)
	require.Len(t, subs, 1)
	sub := subs[0].(map[string]any)
	assert.EqualValues(t, 3, sub["pos"])
	assert.Equal(t, "A", sub["queryNuc"])

	require.Len(t, doc.Errors, 1)
	assert.Equal(t, JSONError{Index: 1, SeqName: "bad", Stage: "aligning", Error: "alignment failed: sequence is empty"}, doc.Errors[0])
}

func TestJSONWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.JSONEq(t, `{"schemaVersion":"1.0.0","results":[],"errors":[]}`, buf.String())
}

func TestAlignedWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewAlignedWriter(&buf)
	r := sampleResult()
	r.Aligned = "..ACG-T."
	require.NoError(t, w.Write(r))
	require.NoError(t, w.Flush())

	assert.Equal(t, ">sample/1\n--ACG-T-\n", buf.String())
}
