package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/czcorpus/jointextract/enumstate"
	"github.com/czcorpus/jointextract/features"
	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() schema.Schema {
	return schema.Schema{
		NoiseLabel: "Noise",
		Fields: []schema.FieldDef{
			{Name: "Name", MaxAllowed: 1},
			{Name: "Phone", MaxAllowed: 3},
		},
	}
}

func wholeLineSpans(line string) []joint.CandidateSpan {
	if len(line) == 0 {
		return nil
	}
	return []joint.CandidateSpan{{Start: 0, End: len(line)}}
}

func TestDecodeBatchReportsPerJobResult(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc1.txt")
	require.NoError(t, os.WriteFile(path, []byte("Alice\n"), 0644))

	r := features.NewDefaultRegistry()
	weights := schema.Weights{"segment.is_name": 1}
	jobs := []Job{{ID: "doc1", Paths: []string{path}}}

	statusChan, err := DecodeBatch(context.Background(), jobs, testSchema(), weights, r, enumstate.DefaultOptions(), joint.FieldStats{}, wholeLineSpans)
	require.NoError(t, err)

	var results []Status
	for s := range statusChan {
		results = append(results, s)
	}
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Error)
	assert.Equal(t, "doc1", results[0].Job)
	assert.NotEmpty(t, results[0].Records)
}

func TestDecodeBatchReportsMissingFileError(t *testing.T) {
	r := features.NewDefaultRegistry()
	jobs := []Job{{ID: "missing", Paths: []string{"/nonexistent/path.txt"}}}

	statusChan, err := DecodeBatch(context.Background(), jobs, testSchema(), schema.Weights{}, r, enumstate.DefaultOptions(), joint.FieldStats{}, wholeLineSpans)
	require.NoError(t, err)

	var results []Status
	for s := range statusChan {
		results = append(results, s)
	}
	require.Len(t, results, 1)
	assert.Error(t, results[0].Error)
}

func TestDecodeBatchRejectsInvalidSchema(t *testing.T) {
	r := features.NewDefaultRegistry()
	_, err := DecodeBatch(context.Background(), []Job{{ID: "x", Paths: []string{"x"}}}, schema.Schema{}, schema.Weights{}, r, enumstate.DefaultOptions(), joint.FieldStats{}, wholeLineSpans)
	assert.Error(t, err)
}

func TestJobsFromPathSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc1.txt")
	require.NoError(t, os.WriteFile(path, []byte("Alice\n"), 0644))

	jobs, err := JobsFromPath(path)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, []string{path}, jobs[0].Paths)
}

func TestJobsFromPathDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b\n"), 0644))

	jobs, err := JobsFromPath(dir)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestJobsFromPathMissing(t *testing.T) {
	_, err := JobsFromPath("/nonexistent/path")
	assert.Error(t, err)
}
