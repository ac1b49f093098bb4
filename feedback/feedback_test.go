package feedback

import (
	"testing"

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

func testDoc() ([]string, []int) {
	lines := []string{
		"ID1 Alice",
		"Other info 1",
		"Other info 2",
		"Other info 3",
		"Other info 4",
		"Parent: Bob",
	}
	starts := make([]int, len(lines)+1)
	for i, l := range lines {
		starts[i+1] = starts[i] + len(l) + 1
	}
	return lines, starts
}

func TestConstrainRecordForcesBoundaries(t *testing.T) {
	lines, starts := testDoc()
	spans := make([][]joint.CandidateSpan, len(lines))
	fb := joint.Feedback{Entries: []joint.FeedbackEntry{joint.NewRecordFeedback(0, 4)}}

	res := Constrain(lines, spans, starts, fb, testSchema())
	assert.Equal(t, joint.B, res.ForcedBoundaries[0])
	assert.Equal(t, joint.C, res.ForcedBoundaries[1])
	assert.Equal(t, joint.C, res.ForcedBoundaries[4])
	assert.Equal(t, joint.B, res.ForcedBoundaries[5])
}

func TestConstrainRecordEndOfDocumentNoOp(t *testing.T) {
	lines, starts := testDoc()
	spans := make([][]joint.CandidateSpan, len(lines))
	last := len(lines) - 1
	fb := joint.Feedback{Entries: []joint.FeedbackEntry{joint.NewRecordFeedback(last, last)}}

	res := Constrain(lines, spans, starts, fb, testSchema())
	assert.Equal(t, joint.B, res.ForcedBoundaries[last])
	_, hasNext := res.ForcedBoundaries[last+1]
	assert.False(t, hasNext)
}

func TestConstrainFieldToggle(t *testing.T) {
	lines, starts := testDoc()
	spans := make([][]joint.CandidateSpan, len(lines))
	fb := joint.Feedback{Entries: []joint.FeedbackEntry{
		joint.NewFieldFeedback(joint.FieldAdd, 0, 0, 3, "Name"),
		joint.NewFieldFeedback(joint.FieldAdd, 0, 0, 3, "Name"),
	}}
	res := Constrain(lines, spans, starts, fb, testSchema())
	_, ok := res.ForcedLabels[0]
	require.True(t, ok, "a duplicate exact-span assertion replaces, not cancels, the prior one")
	assert.Equal(t, "Name", res.ForcedLabels[0]["0-3"])
}

func TestConstrainFieldRemoveForcesNoise(t *testing.T) {
	lines, starts := testDoc()
	spans := make([][]joint.CandidateSpan, len(lines))
	fb := joint.Feedback{Entries: []joint.FeedbackEntry{
		joint.NewFieldFeedback(joint.FieldRemove, 0, 0, 3, "Name"),
	}}
	res := Constrain(lines, spans, starts, fb, testSchema())
	assert.Equal(t, "Noise", res.ForcedLabels[0]["0-3"])
}

func TestSanitizeIntervalCoversWholeRange(t *testing.T) {
	lines, starts := testDoc()
	spans := make([][]joint.CandidateSpan, len(lines))
	fb := joint.Feedback{Entries: []joint.FeedbackEntry{
		joint.NewSubEntityFeedback(starts[0], starts[1]-1, "Primary"),
	}}
	res := Constrain(lines, spans, starts, fb, testSchema())

	total := 0
	for _, sp := range res.Spans[0] {
		total += sp.Len()
	}
	assert.Equal(t, len(lines[0]), total)
}
