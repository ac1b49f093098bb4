package project

import (
	"testing"

	"github.com/czcorpus/jointextract/features"
	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/schema"
	"github.com/stretchr/testify/assert"
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

func lineStartsFor(lines []string) []int {
	starts := make([]int, len(lines)+1)
	for i, l := range lines {
		starts[i+1] = starts[i] + len(l) + 1
	}
	return starts
}

func TestProjectTwoRecords(t *testing.T) {
	lines := []string{"Alice 410-111-1111", "Bob 555-222-2222"}
	spans := [][]joint.CandidateSpan{
		{{Start: 0, End: 5}, {Start: 6, End: 18}},
		{{Start: 0, End: 3}, {Start: 4, End: 16}},
	}
	seq := joint.JointSequence{States: []joint.JointState{
		{Boundary: joint.B, Fields: []string{"Name", "Phone"}},
		{Boundary: joint.B, Fields: []string{"Name", "Phone"}},
	}}
	w := schema.Weights{"segment.is_name": 1, "segment.is_phone": 1}
	r := features.NewDefaultRegistry()

	records := Project(lines, spans, seq, w, r, testSchema(), lineStartsFor(lines), nil)
	assert.Len(t, records, 2)
	assert.Equal(t, 0, records[0].StartLine)
	assert.Equal(t, 1, records[1].StartLine)
}

func TestProjectWhitespaceForcedNoise(t *testing.T) {
	lines := []string{"Alice    "}
	spans := [][]joint.CandidateSpan{
		{{Start: 0, End: 5}, {Start: 5, End: 9}},
	}
	seq := joint.JointSequence{States: []joint.JointState{
		{Boundary: joint.B, Fields: []string{"Name", "Name"}, EntityType: "Primary"},
	}}
	w := schema.Weights{"segment.is_name": 1}
	r := features.NewDefaultRegistry()

	records := Project(lines, spans, seq, w, r, testSchema(), lineStartsFor(lines), nil)
	assert.Len(t, records, 1)
	fields := records[0].SubEntities[0].Fields
	assert.Equal(t, "Noise", fields[1].FieldType)
}

func TestProjectFieldContainment(t *testing.T) {
	lines := []string{"Alice 410-111-1111", "cont line", "Bob 555-222-2222"}
	spans := [][]joint.CandidateSpan{
		{{Start: 0, End: 5}, {Start: 6, End: 18}},
		nil,
		{{Start: 0, End: 3}, {Start: 4, End: 16}},
	}
	seq := joint.JointSequence{States: []joint.JointState{
		{Boundary: joint.B, Fields: []string{"Name", "Phone"}},
		{Boundary: joint.C, Fields: nil},
		{Boundary: joint.B, Fields: []string{"Name", "Phone"}},
	}}
	w := schema.Weights{"segment.is_name": 1, "segment.is_phone": 1}
	r := features.NewDefaultRegistry()

	records := Project(lines, spans, seq, w, r, testSchema(), lineStartsFor(lines), nil)
	assert.Len(t, records, 2)
	for _, rec := range records {
		for _, se := range rec.SubEntities {
			for _, f := range se.Fields {
				assert.GreaterOrEqual(t, f.FileStart, rec.FileStart)
				assert.LessOrEqual(t, f.FileEnd, rec.FileEnd)
			}
		}
	}
}
