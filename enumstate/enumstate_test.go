package enumstate

import (
	"testing"

	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/schema"
	"github.com/stretchr/testify/assert"
)

func testSchema() schema.Schema {
	return schema.Schema{
		NoiseLabel: "Noise",
		Fields: []schema.FieldDef{
			{Name: "Name", MaxAllowed: 1},
			{Name: "Phone", MaxAllowed: 2},
		},
	}
}

func TestEnumerateEmptySpans(t *testing.T) {
	states := EnumerateStates(0, nil, testSchema(), DefaultOptions())
	assert.Len(t, states, 2)
	boundaries := map[joint.Boundary]bool{}
	for _, s := range states {
		boundaries[s.Boundary] = true
		assert.Empty(t, s.Fields)
	}
	assert.True(t, boundaries[joint.B])
	assert.True(t, boundaries[joint.C])
}

func TestEnumerateForcedBoundary(t *testing.T) {
	opts := DefaultOptions()
	opts.ForcedBoundariesByLine = map[int]joint.Boundary{0: joint.B}
	states := EnumerateStates(0, nil, testSchema(), opts)
	assert.Len(t, states, 1)
	assert.Equal(t, joint.B, states[0].Boundary)
}

func TestEnumerateSingleOccurrenceCap(t *testing.T) {
	spans := []joint.CandidateSpan{{Start: 0, End: 4}, {Start: 5, End: 9}}
	states := EnumerateStates(0, spans, testSchema(), DefaultOptions())
	for _, s := range states {
		nameCount := 0
		for _, f := range s.Fields {
			if f == "Name" {
				nameCount++
			}
		}
		assert.LessOrEqual(t, nameCount, 1)
	}
}

func TestEnumerateWhitespaceForced(t *testing.T) {
	spans := []joint.CandidateSpan{{Start: 0, End: 4}, {Start: 4, End: 5}}
	opts := DefaultOptions()
	opts.WhitespaceSpanIndices = map[int]bool{1: true}
	states := EnumerateStates(0, spans, testSchema(), opts)
	assert.NotEmpty(t, states)
	for _, s := range states {
		assert.Equal(t, "Noise", s.Fields[1])
	}
}

func TestEnumerateForcedLabel(t *testing.T) {
	spans := []joint.CandidateSpan{{Start: 0, End: 4}}
	opts := DefaultOptions()
	opts.ForcedLabelsByLine = map[int]map[string]string{0: {"0-4": "Phone"}}
	states := EnumerateStates(0, spans, testSchema(), opts)
	assert.NotEmpty(t, states)
	for _, s := range states {
		assert.Equal(t, "Phone", s.Fields[0])
	}
}

func TestEnumerateMaxStatesCap(t *testing.T) {
	spans := make([]joint.CandidateSpan, 6)
	for i := range spans {
		spans[i] = joint.CandidateSpan{Start: i * 2, End: i*2 + 1}
	}
	opts := DefaultOptions()
	opts.MaxUniqueFields = 2
	opts.MaxStates = 10
	states := EnumerateStates(0, spans, testSchema(), opts)
	assert.LessOrEqual(t, len(states), 10)
}

func TestEnumerateMaxUniqueFields(t *testing.T) {
	s := schema.Schema{
		NoiseLabel: "Noise",
		Fields: []schema.FieldDef{
			{Name: "A", MaxAllowed: 1},
			{Name: "B", MaxAllowed: 1},
			{Name: "C", MaxAllowed: 1},
		},
	}
	spans := []joint.CandidateSpan{{Start: 0, End: 1}, {Start: 1, End: 2}, {Start: 2, End: 3}}
	opts := DefaultOptions()
	opts.MaxUniqueFields = 1
	states := EnumerateStates(0, spans, s, opts)
	for _, st := range states {
		distinct := map[string]bool{}
		for _, f := range st.Fields {
			if f != "Noise" {
				distinct[f] = true
			}
		}
		assert.LessOrEqual(t, len(distinct), 1)
	}
}
