package train

import (
	"testing"

	"github.com/czcorpus/jointextract/enumstate"
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
			{Name: "Email", MaxAllowed: 3},
			{Name: "ExtID", MaxAllowed: 1},
		},
	}
}

// TestUpdateFieldRemovalDecreasesWeight covers scenario D: removing a
// field assertion should push the detector weight for that label down
// relative to noise.
func TestUpdateFieldRemovalDecreasesWeight(t *testing.T) {
	lines := []string{"Alice 410-111-1111"}
	spans := [][]joint.CandidateSpan{{{Start: 0, End: 5}, {Start: 6, End: 18}}}
	prior := joint.JointSequence{States: []joint.JointState{{Boundary: joint.B, Fields: []string{"Name", "Phone"}}}}
	r := features.NewDefaultRegistry()
	sch := testSchema()
	weights := schema.Weights{"segment.is_phone": 2.0, "segment.is_name": 1.0}
	before := weights.Get("segment.is_phone")

	fb := joint.Feedback{Entries: []joint.FeedbackEntry{
		joint.NewFieldFeedback(joint.FieldRemove, 0, 6, 18, "Phone"),
	}}

	newWeights, _, _ := Update(lines, spans, prior, fb, weights, r, sch, 0.1, enumstate.DefaultOptions(), 0.05, []int{0, len(lines[0]) + 1})

	assert.Less(t, newWeights.Get("segment.is_phone"), before)
}

// TestUpdateEmailConvergesUnderRepeatedFeedback covers scenario F: with
// adversarial initial weights, repeated add-field feedback for an email
// should converge the decoder toward labeling it Email.
func TestUpdateEmailConvergesUnderRepeatedFeedback(t *testing.T) {
	lines := []string{"alice@example.com"}
	spans := [][]joint.CandidateSpan{{{Start: 0, End: 17}}}
	r := features.NewDefaultRegistry()
	sch := testSchema()
	weights := schema.Weights{"segment.is_email": -1.0, "segment.is_phone": 1.0}
	lineStarts := []int{0, len(lines[0]) + 1}

	prior := joint.JointSequence{States: []joint.JointState{{Boundary: joint.B, Fields: []string{"Noise"}}}}
	fb := joint.Feedback{Entries: []joint.FeedbackEntry{
		joint.NewFieldFeedback(joint.FieldAdd, 0, 0, 17, "Email"),
	}}

	var seq joint.JointSequence
	for i := 0; i < 6; i++ {
		weights, seq, _ = Update(lines, spans, prior, fb, weights, r, sch, 0.2, enumstate.DefaultOptions(), 0.05, lineStarts)
		prior = seq
	}

	assert.Equal(t, "Email", seq.States[0].Fields[0])
}

// TestUpdateStabilizationNeverDecreasesWeight covers invariant 11: the
// stabilization pass only ever adds non-negative deltas.
func TestUpdateStabilizationNeverDecreasesWeight(t *testing.T) {
	lines := []string{"Alice 410-111-1111"}
	spans := [][]joint.CandidateSpan{{{Start: 0, End: 5}, {Start: 6, End: 18}}}
	prior := joint.JointSequence{States: []joint.JointState{{Boundary: joint.B, Fields: []string{"Name", "Phone"}}}}
	r := features.NewDefaultRegistry()
	sch := testSchema()
	weights := schema.Weights{"segment.is_name": 1.0, "segment.is_phone": 1.0}
	before := weights.Clone()

	fb := joint.Feedback{}

	newWeights, _, _ := Update(lines, spans, prior, fb, weights, r, sch, 0.1, enumstate.DefaultOptions(), 0.05, []int{0, len(lines[0]) + 1})

	for k, v := range before {
		assert.GreaterOrEqual(t, newWeights.Get(k), v-1e-9, "weight %s must not decrease during stabilization-only update", k)
	}
}

func TestUpdatePreservesSpanCount(t *testing.T) {
	lines := []string{"Bob 555-222-2222", "cont"}
	spans := [][]joint.CandidateSpan{{{Start: 0, End: 3}, {Start: 4, End: 16}}, nil}
	prior := joint.JointSequence{States: []joint.JointState{
		{Boundary: joint.B, Fields: []string{"Name", "Phone"}},
		{Boundary: joint.C, Fields: nil},
	}}
	r := features.NewDefaultRegistry()
	sch := testSchema()
	weights := schema.Weights{"segment.is_name": 1.0, "segment.is_phone": 1.0}

	fb := joint.Feedback{}
	_, seq, outSpans := Update(lines, spans, prior, fb, weights, r, sch, 0.1, enumstate.DefaultOptions(), 0.05, []int{0, len(lines[0]) + 1, len(lines[0]) + 1 + len(lines[1]) + 1})

	assert.Equal(t, len(lines), seq.Len())
	assert.Equal(t, len(lines), len(outSpans))
}
