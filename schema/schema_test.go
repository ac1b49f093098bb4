package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSchema() Schema {
	return Schema{
		NoiseLabel: "Noise",
		Fields: []FieldDef{
			{Name: "Name", MaxAllowed: 1},
			{Name: "Phone", MaxAllowed: 3},
			{Name: "Email", MaxAllowed: 3},
		},
	}
}

func TestSchemaValidate(t *testing.T) {
	assert.NoError(t, testSchema().Validate())

	empty := Schema{}
	assert.Error(t, empty.Validate())

	noNoise := testSchema()
	noNoise.NoiseLabel = ""
	assert.Error(t, noNoise.Validate())

	collide := testSchema()
	collide.Fields = append(collide.Fields, FieldDef{Name: "Noise", MaxAllowed: 1})
	assert.Error(t, collide.Validate())

	dup := testSchema()
	dup.Fields = append(dup.Fields, FieldDef{Name: "Phone", MaxAllowed: 1})
	assert.Error(t, dup.Validate())
}

func TestSchemaFieldLookup(t *testing.T) {
	s := testSchema()

	f, ok := s.Field("Phone")
	assert.True(t, ok)
	assert.True(t, f.Repeatable())
	assert.Equal(t, 3, s.MaxAllowed("Phone"))

	_, ok = s.Field("Noise")
	assert.False(t, ok)
	assert.Equal(t, 1, s.MaxAllowed("Noise"))
	assert.Equal(t, 1, s.MaxAllowed("Unknown"))

	assert.True(t, s.IsKnownLabel("Noise"))
	assert.True(t, s.IsKnownLabel("Name"))
	assert.False(t, s.IsKnownLabel("Bogus"))
}

func TestWeights(t *testing.T) {
	w := make(Weights)
	assert.Equal(t, 0.0, w.Get("segment.is_phone"))
	w.Add("segment.is_phone", 1.5)
	w.Add("segment.is_phone", -0.5)
	assert.Equal(t, 1.0, w.Get("segment.is_phone"))

	clone := w.Clone()
	clone.Add("segment.is_phone", 10)
	assert.Equal(t, 1.0, w.Get("segment.is_phone"))
	assert.Equal(t, 11.0, clone.Get("segment.is_phone"))
}

func TestLabelDict(t *testing.T) {
	d := NewLabelDict(testSchema())
	assert.Equal(t, 4, d.Size())

	noiseID := d.Get("Noise")
	assert.NotZero(t, noiseID)
	assert.Equal(t, "Noise", d.Label(noiseID))

	unknown := d.Get("NeverSeen")
	assert.Zero(t, unknown)
	assert.Equal(t, "", d.Label(unknown))

	// Re-adding an existing label returns the same id.
	again := d.Add("Phone")
	assert.Equal(t, d.Get("Phone"), again)
}
