// Copyright 2026 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2026 Charles University, Faculty of Arts,
//                Department of Linguistics
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cnf

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/czcorpus/jointextract/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumConfToOptionsAppliesOverrides(t *testing.T) {
	sch := schema.Schema{NoiseLabel: "Noise", Fields: []schema.FieldDef{{Name: "Name"}, {Name: "Phone"}}}
	ec := EnumConf{MaxUniqueFields: 5, MaxStatesPerField: 16, SafePrefix: 3, MaxStates: 4096}
	opts := ec.ToOptions(sch)
	assert.Equal(t, 5, opts.MaxUniqueFields)
	assert.Equal(t, 3, opts.SafePrefix)
	assert.Equal(t, 4096, opts.MaxStates)
	require.Len(t, opts.MaxStatesPerField, 2)
	for _, v := range opts.MaxStatesPerField {
		assert.Equal(t, 16, v)
	}
}

func TestEnumConfToOptionsZeroValueFallsBackToDefaults(t *testing.T) {
	opts := EnumConf{}.ToOptions(schema.Schema{})
	assert.Greater(t, opts.MaxUniqueFields, 0)
	assert.Greater(t, opts.MaxStates, 0)
}

func TestTrainConfNormalizedFillsZeroFields(t *testing.T) {
	tc := TrainConf{}.normalized()
	assert.Equal(t, 0.1, tc.LearningRate)
	assert.Equal(t, 0.05, tc.StabilizationFactor)
}

func TestTrainConfNormalizedKeepsExplicitValues(t *testing.T) {
	tc := TrainConf{LearningRate: 0.3, StabilizationFactor: 0.2}.normalized()
	assert.Equal(t, 0.3, tc.LearningRate)
	assert.Equal(t, 0.2, tc.StabilizationFactor)
}

func TestRunConfValidateRejectsBadSchema(t *testing.T) {
	var c RunConf
	assert.Error(t, c.Validate())
}

func TestRunConfValidateAcceptsGoodSchema(t *testing.T) {
	c := RunConf{Schema: schema.Schema{
		NoiseLabel: "Noise",
		Fields:     []schema.FieldDef{{Name: "Name", MaxAllowed: 1}},
	}}
	assert.NoError(t, c.Validate())
}

func TestLoadConfRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	raw := `{
		"schema": {"noiseLabel": "Noise", "fields": [{"name": "Name", "maxAllowed": 1}]},
		"weights": {"segment.is_name": 1.5},
		"train": {"learningRate": 0.2}
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	conf, err := LoadConf(path)
	require.NoError(t, err)
	assert.Equal(t, "Noise", conf.Schema.NoiseLabel)
	assert.Equal(t, 1.5, conf.Weights["segment.is_name"])
	assert.Equal(t, 0.2, conf.Train.LearningRate)
	assert.Equal(t, 0.05, conf.Train.StabilizationFactor)
}

func TestLoadConfMissingFile(t *testing.T) {
	_, err := LoadConf("/nonexistent/conf.json")
	assert.Error(t, err)
}

func TestLoadConfDefaultsWeightsToEmptyMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema": {"noiseLabel": "Noise"}}`), 0644))

	conf, err := LoadConf(path)
	require.NoError(t, err)
	assert.NotNil(t, conf.Weights)
}

func TestRunConfSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	conf := RunConf{
		Schema:  schema.Schema{NoiseLabel: "Noise", Fields: []schema.FieldDef{{Name: "Name", MaxAllowed: 1}}},
		Weights: schema.Weights{"segment.is_name": 2.5},
	}
	require.NoError(t, conf.Save(path))

	reloaded, err := LoadConf(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, reloaded.Weights["segment.is_name"])
}

func TestDumpTemplateProducesValidJSON(t *testing.T) {
	out, err := DumpTemplate()
	require.NoError(t, err)

	var conf RunConf
	require.NoError(t, json.Unmarshal([]byte(out), &conf))
	assert.Equal(t, "Noise", conf.Schema.NoiseLabel)
	assert.NotEmpty(t, conf.Schema.Fields)
	assert.NoError(t, conf.Validate())
}
