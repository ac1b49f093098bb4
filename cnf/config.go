// Copyright 2017 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2017 Charles University, Faculty of Arts,
//                Institute of the Czech National Corpus
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
	"fmt"
	"os"

	"github.com/czcorpus/jointextract/enumstate"
	"github.com/czcorpus/jointextract/lexicon"
	"github.com/czcorpus/jointextract/schema"
	"github.com/czcorpus/jointextract/store"
)

// EnumConf configures the bounded state enumerator (spec.md §4.2). A zero
// value for any field falls back to enumstate.DefaultOptions.
type EnumConf struct {
	MaxUniqueFields   int `json:"maxUniqueFields"`
	MaxStatesPerField int `json:"maxStatesPerField"`
	SafePrefix        int `json:"safePrefix"`
	MaxStates         int `json:"maxStates"`
}

func (ec EnumConf) ToOptions(sch schema.Schema) enumstate.Options {
	opts := enumstate.DefaultOptions()
	if ec.MaxUniqueFields > 0 {
		opts.MaxUniqueFields = ec.MaxUniqueFields
	}
	if ec.MaxStatesPerField > 0 {
		opts.MaxStatesPerField = make(map[string]int, len(sch.Fields))
		for _, f := range sch.Fields {
			opts.MaxStatesPerField[f.Name] = ec.MaxStatesPerField
		}
	}
	if ec.SafePrefix > 0 {
		opts.SafePrefix = ec.SafePrefix
	}
	if ec.MaxStates > 0 {
		opts.MaxStates = ec.MaxStates
	}
	return opts
}

// TrainConf configures the online trainer (spec.md §4.6).
type TrainConf struct {
	LearningRate        float64 `json:"learningRate"`
	StabilizationFactor float64 `json:"stabilizationFactor"`
}

func (tc TrainConf) normalized() TrainConf {
	out := tc
	if out.LearningRate == 0 {
		out.LearningRate = 0.1
	}
	if out.StabilizationFactor == 0 {
		out.StabilizationFactor = 0.05
	}
	return out
}

// RunConf holds the configuration for a single decode/train run: the
// field schema, initial weights, enumerator/trainer options, and the
// optional store/lexicon sub-configs. Mirrors cnf/config.go's VTEConf in
// shape: a flat JSON document loaded once at process start.
type RunConf struct {
	Schema  schema.Schema  `json:"schema"`
	Weights schema.Weights `json:"weights"`

	Enum  EnumConf  `json:"enum"`
	Train TrainConf `json:"train"`

	Store   store.Conf   `json:"store"`
	Lexicon lexicon.Conf `json:"lexicon"`

	Verbosity int `json:"verbosity"`
}

func (c *RunConf) Validate() error {
	if err := c.Schema.Validate(); err != nil {
		return fmt.Errorf("invalid schema in config: %w", err)
	}
	return nil
}

// LoadConf reads and parses a RunConf from confPath.
func LoadConf(confPath string) (*RunConf, error) {
	rawData, err := os.ReadFile(confPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	var conf RunConf
	if err := json.Unmarshal(rawData, &conf); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if conf.Weights == nil {
		conf.Weights = schema.Weights{}
	}
	conf.Train = conf.Train.normalized()
	return &conf, nil
}

// Save writes conf back to confPath, letting the "train" subcommand
// checkpoint updated weights the way vte.go's append command checkpoints
// state into the target database.
func (c *RunConf) Save(confPath string) error {
	out, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	if err := os.WriteFile(confPath, out, 0644); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// DumpTemplate returns a minimal valid JSON config as a string, mirroring
// vte.go's dumpNewConf for the CLI's "template" subcommand.
func DumpTemplate() (string, error) {
	tpl := RunConf{
		Schema: schema.Schema{
			NoiseLabel: "Noise",
			Fields: []schema.FieldDef{
				{Name: "Name", MaxAllowed: 1},
				{Name: "Phone", MaxAllowed: 3},
				{Name: "Email", MaxAllowed: 3},
			},
		},
		Weights: schema.Weights{
			"segment.is_name":  1.0,
			"segment.is_phone": 1.0,
			"segment.is_email": 1.0,
		},
		Enum: EnumConf{
			MaxUniqueFields:   3,
			MaxStatesPerField: 8,
			SafePrefix:        2,
			MaxStates:         2048,
		},
		Train: TrainConf{
			LearningRate:        0.1,
			StabilizationFactor: 0.05,
		},
	}
	out, err := json.MarshalIndent(tpl, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render config template: %w", err)
	}
	return string(out), nil
}
