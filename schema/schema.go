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

// Package schema defines the user-supplied field schema a document is
// decoded against: an ordered list of fields plus the noise sentinel
// label, and the feature-weight map the decoder/trainer operate on.
package schema

import "fmt"

// FieldDef is a single schema field definition.
type FieldDef struct {
	Name string `json:"name"`

	// MaxAllowed is the max. number of occurrences of this field
	// allowed within a single record. 1 means single-occurrence,
	// >1 means repeatable (e.g. Phone, Email).
	MaxAllowed int `json:"maxAllowed"`
}

func (f FieldDef) Repeatable() bool {
	return f.MaxAllowed > 1
}

// Schema is an ordered field list plus the noise label. Order matters:
// the enumerator and feature iteration both use schema-declared order as
// their tie-break (spec.md §4.2, §5).
type Schema struct {
	NoiseLabel string     `json:"noiseLabel"`
	Fields     []FieldDef `json:"fields"`
}

// Field looks up a field definition by name. ok is false for the noise
// label and for unknown names.
func (s Schema) Field(name string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// IsKnownLabel reports whether name is a declared field or the noise label.
func (s Schema) IsKnownLabel(name string) bool {
	if name == s.NoiseLabel {
		return true
	}
	_, ok := s.Field(name)
	return ok
}

// MaxAllowed returns the cap for name, or 1 if name is the noise label or
// unknown (noise has no occurrence cap enforced upon it - it is never
// counted).
func (s Schema) MaxAllowed(name string) int {
	f, ok := s.Field(name)
	if !ok {
		return 1
	}
	return f.MaxAllowed
}

// Validate returns an error for a schema with no fields or a missing
// noise label - these are precondition violations (spec.md §7: "schema
// with no fields" is a programmer error, not a recoverable one).
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema has no fields")
	}
	if s.NoiseLabel == "" {
		return fmt.Errorf("schema has no noise label")
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema field has empty name")
		}
		if f.Name == s.NoiseLabel {
			return fmt.Errorf("schema field %s collides with noise label", f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate schema field %s", f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// -----------------------------------------------

// Weights maps feature ids to real-valued weights. A missing key
// defaults to 0 (spec.md §3).
type Weights map[string]float64

// Get returns the weight for id, defaulting to 0.
func (w Weights) Get(id string) float64 {
	return w[id]
}

// Add applies a delta to the weight for id, creating the entry if absent.
func (w Weights) Add(id string, delta float64) {
	w[id] += delta
}

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	ans := make(Weights, len(w))
	for k, v := range w {
		ans[k] = v
	}
	return ans
}
