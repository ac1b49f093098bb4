// Copyright 2020 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2020 Charles University, Faculty of Arts,
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

package schema

// LabelDict is a bidirectional map between field label strings and small
// ints. Per spec.md §9 ("a packed enum is faster and clearer than boxed
// strings; keep the string id only at the registry interface"), internal
// per-line label assignment can be carried around as a LabelID; only the
// feature registry and serialization boundary need the string form.
type LabelDict struct {
	counter int
	data    map[string]LabelID
	dataRev map[LabelID]string
}

// LabelID is a packed label enum value. The zero value is reserved: Add
// never returns it, and Get returns it for an unknown label.
type LabelID int

// NewLabelDict builds a dict pre-seeded from a schema so that the noise
// label and all declared fields get stable ids in schema-declared order
// (ties the packed representation to the same deterministic order the
// enumerator and feature iteration use elsewhere).
func NewLabelDict(s Schema) *LabelDict {
	d := &LabelDict{
		data:    make(map[string]LabelID),
		dataRev: make(map[LabelID]string),
	}
	d.Add(s.NoiseLabel)
	for _, f := range s.Fields {
		d.Add(f.Name)
	}
	return d
}

// Add registers label if new and returns its id either way.
func (d *LabelDict) Add(label string) LabelID {
	if v, ok := d.data[label]; ok {
		return v
	}
	d.counter++
	id := LabelID(d.counter)
	d.data[label] = id
	d.dataRev[id] = label
	return id
}

// Get returns the id for an already-registered label, or 0 if unknown.
func (d *LabelDict) Get(label string) LabelID {
	return d.data[label]
}

// Label returns the string for a previously assigned id, or "" if unknown.
func (d *LabelDict) Label(id LabelID) string {
	return d.dataRev[id]
}

// Size returns the number of distinct labels registered.
func (d *LabelDict) Size() int {
	return len(d.data)
}
