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

// Package enumstate produces the bounded catalogue of candidate
// per-line JointStates the decoder's lattice is built from (spec.md
// §4.2). Style grounded on proc/mfscanner.go's small, single-purpose
// iterator with explicit bounds.
package enumstate

import (
	"fmt"

	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/schema"
)

// Options bounds state generation. The zero value is not directly
// usable for MaxUniqueFields/SafePrefix/MaxStates - call DefaultOptions.
type Options struct {
	MaxUniqueFields       int
	MaxStatesPerField     map[string]int
	SafePrefix            int
	MaxStates             int
	WhitespaceSpanIndices map[int]bool
	ForcedLabelsByLine    map[int]map[string]string
	ForcedBoundariesByLine map[int]joint.Boundary
}

// DefaultOptions returns the spec-mandated defaults: max_unique_fields=3,
// safe_prefix=8, max_states=2048, no caps/forced maps.
func DefaultOptions() Options {
	return Options{
		MaxUniqueFields: 3,
		SafePrefix:      8,
		MaxStates:       2048,
	}
}

// SpanKey formats the "start-end" key used by ForcedLabelsByLine and by
// the feedback constrainer when populating it.
func SpanKey(span joint.CandidateSpan) string {
	return fmt.Sprintf("%d-%d", span.Start, span.End)
}

func (o Options) maxAllowedFor(name string, s schema.Schema) int {
	if o.MaxStatesPerField != nil {
		if v, ok := o.MaxStatesPerField[name]; ok {
			return v
		}
	}
	return s.MaxAllowed(name)
}

// EnumerateStates builds the bounded set of candidate JointStates for a
// single line's spans.
func EnumerateStates(lineIndex int, spans []joint.CandidateSpan, s schema.Schema, opts Options) []joint.JointState {
	if opts.MaxUniqueFields == 0 && opts.SafePrefix == 0 && opts.MaxStates == 0 {
		opts = DefaultOptions()
	}

	if len(spans) == 0 {
		return emitBoth(lineIndex, nil, opts)
	}

	prefixLen := len(spans)
	if opts.SafePrefix > 0 && opts.SafePrefix < prefixLen {
		prefixLen = opts.SafePrefix
	}

	forcedForLine := opts.ForcedLabelsByLine[lineIndex]

	fields := make([]string, len(spans))
	for i := prefixLen; i < len(spans); i++ {
		fields[i] = s.NoiseLabel
	}

	var out []joint.JointState
	budget := opts.MaxStates
	if budget <= 0 {
		budget = 1 << 30
	}
	counted := 0

	candidatesForPosition := func(pos int) []string {
		if opts.WhitespaceSpanIndices[pos] {
			return []string{s.NoiseLabel}
		}
		if forcedForLine != nil {
			if label, ok := forcedForLine[SpanKey(spans[pos])]; ok {
				if s.IsKnownLabel(label) {
					return []string{label}
				}
				return []string{s.NoiseLabel}
			}
		}
		ans := make([]string, 0, len(s.Fields)+1)
		for _, f := range s.Fields {
			ans = append(ans, f.Name)
		}
		ans = append(ans, s.NoiseLabel)
		return ans
	}

	occurrences := make(map[string]int, opts.MaxUniqueFields+1)
	distinct := 0

	var backtrack func(pos int) bool
	backtrack = func(pos int) bool {
		if counted >= budget {
			return false
		}
		if pos == prefixLen {
			states := emitBoth(lineIndex, append([]string(nil), fields...), opts)
			for _, st := range states {
				if counted >= budget {
					return false
				}
				out = append(out, st)
				counted++
			}
			return true
		}
		for _, label := range candidatesForPosition(pos) {
			if label != s.NoiseLabel {
				max := opts.maxAllowedFor(label, s)
				if occurrences[label]+1 > max {
					continue
				}
				isNewDistinct := occurrences[label] == 0
				if isNewDistinct && distinct+1 > opts.MaxUniqueFields {
					continue
				}
				occurrences[label]++
				if isNewDistinct {
					distinct++
				}
				fields[pos] = label
				if !backtrack(pos + 1) {
					occurrences[label]--
					if isNewDistinct {
						distinct--
					}
					if counted >= budget {
						return false
					}
					continue
				}
				occurrences[label]--
				if isNewDistinct {
					distinct--
				}
			} else {
				fields[pos] = s.NoiseLabel
				if !backtrack(pos + 1) {
					if counted >= budget {
						return false
					}
					continue
				}
			}
		}
		return true
	}

	backtrack(0)
	return out
}

func emitBoth(lineIndex int, fields []string, opts Options) []joint.JointState {
	if forced, ok := opts.ForcedBoundariesByLine[lineIndex]; ok {
		return []joint.JointState{{Boundary: forced, Fields: fields}}
	}
	return []joint.JointState{
		{Boundary: joint.B, Fields: fields},
		{Boundary: joint.C, Fields: fields},
	}
}
