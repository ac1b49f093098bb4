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

package train

import (
	"strings"

	"github.com/czcorpus/cnc-gokit/collections"
	"github.com/czcorpus/jointextract/features"
	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/schema"
	"github.com/czcorpus/jointextract/validation"
)

// featureKey is the collections.Comparable wrapper a BinTree sorts
// feature ids by, giving the union-of-supports walk in Update a
// deterministic order without a manual sort (spec.md §5 tie-break rules).
type featureKey struct {
	id string
}

func (k *featureKey) Compare(other collections.Comparable) int {
	o, ok := other.(*featureKey)
	if !ok {
		return -1
	}
	return strings.Compare(k.id, o.id)
}

// Extract is the ground-truth feature-vector accountant (spec.md §4.6):
// a pure function from a (lines, spans, seq) triple to a map of feature
// id -> accumulated raw contribution. It must use exactly the same
// label-aware coupling the decoder's emission scorer uses
// (features.CoupledContribution) or training silently diverges from
// decoding.
func Extract(lines []string, spansPerLine [][]joint.CandidateSpan, seq joint.JointSequence, sch schema.Schema, r *features.Registry) map[string]float64 {
	out := make(map[string]float64)

	for t := 0; t < seq.Len() && t < len(lines); t++ {
		ctxLine := joint.FeatureContext{Lines: lines, LineIndex: t}
		sign := -1.0
		if seq.States[t].Boundary == joint.B {
			sign = 1.0
		}
		for _, id := range r.BoundaryIDs() {
			fn, _ := r.GetBoundary(id)
			out[id] += sign * fn(ctxLine)
		}

		var spans []joint.CandidateSpan
		if t < len(spansPerLine) {
			spans = spansPerLine[t]
		}
		fields := seq.States[t].Fields
		for k, sp := range spans {
			if k >= len(fields) {
				break
			}
			label := fields[k]
			if label == sch.NoiseLabel {
				continue
			}
			ctxSpan := joint.FeatureContext{Lines: lines, LineIndex: t, Span: sp, SpanIndex: k, HasSpan: true}
			exact := validation.Exact10Or11Digits(ctxSpan.SpanText())
			for _, id := range r.SegmentIDs() {
				fn, _ := r.GetSegment(id)
				v := fn(ctxSpan)
				out[id] += features.CoupledContribution(id, label, 1, v, exact)
			}
		}
	}
	return out
}

// sortedUnionOfKeys returns the deterministic, sorted union of a's and
// b's keys via a collections.BinTree.
func sortedUnionOfKeys(a, b map[string]float64) []string {
	tree := new(collections.BinTree[*featureKey])
	tree.UniqValues = true
	for k := range a {
		tree.Add(&featureKey{id: k})
	}
	for k := range b {
		tree.Add(&featureKey{id: k})
	}
	keys := tree.ToSlice()
	ans := make([]string, len(keys))
	for i, k := range keys {
		ans[i] = k.id
	}
	return ans
}
