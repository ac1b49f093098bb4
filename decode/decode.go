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

// Package decode implements the feature-weighted joint Viterbi decoder
// over the per-line state lattice the enumstate package builds
// (spec.md §4.3). The two-pass accumulate/finalize shape (precompute
// per-line emissions, then a single forward sweep with back-pointers)
// is grounded on ptcount/arf.go's ARFCalculator.
package decode

import (
	"strings"

	"github.com/czcorpus/jointextract/enumstate"
	"github.com/czcorpus/jointextract/features"
	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/schema"
	"github.com/czcorpus/jointextract/validation"
)

const (
	defaultBToB   = -0.5
	defaultCToC   = 0.3
	defaultAnyToB = 0.4
	startBias     = 0.75
)

func weightOrDefault(w schema.Weights, id string, def float64) float64 {
	if v, ok := w[id]; ok {
		return v
	}
	return def
}

func transitionScore(prev, cur joint.Boundary, w schema.Weights) float64 {
	switch {
	case prev == joint.B && cur == joint.B:
		return weightOrDefault(w, "transition.B_to_B", defaultBToB)
	case cur == joint.B:
		return weightOrDefault(w, "transition.any_to_B", defaultAnyToB)
	case prev == joint.C && cur == joint.C:
		return weightOrDefault(w, "transition.C_to_C", defaultCToC)
	default:
		return 0
	}
}

// boundaryBase computes Σ w(f_id)·f(ctx_line_t) over every registered
// boundary feature.
func boundaryBase(lines []string, lineIndex int, w schema.Weights, r *features.Registry) float64 {
	ctx := joint.FeatureContext{Lines: lines, LineIndex: lineIndex}
	total := 0.0
	for _, id := range r.BoundaryIDs() {
		fn, _ := r.GetBoundary(id)
		total += w.Get(id) * fn(ctx)
	}
	return total
}

// spanLabelScores computes, for a single candidate span, the
// label-aware f_contribution for every non-noise schema label.
func spanLabelScores(lines []string, lineIndex, spanIndex int, span joint.CandidateSpan, sch schema.Schema, w schema.Weights, r *features.Registry, stats joint.FieldStats) map[string]float64 {
	ctx := joint.FeatureContext{
		Lines: lines, LineIndex: lineIndex, Span: span, SpanIndex: spanIndex, HasSpan: true, Stats: stats,
	}
	exact := validation.Exact10Or11Digits(ctx.SpanText())
	ans := make(map[string]float64, len(sch.Fields))
	for _, fd := range sch.Fields {
		total := 0.0
		for _, id := range r.SegmentIDs() {
			fn, _ := r.GetSegment(id)
			v := fn(ctx)
			total += features.CoupledContribution(id, fd.Name, w.Get(id), v, exact)
		}
		ans[fd.Name] = total
	}
	return ans
}

type lineLattice struct {
	states    []joint.JointState
	emissions []float64
}

func buildLineLattice(lines []string, lineIndex int, spans []joint.CandidateSpan, sch schema.Schema, w schema.Weights, r *features.Registry, enumOpts enumstate.Options, stats joint.FieldStats) lineLattice {
	states := enumstate.EnumerateStates(lineIndex, spans, sch, enumOpts)
	bBase := boundaryBase(lines, lineIndex, w, r)

	perSpan := make([]map[string]float64, len(spans))
	for k, sp := range spans {
		perSpan[k] = spanLabelScores(lines, lineIndex, k, sp, sch, w, r, stats)
	}

	emissions := make([]float64, len(states))
	for i, st := range states {
		fc := 0.0
		for k, label := range st.Fields {
			if label == sch.NoiseLabel {
				continue
			}
			fc += perSpan[k][label]
		}
		bc := bBase
		if st.Boundary != joint.B {
			bc = -bBase
		}
		emissions[i] = bc + fc
	}
	return lineLattice{states: states, emissions: emissions}
}

// Decode runs the joint Viterbi decoder over the whole document.
func Decode(lines []string, spansPerLine [][]joint.CandidateSpan, weights schema.Weights, sch schema.Schema, r *features.Registry, enumOpts enumstate.Options, stats joint.FieldStats) joint.JointSequence {
	n := len(lines)
	if n == 0 {
		return joint.JointSequence{}
	}

	lattices := make([]lineLattice, n)
	for t := 0; t < n; t++ {
		var spans []joint.CandidateSpan
		if t < len(spansPerLine) {
			spans = spansPerLine[t]
		}
		lattices[t] = buildLineLattice(lines, t, spans, sch, weights, r, enumOpts, stats)
	}

	// V[t][i] best score ending at state i on line t; back[t][i] is the
	// chosen predecessor index on line t-1 (-1 on line 0).
	V := make([][]float64, n)
	back := make([][]int, n)

	V[0] = make([]float64, len(lattices[0].states))
	back[0] = make([]int, len(lattices[0].states))
	for i, st := range lattices[0].states {
		bias := 0.0
		if st.Boundary == joint.B && strings.TrimSpace(lines[0]) != "" {
			bias = startBias
		}
		V[0][i] = lattices[0].emissions[i] + bias
		back[0][i] = -1
	}

	for t := 1; t < n; t++ {
		cur := lattices[t]
		prev := lattices[t-1]
		V[t] = make([]float64, len(cur.states))
		back[t] = make([]int, len(cur.states))
		for i, st := range cur.states {
			bestJ := 0
			bestScore := 0.0
			found := false
			for j, pst := range prev.states {
				score := V[t-1][j] + transitionScore(pst.Boundary, st.Boundary, weights) + cur.emissions[i]
				if !found || score > bestScore {
					bestScore = score
					bestJ = j
					found = true
				}
			}
			V[t][i] = bestScore
			back[t][i] = bestJ
		}
	}

	last := n - 1
	bestI := 0
	bestScore := 0.0
	found := false
	for i, v := range V[last] {
		if !found || v > bestScore {
			bestScore = v
			bestI = i
			found = true
		}
	}

	path := make([]joint.JointState, n)
	idx := bestI
	for t := last; t >= 0; t-- {
		path[t] = lattices[t].states[idx]
		if t > 0 {
			idx = back[t][idx]
		}
	}
	return joint.JointSequence{States: path}
}
