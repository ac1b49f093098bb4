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

// Package train implements the online, perceptron-style weight update
// driven by sparse user feedback (spec.md §4.6): gold/predicted
// feature-vector extraction, remove-specific localized updates, targeted
// nudges, an enforce-asserted re-decode loop, boundary nudging, and a
// stabilization pass. Grounded on ptcount/arf.go's two-pass structure
// (a gold-like pass vs. a predicted-like pass feeding one accumulator).
package train

import (
	"regexp"
	"strings"

	"github.com/czcorpus/jointextract/decode"
	"github.com/czcorpus/jointextract/enumstate"
	"github.com/czcorpus/jointextract/feedback"
	"github.com/czcorpus/jointextract/features"
	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/schema"
	"github.com/czcorpus/jointextract/validation"
	"github.com/rs/zerolog/log"
)

const (
	enforceAssertedIterations = 2
	boundaryNudgeIterations   = 5
	removeMissNudge           = -2.0
	targetedNudgeFallback     = 8.0
	boundaryStepCap           = 0.5
)

var (
	phoneNarrow = regexp.MustCompile(`[0-9()+\-.\s]{7,}`)
	emailNarrow = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]{2,}`)
	extidNarrow = regexp.MustCompile(`^[-_#A-Za-z0-9]+$`)
)

// Update runs the full feedback-driven weight update and returns the
// mutated weights, the re-decoded prediction, and the sanitized spans
// the prediction is aligned with.
func Update(
	lines []string,
	origSpansPerLine [][]joint.CandidateSpan,
	priorSeq joint.JointSequence,
	fb joint.Feedback,
	weights schema.Weights,
	r *features.Registry,
	sch schema.Schema,
	learningRate float64,
	enumOpts enumstate.Options,
	stabilizationFactor float64,
	lineStarts []int,
) (schema.Weights, joint.JointSequence, [][]joint.CandidateSpan) {

	cres := feedback.Constrain(lines, origSpansPerLine, lineStarts, fb, sch)
	spansCopy := cres.Spans
	meanConf := meanConfidence(cres.FieldAssertions)

	freeOpts := enumOpts
	freeOpts.ForcedLabelsByLine = nil
	freeOpts.ForcedBoundariesByLine = nil

	goldSeq := buildGoldSequence(lines, spansCopy, origSpansPerLine, priorSeq, cres, sch.NoiseLabel)
	predSeq := decode.Decode(lines, spansCopy, weights, sch, r, freeOpts, joint.FieldStats{})

	vGold := Extract(lines, spansCopy, goldSeq, sch, r)
	vPred := Extract(lines, spansCopy, predSeq, sch, r)
	for _, k := range sortedUnionOfKeys(vGold, vPred) {
		weights.Add(k, learningRate*meanConf*(vGold[k]-vPred[k]))
	}

	for _, a := range cres.FieldAssertions {
		if a.Action == joint.FieldRemove {
			applyRemoveUpdate(lines, origSpansPerLine, weights, r, sch, a, meanConf, learningRate)
		}
	}

	forcedOpts := cres.EnumOptions(enumOpts)
	enforceAssertedLoop(lines, spansCopy, weights, r, sch, forcedOpts, cres, meanConf, learningRate)
	boundaryNudgeLoop(lines, spansCopy, weights, r, sch, freeOpts, cres, meanConf, learningRate)

	finalSeq := decode.Decode(lines, spansCopy, weights, sch, r, forcedOpts, joint.FieldStats{})
	applyDeterministicOverrides(&finalSeq, spansCopy, cres, sch)

	stabilize(lines, spansCopy, origSpansPerLine, priorSeq, finalSeq, cres, weights, r, sch, stabilizationFactor, learningRate)

	return weights, finalSeq, spansCopy
}

func meanConfidence(assertions []feedback.FieldAssertion) float64 {
	sum := 0.0
	n := 0
	for _, a := range assertions {
		if a.HasConf {
			sum += a.Confidence
			n++
		}
	}
	if n == 0 {
		return 1.0
	}
	return sum / float64(n)
}

func priorLabelForSpan(lineIndex int, sp joint.CandidateSpan, origSpans [][]joint.CandidateSpan, priorSeq joint.JointSequence) (string, bool) {
	if lineIndex >= len(origSpans) || lineIndex >= priorSeq.Len() {
		return "", false
	}
	fields := priorSeq.States[lineIndex].Fields
	for i, os := range origSpans[lineIndex] {
		if os.Start == sp.Start && os.End == sp.End && i < len(fields) {
			return fields[i], true
		}
	}
	return "", false
}

func buildGoldSequence(lines []string, spansCopy, origSpans [][]joint.CandidateSpan, priorSeq joint.JointSequence, cres feedback.Result, noiseLabel string) joint.JointSequence {
	states := make([]joint.JointState, len(lines))
	for t := range lines {
		boundary := joint.C
		if b, ok := cres.ForcedBoundaries[t]; ok {
			boundary = b
		} else if t < priorSeq.Len() {
			boundary = priorSeq.States[t].Boundary
		}

		entityType := ""
		if et, ok := cres.ForcedEntityType[t]; ok {
			entityType = et
		} else if t < priorSeq.Len() {
			entityType = priorSeq.States[t].EntityType
		}

		var spans []joint.CandidateSpan
		if t < len(spansCopy) {
			spans = spansCopy[t]
		}
		fields := make([]string, len(spans))
		forcedLine := cres.ForcedLabels[t]
		for k, sp := range spans {
			if forcedLine != nil {
				if lbl, ok := forcedLine[enumstate.SpanKey(sp)]; ok {
					fields[k] = lbl
					continue
				}
			}
			if lbl, ok := priorLabelForSpan(t, sp, origSpans, priorSeq); ok {
				fields[k] = lbl
				continue
			}
			fields[k] = noiseLabel
		}
		states[t] = joint.JointState{Boundary: boundary, Fields: fields, EntityType: entityType}
	}

	for t, et := range cres.ForcedEntityType {
		if et != "Guardian" || hasPrimaryNearby(states, t) {
			continue
		}
		log.Warn().Int("line", t).Msg("Guardian entity type asserted with no Primary sub-entity within reach; applying it unconditionally")
	}
	return joint.JointSequence{States: states}
}

// hasPrimaryNearby mirrors project.Project's own heuristic window (3 lines
// back, 1 line forward) so an asserted Guardian gets the same scrutiny as a
// heuristically tentative one.
func hasPrimaryNearby(states []joint.JointState, i int) bool {
	for j := i - 3; j <= i+1; j++ {
		if j < 0 || j >= len(states) || j == i {
			continue
		}
		if states[j].EntityType == "Primary" {
			return true
		}
	}
	return false
}

func narrowRegionForLabel(text string, label string) (int, int, bool) {
	var re *regexp.Regexp
	switch label {
	case "Phone":
		re = phoneNarrow
	case "Email":
		re = emailNarrow
	case "ExtID":
		if extidNarrow.MatchString(strings.TrimSpace(text)) && !validation.Exact10Or11Digits(text) {
			trimmed := strings.TrimSpace(text)
			start := strings.Index(text, trimmed)
			return start, start + len(trimmed), true
		}
		return 0, 0, false
	default:
		return 0, 0, false
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

func applyRemoveUpdate(lines []string, origSpans [][]joint.CandidateSpan, weights schema.Weights, r *features.Registry, sch schema.Schema, a feedback.FieldAssertion, meanConf, lr float64) {
	if a.Line >= len(origSpans) || a.Line >= len(lines) {
		return
	}
	var target *joint.CandidateSpan
	for _, sp := range origSpans[a.Line] {
		if sp.Start == a.Start && sp.End == a.End {
			cp := sp
			target = &cp
			break
		}
	}
	if target == nil {
		if fid, ok := features.LabelFeature[a.FieldType]; ok {
			weights.Add(fid, removeMissNudge*lr*meanConf)
		}
		return
	}

	line := lines[a.Line]
	text := target.Text(line)
	start, end, ok := narrowRegionForLabel(text, a.FieldType)
	span := *target
	if ok {
		span = joint.CandidateSpan{Start: target.Start + start, End: target.Start + end}
	}

	miniLines := []string{line}
	miniSpans := [][]joint.CandidateSpan{{span}}
	removedSeq := joint.JointSequence{States: []joint.JointState{{Boundary: joint.C, Fields: []string{a.FieldType}}}}
	noiseSeq := joint.JointSequence{States: []joint.JointState{{Boundary: joint.C, Fields: []string{sch.NoiseLabel}}}}

	vRemoved := Extract(miniLines, miniSpans, removedSeq, sch, r)
	vNoise := Extract(miniLines, miniSpans, noiseSeq, sch, r)
	for _, k := range sortedUnionOfKeys(vNoise, vRemoved) {
		weights.Add(k, lr*meanConf*(vNoise[k]-vRemoved[k]))
	}
}

func scoreLabelAt(ctx joint.FeatureContext, label string, exact bool, w schema.Weights, r *features.Registry) float64 {
	total := 0.0
	for _, id := range r.SegmentIDs() {
		fn, _ := r.GetSegment(id)
		v := fn(ctx)
		total += features.CoupledContribution(id, label, w.Get(id), v, exact)
	}
	return total
}

func targetedNudge(lines []string, span joint.CandidateSpan, lineIndex int, spanIndex int, target, current string, weights schema.Weights, r *features.Registry, meanConf, lr float64) {
	featureID, ok := features.LabelFeature[target]
	if !ok {
		return
	}
	ctx := joint.FeatureContext{Lines: lines, LineIndex: lineIndex, Span: span, SpanIndex: spanIndex, HasSpan: true}
	exact := validation.Exact10Or11Digits(ctx.SpanText())

	gap0 := scoreLabelAt(ctx, target, exact, weights, r) - scoreLabelAt(ctx, current, exact, weights, r)
	perturbed := weights.Clone()
	perturbed.Add(featureID, 1)
	gap1 := scoreLabelAt(ctx, target, exact, perturbed, r) - scoreLabelAt(ctx, current, exact, perturbed, r)
	slope := gap1 - gap0

	if slope > 0 {
		needed := -gap0 / slope
		magnitude := needed
		if magnitude < 0.5 {
			magnitude = 0.5
		}
		weights.Add(featureID, magnitude*lr*meanConf)
		return
	}

	for _, id := range r.SegmentIDs() {
		if id == featureID {
			continue
		}
		altPerturbed := weights.Clone()
		altPerturbed.Add(id, 1)
		altGap1 := scoreLabelAt(ctx, target, exact, altPerturbed, r) - scoreLabelAt(ctx, current, exact, altPerturbed, r)
		altSlope := altGap1 - gap0
		if altSlope > 0 {
			needed := -gap0 / altSlope
			magnitude := needed
			if magnitude < 0.5 {
				magnitude = 0.5
			}
			weights.Add(id, magnitude*lr*meanConf)
			return
		}
	}
	weights.Add(featureID, targetedNudgeFallback*lr*meanConf)
}

func enforceAssertedLoop(lines []string, spansCopy [][]joint.CandidateSpan, weights schema.Weights, r *features.Registry, sch schema.Schema, forcedOpts enumstate.Options, cres feedback.Result, meanConf, lr float64) {
	for iter := 0; iter < enforceAssertedIterations; iter++ {
		seq := decode.Decode(lines, spansCopy, weights, sch, r, forcedOpts, joint.FieldStats{})
		changed := false
		for _, a := range cres.FieldAssertions {
			if a.Action == joint.FieldRemove {
				continue
			}
			if a.Line >= len(spansCopy) || a.Line >= seq.Len() {
				continue
			}
			k := indexOfSpan(spansCopy[a.Line], a.Start, a.End)
			if k < 0 || k >= len(seq.States[a.Line].Fields) {
				continue
			}
			decoded := seq.States[a.Line].Fields[k]
			if decoded == a.FieldType {
				continue
			}
			targetedNudge(lines, spansCopy[a.Line][k], a.Line, k, a.FieldType, decoded, weights, r, meanConf, lr)
			changed = true
		}
		if !changed {
			break
		}
	}
}

func indexOfSpan(spans []joint.CandidateSpan, start, end int) int {
	for i, sp := range spans {
		if sp.Start == start && sp.End == end {
			return i
		}
	}
	return -1
}

func boundaryNudgeLoop(lines []string, spansCopy [][]joint.CandidateSpan, weights schema.Weights, r *features.Registry, sch schema.Schema, freeOpts enumstate.Options, cres feedback.Result, meanConf, lr float64) {
	for iter := 0; iter < boundaryNudgeIterations; iter++ {
		seq := decode.Decode(lines, spansCopy, weights, sch, r, freeOpts, joint.FieldStats{})
		changed := false
		for line, desired := range cres.ForcedBoundaries {
			if line >= seq.Len() {
				continue
			}
			observed := seq.States[line].Boundary
			if observed == desired {
				continue
			}
			ctx := joint.FeatureContext{Lines: lines, LineIndex: line}
			desiredSign := -1.0
			if desired == joint.B {
				desiredSign = 1.0
			}
			observedSign := -1.0
			if observed == joint.B {
				observedSign = 1.0
			}
			for _, id := range r.BoundaryIDs() {
				if !strings.HasPrefix(id, "line.") {
					continue
				}
				fn, _ := r.GetBoundary(id)
				v := fn(ctx)
				delta := (desiredSign - observedSign) * v
				if delta > boundaryStepCap {
					delta = boundaryStepCap
				} else if delta < -boundaryStepCap {
					delta = -boundaryStepCap
				}
				weights.Add(id, delta*0.5*lr*meanConf)
			}
			changed = true
		}
		if !changed {
			break
		}
	}
}

func applyDeterministicOverrides(seq *joint.JointSequence, spansCopy [][]joint.CandidateSpan, cres feedback.Result, sch schema.Schema) {
	for line, forced := range cres.ForcedLabels {
		if line >= seq.Len() {
			continue
		}
		for k, sp := range spansCopy[line] {
			if lbl, ok := forced[enumstate.SpanKey(sp)]; ok {
				if k < len(seq.States[line].Fields) {
					seq.States[line].Fields[k] = lbl
				}
			}
		}
	}
	for line, et := range cres.ForcedEntityType {
		if line < seq.Len() {
			seq.States[line].EntityType = et
		}
	}
	for line, b := range cres.ForcedBoundaries {
		if line < seq.Len() {
			seq.States[line].Boundary = b
		}
	}
	for _, a := range cres.FieldAssertions {
		if a.Action != joint.FieldRemove || a.Line >= seq.Len() {
			continue
		}
		k := indexOfSpan(spansCopy[a.Line], a.Start, a.End)
		if k >= 0 && k < len(seq.States[a.Line].Fields) {
			seq.States[a.Line].Fields[k] = sch.NoiseLabel
		}
	}
}

func mentionedInFeedback(line, start, end int, assertions []feedback.FieldAssertion) bool {
	for _, a := range assertions {
		if a.Line == line && a.Start == start && a.End == end {
			return true
		}
	}
	return false
}

func stabilize(lines []string, spansCopy, origSpans [][]joint.CandidateSpan, priorSeq, finalSeq joint.JointSequence, cres feedback.Result, weights schema.Weights, r *features.Registry, sch schema.Schema, stabilizationFactor, lr float64) {
	for t := 0; t < finalSeq.Len() && t < len(spansCopy); t++ {
		fields := finalSeq.States[t].Fields
		for k, sp := range spansCopy[t] {
			if k >= len(fields) {
				continue
			}
			label := fields[k]
			if label == sch.NoiseLabel {
				continue
			}
			if mentionedInFeedback(t, sp.Start, sp.End, cres.FieldAssertions) {
				continue
			}
			priorLabel, ok := priorLabelForSpan(t, sp, origSpans, priorSeq)
			if !ok || priorLabel != label {
				continue
			}
			ctx := joint.FeatureContext{Lines: lines, LineIndex: t, Span: sp, SpanIndex: k, HasSpan: true}
			exact := validation.Exact10Or11Digits(ctx.SpanText())
			for _, id := range r.SegmentIDs() {
				fn, _ := r.GetSegment(id)
				v := fn(ctx)
				contrib := features.CoupledContribution(id, label, 1, v, exact)
				if contrib > 0 {
					weights.Add(id, lr*stabilizationFactor*contrib)
				}
			}
		}
	}
}
