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

// Package project converts a decoded JointSequence into the nested
// Record/SubEntity/Field tree with per-span confidences (spec.md §4.5).
// Grounded on proc/attrStack.go's ForEachAttr linear walk, generalized
// from a push/pop nesting stack down to a single left-to-right scan -
// the output hierarchy here is always exactly 3 fixed levels.
package project

import (
	"math"

	"github.com/czcorpus/jointextract/feedback"
	"github.com/czcorpus/jointextract/features"
	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/schema"
	"github.com/czcorpus/jointextract/validation"
	"github.com/rs/zerolog/log"
)

const unknownEntityType = "Unknown"

// Project walks seq and builds the RecordSpan tree. hints may be nil.
func Project(lines []string, spansPerLine [][]joint.CandidateSpan, seq joint.JointSequence, weights schema.Weights, r *features.Registry, sch schema.Schema, lineStarts []int, hints []feedback.SubEntityHint) []joint.RecordSpan {
	if seq.Len() == 0 {
		return nil
	}

	entityTypes := resolveEntityTypes(lines, seq, weights, r)

	var records []joint.RecordSpan
	recordStart := 0
	for i := 1; i <= seq.Len(); i++ {
		atBoundary := i == seq.Len() || seq.States[i].Boundary == joint.B
		if !atBoundary {
			continue
		}
		records = append(records, buildRecord(lines, spansPerLine, seq, entityTypes, weights, r, sch, lineStarts, hints, recordStart, i-1))
		recordStart = i
	}
	return records
}

func buildRecord(lines []string, spansPerLine [][]joint.CandidateSpan, seq joint.JointSequence, entityTypes []string, weights schema.Weights, r *features.Registry, sch schema.Schema, lineStarts []int, hints []feedback.SubEntityHint, start, end int) joint.RecordSpan {
	rec := joint.RecordSpan{StartLine: start, EndLine: end}

	subStart := start
	for i := start + 1; i <= end+1; i++ {
		samGroup := i <= end && entityTypes[i] == entityTypes[subStart]
		if samGroup {
			continue
		}
		if entityTypes[subStart] != unknownEntityType {
			sub := buildSubEntity(lines, spansPerLine, seq, weights, r, sch, lineStarts, hints, subStart, i-1, entityTypes[subStart])
			rec.SubEntities = append(rec.SubEntities, sub)
		}
		subStart = i
	}

	rec.FileStart = lineStarts[start]
	rec.FileEnd = lineEndOffset(lineStarts, lines, end)
	if len(rec.SubEntities) > 0 {
		rec.FileStart = rec.SubEntities[0].FileStart
		last := rec.SubEntities[len(rec.SubEntities)-1]
		rec.FileEnd = last.FileEnd
	}
	return rec
}

func lineEndOffset(lineStarts []int, lines []string, lineIndex int) int {
	return lineStarts[lineIndex] + len(lines[lineIndex])
}

func buildSubEntity(lines []string, spansPerLine [][]joint.CandidateSpan, seq joint.JointSequence, weights schema.Weights, r *features.Registry, sch schema.Schema, lineStarts []int, hints []feedback.SubEntityHint, start, end int, entityType string) joint.SubEntitySpan {
	sub := joint.SubEntitySpan{StartLine: start, EndLine: end, EntityType: entityType}

	minStart := -1
	maxEnd := -1
	for ln := start; ln <= end; ln++ {
		spans := spansPerLine[ln]
		labels := seq.States[ln].Fields
		for k, sp := range spans {
			label := sch.NoiseLabel
			if k < len(labels) {
				label = labels[k]
			}
			fs := buildFieldSpan(lines[ln], ln, lineStarts[ln], sp, k, label, weights, r, sch)
			sub.Fields = append(sub.Fields, fs)
			if fs.FieldType != sch.NoiseLabel {
				if minStart == -1 || fs.FileStart < minStart {
					minStart = fs.FileStart
				}
				if fs.FileEnd > maxEnd {
					maxEnd = fs.FileEnd
				}
			}
		}
	}

	sub.FileStart = lineStarts[start]
	sub.FileEnd = lineEndOffset(lineStarts, lines, end)
	if minStart != -1 {
		sub.FileStart = minStart
		sub.FileEnd = maxEnd
	}
	for _, h := range hints {
		if h.EntityType == entityType && overlaps(h.FileStart, h.FileEnd, sub.FileStart, sub.FileEnd) {
			sub.FileStart = h.FileStart
			sub.FileEnd = h.FileEnd
			break
		}
	}

	for i := range sub.Fields {
		clipFieldToBounds(&sub.Fields[i], lines[sub.Fields[i].LineIndex], sub.FileStart, sub.FileEnd)
		sub.Fields[i].EntityStart = sub.Fields[i].FileStart - sub.FileStart
		sub.Fields[i].EntityEnd = sub.Fields[i].FileEnd - sub.FileStart
	}
	return sub
}

// clipFieldToBounds shrinks fs to [subFileStart, subFileEnd] so every field
// stays within its sub-entity (spec.md §4.5's nesting invariant). Only the
// leading/trailing noise FieldSpans on a sub-entity's first/last line can
// ever fall outside the tightened bounds computed from its non-noise
// fields; this trims them rather than dropping them.
func clipFieldToBounds(fs *joint.FieldSpan, line string, subFileStart, subFileEnd int) {
	if fs.FileStart < subFileStart {
		fs.Start += subFileStart - fs.FileStart
		fs.FileStart = subFileStart
	}
	if fs.FileEnd > subFileEnd {
		fs.End -= fs.FileEnd - subFileEnd
		fs.FileEnd = subFileEnd
	}
	if fs.Start > fs.End {
		fs.Start = fs.End
		fs.FileStart = fs.FileEnd
	}
	fs.Text = line[fs.Start:fs.End]
}

func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

func buildFieldSpan(line string, lineIndex, lineStart int, span joint.CandidateSpan, spanIndex int, label string, weights schema.Weights, r *features.Registry, sch schema.Schema) joint.FieldSpan {
	fieldType := label
	if span.IsWhitespaceOnly(line) {
		fieldType = sch.NoiseLabel
	}

	conf := confidenceFor(line, lineIndex, span, spanIndex, fieldType, weights, r, sch)

	return joint.FieldSpan{
		LineIndex:  lineIndex,
		Start:      span.Start,
		End:        span.End,
		FileStart:  lineStart + span.Start,
		FileEnd:    lineStart + span.End,
		Text:       span.Text(line),
		FieldType:  fieldType,
		Confidence: conf,
	}
}

// confidenceFor implements spec.md §4.5's softmax confidence: score every
// candidate label (schema fields + noise) with the §4.3 label-aware
// weighting, softmax-normalize, return the probability of the assigned
// label. Whitespace-only spans get a decisive noise-dominant score.
func confidenceFor(line string, lineIndex int, span joint.CandidateSpan, spanIndex int, assigned string, weights schema.Weights, r *features.Registry, sch schema.Schema) float64 {
	if weights == nil || len(weights) == 0 {
		return 0.5
	}

	ctx := joint.FeatureContext{Lines: []string{line}, LineIndex: 0, Span: span, SpanIndex: spanIndex, HasSpan: true}
	exact := validation.Exact10Or11Digits(ctx.SpanText())
	whitespace := span.IsWhitespaceOnly(line)

	labels := make([]string, 0, len(sch.Fields)+1)
	for _, f := range sch.Fields {
		labels = append(labels, f.Name)
	}
	labels = append(labels, sch.NoiseLabel)

	scores := make([]float64, len(labels))
	for i, lbl := range labels {
		if whitespace {
			if lbl == sch.NoiseLabel {
				scores[i] = 0
			} else {
				scores[i] = -1000
			}
			continue
		}
		total := 0.0
		for _, id := range r.SegmentIDs() {
			fn, _ := r.GetSegment(id)
			v := fn(ctx)
			total += features.CoupledContribution(id, lbl, weights.Get(id), v, exact)
		}
		scores[i] = total
	}

	probs := softmax(scores)
	for i, lbl := range labels {
		if lbl == assigned {
			return probs[i]
		}
	}
	return 0.5
}

func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	sum := 0.0
	exps := make([]float64, len(scores))
	for i, s := range scores {
		exps[i] = math.Exp(s - max)
		sum += exps[i]
	}
	if sum == 0 {
		sum = 1
	}
	for i := range exps {
		exps[i] /= sum
	}
	return exps
}

// resolveEntityTypes returns an EntityType per line: the decoded value
// where present, or a heuristic-assigned one if no state in seq carries
// one at all (spec.md §4.5).
func resolveEntityTypes(lines []string, seq joint.JointSequence, weights schema.Weights, r *features.Registry) []string {
	types := make([]string, seq.Len())
	anySet := false
	for i, st := range seq.States {
		types[i] = st.EntityType
		if st.EntityType != "" {
			anySet = true
		}
	}
	if anySet {
		for i := range types {
			if types[i] == "" {
				types[i] = unknownEntityType
			}
		}
		return types
	}

	primaryFn, _ := r.GetBoundary("line.primary_likely")
	guardianFn, _ := r.GetBoundary("line.guardian_likely")

	tentative := make([]string, len(lines))
	for i := range lines {
		ctx := joint.FeatureContext{Lines: lines, LineIndex: i}
		primary := 0.0
		guardian := 0.0
		if primaryFn != nil {
			primary = primaryFn(ctx)
		}
		if guardianFn != nil {
			guardian = guardianFn(ctx)
		}
		switch {
		case guardian >= 0.5 && guardian >= primary:
			tentative[i] = "Guardian"
		case primary >= 0.5:
			tentative[i] = "Primary"
		default:
			tentative[i] = unknownEntityType
		}
	}

	for i, t := range tentative {
		if t != "Guardian" {
			continue
		}
		if !hasPrimaryNearby(tentative, i) {
			log.Warn().Int("line", i).Msg("Guardian entity type heuristically tentative with no Primary sub-entity within reach; downgrading to Unknown")
			tentative[i] = unknownEntityType
		}
	}
	return tentative
}

func hasPrimaryNearby(tentative []string, i int) bool {
	for j := i - 3; j <= i+1; j++ {
		if j < 0 || j >= len(tentative) || j == i {
			continue
		}
		if tentative[j] == "Primary" {
			return true
		}
	}
	return false
}
