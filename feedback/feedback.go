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

// Package feedback normalizes user corrections into hard decode
// constraints and sanitizes candidate spans (spec.md §4.4). Grounded on
// proc/filter.go's small predicate/transform pipeline shape: a
// chronological sequence of passes, each either passing a value through
// unchanged or replacing it.
package feedback

import (
	"sort"
	"strings"

	"github.com/czcorpus/jointextract/enumstate"
	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/schema"
)

// SubEntityHint is an explicit file-anchored sub-entity assertion the
// projector should prefer over its own computed bounds.
type SubEntityHint struct {
	FileStart  int
	FileEnd    int
	EntityType string
}

// FieldAssertion is a normalized field(action, line, start, end,
// field_type) entry, surfaced so the trainer can drive its
// remove-specific update, targeted nudge, and enforce-asserted loop
// (spec.md §4.6) without re-deriving them from raw Feedback.
type FieldAssertion struct {
	Line       int
	Start      int
	End        int
	FieldType  string
	Action     joint.FieldAction
	Confidence float64
	HasConf    bool
}

// Result is everything the decoder and projector need after
// normalization + sanitization.
type Result struct {
	Spans            [][]joint.CandidateSpan
	ForcedLabels     map[int]map[string]string
	ForcedBoundaries map[int]joint.Boundary
	ForcedEntityType map[int]string
	SafePrefix       int
	SubEntityHints   []SubEntityHint
	FieldAssertions  []FieldAssertion
}

// EnumOptions builds enumstate.Options carrying this result's forced
// maps and revised safe_prefix on top of base.
func (r Result) EnumOptions(base enumstate.Options) enumstate.Options {
	out := base
	out.ForcedLabelsByLine = r.ForcedLabels
	out.ForcedBoundariesByLine = r.ForcedBoundaries
	if r.SafePrefix > out.SafePrefix {
		out.SafePrefix = r.SafePrefix
	}
	return out
}

type recordAssertion struct{ start, end int }

type subEntityAssertion struct {
	fileStart, fileEnd int
	entityType         string
	lineStart, lineEnd int
}

type fieldAssertion struct {
	line       int
	start, end int
	fieldType  string
	action     joint.FieldAction
	confidence float64
	hasConf    bool
}

func overlapsRange(aStart, aEnd, bStart, bEnd int) bool {
	return aStart <= bEnd && bStart <= aEnd
}

func lineOfOffset(lineStarts []int, offset int) int {
	for i := 0; i < len(lineStarts)-1; i++ {
		if offset < lineStarts[i+1] {
			return i
		}
	}
	if len(lineStarts) > 1 {
		return len(lineStarts) - 2
	}
	return 0
}

// Constrain runs the full normalization + sanitization pipeline over fb
// and returns the sanitized spans and forced constraint maps.
func Constrain(lines []string, spansPerLine [][]joint.CandidateSpan, lineStarts []int, fb joint.Feedback, sch schema.Schema) Result {
	var records []recordAssertion
	var subEntities []subEntityAssertion
	fieldsByLine := make(map[int][]fieldAssertion)

	for _, e := range fb.Entries {
		switch e.Kind {
		case joint.FeedbackRecord:
			if e.EndLine < e.StartLine || e.StartLine < 0 || e.EndLine >= len(lines) {
				continue
			}
			kept := records[:0]
			for _, r := range records {
				if !overlapsRange(r.start, r.end, e.StartLine, e.EndLine) {
					kept = append(kept, r)
				}
			}
			records = append(kept, recordAssertion{start: e.StartLine, end: e.EndLine})

		case joint.FeedbackSubEntity:
			if e.FileEnd < e.FileStart {
				continue
			}
			ls := lineOfOffset(lineStarts, e.FileStart)
			le := lineOfOffset(lineStarts, e.FileEnd)
			if ls < 0 || le >= len(lines) || le < ls {
				continue
			}
			kept := subEntities[:0]
			for _, s := range subEntities {
				overlap := overlapsRange(s.fileStart, s.fileEnd, e.FileStart, e.FileEnd)
				if !overlap {
					kept = append(kept, s)
				}
			}
			subEntities = append(kept, subEntityAssertion{
				fileStart: e.FileStart, fileEnd: e.FileEnd, entityType: e.EntityType,
				lineStart: ls, lineEnd: le,
			})

		case joint.FeedbackField:
			if e.LineIndex < 0 || e.LineIndex >= len(lines) || e.End < e.Start {
				continue
			}
			line := fieldsByLine[e.LineIndex]
			kept := line[:0]
			for _, f := range line {
				if f.start == e.Start && f.end == e.End {
					continue // toggle: drop any prior assertion on the same exact span
				}
				if e.Action == joint.FieldAdd && overlapsRange(f.start, f.end, e.Start, e.End) {
					continue // non-overlap enforced only for adds
				}
				kept = append(kept, f)
			}
			fieldsByLine[e.LineIndex] = append(kept, fieldAssertion{
				line: e.LineIndex, start: e.Start, end: e.End, fieldType: e.FieldType,
				action: e.Action, confidence: e.Confidence, hasConf: e.HasConf,
			})
		}
	}

	forcedBoundaries := make(map[int]joint.Boundary)
	forcedLabels := make(map[int]map[string]string)
	forcedEntityType := make(map[int]string)
	maxAssertedSpanEnd := 0

	addForcedLabel := func(line, start, end int, label string) {
		if forcedLabels[line] == nil {
			forcedLabels[line] = make(map[string]string)
		}
		forcedLabels[line][enumstate.SpanKey(joint.CandidateSpan{Start: start, End: end})] = label
		if end > maxAssertedSpanEnd {
			maxAssertedSpanEnd = end
		}
	}

	for _, r := range records {
		forcedBoundaries[r.start] = joint.B
		for i := r.start + 1; i <= r.end; i++ {
			forcedBoundaries[i] = joint.C
		}
		if r.end+1 < len(lines) {
			forcedBoundaries[r.end+1] = joint.B
		}
	}

	hasContainingRecord := func(ls, le int) bool {
		for _, r := range records {
			if r.start <= ls && le <= r.end {
				return true
			}
		}
		return false
	}

	for _, s := range subEntities {
		if !hasContainingRecord(s.lineStart, s.lineEnd) {
			forcedBoundaries[s.lineStart] = joint.B
			for i := s.lineStart + 1; i <= s.lineEnd; i++ {
				forcedBoundaries[i] = joint.C
			}
		}
		for i := s.lineStart; i <= s.lineEnd; i++ {
			forcedEntityType[i] = s.entityType
		}
	}

	for line, assertions := range fieldsByLine {
		for _, a := range assertions {
			label := a.fieldType
			if a.action == joint.FieldRemove {
				label = sch.NoiseLabel
			} else if !sch.IsKnownLabel(label) {
				label = sch.NoiseLabel
			}
			addForcedLabel(line, a.start, a.end, label)
		}
	}

	sanitizedSpans := make([][]joint.CandidateSpan, len(spansPerLine))
	for i, spans := range spansPerLine {
		sanitizedSpans[i] = append([]joint.CandidateSpan(nil), spans...)
	}

	for _, s := range subEntities {
		sanitizeInterval(lines, sanitizedSpans, s.lineStart, s.lineEnd, s.fileStart, s.fileEnd, lineStarts)
	}

	for line, assertions := range fieldsByLine {
		for _, a := range assertions {
			sanitizedSpans[line] = keepCanonicalSpan(sanitizedSpans[line], a.start, a.end)
		}
	}

	hints := make([]SubEntityHint, 0, len(subEntities))
	for _, s := range subEntities {
		hints = append(hints, SubEntityHint{FileStart: s.fileStart, FileEnd: s.fileEnd, EntityType: s.entityType})
	}

	var assertions []FieldAssertion
	for _, line := range fieldsByLine {
		for _, a := range line {
			assertions = append(assertions, FieldAssertion{
				Line: a.line, Start: a.start, End: a.end, FieldType: a.fieldType,
				Action: a.action, Confidence: a.confidence, HasConf: a.hasConf,
			})
		}
	}

	return Result{
		Spans:            sanitizedSpans,
		ForcedLabels:     forcedLabels,
		ForcedBoundaries: forcedBoundaries,
		ForcedEntityType: forcedEntityType,
		SafePrefix:       countSpansUpTo(sanitizedSpans, maxAssertedSpanEnd),
		SubEntityHints:   hints,
		FieldAssertions:  assertions,
	}
}

// keepCanonicalSpan removes every span overlapping [start,end) other than
// an exact match, then ensures [start,end) itself is present.
func keepCanonicalSpan(spans []joint.CandidateSpan, start, end int) []joint.CandidateSpan {
	out := make([]joint.CandidateSpan, 0, len(spans)+1)
	found := false
	for _, sp := range spans {
		if sp.Start == start && sp.End == end {
			found = true
			out = append(out, sp)
			continue
		}
		if overlapsRange(sp.Start, sp.End-1, start, end-1) {
			continue
		}
		out = append(out, sp)
	}
	if !found {
		out = append(out, joint.CandidateSpan{Start: start, End: end})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// sanitizeInterval rebuilds the candidate spans on lines [lineStart,lineEnd]
// within the file-offset interval [fileStart,fileEnd) into a deterministic,
// gap-free, non-overlapping coverage (spec.md §4.4).
func sanitizeInterval(lines []string, spansPerLine [][]joint.CandidateSpan, lineStart, lineEnd, fileStart, fileEnd int, lineStarts []int) {
	for ln := lineStart; ln <= lineEnd && ln < len(lines); ln++ {
		lineLen := len(lines[ln])
		ivStart := 0
		ivEnd := lineLen
		if ln == lineStart {
			ivStart = clampInt(fileStart-lineStarts[ln], 0, lineLen)
		}
		if ln == lineEnd {
			ivEnd = clampInt(fileEnd-lineStarts[ln], 0, lineLen)
		}
		if ivStart >= ivEnd {
			continue
		}

		var covering []joint.CandidateSpan
		var untouched []joint.CandidateSpan
		for _, sp := range spansPerLine[ln] {
			if sp.End <= ivStart || sp.Start >= ivEnd {
				untouched = append(untouched, sp)
				continue
			}
			s := clampInt(sp.Start, ivStart, ivEnd)
			e := clampInt(sp.End, ivStart, ivEnd)
			if s < e {
				covering = append(covering, joint.CandidateSpan{Start: s, End: e})
			}
		}
		if len(covering) == 0 {
			covering = []joint.CandidateSpan{{Start: ivStart, End: ivEnd}}
		}
		sort.Slice(covering, func(i, j int) bool { return covering[i].Start < covering[j].Start })

		filled := fillGaps(covering, ivStart, ivEnd)
		trimmed := trimWhitespaceEdges(filled, lines[ln])
		coalesced := coalesceWhitespace(trimmed, lines[ln])

		result := append([]joint.CandidateSpan(nil), untouched...)
		result = append(result, coalesced...)
		sort.Slice(result, func(i, j int) bool { return result[i].Start < result[j].Start })
		spansPerLine[ln] = result
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func fillGaps(spans []joint.CandidateSpan, ivStart, ivEnd int) []joint.CandidateSpan {
	out := make([]joint.CandidateSpan, 0, len(spans)*2)
	cursor := ivStart
	for _, sp := range spans {
		if sp.Start > cursor {
			out = append(out, joint.CandidateSpan{Start: cursor, End: sp.Start})
		}
		out = append(out, sp)
		cursor = sp.End
	}
	if cursor < ivEnd {
		out = append(out, joint.CandidateSpan{Start: cursor, End: ivEnd})
	}
	return out
}

func trimWhitespaceEdges(spans []joint.CandidateSpan, line string) []joint.CandidateSpan {
	out := make([]joint.CandidateSpan, 0, len(spans)+2)
	for _, sp := range spans {
		text := sp.Text(line)
		if strings.TrimSpace(text) == "" {
			out = append(out, sp)
			continue
		}
		lead := len(text) - len(strings.TrimLeft(text, " \t"))
		trail := len(text) - len(strings.TrimRight(text, " \t"))
		start, end := sp.Start, sp.End
		if lead > 0 {
			out = append(out, joint.CandidateSpan{Start: start, End: start + lead})
			start += lead
		}
		coreEnd := end - trail
		if coreEnd > start {
			out = append(out, joint.CandidateSpan{Start: start, End: coreEnd})
		}
		if trail > 0 {
			out = append(out, joint.CandidateSpan{Start: coreEnd, End: end})
		}
	}
	return out
}

func coalesceWhitespace(spans []joint.CandidateSpan, line string) []joint.CandidateSpan {
	if len(spans) == 0 {
		return spans
	}
	out := make([]joint.CandidateSpan, 0, len(spans))
	cur := spans[0]
	curWS := cur.Text(line) == "" || strings.TrimSpace(cur.Text(line)) == ""
	for _, sp := range spans[1:] {
		spWS := strings.TrimSpace(sp.Text(line)) == ""
		if curWS && spWS && sp.Start == cur.End {
			cur.End = sp.End
			continue
		}
		out = append(out, cur)
		cur = sp
		curWS = spWS
	}
	out = append(out, cur)
	return out
}

func countSpansUpTo(spansPerLine [][]joint.CandidateSpan, maxEnd int) int {
	if maxEnd == 0 {
		return 0
	}
	maxCount := 0
	for _, spans := range spansPerLine {
		count := 0
		for _, sp := range spans {
			if sp.Start < maxEnd {
				count++
			}
		}
		if count > maxCount {
			maxCount = count
		}
	}
	return maxCount
}
