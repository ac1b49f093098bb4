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

// Package spans is the default Candidate Span Generator the CLI feeds
// the core with (spec.md §6 describes this role only by contract, as an
// external collaborator). It splits each line on a delimiter regex into
// an ordered, non-overlapping run of {start, end} intervals, including
// the delimiter runs themselves as whitespace-only spans so the core's
// noise-forcing rules (spec.md §4.4, §4.5) have something to act on.
package spans

import (
	"regexp"

	"github.com/czcorpus/jointextract/joint"
)

// Options bounds span generation, mirroring spec.md §6's "delimiter
// regex, minimum token length, max parts per line, max spans per line".
type Options struct {
	Delimiter       *regexp.Regexp
	MinTokenLength  int
	MaxPartsPerLine int
	MaxSpansPerLine int
}

// DefaultOptions splits on runs of tab/space, with no token-length floor
// and no caps - a generous default the enumerator's own caps still bound.
func DefaultOptions() Options {
	return Options{
		Delimiter:      regexp.MustCompile(`[ \t]+`),
		MinTokenLength: 1,
	}
}

// Generate produces the ordered candidate spans for a single line: each
// non-delimiter run at least MinTokenLength long becomes a span, and
// (unlike a plain tokenizer) each delimiter run is also kept as its own
// span so the caller's feedback/enumeration can see - and force to
// noise - the whitespace between tokens rather than silently dropping it.
func Generate(line string, opts Options) []joint.CandidateSpan {
	if opts.Delimiter == nil {
		opts = DefaultOptions()
	}
	if line == "" {
		return nil
	}

	var spans []joint.CandidateSpan
	pos := 0
	matches := opts.Delimiter.FindAllStringIndex(line, -1)
	for _, m := range matches {
		if m[0] > pos {
			spans = append(spans, joint.CandidateSpan{Start: pos, End: m[0]})
		}
		spans = append(spans, joint.CandidateSpan{Start: m[0], End: m[1]})
		pos = m[1]
	}
	if pos < len(line) {
		spans = append(spans, joint.CandidateSpan{Start: pos, End: len(line)})
	}

	spans = filterByMinLength(spans, line, opts.MinTokenLength)
	if opts.MaxPartsPerLine > 0 && len(spans) > opts.MaxPartsPerLine {
		spans = mergeTail(spans, opts.MaxPartsPerLine)
	}
	if opts.MaxSpansPerLine > 0 && len(spans) > opts.MaxSpansPerLine {
		spans = spans[:opts.MaxSpansPerLine]
	}
	return spans
}

// filterByMinLength drops non-whitespace spans shorter than minLen,
// folding their text into the previous span rather than discarding it -
// a dropped span would leave an uncovered gap the constrainer would have
// to re-synthesize.
func filterByMinLength(in []joint.CandidateSpan, line string, minLen int) []joint.CandidateSpan {
	if minLen <= 1 {
		return in
	}
	var out []joint.CandidateSpan
	for _, s := range in {
		if s.IsWhitespaceOnly(line) || s.Len() >= minLen {
			out = append(out, s)
			continue
		}
		if len(out) > 0 {
			out[len(out)-1].End = s.End
		} else {
			out = append(out, s)
		}
	}
	return out
}

// mergeTail collapses every span from maxParts onward into the
// (maxParts)-th span, so a line never yields more than maxParts
// candidate spans while still covering its full length.
func mergeTail(in []joint.CandidateSpan, maxParts int) []joint.CandidateSpan {
	out := make([]joint.CandidateSpan, maxParts)
	copy(out, in[:maxParts-1])
	out[maxParts-1] = joint.CandidateSpan{Start: in[maxParts-1].Start, End: in[len(in)-1].End}
	return out
}

// GenerateAll applies Generate to every line of a document.
func GenerateAll(lines []string, opts Options) [][]joint.CandidateSpan {
	out := make([][]joint.CandidateSpan, len(lines))
	for i, l := range lines {
		out[i] = Generate(l, opts)
	}
	return out
}
