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

// Package joint holds the shared data model the core components operate
// on: documents split into lines, per-line candidate spans, the per-line
// decoded JointState / JointSequence, and the projected Record/SubEntity/
// Field output trees (spec.md §3).
package joint

import "strings"

// Boundary is a per-line boundary code.
type Boundary uint8

const (
	// C - this line continues the previous record.
	C Boundary = iota
	// B - this line begins a new record.
	B
)

func (b Boundary) String() string {
	if b == B {
		return "B"
	}
	return "C"
}

// CandidateSpan is a half-open [Start, End) interval within a single
// line's text. Spans are immutable values.
type CandidateSpan struct {
	Start int
	End   int
}

func (c CandidateSpan) Len() int {
	return c.End - c.Start
}

// Text returns the span's substring of line.
func (c CandidateSpan) Text(line string) string {
	return line[c.Start:c.End]
}

// IsWhitespaceOnly reports whether the span, taken against line, contains
// only whitespace characters (spec.md §4.4, §4.5 whitespace handling).
func (c CandidateSpan) IsWhitespaceOnly(line string) bool {
	return strings.TrimSpace(c.Text(line)) == ""
}

// LineSpans is the ordered (by Start ascending) set of candidate spans on
// a single line.
type LineSpans struct {
	Spans []CandidateSpan
}

// Document is a normalized input: an ordered sequence of lines plus a
// precomputed prefix-sum table mapping line index to the line's starting
// file offset (spec.md §3).
type Document struct {
	Lines      []string
	LineStarts []int
}

// NewDocument splits raw text on '\n' after CR/LF normalization and
// builds the line-start offset table.
func NewDocument(raw string) *Document {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	lines := strings.Split(normalized, "\n")
	starts := make([]int, len(lines)+1)
	for i, l := range lines {
		starts[i+1] = starts[i] + len(l) + 1
	}
	return &Document{Lines: lines, LineStarts: starts}
}

// FileOffset converts a (line, in-line offset) pair to a document-relative
// character offset.
func (d *Document) FileOffset(line, inLineOffset int) int {
	return d.LineStarts[line] + inLineOffset
}

// LineOf converts a document-relative file offset back to (line,
// in-line offset). Offsets past the end of the document clamp to the
// last line's end.
func (d *Document) LineOf(fileOffset int) (line int, inLineOffset int) {
	for i := 0; i < len(d.Lines); i++ {
		if fileOffset < d.LineStarts[i+1] || i == len(d.Lines)-1 {
			return i, fileOffset - d.LineStarts[i]
		}
	}
	return 0, 0
}

// -----------------------------------------------

// JointState is the per-line decoded tuple: boundary code, a label per
// candidate span (positionally aligned), and an optional sub-entity type.
type JointState struct {
	Boundary   Boundary
	Fields     []string
	EntityType string // "" means unset/unknown
}

// JointSequence is an ordered sequence of JointStates, one per line.
type JointSequence struct {
	States []JointState
}

// Len returns the number of lines represented.
func (s JointSequence) Len() int {
	return len(s.States)
}
