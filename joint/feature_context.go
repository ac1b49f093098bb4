package joint

// FeatureContext is the read-only view a feature function receives.
// Boundary features use only Lines/LineIndex (and the optional schema
// statistics carried in Stats); segment features additionally set Span
// and SpanIndex (spec.md §4.1).
type FeatureContext struct {
	Lines     []string
	LineIndex int

	// Span and SpanIndex are set only when scoring a segment feature.
	Span      CandidateSpan
	SpanIndex int
	HasSpan   bool

	// Stats carries the optional schema statistics (field.* features)
	// keyed by position bucket (see PositionBucket).
	Stats FieldStats
}

// FieldStats is the small set of schema-level statistics the
// field.relative_position_consistency and field.optional_penalty
// features consult. Both features apply "regardless of label" (spec.md
// §4.3), so they key off the span's structural position within the line
// rather than off any particular candidate label - PositionBucket turns
// a span index into that key. Nil-safe: a zero value yields neutral
// scores.
type FieldStats struct {
	// PositionConsistency maps a position bucket to a [0,1] dispersion-
	// based consistency score (computed by fieldstats.Accumulator.Finalize).
	PositionConsistency map[string]float64

	// OptionalPenalty maps a position bucket to a [0,1] penalty applied
	// when spans at that position are rarely anything but noise
	// (computed by fieldstats.Accumulator.Finalize).
	OptionalPenalty map[string]float64
}

// PositionBucket maps a span index to the key used by PositionConsistency
// and OptionalPenalty: exact for the first 4 positions, "4+" beyond that.
func PositionBucket(spanIndex int) string {
	if spanIndex < 0 {
		return "0"
	}
	if spanIndex >= 4 {
		return "4+"
	}
	return string(rune('0' + spanIndex))
}

// Line returns the current line's text, or "" if out of range.
func (c FeatureContext) Line() string {
	if c.LineIndex < 0 || c.LineIndex >= len(c.Lines) {
		return ""
	}
	return c.Lines[c.LineIndex]
}

// PrevLine returns the previous line's text, or "" at the document start.
func (c FeatureContext) PrevLine() string {
	if c.LineIndex <= 0 || c.LineIndex-1 >= len(c.Lines) {
		return ""
	}
	return c.Lines[c.LineIndex-1]
}

// NextLine returns the following line's text, or "" at the document end.
func (c FeatureContext) NextLine() string {
	if c.LineIndex+1 >= len(c.Lines) {
		return ""
	}
	return c.Lines[c.LineIndex+1]
}

// SpanText returns the text of the active span, or "" if none is set.
func (c FeatureContext) SpanText() string {
	if !c.HasSpan {
		return ""
	}
	return c.Span.Text(c.Line())
}
