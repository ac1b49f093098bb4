package features

import (
	"strings"
	"unicode"

	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/validation"
)

func digitRatio(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	digits := 0
	total := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(digits) / float64(total)
}

func isAllCaps(s string) bool {
	has := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			has = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return has
}

func isTitleCase(s string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		runes := []rune(f)
		if !unicode.IsUpper(runes[0]) {
			return false
		}
		for _, r := range runes[1:] {
			if unicode.IsLetter(r) && unicode.IsUpper(r) {
				return false
			}
		}
	}
	return true
}

func isInitialCaps(s string) bool {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if unicode.IsLetter(r) && unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func isMixedCase(s string) bool {
	hasUpper, hasLower := false, false
	for _, r := range s {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	return hasUpper && hasLower && !isTitleCase(s) && !isInitialCaps(s) && !isAllCaps(s)
}

// digitGroupPattern scores how closely text matches a grouped digit
// pattern like phone/extid formatting (runs of digits separated by a
// small set of punctuation), rather than bare unstructured digits.
func digitGroupPattern(s string) float64 {
	groups := 0
	inGroup := false
	punctBetween := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			if !inGroup {
				groups++
				inGroup = true
			}
		case r == '-' || r == '(' || r == ')' || r == '.' || r == ' ':
			if inGroup {
				punctBetween = true
			}
			inGroup = false
		default:
			return 0
		}
	}
	if groups < 2 || !punctBetween {
		if groups == 1 {
			return 0.3
		}
		return 0
	}
	return clamp(float64(groups)/4.0, 0, 1)
}

func fingerprint(s string) float64 {
	if s == "" {
		return 0
	}
	sum := 0
	for _, r := range s {
		sum += int(r)
	}
	return float64(sum%97) / 97.0
}

func hasSpecialChars(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '@', '.', '-', '_', '#', '(', ')', '\'', ',':
			continue
		}
		return true
	}
	return false
}

func punctuationRatio(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	punct := 0
	for _, r := range s {
		if unicode.IsPunct(r) {
			punct++
		}
	}
	return float64(punct) / float64(len(s))
}

// RegisterSegmentFeatures installs every segment.*/token.*/field.*
// feature spec.md §4.1 names into r.
func RegisterSegmentFeatures(r *Registry) {
	r.AddSegment("segment.token_count_bucket", func(ctx joint.FeatureContext) float64 {
		n := len(strings.Fields(ctx.SpanText()))
		return clamp(float64(n)/4.0, 0, 1)
	})

	r.AddSegment("segment.numeric_ratio", func(ctx joint.FeatureContext) float64 {
		return digitRatio(ctx.SpanText())
	})

	r.AddSegment("segment.is_email", func(ctx joint.FeatureContext) float64 {
		if validation.IsEmail(ctx.SpanText()) {
			return 1
		}
		return 0
	})

	r.AddSegment("segment.is_phone", func(ctx joint.FeatureContext) float64 {
		if validation.IsPhone(ctx.SpanText()) {
			return 1
		}
		return 0
	})

	r.AddSegment("segment.is_extid", func(ctx joint.FeatureContext) float64 {
		if validation.IsExtID(ctx.SpanText()) {
			return 1
		}
		return 0
	})

	r.AddSegment("segment.is_name", func(ctx joint.FeatureContext) float64 {
		if validation.IsNameShape(ctx.SpanText()) {
			return 1
		}
		return 0
	})

	r.AddSegment("segment.is_preferred_name", func(ctx joint.FeatureContext) float64 {
		if validation.IsPreferredNameShape(ctx.SpanText()) {
			return 1
		}
		return 0
	})

	r.AddSegment("segment.is_birthdate", func(ctx joint.FeatureContext) float64 {
		if validation.IsBirthdate(ctx.SpanText()) {
			return 1
		}
		return 0
	})

	r.AddSegment("segment.all_caps", func(ctx joint.FeatureContext) float64 {
		if isAllCaps(ctx.SpanText()) {
			return 1
		}
		return 0
	})

	r.AddSegment("segment.title_case", func(ctx joint.FeatureContext) float64 {
		if isTitleCase(ctx.SpanText()) {
			return 1
		}
		return 0
	})

	r.AddSegment("segment.initial_caps", func(ctx joint.FeatureContext) float64 {
		if isInitialCaps(ctx.SpanText()) {
			return 1
		}
		return 0
	})

	r.AddSegment("segment.mixed_case", func(ctx joint.FeatureContext) float64 {
		if isMixedCase(ctx.SpanText()) {
			return 1
		}
		return 0
	})

	r.AddSegment("segment.digit_pattern", func(ctx joint.FeatureContext) float64 {
		return digitGroupPattern(ctx.SpanText())
	})

	r.AddSegment("segment.char_length_bucket", func(ctx joint.FeatureContext) float64 {
		return clamp(float64(len(ctx.SpanText()))/20.0, 0, 1)
	})

	r.AddSegment("segment.prefix_2", func(ctx joint.FeatureContext) float64 {
		t := ctx.SpanText()
		if len(t) > 2 {
			t = t[:2]
		}
		return fingerprint(t)
	})

	r.AddSegment("segment.suffix_2", func(ctx joint.FeatureContext) float64 {
		t := ctx.SpanText()
		if len(t) > 2 {
			t = t[len(t)-2:]
		}
		return fingerprint(t)
	})

	r.AddSegment("segment.has_special_chars", func(ctx joint.FeatureContext) float64 {
		if hasSpecialChars(ctx.SpanText()) {
			return 1
		}
		return 0
	})

	r.AddSegment("segment.punctuation_ratio", func(ctx joint.FeatureContext) float64 {
		return punctuationRatio(ctx.SpanText())
	})

	r.AddSegment("token.context_isolation", func(ctx joint.FeatureContext) float64 {
		line := ctx.Line()
		span := ctx.Span
		isolatedBefore := span.Start == 0 || unicode.IsSpace(rune(line[span.Start-1]))
		isolatedAfter := span.End >= len(line) || unicode.IsSpace(rune(line[span.End]))
		if isolatedBefore && isolatedAfter {
			return 1
		}
		if isolatedBefore || isolatedAfter {
			return 0.5
		}
		return 0
	})

	r.AddSegment("field.relative_position_consistency", func(ctx joint.FeatureContext) float64 {
		if ctx.Stats.PositionConsistency == nil {
			return 0.5
		}
		key := joint.PositionBucket(ctx.SpanIndex)
		if v, ok := ctx.Stats.PositionConsistency[key]; ok {
			return v
		}
		return 0.5
	})

	r.AddSegment("field.optional_penalty", func(ctx joint.FeatureContext) float64 {
		if ctx.Stats.OptionalPenalty == nil {
			return 0
		}
		key := joint.PositionBucket(ctx.SpanIndex)
		if v, ok := ctx.Stats.OptionalPenalty[key]; ok {
			return v
		}
		return 0
	})
}

// NewDefaultRegistry builds a Registry with every boundary and segment
// feature spec.md §4.1 names, in the order they are declared there.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterBoundaryFeatures(r)
	RegisterSegmentFeatures(r)
	return r
}
