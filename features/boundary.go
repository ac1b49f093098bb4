package features

import (
	"strings"

	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/validation"
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func leadingSpaces(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' && r != '\t' {
			break
		}
		n++
	}
	return n
}

func tokenSet(line string) map[string]bool {
	fields := strings.Fields(strings.ToLower(line))
	ans := make(map[string]bool, len(fields))
	for _, f := range fields {
		ans[f] = true
	}
	return ans
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}

var listMarkerPrefixes = []string{"-", "*", "•", "–"}

func hasListMarker(line string) bool {
	t := strings.TrimSpace(line)
	for _, p := range listMarkerPrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	if len(t) >= 2 && t[0] >= '0' && t[0] <= '9' {
		for i := 0; i < len(t) && t[i] >= '0' && t[i] <= '9'; i++ {
			if i+1 < len(t) && (t[i+1] == '.' || t[i+1] == ')') {
				return true
			}
		}
	}
	return false
}

func hasKeyValuePattern(line string) bool {
	idx := strings.IndexAny(line, ":")
	if idx <= 0 || idx >= len(line)-1 {
		return false
	}
	key := strings.TrimSpace(line[:idx])
	return key != "" && len(strings.Fields(key)) <= 4
}

func lineHasName(line string) bool {
	fields := strings.Fields(line)
	for size := 2; size <= 4; size++ {
		for i := 0; i+size <= len(fields); i++ {
			if validation.IsNameShape(strings.Join(fields[i:i+size], " ")) {
				return true
			}
		}
	}
	return false
}

func lineHasBirthdate(line string) bool {
	if validation.IsBirthdate(line) {
		return true
	}
	fields := strings.Fields(line)
	for _, f := range fields {
		if validation.IsBirthdate(strings.Trim(f, ",")) {
			return true
		}
	}
	return false
}

func lineHasContact(line string) bool {
	fields := strings.Fields(line)
	for _, f := range fields {
		if validation.IsEmail(f) || validation.IsPhone(f) {
			return true
		}
	}
	return validation.IsEmail(line) || validation.IsPhone(line)
}

var guardianWords = map[string]bool{
	"parent": true, "guardian": true, "mother": true, "father": true,
	"mom": true, "dad": true, "caregiver": true, "next-of-kin": true,
}

func lineHasGuardianWord(line string) bool {
	for _, f := range strings.Fields(strings.ToLower(line)) {
		if guardianWords[strings.Trim(f, ":,.")] {
			return true
		}
	}
	return false
}

// RegisterBoundaryFeatures installs every line.* feature spec.md §4.1
// names into r.
func RegisterBoundaryFeatures(r *Registry) {
	r.AddBoundary("line.indentation_delta", func(ctx joint.FeatureContext) float64 {
		cur := leadingSpaces(ctx.Line())
		prev := leadingSpaces(ctx.PrevLine())
		return clamp(float64(cur-prev)/8.0, -1, 1)
	})

	r.AddBoundary("line.lexical_similarity_drop", func(ctx joint.FeatureContext) float64 {
		return clamp(1-jaccard(tokenSet(ctx.Line()), tokenSet(ctx.PrevLine())), 0, 1)
	})

	r.AddBoundary("line.blank_line", func(ctx joint.FeatureContext) float64 {
		if strings.TrimSpace(ctx.Line()) == "" {
			return 1
		}
		return 0
	})

	r.AddBoundary("line.hanging_continuation", func(ctx joint.FeatureContext) float64 {
		line := ctx.Line()
		if strings.TrimSpace(line) == "" {
			return 0
		}
		if leadingSpaces(line) > 0 {
			return 1
		}
		return 0
	})

	r.AddBoundary("line.leading_extid", func(ctx joint.FeatureContext) float64 {
		fields := strings.Fields(ctx.Line())
		if len(fields) == 0 {
			return 0
		}
		if validation.IsExtID(fields[0]) {
			return 1
		}
		return 0
	})

	r.AddBoundary("line.has_name", func(ctx joint.FeatureContext) float64 {
		if lineHasName(ctx.Line()) {
			return 1
		}
		return 0
	})

	r.AddBoundary("line.has_birthdate", func(ctx joint.FeatureContext) float64 {
		if lineHasBirthdate(ctx.Line()) {
			return 1
		}
		return 0
	})

	r.AddBoundary("line.has_key_value_pattern", func(ctx joint.FeatureContext) float64 {
		if hasKeyValuePattern(ctx.Line()) {
			return 1
		}
		return 0
	})

	r.AddBoundary("line.has_list_marker", func(ctx joint.FeatureContext) float64 {
		if hasListMarker(ctx.Line()) {
			return 1
		}
		return 0
	})

	r.AddBoundary("line.short_token_count", func(ctx joint.FeatureContext) float64 {
		fields := strings.Fields(ctx.Line())
		if len(fields) == 0 {
			return 0
		}
		short := 0
		for _, f := range fields {
			if len(f) <= 3 {
				short++
			}
		}
		return clamp(float64(short)/float64(len(fields)), 0, 1)
	})

	r.AddBoundary("line.next_has_contact", func(ctx joint.FeatureContext) float64 {
		if lineHasContact(ctx.NextLine()) {
			return 1
		}
		return 0
	})

	r.AddBoundary("line.field_density", func(ctx joint.FeatureContext) float64 {
		line := ctx.Line()
		if len(strings.TrimSpace(line)) == 0 {
			return 0
		}
		fields := strings.Fields(line)
		return clamp(float64(len(fields))/float64(len(line))*4.0, 0, 1)
	})

	r.AddBoundary("line.avg_token_length", func(ctx joint.FeatureContext) float64 {
		fields := strings.Fields(ctx.Line())
		if len(fields) == 0 {
			return 0
		}
		total := 0
		for _, f := range fields {
			total += len(f)
		}
		return clamp(float64(total)/float64(len(fields))/12.0, 0, 1)
	})

	r.AddBoundary("line.primary_likely", func(ctx joint.FeatureContext) float64 {
		score := 0.0
		if lineHasName(ctx.Line()) {
			score += 0.5
		}
		if lineHasContact(ctx.Line()) {
			score += 0.3
		}
		fields := strings.Fields(ctx.Line())
		if len(fields) > 0 && validation.IsExtID(fields[0]) {
			score += 0.2
		}
		return clamp(score, 0, 1)
	})

	r.AddBoundary("line.guardian_likely", func(ctx joint.FeatureContext) float64 {
		if lineHasGuardianWord(ctx.Line()) {
			return 1
		}
		return 0
	})
}
