package features

// ExpectedLabel maps a label-aware segment feature id to the label it is
// expected to fire for. This mapping, and the CoupledContribution rule
// built on it, must be identical across the decoder, projector, and
// trainer (spec.md §4.3: "any divergence silently corrupts training").
var ExpectedLabel = map[string]string{
	"segment.is_phone":         "Phone",
	"segment.is_email":         "Email",
	"segment.is_name":          "Name",
	"segment.is_preferred_name": "PreferredName",
	"segment.is_birthdate":     "Birthdate",
	"segment.is_extid":         "ExtID",
}

// LabelFeature is the inverse of ExpectedLabel: the feature id tied to a
// given target label, consulted by the trainer's targeted nudge
// (spec.md §4.6) for Phone/Email/ExtID and any asserted field whose
// decoded label disagrees.
var LabelFeature = map[string]string{
	"Phone":         "segment.is_phone",
	"Email":         "segment.is_email",
	"Name":          "segment.is_name",
	"PreferredName": "segment.is_preferred_name",
	"Birthdate":     "segment.is_birthdate",
	"ExtID":         "segment.is_extid",
}

// IsLabelAware reports whether featureID participates in label-aware
// coupling.
func IsLabelAware(featureID string) bool {
	_, ok := ExpectedLabel[featureID]
	return ok
}

// CoupledContribution applies the fixed label-aware weighting rule
// (spec.md §4.3) for a single segment feature's contribution to a
// candidate label's emission score. exact10Or11 must be the caller's
// precomputed `^\d{10,11}$` test against the span's digit-only
// projection (validation.Exact10Or11Digits) - the ExtID/Phone special
// case applies only then.
func CoupledContribution(featureID, label string, w, v float64, exact10Or11 bool) float64 {
	if featureID == "segment.is_extid" && exact10Or11 {
		switch label {
		case "ExtID":
			return -0.8 * w * v
		case "Phone":
			return 0.7 * w * v
		default:
			return -0.3 * w * v
		}
	}
	if el, ok := ExpectedLabel[featureID]; ok {
		if label == el {
			return w * v
		}
		return -0.5 * w * v
	}
	return w * v
}
