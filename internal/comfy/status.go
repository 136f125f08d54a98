package comfy

import (
	"strings"

	"rockstar/internal/domain"
)

// successStatuses lists the upstream vocabulary observed for a finished run.
// The API is not contractually fixed here; all three occur in the wild.
var successStatuses = map[string]bool{
	"success":   true,
	"completed": true,
	"succeeded": true,
}

// urlExtractor pulls a candidate image URL out of one output element.
// Extractors run in priority order; the first non-empty match wins.
type urlExtractor func(Output) string

var urlExtractors = []urlExtractor{
	func(o Output) string { return o.URL },
	func(o Output) string {
		if len(o.Images) > 0 {
			return o.Images[0].URL
		}
		return ""
	},
	func(o Output) string {
		if o.Data != nil && len(o.Data.Images) > 0 {
			return o.Data.Images[0].URL
		}
		return ""
	},
	func(o Output) string {
		if o.Data != nil {
			return o.Data.URL
		}
		return ""
	},
}

// ExtractOutputURL returns the best candidate output URL from the first
// output element, or "" when no shape matches.
func ExtractOutputURL(outputs []Output) string {
	if len(outputs) == 0 {
		return ""
	}
	first := outputs[0]
	for _, extract := range urlExtractors {
		if url := strings.TrimSpace(extract(first)); url != "" {
			return url
		}
	}
	return ""
}

// Normalize computes the canonical status and output URL for a raw run
// payload. A failed raw status always wins. Otherwise the run counts as a
// success when the raw status matches a known synonym or when an output URL
// is already present, whichever holds first; the status field can lag behind
// the outputs. Anything else passes through unchanged.
func Normalize(state RunState) (domain.Status, string) {
	url := ExtractOutputURL(state.Outputs)
	raw := strings.TrimSpace(state.Status)

	if raw == string(domain.StatusFailed) {
		return domain.StatusFailed, url
	}
	if successStatuses[raw] || url != "" {
		return domain.StatusSuccess, url
	}
	return domain.Status(raw), url
}
