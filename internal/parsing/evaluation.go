package parsing

import (
	"sort"

	"github.com/jonathan/resume-forge/internal/schemas"
	schemafiles "github.com/jonathan/resume-forge/schemas"
)

// Keys of the evaluation record.
const (
	KeyOverallScore    = "overall_score"
	KeyBreakdown       = "breakdown"
	KeyMissingKeywords = "missing_keywords"
	KeyQuickWins       = "quick_wins"
	KeySummary         = "summary"
	KeyRawOutput       = "raw_output"
	KeyBackfilled      = "backfilled"
)

// rawOutputLimit bounds the raw text kept in an evaluation fallback.
const rawOutputLimit = 500

// Evaluation is a parsed record and the tier that produced it.
type Evaluation struct {
	Record map[string]any `json:"record"`
	Method Method         `json:"method"`
}

// evaluationSkeleton returns a fresh copy of the placeholder evaluation.
func evaluationSkeleton() map[string]any {
	return map[string]any{
		KeyOverallScore: 75.0,
		KeyBreakdown: map[string]any{
			"keyword_match":      3.5,
			"section_structure":  4.0,
			"quantified_metrics": 3.5,
			"action_verbs":       4.0,
			"format_quality":     4.5,
		},
		KeyMissingKeywords: []any{"See raw output for details"},
		KeyQuickWins:       []any{"Review and optimize based on job requirements"},
		KeySummary:         "Evaluation completed. See final resume for optimizations.",
	}
}

// FallbackEvaluation returns the placeholder evaluation carrying the first 500
// characters of raw.
func FallbackEvaluation(raw string) map[string]any {
	record := evaluationSkeleton()
	record[KeyRawOutput] = firstRunes(raw, rawOutputLimit)
	return record
}

// ParseEvaluation turns evaluation stage output into a record that always has the five
// required keys. Keys that are missing or invalid are filled from the placeholder and
// listed under "backfilled", and the start of the model output is kept under "raw_output".
func ParseEvaluation(raw string) Evaluation {
	record, method, err := Decode(raw)
	if err != nil {
		return Evaluation{Record: FallbackEvaluation(raw), Method: MethodFallback}
	}

	if err := schemas.ValidateRecord(schemafiles.Evaluation, record); err != nil {
		verr, ok := err.(*schemas.ValidationError)
		if !ok {
			return Evaluation{Record: FallbackEvaluation(raw), Method: MethodFallback}
		}
		skeleton := evaluationSkeleton()
		var filled []string
		for _, prop := range verr.Properties() {
			if v, ok := skeleton[prop]; ok {
				record[prop] = v
				filled = append(filled, prop)
			}
		}
		if len(filled) > 0 {
			sort.Strings(filled)
			record[KeyBackfilled] = filled
			record[KeyRawOutput] = firstRunes(raw, rawOutputLimit)
			method = MethodBackfilled
		}
	}

	if kws, ok := stringSlice(record[KeyMissingKeywords]); ok {
		record[KeyMissingKeywords] = toAnySlice(NormalizeKeywords(kws))
	}

	return Evaluation{Record: record, Method: method}
}

// ParseOpen parses guidance and quality output. The fallback is {raw_output: raw},
// with no placeholder keys.
func ParseOpen(raw string) Evaluation {
	record, method, err := Decode(raw)
	if err != nil {
		return Evaluation{Record: map[string]any{KeyRawOutput: raw}, Method: MethodFallback}
	}
	return Evaluation{Record: record, Method: method}
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func stringSlice(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
