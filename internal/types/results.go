package types

import (
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// OptimizationResult is the outcome of the full workflow as returned to callers.
type OptimizationResult struct {
	RunID        uuid.UUID      `json:"run_id"`
	Sanitized    string         `json:"sanitized"`
	Optimized    string         `json:"optimized"`
	Enhanced     string         `json:"enhanced"`
	Evaluation   map[string]any `json:"evaluation"`
	ParseMethod  string         `json:"parse_method"`
	FormatIssues []string       `json:"format_issues"`
	ReportID     *uuid.UUID     `json:"report_id,omitempty"`
}

// GuidanceResult is the outcome of the career guidance workflow.
type GuidanceResult struct {
	RunID    uuid.UUID      `json:"run_id"`
	Guidance map[string]any `json:"guidance"`
	ReportID *uuid.UUID     `json:"report_id,omitempty"`
}

// QualityResult is the outcome of the quality scoring workflow.
type QualityResult struct {
	RunID          uuid.UUID      `json:"run_id"`
	QualityMetrics map[string]any `json:"quality_metrics"`
	ReportID       *uuid.UUID     `json:"report_id,omitempty"`
}

// EvaluationRecord is the typed view of an evaluation mapping.
type EvaluationRecord struct {
	OverallScore    float64            `mapstructure:"overall_score" json:"overall_score"`
	Breakdown       map[string]float64 `mapstructure:"breakdown" json:"breakdown"`
	MissingKeywords []string           `mapstructure:"missing_keywords" json:"missing_keywords"`
	QuickWins       []string           `mapstructure:"quick_wins" json:"quick_wins"`
	Summary         string             `mapstructure:"summary" json:"summary"`
	RawOutput       string             `mapstructure:"raw_output" json:"raw_output,omitempty"`
	Backfilled      []string           `mapstructure:"backfilled" json:"backfilled,omitempty"`
}

// DecodeEvaluation converts an evaluation mapping into its typed view.
// Numbers given as strings ("4.5") are accepted.
func DecodeEvaluation(record map[string]any) (*EvaluationRecord, error) {
	var out EvaluationRecord
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(record); err != nil {
		return nil, err
	}
	return &out, nil
}
