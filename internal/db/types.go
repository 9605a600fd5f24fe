package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Report kinds
const (
	KindOptimization   = "optimization"
	KindCareerGuidance = "career_guidance"
	KindQualityScoring = "quality_scoring"
)

// Report statuses
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DefaultListLimit applies when ListReports is called with a non-positive limit.
const DefaultListLimit = 20

// MaxListLimit caps ListReports.
const MaxListLimit = 200

// StageRecord is one cached stage output captured in a report.
type StageRecord struct {
	Stage  string `json:"stage"`
	Output string `json:"output"`
}

// Report is a persisted pipeline run: its stage outputs and parsed record.
type Report struct {
	ID           uuid.UUID      `json:"id"`
	RunID        string         `json:"run_id"`
	Kind         string         `json:"kind"`
	Status       string         `json:"status"`
	TargetRole   string         `json:"target_role"`
	Stages       []StageRecord  `json:"stages"`
	Record       map[string]any `json:"record,omitempty"`
	OverallScore *float64       `json:"overall_score,omitempty"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ReportSummary is the list view of a report.
type ReportSummary struct {
	ID           uuid.UUID `json:"id"`
	RunID        string    `json:"run_id"`
	Kind         string    `json:"kind"`
	Status       string    `json:"status"`
	TargetRole   string    `json:"target_role"`
	OverallScore *float64  `json:"overall_score,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists reports.
type Store interface {
	SaveReport(ctx context.Context, r *Report) error
	// GetReport returns nil, nil when no report has the id.
	GetReport(ctx context.Context, id uuid.UUID) (*Report, error)
	// ListReports returns summaries, newest first.
	ListReports(ctx context.Context, limit int) ([]ReportSummary, error)
	DeleteReport(ctx context.Context, id uuid.UUID) (bool, error)
	Close() error
}

// prepare assigns an id and timestamp when missing and checks the enumerations.
func (r *Report) prepare() error {
	if r == nil {
		return fmt.Errorf("report is nil")
	}
	switch r.Kind {
	case KindOptimization, KindCareerGuidance, KindQualityScoring:
	default:
		return fmt.Errorf("invalid report kind %q", r.Kind)
	}
	switch r.Status {
	case StatusCompleted, StatusFailed:
	default:
		return fmt.Errorf("invalid report status %q", r.Status)
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Stages == nil {
		r.Stages = []StageRecord{}
	}
	return nil
}

// Summary returns the list view of the report.
func (r *Report) Summary() ReportSummary {
	return ReportSummary{
		ID:           r.ID,
		RunID:        r.RunID,
		Kind:         r.Kind,
		Status:       r.Status,
		TargetRole:   r.TargetRole,
		OverallScore: r.OverallScore,
		CreatedAt:    r.CreatedAt,
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func marshalColumns(r *Report) (stages []byte, record []byte, err error) {
	stages, err = json.Marshal(r.Stages)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal stages: %w", err)
	}
	if r.Record != nil {
		record, err = json.Marshal(r.Record)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal record: %w", err)
		}
	}
	return stages, record, nil
}

func unmarshalColumns(r *Report, stages []byte, record []byte) error {
	if len(stages) > 0 {
		if err := json.Unmarshal(stages, &r.Stages); err != nil {
			return fmt.Errorf("failed to unmarshal stages: %w", err)
		}
	}
	if len(record) > 0 {
		if err := json.Unmarshal(record, &r.Record); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}
	}
	return nil
}
