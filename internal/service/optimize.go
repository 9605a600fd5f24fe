package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-forge/internal/db"
	"github.com/jonathan/resume-forge/internal/document"
	"github.com/jonathan/resume-forge/internal/ingestion"
	"github.com/jonathan/resume-forge/internal/parsing"
	"github.com/jonathan/resume-forge/internal/pipeline"
	"github.com/jonathan/resume-forge/internal/types"
)

// Optimize runs the full four-stage optimization and parses the evaluation.
// A job URL is fetched when the description is empty. Validation happens before any
// stage runs.
func (s *Service) Optimize(ctx context.Context, req types.OptimizeRequest, onProgress pipeline.ProgressCallback) (*types.OptimizationResult, error) {
	req.Normalize()
	if req.JobDescription == "" && req.JobURL != "" {
		description, err := s.resolveJobURL(ctx, req.JobURL)
		if err != nil {
			return nil, err
		}
		req.JobDescription = description
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := document.Validate(req.ResumeText); err != nil {
		return nil, &types.ValidationError{Field: "resume_text", Reason: err.Error()}
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	p, runCtx, cancel := s.newPipeline(ctx, onProgress)
	defer cancel()

	out, err := p.ExecuteFullOptimization(runCtx, req.ResumeText, req.JobTitle, req.JobDescription)
	if err != nil {
		s.logger.Error("optimization failed",
			zap.String("run_id", p.RunID().String()),
			zap.String("stage", failedStage(err)),
			zap.Error(err),
		)
		s.saveReport(ctx, &db.Report{
			RunID:      p.RunID().String(),
			Kind:       db.KindOptimization,
			Status:     db.StatusFailed,
			TargetRole: req.JobTitle,
			Stages:     stageRecords(p.Results()),
			Error:      err.Error(),
		})
		return nil, err
	}

	evaluation := parsing.ParseEvaluation(out.EvaluationRaw)
	s.logParseMethod("evaluation", p.RunID(), evaluation)

	result := &types.OptimizationResult{
		RunID:        p.RunID(),
		Sanitized:    out.Sanitized,
		Optimized:    out.Optimized,
		Enhanced:     out.Enhanced,
		Evaluation:   evaluation.Record,
		ParseMethod:  string(evaluation.Method),
		FormatIssues: document.CheckFormat(out.Enhanced),
	}

	report := s.saveReport(ctx, &db.Report{
		RunID:        p.RunID().String(),
		Kind:         db.KindOptimization,
		Status:       db.StatusCompleted,
		TargetRole:   req.JobTitle,
		Stages:       stageRecords(p.Results()),
		Record:       evaluation.Record,
		OverallScore: overallScore(evaluation.Record),
	})
	if report != nil {
		result.ReportID = &report.ID
	}
	return result, nil
}

// OptimizeFile extracts resume text from an uploaded file, then runs Optimize.
func (s *Service) OptimizeFile(ctx context.Context, filename string, data []byte, jobTitle, jobDescription string, onProgress pipeline.ProgressCallback) (*types.OptimizationResult, document.Kind, error) {
	kind, text, err := document.DetectAndExtract(filename, data)
	if err != nil {
		return nil, kind, err
	}
	if err := document.Validate(text); err != nil {
		return nil, kind, err
	}

	result, err := s.Optimize(ctx, types.OptimizeRequest{
		ResumeText:     text,
		JobTitle:       jobTitle,
		JobDescription: jobDescription,
	}, onProgress)
	return result, kind, err
}

func (s *Service) resolveJobURL(ctx context.Context, url string) (string, error) {
	if err := types.ValidateJobURL(url); err != nil {
		return "", err
	}
	posting, err := ingestion.FetchJobDescription(ctx, s.fetcher, url, s.logger)
	if err != nil {
		s.logger.Warn("failed to fetch job description", zap.String("url", url), zap.Error(err))
		return "", &types.ValidationError{
			Field:  "job_url",
			Reason: fmt.Sprintf("Could not fetch job description from %s", url),
		}
	}
	s.logger.Info("job description fetched",
		zap.String("url", url),
		zap.String("platform", string(posting.Platform)),
		zap.Int("chars", len(posting.Text)),
	)
	return posting.Text, nil
}

func (s *Service) logParseMethod(kind string, runID uuid.UUID, parsed parsing.Evaluation) {
	if parsed.Method != parsing.MethodFallback && parsed.Method != parsing.MethodBackfilled {
		return
	}
	s.logger.Warn("structured output recovered with placeholder values",
		zap.String("record", kind),
		zap.String("run_id", runID.String()),
		zap.String("method", string(parsed.Method)),
	)
}

func overallScore(record map[string]any) *float64 {
	switch v := record[parsing.KeyOverallScore].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}
