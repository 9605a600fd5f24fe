package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/resume-forge/internal/db"
	"github.com/jonathan/resume-forge/internal/parsing"
	"github.com/jonathan/resume-forge/internal/types"
)

// CareerGuidance runs the standalone career guidance stage.
func (s *Service) CareerGuidance(ctx context.Context, req types.GuidanceRequest) (*types.GuidanceResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	p, runCtx, cancel := s.newPipeline(ctx, nil)
	defer cancel()

	raw, err := p.ExecuteCareerGuidance(runCtx, req.ResumeText, req.JobTitle, req.JobDescription)
	if err != nil {
		s.logger.Error("career guidance failed", zap.String("run_id", p.RunID().String()), zap.Error(err))
		return nil, err
	}

	parsed := parsing.ParseOpen(raw)
	s.logParseMethod("career_guidance", p.RunID(), parsed)

	result := &types.GuidanceResult{RunID: p.RunID(), Guidance: parsed.Record}
	if report := s.saveReport(ctx, &db.Report{
		RunID:      p.RunID().String(),
		Kind:       db.KindCareerGuidance,
		Status:     db.StatusCompleted,
		TargetRole: req.JobTitle,
		Stages:     stageRecords(p.Results()),
		Record:     parsed.Record,
	}); report != nil {
		result.ReportID = &report.ID
	}
	return result, nil
}

// QualityScore runs the standalone quality scoring stage.
func (s *Service) QualityScore(ctx context.Context, req types.QualityRequest) (*types.QualityResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	p, runCtx, cancel := s.newPipeline(ctx, nil)
	defer cancel()

	raw, err := p.ExecuteQualityAssessment(runCtx, req.ResumeText, req.JobTitle)
	if err != nil {
		s.logger.Error("quality scoring failed", zap.String("run_id", p.RunID().String()), zap.Error(err))
		return nil, err
	}

	parsed := parsing.ParseOpen(raw)
	s.logParseMethod("quality_scoring", p.RunID(), parsed)

	result := &types.QualityResult{RunID: p.RunID(), QualityMetrics: parsed.Record}
	if report := s.saveReport(ctx, &db.Report{
		RunID:        p.RunID().String(),
		Kind:         db.KindQualityScoring,
		Status:       db.StatusCompleted,
		TargetRole:   req.JobTitle,
		Stages:       stageRecords(p.Results()),
		Record:       parsed.Record,
		OverallScore: overallScore(parsed.Record),
	}); report != nil {
		result.ReportID = &report.ID
	}
	return result, nil
}
