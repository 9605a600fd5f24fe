// Package pipeline runs the resume optimization stages in sequence and keeps the
// per-run cache of their outputs.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-forge/internal/llm"
	"github.com/jonathan/resume-forge/internal/logger"
	"github.com/jonathan/resume-forge/internal/pipeline/stages"
	"github.com/jonathan/resume-forge/internal/prompts"
)

// Optimization holds the four outputs of the full workflow. The evaluation is unparsed.
type Optimization struct {
	Sanitized     string `json:"sanitized"`
	Optimized     string `json:"optimized"`
	Enhanced      string `json:"enhanced"`
	EvaluationRaw string `json:"evaluation_raw"`
}

// Pipeline is one run: a generator plus the cache of what each stage produced.
// A Pipeline is not safe for concurrent use; create one per request.
type Pipeline struct {
	generator  llm.Generator
	cache      *Cache
	runID      uuid.UUID
	logger     *zap.Logger
	onProgress ProgressCallback
	budget     time.Duration
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(cb ProgressCallback) Option {
	return func(p *Pipeline) {
		p.onProgress = cb
	}
}

// WithRunID sets the run identifier instead of generating one.
func WithRunID(id uuid.UUID) Option {
	return func(p *Pipeline) {
		if id != uuid.Nil {
			p.runID = id
		}
	}
}

// WithStageBudget overrides the per-stage time budget of every definition.
func WithStageBudget(d time.Duration) Option {
	return func(p *Pipeline) {
		p.budget = d
	}
}

// New creates a pipeline run with an empty cache.
func New(generator llm.Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		generator: generator,
		cache:     NewCache(),
		runID:     uuid.New(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String(logger.FieldRunID, p.runID.String()))
	return p
}

// RunID returns the run identifier.
func (p *Pipeline) RunID() uuid.UUID {
	return p.runID
}

// ExecuteFullOptimization runs sanitization, optimization, enhancement and evaluation
// in order, each consuming the previous stage's output.
func (p *Pipeline) ExecuteFullOptimization(ctx context.Context, rawText, targetRole, roleRequirements string) (*Optimization, error) {
	for _, name := range stages.FullOptimization {
		if p.cache.Has(name) {
			return nil, &StageError{Stage: name, Err: ErrStageCached}
		}
	}

	start := time.Now()
	p.logger.Info("starting full optimization", zap.String("target_role", targetRole))

	sanitized, err := p.runStage(ctx, stages.Sanitization, map[string]string{
		prompts.FieldResume: rawText,
	})
	if err != nil {
		return nil, err
	}

	optimized, err := p.runStage(ctx, stages.Optimization, map[string]string{
		prompts.FieldResume:       sanitized,
		prompts.FieldTargetRole:   targetRole,
		prompts.FieldRequirements: roleRequirements,
	})
	if err != nil {
		return nil, err
	}

	enhanced, err := p.runStage(ctx, stages.Enhancement, map[string]string{
		prompts.FieldResume: optimized,
	})
	if err != nil {
		return nil, err
	}

	evaluation, err := p.runStage(ctx, stages.Evaluation, map[string]string{
		prompts.FieldResume:       enhanced,
		prompts.FieldTargetRole:   targetRole,
		prompts.FieldRequirements: roleRequirements,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("full optimization completed", zap.Duration("duration", time.Since(start)))

	return &Optimization{
		Sanitized:     sanitized,
		Optimized:     optimized,
		Enhanced:      enhanced,
		EvaluationRaw: evaluation,
	}, nil
}

// ExecuteCareerGuidance runs the standalone career guidance stage.
func (p *Pipeline) ExecuteCareerGuidance(ctx context.Context, resumeText, targetRole, roleRequirements string) (string, error) {
	return p.runStage(ctx, stages.CareerGuidance, map[string]string{
		prompts.FieldResume:       resumeText,
		prompts.FieldTargetRole:   targetRole,
		prompts.FieldRequirements: roleRequirements,
	})
}

// ExecuteQualityAssessment runs the standalone quality scoring stage.
func (p *Pipeline) ExecuteQualityAssessment(ctx context.Context, resumeText, targetRole string) (string, error) {
	return p.runStage(ctx, stages.QualityScoring, map[string]string{
		prompts.FieldResume:     resumeText,
		prompts.FieldTargetRole: targetRole,
	})
}

// GetCachedStage returns a stage's cached output, or "" if it has not run.
func (p *Pipeline) GetCachedStage(name string) string {
	out, _ := p.cache.Get(name)
	return out
}

// Results returns the cached stage outputs in completion order.
func (p *Pipeline) Results() []StageResult {
	return p.cache.Results()
}

// ClearCache discards every cached stage output.
func (p *Pipeline) ClearCache() {
	p.cache.Clear()
}

// runStage executes one stage definition: dependency check, prompt, delegate call, cache.
func (p *Pipeline) runStage(ctx context.Context, name string, fields map[string]string) (string, error) {
	def, err := stages.Lookup(name)
	if err != nil {
		return "", &StageError{Stage: name, Err: err}
	}
	if p.cache.Has(name) {
		return "", &StageError{Stage: name, Err: ErrStageCached}
	}
	if err := stages.ValidateDependencies(p.cache, name); err != nil {
		return "", &StageError{Stage: name, Err: err}
	}

	instructions, err := prompts.Build(def.PromptKey, def.Ceilings, fields)
	if err != nil {
		return "", &StageError{Stage: name, Err: fmt.Errorf("build prompt: %w", err)}
	}

	log := p.logger.With(zap.String(logger.FieldStage, name))
	log.Debug("stage prompt", zap.String("prompt", logger.TruncateForLog(instructions, 200)))
	p.emitProgress(name, def.Category, EventStarted, nil)

	start := time.Now()
	output, err := p.generator.Generate(ctx, def.Request(instructions, p.budget))
	if err != nil {
		log.Error("stage failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		p.emitProgress(name, def.Category, EventFailed, nil)
		return "", &StageError{Stage: name, Err: err}
	}

	output = strings.TrimSpace(output)
	if err := p.cache.Append(name, output); err != nil {
		return "", &StageError{Stage: name, Err: err}
	}

	log.Info("stage completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("output_chars", len(output)),
	)
	p.emitProgress(name, def.Category, EventCompleted, output)
	return output, nil
}
