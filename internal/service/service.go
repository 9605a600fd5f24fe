// Package service runs the resume workflows on behalf of the HTTP server, the MCP
// tools and the CLI: input resolution and validation, run slots, parsing and
// report persistence around a fresh pipeline per call.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/resume-forge/internal/config"
	"github.com/jonathan/resume-forge/internal/db"
	"github.com/jonathan/resume-forge/internal/fetch"
	"github.com/jonathan/resume-forge/internal/llm"
	"github.com/jonathan/resume-forge/internal/pipeline"
	"github.com/jonathan/resume-forge/internal/types"
)

// Service runs workflows. It is safe for concurrent use; every call builds its own Pipeline.
type Service struct {
	generator   llm.Generator
	store       db.Store
	fetcher     *fetch.Fetcher
	slots       *semaphore.Weighted
	runTimeout  time.Duration
	stageBudget time.Duration
	logger      *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithFetcher replaces the job page fetcher built from the fetch config.
func WithFetcher(f *fetch.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// New creates a Service. store may be nil, which disables persistence.
func New(gen llm.Generator, store db.Store, cfg *config.Config, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}

	slots := cfg.Pipeline.MaxConcurrentRuns
	if slots <= 0 {
		slots = 1
	}

	s := &Service{
		generator:   gen,
		store:       store,
		slots:       semaphore.NewWeighted(int64(slots)),
		runTimeout:  cfg.Pipeline.RunTimeout,
		stageBudget: cfg.LLM.StageBudget,
		logger:      logger,
		fetcher: fetch.New(fetch.Options{
			Timeout:    cfg.Fetch.Timeout,
			UserAgent:  cfg.Fetch.UserAgent,
			UseBrowser: cfg.Fetch.UseBrowser,
			Logger:     logger,
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reports returns the report store, or nil when persistence is disabled.
func (s *Service) Reports() db.Store {
	return s.store
}

// StorageEnabled reports whether reports are persisted.
func (s *Service) StorageEnabled() bool {
	return s.store != nil
}

// acquire takes a run slot, failing with types.ErrBusy if ctx ends first.
// The returned function releases the slot.
func (s *Service) acquire(ctx context.Context) (func(), error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		s.logger.Warn("no pipeline run slot available", zap.Error(err))
		return nil, types.ErrBusy
	}
	return func() { s.slots.Release(1) }, nil
}

// newPipeline creates the per-call pipeline and the run context bounded by the run timeout.
func (s *Service) newPipeline(ctx context.Context, onProgress pipeline.ProgressCallback) (*pipeline.Pipeline, context.Context, context.CancelFunc) {
	opts := []pipeline.Option{pipeline.WithLogger(s.logger)}
	if onProgress != nil {
		opts = append(opts, pipeline.WithProgress(onProgress))
	}
	if s.stageBudget > 0 {
		opts = append(opts, pipeline.WithStageBudget(s.stageBudget))
	}
	p := pipeline.New(s.generator, opts...)

	if s.runTimeout <= 0 {
		runCtx, cancel := context.WithCancel(ctx)
		return p, runCtx, cancel
	}
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	return p, runCtx, cancel
}

// saveReport persists r when storage is enabled. Failures are logged, never returned:
// a finished run is still delivered to the caller.
func (s *Service) saveReport(ctx context.Context, r *db.Report) *db.Report {
	if s.store == nil {
		return nil
	}
	// The caller's context may already be done (run timeout, client gone).
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.store.SaveReport(saveCtx, r); err != nil {
		s.logger.Error("failed to save report",
			zap.String("run_id", r.RunID),
			zap.String("kind", r.Kind),
			zap.Error(err),
		)
		return nil
	}
	return r
}

func stageRecords(results []pipeline.StageResult) []db.StageRecord {
	out := make([]db.StageRecord, len(results))
	for i, r := range results {
		out[i] = db.StageRecord{Stage: r.Stage, Output: r.Output}
	}
	return out
}

// failedStage names the stage carried by a pipeline error, if any.
func failedStage(err error) string {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}
