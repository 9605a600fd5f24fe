package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/resume-forge/internal/config"
	"github.com/jonathan/resume-forge/internal/db"
	"github.com/jonathan/resume-forge/internal/document"
	"github.com/jonathan/resume-forge/internal/llm"
	"github.com/jonathan/resume-forge/internal/parsing"
	"github.com/jonathan/resume-forge/internal/pipeline"
	"github.com/jonathan/resume-forge/internal/pipeline/stages"
	"github.com/jonathan/resume-forge/internal/types"
)

const evaluationJSON = `{"overall_score": 84, "breakdown": {"keyword_match": 4}, "missing_keywords": ["k8s"], "quick_wins": ["Quantify impact"], "summary": "Good fit"}`

type fakeGenerator struct {
	mu       sync.Mutex
	answers  map[string]string
	failRole string
	block    chan struct{}
	calls    int
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{answers: map[string]string{
		stages.Registry[stages.Sanitization].Role:   "sanitized",
		stages.Registry[stages.Optimization].Role:   "optimized",
		stages.Registry[stages.Enhancement].Role:    "**SUMMARY**\n---\n- enhanced",
		stages.Registry[stages.Evaluation].Role:     "Here you go:\n```json\n" + evaluationJSON + "\n```",
		stages.Registry[stages.CareerGuidance].Role: `{"next_steps": ["Learn Terraform"]}`,
		stages.Registry[stages.QualityScoring].Role: `{"overall_score": 71, "ats_score": 80}`,
	}}
}

func (f *fakeGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if req.Role == f.failRole {
		return "", errors.New("provider exploded")
	}
	return f.answers[req.Role], nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Pipeline.MaxConcurrentRuns = 2
	cfg.Pipeline.RunTimeout = 5 * time.Second
	return &cfg
}

func validResume() string {
	return strings.Repeat("Senior engineer who shipped payment systems at scale. ", 10)
}

func validRequest() types.OptimizeRequest {
	return types.OptimizeRequest{
		ResumeText:     validResume(),
		JobTitle:       "Software Engineer",
		JobDescription: strings.Repeat("Go and PostgreSQL. ", 15),
	}
}

func memoryStore(t *testing.T) *db.SQLiteStore {
	t.Helper()
	store, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOptimize(t *testing.T) {
	svc := New(newFakeGenerator(), nil, testConfig(), nil)

	var events []pipeline.ProgressEvent
	result, err := svc.Optimize(context.Background(), validRequest(), func(e pipeline.ProgressEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)

	assert.Equal(t, "sanitized", result.Sanitized)
	assert.Equal(t, "optimized", result.Optimized)
	assert.Equal(t, "**SUMMARY**\n---\n- enhanced", result.Enhanced)
	assert.Equal(t, 84.0, result.Evaluation[parsing.KeyOverallScore])
	assert.Equal(t, string(parsing.MethodBraceSpan), result.ParseMethod)
	assert.Contains(t, result.FormatIssues, "Missing required section: SKILLS")
	assert.Nil(t, result.ReportID)
	assert.Len(t, events, 8)
}

func TestOptimize_PersistsReport(t *testing.T) {
	store := memoryStore(t)
	svc := New(newFakeGenerator(), store, testConfig(), nil)
	assert.True(t, svc.StorageEnabled())

	result, err := svc.Optimize(context.Background(), validRequest(), nil)
	require.NoError(t, err)
	require.NotNil(t, result.ReportID)

	report, err := store.GetReport(context.Background(), *result.ReportID)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, db.KindOptimization, report.Kind)
	assert.Equal(t, db.StatusCompleted, report.Status)
	assert.Equal(t, result.RunID.String(), report.RunID)
	assert.Len(t, report.Stages, 4)
	require.NotNil(t, report.OverallScore)
	assert.Equal(t, 84.0, *report.OverallScore)
}

func TestOptimize_FailurePersistsPartialStages(t *testing.T) {
	store := memoryStore(t)
	gen := newFakeGenerator()
	gen.failRole = stages.Registry[stages.Enhancement].Role
	svc := New(gen, store, testConfig(), nil)

	_, err := svc.Optimize(context.Background(), validRequest(), nil)
	require.Error(t, err)

	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, stages.Enhancement, stageErr.Stage)

	list, err := store.ListReports(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, db.StatusFailed, list[0].Status)

	report, err := store.GetReport(context.Background(), list[0].ID)
	require.NoError(t, err)
	require.Len(t, report.Stages, 2)
	assert.Equal(t, stages.Sanitization, report.Stages[0].Stage)
	assert.Equal(t, stages.Optimization, report.Stages[1].Stage)
	assert.Contains(t, report.Error, "enhancement stage failed")
}

func TestOptimize_ValidationBeforeStages(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.OptimizeRequest)
		reason string
	}{
		{"missing title", func(r *types.OptimizeRequest) { r.JobTitle = "  " }, "Job title is required"},
		{"missing description", func(r *types.OptimizeRequest) { r.JobDescription = "" }, "Job description is required"},
		{"short resume", func(r *types.OptimizeRequest) { r.ResumeText = strings.Repeat("a", 99) }, "Document content is too short (minimum 100 characters)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newFakeGenerator()
			svc := New(gen, nil, testConfig(), nil)

			req := validRequest()
			tt.mutate(&req)
			_, err := svc.Optimize(context.Background(), req, nil)

			var verr *types.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.reason, verr.Reason)
			assert.Zero(t, gen.calls)
		})
	}
}

func TestOptimize_FallbackEvaluationLogged(t *testing.T) {
	gen := newFakeGenerator()
	gen.answers[stages.Registry[stages.Evaluation].Role] = "no json at all"

	core, logs := observer.New(zap.WarnLevel)
	svc := New(gen, nil, testConfig(), zap.New(core))

	result, err := svc.Optimize(context.Background(), validRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, string(parsing.MethodFallback), result.ParseMethod)
	assert.Equal(t, 75.0, result.Evaluation[parsing.KeyOverallScore])
	assert.Equal(t, 1, logs.FilterMessage("structured output recovered with placeholder values").Len())
}

func TestOptimize_JobURL(t *testing.T) {
	page := `<html><body><main><h1>Backend Engineer</h1><p>` +
		strings.Repeat("Build Go services on Kubernetes. ", 20) + `</p></main></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	svc := New(newFakeGenerator(), nil, testConfig(), nil)
	req := validRequest()
	req.JobDescription = ""
	req.JobURL = server.URL

	result, err := svc.Optimize(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, "optimized", result.Optimized)
}

func TestOptimize_JobURLUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	svc := New(newFakeGenerator(), nil, testConfig(), nil)
	req := validRequest()
	req.JobDescription = ""
	req.JobURL = server.URL

	_, err := svc.Optimize(context.Background(), req, nil)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "job_url", verr.Field)
}

func TestOptimize_Busy(t *testing.T) {
	gen := newFakeGenerator()
	gen.block = make(chan struct{})
	cfg := testConfig()
	cfg.Pipeline.MaxConcurrentRuns = 1
	svc := New(gen, nil, cfg, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Optimize(context.Background(), validRequest(), nil)
		done <- err
	}()

	require.Eventually(t, func() bool {
		gen.mu.Lock()
		defer gen.mu.Unlock()
		return gen.calls > 0
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := svc.QualityScore(ctx, types.QualityRequest{ResumeText: validResume(), JobTitle: "SRE"})
	assert.ErrorIs(t, err, types.ErrBusy)

	close(gen.block)
	require.NoError(t, <-done)
}

func TestOptimize_RunTimeout(t *testing.T) {
	gen := newFakeGenerator()
	gen.block = make(chan struct{})
	defer close(gen.block)

	cfg := testConfig()
	cfg.Pipeline.RunTimeout = 30 * time.Millisecond
	svc := New(gen, nil, cfg, nil)

	_, err := svc.Optimize(context.Background(), validRequest(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOptimizeFile(t *testing.T) {
	svc := New(newFakeGenerator(), nil, testConfig(), nil)

	result, kind, err := svc.OptimizeFile(context.Background(), "resume.txt", []byte(validResume()),
		"Software Engineer", strings.Repeat("Go. ", 30), nil)
	require.NoError(t, err)
	assert.Equal(t, document.KindText, kind)
	assert.Equal(t, "sanitized", result.Sanitized)
}

func TestOptimizeFile_InvalidContent(t *testing.T) {
	svc := New(newFakeGenerator(), nil, testConfig(), nil)

	_, _, err := svc.OptimizeFile(context.Background(), "resume.txt", []byte("too short"), "SWE", "Go", nil)
	var verr *document.ValidationError
	require.ErrorAs(t, err, &verr)

	_, kind, err := svc.OptimizeFile(context.Background(), "resume.pdf", []byte("not a pdf"), "SWE", "Go", nil)
	var xerr *document.ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, document.KindPDF, kind)
}

func TestCareerGuidance(t *testing.T) {
	store := memoryStore(t)
	svc := New(newFakeGenerator(), store, testConfig(), nil)

	result, err := svc.CareerGuidance(context.Background(), types.GuidanceRequest{
		ResumeText:     "resume",
		JobTitle:       "Staff Engineer",
		JobDescription: "Lead platform work",
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"Learn Terraform"}, result.Guidance["next_steps"])
	require.NotNil(t, result.ReportID)

	report, err := store.GetReport(context.Background(), *result.ReportID)
	require.NoError(t, err)
	assert.Equal(t, db.KindCareerGuidance, report.Kind)
	assert.Nil(t, report.OverallScore)
}

func TestCareerGuidance_RawFallback(t *testing.T) {
	gen := newFakeGenerator()
	gen.answers[stages.Registry[stages.CareerGuidance].Role] = "Keep learning."
	svc := New(gen, nil, testConfig(), nil)

	result, err := svc.CareerGuidance(context.Background(), types.GuidanceRequest{
		ResumeText: "resume", JobTitle: "SRE", JobDescription: "Ops",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{parsing.KeyRawOutput: "Keep learning."}, result.Guidance)
}

func TestQualityScore(t *testing.T) {
	svc := New(newFakeGenerator(), nil, testConfig(), nil)

	result, err := svc.QualityScore(context.Background(), types.QualityRequest{ResumeText: "resume", JobTitle: "SRE"})
	require.NoError(t, err)
	assert.Equal(t, 80.0, result.QualityMetrics["ats_score"])
}

func TestQualityScore_Validation(t *testing.T) {
	svc := New(newFakeGenerator(), nil, testConfig(), nil)

	_, err := svc.QualityScore(context.Background(), types.QualityRequest{ResumeText: "resume"})
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Job title is required", verr.Reason)
}
