package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-forge/internal/config"
	"github.com/jonathan/resume-forge/internal/db"
	"github.com/jonathan/resume-forge/internal/llm"
	"github.com/jonathan/resume-forge/internal/pipeline/stages"
	"github.com/jonathan/resume-forge/internal/service"
)

type fakeGenerator struct {
	answers  map[string]string
	failRole string
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{answers: map[string]string{
		stages.Registry[stages.Sanitization].Role:   "sanitized",
		stages.Registry[stages.Optimization].Role:   "optimized",
		stages.Registry[stages.Enhancement].Role:    "**SUMMARY**\n---\n- enhanced",
		stages.Registry[stages.Evaluation].Role:     `{"overall_score": 88, "breakdown": {}, "missing_keywords": [], "quick_wins": [], "summary": "ok"}`,
		stages.Registry[stages.CareerGuidance].Role: `{"next_steps": ["Learn Terraform"]}`,
		stages.Registry[stages.QualityScoring].Role: `{"overall_score": 71}`,
	}}
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	if req.Role == f.failRole {
		return "", errors.New("provider exploded")
	}
	return f.answers[req.Role], nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Pipeline.RunTimeout = 5 * time.Second
	cfg.RateLimit.Enabled = false
	return &cfg
}

func newTestServer(t *testing.T, gen llm.Generator, store db.Store, cfg *config.Config, opts ...Option) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	svc := service.New(gen, store, cfg, nil)
	s := New(svc, cfg, nil, opts...)
	t.Cleanup(s.Close)
	return s
}

func resumeText() string {
	return strings.Repeat("Senior engineer who shipped payment systems at scale. ", 10)
}

func optimizeBody() string {
	body, _ := json.Marshal(map[string]string{
		"resume_text":     resumeText(),
		"job_title":       "Software Engineer",
		"job_description": "Go, PostgreSQL and Kubernetes.",
	})
	return string(body)
}

func do(t *testing.T, h http.Handler, method, target, body, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRoot(t *testing.T) {
	s := newTestServer(t, newFakeGenerator(), nil, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "operational", body["status"])
	assert.Equal(t, "ResumeForge AI API", body["service"])
	assert.Equal(t, "2.0.0", body["version"])
	endpoints := body["endpoints"].(map[string]any)
	assert.Equal(t, "/api/optimize", endpoints["optimize"])
	assert.NotContains(t, endpoints, "mcp")
}

func TestHealth(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.APIKey = "secret"
	s := newTestServer(t, newFakeGenerator(), nil, cfg)

	rec := do(t, s.Handler(), http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["api_key_configured"])
	assert.Equal(t, "disabled", body["storage"])
	assert.Equal(t, "operational", body["services"].(map[string]any)["ai_pipeline"])
}

func TestOptimize(t *testing.T) {
	s := newTestServer(t, newFakeGenerator(), nil, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/api/optimize", optimizeBody(), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "sanitized", body["sanitized"])
	assert.Equal(t, "optimized", body["optimized"])
	assert.Equal(t, "**SUMMARY**\n---\n- enhanced", body["enhanced"])
	assert.Equal(t, 88.0, body["evaluation"].(map[string]any)["overall_score"])
	assert.Equal(t, "Resume optimized successfully", body["message"])
	assert.NotEmpty(t, body["run_id"])
	assert.NotContains(t, body, "report_id")
	assert.NotContains(t, body, "file_type")
}

func TestOptimize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		failRole string
		status   int
		message  string
	}{
		{
			name:    "malformed body",
			body:    "{",
			status:  http.StatusBadRequest,
			message: "Invalid request body",
		},
		{
			name:    "missing title",
			body:    `{"resume_text": "x", "job_description": "y"}`,
			status:  http.StatusBadRequest,
			message: "Job title is required",
		},
		{
			name:    "short resume",
			body:    `{"resume_text": "too short", "job_title": "SRE", "job_description": "y"}`,
			status:  http.StatusBadRequest,
			message: "Document content is too short (minimum 100 characters)",
		},
		{
			name:     "stage failure",
			body:     optimizeBody(),
			failRole: stages.Registry[stages.Enhancement].Role,
			status:   http.StatusInternalServerError,
			message:  "Optimization failed: " + stages.Enhancement + " stage failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newFakeGenerator()
			gen.failRole = tt.failRole
			s := newTestServer(t, gen, nil, nil)

			rec := do(t, s.Handler(), http.MethodPost, "/api/optimize", tt.body, "application/json")
			assert.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["error"])
		})
	}
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestOptimizeFile(t *testing.T) {
	s := newTestServer(t, newFakeGenerator(), nil, nil)

	body, contentType := multipartBody(t, "resume.txt", []byte(resumeText()), map[string]string{
		"job_title":       "Software Engineer",
		"job_description": "Go and PostgreSQL.",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/optimize-file", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeBody(t, rec)
	assert.Equal(t, "txt", out["file_type"])
	assert.Equal(t, "sanitized", out["sanitized"])
}

func TestOptimizeFile_InvalidContent(t *testing.T) {
	s := newTestServer(t, newFakeGenerator(), nil, nil)

	body, contentType := multipartBody(t, "resume.txt", []byte("tiny"), map[string]string{
		"job_title":       "Software Engineer",
		"job_description": "Go.",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/optimize-file", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid file content: Document content is too short (minimum 100 characters)", decodeBody(t, rec)["error"])
}

func TestOptimizeFile_NoFile(t *testing.T) {
	s := newTestServer(t, newFakeGenerator(), nil, nil)

	body, contentType := multipartBody(t, "", nil, map[string]string{"job_title": "SRE"})
	req := httptest.NewRequest(http.MethodPost, "/api/optimize-file", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", decodeBody(t, rec)["error"])
}

func TestOptimizeFile_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxUploadBytes = 512
	s := newTestServer(t, newFakeGenerator(), nil, cfg)

	body, contentType := multipartBody(t, "resume.txt", bytes.Repeat([]byte("a"), 4096), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/optimize-file", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

type sseEvent struct {
	name string
	data map[string]any
}

func readEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current = sseEvent{name: strings.TrimPrefix(line, "event: ")}
		case strings.HasPrefix(line, "data: "):
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &current.data))
		case line == "":
			if current.name != "" {
				events = append(events, current)
			}
			current = sseEvent{}
		}
	}
	return events
}

func TestOptimizeStream(t *testing.T) {
	s := newTestServer(t, newFakeGenerator(), nil, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/api/optimize/stream", optimizeBody(), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := readEvents(t, rec.Body.String())
	require.Len(t, events, 10)
	for _, e := range events[:8] {
		assert.Equal(t, "progress", e.name)
	}
	assert.Equal(t, stages.Sanitization, events[0].data["step"])
	assert.Equal(t, "started", events[0].data["message"])

	assert.Equal(t, "result", events[8].name)
	assert.Equal(t, "sanitized", events[8].data["sanitized"])

	assert.Equal(t, "complete", events[9].name)
	assert.Equal(t, "completed", events[9].data["status"])
	assert.Equal(t, events[8].data["run_id"], events[9].data["run_id"])
}

func TestOptimizeStream_StageFailure(t *testing.T) {
	gen := newFakeGenerator()
	gen.failRole = stages.Registry[stages.Optimization].Role
	s := newTestServer(t, gen, nil, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/api/optimize/stream", optimizeBody(), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	events := readEvents(t, rec.Body.String())
	require.GreaterOrEqual(t, len(events), 2)
	errEvent := events[len(events)-2]
	assert.Equal(t, "error", errEvent.name)
	assert.Equal(t, "Optimization failed: "+stages.Optimization+" stage failed", errEvent.data["error"])
	assert.Equal(t, float64(http.StatusInternalServerError), errEvent.data["status"])

	last := events[len(events)-1]
	assert.Equal(t, "complete", last.name)
	assert.Equal(t, "failed", last.data["status"])
}

func TestOptimizeStream_BadBody(t *testing.T) {
	s := newTestServer(t, newFakeGenerator(), nil, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/api/optimize/stream", "not json", "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestCareerGuidance(t *testing.T) {
	s := newTestServer(t, newFakeGenerator(), nil, nil)

	body := `{"resume_text": "short is fine here", "job_title": "SRE", "job_description": "Kubernetes"}`
	rec := do(t, s.Handler(), http.MethodPost, "/api/career-guidance", body, "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decodeBody(t, rec)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, []any{"Learn Terraform"}, out["guidance"].(map[string]any)["next_steps"])
}

func TestQualityScore(t *testing.T) {
	s := newTestServer(t, newFakeGenerator(), nil, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/api/quality-score", `{"resume_text": "resume", "job_title": "SRE"}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 71.0, decodeBody(t, rec)["quality_metrics"].(map[string]any)["overall_score"])

	rec = do(t, s.Handler(), http.MethodPost, "/api/quality-score", `{"job_title": "SRE"}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Resume text is required", decodeBody(t, rec)["error"])
}

func TestDownload(t *testing.T) {
	s := newTestServer(t, newFakeGenerator(), nil, nil)

	form := url.Values{"resume_text": {"**Jane Doe**\n---\n- Built things"}, "filename": {"../../etc/jane.pdf"}}
	rec := do(t, s.Handler(), http.MethodPost, "/api/download/pdf", form.Encode(), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=jane.pdf", rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	form = url.Values{"resume_text": {"**Jane Doe**\n- Built things"}}
	rec = do(t, s.Handler(), http.MethodPost, "/api/download/docx", form.Encode(), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "attachment; filename=resume.docx", rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = do(t, s.Handler(), http.MethodPost, "/api/download/pdf", "", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReports(t *testing.T) {
	store, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := testConfig()
	cfg.Storage.Driver = "sqlite"
	s := newTestServer(t, newFakeGenerator(), store, cfg)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/optimize", optimizeBody(), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	reportID, ok := decodeBody(t, rec)["report_id"].(string)
	require.True(t, ok)

	rec = do(t, h, http.MethodGet, "/api/reports?limit=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody(t, rec)
	assert.Equal(t, 1.0, list["count"])

	rec = do(t, h, http.MethodGet, "/api/reports/"+reportID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody(t, rec)
	assert.Equal(t, db.KindOptimization, report["kind"])
	assert.Equal(t, 88.0, report["overall_score"])
	assert.Len(t, report["stages"], 4)

	rec = do(t, h, http.MethodDelete, "/api/reports/"+reportID, "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/reports/"+reportID, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/reports/"+reportID, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/reports/not-a-uuid", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/reports?limit=-1", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReports_StorageDisabled(t *testing.T) {
	s := newTestServer(t, newFakeGenerator(), nil, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/api/reports", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "report storage is disabled", decodeBody(t, rec)["error"])

	rec = do(t, s.Handler(), http.MethodDelete, "/api/reports/"+"6f1c2a8e-3d44-4b7a-9a0e-1b2c3d4e5f60", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMCPHandlerMounted(t *testing.T) {
	mcp := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	s := newTestServer(t, newFakeGenerator(), nil, nil, WithMCPHandler(mcp))

	rec := do(t, s.Handler(), http.MethodPost, "/mcp", "{}", "application/json")
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = do(t, s.Handler(), http.MethodGet, "/", "", "")
	assert.Equal(t, "/mcp", decodeBody(t, rec)["endpoints"].(map[string]any)["mcp"])
}

func TestRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	s := newTestServer(t, newFakeGenerator(), nil, cfg)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = do(t, s.Handler(), http.MethodPost, "/api/quality-score", `{"resume_text": "r", "job_title": "SRE"}`, "application/json")
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))

	for i := 0; i < 10; i++ {
		rec := do(t, s.Handler(), http.MethodGet, "/api/health", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, newFakeGenerator(), nil, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s.Handler(), http.MethodGet, "/api/optimize", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
