package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/resume-forge/internal/document"
	"github.com/jonathan/resume-forge/internal/pipeline"
	"github.com/jonathan/resume-forge/internal/types"
)

const (
	opOptimize = "Optimization failed"
	opGuidance = "Career guidance failed"
	opQuality  = "Quality scoring failed"

	optimizeMessage = "Resume optimized successfully"

	// multipart parts above this stay on disk while parsing
	multipartMemory = 8 << 20
)

// OptimizeResponse is returned by /api/optimize, /api/optimize-file and the stream's
// result event.
type OptimizeResponse struct {
	Success bool `json:"success"`
	*types.OptimizationResult
	FileType string `json:"file_type,omitempty"`
	Message  string `json:"message"`
}

// GuidanceResponse is returned by /api/career-guidance.
type GuidanceResponse struct {
	Success bool `json:"success"`
	*types.GuidanceResult
}

// QualityResponse is returned by /api/quality-score.
type QualityResponse struct {
	Success bool `json:"success"`
	*types.QualityResult
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	endpoints := map[string]string{
		"health":          "/api/health",
		"optimize":        "/api/optimize",
		"optimize_stream": "/api/optimize/stream",
		"optimize_file":   "/api/optimize-file",
		"career_guidance": "/api/career-guidance",
		"quality_score":   "/api/quality-score",
		"download_pdf":    "/api/download/pdf",
		"download_docx":   "/api/download/docx",
		"reports":         "/api/reports",
	}
	if s.authHandler != nil {
		endpoints["auth_token"] = "/api/auth/token"
	}
	if s.mcpHandler != nil {
		endpoints["mcp"] = "/mcp"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "operational",
		"service":   serviceName,
		"version":   serviceVersion,
		"endpoints": endpoints,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	storage := "disabled"
	if s.svc.StorageEnabled() {
		storage = s.cfg.Storage.Driver
	}
	keyConfigured := s.cfg.LLM.Key() != "" ||
		(s.cfg.LLM.Provider == "genai" && s.cfg.LLM.Backend == "vertex")

	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"api_key_configured": keyConfigured,
		"storage":            storage,
		"services": map[string]string{
			"document_extraction": "operational",
			"ai_pipeline":         "operational",
			"pdf_generation":      "operational",
		},
	})
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req types.OptimizeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.svc.Optimize(r.Context(), req, nil)
	if err != nil {
		s.failWith(w, r, opOptimize, err)
		return
	}
	writeJSON(w, http.StatusOK, OptimizeResponse{
		Success:            true,
		OptimizationResult: result,
		Message:            optimizeMessage,
	})
}

func (s *Server) handleOptimizeFile(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.cfg.Server.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	result, kind, err := s.svc.OptimizeFile(r.Context(), header.Filename, data,
		r.FormValue("job_title"), r.FormValue("job_description"), nil)
	if err != nil {
		s.failWith(w, r, opOptimize, err)
		return
	}

	s.logger.Info("file optimized",
		zap.String("filename", header.Filename),
		zap.String("file_type", string(kind)),
		zap.Int("bytes", len(data)),
	)
	writeJSON(w, http.StatusOK, OptimizeResponse{
		Success:            true,
		OptimizationResult: result,
		FileType:           string(kind),
		Message:            optimizeMessage,
	})
}

// handleOptimizeStream runs the optimization and streams progress as SSE. Body errors
// are reported as plain JSON before the stream starts.
func (s *Server) handleOptimizeStream(w http.ResponseWriter, r *http.Request) {
	var req types.OptimizeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var runID string
	onProgress := func(e pipeline.ProgressEvent) {
		runID = e.RunID
		if err := sse.WriteEvent(eventProgress, e); err != nil {
			s.logger.Debug("progress event dropped", zap.Error(err))
		}
	}

	result, err := s.svc.Optimize(r.Context(), req, onProgress)
	if err != nil {
		s.logger.Warn("streamed optimization failed", zap.String("run_id", runID), zap.Error(err))
		sse.WriteError(HTTPStatus(err), errorMessage(opOptimize, err))
		sse.WriteComplete(runID, "failed")
		return
	}

	if err := sse.WriteEvent(eventResult, OptimizeResponse{
		Success:            true,
		OptimizationResult: result,
		Message:            optimizeMessage,
	}); err != nil {
		s.logger.Warn("failed to write result event", zap.Error(err))
		return
	}
	sse.WriteComplete(result.RunID.String(), "completed")
}

func (s *Server) handleCareerGuidance(w http.ResponseWriter, r *http.Request) {
	var req types.GuidanceRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.svc.CareerGuidance(r.Context(), req)
	if err != nil {
		s.failWith(w, r, opGuidance, err)
		return
	}
	writeJSON(w, http.StatusOK, GuidanceResponse{Success: true, GuidanceResult: result})
}

func (s *Server) handleQualityScore(w http.ResponseWriter, r *http.Request) {
	var req types.QualityRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.svc.QualityScore(r.Context(), req)
	if err != nil {
		s.failWith(w, r, opQuality, err)
		return
	}
	writeJSON(w, http.StatusOK, QualityResponse{Success: true, QualityResult: result})
}

func (s *Server) handleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	s.download(w, r, "PDF", "resume.pdf", "application/pdf", document.RenderPDF)
}

func (s *Server) handleDownloadDOCX(w http.ResponseWriter, r *http.Request) {
	s.download(w, r, "DOCX", "resume.docx", document.DOCXContentType, document.RenderDOCX)
}

func (s *Server) download(w http.ResponseWriter, r *http.Request, format, defaultName, contentType string, render func(string) ([]byte, error)) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	text := r.FormValue("resume_text")
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "Resume text is required")
		return
	}

	data, err := render(text)
	if err != nil {
		s.logger.Error("export failed", zap.String("format", format), zap.Error(err))
		writeError(w, http.StatusInternalServerError, format+" generation failed")
		return
	}

	filename := attachmentName(r.FormValue("filename"), defaultName)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// attachmentName strips directories from a caller-supplied filename.
func attachmentName(name, fallback string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return fallback
	}
	return name
}

// decodeJSON reads a bounded JSON body into v. It writes the 400 itself and reports
// whether the handler should continue.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// failWith maps a workflow error to its status and caller-facing message.
func (s *Server) failWith(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op, zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, status, errorMessage(op, err))
}
