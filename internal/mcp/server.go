// Package mcp exposes the resume workflows as Model Context Protocol tools over stdio
// and streamable HTTP.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/jonathan/resume-forge/internal/db"
	"github.com/jonathan/resume-forge/internal/document"
	"github.com/jonathan/resume-forge/internal/pipeline"
	"github.com/jonathan/resume-forge/internal/service"
	"github.com/jonathan/resume-forge/internal/types"
)

const (
	serverName   = "resume-forge"
	instructions = "ResumeForge optimizes resumes for applicant tracking systems. " +
		"Call check_resume first to confirm the text is usable, then optimize_resume, career_guidance or quality_score."

	recentReportsURI   = "reports://recent"
	recentReportsLimit = 10
)

// NewServer registers the workflow tools, plus the report tools and resource when
// storage is enabled.
func NewServer(svc *service.Service, version string, logger *zap.Logger) *server.MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	storage := svc.StorageEnabled()

	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, storage),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)

	s.AddTool(
		mcpgo.NewTool("optimize_resume",
			mcpgo.WithDescription("Run the four-stage ATS optimization (sanitize, optimize, enhance, evaluate) and return every stage output with the parsed evaluation."),
			mcpgo.WithString("resume_text", mcpgo.Description("Plain resume text"), mcpgo.Required()),
			mcpgo.WithString("job_title", mcpgo.Description("Target job title"), mcpgo.Required()),
			mcpgo.WithString("job_description", mcpgo.Description("Job description or requirements")),
			mcpgo.WithString("job_url", mcpgo.Description("Job posting URL, fetched when job_description is empty")),
		),
		optimizeResume(svc, logger),
	)

	s.AddTool(
		mcpgo.NewTool("career_guidance",
			mcpgo.WithDescription("Produce career guidance for moving toward the target role: gaps, next steps and positioning."),
			mcpgo.WithString("resume_text", mcpgo.Description("Plain resume text"), mcpgo.Required()),
			mcpgo.WithString("job_title", mcpgo.Description("Target job title"), mcpgo.Required()),
			mcpgo.WithString("job_description", mcpgo.Description("Job description or requirements"), mcpgo.Required()),
		),
		careerGuidance(svc),
	)

	s.AddTool(
		mcpgo.NewTool("quality_score",
			mcpgo.WithDescription("Score resume quality against the target role."),
			mcpgo.WithString("resume_text", mcpgo.Description("Plain resume text"), mcpgo.Required()),
			mcpgo.WithString("job_title", mcpgo.Description("Target job title"), mcpgo.Required()),
		),
		qualityScore(svc),
	)

	s.AddTool(
		mcpgo.NewTool("check_resume",
			mcpgo.WithDescription("Validate resume text length and word count and list layout issues. Does not call a model."),
			mcpgo.WithString("resume_text", mcpgo.Description("Plain resume text"), mcpgo.Required()),
		),
		checkResume(),
	)

	if storage {
		s.AddTool(
			mcpgo.NewTool("get_report",
				mcpgo.WithDescription("Fetch a stored report by id."),
				mcpgo.WithString("id", mcpgo.Description("Report id (UUID)"), mcpgo.Required()),
			),
			getReport(svc),
		)

		s.AddResource(
			mcpgo.NewResource(
				recentReportsURI,
				"Recent Reports",
				mcpgo.WithResourceDescription("The most recent stored reports (summaries only)"),
				mcpgo.WithMIMEType("application/json"),
			),
			recentReports(svc),
		)
	}

	return s
}

// HTTPHandler serves s over the streamable HTTP transport.
func HTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s)
}

// ServeStdio serves s on in and out until ctx ends or in closes.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	err := server.NewStdioServer(s).Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio server: %w", err)
	}
	return nil
}

func optimizeResume(svc *service.Service, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		resume, err := req.RequireString("resume_text")
		if err != nil {
			return mcpError("resume_text is required"), nil
		}
		title, err := req.RequireString("job_title")
		if err != nil {
			return mcpError("job_title is required"), nil
		}

		onProgress := func(e pipeline.ProgressEvent) {
			logger.Debug("mcp stage progress",
				zap.String("run_id", e.RunID),
				zap.String("stage", e.Step),
				zap.String("event", e.Message),
			)
		}
		result, err := svc.Optimize(ctx, types.OptimizeRequest{
			ResumeText:     resume,
			JobTitle:       title,
			JobDescription: req.GetString("job_description", ""),
			JobURL:         req.GetString("job_url", ""),
		}, onProgress)
		if err != nil {
			return mcpError(toolMessage("optimization failed", err)), nil
		}
		return mcpJSON(result)
	}
}

func careerGuidance(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		result, err := svc.CareerGuidance(ctx, types.GuidanceRequest{
			ResumeText:     req.GetString("resume_text", ""),
			JobTitle:       req.GetString("job_title", ""),
			JobDescription: req.GetString("job_description", ""),
		})
		if err != nil {
			return mcpError(toolMessage("career guidance failed", err)), nil
		}
		return mcpJSON(result.Guidance)
	}
}

func qualityScore(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		result, err := svc.QualityScore(ctx, types.QualityRequest{
			ResumeText: req.GetString("resume_text", ""),
			JobTitle:   req.GetString("job_title", ""),
		})
		if err != nil {
			return mcpError(toolMessage("quality scoring failed", err)), nil
		}
		return mcpJSON(result.QualityMetrics)
	}
}

// checkReport is the check_resume result.
type checkReport struct {
	Valid        bool     `json:"valid"`
	Reason       string   `json:"reason,omitempty"`
	Characters   int      `json:"characters"`
	Words        int      `json:"words"`
	FormatIssues []string `json:"format_issues"`
}

func checkResume() server.ToolHandlerFunc {
	return func(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		text, err := req.RequireString("resume_text")
		if err != nil {
			return mcpError("resume_text is required"), nil
		}

		trimmed := strings.TrimSpace(text)
		report := checkReport{
			Valid:        true,
			Characters:   utf8.RuneCountInString(trimmed),
			Words:        len(strings.Fields(trimmed)),
			FormatIssues: document.CheckFormat(text),
		}
		if err := document.Validate(text); err != nil {
			report.Valid = false
			report.Reason = err.Error()
		}
		return mcpJSON(report)
	}
}

func getReport(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		raw, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return mcpError("invalid report id: " + raw), nil
		}

		report, err := svc.Reports().GetReport(ctx, id)
		if err != nil {
			return mcpError("failed to load report"), nil
		}
		if report == nil {
			return mcpError("report not found: " + raw), nil
		}
		return mcpJSON(report)
	}
}

func recentReports(svc *service.Service) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcpgo.ReadResourceRequest) ([]mcpgo.ResourceContents, error) {
		summaries, err := svc.Reports().ListReports(ctx, recentReportsLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", err)
		}
		if summaries == nil {
			summaries = []db.ReportSummary{}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal reports: %w", err)
		}
		return []mcpgo.ResourceContents{
			mcpgo.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

// toolMessage keeps validation reasons and stage names visible to the caller and hides
// everything else behind op.
func toolMessage(op string, err error) string {
	var (
		validationErr *types.ValidationError
		stageErr      *pipeline.StageError
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Reason
	case errors.Is(err, types.ErrBusy):
		return err.Error()
	case errors.As(err, &stageErr):
		return fmt.Sprintf("%s: %s stage failed", op, stageErr.Stage)
	default:
		return op
	}
}

func mcpJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcpError("failed to encode result"), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcpgo.CallToolResult {
	return &mcpgo.CallToolResult{
		Content: []mcpgo.Content{
			mcpgo.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcpgo.CallToolResult {
	return &mcpgo.CallToolResult{
		Content: []mcpgo.Content{
			mcpgo.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
