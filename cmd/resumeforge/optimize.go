package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-forge/internal/document"
	"github.com/jonathan/resume-forge/internal/fetch"
	"github.com/jonathan/resume-forge/internal/ingestion"
	"github.com/jonathan/resume-forge/internal/observability"
	"github.com/jonathan/resume-forge/internal/pipeline"
	"github.com/jonathan/resume-forge/internal/types"
)

const formatText = "text"

// jobInput holds the flags shared by optimize and guidance.
type jobInput struct {
	resumePath     string
	jobTitle       string
	jobDescription string
	jobFile        string
	jobURL         string
	outDir         string
	format         string
}

func (in *jobInput) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&in.resumePath, "resume", "r", "", "Resume file (PDF, DOCX or text)")
	cmd.Flags().StringVarP(&in.jobTitle, "job-title", "t", "", "Target job title (prompted for when omitted on a terminal)")
	cmd.Flags().StringVarP(&in.jobDescription, "job-description", "d", "", "Job description text")
	cmd.Flags().StringVar(&in.jobFile, "job-file", "", "Path to a job description text file")
	cmd.Flags().StringVar(&in.jobURL, "job-url", "", "URL of the job posting to fetch")
	cmd.Flags().StringVarP(&in.outDir, "out", "o", "", "Directory to write outputs to")
	cmd.Flags().StringVarP(&in.format, "format", "f", formatText, "Output format: text, json or yaml")
	_ = cmd.MarkFlagRequired("resume")
	cmd.MarkFlagsMutuallyExclusive("job-description", "job-file", "job-url")
}

// resolve fills the job title and, for a job file, the description. A job URL is left
// for the caller to fetch.
func (in *jobInput) resolve() error {
	if err := checkFormat(in.format); err != nil {
		return err
	}
	if strings.TrimSpace(in.jobTitle) == "" {
		title, err := promptJobTitle()
		if err != nil {
			return err
		}
		in.jobTitle = title
	}
	if in.jobFile != "" {
		text, err := ingestion.ReadFile(in.jobFile)
		if err != nil {
			return err
		}
		in.jobDescription = text
	}
	if in.jobDescription == "" && in.jobURL == "" {
		return errors.New("one of --job-description, --job-file or --job-url is required")
	}
	return nil
}

func checkFormat(format string) error {
	switch format {
	case formatText, observability.FormatJSON, observability.FormatYAML:
		return nil
	}
	return fmt.Errorf("unsupported --format %q (want text, json or yaml)", format)
}

var (
	optimizeInput jobInput
	optimizePDF   bool
	optimizeDOCX  bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run the full four-stage optimization on a resume",
	Long: `Sanitize, optimize, enhance and evaluate a resume for a target role. Stage progress
and the evaluation are printed; with --out the stage outputs, evaluation.json and the
optional PDF/DOCX renders are written to the directory.`,
	Example: `  resumeforge optimize --resume cv.pdf --job-title "Platform Engineer" --job-file job.txt --out out/ --pdf`,
	RunE:    runOptimize,
}

func init() {
	optimizeInput.register(optimizeCmd)
	optimizeCmd.Flags().BoolVar(&optimizePDF, "pdf", false, "Also render the enhanced resume as PDF")
	optimizeCmd.Flags().BoolVar(&optimizeDOCX, "docx", false, "Also render the enhanced resume as DOCX")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	in := &optimizeInput
	resume, kind, err := readResume(in.resumePath)
	if err != nil {
		return err
	}
	if err := in.resolve(); err != nil {
		return err
	}
	appLogger.Debug("resume loaded", zap.String("path", in.resumePath), zap.String("kind", string(kind)))

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(progressWriter(cmd, in.format))

	result, err := a.svc.Optimize(ctx, types.OptimizeRequest{
		ResumeText:     resume,
		JobTitle:       in.jobTitle,
		JobDescription: in.jobDescription,
		JobURL:         in.jobURL,
	}, func(e pipeline.ProgressEvent) { printer.PrintStage(e) })
	if err != nil {
		return err
	}

	if in.outDir != "" || optimizePDF || optimizeDOCX {
		if err := writeOptimization(in.outDir, result, optimizePDF, optimizeDOCX); err != nil {
			return err
		}
	}

	if in.format != formatText {
		return observability.WriteRecord(out, in.format, result)
	}

	textPrinter := observability.NewPrinter(out)
	eval, err := types.DecodeEvaluation(result.Evaluation)
	if err != nil {
		appLogger.Warn("evaluation does not match the expected shape", zap.Error(err))
		textPrinter.PrintRecord("ATS Evaluation", result.Evaluation)
	} else {
		textPrinter.PrintEvaluation(eval)
	}
	textPrinter.PrintFormatIssues(result.FormatIssues)
	if result.ReportID != nil {
		fmt.Fprintf(out, "Report saved: %s\n", result.ReportID) //nolint:errcheck
	}
	return nil
}

// writeOptimization writes the stage outputs and optional renders into dir.
func writeOptimization(dir string, result *types.OptimizationResult, pdf, docx bool) error {
	if dir == "" {
		dir = "."
	}
	if err := ensureDir(dir); err != nil {
		return err
	}

	files := map[string]string{
		"sanitized.md": result.Sanitized,
		"optimized.md": result.Optimized,
		"enhanced.md":  result.Enhanced,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	if err := writeRecordFile(filepath.Join(dir, "evaluation.json"), result.Evaluation); err != nil {
		return err
	}

	if pdf {
		if err := renderTo(filepath.Join(dir, "resume.pdf"), result.Enhanced, document.RenderPDF); err != nil {
			return err
		}
	}
	if docx {
		if err := renderTo(filepath.Join(dir, "resume.docx"), result.Enhanced, document.RenderDOCX); err != nil {
			return err
		}
	}
	appLogger.Info("outputs written", zap.String("dir", dir))
	return nil
}

func writeRecordFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := observability.WriteRecord(f, observability.FormatJSON, v); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func renderTo(path, text string, render func(string) ([]byte, error)) error {
	data, err := render(text)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// progressWriter keeps stdout clean for machine-readable formats.
func progressWriter(cmd *cobra.Command, format string) io.Writer {
	if format == formatText {
		return cmd.OutOrStdout()
	}
	return cmd.ErrOrStderr()
}

// fetchJob resolves a job URL for workflows that take description text only.
func fetchJob(ctx context.Context, url string) (string, error) {
	if err := types.ValidateJobURL(url); err != nil {
		return "", err
	}
	f := fetch.New(fetch.Options{
		Timeout:    appConfig.Fetch.Timeout,
		UserAgent:  appConfig.Fetch.UserAgent,
		UseBrowser: appConfig.Fetch.UseBrowser,
		Logger:     appLogger,
	})
	posting, err := ingestion.FetchJobDescription(ctx, f, url, appLogger)
	if err != nil {
		return "", err
	}
	return posting.Text, nil
}
