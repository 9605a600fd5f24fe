package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-forge/internal/document"
	"github.com/jonathan/resume-forge/internal/observability"
)

var (
	exportIn   string
	exportPDF  string
	exportDOCX string

	checkResumePath string
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Render a markdown-style resume as PDF and/or DOCX",
	Example: `  resumeforge export --in out/enhanced.md --pdf resume.pdf --docx resume.docx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if exportPDF == "" && exportDOCX == "" {
			return errors.New("at least one of --pdf or --docx is required")
		}
		data, err := os.ReadFile(exportIn)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", exportIn, err)
		}
		text := string(data)

		if exportPDF != "" {
			if err := renderTo(exportPDF, text, document.RenderPDF); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", exportPDF) //nolint:errcheck
		}
		if exportDOCX != "" {
			if err := renderTo(exportDOCX, text, document.RenderDOCX); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", exportDOCX) //nolint:errcheck
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Extract a resume, validate it and run the layout check",
	Long:  "Extract text from a resume file, check its length and word count, and list layout issues. No model is called.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := os.ReadFile(checkResumePath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", checkResumePath, err)
		}
		kind, text, err := document.DetectAndExtract(checkResumePath, data)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "File type: %s\n", kind) //nolint:errcheck
		if err := document.Validate(text); err != nil {
			return fmt.Errorf("invalid resume: %w", err)
		}
		fmt.Fprintln(out, "Content: OK") //nolint:errcheck
		observability.NewPrinter(out).PrintFormatIssues(document.CheckFormat(text))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportIn, "in", "i", "", "Resume text file to render")
	exportCmd.Flags().StringVar(&exportPDF, "pdf", "", "PDF output path")
	exportCmd.Flags().StringVar(&exportDOCX, "docx", "", "DOCX output path")
	_ = exportCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(exportCmd)

	checkCmd.Flags().StringVarP(&checkResumePath, "resume", "r", "", "Resume file (PDF, DOCX or text)")
	_ = checkCmd.MarkFlagRequired("resume")
	rootCmd.AddCommand(checkCmd)
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
