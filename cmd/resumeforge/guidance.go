package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-forge/internal/observability"
	"github.com/jonathan/resume-forge/internal/types"
)

var guidanceInput jobInput

var guidanceCmd = &cobra.Command{
	Use:   "guidance",
	Short: "Produce career guidance for a target role",
	RunE:  runGuidance,
}

var (
	scoreResume   string
	scoreJobTitle string
	scoreFormat   string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score resume quality against a target role",
	RunE:  runScore,
}

func init() {
	guidanceInput.register(guidanceCmd)
	rootCmd.AddCommand(guidanceCmd)

	scoreCmd.Flags().StringVarP(&scoreResume, "resume", "r", "", "Resume file (PDF, DOCX or text)")
	scoreCmd.Flags().StringVarP(&scoreJobTitle, "job-title", "t", "", "Target job title (prompted for when omitted on a terminal)")
	scoreCmd.Flags().StringVarP(&scoreFormat, "format", "f", formatText, "Output format: text, json or yaml")
	_ = scoreCmd.MarkFlagRequired("resume")
	rootCmd.AddCommand(scoreCmd)
}

func runGuidance(cmd *cobra.Command, _ []string) error {
	in := &guidanceInput
	resume, _, err := readResume(in.resumePath)
	if err != nil {
		return err
	}
	if err := in.resolve(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if in.jobDescription == "" {
		text, err := fetchJob(ctx, in.jobURL)
		if err != nil {
			return fmt.Errorf("could not fetch job description from %s: %w", in.jobURL, err)
		}
		in.jobDescription = text
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.svc.CareerGuidance(ctx, types.GuidanceRequest{
		ResumeText:     resume,
		JobTitle:       in.jobTitle,
		JobDescription: in.jobDescription,
	})
	if err != nil {
		return err
	}

	if in.outDir != "" {
		if err := ensureDir(in.outDir); err != nil {
			return err
		}
		if err := writeRecordFile(filepath.Join(in.outDir, "guidance.json"), result.Guidance); err != nil {
			return err
		}
	}
	return printRecord(cmd, in.format, "Career Guidance", result, result.Guidance)
}

func runScore(cmd *cobra.Command, _ []string) error {
	if err := checkFormat(scoreFormat); err != nil {
		return err
	}
	resume, _, err := readResume(scoreResume)
	if err != nil {
		return err
	}
	if scoreJobTitle == "" {
		if scoreJobTitle, err = promptJobTitle(); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.svc.QualityScore(ctx, types.QualityRequest{
		ResumeText: resume,
		JobTitle:   scoreJobTitle,
	})
	if err != nil {
		return err
	}
	return printRecord(cmd, scoreFormat, "Quality Metrics", result, result.QualityMetrics)
}

// printRecord writes full for json and yaml, or a box of record for text.
func printRecord(cmd *cobra.Command, format, title string, full any, record map[string]any) error {
	out := cmd.OutOrStdout()
	if format != formatText {
		return observability.WriteRecord(out, format, full)
	}
	observability.NewPrinter(out).PrintRecord(title, record)
	return nil
}
