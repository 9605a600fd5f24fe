package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-forge/internal/db"
	"github.com/jonathan/resume-forge/internal/observability"
)

var (
	reportsLimit  int
	reportsFormat string
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect stored reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent reports, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		summaries, err := store.ListReports(cmd.Context(), reportsLimit)
		if err != nil {
			return fmt.Errorf("failed to list reports: %w", err)
		}
		if reportsFormat != formatText {
			return observability.WriteRecord(cmd.OutOrStdout(), reportsFormat, summaries)
		}
		return printSummaries(cmd.OutOrStdout(), summaries)
	},
}

var reportsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid report id %q", args[0])
		}
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		report, err := store.GetReport(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get report: %w", err)
		}
		if report == nil {
			return fmt.Errorf("report not found: %s", id)
		}

		format := reportsFormat
		if format == formatText {
			format = observability.FormatYAML
		}
		return observability.WriteRecord(cmd.OutOrStdout(), format, report)
	},
}

var reportsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete one report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid report id %q", args[0])
		}
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		deleted, err := store.DeleteReport(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to delete report: %w", err)
		}
		if !deleted {
			return fmt.Errorf("report not found: %s", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id) //nolint:errcheck
		return nil
	},
}

func init() {
	reportsCmd.PersistentFlags().StringVarP(&reportsFormat, "format", "f", formatText, "Output format: text, json or yaml")
	reportsListCmd.Flags().IntVarP(&reportsLimit, "limit", "n", db.DefaultListLimit, "Maximum number of reports")

	reportsCmd.AddCommand(reportsListCmd, reportsShowCmd, reportsDeleteCmd)
	rootCmd.AddCommand(reportsCmd)
}

//nolint:errcheck
func printSummaries(w io.Writer, summaries []db.ReportSummary) error {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No reports stored.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSTATUS\tROLE\tSCORE\tCREATED")
	for _, s := range summaries {
		score := "-"
		if s.OverallScore != nil {
			score = fmt.Sprintf("%.0f", *s.OverallScore)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Kind, s.Status, s.TargetRole, score, s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
