// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-forge/internal/pipeline"
	"github.com/jonathan/resume-forge/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// printBanner prints a one-line box.
//
//nolint:errcheck
func (p *Printer) printBanner(text string) {
	fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, text)
	fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
}

// PrintStage outputs one line per stage progress event.
//
//nolint:errcheck
func (p *Printer) PrintStage(event pipeline.ProgressEvent) {
	switch event.Message {
	case pipeline.EventStarted:
		fmt.Fprintf(p.out, "▶ %-16s running...\n", event.Step)
	case pipeline.EventCompleted:
		chars := 0
		if s, ok := event.Content.(string); ok {
			chars = utf8.RuneCountInString(s)
		}
		fmt.Fprintf(p.out, "✓ %-16s done (%d chars)\n", event.Step, chars)
	case pipeline.EventFailed:
		fmt.Fprintf(p.out, "✗ %-16s failed\n", event.Step)
	default:
		fmt.Fprintf(p.out, "  %-16s %s\n", event.Step, event.Message)
	}
}

// PrintEvaluation outputs the ATS evaluation: score, breakdown, missing keywords and
// quick wins.
func (p *Printer) PrintEvaluation(eval *types.EvaluationRecord) {
	if eval == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Overall Score: %.0f/100\n", eval.OverallScore))

	if len(eval.Breakdown) > 0 {
		sb.WriteString("\nBreakdown:\n")
		for _, key := range sortedKeys(eval.Breakdown) {
			sb.WriteString(fmt.Sprintf("  %-22s %.1f/5\n", key, eval.Breakdown[key]))
		}
	}

	writeList(&sb, "Missing Keywords", eval.MissingKeywords)
	writeList(&sb, "Quick Wins", eval.QuickWins)

	if eval.Summary != "" {
		sb.WriteString("\nSummary:\n")
		for _, line := range wrap(eval.Summary, boxWidth-6) {
			sb.WriteString("  " + line + "\n")
		}
	}

	if len(eval.Backfilled) > 0 {
		sb.WriteString(fmt.Sprintf("\n⚠ placeholder values: %s\n", strings.Join(eval.Backfilled, ", ")))
	}

	p.printBox("ATS EVALUATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRecord outputs an open JSON record such as career guidance or quality metrics.
// Nested objects are shown one level deep.
func (p *Printer) PrintRecord(title string, record map[string]any) {
	if len(record) == 0 {
		return
	}

	var sb strings.Builder
	for _, key := range sortedKeys(record) {
		switch v := record[key].(type) {
		case []any:
			sb.WriteString(key + ":\n")
			count := min(len(v), maxItemsToShow)
			for i := 0; i < count; i++ {
				sb.WriteString("  • " + scalar(v[i]) + "\n")
			}
			if len(v) > maxItemsToShow {
				sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(v)-maxItemsToShow))
			}
		case map[string]any:
			sb.WriteString(key + ":\n")
			for _, sub := range sortedKeys(v) {
				sb.WriteString(fmt.Sprintf("  %s: %s\n", sub, scalar(v[sub])))
			}
		default:
			sb.WriteString(fmt.Sprintf("%s: %s\n", key, scalar(v)))
		}
	}

	p.printBox(strings.ToUpper(title), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFormatIssues outputs the layout check result.
func (p *Printer) PrintFormatIssues(issues []string) {
	if len(issues) == 0 {
		p.printBanner("✅ FORMAT CHECK PASSED")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d issues:\n\n", len(issues)))
	for _, issue := range issues {
		sb.WriteString("⚠ " + issue + "\n")
	}
	p.printBox("FORMAT ISSUES", strings.TrimSuffix(sb.String(), "\n"))
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n" + title + ":\n")
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString("  • " + items[i] + "\n")
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// scalar renders a value on one line. Composite values fall back to compact JSON.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%.2f", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// clip shortens s to n runes, marking the cut with "...".
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// wrap breaks s into lines of at most width runes on word boundaries.
func wrap(s string, width int) []string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(s) {
		if line.Len() > 0 && utf8.RuneCountInString(line.String())+1+utf8.RuneCountInString(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
