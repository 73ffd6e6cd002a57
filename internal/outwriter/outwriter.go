// Package outwriter renders reports to the terminal or as markdown.
package outwriter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prpulse/prpulse/core"
	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the output formats and provides a clean API for the
// command layer.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteReport prints the full metrics report using the configured format.
func (ow *OutWriter) WriteReport(report *core.ReportData, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.MarkdownOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportMarkdown(w, report)
		}, "Wrote markdown")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportTerminal(w, report, cfg)
		}, "Wrote report")
	}
}

// WriteContributors prints the per-repository contributor report.
func (ow *OutWriter) WriteContributors(report *core.ContributorReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.MarkdownOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeContributorsMarkdown(w, report)
		}, "Wrote markdown")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeContributorsTerminal(w, report)
		}, "Wrote report")
	}
}

// WriteCollectSummary prints the post-ingestion console rollup.
func (ow *OutWriter) WriteCollectSummary(result *core.CollectResult, cfg *contract.Config, duration time.Duration) error {
	summary := result.Summary
	w := os.Stdout

	fmt.Fprintf(w, "Collected %d pull requests from %d repositories in %s\n", summary.TotalPRs, summary.Repos, cfg.Org)
	if summary.TotalPRs == 0 {
		return nil
	}
	fmt.Fprintf(w, "  Merged: %d (%.1f%%)\n", summary.MergedPRs, summary.MergeRate)
	fmt.Fprintf(w, "  Avg size: %.0f lines\n", summary.AvgPRSize)
	if summary.MergedPRs > 0 {
		fmt.Fprintf(w, "  Merge time: median %.1fh, p90 %.1fh\n", summary.MedianMergeHours, summary.P90MergeHours)
	}
	for i, author := range summary.TopAuthors {
		fmt.Fprintf(w, "  Top author %d: %s (%d PRs)\n", i+1, author.Author, author.PRCount)
	}
	fmt.Fprintf(w, "  Wrote %d rows across %d partitions\n", result.Write.Rows, result.Write.Partitions)
	if result.SnapshotPath != "" {
		fmt.Fprintf(w, "  Legacy snapshot: %s\n", result.SnapshotPath)
	}
	fmt.Fprintf(w, "Collection completed in %v\n", duration.Round(time.Millisecond))
	return nil
}

// GetTableWidth returns the render width for terminal tables: the explicit
// override when set, the detected terminal width otherwise, with a
// conservative default for pipes and CI.
func GetTableWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detected, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detected <= 0 {
		return 100
	}
	return detected
}
