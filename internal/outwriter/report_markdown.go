package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/prpulse/prpulse/core"
	"github.com/prpulse/prpulse/internal/contract"
)

// writeMarkdownTable emits a pipe table with a header separator row.
func writeMarkdownTable(w io.Writer, headers []string, rows [][]string) error {
	if _, err := fmt.Fprintf(w, "| %s |\n", strings.Join(headers, " | ")); err != nil {
		return err
	}
	separators := make([]string, len(headers))
	for i := range separators {
		separators[i] = "---"
	}
	if _, err := fmt.Fprintf(w, "| %s |\n", strings.Join(separators, " | ")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "| %s |\n", strings.Join(row, " | ")); err != nil {
			return err
		}
	}
	return nil
}

// writeReportMarkdown renders the full report as a markdown document.
func writeReportMarkdown(w io.Writer, report *core.ReportData) error {
	fmt.Fprintf(w, "# PR Metrics: %s\n\n", windowLabel(report.Org, report.Repo, report.DaysBack))
	fmt.Fprintf(w, "%s\n\n", sourceNote(report.Source, report.RowCount))

	fmt.Fprintf(w, "## Summary\n\n")
	s := report.Summary
	fmt.Fprintf(w, "- Total PRs: %d\n", s.TotalPRs)
	fmt.Fprintf(w, "- Merged: %d (%s)\n", s.MergedPRs, contract.FormatRate(mergeRateOf(s)))
	fmt.Fprintf(w, "- Avg size: %s lines\n", contract.FormatFloat(s.AvgPRSize))
	fmt.Fprintf(w, "- Avg merge time: %s\n", contract.FormatHours(s.AvgMergeTime))
	fmt.Fprintf(w, "- Repositories: %d, authors: %d\n", s.UniqueRepos, s.UniqueAuthors)
	if s.DateMin != nil && s.DateMax != nil {
		fmt.Fprintf(w, "- Date range: %s to %s\n", s.DateMin.Format("2006-01-02"), s.DateMax.Format("2006-01-02"))
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "## Authors\n\n")
	authorRows := make([][]string, 0, len(report.Authors))
	for _, a := range report.Authors {
		authorRows = append(authorRows, []string{
			a.Author,
			strconv.FormatInt(a.PRCount, 10),
			strconv.FormatInt(a.MergedCount, 10),
			contract.FormatRate(a.MergeRate),
			contract.FormatFloat(a.AvgPRSize),
			contract.FormatHours(a.AvgMergeTime),
			contract.FormatFloat(a.AvgReviews),
		})
	}
	if err := writeMarkdownTable(w, []string{"Author", "PRs", "Merged", "Rate", "Avg Size", "Avg Merge", "Avg Reviews"}, authorRows); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n## Repositories\n\n")
	repoRows := make([][]string, 0, len(report.Repos))
	for _, r := range report.Repos {
		repoRows = append(repoRows, []string{
			r.Repo,
			strconv.FormatInt(r.PRCount, 10),
			strconv.FormatInt(r.MergedCount, 10),
			contract.FormatRate(r.MergeRate),
			strconv.FormatInt(r.ContributorCount, 10),
			contract.FormatFloat(r.AvgPRSize),
			contract.FormatHours(r.AvgMergeTime),
		})
	}
	if err := writeMarkdownTable(w, []string{"Repository", "PRs", "Merged", "Rate", "Contribs", "Avg Size", "Avg Merge"}, repoRows); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n## PR Size Distribution\n\n")
	sizeRows := make([][]string, 0, len(report.Sizes))
	for _, sb := range report.Sizes {
		sizeRows = append(sizeRows, []string{
			string(sb.Bucket),
			strconv.FormatInt(sb.PRCount, 10),
			contract.FormatHours(sb.AvgMergeTime),
		})
	}
	if err := writeMarkdownTable(w, []string{"Size", "PRs", "Avg Merge"}, sizeRows); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n## Weekly Activity\n\n")
	weeklyRows := make([][]string, 0, len(report.Weekly))
	for _, p := range newestFirst(report.Weekly) {
		weeklyRows = append(weeklyRows, []string{
			p.Period,
			strconv.FormatInt(p.PRCount, 10),
			strconv.FormatInt(p.MergedCount, 10),
			contract.FormatRate(p.MergeRate),
			strconv.FormatInt(p.ActiveAuthors, 10),
			contract.FormatFloat(p.PRsPerDev),
			contract.FormatHours(p.AvgMergeTime),
			contract.TrendGlyph(p.Trend),
		})
	}
	if err := writeMarkdownTable(w, []string{"Week", "PRs", "Merged", "Rate", "Devs", "PRs/Dev", "Avg Merge", "Trend"}, weeklyRows); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n## Monthly Activity\n\n")
	monthlyRows := make([][]string, 0, len(report.Monthly))
	for _, p := range newestFirst(report.Monthly) {
		monthlyRows = append(monthlyRows, []string{
			p.Period,
			strconv.FormatInt(p.PRCount, 10),
			strconv.FormatInt(p.MergedCount, 10),
			strconv.FormatInt(p.ActiveAuthors, 10),
			contract.FormatFloat(p.AvgPRSize),
		})
	}
	if err := writeMarkdownTable(w, []string{"Month", "PRs", "Merged", "Devs", "Avg Size"}, monthlyRows); err != nil {
		return err
	}

	for _, aw := range report.AuthorWeekly {
		fmt.Fprintf(w, "\n## Weekly: %s\n\n", aw.Author)
		rows := make([][]string, 0, len(aw.Weeks))
		for _, p := range newestFirst(aw.Weeks) {
			rows = append(rows, []string{
				p.Period,
				strconv.FormatInt(p.PRCount, 10),
				strconv.FormatInt(p.MergedCount, 10),
				contract.FormatRate(p.MergeRate),
				contract.FormatHours(p.AvgMergeTime),
				contract.TrendGlyph(p.Trend),
			})
		}
		if err := writeMarkdownTable(w, []string{"Week", "PRs", "Merged", "Rate", "Avg Merge", "Trend"}, rows); err != nil {
			return err
		}
	}
	return nil
}

// writeContributorsMarkdown renders the contributor report as markdown.
func writeContributorsMarkdown(w io.Writer, report *core.ContributorReport) error {
	fmt.Fprintf(w, "# Contributors: %s\n\n", windowLabel(report.Org, report.Repo, 0))
	fmt.Fprintf(w, "%s\n\n", sourceNote(report.Source, report.RowCount))

	rows := make([][]string, 0, len(report.Contributors))
	for _, c := range report.Contributors {
		rows = append(rows, []string{
			c.Author,
			strconv.FormatInt(c.PRCount, 10),
			strconv.FormatInt(c.MergedCount, 10),
			contract.FormatRate(c.MergeRate),
			contract.FormatFloat(c.AvgPRSize),
			contract.FormatHours(c.AvgMergeTime),
			strconv.FormatInt(c.ReviewsGiven, 10),
			contract.FormatRate(c.SelfMergeRate),
		})
	}
	if err := writeMarkdownTable(w, []string{"Author", "PRs", "Merged", "Rate", "Avg Size", "Avg Merge", "Reviews Given", "Self-Merge"}, rows); err != nil {
		return err
	}

	b := report.Baseline
	fmt.Fprintf(w, "\nBaseline: merge rate %s, merge time %s, avg size %s, avg reviews %s\n",
		contract.FormatRate(b.AvgMergeRate),
		contract.FormatHours(b.AvgMergeTime),
		contract.FormatFloat(b.AvgPRSize),
		contract.FormatFloat(b.AvgReviews),
	)
	return nil
}
