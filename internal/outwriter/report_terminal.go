package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/prpulse/prpulse/core"
	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/schema"
)

// maxNameWidth computes how many columns author and repository names may
// occupy, based on the terminal width minus the numeric columns.
func maxNameWidth(cfg *contract.Config) int {
	available := GetTableWidth(cfg) - 65
	if available < 12 {
		return 12
	}
	if available > 40 {
		return 40
	}
	return available
}

// writeReportTerminal renders the full report as colored terminal tables.
func writeReportTerminal(w io.Writer, report *core.ReportData, cfg *contract.Config) error {
	nameWidth := maxNameWidth(cfg)

	title := fmt.Sprintf("PR Metrics: %s", windowLabel(report.Org, report.Repo, report.DaysBack))
	fmt.Fprintf(w, "%s\n", contract.AccentColor.Sprint(title))
	fmt.Fprintf(w, "%s\n\n", sourceNote(report.Source, report.RowCount))

	writeSummaryTerminal(w, report.Summary)

	fmt.Fprintf(w, "\n%s\n", contract.AccentColor.Sprint("Authors"))
	if err := writeAuthorTable(w, report.Authors, nameWidth); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s\n", contract.AccentColor.Sprint("Repositories"))
	if err := writeRepoTable(w, report.Repos, nameWidth); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s\n", contract.AccentColor.Sprint("PR Size Distribution"))
	if err := writeSizeTable(w, report.Sizes); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s\n", contract.AccentColor.Sprint("Weekly Activity"))
	if err := writeWeeklyTable(w, report.Weekly); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s\n", contract.AccentColor.Sprint("Monthly Activity"))
	if err := writeMonthlyTable(w, report.Monthly); err != nil {
		return err
	}

	for _, aw := range report.AuthorWeekly {
		fmt.Fprintf(w, "\n%s\n", contract.AccentColor.Sprintf("Weekly: %s", truncateName(aw.Author, nameWidth)))
		if err := writeAuthorWeeklyTable(w, aw.Weeks); err != nil {
			return err
		}
	}
	return nil
}

// writeSummaryTerminal prints the overall rollup as labeled lines.
func writeSummaryTerminal(w io.Writer, s *schema.SummaryStats) {
	fmt.Fprintf(w, "Total PRs:      %d\n", s.TotalPRs)
	mergeRate := mergeRateOf(s)
	fmt.Fprintf(w, "Merged:         %d (%s)\n", s.MergedPRs, contract.ColorRate(mergeRate))
	fmt.Fprintf(w, "Avg size:       %s lines\n", contract.FormatFloat(s.AvgPRSize))
	fmt.Fprintf(w, "Avg merge time: %s\n", contract.ColorHours(s.AvgMergeTime))
	fmt.Fprintf(w, "Repositories:   %d\n", s.UniqueRepos)
	fmt.Fprintf(w, "Authors:        %d\n", s.UniqueAuthors)
	if s.DateMin != nil && s.DateMax != nil {
		fmt.Fprintf(w, "Date range:     %s to %s\n", s.DateMin.Format("2006-01-02"), s.DateMax.Format("2006-01-02"))
	}
}

// mergeRateOf derives the overall merge percentage from the summary counts.
func mergeRateOf(s *schema.SummaryStats) *float64 {
	if s.TotalPRs == 0 {
		return nil
	}
	rate := 100 * float64(s.MergedPRs) / float64(s.TotalPRs)
	return &rate
}

// newRightAlignedTable builds a table with right-aligned data rows.
func newRightAlignedTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	return table
}

func writeAuthorTable(w io.Writer, authors []schema.AuthorStats, nameWidth int) error {
	table := newRightAlignedTable(w, []string{"Author", "PRs", "Merged", "Rate", "Avg Size", "Avg Merge", "Avg Reviews"})

	var data [][]string
	for _, a := range authors {
		data = append(data, []string{
			truncateName(a.Author, nameWidth),
			strconv.FormatInt(a.PRCount, 10),
			strconv.FormatInt(a.MergedCount, 10),
			contract.ColorRate(a.MergeRate),
			contract.FormatFloat(a.AvgPRSize),
			contract.ColorHours(a.AvgMergeTime),
			contract.FormatFloat(a.AvgReviews),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeRepoTable(w io.Writer, repos []schema.RepoStats, nameWidth int) error {
	table := newRightAlignedTable(w, []string{"Repository", "PRs", "Merged", "Rate", "Contribs", "Avg Size", "Avg Merge"})

	var data [][]string
	for _, r := range repos {
		data = append(data, []string{
			truncateName(r.Repo, nameWidth),
			strconv.FormatInt(r.PRCount, 10),
			strconv.FormatInt(r.MergedCount, 10),
			contract.ColorRate(r.MergeRate),
			strconv.FormatInt(r.ContributorCount, 10),
			contract.FormatFloat(r.AvgPRSize),
			contract.ColorHours(r.AvgMergeTime),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeSizeTable(w io.Writer, sizes []schema.SizeBucketStats) error {
	table := newRightAlignedTable(w, []string{"Size", "PRs", "Avg Merge"})

	var data [][]string
	for _, s := range sizes {
		data = append(data, []string{
			string(s.Bucket),
			strconv.FormatInt(s.PRCount, 10),
			contract.ColorHours(s.AvgMergeTime),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeWeeklyTable(w io.Writer, weekly []schema.PeriodStats) error {
	table := newRightAlignedTable(w, []string{"Week", "PRs", "Merged", "Rate", "Devs", "PRs/Dev", "Avg Merge", "Trend"})

	var data [][]string
	for _, p := range newestFirst(weekly) {
		data = append(data, []string{
			p.Period,
			strconv.FormatInt(p.PRCount, 10),
			strconv.FormatInt(p.MergedCount, 10),
			contract.ColorRate(p.MergeRate),
			strconv.FormatInt(p.ActiveAuthors, 10),
			contract.FormatFloat(p.PRsPerDev),
			contract.ColorHours(p.AvgMergeTime),
			contract.ColorTrendGlyph(p.Trend),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeMonthlyTable(w io.Writer, monthly []schema.PeriodStats) error {
	table := newRightAlignedTable(w, []string{"Month", "PRs", "Merged", "Devs", "Avg Size"})

	var data [][]string
	for _, p := range newestFirst(monthly) {
		data = append(data, []string{
			p.Period,
			strconv.FormatInt(p.PRCount, 10),
			strconv.FormatInt(p.MergedCount, 10),
			strconv.FormatInt(p.ActiveAuthors, 10),
			contract.FormatFloat(p.AvgPRSize),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeAuthorWeeklyTable(w io.Writer, weeks []schema.PeriodStats) error {
	table := newRightAlignedTable(w, []string{"Week", "PRs", "Merged", "Rate", "Avg Merge", "Trend"})

	var data [][]string
	for _, p := range newestFirst(weeks) {
		data = append(data, []string{
			p.Period,
			strconv.FormatInt(p.PRCount, 10),
			strconv.FormatInt(p.MergedCount, 10),
			contract.ColorRate(p.MergeRate),
			contract.ColorHours(p.AvgMergeTime),
			contract.ColorTrendGlyph(p.Trend),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeContributorsTerminal renders the contributor report with the
// baseline comparison underneath.
func writeContributorsTerminal(w io.Writer, report *core.ContributorReport) error {
	title := fmt.Sprintf("Contributors: %s", windowLabel(report.Org, report.Repo, 0))
	fmt.Fprintf(w, "%s\n", contract.AccentColor.Sprint(title))
	fmt.Fprintf(w, "%s\n\n", sourceNote(report.Source, report.RowCount))

	table := newRightAlignedTable(w, []string{"Author", "PRs", "Merged", "Rate", "Avg Size", "Avg Merge", "Reviews Given", "Self-Merge"})
	var data [][]string
	for _, c := range report.Contributors {
		data = append(data, []string{
			c.Author,
			strconv.FormatInt(c.PRCount, 10),
			strconv.FormatInt(c.MergedCount, 10),
			contract.ColorRate(c.MergeRate),
			contract.FormatFloat(c.AvgPRSize),
			contract.ColorHours(c.AvgMergeTime),
			strconv.FormatInt(c.ReviewsGiven, 10),
			contract.FormatRate(c.SelfMergeRate),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
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
