package outwriter

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/prpulse/prpulse/core"
	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func sampleReport() *core.ReportData {
	created := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	latest := time.Date(2024, 3, 19, 0, 0, 0, 0, time.UTC)
	return &core.ReportData{
		Org:      "acme",
		DaysBack: 30,
		Source:   "hive",
		RowCount: 12,
		Summary: &schema.SummaryStats{
			TotalPRs:      12,
			MergedPRs:     9,
			AvgPRSize:     fp(150),
			AvgMergeTime:  fp(20.5),
			DateMin:       &created,
			DateMax:       &latest,
			UniqueRepos:   2,
			UniqueAuthors: 3,
		},
		Authors: []schema.AuthorStats{
			{Author: "alice", PRCount: 8, MergedCount: 7, AvgPRSize: fp(120), AvgMergeTime: fp(12), AvgReviews: fp(2.5), MergeRate: fp(87.5)},
			{Author: "bob", PRCount: 4, MergedCount: 2, MergeRate: fp(50)},
		},
		Repos: []schema.RepoStats{
			{Repo: "foo", PRCount: 10, MergedCount: 8, ContributorCount: 3, MergeRate: fp(80)},
		},
		Sizes: []schema.SizeBucketStats{
			{Bucket: schema.SmallBucket, PRCount: 6, AvgMergeTime: fp(10)},
			{Bucket: schema.MediumBucket, PRCount: 4},
			{Bucket: schema.LargeBucket, PRCount: 2, AvgMergeTime: fp(48)},
		},
		Weekly: []schema.PeriodStats{
			{Period: "2024-03-04", PRCount: 5, MergedCount: 4, MergeRate: fp(80), ActiveAuthors: 2, PRsPerDev: fp(2.5)},
			{Period: "2024-03-11", PRCount: 7, MergedCount: 5, MergeRate: fp(71.4), ActiveAuthors: 3, PRsPerDev: fp(2.3), Trend: schema.TrendUpQualDown},
		},
		Monthly: []schema.PeriodStats{
			{Period: "2024-03-01", PRCount: 12, MergedCount: 9, ActiveAuthors: 3, AvgPRSize: fp(150)},
		},
		AuthorWeekly: []core.AuthorWeekly{
			{Author: "alice", Weeks: []schema.PeriodStats{
				{Period: "2024-03-04", PRCount: 3, MergedCount: 3, MergeRate: fp(100)},
				{Period: "2024-03-11", PRCount: 5, MergedCount: 4, MergeRate: fp(80), Trend: schema.TrendUp},
			}},
		},
	}
}

func TestWriteReportMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReportMarkdown(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "# PR Metrics: acme (last 30 days)")
	assert.Contains(t, out, "12 pull requests")
	assert.Contains(t, out, "- Merged: 9 (75.0%)")
	assert.Contains(t, out, "| Author | PRs | Merged |")
	assert.Contains(t, out, "| alice | 8 | 7 | 87.5% |")
	assert.Contains(t, out, "| Small (<50) | 6 | 10.0h |")
	assert.Contains(t, out, "## Weekly: alice")
	// Newest week first, annotated with its trend glyph.
	assert.Contains(t, out, "| 2024-03-11 | 7 | 5 | 71.4% | 3 | 2.3 | - | ↑! |")
}

func TestWriteReportTerminal(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	cfg := &contract.Config{Width: 120}
	require.NoError(t, writeReportTerminal(&buf, sampleReport(), cfg))
	out := buf.String()

	assert.Contains(t, out, "PR Metrics: acme (last 30 days)")
	assert.Contains(t, out, "Total PRs:      12")
	assert.Contains(t, out, "Merged:         9 (75.0%)")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "Small (<50)")
	assert.Contains(t, out, "Weekly: alice")
	assert.Contains(t, out, "↑!")
}

func TestWriteContributorsMarkdown(t *testing.T) {
	report := &core.ContributorReport{
		Org:      "acme",
		Repo:     "foo",
		Source:   "legacy",
		RowCount: 5,
		Contributors: []schema.ContributorStats{
			{Author: "alice", PRCount: 3, MergedCount: 3, MergeRate: fp(100), ReviewsGiven: 4, SelfMergeRate: fp(33.3)},
		},
		Baseline: &schema.BaselineStats{AvgMergeRate: fp(80), AvgMergeTime: fp(24), AvgPRSize: fp(100), AvgReviews: fp(2)},
	}

	var buf bytes.Buffer
	require.NoError(t, writeContributorsMarkdown(&buf, report))
	out := buf.String()

	assert.Contains(t, out, "# Contributors: acme/foo")
	assert.Contains(t, out, "(legacy snapshot)")
	assert.Contains(t, out, "| alice | 3 | 3 | 100.0% |")
	assert.Contains(t, out, "Baseline: merge rate 80.0%, merge time 24.0h")
}

func TestWriteRunsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRuns(&buf, nil))
	assert.Contains(t, buf.String(), "No runs recorded")
}

func TestNewestFirst(t *testing.T) {
	periods := []schema.PeriodStats{{Period: "2024-03-04"}, {Period: "2024-03-11"}}
	reversed := newestFirst(periods)
	assert.Equal(t, "2024-03-11", reversed[0].Period)
	assert.Equal(t, "2024-03-04", reversed[1].Period)
	// Input untouched
	assert.Equal(t, "2024-03-04", periods[0].Period)
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "short", truncateName("short", 10))
	assert.Equal(t, "very-long…", truncateName("very-long-name", 10))
}

func TestWindowLabel(t *testing.T) {
	assert.Equal(t, "acme (last 14 days)", windowLabel("acme", "", 14))
	assert.Equal(t, "acme/foo", windowLabel("acme", "foo", 0))
}

func TestGetTableWidthOverride(t *testing.T) {
	assert.Equal(t, 150, GetTableWidth(&contract.Config{Width: 150}))
}
