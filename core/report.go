package core

import (
	"fmt"

	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/internal/store"
	"github.com/prpulse/prpulse/schema"
)

// AuthorWeekly pairs an author with their recent weekly rollup.
type AuthorWeekly struct {
	Author string
	Weeks  []schema.PeriodStats
}

// ReportData is the fully assembled metrics report, ready for rendering.
type ReportData struct {
	Org      string
	Repo     string
	DaysBack int
	Source   string
	RowCount int

	Summary      *schema.SummaryStats
	Authors      []schema.AuthorStats
	Repos        []schema.RepoStats
	Sizes        []schema.SizeBucketStats
	Weekly       []schema.PeriodStats
	Monthly      []schema.PeriodStats
	AuthorWeekly []AuthorWeekly
}

// ContributorReport is the per-repository contributor breakdown with the
// organization-wide baseline for comparison.
type ContributorReport struct {
	Org      string
	Repo     string
	Source   string
	RowCount int

	Contributors []schema.ContributorStats
	Baseline     *schema.BaselineStats
}

// BuildReport runs every aggregation against a loaded dataset and annotates
// the period rollups with trend tags. Weekly rollups cover the most recent
// six weeks; per-author breakdowns cover the cfg.TopAuthors busiest authors.
func BuildReport(ds *store.Dataset, cfg *contract.Config) (*ReportData, error) {
	report := &ReportData{
		Org:      cfg.Org,
		Repo:     cfg.Repo,
		DaysBack: cfg.DaysBack,
		Source:   ds.Source(),
		RowCount: ds.RowCount(),
	}

	var err error
	if report.Summary, err = ds.Summary(); err != nil {
		return nil, err
	}
	if report.Authors, err = ds.AuthorStats(); err != nil {
		return nil, err
	}
	if report.Repos, err = ds.RepoStats(cfg.MinPRs); err != nil {
		return nil, err
	}
	if report.Sizes, err = ds.SizeDistribution(); err != nil {
		return nil, err
	}
	if report.Weekly, err = ds.WeeklyStats(); err != nil {
		return nil, err
	}
	AnnotateTrends(report.Weekly)
	if report.Monthly, err = ds.MonthlyStats(); err != nil {
		return nil, err
	}

	top, err := ds.TopAuthors(cfg.TopAuthors)
	if err != nil {
		return nil, err
	}
	for _, author := range top {
		weeks, err := ds.AuthorWeeklyStats(author.Author)
		if err != nil {
			return nil, fmt.Errorf("weekly breakdown for %s failed: %w", author.Author, err)
		}
		AnnotateTrends(weeks)
		report.AuthorWeekly = append(report.AuthorWeekly, AuthorWeekly{Author: author.Author, Weeks: weeks})
	}
	return report, nil
}

// BuildContributorReport assembles the contributor breakdown for one
// repository. The baseline comes from the same loaded relation, so it
// reflects whatever scope the dataset was loaded with.
func BuildContributorReport(ds *store.Dataset, cfg *contract.Config) (*ContributorReport, error) {
	contributors, err := ds.ContributorStats()
	if err != nil {
		return nil, err
	}
	baseline, err := ds.Baseline()
	if err != nil {
		return nil, err
	}
	return &ContributorReport{
		Org:          cfg.Org,
		Repo:         cfg.Repo,
		Source:       ds.Source(),
		RowCount:     ds.RowCount(),
		Contributors: contributors,
		Baseline:     baseline,
	}, nil
}
