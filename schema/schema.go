// Package schema defines the shared data model: raw pull request payloads
// from the gh CLI, the normalized row layout persisted to parquet, and the
// aggregate result shapes consumed by reports.
package schema

import "time"

// RawIdentity is a GitHub user object as returned by the gh CLI.
type RawIdentity struct {
	Login string `json:"login"`
}

// RawLabel is a label object attached to a pull request.
type RawLabel struct {
	Name string `json:"name"`
}

// RawReview is a single review on a pull request.
type RawReview struct {
	Author      *RawIdentity `json:"author"`
	SubmittedAt *time.Time   `json:"submittedAt"`
}

// RawComment is a single comment on a pull request. Only its presence is
// counted; the body is never fetched.
type RawComment struct {
	Author *RawIdentity `json:"author"`
}

// RawCommit is a single commit on a pull request.
type RawCommit struct {
	OID string `json:"oid"`
}

// RawRepository is a repository object from 'gh repo list' or the
// repository field of 'gh search prs' results.
type RawRepository struct {
	Name string `json:"name"`
}

// RawSearchResult is one row of 'gh search prs' output.
type RawSearchResult struct {
	Repository RawRepository `json:"repository"`
}

// RawPullRequest mirrors the JSON shape produced by
// 'gh pr list --json ...'. Every field is optional on the wire; absence
// maps to the zero value here and to null/0/empty in the normalized row.
type RawPullRequest struct {
	Number         int          `json:"number"`
	Title          string       `json:"title"`
	Author         *RawIdentity `json:"author"`
	CreatedAt      *time.Time   `json:"createdAt"`
	MergedAt       *time.Time   `json:"mergedAt"`
	ClosedAt       *time.Time   `json:"closedAt"`
	ReviewDecision string       `json:"reviewDecision"`
	Additions      int          `json:"additions"`
	Deletions      int          `json:"deletions"`
	ChangedFiles   int          `json:"changedFiles"`
	IsDraft        bool         `json:"isDraft"`
	Labels         []RawLabel   `json:"labels"`
	Reviews        []RawReview  `json:"reviews"`
	Comments       []RawComment `json:"comments"`
	Commits        []RawCommit  `json:"commits"`
	MergedBy       *RawIdentity `json:"mergedBy"`
}

// PRRow is the normalized, flat record persisted to parquet and queried by
// the aggregation layer. Column names and nullability are the storage
// contract: optional columns may be absent entirely in files written by
// older versions, and readers must default them rather than fail.
type PRRow struct {
	Org      string `parquet:"org,snappy"`
	Repo     string `parquet:"repo,snappy"`
	PRNumber int64  `parquet:"pr_number,snappy"`
	Author   string `parquet:"author,snappy"`
	Title    string `parquet:"title,snappy"`

	CreatedAt *time.Time `parquet:"created_at,optional,snappy"`
	MergedAt  *time.Time `parquet:"merged_at,optional,snappy"`
	ClosedAt  *time.Time `parquet:"closed_at,optional,snappy"`

	State  string `parquet:"state,snappy"`
	PRSize int64  `parquet:"pr_size,snappy"`

	Commits      int32 `parquet:"commits,snappy"`
	Reviews      int32 `parquet:"reviews,snappy"`
	ChangedFiles int32 `parquet:"changed_files,snappy"`
	Comments     int32 `parquet:"comments,snappy"`

	TimeToMergeHours       *float64 `parquet:"time_to_merge_hours,optional,snappy"`
	TimeToFirstReviewHours *float64 `parquet:"time_to_first_review_hours,optional,snappy"`

	MergedBy   *string `parquet:"merged_by,optional,snappy"`
	SelfMerged bool    `parquet:"self_merged,snappy"`

	IsDraft   bool   `parquet:"is_draft,snappy"`
	Labels    string `parquet:"labels,snappy"`
	Reviewers string `parquet:"reviewers,snappy"`

	// Partition key columns, fixed at normalization time.
	Year  int32 `parquet:"year,snappy"`
	Month int32 `parquet:"month,snappy"`
}

// SummaryStats is the single-row overall rollup for a relation.
type SummaryStats struct {
	TotalPRs      int64
	MergedPRs     int64
	AvgPRSize     *float64
	AvgMergeTime  *float64
	DateMin       *time.Time
	DateMax       *time.Time
	UniqueRepos   int64
	UniqueAuthors int64
}

// AuthorStats is one row of the per-author rollup, sorted by PR count.
type AuthorStats struct {
	Author       string
	PRCount      int64
	MergedCount  int64
	AvgPRSize    *float64
	AvgMergeTime *float64
	AvgReviews   *float64
	MergeRate    *float64
}

// RepoStats is one row of the per-repository rollup, sorted by PR count.
type RepoStats struct {
	Repo             string
	PRCount          int64
	MergedCount      int64
	ContributorCount int64
	AvgPRSize        *float64
	AvgMergeTime     *float64
	MergeRate        *float64
}

// SizeBucketStats is one row of the size distribution. Buckets render in
// SizeBucketOrder even when PRCount is zero.
type SizeBucketStats struct {
	Bucket       SizeBucket
	PRCount      int64
	AvgMergeTime *float64
}

// PeriodStats is one row of a weekly or monthly rollup. Period is the
// period start date (Monday for weeks, first of month for months) in
// YYYY-MM-DD form. PRsPerDev is only populated for weekly rollups.
type PeriodStats struct {
	Period        string
	PRCount       int64
	MergedCount   int64
	ActiveAuthors int64
	AvgPRSize     *float64
	AvgMergeTime  *float64
	MergeRate     *float64
	PRsPerDev     *float64
	Trend         TrendTag
}

// TopAuthor is one row of the top-authors-by-count query.
type TopAuthor struct {
	Author  string
	PRCount int64
}

// ContributorStats is one row of the per-repository contributor rollup.
// ReviewsGiven and SelfMergeRate degrade to zero/nil when the underlying
// relation lacks the reviewers or self_merged columns.
type ContributorStats struct {
	Author        string
	PRCount       int64
	MergedCount   int64
	MergeRate     *float64
	AvgPRSize     *float64
	AvgMergeTime  *float64
	ReviewsGiven  int64
	SelfMergeRate *float64
}

// BaselineStats is the single-row organization-wide baseline used as a
// comparison anchor for contributor reports.
type BaselineStats struct {
	AvgMergeRate *float64
	AvgMergeTime *float64
	AvgPRSize    *float64
	AvgReviews   *float64
}

// CollectSummary is the console rollup printed after an ingestion run.
type CollectSummary struct {
	TotalPRs         int
	MergedPRs        int
	MergeRate        float64
	AvgPRSize        float64
	MedianMergeHours float64
	P90MergeHours    float64
	TopAuthors       []TopAuthor
	Repos            int
	Partitions       int
}

// RunRecord is one ingestion run tracked by the run log store.
type RunRecord struct {
	RunID             int64
	StartTime         time.Time
	EndTime           *time.Time
	RunDurationMs     *int32
	Org               string
	RowsWritten       int32
	PartitionsWritten int32
	ConfigParams      *string
}

// RunLogStatus summarizes the state of the run log store for display.
type RunLogStatus struct {
	Backend    DatabaseBackend
	Connected  bool
	TotalRuns  int64
	LastRun    *time.Time
	OldestRun  *time.Time
	TotalRows  int64
	DBLocation string
}
