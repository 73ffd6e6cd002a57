// Package contract holds the configuration pipeline, shared interfaces and
// small helpers used across the application.
package contract

import (
	"context"
	"time"

	"github.com/prpulse/prpulse/schema"
)

// GitHubClient abstracts the gh CLI so collection logic can be tested
// without network access or an installed binary.
type GitHubClient interface {
	// SearchActiveRepos returns repositories with PR activity created in the
	// last daysBack days, via 'gh search prs'.
	SearchActiveRepos(ctx context.Context, org string, daysBack int) ([]schema.RawRepository, error)

	// ListRepos returns all non-archived, non-fork repositories in the
	// organization, via 'gh repo list'.
	ListRepos(ctx context.Context, org string) ([]schema.RawRepository, error)

	// ListPullRequests returns pull requests for one repository created in
	// the last daysBack days, newest first.
	ListPullRequests(ctx context.Context, org, repo string, daysBack int) ([]schema.RawPullRequest, error)
}

// RunLogStore tracks ingestion runs in a database backend. A store backed
// by NoneBackend accepts every call as a no-op.
type RunLogStore interface {
	// BeginRun records the start of an ingestion run and returns its ID.
	BeginRun(startTime time.Time, org string, configParams map[string]any) (int64, error)

	// FinishRun records the completion of a run with its row and partition counts.
	FinishRun(runID int64, endTime time.Time, rowsWritten, partitionsWritten int) error

	// GetStatus returns connection and accumulation statistics.
	GetStatus() (*schema.RunLogStatus, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]schema.RunRecord, error)

	// Clear removes all tracked runs.
	Clear() error

	// Close releases the underlying database connection.
	Close() error
}
