// Package core implements the collection and reporting pipeline: raw pull
// request payloads are normalized into flat rows, persisted through the
// store, and summarized for presentation.
package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/schema"
)

// UnknownAuthor is the sentinel used when a PR carries no author identity,
// which happens for deleted accounts and some bot integrations.
const UnknownAuthor = "unknown"

// Normalize flattens raw pull requests, keyed by repository, into the
// storage row schema for one organization. Records are never dropped: a PR
// missing its number or author is still emitted with defaults so downstream
// counts stay consistent with the source.
func Normalize(org string, prsByRepo map[string][]schema.RawPullRequest) []schema.PRRow {
	repos := make([]string, 0, len(prsByRepo))
	for repo := range prsByRepo {
		repos = append(repos, repo)
	}
	sort.Strings(repos)

	var rows []schema.PRRow
	for _, repo := range repos {
		for _, pr := range prsByRepo[repo] {
			rows = append(rows, normalizeOne(org, repo, pr))
		}
	}
	return rows
}

// normalizeOne derives all computed columns for a single pull request.
func normalizeOne(org, repo string, pr schema.RawPullRequest) schema.PRRow {
	row := schema.PRRow{
		Org:          org,
		Repo:         repo,
		PRNumber:     int64(pr.Number),
		Author:       loginOrUnknown(pr.Author),
		Title:        pr.Title,
		CreatedAt:    pr.CreatedAt,
		MergedAt:     pr.MergedAt,
		ClosedAt:     pr.ClosedAt,
		State:        string(deriveState(pr)),
		PRSize:       deriveSize(pr),
		Commits:      int32(len(pr.Commits)),
		Reviews:      int32(len(pr.Reviews)),
		ChangedFiles: int32(pr.ChangedFiles),
		Comments:     int32(len(pr.Comments)),
		IsDraft:      pr.IsDraft,
		Labels:       joinLabels(pr.Labels),
		Reviewers:    joinReviewers(pr.Reviews),
	}

	if pr.MergedAt != nil && pr.CreatedAt != nil {
		hours := pr.MergedAt.Sub(*pr.CreatedAt).Hours()
		if hours < 0 {
			contract.LogWarn("negative merge duration",
				fmt.Errorf("%s/%s#%d merged %.1fh before creation", org, repo, pr.Number, -hours))
		}
		row.TimeToMergeHours = &hours
	}

	if first := earliestReview(pr.Reviews); first != nil && pr.CreatedAt != nil {
		hours := first.Sub(*pr.CreatedAt).Hours()
		row.TimeToFirstReviewHours = &hours
	}

	if pr.MergedBy != nil && pr.MergedBy.Login != "" {
		login := pr.MergedBy.Login
		row.MergedBy = &login
		if pr.Author != nil && pr.Author.Login != "" && pr.Author.Login == login {
			row.SelfMerged = true
		}
	}

	if pr.CreatedAt != nil {
		row.Year = int32(pr.CreatedAt.Year())
		row.Month = int32(pr.CreatedAt.Month())
	}

	return row
}

// deriveState derives the lifecycle state. The rules are total and mutually
// exclusive: merged wins over closed, closed wins over open.
func deriveState(pr schema.RawPullRequest) schema.PRState {
	switch {
	case pr.MergedAt != nil:
		return schema.MergedState
	case pr.ClosedAt != nil:
		return schema.ClosedState
	default:
		return schema.OpenState
	}
}

// deriveSize computes total changed lines, clamping negative inputs to zero.
func deriveSize(pr schema.RawPullRequest) int64 {
	size := int64(max(pr.Additions, 0)) + int64(max(pr.Deletions, 0))
	return size
}

// earliestReview returns the earliest review submission time, not the first
// in list order; the gh CLI does not guarantee review ordering.
func earliestReview(reviews []schema.RawReview) *time.Time {
	var first *time.Time
	for _, r := range reviews {
		if r.SubmittedAt == nil {
			continue
		}
		if first == nil || r.SubmittedAt.Before(*first) {
			first = r.SubmittedAt
		}
	}
	return first
}

// loginOrUnknown extracts a login, defaulting to the unknown sentinel.
func loginOrUnknown(id *schema.RawIdentity) string {
	if id == nil || id.Login == "" {
		return UnknownAuthor
	}
	return id.Login
}

// joinLabels collapses a label list into a comma-delimited string.
func joinLabels(labels []schema.RawLabel) string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		if l.Name != "" {
			names = append(names, l.Name)
		}
	}
	return strings.Join(names, ",")
}

// joinReviewers collapses review author logins into a comma-delimited
// string, deduplicated in first-seen order.
func joinReviewers(reviews []schema.RawReview) string {
	seen := make(map[string]struct{})
	var logins []string
	for _, r := range reviews {
		if r.Author == nil || r.Author.Login == "" {
			continue
		}
		if _, ok := seen[r.Author.Login]; ok {
			continue
		}
		seen[r.Author.Login] = struct{}{}
		logins = append(logins, r.Author.Login)
	}
	return strings.Join(logins, ",")
}
