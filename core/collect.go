package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/internal/store"
	"github.com/prpulse/prpulse/schema"
)

// CollectResult carries everything an ingestion run produced: the console
// summary, the storage write report and the optional snapshot path.
type CollectResult struct {
	Summary      *schema.CollectSummary
	Write        *store.WriteResult
	SnapshotPath string
}

// Collect runs the full ingestion pipeline: discover repositories with
// recent PR activity, fetch their pull requests, normalize and persist to
// the partitioned store. When cfg.Repo is set, discovery is skipped and
// only that repository is fetched.
//
// A failing per-repository fetch is a warning, not a run failure; the run
// only errors when discovery fails entirely or the store write fails.
func Collect(ctx context.Context, client contract.GitHubClient, cfg *contract.Config) (*CollectResult, error) {
	repos, err := discoverRepos(ctx, client, cfg)
	if err != nil {
		return nil, err
	}
	if len(repos) == 0 {
		contract.LogWarn("no repositories with recent activity", fmt.Errorf("org %s, last %d days", cfg.Org, cfg.DaysBack))
		return &CollectResult{Summary: &schema.CollectSummary{}, Write: &store.WriteResult{}}, nil
	}
	contract.LogInfo(fmt.Sprintf("collecting pull requests from %d repositories in %s", len(repos), cfg.Org))

	prsByRepo := make(map[string][]schema.RawPullRequest)
	for _, repo := range repos {
		prs, err := client.ListPullRequests(ctx, cfg.Org, repo, cfg.DaysBack)
		if err != nil {
			contract.LogWarn(fmt.Sprintf("skipping repository %s", repo), err)
			continue
		}
		if len(prs) == 0 {
			continue
		}
		prsByRepo[repo] = prs
	}

	rows := Normalize(cfg.Org, prsByRepo)
	result, err := store.WriteBatch(cfg.DataDir, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to persist collected data: %w", err)
	}

	out := &CollectResult{Summary: summarize(rows, result), Write: result}
	if cfg.LegacySnapshot && len(rows) > 0 {
		path, err := store.WriteLegacySnapshot(cfg.LegacyDir, cfg.Org, time.Now(), rows)
		if err != nil {
			return nil, err
		}
		out.SnapshotPath = path

		if cfg.KeepLatest > 0 {
			removed, err := store.CleanupLegacy(cfg.LegacyDir, cfg.KeepLatest)
			if err != nil {
				contract.LogWarn("legacy snapshot cleanup failed", err)
			} else if removed > 0 {
				contract.LogInfo(fmt.Sprintf("removed %d old snapshot files", removed))
			}
		}
	}
	return out, nil
}

// discoverRepos resolves the repository set for a run. The activity search
// is the fast path; when it fails (search indexing lag, rate limits) the
// full repository listing is the fallback.
func discoverRepos(ctx context.Context, client contract.GitHubClient, cfg *contract.Config) ([]string, error) {
	if cfg.Repo != "" {
		return []string{cfg.Repo}, nil
	}

	found, err := client.SearchActiveRepos(ctx, cfg.Org, cfg.DaysBack)
	if err != nil {
		contract.LogWarn("activity search failed, listing all repositories", err)
		found, err = client.ListRepos(ctx, cfg.Org)
		if err != nil {
			return nil, fmt.Errorf("failed to discover repositories in %s: %w", cfg.Org, err)
		}
	}

	repos := make([]string, 0, len(found))
	for _, r := range found {
		repos = append(repos, r.Name)
	}
	sort.Strings(repos)
	return repos, nil
}

// summarize computes the post-run console rollup from the normalized rows.
func summarize(rows []schema.PRRow, write *store.WriteResult) *schema.CollectSummary {
	summary := &schema.CollectSummary{
		TotalPRs:   len(rows),
		Partitions: write.Partitions,
	}
	if len(rows) == 0 {
		return summary
	}

	var sizeSum int64
	var mergeHours []float64
	authorCounts := make(map[string]int64)
	repos := make(map[string]struct{})
	for _, row := range rows {
		sizeSum += row.PRSize
		authorCounts[row.Author]++
		repos[row.Repo] = struct{}{}
		if row.State == string(schema.MergedState) {
			summary.MergedPRs++
			if row.TimeToMergeHours != nil {
				mergeHours = append(mergeHours, *row.TimeToMergeHours)
			}
		}
	}

	summary.MergeRate = 100 * float64(summary.MergedPRs) / float64(len(rows))
	summary.AvgPRSize = float64(sizeSum) / float64(len(rows))
	summary.Repos = len(repos)
	if len(mergeHours) > 0 {
		if median, err := stats.Median(mergeHours); err == nil {
			summary.MedianMergeHours = median
		}
		if p90, err := stats.Percentile(mergeHours, 90); err == nil {
			summary.P90MergeHours = p90
		}
	}
	summary.TopAuthors = topAuthorsByCount(authorCounts, 3)
	return summary
}

// topAuthorsByCount sorts the author histogram by count then name.
func topAuthorsByCount(counts map[string]int64, limit int) []schema.TopAuthor {
	out := make([]schema.TopAuthor, 0, len(counts))
	for author, count := range counts {
		out = append(out, schema.TopAuthor{Author: author, PRCount: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PRCount != out[j].PRCount {
			return out[i].PRCount > out[j].PRCount
		}
		return out[i].Author < out[j].Author
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
