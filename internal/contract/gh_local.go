package contract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/prpulse/prpulse/schema"
)

// prListFields are the JSON fields requested from 'gh pr list'. Keep in
// sync with schema.RawPullRequest.
const prListFields = "number,title,author,createdAt,mergedAt,closedAt,reviewDecision," +
	"additions,deletions,changedFiles,isDraft,labels,reviews,comments,commits,mergedBy"

// Result limits passed to the gh CLI.
const (
	searchPRLimit = 1000
	repoListLimit = 100
	prListLimit   = 200
)

// LocalGHClient implements the GitHubClient interface by executing the
// local 'gh' binary installed on the machine.
type LocalGHClient struct{}

var _ GitHubClient = &LocalGHClient{} // Compile-time check

// NewLocalGHClient creates a new instance of the local gh client.
func NewLocalGHClient() *LocalGHClient {
	return &LocalGHClient{}
}

// Run executes a gh command and returns its stdout output.
func (c *LocalGHClient) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("gh command failed: %s. Check that you are authenticated with 'gh auth status'", stderr)
	} else if err != nil {
		return nil, fmt.Errorf("gh command failed: %w. Ensure the GitHub CLI is installed and available on your PATH", err)
	}
	return out, nil
}

// runJSON executes a gh command and unmarshals its JSON output into dst.
// Empty output decodes as an empty result rather than an error.
func (c *LocalGHClient) runJSON(ctx context.Context, dst any, args ...string) error {
	out, err := c.Run(ctx, args...)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(out))) == 0 {
		return nil
	}
	if err := json.Unmarshal(out, dst); err != nil {
		return fmt.Errorf("failed to parse gh output: %w", err)
	}
	return nil
}

// SearchActiveRepos implements the GitHubClient interface.
func (c *LocalGHClient) SearchActiveRepos(ctx context.Context, org string, daysBack int) ([]schema.RawRepository, error) {
	since := sinceDate(daysBack)
	var results []schema.RawSearchResult
	args := []string{
		"search", "prs",
		"--owner", org,
		"--created", fmt.Sprintf(">=%s", since),
		"--json", "repository",
		"--limit", fmt.Sprintf("%d", searchPRLimit),
	}
	if err := c.runJSON(ctx, &results, args...); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var repos []schema.RawRepository
	for _, r := range results {
		name := r.Repository.Name
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		repos = append(repos, schema.RawRepository{Name: name})
	}
	return repos, nil
}

// ListRepos implements the GitHubClient interface.
func (c *LocalGHClient) ListRepos(ctx context.Context, org string) ([]schema.RawRepository, error) {
	var repos []schema.RawRepository
	args := []string{
		"repo", "list", org,
		"--json", "name",
		"--no-archived",
		"--source",
		"--limit", fmt.Sprintf("%d", repoListLimit),
	}
	if err := c.runJSON(ctx, &repos, args...); err != nil {
		return nil, err
	}
	return repos, nil
}

// ListPullRequests implements the GitHubClient interface.
// The --search flag is unreliable for date filtering, so the full list is
// fetched and filtered on createdAt afterwards.
func (c *LocalGHClient) ListPullRequests(ctx context.Context, org, repo string, daysBack int) ([]schema.RawPullRequest, error) {
	var prs []schema.RawPullRequest
	args := []string{
		"pr", "list",
		"--repo", fmt.Sprintf("%s/%s", org, repo),
		"--state", "all",
		"--json", prListFields,
		"--limit", fmt.Sprintf("%d", prListLimit),
	}
	if err := c.runJSON(ctx, &prs, args...); err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -daysBack)
	var filtered []schema.RawPullRequest
	for _, pr := range prs {
		if pr.CreatedAt == nil {
			continue
		}
		if pr.CreatedAt.Before(cutoff) {
			continue
		}
		filtered = append(filtered, pr)
	}
	return filtered, nil
}

// sinceDate renders the lower bound of a days-back window as YYYY-MM-DD.
func sinceDate(daysBack int) string {
	return time.Now().AddDate(0, 0, -daysBack).Format("2006-01-02")
}
