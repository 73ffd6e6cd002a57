package cmd

import (
	"time"

	"github.com/prpulse/prpulse/core"
	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/internal/runlog"
	"github.com/spf13/cobra"
)

// collectCmd runs the ingestion pipeline against the gh CLI.
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect pull request data from a GitHub organization.",
	Long: `Fetch pull request activity through the gh CLI and persist it to the
partitioned parquet store.

Discovers repositories with recent PR activity (via 'gh search prs'),
fetches their pull requests, normalizes the raw payloads and writes one
parquet file per org/repo/year/month partition. Re-collecting a window
replaces the affected partitions, so runs are idempotent.

Requires an authenticated gh CLI ('gh auth status' should succeed).

Examples:
  # Collect the last two weeks for an organization
  prpulse collect --org acme

  # Collect a single repository over a longer window
  prpulse collect --org acme --repo widgets --days-back 90

  # Also write a flat snapshot file for downstream tools
  prpulse collect --org acme --legacy-snapshot`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		start := time.Now()

		logStore, err := runlog.NewStore(cfg.RunLogBackend, cfg.RunLogDBConnect)
		if err != nil {
			contract.LogFatal("Failed to initialize run tracking", err)
		}
		defer func() { _ = logStore.Close() }()

		runID, err := logStore.BeginRun(start, cfg.Org, map[string]any{
			"org":       cfg.Org,
			"repo":      cfg.Repo,
			"days-back": cfg.DaysBack,
		})
		if err != nil {
			contract.LogWarn("Run tracking unavailable for this run", err)
		}

		client := contract.NewLocalGHClient()
		result, err := core.Collect(rootCtx, client, cfg)
		if err != nil {
			contract.LogFatal("Cannot collect pull request data", err)
		}

		if runID > 0 {
			if err := logStore.FinishRun(runID, time.Now(), result.Write.Rows, result.Write.Partitions); err != nil {
				contract.LogWarn("Failed to record run completion", err)
			}
		}

		if err := ow.WriteCollectSummary(result, cfg, time.Since(start)); err != nil {
			contract.LogFatal("Cannot write collect summary", err)
		}
	},
}
