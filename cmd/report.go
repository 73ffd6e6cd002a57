package cmd

import (
	"errors"
	"fmt"

	"github.com/prpulse/prpulse/core"
	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/internal/store"
	"github.com/spf13/cobra"
)

// loadDataset resolves the queryable dataset for report-style commands.
// A nil dataset with a nil error means no data matched; the caller should
// print guidance and exit cleanly.
func loadDataset() (*store.Dataset, error) {
	ds, err := store.Load(store.LoadOptions{
		Org:       cfg.Org,
		Repo:      cfg.Repo,
		DaysBack:  cfg.DaysBack,
		DataDir:   cfg.DataDir,
		LegacyDir: cfg.LegacyDir,
	})
	if errors.Is(err, store.ErrNoData) {
		fmt.Println("No pull request data found. Run 'prpulse collect' first.")
		return nil, nil
	}
	return ds, err
}

// reportCmd renders the full metrics report from stored data.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render PR metrics from previously collected data.",
	Long: `Aggregate stored pull request data into a team metrics report.

Includes:
- Summary totals (PRs, merge rate, average size and merge time)
- Per-author and per-repository rollups
- PR size distribution with merge-time impact
- Weekly and monthly activity with trend classification
- Per-author weekly breakdowns for the most active authors

Reads from the partitioned store and falls back to legacy flat snapshots
when the store is empty. No network access is needed.

Examples:
  # Report over the default window
  prpulse report --org acme

  # Markdown output for pasting into a doc
  prpulse report --org acme --output markdown --output-file metrics.md

  # Focus on one repository, hiding low-traffic repos elsewhere
  prpulse report --org acme --repo widgets --min-prs 5`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ds, err := loadDataset()
		if err != nil {
			contract.LogFatal("Cannot load pull request data", err)
		}
		if ds == nil {
			return
		}
		defer func() { _ = ds.Close() }()

		report, err := core.BuildReport(ds, cfg)
		if err != nil {
			contract.LogFatal("Cannot build report", err)
		}
		if err := ow.WriteReport(report, cfg); err != nil {
			contract.LogFatal("Cannot write report", err)
		}
	},
}
