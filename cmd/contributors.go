package cmd

import (
	"fmt"

	"github.com/prpulse/prpulse/core"
	"github.com/prpulse/prpulse/internal/contract"
	"github.com/spf13/cobra"
)

// contributorsCmd renders the per-contributor view for one repository.
var contributorsCmd = &cobra.Command{
	Use:   "contributors",
	Short: "Show per-contributor metrics for a single repository.",
	Long: `Break down pull request activity by contributor for one repository.

For each contributor, shows PR counts, merge rate, average size and merge
time, reviews given to others and self-merge rate, alongside a baseline
row of repository-wide averages for comparison.

Review and self-merge columns depend on optional data; when older stored
files lack those columns the report degrades to the fields available.

Requires: --repo

Examples:
  # Contributor breakdown for one repository
  prpulse contributors --org acme --repo widgets

  # Markdown output over a quarter
  prpulse contributors --org acme --repo widgets --days-back 90 --output markdown`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := sharedSetup(rootCtx, cmd, args); err != nil {
			return err
		}
		if cfg.Repo == "" {
			return fmt.Errorf("contributors requires a repository. Provide it via the --repo flag")
		}
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		ds, err := loadDataset()
		if err != nil {
			contract.LogFatal("Cannot load pull request data", err)
		}
		if ds == nil {
			return
		}
		defer func() { _ = ds.Close() }()

		report, err := core.BuildContributorReport(ds, cfg)
		if err != nil {
			contract.LogFatal("Cannot build contributor report", err)
		}
		if err := ow.WriteContributors(report, cfg); err != nil {
			contract.LogFatal("Cannot write contributor report", err)
		}
	},
}
