// Package cmd defines the command-line interface for prpulse.
package cmd

import (
	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(contributorsCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(runlogCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the snapshot subcommands to the parent snapshot command
	snapshotCmd.AddCommand(snapshotConsolidateCmd)
	snapshotCmd.AddCommand(snapshotCleanupCmd)

	// Add the runlog subcommands to the parent runlog command
	runlogCmd.AddCommand(runlogStatusCmd)
	runlogCmd.AddCommand(runlogRunsCmd)
	runlogCmd.AddCommand(runlogClearCmd)
	runlogCmd.AddCommand(runlogMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("org", "o", "", "GitHub organization to analyze (required)")
	rootCmd.PersistentFlags().StringP("repo", "r", "", "Restrict collection and reporting to a single repository")
	rootCmd.PersistentFlags().IntP("days-back", "d", contract.DefaultDaysBack, "Number of days of PR activity to consider")
	rootCmd.PersistentFlags().String("data-dir", contract.DefaultDataDir, "Root directory of the partitioned parquet store")
	rootCmd.PersistentFlags().String("legacy-dir", contract.DefaultLegacyDir, "Directory holding flat snapshot files")
	rootCmd.PersistentFlags().Int("min-prs", 0, "Hide repositories with fewer PRs from report rollups")
	rootCmd.PersistentFlags().Int("top-authors", contract.DefaultTopAuthors, "Number of authors to show per-author weekly breakdowns for")
	rootCmd.PersistentFlags().Bool("legacy-snapshot", false, "Also write a flat snapshot file on each collect run")
	rootCmd.PersistentFlags().Int("keep-latest", contract.DefaultKeepLatest, "Number of flat snapshots preserved by cleanup")
	rootCmd.PersistentFlags().String("output", string(schema.TerminalOut), "Output format: terminal or markdown")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("runlog-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runlog-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of runlogRunsCmd to Viper
	runlogRunsCmd.Flags().Int("limit", 10, "Number of recent runs to display")
	if err := viper.BindPFlags(runlogRunsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runlog runs flags", err)
	}

	// Bind all flags of runlogMigrateCmd to Viper
	runlogMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runlogMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runlog migrate flags", err)
	}
}
