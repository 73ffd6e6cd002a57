package cmd

import (
	"fmt"

	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/internal/runlog"
	"github.com/prpulse/prpulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runlogSetup loads minimal configuration needed for run tracking operations.
// This is used by commands that need run log access without full shared setup.
func runlogSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get run-tracking config values
	backendStr := viper.GetString("runlog-backend")
	connStr := viper.GetString("runlog-db-connect")

	// Handle empty backend as NoneBackend
	var backend schema.DatabaseBackend
	if backendStr == "" {
		backend = schema.NoneBackend
	} else {
		backend = schema.DatabaseBackend(backendStr)
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.RunLogBackend = backend
	cfg.RunLogDBConnect = connStr

	return nil
}

// runlogSetupWrapper wraps runlogSetup to provide PreRunE for runlog commands.
func runlogSetupWrapper(_ *cobra.Command, _ []string) error {
	return runlogSetup()
}

// runlogMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT open the store or create tables,
// allowing migrations to run on a fresh database.
func runlogMigrateSetup() error {
	if err := runlogSetup(); err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if cfg.RunLogBackend == schema.SQLiteBackend && cfg.RunLogDBConnect == "" {
		cfg.RunLogDBConnect = contract.GetRunLogDBFilePath()
	}

	return nil
}

// runlogMigrateSetupWrapper wraps runlogMigrateSetup to provide PreRunE for migrate command.
func runlogMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return runlogMigrateSetup()
}

// openRunLogStore opens the configured run log store for a subcommand.
func openRunLogStore() contract.RunLogStore {
	logStore, err := runlog.NewStore(cfg.RunLogBackend, cfg.RunLogDBConnect)
	if err != nil {
		contract.LogFatal("Failed to open run log store", err)
	}
	return logStore
}

// runlogCmd focused on ingestion run tracking.
//
// Note: Runlog subcommands use minimal initialization (runlogSetup) instead
// of the full sharedSetup used by collection commands. This avoids org
// resolution and window validation for simple bookkeeping operations.
var runlogCmd = &cobra.Command{
	Use:   "runlog",
	Short: "Manage ingestion run tracking",
	Long: `Manage the run log that records every collect execution.

When enabled, prpulse tracks each ingestion run, storing:
- Run metadata (start/end time, duration, configuration)
- The organization collected
- Rows and partitions written

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run tracking statistics
  runs    - List recent ingestion runs
  clear   - Remove all tracked runs
  migrate - Run database schema migrations

Examples:
  # Check run tracking status
  prpulse runlog status

  # Show the last 20 runs
  prpulse runlog runs --limit 20`,
}

// runlogStatusCmd shows run tracking status.
var runlogStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run tracking statistics and connection details",
	Long: `Show detailed information about ingestion run tracking.

Displays:
- Backend type and connection status
- Total number of runs stored
- Total rows written across all runs
- Last and oldest run timestamps

Examples:
  # Check run tracking status
  prpulse runlog status`,
	PreRunE: runlogSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		logStore := openRunLogStore()
		defer func() { _ = logStore.Close() }()

		status, err := logStore.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run log status", err)
		}
		if err := ow.WriteRunLogStatus(status); err != nil {
			contract.LogFatal("Failed to write run log status", err)
		}
	},
}

// runlogRunsCmd lists recent ingestion runs.
var runlogRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ingestion runs, newest first",
	Long: `List the most recent ingestion runs with their timing and volumes.

Each row shows the run ID, start time, duration, organization and the
rows and partitions written. Use --limit to adjust how far back to look.

Examples:
  # Show the ten most recent runs (default)
  prpulse runlog runs

  # Show the last 50 runs
  prpulse runlog runs --limit 50`,
	PreRunE: runlogSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		logStore := openRunLogStore()
		defer func() { _ = logStore.Close() }()

		runs, err := logStore.ListRuns(viper.GetInt("limit"))
		if err != nil {
			contract.LogFatal("Failed to list runs", err)
		}
		if err := ow.WriteRuns(runs); err != nil {
			contract.LogFatal("Failed to write runs", err)
		}
	},
}

// runlogClearCmd clears the run log.
var runlogClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all tracked ingestion runs",
	Long: `Delete all stored run records.

WARNING: This action cannot be undone.

Examples:
  # Reset run history
  prpulse runlog clear`,
	PreRunE: runlogSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		logStore := openRunLogStore()
		defer func() { _ = logStore.Close() }()

		if err := logStore.Clear(); err != nil {
			contract.LogFatal("Failed to clear run log", err)
		}
		fmt.Println("Run log cleared successfully.")
	},
}

// runlogMigrateCmd runs database migrations for the run log store.
var runlogMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run log store.

By default, migrates to the latest version. Use --target-version for
specific versions.

Examples:
  # Migrate to latest version (default)
  prpulse runlog migrate

  # Migrate to specific version
  prpulse runlog migrate --target-version 1

  # Rollback to previous version
  prpulse runlog migrate --target-version 0`,
	PreRunE: runlogMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := runlog.Migrate(cfg.RunLogBackend, cfg.RunLogDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
