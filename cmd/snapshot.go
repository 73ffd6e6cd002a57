package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// snapshotSetup loads minimal configuration needed for snapshot maintenance.
// Snapshot commands only touch the legacy directory, so they skip the full
// shared setup (no org required).
func snapshotSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	cfg.LegacyDir = viper.GetString("legacy-dir")
	if cfg.LegacyDir == "" {
		cfg.LegacyDir = contract.DefaultLegacyDir
	}

	cfg.KeepLatest = viper.GetInt("keep-latest")
	if cfg.KeepLatest <= 0 {
		return fmt.Errorf("keep-latest must be greater than 0 (received %d)", cfg.KeepLatest)
	}

	return nil
}

// snapshotSetupWrapper wraps snapshotSetup to provide PreRunE for snapshot commands.
func snapshotSetupWrapper(_ *cobra.Command, _ []string) error {
	return snapshotSetup()
}

// snapshotCmd focused on legacy flat snapshot maintenance.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Maintain legacy flat snapshot files",
	Long: `Maintain the flat snapshot files written by 'collect --legacy-snapshot'.

Snapshots accumulate over time and often repeat the same pull requests at
different points in their lifecycle. These commands keep the snapshot
directory bounded and let you collapse history into a single file.

Subcommands:
  consolidate - Merge all snapshots into one deduplicated file
  cleanup     - Remove old snapshots beyond the retention count

Examples:
  # Collapse the snapshot directory into one file
  prpulse snapshot consolidate

  # Keep only the five newest snapshots
  prpulse snapshot cleanup --keep-latest 5`,
}

// snapshotConsolidateCmd merges all snapshots into one deduplicated file.
var snapshotConsolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Merge all snapshots into a single deduplicated file",
	Long: `Read every snapshot in the legacy directory and write one consolidated
file holding the newest version of each pull request.

Snapshots are read newest first; when the same PR appears in multiple
files, the most recent record wins. Unreadable files are skipped with a
warning. Existing snapshots are left in place.

Examples:
  # Consolidate, then clean up the originals
  prpulse snapshot consolidate
  prpulse snapshot cleanup --keep-latest 1`,
	PreRunE: snapshotSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		path, dropped, err := store.Consolidate(cfg.LegacyDir, time.Now())
		if errors.Is(err, store.ErrNoData) {
			fmt.Println("No legacy snapshots found")
			return
		}
		if err != nil {
			contract.LogFatal("Cannot consolidate snapshots", err)
		}
		fmt.Printf("Consolidated snapshots into %s (%d duplicate records dropped)\n", path, dropped)
	},
}

// snapshotCleanupCmd removes snapshots beyond the retention count.
var snapshotCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove old snapshots beyond the retention count",
	Long: `Delete the oldest snapshot files, keeping only the most recent ones.

The retention count comes from --keep-latest. Collect runs with
--legacy-snapshot apply the same policy automatically; this command is
for trimming a directory that grew before retention was enabled.

Examples:
  # Keep the three newest snapshots (default)
  prpulse snapshot cleanup

  # Aggressive trim to a single snapshot
  prpulse snapshot cleanup --keep-latest 1`,
	PreRunE: snapshotSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		removed, err := store.CleanupLegacy(cfg.LegacyDir, cfg.KeepLatest)
		if err != nil {
			contract.LogFatal("Cannot clean up snapshots", err)
		}
		fmt.Printf("Removed %d old snapshot(s)\n", removed)
	},
}
