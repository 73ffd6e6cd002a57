package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/schema"
)

// CleanupLegacy removes old legacy snapshot files, keeping the newest
// keepLatest by filename timestamp. Returns the number of files removed.
func CleanupLegacy(legacyDir string, keepLatest int) (int, error) {
	files, err := filepath.Glob(filepath.Join(legacyDir, "pr_data_*.parquet"))
	if err != nil {
		return 0, fmt.Errorf("bad legacy pattern: %w", err)
	}
	sort.Strings(files)

	if len(files) <= keepLatest {
		return 0, nil
	}

	removed := 0
	for _, path := range files[:len(files)-keepLatest] {
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}

// dedupeKey identifies a PR across snapshots.
type dedupeKey struct {
	Org      string
	Repo     string
	PRNumber int64
}

// Consolidate merges every legacy snapshot into one deduplicated file,
// keeping the newest snapshot's version of each PR. Corrupt files are
// skipped with a warning, matching the loader's tolerance. Returns the
// consolidated file path and the number of duplicates dropped.
func Consolidate(legacyDir string, at time.Time) (string, int, error) {
	files, err := filepath.Glob(filepath.Join(legacyDir, "pr_data_*.parquet"))
	if err != nil {
		return "", 0, fmt.Errorf("bad legacy pattern: %w", err)
	}
	if len(files) == 0 {
		return "", 0, ErrNoData
	}
	// Newest first so the first occurrence of a PR wins.
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	seen := make(map[dedupeKey]struct{})
	var unique []schema.PRRow
	total := 0
	for _, path := range files {
		rows, _, err := readParquet(path)
		if err != nil {
			contract.LogWarn("skipping corrupted legacy file", fmt.Errorf("%s: %v", filepath.Base(path), err))
			continue
		}
		total += len(rows)
		for _, row := range rows {
			key := dedupeKey{Org: row.Org, Repo: row.Repo, PRNumber: row.PRNumber}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			unique = append(unique, row)
		}
	}
	if len(unique) == 0 {
		return "", 0, ErrNoData
	}

	path := filepath.Join(legacyDir, fmt.Sprintf("pr_data_consolidated_%s.parquet", at.Format(legacyTimestampLayout)))
	if err := writeParquet(path, unique); err != nil {
		return "", 0, fmt.Errorf("failed to write consolidated file: %w", err)
	}
	return path, total - len(unique), nil
}
