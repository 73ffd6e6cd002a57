// Package store implements the partitioned parquet persistence layer:
// Hive-style partition writes, legacy flat snapshot handling, and the smart
// loader that turns either source into a queryable SQL relation.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/schema"
)

// PartitionFileName is the data file written inside each partition
// directory. One file per partition; a rewrite replaces it wholesale.
const PartitionFileName = "data.parquet"

// legacyTimestampLayout is the timestamp embedded in legacy snapshot
// filenames. Lexicographic order equals chronological order.
const legacyTimestampLayout = "20060102_150405"

// PartitionKey identifies one physical storage unit.
type PartitionKey struct {
	Org   string
	Repo  string
	Year  int32
	Month int32
}

// Path returns the partition directory for the key beneath baseDir, with
// a zero-padded month segment.
func (k PartitionKey) Path(baseDir string) string {
	return filepath.Join(
		baseDir,
		fmt.Sprintf("org=%s", k.Org),
		fmt.Sprintf("repo=%s", k.Repo),
		fmt.Sprintf("year=%d", k.Year),
		fmt.Sprintf("month=%02d", k.Month),
	)
}

// WriteResult reports what a batch write touched.
type WriteResult struct {
	Rows       int
	Partitions int
	Skipped    int // rows without a creation timestamp, not written
}

// WriteBatch groups rows by partition key and rewrites each affected
// partition. Partitions not present in the batch are left untouched;
// partitions present are fully replaced, never merged. Callers must supply
// a complete snapshot of every partition the batch touches — the writer
// has no merge semantics.
//
// An empty batch is a warning no-op. Any I/O failure aborts the write.
func WriteBatch(baseDir string, rows []schema.PRRow) (*WriteResult, error) {
	if len(rows) == 0 {
		contract.LogWarn("no data to write", fmt.Errorf("empty batch for %s", baseDir))
		return &WriteResult{}, nil
	}

	groups := make(map[PartitionKey][]schema.PRRow)
	skipped := 0
	for _, row := range rows {
		if row.CreatedAt == nil {
			skipped++
			continue
		}
		key := PartitionKey{Org: row.Org, Repo: row.Repo, Year: row.Year, Month: row.Month}
		groups[key] = append(groups[key], row)
	}
	if skipped > 0 {
		contract.LogWarn("rows without creation timestamp not written",
			fmt.Errorf("%d of %d rows have no partition key", skipped, len(rows)))
	}

	written := 0
	for key, group := range groups {
		dir := key.Path(baseDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create partition directory %s: %w", dir, err)
		}
		if err := writeParquet(filepath.Join(dir, PartitionFileName), group); err != nil {
			return nil, fmt.Errorf("failed to write partition %s: %w", dir, err)
		}
		written += len(group)
	}

	return &WriteResult{Rows: written, Partitions: len(groups), Skipped: skipped}, nil
}

// LegacySnapshotName builds the flat snapshot filename for an org and a
// run timestamp, e.g. pr_data_acme-corp_20260825_120000.parquet.
func LegacySnapshotName(org string, at time.Time) string {
	return fmt.Sprintf("pr_data_%s_%s.parquet", contract.SanitizeOrg(org), at.Format(legacyTimestampLayout))
}

// WriteLegacySnapshot writes the full batch as one flat snapshot file in
// the pre-partitioning format, which the loader's fallback path consumes.
func WriteLegacySnapshot(legacyDir, org string, at time.Time, rows []schema.PRRow) (string, error) {
	if len(rows) == 0 {
		contract.LogWarn("no data to write", fmt.Errorf("empty snapshot for org %s", org))
		return "", nil
	}
	if err := os.MkdirAll(legacyDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create legacy directory %s: %w", legacyDir, err)
	}
	path := filepath.Join(legacyDir, LegacySnapshotName(org, at))
	if err := writeParquet(path, rows); err != nil {
		return "", fmt.Errorf("failed to write legacy snapshot %s: %w", path, err)
	}
	return path, nil
}

// writeParquet writes rows to a single parquet file, replacing any
// existing content at that path.
func writeParquet(path string, rows []schema.PRRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	writer := parquet.NewGenericWriter[schema.PRRow](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		_ = file.Close()
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}
