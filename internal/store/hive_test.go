package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prpulse/prpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time { return &t }

func floatPtr(v float64) *float64 { return &v }

// sampleRow builds a minimal normalized row for storage tests.
func sampleRow(repo string, number int64, created time.Time, state schema.PRState) schema.PRRow {
	return schema.PRRow{
		Org:       "acme",
		Repo:      repo,
		PRNumber:  number,
		Author:    "alice",
		CreatedAt: timePtr(created),
		State:     string(state),
		PRSize:    100,
		Year:      int32(created.Year()),
		Month:     int32(created.Month()),
	}
}

func TestPartitionKeyPath(t *testing.T) {
	key := PartitionKey{Org: "acme", Repo: "foo", Year: 2024, Month: 3}
	want := filepath.Join("base", "org=acme", "repo=foo", "year=2024", "month=03")
	assert.Equal(t, want, key.Path("base"))
}

func TestWriteBatchGroupsByPartition(t *testing.T) {
	dir := t.TempDir()
	march := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)

	rows := []schema.PRRow{
		sampleRow("foo", 1, march, schema.MergedState),
		sampleRow("foo", 2, march, schema.OpenState),
		sampleRow("bar", 3, april, schema.ClosedState),
	}
	result, err := WriteBatch(dir, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 2, result.Partitions)
	assert.Equal(t, 0, result.Skipped)

	for _, sub := range []string{
		filepath.Join("org=acme", "repo=foo", "year=2024", "month=03", PartitionFileName),
		filepath.Join("org=acme", "repo=bar", "year=2024", "month=04", PartitionFileName),
	} {
		_, statErr := os.Stat(filepath.Join(dir, sub))
		assert.NoError(t, statErr)
	}
}

func TestWriteBatchReplacesPartition(t *testing.T) {
	dir := t.TempDir()
	march := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	first := []schema.PRRow{
		sampleRow("foo", 1, march, schema.OpenState),
		sampleRow("foo", 2, march, schema.OpenState),
	}
	_, err := WriteBatch(dir, first)
	require.NoError(t, err)

	// Rewriting the same partition replaces it wholesale.
	second := []schema.PRRow{sampleRow("foo", 1, march, schema.MergedState)}
	_, err = WriteBatch(dir, second)
	require.NoError(t, err)

	key := PartitionKey{Org: "acme", Repo: "foo", Year: 2024, Month: 3}
	path := filepath.Join(key.Path(dir), PartitionFileName)
	rows, _, err := readParquet(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, string(schema.MergedState), rows[0].State)
}

func TestWriteBatchEmptyIsNoOp(t *testing.T) {
	dir := t.TempDir()
	result, err := WriteBatch(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Rows)
	assert.Equal(t, 0, result.Partitions)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteBatchSkipsRowsWithoutCreationTime(t *testing.T) {
	dir := t.TempDir()
	march := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	noCreated := sampleRow("foo", 9, march, schema.OpenState)
	noCreated.CreatedAt = nil
	rows := []schema.PRRow{sampleRow("foo", 1, march, schema.MergedState), noCreated}

	result, err := WriteBatch(dir, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
	assert.Equal(t, 1, result.Skipped)
}

func TestLegacySnapshotName(t *testing.T) {
	at := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "pr_data_acme-corp_20260825_120000.parquet", LegacySnapshotName("Acme Corp", at))
}

func TestWriteLegacySnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	march := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	rows := []schema.PRRow{
		sampleRow("foo", 1, march, schema.MergedState),
		sampleRow("foo", 2, march, schema.OpenState),
	}

	path, err := WriteLegacySnapshot(dir, "acme", march, rows)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pr_data_acme_20240310_120000.parquet"), path)

	got, caps, err := readParquet(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.True(t, caps.Has("title"))
	assert.True(t, caps.Has("self_merged"))
}
