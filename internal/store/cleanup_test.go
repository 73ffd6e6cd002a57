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

func TestCleanupLegacyKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	rows := []schema.PRRow{sampleRow("foo", 1, base, schema.OpenState)}

	for i := range 5 {
		_, err := WriteLegacySnapshot(dir, "acme", base.AddDate(0, 0, i), rows)
		require.NoError(t, err)
	}

	removed, err := CleanupLegacy(dir, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	remaining, err := filepath.Glob(filepath.Join(dir, "pr_data_*.parquet"))
	require.NoError(t, err)
	require.Len(t, remaining, 3)
	// The two oldest snapshots are the ones gone.
	for _, path := range remaining {
		assert.NotContains(t, path, "20240310")
		assert.NotContains(t, path, "20240311")
	}
}

func TestCleanupLegacyUnderThreshold(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	_, err := WriteLegacySnapshot(dir, "acme", base, []schema.PRRow{sampleRow("foo", 1, base, schema.OpenState)})
	require.NoError(t, err)

	removed, err := CleanupLegacy(dir, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestConsolidateKeepsNewestVersionOfEachPR(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	older := sampleRow("foo", 1, base, schema.OpenState)
	_, err := WriteLegacySnapshot(dir, "acme", base, []schema.PRRow{older, sampleRow("foo", 2, base, schema.OpenState)})
	require.NoError(t, err)

	// The same PR shows up merged in a later snapshot.
	newer := sampleRow("foo", 1, base, schema.MergedState)
	_, err = WriteLegacySnapshot(dir, "acme", base.AddDate(0, 0, 1), []schema.PRRow{newer})
	require.NoError(t, err)

	path, dropped, err := Consolidate(dir, base.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)

	rows, _, err := readParquet(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	states := make(map[int64]string)
	for _, row := range rows {
		states[row.PRNumber] = row.State
	}
	assert.Equal(t, string(schema.MergedState), states[1])
	assert.Equal(t, string(schema.OpenState), states[2])
}

func TestConsolidateSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	_, err := WriteLegacySnapshot(dir, "acme", base, []schema.PRRow{sampleRow("foo", 1, base, schema.OpenState)})
	require.NoError(t, err)
	corrupt := filepath.Join(dir, LegacySnapshotName("acme", base.AddDate(0, 0, 1)))
	require.NoError(t, os.WriteFile(corrupt, []byte("garbage"), 0o644))

	path, dropped, err := Consolidate(dir, base.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 0, dropped)

	rows, _, err := readParquet(path)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestConsolidateEmptyDir(t *testing.T) {
	_, _, err := Consolidate(t.TempDir(), time.Now())
	assert.ErrorIs(t, err, ErrNoData)
}
