package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/prpulse/prpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromHive(t *testing.T) {
	dir := t.TempDir()
	march := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	merged := sampleRow("foo", 1, march, schema.MergedState)
	merged.MergedAt = timePtr(march.Add(4 * time.Hour))
	merged.TimeToMergeHours = floatPtr(4.0)
	rows := []schema.PRRow{
		merged,
		sampleRow("foo", 2, march.Add(24*time.Hour), schema.OpenState),
		sampleRow("foo", 3, march.Add(48*time.Hour), schema.ClosedState),
	}
	_, err := WriteBatch(dir, rows)
	require.NoError(t, err)

	ds, err := Load(LoadOptions{Org: "acme", DataDir: dir, LegacyDir: t.TempDir()})
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()

	assert.Equal(t, SourceHive, ds.Source())
	assert.Equal(t, 3, ds.RowCount())

	summary, err := ds.Summary()
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalPRs)
	assert.Equal(t, int64(1), summary.MergedPRs)
	require.NotNil(t, summary.AvgMergeTime)
	assert.InDelta(t, 4.0, *summary.AvgMergeTime, 0.01)
}

func TestLoadHiveOrgAndRepoFilters(t *testing.T) {
	dir := t.TempDir()
	march := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	other := sampleRow("bar", 2, march, schema.OpenState)
	other.Org = "globex"
	_, err := WriteBatch(dir, []schema.PRRow{sampleRow("foo", 1, march, schema.MergedState), other})
	require.NoError(t, err)

	ds, err := Load(LoadOptions{Org: "acme", Repo: "foo", DataDir: dir, LegacyDir: t.TempDir()})
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()
	assert.Equal(t, 1, ds.RowCount())

	_, err = Load(LoadOptions{Org: "initech", DataDir: dir, LegacyDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestLoadDaysBackWindow(t *testing.T) {
	dir := t.TempDir()
	recent := time.Now().UTC().AddDate(0, 0, -3)
	old := time.Now().UTC().AddDate(0, 0, -60)

	_, err := WriteBatch(dir, []schema.PRRow{
		sampleRow("foo", 1, recent, schema.OpenState),
		sampleRow("foo", 2, old, schema.MergedState),
	})
	require.NoError(t, err)

	ds, err := Load(LoadOptions{Org: "acme", DaysBack: 14, DataDir: dir, LegacyDir: t.TempDir()})
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()
	assert.Equal(t, 1, ds.RowCount())
}

func TestLoadFallsBackToLegacy(t *testing.T) {
	legacyDir := t.TempDir()
	march := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	// Older valid snapshot plus a newer corrupt one: the loader must skip
	// the corrupt file and serve the valid data.
	_, err := WriteLegacySnapshot(legacyDir, "acme", march, []schema.PRRow{
		sampleRow("foo", 1, march, schema.MergedState),
		sampleRow("foo", 2, march, schema.OpenState),
	})
	require.NoError(t, err)
	corrupt := filepath.Join(legacyDir, LegacySnapshotName("acme", march.AddDate(0, 1, 0)))
	require.NoError(t, os.WriteFile(corrupt, []byte("not a parquet file"), 0o644))

	ds, err := Load(LoadOptions{Org: "acme", DataDir: filepath.Join(t.TempDir(), "missing"), LegacyDir: legacyDir})
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()

	assert.Equal(t, SourceLegacy, ds.Source())
	assert.Equal(t, 2, ds.RowCount())
}

func TestLoadLegacyRepoFilter(t *testing.T) {
	legacyDir := t.TempDir()
	march := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	_, err := WriteLegacySnapshot(legacyDir, "acme", march, []schema.PRRow{
		sampleRow("foo", 1, march, schema.MergedState),
		sampleRow("bar", 2, march, schema.OpenState),
	})
	require.NoError(t, err)

	ds, err := Load(LoadOptions{Org: "acme", Repo: "bar", DataDir: filepath.Join(t.TempDir(), "missing"), LegacyDir: legacyDir})
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()
	assert.Equal(t, 1, ds.RowCount())
}

func TestLoadNoDataAnywhere(t *testing.T) {
	_, err := Load(LoadOptions{
		Org:       "acme",
		DataDir:   filepath.Join(t.TempDir(), "missing"),
		LegacyDir: t.TempDir(),
	})
	assert.ErrorIs(t, err, ErrNoData)
}

// oldLayoutRow mimics a file written before several optional columns
// existed.
type oldLayoutRow struct {
	Org       string     `parquet:"org,snappy"`
	Repo      string     `parquet:"repo,snappy"`
	PRNumber  int64      `parquet:"pr_number,snappy"`
	Author    string     `parquet:"author,snappy"`
	CreatedAt *time.Time `parquet:"created_at,optional,snappy"`
	State     string     `parquet:"state,snappy"`
	PRSize    int64      `parquet:"pr_size,snappy"`
	Year      int32      `parquet:"year,snappy"`
	Month     int32      `parquet:"month,snappy"`
}

func writeOldLayoutFile(t *testing.T, path string, rows []oldLayoutRow) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	writer := parquet.NewGenericWriter[oldLayoutRow](file)
	_, err = writer.Write(rows)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, file.Close())
}

func TestCapabilitiesIntersectAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	march := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

	_, err := WriteBatch(dir, []schema.PRRow{sampleRow("foo", 1, march, schema.MergedState)})
	require.NoError(t, err)

	oldDir := PartitionKey{Org: "acme", Repo: "foo", Year: 2024, Month: 4}.Path(dir)
	require.NoError(t, os.MkdirAll(oldDir, 0o755))
	writeOldLayoutFile(t, filepath.Join(oldDir, PartitionFileName), []oldLayoutRow{{
		Org: "acme", Repo: "foo", PRNumber: 2, Author: "bob",
		CreatedAt: timePtr(april), State: string(schema.OpenState), PRSize: 10,
		Year: 2024, Month: 4,
	}})

	ds, err := Load(LoadOptions{Org: "acme", DataDir: dir, LegacyDir: t.TempDir()})
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()

	assert.Equal(t, 2, ds.RowCount())
	// Columns absent from the old file drop out of the shared capability set.
	assert.False(t, ds.Caps().Has("reviews"))
	assert.False(t, ds.Caps().Has("self_merged"))
	assert.False(t, ds.Caps().Has("reviewers"))
}

func TestParsePartitionPath(t *testing.T) {
	base := "data"
	tests := []struct {
		name string
		path string
		want PartitionKey
		ok   bool
	}{
		{
			name: "valid",
			path: filepath.Join(base, "org=acme", "repo=foo", "year=2024", "month=03", "data.parquet"),
			want: PartitionKey{Org: "acme", Repo: "foo", Year: 2024, Month: 3},
			ok:   true,
		},
		{
			name: "missing segment",
			path: filepath.Join(base, "org=acme", "repo=foo", "data.parquet"),
			ok:   false,
		},
		{
			name: "bad year",
			path: filepath.Join(base, "org=acme", "repo=foo", "year=abcd", "month=03", "data.parquet"),
			ok:   false,
		},
		{
			name: "wrong prefix order",
			path: filepath.Join(base, "repo=foo", "org=acme", "year=2024", "month=03", "data.parquet"),
			ok:   false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key, ok := parsePartitionPath(base, tc.path)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, key)
			}
		})
	}
}

func TestHiveDirectorySegmentsOverrideColumns(t *testing.T) {
	dir := t.TempDir()
	march := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	// Embed mismatched partition columns; the directory values must win.
	row := sampleRow("foo", 1, march, schema.OpenState)
	row.Year = 1999
	row.Month = 12
	key := PartitionKey{Org: "acme", Repo: "foo", Year: 2024, Month: 3}
	require.NoError(t, os.MkdirAll(key.Path(dir), 0o755))
	require.NoError(t, writeParquet(filepath.Join(key.Path(dir), PartitionFileName), []schema.PRRow{row}))

	rows, _, err := loadFromHive(LoadOptions{Org: "acme", DataDir: dir})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int32(2024), rows[0].Year)
	assert.Equal(t, int32(3), rows[0].Month)
}
