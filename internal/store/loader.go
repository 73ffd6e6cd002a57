package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/schema"
)

// ErrNoData signals that neither the partitioned store nor the legacy
// snapshots held any rows matching the load criteria. Callers present
// "nothing to show" rather than a failure.
var ErrNoData = errors.New("no pull request data found")

// Optional columns subject to schema evolution. Files written by older
// versions may lack any of these; the loader records which are present so
// queries can degrade instead of erroring.
var optionalColumns = []string{
	"title",
	"closed_at",
	"commits",
	"reviews",
	"reviewers",
	"changed_files",
	"comments",
	"time_to_first_review_hours",
	"merged_by",
	"self_merged",
	"is_draft",
	"labels",
}

// Capabilities is the schema-capability descriptor for a loaded relation:
// the set of optional columns present in every contributing file. It is
// computed once at load time and consulted by the aggregation queries.
type Capabilities map[string]struct{}

// Has reports whether the named optional column is available.
func (c Capabilities) Has(column string) bool {
	_, ok := c[column]
	return ok
}

// intersect keeps only columns present in both capability sets.
func (c Capabilities) intersect(other Capabilities) Capabilities {
	out := make(Capabilities)
	for col := range c {
		if _, ok := other[col]; ok {
			out[col] = struct{}{}
		}
	}
	return out
}

// LoadOptions filter the relation assembled by Load.
type LoadOptions struct {
	Org       string // empty means all organizations
	Repo      string // empty means all repositories
	DaysBack  int    // zero means no time window
	DataDir   string
	LegacyDir string
}

// Load resolves a queryable dataset from the partitioned store, falling
// back to legacy flat snapshots when the store is empty or absent. The
// returned Dataset owns an open database handle; callers must Close it on
// every exit path.
func Load(opts LoadOptions) (*Dataset, error) {
	rows, caps, err := loadFromHive(opts)
	if err != nil {
		return nil, err
	}

	source := SourceHive
	if len(rows) == 0 {
		contract.LogInfo("no partitioned data matched, falling back to legacy snapshots")
		rows, caps, err = loadFromLegacy(opts)
		if err != nil {
			return nil, err
		}
		source = SourceLegacy
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	return newDataset(rows, caps, source)
}

// loadFromHive walks the partition tree, reading every parquet file whose
// directory-encoded key passes the org/repo filters. Directory values are
// authoritative for the partition columns, mirroring hive-style reads.
func loadFromHive(opts LoadOptions) ([]schema.PRRow, Capabilities, error) {
	if _, err := os.Stat(opts.DataDir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to access data directory %s: %w", opts.DataDir, err)
	}

	var files []string
	walkErr := filepath.WalkDir(opts.DataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".parquet") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("failed to scan partition store: %w", walkErr)
	}
	sort.Strings(files)

	cutoff := cutoffTime(opts.DaysBack)
	var all []schema.PRRow
	var caps Capabilities
	for _, path := range files {
		key, ok := parsePartitionPath(opts.DataDir, path)
		if !ok {
			contract.LogWarn("skipping file outside partition layout", fmt.Errorf("unrecognized path %s", path))
			continue
		}
		if opts.Org != "" && key.Org != opts.Org {
			continue
		}
		if opts.Repo != "" && key.Repo != opts.Repo {
			continue
		}

		rows, fileCaps, err := readParquet(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read partition file %s: %w", path, err)
		}
		for i := range rows {
			// Directory segments win over embedded columns.
			rows[i].Org = key.Org
			rows[i].Repo = key.Repo
			rows[i].Year = key.Year
			rows[i].Month = key.Month
		}
		all = append(all, filterByCutoff(rows, cutoff)...)

		if caps == nil {
			caps = fileCaps
		} else {
			caps = caps.intersect(fileCaps)
		}
	}
	return all, caps, nil
}

// loadFromLegacy scans flat snapshot files newest first, opening the first
// one that parses and skipping corrupt files with a warning. Repo and time
// filters apply on top of the chosen file.
func loadFromLegacy(opts LoadOptions) ([]schema.PRRow, Capabilities, error) {
	pattern := "pr_data_*.parquet"
	if opts.Org != "" {
		pattern = fmt.Sprintf("pr_data_%s_*.parquet", contract.SanitizeOrg(opts.Org))
	}
	files, err := filepath.Glob(filepath.Join(opts.LegacyDir, pattern))
	if err != nil {
		return nil, nil, fmt.Errorf("bad legacy pattern: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	cutoff := cutoffTime(opts.DaysBack)
	for _, path := range files {
		rows, caps, err := readParquet(path)
		if err != nil {
			contract.LogWarn("skipping corrupted legacy file", fmt.Errorf("%s: %v", filepath.Base(path), err))
			continue
		}
		contract.LogInfo(fmt.Sprintf("loaded %d rows from legacy file %s", len(rows), filepath.Base(path)))

		if opts.Repo != "" {
			filtered := rows[:0]
			for _, row := range rows {
				if row.Repo == opts.Repo {
					filtered = append(filtered, row)
				}
			}
			rows = filtered
		}
		return filterByCutoff(rows, cutoff), caps, nil
	}
	return nil, nil, nil
}

// readParquet reads one file's rows and computes its capability set.
// Opening through parquet.OpenFile first detects corrupt files before any
// row decoding; reading into the row struct zero-fills columns the file
// lacks.
func readParquet(path string) ([]schema.PRRow, Capabilities, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, nil, fmt.Errorf("not a valid parquet file: %w", err)
	}

	caps := make(Capabilities)
	present := make(map[string]struct{})
	for _, field := range pf.Schema().Fields() {
		present[field.Name()] = struct{}{}
	}
	for _, col := range optionalColumns {
		if _, ok := present[col]; ok {
			caps[col] = struct{}{}
		}
	}

	rows, err := parquet.ReadFile[schema.PRRow](path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	return rows, caps, nil
}

// parsePartitionPath recovers the partition key from a file's directory
// segments beneath baseDir.
func parsePartitionPath(baseDir, path string) (PartitionKey, bool) {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		return PartitionKey{}, false
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	if len(segments) != 5 {
		return PartitionKey{}, false
	}

	var key PartitionKey
	for i, prefix := range []string{"org=", "repo=", "year=", "month="} {
		if !strings.HasPrefix(segments[i], prefix) {
			return PartitionKey{}, false
		}
		value := strings.TrimPrefix(segments[i], prefix)
		switch prefix {
		case "org=":
			key.Org = value
		case "repo=":
			key.Repo = value
		case "year=":
			year, err := strconv.Atoi(value)
			if err != nil {
				return PartitionKey{}, false
			}
			key.Year = int32(year)
		case "month=":
			month, err := strconv.Atoi(value)
			if err != nil {
				return PartitionKey{}, false
			}
			key.Month = int32(month)
		}
	}
	return key, true
}

// cutoffTime converts a days-back window into an inclusive lower bound on
// creation time, aligned to the start of the day like the date filters the
// gh CLI uses. Zero daysBack means no bound.
func cutoffTime(daysBack int) time.Time {
	if daysBack <= 0 {
		return time.Time{}
	}
	cutoff := time.Now().AddDate(0, 0, -daysBack)
	return time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, cutoff.Location())
}

// filterByCutoff keeps rows created at or after the cutoff. A zero cutoff
// keeps everything, including rows with no creation timestamp.
func filterByCutoff(rows []schema.PRRow, cutoff time.Time) []schema.PRRow {
	if cutoff.IsZero() {
		return rows
	}
	var out []schema.PRRow
	for _, row := range rows {
		if row.CreatedAt == nil {
			continue
		}
		if row.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, row)
	}
	return out
}
