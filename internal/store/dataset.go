package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/prpulse/prpulse/schema"

	// SQLite driver for the in-memory query relation.
	_ "modernc.org/sqlite"
)

// Data source identifiers for a loaded Dataset.
const (
	SourceHive   = "hive"
	SourceLegacy = "legacy"
)

// sqliteTimeFormat stores timestamps as RFC3339 text in UTC, which sorts
// lexicographically in chronological order and parses in strftime().
const sqliteTimeFormat = time.RFC3339

const createPRDataTable = `
	CREATE TABLE pr_data (
		org TEXT NOT NULL,
		repo TEXT NOT NULL,
		pr_number INTEGER NOT NULL,
		author TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		created_at TEXT,
		merged_at TEXT,
		closed_at TEXT,
		state TEXT NOT NULL,
		pr_size INTEGER NOT NULL,
		commits INTEGER NOT NULL DEFAULT 0,
		reviews INTEGER NOT NULL DEFAULT 0,
		changed_files INTEGER NOT NULL DEFAULT 0,
		comments INTEGER NOT NULL DEFAULT 0,
		time_to_merge_hours REAL,
		time_to_first_review_hours REAL,
		merged_by TEXT,
		self_merged INTEGER NOT NULL DEFAULT 0,
		is_draft INTEGER NOT NULL DEFAULT 0,
		labels TEXT NOT NULL DEFAULT '',
		reviewers TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		month INTEGER NOT NULL DEFAULT 0
	);
`

const createPRReviewersTable = `
	CREATE TABLE pr_reviewers (
		reviewer TEXT NOT NULL
	);
`

const insertPRData = `
	INSERT INTO pr_data (
		org, repo, pr_number, author, title,
		created_at, merged_at, closed_at,
		state, pr_size, commits, reviews, changed_files, comments,
		time_to_merge_hours, time_to_first_review_hours,
		merged_by, self_merged, is_draft, labels, reviewers, year, month
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Dataset is the queryable handle returned by Load: the unified relation
// materialized into an in-memory SQLite table, plus the capability set of
// the contributing files. Callers own the handle and must Close it.
type Dataset struct {
	db     *sql.DB
	caps   Capabilities
	source string
	rows   int
}

// Caps returns the schema-capability descriptor computed at load time.
func (d *Dataset) Caps() Capabilities { return d.caps }

// Source reports which storage path satisfied the load: hive or legacy.
func (d *Dataset) Source() string { return d.source }

// RowCount returns the number of rows in the relation.
func (d *Dataset) RowCount() int { return d.rows }

// Close releases the underlying database handle.
func (d *Dataset) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// newDataset materializes rows into the pr_data relation. The reviewers
// column is additionally exploded into a pr_reviewers side table so
// reviews-given can be computed in SQL.
func newDataset(rows []schema.PRRow, caps Capabilities, source string) (*Dataset, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// A single connection keeps every statement on the same in-memory DB.
	db.SetMaxOpenConns(1)

	for _, ddl := range []string{createPRDataTable, createPRReviewersTable} {
		if _, err := db.Exec(ddl); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create relation: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to begin load transaction: %w", err)
	}
	insertRow, err := tx.Prepare(insertPRData)
	if err != nil {
		_ = tx.Rollback()
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	insertReviewer, err := tx.Prepare(`INSERT INTO pr_reviewers (reviewer) VALUES (?)`)
	if err != nil {
		_ = tx.Rollback()
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare reviewer insert: %w", err)
	}

	for _, row := range rows {
		if _, err := insertRow.Exec(
			row.Org, row.Repo, row.PRNumber, row.Author, row.Title,
			nullTime(row.CreatedAt), nullTime(row.MergedAt), nullTime(row.ClosedAt),
			row.State, row.PRSize, row.Commits, row.Reviews, row.ChangedFiles, row.Comments,
			nullFloat(row.TimeToMergeHours), nullFloat(row.TimeToFirstReviewHours),
			nullString(row.MergedBy), boolToInt(row.SelfMerged), boolToInt(row.IsDraft),
			row.Labels, row.Reviewers, row.Year, row.Month,
		); err != nil {
			_ = tx.Rollback()
			_ = db.Close()
			return nil, fmt.Errorf("failed to insert row: %w", err)
		}

		for _, reviewer := range strings.Split(row.Reviewers, ",") {
			reviewer = strings.TrimSpace(reviewer)
			if reviewer == "" {
				continue
			}
			if _, err := insertReviewer.Exec(reviewer); err != nil {
				_ = tx.Rollback()
				_ = db.Close()
				return nil, fmt.Errorf("failed to insert reviewer: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to commit load transaction: %w", err)
	}

	return &Dataset{db: db, caps: caps, source: source, rows: len(rows)}, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(sqliteTimeFormat)
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// floatOrNil converts a scanned nullable aggregate to a pointer.
func floatOrNil(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// timeOrNil parses a scanned nullable timestamp column.
func timeOrNil(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t, err := time.Parse(sqliteTimeFormat, v.String)
	if err != nil {
		return nil
	}
	return &t
}
