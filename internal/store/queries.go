package store

import (
	"database/sql"
	"fmt"

	"github.com/prpulse/prpulse/schema"
)

// weekStartExpr truncates an RFC3339 timestamp to the Monday of its week,
// matching calendar-week grouping with Monday as the first day.
const weekStartExpr = `date(created_at, '-' || ((CAST(strftime('%w', created_at) AS INTEGER) + 6) % 7) || ' days')`

// monthStartExpr truncates an RFC3339 timestamp to the first of its month.
const monthStartExpr = `strftime('%Y-%m-01', created_at)`

// mergedCountExpr counts merged rows within a group.
const mergedCountExpr = `SUM(CASE WHEN state = 'merged' THEN 1 ELSE 0 END)`

// avgMergeTimeExpr averages merge latency over the merged subset only.
const avgMergeTimeExpr = `ROUND(AVG(CASE WHEN state = 'merged' THEN time_to_merge_hours END), 1)`

// mergeRateExpr is merged/count as a percentage. Groups always have at
// least one row, so the division is safe inside grouped queries.
const mergeRateExpr = `ROUND(100.0 * SUM(CASE WHEN state = 'merged' THEN 1 ELSE 0 END) / COUNT(*), 1)`

// recentPeriods caps weekly rollups to the most recent periods.
const recentPeriods = 6

// Summary computes the overall single-row rollup. A relation with zero
// rows yields zero counts and nil aggregates rather than an error.
func (d *Dataset) Summary() (*schema.SummaryStats, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(*) AS total_prs,
			COALESCE(%s, 0) AS merged_prs,
			ROUND(AVG(pr_size), 0) AS avg_pr_size,
			%s AS avg_merge_time,
			MIN(created_at) AS date_min,
			MAX(created_at) AS date_max,
			COUNT(DISTINCT repo) AS unique_repos,
			COUNT(DISTINCT author) AS unique_authors
		FROM pr_data
	`, mergedCountExpr, avgMergeTimeExpr)

	var s schema.SummaryStats
	var avgSize, avgMerge sql.NullFloat64
	var dateMin, dateMax sql.NullString
	err := d.db.QueryRow(query).Scan(
		&s.TotalPRs, &s.MergedPRs, &avgSize, &avgMerge,
		&dateMin, &dateMax, &s.UniqueRepos, &s.UniqueAuthors,
	)
	if err != nil {
		return nil, fmt.Errorf("summary query failed: %w", err)
	}
	s.AvgPRSize = floatOrNil(avgSize)
	s.AvgMergeTime = floatOrNil(avgMerge)
	s.DateMin = timeOrNil(dateMin)
	s.DateMax = timeOrNil(dateMax)
	return &s, nil
}

// AuthorStats computes the per-author rollup, busiest authors first.
// Review averages are nil when the relation predates the reviews column.
func (d *Dataset) AuthorStats() ([]schema.AuthorStats, error) {
	reviewsExpr := "NULL"
	if d.caps.Has("reviews") {
		reviewsExpr = "ROUND(AVG(reviews), 1)"
	}
	query := fmt.Sprintf(`
		SELECT
			author,
			COUNT(*) AS pr_count,
			%s AS merged_count,
			ROUND(AVG(pr_size), 1) AS avg_pr_size,
			%s AS avg_merge_time,
			%s AS avg_reviews,
			%s AS merge_rate
		FROM pr_data
		GROUP BY author
		ORDER BY pr_count DESC, author ASC
	`, mergedCountExpr, avgMergeTimeExpr, reviewsExpr, mergeRateExpr)

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("author stats query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.AuthorStats
	for rows.Next() {
		var a schema.AuthorStats
		var avgSize, avgMerge, avgReviews, rate sql.NullFloat64
		if err := rows.Scan(&a.Author, &a.PRCount, &a.MergedCount, &avgSize, &avgMerge, &avgReviews, &rate); err != nil {
			return nil, fmt.Errorf("author stats scan failed: %w", err)
		}
		a.AvgPRSize = floatOrNil(avgSize)
		a.AvgMergeTime = floatOrNil(avgMerge)
		a.AvgReviews = floatOrNil(avgReviews)
		a.MergeRate = floatOrNil(rate)
		out = append(out, a)
	}
	return out, rows.Err()
}

// RepoStats computes the per-repository rollup, busiest repositories
// first. Repositories with fewer than minPRs rows are dropped when minPRs
// is positive.
func (d *Dataset) RepoStats(minPRs int) ([]schema.RepoStats, error) {
	query := fmt.Sprintf(`
		SELECT
			repo,
			COUNT(*) AS pr_count,
			%s AS merged_count,
			COUNT(DISTINCT author) AS contributor_count,
			ROUND(AVG(pr_size), 1) AS avg_pr_size,
			%s AS avg_merge_time,
			%s AS merge_rate
		FROM pr_data
		GROUP BY repo
		HAVING COUNT(*) >= ?
		ORDER BY pr_count DESC, repo ASC
	`, mergedCountExpr, avgMergeTimeExpr, mergeRateExpr)

	threshold := max(minPRs, 0)
	rows, err := d.db.Query(query, threshold)
	if err != nil {
		return nil, fmt.Errorf("repo stats query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.RepoStats
	for rows.Next() {
		var r schema.RepoStats
		var avgSize, avgMerge, rate sql.NullFloat64
		if err := rows.Scan(&r.Repo, &r.PRCount, &r.MergedCount, &r.ContributorCount, &avgSize, &avgMerge, &rate); err != nil {
			return nil, fmt.Errorf("repo stats scan failed: %w", err)
		}
		r.AvgPRSize = floatOrNil(avgSize)
		r.AvgMergeTime = floatOrNil(avgMerge)
		r.MergeRate = floatOrNil(rate)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SizeDistribution computes the fixed three-bucket size rollup. Every
// bucket is returned in SizeBucketOrder, zero-filled when empty.
func (d *Dataset) SizeDistribution() ([]schema.SizeBucketStats, error) {
	query := fmt.Sprintf(`
		SELECT
			CASE
				WHEN pr_size <= %d THEN '%s'
				WHEN pr_size <= %d THEN '%s'
				ELSE '%s'
			END AS size_category,
			COUNT(*) AS pr_count,
			%s AS avg_merge_time
		FROM pr_data
		GROUP BY size_category
	`, schema.SmallBucketMax, schema.SmallBucket,
		schema.MediumBucketMax, schema.MediumBucket,
		schema.LargeBucket, avgMergeTimeExpr)

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("size distribution query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byBucket := make(map[schema.SizeBucket]schema.SizeBucketStats)
	for rows.Next() {
		var bucket string
		var s schema.SizeBucketStats
		var avgMerge sql.NullFloat64
		if err := rows.Scan(&bucket, &s.PRCount, &avgMerge); err != nil {
			return nil, fmt.Errorf("size distribution scan failed: %w", err)
		}
		s.Bucket = schema.SizeBucket(bucket)
		s.AvgMergeTime = floatOrNil(avgMerge)
		byBucket[s.Bucket] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]schema.SizeBucketStats, 0, len(schema.SizeBucketOrder))
	for _, bucket := range schema.SizeBucketOrder {
		s, ok := byBucket[bucket]
		if !ok {
			s = schema.SizeBucketStats{Bucket: bucket}
		}
		out = append(out, s)
	}
	return out, nil
}

// WeeklyStats computes the calendar-week rollup for the most recent six
// weeks, returned oldest first so trend annotation can walk consecutive
// pairs. Rows without a creation timestamp are excluded.
func (d *Dataset) WeeklyStats() ([]schema.PeriodStats, error) {
	query := fmt.Sprintf(`
		SELECT * FROM (
			SELECT
				%s AS period,
				COUNT(*) AS pr_count,
				%s AS merged_count,
				COUNT(DISTINCT author) AS active_authors,
				ROUND(AVG(pr_size), 1) AS avg_pr_size,
				%s AS avg_merge_time,
				%s AS merge_rate,
				ROUND(COUNT(*) * 1.0 / COUNT(DISTINCT author), 1) AS prs_per_dev
			FROM pr_data
			WHERE created_at IS NOT NULL
			GROUP BY period
			ORDER BY period DESC
			LIMIT %d
		) ORDER BY period ASC
	`, weekStartExpr, mergedCountExpr, avgMergeTimeExpr, mergeRateExpr, recentPeriods)

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("weekly stats query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.PeriodStats
	for rows.Next() {
		var p schema.PeriodStats
		var avgSize, avgMerge, rate, perDev sql.NullFloat64
		if err := rows.Scan(&p.Period, &p.PRCount, &p.MergedCount, &p.ActiveAuthors, &avgSize, &avgMerge, &rate, &perDev); err != nil {
			return nil, fmt.Errorf("weekly stats scan failed: %w", err)
		}
		p.AvgPRSize = floatOrNil(avgSize)
		p.AvgMergeTime = floatOrNil(avgMerge)
		p.MergeRate = floatOrNil(rate)
		p.PRsPerDev = floatOrNil(perDev)
		out = append(out, p)
	}
	return out, rows.Err()
}

// AuthorWeeklyStats computes the weekly rollup for one author over the
// most recent six weeks, oldest first.
func (d *Dataset) AuthorWeeklyStats(author string) ([]schema.PeriodStats, error) {
	query := fmt.Sprintf(`
		SELECT * FROM (
			SELECT
				%s AS period,
				COUNT(*) AS pr_count,
				%s AS merged_count,
				ROUND(AVG(pr_size), 1) AS avg_pr_size,
				%s AS avg_merge_time,
				%s AS merge_rate
			FROM pr_data
			WHERE author = ? AND created_at IS NOT NULL
			GROUP BY period
			ORDER BY period DESC
			LIMIT %d
		) ORDER BY period ASC
	`, weekStartExpr, mergedCountExpr, avgMergeTimeExpr, mergeRateExpr, recentPeriods)

	rows, err := d.db.Query(query, author)
	if err != nil {
		return nil, fmt.Errorf("author weekly stats query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.PeriodStats
	for rows.Next() {
		var p schema.PeriodStats
		var avgSize, avgMerge, rate sql.NullFloat64
		if err := rows.Scan(&p.Period, &p.PRCount, &p.MergedCount, &avgSize, &avgMerge, &rate); err != nil {
			return nil, fmt.Errorf("author weekly stats scan failed: %w", err)
		}
		p.AvgPRSize = floatOrNil(avgSize)
		p.AvgMergeTime = floatOrNil(avgMerge)
		p.MergeRate = floatOrNil(rate)
		out = append(out, p)
	}
	return out, rows.Err()
}

// MonthlyStats computes the calendar-month rollup, oldest first.
func (d *Dataset) MonthlyStats() ([]schema.PeriodStats, error) {
	query := fmt.Sprintf(`
		SELECT
			%s AS period,
			COUNT(*) AS pr_count,
			%s AS merged_count,
			COUNT(DISTINCT author) AS active_authors,
			ROUND(AVG(pr_size), 1) AS avg_pr_size
		FROM pr_data
		WHERE created_at IS NOT NULL
		GROUP BY period
		ORDER BY period ASC
	`, monthStartExpr, mergedCountExpr)

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("monthly stats query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.PeriodStats
	for rows.Next() {
		var p schema.PeriodStats
		var avgSize sql.NullFloat64
		if err := rows.Scan(&p.Period, &p.PRCount, &p.MergedCount, &p.ActiveAuthors, &avgSize); err != nil {
			return nil, fmt.Errorf("monthly stats scan failed: %w", err)
		}
		p.AvgPRSize = floatOrNil(avgSize)
		out = append(out, p)
	}
	return out, rows.Err()
}

// TopAuthors returns the limit busiest authors by PR count.
func (d *Dataset) TopAuthors(limit int) ([]schema.TopAuthor, error) {
	rows, err := d.db.Query(`
		SELECT author, COUNT(*) AS pr_count
		FROM pr_data
		GROUP BY author
		ORDER BY pr_count DESC, author ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top authors query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.TopAuthor
	for rows.Next() {
		var a schema.TopAuthor
		if err := rows.Scan(&a.Author, &a.PRCount); err != nil {
			return nil, fmt.Errorf("top authors scan failed: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ContributorStats computes the per-author contributor rollup over the
// loaded relation, typically one loaded with a repository filter.
// Reviews-given joins against the exploded reviewer table and self-merge
// rate divides by the merged count; both degrade to zero/nil when the
// relation lacks the source columns.
func (d *Dataset) ContributorStats() ([]schema.ContributorStats, error) {
	selfExpr := "NULL"
	if d.caps.Has("self_merged") {
		selfExpr = `ROUND(100.0 * SUM(CASE WHEN self_merged = 1 THEN 1 ELSE 0 END) /
			NULLIF(SUM(CASE WHEN state = 'merged' THEN 1 ELSE 0 END), 0), 1)`
	}
	reviewsJoin := ""
	reviewsGivenExpr := "0"
	if d.caps.Has("reviewers") {
		reviewsJoin = `LEFT JOIN (
			SELECT reviewer, COUNT(*) AS reviews_given
			FROM pr_reviewers
			GROUP BY reviewer
		) r ON r.reviewer = a.author`
		reviewsGivenExpr = "COALESCE(r.reviews_given, 0)"
	}

	query := fmt.Sprintf(`
		SELECT
			a.author,
			a.pr_count,
			a.merged_count,
			a.merge_rate,
			a.avg_pr_size,
			a.avg_merge_time,
			%s AS reviews_given,
			a.self_merge_rate
		FROM (
			SELECT
				author,
				COUNT(*) AS pr_count,
				%s AS merged_count,
				%s AS merge_rate,
				ROUND(AVG(pr_size), 1) AS avg_pr_size,
				%s AS avg_merge_time,
				%s AS self_merge_rate
			FROM pr_data
			GROUP BY author
		) a
		%s
		ORDER BY a.pr_count DESC, a.author ASC
	`, reviewsGivenExpr, mergedCountExpr, mergeRateExpr, avgMergeTimeExpr, selfExpr, reviewsJoin)

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("contributor stats query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.ContributorStats
	for rows.Next() {
		var c schema.ContributorStats
		var rate, avgSize, avgMerge, selfRate sql.NullFloat64
		if err := rows.Scan(&c.Author, &c.PRCount, &c.MergedCount, &rate, &avgSize, &avgMerge, &c.ReviewsGiven, &selfRate); err != nil {
			return nil, fmt.Errorf("contributor stats scan failed: %w", err)
		}
		c.MergeRate = floatOrNil(rate)
		c.AvgPRSize = floatOrNil(avgSize)
		c.AvgMergeTime = floatOrNil(avgMerge)
		c.SelfMergeRate = floatOrNil(selfRate)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Baseline computes the organization-wide comparison baseline.
func (d *Dataset) Baseline() (*schema.BaselineStats, error) {
	reviewsExpr := "NULL"
	if d.caps.Has("reviews") {
		reviewsExpr = "ROUND(AVG(reviews), 1)"
	}
	query := fmt.Sprintf(`
		SELECT
			%s AS avg_merge_rate,
			%s AS avg_merge_time,
			ROUND(AVG(pr_size), 1) AS avg_pr_size,
			%s AS avg_reviews
		FROM pr_data
	`, mergeRateExpr, avgMergeTimeExpr, reviewsExpr)

	var b schema.BaselineStats
	var rate, avgMerge, avgSize, avgReviews sql.NullFloat64
	if err := d.db.QueryRow(query).Scan(&rate, &avgMerge, &avgSize, &avgReviews); err != nil {
		return nil, fmt.Errorf("baseline query failed: %w", err)
	}
	b.AvgMergeRate = floatOrNil(rate)
	b.AvgMergeTime = floatOrNil(avgMerge)
	b.AvgPRSize = floatOrNil(avgSize)
	b.AvgReviews = floatOrNil(avgReviews)
	return &b, nil
}
