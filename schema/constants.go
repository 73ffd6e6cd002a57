package schema

// Custom string types for type safety.
type (
	// PRState represents the lifecycle state of a pull request.
	PRState string

	// TrendTag represents the directional classification of a period
	// compared to its immediate predecessor.
	TrendTag string

	// SizeBucket represents a pull request size category.
	SizeBucket string

	// OutputMode represents the format of report output.
	OutputMode string

	// DatabaseBackend represents the database backend for run tracking.
	DatabaseBackend string
)

// All pull request states supported.
const (
	OpenState   PRState = "open"
	ClosedState PRState = "closed"
	MergedState PRState = "merged"
)

// All trend tags supported. NoTrend is assigned to the first period in a
// sequence, which has no predecessor to compare against.
const (
	NoTrend         TrendTag = ""
	TrendUp         TrendTag = "up"
	TrendDown       TrendTag = "down"
	TrendStable     TrendTag = "stable"
	TrendUpQualDown TrendTag = "up-quality-down"
	TrendDownQualUp TrendTag = "down-quality-up"
	TrendMixed      TrendTag = "mixed"
)

// All size buckets supported, boundaries measured in total changed lines.
const (
	SmallBucket  SizeBucket = "Small (<50)"
	MediumBucket SizeBucket = "Medium (50-200)"
	LargeBucket  SizeBucket = "Large (>200)"
)

// Size bucket boundaries, inclusive upper bounds: 50 lines is Small, 51
// and 200 are Medium, 201 is Large.
const (
	SmallBucketMax  = 50
	MediumBucketMax = 200
)

// All output modes supported.
const (
	TerminalOut OutputMode = "terminal" // default
	MarkdownOut OutputMode = "markdown"
)

// All run log backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// SizeBucketOrder is the fixed presentation order for size buckets. Reports
// render every bucket in this order even when a bucket holds zero rows.
var SizeBucketOrder = []SizeBucket{SmallBucket, MediumBucket, LargeBucket}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TerminalOut: {},
	MarkdownOut: {},
}

// ValidDatabaseBackends lists all valid run log backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
