package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/prpulse/prpulse/schema"
)

// Merge health thresholds, in percent.
const (
	HealthyMergeRate = 90.0
	WarningMergeRate = 75.0
)

// Merge latency thresholds, in hours.
const (
	FastMergeHours = 24.0
	SlowMergeHours = 72.0
)

// Color variables for console output.
var (
	GoodColor    = color.New(color.FgGreen)             // healthy signal
	CautionColor = color.New(color.FgYellow)            // needs attention
	BadColor     = color.New(color.FgRed, color.Bold)   // unhealthy signal
	AccentColor  = color.New(color.FgCyan)              // informational accent
	MutedColor   = color.New(color.FgWhite, color.Faint) // de-emphasized
)

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogInfo logs an informational message to stderr, keeping stdout clean
// for report output.
func LogInfo(msg string) {
	_, _ = fmt.Fprintf(os.Stderr, "Info %s\n", msg)
}

// SanitizeOrg converts an organization name into a filesystem-safe slug:
// lowercase, with spaces and underscores replaced by dashes. Used in
// legacy snapshot filenames.
func SanitizeOrg(org string) string {
	slug := strings.ToLower(org)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")
	return slug
}

// SelectOutputFile returns the appropriate file handle for output, based on
// the provided file path. An empty path means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// GetRunLogDBFilePath returns the path to the SQLite DB file for run tracking.
func GetRunLogDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".prpulse_runs.db"
	}
	return filepath.Join(homeDir, ".prpulse_runs.db")
}

// FormatRate renders a nullable percentage with one decimal, or a dash.
func FormatRate(rate *float64) string {
	if rate == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *rate)
}

// FormatHours renders a nullable hour count with one decimal, or a dash.
func FormatHours(hours *float64) string {
	if hours == nil {
		return "-"
	}
	return fmt.Sprintf("%.1fh", *hours)
}

// FormatFloat renders a nullable float with one decimal, or a dash.
func FormatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

// ColorRate renders a merge rate with health coloring: green at or above
// 90%, yellow at or above 75%, red below.
func ColorRate(rate *float64) string {
	text := FormatRate(rate)
	if rate == nil {
		return MutedColor.Sprint(text)
	}
	switch {
	case *rate >= HealthyMergeRate:
		return GoodColor.Sprint(text)
	case *rate >= WarningMergeRate:
		return CautionColor.Sprint(text)
	default:
		return BadColor.Sprint(text)
	}
}

// ColorHours renders a merge latency with health coloring: green within a
// day, yellow within three days, red beyond.
func ColorHours(hours *float64) string {
	text := FormatHours(hours)
	if hours == nil {
		return MutedColor.Sprint(text)
	}
	switch {
	case *hours <= FastMergeHours:
		return GoodColor.Sprint(text)
	case *hours <= SlowMergeHours:
		return CautionColor.Sprint(text)
	default:
		return BadColor.Sprint(text)
	}
}

// TrendGlyph returns the plain glyph for a trend tag.
func TrendGlyph(tag schema.TrendTag) string {
	switch tag {
	case schema.TrendUp:
		return "↑"
	case schema.TrendDown:
		return "↓"
	case schema.TrendStable:
		return "→"
	case schema.TrendUpQualDown:
		return "↑!"
	case schema.TrendDownQualUp:
		return "↓+"
	case schema.TrendMixed:
		return "~"
	default:
		return ""
	}
}

// ColorTrendGlyph returns the colored glyph for a trend tag.
func ColorTrendGlyph(tag schema.TrendTag) string {
	glyph := TrendGlyph(tag)
	switch tag {
	case schema.TrendUp, schema.TrendDownQualUp:
		return GoodColor.Sprint(glyph)
	case schema.TrendDown, schema.TrendUpQualDown:
		return BadColor.Sprint(glyph)
	case schema.TrendStable:
		return AccentColor.Sprint(glyph)
	case schema.TrendMixed:
		return CautionColor.Sprint(glyph)
	default:
		return glyph
	}
}
