package outwriter

import (
	"fmt"
	"io"
	"os"

	"github.com/prpulse/prpulse/internal/contract"
	"github.com/prpulse/prpulse/schema"
)

// writeWithFile handles the common pattern of opening a file, writing to it,
// and cleaning up. It accepts a writer function that takes an io.Writer and
// returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// truncateName shortens a name to maxWidth runes with an ellipsis.
func truncateName(name string, maxWidth int) string {
	if maxWidth <= 1 {
		return name
	}
	runes := []rune(name)
	if len(runes) <= maxWidth {
		return name
	}
	return string(runes[:maxWidth-1]) + "…"
}

// newestFirst returns the period rows in reverse order for display. Trend
// annotation walks periods oldest to newest; readers scan newest to oldest.
func newestFirst(periods []schema.PeriodStats) []schema.PeriodStats {
	out := make([]schema.PeriodStats, len(periods))
	for i, p := range periods {
		out[len(periods)-1-i] = p
	}
	return out
}

// sourceNote describes where a report's data came from.
func sourceNote(source string, rowCount int) string {
	if source == "legacy" {
		return fmt.Sprintf("%d pull requests (legacy snapshot)", rowCount)
	}
	return fmt.Sprintf("%d pull requests", rowCount)
}

// windowLabel renders the report scope line.
func windowLabel(org, repo string, daysBack int) string {
	scope := org
	if repo != "" {
		scope = fmt.Sprintf("%s/%s", org, repo)
	}
	if daysBack > 0 {
		return fmt.Sprintf("%s (last %d days)", scope, daysBack)
	}
	return scope
}
