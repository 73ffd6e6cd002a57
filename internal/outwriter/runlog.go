package outwriter

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/prpulse/prpulse/schema"
)

const runTimeFormat = "2006-01-02 15:04:05"

// WriteRunLogStatus prints the run log store status.
func (ow *OutWriter) WriteRunLogStatus(status *schema.RunLogStatus) error {
	w := os.Stdout
	fmt.Fprintf(w, "Run log backend: %s\n", status.Backend)
	if !status.Connected {
		fmt.Fprintf(w, "Run tracking is disabled\n")
		return nil
	}
	if status.DBLocation != "" {
		fmt.Fprintf(w, "Database: %s\n", status.DBLocation)
	}
	fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	fmt.Fprintf(w, "Total rows written: %d\n", status.TotalRows)
	if status.LastRun != nil {
		fmt.Fprintf(w, "Last run: %s\n", status.LastRun.Local().Format(runTimeFormat))
	}
	if status.OldestRun != nil {
		fmt.Fprintf(w, "Oldest run: %s\n", status.OldestRun.Local().Format(runTimeFormat))
	}
	return nil
}

// WriteRuns prints recent ingestion runs, newest first.
func (ow *OutWriter) WriteRuns(runs []schema.RunRecord) error {
	return writeRuns(os.Stdout, runs)
}

func writeRuns(w io.Writer, runs []schema.RunRecord) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded")
		return err
	}

	table := newRightAlignedTable(w, []string{"Run", "Started", "Duration", "Org", "Rows", "Partitions"})
	var data [][]string
	for _, r := range runs {
		duration := "-"
		if r.RunDurationMs != nil {
			duration = (time.Duration(*r.RunDurationMs) * time.Millisecond).String()
		}
		data = append(data, []string{
			strconv.FormatInt(r.RunID, 10),
			r.StartTime.Local().Format(runTimeFormat),
			duration,
			r.Org,
			strconv.FormatInt(int64(r.RowsWritten), 10),
			strconv.FormatInt(int64(r.PartitionsWritten), 10),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
