package eventlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ExportHeader is the column order of Export.
var ExportHeader = []string{
	"case_id", "activity", "operation", "timestamp_start", "timestamp_end",
	"station_id", "result", "rework_flag", "duration_hours", "issue_description",
}

const exportTimeLayout = "2006-01-02 15:04:05"

// Export writes events as CSV for process-mining tools.
func Export(w io.Writer, events []Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, ev := range events {
		record := []string{
			ev.CaseID,
			ev.Activity,
			ev.Operation,
			ev.TimestampStart.Format(exportTimeLayout),
			ev.TimestampEnd.Format(exportTimeLayout),
			ev.StationID,
			ev.Result,
			exportBool(ev.ReworkFlag),
			strconv.FormatFloat(ev.DurationHours, 'f', -1, 64),
			ev.IssueDescription,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write event %s: %w", ev.CaseID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush event log: %w", err)
	}
	return nil
}

// exportBool matches the True/False spelling of pandas-based tools.
func exportBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
