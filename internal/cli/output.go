package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/NotHilal/PLM-Hackaton/engine"
)

const (
	formatTable  = "table"
	formatJSON   = "json"
	formatPretty = "pretty"
	formatCSV    = "csv"
)

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatPretty, formatCSV:
		return nil
	}
	return fmt.Errorf("invalid format: %s (want table, json, pretty or csv)", format)
}

// printer renders command results in the selected format.
type printer struct {
	w      io.Writer
	format string
}

func (p *printer) isJSON() bool {
	return p.format == formatJSON || p.format == formatPretty
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func (p *printer) writeJSON(v any) error {
	var out []byte
	var err error

	if p.format == formatPretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(out))
	return err
}

// ============================================================================
// TABLE OUTPUT
// ============================================================================

func (p *printer) newTable(headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(p.w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(headers)
	return table
}

// keyValues prints a two-column table under a title.
func (p *printer) keyValues(title string, rows [][]string) {
	if title != "" {
		fmt.Fprintln(p.w, title)
	}
	table := p.newTable("KPI", "Value")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.AppendBulk(rows)
	table.Render()
}

// ============================================================================
// CSV OUTPUT — Chart series ready for Sheets / Excel
// ============================================================================

// writePointsCSV writes a single series as name,value rows.
func (p *printer) writePointsCSV(label string, points []engine.ChartPoint) error {
	cw := csv.NewWriter(p.w)
	cw.Write([]string{label, "Value"})
	for _, pt := range points {
		cw.Write([]string{pt.Name, fmtNum(pt.Value)})
	}
	cw.Flush()
	return cw.Error()
}

// writeGroupsCSV writes grouped series with one column per series name,
// in the order the names first appear.
func (p *printer) writeGroupsCSV(label string, groups []engine.ChartGroup) error {
	var names []string
	seen := map[string]bool{}
	for _, g := range groups {
		for _, pt := range g.Series {
			if !seen[pt.Name] {
				seen[pt.Name] = true
				names = append(names, pt.Name)
			}
		}
	}

	cw := csv.NewWriter(p.w)
	cw.Write(append([]string{label}, names...))
	for _, g := range groups {
		values := make(map[string]float64, len(g.Series))
		for _, pt := range g.Series {
			values[pt.Name] = pt.Value
		}
		row := []string{g.Name}
		for _, n := range names {
			if v, ok := values[n]; ok {
				row = append(row, fmtNum(v))
			} else {
				row = append(row, "")
			}
		}
		cw.Write(row)
	}
	cw.Flush()
	return cw.Error()
}

// ============================================================================
// HELPERS
// ============================================================================

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → 2 decimals
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func fmtHours(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + " h"
}

func fmtPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + " %"
}

func errUnsupportedFormat(format, command string) error {
	return fmt.Errorf("format %s is not supported by %s", format, command)
}
