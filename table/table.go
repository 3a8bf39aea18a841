package table

import (
	"fmt"
	"strings"
)

// ============================================================================
// SOURCE TABLE — Immutable rows loaded from ERP / MES / PLM extracts
// ============================================================================
// A Table is built once by a loader and never mutated afterwards. A new
// upload produces a new Table that replaces the old one wholesale.
//
// Cell values are plain Go values:
//   nil                  missing
//   float64 / int kinds  numbers
//   string               text
//   time.Time            dates and timestamps
//   TimeOfDay            wall-clock times without a date
//   time.Duration        elapsed durations
// ============================================================================

// Category names one of the three source systems.
type Category string

const (
	ERP Category = "erp"
	MES Category = "mes"
	PLM Category = "plm"
)

// Categories lists every category in load order.
var Categories = []Category{ERP, MES, PLM}

// ParseCategory accepts "erp", "MES", "Plm", ...
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case ERP, MES, PLM:
		return c, nil
	}
	return "", fmt.Errorf("unknown table category %q", s)
}

// Table is an ordered collection of rows keyed by column name.
type Table struct {
	name    string
	columns []string
	rows    [][]any
	index   map[string]int
}

// New builds a Table. Header and row slices are copied so later changes by
// the caller are not observed. Short rows are padded with nil.
func New(name string, columns []string, rows [][]any) *Table {
	t := &Table{
		name:    name,
		columns: append([]string(nil), columns...),
		rows:    make([][]any, len(rows)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range t.columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
	for i, r := range rows {
		row := make([]any, len(t.columns))
		copy(row, r)
		t.rows[i] = row
	}
	return t
}

// Name is the source the table was loaded from (file name, object key).
func (t *Table) Name() string { return t.name }

// Len returns the row count.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Columns returns the column names in source order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.columns...)
}

// HasColumn reports an exact column match.
func (t *Table) HasColumn(column string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[column]
	return ok
}

// Value returns the cell at row i, or nil when the row or column is unknown.
func (t *Table) Value(i int, column string) any {
	if t == nil || i < 0 || i >= len(t.rows) {
		return nil
	}
	j, ok := t.index[column]
	if !ok {
		return nil
	}
	return t.rows[i][j]
}

// Row returns row i as a column → value map.
func (t *Table) Row(i int) map[string]any {
	if t == nil || i < 0 || i >= len(t.rows) {
		return nil
	}
	out := make(map[string]any, len(t.columns))
	for j, c := range t.columns {
		out[c] = t.rows[i][j]
	}
	return out
}
