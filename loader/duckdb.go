package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/NotHilal/PLM-Hackaton/table"
)

// DuckDBReader reads spreadsheet and columnar extracts (.xlsx, .parquet)
// through an in-memory DuckDB database. DuckDB types map onto table cells:
//
//	TIME               → table.TimeOfDay
//	INTERVAL           → time.Duration
//	DATE / TIMESTAMP   → time.Time (UTC)
//	DECIMAL / HUGEINT  → float64
type DuckDBReader struct {
	log *slog.Logger
	db  *sql.DB

	mu          sync.Mutex
	excelLoaded bool
}

func NewDuckDBReader(log *slog.Logger) (*DuckDBReader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &DuckDBReader{log: log, db: db}, nil
}

func (r *DuckDBReader) Close() error {
	return r.db.Close()
}

// Read materializes data into a temporary file and scans it with the table
// function matching its extension.
func (r *DuckDBReader) Read(ctx context.Context, name string, data []byte) (*table.Table, error) {
	ext := strings.ToLower(filepath.Ext(name))

	var fn string
	switch ext {
	case ".xlsx":
		if err := r.loadExcel(ctx); err != nil {
			return nil, err
		}
		fn = "read_xlsx(%s, header = true)"
	case ".parquet":
		fn = "read_parquet(%s)"
	default:
		return nil, fmt.Errorf("%s: unsupported extension %q: %w", name, ext, ErrMalformed)
	}

	f, err := os.CreateTemp("", "plm-extract-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	query := "SELECT * FROM " + fmt.Sprintf(fn, quoteLiteral(f.Name()))
	r.log.Debug("loader: reading extract with duckdb", "name", name, "query", query)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", name, err, ErrMalformed)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get columns: %v: %w", name, err, ErrMalformed)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get column types: %v: %w", name, err, ErrMalformed)
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%s: failed to scan row %d: %v: %w", name, len(out)+1, err, ErrMalformed)
		}
		for i, v := range values {
			values[i] = convertDuckValue(types[i].DatabaseTypeName(), v)
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", name, err, ErrMalformed)
	}

	return table.New(name, columns, out), nil
}

func (r *DuckDBReader) loadExcel(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.excelLoaded {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, "INSTALL excel; LOAD excel;"); err != nil {
		return fmt.Errorf("failed to load duckdb excel extension: %w", err)
	}
	r.excelLoaded = true
	return nil
}

// convertDuckValue maps a scanned DuckDB value onto a table cell.
func convertDuckValue(dbType string, v any) any {
	if v == nil {
		return nil
	}
	switch {
	case dbType == "TIME":
		if t, ok := v.(time.Time); ok {
			return table.TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
		}
	case dbType == "INTERVAL":
		if iv, ok := v.(duckdb.Interval); ok {
			return intervalDuration(iv)
		}
	case dbType == "DATE" || strings.HasPrefix(dbType, "TIMESTAMP"):
		if t, ok := v.(time.Time); ok {
			return t.UTC()
		}
	}

	switch t := v.(type) {
	case duckdb.Decimal:
		return t.Float64()
	case *big.Int:
		f, _ := new(big.Float).SetInt(t).Float64()
		return f
	case []byte:
		return string(t)
	case string:
		if table.IsNull(t) {
			return nil
		}
		return strings.TrimSpace(t)
	}
	return v
}

// intervalDuration counts a month as 30 days, like DuckDB's epoch().
func intervalDuration(iv duckdb.Interval) time.Duration {
	days := int64(iv.Months)*30 + int64(iv.Days)
	return time.Duration(days)*24*time.Hour + time.Duration(iv.Micros)*time.Microsecond
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
