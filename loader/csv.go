package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/NotHilal/PLM-Hackaton/schema"
	"github.com/NotHilal/PLM-Hackaton/table"
)

// ============================================================================
// CSV PARSER — Raw CSV bytes → typed table.Table
// ============================================================================
// Columns are typed by schema discovery, then every cell is converted with
// schema.Convert. Comma and semicolon separators are both accepted since
// spreadsheet exports with a French locale use ';'.
// ============================================================================

// ParseCSV parses CSV bytes into a Table. The profile used for typing is
// returned alongside so callers can report it.
func ParseCSV(name string, data []byte) (*table.Table, *schema.Profile, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")) // UTF-8 BOM from Excel

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectSeparator(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%s: empty file: %w", name, ErrMalformed)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to read CSV headers: %v: %w", name, err, ErrMalformed)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	var raw [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%s: row %d: %v: %w", name, len(raw)+1, err, ErrMalformed)
		}
		if isBlankRow(row) {
			continue
		}
		raw = append(raw, row)
	}

	profile, err := schema.Discover(headers, raw, schema.Options{Name: name})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %v: %w", name, err, ErrMalformed)
	}
	kinds := profile.Kinds()

	rows := make([][]any, len(raw))
	for i, r := range raw {
		row := make([]any, len(headers))
		for j := range headers {
			if j < len(r) {
				row[j] = schema.Convert(kinds[j], r[j])
			}
		}
		rows[i] = row
	}

	return table.New(name, headers, rows), profile, nil
}

// detectSeparator picks ';' when the header line has more semicolons than
// commas.
func detectSeparator(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
