package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jonboulle/clockwork"

	"github.com/NotHilal/PLM-Hackaton/table"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic column typing
// ============================================================================
// Inspects raw text cells and decides, per column, which Go type the loader
// should convert them to. No configuration needed: extracts from different
// plants name and format their columns differently.
//
// Classification pipeline per column:
//   1. Drop null markers ("", "null", "N/A", "NaN", ...)
//   2. Sample values → detect kind (bool, date, time, numeric, text)
//      A kind wins when at least 80% of the non-null values match it.
//   3. Kind + cardinality → classify role (dimension, measure, skipped)
// ============================================================================

// Options controls discovery behavior.
type Options struct {
	SampleSize int             // Max rows to inspect (0 = all). Default: 1000
	Name       string          // Extract name (file name, object key)
	Clock      clockwork.Clock // Stamps DiscoveredAt. Default: real clock
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		SampleSize: 1000,
		Clock:      clockwork.NewRealClock(),
	}
}

// kindThreshold is the share of non-null values that must match a kind.
const kindThreshold = 0.8

// Discover profiles the columns of a header + rows matrix.
func Discover(headers []string, rows [][]string, opts ...Options) (*Profile, error) {
	opt := DefaultOptions()
	if len(opts) > 0 {
		opt = opts[0]
		if opt.Clock == nil {
			opt.Clock = clockwork.NewRealClock()
		}
	}

	if len(headers) == 0 {
		return nil, fmt.Errorf("no columns")
	}

	sample := rows
	if opt.SampleSize > 0 && len(sample) > opt.SampleSize {
		sample = sample[:opt.SampleSize]
	}

	profile := &Profile{
		Name:         opt.Name,
		Rows:         len(rows),
		Columns:      make([]Column, len(headers)),
		DiscoveredAt: opt.Clock.Now().UTC().Format(time.RFC3339),
	}
	for i, header := range headers {
		profile.Columns[i] = analyzeColumn(header, i, sample)
	}
	return profile, nil
}

// DiscoverFromCSV reads a CSV document and profiles it.
func DiscoverFromCSV(data []byte, opts ...Options) (*Profile, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}
	return Discover(headers, rows, opts...)
}

// DiscoverTable profiles an already typed table through the text form of its
// cells. Used for sources that arrive typed (xlsx, parquet).
func DiscoverTable(t *table.Table, opts ...Options) (*Profile, error) {
	headers := t.Columns()
	rows := make([][]string, t.Len())
	for i := range rows {
		row := make([]string, len(headers))
		for j, col := range headers {
			row[j] = table.Stringify(t.Value(i, col))
		}
		rows[i] = row
	}
	if len(opts) == 0 {
		opts = []Options{DefaultOptions()}
	}
	if opts[0].Name == "" {
		opts[0].Name = t.Name()
	}
	return Discover(headers, rows, opts...)
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

// analyzeColumn inspects all values in a column and classifies it.
func analyzeColumn(header string, index int, rows [][]string) Column {
	col := Column{
		Name:  header,
		Key:   toSnakeCase(header),
		Index: index,
		Kind:  KindText,
	}

	values := make([]string, 0, len(rows))
	uniqueSet := make(map[string]bool)

	for _, row := range rows {
		if index >= len(row) || IsNullMarker(row[index]) {
			col.NullCount++
			continue
		}
		val := strings.TrimSpace(row[index])
		values = append(values, val)
		uniqueSet[val] = true
	}
	col.UniqueCount = len(uniqueSet)

	if len(values) == 0 {
		col.Role = RoleSkipped
		col.SkipReason = "All values are empty/null"
		return col
	}

	col.SampleValues = collectSamples(uniqueSet, 10)
	col.Kind = detectKind(values)
	col.classifyRole(values, len(rows))

	switch {
	case col.UniqueCount <= 10:
		col.CardinalityHint = "low"
	case col.UniqueCount <= 100:
		col.CardinalityHint = "medium"
	default:
		col.CardinalityHint = "high"
	}
	return col
}

// classifyRole determines dimension vs measure vs skip.
func (col *Column) classifyRole(values []string, totalRows int) {
	switch col.Kind {
	case KindNumeric:
		// Continuous values (times, costs) are always measures, even when
		// every row differs.
		for _, v := range values {
			if strings.ContainsAny(v, ".,") {
				col.Role = RoleMeasure
				return
			}
		}
		if col.UniqueCount == totalRows && totalRows > 10 {
			col.Role = RoleSkipped
			col.SkipReason = "Unique per row — likely an ID column"
			return
		}
		// Few distinct integers → coded dimension (station number, criticality)
		uniqueRatio := float64(col.UniqueCount) / float64(totalRows)
		if col.UniqueCount < 20 && uniqueRatio < 0.3 {
			col.Role = RoleDimension
			return
		}
		col.Role = RoleMeasure

	case KindDate, KindTime, KindBool:
		col.Role = RoleDimension

	default:
		if col.UniqueCount == totalRows && totalRows > 10 {
			col.Role = RoleSkipped
			col.SkipReason = "Unique per row — likely an identifier"
			return
		}
		col.Role = RoleDimension
	}
}

// ============================================================================
// KIND DETECTION
// ============================================================================

// detectKind picks the first kind matched by at least 80% of the values.
func detectKind(values []string) Kind {
	if len(values) == 0 {
		return KindText
	}

	numCount, dateCount, timeCount, boolCount := 0, 0, 0, 0
	for _, v := range values {
		if _, ok := parseNumber(v); ok {
			numCount++
		}
		if _, ok := parseDate(v); ok {
			dateCount++
		}
		if _, ok := table.ParseTimeOfDay(v); ok {
			timeCount++
		}
		if _, ok := parseBool(v); ok {
			boolCount++
		}
	}

	threshold := int(math.Ceil(float64(len(values)) * kindThreshold))

	switch {
	case boolCount >= threshold:
		return KindBool
	case dateCount >= threshold:
		return KindDate
	case timeCount >= threshold:
		return KindTime
	case numCount >= threshold:
		return KindNumeric
	}
	return KindText
}

// Convert types one raw cell for a column of the given kind. Null markers
// become nil. A cell that does not fit the kind is kept as trimmed text so
// the Time Normalizer can still try it.
func Convert(kind Kind, raw string) any {
	if IsNullMarker(raw) {
		return nil
	}
	s := strings.TrimSpace(raw)
	switch kind {
	case KindNumeric:
		if f, ok := parseNumber(s); ok {
			return f
		}
	case KindDate:
		if t, ok := parseDate(s); ok {
			return t
		}
	case KindTime:
		if t, ok := table.ParseTimeOfDay(s); ok {
			return t
		}
	case KindBool:
		if b, ok := parseBool(s); ok {
			return b
		}
	}
	return s
}

// IsNullMarker reports an empty cell or a textual null.
func IsNullMarker(s string) bool {
	return table.IsNull(s)
}

// parseNumber accepts "1234.5", "1,234.5", "12,5" (decimal comma) and
// currency-prefixed amounts.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimPrefix(s, "£")
	s = strings.TrimSuffix(s, "€")
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\u202f' {
			return -1
		}
		return r
	}, s)

	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02-01-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseBool leaves 0/1 to numeric detection: piece counts and flags share
// that encoding.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "oui", "vrai":
		return true, true
	case "false", "no", "non", "faux":
		return false, true
	}
	return false, false
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toSnakeCase converts "Temps Réel" or "tempsReel" → "temps_réel".
func toSnakeCase(s string) string {
	var result strings.Builder
	var prev rune
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			result.WriteRune('_')
		}
		result.WriteRune(r)
		prev = r
	}

	s = strings.ToLower(result.String())
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
