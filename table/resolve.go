package table

import "strings"

// ============================================================================
// COLUMN RESOLVER — Tolerates schema drift across uploads
// ============================================================================
// Callers pass the aliases they know for a column (localized and anglicized
// spellings, most specific first). Resolution order:
//   1. exact match, in candidate order
//   2. case-insensitive match, in candidate order
//   3. (ResolveNumeric only) the nth numeric column by position
// Absence is a normal outcome that drives fallback logic, never an error.
// ============================================================================

// Resolve returns the first column of v matching one of the candidates.
func Resolve(v View, candidates ...string) (string, bool) {
	if v == nil {
		return "", false
	}
	columns := v.Columns()
	exact := make(map[string]bool, len(columns))
	for _, c := range columns {
		exact[c] = true
	}
	for _, c := range candidates {
		if exact[c] {
			return c, true
		}
	}

	// First column wins when two differ only by case.
	lower := make(map[string]string, len(columns))
	for _, c := range columns {
		key := strings.ToLower(c)
		if _, seen := lower[key]; !seen {
			lower[key] = c
		}
	}
	for _, c := range candidates {
		if col, ok := lower[strings.ToLower(c)]; ok {
			return col, true
		}
	}
	return "", false
}

// ResolveNumeric resolves like Resolve, then falls back to the nth (0-based)
// numeric column of v.
func ResolveNumeric(v View, nth int, candidates ...string) (string, bool) {
	if col, ok := Resolve(v, candidates...); ok {
		return col, true
	}
	numeric := NumericColumns(v)
	if nth >= 0 && nth < len(numeric) {
		return numeric[nth], true
	}
	return "", false
}

// NumericColumns lists, in source order, the columns whose non-missing values
// are all numbers. A column with no values at all is not numeric.
func NumericColumns(v View) []string {
	if v == nil {
		return nil
	}
	var out []string
	for _, col := range v.Columns() {
		seen := false
		numeric := true
		for i := 0; i < v.Len(); i++ {
			val := v.Value(i, col)
			if IsNull(val) {
				continue
			}
			seen = true
			if _, ok := number(val); !ok {
				numeric = false
				break
			}
		}
		if seen && numeric {
			out = append(out, col)
		}
	}
	return out
}
