package table

import "math"

// ============================================================================
// AGGREGATION — Mean / sum over non-missing values
// ============================================================================
// Missing and unconvertible cells are excluded, never counted as zero.
// ============================================================================

// NullFloat is one converted cell. Valid is false for missing values.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Column converts every row of a column, one output per input row.
func Column(v View, column string, conv Converter) []NullFloat {
	out := make([]NullFloat, v.Len())
	for i := range out {
		val := v.Value(i, column)
		if IsNull(val) {
			continue
		}
		if f, ok := conv(val); ok {
			out[i] = NullFloat{Float64: f, Valid: true}
		}
	}
	return out
}

// HoursColumn is Column with the Time Normalizer.
func HoursColumn(v View, column string) []NullFloat {
	return Column(v, column, ToHours)
}

// Sum adds the convertible values of a column. ok is false when none exist.
func Sum(v View, column string, conv Converter) (total float64, ok bool) {
	for _, f := range Column(v, column, conv) {
		if f.Valid {
			total += f.Float64
			ok = true
		}
	}
	return total, ok
}

// Mean averages the convertible values of a column. ok is false when none exist.
func Mean(v View, column string, conv Converter) (float64, bool) {
	var total float64
	n := 0
	for _, f := range Column(v, column, conv) {
		if f.Valid {
			total += f.Float64
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return total / float64(n), true
}

// CountPresent counts non-missing cells of a column.
func CountPresent(v View, column string) int {
	n := 0
	for i := 0; i < v.Len(); i++ {
		if !IsNull(v.Value(i, column)) {
			n++
		}
	}
	return n
}

// MostFrequent returns the most common non-missing value of a column.
// Ties go to the value seen first.
func MostFrequent(v View, column string) (any, bool) {
	counts := make(map[string]int)
	first := make(map[string]any)
	var order []string
	for i := 0; i < v.Len(); i++ {
		val := v.Value(i, column)
		if IsNull(val) {
			continue
		}
		key := Stringify(val)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
			first[key] = val
		}
		counts[key]++
	}
	if len(order) == 0 {
		return nil, false
	}
	best := order[0]
	for _, k := range order[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return first[best], true
}

// RoundTo1 rounds to 1 decimal place (rates, ratios, times).
func RoundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

// RoundTo2 rounds to 2 decimal places (currency, mass).
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Finite reports whether every value is a usable number.
func Finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
