package table

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// TIME NORMALIZER — Heterogeneous time encodings → fractional hours
// ============================================================================
// Priority order:
//   (a) numbers                      returned unchanged (already hours)
//   (b) wall-clock values            h + m/60 + s/3600
//   (c) durations                    total seconds / 3600
//   (d) "H:M:S" or "H:M" strings     parsed positionally
//   (e) numeric strings              parsed as float
// Anything else is absent. Absence is never an error: aggregates skip it.
// ============================================================================

// Converter turns a cell into a number, reporting absence with false.
type Converter func(v any) (float64, bool)

// clock is satisfied by time.Time and TimeOfDay.
type clock interface {
	Clock() (hour, min, sec int)
}

var clockPattern = regexp.MustCompile(`^(\d{1,3}):(\d{1,2})(?::(\d{1,2}(?:\.\d+)?))?$`)

// ToHours converts a cell to fractional hours.
func ToHours(v any) (float64, bool) {
	if f, ok := number(v); ok {
		return f, true
	}
	switch t := v.(type) {
	case time.Duration:
		return t.Hours(), true
	case clock:
		h, m, s := t.Clock()
		return float64(h) + float64(m)/60 + float64(s)/3600, true
	case string:
		s := strings.TrimSpace(t)
		if h, ok := parseClockHours(s); ok {
			return h, true
		}
		return parseNumber(s)
	}
	return 0, false
}

// ToFloat converts numbers and numeric strings. Time values are absent.
func ToFloat(v any) (float64, bool) {
	if f, ok := number(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		return parseNumber(strings.TrimSpace(s))
	}
	return 0, false
}

func parseClockHours(s string) (float64, bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	var sec float64
	if m[3] != "" {
		sec, _ = strconv.ParseFloat(m[3], 64)
	}
	return float64(h) + float64(min)/60 + sec/3600, true
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// number reports Go numeric kinds. NaN and ±Inf count as missing.
// time.Duration is a distinct type and is not matched here.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsNull reports a missing cell: nil, NaN, or an empty / null-marker string.
func IsNull(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	case string:
		switch strings.TrimSpace(t) {
		case "", "null", "NULL", "N/A", "n/a", "NaN", "nan", "None":
			return true
		}
	}
	return false
}

// Stringify renders a cell for grouping keys and labels.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

// FormatStation renders a station cell as an id. Whole numbers become
// STATION_NN; anything else keeps its text.
func FormatStation(v any) string {
	if f, ok := number(v); ok && f == math.Trunc(f) {
		return fmt.Sprintf("STATION_%02d", int64(f))
	}
	return Stringify(v)
}

// ============================================================================
// TIME OF DAY
// ============================================================================

// TimeOfDay is a wall-clock time without a date ("08:30:00").
type TimeOfDay struct {
	Hour, Minute, Second int
}

// Clock mirrors time.Time.Clock.
func (t TimeOfDay) Clock() (hour, min, sec int) { return t.Hour, t.Minute, t.Second }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// ParseTimeOfDay accepts "H:M" and "H:M:S" with hours below 24.
func ParseTimeOfDay(s string) (TimeOfDay, bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return TimeOfDay{}, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	var sec int
	if m[3] != "" {
		f, _ := strconv.ParseFloat(m[3], 64)
		sec = int(f)
	}
	if h > 23 || min > 59 || sec > 59 {
		return TimeOfDay{}, false
	}
	return TimeOfDay{Hour: h, Minute: min, Second: sec}, true
}
