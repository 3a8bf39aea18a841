package store

import (
	"time"

	"github.com/NotHilal/PLM-Hackaton/metrics"
	"github.com/NotHilal/PLM-Hackaton/table"
)

// CategoryResult is the load outcome of one category.
type CategoryResult struct {
	Category table.Category `json:"category"`
	Status   string         `json:"status"` // metrics.Status*
	Source   string         `json:"source,omitempty"`
	Rows     int            `json:"rows"`
	Duration time.Duration  `json:"duration"`
	Err      error          `json:"-"`

	table *table.Table
}

// ErrorText is Err as text, for display.
func (r CategoryResult) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// LoadReport lists what a reload found, in category order.
type LoadReport struct {
	Results []CategoryResult `json:"results"`
}

// Failures returns the categories that existed but could not be loaded.
// Missing categories are not failures.
func (r *LoadReport) Failures() []CategoryResult {
	var out []CategoryResult
	for _, res := range r.Results {
		if res.Status == metrics.StatusMalformed || res.Status == metrics.StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// LoadedCount counts the categories that now hold a table.
func (r *LoadReport) LoadedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == metrics.StatusLoaded {
			n++
		}
	}
	return n
}
