package analytics

import (
	"time"

	"github.com/NotHilal/PLM-Hackaton/table"
)

// Health statuses. Degraded means at least one category is not loaded or
// at least one KPI section is served from mock results.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

type Health struct {
	Status     string                  `json:"status"`
	Timestamp  time.Time               `json:"timestamp"`
	SnapshotID string                  `json:"snapshot_id"`
	LoadedAt   time.Time               `json:"loaded_at"`
	DataLoaded map[table.Category]bool `json:"data_loaded"`

	// FallbackSections lists the KPI sections served from mock results.
	FallbackSections []string `json:"fallback_sections,omitempty"`
}

// Health reports the active snapshot. The report itself is never cached;
// the fallback sections come from the snapshot's memoized KPIs.
func (p *Provider) Health() Health {
	snap := p.Snapshot()
	h := Health{
		Status:           StatusHealthy,
		Timestamp:        p.cfg.Clock.Now(),
		SnapshotID:       snap.ID,
		LoadedAt:         snap.LoadedAt,
		DataLoaded:       snap.Loaded(),
		FallbackSections: p.kpis(snap).Fallbacks,
	}
	if len(h.FallbackSections) > 0 {
		h.Status = StatusDegraded
	}
	for _, loaded := range h.DataLoaded {
		if !loaded {
			h.Status = StatusDegraded
		}
	}
	return h
}
