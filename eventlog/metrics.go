package eventlog

import (
	"time"

	"github.com/NotHilal/PLM-Hackaton/table"
)

// Metrics aggregates an event log per activity and per case.
type Metrics struct {
	TotalCases             int                `json:"total_cases"`
	Activities             []string           `json:"activities"` // first-seen order
	VolumeByOperation      map[string]int     `json:"volume_by_operation"`
	AvgDurationByOperation map[string]float64 `json:"avg_duration_by_operation"`
	ReworkRateByOperation  map[string]float64 `json:"rework_rate_by_operation"`
	AvgLeadTimeHours       float64            `json:"avg_lead_time_hours"`
	WIPByOperation         map[string]int     `json:"wip_by_operation"`
}

// ComputeMetrics summarizes events. Lead time runs from a case's earliest
// start to its latest end.
func ComputeMetrics(events []Event) Metrics {
	m := Metrics{
		Activities:             []string{},
		VolumeByOperation:      map[string]int{},
		AvgDurationByOperation: map[string]float64{},
		ReworkRateByOperation:  map[string]float64{},
		WIPByOperation:         map[string]int{},
	}

	type span struct{ start, end time.Time }
	cases := make(map[string]*span)
	var caseOrder []string
	durations := make(map[string]float64)
	reworks := make(map[string]int)

	for _, ev := range events {
		if _, seen := m.VolumeByOperation[ev.Activity]; !seen {
			m.Activities = append(m.Activities, ev.Activity)
		}
		m.VolumeByOperation[ev.Activity]++
		durations[ev.Activity] += ev.DurationHours
		if ev.ReworkFlag {
			reworks[ev.Activity]++
		}

		s, ok := cases[ev.CaseID]
		if !ok {
			cases[ev.CaseID] = &span{start: ev.TimestampStart, end: ev.TimestampEnd}
			caseOrder = append(caseOrder, ev.CaseID)
			continue
		}
		if ev.TimestampStart.Before(s.start) {
			s.start = ev.TimestampStart
		}
		if ev.TimestampEnd.After(s.end) {
			s.end = ev.TimestampEnd
		}
	}

	for _, a := range m.Activities {
		n := m.VolumeByOperation[a]
		m.AvgDurationByOperation[a] = table.RoundTo2(durations[a] / float64(n))
		m.ReworkRateByOperation[a] = table.RoundTo1(float64(reworks[a]) / float64(n) * 100)
		m.WIPByOperation[a] = n
	}

	m.TotalCases = len(caseOrder)
	if m.TotalCases > 0 {
		var total float64
		for _, id := range caseOrder {
			total += cases[id].end.Sub(cases[id].start).Hours()
		}
		m.AvgLeadTimeHours = table.RoundTo2(total / float64(m.TotalCases))
	}
	return m
}
