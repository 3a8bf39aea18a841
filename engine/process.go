package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/NotHilal/PLM-Hackaton/table"
)

// ============================================================================
// PROCESS MINING — WIP, lead/cycle time, rework, bottlenecks
// ============================================================================
// All times are hours after the Time Normalizer. Rework is measured, most
// precise method first:
//   variance  rows with actual and planned time; rework when
//             (actual − planned) / planned > tolerance
//   incident  share of rows with an industrial incident
//   default   fixed constant
// ============================================================================

// Fallback constants used when a column cannot be read.
const (
	fallbackLeadTime   = 5.5
	fallbackCycleTime  = 22.5
	fallbackReworkRate = 8.5
	fallbackThroughput = 17.0
	fallbackBottleneck = "Assemblage"

	fallbackOpCycleTime  = 22.0
	fallbackOpActualTime = 25.0
	fallbackOpThroughput = 15.0
)

// mesColumns are the resolved MES columns. Empty means absent.
type mesColumns struct {
	actual, planned, pieces, incident, activity, station string
}

func resolveMES(v table.View) mesColumns {
	var cols mesColumns
	cols.actual, _ = table.Resolve(v, colActualTime...)
	cols.planned, _ = table.Resolve(v, colPlannedTime...)
	cols.pieces, _ = table.Resolve(v, colPieces...)
	cols.incident, _ = table.Resolve(v, colIncident...)
	cols.activity, _ = table.Resolve(v, colActivity...)
	cols.station, _ = table.Resolve(v, colStation...)
	return cols
}

// ProcessMiningKPIs computes the headline process-mining indicators.
func (c *Calculator) ProcessMiningKPIs() ProcessMiningKPIs {
	return guard(c, SectionProcessMining, c.mockProcessMiningKPIs, func() (ProcessMiningKPIs, error) {
		if c.mes == nil {
			return ProcessMiningKPIs{}, errMissingTable
		}
		v := c.mes
		cols := resolveMES(v)
		p := c.cfg.Policy

		rework := measureRework(v, cols, p.Rework, fallbackReworkRate)
		k := ProcessMiningKPIs{
			TotalWIP:            v.Len(),
			TotalCases:          v.Len(),
			AvgLeadTime:         table.RoundTo1(meanOr(v, cols.actual, table.ToHours, fallbackLeadTime)),
			AvgCycleTime:        table.RoundTo1(meanOr(v, cols.planned, table.ToHours, fallbackCycleTime)),
			ReworkRate:          table.RoundTo1(rework.rate),
			ReworkMethod:        rework.method,
			Throughput:          table.RoundTo1(meanOr(v, cols.pieces, table.ToFloat, fallbackThroughput)),
			BottleneckOperation: bottleneckOperation(v, cols),
			DeltaWIP:            p.Targets.DeltaWIP,
			DeltaLeadTime:       p.Targets.DeltaLeadTime,
		}
		if rework.method == ReworkByVariance {
			k.VarianceBreakdown = rework.variance.breakdown()
		}
		return k, nil
	})
}

// meanOr averages a column, or returns fallback when the column is absent
// or holds no convertible value.
func meanOr(v table.View, col string, conv table.Converter, fallback float64) float64 {
	if col == "" {
		return fallback
	}
	if m, ok := table.Mean(v, col, conv); ok {
		return m
	}
	return fallback
}

// bottleneckOperation is the activity with the highest mean actual time.
// The first activity reaching the maximum wins.
func bottleneckOperation(v table.View, cols mesColumns) string {
	group := cols.activity
	if group == "" {
		group = cols.station
	}
	if group == "" || cols.actual == "" {
		return fallbackBottleneck
	}
	best, bestMean := "", math.Inf(-1)
	for _, g := range table.GroupBy(v, group) {
		m, ok := table.Mean(g.View, cols.actual, table.ToHours)
		if ok && m > bestMean {
			best, bestMean = g.Key, m
		}
	}
	if best == "" {
		return fallbackBottleneck
	}
	return best
}

// ============================================================================
// REWORK & VARIANCE
// ============================================================================

type varianceBand int

const (
	bandOnTime varianceBand = iota
	bandMinor
	bandModerate
	bandSevere
)

// classify returns the band of a variance (actual − planned) / planned
// and whether the row counts as rework.
func (p ReworkPolicy) classify(variance float64) (varianceBand, bool) {
	rework := variance > p.Tolerance
	switch {
	case variance <= p.OnTimeBand:
		return bandOnTime, rework
	case variance <= p.MinorBand:
		return bandMinor, rework
	case variance <= p.ModerateBand:
		return bandModerate, rework
	}
	return bandSevere, rework
}

// varianceStats accumulates the rows with usable actual and planned times.
type varianceStats struct {
	evaluated int
	rework    int
	bands     [4]int
	sum       float64
}

func analyzeVariance(v table.View, cols mesColumns, p ReworkPolicy) varianceStats {
	var s varianceStats
	if cols.actual == "" || cols.planned == "" {
		return s
	}
	actual := table.HoursColumn(v, cols.actual)
	planned := table.HoursColumn(v, cols.planned)
	for i := range actual {
		a, pl := actual[i], planned[i]
		if !a.Valid || !pl.Valid || pl.Float64 <= 0 {
			continue
		}
		variance := (a.Float64 - pl.Float64) / pl.Float64
		band, rework := p.classify(variance)
		s.evaluated++
		s.bands[band]++
		s.sum += variance
		if rework {
			s.rework++
		}
	}
	return s
}

func (s varianceStats) breakdown() *VarianceBreakdown {
	if s.evaluated == 0 {
		return nil
	}
	bucket := func(b varianceBand) VarianceBucket {
		return VarianceBucket{
			Count:      s.bands[b],
			Percentage: table.RoundTo1(float64(s.bands[b]) / float64(s.evaluated) * 100),
		}
	}
	return &VarianceBreakdown{
		OnTime:              bucket(bandOnTime),
		Minor:               bucket(bandMinor),
		Moderate:            bucket(bandModerate),
		Severe:              bucket(bandSevere),
		Evaluated:           s.evaluated,
		MeanVariancePercent: table.RoundTo1(s.sum / float64(s.evaluated) * 100),
	}
}

type reworkMeasure struct {
	rate     float64
	method   string
	variance varianceStats
}

// measureRework returns the rework rate of v in percent of all its rows.
func measureRework(v table.View, cols mesColumns, p ReworkPolicy, fallback float64) reworkMeasure {
	n := v.Len()
	if n == 0 {
		return reworkMeasure{rate: fallback, method: ReworkDefault}
	}
	if s := analyzeVariance(v, cols, p); s.evaluated > 0 {
		return reworkMeasure{
			rate:     float64(s.rework) / float64(n) * 100,
			method:   ReworkByVariance,
			variance: s,
		}
	}
	if cols.incident != "" {
		return reworkMeasure{
			rate:   float64(table.CountPresent(v, cols.incident)) / float64(n) * 100,
			method: ReworkByIncident,
		}
	}
	return reworkMeasure{rate: fallback, method: ReworkDefault}
}

// ============================================================================
// OPERATION SUMMARIES
// ============================================================================

// OperationSummaries groups MES rows by activity, in first-seen order.
func (c *Calculator) OperationSummaries() []OperationSummary {
	return guard(c, SectionOperations, c.mockOperationSummaries, func() ([]OperationSummary, error) {
		if c.mes == nil {
			return nil, errMissingTable
		}
		cols := resolveMES(c.mes)
		if cols.activity == "" {
			return nil, fmt.Errorf("%w: activity name", errMissingColumn)
		}
		groups := table.GroupBy(c.mes, cols.activity)
		out := make([]OperationSummary, 0, len(groups))
		for _, g := range groups {
			s := c.summarize(g, cols)
			if !table.Finite(s.AvgCycleTime, s.AvgActualTime, s.AvgWaitingTime, s.ReworkRate, s.Throughput) {
				return nil, fmt.Errorf("%w: operation %q", errNonFinite, g.Key)
			}
			out = append(out, s)
		}
		return out, nil
	})
}

func (c *Calculator) summarize(g table.Group, cols mesColumns) OperationSummary {
	v := g.View
	p := c.cfg.Policy
	cycle := meanOr(v, cols.planned, table.ToHours, fallbackOpCycleTime)
	actual := meanOr(v, cols.actual, table.ToHours, fallbackOpActualTime)
	waiting := math.Max(0, actual-cycle)

	rework := measureRework(v, cols, p.Rework, 0)

	s := OperationSummary{
		Operation:          g.Key,
		CurrentWIP:         v.Len(),
		CaseCount:          v.Len(),
		AvgCycleTime:       table.RoundTo1(cycle),
		AvgActualTime:      table.RoundTo1(actual),
		AvgWaitingTime:     table.RoundTo1(waiting),
		ReworkRate:         table.RoundTo1(rework.rate),
		Throughput:         table.RoundTo1(meanOr(v, cols.pieces, table.ToFloat, fallbackOpThroughput)),
		BottleneckSeverity: p.SeverityOf(waiting),
	}
	if cols.station != "" {
		if station, ok := table.MostFrequent(v, cols.station); ok {
			s.StationID = table.FormatStation(station)
		}
	}
	return s
}

// ============================================================================
// BOTTLENECK ANALYSIS
// ============================================================================

// Bottlenecks lists the operations of medium or high severity, high first.
func (c *Calculator) Bottlenecks() []Bottleneck {
	fallback := func() []Bottleneck {
		return c.bottlenecksFrom(c.mockOperationSummaries())
	}
	return guard(c, SectionBottlenecks, fallback, func() ([]Bottleneck, error) {
		if c.mes == nil {
			return nil, errMissingTable
		}
		return c.bottlenecksFrom(c.OperationSummaries()), nil
	})
}

func (c *Calculator) bottlenecksFrom(ops []OperationSummary) []Bottleneck {
	p := c.cfg.Policy
	out := make([]Bottleneck, 0)
	for _, op := range ops {
		if op.BottleneckSeverity.Rank() < SeverityMedium.Rank() {
			continue
		}
		var ratio float64
		if op.AvgCycleTime > 0 {
			ratio = op.AvgWaitingTime / op.AvgCycleTime
		}
		out = append(out, Bottleneck{
			Operation:           op.Operation,
			StationID:           op.StationID,
			AvgWaitingTime:      op.AvgWaitingTime,
			AvgCycleTime:        op.AvgCycleTime,
			WaitingToCycleRatio: table.RoundTo2(ratio),
			CurrentWIP:          op.CurrentWIP,
			ReworkRate:          op.ReworkRate,
			Severity:            op.BottleneckSeverity,
			Reason:              bottleneckReason(op, ratio, p),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() > out[j].Severity.Rank()
	})
	return out
}

// bottleneckReason names whichever trigger is more extreme: rework relative
// to the alert rate, or waiting relative to cycle time.
func bottleneckReason(op OperationSummary, ratio float64, p Policy) string {
	reworkPressure := op.ReworkRate / p.Insights.ReworkRate
	switch {
	case reworkPressure > ratio:
		return fmt.Sprintf("High rework rate (%.1f%%) causing queue buildup", op.ReworkRate)
	case ratio >= 1:
		return "Waiting time exceeds cycle time significantly"
	}
	return fmt.Sprintf("Waiting time of %.1fh above the %s threshold (%.2fh)",
		op.AvgWaitingTime, op.BottleneckSeverity, p.threshold(op.BottleneckSeverity))
}
