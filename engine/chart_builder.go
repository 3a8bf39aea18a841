package engine

import (
	"fmt"
	"sort"

	"github.com/NotHilal/PLM-Hackaton/table"
)

// ============================================================================
// CHART BUILDER — Name/value series for dashboard charts
// ============================================================================
// Process charts are views over OperationSummaries, so they share its
// fallback. ERP and PLM charts read their table directly and fall back to a
// fixed series when the table or its grouping column is absent.
// ============================================================================

// Chart names.
const (
	ChartWIPByOperation          = "wip-by-operation"
	ChartCycleVsWaiting          = "cycle-vs-waiting"
	ChartReworkRate              = "rework-rate"
	ChartCostByQualification     = "cost-by-qualification"
	ChartExperienceDistribution  = "experience-distribution"
	ChartSupplierDistribution    = "supplier-distribution"
	ChartCriticalityDistribution = "criticality-distribution"
)

// experienceBuckets are upper bounds in years; the last bucket is open.
var experienceBuckets = []struct {
	label string
	max   float64
}{
	{"0-2", 2},
	{"3-5", 5},
	{"6-10", 10},
}

const experienceOverflow = "10+"

// WIPChart plots the current WIP of each operation.
func (c *Calculator) WIPChart() []ChartPoint {
	ops := c.OperationSummaries()
	out := make([]ChartPoint, len(ops))
	for i, op := range ops {
		out[i] = ChartPoint{Name: op.Operation, Value: float64(op.CurrentWIP)}
	}
	return out
}

// CycleWaitingChart pairs cycle and waiting time per operation.
func (c *Calculator) CycleWaitingChart() []ChartGroup {
	ops := c.OperationSummaries()
	out := make([]ChartGroup, len(ops))
	for i, op := range ops {
		out[i] = ChartGroup{
			Name: op.Operation,
			Series: []ChartPoint{
				{Name: "Cycle Time", Value: op.AvgCycleTime},
				{Name: "Waiting Time", Value: op.AvgWaitingTime},
			},
		}
	}
	return out
}

// ReworkChart plots the rework rate of each operation.
func (c *Calculator) ReworkChart() []ChartPoint {
	ops := c.OperationSummaries()
	out := make([]ChartPoint, len(ops))
	for i, op := range ops {
		out[i] = ChartPoint{Name: op.Operation, Value: op.ReworkRate}
	}
	return out
}

// CostByQualification is the mean hourly labor cost per qualification.
func (c *Calculator) CostByQualification() []ChartPoint {
	return c.chart(ChartCostByQualification, c.erp, mockCostByQualification, func(v table.View) ([]ChartPoint, error) {
		group, ok := table.Resolve(v, colQualification...)
		if !ok {
			return nil, fmt.Errorf("%w: qualification", errMissingColumn)
		}
		cost, ok := table.Resolve(v, resLaborCost.aliases...)
		if !ok {
			return nil, fmt.Errorf("%w: labor cost", errMissingColumn)
		}
		var out []ChartPoint
		for _, g := range table.GroupBy(v, group) {
			if m, ok := table.Mean(g.View, cost, table.ToFloat); ok {
				out = append(out, ChartPoint{Name: g.Key, Value: table.RoundTo2(m)})
			}
		}
		return out, nil
	})
}

// ExperienceDistribution counts employees per experience bucket.
func (c *Calculator) ExperienceDistribution() []ChartPoint {
	return c.chart(ChartExperienceDistribution, c.erp, mockExperienceDistribution, func(v table.View) ([]ChartPoint, error) {
		col, ok := table.Resolve(v, resExperience.aliases...)
		if !ok {
			return nil, fmt.Errorf("%w: experience", errMissingColumn)
		}
		out := make([]ChartPoint, len(experienceBuckets)+1)
		for i, b := range experienceBuckets {
			out[i].Name = b.label
		}
		out[len(out)-1].Name = experienceOverflow

		for _, f := range table.Column(v, col, table.ToFloat) {
			if !f.Valid {
				continue
			}
			idx := len(experienceBuckets)
			for i, b := range experienceBuckets {
				if f.Float64 <= b.max {
					idx = i
					break
				}
			}
			out[idx].Value++
		}
		return out, nil
	})
}

// SupplierDistribution counts parts per supplier, largest first.
func (c *Calculator) SupplierDistribution() []ChartPoint {
	return c.chart(ChartSupplierDistribution, c.plm, mockSupplierDistribution, func(v table.View) ([]ChartPoint, error) {
		col, ok := table.Resolve(v, colSupplier...)
		if !ok {
			return nil, fmt.Errorf("%w: supplier", errMissingColumn)
		}
		out := countBy(v, col)
		sortPointsDesc(out)
		return out, nil
	})
}

// CriticalityDistribution counts parts per criticality level, lowest level
// first.
func (c *Calculator) CriticalityDistribution() []ChartPoint {
	return c.chart(ChartCriticalityDistribution, c.plm, mockCriticalityDistribution, func(v table.View) ([]ChartPoint, error) {
		col, ok := table.Resolve(v, scCriticality.aliases...)
		if !ok {
			return nil, fmt.Errorf("%w: criticality", errMissingColumn)
		}
		out := countBy(v, col)
		sort.SliceStable(out, func(i, j int) bool {
			a, aok := table.ToFloat(out[i].Name)
			b, bok := table.ToFloat(out[j].Name)
			if aok && bok {
				return a < b
			}
			return aok && !bok
		})
		return out, nil
	})
}

// chart guards an ERP or PLM chart.
func (c *Calculator) chart(name string, t *table.Table, fallback func() []ChartPoint, build func(table.View) ([]ChartPoint, error)) []ChartPoint {
	return guard(c, "chart:"+name, fallback, func() ([]ChartPoint, error) {
		if t == nil {
			return nil, errMissingTable
		}
		out, err := build(t)
		if err != nil {
			return nil, err
		}
		if !finitePoints(out) {
			return nil, errNonFinite
		}
		return out, nil
	})
}

// countBy counts rows per value of a column, in first-seen order.
func countBy(v table.View, col string) []ChartPoint {
	groups := table.GroupBy(v, col)
	out := make([]ChartPoint, len(groups))
	for i, g := range groups {
		out[i] = ChartPoint{Name: g.Key, Value: float64(g.View.Len())}
	}
	return out
}

// ============================================================================
// CHART MOCKS
// ============================================================================

func mockCostByQualification() []ChartPoint {
	return []ChartPoint{
		{Name: "Technicien", Value: 42.0},
		{Name: "Opérateur", Value: 35.5},
		{Name: "Ingénieur", Value: 58.0},
		{Name: "Expert", Value: 65.0},
	}
}

func mockExperienceDistribution() []ChartPoint {
	return []ChartPoint{
		{Name: "0-2", Value: 8},
		{Name: "3-5", Value: 12},
		{Name: "6-10", Value: 11},
		{Name: "10+", Value: 9},
	}
}

func mockSupplierDistribution() []ChartPoint {
	return []ChartPoint{
		{Name: "Fournisseur A", Value: 85},
		{Name: "Fournisseur B", Value: 70},
		{Name: "Fournisseur C", Value: 55},
		{Name: "Fournisseur D", Value: 40},
	}
}

func mockCriticalityDistribution() []ChartPoint {
	return []ChartPoint{
		{Name: "1", Value: 60},
		{Name: "2", Value: 80},
		{Name: "3", Value: 65},
		{Name: "4", Value: 45},
	}
}
