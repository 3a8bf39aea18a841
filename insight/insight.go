// Package insight turns process-mining KPIs into insights, recommendations
// and a one-paragraph summary. Rules are pure: the same KPIs always give the
// same report.
package insight

import (
	"fmt"
	"math"

	"github.com/NotHilal/PLM-Hackaton/engine"
)

// Category tags an insight.
type Category string

const (
	Warning Category = "warning"
	Info    Category = "info"
	Success Category = "success"
)

// Level grades impact, priority and cost.
type Level string

const (
	High   Level = "high"
	Medium Level = "medium"
	Low    Level = "low"
)

type Insight struct {
	Type        Category `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Impact      Level    `json:"impact"`
}

type Recommendation struct {
	Action         string `json:"action"`
	ExpectedImpact string `json:"expectedImpact"`
	Priority       Level  `json:"priority"`
	Cost           Level  `json:"cost"`
}

// Report is the output of Generate.
type Report struct {
	Insights        []Insight        `json:"insights"`
	Recommendations []Recommendation `json:"recommendations"`
	Summary         string           `json:"summary"`
}

// ============================================================================
// RULES
// ============================================================================
// Each rule fires on the KPI values and emits an insight, a recommendation,
// or both. Rules run in declaration order.
// ============================================================================

// facts is what rules look at.
type facts struct {
	kpis        engine.ProcessMiningKPIs
	bottlenecks []engine.Bottleneck
	policy      engine.Policy
}

type rule struct {
	name           string
	when           func(f facts) bool
	insight        *Insight
	recommendation *Recommendation
}

var rules = []rule{
	{
		name: "high_rework",
		when: func(f facts) bool { return f.kpis.ReworkRate > f.policy.Insights.ReworkRate },
		insight: &Insight{
			Type:        Warning,
			Title:       "High rework rate",
			Description: "Current rework rate ({rework_rate}%) exceeds the acceptable threshold of {rework_threshold}%",
			Impact:      High,
		},
		recommendation: &Recommendation{
			Action:         "Improve quality control at {rework_operation}",
			ExpectedImpact: "Reduce rework rate by 5-7%",
			Priority:       High,
			Cost:           Medium,
		},
	},
	{
		name: "high_wip",
		when: func(f facts) bool { return f.kpis.TotalWIP > f.policy.Insights.WIP },
		insight: &Insight{
			Type:        Info,
			Title:       "High WIP detected",
			Description: "Current work-in-progress: {wip} cases (threshold {wip_threshold})",
			Impact:      Medium,
		},
		recommendation: &Recommendation{
			Action:         "Resolve the bottleneck at {bottleneck}",
			ExpectedImpact: "Reduce WIP by 15-20%",
			Priority:       High,
			Cost:           Low,
		},
	},
	{
		name: "top_bottleneck",
		when: func(f facts) bool { return len(f.bottlenecks) > 0 },
		insight: &Insight{
			Type:        Warning,
			Title:       "Bottleneck at {top_bottleneck}",
			Description: "{top_bottleneck_reason}: {top_bottleneck_waiting}h waiting for {top_bottleneck_cycle}h of cycle time",
			Impact:      High,
		},
	},
	{
		name: "optimization_potential",
		when: func(facts) bool { return true },
		insight: &Insight{
			Type:        Success,
			Title:       "Optimization potential identified",
			Description: "Potential lead time improvement of {delta_lead_time}%",
			Impact:      High,
		},
		recommendation: &Recommendation{
			Action:         "Add a resource at {bottleneck}",
			ExpectedImpact: "Reduce cycle time by 25%",
			Priority:       High,
			Cost:           High,
		},
	},
}

const summaryTemplate = "System running with {wip} cases in progress. " +
	"Main bottleneck: {bottleneck}. " +
	"Optimization potential: -{delta_wip}% WIP, -{delta_lead_time}% Lead Time."

// Generate evaluates every rule against the KPIs. ops and bottlenecks come
// from the same calculator as kpis.
func Generate(kpis engine.ProcessMiningKPIs, ops []engine.OperationSummary, bottlenecks []engine.Bottleneck, p engine.Policy) *Report {
	f := facts{kpis: kpis, bottlenecks: bottlenecks, policy: p}
	values := newPlaceholders(replacements(f, ops))

	report := &Report{
		Insights:        make([]Insight, 0, len(rules)),
		Recommendations: make([]Recommendation, 0, len(rules)),
	}
	for _, r := range rules {
		if !r.when(f) {
			continue
		}
		if in := r.insight; in != nil {
			report.Insights = append(report.Insights, Insight{
				Type:        in.Type,
				Title:       values.resolve(in.Title),
				Description: values.resolve(in.Description),
				Impact:      impactOf(r.name, in.Impact, bottlenecks),
			})
		}
		if rec := r.recommendation; rec != nil {
			report.Recommendations = append(report.Recommendations, Recommendation{
				Action:         values.resolve(rec.Action),
				ExpectedImpact: values.resolve(rec.ExpectedImpact),
				Priority:       rec.Priority,
				Cost:           rec.Cost,
			})
		}
	}
	report.Summary = values.resolve(summaryTemplate)
	return report
}

// impactOf lowers the bottleneck insight to medium for a medium bottleneck.
func impactOf(rule string, impact Level, bottlenecks []engine.Bottleneck) Level {
	if rule == "top_bottleneck" && bottlenecks[0].Severity != engine.SeverityHigh {
		return Medium
	}
	return impact
}

func replacements(f facts, ops []engine.OperationSummary) map[string]string {
	k := f.kpis
	values := map[string]string{
		"{wip}":              fmt.Sprintf("%d", k.TotalWIP),
		"{wip_threshold}":    fmt.Sprintf("%d", f.policy.Insights.WIP),
		"{rework_rate}":      fmt.Sprintf("%.1f", k.ReworkRate),
		"{rework_threshold}": fmt.Sprintf("%g", f.policy.Insights.ReworkRate),
		"{bottleneck}":       k.BottleneckOperation,
		"{rework_operation}": k.BottleneckOperation,
		"{delta_wip}":        fmt.Sprintf("%d", abs(k.DeltaWIP)),
		"{delta_lead_time}":  fmt.Sprintf("%d", abs(k.DeltaLeadTime)),
	}
	if op, ok := highestRework(ops); ok {
		values["{rework_operation}"] = op.Operation
	}
	if len(f.bottlenecks) > 0 {
		b := f.bottlenecks[0]
		values["{top_bottleneck}"] = b.Operation
		values["{top_bottleneck_reason}"] = b.Reason
		values["{top_bottleneck_waiting}"] = fmt.Sprintf("%.1f", b.AvgWaitingTime)
		values["{top_bottleneck_cycle}"] = fmt.Sprintf("%.1f", b.AvgCycleTime)
	}
	return values
}

// highestRework returns the first operation with the highest rework rate.
func highestRework(ops []engine.OperationSummary) (engine.OperationSummary, bool) {
	if len(ops) == 0 {
		return engine.OperationSummary{}, false
	}
	best := ops[0]
	for _, op := range ops[1:] {
		if op.ReworkRate > best.ReworkRate {
			best = op
		}
	}
	return best, true
}

func abs(n int) int {
	return int(math.Abs(float64(n)))
}
