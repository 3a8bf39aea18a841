package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NotHilal/PLM-Hackaton/analytics"
	"github.com/NotHilal/PLM-Hackaton/engine"
	"github.com/NotHilal/PLM-Hackaton/insight"
	"github.com/NotHilal/PLM-Hackaton/metrics"
	"github.com/NotHilal/PLM-Hackaton/store"
)

type InsightsCmd struct{}

func NewInsightsCmd() *InsightsCmd {
	return &InsightsCmd{}
}

func (c *InsightsCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Derive insights and recommendations from the process-mining KPIs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				return printInsights(a.out, a.provider.Insights())
			})
		},
	}
}

func printInsights(p *printer, r *insight.Report) error {
	if p.isJSON() {
		return p.writeJSON(r)
	}
	if p.format != formatTable {
		return errUnsupportedFormat(p.format, "insights")
	}

	fmt.Fprintln(p.w, r.Summary)
	table := p.newTable("Type", "Impact", "Title", "Description")
	for _, i := range r.Insights {
		table.Append([]string{string(i.Type), string(i.Impact), i.Title, i.Description})
	}
	table.Render()

	table = p.newTable("Priority", "Cost", "Action", "Expected impact")
	for _, rec := range r.Recommendations {
		table.Append([]string{string(rec.Priority), string(rec.Cost), rec.Action, rec.ExpectedImpact})
	}
	table.Render()
	return nil
}

// ============================================================================
// CHARTS
// ============================================================================

type ChartsCmd struct{}

func NewChartsCmd() *ChartsCmd {
	return &ChartsCmd{}
}

func (c *ChartsCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "charts [name...]",
		Short: "Print chart series (all charts when no name is given)",
		Long: "Chart names: wip-by-operation, cycle-vs-waiting, rework-rate, cost-by-qualification,\n" +
			"experience-distribution, supplier-distribution, criticality-distribution.",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = analytics.ChartNames
			}
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				return printCharts(a.out, a.provider, names)
			})
		},
	}
}

func printCharts(p *printer, provider *analytics.Provider, names []string) error {
	series := make(map[string]any, len(names))
	for _, name := range names {
		s, err := provider.Chart(name)
		if err != nil {
			return err
		}
		series[name] = s
	}
	if p.isJSON() {
		if len(names) == 1 {
			return p.writeJSON(series[names[0]])
		}
		return p.writeJSON(series)
	}

	if p.format == formatCSV {
		if len(names) != 1 {
			return errors.New("csv output needs exactly one chart name")
		}
		switch s := series[names[0]].(type) {
		case []engine.ChartPoint:
			return p.writePointsCSV("Name", s)
		case []engine.ChartGroup:
			return p.writeGroupsCSV("Name", s)
		}
		return nil
	}

	for _, name := range names {
		fmt.Fprintln(p.w, name)
		switch s := series[name].(type) {
		case []engine.ChartPoint:
			table := p.newTable("Name", "Value")
			for _, pt := range s {
				table.Append([]string{pt.Name, fmtNum(pt.Value)})
			}
			table.Render()
		case []engine.ChartGroup:
			table := p.newTable("Group", "Series", "Value")
			for _, g := range s {
				for _, pt := range g.Series {
					table.Append([]string{g.Name, pt.Name, fmtNum(pt.Value)})
				}
			}
			table.Render()
		}
	}
	return nil
}

// ============================================================================
// HEALTH
// ============================================================================

type HealthCmd struct{}

func NewHealthCmd() *HealthCmd {
	return &HealthCmd{}
}

func (c *HealthCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show which extracts are loaded and how the last reload went",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				return printHealth(a.out, a.provider.Health(), a.report)
			})
		},
	}
}

type healthOutput struct {
	analytics.Health
	Load *store.LoadReport `json:"load"`
}

func printHealth(p *printer, h analytics.Health, report *store.LoadReport) error {
	if p.isJSON() {
		return p.writeJSON(healthOutput{Health: h, Load: report})
	}
	if p.format != formatTable {
		return errUnsupportedFormat(p.format, "health")
	}

	fmt.Fprintf(p.w, "Status: %s\nSnapshot: %s (loaded %s)\n", h.Status, h.SnapshotID, h.LoadedAt.Format("2006-01-02 15:04:05"))
	if len(h.FallbackSections) > 0 {
		fmt.Fprintf(p.w, "Sections served from mocks: %s\n", strings.Join(h.FallbackSections, ", "))
	}
	table := p.newTable("Category", "Status", "Source", "Rows", "Duration", "Error")
	for _, r := range report.Results {
		status := r.Status
		if r.Status != metrics.StatusLoaded {
			status += " (fallback)"
		}
		table.Append([]string{
			string(r.Category),
			status,
			r.Source,
			engine.FormatInt(r.Rows),
			r.Duration.String(),
			r.ErrorText(),
		})
	}
	table.Render()
	return nil
}
