package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NotHilal/PLM-Hackaton/engine"
	"github.com/NotHilal/PLM-Hackaton/eventlog"
	"github.com/NotHilal/PLM-Hackaton/graph"
)

type EventLogCmd struct{}

func NewEventLogCmd() *EventLogCmd {
	return &EventLogCmd{}
}

func (c *EventLogCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eventlog",
		Short: "Build the process-mining event log from the MES extract",
		RunE: func(cmd *cobra.Command, args []string) error {
			exportPath, err := cmd.Flags().GetString("export")
			if err != nil {
				return fmt.Errorf("failed to get export flag: %w", err)
			}
			showMetrics, err := cmd.Flags().GetBool("metrics")
			if err != nil {
				return fmt.Errorf("failed to get metrics flag: %w", err)
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return fmt.Errorf("failed to get limit flag: %w", err)
			}

			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				events := a.provider.EventLog()
				if exportPath != "" {
					if err := exportEvents(exportPath, events); err != nil {
						return err
					}
					a.log.Info("Event log exported", "path", exportPath, "events", len(events))
				}
				if showMetrics {
					return printEventMetrics(a.out, a.provider.EventMetrics())
				}
				return printEvents(a.out, events, limit)
			})
		},
	}
	cmd.Flags().String("export", "", "also write the full log as CSV to this path")
	cmd.Flags().Bool("metrics", false, "print per-activity metrics instead of events")
	cmd.Flags().Int("limit", 20, "events to print in table format (0 for all)")
	return cmd
}

func exportEvents(path string, events []eventlog.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := eventlog.Export(f, events); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printEvents(p *printer, events []eventlog.Event, limit int) error {
	switch {
	case p.isJSON():
		return p.writeJSON(events)
	case p.format == formatCSV:
		return eventlog.Export(p.w, events)
	}

	shown := events
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	table := p.newTable("Case", "Activity", "Station", "Start", "End", "Duration\n(h)", "Result", "Issue")
	for _, ev := range shown {
		table.Append([]string{
			ev.CaseID,
			ev.Activity,
			ev.StationID,
			ev.TimestampStart.Format("2006-01-02 15:04"),
			ev.TimestampEnd.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", ev.DurationHours),
			ev.Result,
			ev.IssueDescription,
		})
	}
	table.Render()
	if len(shown) < len(events) {
		fmt.Fprintf(p.w, "%d of %d events shown\n", len(shown), len(events))
	}
	return nil
}

func printEventMetrics(p *printer, m eventlog.Metrics) error {
	if p.isJSON() {
		return p.writeJSON(m)
	}
	if p.format != formatTable {
		return errUnsupportedFormat(p.format, "eventlog --metrics")
	}
	fmt.Fprintf(p.w, "Cases: %s, avg lead time: %s\n", engine.FormatInt(m.TotalCases), fmtHours(m.AvgLeadTimeHours))
	table := p.newTable("Activity", "Volume", "Avg duration\n(h)", "Rework\n(%)")
	for _, a := range m.Activities {
		table.Append([]string{
			a,
			engine.FormatInt(m.VolumeByOperation[a]),
			fmt.Sprintf("%.2f", m.AvgDurationByOperation[a]),
			fmt.Sprintf("%.1f", m.ReworkRateByOperation[a]),
		})
	}
	table.Render()
	return nil
}

// ============================================================================
// PROCESS GRAPH
// ============================================================================

type GraphCmd struct{}

func NewGraphCmd() *GraphCmd {
	return &GraphCmd{}
}

func (c *GraphCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Mine the process graph of the event log, annotated with bottlenecks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				return printGraph(a.out, a.provider.Graph())
			})
		},
	}
}

func printGraph(p *printer, g *graph.Graph) error {
	if p.isJSON() {
		return p.writeJSON(g)
	}
	if p.format != formatTable {
		return errUnsupportedFormat(p.format, "graph")
	}

	fmt.Fprintf(p.w, "Mode: %s\n", g.Mode)
	if g.Mode == graph.ModeChain {
		fmt.Fprintln(p.w, "Degraded mode: activities in first-occurrence order, case paths are not mined.")
	}
	table := p.newTable("Node", "Type", "Frequency", "Starts", "Ends", "Severity")
	for _, n := range g.Nodes {
		table.Append([]string{
			n.ID,
			n.Type,
			engine.FormatInt(n.Frequency),
			engine.FormatInt(n.StartCount),
			engine.FormatInt(n.EndCount),
			string(n.Severity),
		})
	}
	table.Render()

	table = p.newTable("From", "To", "Frequency", "Avg time\n(h)")
	for _, e := range g.Edges {
		table.Append([]string{e.From, e.To, engine.FormatInt(e.Frequency), fmt.Sprintf("%.2f", e.MeanHours)})
	}
	table.Render()
	return nil
}
