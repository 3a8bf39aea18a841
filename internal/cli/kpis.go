package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/NotHilal/PLM-Hackaton/engine"
)

// KPI sections selectable with --section.
const (
	sectionAll           = "all"
	sectionERP           = "erp"
	sectionMES           = "mes"
	sectionPLM           = "plm"
	sectionCross         = "cross"
	sectionWorkflow      = "workflow"
	sectionProcessMining = "process-mining"
)

type KPIsCmd struct{}

func NewKPIsCmd() *KPIsCmd {
	return &KPIsCmd{}
}

func (c *KPIsCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kpis",
		Short: "Compute the ERP, MES, PLM, cross-domain, workflow and process-mining KPIs",
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := cmd.Flags().GetString("section")
			if err != nil {
				return fmt.Errorf("failed to get section flag: %w", err)
			}
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				return printKPIs(a.out, a.provider.KPIs(), section)
			})
		},
	}
	cmd.Flags().String("section", sectionAll, "section to print: all, erp, mes, plm, cross, workflow, process-mining")
	return cmd
}

func printKPIs(p *printer, k engine.AllKPIs, section string) error {
	var v any
	switch section {
	case sectionAll:
		v = k
	case sectionERP:
		v = k.ERP
	case sectionMES:
		v = k.MES
	case sectionPLM:
		v = k.PLM
	case sectionCross:
		v = k.Cross
	case sectionWorkflow:
		v = k.Workflow
	case sectionProcessMining:
		v = k.ProcessMining.KPIs
	default:
		return fmt.Errorf("invalid section: %s", section)
	}

	if p.isJSON() {
		return p.writeJSON(v)
	}
	if p.format != formatTable {
		return errUnsupportedFormat(p.format, "kpis")
	}

	show := func(s string) bool { return section == sectionAll || section == s }
	if show(sectionERP) {
		p.keyValues("ERP", [][]string{
			{"Criticité moyenne", fmtNum(k.ERP.CriticiteMoyenne)},
			{"Coût total", engine.FormatCurrency(k.ERP.CoutTotal, "€")},
			{"Masse totale", fmtNum(k.ERP.MasseTotale)},
			{"Délai moyen fournisseur", fmtNum(k.ERP.DelaiMoyenFournisseur)},
			{"Temps CAO total", fmtHours(k.ERP.TempsCAOTotal)},
		})
	}
	if show(sectionMES) {
		p.keyValues("MES", [][]string{
			{"Écart moyen temps", fmtHours(k.MES.EcartMoyenTemps)},
			{"Taux aléas", fmtPercent(k.MES.TauxAleas)},
			{"Temps d'arrêt moyen", fmtHours(k.MES.TempsArretMoyen)},
			{"Productivité poste", fmtNum(k.MES.ProductivitePoste)},
		})
	}
	if show(sectionPLM) {
		p.keyValues("PLM", [][]string{
			{"Coût MO total", engine.FormatCurrency(k.PLM.CoutMOTotal, "€")},
			{"Score compétence", fmtNum(k.PLM.ScoreCompetence)},
			{"Experts", strconv.Itoa(k.PLM.SeniorityMix.Experts) + " %"},
			{"Juniors", strconv.Itoa(k.PLM.SeniorityMix.Juniors) + " %"},
		})
	}
	if show(sectionCross) {
		p.keyValues("CROSS", [][]string{
			{"Impact aléas", fmtNum(k.Cross.ImpactAleas)},
			{"Coût retard", engine.FormatCurrency(k.Cross.CoutRetard, "€")},
		})
	}
	if show(sectionWorkflow) {
		p.keyValues("WORKFLOW", workflowRows(k.Workflow))
	}
	if show(sectionProcessMining) {
		p.keyValues("PROCESS MINING", processMiningRows(k.ProcessMining.KPIs))
	}
	return nil
}

func workflowRows(w engine.WorkflowKPIs) [][]string {
	rows := [][]string{
		{"Bottleneck index", fmtNum(w.BottleneckIndex)},
		{"Cycle time global", fmtHours(w.CycleTimeGlobal)},
	}
	stations := make([]string, 0, len(w.DisponibiliteParPoste))
	for s := range w.DisponibiliteParPoste {
		stations = append(stations, s)
	}
	sort.Slice(stations, func(i, j int) bool {
		return stationOrder(stations[i]) < stationOrder(stations[j])
	})
	for _, s := range stations {
		rows = append(rows, []string{"Disponibilité " + s, fmtPercent(w.DisponibiliteParPoste[s] * 100)})
	}
	return rows
}

// stationOrder sorts Poste_2 before Poste_10.
func stationOrder(s string) string {
	var n int
	if _, err := fmt.Sscanf(s, "Poste_%d", &n); err == nil {
		return fmt.Sprintf("Poste_%06d", n)
	}
	return s
}

func processMiningRows(k engine.ProcessMiningKPIs) [][]string {
	rows := [][]string{
		{"Total WIP", engine.FormatInt(k.TotalWIP)},
		{"Total cases", engine.FormatInt(k.TotalCases)},
		{"Avg lead time", fmtHours(k.AvgLeadTime)},
		{"Avg cycle time", fmtHours(k.AvgCycleTime)},
		{"Rework rate", fmtPercent(k.ReworkRate) + " (" + k.ReworkMethod + ")"},
		{"Throughput", fmtNum(k.Throughput)},
		{"Bottleneck", k.BottleneckOperation},
		{"Δ WIP", strconv.Itoa(k.DeltaWIP) + " %"},
		{"Δ lead time", strconv.Itoa(k.DeltaLeadTime) + " %"},
	}
	if b := k.VarianceBreakdown; b != nil {
		rows = append(rows,
			[]string{"On time", bucket(b.OnTime)},
			[]string{"Minor overrun", bucket(b.Minor)},
			[]string{"Moderate overrun", bucket(b.Moderate)},
			[]string{"Severe overrun", bucket(b.Severe)},
			[]string{"Mean variance", fmtPercent(b.MeanVariancePercent)},
		)
	}
	return rows
}

func bucket(b engine.VarianceBucket) string {
	return fmt.Sprintf("%d (%s)", b.Count, fmtPercent(b.Percentage))
}

// ============================================================================
// OPERATIONS & BOTTLENECKS
// ============================================================================

type OperationsCmd struct{}

func NewOperationsCmd() *OperationsCmd {
	return &OperationsCmd{}
}

func (c *OperationsCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "operations",
		Short: "Summarize each MES operation: WIP, cycle, waiting, rework, severity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				return printOperations(a.out, a.provider.Operations())
			})
		},
	}
}

func printOperations(p *printer, ops []engine.OperationSummary) error {
	if p.isJSON() {
		return p.writeJSON(ops)
	}
	if p.format != formatTable {
		return errUnsupportedFormat(p.format, "operations")
	}
	table := p.newTable(
		"Operation", "Station", "WIP",
		"Cycle\n(h)", "Actual\n(h)", "Waiting\n(h)",
		"Cases", "Rework\n(%)", "Throughput", "Severity",
	)
	for _, op := range ops {
		table.Append([]string{
			op.Operation,
			op.StationID,
			engine.FormatInt(op.CurrentWIP),
			fmt.Sprintf("%.1f", op.AvgCycleTime),
			fmt.Sprintf("%.1f", op.AvgActualTime),
			fmt.Sprintf("%.1f", op.AvgWaitingTime),
			engine.FormatInt(op.CaseCount),
			fmt.Sprintf("%.1f", op.ReworkRate),
			fmt.Sprintf("%.1f", op.Throughput),
			string(op.BottleneckSeverity),
		})
	}
	table.Render()
	return nil
}

type BottlenecksCmd struct{}

func NewBottlenecksCmd() *BottlenecksCmd {
	return &BottlenecksCmd{}
}

func (c *BottlenecksCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "bottlenecks",
		Short: "List the operations with medium or high waiting-time severity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				return printBottlenecks(a.out, a.provider.Bottlenecks())
			})
		},
	}
}

func printBottlenecks(p *printer, bottlenecks []engine.Bottleneck) error {
	if p.isJSON() {
		return p.writeJSON(bottlenecks)
	}
	if p.format != formatTable {
		return errUnsupportedFormat(p.format, "bottlenecks")
	}
	if len(bottlenecks) == 0 {
		fmt.Fprintln(p.w, "No bottleneck.")
		return nil
	}
	table := p.newTable(
		"Operation", "Station", "Waiting\n(h)", "Cycle\n(h)", "Ratio",
		"WIP", "Rework\n(%)", "Severity", "Reason",
	)
	for _, b := range bottlenecks {
		table.Append([]string{
			b.Operation,
			b.StationID,
			fmt.Sprintf("%.1f", b.AvgWaitingTime),
			fmt.Sprintf("%.1f", b.AvgCycleTime),
			fmt.Sprintf("%.2f", b.WaitingToCycleRatio),
			engine.FormatInt(b.CurrentWIP),
			fmt.Sprintf("%.1f", b.ReworkRate),
			string(b.Severity),
			b.Reason,
		})
	}
	table.Render()
	return nil
}

// ============================================================================
// ANALYTICS
// ============================================================================

type ResourcesCmd struct{}

func NewResourcesCmd() *ResourcesCmd {
	return &ResourcesCmd{}
}

func (c *ResourcesCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "Workforce KPIs from the ERP extract",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				r := a.provider.Resources()
				if a.out.isJSON() {
					return a.out.writeJSON(r)
				}
				if a.out.format != formatTable {
					return errUnsupportedFormat(a.out.format, "resources")
				}
				a.out.keyValues("", [][]string{
					{"Employees", engine.FormatInt(r.TotalEmployees)},
					{"Avg labor cost (/h)", engine.FormatCurrency(r.AvgLaborCost, "€")},
					{"Total labor cost (/h)", engine.FormatCurrency(r.TotalLaborCost, "€")},
					{"Avg age", fmtNum(r.AvgAge)},
					{"Avg experience (years)", fmtNum(r.AvgExperience)},
					{"Rotation rate", fmtPercent(r.RotationRate)},
				})
				return nil
			})
		},
	}
}

type SupplyChainCmd struct{}

func NewSupplyChainCmd() *SupplyChainCmd {
	return &SupplyChainCmd{}
}

func (c *SupplyChainCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "supply-chain",
		Short: "Parts, procurement and criticality KPIs from the PLM extract",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				s := a.provider.SupplyChain()
				if a.out.isJSON() {
					return a.out.writeJSON(s)
				}
				if a.out.format != formatTable {
					return errUnsupportedFormat(a.out.format, "supply-chain")
				}
				a.out.keyValues("", [][]string{
					{"Parts", engine.FormatInt(s.TotalParts)},
					{"Procurement cost", engine.FormatCurrency(s.TotalProcurementCost, "€")},
					{"Avg lead time (days)", fmtNum(s.AvgLeadTime)},
					{"Critical parts", engine.FormatInt(s.CriticalPartsCount)},
					{"Avg criticality", fmtNum(s.AvgCriticality)},
					{"Total weight", fmtNum(s.TotalWeight)},
					{"Total CAO time", fmtHours(s.TotalCAOTime)},
				})
				return nil
			})
		},
	}
}
