package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NotHilal/PLM-Hackaton/analytics"
	"github.com/NotHilal/PLM-Hackaton/engine"
	"github.com/NotHilal/PLM-Hackaton/graph"
	"github.com/NotHilal/PLM-Hackaton/store"
)

func newTestPrinter(format string) (*printer, *bytes.Buffer) {
	var buf bytes.Buffer
	return &printer{w: &buf, format: format}, &buf
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{formatTable, formatJSON, formatPretty, formatCSV} {
		require.NoError(t, validateFormat(f))
	}
	require.Error(t, validateFormat("yaml"))
}

func TestFmtNum(t *testing.T) {
	require.Equal(t, "75", fmtNum(75))
	require.Equal(t, "5.40", fmtNum(5.4))
	require.Equal(t, "-22", fmtNum(-22))
	require.Equal(t, "0.9 h", fmtHours(0.94))
	require.Equal(t, "12.5 %", fmtPercent(12.5))
}

func TestWriteGroupsCSV(t *testing.T) {
	p, buf := newTestPrinter(formatCSV)
	require.NoError(t, p.writeGroupsCSV("Operation", []engine.ChartGroup{
		{Name: "Découpe", Series: []engine.ChartPoint{{Name: "Cycle Time", Value: 1.2}, {Name: "Waiting Time", Value: 0}}},
		{Name: "Peinture", Series: []engine.ChartPoint{{Name: "Waiting Time", Value: 0.3}}},
	}))
	require.Equal(t, "Operation,Cycle Time,Waiting Time\nDécoupe,1.20,0\nPeinture,,0.30\n", buf.String())
}

func TestWritePointsCSV(t *testing.T) {
	p, buf := newTestPrinter(formatCSV)
	require.NoError(t, p.writePointsCSV("Name", []engine.ChartPoint{{Name: "0-2", Value: 4}, {Name: "10+", Value: 1.5}}))
	require.Equal(t, "Name,Value\n0-2,4\n10+,1.50\n", buf.String())
}

func TestPrintKPIsSection(t *testing.T) {
	k := engine.AllKPIs{ProcessMining: engine.ProcessMiningSection{KPIs: engine.ProcessMiningKPIs{
		TotalWIP:            1200,
		BottleneckOperation: "Assemblage",
		ReworkMethod:        engine.ReworkDefault,
	}}}

	p, buf := newTestPrinter(formatJSON)
	require.NoError(t, printKPIs(p, k, sectionProcessMining))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, "Assemblage", got["bottleneckOperation"])

	p, buf = newTestPrinter(formatTable)
	require.NoError(t, printKPIs(p, k, sectionProcessMining))
	require.Contains(t, buf.String(), "PROCESS MINING")
	require.Contains(t, buf.String(), "1,200")
	require.NotContains(t, buf.String(), "ERP")

	require.ErrorContains(t, printKPIs(p, k, "finance"), "invalid section")

	p, _ = newTestPrinter(formatCSV)
	require.Error(t, printKPIs(p, k, sectionAll))
}

func TestWorkflowRowsOrderStations(t *testing.T) {
	rows := workflowRows(engine.WorkflowKPIs{DisponibiliteParPoste: map[string]float64{
		"Poste_10": 0.75, "Poste_2": 0.79, "Poste_1": 0.77,
	}})
	var names []string
	for _, r := range rows[2:] {
		names = append(names, strings.TrimPrefix(r[0], "Disponibilité "))
	}
	require.Equal(t, []string{"Poste_1", "Poste_2", "Poste_10"}, names)
}

func TestPrintGraph(t *testing.T) {
	g := &graph.Graph{
		Mode: graph.ModeChain,
		Nodes: []graph.Node{
			{ID: "Découpe", Type: graph.NodeStart, Frequency: 3},
			{ID: "Assemblage", Type: graph.NodeEnd, Frequency: 2, Severity: engine.SeverityHigh},
		},
		Edges: []graph.Edge{{From: "Découpe", To: "Assemblage", Frequency: 3, MeanHours: 1.25}},
	}
	p, buf := newTestPrinter(formatTable)
	require.NoError(t, printGraph(p, g))
	out := buf.String()
	require.Contains(t, out, "Degraded mode")
	require.Contains(t, out, "Assemblage")
	require.Contains(t, out, "high")
	require.Contains(t, out, "1.25")
}

func TestPrintBottlenecksEmpty(t *testing.T) {
	p, buf := newTestPrinter(formatTable)
	require.NoError(t, printBottlenecks(p, nil))
	require.Equal(t, "No bottleneck.\n", buf.String())
}

func TestPrintHealthListsFallbackSections(t *testing.T) {
	h := analytics.Health{
		Status:           analytics.StatusDegraded,
		SnapshotID:       "snap-1",
		FallbackSections: []string{engine.SectionOperations},
	}
	p, buf := newTestPrinter(formatTable)
	require.NoError(t, printHealth(p, h, &store.LoadReport{}))
	require.Contains(t, buf.String(), "Status: degraded")
	require.Contains(t, buf.String(), "Sections served from mocks: operations")

	p, buf = newTestPrinter(formatJSON)
	require.NoError(t, printHealth(p, h, &store.LoadReport{}))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, []any{"operations"}, got["fallback_sections"])
}

func TestPrintKPIsFormatsCurrency(t *testing.T) {
	k := engine.AllKPIs{ERP: engine.ERPKPIs{CoutTotal: 3500.5}}
	p, buf := newTestPrinter(formatTable)
	require.NoError(t, printKPIs(p, k, sectionERP))
	require.Contains(t, buf.String(), "€ 3,500.50")
}
