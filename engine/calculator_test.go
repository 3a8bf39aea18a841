package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/NotHilal/PLM-Hackaton/metrics"
	"github.com/NotHilal/PLM-Hackaton/table"
)

func newTestCalculator(t *testing.T, erp, mes, plm *table.Table) (*Calculator, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return New(erp, mes, plm, WithMetrics(m)), m
}

// mesFixture has one row per variance band and two clock-string times.
func mesFixture() *table.Table {
	return table.New("MES_Extraction.csv",
		[]string{"Nom", "Poste", "Temps Prévu", "Temps Réel", "Nombre pièces", "Aléas Industriels"},
		[][]any{
			{"Découpe", 1.0, 10.0, 10.5, 20.0, nil},
			{"Découpe", 1.0, 10.0, 12.0, 18.0, nil},
			{"Peinture", 2.0, 10.0, 13.0, 15.0, "Panne"},
			{"Peinture", 2.0, 10.0, 15.0, 13.0, nil},
			{"Assemblage", 3.0, "02:00:00", "03:00:00", 10.0, nil},
		})
}

func TestCalculatorAbsentTablesReturnMocks(t *testing.T) {
	c, m := newTestCalculator(t, nil, nil, nil)

	pm := c.ProcessMiningKPIs()
	require.Equal(t, 75, pm.TotalWIP)
	require.Equal(t, "Assemblage", pm.BottleneckOperation)
	require.Equal(t, 5.4, pm.AvgLeadTime)
	require.Equal(t, ReworkDefault, pm.ReworkMethod)
	require.Nil(t, pm.VarianceBreakdown)

	require.Equal(t, mockERPKPIs(), c.ERPKPIs())
	require.Equal(t, mockMESKPIs(), c.MESKPIs())
	require.Equal(t, SeniorityMix{Experts: 35, Juniors: 65}, c.PLMKPIs().SeniorityMix)
	require.Equal(t, mockResourceKPIs(), c.ResourceKPIs())
	require.Equal(t, mockSupplyChainKPIs(), c.SupplyChainKPIs())

	ops := c.OperationSummaries()
	require.Len(t, ops, 5)
	require.Equal(t, SeverityNone, ops[0].BottleneckSeverity)
	require.Equal(t, SeverityLow, ops[1].BottleneckSeverity)
	require.Equal(t, SeverityMedium, ops[2].BottleneckSeverity)
	require.Equal(t, SeverityHigh, ops[3].BottleneckSeverity)
	require.Equal(t, SeverityNone, ops[4].BottleneckSeverity)

	bottlenecks := c.Bottlenecks()
	require.Len(t, bottlenecks, 2)
	require.Equal(t, "Assemblage", bottlenecks[0].Operation)
	require.Equal(t, "STATION_04", bottlenecks[0].StationID)
	require.Equal(t, "Peinture", bottlenecks[1].Operation)

	require.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues(SectionProcessMining, metrics.ReasonMissingTable)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SectionsTotal.WithLabelValues(SectionERP)))
}

func TestCalculatorIsIdempotent(t *testing.T) {
	c, _ := newTestCalculator(t, nil, mesFixture(), nil)
	first := c.All()
	second := c.All()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("All() changed between calls (-first +second):\n%s", diff)
	}
	require.Len(t, first.Workflow.DisponibiliteParPoste, 40)
	require.Equal(t, 0.77, first.Workflow.DisponibiliteParPoste["Poste_1"])
	require.Equal(t, 0.75, first.Workflow.DisponibiliteParPoste["Poste_10"])
}

func TestAllListsFallbackSections(t *testing.T) {
	c, _ := newTestCalculator(t, nil, nil, nil)
	require.Equal(t, []string{
		SectionBottlenecks, SectionERP, SectionMES, SectionOperations, SectionPLM, SectionProcessMining,
	}, c.All().Fallbacks)

	mes := table.New("MES.csv", []string{"Temps Réel"}, [][]any{{1.0}, {2.0}})
	c, _ = newTestCalculator(t, nil, mes, nil)
	c.SupplyChainKPIs()
	require.Equal(t, []string{SectionERP, SectionOperations, SectionPLM}, c.All().Fallbacks,
		"sections computed outside All are not reported")

	c, _ = newTestCalculator(t, erpWorkforce(), mesFixture(), plmParts())
	require.Empty(t, c.All().Fallbacks)
}

func TestERPKPIsNamedColumns(t *testing.T) {
	erp := table.New("ERP.csv",
		[]string{"Criticité", "Coût", "Masse", "Délai", "Temps CAO"},
		[][]any{
			{3.0, 1000.0, 10.5, 10.0, "01:30:00"},
			{2.0, 2500.5, nil, 14.0, 2.0},
			{nil, "N/A", 4.25, nil, nil},
		})
	c, _ := newTestCalculator(t, erp, nil, nil)

	require.Equal(t, ERPKPIs{
		CriticiteMoyenne:      2.5,
		CoutTotal:             3500.5,
		MasseTotale:           14.75,
		DelaiMoyenFournisseur: 12.0,
		TempsCAOTotal:         3.5,
	}, c.ERPKPIs())
}

func TestERPKPIsPositionalFallback(t *testing.T) {
	erp := table.New("ERP.csv",
		[]string{"Ref", "A", "B"},
		[][]any{
			{"P1", 1.0, 10.0},
			{"P2", 3.0, 20.0},
		})
	c, _ := newTestCalculator(t, erp, nil, nil)

	k := c.ERPKPIs()
	require.Equal(t, 2.0, k.CriticiteMoyenne, "first numeric column")
	require.Equal(t, 30.0, k.CoutTotal, "second numeric column")
	require.Zero(t, k.MasseTotale, "no third numeric column")
	require.Zero(t, k.DelaiMoyenFournisseur)
}

func TestMESKPIsNormalizesTimes(t *testing.T) {
	mes := table.New("MES.csv",
		[]string{"Ecart_Temps", "Taux_Aleas", "Temps_Arret", "Productivite"},
		[][]any{
			{"00:30:00", 5.0, 90 * time.Minute, 40.0},
			{"01:30:00", 7.0, 30 * time.Minute, 50.0},
		})
	c, _ := newTestCalculator(t, nil, mes, nil)

	require.Equal(t, MESKPIs{
		EcartMoyenTemps:   1.0,
		TauxAleas:         6.0,
		TempsArretMoyen:   1.0,
		ProductivitePoste: 45.0,
	}, c.MESKPIs())
}

func TestPLMKPIsSeniorityMix(t *testing.T) {
	plm := table.New("PLM.csv",
		[]string{"Coût MO", "Score", "Seniority"},
		[][]any{
			{1000.0, 7.0, "Expert"},
			{2000.55, 8.0, "Junior"},
			{nil, nil, "expert"},
			{nil, nil, nil},
		})
	c, _ := newTestCalculator(t, nil, nil, plm)

	require.Equal(t, PLMKPIs{
		CoutMOTotal:     3000.55,
		ScoreCompetence: 7.5,
		SeniorityMix:    SeniorityMix{Experts: 67, Juniors: 33},
	}, c.PLMKPIs())
}

func TestProcessMiningKPIsVarianceMethod(t *testing.T) {
	c, _ := newTestCalculator(t, nil, mesFixture(), nil)
	k := c.ProcessMiningKPIs()

	require.Equal(t, 5, k.TotalWIP)
	require.Equal(t, 5, k.TotalCases)
	require.Equal(t, 10.7, k.AvgLeadTime)
	require.Equal(t, 8.4, k.AvgCycleTime)
	require.Equal(t, 15.2, k.Throughput)
	require.Equal(t, "Peinture", k.BottleneckOperation)
	require.Equal(t, ReworkByVariance, k.ReworkMethod)
	require.Equal(t, 40.0, k.ReworkRate)
	require.Equal(t, -15, k.DeltaWIP)
	require.Equal(t, -22, k.DeltaLeadTime)

	require.Equal(t, &VarianceBreakdown{
		OnTime:              VarianceBucket{Count: 1, Percentage: 20},
		Minor:               VarianceBucket{Count: 1, Percentage: 20},
		Moderate:            VarianceBucket{Count: 1, Percentage: 20},
		Severe:              VarianceBucket{Count: 2, Percentage: 40},
		Evaluated:           5,
		MeanVariancePercent: 31,
	}, k.VarianceBreakdown)
}

func TestProcessMiningKPIsSkipsInfiniteCells(t *testing.T) {
	mes := table.New("MES.parquet",
		[]string{"Nom", "Temps Prévu", "Temps Réel"},
		[][]any{
			{"Découpe", 1.0, 2.0},
			{"Peinture", 1.0, math.Inf(1)},
			{"Contrôle", 1.0, 4.0},
		})
	c, m := newTestCalculator(t, nil, mes, nil)
	k := c.ProcessMiningKPIs()

	require.Equal(t, 3, k.TotalWIP)
	require.Equal(t, 3.0, k.AvgLeadTime)
	require.Equal(t, 1.0, k.AvgCycleTime)
	require.Equal(t, "Contrôle", k.BottleneckOperation)
	require.Equal(t, ReworkByVariance, k.ReworkMethod)
	require.Equal(t, 2, k.VarianceBreakdown.Evaluated)

	ops := c.OperationSummaries()
	require.Len(t, ops, 3)
	require.Equal(t, "Peinture", ops[1].Operation)
	require.Equal(t, fallbackOpActualTime, ops[1].AvgActualTime)

	for _, section := range []string{SectionProcessMining, SectionOperations} {
		require.Zero(t, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues(section, metrics.ReasonRecovered)), section)
	}
}

func TestProcessMiningKPIsIncidentMethod(t *testing.T) {
	mes := table.New("MES.csv",
		[]string{"Nom", "Aléas Industriels"},
		[][]any{
			{"Découpe", nil},
			{"Découpe", "Casse outil"},
			{"Peinture", ""},
			{"Peinture", nil},
		})
	c, _ := newTestCalculator(t, nil, mes, nil)
	k := c.ProcessMiningKPIs()

	require.Equal(t, ReworkByIncident, k.ReworkMethod)
	require.Equal(t, 25.0, k.ReworkRate)
	require.Nil(t, k.VarianceBreakdown)
	require.Equal(t, fallbackLeadTime, k.AvgLeadTime)
	require.Equal(t, fallbackCycleTime, k.AvgCycleTime)
	require.Equal(t, fallbackThroughput, k.Throughput)
	require.Equal(t, fallbackBottleneck, k.BottleneckOperation)

	ops := c.OperationSummaries()
	require.Len(t, ops, 2)
	require.Equal(t, 50.0, ops[0].ReworkRate)
	require.Equal(t, 0.0, ops[1].ReworkRate)
	require.Equal(t, fallbackOpCycleTime, ops[0].AvgCycleTime)
	require.Equal(t, 3.0, ops[0].AvgWaitingTime)
	require.Equal(t, SeverityHigh, ops[0].BottleneckSeverity)
}

func TestReworkPolicyClassify(t *testing.T) {
	p := DefaultPolicy().Rework
	tests := []struct {
		name     string
		planned  float64
		actual   float64
		band     varianceBand
		isRework bool
	}{
		{"faster than planned", 10, 8, bandOnTime, false},
		{"within ten percent", 10, 10.5, bandOnTime, false},
		{"minor overrun", 10, 12, bandMinor, false},
		{"moderate overrun", 10, 13.5, bandModerate, false},
		{"severe overrun", 10, 15, bandSevere, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			band, rework := p.classify((tt.actual - tt.planned) / tt.planned)
			require.Equal(t, tt.band, band)
			require.Equal(t, tt.isRework, rework)
		})
	}
}

func TestReworkPolicyClassifyBandEdges(t *testing.T) {
	p := DefaultPolicy().Rework
	tests := []struct {
		variance float64
		band     varianceBand
		isRework bool
	}{
		{0.10, bandOnTime, false},
		{0.1000001, bandMinor, false},
		{0.25, bandMinor, false},
		{0.2500001, bandModerate, false},
		{0.40, bandModerate, false},
		{0.4000001, bandSevere, true},
		{-0.5, bandOnTime, false},
	}
	for _, tt := range tests {
		band, rework := p.classify(tt.variance)
		require.Equal(t, tt.band, band, "variance %v", tt.variance)
		require.Equal(t, tt.isRework, rework, "variance %v", tt.variance)
	}
}

func TestVarianceBreakdownOnExactEdges(t *testing.T) {
	// Planned 20h: 22h, 25h and 28h overrun by exactly 10, 25 and 40 percent.
	mes := table.New("MES.csv",
		[]string{"Nom", "Temps Prévu", "Temps Réel"},
		[][]any{
			{"Découpe", 20.0, 22.0},
			{"Découpe", 20.0, 25.0},
			{"Découpe", 20.0, 28.0},
			{"Découpe", 20.0, 30.0},
		})
	c, _ := newTestCalculator(t, nil, mes, nil)
	k := c.ProcessMiningKPIs()

	require.Equal(t, 25.0, k.ReworkRate, "only the 50 percent overrun counts as rework")
	b := k.VarianceBreakdown
	require.Equal(t, 1, b.OnTime.Count)
	require.Equal(t, 1, b.Minor.Count)
	require.Equal(t, 1, b.Moderate.Count)
	require.Equal(t, 1, b.Severe.Count)
}

func TestOperationSummaries(t *testing.T) {
	c, _ := newTestCalculator(t, nil, mesFixture(), nil)
	ops := c.OperationSummaries()

	want := []OperationSummary{
		{
			Operation: "Découpe", StationID: "STATION_01", CurrentWIP: 2, CaseCount: 2,
			AvgCycleTime: 10, AvgActualTime: 11.3, AvgWaitingTime: 1.3,
			ReworkRate: 0, Throughput: 19, BottleneckSeverity: SeverityHigh,
		},
		{
			Operation: "Peinture", StationID: "STATION_02", CurrentWIP: 2, CaseCount: 2,
			AvgCycleTime: 10, AvgActualTime: 14, AvgWaitingTime: 4,
			ReworkRate: 50, Throughput: 14, BottleneckSeverity: SeverityHigh,
		},
		{
			Operation: "Assemblage", StationID: "STATION_03", CurrentWIP: 1, CaseCount: 1,
			AvgCycleTime: 2, AvgActualTime: 3, AvgWaitingTime: 1,
			ReworkRate: 100, Throughput: 10, BottleneckSeverity: SeverityHigh,
		},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Fatalf("operation summaries mismatch (-want +got):\n%s", diff)
	}

	bottlenecks := c.Bottlenecks()
	require.Len(t, bottlenecks, 3)
	require.Equal(t, "Waiting time of 1.3h above the high threshold (0.50h)", bottlenecks[0].Reason)
	require.Equal(t, "High rework rate (50.0%) causing queue buildup", bottlenecks[1].Reason)
	require.Equal(t, 0.4, bottlenecks[1].WaitingToCycleRatio)
}

func TestOperationSummariesMissingActivityColumn(t *testing.T) {
	mes := table.New("MES.csv", []string{"Temps Réel"}, [][]any{{1.0}})
	c, m := newTestCalculator(t, nil, mes, nil)

	ops := c.OperationSummaries()
	require.Equal(t, c.mockOperationSummaries(), ops)
	require.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues(SectionOperations, metrics.ReasonMissingColumn)))
}

func TestBottleneckReason(t *testing.T) {
	p := DefaultPolicy()
	op := OperationSummary{AvgCycleTime: 0.5, AvgWaitingTime: 0.6, ReworkRate: 4, BottleneckSeverity: SeverityHigh}
	require.Equal(t, "Waiting time exceeds cycle time significantly", bottleneckReason(op, 1.2, p))

	op.ReworkRate = 16
	require.Equal(t, "High rework rate (16.0%) causing queue buildup", bottleneckReason(op, 1.2, p))
}

func TestBottlenecksSortHighFirst(t *testing.T) {
	c, _ := newTestCalculator(t, nil, nil, nil)
	got := c.bottlenecksFrom([]OperationSummary{
		{Operation: "A", AvgCycleTime: 1, AvgWaitingTime: 0.3, BottleneckSeverity: SeverityMedium},
		{Operation: "B", AvgCycleTime: 1, AvgWaitingTime: 0.2, BottleneckSeverity: SeverityLow},
		{Operation: "C", AvgCycleTime: 1, AvgWaitingTime: 0.8, BottleneckSeverity: SeverityHigh},
		{Operation: "D", AvgCycleTime: 0, AvgWaitingTime: 0.4, BottleneckSeverity: SeverityMedium},
	})
	var names []string
	for _, b := range got {
		names = append(names, b.Operation)
	}
	require.Equal(t, []string{"C", "A", "D"}, names)
	require.Zero(t, got[2].WaitingToCycleRatio, "zero cycle time gives a zero ratio")
}

func TestGuardRecoversPanic(t *testing.T) {
	c, m := newTestCalculator(t, nil, nil, nil)
	got := guard(c, "test", mockERPKPIs, func() (ERPKPIs, error) {
		var rows []float64
		_ = rows[3]
		return ERPKPIs{}, nil
	})
	require.Equal(t, mockERPKPIs(), got)
	require.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("test", metrics.ReasonRecovered)))
}

func TestGuardRejectsNonFinite(t *testing.T) {
	c, m := newTestCalculator(t, nil, nil, nil)
	got := guard(c, "test", mockMESKPIs, func() (MESKPIs, error) {
		return MESKPIs{TauxAleas: math.NaN()}, nil
	})
	require.Equal(t, mockMESKPIs(), got)

	got = guard(c, "test", mockMESKPIs, func() (MESKPIs, error) {
		return MESKPIs{}, errors.New("boom")
	})
	require.Equal(t, mockMESKPIs(), got)
	require.Equal(t, 2.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("test", metrics.ReasonRecovered)))
}

func TestGuardPassesResultThrough(t *testing.T) {
	c, m := newTestCalculator(t, nil, nil, nil)
	want := CrossKPIs{ImpactAleas: 1, CoutRetard: 2}
	got := guard(c, "test", mockCrossKPIs, func() (CrossKPIs, error) { return want, nil })
	require.Equal(t, want, got)
	require.Equal(t, 0, testutil.CollectAndCount(m.FallbacksTotal))
}
