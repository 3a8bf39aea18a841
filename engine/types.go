package engine

// ============================================================================
// KPI ENGINE TYPES — Render-ready results per domain
// ============================================================================
// JSON field names are the ones dashboards already consume: snake_case for
// the ERP / MES / PLM / CROSS / WORKFLOW blocks, camelCase for process
// mining and analytics.
//
// Every result is a pure function of the tables the Calculator was built
// with. Absent tables yield the fixed mocks in mocks.go.
// ============================================================================

// ============================================================================
// DOMAIN KPIs
// ============================================================================

// ERPKPIs summarizes the ERP extract.
type ERPKPIs struct {
	CriticiteMoyenne      float64 `json:"criticite_moyenne"`
	CoutTotal             float64 `json:"cout_total"`
	MasseTotale           float64 `json:"masse_totale"`
	DelaiMoyenFournisseur float64 `json:"delai_moyen_fournisseur"`
	TempsCAOTotal         float64 `json:"temps_cao_total"`
}

// MESKPIs summarizes the MES extract.
type MESKPIs struct {
	EcartMoyenTemps   float64 `json:"ecart_moyen_temps"`
	TauxAleas         float64 `json:"taux_aleas"`
	TempsArretMoyen   float64 `json:"temps_arret_moyen"`
	ProductivitePoste float64 `json:"productivite_poste"`
}

// PLMKPIs summarizes the PLM extract.
type PLMKPIs struct {
	CoutMOTotal     float64      `json:"cout_mo_total"`
	ScoreCompetence float64      `json:"score_competence"`
	SeniorityMix    SeniorityMix `json:"seniority_mix"`
}

// SeniorityMix splits the workforce in percent. Experts + Juniors = 100.
type SeniorityMix struct {
	Experts int `json:"experts"`
	Juniors int `json:"juniors"`
}

// CrossKPIs are cross-domain indicators. They are fixed values until a
// source carries the underlying data.
type CrossKPIs struct {
	ImpactAleas float64 `json:"impact_aleas"`
	CoutRetard  float64 `json:"cout_retard"`
}

// WorkflowKPIs describes the line as a whole.
type WorkflowKPIs struct {
	BottleneckIndex       float64            `json:"bottleneck_index"`
	CycleTimeGlobal       float64            `json:"cycle_time_global"`
	DisponibiliteParPoste map[string]float64 `json:"disponibilite_par_poste"`
}

// ============================================================================
// PROCESS MINING
// ============================================================================

// Rework methods, most precise first.
const (
	ReworkByVariance = "variance" // actual vs planned time
	ReworkByIncident = "incident" // incident field present
	ReworkDefault    = "default"  // fixed fallback constant
)

// ProcessMiningKPIs are the headline process-mining indicators of the MES
// extract. Times are hours.
type ProcessMiningKPIs struct {
	TotalWIP            int                `json:"totalWIP"`
	AvgLeadTime         float64            `json:"avgLeadTime"`
	ReworkRate          float64            `json:"reworkRate"`
	ReworkMethod        string             `json:"reworkMethod"`
	Throughput          float64            `json:"throughput"`
	BottleneckOperation string             `json:"bottleneckOperation"`
	DeltaWIP            int                `json:"deltaWIP"`
	DeltaLeadTime       int                `json:"deltaLeadTime"`
	TotalCases          int                `json:"totalCases"`
	AvgCycleTime        float64            `json:"avgCycleTime"`
	VarianceBreakdown   *VarianceBreakdown `json:"varianceBreakdown,omitempty"`
}

// VarianceBreakdown buckets rows by (actual − planned) / planned.
type VarianceBreakdown struct {
	OnTime              VarianceBucket `json:"onTime"`   // ≤ 10 %
	Minor               VarianceBucket `json:"minor"`    // (10 %, 25 %]
	Moderate            VarianceBucket `json:"moderate"` // (25 %, 40 %]
	Severe              VarianceBucket `json:"severe"`   // > 40 %
	Evaluated           int            `json:"evaluated"`
	MeanVariancePercent float64        `json:"meanVariancePercent"`
}

// VarianceBucket is one band of the breakdown. Percentage is over the
// evaluated rows.
type VarianceBucket struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Severity is the ordinal bottleneck level of an operation.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities: none < low < medium < high.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	}
	return 0
}

// OperationSummary aggregates the MES rows of one activity.
type OperationSummary struct {
	Operation          string   `json:"operation"`
	StationID          string   `json:"stationId,omitempty"`
	CurrentWIP         int      `json:"currentWIP"`
	AvgCycleTime       float64  `json:"avgCycleTime"`
	AvgActualTime      float64  `json:"avgActualTime"`
	AvgWaitingTime     float64  `json:"avgWaitingTime"`
	CaseCount          int      `json:"caseCount"`
	ReworkRate         float64  `json:"reworkRate"`
	Throughput         float64  `json:"throughput"`
	BottleneckSeverity Severity `json:"bottleneckSeverity"`
}

// Bottleneck is an operation whose severity is medium or high.
type Bottleneck struct {
	Operation           string   `json:"operation"`
	StationID           string   `json:"station_id,omitempty"`
	AvgWaitingTime      float64  `json:"avgWaitingTime"`
	AvgCycleTime        float64  `json:"avgCycleTime"`
	WaitingToCycleRatio float64  `json:"waitingToCycleRatio"`
	CurrentWIP          int      `json:"currentWIP"`
	ReworkRate          float64  `json:"reworkRate"`
	Severity            Severity `json:"severity"`
	Reason              string   `json:"reason"`
}

// ProcessMiningSection groups the process-mining outputs of All.
type ProcessMiningSection struct {
	KPIs        ProcessMiningKPIs  `json:"kpis"`
	Operations  []OperationSummary `json:"operations"`
	Bottlenecks []Bottleneck       `json:"bottlenecks"`
}

// AllKPIs is every domain in one structure.
type AllKPIs struct {
	ERP           ERPKPIs              `json:"ERP"`
	MES           MESKPIs              `json:"MES"`
	PLM           PLMKPIs              `json:"PLM"`
	Cross         CrossKPIs            `json:"CROSS"`
	Workflow      WorkflowKPIs         `json:"WORKFLOW"`
	ProcessMining ProcessMiningSection `json:"PROCESS_MINING"`

	// Fallbacks names the sections served from mock results, sorted.
	Fallbacks []string `json:"fallbacks,omitempty"`
}

// ============================================================================
// ANALYTICS (ERP & PLM)
// ============================================================================

// ResourceKPIs describes the workforce in the ERP extract.
type ResourceKPIs struct {
	TotalEmployees int     `json:"totalEmployees"`
	AvgLaborCost   float64 `json:"avgLaborCost"`
	TotalLaborCost float64 `json:"totalLaborCost"`
	AvgAge         float64 `json:"avgAge"`
	AvgExperience  float64 `json:"avgExperience"`
	RotationRate   float64 `json:"rotationRate"`
}

// SupplyChainKPIs describes the parts in the PLM extract.
type SupplyChainKPIs struct {
	TotalParts           int     `json:"totalParts"`
	TotalProcurementCost float64 `json:"totalProcurementCost"`
	AvgLeadTime          float64 `json:"avgLeadTime"`
	CriticalPartsCount   int     `json:"criticalPartsCount"`
	AvgCriticality       float64 `json:"avgCriticality"`
	TotalWeight          float64 `json:"totalWeight"`
	TotalCAOTime         float64 `json:"totalCAOTime"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartPoint is one name/value pair.
type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ChartGroup is a named set of points, for grouped bar charts.
type ChartGroup struct {
	Name   string       `json:"name"`
	Series []ChartPoint `json:"series"`
}
