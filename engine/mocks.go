package engine

import "github.com/NotHilal/PLM-Hackaton/table"

// ============================================================================
// MOCKS — Fixed results for absent tables
// ============================================================================
// Every value is a literal so that two runs, or two machines, always return
// the same output. Operation severities go through the policy like real data.
// ============================================================================

func mockERPKPIs() ERPKPIs {
	return ERPKPIs{
		CriticiteMoyenne:      2.8,
		CoutTotal:             125000.0,
		MasseTotale:           3500.0,
		DelaiMoyenFournisseur: 12.5,
		TempsCAOTotal:         350.0,
	}
}

func mockMESKPIs() MESKPIs {
	return MESKPIs{
		EcartMoyenTemps:   15.0,
		TauxAleas:         8.5,
		TempsArretMoyen:   25.0,
		ProductivitePoste: 45.0,
	}
}

func mockPLMKPIs() PLMKPIs {
	return PLMKPIs{
		CoutMOTotal:     85000.0,
		ScoreCompetence: 7.8,
		SeniorityMix:    SeniorityMix{Experts: 35, Juniors: 65},
	}
}

func mockCrossKPIs() CrossKPIs {
	return CrossKPIs{ImpactAleas: 12.5, CoutRetard: 15000.0}
}

func mockWorkflowKPIs() WorkflowKPIs {
	return WorkflowKPIs{
		BottleneckIndex:       0.75,
		CycleTimeGlobal:       5.8,
		DisponibiliteParPoste: stationAvailability(),
	}
}

func (c *Calculator) mockProcessMiningKPIs() ProcessMiningKPIs {
	t := c.cfg.Policy.Targets
	return ProcessMiningKPIs{
		TotalWIP:            75,
		AvgLeadTime:         5.4,
		ReworkRate:          7.8,
		ReworkMethod:        ReworkDefault,
		Throughput:          16.3,
		BottleneckOperation: "Assemblage",
		DeltaWIP:            t.DeltaWIP,
		DeltaLeadTime:       t.DeltaLeadTime,
		TotalCases:          500,
		AvgCycleTime:        22.5,
	}
}

// mockOperations is the five-step line: cycle and waiting times in hours.
var mockOperations = []struct {
	name       string
	station    string
	wip        int
	cycle      float64
	waiting    float64
	cases      int
	rework     float64
	throughput float64
}{
	{"Découpe", "STATION_01", 12, 1.2, 0.0, 450, 8.0, 16.0},
	{"Perçage", "STATION_02", 14, 0.8, 0.2, 460, 9.5, 16.5},
	{"Peinture", "STATION_03", 16, 1.5, 0.3, 470, 11.0, 17.0},
	{"Assemblage", "STATION_04", 18, 2.5, 0.9, 480, 12.5, 17.5},
	{"Contrôle", "STATION_05", 20, 0.5, 0.1, 490, 14.0, 18.0},
}

func (c *Calculator) mockOperationSummaries() []OperationSummary {
	p := c.cfg.Policy
	out := make([]OperationSummary, len(mockOperations))
	for i, op := range mockOperations {
		out[i] = OperationSummary{
			Operation:          op.name,
			StationID:          op.station,
			CurrentWIP:         op.wip,
			AvgCycleTime:       op.cycle,
			AvgActualTime:      table.RoundTo1(op.cycle + op.waiting),
			AvgWaitingTime:     op.waiting,
			CaseCount:          op.cases,
			ReworkRate:         op.rework,
			Throughput:         op.throughput,
			BottleneckSeverity: p.SeverityOf(op.waiting),
		}
	}
	return out
}

func mockResourceKPIs() ResourceKPIs {
	return ResourceKPIs{
		TotalEmployees: 40,
		AvgLaborCost:   45.5,
		TotalLaborCost: 1820.0,
		AvgAge:         38.5,
		AvgExperience:  9.2,
		RotationRate:   6.5,
	}
}

func mockSupplyChainKPIs() SupplyChainKPIs {
	return SupplyChainKPIs{
		TotalParts:           250,
		TotalProcurementCost: 125000.0,
		AvgLeadTime:          12.5,
		CriticalPartsCount:   45,
		AvgCriticality:       2.8,
		TotalWeight:          3500.0,
		TotalCAOTime:         350.0,
	}
}
