package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/NotHilal/PLM-Hackaton/table"
)

// ============================================================================
// DOMAIN KPIs — ERP / MES / PLM / CROSS / WORKFLOW
// ============================================================================

// ERPKPIs computes criticality, cost, mass, supplier delay and CAO time.
func (c *Calculator) ERPKPIs() ERPKPIs {
	return guard(c, SectionERP, mockERPKPIs, func() (ERPKPIs, error) {
		if c.erp == nil {
			return ERPKPIs{}, errMissingTable
		}
		return ERPKPIs{
			CriticiteMoyenne:      table.RoundTo1(erpCriticite.eval(c.erp)),
			CoutTotal:             table.RoundTo2(erpCout.eval(c.erp)),
			MasseTotale:           table.RoundTo2(erpMasse.eval(c.erp)),
			DelaiMoyenFournisseur: table.RoundTo1(erpDelai.eval(c.erp)),
			TempsCAOTotal:         table.RoundTo1(erpTempsCAO.eval(c.erp)),
		}, nil
	})
}

// MESKPIs computes time deviation, incident rate, downtime and productivity.
func (c *Calculator) MESKPIs() MESKPIs {
	return guard(c, SectionMES, mockMESKPIs, func() (MESKPIs, error) {
		if c.mes == nil {
			return MESKPIs{}, errMissingTable
		}
		return MESKPIs{
			EcartMoyenTemps:   table.RoundTo1(mesEcart.eval(c.mes)),
			TauxAleas:         table.RoundTo1(mesTauxAleas.eval(c.mes)),
			TempsArretMoyen:   table.RoundTo1(mesTempsArret.eval(c.mes)),
			ProductivitePoste: table.RoundTo1(mesProductivite.eval(c.mes)),
		}, nil
	})
}

// PLMKPIs computes labor cost, competence score and seniority mix.
func (c *Calculator) PLMKPIs() PLMKPIs {
	return guard(c, SectionPLM, mockPLMKPIs, func() (PLMKPIs, error) {
		if c.plm == nil {
			return PLMKPIs{}, errMissingTable
		}
		return PLMKPIs{
			CoutMOTotal:     table.RoundTo2(plmCoutMO.eval(c.plm)),
			ScoreCompetence: table.RoundTo1(plmScore.eval(c.plm)),
			SeniorityMix:    seniorityMix(c.plm),
		}, nil
	})
}

// seniorityMix is the share of "Expert" rows among the rows with a
// seniority value. Without a seniority column the default mix applies.
func seniorityMix(v table.View) SeniorityMix {
	col, ok := table.Resolve(v, colSeniority...)
	if !ok {
		return mockPLMKPIs().SeniorityMix
	}
	experts, present := 0, 0
	for i := 0; i < v.Len(); i++ {
		val := v.Value(i, col)
		if table.IsNull(val) {
			continue
		}
		present++
		if strings.EqualFold(table.Stringify(val), "expert") {
			experts++
		}
	}
	if present == 0 {
		return mockPLMKPIs().SeniorityMix
	}
	pct := int(math.Round(float64(experts) / float64(present) * 100))
	return SeniorityMix{Experts: pct, Juniors: 100 - pct}
}

// CrossKPIs returns the fixed cross-domain indicators.
func (c *Calculator) CrossKPIs() CrossKPIs {
	return guard(c, SectionCross, mockCrossKPIs, func() (CrossKPIs, error) {
		return mockCrossKPIs(), nil
	})
}

// WorkflowKPIs returns the line indicators and per-station availability.
func (c *Calculator) WorkflowKPIs() WorkflowKPIs {
	return guard(c, SectionWorkflow, mockWorkflowKPIs, func() (WorkflowKPIs, error) {
		return mockWorkflowKPIs(), nil
	})
}

// stationAvailability is the fixed availability table Poste_1..Poste_40.
func stationAvailability() map[string]float64 {
	out := make(map[string]float64, 40)
	for i := 1; i <= 40; i++ {
		out[fmt.Sprintf("Poste_%d", i)] = table.RoundTo2(0.75 + float64(i%10)*0.02)
	}
	return out
}
