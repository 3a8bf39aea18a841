package engine

import (
	"github.com/NotHilal/PLM-Hackaton/table"
)

// ============================================================================
// RESOURCE & SUPPLY CHAIN ANALYTICS
// ============================================================================
// Resources read the ERP workforce extract, supply chain the PLM parts
// extract. Columns resolve by name only: these tables carry too many
// unrelated numeric columns for a positional guess to mean anything.
// ============================================================================

// ResourceKPIs computes headcount, labor cost, age, experience and rotation.
func (c *Calculator) ResourceKPIs() ResourceKPIs {
	return guard(c, SectionResources, mockResourceKPIs, func() (ResourceKPIs, error) {
		if c.erp == nil {
			return ResourceKPIs{}, errMissingTable
		}
		v := c.erp
		k := ResourceKPIs{
			TotalEmployees: v.Len(),
			AvgLaborCost:   table.RoundTo2(resLaborCost.eval(v)),
			AvgAge:         table.RoundTo1(resAge.eval(v)),
			AvgExperience:  table.RoundTo1(resExperience.eval(v)),
			RotationRate:   table.RoundTo1(rotationRate(v)),
		}
		if col, ok := table.Resolve(v, resLaborCost.aliases...); ok {
			total, _ := table.Sum(v, col, table.ToFloat)
			k.TotalLaborCost = table.RoundTo2(total)
		}
		return k, nil
	})
}

// rotationRate is the percentage of employees whose status marks a departure.
func rotationRate(v table.View) float64 {
	col, ok := table.Resolve(v, colStatus...)
	if !ok || v.Len() == 0 {
		return 0
	}
	departed := 0
	for i := 0; i < v.Len(); i++ {
		if departedStatuses[normalizeLabel(v.Value(i, col))] {
			departed++
		}
	}
	return float64(departed) / float64(v.Len()) * 100
}

// SupplyChainKPIs computes part counts, procurement cost and criticality.
func (c *Calculator) SupplyChainKPIs() SupplyChainKPIs {
	return guard(c, SectionSupplyChain, mockSupplyChainKPIs, func() (SupplyChainKPIs, error) {
		if c.plm == nil {
			return SupplyChainKPIs{}, errMissingTable
		}
		v := c.plm
		return SupplyChainKPIs{
			TotalParts:           v.Len(),
			TotalProcurementCost: table.RoundTo2(scCost.eval(v)),
			AvgLeadTime:          table.RoundTo1(scLeadTime.eval(v)),
			CriticalPartsCount:   c.criticalParts(v),
			AvgCriticality:       table.RoundTo1(scCriticality.eval(v)),
			TotalWeight:          table.RoundTo2(scWeight.eval(v)),
			TotalCAOTime:         table.RoundTo1(scCAOTime.eval(v)),
		}, nil
	})
}

// criticalParts counts parts at or above the policy's criticality threshold.
func (c *Calculator) criticalParts(v table.View) int {
	col, ok := table.Resolve(v, scCriticality.aliases...)
	if !ok {
		return 0
	}
	threshold := c.cfg.Policy.CriticalPartThreshold
	critical := table.Filter(v, func(i int) bool {
		f, ok := table.ToFloat(v.Value(i, col))
		return ok && f >= threshold
	})
	return critical.Len()
}
