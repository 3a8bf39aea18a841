package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NotHilal/PLM-Hackaton/table"
)

// ============================================================================
// AGGREGATORS — Alias-resolved column metrics
// ============================================================================
// Every metric follows the same pattern:
//   1. resolve a named column from its aliases (exact, then case-insensitive)
//   2. else take the nth numeric column by position (nth < 0 disables this)
//   3. aggregate its non-missing values (mean or sum)
//   4. 0 when nothing could be aggregated
// A named column with no convertible values falls through to step 2.
// ============================================================================

type aggregation int

const (
	aggMean aggregation = iota
	aggSum
)

// metric describes how one KPI is read from a table.
type metric struct {
	aliases []string
	nth     int
	agg     aggregation
	conv    table.Converter
}

func mean(nth int, aliases ...string) metric {
	return metric{aliases: aliases, nth: nth, agg: aggMean, conv: table.ToFloat}
}

func sum(nth int, aliases ...string) metric {
	return metric{aliases: aliases, nth: nth, agg: aggSum, conv: table.ToFloat}
}

// hours converts the metric's values with the Time Normalizer.
func (m metric) hours() metric {
	m.conv = table.ToHours
	return m
}

func (m metric) eval(v table.View) float64 {
	val, _ := m.lookup(v)
	return val
}

// lookup is eval that also reports whether any value was aggregated.
func (m metric) lookup(v table.View) (float64, bool) {
	if col, ok := table.Resolve(v, m.aliases...); ok {
		if val, ok := m.aggregate(v, col); ok {
			return val, true
		}
	}
	if m.nth >= 0 {
		numeric := table.NumericColumns(v)
		if m.nth < len(numeric) {
			if val, ok := m.aggregate(v, numeric[m.nth]); ok {
				return val, true
			}
		}
	}
	return 0, false
}

func (m metric) aggregate(v table.View, col string) (float64, bool) {
	if m.agg == aggSum {
		return table.Sum(v, col, m.conv)
	}
	return table.Mean(v, col, m.conv)
}

// ============================================================================
// COLUMN ALIASES
// ============================================================================
// Localized spelling first, then anglicized and snake_case variants.

var (
	// ERP
	erpCriticite = mean(0, "Criticité", "criticite", "criticité", "criticite_moyenne")
	erpCout      = sum(1, "Coût", "Cout", "cost", "cout_total")
	erpMasse     = sum(2, "Masse", "masse", "weight")
	erpDelai     = mean(3, "Délai", "Delai", "delai", "delay")
	erpTempsCAO  = sum(4, "Temps CAO", "Temps_CAO", "temps_cao").hours()

	// MES
	mesEcart        = mean(0, "Ecart_Temps", "Écart_Temps", "ecart_moyen_temps", "ecart", "ecart_moyen").hours()
	mesTauxAleas    = mean(1, "Taux_Aleas", "Taux_Aléas", "taux_aleas", "taux_aleatoire", "taux")
	mesTempsArret   = mean(2, "Temps_Arret", "temps_arret", "temps_arret_moyen").hours()
	mesProductivite = mean(3, "Productivite", "productivite_poste", "productivite", "productivite_par_poste")

	// PLM
	plmCoutMO = sum(0, "Coût MO", "Cout_MO", "cout_mo_total", "cost")
	plmScore  = mean(1, "Score", "score_competence", "competence")

	// Resources (ERP workforce)
	resLaborCost  = mean(-1, "Coût horaire (€)", "Coût horaire", "Cout_horaire", "cout_horaire", "Taux horaire", "hourly_cost", "labor_cost")
	resAge        = mean(-1, "Âge", "Age", "age")
	resExperience = mean(-1, "Expérience (années)", "Expérience", "Experience", "experience_years", "experience")

	// Supply chain (PLM parts)
	scCost        = sum(-1, "Coût achat pièce (€)", "Coût achat pièce", "Cout_achat", "cout_achat", "Coût", "cost")
	scLeadTime    = mean(-1, "Délai approvisionnement (jours)", "Délai approvisionnement", "Délai", "Delai", "delai", "lead_time")
	scCriticality = mean(-1, "Criticité", "Criticite", "criticite", "criticality")
	scWeight      = sum(-1, "Masse (kg)", "Masse", "masse", "weight")
	scCAOTime     = sum(-1, "Temps CAO (h)", "Temps CAO", "Temps_CAO", "temps_cao").hours()
)

// Columns that are read, not aggregated.
var (
	colSeniority     = []string{"Seniority", "seniority_mix"}
	colActualTime    = []string{"Temps Réel", "Temps_Reel", "temps_reel", "actual_time"}
	colPlannedTime   = []string{"Temps Prévu", "Temps_Prevu", "temps_prevu", "planned_time"}
	colPieces        = []string{"Nombre pièces", "Nombre_pieces", "nombre_pieces", "pieces"}
	colIncident      = []string{"Aléas Industriels", "Aleas_Industriels", "aleas"}
	colActivity      = []string{"Nom", "nom", "Operation", "operation", "activity"}
	colStation       = []string{"Poste", "poste", "station"}
	colStatus        = []string{"Statut", "Status", "statut", "status"}
	colQualification = []string{"Qualification", "qualification", "Métier", "metier"}
	colSupplier      = []string{"Fournisseur", "fournisseur", "Supplier", "supplier"}
)

// departedStatuses mark an employee who left, for the rotation rate.
var departedStatuses = map[string]bool{
	"départ": true, "depart": true, "parti": true, "sorti": true,
	"left": true, "inactive": true, "resigned": true,
}

// ============================================================================
// SORTING
// ============================================================================

// sortPointsDesc orders points by value, largest first. Equal values keep
// their order.
func sortPointsDesc(points []ChartPoint) {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Value > points[j].Value })
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatCurrency formats an amount with currency prefix and comma separators.
func FormatCurrency(amount float64, currency string) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	cents := int64(amount*100 + 0.5)
	intStr := FormatInt(int(cents / 100))

	result := fmt.Sprintf("%s %s.%02d", currency, intStr, cents%100)
	if negative {
		result = "-" + result
	}
	return result
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// normalizeLabel lowercases and trims a text cell for set lookups.
func normalizeLabel(v any) string {
	return strings.ToLower(table.Stringify(v))
}
