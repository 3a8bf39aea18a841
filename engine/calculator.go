package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/NotHilal/PLM-Hackaton/metrics"
	"github.com/NotHilal/PLM-Hackaton/table"
)

// ============================================================================
// CALCULATOR — Per-section KPI computation over one table snapshot
// ============================================================================
// Entry point: New(erp, mes, plm, opts...)
//
// Every section runs inside guard():
//   - absent table           → the section's mock (reason missing_table)
//   - required column absent → the section's mock (reason missing_column)
//   - panic, error or NaN    → the section's mock (reason recovered)
// A failing section never affects another one. Sections hold no state, so
// calling one twice returns the same result. All lists the sections of its
// own run that fell back.
// ============================================================================

// Section names, as recorded in metrics and logs.
const (
	SectionERP           = "erp"
	SectionMES           = "mes"
	SectionPLM           = "plm"
	SectionCross         = "cross"
	SectionWorkflow      = "workflow"
	SectionProcessMining = "process_mining"
	SectionOperations    = "operations"
	SectionBottlenecks   = "bottlenecks"
	SectionResources     = "resources"
	SectionSupplyChain   = "supply_chain"
)

var (
	errMissingTable  = errors.New("table not loaded")
	errMissingColumn = errors.New("required column not found")
	errNonFinite     = errors.New("non-finite result")
)

// Calculator derives KPIs from an ERP / MES / PLM triple. Any table may be
// nil. A Calculator is safe for concurrent use.
type Calculator struct {
	erp, mes, plm *table.Table

	cfg *config
	log *slog.Logger

	fallbacks *fallbackSet // set only on the copy All runs on
}

func New(erp, mes, plm *table.Table, opts ...Option) *Calculator {
	cfg := applyOptions(opts)
	return &Calculator{
		erp: erp,
		mes: mes,
		plm: plm,
		cfg: cfg,
		log: cfg.Logger,
	}
}

// Policy returns the thresholds in use.
func (c *Calculator) Policy() Policy {
	return c.cfg.Policy
}

// All computes every domain.
func (c *Calculator) All() AllKPIs {
	run := *c
	run.fallbacks = &fallbackSet{}
	k := AllKPIs{
		ERP:      run.ERPKPIs(),
		MES:      run.MESKPIs(),
		PLM:      run.PLMKPIs(),
		Cross:    run.CrossKPIs(),
		Workflow: run.WorkflowKPIs(),
		ProcessMining: ProcessMiningSection{
			KPIs:        run.ProcessMiningKPIs(),
			Operations:  run.OperationSummaries(),
			Bottlenecks: run.Bottlenecks(),
		},
	}
	k.Fallbacks = run.fallbacks.sorted()
	return k
}

// fallbackSet collects the sections that served their fallback.
type fallbackSet struct {
	mu       sync.Mutex
	sections []string
}

func (s *fallbackSet) add(section string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.sections, section) {
		s.sections = append(s.sections, section)
	}
}

func (s *fallbackSet) sorted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(slices.Values(s.sections))
}

// ============================================================================
// GUARD
// ============================================================================

// finiteChecker is implemented by results that can hold NaN or Inf.
type finiteChecker interface {
	finite() bool
}

// guard runs compute and substitutes fallback on any failure.
func guard[T any](c *Calculator, section string, fallback func() T, compute func() (T, error)) T {
	m := c.cfg.Metrics
	start := time.Now()
	m.SectionsTotal.WithLabelValues(section).Inc()
	defer func() {
		m.SectionDuration.WithLabelValues(section).Observe(time.Since(start).Seconds())
	}()

	out, err := protect(compute)
	if err == nil {
		if f, ok := any(out).(finiteChecker); ok && !f.finite() {
			err = errNonFinite
		}
	}
	if err == nil {
		return out
	}

	reason := metrics.ReasonRecovered
	switch {
	case errors.Is(err, errMissingTable):
		reason = metrics.ReasonMissingTable
		c.log.Debug("engine: table absent, using mock", "section", section)
	case errors.Is(err, errMissingColumn):
		reason = metrics.ReasonMissingColumn
		c.log.Warn("engine: section fell back", "section", section, "reason", reason, "error", err)
	default:
		c.log.Error("engine: section failed, using fallback", "section", section, "error", err)
	}
	m.FallbacksTotal.WithLabelValues(section, reason).Inc()
	if c.fallbacks != nil {
		c.fallbacks.add(section)
	}
	return fallback()
}

// protect converts a panic in compute into an error.
func protect[T any](compute func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return compute()
}

func (k ERPKPIs) finite() bool {
	return table.Finite(k.CriticiteMoyenne, k.CoutTotal, k.MasseTotale, k.DelaiMoyenFournisseur, k.TempsCAOTotal)
}

func (k MESKPIs) finite() bool {
	return table.Finite(k.EcartMoyenTemps, k.TauxAleas, k.TempsArretMoyen, k.ProductivitePoste)
}

func (k PLMKPIs) finite() bool {
	return table.Finite(k.CoutMOTotal, k.ScoreCompetence)
}

func (k ProcessMiningKPIs) finite() bool {
	ok := table.Finite(k.AvgLeadTime, k.ReworkRate, k.Throughput, k.AvgCycleTime)
	if b := k.VarianceBreakdown; b != nil {
		ok = ok && table.Finite(b.MeanVariancePercent, b.OnTime.Percentage, b.Minor.Percentage, b.Moderate.Percentage, b.Severe.Percentage)
	}
	return ok
}

func (k ResourceKPIs) finite() bool {
	return table.Finite(k.AvgLaborCost, k.TotalLaborCost, k.AvgAge, k.AvgExperience, k.RotationRate)
}

func (k SupplyChainKPIs) finite() bool {
	return table.Finite(k.TotalProcurementCost, k.AvgLeadTime, k.AvgCriticality, k.TotalWeight, k.TotalCAOTime)
}

func finitePoints(points []ChartPoint) bool {
	for _, p := range points {
		if !table.Finite(p.Value) {
			return false
		}
	}
	return true
}
