// Package analytics serves every KPI view of the active table snapshot.
//
// Results are memoized per snapshot, so a reload or a table replacement
// invalidates them. Each call reads the snapshot once and computes
// everything from that snapshot alone.
package analytics

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/jonboulle/clockwork"

	"github.com/NotHilal/PLM-Hackaton/engine"
	"github.com/NotHilal/PLM-Hackaton/eventlog"
	"github.com/NotHilal/PLM-Hackaton/graph"
	"github.com/NotHilal/PLM-Hackaton/insight"
	"github.com/NotHilal/PLM-Hackaton/metrics"
	"github.com/NotHilal/PLM-Hackaton/store"
)

const defaultCacheTTL = 5 * time.Minute

// Sections, also used as cache keys.
const (
	SectionKPIs         = "kpis"
	SectionOperations   = "operations"
	SectionBottlenecks  = "bottlenecks"
	SectionResources    = "resources"
	SectionSupplyChain  = "supply_chain"
	SectionInsights     = "insights"
	SectionEventLog     = "event_log"
	SectionEventMetrics = "event_metrics"
	SectionGraph        = "graph"
)

// ErrUnknownChart is returned by Chart for a name not in ChartNames.
var ErrUnknownChart = errors.New("unknown chart")

// ChartNames lists the charts Chart serves.
var ChartNames = []string{
	engine.ChartWIPByOperation,
	engine.ChartCycleVsWaiting,
	engine.ChartReworkRate,
	engine.ChartCostByQualification,
	engine.ChartExperienceDistribution,
	engine.ChartSupplierDistribution,
	engine.ChartCriticalityDistribution,
}

// Snapshots hands out the active snapshot. *store.Store implements it.
type Snapshots interface {
	Current() *store.Snapshot
}

type ProviderConfig struct {
	Logger    *slog.Logger
	Snapshots Snapshots
	Clock     clockwork.Clock
	Metrics   *metrics.Metrics

	// Policy defaults to engine.DefaultPolicy.
	Policy engine.Policy
	// Miner defaults to graph.DFGMiner.
	Miner  graph.Miner

	// VarianceRework also flags event-log rows that overrun their plan by
	// more than the policy's rework tolerance.
	VarianceRework bool

	CacheTTL time.Duration
}

func (c *ProviderConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Snapshots == nil {
		return errors.New("snapshots are required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.Noop()
	}
	if c.Policy == (engine.Policy{}) {
		c.Policy = engine.DefaultPolicy()
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	if c.Miner == nil {
		c.Miner = graph.DFGMiner{}
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = defaultCacheTTL
	}
	return nil
}

type Provider struct {
	log *slog.Logger
	cfg ProviderConfig

	cache    *ttlcache.Cache[string, any]
	cacheMu  sync.RWMutex
	cachedID string // snapshot the cache was last filled for

	builder *graph.Builder
}

func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Provider{
		log: cfg.Logger,
		cfg: cfg,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, any](cfg.CacheTTL),
		),
		builder: graph.NewBuilder(cfg.Miner, graph.WithLogger(cfg.Logger)),
	}, nil
}

// Snapshot returns the snapshot the next call will read.
func (p *Provider) Snapshot() *store.Snapshot {
	return p.cfg.Snapshots.Current()
}

func (p *Provider) Policy() engine.Policy {
	return p.cfg.Policy
}

// ============================================================================
// SECTIONS
// ============================================================================

// KPIs returns every KPI domain.
func (p *Provider) KPIs() engine.AllKPIs {
	return p.kpis(p.Snapshot())
}

func (p *Provider) Operations() []engine.OperationSummary {
	return p.kpis(p.Snapshot()).ProcessMining.Operations
}

func (p *Provider) Bottlenecks() []engine.Bottleneck {
	return p.kpis(p.Snapshot()).ProcessMining.Bottlenecks
}

func (p *Provider) Resources() engine.ResourceKPIs {
	snap := p.Snapshot()
	return cached(p, snap, SectionResources, func() engine.ResourceKPIs {
		return p.calculator(snap).ResourceKPIs()
	})
}

func (p *Provider) SupplyChain() engine.SupplyChainKPIs {
	snap := p.Snapshot()
	return cached(p, snap, SectionSupplyChain, func() engine.SupplyChainKPIs {
		return p.calculator(snap).SupplyChainKPIs()
	})
}

// Chart returns a chart series: []engine.ChartPoint, or []engine.ChartGroup
// for cycle-vs-waiting.
func (p *Provider) Chart(name string) (any, error) {
	snap := p.Snapshot()
	var compute func(c *engine.Calculator) any
	switch name {
	case engine.ChartWIPByOperation:
		compute = func(c *engine.Calculator) any { return c.WIPChart() }
	case engine.ChartCycleVsWaiting:
		compute = func(c *engine.Calculator) any { return c.CycleWaitingChart() }
	case engine.ChartReworkRate:
		compute = func(c *engine.Calculator) any { return c.ReworkChart() }
	case engine.ChartCostByQualification:
		compute = func(c *engine.Calculator) any { return c.CostByQualification() }
	case engine.ChartExperienceDistribution:
		compute = func(c *engine.Calculator) any { return c.ExperienceDistribution() }
	case engine.ChartSupplierDistribution:
		compute = func(c *engine.Calculator) any { return c.SupplierDistribution() }
	case engine.ChartCriticalityDistribution:
		compute = func(c *engine.Calculator) any { return c.CriticalityDistribution() }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
	return cached(p, snap, "chart:"+name, func() any {
		return compute(p.calculator(snap))
	}), nil
}

// Insights derives the insight report from the process-mining section.
func (p *Provider) Insights() *insight.Report {
	snap := p.Snapshot()
	return cached(p, snap, SectionInsights, func() *insight.Report {
		pm := p.kpis(snap).ProcessMining
		return insight.Generate(pm.KPIs, pm.Operations, pm.Bottlenecks, p.cfg.Policy)
	})
}

// EventLog returns the event log of the snapshot's MES table, or the
// synthetic log when there is none.
func (p *Provider) EventLog() []eventlog.Event {
	return p.eventLog(p.Snapshot())
}

func (p *Provider) EventMetrics() eventlog.Metrics {
	snap := p.Snapshot()
	return cached(p, snap, SectionEventMetrics, func() eventlog.Metrics {
		return eventlog.ComputeMetrics(p.eventLog(snap))
	})
}

// Graph mines the event log and annotates it with the bottlenecks.
func (p *Provider) Graph() *graph.Graph {
	snap := p.Snapshot()
	return cached(p, snap, SectionGraph, func() *graph.Graph {
		g := p.builder.Build(p.eventLog(snap))
		return graph.Annotate(g, p.kpis(snap).ProcessMining.Bottlenecks)
	})
}

func (p *Provider) kpis(snap *store.Snapshot) engine.AllKPIs {
	return cached(p, snap, SectionKPIs, func() engine.AllKPIs {
		return p.calculator(snap).All()
	})
}

func (p *Provider) eventLog(snap *store.Snapshot) []eventlog.Event {
	return cached(p, snap, SectionEventLog, func() []eventlog.Event {
		opts := []eventlog.Option{
			eventlog.WithClock(p.cfg.Clock),
			eventlog.WithLogger(p.log),
		}
		if p.cfg.VarianceRework {
			opts = append(opts, eventlog.WithVarianceRework(p.cfg.Policy.Rework.Tolerance))
		}
		return eventlog.NewGenerator(opts...).Generate(snap.MES)
	})
}

func (p *Provider) calculator(snap *store.Snapshot) *engine.Calculator {
	return engine.New(snap.ERP, snap.MES, snap.PLM,
		engine.WithPolicy(p.cfg.Policy),
		engine.WithLogger(p.log),
		engine.WithMetrics(p.cfg.Metrics),
	)
}
