package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fallback reasons recorded on FallbacksTotal.
const (
	ReasonMissingTable  = "missing_table"
	ReasonMissingColumn = "missing_column"
	ReasonRecovered     = "recovered"
)

// Load statuses recorded on TableLoadsTotal.
const (
	StatusLoaded    = "loaded"
	StatusNotFound  = "not_found"
	StatusMalformed = "malformed"
	StatusFailed    = "failed"
)

// Metrics holds Prometheus metrics for the KPI engine, table store and
// analytics cache.
type Metrics struct {
	SectionsTotal   *prometheus.CounterVec
	FallbacksTotal  *prometheus.CounterVec
	SectionDuration *prometheus.HistogramVec

	TableLoadsTotal    *prometheus.CounterVec
	SnapshotSwapsTotal prometheus.Counter

	CacheRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates metrics registered with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plm_kpi_sections_total",
			Help: "Total number of KPI sections computed",
		}, []string{"section"}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plm_kpi_fallbacks_total",
			Help: "Total number of KPI sections that returned their fallback result",
		}, []string{"section", "reason"}),
		SectionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plm_kpi_section_duration_seconds",
			Help:    "Time spent computing a KPI section",
			Buckets: prometheus.DefBuckets,
		}, []string{"section"}),
		TableLoadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plm_table_loads_total",
			Help: "Total number of table load attempts by category and outcome",
		}, []string{"category", "status"}),
		SnapshotSwapsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "plm_snapshot_swaps_total",
			Help: "Total number of table snapshot replacements",
		}),
		CacheRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plm_cache_requests_total",
			Help: "Total number of analytics cache lookups by result",
		}, []string{"result"}),
	}
}

// Noop returns metrics registered with a private registry, for callers that
// do not export them.
func Noop() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
