package engine

import (
	"log/slog"

	"github.com/NotHilal/PLM-Hackaton/metrics"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for New()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Policy  Policy
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// WithPolicy replaces the default thresholds (severity, rework tolerance,
// insight triggers, improvement targets).
func WithPolicy(p Policy) Option {
	return func(c *config) {
		c.Policy = p
	}
}

// WithLogger sets the logger that reports fallbacks.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		c.Logger = log
	}
}

// WithMetrics records section counts, fallbacks and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.Metrics = m
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Policy: DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop()
	}
	return cfg
}
