package engine

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// POLICY — Thresholds shared by the engine and the insight rules
// ============================================================================
// All times are hours. A policy file only needs the keys it overrides:
//
//	severity:
//	  high: 0.5
//	insights:
//	  wip: 60
// ============================================================================

// Policy holds every tunable threshold.
type Policy struct {
	Severity SeverityThresholds `yaml:"severity"`
	Rework   ReworkPolicy       `yaml:"rework"`
	Insights InsightThresholds  `yaml:"insights"`
	Targets  ImprovementTargets `yaml:"targets"`

	// A part is critical when its criticality is at least this value.
	CriticalPartThreshold float64 `yaml:"critical_part_threshold"`
}

// SeverityThresholds classify the mean waiting time of an operation.
// A value strictly above a threshold reaches that level.
type SeverityThresholds struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
	Low    float64 `yaml:"low"`
}

// ReworkPolicy classifies the variance (actual − planned) / planned of a row.
type ReworkPolicy struct {
	Tolerance    float64 `yaml:"tolerance"` // above → rework
	OnTimeBand   float64 `yaml:"on_time_band"`
	MinorBand    float64 `yaml:"minor_band"`
	ModerateBand float64 `yaml:"moderate_band"`
}

// InsightThresholds trigger the warning insights.
type InsightThresholds struct {
	ReworkRate float64 `yaml:"rework_rate"` // percent
	WIP        int     `yaml:"wip"`
}

// ImprovementTargets are the optimization deltas reported with the
// process-mining KPIs, in percent.
type ImprovementTargets struct {
	DeltaWIP      int `yaml:"delta_wip"`
	DeltaLeadTime int `yaml:"delta_lead_time"`
}

// DefaultPolicy returns the built-in thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Severity: SeverityThresholds{High: 0.5, Medium: 0.25, Low: 0.1},
		Rework: ReworkPolicy{
			Tolerance:    0.40,
			OnTimeBand:   0.10,
			MinorBand:    0.25,
			ModerateBand: 0.40,
		},
		Insights:              InsightThresholds{ReworkRate: 8, WIP: 75},
		Targets:               ImprovementTargets{DeltaWIP: -15, DeltaLeadTime: -22},
		CriticalPartThreshold: 3,
	}
}

// LoadPolicy reads a YAML policy file over the defaults.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes YAML over the defaults and validates the result.
func ParsePolicy(data []byte) (Policy, error) {
	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("failed to parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func (p Policy) Validate() error {
	s := p.Severity
	if !(s.Low > 0 && s.Low < s.Medium && s.Medium < s.High) {
		return fmt.Errorf("invalid severity thresholds: need 0 < low < medium < high, got %v / %v / %v", s.Low, s.Medium, s.High)
	}
	r := p.Rework
	if !(r.OnTimeBand > 0 && r.OnTimeBand < r.MinorBand && r.MinorBand < r.ModerateBand) {
		return fmt.Errorf("invalid variance bands: need 0 < on_time < minor < moderate, got %v / %v / %v", r.OnTimeBand, r.MinorBand, r.ModerateBand)
	}
	if r.Tolerance <= 0 {
		return errors.New("rework tolerance must be positive")
	}
	if p.Insights.ReworkRate <= 0 || p.Insights.WIP <= 0 {
		return errors.New("insight thresholds must be positive")
	}
	return nil
}

// SeverityOf classifies a waiting time in hours.
func (p Policy) SeverityOf(waiting float64) Severity {
	switch {
	case waiting > p.Severity.High:
		return SeverityHigh
	case waiting > p.Severity.Medium:
		return SeverityMedium
	case waiting > p.Severity.Low:
		return SeverityLow
	}
	return SeverityNone
}

// threshold returns the waiting-time threshold of a severity level.
func (p Policy) threshold(s Severity) float64 {
	switch s {
	case SeverityHigh:
		return p.Severity.High
	case SeverityMedium:
		return p.Severity.Medium
	case SeverityLow:
		return p.Severity.Low
	}
	return 0
}
