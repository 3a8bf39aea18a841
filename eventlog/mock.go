package eventlog

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// ============================================================================
// SYNTHETIC LOG
// ============================================================================
// MockCases cases each run the five operations in order. Five cases start
// per day, two hours apart. Draws per operation, in this order:
//   duration   U(0.5, 2.0) h
//   rework     p = 0.15 for Peinture and Assemblage, 0.05 otherwise
//   gap        U(0.1, 0.5) h before the next operation
// The same seed always yields the same log.
// ============================================================================

const (
	MockSeed  = 42
	MockCases = 100
)

var mockBase = time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)

var mockOperations = []struct {
	name   string
	rework float64
}{
	{"Découpe", 0.05},
	{"Perçage", 0.05},
	{"Peinture", 0.15},
	{"Assemblage", 0.15},
	{"Contrôle", 0.05},
}

// Mock builds the synthetic log for a seed.
func Mock(seed uint64) []Event {
	rng := rand.New(rand.NewPCG(seed, 0))
	uniform := func(lo, hi float64) float64 {
		return lo + rng.Float64()*(hi-lo)
	}
	hours := func(h float64) time.Duration {
		return time.Duration(h * float64(time.Hour))
	}

	events := make([]Event, 0, MockCases*len(mockOperations))
	for c := 0; c < MockCases; c++ {
		current := mockBase.AddDate(0, 0, c/5).Add(time.Duration(c%5*2) * time.Hour)
		for i, op := range mockOperations {
			start := current
			end := start.Add(hours(uniform(0.5, 2.0)))
			rework := rng.Float64() < op.rework

			ev := Event{
				CaseID:         fmt.Sprintf("CASE_%04d", c),
				Activity:       op.name,
				Operation:      op.name,
				TimestampStart: start,
				TimestampEnd:   end,
				StationID:      fmt.Sprintf("STATION_%02d", i+1),
				Result:         ResultSuccess,
				DurationHours:  end.Sub(start).Hours(),
			}
			if rework {
				ev.Result = ResultFailure
				ev.ReworkFlag = true
				ev.IssueDescription = "Quality issue detected"
			}
			events = append(events, ev)

			current = end.Add(hours(uniform(0.1, 0.5)))
		}
	}
	return events
}
