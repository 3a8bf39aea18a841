// Package eventlog reconstructs a process-mining event log from MES rows.
//
// One MES row becomes one event. Rows are numbered into cases
// (CASE_0000, CASE_0001, ...) in table order. Without an MES table the
// generator returns a synthetic log built from a fixed seed.
package eventlog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/NotHilal/PLM-Hackaton/schema"
	"github.com/NotHilal/PLM-Hackaton/table"
)

// Results of an event.
const (
	ResultSuccess = "Success"
	ResultFailure = "Failure"
)

// Event is one activity execution of a case.
type Event struct {
	CaseID           string    `json:"case_id"`
	Activity         string    `json:"activity"`
	Operation        string    `json:"operation"`
	TimestampStart   time.Time `json:"timestamp_start"`
	TimestampEnd     time.Time `json:"timestamp_end"`
	StationID        string    `json:"station_id"`
	Result           string    `json:"result"`
	ReworkFlag       bool      `json:"rework_flag"`
	DurationHours    float64   `json:"duration_hours"`
	IssueDescription string    `json:"issue_description,omitempty"`
}

// Default start and end of day when a row has no time fields.
var (
	defaultStart = table.TimeOfDay{Hour: 8}
	defaultEnd   = table.TimeOfDay{Hour: 9}
)

var (
	colStation  = []string{"Poste", "poste"}
	colName     = []string{"Nom", "nom"}
	colDate     = []string{"Date", "date"}
	colStart    = []string{"Heure Début", "Heure_Debut"}
	colEnd      = []string{"Heure Fin", "Heure_Fin"}
	colIncident = []string{"Aléas Industriels", "aleas"}
	colPlanned  = []string{"Temps Prévu", "Temps_Prevu", "temps_prevu"}
	colActual   = []string{"Temps Réel", "Temps_Reel", "temps_reel"}
)

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the clock used for missing dates and fallback timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(g *Generator) {
		g.clock = clock
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// WithVarianceRework also flags rows whose actual time exceeds the planned
// time by more than tolerance (0.40 = 40 %), on top of incident rows.
func WithVarianceRework(tolerance float64) Option {
	return func(g *Generator) {
		g.varianceTolerance = tolerance
	}
}

// WithMockSeed changes the seed of the synthetic log.
func WithMockSeed(seed uint64) Option {
	return func(g *Generator) {
		g.mockSeed = seed
	}
}

// Generator turns MES rows into events.
type Generator struct {
	clock             clockwork.Clock
	log               *slog.Logger
	varianceTolerance float64 // 0 disables
	mockSeed          uint64
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		clock:    clockwork.NewRealClock(),
		log:      slog.New(slog.DiscardHandler),
		mockSeed: MockSeed,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// columns are the resolved MES columns. Empty means absent.
type columns struct {
	station, name, date, start, end, incident, planned, actual string
}

func resolve(v table.View) columns {
	var c columns
	c.station, _ = table.Resolve(v, colStation...)
	c.name, _ = table.Resolve(v, colName...)
	c.date, _ = table.Resolve(v, colDate...)
	c.start, _ = table.Resolve(v, colStart...)
	c.end, _ = table.Resolve(v, colEnd...)
	c.incident, _ = table.Resolve(v, colIncident...)
	c.planned, _ = table.Resolve(v, colPlanned...)
	c.actual, _ = table.Resolve(v, colActual...)
	return c
}

// Generate builds the event log of an MES table. A nil or empty table, or a
// table that cannot be processed, gives the synthetic log.
func (g *Generator) Generate(mes *table.Table) (events []Event) {
	if mes == nil || mes.Len() == 0 {
		return Mock(g.mockSeed)
	}
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("eventlog: failed to build log, using synthetic log", "panic", r)
			events = Mock(g.mockSeed)
		}
	}()

	cols := resolve(mes)
	now := g.clock.Now()
	events = make([]Event, 0, mes.Len())
	fallbacks := 0
	for i := 0; i < mes.Len(); i++ {
		ev, ok := g.event(mes, i, cols, now)
		if !ok {
			fallbacks++
		}
		events = append(events, ev)
	}
	if fallbacks > 0 {
		g.log.Warn("eventlog: rows with unparseable timestamps got sequential times", "rows", fallbacks)
	}
	return events
}

// event builds the event of row i. ok is false when the timestamps had to
// be synthesized.
func (g *Generator) event(v table.View, i int, cols columns, now time.Time) (Event, bool) {
	name := fmt.Sprintf("Operation_%d", i)
	if cols.name != "" && !table.IsNull(v.Value(i, cols.name)) {
		name = table.Stringify(v.Value(i, cols.name))
	}

	station := table.FormatStation(i)
	if cols.station != "" && !table.IsNull(v.Value(i, cols.station)) {
		station = table.FormatStation(v.Value(i, cols.station))
	}

	start, end, ok := g.timestamps(v, i, cols, now)
	if !ok {
		start = now.Add(time.Duration(i) * time.Hour)
		end = start.Add(time.Hour)
	}

	ev := Event{
		CaseID:         fmt.Sprintf("CASE_%04d", i),
		Activity:       name,
		Operation:      name,
		TimestampStart: start,
		TimestampEnd:   end,
		StationID:      station,
		Result:         ResultSuccess,
		DurationHours:  end.Sub(start).Hours(),
	}

	if cols.incident != "" {
		if incident := v.Value(i, cols.incident); !table.IsNull(incident) {
			ev.Result = ResultFailure
			ev.ReworkFlag = true
			ev.IssueDescription = table.Stringify(incident)
		}
	}
	if !ev.ReworkFlag && g.varianceTolerance > 0 {
		if variance, ok := rowVariance(v, i, cols); ok && variance > g.varianceTolerance {
			ev.Result = ResultFailure
			ev.ReworkFlag = true
			ev.IssueDescription = fmt.Sprintf("Actual time %.0f%% over plan", variance*100)
		}
	}
	return ev, ok
}

// timestamps combines the row's date with its start and end times. An end
// before the start rolls over to the next day.
func (g *Generator) timestamps(v table.View, i int, cols columns, now time.Time) (start, end time.Time, ok bool) {
	day, ok := dateOf(cell(v, i, cols.date), now)
	if !ok {
		return start, end, false
	}
	startClock, ok := clockOf(cell(v, i, cols.start), defaultStart)
	if !ok {
		return start, end, false
	}
	endClock, ok := clockOf(cell(v, i, cols.end), defaultEnd)
	if !ok {
		return start, end, false
	}

	start = day.Add(startClock)
	end = day.Add(endClock)
	if end.Before(start) {
		end = end.Add(24 * time.Hour)
	}
	return start, end, true
}

func cell(v table.View, i int, col string) any {
	if col == "" {
		return nil
	}
	return v.Value(i, col)
}

// dateOf returns midnight UTC of a date cell. A missing date is today.
func dateOf(val any, now time.Time) (time.Time, bool) {
	if table.IsNull(val) {
		val = now
	}
	if s, ok := val.(string); ok {
		val = schema.Convert(schema.KindDate, s)
	}
	t, ok := val.(time.Time)
	if !ok {
		return time.Time{}, false
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}

// clockOf returns the offset from midnight of a time-of-day cell.
func clockOf(val any, fallback table.TimeOfDay) (time.Duration, bool) {
	if table.IsNull(val) {
		val = fallback
	}
	if s, ok := val.(string); ok {
		if tod, ok := table.ParseTimeOfDay(s); ok {
			val = tod
		} else {
			val = schema.Convert(schema.KindDate, s)
		}
	}
	switch t := val.(type) {
	case table.TimeOfDay:
		return sinceMidnight(t.Clock()), true
	case time.Time:
		return sinceMidnight(t.Clock()), true
	case time.Duration:
		if t >= 0 && t < 24*time.Hour {
			return t, true
		}
	default:
		// Hours since midnight, as some extracts store 8.5 for 08:30.
		if h, ok := table.ToFloat(t); ok && h >= 0 && h < 24 {
			return time.Duration(h * float64(time.Hour)), true
		}
	}
	return 0, false
}

func sinceMidnight(h, m, s int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

func rowVariance(v table.View, i int, cols columns) (float64, bool) {
	if cols.planned == "" || cols.actual == "" {
		return 0, false
	}
	planned, ok := table.ToHours(v.Value(i, cols.planned))
	if !ok || planned <= 0 {
		return 0, false
	}
	actual, ok := table.ToHours(v.Value(i, cols.actual))
	if !ok {
		return 0, false
	}
	return (actual - planned) / planned, true
}
