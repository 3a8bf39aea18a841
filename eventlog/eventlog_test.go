package eventlog

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/NotHilal/PLM-Hackaton/table"
)

var testNow = time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC)

func newTestGenerator(opts ...Option) *Generator {
	return NewGenerator(append([]Option{WithClock(clockwork.NewFakeClockAt(testNow))}, opts...)...)
}

func TestGenerateFromRows(t *testing.T) {
	mes := table.New("MES.csv",
		[]string{"Poste", "Nom", "Date", "Heure Début", "Heure Fin", "Aléas Industriels"},
		[][]any{
			{4.0, "Assemblage", "2025-11-03", "08:00:00", "09:30:00", nil},
			{"Poste A", "Peinture", "03/11/2025", "10:15", "11:00", "Panne compresseur"},
			{1.0, "Découpe", time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC), table.TimeOfDay{Hour: 7}, table.TimeOfDay{Hour: 7, Minute: 45}, ""},
		})
	events := newTestGenerator().Generate(mes)
	require.Len(t, events, 3)

	for _, ev := range events {
		require.False(t, ev.TimestampEnd.Before(ev.TimestampStart), ev.CaseID)
		require.InDelta(t, ev.TimestampEnd.Sub(ev.TimestampStart).Hours(), ev.DurationHours, 1e-9)
	}

	want := Event{
		CaseID:         "CASE_0000",
		Activity:       "Assemblage",
		Operation:      "Assemblage",
		TimestampStart: time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC),
		TimestampEnd:   time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC),
		StationID:      "STATION_04",
		Result:         ResultSuccess,
		DurationHours:  1.5,
	}
	if diff := cmp.Diff(want, events[0]); diff != "" {
		t.Fatalf("first event mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, "CASE_0001", events[1].CaseID)
	require.Equal(t, "Poste A", events[1].StationID)
	require.Equal(t, ResultFailure, events[1].Result)
	require.True(t, events[1].ReworkFlag)
	require.Equal(t, "Panne compresseur", events[1].IssueDescription)
	require.Equal(t, time.Date(2025, 11, 3, 10, 15, 0, 0, time.UTC), events[1].TimestampStart)

	require.Equal(t, time.Date(2025, 11, 4, 7, 0, 0, 0, time.UTC), events[2].TimestampStart)
	require.Equal(t, 0.75, events[2].DurationHours)
	require.False(t, events[2].ReworkFlag, "an empty incident cell is no incident")
}

func TestGenerateReadsIntegerHourCells(t *testing.T) {
	mes := table.New("MES.parquet",
		[]string{"Nom", "Date", "Heure Début", "Heure Fin"},
		[][]any{
			{"Découpe", "2025-11-03", int64(8), int32(17)},
			{"Peinture", "2025-11-03", 22.5, int64(2)},
		})
	events := newTestGenerator().Generate(mes)
	require.Len(t, events, 2)

	require.Equal(t, time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC), events[0].TimestampStart)
	require.Equal(t, time.Date(2025, 11, 3, 17, 0, 0, 0, time.UTC), events[0].TimestampEnd)
	require.Equal(t, 9.0, events[0].DurationHours)

	require.Equal(t, time.Date(2025, 11, 3, 22, 30, 0, 0, time.UTC), events[1].TimestampStart)
	require.Equal(t, time.Date(2025, 11, 4, 2, 0, 0, 0, time.UTC), events[1].TimestampEnd)
}

func TestGenerateDefaultsAndFallbacks(t *testing.T) {
	mes := table.New("MES.csv",
		[]string{"Nom", "Heure Début", "Heure Fin"},
		[][]any{
			{"Découpe", nil, nil},
			{nil, "bogus", "09:00"},
			{"Contrôle", "22:00", "02:00"},
		})
	events := newTestGenerator().Generate(mes)
	require.Len(t, events, 3)

	today := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	require.Equal(t, today.Add(8*time.Hour), events[0].TimestampStart, "missing date is today, missing start is 08:00")
	require.Equal(t, today.Add(9*time.Hour), events[0].TimestampEnd)
	require.Equal(t, "STATION_00", events[0].StationID, "missing station is the row index")

	require.Equal(t, "Operation_1", events[1].Activity)
	require.Equal(t, testNow.Add(time.Hour), events[1].TimestampStart, "unparseable time is sequential from now")
	require.Equal(t, 1.0, events[1].DurationHours)

	require.Equal(t, today.Add(22*time.Hour), events[2].TimestampStart)
	require.Equal(t, today.Add(26*time.Hour), events[2].TimestampEnd, "end before start rolls over")
	require.Equal(t, 4.0, events[2].DurationHours)
}

func TestGenerateVarianceRework(t *testing.T) {
	mes := table.New("MES.csv",
		[]string{"Nom", "Temps Prévu", "Temps Réel"},
		[][]any{
			{"Peinture", 1.0, 1.5},
			{"Peinture", 1.0, 1.2},
		})

	events := newTestGenerator().Generate(mes)
	require.False(t, events[0].ReworkFlag, "variance is ignored by default")

	events = newTestGenerator(WithVarianceRework(0.4)).Generate(mes)
	require.True(t, events[0].ReworkFlag)
	require.Equal(t, ResultFailure, events[0].Result)
	require.Equal(t, "Actual time 50% over plan", events[0].IssueDescription)
	require.False(t, events[1].ReworkFlag)
}

func TestGenerateWithoutTableUsesMock(t *testing.T) {
	g := newTestGenerator()
	require.Equal(t, Mock(MockSeed), g.Generate(nil))
	require.Equal(t, Mock(MockSeed), g.Generate(table.New("MES.csv", []string{"Nom"}, nil)))
}

func TestMockIsReproducible(t *testing.T) {
	first := Mock(MockSeed)
	if diff := cmp.Diff(first, Mock(MockSeed)); diff != "" {
		t.Fatalf("mock log differs between runs:\n%s", diff)
	}
	require.Len(t, first, MockCases*5)
	require.NotEqual(t, first, Mock(7))

	require.Equal(t, "CASE_0000", first[0].CaseID)
	require.Equal(t, time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC), first[0].TimestampStart)
	require.Equal(t, time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC), first[6*5].TimestampStart, "case 6 starts day 2 at 10:00")

	names := []string{"Découpe", "Perçage", "Peinture", "Assemblage", "Contrôle"}
	for i, ev := range first {
		require.Equal(t, names[i%5], ev.Activity)
		require.GreaterOrEqual(t, ev.DurationHours, 0.5-1e-9)
		require.LessOrEqual(t, ev.DurationHours, 2.0+1e-9)
		require.Equal(t, ev.ReworkFlag, ev.Result == ResultFailure)
		if i%5 > 0 {
			prev := first[i-1]
			gap := ev.TimestampStart.Sub(prev.TimestampEnd).Hours()
			require.True(t, gap >= 0.1-1e-9 && gap <= 0.5+1e-9, "gap %v", gap)
		}
	}
}

func TestComputeMetrics(t *testing.T) {
	at := func(h float64) time.Time {
		return time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC).Add(time.Duration(h * float64(time.Hour)))
	}
	events := []Event{
		{CaseID: "CASE_0000", Activity: "Découpe", TimestampStart: at(8), TimestampEnd: at(9), DurationHours: 1},
		{CaseID: "CASE_0000", Activity: "Peinture", TimestampStart: at(9.5), TimestampEnd: at(11), DurationHours: 1.5, ReworkFlag: true},
		{CaseID: "CASE_0001", Activity: "Découpe", TimestampStart: at(10), TimestampEnd: at(12), DurationHours: 2},
	}
	m := ComputeMetrics(events)

	want := Metrics{
		TotalCases:             2,
		Activities:             []string{"Découpe", "Peinture"},
		VolumeByOperation:      map[string]int{"Découpe": 2, "Peinture": 1},
		AvgDurationByOperation: map[string]float64{"Découpe": 1.5, "Peinture": 1.5},
		ReworkRateByOperation:  map[string]float64{"Découpe": 0, "Peinture": 100},
		AvgLeadTimeHours:       2.5,
		WIPByOperation:         map[string]int{"Découpe": 2, "Peinture": 1},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("metrics mismatch (-want +got):\n%s", diff)
	}

	empty := ComputeMetrics(nil)
	require.Zero(t, empty.TotalCases)
	require.Empty(t, empty.VolumeByOperation)
}

func TestExport(t *testing.T) {
	events := []Event{{
		CaseID:           "CASE_0007",
		Activity:         "Peinture",
		Operation:        "Peinture",
		TimestampStart:   time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC),
		TimestampEnd:     time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC),
		StationID:        "STATION_03",
		Result:           ResultFailure,
		ReworkFlag:       true,
		DurationHours:    1.5,
		IssueDescription: "Coulure, reprise",
	}}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, events))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		ExportHeader,
		{"CASE_0007", "Peinture", "Peinture", "2025-11-03 08:00:00", "2025-11-03 09:30:00",
			"STATION_03", "Failure", "True", "1.5", "Coulure, reprise"},
	}, records)
}
