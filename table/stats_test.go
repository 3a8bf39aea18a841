package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMeanAndSumSkipMissing(t *testing.T) {
	tbl := New("erp", []string{"Coût"}, [][]any{{10.0}, {nil}, {"x"}, {20.0}})

	mean, ok := Mean(tbl, "Coût", ToFloat)
	require.True(t, ok)
	require.Equal(t, 15.0, mean)

	sum, ok := Sum(tbl, "Coût", ToFloat)
	require.True(t, ok)
	require.Equal(t, 30.0, sum)

	_, ok = Mean(New("e", []string{"Coût"}, [][]any{{nil}}), "Coût", ToFloat)
	require.False(t, ok)
}

func TestMeanSkipsNonFiniteCells(t *testing.T) {
	tbl := New("mes", []string{"Temps Réel"}, [][]any{{2.0}, {math.Inf(1)}, {4.0}, {math.NaN()}})

	mean, ok := Mean(tbl, "Temps Réel", ToHours)
	require.True(t, ok)
	require.Equal(t, 3.0, mean)
}

func TestFilterKeepsParentOrder(t *testing.T) {
	tbl := New("plm", []string{"Criticité"}, [][]any{{4.0}, {1.0}, {3.0}, {nil}})

	v := Filter(tbl, func(i int) bool {
		f, ok := ToFloat(tbl.Value(i, "Criticité"))
		return ok && f >= 3
	})
	require.Equal(t, 2, v.Len())
	require.Equal(t, 4.0, v.Value(0, "Criticité"))
	require.Equal(t, 3.0, v.Value(1, "Criticité"))
	require.Equal(t, tbl.Columns(), v.Columns())
}

func TestGroupByKeepsFirstSeenOrder(t *testing.T) {
	tbl := New("mes", []string{"Nom", "Temps"}, [][]any{
		{"Peinture", 1.0},
		{"Découpe", 2.0},
		{nil, 9.0},
		{"Peinture", 3.0},
	})

	groups := GroupBy(tbl, "Nom")
	require.Len(t, groups, 2)
	require.Equal(t, "Peinture", groups[0].Key)
	require.Equal(t, 2, groups[0].View.Len())
	require.Equal(t, "Découpe", groups[1].Key)

	mean, ok := Mean(groups[0].View, "Temps", ToHours)
	require.True(t, ok)
	require.Equal(t, 2.0, mean)
}

func TestMostFrequentTieGoesToFirst(t *testing.T) {
	tbl := New("mes", []string{"Poste"}, [][]any{{"P2"}, {"P1"}, {"P1"}, {"P2"}})
	v, ok := MostFrequent(tbl, "Poste")
	require.True(t, ok)
	require.Equal(t, "P2", v)
}

func TestRounding(t *testing.T) {
	require.Equal(t, 2.5, RoundTo1(2.46))
	require.Equal(t, 125000.13, RoundTo2(125000.125))
	require.False(t, Finite(1, 0/zero()))
}

func zero() float64 { return 0 }
