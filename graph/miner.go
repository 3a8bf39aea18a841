package graph

import (
	"cmp"
	"slices"

	"github.com/NotHilal/PLM-Hackaton/eventlog"
	"github.com/NotHilal/PLM-Hackaton/table"
)

// ============================================================================
// DIRECTLY-FOLLOWS MINER
// ============================================================================
// Events are grouped by case and ordered by start time within the case
// (stable, so ties keep log order). Each consecutive pair A, B counts one
// A -> B edge. The first and last activity of a case count towards the
// start and end sets. Edge time is the mean hours from the start of A to
// the start of B.
// ============================================================================

type DFGMiner struct{}

func (DFGMiner) Name() string { return ModeDFG }

func (DFGMiner) Mine(events []eventlog.Event) *Graph {
	g := emptyGraph(ModeDFG)
	if len(events) == 0 {
		return g
	}

	var caseOrder []string
	cases := make(map[string][]eventlog.Event)
	for _, ev := range events {
		if _, ok := cases[ev.CaseID]; !ok {
			caseOrder = append(caseOrder, ev.CaseID)
		}
		cases[ev.CaseID] = append(cases[ev.CaseID], ev)
	}

	nodes := newNodeIndex()
	type edgeKey struct{ from, to string }
	var edgeOrder []edgeKey
	edgeFreq := make(map[edgeKey]int)
	edgeHours := make(map[edgeKey]float64)

	for _, id := range caseOrder {
		trace := cases[id]
		slices.SortStableFunc(trace, func(a, b eventlog.Event) int {
			return a.TimestampStart.Compare(b.TimestampStart)
		})

		for _, ev := range trace {
			nodes.add(ev.Activity).Frequency++
		}
		first, last := trace[0].Activity, trace[len(trace)-1].Activity
		nodes.add(first).StartCount++
		nodes.add(last).EndCount++
		g.StartActivities[first]++
		g.EndActivities[last]++

		for i := 1; i < len(trace); i++ {
			k := edgeKey{trace[i-1].Activity, trace[i].Activity}
			if _, ok := edgeFreq[k]; !ok {
				edgeOrder = append(edgeOrder, k)
			}
			edgeFreq[k]++
			edgeHours[k] += trace[i].TimestampStart.Sub(trace[i-1].TimestampStart).Hours()
		}
	}

	g.Nodes = nodes.list()
	for _, k := range edgeOrder {
		g.Edges = append(g.Edges, Edge{
			From:      k.from,
			To:        k.to,
			Frequency: edgeFreq[k],
			MeanHours: table.RoundTo2(edgeHours[k] / float64(edgeFreq[k])),
		})
	}
	return g
}

// ============================================================================
// CHAIN MINER
// ============================================================================
// Degraded mode. Activities are ordered by their earliest start across the
// whole log and joined into one path. Case boundaries are ignored: a node's
// frequency is its number of events and each chain edge carries the
// frequency of its source. The first activity is the only start and the
// last the only end.
// ============================================================================

type ChainMiner struct{}

func (ChainMiner) Name() string { return ModeChain }

func (ChainMiner) Mine(events []eventlog.Event) *Graph {
	g := emptyGraph(ModeChain)
	if len(events) == 0 {
		return g
	}

	type activity struct {
		name  string
		first int // index of the earliest event
		count int
	}
	index := make(map[string]*activity)
	var acts []*activity
	for i, ev := range events {
		a, ok := index[ev.Activity]
		if !ok {
			a = &activity{name: ev.Activity, first: i}
			index[ev.Activity] = a
			acts = append(acts, a)
		}
		a.count++
		if ev.TimestampStart.Before(events[a.first].TimestampStart) {
			a.first = i
		}
	}
	slices.SortStableFunc(acts, func(a, b *activity) int {
		if c := events[a.first].TimestampStart.Compare(events[b.first].TimestampStart); c != 0 {
			return c
		}
		return cmp.Compare(a.first, b.first)
	})

	last := len(acts) - 1
	for i, a := range acts {
		n := Node{ID: a.name, Label: a.name, Type: NodeNormal, Frequency: a.count}
		if i == 0 {
			n.Type = NodeStart
			n.StartCount = a.count
			g.StartActivities[a.name] = a.count
		}
		if i == last {
			if i != 0 {
				n.Type = NodeEnd
			}
			n.EndCount = a.count
			g.EndActivities[a.name] = a.count
		}
		g.Nodes = append(g.Nodes, n)

		if i < last {
			next := acts[i+1]
			g.Edges = append(g.Edges, Edge{
				From:      a.name,
				To:        next.name,
				Frequency: a.count,
				MeanHours: table.RoundTo2(events[next.first].TimestampStart.Sub(events[a.first].TimestampStart).Hours()),
			})
		}
	}
	return g
}

// nodeIndex keeps nodes in first-seen order.
type nodeIndex struct {
	order []string
	nodes map[string]*Node
}

func newNodeIndex() *nodeIndex {
	return &nodeIndex{nodes: make(map[string]*Node)}
}

func (x *nodeIndex) add(id string) *Node {
	if n, ok := x.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id, Label: id, Type: NodeNormal}
	x.nodes[id] = n
	x.order = append(x.order, id)
	return n
}

// list returns the nodes with their type set. An activity that both opens
// and closes cases is typed by whichever role it plays more often, start on
// a tie.
func (x *nodeIndex) list() []Node {
	out := make([]Node, 0, len(x.order))
	for _, id := range x.order {
		n := *x.nodes[id]
		switch {
		case n.StartCount > 0 && n.StartCount >= n.EndCount:
			n.Type = NodeStart
		case n.EndCount > 0:
			n.Type = NodeEnd
		}
		out = append(out, n)
	}
	return out
}
