// Package graph builds process graphs from an event log.
//
// Two miners are available. DFGMiner derives a directly-follows graph per
// case. ChainMiner is a degraded mode: it lays every activity on a single
// path in first-occurrence order and carries no per-case information. The
// miner is chosen when the Builder is constructed and never switched while
// building.
package graph

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/NotHilal/PLM-Hackaton/engine"
	"github.com/NotHilal/PLM-Hackaton/eventlog"
)

// Node types.
const (
	NodeStart  = "start"
	NodeEnd    = "end"
	NodeNormal = "normal"
)

// Modes of a graph, named after the miner that produced it.
const (
	ModeDFG   = "dfg"
	ModeChain = "chain"
)

// Node is one activity. Frequency counts its occurrences across all cases;
// StartCount and EndCount are the number of cases it opens or closes.
type Node struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	Type       string          `json:"type"`
	Frequency  int             `json:"frequency"`
	StartCount int             `json:"startCount"`
	EndCount   int             `json:"endCount"`
	Severity   engine.Severity `json:"severity,omitempty"`
}

type Edge struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Frequency int     `json:"frequency"`
	MeanHours float64 `json:"avgTime"` // start to start
}

// Graph is a process graph. Nodes and edges are in first-seen order.
type Graph struct {
	Nodes           []Node         `json:"nodes"`
	Edges           []Edge         `json:"edges"`
	StartActivities map[string]int `json:"startActivities"`
	EndActivities   map[string]int `json:"endActivities"`
	Mode            string         `json:"mode"`
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

func emptyGraph(mode string) *Graph {
	return &Graph{
		Nodes:           []Node{},
		Edges:           []Edge{},
		StartActivities: map[string]int{},
		EndActivities:   map[string]int{},
		Mode:            mode,
	}
}

// Miner derives a graph from events.
type Miner interface {
	Name() string
	Mine(events []eventlog.Event) *Graph
}

// MinerByName returns the miner registered under name.
func MinerByName(name string) (Miner, error) {
	switch name {
	case ModeDFG, "":
		return DFGMiner{}, nil
	case ModeChain:
		return ChainMiner{}, nil
	default:
		return nil, fmt.Errorf("unknown graph miner %q (want %s or %s)", name, ModeDFG, ModeChain)
	}
}

// ============================================================================
// BUILDER
// ============================================================================

type Option func(*Builder)

func WithLogger(log *slog.Logger) Option {
	return func(b *Builder) {
		b.log = log
	}
}

// Builder runs a fixed miner over event logs.
type Builder struct {
	miner Miner
	log   *slog.Logger
}

func NewBuilder(miner Miner, opts ...Option) *Builder {
	if miner == nil {
		miner = DFGMiner{}
	}
	b := &Builder{
		miner: miner,
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Miner() Miner {
	return b.miner
}

// Build mines events. An empty log gives an empty graph, and a miner that
// panics gives an empty graph as well.
func (b *Builder) Build(events []eventlog.Event) (g *Graph) {
	if len(events) == 0 {
		return emptyGraph(b.miner.Name())
	}
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("graph: miner failed, returning empty graph", "miner", b.miner.Name(), "panic", r)
			g = emptyGraph(b.miner.Name())
		}
	}()

	g = b.miner.Mine(events)
	b.log.Debug("graph: mined", "miner", b.miner.Name(), "events", len(events), "nodes", len(g.Nodes), "edges", len(g.Edges))
	return g
}

// ============================================================================
// ANNOTATION
// ============================================================================

// Annotate returns a copy of g with each bottleneck's severity set on the
// node of the same id. Bottlenecks without a node are ignored, and nodes
// without a bottleneck keep no severity. When an operation is listed twice
// the first entry wins.
func Annotate(g *Graph, bottlenecks []engine.Bottleneck) *Graph {
	if g == nil {
		return nil
	}
	severity := make(map[string]engine.Severity, len(bottlenecks))
	for _, b := range bottlenecks {
		if _, dup := severity[b.Operation]; !dup {
			severity[b.Operation] = b.Severity
		}
	}

	out := *g
	out.Nodes = make([]Node, len(g.Nodes))
	for i, n := range g.Nodes {
		n.Severity = severity[n.ID]
		out.Nodes[i] = n
	}
	out.Edges = slices.Clone(g.Edges)
	out.StartActivities = maps.Clone(g.StartActivities)
	out.EndActivities = maps.Clone(g.EndActivities)
	return &out
}
