package onsets

import (
	"math/big"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

// PrecedenceNode is a vertex of the precedence DAG. It wraps a symbol, or
// nothing for synthetic nodes. Its duration delays the onsets of its
// successors.
type PrecedenceNode struct {
	ID       int
	Node     *graph.Node
	Duration *big.Rat
	Onset    *big.Rat // nil until resolved

	Inlinks  []*PrecedenceNode
	Outlinks []*PrecedenceNode
}

// Synthetic reports whether the node stands for no symbol.
func (p *PrecedenceNode) Synthetic() bool { return p.Node == nil }

// PrecedenceGraph is the DAG over which onsets propagate. Iteration follows
// insertion order.
type PrecedenceGraph struct {
	nodes *orderedmap.OrderedMap[int, *PrecedenceNode]
}

// NewPrecedenceGraph returns an empty graph.
func NewPrecedenceGraph() *PrecedenceGraph {
	return &PrecedenceGraph{nodes: orderedmap.New[int, *PrecedenceNode]()}
}

// Add wraps a symbol. A nil duration counts as zero.
func (pg *PrecedenceGraph) Add(n *graph.Node, duration *big.Rat) *PrecedenceNode {
	return pg.put(n.ID, n, duration)
}

// AddSynthetic inserts a node that stands for no symbol, such as a measure
// boundary.
func (pg *PrecedenceGraph) AddSynthetic(id int, duration *big.Rat) *PrecedenceNode {
	return pg.put(id, nil, duration)
}

func (pg *PrecedenceGraph) put(id int, n *graph.Node, duration *big.Rat) *PrecedenceNode {
	if duration == nil {
		duration = new(big.Rat)
	}
	p := &PrecedenceNode{ID: id, Node: n, Duration: duration}
	pg.nodes.Set(id, p)
	return p
}

// Link adds the edge from -> to on both ends.
func (pg *PrecedenceGraph) Link(from, to *PrecedenceNode) {
	from.Outlinks = append(from.Outlinks, to)
	to.Inlinks = append(to.Inlinks, from)
}

// Node looks a vertex up by id.
func (pg *PrecedenceGraph) Node(id int) (*PrecedenceNode, bool) {
	return pg.nodes.Get(id)
}

func (pg *PrecedenceGraph) Len() int { return pg.nodes.Len() }

// Nodes returns all vertices in insertion order.
func (pg *PrecedenceGraph) Nodes() []*PrecedenceNode {
	out := make([]*PrecedenceNode, 0, pg.nodes.Len())
	for pair := pg.nodes.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Sources returns the vertices without predecessors.
func (pg *PrecedenceGraph) Sources() []*PrecedenceNode {
	return pg.filter(func(p *PrecedenceNode) bool { return len(p.Inlinks) == 0 })
}

// Sinks returns the vertices without successors.
func (pg *PrecedenceGraph) Sinks() []*PrecedenceNode {
	return pg.filter(func(p *PrecedenceNode) bool { return len(p.Outlinks) == 0 })
}

func (pg *PrecedenceGraph) filter(keep func(*PrecedenceNode) bool) []*PrecedenceNode {
	var out []*PrecedenceNode
	for pair := pg.nodes.Oldest(); pair != nil; pair = pair.Next() {
		if keep(pair.Value) {
			out = append(out, pair.Value)
		}
	}
	return out
}

// Edges returns every (from, to) pair of vertex ids in insertion order.
func (pg *PrecedenceGraph) Edges() [][2]int {
	var out [][2]int
	for _, p := range pg.Nodes() {
		for _, s := range p.Outlinks {
			out = append(out, [2]int{p.ID, s.ID})
		}
	}
	return out
}

// BuildPrecedence derives the precedence DAG from the precedence edges of
// the graph. Every duration-bearing symbol becomes a vertex carrying its
// duration. In multi-system scores the staffs are chained: each sink on a
// staff is linked to each source on the same staff of the next system.
func (e *Engine) BuildPrecedence() (*PrecedenceGraph, error) {
	var symbols []*graph.Node
	for _, n := range e.g.FilterVertices(graph.DurationBearingClasses...) {
		if e.strategy.PrecedenceOnlyForStaffAttached && !e.g.HasChildren(n.ID, graph.ClassStaff) {
			continue
		}
		symbols = append(symbols, n)
	}

	pg := NewPrecedenceGraph()
	for _, n := range symbols {
		d, err := e.Beats(n, false)
		if err != nil {
			return nil, err
		}
		pg.Add(n, d)
	}

	for _, p := range pg.Nodes() {
		p.Inlinks = e.resolveLinks(pg, p.ID, e.g.PrecedenceInlinks(p.ID))
		p.Outlinks = e.resolveLinks(pg, p.ID, e.g.PrecedenceOutlinks(p.ID))
	}

	systems := graph.GroupStaffsIntoSystems(e.g, true, false)
	if len(systems) <= 1 {
		e.log.Debug("single-system score, no staff chaining")
		return pg, nil
	}
	if !e.strategy.LinkSinksToSourcesAcrossSystems {
		e.log.Debug("staff chaining across systems disabled")
		return pg, nil
	}
	if err := e.chainSystems(pg, systems); err != nil {
		return nil, err
	}
	return pg, nil
}

// resolveLinks maps precedence neighbor ids to vertices. Neighbors that are
// not in the DAG, such as symbols filtered out for lacking a staff, are
// skipped.
func (e *Engine) resolveLinks(pg *PrecedenceGraph, from int, ids []int) []*PrecedenceNode {
	out := make([]*PrecedenceNode, 0, len(ids))
	for _, id := range ids {
		p, ok := pg.Node(id)
		if !ok {
			e.log.Warn("precedence edge to a symbol outside the precedence graph",
				zap.Int("node", from), zap.Int("other", id))
			continue
		}
		out = append(out, p)
	}
	return out
}

func (e *Engine) chainSystems(pg *PrecedenceGraph, systems [][]*graph.Node) error {
	for _, s := range systems[1:] {
		if len(s) != len(systems[0]) {
			return graph.Errorf(graph.ErrInvalidStructure, graph.NoNode,
				"systems have different staff counts: %d vs %d", len(systems[0]), len(s))
		}
	}

	chains := make([][]*graph.Node, len(systems[0]))
	for _, system := range systems {
		for i, staff := range system {
			chains[i] = append(chains[i], staff)
		}
	}

	sinks := make(map[int][]*PrecedenceNode)
	for _, p := range pg.Sinks() {
		staff, err := e.staffOf(p, "sink")
		if err != nil {
			return err
		}
		sinks[staff] = append(sinks[staff], p)
	}
	sources := make(map[int][]*PrecedenceNode)
	for _, p := range pg.Sources() {
		staff, err := e.staffOf(p, "source")
		if err != nil {
			return err
		}
		sources[staff] = append(sources[staff], p)
	}

	for _, chain := range chains {
		sort.SliceStable(chain, func(i, j int) bool { return chain[i].Top < chain[j].Top })
		for i := 1; i < len(chain); i++ {
			for _, sink := range sinks[chain[i-1].ID] {
				for _, source := range sources[chain[i].ID] {
					pg.Link(sink, source)
				}
			}
		}
	}
	return nil
}

func (e *Engine) staffOf(p *PrecedenceNode, role string) (int, error) {
	if p.Synthetic() {
		return 0, graph.Errorf(graph.ErrInvalidStructure, p.ID, "synthetic %s cannot be chained across systems", role)
	}
	staffs := e.g.Children(p.Node.ID, graph.ClassStaff)
	if len(staffs) == 0 {
		return 0, graph.Errorf(graph.ErrInvalidStructure, p.ID, "precedence %s has no staff", role)
	}
	return staffs[0].ID, nil
}
