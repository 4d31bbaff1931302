package graph

import (
	"encoding/json"
	"slices"
	"sort"

	"go.uber.org/zap"
)

// Record is the persisted shape of a symbol: the node itself plus its
// attachment links. Precedence links travel in Data under
// KeyPrecedenceInlinks and KeyPrecedenceOutlinks.
type Record struct {
	Node
	Inlinks  []int `json:"inlinks"`
	Outlinks []int `json:"outlinks"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	return Record{
		Node:     *r.Node.Clone(),
		Inlinks:  slices.Clone(r.Inlinks),
		Outlinks: slices.Clone(r.Outlinks),
	}
}

// NotationGraph owns a fixed set of symbols and is the only place their
// edges change. Attachment and precedence are kept as two independent
// adjacency relations over the same id space. Not safe for concurrent use.
type NotationGraph struct {
	nodes []*Node
	index map[int]*Node

	attach adjacency
	prec   adjacency

	log *zap.Logger
}

// Option configures a NotationGraph.
type Option func(*NotationGraph)

// WithLogger sets the logger used for diagnostics. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *NotationGraph) {
		if l != nil {
			g.log = l
		}
	}
}

// New builds a graph from records. Records are copied; the caller keeps
// ownership of its slice. Duplicate ids and links to unknown ids are
// rejected. Reciprocity is not checked here; queries and mutations detect
// it.
func New(records []Record, opts ...Option) (*NotationGraph, error) {
	g := &NotationGraph{
		index:  make(map[int]*Node, len(records)),
		attach: newAdjacency("attachment"),
		prec:   newAdjacency("precedence"),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	for _, r := range records {
		if _, dup := g.index[r.ID]; dup {
			return nil, invalidf(r.ID, "duplicate node id")
		}
		n := r.Node.Clone()
		g.nodes = append(g.nodes, n)
		g.index[n.ID] = n
	}

	for _, r := range records {
		n := g.index[r.ID]
		precIn, err := linkList(n, KeyPrecedenceInlinks)
		if err != nil {
			return nil, err
		}
		precOut, err := linkList(n, KeyPrecedenceOutlinks)
		if err != nil {
			return nil, err
		}
		delete(n.Data, KeyPrecedenceInlinks)
		delete(n.Data, KeyPrecedenceOutlinks)

		for _, links := range [][]int{r.Inlinks, r.Outlinks, precIn, precOut} {
			for _, id := range links {
				if _, ok := g.index[id]; !ok {
					return nil, invalidf(r.ID, "link to unknown node %d", id)
				}
			}
		}
		g.attach.in[n.ID] = slices.Clone(r.Inlinks)
		g.attach.out[n.ID] = slices.Clone(r.Outlinks)
		g.prec.in[n.ID] = precIn
		g.prec.out[n.ID] = precOut
	}
	return g, nil
}

// linkList decodes a list-valued id attribute. Decoded JSON yields []any of
// float64, in-process callers usually pass []int.
func linkList(n *Node, key string) ([]int, error) {
	raw, ok := n.Data[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []int:
		return slices.Clone(v), nil
	case []any:
		out := make([]int, 0, len(v))
		for _, x := range v {
			id, ok := toID(x)
			if !ok {
				return nil, invalidf(n.ID, "%s: non-integer link %v", key, x)
			}
			out = append(out, id)
		}
		return out, nil
	default:
		return nil, invalidf(n.ID, "%s: unexpected type %T", key, raw)
	}
}

func toID(x any) (int, bool) {
	switch v := x.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

// Logger returns the graph's logger.
func (g *NotationGraph) Logger() *zap.Logger { return g.log }

// Len returns the number of vertices.
func (g *NotationGraph) Len() int { return len(g.nodes) }

// Vertices returns all nodes in construction order.
func (g *NotationGraph) Vertices() []*Node {
	return slices.Clone(g.nodes)
}

// Vertex looks up a node by id.
func (g *NotationGraph) Vertex(id int) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// FilterVertices returns the nodes whose class is one of classes, in
// construction order.
func (g *NotationGraph) FilterVertices(classes ...string) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if IsClass(n.ClassName, classes) {
			out = append(out, n)
		}
	}
	return out
}

// CollectData gathers Data[key] for every node, or every node of the given
// classes. A missing key is an error when strict, otherwise skipped.
func (g *NotationGraph) CollectData(key string, strict bool, classes ...string) (map[int]any, error) {
	nodes := g.nodes
	if len(classes) > 0 {
		nodes = g.FilterVertices(classes...)
	}
	out := make(map[int]any, len(nodes))
	for _, n := range nodes {
		v, ok := n.Data[key]
		if !ok {
			if strict {
				return nil, invalidf(n.ID, "missing data key %q", key)
			}
			g.log.Debug("missing data key", zap.Int("node", n.ID), zap.String("key", key))
			continue
		}
		out[n.ID] = v
	}
	return out, nil
}

// NextNodeID returns an id one larger than any id in the graph.
func (g *NotationGraph) NextNodeID() int {
	next := 0
	for id := range g.index {
		next = max(next, id+1)
	}
	return next
}

// Edges lists all attachment edges sorted by (from, to).
func (g *NotationGraph) Edges() [][2]int { return g.attach.edges() }

// PrecedenceEdges lists all precedence edges sorted by (from, to).
func (g *NotationGraph) PrecedenceEdges() [][2]int { return g.prec.edges() }

// Records exports the graph back to its persisted shape, precedence links
// included, in construction order.
func (g *NotationGraph) Records() []Record {
	out := make([]Record, 0, len(g.nodes))
	for _, n := range g.nodes {
		r := Record{
			Node:     *n.Clone(),
			Inlinks:  slices.Clone(g.attach.in[n.ID]),
			Outlinks: slices.Clone(g.attach.out[n.ID]),
		}
		if r.Inlinks == nil {
			r.Inlinks = []int{}
		}
		if r.Outlinks == nil {
			r.Outlinks = []int{}
		}
		if in := g.prec.in[n.ID]; len(in) > 0 {
			r.setData(KeyPrecedenceInlinks, slices.Clone(in))
		}
		if outl := g.prec.out[n.ID]; len(outl) > 0 {
			r.setData(KeyPrecedenceOutlinks, slices.Clone(outl))
		}
		out = append(out, r)
	}
	return out
}

func (r *Record) setData(key string, v any) {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = v
}

// Clone returns an independent deep copy of the graph.
func (g *NotationGraph) Clone() *NotationGraph {
	c := &NotationGraph{
		index:  make(map[int]*Node, len(g.nodes)),
		attach: g.attach.clone(),
		prec:   g.prec.clone(),
		log:    g.log,
	}
	for _, n := range g.nodes {
		cn := n.Clone()
		c.nodes = append(c.nodes, cn)
		c.index[cn.ID] = cn
	}
	return c
}

// Validate checks that both edge relations are reciprocal everywhere.
func (g *NotationGraph) Validate() error {
	for _, a := range []*adjacency{&g.attach, &g.prec} {
		if err := a.validate(g.nodes); err != nil {
			return err
		}
	}
	return nil
}

// ---------- adjacency ----------

type adjacency struct {
	name string
	out  map[int][]int
	in   map[int][]int
}

func newAdjacency(name string) adjacency {
	return adjacency{name: name, out: make(map[int][]int), in: make(map[int][]int)}
}

// has reports whether from->to exists, failing when only one direction
// records it.
func (a *adjacency) has(from, to int) (bool, error) {
	fwd := slices.Contains(a.out[from], to)
	back := slices.Contains(a.in[to], from)
	switch {
	case fwd && back:
		return true, nil
	case fwd:
		return false, inconsistentf(from, "%s edge %d->%d: %d in outlinks of %d but %d not in inlinks of %d",
			a.name, from, to, to, from, from, to)
	case back:
		return false, inconsistentf(to, "%s edge %d->%d: %d in inlinks of %d but %d not in outlinks of %d",
			a.name, from, to, from, to, to, from)
	}
	return false, nil
}

// add inserts from->to. Returns false if it already existed.
func (a *adjacency) add(from, to int) (bool, error) {
	ok, err := a.has(from, to)
	if err != nil || ok {
		return false, err
	}
	a.out[from] = append(a.out[from], to)
	a.in[to] = append(a.in[to], from)
	return true, nil
}

// remove deletes from->to. Returns false if it did not exist.
func (a *adjacency) remove(from, to int) (bool, error) {
	ok, err := a.has(from, to)
	if err != nil || !ok {
		return false, err
	}
	a.out[from] = deleteFirst(a.out[from], to)
	a.in[to] = deleteFirst(a.in[to], from)
	return true, nil
}

func (a *adjacency) edges() [][2]int {
	var out [][2]int
	for from, tos := range a.out {
		for _, to := range tos {
			out = append(out, [2]int{from, to})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

func (a *adjacency) validate(nodes []*Node) error {
	for _, n := range nodes {
		for _, to := range a.out[n.ID] {
			if _, err := a.has(n.ID, to); err != nil {
				return err
			}
		}
		for _, from := range a.in[n.ID] {
			if _, err := a.has(from, n.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *adjacency) clone() adjacency {
	c := newAdjacency(a.name)
	for k, v := range a.out {
		c.out[k] = slices.Clone(v)
	}
	for k, v := range a.in {
		c.in[k] = slices.Clone(v)
	}
	return c
}

func (a *adjacency) drop(id int) {
	delete(a.in, id)
	delete(a.out, id)
}

func deleteFirst(s []int, v int) []int {
	if i := slices.Index(s, v); i >= 0 {
		return slices.Delete(s, i, i+1)
	}
	return s
}
