// Package graphtest builds small notation documents for tests.
package graphtest

import (
	"fmt"
	"testing"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

// Builder accumulates records. Methods panic on unknown ids since they are
// only used to write fixtures.
type Builder struct {
	records []graph.Record
	index   map[int]int
}

func New() *Builder {
	return &Builder{index: make(map[int]int)}
}

// Add appends a symbol with the given bounding box.
func (b *Builder) Add(id int, class string, top, left, bottom, right int) *Builder {
	b.index[id] = len(b.records)
	b.records = append(b.records, graph.Record{
		Node: graph.Node{
			ID: id, ClassName: class,
			Top: top, Left: left, Bottom: bottom, Right: right,
		},
		Inlinks:  []int{},
		Outlinks: []int{},
	})
	return b
}

func (b *Builder) rec(id int) *graph.Record {
	i, ok := b.index[id]
	if !ok {
		panic(fmt.Sprintf("graphtest: unknown id %d", id))
	}
	return &b.records[i]
}

// Attach adds the attachment edge from->to on both ends.
func (b *Builder) Attach(from, to int) *Builder {
	b.rec(from).Outlinks = append(b.rec(from).Outlinks, to)
	b.rec(to).Inlinks = append(b.rec(to).Inlinks, from)
	return b
}

// Precede adds the precedence edge from->to on both ends.
func (b *Builder) Precede(from, to int) *Builder {
	appendLink(b.rec(from), graph.KeyPrecedenceOutlinks, to)
	appendLink(b.rec(to), graph.KeyPrecedenceInlinks, from)
	return b
}

func appendLink(r *graph.Record, key string, id int) {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	links, _ := r.Data[key].([]int)
	r.Data[key] = append(links, id)
}

// Mask sets the foreground mask of a symbol from '0'/'1' rows.
func (b *Builder) Mask(id int, rows ...string) *Builder {
	m, err := graph.ParseMask(rows)
	if err != nil {
		panic(err)
	}
	b.rec(id).Mask = m
	return b
}

// Staff adds a staff with five stafflines and six staffspaces, the outer
// spaces included. Lines are two pixels thick and spacing apart, the top
// line starting at top. Children get ids firstChild.. in top-to-bottom
// order, which are returned.
func (b *Builder) Staff(id, firstChild, top, left, right, spacing int) []int {
	b.Add(id, graph.ClassStaff, top, left, top+4*spacing+2, right)
	ids := make([]int, 0, 11)
	next := firstChild
	add := func(class string, t, bt int) {
		b.Add(next, class, t, left, bt, right)
		b.Attach(id, next)
		ids = append(ids, next)
		next++
	}
	add(graph.ClassStaffspace, top-spacing+2, top)
	for k := range 5 {
		y := top + k*spacing
		add(graph.ClassStaffline, y, y+2)
		add(graph.ClassStaffspace, y+2, y+spacing)
	}
	return ids
}

// Records returns a deep copy of the accumulated records.
func (b *Builder) Records() []graph.Record {
	out := make([]graph.Record, len(b.records))
	for i, r := range b.records {
		out[i] = r.Clone()
	}
	return out
}

// Graph builds the NotationGraph, failing the test on error.
func (b *Builder) Graph(t testing.TB, opts ...graph.Option) *graph.NotationGraph {
	t.Helper()
	g, err := graph.New(b.Records(), opts...)
	if err != nil {
		t.Fatalf("graphtest: build graph: %v", err)
	}
	return g
}
