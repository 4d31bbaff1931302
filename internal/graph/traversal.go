package graph

import "slices"

// Children returns the direct attachment successors of id, optionally
// restricted to the given classes. Unknown ids have no children.
func (g *NotationGraph) Children(id int, classes ...string) []*Node {
	return g.neighbors(g.attach.out[id], classes)
}

// Parents returns the direct attachment predecessors of id.
func (g *NotationGraph) Parents(id int, classes ...string) []*Node {
	return g.neighbors(g.attach.in[id], classes)
}

func (g *NotationGraph) neighbors(ids []int, classes []string) []*Node {
	var out []*Node
	for _, id := range ids {
		n, ok := g.index[id]
		if !ok {
			continue
		}
		if len(classes) == 0 || IsClass(n.ClassName, classes) {
			out = append(out, n)
		}
	}
	return out
}

// Descendants is the breadth-first closure over Children. The start node is
// excluded and the class filter applies at every step, so the walk never
// passes through a node of another class.
func (g *NotationGraph) Descendants(id int, classes ...string) []*Node {
	return g.closure(id, g.Children, classes)
}

// Ancestors is the breadth-first closure over Parents.
func (g *NotationGraph) Ancestors(id int, classes ...string) []*Node {
	return g.closure(id, g.Parents, classes)
}

func (g *NotationGraph) closure(start int, step func(int, ...string) []*Node, classes []string) []*Node {
	seen := map[int]bool{start: true}
	queue := []int{start}
	var out []*Node
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range step(cur, classes...) {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			out = append(out, n)
			queue = append(queue, n.ID)
		}
	}
	return out
}

func (g *NotationGraph) HasChildren(id int, classes ...string) bool {
	return len(g.Children(id, classes...)) > 0
}

func (g *NotationGraph) HasParents(id int, classes ...string) bool {
	return len(g.Parents(id, classes...)) > 0
}

// IsChildOf reports whether child is attached below parent.
func (g *NotationGraph) IsChildOf(child, parent int) bool {
	return slices.Contains(g.attach.out[parent], child)
}

func (g *NotationGraph) IsParentOf(parent, child int) bool {
	return g.IsChildOf(child, parent)
}

// Outlinks returns a copy of the attachment successors of id.
func (g *NotationGraph) Outlinks(id int) []int { return slices.Clone(g.attach.out[id]) }

// Inlinks returns a copy of the attachment predecessors of id.
func (g *NotationGraph) Inlinks(id int) []int { return slices.Clone(g.attach.in[id]) }

// PrecedenceOutlinks returns a copy of the precedence successors of id.
func (g *NotationGraph) PrecedenceOutlinks(id int) []int { return slices.Clone(g.prec.out[id]) }

// PrecedenceInlinks returns a copy of the precedence predecessors of id.
func (g *NotationGraph) PrecedenceInlinks(id int) []int { return slices.Clone(g.prec.in[id]) }
