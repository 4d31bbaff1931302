package graph

// Component is a set of symbols connected by attachment edges, direction
// ignored.
type Component struct {
	Nodes []*Node
	// Classes counts members per class name.
	Classes map[string]int
}

// IDs returns the member ids in construction order.
func (c Component) IDs() []int {
	out := make([]int, len(c.Nodes))
	for i, n := range c.Nodes {
		out[i] = n.ID
	}
	return out
}

// ConnectedComponents finds the connected components of the attachment
// relation. Staff-level symbols tie most of a page together, so callers
// usually exclude them with ignore. Components smaller than minSize are
// dropped. Components come in the order of their first member.
func ConnectedComponents(g *NotationGraph, minSize int, ignore ...string) []Component {
	visited := make(map[int]bool, len(g.nodes))
	var out []Component
	for _, n := range g.nodes {
		if visited[n.ID] || IsClass(n.ClassName, ignore) {
			continue
		}
		members := g.bfsComponent(n.ID, visited, ignore)
		if len(members) < minSize {
			continue
		}
		c := Component{Nodes: g.inVertexOrder(members), Classes: make(map[string]int)}
		for _, m := range c.Nodes {
			c.Classes[m.ClassName]++
		}
		out = append(out, c)
	}
	return out
}

// bfsComponent walks inlinks and outlinks from start, marking visited
// symbols as it goes.
func (g *NotationGraph) bfsComponent(start int, visited map[int]bool, ignore []string) map[int]bool {
	members := map[int]bool{start: true}
	visited[start] = true
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		next := append(g.Children(cur), g.Parents(cur)...)
		for _, m := range next {
			if visited[m.ID] || IsClass(m.ClassName, ignore) {
				continue
			}
			visited[m.ID] = true
			members[m.ID] = true
			queue = append(queue, m.ID)
		}
	}
	return members
}

// IsolatedVertices returns symbols with no attachment edge at all, which
// in a complete notation graph usually points at a missed relationship.
func IsolatedVertices(g *NotationGraph, classes ...string) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if len(classes) > 0 && !IsClass(n.ClassName, classes) {
			continue
		}
		if len(g.attach.out[n.ID]) == 0 && len(g.attach.in[n.ID]) == 0 {
			out = append(out, n)
		}
	}
	return out
}
