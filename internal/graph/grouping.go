package graph

import (
	"sort"

	"go.uber.org/zap"
)

// inVertexOrder returns the nodes of set in the graph's construction order.
func (g *NotationGraph) inVertexOrder(set map[int]bool) []*Node {
	out := make([]*Node, 0, len(set))
	for _, n := range g.nodes {
		if set[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// EmptyStaffs returns staffs that no notehead or rest is attached to.
func EmptyStaffs(g *NotationGraph) []*Node {
	var out []*Node
	for _, s := range g.FilterVertices(ClassStaff) {
		if len(g.Parents(s.ID, NoteheadClasses...)) == 0 && len(g.Parents(s.ID, RestClasses...)) == 0 {
			out = append(out, s)
		}
	}
	return out
}

// GroupStaffsIntoSystems groups staffs into systems using the outermost
// staff groupings. With useMeasureSeparators, measure separators join the
// candidate groups: all of them, or only the leftmost one per non-empty
// staff when leftmostOnly is set. A non-empty staff that no group covers is
// its own system; systems are then ordered top to bottom.
func GroupStaffsIntoSystems(g *NotationGraph, useMeasureSeparators, leftmostOnly bool) [][]*Node {
	groups := g.FilterVertices(ClassStaffGrouping)

	empty := make(map[int]bool)
	for _, s := range EmptyStaffs(g) {
		empty[s.ID] = true
	}
	if len(empty) > 0 {
		g.log.Debug("empty staffs", zap.Int("count", len(empty)))
	}

	if useMeasureSeparators {
		seps := g.FilterVertices(ClassMeasureSeparator)
		sort.SliceStable(seps, func(i, j int) bool { return seps[i].Left < seps[j].Left })
		if leftmostOnly {
			picked := make(map[int]bool)
			for _, staff := range g.FilterVertices(ClassStaff) {
				if empty[staff.ID] {
					continue
				}
				for _, m := range seps {
					if g.IsChildOf(staff.ID, m.ID) {
						if !picked[m.ID] {
							picked[m.ID] = true
							groups = append(groups, m)
						}
						break
					}
				}
			}
		} else {
			groups = append(groups, seps...)
		}
	}

	staffs := g.FilterVertices(ClassStaff)
	if len(groups) == 0 {
		var systems [][]*Node
		for _, s := range staffs {
			if !empty[s.ID] {
				systems = append(systems, []*Node{s})
			}
		}
		return systems
	}

	members := make(map[int]map[int]bool, len(groups))
	for _, grp := range groups {
		set := make(map[int]bool)
		for _, s := range g.Children(grp.ID, ClassStaff) {
			set[s.ID] = true
		}
		members[grp.ID] = set
	}

	byLeft := append([]*Node(nil), groups...)
	sort.SliceStable(byLeft, func(i, j int) bool { return byLeft[i].Left < byLeft[j].Left })

	var outer []*Node
	isOuter := make(map[int]bool)
	for _, grp := range byLeft {
		keep := true
		for _, other := range groups {
			if other.ID == grp.ID || !subset(members[grp.ID], members[other.ID]) {
				continue
			}
			// identical staff sets: the leftmost group already kept wins
			if len(members[grp.ID]) == len(members[other.ID]) {
				if isOuter[other.ID] {
					keep = false
				}
			} else {
				keep = false
			}
		}
		if keep {
			outer = append(outer, grp)
			isOuter[grp.ID] = true
		}
	}

	systems := make([][]*Node, 0, len(outer))
	covered := make(map[int]bool)
	for _, grp := range outer {
		var system []*Node
		for _, s := range staffs {
			if members[grp.ID][s.ID] {
				system = append(system, s)
				covered[s.ID] = true
			}
		}
		if len(system) == 0 {
			continue
		}
		systems = append(systems, system)
	}

	// A non-empty staff outside every group is a system of its own.
	var uncovered []int
	for _, s := range staffs {
		if !empty[s.ID] && !covered[s.ID] {
			systems = append(systems, []*Node{s})
			uncovered = append(uncovered, s.ID)
		}
	}
	if len(uncovered) > 0 {
		g.log.Warn("staffs not covered by any staff grouping", zap.Ints("staffs", uncovered))
		sort.SliceStable(systems, func(i, j int) bool { return systems[i][0].Top < systems[j][0].Top })
	}
	return systems
}

func subset(a, b map[int]bool) bool {
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// GroupByStaff maps each staff id to its associated symbols: its
// descendants, its ancestors, and the descendants of every ancestor that is
// not system-level.
func GroupByStaff(g *NotationGraph) map[int][]*Node {
	out := make(map[int][]*Node)
	for _, staff := range g.FilterVertices(ClassStaff) {
		related := make(map[int]bool)
		for _, n := range g.Descendants(staff.ID) {
			related[n.ID] = true
		}
		for _, anc := range g.Ancestors(staff.ID) {
			related[anc.ID] = true
			if IsClass(anc.ClassName, SystemLevelClasses) {
				continue
			}
			for _, n := range g.Descendants(anc.ID) {
				related[n.ID] = true
			}
		}
		out[staff.ID] = g.inVertexOrder(related)
	}
	return out
}

// GroupByChord partitions nodes by shared stem. Stemless and multi-stem
// nodes come first as singletons, in input order, followed by one group per
// stem in order of first appearance.
func GroupByChord(g *NotationGraph, nodes []*Node) [][]*Node {
	var out [][]*Node
	var stemOrder []int
	chords := make(map[int][]*Node)
	for _, n := range nodes {
		stems := g.Children(n.ID, ClassStem)
		switch len(stems) {
		case 0:
			out = append(out, []*Node{n})
		case 1:
			sid := stems[0].ID
			if _, ok := chords[sid]; !ok {
				stemOrder = append(stemOrder, sid)
			}
			chords[sid] = append(chords[sid], n)
		default:
			g.log.Debug("multi-stem notehead kept as its own group", zap.Int("node", n.ID))
			out = append(out, []*Node{n})
		}
	}
	for _, sid := range stemOrder {
		out = append(out, chords[sid])
	}
	return out
}

// FindRelatedStaffs returns the staffs reachable from any query node, up or
// down, and with withStafflines also the stafflines and staffspaces below
// those staffs.
func FindRelatedStaffs(g *NotationGraph, query []*Node, withStafflines bool) []*Node {
	related := make(map[int]bool)
	for _, q := range query {
		for _, s := range g.Descendants(q.ID, ClassStaff) {
			related[s.ID] = true
		}
		for _, s := range g.Ancestors(q.ID, ClassStaff) {
			related[s.ID] = true
		}
	}
	if withStafflines {
		for _, s := range g.inVertexOrder(related) {
			for _, l := range g.Descendants(s.ID, StafflineClasses...) {
				related[l.ID] = true
			}
		}
	}
	return g.inVertexOrder(related)
}

// GroupByMeasure groups the symbols of g into measures, left to right.
// Without measure separators the whole graph is one measure. Assigning
// symbols to the areas between separators is not implemented and returns
// ErrUnsupported.
func GroupByMeasure(g *NotationGraph) ([][]*Node, error) {
	seps := g.FilterVertices(MeasureSeparatorClass...)
	if len(seps) == 0 {
		return [][]*Node{g.Vertices()}, nil
	}
	return nil, Errorf(ErrUnsupported, NoNode,
		"grouping by measure with %d measure separators", len(seps))
}
