package graph

import (
	"errors"
	"sort"

	"go.uber.org/zap"
)

// Detectors in this file only report suspicious edges or nodes; they never
// mutate the graph, and none of them may flag an edge that is correct.

// Pair is a notehead and the symbol whose edge to it is in question.
type Pair struct {
	Notehead *Node
	Other    *Node
}

// DefaultContainmentRecall is the mask recall above which a contained
// symbol counts as a duplicate of its container.
const DefaultContainmentRecall = 0.95

// FindBeamsIncoherentWithStems returns (notehead, beam) pairs where the beam
// lies on the other side of the notehead than its only stem. Noteheads with
// zero or several stems are skipped.
func FindBeamsIncoherentWithStems(g *NotationGraph) ([]Pair, error) {
	var out []Pair
	for _, nh := range g.FilterVertices(NoteheadClasses...) {
		stems := g.Children(nh.ID, ClassStem)
		if len(stems) != 1 {
			continue
		}
		beams := g.Children(nh.ID, ClassBeam)
		if len(beams) == 0 {
			continue
		}
		stemAbove, err := g.IsStemDirectionAbove(nh, stems[0])
		if err != nil {
			return nil, err
		}
		for _, beam := range beams {
			beamAbove, err := g.IsSymbolAboveNotehead(nh, beam, false)
			if errors.Is(err, ErrInconsistent) {
				g.log.Warn("cannot place beam relative to notehead",
					zap.Int("node", nh.ID), zap.Int("beam", beam.ID))
				continue
			}
			if err != nil {
				return nil, err
			}
			if stemAbove != beamAbove {
				out = append(out, Pair{Notehead: nh, Other: beam})
			}
		}
	}
	return out, nil
}

// FindLegerLinesWithNoteheadsFromBothDirections returns leger lines that have
// noteheads attached from above and from below.
func FindLegerLinesWithNoteheadsFromBothDirections(g *NotationGraph) []*Node {
	var out []*Node
	for _, ll := range g.FilterVertices(ClassLegerLine) {
		noteheads := g.Parents(ll.ID, NoteheadClasses...)
		if len(noteheads) < 2 {
			continue
		}
		seen := make(map[Position]bool)
		for _, nh := range noteheads {
			if p := g.ResolveNoteheadWrtStaffline(nh, ll); p != On {
				seen[p] = true
			}
		}
		if len(seen) > 1 {
			out = append(out, ll)
		}
	}
	return out
}

// FindNoteheadsWithLegerLineAndStaffConflict returns noteheads attached both
// to a leger line and to a staffline or staffspace.
func FindNoteheadsWithLegerLineAndStaffConflict(g *NotationGraph) []*Node {
	var out []*Node
	for _, nh := range g.FilterVertices(NoteheadClasses...) {
		if g.HasChildren(nh.ID, ClassLegerLine) && g.HasChildren(nh.ID, StafflineClasses...) {
			out = append(out, nh)
		}
	}
	return out
}

// FindNoteheadsOnStaffLinkedToLegerLine returns noteheads attached to a leger
// line that nevertheless overlap a staffline or lie inside a staffspace.
func FindNoteheadsOnStaffLinkedToLegerLine(g *NotationGraph) []*Node {
	stafflines := g.FilterVertices(ClassStaffline)
	staffspaces := g.FilterVertices(ClassStaffspace)

	var out []*Node
	for _, nh := range g.FilterVertices(NoteheadClasses...) {
		if !g.HasChildren(nh.ID, ClassLegerLine) {
			continue
		}
		hit := false
		for _, sl := range stafflines {
			if nh.Overlaps(sl) {
				hit = true
				break
			}
		}
		for _, ss := range staffspaces {
			if hit {
				break
			}
			hit = ss.Contains(nh)
		}
		if hit {
			out = append(out, nh)
		}
	}
	return out
}

// FindMisdirectedLegerLineEdges returns (notehead, leger line) edges that do
// not lead towards the staff. A notehead found on the staff itself has all
// its leger line edges reported. With retainForDisconnected, edges are kept
// off the report when removing them would leave the notehead with no
// staffline-like attachment at all.
func FindMisdirectedLegerLineEdges(g *NotationGraph, retainForDisconnected bool) []Pair {
	var out []Pair
	for _, nh := range g.FilterVertices(NoteheadClasses...) {
		lls := g.Children(nh.ID, ClassLegerLine)
		if len(lls) == 0 {
			continue
		}
		staffs := g.Children(nh.ID, ClassStaff)
		if len(staffs) == 0 {
			g.log.Warn("notehead not attached to any staff", zap.Int("node", nh.ID))
			continue
		}
		lines := g.Children(staffs[0].ID, ClassStaffline)
		if len(lines) == 0 {
			g.log.Warn("staff has no stafflines", zap.Int("node", nh.ID), zap.Int("staff", staffs[0].ID))
			continue
		}
		sort.SliceStable(lines, func(i, j int) bool { return lines[i].Top < lines[j].Top })

		pTop := g.ResolveNoteheadWrtStaffline(nh, lines[0])
		pBottom := g.ResolveNoteheadWrtStaffline(nh, lines[len(lines)-1])
		if pTop != pBottom || pTop == On || pBottom == On {
			for _, ll := range lls {
				out = append(out, Pair{Notehead: nh, Other: ll})
			}
			continue
		}

		direction := Above
		if pBottom == Below {
			direction = Below
		}

		var current []Pair
		for _, ll := range lls {
			if p := g.ResolveNoteheadWrtStaffline(nh, ll); p != On && p != direction {
				current = append(current, Pair{Notehead: nh, Other: ll})
			}
		}
		if retainForDisconnected && len(current) > 0 {
			attached := g.Children(nh.ID, ClassStaffline, ClassStaffspace, ClassLegerLine)
			if len(attached) == len(current) {
				continue
			}
		}
		out = append(out, current...)
	}
	return out
}

// FindContainedNodes returns non-staff symbols whose box lies inside another
// non-staff symbol, whose mask is covered by the container's mask with
// recall at least maskThreshold, and that the container has no edge to.
// Transitive edges are not considered.
func FindContainedNodes(g *NotationGraph, maskThreshold float64) []*Node {
	var candidates []*Node
	for _, n := range g.nodes {
		if !IsClass(n.ClassName, StaffClasses) {
			candidates = append(candidates, n)
		}
	}

	contained := make(map[int]bool)
	for _, c1 := range candidates {
		if contained[c1.ID] {
			continue
		}
		for _, c2 := range candidates {
			if c1.ID == c2.ID || contained[c2.ID] || !c1.Contains(c2) {
				continue
			}
			if c1.MaskRecall(c2) < maskThreshold {
				continue
			}
			if g.IsChildOf(c2.ID, c1.ID) {
				continue
			}
			contained[c2.ID] = true
		}
	}
	return g.inVertexOrder(contained)
}

// RemoveContainedNodes returns a copy of g without the given nodes. Their
// precedence predecessors are linked to their successors before the nodes
// and their attachment edges are removed. g is left untouched.
func RemoveContainedNodes(g *NotationGraph, contained []*Node) (*NotationGraph, error) {
	out := g.Clone()
	for _, c := range contained {
		if err := out.RemoveFromPrecedence(c.ID); err != nil {
			return nil, err
		}
	}
	for _, c := range contained {
		if err := out.RemoveVertex(c.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}
