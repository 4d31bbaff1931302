package graph

import (
	"slices"

	"go.uber.org/zap"
)

// OnStafflineRatioThreshold separates "on the line" from "next to the line"
// when a notehead straddles a staffline or leger line: if the smaller
// overhang divided by the larger is below it, the notehead sits beside the
// line.
const OnStafflineRatioThreshold = 0.2

// Position is a notehead's vertical relation to a line.
type Position int

const (
	Below Position = -1
	On    Position = 0
	Above Position = 1
)

// IsStemDirectionAbove reports whether stem points up from notehead. Chords
// share a stem, so the decision compares the free stem length above the
// topmost sibling notehead with the free length below the bottommost one.
func (g *NotationGraph) IsStemDirectionAbove(notehead, stem *Node) (bool, error) {
	if err := g.requireVertices(notehead.ID, stem.ID); err != nil {
		return false, err
	}
	siblings := g.Parents(stem.ID, NoteheadClasses...)
	if !slices.ContainsFunc(siblings, func(n *Node) bool { return n.ID == notehead.ID }) {
		return false, invalidf(notehead.ID, "not attached to stem %d", stem.ID)
	}

	top, bottom := siblings[0], siblings[0]
	for _, n := range siblings[1:] {
		if n.Top < top.Top {
			top = n
		}
		if n.Bottom > bottom.Bottom {
			bottom = n
		}
	}
	dTop := top.Top - stem.Top
	dBottom := stem.Bottom - bottom.Bottom
	return dTop > dBottom, nil
}

// IsSymbolAboveNotehead decides whether a long symbol (beam, slur) runs above
// the notehead. Only the part of other's mask over the notehead's columns is
// considered; without horizontal overlap the nearest edge column is used.
// When the slice overlaps the notehead vertically the relation is undefined:
// with compareOnIntersect the answer is false, otherwise it is an
// ErrInconsistent failure.
func (g *NotationGraph) IsSymbolAboveNotehead(notehead, other *Node, compareOnIntersect bool) (bool, error) {
	var from, to int
	switch {
	case notehead.Right <= other.Left:
		from, to = other.Left, other.Left+1
	case notehead.Left >= other.Right:
		from, to = other.Right-1, other.Right
	default:
		from, to = max(notehead.Left, other.Left), min(notehead.Right, other.Right)
	}

	top, bottom, ok := other.OccupiedRows(from, to)
	if !ok {
		return false, inconsistentf(other.ID, "empty mask slice over notehead %d", notehead.ID)
	}

	intersects := top < notehead.Bottom && bottom >= notehead.Top
	if intersects && compareOnIntersect {
		g.log.Warn("notehead intersects symbol, reporting not above",
			zap.Int("node", notehead.ID), zap.Int("other", other.ID))
		return false, nil
	}

	switch {
	case notehead.Bottom <= top:
		return false, nil
	case notehead.Top > bottom:
		return true, nil
	}
	return false, inconsistentf(notehead.ID, "ambiguous vertical position relative to %d", other.ID)
}

// ResolveNoteheadWrtStaffline places the notehead above, on or below a
// staffline or leger line. Geometry that fits none of the known cases is
// logged and reported as On, which callers should treat as unreliable.
func (g *NotationGraph) ResolveNoteheadWrtStaffline(notehead, line *Node) Position {
	nh, ll := notehead, line
	switch {
	case ll.Top <= nh.Top && nh.Bottom <= ll.Bottom:
		return On
	case ll.Top > nh.Bottom:
		return Above
	case nh.Top > ll.Bottom:
		return Below

	// notehead around the line
	case nh.Top < ll.Top && ll.Bottom < nh.Bottom:
		dTop := float64(ll.Top - nh.Top)
		dBottom := float64(nh.Bottom - ll.Bottom)
		if min(dTop, dBottom)/max(dTop, dBottom) < OnStafflineRatioThreshold {
			if dTop > dBottom {
				return Above
			}
			return Below
		}
		return On

	// interlaced, notehead on top
	case nh.Top < ll.Top && nh.Bottom <= ll.Bottom:
		return Above

	// interlaced, line on top
	case ll.Top <= nh.Top && ll.Bottom < nh.Bottom:
		return Below
	}

	g.log.Warn("unresolvable notehead position relative to line",
		zap.Int("node", nh.ID), zap.Int("line", ll.ID))
	return On
}

// IsNoteheadOnLine reports whether the notehead sits on a staffline or leger
// line.
func (g *NotationGraph) IsNoteheadOnLine(notehead, line *Node) (bool, error) {
	if !IsClass(line.ClassName, StafflineLikeClasses) {
		return false, invalidf(line.ID, "%s is not a staffline-like symbol", line.ClassName)
	}
	return g.ResolveNoteheadWrtStaffline(notehead, line) == On, nil
}
