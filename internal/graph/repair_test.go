package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/scoregraph/internal/graph"
	"github.com/dusk-indust/scoregraph/internal/graph/graphtest"
)

func pairIDs(pairs []graph.Pair) [][2]int {
	out := make([][2]int, len(pairs))
	for i, p := range pairs {
		out[i] = [2]int{p.Notehead.ID, p.Other.ID}
	}
	return out
}

func TestFindBeamsIncoherentWithStems(t *testing.T) {
	g := graphtest.New().
		// stem up, beam above: fine
		Add(1, graph.ClassNoteheadFull, 100, 0, 110, 12).
		Add(3, graph.ClassStem, 60, 11, 108, 13).
		Add(4, graph.ClassBeam, 60, 0, 65, 50).
		// stem up, beam below: incoherent
		Add(2, graph.ClassNoteheadFull, 100, 60, 110, 72).
		Add(5, graph.ClassStem, 60, 71, 108, 73).
		Add(6, graph.ClassBeam, 130, 50, 135, 100).
		// no stem: skipped
		Add(7, graph.ClassNoteheadFull, 100, 120, 110, 132).
		Add(8, graph.ClassBeam, 130, 110, 135, 140).
		Attach(1, 3).Attach(1, 4).
		Attach(2, 5).Attach(2, 6).
		Attach(7, 8).
		Graph(t)

	pairs, err := graph.FindBeamsIncoherentWithStems(g)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{2, 6}}, pairIDs(pairs))
}

func TestFindLegerLinesWithNoteheadsFromBothDirections(t *testing.T) {
	g := graphtest.New().
		Add(10, graph.ClassLegerLine, 50, 0, 52, 40).
		Add(1, graph.ClassNoteheadFull, 38, 5, 49, 17).
		Add(2, graph.ClassNoteheadFull, 53, 20, 64, 32).
		Add(11, graph.ClassLegerLine, 50, 100, 52, 140).
		Add(3, graph.ClassNoteheadFull, 38, 105, 49, 117).
		Add(4, graph.ClassNoteheadFull, 45, 120, 57, 132).
		Attach(1, 10).Attach(2, 10).
		Attach(3, 11).Attach(4, 11).
		Graph(t)

	// On-line noteheads do not count as a direction.
	assert.Equal(t, []int{10}, ids(graph.FindLegerLinesWithNoteheadsFromBothDirections(g)))
}

func TestFindNoteheadsWithLegerLineAndStaffConflict(t *testing.T) {
	b := graphtest.New()
	lines := b.Staff(10, 11, 100, 0, 400, 10)
	g := b.
		Add(1, graph.ClassNoteheadFull, 75, 20, 86, 32).
		Add(2, graph.ClassNoteheadFull, 75, 50, 86, 62).
		Add(30, graph.ClassLegerLine, 80, 15, 82, 70).
		Attach(1, 30).Attach(1, lines[1]).
		Attach(2, 30).
		Graph(t)

	assert.Equal(t, []int{1}, ids(graph.FindNoteheadsWithLegerLineAndStaffConflict(g)))
}

func TestFindNoteheadsOnStaffLinkedToLegerLine(t *testing.T) {
	b := graphtest.New()
	b.Staff(10, 11, 100, 0, 400, 10)
	g := b.
		// on the top staffline
		Add(1, graph.ClassNoteheadFull, 96, 20, 106, 32).
		// inside the second staffspace
		Add(2, graph.ClassNoteheadFull, 113, 50, 119, 62).
		// above the staff, where leger lines belong
		Add(3, graph.ClassNoteheadFull, 75, 80, 86, 92).
		Add(4, graph.ClassNoteheadFull, 96, 120, 106, 132).
		Add(30, graph.ClassLegerLine, 80, 15, 82, 100).
		Attach(1, 30).Attach(2, 30).Attach(3, 30).
		Graph(t)

	assert.Equal(t, []int{1, 2}, ids(graph.FindNoteheadsOnStaffLinkedToLegerLine(g)))
}

// legerFixture: staff 10 with lines at 100..140. Notehead 1 sits on the
// second leger line above the staff and is attached to the first (50),
// second (51) and a stray third one above itself (52). Notehead 2 sits
// inside the staff but is attached to a leger line. Notehead 3 above the
// staff is attached only to the stray leger line.
func legerFixture() *graphtest.Builder {
	b := graphtest.New()
	b.Staff(10, 11, 100, 0, 400, 10)
	return b.
		Add(50, graph.ClassLegerLine, 90, 15, 92, 40).
		Add(51, graph.ClassLegerLine, 80, 15, 82, 40).
		Add(52, graph.ClassLegerLine, 60, 15, 62, 120).
		Add(1, graph.ClassNoteheadFull, 75, 20, 86, 32).
		Add(2, graph.ClassNoteheadFull, 115, 50, 126, 62).
		Add(3, graph.ClassNoteheadFull, 75, 100, 86, 112).
		Attach(1, 10).Attach(1, 50).Attach(1, 51).Attach(1, 52).
		Attach(2, 10).Attach(2, 50).
		Attach(3, 10).Attach(3, 52)
}

func TestFindMisdirectedLegerLineEdges(t *testing.T) {
	g := legerFixture().Graph(t)

	got := pairIDs(graph.FindMisdirectedLegerLineEdges(g, false))
	assert.Equal(t, [][2]int{{1, 52}, {2, 50}, {3, 52}}, got)
}

func TestFindMisdirectedLegerLineEdges_RetainForDisconnected(t *testing.T) {
	g := legerFixture().Graph(t)

	// Notehead 3 would lose its only line attachment.
	got := pairIDs(graph.FindMisdirectedLegerLineEdges(g, true))
	assert.Equal(t, [][2]int{{1, 52}, {2, 50}}, got)
}

func TestFindContainedNodes(t *testing.T) {
	b := graphtest.New()
	b.Staff(10, 11, 100, 0, 400, 10)
	g := b.
		Add(1, graph.ClassNoteheadFull, 115, 50, 126, 62).
		Add(2, graph.ClassNoteheadFull, 117, 52, 124, 60). // duplicate detection
		Add(3, graph.ClassStem, 80, 61, 120, 63).
		Add(4, graph.ClassAugmentationDot, 118, 55, 121, 58). // attached, kept
		Add(5, graph.ClassBeam, 60, 0, 80, 200).
		Add(6, graph.ClassAugmentationDot, 62, 10, 66, 14). // masked out of the beam
		Mask(5, beamMask(20, 200)...).
		Attach(1, 3).Attach(1, 4).
		Graph(t)

	assert.Equal(t, []int{2}, ids(graph.FindContainedNodes(g, graph.DefaultContainmentRecall)))
	// Box containment alone is enough with a zero threshold.
	assert.Equal(t, []int{2, 6}, ids(graph.FindContainedNodes(g, 0)))
}

// beamMask draws a band over the lower half of a rows x cols box.
func beamMask(rows, cols int) []string {
	out := make([]string, rows)
	for r := range rows {
		c := byte('0')
		if r >= rows/2 {
			c = '1'
		}
		line := make([]byte, cols)
		for i := range line {
			line[i] = c
		}
		out[r] = string(line)
	}
	return out
}

func TestRemoveContainedNodes(t *testing.T) {
	g := graphtest.New().
		Add(1, graph.ClassNoteheadFull, 0, 0, 10, 10).
		Add(2, graph.ClassNoteheadFull, 2, 2, 8, 8).
		Add(3, graph.ClassNoteheadFull, 0, 20, 10, 30).
		Add(4, graph.ClassStem, 0, 7, 30, 9).
		Attach(2, 4).
		Precede(1, 2).Precede(2, 3).
		Graph(t)

	contained := graph.FindContainedNodes(g, graph.DefaultContainmentRecall)
	require.Equal(t, []int{2}, ids(contained))

	cleaned, err := graph.RemoveContainedNodes(g, contained)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3, 4}, ids(cleaned.Vertices()))
	assert.Equal(t, [][2]int{{1, 3}}, cleaned.PrecedenceEdges())
	assert.Empty(t, cleaned.Inlinks(4))
	require.NoError(t, cleaned.Validate())

	// The input graph is untouched.
	assert.Equal(t, 4, g.Len())
	assert.Equal(t, [][2]int{{1, 2}, {2, 3}}, g.PrecedenceEdges())
}
