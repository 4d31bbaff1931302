package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/scoregraph/internal/graph"
	"github.com/dusk-indust/scoregraph/internal/graph/graphtest"
)

func TestCheck(t *testing.T) {
	g := graphtest.New().
		Add(1, graph.ClassNoteheadFull, 100, 0, 110, 12).
		Add(3, graph.ClassStem, 60, 11, 108, 13).
		Add(4, graph.ClassBeam, 60, 0, 65, 50).
		Add(2, graph.ClassNoteheadFull, 100, 60, 110, 72).
		Add(5, graph.ClassStem, 60, 71, 108, 73).
		Add(6, graph.ClassBeam, 130, 50, 135, 100).
		Add(9, graph.ClassAccidentalSharp, 40, 200, 60, 208).
		Attach(1, 3).Attach(1, 4).
		Attach(2, 5).Attach(2, 6).
		Precede(1, 2).
		Graph(t)

	report, err := graph.Check(g)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Equal(t, 7, report.Symbols)
	assert.Equal(t, 4, report.AttachmentEdges)
	assert.Equal(t, 1, report.PrecedenceEdges)
	assert.Equal(t, 3, report.Components)
	assert.Equal(t, []graph.Finding{
		{Kind: graph.FindingBeamAgainstStem, Nodes: []int{2, 6}},
		{Kind: graph.FindingIsolated, Nodes: []int{9}},
	}, report.Findings)
}

func TestCheck_Clean(t *testing.T) {
	b := graphtest.New()
	b.Staff(10, 11, 100, 0, 400, 10)
	g := b.Add(1, graph.ClassNoteheadFull, 115, 50, 126, 62).
		Add(2, graph.ClassStem, 80, 61, 120, 63).
		Attach(1, 2).Attach(1, 10).Attach(1, 16).
		Graph(t)

	report, err := graph.Check(g)
	require.NoError(t, err)
	assert.True(t, report.Clean(), "%v", report.Findings)
	assert.Equal(t, 1, report.Components)
}
