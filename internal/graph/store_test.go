package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

// exerciseStore runs the behavior every Store implementation shares.
func exerciseStore(t *testing.T, s graph.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.InitSchema(ctx))

	full, blank := strings.Repeat("1", 39), strings.Repeat("0", 39)
	g := chordFixture().
		Precede(1, 5).Precede(2, 5).
		Mask(4, full, blank, blank, blank, blank, full).
		Graph(t)

	t.Run("missing document", func(t *testing.T) {
		records, err := s.LoadDocument(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, records)

		_, err = graph.LoadGraph(ctx, s, "nope")
		assert.ErrorIs(t, err, graph.ErrInvalidStructure)
	})

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, graph.SaveGraph(ctx, s, "page-1", g))

		loaded, err := graph.LoadGraph(ctx, s, "page-1")
		require.NoError(t, err)

		assert.Equal(t, ids(g.Vertices()), ids(loaded.Vertices()))
		assert.Equal(t, g.Edges(), loaded.Edges())
		assert.Equal(t, g.PrecedenceEdges(), loaded.PrecedenceEdges())
		assert.Equal(t, g.Outlinks(1), loaded.Outlinks(1))
		assert.Equal(t, g.Inlinks(3), loaded.Inlinks(3))

		beam, ok := loaded.Vertex(4)
		require.True(t, ok)
		assert.Equal(t, graph.ClassBeam, beam.ClassName)
		assert.Equal(t, [4]int{8, 21, 14, 60}, [4]int{beam.Top, beam.Left, beam.Bottom, beam.Right})
		require.NotNil(t, beam.Mask)
		assert.Equal(t, 78, beam.Mask.Count())
	})

	t.Run("save replaces", func(t *testing.T) {
		smaller := g.Clone()
		require.NoError(t, smaller.RemoveVertex(5))
		require.NoError(t, graph.SaveGraph(ctx, s, "page-1", smaller))

		loaded, err := graph.LoadGraph(ctx, s, "page-1")
		require.NoError(t, err)
		assert.Equal(t, 4, loaded.Len())
		assert.Empty(t, loaded.PrecedenceEdges())
	})

	t.Run("list stats delete", func(t *testing.T) {
		require.NoError(t, graph.SaveGraph(ctx, s, "page-0", g))

		names, err := s.ListDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"page-0", "page-1"}, names)

		st, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, graph.StoreStats{
			Documents:       2,
			Symbols:         9,
			AttachmentEdges: 4 + 3,
			PrecedenceEdges: 2,
		}, *st)

		require.NoError(t, s.DeleteDocument(ctx, "page-1"))
		names, err = s.ListDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"page-0"}, names)
	})
}
