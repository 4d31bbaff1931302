package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

func TestMemStore(t *testing.T) {
	s := graph.NewMemStore()
	t.Cleanup(func() { _ = s.Close() })
	exerciseStore(t, s)
}

func TestMemStore_ReturnsCopies(t *testing.T) {
	s := graph.NewMemStore()
	ctx := context.Background()
	records := chordFixture().Records()
	require.NoError(t, s.SaveDocument(ctx, "doc", records))

	records[0].ClassName = "changed"
	loaded, err := s.LoadDocument(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, graph.ClassNoteheadFull, loaded[0].ClassName)

	loaded[0].Outlinks[0] = 99
	again, err := s.LoadDocument(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, 3, again[0].Outlinks[0])
}
