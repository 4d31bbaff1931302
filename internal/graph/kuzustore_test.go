//go:build cgo

package graph_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

// newTestStore creates a fresh in-memory KuzuStore and closes it when the
// test finishes.
func newTestStore(t *testing.T) *graph.KuzuStore {
	t.Helper()
	s, err := graph.NewKuzuStore()
	require.NoError(t, err, "NewKuzuStore should not fail")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestKuzuStore(t *testing.T) {
	exerciseStore(t, newTestStore(t))
}

func TestKuzuStore_InitSchemaIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InitSchema(ctx))
	// IF NOT EXISTS makes the second call a no-op.
	require.NoError(t, s.InitSchema(ctx))
}

func TestKuzuStore_DataSurvives(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InitSchema(ctx))

	records := chordFixture().Records()
	records[0].Data = map[string]any{"pitch": 71, "name": "B4"}
	require.NoError(t, s.SaveDocument(ctx, "doc", records))

	loaded, err := s.LoadDocument(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, loaded, len(records))
	assert.Equal(t, "B4", loaded[0].Data["name"])
	assert.Equal(t, json.Number("71"), loaded[0].Data["pitch"])
	assert.Nil(t, loaded[1].Data)
}

func TestKuzuStore_FilePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.kuzu")
	ctx := context.Background()

	s, err := graph.NewKuzuFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.InitSchema(ctx))
	require.NoError(t, s.SaveDocument(ctx, "doc", chordFixture().Records()))
	require.NoError(t, s.Close())

	reopened, err := graph.NewKuzuFileStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	names, err := reopened.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, names)
}
