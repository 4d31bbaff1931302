package onsets_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dusk-indust/scoregraph/internal/graph"
	"github.com/dusk-indust/scoregraph/internal/graph/graphtest"
	"github.com/dusk-indust/scoregraph/internal/onsets"
)

const (
	staffA = 10 // children 11..21
	staffB = 30 // children 31..41
	staffC = 50  // children 51..61
	staffD = 130 // children 131..141
	staffE = 150 // children 151..161
)

// note adds a notehead of the given class at horizontal position left,
// attached to staff, with a stem (id+100) unless stemless.
func note(b *graphtest.Builder, id int, class string, staff, left int, stemless bool) {
	top := staffTop(staff) + 15
	b.Add(id, class, top, left, top+10, left+12)
	b.Attach(id, staff)
	if !stemless {
		b.Add(id+100, graph.ClassStem, top-35, left+11, top+5, left+13)
		b.Attach(id, id+100)
	}
}

func quarter(b *graphtest.Builder, id, staff, left int) {
	note(b, id, graph.ClassNoteheadFull, staff, left, false)
}

func staffTop(staff int) int {
	switch staff {
	case staffB:
		return 300
	case staffC:
		return 500
	case staffD:
		return 700
	case staffE:
		return 900
	}
	return 100
}

// withStaffs returns a builder holding the requested staffs.
func withStaffs(staffs ...int) *graphtest.Builder {
	b := graphtest.New()
	for _, s := range staffs {
		b.Staff(s, s+1, staffTop(s), 0, 2000, 10)
	}
	return b
}

func newEngine(t *testing.T, b *graphtest.Builder, opts ...onsets.Option) (*onsets.Engine, *graph.NotationGraph) {
	t.Helper()
	g := b.Graph(t)
	return onsets.New(g, opts...), g
}

func observed() (onsets.Option, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return onsets.WithLogger(zap.New(core)), logs
}

func strict() onsets.Option {
	s := onsets.DefaultStrategy()
	s.Permissive = false
	s.PermissiveDesynchronization = false
	return onsets.WithStrategy(s)
}

func r(a, b int64) *big.Rat { return big.NewRat(a, b) }

func vertex(t *testing.T, g *graph.NotationGraph, id int) *graph.Node {
	t.Helper()
	n, ok := g.Vertex(id)
	require.True(t, ok, "node %d", id)
	return n
}

// requireRat compares rationals exactly.
func requireRat(t *testing.T, want, got *big.Rat) {
	t.Helper()
	require.NotNil(t, got)
	require.Zero(t, want.Cmp(got), "want %s, got %s", want.RatString(), got.RatString())
}

// table renders a result table with string values for comparison.
func table(m map[int]*big.Rat) map[int]string {
	out := make(map[int]string, len(m))
	for k, v := range m {
		out[k] = v.RatString()
	}
	return out
}
