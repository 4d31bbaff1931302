package onsets_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/scoregraph/internal/graph"
	"github.com/dusk-indust/scoregraph/internal/graph/graphtest"
)

// tied adds quarters 1..n on staff A in a precedence chain, with a tie
// between each pair of neighbors.
func tied(n int) *graphtest.Builder {
	b := withStaffs(staffA)
	for i := 1; i <= n; i++ {
		quarter(b, i, staffA, 50*i)
		if i > 1 {
			b.Precede(i-1, i)
			tie := 200 + i
			b.Add(tie, graph.ClassTie, 105, 50*(i-1)+6, 110, 50*i+6)
			b.Attach(i-1, tie).Attach(i, tie)
		}
	}
	return b
}

func inferred(t *testing.T, b *graphtest.Builder) (durations, onsetTable map[int]*big.Rat, process func() (map[int]*big.Rat, map[int]*big.Rat, error)) {
	t.Helper()
	e, g := newEngine(t, b)
	durations, err := e.Durations(g.Vertices(), false)
	require.NoError(t, err)
	onsetTable, err = e.Onsets()
	require.NoError(t, err)
	return durations, onsetTable, func() (map[int]*big.Rat, map[int]*big.Rat, error) {
		return e.ProcessTies(durations, onsetTable)
	}
}

func TestProcessTies_Pair(t *testing.T) {
	durations, onsetTable, process := inferred(t, tied(2))
	require.Equal(t, map[int]string{1: "0", 2: "1"}, table(onsetTable))

	d, o, err := process()
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "2"}, table(d))
	assert.Equal(t, map[int]string{1: "0"}, table(o))

	// Inputs are left alone.
	assert.Len(t, onsetTable, 2)
	requireRat(t, r(1, 1), durations[1])
}

func TestProcessTies_Chain(t *testing.T) {
	_, _, process := inferred(t, tied(3))
	d, o, err := process()
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "3"}, table(d))
	assert.Equal(t, map[int]string{1: "0"}, table(o))
}

func TestProcessTies_SingleNoteTie(t *testing.T) {
	b := withStaffs(staffA)
	quarter(b, 1, staffA, 50)
	quarter(b, 2, staffA, 100)
	b.Precede(1, 2)
	b.Add(300, graph.ClassTie, 105, 100, 110, 140).Attach(2, 300)

	_, _, process := inferred(t, b)
	d, o, err := process()
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "1", 2: "1"}, table(d))
	assert.Equal(t, map[int]string{1: "0", 2: "1"}, table(o))
}

func TestProcessTies_ThreeNotes(t *testing.T) {
	b := tied(2)
	quarter(b, 3, staffA, 150)
	b.Precede(2, 3).Attach(3, 202)

	_, _, process := inferred(t, b)
	_, _, err := process()
	assert.ErrorIs(t, err, graph.ErrInvalidStructure)
}
