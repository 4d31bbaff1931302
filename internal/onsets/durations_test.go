package onsets_test

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/scoregraph/internal/graph"
	"github.com/dusk-indust/scoregraph/internal/onsets"
)

func TestNoteheadBeats_PlainQuarter(t *testing.T) {
	b := withStaffs(staffA)
	quarter(b, 1, staffA, 100)
	e, g := newEngine(t, b)

	got, err := e.Beats(vertex(t, g, 1), false)
	require.NoError(t, err)
	requireRat(t, r(1, 1), got)
}

func TestNoteheadBeats_DotLaw(t *testing.T) {
	for dots := 0; dots <= 4; dots++ {
		t.Run(fmt.Sprintf("%d dots", dots), func(t *testing.T) {
			b := withStaffs(staffA)
			quarter(b, 1, staffA, 100)
			for i := range dots {
				id := 300 + i
				b.Add(id, graph.ClassAugmentationDot, 118, 116+4*i, 121, 119+4*i)
				b.Attach(1, id)
			}
			e, g := newEngine(t, b)

			got, err := e.Beats(vertex(t, g, 1), false)
			require.NoError(t, err)
			// 2 - 2^-n
			want := new(big.Rat).Sub(r(2, 1), new(big.Rat).SetFrac64(1, 1<<dots))
			requireRat(t, want, got)

			plain, err := e.Beats(vertex(t, g, 1), true)
			require.NoError(t, err)
			requireRat(t, r(1, 1), plain)
		})
	}
}

// eighths adds three beamed eighth notes 1..3 under tuple 310, optionally
// with a numeral child.
func eighths(numeral string) (*graph.NotationGraph, *onsets.Engine, error) {
	b := withStaffs(staffA)
	for i, id := range []int{1, 2, 3} {
		quarter(b, id, staffA, 100+40*i)
	}
	b.Add(300, graph.ClassBeam, 80, 110, 84, 200)
	b.Add(310, graph.ClassTuple, 60, 140, 70, 150)
	for _, id := range []int{1, 2, 3} {
		b.Attach(id, 300).Attach(id, 310)
	}
	if numeral != "" {
		b.Add(311, numeral, 60, 140, 70, 148)
		b.Attach(310, 311)
	}
	g, err := graph.New(b.Records())
	if err != nil {
		return nil, nil, err
	}
	return g, onsets.New(g), nil
}

func TestNoteheadBeats_Triplet(t *testing.T) {
	for _, numeral := range []string{graph.ClassNumeral3, ""} {
		t.Run("numeral="+numeral, func(t *testing.T) {
			g, e, err := eighths(numeral)
			require.NoError(t, err)

			durations, err := e.Durations(g.Vertices(), false)
			require.NoError(t, err)
			require.Len(t, durations, 3)

			sum := new(big.Rat)
			for _, d := range durations {
				requireRat(t, r(1, 3), d)
				sum.Add(sum, d)
			}
			requireRat(t, r(1, 1), sum)
		})
	}
}

func TestNoteheadBeats_UnsupportedTuple(t *testing.T) {
	g, e, err := eighths(graph.ClassNumeral9)
	require.NoError(t, err)

	_, err = e.Beats(vertex(t, g, 1), false)
	assert.ErrorIs(t, err, graph.ErrUnsupported)

	// Ignoring modifiers never looks at the tuple.
	got, err := e.Beats(vertex(t, g, 1), true)
	require.NoError(t, err)
	requireRat(t, r(1, 2), got)
}

func TestNoteheadBeats_TupleTableIsConfigurable(t *testing.T) {
	g, _, err := eighths(graph.ClassNumeral9)
	require.NoError(t, err)

	s := onsets.DefaultStrategy()
	s.TupleMultipliers[9] = r(8, 9)
	e := onsets.New(g, onsets.WithStrategy(s))

	got, err := e.Beats(vertex(t, g, 1), false)
	require.NoError(t, err)
	requireRat(t, r(4, 9), got)
}

func TestNoteheadBeats_TwoTuples(t *testing.T) {
	b := withStaffs(staffA)
	quarter(b, 1, staffA, 100)
	b.Add(310, graph.ClassTuple, 60, 100, 70, 110).
		Add(311, graph.ClassTuple, 60, 120, 70, 130).
		Attach(1, 310).Attach(1, 311)
	e, g := newEngine(t, b)

	_, err := e.Beats(vertex(t, g, 1), false)
	assert.ErrorIs(t, err, graph.ErrUnsupported)
}

func TestNoteheadBeats_Classes(t *testing.T) {
	tests := []struct {
		name     string
		class    string
		stemless bool
		flags    int
		want     *big.Rat
	}{
		{"half", graph.ClassNoteheadHalf, false, 0, r(2, 1)},
		{"whole", graph.ClassNoteheadWhole, true, 0, r(4, 1)},
		{"stemless half", graph.ClassNoteheadHalf, true, 0, r(4, 1)},
		{"sixteenth", graph.ClassNoteheadFull, false, 2, r(1, 4)},
		{"grace", graph.ClassNoteheadFullSmall, false, 1, new(big.Rat)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := withStaffs(staffA)
			note(b, 1, tt.class, staffA, 100, tt.stemless)
			for i := range tt.flags {
				b.Add(300+i, graph.ClassFlag8thUp, 80+4*i, 112, 84+4*i, 120)
				b.Attach(1, 300+i)
			}
			e, g := newEngine(t, b)

			got, err := e.Beats(vertex(t, g, 1), false)
			require.NoError(t, err)
			requireRat(t, tt.want, got)
		})
	}
}

func TestNoteheadBeats_EmptyWithFlags(t *testing.T) {
	b := withStaffs(staffA)
	note(b, 1, graph.ClassNoteheadHalf, staffA, 100, false)
	b.Add(300, graph.ClassFlag8thUp, 80, 112, 84, 120).Attach(1, 300)
	e, g := newEngine(t, b)

	_, err := e.Beats(vertex(t, g, 1), false)
	assert.ErrorIs(t, err, graph.ErrInvalidStructure)
}

func TestNoteheadBeats_FullWithoutStem(t *testing.T) {
	b := withStaffs(staffA)
	note(b, 1, graph.ClassNoteheadFull, staffA, 100, true)

	opt, logs := observed()
	e, g := newEngine(t, b, opt)
	got, err := e.Beats(vertex(t, g, 1), false)
	require.NoError(t, err)
	requireRat(t, r(1, 1), got)
	assert.Equal(t, 1, logs.FilterMessage("full notehead has no stem").Len())

	e, g = newEngine(t, b, strict())
	_, err = e.Beats(vertex(t, g, 1), false)
	assert.ErrorIs(t, err, graph.ErrInconsistent)
}

// multistem adds full notehead 1 with two stems and the given flags, each
// placed above (true) or below (false) the notehead.
func multistem(flagsAbove ...bool) *graph.NotationGraph {
	b := withStaffs(staffA)
	quarter(b, 1, staffA, 100)
	b.Add(102, graph.ClassStem, 120, 100, 160, 102).Attach(1, 102)
	for i, above := range flagsAbove {
		top := 160
		if above {
			top = 80
		}
		b.Add(300+i, graph.ClassFlag8thUp, top+4*i, 112, top+4*i+3, 120).Attach(1, 300+i)
	}
	g, err := graph.New(b.Records())
	if err != nil {
		panic(err)
	}
	return g
}

func TestNoteheadBeats_Multistem(t *testing.T) {
	tests := []struct {
		name  string
		flags []bool
		want  *big.Rat
		err   error
	}{
		{"no flags", nil, r(1, 1), nil},
		{"one flag each side", []bool{true, false}, r(1, 2), nil},
		{"flags disagree", []bool{true}, nil, graph.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := multistem(tt.flags...)
			got, err := onsets.New(g).Beats(vertex(t, g, 1), false)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			requireRat(t, tt.want, got)
		})
	}
}

func TestNoteheadBeats_MultistemDotAppliedOnce(t *testing.T) {
	g := multistem(true, false)
	dot := graph.Record{Node: graph.Node{ID: 300 + 9, ClassName: graph.ClassAugmentationDot,
		Top: 118, Left: 116, Bottom: 121, Right: 119}}
	records := append(g.Records(), dot)
	g, err := graph.New(records)
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(1, 309))

	got, err := onsets.New(g).Beats(vertex(t, g, 1), false)
	require.NoError(t, err)
	requireRat(t, r(3, 4), got)
}

func TestRestBeats(t *testing.T) {
	tests := map[string]*big.Rat{
		graph.ClassRestLonga:   r(16, 1),
		graph.ClassRestBreve:   r(8, 1),
		graph.ClassRestWhole:   r(4, 1),
		graph.ClassRestHalf:    r(2, 1),
		graph.ClassRestQuarter: r(1, 1),
		graph.ClassRest8th:     r(1, 2),
		graph.ClassRest16th:    r(1, 4),
		graph.ClassRest32nd:    r(1, 8),
		graph.ClassRest64th:    r(1, 16),
	}
	for class, want := range tests {
		t.Run(class, func(t *testing.T) {
			b := withStaffs(staffA)
			b.Add(1, class, 120, 100, 130, 110).Attach(1, staffA)
			e, g := newEngine(t, b)

			got, err := e.Beats(vertex(t, g, 1), true)
			require.NoError(t, err)
			requireRat(t, want, got)
		})
	}
}

func TestRestBeats_DottedQuarter(t *testing.T) {
	b := withStaffs(staffA)
	b.Add(1, graph.ClassRestQuarter, 120, 100, 130, 110).
		Add(300, graph.ClassAugmentationDot, 122, 112, 125, 115).
		Attach(1, staffA).Attach(1, 300)
	e, g := newEngine(t, b)

	got, err := e.Beats(vertex(t, g, 1), false)
	require.NoError(t, err)
	requireRat(t, r(3, 2), got)
}

func TestBeats_RejectsOtherClasses(t *testing.T) {
	b := withStaffs(staffA)
	quarter(b, 1, staffA, 100)
	e, g := newEngine(t, b)

	_, err := e.Beats(vertex(t, g, 101), false)
	assert.ErrorIs(t, err, graph.ErrInvalidStructure)

	_, err = e.RestBeats(vertex(t, g, 101), false)
	assert.ErrorIs(t, err, graph.ErrInvalidStructure)
}

// threeFour adds a 3/4 time signature (400) at left 50 on staff A.
func threeFour() *graph.NotationGraph {
	b := withStaffs(staffA)
	b.Add(400, graph.ClassTimeSignature, 100, 50, 142, 62).
		Add(401, graph.ClassNumeral3, 100, 50, 120, 62).
		Add(402, graph.ClassNumeral4, 122, 50, 142, 62).
		Attach(400, 401).Attach(400, 402).Attach(400, staffA).
		Add(1, graph.ClassRestWhole, 110, 100, 115, 112).Attach(1, staffA).
		Add(2, graph.ClassRestBreve, 110, 200, 120, 212).Attach(2, staffA).
		Add(3, graph.ClassRepeatOneBar, 110, 300, 130, 320).Attach(3, staffA).
		Add(4, graph.ClassRestWhole, 110, 20, 115, 32).Attach(4, staffA).
		Add(5, graph.ClassMultiMeasureRest, 110, 400, 130, 480)
	g, err := graph.New(b.Records())
	if err != nil {
		panic(err)
	}
	return g
}

func TestRestBeats_MeasureLasting(t *testing.T) {
	g := threeFour()
	opt, logs := observed()
	e := onsets.New(g, opt)

	tests := []struct {
		id   int
		want *big.Rat
	}{
		{1, r(3, 1)},
		{2, r(6, 1)},
		{4, r(4, 1)}, // left of the time signature
		{5, r(4, 1)}, // no staff
	}
	for _, tt := range tests {
		got, err := e.Beats(vertex(t, g, tt.id), false)
		require.NoError(t, err)
		requireRat(t, tt.want, got)
	}
	assert.Equal(t, 2, logs.Len())

	repeat, err := e.RestBeats(vertex(t, g, 3), false)
	require.NoError(t, err)
	requireRat(t, r(3, 1), repeat)

	written, err := e.Beats(vertex(t, g, 2), true)
	require.NoError(t, err)
	requireRat(t, r(8, 1), written)
}
