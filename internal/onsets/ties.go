package onsets

import (
	"math/big"
	"sort"

	"go.uber.org/zap"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

// ProcessTies merges tied notes. The left note of each tie absorbs the
// duration of the right note, whose onset is dropped. Notes are visited
// from the latest onset backwards so that chains of ties collapse into
// their first note. The returned tables are new; durations is restricted to
// the notes that keep an onset.
func (e *Engine) ProcessTies(durations, onsets map[int]*big.Rat) (map[int]*big.Rat, map[int]*big.Rat, error) {
	newDurations := cloneTable(durations)
	newOnsets := cloneTable(onsets)

	order := make([]int, 0, len(onsets))
	for id := range onsets {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool {
		if c := onsets[order[i]].Cmp(onsets[order[j]]); c != 0 {
			return c > 0
		}
		return order[i] < order[j]
	})

	for _, id := range order {
		ties := e.g.Children(id, graph.ClassTie)
		if len(ties) == 0 {
			continue
		}
		tie := ties[0]
		for _, t := range ties[1:] {
			if t.Left > tie.Left {
				tie = t
			}
		}

		left, right, err := e.tieNotes(tie)
		if err != nil {
			return nil, nil, err
		}
		if right == nil || left.ID != id {
			continue
		}

		ld, lok := newDurations[left.ID]
		rd, rok := newDurations[right.ID]
		if !lok || !rok {
			return nil, nil, graph.Errorf(graph.ErrInconsistent, tie.ID,
				"tied notes %d and %d need durations", left.ID, right.ID)
		}
		e.log.Debug("merging tied notes", zap.Int("node", left.ID), zap.Int("right", right.ID))
		newDurations[left.ID] = add(ld, rd)
		delete(newOnsets, right.ID)
	}

	for id := range newDurations {
		if _, ok := newOnsets[id]; !ok {
			delete(newDurations, id)
		}
	}
	return newDurations, newOnsets, nil
}

// tieNotes returns the notes of a tie ordered left to right. A tie with a
// single note, as at a system break, yields a nil right note.
func (e *Engine) tieNotes(tie *graph.Node) (left, right *graph.Node, err error) {
	notes := e.g.Parents(tie.ID, graph.NongraceNoteheadClasses...)
	switch len(notes) {
	case 0:
		return nil, nil, graph.Errorf(graph.ErrInvalidStructure, tie.ID, "tie has no notes")
	case 1:
		return notes[0], nil, nil
	case 2:
		if notes[1].Left < notes[0].Left {
			return notes[1], notes[0], nil
		}
		return notes[0], notes[1], nil
	}
	return nil, nil, graph.Errorf(graph.ErrInvalidStructure, tie.ID, "tie has %d notes", len(notes))
}

func cloneTable(t map[int]*big.Rat) map[int]*big.Rat {
	out := make(map[int]*big.Rat, len(t))
	for k, v := range t {
		out[k] = new(big.Rat).Set(v)
	}
	return out
}
