package onsets

import (
	"math/big"
	"sort"

	"go.uber.org/zap"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

// restBeats is the undotted length of each rest class.
var restBeats = map[string]*big.Rat{
	graph.ClassRestLonga:        rat(16, 1),
	graph.ClassRestBreve:        rat(8, 1),
	graph.ClassRestWhole:        rat(4, 1),
	graph.ClassRestHalf:         rat(2, 1),
	graph.ClassRestQuarter:      rat(1, 1),
	graph.ClassRest8th:          rat(1, 2),
	graph.ClassRest16th:         rat(1, 4),
	graph.ClassRest32nd:         rat(1, 8),
	graph.ClassRest64th:         rat(1, 16),
	graph.ClassMultiMeasureRest: rat(4, 1),
	graph.ClassRepeatOneBar:     rat(4, 1),
}

const defaultMeasureBeats = 4

// Durations returns the duration in beats of every duration-bearing node
// among nodes. With ignoreModifiers, dots, tuples and time signatures are
// not taken into account, which yields the written note value.
func (e *Engine) Durations(nodes []*graph.Node, ignoreModifiers bool) (map[int]*big.Rat, error) {
	out := make(map[int]*big.Rat)
	for _, n := range nodes {
		if !graph.IsClass(n.ClassName, graph.DurationBearingClasses) {
			continue
		}
		b, err := e.Beats(n, ignoreModifiers)
		if err != nil {
			return nil, err
		}
		out[n.ID] = b
	}
	return out, nil
}

// Beats returns the duration of a notehead or rest.
func (e *Engine) Beats(n *graph.Node, ignoreModifiers bool) (*big.Rat, error) {
	switch {
	case graph.IsClass(n.ClassName, graph.NoteheadClasses):
		return e.NoteheadBeats(n, ignoreModifiers)
	case graph.IsClass(n.ClassName, graph.RestClasses):
		return e.RestBeats(n, ignoreModifiers)
	}
	return nil, graph.Errorf(graph.ErrInvalidStructure, n.ID,
		"cannot compute beats for %s: only notes and rests have a duration", n.ClassName)
}

// NoteheadBeats returns the duration of a notehead. Grace notes last zero
// beats.
func (e *Engine) NoteheadBeats(nh *graph.Node, ignoreModifiers bool) (*big.Rat, error) {
	stems := e.g.Children(nh.ID, graph.ClassStem)
	flagsAndBeams := e.g.Children(nh.ID, graph.FlagsAndBeamClasses...)

	var base *big.Rat
	switch {
	case graph.IsClass(nh.ClassName, graph.GraceNoteheadClasses):
		e.log.Warn("grace note gets zero duration", zap.Int("node", nh.ID))
		return new(big.Rat), nil

	case len(stems) > 1:
		e.log.Warn("inferring duration of multi-stem notehead", zap.Int("node", nh.ID))
		b, err := e.multistemBeats(nh, flagsAndBeams)
		if err != nil {
			return nil, err
		}
		base = b

	case graph.IsClass(nh.ClassName, graph.EmptyNoteheadClasses):
		if len(flagsAndBeams) != 0 {
			return nil, graph.Errorf(graph.ErrInvalidStructure, nh.ID,
				"empty notehead has %d flags and beams", len(flagsAndBeams))
		}
		base = rat(4, 1)
		if len(stems) > 0 {
			base = rat(2, 1)
		}

	case nh.ClassName == graph.ClassNoteheadFull:
		if len(stems) == 0 {
			if err := e.warnOrFail(nh.ID, "full notehead has no stem"); err != nil {
				return nil, err
			}
		}
		base = halfPow(len(flagsAndBeams))

	default:
		return nil, graph.Errorf(graph.ErrInvalidStructure, nh.ID, "unknown notehead class %s", nh.ClassName)
	}

	if ignoreModifiers {
		return base, nil
	}
	m, err := e.durationModifier(nh)
	if err != nil {
		return nil, err
	}
	return mul(base, m), nil
}

// multistemBeats returns the unmodified duration of a notehead with several
// stems. Flags and beams are split by whether they lie above or below the
// notehead; both sides must agree.
func (e *Engine) multistemBeats(nh *graph.Node, flagsAndBeams []*graph.Node) (*big.Rat, error) {
	empty := graph.IsClass(nh.ClassName, graph.EmptyNoteheadClasses)
	if len(flagsAndBeams) == 0 {
		if empty {
			return rat(2, 1), nil
		}
		return rat(1, 1), nil
	}
	if empty {
		return nil, graph.Errorf(graph.ErrInvalidStructure, nh.ID, "empty notehead with flags and beams")
	}

	center := nh.CenterY()
	above, below := 0, 0
	for _, fb := range flagsAndBeams {
		if fb.CenterY() < center {
			above++
		} else {
			below++
		}
	}
	if above != below {
		return nil, graph.Errorf(graph.ErrUnsupported, nh.ID,
			"multi-stem notehead with different durations: %s above, %s below",
			halfPow(above).RatString(), halfPow(below).RatString())
	}

	if tuples := e.g.Children(nh.ID, graph.ClassTuple); len(tuples)%2 != 0 {
		return nil, graph.Errorf(graph.ErrUnsupported, nh.ID,
			"multi-stem notehead with an odd number of tuples: %d", len(tuples))
	}
	return halfPow(above), nil
}

// durationModifier combines the tuple and augmentation dot modifiers of a
// notehead or rest.
func (e *Engine) durationModifier(n *graph.Node) (*big.Rat, error) {
	modifier := rat(1, 1)

	tuples := e.g.Children(n.ID, graph.ClassTuple)
	if len(tuples) > 1 {
		return nil, graph.Errorf(graph.ErrUnsupported, n.ID, "more than one tuple (%d)", len(tuples))
	}
	if len(tuples) == 1 {
		m, err := e.tupleMultiplier(n, tuples[0])
		if err != nil {
			return nil, err
		}
		modifier = m
	}

	dots := len(e.g.Children(n.ID, graph.ClassAugmentationDot))
	dotModifier := rat(1, 1)
	for i := range dots {
		dotModifier = add(dotModifier, halfPow(i+1))
	}
	return mul(modifier, dotModifier), nil
}

func (e *Engine) tupleMultiplier(n, tuple *graph.Node) (*big.Rat, error) {
	numerals := e.g.Children(tuple.ID, graph.NumeralClasses...)
	switch {
	case len(numerals) == 0:
		e.log.Warn("tuple has no numerals", zap.Int("node", tuple.ID))
	case len(numerals) > 3:
		e.log.Warn("tuple has more than 3 numerals", zap.Int("node", tuple.ID))
	}

	count, ok, err := InterpretNumerals(numerals)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Fall back to the number of notes under the tuple.
		count = len(e.g.Parents(tuple.ID, graph.NoteheadClasses...))
	}

	m, found := e.strategy.TupleMultipliers[count]
	if !found {
		return nil, graph.Errorf(graph.ErrUnsupported, n.ID, "no multiplier for tuple of %d", count)
	}
	if count > 6 {
		e.log.Warn("tuple beyond sextuplet resolved from the multiplier table",
			zap.Int("node", n.ID), zap.Int("tuple", count), zap.String("multiplier", m.RatString()))
	}
	return new(big.Rat).Set(m), nil
}

// RestBeats returns the duration of a rest. Measure-lasting rests take
// their length from the time signature in force unless modifiers are
// ignored.
func (e *Engine) RestBeats(rest *graph.Node, ignoreModifiers bool) (*big.Rat, error) {
	base, ok := restBeats[rest.ClassName]
	if !ok {
		return nil, graph.Errorf(graph.ErrInvalidStructure, rest.ID, "unknown rest class %s", rest.ClassName)
	}
	base = new(big.Rat).Set(base)

	switch {
	case ignoreModifiers:
		return base, nil

	case graph.IsClass(rest.ClassName, graph.MeasureLastingClasses):
		measure, err := e.MeasureLastingBeats(rest)
		if err != nil {
			return nil, err
		}
		switch rest.ClassName {
		case graph.ClassRestBreve:
			return mul(measure, rat(2, 1)), nil
		case graph.ClassRestLonga:
			return mul(measure, rat(4, 1)), nil
		}
		return measure, nil
	}

	m, err := e.durationModifier(rest)
	if err != nil {
		return nil, err
	}
	return mul(base, m), nil
}

// MeasureLastingBeats returns the length of the measure n sits in, read
// from the rightmost time signature of n's staff that lies left of n.
// Anything unexpected falls back to 4 beats with a warning.
func (e *Engine) MeasureLastingBeats(n *graph.Node) (*big.Rat, error) {
	staffs := e.g.Children(n.ID, graph.ClassStaff)
	switch {
	case len(staffs) == 0:
		e.log.Warn("measure-lasting symbol not attached to any staff, using default", zap.Int("node", n.ID))
		return rat(defaultMeasureBeats, 1), nil
	case len(staffs) > 1:
		e.log.Warn("measure-lasting symbol attached to several staffs, using default",
			zap.Int("node", n.ID), zap.Int("staffs", len(staffs)))
		return rat(defaultMeasureBeats, 1), nil
	}

	var applicable []*graph.Node
	for _, ts := range e.g.Ancestors(staffs[0].ID, graph.ClassTimeSignature) {
		if ts.Left < n.Left {
			applicable = append(applicable, ts)
		}
	}
	if len(applicable) == 0 {
		e.log.Warn("no time signature applies to measure-lasting symbol, using default", zap.Int("node", n.ID))
		return rat(defaultMeasureBeats, 1), nil
	}
	sort.SliceStable(applicable, func(i, j int) bool { return applicable[i].Left < applicable[j].Left })
	return e.InterpretTimeSignature(applicable[len(applicable)-1])
}
