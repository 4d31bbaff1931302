package onsets

import (
	"math"
	"math/big"
	"sort"

	"go.uber.org/zap"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

// InterpretNumerals reads numeral symbols left to right as a base-10
// integer. ok is false when there are no numerals.
func InterpretNumerals(numerals []*graph.Node) (value int, ok bool, err error) {
	if len(numerals) == 0 {
		return 0, false, nil
	}
	sorted := append([]*graph.Node(nil), numerals...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Left < sorted[j].Left })
	for _, n := range sorted {
		d, isDigit := graph.NumeralDigit(n.ClassName)
		if !isDigit {
			return 0, false, graph.Errorf(graph.ErrInvalidStructure, n.ID, "%s is not a numeral", n.ClassName)
		}
		value = value*10 + d
	}
	return value, true, nil
}

// InterpretTimeSignature returns the number of beats (quarter notes) per
// measure that a time signature denotes.
//
// Common and cut-common marks mean 4 beats. Numeric signatures are either a
// single beat count or a fraction; they are read as a fraction when a
// separator glyph is present, or when some pair of numerals overlaps
// vertically less than the strategy's threshold.
func (e *Engine) InterpretTimeSignature(ts *graph.Node) (*big.Rat, error) {
	members := e.g.Children(ts.ID, graph.TimeSignatureMemberClasses...)
	if len(members) == 0 {
		return nil, graph.Errorf(graph.ErrInvalidStructure, ts.ID, "time signature has no members")
	}

	var numerals []*graph.Node
	hasSeparator := false
	for _, m := range members {
		switch {
		case m.ClassName == graph.ClassTimeSigCommon, m.ClassName == graph.ClassTimeSigCutCommon:
			return rat(4, 1), nil
		case m.ClassName == graph.ClassLetterOther:
			hasSeparator = true
		default:
			numerals = append(numerals, m)
		}
	}

	fraction := hasSeparator
	if !hasSeparator && len(numerals) >= 2 {
		minDice := math.Inf(1)
		for i := range numerals {
			for j := i + 1; j < len(numerals); j++ {
				minDice = min(minDice, graph.VerticalDice(numerals[i], numerals[j]))
			}
		}
		fraction = minDice < e.strategy.FractionalVerticalIoUThreshold
	}

	if !fraction {
		beats, ok, err := InterpretNumerals(numerals)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, graph.Errorf(graph.ErrInvalidStructure, ts.ID, "time signature has no numerals")
		}
		return rat(int64(beats), 1), nil
	}

	if len(numerals) < 2 {
		return nil, graph.Errorf(graph.ErrInvalidStructure, ts.ID,
			"fraction-like time signature needs at least 2 numerals, has %d", len(numerals))
	}
	sort.SliceStable(numerals, func(i, j int) bool { return numerals[i].CenterY() < numerals[j].CenterY() })
	split, largest := 1, math.Inf(-1)
	for i := 1; i < len(numerals); i++ {
		if gap := numerals[i].CenterY() - numerals[i-1].CenterY(); gap > largest {
			split, largest = i, gap
		}
	}

	count, _, err := InterpretNumerals(numerals[:split])
	if err != nil {
		return nil, err
	}
	unit, _, err := InterpretNumerals(numerals[split:])
	if err != nil {
		return nil, err
	}
	if unit == 0 {
		return nil, graph.Errorf(graph.ErrInvalidStructure, ts.ID, "time signature denominator is zero")
	}
	beats := rat(int64(4*count), int64(unit))
	e.log.Debug("fractional time signature",
		zap.Int("node", ts.ID), zap.Int("count", count), zap.Int("unit", unit),
		zap.String("beats", beats.RatString()))
	return beats, nil
}
