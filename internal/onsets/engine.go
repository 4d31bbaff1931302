// Package onsets infers durations and onsets, in beats, for the notes and
// rests of a notation graph.
package onsets

import (
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

// Strategy configures the engine's policies.
type Strategy struct {
	// Permissive downgrades soft heuristics (a full notehead without a
	// stem, several durations on a multi-stem notehead) to warnings.
	Permissive bool

	// PermissiveDesynchronization resolves predecessors that disagree on a
	// node's onset to the latest proposal instead of failing.
	PermissiveDesynchronization bool

	// PrecedenceOnlyForStaffAttached restricts the precedence graph to
	// symbols attached to a staff.
	PrecedenceOnlyForStaffAttached bool

	// LinkSinksToSourcesAcrossSystems chains the staffs of consecutive
	// systems so that onsets continue across line breaks.
	LinkSinksToSourcesAcrossSystems bool

	// FractionalVerticalIoUThreshold is the minimal vertical overlap of two
	// time signature numerals below which they are read as a fraction.
	FractionalVerticalIoUThreshold float64

	// TupleMultipliers maps the number written on a tuple to the duration
	// multiplier of its notes.
	TupleMultipliers map[int]*big.Rat
}

// DefaultStrategy is the permissive strategy with every linking step on.
func DefaultStrategy() Strategy {
	return Strategy{
		Permissive:                      true,
		PermissiveDesynchronization:     true,
		PrecedenceOnlyForStaffAttached:  true,
		LinkSinksToSourcesAcrossSystems: true,
		FractionalVerticalIoUThreshold:  0.8,
		TupleMultipliers:                DefaultTupleMultipliers(),
	}
}

// DefaultTupleMultipliers returns a fresh copy of the standard tuple table.
// Entries 7 and 10 fit one particular corpus (7 and 10 thirty-seconds in a
// beat) and are not general.
func DefaultTupleMultipliers() map[int]*big.Rat {
	return map[int]*big.Rat{
		2:  big.NewRat(3, 2),
		3:  big.NewRat(2, 3),
		4:  big.NewRat(4, 3),
		5:  big.NewRat(4, 5),
		6:  big.NewRat(2, 3),
		7:  big.NewRat(8, 7),
		10: big.NewRat(4, 5),
	}
}

// Engine runs duration and onset inference over one graph. It is not safe
// for concurrent use; onset inference writes into node data.
type Engine struct {
	g        *graph.NotationGraph
	strategy Strategy
	log      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for warnings and diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithStrategy replaces the default strategy.
func WithStrategy(s Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// New creates an Engine over g.
func New(g *graph.NotationGraph, opts ...Option) *Engine {
	e := &Engine{g: g, strategy: DefaultStrategy(), log: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	if e.strategy.TupleMultipliers == nil {
		e.strategy.TupleMultipliers = DefaultTupleMultipliers()
	}
	return e
}

// Strategy returns the engine's strategy.
func (e *Engine) Strategy() Strategy { return e.strategy }

// warnOrFail logs msg under the permissive policy and returns an
// ErrInconsistent failure under the strict one.
func (e *Engine) warnOrFail(nodeID int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if e.strategy.Permissive {
		e.log.Warn(msg, zap.Int("node", nodeID))
		return nil
	}
	return graph.Errorf(graph.ErrInconsistent, nodeID, "%s", msg)
}

func rat(a, b int64) *big.Rat { return big.NewRat(a, b) }

// half^n
func halfPow(n int) *big.Rat {
	return new(big.Rat).SetFrac(big.NewInt(1), new(big.Int).Lsh(big.NewInt(1), uint(n)))
}

func mul(a, b *big.Rat) *big.Rat { return new(big.Rat).Mul(a, b) }
func add(a, b *big.Rat) *big.Rat { return new(big.Rat).Add(a, b) }
