package onsets

import (
	"fmt"
	"math/big"
	"strings"

	"go.uber.org/zap"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

// Onsets builds the precedence DAG and returns the onset, in beats from the
// start of the piece, of every symbol reachable from a source. The onset is
// also stored in the symbol's data under graph.KeyOnsetBeats.
func (e *Engine) Onsets() (map[int]*big.Rat, error) {
	pg, err := e.BuildPrecedence()
	if err != nil {
		return nil, err
	}
	return e.Propagate(pg)
}

// Propagate walks pg breadth-first from its sources, which start at onset
// 0. A vertex waits until all its predecessors are resolved; its onset is
// then predecessor onset plus predecessor duration, which all predecessors
// should agree on. A vertex found waiting again with no onset resolved in
// between cannot make progress and fails the walk.
func (e *Engine) Propagate(pg *PrecedenceGraph) (map[int]*big.Rat, error) {
	queue := pg.Sources()
	enqueued := make(map[*PrecedenceNode]bool, pg.Len())
	for _, p := range queue {
		p.Onset = new(big.Rat)
		enqueued[p] = true
	}

	onsets := make(map[int]*big.Rat)
	resolved := 0
	delayedAt := make(map[*PrecedenceNode]int)

	for qi := 0; qi < len(queue); qi++ {
		q := queue[qi]
		for _, next := range q.Outlinks {
			if !enqueued[next] {
				enqueued[next] = true
				queue = append(queue, next)
			}
		}

		if q.Onset != nil {
			e.record(onsets, q)
			continue
		}

		if !predecessorsResolved(q) {
			if at, ok := delayedAt[q]; ok && at == resolved {
				return nil, e.stuck(queue[qi:])
			}
			e.log.Debug("delaying node with unresolved predecessors", zap.Int("node", q.ID))
			delayedAt[q] = resolved
			queue = append(queue, q)
			continue
		}

		onset, err := e.onsetFromPredecessors(q)
		if err != nil {
			return nil, err
		}
		q.Onset = onset
		resolved++
		e.record(onsets, q)
	}
	return onsets, nil
}

func predecessorsResolved(p *PrecedenceNode) bool {
	for _, pred := range p.Inlinks {
		if pred.Onset == nil {
			return false
		}
	}
	return true
}

func (e *Engine) onsetFromPredecessors(q *PrecedenceNode) (*big.Rat, error) {
	proposals := make([]*big.Rat, len(q.Inlinks))
	latest := 0
	synchronized := true
	for i, pred := range q.Inlinks {
		proposals[i] = add(pred.Onset, pred.Duration)
		if proposals[i].Cmp(proposals[0]) != 0 {
			synchronized = false
		}
		if proposals[i].Cmp(proposals[latest]) > 0 {
			latest = i
		}
	}
	if synchronized {
		return proposals[0], nil
	}

	if !e.strategy.PermissiveDesynchronization {
		return nil, graph.Errorf(graph.ErrInconsistent, q.ID,
			"onsets not synchronized from predecessors: %s", ratList(proposals))
	}
	e.log.Warn("onsets not synchronized from predecessors, taking the latest",
		zap.Int("node", q.ID), zap.String("proposals", ratList(proposals)))
	return proposals[latest], nil
}

// record stores a resolved onset for vertices that wrap a symbol.
func (e *Engine) record(onsets map[int]*big.Rat, p *PrecedenceNode) {
	if p.Synthetic() {
		return
	}
	onsets[p.Node.ID] = p.Onset
	if p.Node.Data == nil {
		p.Node.Data = make(map[string]any)
	}
	p.Node.Data[graph.KeyOnsetBeats] = new(big.Rat).Set(p.Onset)
}

func (e *Engine) stuck(rest []*PrecedenceNode) error {
	seen := make(map[*PrecedenceNode]bool)
	var ids []int
	for _, p := range rest {
		if p.Onset == nil && !seen[p] {
			seen[p] = true
			ids = append(ids, p.ID)
		}
	}
	return graph.Errorf(graph.ErrInconsistent, graph.NoNode,
		"precedence graph stuck, unresolved nodes %v", ids)
}

func ratList(rs []*big.Rat) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.RatString()
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " "))
}
