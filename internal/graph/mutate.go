package graph

import (
	"slices"

	"go.uber.org/zap"
)

func (g *NotationGraph) requireVertices(ids ...int) error {
	for _, id := range ids {
		if _, ok := g.index[id]; !ok {
			return invalidf(id, "not in graph")
		}
	}
	return nil
}

// HasEdge reports whether the attachment edge from->to exists. A one-sided
// edge is an ErrInconsistent failure.
func (g *NotationGraph) HasEdge(from, to int) (bool, error) {
	if err := g.requireVertices(from, to); err != nil {
		return false, err
	}
	return g.attach.has(from, to)
}

// AddEdge adds the attachment edge from->to. Adding an existing edge is a
// no-op.
func (g *NotationGraph) AddEdge(from, to int) error {
	if err := g.requireVertices(from, to); err != nil {
		return err
	}
	added, err := g.attach.add(from, to)
	if err != nil {
		return err
	}
	if !added {
		g.log.Debug("edge already in graph", zap.Int("from", from), zap.Int("to", to))
	}
	return nil
}

// RemoveEdge removes the attachment edge from->to. A missing edge fails
// unless suppressMissing is set, in which case it is logged and ignored.
func (g *NotationGraph) RemoveEdge(from, to int, suppressMissing bool) error {
	if err := g.requireVertices(from, to); err != nil {
		return err
	}
	return g.removeFrom(&g.attach, from, to, suppressMissing)
}

// HasPrecedenceEdge is HasEdge for the precedence relation.
func (g *NotationGraph) HasPrecedenceEdge(from, to int) (bool, error) {
	if err := g.requireVertices(from, to); err != nil {
		return false, err
	}
	return g.prec.has(from, to)
}

// AddPrecedenceEdge is AddEdge for the precedence relation.
func (g *NotationGraph) AddPrecedenceEdge(from, to int) error {
	if err := g.requireVertices(from, to); err != nil {
		return err
	}
	added, err := g.prec.add(from, to)
	if err != nil {
		return err
	}
	if !added {
		g.log.Debug("precedence edge already in graph", zap.Int("from", from), zap.Int("to", to))
	}
	return nil
}

// RemovePrecedenceEdge removes from->to without bridging the gap.
func (g *NotationGraph) RemovePrecedenceEdge(from, to int, suppressMissing bool) error {
	if err := g.requireVertices(from, to); err != nil {
		return err
	}
	return g.removeFrom(&g.prec, from, to, suppressMissing)
}

func (g *NotationGraph) removeFrom(a *adjacency, from, to int, suppressMissing bool) error {
	removed, err := a.remove(from, to)
	if err != nil {
		return err
	}
	if !removed {
		if !suppressMissing {
			return invalidf(from, "no %s edge %d->%d", a.name, from, to)
		}
		g.log.Warn("suppressing missing edge",
			zap.String("relation", a.name), zap.Int("from", from), zap.Int("to", to))
	}
	return nil
}

// RemoveEdgesForVertex removes every attachment edge incident to id.
func (g *NotationGraph) RemoveEdgesForVertex(id int) error {
	if err := g.requireVertices(id); err != nil {
		return err
	}
	for _, from := range slices.Clone(g.attach.in[id]) {
		if _, err := g.attach.remove(from, id); err != nil {
			return err
		}
	}
	for _, to := range slices.Clone(g.attach.out[id]) {
		if _, err := g.attach.remove(id, to); err != nil {
			return err
		}
	}
	return nil
}

// RemoveVertex deletes a node with all its attachment edges. Remaining
// precedence edges are dropped without bridging; call RemoveFromPrecedence
// first to keep onsets of its successors intact.
func (g *NotationGraph) RemoveVertex(id int) error {
	if err := g.RemoveEdgesForVertex(id); err != nil {
		return err
	}
	for _, from := range slices.Clone(g.prec.in[id]) {
		if _, err := g.prec.remove(from, id); err != nil {
			return err
		}
	}
	for _, to := range slices.Clone(g.prec.out[id]) {
		if _, err := g.prec.remove(id, to); err != nil {
			return err
		}
	}
	g.attach.drop(id)
	g.prec.drop(id)
	g.nodes = slices.DeleteFunc(g.nodes, func(n *Node) bool { return n.ID == id })
	delete(g.index, id)
	return nil
}

// RemoveClasses deletes every vertex whose class is one of classes.
func (g *NotationGraph) RemoveClasses(classes ...string) error {
	for _, n := range g.FilterVertices(classes...) {
		if err := g.RemoveVertex(n.ID); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFromPrecedence excises id from the precedence relation: each of its
// predecessors is linked to each of its successors, then its own
// precedence edges are removed.
func (g *NotationGraph) RemoveFromPrecedence(id int) error {
	if err := g.requireVertices(id); err != nil {
		return err
	}
	preds := slices.Clone(g.prec.in[id])
	succs := slices.Clone(g.prec.out[id])
	if len(preds) == 0 && len(succs) == 0 {
		return nil
	}

	for _, p := range preds {
		if _, err := g.prec.remove(p, id); err != nil {
			return err
		}
	}
	for _, s := range succs {
		if _, err := g.prec.remove(id, s); err != nil {
			return err
		}
	}
	for _, p := range preds {
		for _, s := range succs {
			if p == s {
				g.log.Debug("skipping precedence self-loop", zap.Int("node", p))
				continue
			}
			if _, err := g.prec.add(p, s); err != nil {
				return err
			}
		}
	}
	return nil
}
