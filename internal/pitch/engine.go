// Package pitch reads the pitch of every notehead in a notation graph by
// sweeping each staff left to right through clefs, key signatures, measure
// separators and noteheads.
package pitch

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

// Strategy configures the engine's policies.
type Strategy struct {
	// Permissive downgrades ambiguous accidentals and odd leger line
	// geometry to warnings.
	Permissive bool
}

func DefaultStrategy() Strategy { return Strategy{Permissive: true} }

// Result holds the inferred pitches, globally and per staff id.
type Result struct {
	Pitches       map[int]int
	Names         map[int]Name
	PerStaff      map[int]map[int]int
	NamesPerStaff map[int]map[int]Name
}

func newResult() *Result {
	return &Result{
		Pitches:       make(map[int]int),
		Names:         make(map[int]Name),
		PerStaff:      make(map[int]map[int]int),
		NamesPerStaff: make(map[int]map[int]Name),
	}
}

func (r *Result) set(staff, id, p int, n Name) {
	r.Pitches[id] = p
	r.Names[id] = n
	r.PerStaff[staff][id] = p
	r.NamesPerStaff[staff][id] = n
}

// Engine infers pitches over one graph.
type Engine struct {
	g        *graph.NotationGraph
	strategy Strategy
	log      *zap.Logger
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithStrategy(s Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// New creates an Engine over g.
func New(g *graph.NotationGraph, opts ...Option) *Engine {
	e := &Engine{g: g, strategy: DefaultStrategy(), log: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) warnOrFail(nodeID int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if e.strategy.Permissive {
		e.log.Warn(msg, zap.Int("node", nodeID))
		return nil
	}
	return graph.Errorf(graph.ErrInconsistent, nodeID, "%s", msg)
}

// Infer returns the pitch of every notehead attached to a staff. Staffs
// are processed in graph order; ties reaching back into an earlier staff
// find the pitch already resolved there.
func (e *Engine) Infer() (*Result, error) {
	queues := e.collect()
	res := newResult()
	for _, staff := range e.g.FilterVertices(graph.ClassStaff) {
		res.PerStaff[staff.ID] = make(map[int]int)
		res.NamesPerStaff[staff.ID] = make(map[int]Name)
		if err := e.processStaff(staff, queues[staff.ID], res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Pitches is Infer without the names and per-staff tables.
func (e *Engine) Pitches() (map[int]int, error) {
	res, err := e.Infer()
	if err != nil {
		return nil, err
	}
	return res.Pitches, nil
}

// collect gathers, per staff id, the symbols that take part in pitch
// reading. Symbols without a staff are skipped.
func (e *Engine) collect() map[int][]*graph.Node {
	queues := make(map[int][]*graph.Node)
	addToFirst := func(n *graph.Node) {
		staffs := e.g.Children(n.ID, graph.ClassStaff)
		if len(staffs) == 0 {
			e.log.Warn("symbol has no staff, skipped in pitch inference",
				zap.Int("node", n.ID), zap.String("class", n.ClassName))
			return
		}
		queues[staffs[0].ID] = append(queues[staffs[0].ID], n)
	}
	for _, n := range e.g.FilterVertices(graph.ClefClasses...) {
		addToFirst(n)
	}
	for _, n := range e.g.FilterVertices(graph.ClassKeySignature) {
		addToFirst(n)
	}
	// Measure separators may span several staffs.
	for _, n := range e.g.FilterVertices(graph.ClassMeasureSeparator) {
		for _, s := range e.g.Children(n.ID, graph.ClassStaff) {
			queues[s.ID] = append(queues[s.ID], n)
		}
	}
	for _, n := range e.g.FilterVertices(graph.NoteheadClasses...) {
		if staffs := e.g.Children(n.ID, graph.ClassStaff); len(staffs) > 0 {
			queues[staffs[0].ID] = append(queues[staffs[0].ID], n)
		}
	}
	for _, q := range queues {
		sort.SliceStable(q, func(i, j int) bool { return q[i].Left < q[j].Left })
	}
	return queues
}

func (e *Engine) processStaff(staff *graph.Node, queue []*graph.Node, res *Result) error {
	state := NewState()
	for _, n := range queue {
		var err error
		switch {
		case graph.IsClass(n.ClassName, graph.ClefClasses):
			state, err = e.processClef(state, n)
		case n.ClassName == graph.ClassKeySignature:
			state, err = e.processKeySignature(state, n)
		case n.ClassName == graph.ClassMeasureSeparator:
			state = state.ClearInline()
		default:
			var p int
			var name Name
			state, p, name, err = e.processNotehead(state, n, res)
			if err == nil {
				res.set(staff.ID, n.ID, p, name)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) processClef(s State, clef *graph.Node) (State, error) {
	c, _ := ClefFromClass(clef.ClassName)
	if !e.g.HasChildren(clef.ID, graph.StafflineClasses...) {
		return s.WithClef(c, 0, false), nil
	}
	delta, err := e.StafflineDelta(clef)
	if err != nil {
		return s, err
	}
	e.log.Debug("clef attached to a staffline", zap.Int("node", clef.ID), zap.Int("delta", delta))
	return s.WithClef(c, delta, true), nil
}

func (e *Engine) processKeySignature(s State, key *graph.Node) (State, error) {
	sharps := len(e.g.Children(key.ID, graph.ClassAccidentalSharp))
	flats := len(e.g.Children(key.ID, graph.ClassAccidentalFlat))
	next, err := s.WithKey(sharps, flats)
	if err != nil {
		return s, fmt.Errorf("key signature %d: %w", key.ID, err)
	}
	return next, nil
}

func (e *Engine) processNotehead(s State, nh *graph.Node, res *Result) (State, int, Name, error) {
	for _, tie := range e.g.Children(nh.ID, graph.ClassTie) {
		tied := e.g.Parents(tie.ID, graph.NoteheadClasses...)
		if len(tied) > 2 {
			return s, 0, Name{}, graph.Errorf(graph.ErrInvalidStructure, tie.ID,
				"tie joins %d noteheads", len(tied))
		}
		if len(tied) < 2 {
			e.log.Warn("tie with a single notehead, staff break?", zap.Int("node", tie.ID))
			break
		}
		left := tied[0]
		if tied[1].Left < left.Left {
			left = tied[1]
		}
		if left.ID == nh.ID {
			continue
		}
		p, ok := res.Pitches[left.ID]
		if !ok {
			return s, 0, Name{}, graph.Errorf(graph.ErrInconsistent, nh.ID,
				"tied to notehead %d which has no pitch yet", left.ID)
		}
		return s, p, res.Names[left.ID], nil
	}

	delta, err := e.StafflineDelta(nh)
	if err != nil {
		return s, 0, Name{}, err
	}

	s, err = e.applyInlineAccidentals(s, nh, delta)
	if err != nil {
		return s, 0, Name{}, err
	}
	return s, s.Pitch(delta), s.Name(delta), nil
}

func (e *Engine) applyInlineAccidentals(s State, nh *graph.Node, delta int) (State, error) {
	var naturals, others []Accidental
	accidentals := e.g.Children(nh.ID, graph.AccidentalClasses...)
	for _, a := range accidentals {
		kind, _ := AccidentalFromClass(a.ClassName)
		if kind == Natural {
			naturals = append(naturals, kind)
		} else {
			others = append(others, kind)
		}
	}

	switch len(accidentals) {
	case 0:
		return s, nil
	case 1:
		if len(naturals) == 1 {
			return s.WithInline(delta, Natural), nil
		}
		return s.WithInline(delta, others[0]), nil
	case 2:
		if len(naturals) == 0 {
			if err := e.warnOrFail(nh.ID, "more than one non-natural accidental on notehead"); err != nil {
				return s, err
			}
		}
		if len(others) == 0 {
			if err := e.warnOrFail(nh.ID, "two naturals on notehead"); err != nil {
				return s, err
			}
			return s.WithInline(delta, Natural), nil
		}
		return s.WithInline(delta, others[0]), nil
	}
	return s, e.warnOrFail(nh.ID, "%d accidentals on notehead, ignoring them", len(accidentals))
}

// StafflineDelta returns the position of a notehead, or a clef, in
// stafflines and staffspaces from the middle staffline, positive upwards.
// Symbols beyond the staff are located by their leger lines.
func (e *Engine) StafflineDelta(n *graph.Node) (int, error) {
	staffs := e.g.Children(n.ID, graph.ClassStaff)
	if len(staffs) == 0 {
		return 0, graph.Errorf(graph.ErrInvalidStructure, n.ID, "no staff attached")
	}
	staff := staffs[0]

	lines := e.g.Children(n.ID, graph.StafflineClasses...)
	switch len(lines) {
	case 0:
		return e.legerLineDelta(n, staff)
	case 1:
	default:
		return 0, graph.Errorf(graph.ErrInvalidStructure, n.ID,
			"attached to %d stafflines or staffspaces", len(lines))
	}

	all := e.g.Children(staff.ID, graph.StafflineClasses...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CenterY() < all[j].CenterY() })
	for i, l := range all {
		if l.ID == lines[0].ID {
			return 5 - i, nil
		}
	}
	return 0, graph.Errorf(graph.ErrInvalidStructure, n.ID,
		"staffline %d does not belong to staff %d", lines[0].ID, staff.ID)
}

func (e *Engine) legerLineDelta(nh, staff *graph.Node) (int, error) {
	lls := e.g.Children(nh.ID, graph.ClassLegerLine)
	if len(lls) == 0 {
		return 0, graph.Errorf(graph.ErrInvalidStructure, nh.ID,
			"no staffline, staffspace or leger line attached")
	}
	above := nh.Top < staff.Top

	dist := func(l *graph.Node) int {
		dt, db := l.Top-nh.Top, l.Bottom-nh.Bottom
		return dt*dt + db*db
	}
	closest := lls[0]
	for _, l := range lls[1:] {
		if dist(l) < dist(closest) {
			closest = l
		}
	}

	on, err := e.onLegerLine(nh, closest, above)
	if err != nil {
		return 0, err
	}
	delta := 2*len(lls) - 1 + 5
	if !on {
		delta++
	}
	if !above {
		delta = -delta
	}
	return delta, nil
}

// onLegerLine decides whether the notehead sits on the leger line or in
// the space beyond it. A notehead found on the staff side of its closest
// leger line contradicts the leger line count.
func (e *Engine) onLegerLine(nh, ll *graph.Node, aboveStaff bool) (bool, error) {
	pos := e.g.ResolveNoteheadWrtStaffline(nh, ll)
	if pos == graph.On {
		return true, nil
	}
	if (pos == graph.Above) == aboveStaff {
		return false, nil
	}

	around := nh.Top < ll.Top && ll.Bottom < nh.Bottom
	if around {
		e.log.Debug("notehead beside leger line on the staff side, reading it as on the line",
			zap.Int("node", nh.ID), zap.Int("leger_line", ll.ID))
		return true, nil
	}
	if err := e.warnOrFail(nh.ID, "notehead between the staff and its leger line %d", ll.ID); err != nil {
		return false, err
	}
	// Read as on the line: beside on the staff side would give the delta
	// of one fewer leger line.
	return true, nil
}
