package pitch

import (
	"fmt"
	"maps"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

// Accidental is a pitch alteration. Its value is the offset in semitones.
type Accidental int

const (
	DoubleFlat  Accidental = -2
	Flat        Accidental = -1
	Natural     Accidental = 0
	Sharp       Accidental = 1
	DoubleSharp Accidental = 2
)

// AccidentalFromClass maps an accidental symbol class to its kind.
func AccidentalFromClass(class string) (Accidental, bool) {
	switch class {
	case graph.ClassAccidentalSharp:
		return Sharp, true
	case graph.ClassAccidentalFlat:
		return Flat, true
	case graph.ClassAccidentalNatural:
		return Natural, true
	case graph.ClassAccidentalDoubleSharp:
		return DoubleSharp, true
	case graph.ClassAccidentalDoubleFlat:
		return DoubleFlat, true
	}
	return 0, false
}

// Glyph is the suffix used in pitch names. Naturals have none.
func (a Accidental) Glyph() string {
	switch a {
	case Sharp:
		return "#"
	case Flat:
		return "b"
	case DoubleSharp:
		return "x"
	case DoubleFlat:
		return "bb"
	}
	return ""
}

func (a Accidental) String() string {
	switch a {
	case DoubleFlat:
		return "double flat"
	case Flat:
		return "flat"
	case Natural:
		return "natural"
	case Sharp:
		return "sharp"
	case DoubleSharp:
		return "double sharp"
	}
	return fmt.Sprintf("Accidental(%d)", int(a))
}

// Clef is a clef family.
type Clef int

const (
	GClef Clef = iota
	CClef
	FClef
)

// ClefFromClass maps a clef symbol class to its family.
func ClefFromClass(class string) (Clef, bool) {
	switch class {
	case graph.ClassGClef:
		return GClef, true
	case graph.ClassCClef:
		return CClef, true
	case graph.ClassFClef:
		return FClef, true
	}
	return 0, false
}

func (c Clef) String() string {
	switch c {
	case GClef:
		return "G"
	case CClef:
		return "C"
	case FClef:
		return "F"
	}
	return fmt.Sprintf("Clef(%d)", int(c))
}

type clefInfo struct {
	basePitch  int
	steps      [8]int
	baseStep   int
	baseOctave int
	// defaultDelta is the staffline delta of the line the clef marks in
	// its usual position.
	defaultDelta int
	sharps       [7]int
	flats        [7]int
}

var clefs = map[Clef]clefInfo{
	GClef: {
		basePitch: 71, steps: [8]int{0, 1, 2, 2, 1, 2, 2, 2}, baseStep: 6, baseOctave: 4,
		defaultDelta: -2,
		sharps:       [7]int{4, 1, 5, 2, 6, 3, 0},
		flats:        [7]int{0, 3, 6, 2, 5, 1, 4},
	},
	CClef: {
		basePitch: 60, steps: [8]int{0, 2, 2, 1, 2, 2, 2, 1}, baseStep: 0, baseOctave: 4,
		defaultDelta: 0,
		sharps:       [7]int{3, 0, 4, 1, 5, 2, 6},
		flats:        [7]int{6, 2, 5, 1, 4, 0, 3},
	},
	FClef: {
		basePitch: 50, steps: [8]int{0, 2, 1, 2, 2, 2, 1, 2}, baseStep: 1, baseOctave: 3,
		defaultDelta: 2,
		sharps:       [7]int{2, 6, 3, 0, 4, 1, 5},
		flats:        [7]int{5, 1, 4, 0, 3, 6, 2},
	},
}

// clefChangeDelta[from][to] converts staffline deltas read under one clef
// into deltas of the same pitches under another.
var clefChangeDelta = map[Clef]map[Clef]int{
	GClef: {GClef: 0, CClef: 6, FClef: 12},
	CClef: {GClef: -6, CClef: 0, FClef: 6},
	FClef: {GClef: -12, CClef: -6, FClef: 0},
}

const stepNames = "CDEFGAB"

// State is the pitch reading context of one staff at one horizontal
// position. Transitions return a new State and never modify the receiver.
//
// Deltas count stafflines and staffspaces from the middle staffline,
// positive upwards. Key accidentals are keyed by delta mod 7 and hold in
// every octave; inline accidentals are keyed by the exact delta and hold
// until the next measure separator.
type State struct {
	Clef Clef
	// ClefSet is false until a clef symbol has been read; the staff is
	// then read as if in G clef.
	ClefSet bool

	BasePitch  int
	BaseStep   int
	BaseOctave int
	DeltaSteps [8]int

	// DeltaShift is added to every delta when the clef sits off its
	// usual line.
	DeltaShift int

	KeyAccidentals    map[int]Accidental
	InlineAccidentals map[int]Accidental
}

// NewState is the state at the start of a staff.
func NewState() State {
	s := State{
		KeyAccidentals:    map[int]Accidental{},
		InlineAccidentals: map[int]Accidental{},
	}
	s.setClef(GClef)
	return s
}

func (s *State) setClef(c Clef) {
	info := clefs[c]
	s.Clef = c
	s.BasePitch = info.basePitch
	s.BaseStep = info.baseStep
	s.BaseOctave = info.baseOctave
	s.DeltaSteps = info.steps
}

func (s State) clone() State {
	s.KeyAccidentals = maps.Clone(s.KeyAccidentals)
	s.InlineAccidentals = maps.Clone(s.InlineAccidentals)
	return s
}

// WithClef applies a clef whose marked line is at staffline delta
// lineDelta; pass ok=false when the clef is not attached to a line and
// sits in its usual position. When a clef was already in force, the
// accidentals in scope are carried over to the new clef's deltas.
func (s State) WithClef(c Clef, lineDelta int, ok bool) State {
	next := s.clone()
	if s.ClefSet {
		if t := clefChangeDelta[s.Clef][c]; t != 0 {
			key := make(map[int]Accidental, len(s.KeyAccidentals))
			for d, a := range s.KeyAccidentals {
				key[floorMod(d+t, 7)] = a
			}
			inline := make(map[int]Accidental, len(s.InlineAccidentals))
			for d, a := range s.InlineAccidentals {
				inline[d+t] = a
			}
			next.KeyAccidentals, next.InlineAccidentals = key, inline
		}
	}
	next.setClef(c)
	next.ClefSet = true
	next.DeltaShift = 0
	if ok {
		next.DeltaShift = clefs[c].defaultDelta - lineDelta
	}
	return next
}

// WithKey replaces the key accidentals by the given numbers of sharps and
// flats in their standard order for the current clef.
func (s State) WithKey(sharps, flats int) (State, error) {
	if sharps < 0 || flats < 0 || sharps+flats > 7 {
		return s, graph.Errorf(graph.ErrUnsupported, graph.NoNode,
			"key signature with %d sharps and %d flats", sharps, flats)
	}
	next := s.clone()
	info := clefs[s.Clef]
	next.KeyAccidentals = make(map[int]Accidental, sharps+flats)
	for _, d := range info.sharps[:sharps] {
		next.KeyAccidentals[d] = Sharp
	}
	for _, d := range info.flats[:flats] {
		next.KeyAccidentals[d] = Flat
	}
	return next, nil
}

// WithInline records an inline accidental for the line or space at delta.
func (s State) WithInline(delta int, a Accidental) State {
	next := s.clone()
	next.InlineAccidentals[delta+s.DeltaShift] = a
	return next
}

// ClearInline ends the scope of inline accidentals.
func (s State) ClearInline() State {
	next := s.clone()
	next.InlineAccidentals = map[int]Accidental{}
	return next
}

// Accidental returns the alteration in force at delta. Inline accidentals
// override the key.
func (s State) Accidental(delta int) Accidental {
	return s.accidental(delta + s.DeltaShift)
}

func (s State) accidental(shifted int) Accidental {
	if a, ok := s.InlineAccidentals[shifted]; ok {
		return a
	}
	return s.KeyAccidentals[floorMod(shifted, 7)]
}

// Pitch returns the MIDI code of a notehead at delta.
func (s State) Pitch(delta int) int {
	d := delta + s.DeltaShift
	step, octave := floorMod(d, 7), floorDiv(d, 7)
	p := s.BasePitch + 12*octave
	for _, inc := range s.DeltaSteps[:step+1] {
		p += inc
	}
	return p + int(s.accidental(d))
}

// Name returns the pitch name of a notehead at delta.
func (s State) Name(delta int) Name {
	d := delta + s.DeltaShift
	return Name{
		Step:   string(stepNames[floorMod(s.BaseStep+d, 7)]) + s.accidental(d).Glyph(),
		Octave: s.BaseOctave + floorDiv(d+s.BaseStep, 7),
	}
}

// Name is a pitch spelled as a step with accidental glyph, such as "F#",
// and an octave, middle C being in octave 4.
type Name struct {
	Step   string `json:"step"`
	Octave int    `json:"octave"`
}

func (n Name) String() string { return fmt.Sprintf("%s%d", n.Step, n.Octave) }

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - b*floorDiv(a, b)
}
