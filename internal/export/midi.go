package export

import (
	"fmt"
	"io"
	"math/big"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/dusk-indust/scoregraph/internal/pipeline"
)

const (
	TicksPerBeat = 480
	Channel      = 0
	Velocity     = 80
	Tempo        = 120.0
)

type midiEvent struct {
	tick uint64
	off  bool
	key  uint8
}

// BuildMIDI renders notes as a single-track Standard MIDI File. Onsets and
// durations are rounded to the nearest tick.
func BuildMIDI(name string, notes []pipeline.Note) (*smf.SMF, error) {
	var events []midiEvent
	for _, n := range notes {
		if n.Pitch < 0 || n.Pitch > 127 {
			return nil, fmt.Errorf("note %d: pitch %d outside the MIDI range", n.ID, n.Pitch)
		}
		if n.Onset.Sign() < 0 || n.Duration.Sign() < 0 {
			return nil, fmt.Errorf("note %d: negative onset or duration", n.ID)
		}
		start := toTicks(n.Onset)
		end := toTicks(new(big.Rat).Add(n.Onset, n.Duration))
		key := uint8(n.Pitch)
		events = append(events,
			midiEvent{tick: start, key: key},
			midiEvent{tick: end, off: true, key: key})
	}
	// Note-offs first so a repeated key is released before it sounds again.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(name))
	tr.Add(0, smf.MetaTempo(Tempo))
	var last uint64
	for _, ev := range events {
		delta := uint32(ev.tick - last)
		last = ev.tick
		if ev.off {
			tr.Add(delta, midi.NoteOff(Channel, ev.key))
		} else {
			tr.Add(delta, midi.NoteOn(Channel, ev.key, Velocity))
		}
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerBeat)
	if err := s.Add(tr); err != nil {
		return nil, fmt.Errorf("add track: %w", err)
	}
	return s, nil
}

// WriteMIDI writes the notes of res to w as a Standard MIDI File.
func WriteMIDI(w io.Writer, name string, res *pipeline.Result) error {
	s, err := BuildMIDI(name, res.Notes())
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("write midi: %w", err)
	}
	return nil
}

func toTicks(beats *big.Rat) uint64 {
	t := new(big.Rat).Mul(beats, big.NewRat(TicksPerBeat, 1))
	// Round half up.
	t.Add(t, big.NewRat(1, 2))
	q := new(big.Int).Quo(t.Num(), t.Denom())
	return q.Uint64()
}
