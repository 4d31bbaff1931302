package export

import (
	"encoding/json"
	"io"
	"math/big"
	"sort"
	"time"

	"github.com/dusk-indust/scoregraph/internal/pipeline"
)

// ResultsExport is the top-level JSON export structure.
type ResultsExport struct {
	Name       string         `json:"name"`
	ExportedAt string         `json:"exportedAt"`
	Symbols    []SymbolExport `json:"symbols"`
	Notes      []NoteExport   `json:"notes,omitempty"`
	Precedence []EdgeExport   `json:"precedence,omitempty"`
}

// EdgeExport is one precedence edge. Synthetic vertices have negative ids.
type EdgeExport struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// SymbolExport holds what was inferred for one symbol. Beat values are
// exact fractions such as "3/2".
type SymbolExport struct {
	ID       int    `json:"id"`
	Duration string `json:"duration,omitempty"`
	Onset    string `json:"onset,omitempty"`
	Pitch    *int   `json:"pitch,omitempty"`
	Name     string `json:"pitchName,omitempty"`
}

// NoteExport describes one sounding note, in playback order.
type NoteExport struct {
	ID       int    `json:"id"`
	Onset    string `json:"onset"`
	Duration string `json:"duration"`
	Pitch    int    `json:"pitch"`
	Name     string `json:"pitchName"`
}

// BuildResults flattens res into a ResultsExport. Symbols are ordered by id.
func BuildResults(name string, res *pipeline.Result) *ResultsExport {
	export := &ResultsExport{
		Name:       name,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Symbols:    []SymbolExport{},
	}

	ids := make(map[int]bool)
	for id := range res.Durations {
		ids[id] = true
	}
	for id := range res.Onsets {
		ids[id] = true
	}
	for id := range res.Pitches {
		ids[id] = true
	}
	sorted := make([]int, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Ints(sorted)

	for _, id := range sorted {
		s := SymbolExport{
			ID:       id,
			Duration: ratString(res.Durations[id]),
			Onset:    ratString(res.Onsets[id]),
		}
		if p, ok := res.Pitches[id]; ok {
			s.Pitch = &p
			s.Name = res.PitchNames[id].String()
		}
		export.Symbols = append(export.Symbols, s)
	}

	for _, n := range res.Notes() {
		export.Notes = append(export.Notes, NoteExport{
			ID:       n.ID,
			Onset:    n.Onset.RatString(),
			Duration: n.Duration.RatString(),
			Pitch:    n.Pitch,
			Name:     n.Name.String(),
		})
	}

	if res.Precedence != nil {
		for _, e := range res.Precedence.Edges() {
			export.Precedence = append(export.Precedence, EdgeExport{From: e[0], To: e[1]})
		}
	}
	return export
}

// ResultsJSON writes the indented JSON export of res to w.
func ResultsJSON(w io.Writer, name string, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildResults(name, res))
}

func ratString(r *big.Rat) string {
	if r == nil {
		return ""
	}
	return r.RatString()
}
