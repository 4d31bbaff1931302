// Package pipeline runs the full inference over a notation document:
// durations, onsets, ties and pitches.
package pipeline

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dusk-indust/scoregraph/internal/config"
	"github.com/dusk-indust/scoregraph/internal/graph"
	"github.com/dusk-indust/scoregraph/internal/metrics"
	"github.com/dusk-indust/scoregraph/internal/onsets"
	"github.com/dusk-indust/scoregraph/internal/pitch"
)

// Result holds the semantic tables of one document. Durations and Onsets
// are keyed by symbol id and reflect tie processing: a tied note carries
// the whole tied duration and its continuations have no entry.
type Result struct {
	Durations  map[int]*big.Rat
	Onsets     map[int]*big.Rat
	Pitches    map[int]int
	PitchNames map[int]pitch.Name

	// Precedence is the DAG the onsets were propagated over.
	Precedence *onsets.PrecedenceGraph
}

// Note is a sounding note: a notehead with onset, duration and pitch.
type Note struct {
	ID       int
	Onset    *big.Rat
	Duration *big.Rat
	Pitch    int
	Name     pitch.Name
}

// Notes joins the tables into the notes that have all of onset, duration
// and pitch, ordered by onset, then pitch, then id.
func (r *Result) Notes() []Note {
	var out []Note
	for id, onset := range r.Onsets {
		p, ok := r.Pitches[id]
		if !ok {
			continue
		}
		d, ok := r.Durations[id]
		if !ok {
			continue
		}
		out = append(out, Note{ID: id, Onset: onset, Duration: d, Pitch: p, Name: r.PitchNames[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Onset.Cmp(out[j].Onset); c != 0 {
			return c < 0
		}
		if out[i].Pitch != out[j].Pitch {
			return out[i].Pitch < out[j].Pitch
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Runner analyzes documents with a fixed configuration.
type Runner struct {
	cfg         *config.Config
	log         *zap.Logger
	metrics     *metrics.Collector
	concurrency int
	onProgress  func(ProgressEvent)
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithMetrics records every analysis in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = c }
}

// WithConcurrency bounds the number of documents analyzed at once by
// RunBatch. Zero or less means no bound.
func WithConcurrency(n int) Option {
	return func(r *Runner) { r.concurrency = n }
}

// WithProgress registers a callback for batch progress events. It is called
// from the worker goroutines.
func WithProgress(fn func(ProgressEvent)) Option {
	return func(r *Runner) { r.onProgress = fn }
}

// NewRunner creates a Runner. A nil cfg means the defaults.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Runner{cfg: cfg, log: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Analyze is a one-off Runner.Analyze.
func Analyze(ctx context.Context, records []graph.Record, cfg *config.Config, opts ...Option) (*Result, error) {
	return NewRunner(cfg, opts...).Analyze(ctx, records)
}

// Analyze builds the notation graph from records and infers its semantics.
// The records are not modified.
func (r *Runner) Analyze(ctx context.Context, records []graph.Record) (*Result, error) {
	start := time.Now()
	res, err := r.analyze(ctx, records)
	if r.metrics != nil {
		notes := 0
		if res != nil {
			notes = len(res.Notes())
		}
		r.metrics.ObserveRun(err, time.Since(start), notes)
	}
	return res, err
}

func (r *Runner) analyze(ctx context.Context, records []graph.Record) (*Result, error) {
	g, err := graph.New(cloneRecords(records), graph.WithLogger(r.log))
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	return r.AnalyzeGraph(ctx, g)
}

// AnalyzeGraph infers the semantics of g. Onsets are written into the data
// of g's symbols.
func (r *Runner) AnalyzeGraph(ctx context.Context, g *graph.NotationGraph) (*Result, error) {
	strategy, err := r.cfg.OnsetStrategy()
	if err != nil {
		return nil, err
	}
	oe := onsets.New(g, onsets.WithStrategy(strategy), onsets.WithLogger(r.log.Named("onsets")))

	durations, err := oe.Durations(g.Vertices(), false)
	if err != nil {
		return nil, fmt.Errorf("durations: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pg, err := oe.BuildPrecedence()
	if err != nil {
		return nil, fmt.Errorf("precedence: %w", err)
	}
	onsetTable, err := oe.Propagate(pg)
	if err != nil {
		return nil, fmt.Errorf("onsets: %w", err)
	}
	durations, onsetTable, err = oe.ProcessTies(durations, onsetTable)
	if err != nil {
		return nil, fmt.Errorf("ties: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pe := pitch.New(g, pitch.WithStrategy(r.cfg.PitchStrategy()), pitch.WithLogger(r.log.Named("pitch")))
	pitches, err := pe.Infer()
	if err != nil {
		return nil, fmt.Errorf("pitches: %w", err)
	}

	r.log.Debug("analysis complete",
		zap.Int("symbols", g.Len()),
		zap.Int("onsets", len(onsetTable)),
		zap.Int("pitches", len(pitches.Pitches)))

	return &Result{
		Durations:  durations,
		Onsets:     onsetTable,
		Pitches:    pitches.Pitches,
		PitchNames: pitches.Names,
		Precedence: pg,
	}, nil
}

func cloneRecords(records []graph.Record) []graph.Record {
	out := make([]graph.Record, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out
}
