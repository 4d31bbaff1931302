package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/scoregraph/internal/graph"
)

// Document is one notation graph to analyze.
type Document struct {
	Name    string
	Records []graph.Record
}

// BatchResult holds the outcome of one Document.
type BatchResult struct {
	Name   string
	Result *Result
	// Err is non-nil if the analysis of this document failed.
	Err error
}

// RunBatch analyzes the documents concurrently, one goroutine per
// document, each with its own graph. A failing document does not stop the
// others; its error is reported in its BatchResult. Results come in input
// order. The returned error is non-nil only if ctx ends first.
func (r *Runner) RunBatch(ctx context.Context, docs []Document) ([]BatchResult, error) {
	results := make([]BatchResult, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	for _, doc := range docs {
		r.emit(ProgressEvent{Document: doc.Name, Status: ProgressPending})
	}

	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = BatchResult{Name: doc.Name, Err: err}
				return err
			}
			r.emit(ProgressEvent{Document: doc.Name, Status: ProgressWorking})

			res, err := r.Analyze(gctx, doc.Records)
			results[i] = BatchResult{Name: doc.Name, Result: res, Err: err}
			if err != nil {
				r.emit(ProgressEvent{Document: doc.Name, Status: ProgressFailed, Message: err.Error()})
				// Only cancellation stops the batch.
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return nil
			}
			r.emit(ProgressEvent{Document: doc.Name, Status: ProgressComplete})
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

func (r *Runner) emit(ev ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(ev)
	}
}
