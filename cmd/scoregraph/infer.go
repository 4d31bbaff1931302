package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/scoregraph/internal/export"
	"github.com/dusk-indust/scoregraph/internal/pipeline"
)

func newInferCmd(a *app) *cobra.Command {
	var outDir string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "infer <document.json>...",
		Short: "Infer durations, onsets and pitches and print them as JSON",
		Long: `Infer durations, onsets and pitches of the given notation documents.

With a single document the results are written to stdout. With several,
documents are analyzed concurrently and each result is written to
<out>/<name>.results.json; a failing document does not stop the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && outDir == "" {
				doc, err := loadDocument(args[0])
				if err != nil {
					return err
				}
				res, err := a.runner().Analyze(cmd.Context(), doc.Records)
				if err != nil {
					return fmt.Errorf("%s: %w", doc.Name, err)
				}
				return export.ResultsJSON(cmd.OutOrStdout(), doc.Name, res)
			}
			return a.inferBatch(cmd, args, outDir, concurrency)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for per-document results (default: current directory)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "maximum number of documents analyzed at once")
	return cmd
}

func (a *app) inferBatch(cmd *cobra.Command, paths []string, outDir string, concurrency int) error {
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	docs := make([]pipeline.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := loadDocument(p)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	progress := pipeline.NewProgressReporter(len(docs) * 3)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range progress.Subscribe() {
			fmt.Fprintln(cmd.ErrOrStderr(), pipeline.FormatProgress(ev))
		}
	}()

	results, err := a.runner(
		pipeline.WithConcurrency(concurrency),
		pipeline.WithProgress(progress.Emit),
	).RunBatch(cmd.Context(), docs)
	progress.Close()
	<-done
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			a.log.Error("document failed", zap.String("document", r.Name), zap.Error(r.Err))
			continue
		}
		path := filepath.Join(outDir, r.Name+".results.json")
		if err := writeResults(path, r.Name, r.Result); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}

func writeResults(path, name string, res *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.ResultsJSON(f, name, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
