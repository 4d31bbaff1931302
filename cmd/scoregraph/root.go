package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/scoregraph/internal/config"
	"github.com/dusk-indust/scoregraph/internal/graph"
	"github.com/dusk-indust/scoregraph/internal/metrics"
	"github.com/dusk-indust/scoregraph/internal/observability"
	"github.com/dusk-indust/scoregraph/internal/pipeline"
)

// app carries what every subcommand needs once the root command has
// loaded the configuration.
type app struct {
	configDir string
	strict    bool
	logLevel  string

	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Collector
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "scoregraph",
		Short:         "Infer performance semantics from music notation graphs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", ".", "directory holding scoregraph.yml and .env")
	root.PersistentFlags().BoolVar(&a.strict, "strict", false, "fail instead of warning when a heuristic has to guess")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newInferCmd(a),
		newCheckCmd(a),
		newMIDICmd(a),
		newDiagramCmd(a),
		newServeCmd(a),
		newPersistCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}
	if a.strict {
		cfg.SetStrict()
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	log, err := observability.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewCollector()
		log = log.WithOptions(a.metrics.WarningHook())
	}
	a.log = log
	return nil
}

func (a *app) runner(opts ...pipeline.Option) *pipeline.Runner {
	opts = append([]pipeline.Option{pipeline.WithLogger(a.log)}, opts...)
	if a.metrics != nil {
		opts = append(opts, pipeline.WithMetrics(a.metrics))
	}
	return pipeline.NewRunner(a.cfg, opts...)
}

// loadDocument reads a document file and names it after the file.
func loadDocument(path string) (pipeline.Document, error) {
	records, err := graph.LoadDocument(path)
	if err != nil {
		return pipeline.Document{}, fmt.Errorf("load %s: %w", path, err)
	}
	return pipeline.Document{Name: documentName(path), Records: records}, nil
}

// documentName is the base name of path without its extension.
func documentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
