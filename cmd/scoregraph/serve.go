package main

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/scoregraph/internal/graph"
	"github.com/dusk-indust/scoregraph/internal/mcptools"
	"github.com/dusk-indust/scoregraph/internal/metrics"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr   string
		stdio  bool
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inference tools over MCP",
		Long: `Serve the inference tools over the Model Context Protocol, on stdio or
as streamable HTTP at /mcp. Over HTTP, /metrics exposes Prometheus metrics
when metrics are enabled in the configuration.

Documents saved through the tools live in memory unless --db names a
Kuzu database directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.InitSchema(ctx); err != nil {
				return err
			}

			opts := []mcptools.ServiceOption{mcptools.WithLogger(a.log.Named("mcp"))}
			if a.metrics != nil {
				opts = append(opts, mcptools.WithMetrics(a.metrics))
			}
			svc := mcptools.NewService(store, a.cfg, opts...)

			if stdio {
				if a.metrics != nil {
					go serveMetrics(a.log, a.cfg.Metrics.Listen, a.metrics)
				}
				return mcptools.RunMCPServerStdio(ctx, mcptools.NewServer(svc))
			}

			extra := map[string]http.Handler{}
			if a.metrics != nil {
				extra["/metrics"] = a.metrics.Handler()
			}
			a.log.Info("serving MCP", zap.String("addr", addr))
			return mcptools.RunMCPServer(ctx, svc, addr, extra)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address for streamable HTTP")
	cmd.Flags().BoolVar(&stdio, "stdio", false, "serve on stdin/stdout instead of HTTP")
	cmd.Flags().StringVar(&dbPath, "db", "", "Kuzu database directory for saved documents (requires cgo)")
	return cmd
}

// serveMetrics exposes the collector on its own listener, for the stdio
// transport where there is no HTTP server to mount it on.
func serveMetrics(log *zap.Logger, addr string, c *metrics.Collector) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn("metrics listener stopped", zap.Error(err))
	}
}

// openStore opens the Kuzu store at path, or a memory store when path is
// empty.
func openStore(path string) (graph.Store, error) {
	if path == "" {
		return graph.NewMemStore(), nil
	}
	return openKuzu(path)
}
