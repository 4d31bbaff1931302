package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/dusk-indust/scoregraph/internal/config"
	"github.com/dusk-indust/scoregraph/internal/export"
	"github.com/dusk-indust/scoregraph/internal/graph"
	"github.com/dusk-indust/scoregraph/internal/metrics"
	"github.com/dusk-indust/scoregraph/internal/pipeline"
)

// Service holds the document store and the analysis settings used by MCP
// tool handlers.
type Service struct {
	store   graph.Store
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Collector
}

type ServiceOption func(*Service)

func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// WithMetrics records every analysis run by the tools in c.
func WithMetrics(c *metrics.Collector) ServiceOption {
	return func(s *Service) { s.metrics = c }
}

// NewService creates a Service over store. A nil cfg means the defaults.
func NewService(store graph.Store, cfg *config.Config, opts ...ServiceOption) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Service{store: store, cfg: cfg, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) runner(strict bool) *pipeline.Runner {
	cfg := s.cfg
	if strict {
		c := *s.cfg
		c.SetStrict()
		cfg = &c
	}
	opts := []pipeline.Option{pipeline.WithLogger(s.log)}
	if s.metrics != nil {
		opts = append(opts, pipeline.WithMetrics(s.metrics))
	}
	return pipeline.NewRunner(cfg, opts...)
}

// records resolves a document reference to its records and a display name.
func (s *Service) records(ctx context.Context, ref documentRef) (string, []graph.Record, error) {
	if ref.document != "" {
		records, err := graph.ReadDocument(strings.NewReader(ref.document))
		if err != nil {
			return "", nil, err
		}
		name := ref.name
		if name == "" {
			name = "inline"
		}
		return name, records, nil
	}
	if ref.name == "" {
		return "", nil, fmt.Errorf("name or document is required")
	}
	records, err := s.store.LoadDocument(ctx, ref.name)
	if err != nil {
		return "", nil, fmt.Errorf("load %s: %w", ref.name, err)
	}
	if records == nil {
		return "", nil, fmt.Errorf("document %q not found", ref.name)
	}
	return ref.name, records, nil
}

// InferSemantics runs the full inference on a document and returns its
// durations, onsets and pitches.
func (s *Service) InferSemantics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input InferSemanticsInput,
) (*mcp.CallToolResult, InferSemanticsOutput, error) {
	name, records, err := s.records(ctx, documentRef{input.Name, input.Document})
	if err != nil {
		return nil, InferSemanticsOutput{}, err
	}
	res, err := s.runner(input.Strict).Analyze(ctx, records)
	if err != nil {
		return nil, InferSemanticsOutput{}, fmt.Errorf("infer %s: %w", name, err)
	}
	return nil, InferSemanticsOutput{Results: export.BuildResults(name, res)}, nil
}

// CheckGraph reports suspicious symbols and edges without changing the
// document.
func (s *Service) CheckGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CheckGraphInput,
) (*mcp.CallToolResult, CheckGraphOutput, error) {
	_, records, err := s.records(ctx, documentRef{input.Name, input.Document})
	if err != nil {
		return nil, CheckGraphOutput{}, err
	}
	g, err := graph.New(records, graph.WithLogger(s.log))
	if err != nil {
		return nil, CheckGraphOutput{}, err
	}
	report, err := graph.Check(g)
	if err != nil {
		return nil, CheckGraphOutput{}, err
	}
	return nil, CheckGraphOutput{Report: report}, nil
}

// PrecedenceDiagram renders the precedence DAG of a document, with the
// inferred onsets, as Mermaid.
func (s *Service) PrecedenceDiagram(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PrecedenceDiagramInput,
) (*mcp.CallToolResult, PrecedenceDiagramOutput, error) {
	name, records, err := s.records(ctx, documentRef{input.Name, input.Document})
	if err != nil {
		return nil, PrecedenceDiagramOutput{}, err
	}
	res, err := s.runner(false).Analyze(ctx, records)
	if err != nil {
		return nil, PrecedenceDiagramOutput{}, fmt.Errorf("infer %s: %w", name, err)
	}
	return nil, PrecedenceDiagramOutput{Mermaid: export.PrecedenceMermaid(res.Precedence, res.Onsets)}, nil
}

// SaveDocument validates a document and stores it.
func (s *Service) SaveDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SaveDocumentInput,
) (*mcp.CallToolResult, SaveDocumentOutput, error) {
	if input.Name == "" {
		return nil, SaveDocumentOutput{}, fmt.Errorf("name is required")
	}
	records, err := graph.ReadDocument(strings.NewReader(input.Document))
	if err != nil {
		return nil, SaveDocumentOutput{}, err
	}
	if _, err := graph.New(records); err != nil {
		return nil, SaveDocumentOutput{}, err
	}
	if err := s.store.SaveDocument(ctx, input.Name, records); err != nil {
		return nil, SaveDocumentOutput{}, fmt.Errorf("save %s: %w", input.Name, err)
	}
	s.log.Info("document saved", zap.String("name", input.Name), zap.Int("symbols", len(records)))
	return nil, SaveDocumentOutput{Symbols: len(records)}, nil
}

// ListDocuments returns the names of the stored documents and store totals.
func (s *Service) ListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	names, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, fmt.Errorf("stats: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return nil, ListDocumentsOutput{Documents: names, Stats: *stats}, nil
}
