package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with the notation tools registered.
func NewServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "scoregraph",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "infer_semantics",
		Description: "Infer the duration, onset and pitch of every note in a notation graph. Beat values are exact fractions; pitches are MIDI key numbers with note names.",
	}, svc.InferSemantics)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_graph",
		Description: "Report suspicious symbols and edges in a notation graph: beams on the wrong side of stems, inconsistent leger line attachments, duplicate symbols, isolated symbols and empty staffs.",
	}, svc.CheckGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "precedence_diagram",
		Description: "Render the precedence graph of a notation document as a Mermaid diagram, grouped by onset.",
	}, svc.PrecedenceDiagram)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_document",
		Description: "Validate a notation document and save it in the store under a name for later tool calls.",
	}, svc.SaveDocument)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the stored notation documents and the store totals.",
	}, svc.ListDocuments)

	return server
}

// RunMCPServer starts an HTTP server exposing the MCP tools at /mcp. Extra
// handlers, such as a metrics endpoint, are mounted by path.
func RunMCPServer(ctx context.Context, svc *Service, addr string, extra map[string]http.Handler) error {
	server := NewServer(svc)

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	))
	for path, h := range extra {
		mux.Handle(path, h)
	}

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
