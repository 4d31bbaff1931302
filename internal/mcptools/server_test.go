package mcptools

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/scoregraph/internal/graph"
	"github.com/dusk-indust/scoregraph/internal/graph/graphtest"
)

// setupServerClient wires an MCP server and client together using in-memory
// transports.
func setupServerClient(t *testing.T) (*mcp.ClientSession, *graph.MemStore) {
	t.Helper()

	store := graph.NewMemStore()
	require.NoError(t, store.InitSchema(context.Background()))
	server := NewServer(NewService(store, nil))

	st, ct := mcp.NewInMemoryTransports()
	ctx := context.Background()

	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
	})

	return session, store
}

// twoNotes is a C5 quarter followed by a B4 half in G clef.
func twoNotes() []graph.Record {
	b := graphtest.New()
	b.Staff(10, 11, 100, 0, 1000, 10)
	b.Add(30, graph.ClassGClef, 90, 10, 150, 30).Attach(30, 10)
	b.Add(1, graph.ClassNoteheadFull, 110, 100, 122, 112).Attach(1, 10).Attach(1, 15)
	b.Add(101, graph.ClassStem, 80, 111, 116, 113).Attach(1, 101)
	b.Add(2, graph.ClassNoteheadHalf, 115, 200, 127, 212).Attach(2, 10).Attach(2, 16)
	b.Add(102, graph.ClassStem, 80, 211, 121, 213).Attach(2, 102)
	b.Precede(1, 2)
	return b.Records()
}

func documentJSON(t *testing.T, records []graph.Record) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, graph.WriteDocument(&buf, records))
	return buf.String()
}

func callTool[Out any](t *testing.T, session *mcp.ClientSession, name string, args any) Out {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "%s should not return an error: %v", name, result.Content)
	require.NotNil(t, result.StructuredContent, "expected structured content from %s", name)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var out Out
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestMCPListTools(t *testing.T) {
	session, _ := setupServerClient(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)

	assert.Equal(t, []string{
		"check_graph",
		"infer_semantics",
		"list_documents",
		"precedence_diagram",
		"save_document",
	}, names)
}

func TestMCPInferSemantics_Inline(t *testing.T) {
	session, _ := setupServerClient(t)

	out := callTool[InferSemanticsOutput](t, session, "infer_semantics", InferSemanticsInput{
		Document: documentJSON(t, twoNotes()),
	})
	require.NotNil(t, out.Results)
	assert.Equal(t, "inline", out.Results.Name)
	require.Len(t, out.Results.Notes, 2)
	assert.Equal(t, "C5", out.Results.Notes[0].Name)
	assert.Equal(t, "1", out.Results.Notes[1].Onset)
	assert.Equal(t, "2", out.Results.Notes[1].Duration)
	assert.Equal(t, 71, out.Results.Notes[1].Pitch)
}

func TestMCPSaveThenInfer(t *testing.T) {
	session, store := setupServerClient(t)

	saved := callTool[SaveDocumentOutput](t, session, "save_document", SaveDocumentInput{
		Name:     "etude",
		Document: documentJSON(t, twoNotes()),
	})
	assert.Equal(t, 17, saved.Symbols)

	records, err := store.LoadDocument(context.Background(), "etude")
	require.NoError(t, err)
	assert.Len(t, records, 17)

	out := callTool[InferSemanticsOutput](t, session, "infer_semantics", InferSemanticsInput{Name: "etude"})
	assert.Equal(t, "etude", out.Results.Name)
	assert.Len(t, out.Results.Notes, 2)

	listed := callTool[ListDocumentsOutput](t, session, "list_documents", ListDocumentsInput{})
	assert.Equal(t, []string{"etude"}, listed.Documents)
	assert.Equal(t, 1, listed.Stats.Documents)
	assert.Equal(t, 1, listed.Stats.PrecedenceEdges)
}

func TestMCPCheckGraph(t *testing.T) {
	session, _ := setupServerClient(t)

	records := append(twoNotes(), graph.Record{Node: graph.Node{
		ID: 50, ClassName: graph.ClassAccidentalSharp, Top: 40, Left: 500, Bottom: 60, Right: 508,
	}})
	out := callTool[CheckGraphOutput](t, session, "check_graph", CheckGraphInput{
		Document: documentJSON(t, records),
	})
	require.NotNil(t, out.Report)
	assert.Equal(t, []graph.Finding{{Kind: graph.FindingIsolated, Nodes: []int{50}}}, out.Report.Findings)
}

func TestMCPPrecedenceDiagram(t *testing.T) {
	session, _ := setupServerClient(t)

	out := callTool[PrecedenceDiagramOutput](t, session, "precedence_diagram", PrecedenceDiagramInput{
		Document: documentJSON(t, twoNotes()),
	})
	assert.Contains(t, out.Mermaid, "graph LR\n")
	assert.Contains(t, out.Mermaid, `subgraph T1["onset 1"]`)
	assert.Contains(t, out.Mermaid, "  N0 --> N1\n")
}

func TestMCPInferSemantics_MissingDocument(t *testing.T) {
	session, _ := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "infer_semantics",
		Arguments: InferSemanticsInput{Name: "nope"},
	})
	if err != nil {
		return
	}
	assert.True(t, result.IsError)
}

// TestMCPCallUnknownTool verifies that calling a non-existent tool returns an
// error.
func TestMCPCallUnknownTool(t *testing.T) {
	session, _ := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "nonexistent_tool",
		Arguments: map[string]any{},
	})

	// The MCP SDK may return an error at the protocol level or set IsError on
	// the result. Accept either behavior.
	if err != nil {
		return
	}

	require.NotNil(t, result)
	assert.True(t, result.IsError, "calling an unknown tool should set IsError")
}
