package mcptools

import (
	"github.com/dusk-indust/scoregraph/internal/export"
	"github.com/dusk-indust/scoregraph/internal/graph"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// documentRef selects the notation document a tool works on: a document
// saved in the store, or one passed inline.
type documentRef struct {
	name     string
	document string
}

// InferSemanticsInput is the input for the infer_semantics MCP tool.
type InferSemanticsInput struct {
	Name     string `json:"name,omitempty" jsonschema:"name of a document saved in the store"`
	Document string `json:"document,omitempty" jsonschema:"the document itself as a JSON array of symbol records; takes precedence over name"`
	Strict   bool   `json:"strict,omitempty" jsonschema:"fail instead of warning when a heuristic has to guess"`
}

// InferSemanticsOutput is the result of the infer_semantics MCP tool.
type InferSemanticsOutput struct {
	Results *export.ResultsExport `json:"results"`
}

// CheckGraphInput is the input for the check_graph MCP tool.
type CheckGraphInput struct {
	Name     string `json:"name,omitempty" jsonschema:"name of a document saved in the store"`
	Document string `json:"document,omitempty" jsonschema:"the document itself as a JSON array of symbol records; takes precedence over name"`
}

// CheckGraphOutput is the result of the check_graph MCP tool.
type CheckGraphOutput struct {
	Report *graph.CheckReport `json:"report"`
}

// PrecedenceDiagramInput is the input for the precedence_diagram MCP tool.
type PrecedenceDiagramInput struct {
	Name     string `json:"name,omitempty" jsonschema:"name of a document saved in the store"`
	Document string `json:"document,omitempty" jsonschema:"the document itself as a JSON array of symbol records; takes precedence over name"`
}

// PrecedenceDiagramOutput is the result of the precedence_diagram MCP tool.
type PrecedenceDiagramOutput struct {
	Mermaid string `json:"mermaid"`
}

// SaveDocumentInput is the input for the save_document MCP tool.
type SaveDocumentInput struct {
	Name     string `json:"name" jsonschema:"name to store the document under; an existing document is replaced"`
	Document string `json:"document" jsonschema:"the document as a JSON array of symbol records"`
}

// SaveDocumentOutput is the result of the save_document MCP tool.
type SaveDocumentOutput struct {
	Symbols int `json:"symbols"`
}

// ListDocumentsInput is the input for the list_documents MCP tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the result of the list_documents MCP tool.
type ListDocumentsOutput struct {
	Documents []string         `json:"documents"`
	Stats     graph.StoreStats `json:"stats"`
}
